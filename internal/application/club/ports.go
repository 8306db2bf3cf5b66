package club

import (
	"context"
	"time"

	"github.com/baechuer/club-service/internal/infrastructure/bgg"
)

type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// DocumentStore persists the encoded club document. Load returns nil when
// nothing has been saved yet.
type DocumentStore interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, doc []byte) error
}

type EventPublisher interface {
	PublishEvent(ctx context.Context, routingKey string, payload any) error
}

// GameLookup is the BoardGameGeek client as seen by the service.
type GameLookup interface {
	Search(ctx context.Context, query string) ([]bgg.SearchResult, error)
	Thing(ctx context.Context, id int64) (*bgg.Game, error)
}
