package club

import (
	"context"
	"errors"
	"strings"

	"github.com/baechuer/club-service/internal/domain"
	"github.com/baechuer/club-service/internal/infrastructure/bgg"
)

// ErrImportDisabled is returned by the BGG operations when no client is wired.
var ErrImportDisabled = errors.New("boardgamegeek import is disabled")

type ImportInput struct {
	BGGID      int64
	Owner      string
	BaseItemID *int64
}

func (s *Service) SearchBGG(ctx context.Context, query string) ([]bgg.SearchResult, error) {
	if s.games == nil {
		return nil, ErrImportDisabled
	}
	return s.games.Search(ctx, query)
}

// ImportFromBGG fetches a game and adds it to the catalog. An empty owner
// falls back to the base item's owner, then to the association.
func (s *Service) ImportFromBGG(ctx context.Context, actorID int64, in ImportInput) (*ItemView, error) {
	if s.games == nil {
		return nil, ErrImportDisabled
	}
	if in.BGGID <= 0 {
		return nil, domain.Validation("bgg_id must be positive")
	}

	// network call stays outside the state lock
	g, err := s.games.Thing(ctx, in.BGGID)
	if err != nil {
		if errors.Is(err, bgg.ErrNotFound) {
			return nil, domain.ErrItemNotFound
		}
		return nil, err
	}

	it := bgg.ToItem(g, in.Owner, s.now())
	if strings.TrimSpace(in.Owner) == "" {
		// let insert pick the base owner
		it.Owner = ""
	}
	return s.insert(ctx, actorID, it, in.BaseItemID, "import")
}
