package club

import (
	"context"
	"time"

	"github.com/baechuer/club-service/internal/domain"
	reqctx "github.com/baechuer/club-service/internal/pkg/context"
	"github.com/baechuer/club-service/internal/pkg/logger"
	"github.com/google/uuid"
)

const (
	EventVersion  = 1
	EventProducer = "club-service"
)

// Routing keys of the notifications published after each mutation.
const (
	RKParticipantRegistered   = "participant.registered"
	RKParticipantUnregistered = "participant.unregistered"
	RKParticipantPromoted     = "participant.promoted"
	RKCatalogAttached         = "catalog.attached"
	RKCatalogDetached         = "catalog.detached"
	RKCatalogImported         = "catalog.imported"
	RKEventCreated            = "event.created"
)

// DomainEventEnvelope wraps every notification emitted by club-service.
// Consumers should rely on version/producer/message_id/occurred_at + payload.
type DomainEventEnvelope[T any] struct {
	Version    int       `json:"version"`
	Producer   string    `json:"producer"`
	MessageID  string    `json:"message_id"`
	TraceID    string    `json:"trace_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    T         `json:"payload"`
}

type ParticipantPayload struct {
	EventID      int64       `json:"event_id"`
	MemberID     int64       `json:"member_id"`
	Role         domain.Role `json:"role"`
	AutoPromoted bool        `json:"auto_promoted,omitempty"`
	Trigger      string      `json:"trigger,omitempty"`
}

type CatalogPayload struct {
	ItemID     int64  `json:"item_id"`
	BaseItemID *int64 `json:"base_item_id,omitempty"`
	BGGID      int64  `json:"bgg_id,omitempty"`
	Name       string `json:"name,omitempty"`
	ActorID    int64  `json:"actor_id,omitempty"`
}

type EventCreatedPayload struct {
	EventID      int64  `json:"event_id"`
	Title        string `json:"title"`
	Date         string `json:"date"`
	Time         string `json:"time"`
	LinkedItemID *int64 `json:"linked_item_id,omitempty"`
	CreatorID    int64  `json:"creator_id"`
}

// publish is best effort: failures are logged, never returned.
func publish[T any](ctx context.Context, pub EventPublisher, rk string, now time.Time, payload T) {
	if pub == nil {
		return
	}
	env := DomainEventEnvelope[T]{
		Version:    EventVersion,
		Producer:   EventProducer,
		MessageID:  uuid.NewString(),
		TraceID:    reqctx.GetRequestID(ctx),
		OccurredAt: now.UTC(),
		Payload:    payload,
	}
	if err := pub.PublishEvent(ctx, rk, env); err != nil {
		logger.WithCtx(ctx).Error().
			Err(err).
			Str("rk", rk).
			Msg("publish domain event failed")
	}
}
