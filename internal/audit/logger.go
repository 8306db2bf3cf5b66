package audit

import (
	"context"

	"github.com/baechuer/club-service/internal/domain"
	appCtx "github.com/baechuer/club-service/internal/pkg/context"
	"github.com/rs/zerolog"
)

// Logger provides structured audit logging for club business events
type Logger struct {
	log zerolog.Logger
}

// New creates a new audit logger
func New(log zerolog.Logger) *Logger {
	return &Logger{
		log: log.With().Bool("audit", true).Logger(),
	}
}

// Registered logs when a member registers to an event
func (l *Logger) Registered(ctx context.Context, eventID int64, p domain.Participant, choice domain.Choice) {
	l.log.Info().
		Str("action", "registered").
		Int64("event_id", eventID).
		Int64("member_id", p.MemberID).
		Str("role", string(p.Role)).
		Str("choice", string(choice)).
		Str("request_id", appCtx.GetRequestID(ctx)).
		Msg("Member registered to event")
}

// Unregistered logs when a member leaves an event
func (l *Logger) Unregistered(ctx context.Context, eventID int64, p domain.Participant) {
	l.log.Info().
		Str("action", "unregistered").
		Int64("event_id", eventID).
		Int64("member_id", p.MemberID).
		Str("previous_role", string(p.Role)).
		Str("request_id", appCtx.GetRequestID(ctx)).
		Msg("Member unregistered from event")
}

// Promoted logs when a member moves from the waitlist to active
func (l *Logger) Promoted(ctx context.Context, eventID, memberID int64, auto bool) {
	l.log.Info().
		Str("action", "promoted").
		Int64("event_id", eventID).
		Int64("member_id", memberID).
		Bool("auto", auto).
		Str("request_id", appCtx.GetRequestID(ctx)).
		Msg("Member promoted from waitlist")
}

// EventCreated logs when an organizer schedules an event
func (l *Logger) EventCreated(ctx context.Context, ev *domain.Event) {
	e := l.log.Info().
		Str("action", "event_created").
		Int64("event_id", ev.ID).
		Int64("creator_id", ev.CreatorID).
		Str("date", ev.Date)
	if ev.LinkedItemID != nil {
		e = e.Int64("linked_item_id", *ev.LinkedItemID)
	}
	e.Str("request_id", appCtx.GetRequestID(ctx)).Msg("Event created")
}

// Attached logs when an item becomes an attachment of a base item
func (l *Logger) Attached(ctx context.Context, baseID, attachmentID, actorID int64) {
	l.log.Info().
		Str("action", "attached").
		Int64("base_item_id", baseID).
		Int64("item_id", attachmentID).
		Int64("actor_id", actorID).
		Str("request_id", appCtx.GetRequestID(ctx)).
		Msg("Item attached to base")
}

// Detached logs when an attachment becomes a standalone item again
func (l *Logger) Detached(ctx context.Context, itemID, actorID int64) {
	l.log.Info().
		Str("action", "detached").
		Int64("item_id", itemID).
		Int64("actor_id", actorID).
		Str("request_id", appCtx.GetRequestID(ctx)).
		Msg("Item detached from base")
}

// ItemAdded logs a catalog addition, manual or imported from BoardGameGeek
func (l *Logger) ItemAdded(ctx context.Context, it domain.Item, actorID int64) {
	l.log.Info().
		Str("action", "item_added").
		Int64("item_id", it.ID).
		Int64("bgg_id", it.BGGID).
		Str("name", it.Name).
		Int64("actor_id", actorID).
		Str("request_id", appCtx.GetRequestID(ctx)).
		Msg("Item added to catalog")
}

// SyncFailed logs a save that left the state pending
func (l *Logger) SyncFailed(ctx context.Context, op string, err error) {
	l.log.Error().
		Str("action", "sync_failed").
		Str("op", op).
		Err(err).
		Str("request_id", appCtx.GetRequestID(ctx)).
		Msg("State save failed, kept in memory")
}
