package club

import (
	"context"
	"sort"

	"github.com/baechuer/club-service/internal/domain"
	"github.com/baechuer/club-service/internal/metrics"
	"github.com/baechuer/club-service/internal/pkg/logger"
)

// Promotion triggers, used as metric labels and in notifications.
const (
	TriggerList   = "list"
	TriggerManual = "manual"
	TriggerSweep  = "sweep"
	TriggerUnregs = "unregister"
)

type CreateEventInput struct {
	Title            string
	Date             string
	Time             string
	Description      string
	LinkedItemID     *int64
	ExplicitCapacity *int
}

// ListEvents promotes waitlisted members of imminent events, then returns every
// event sorted by date and time.
func (s *Service) ListEvents(ctx context.Context) []EventView {
	s.AutoPromote(ctx, TriggerList)

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]EventView, 0, len(s.state.Events))
	for i := range s.state.Events {
		out = append(out, newEventView(&s.state.Events[i], s.state.Catalog))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].Time < out[j].Time
	})
	return out
}

func (s *Service) GetEvent(ctx context.Context, eventID int64) (*EventView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ev := s.state.FindEvent(eventID)
	if ev == nil {
		return nil, domain.ErrEventNotFound
	}
	v := newEventView(ev, s.state.Catalog)
	return &v, nil
}

func (s *Service) CreateEvent(ctx context.Context, creatorID int64, in CreateEventInput) (*EventView, error) {
	now := s.now()

	s.mu.Lock()
	ev, err := domain.NewEvent(0, in.Title, in.Date, in.Time, in.Description, in.LinkedItemID, in.ExplicitCapacity, creatorID, now)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if ev.LinkedItemID != nil && s.state.Catalog.Find(*ev.LinkedItemID) == nil {
		s.mu.Unlock()
		return nil, domain.ErrItemNotFound
	}
	ev.ID = s.state.NextEventID()
	s.state.Events = append(s.state.Events, *ev)
	view := newEventView(ev, s.state.Catalog)
	snap, v := s.commit()
	s.mu.Unlock()

	if s.audit != nil {
		s.audit.EventCreated(ctx, ev)
	}
	publish(ctx, s.pub, RKEventCreated, now, EventCreatedPayload{
		EventID:      ev.ID,
		Title:        ev.Title,
		Date:         ev.Date,
		Time:         ev.Time,
		LinkedItemID: ev.LinkedItemID,
		CreatorID:    creatorID,
	})

	return &view, s.flush(ctx, "create_event", snap, v)
}

// Register adds memberID to the event. The returned participant is valid even
// when the error is a SyncError.
func (s *Service) Register(ctx context.Context, eventID, memberID int64, choice domain.Choice) (domain.Participant, error) {
	now := s.now()

	s.mu.Lock()
	ev := s.state.FindEvent(eventID)
	if ev == nil {
		s.mu.Unlock()
		return domain.Participant{}, domain.ErrEventNotFound
	}
	m := s.state.FindMember(memberID)
	if m == nil {
		s.mu.Unlock()
		return domain.Participant{}, domain.ErrMemberNotFound
	}
	p, err := domain.Register(ev, s.state.Catalog, memberID, m.DisplayName(), choice, now)
	if err != nil {
		s.mu.Unlock()
		return domain.Participant{}, err
	}
	snap, v := s.commit()
	s.mu.Unlock()

	metrics.RecordRegistration(string(p.Role))
	if s.audit != nil {
		s.audit.Registered(ctx, eventID, p, choice)
	}
	publish(ctx, s.pub, RKParticipantRegistered, now, ParticipantPayload{
		EventID:  eventID,
		MemberID: memberID,
		Role:     p.Role,
	})

	return p, s.flush(ctx, "register", snap, v)
}

// Unregister removes memberID from the event. A member who is not registered
// is not an error: the result is empty and nothing is saved.
func (s *Service) Unregister(ctx context.Context, eventID, memberID int64) (domain.UnregisterResult, error) {
	now := s.now()

	s.mu.Lock()
	ev := s.state.FindEvent(eventID)
	if ev == nil {
		s.mu.Unlock()
		return domain.UnregisterResult{}, domain.ErrEventNotFound
	}
	res := domain.Unregister(ev, s.state.Catalog, memberID)
	if res.Removed == nil {
		s.mu.Unlock()
		return res, nil
	}
	snap, v := s.commit()
	s.mu.Unlock()

	metrics.RecordUnregistration()
	if s.audit != nil {
		s.audit.Unregistered(ctx, eventID, *res.Removed)
	}
	publish(ctx, s.pub, RKParticipantUnregistered, now, ParticipantPayload{
		EventID:  eventID,
		MemberID: memberID,
		Role:     res.Removed.Role,
	})

	if res.Promoted != nil {
		metrics.RecordPromotions(TriggerUnregs, 1)
		if s.audit != nil {
			s.audit.Promoted(ctx, eventID, res.Promoted.MemberID, false)
		}
		publish(ctx, s.pub, RKParticipantPromoted, now, ParticipantPayload{
			EventID:  eventID,
			MemberID: res.Promoted.MemberID,
			Role:     domain.RoleActive,
			Trigger:  TriggerUnregs,
		})
	}

	return res, s.flush(ctx, "unregister", snap, v)
}

// AutoPromote fills free seats of events starting within the promotion window.
// A failed save is logged and left pending; it never fails the caller.
func (s *Service) AutoPromote(ctx context.Context, trigger string) []domain.Promotion {
	now := s.clock.Now()

	s.mu.Lock()
	promos := domain.AutoPromote(s.state.Events, s.state.Catalog, now, s.loc)
	if len(promos) == 0 {
		s.mu.Unlock()
		return nil
	}
	snap, v := s.commit()
	s.mu.Unlock()

	metrics.RecordPromotions(trigger, len(promos))
	for _, p := range promos {
		if s.audit != nil {
			s.audit.Promoted(ctx, p.EventID, p.MemberID, true)
		}
		publish(ctx, s.pub, RKParticipantPromoted, now, ParticipantPayload{
			EventID:      p.EventID,
			MemberID:     p.MemberID,
			Role:         domain.RoleActive,
			AutoPromoted: true,
			Trigger:      trigger,
		})
	}

	if err := s.flush(ctx, "auto_promote", snap, v); err != nil {
		logger.WithCtx(ctx).Warn().
			Err(err).
			Int("promotions", len(promos)).
			Msg("auto promotion not saved, will retry")
	}
	return promos
}
