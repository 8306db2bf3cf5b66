package club

import "github.com/baechuer/club-service/internal/domain"

// EventView is an event with its resolved capacity and counts. It is a copy:
// callers may keep it after the lock is released.
type EventView struct {
	domain.Event
	Capacity        domain.Capacity `json:"capacity"`
	ActiveCount     int             `json:"active_count"`
	WaitlistedCount int             `json:"waitlisted_count"`

	// Active is in registration order, Waitlist in promotion order.
	Active   []domain.Participant `json:"active"`
	Waitlist []domain.Participant `json:"waitlist"`
}

func newEventView(e *domain.Event, catalog domain.Catalog) EventView {
	cp := *e
	cp.Participants = append([]domain.Participant(nil), e.Participants...)
	if e.LinkedItemID != nil {
		v := *e.LinkedItemID
		cp.LinkedItemID = &v
	}
	if e.ExplicitCapacity != nil {
		v := *e.ExplicitCapacity
		cp.ExplicitCapacity = &v
	}
	active := e.Active()
	if active == nil {
		active = []domain.Participant{}
	}
	return EventView{
		Event:           cp,
		Capacity:        domain.ResolveCapacity(e, catalog),
		ActiveCount:     e.ActiveCount(),
		WaitlistedCount: e.WaitlistedCount(),
		Active:          active,
		Waitlist:        e.Waitlist(),
	}
}

// ItemView is a catalog item with its aggregated display values.
type ItemView struct {
	domain.Item
	Aggregated  domain.AggregatedItem `json:"aggregated"`
	Attachments []domain.Item         `json:"attachments,omitempty"`
	// Base is set for attachments.
	Base *domain.Item `json:"base,omitempty"`
}

func newItemView(it *domain.Item, catalog domain.Catalog) ItemView {
	cp := *it
	if it.BaseItemID != nil {
		v := *it.BaseItemID
		cp.BaseItemID = &v
	}
	v := ItemView{
		Item:        cp,
		Aggregated:  domain.Aggregate(it, catalog),
		Attachments: catalog.Attachments(it.ID),
	}
	if base := catalog.BaseOf(it.ID); base != nil {
		b := *base
		v.Base = &b
	}
	return v
}
