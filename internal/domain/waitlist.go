package domain

import (
	"sort"
	"time"
)

// PromotionWindow is how long before an event start the waitlist is drained into
// free seats.
const PromotionWindow = 24 * time.Hour

// Capacity is the resolved participant limit of an event. Limited=false means
// there is no limit.
type Capacity struct {
	Limit   int  `json:"limit"`
	Limited bool `json:"limited"`
}

// ResolveCapacity uses the linked item's aggregated max players when the item
// exists in the catalog, otherwise the explicit capacity. A missing or zero
// explicit capacity means unlimited.
func ResolveCapacity(e *Event, catalog Catalog) Capacity {
	if e.LinkedItemID != nil {
		if it := catalog.Find(*e.LinkedItemID); it != nil {
			return Capacity{Limit: Aggregate(it, catalog).MaxPlayers, Limited: true}
		}
	}
	if e.ExplicitCapacity != nil && *e.ExplicitCapacity > 0 {
		return Capacity{Limit: *e.ExplicitCapacity, Limited: true}
	}
	return Capacity{}
}

func (c Capacity) hasRoom(active int) bool {
	return !c.Limited || active < c.Limit
}

// Register appends memberID to the event. An explicit waitlist request is always
// honored; otherwise the capacity decides, whatever the caller asked for.
func Register(e *Event, catalog Catalog, memberID int64, displayName string, choice Choice, now time.Time) (Participant, error) {
	if e.FindParticipant(memberID) != nil {
		return Participant{}, ErrAlreadyRegistered
	}

	p := Participant{
		MemberID:     memberID,
		DisplayName:  displayName,
		RegisteredAt: now.UTC(),
	}

	switch {
	case choice == ChoiceWaitlisted:
		p.Role = RoleWaitlisted
	case ResolveCapacity(e, catalog).hasRoom(e.ActiveCount()):
		p.Role = RoleActive
	default:
		p.Role = RoleWaitlisted
	}

	e.Participants = append(e.Participants, p)
	return p, nil
}

type UnregisterResult struct {
	Removed  *Participant `json:"removed,omitempty"`
	Promoted *Participant `json:"promoted,omitempty"`
}

// Unregister removes memberID. Unknown members are a no-op.
//
// Only events linked to a catalog item promote on unregistration, and at most one
// waitlisted participant is promoted. Events with an explicit or no capacity wait
// for the promotion window instead.
func Unregister(e *Event, catalog Catalog, memberID int64) UnregisterResult {
	idx := -1
	for i := range e.Participants {
		if e.Participants[i].MemberID == memberID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return UnregisterResult{}
	}

	removed := e.Participants[idx]
	e.Participants = append(e.Participants[:idx], e.Participants[idx+1:]...)
	res := UnregisterResult{Removed: &removed}

	if removed.Role != RoleActive || e.LinkedItemID == nil {
		return res
	}
	if !ResolveCapacity(e, catalog).hasRoom(e.ActiveCount()) {
		return res
	}

	order := e.waitlistOrder()
	if len(order) == 0 {
		return res
	}
	next := &e.Participants[order[0]]
	next.Role = RoleActive
	promoted := *next
	res.Promoted = &promoted
	return res
}

type Promotion struct {
	EventID  int64 `json:"event_id"`
	MemberID int64 `json:"member_id"`
}

// AutoPromote fills free seats from the waitlist for every event that starts in
// (now, now+24h]. Running it twice without intervening changes promotes nothing
// the second time.
func AutoPromote(events []Event, catalog Catalog, now time.Time, loc *time.Location) []Promotion {
	var out []Promotion
	for i := range events {
		e := &events[i]
		if len(e.Participants) == 0 {
			continue
		}

		start, err := e.StartsAt(loc)
		if err != nil {
			continue
		}
		until := start.Sub(now)
		if until <= 0 || until > PromotionWindow {
			continue
		}

		c := ResolveCapacity(e, catalog)
		if !c.Limited || c.Limit == 0 {
			continue
		}

		active := e.ActiveCount()
		for _, wi := range e.waitlistOrder() {
			if active >= c.Limit {
				break
			}
			p := &e.Participants[wi]
			p.Role = RoleActive
			p.AutoPromoted = true
			active++
			out = append(out, Promotion{EventID: e.ID, MemberID: p.MemberID})
		}
	}
	return out
}

// waitlistOrder returns indexes of waitlisted participants, oldest registration
// first. Equal timestamps keep list order.
func (e *Event) waitlistOrder() []int {
	var idx []int
	for i, p := range e.Participants {
		if p.Role == RoleWaitlisted {
			idx = append(idx, i)
		}
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return e.Participants[idx[a]].RegisteredAt.Before(e.Participants[idx[b]].RegisteredAt)
	})
	return idx
}
