package domain

import (
	"encoding/json"
	"slices"
	"strings"
)

// Member is read-only here; the roster is managed elsewhere in the club app.
type Member struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`

	Extra map[string]json.RawMessage `json:"-"`
}

func (m Member) DisplayName() string {
	return strings.TrimSpace(m.FirstName + " " + m.LastName)
}

// Settings holds the id counters of the club document. Counters this service does
// not manage are carried in Extra untouched.
type Settings struct {
	LastGameID  int64
	LastEventID int64
	Extra       map[string]json.RawMessage
}

// State is the whole club document as seen by this service. Top-level sections
// owned by other parts of the club app (products, transactions, dues...) travel
// in Extra.
type State struct {
	Members  []Member
	Catalog  Catalog
	Events   []Event
	Settings Settings
	Extra    map[string]json.RawMessage
}

func NewState() *State {
	return &State{
		Members:  []Member{},
		Catalog:  Catalog{},
		Events:   []Event{},
		Settings: Settings{Extra: map[string]json.RawMessage{}},
		Extra:    map[string]json.RawMessage{},
	}
}

func (s *State) FindEvent(id int64) *Event {
	for i := range s.Events {
		if s.Events[i].ID == id {
			return &s.Events[i]
		}
	}
	return nil
}

func (s *State) FindMember(id int64) *Member {
	for i := range s.Members {
		if s.Members[i].ID == id {
			return &s.Members[i]
		}
	}
	return nil
}

// NextEventID bumps the event counter, skipping ids already in use.
func (s *State) NextEventID() int64 {
	s.Settings.LastEventID++
	for s.FindEvent(s.Settings.LastEventID) != nil {
		s.Settings.LastEventID++
	}
	return s.Settings.LastEventID
}

// NextGameID bumps the catalog counter, skipping ids already in use.
func (s *State) NextGameID() int64 {
	s.Settings.LastGameID++
	for s.Catalog.Find(s.Settings.LastGameID) != nil {
		s.Settings.LastGameID++
	}
	return s.Settings.LastGameID
}

// Clone returns a deep copy so a snapshot can be encoded outside the lock. Record
// level Extra maps are shared: they are set once when decoding and never mutated.
func (s *State) Clone() *State {
	out := &State{
		Members:  append([]Member(nil), s.Members...),
		Catalog:  make(Catalog, len(s.Catalog)),
		Events:   make([]Event, len(s.Events)),
		Settings: Settings{LastGameID: s.Settings.LastGameID, LastEventID: s.Settings.LastEventID, Extra: cloneRaw(s.Settings.Extra)},
		Extra:    cloneRaw(s.Extra),
	}
	for i, it := range s.Catalog {
		if it.BaseItemID != nil {
			v := *it.BaseItemID
			it.BaseItemID = &v
		}
		it.Categories = slices.Clone(it.Categories)
		it.Mechanics = slices.Clone(it.Mechanics)
		it.Designers = slices.Clone(it.Designers)
		it.Publishers = slices.Clone(it.Publishers)
		out.Catalog[i] = it
	}
	for i, e := range s.Events {
		if e.LinkedItemID != nil {
			v := *e.LinkedItemID
			e.LinkedItemID = &v
		}
		if e.ExplicitCapacity != nil {
			v := *e.ExplicitCapacity
			e.ExplicitCapacity = &v
		}
		e.Participants = append([]Participant(nil), e.Participants...)
		out.Events[i] = e
	}
	return out
}

func cloneRaw(m map[string]json.RawMessage) map[string]json.RawMessage {
	out := make(map[string]json.RawMessage, len(m))
	for k, v := range m {
		out[k] = append(json.RawMessage(nil), v...)
	}
	return out
}
