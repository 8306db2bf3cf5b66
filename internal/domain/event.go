package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

type Role string

const (
	RoleActive     Role = "active"
	RoleWaitlisted Role = "waitlisted"
)

func (r Role) Valid() bool {
	return r == RoleActive || r == RoleWaitlisted
}

// Choice is what the member asked for when registering.
type Choice string

const (
	ChoiceAuto       Choice = "auto"
	ChoiceActive     Choice = "active"
	ChoiceWaitlisted Choice = "waitlisted"
)

func ParseChoice(s string) (Choice, error) {
	switch c := Choice(strings.ToLower(strings.TrimSpace(s))); c {
	case "":
		return ChoiceAuto, nil
	case ChoiceAuto, ChoiceActive, ChoiceWaitlisted:
		return c, nil
	default:
		return "", Validation(fmt.Sprintf("unknown registration choice %q", s))
	}
}

type Participant struct {
	MemberID     int64     `json:"member_id"`
	DisplayName  string    `json:"display_name"`
	Role         Role      `json:"role"`
	RegisteredAt time.Time `json:"registered_at"`
	AutoPromoted bool      `json:"auto_promoted"`

	Extra map[string]json.RawMessage `json:"-"`
}

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"

	timeLayoutSeconds = "15:04:05"
)

type Event struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	Description string `json:"description"`

	LinkedItemID     *int64 `json:"linked_item_id,omitempty"`
	ExplicitCapacity *int   `json:"explicit_capacity,omitempty"`

	CreatorID int64     `json:"creator_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`

	Participants []Participant `json:"participants"`

	Extra map[string]json.RawMessage `json:"-"`
}

// StartsAt interprets date and time in loc. Stored times may carry seconds.
func (e *Event) StartsAt(loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	v := strings.TrimSpace(e.Date) + " " + strings.TrimSpace(e.Time)
	t, err := time.ParseInLocation(DateLayout+" "+TimeLayout, v, loc)
	if err != nil {
		if t2, err2 := time.ParseInLocation(DateLayout+" "+timeLayoutSeconds, v, loc); err2 == nil {
			return t2, nil
		}
	}
	return t, err
}

func (e *Event) FindParticipant(memberID int64) *Participant {
	for i := range e.Participants {
		if e.Participants[i].MemberID == memberID {
			return &e.Participants[i]
		}
	}
	return nil
}

func (e *Event) count(role Role) int {
	n := 0
	for _, p := range e.Participants {
		if p.Role == role {
			n++
		}
	}
	return n
}

func (e *Event) ActiveCount() int     { return e.count(RoleActive) }
func (e *Event) WaitlistedCount() int { return e.count(RoleWaitlisted) }

// Active returns the active participants in list order.
func (e *Event) Active() []Participant {
	var out []Participant
	for _, p := range e.Participants {
		if p.Role == RoleActive {
			out = append(out, p)
		}
	}
	return out
}

// Waitlist returns the waitlisted participants in promotion order.
func (e *Event) Waitlist() []Participant {
	idx := e.waitlistOrder()
	out := make([]Participant, 0, len(idx))
	for _, i := range idx {
		out = append(out, e.Participants[i])
	}
	return out
}

// NewEvent validates organizer input. Capacity fields are kept as given; a linked
// item takes precedence over an explicit capacity when capacity is resolved.
func NewEvent(id int64, title, date, at, description string, linkedItemID *int64, explicitCapacity *int, creatorID int64, now time.Time) (*Event, error) {
	title = strings.TrimSpace(title)
	date = strings.TrimSpace(date)
	at = strings.TrimSpace(at)

	if title == "" {
		return nil, Validation("title is required")
	}
	if _, err := time.Parse(DateLayout, date); err != nil {
		return nil, Validation("date must be YYYY-MM-DD")
	}
	if at == "" {
		at = "19:00"
	}
	if _, err := time.Parse(TimeLayout, at); err != nil {
		return nil, Validation("time must be HH:MM")
	}
	if explicitCapacity != nil && *explicitCapacity < 0 {
		return nil, Validation("explicit_capacity must be >= 0")
	}

	return &Event{
		ID:               id,
		Title:            title,
		Date:             date,
		Time:             at,
		Description:      strings.TrimSpace(description),
		LinkedItemID:     linkedItemID,
		ExplicitCapacity: explicitCapacity,
		CreatorID:        creatorID,
		CreatedAt:        now.UTC(),
		Participants:     []Participant{},
	}, nil
}
