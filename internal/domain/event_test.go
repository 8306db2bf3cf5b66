package domain_test

import (
	"testing"
	"time"

	"github.com/baechuer/club-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseChoice(t *testing.T) {
	tests := []struct {
		in      string
		want    domain.Choice
		wantErr bool
	}{
		{"", domain.ChoiceAuto, false},
		{"auto", domain.ChoiceAuto, false},
		{" Active ", domain.ChoiceActive, false},
		{"waitlisted", domain.ChoiceWaitlisted, false},
		{"reserve", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := domain.ParseChoice(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewEvent(t *testing.T) {
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	t.Run("defaults time", func(t *testing.T) {
		ev, err := domain.NewEvent(3, "  Soirée jeux ", "2025-03-14", "", "", nil, nil, 1, now)
		require.NoError(t, err)
		assert.Equal(t, "Soirée jeux", ev.Title)
		assert.Equal(t, "19:00", ev.Time)
		assert.Equal(t, now, ev.CreatedAt)
		assert.NotNil(t, ev.Participants)
	})

	tests := []struct {
		name     string
		title    string
		date     string
		at       string
		capacity *int
	}{
		{"missing title", " ", "2025-03-14", "19:00", nil},
		{"bad date", "x", "14/03/2025", "19:00", nil},
		{"bad time", "x", "2025-03-14", "7pm", nil},
		{"negative capacity", "x", "2025-03-14", "19:00", ptr(-1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := domain.NewEvent(1, tt.title, tt.date, tt.at, "", nil, tt.capacity, 1, now)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestEvent_StartsAt(t *testing.T) {
	ev := domain.Event{Date: "2025-03-14", Time: "20:30"}
	got, err := ev.StartsAt(nil)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 14, 20, 30, 0, 0, time.UTC), got)

	got, err = (&domain.Event{Date: "2025-03-14", Time: "20:30:15"}).StartsAt(time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 14, 20, 30, 15, 0, time.UTC), got)

	_, err = (&domain.Event{Date: "2025-03-14", Time: "8pm"}).StartsAt(time.UTC)
	assert.Error(t, err)

	_, err = (&domain.Event{Date: "nope", Time: "20:30"}).StartsAt(time.UTC)
	assert.Error(t, err)
}

func TestState_NextIDs(t *testing.T) {
	s := domain.NewState()
	s.Events = []domain.Event{{ID: 1}, {ID: 2}}
	s.Catalog = domain.Catalog{game(5, 1, 2, 3, 4)}
	s.Settings.LastGameID = 4

	assert.Equal(t, int64(3), s.NextEventID())
	assert.Equal(t, int64(6), s.NextGameID())
	assert.Equal(t, int64(6), s.Settings.LastGameID)
}

func TestState_CloneIsDeep(t *testing.T) {
	s := domain.NewState()
	s.Events = []domain.Event{{ID: 1, LinkedItemID: ptr(int64(2)), Participants: []domain.Participant{{MemberID: 1}}}}
	s.Catalog = domain.Catalog{attachment(2, 1, 1, 2, 3, 4)}

	c := s.Clone()
	c.Events[0].Participants[0].MemberID = 9
	*c.Events[0].LinkedItemID = 7
	*c.Catalog[0].BaseItemID = 8

	assert.Equal(t, int64(1), s.Events[0].Participants[0].MemberID)
	assert.Equal(t, int64(2), *s.Events[0].LinkedItemID)
	assert.Equal(t, int64(1), *s.Catalog[0].BaseItemID)
}

func TestState_CloneKeepsSliceNilness(t *testing.T) {
	s := domain.NewState()
	s.Catalog = domain.Catalog{{ID: 1, Categories: []string{}, Mechanics: []string{"Dice"}}}

	c := s.Clone()
	assert.NotNil(t, c.Catalog[0].Categories)
	assert.Empty(t, c.Catalog[0].Categories)
	assert.Nil(t, c.Catalog[0].Designers)

	c.Catalog[0].Mechanics[0] = "Cards"
	assert.Equal(t, "Dice", s.Catalog[0].Mechanics[0])
}
