package bgg_test

import (
	"testing"
	"time"

	"github.com/baechuer/club-service/internal/infrastructure/bgg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanDescription(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"line one<br/>line two", "line one\nline two"},
		{"<p>Trade &quot;wood&quot; &amp; sheep</p>", `Trade "wood" & sheep`},
		{"  a&#10;b  ", "a\nb"},
		{"1 &lt; 2 &gt; 0", "1 < 2 > 0"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, bgg.CleanDescription(tt.in), tt.in)
	}
}

func TestToItem(t *testing.T) {
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	rating := 7.10247
	rank := 530

	t.Run("copies the game", func(t *testing.T) {
		g := &bgg.Game{
			ID: 13, Name: "CATAN", MinPlayers: 3, MaxPlayers: 4, PlayingTime: 120, MinAge: 10,
			Description: "a<br>b", Categories: []string{"Negotiation"}, Rating: &rating, Rank: &rank,
		}
		it := bgg.ToItem(g, "Ada", now)
		assert.Equal(t, "CATAN", it.Name)
		assert.Equal(t, "Ada", it.Owner)
		assert.Equal(t, 3, it.MinPlayers)
		assert.Equal(t, 4, it.MaxPlayers)
		assert.Equal(t, 120, it.DurationMinutes)
		assert.Equal(t, 10, it.MinAge)
		assert.Equal(t, int64(13), it.BGGID)
		assert.Equal(t, "a\nb", it.Description)
		assert.False(t, it.IsAttachment)
		assert.Nil(t, it.BaseItemID)
		require.NotNil(t, it.Rating)
		assert.Equal(t, 7.1, *it.Rating)
		assert.Equal(t, 530, *it.Rank)
		assert.Equal(t, now, it.AddedAt)
		assert.Equal(t, []string{}, it.Mechanics)
	})

	t.Run("defaults", func(t *testing.T) {
		it := bgg.ToItem(&bgg.Game{ID: 1, Name: "X"}, " ", now)
		assert.Equal(t, bgg.DefaultOwner, it.Owner)
		assert.Equal(t, 1, it.MinPlayers)
		assert.Equal(t, 10, it.MaxPlayers)
		assert.Equal(t, 60, it.DurationMinutes)
		assert.Equal(t, 0, it.MinAge)
		assert.Nil(t, it.Rating)
	})

	t.Run("max play time fallback", func(t *testing.T) {
		it := bgg.ToItem(&bgg.Game{MaxPlayTime: 45}, "", now)
		assert.Equal(t, 45, it.DurationMinutes)
	})
}
