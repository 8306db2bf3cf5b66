package bgg

import (
	"html"
	"regexp"
	"strings"
	"time"

	"github.com/baechuer/club-service/internal/domain"
)

// Defaults applied when BGG leaves a field empty or zero.
const (
	DefaultOwner      = "Association"
	defaultMinPlayers = 1
	defaultMaxPlayers = 10
	defaultDuration   = 60
)

var (
	breakTag = regexp.MustCompile(`(?i)<br\s*/?>`)
	anyTag   = regexp.MustCompile(`<[^>]+>`)
)

// CleanDescription turns BGG's HTML-ish description into plain text.
func CleanDescription(s string) string {
	if s == "" {
		return ""
	}
	s = breakTag.ReplaceAllString(s, "\n")
	s = anyTag.ReplaceAllString(s, "")
	s = html.UnescapeString(s)
	return strings.TrimSpace(s)
}

// ToItem converts a BGG game to a standalone catalog item. The id is left for
// the caller to assign.
func ToItem(g *Game, owner string, now time.Time) domain.Item {
	owner = strings.TrimSpace(owner)
	if owner == "" {
		owner = DefaultOwner
	}

	it := domain.Item{
		Name:            g.Name,
		Owner:           owner,
		MinPlayers:      orDefault(g.MinPlayers, defaultMinPlayers),
		MaxPlayers:      orDefault(g.MaxPlayers, defaultMaxPlayers),
		DurationMinutes: orDefault(g.PlayingTime, orDefault(g.MaxPlayTime, defaultDuration)),
		MinAge:          g.MinAge,
		BGGID:           g.ID,
		Description:     CleanDescription(g.Description),
		Image:           g.Image,
		Thumbnail:       g.Thumbnail,
		YearPublished:   g.YearPublished,
		Categories:      nonNil(g.Categories),
		Mechanics:       nonNil(g.Mechanics),
		Designers:       nonNil(g.Designers),
		Publishers:      nonNil(g.Publishers),
		Rank:            g.Rank,
		AddedAt:         now.UTC(),
	}
	if g.Rating != nil {
		// two decimals, as the club app shows it
		r := float64(int64(*g.Rating*100+0.5)) / 100
		it.Rating = &r
	}
	return it
}

func orDefault(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
