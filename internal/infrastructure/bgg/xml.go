package bgg

import (
	"strconv"
	"strings"
)

type valueAttr struct {
	Value string `xml:"value,attr"`
}

type nameAttr struct {
	Type  string `xml:"type,attr"`
	Value string `xml:"value,attr"`
}

type linkAttr struct {
	Type  string `xml:"type,attr"`
	ID    int64  `xml:"id,attr"`
	Value string `xml:"value,attr"`
}

type rankAttr struct {
	ID    string `xml:"id,attr"`
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

type searchDoc struct {
	Items []struct {
		ID    int64      `xml:"id,attr"`
		Names []nameAttr `xml:"name"`
		Year  valueAttr  `xml:"yearpublished"`
	} `xml:"item"`
}

type thingDoc struct {
	Items []thingItem `xml:"item"`
}

type thingItem struct {
	ID          int64      `xml:"id,attr"`
	Thumbnail   string     `xml:"thumbnail"`
	Image       string     `xml:"image"`
	Names       []nameAttr `xml:"name"`
	Description string     `xml:"description"`
	Year        valueAttr  `xml:"yearpublished"`
	MinPlayers  valueAttr  `xml:"minplayers"`
	MaxPlayers  valueAttr  `xml:"maxplayers"`
	PlayingTime valueAttr  `xml:"playingtime"`
	MaxPlayTime valueAttr  `xml:"maxplaytime"`
	MinAge      valueAttr  `xml:"minage"`
	Links       []linkAttr `xml:"link"`
	Ratings     *struct {
		Average valueAttr  `xml:"average"`
		Ranks   []rankAttr `xml:"ranks>rank"`
	} `xml:"statistics>ratings"`
}

func (it thingItem) toGame() *Game {
	g := &Game{
		ID:            it.ID,
		Name:          primaryName(it.Names),
		Image:         strings.TrimSpace(it.Image),
		Thumbnail:     strings.TrimSpace(it.Thumbnail),
		Description:   it.Description,
		YearPublished: atoi(it.Year.Value),
		MinPlayers:    atoi(it.MinPlayers.Value),
		MaxPlayers:    atoi(it.MaxPlayers.Value),
		PlayingTime:   atoi(it.PlayingTime.Value),
		MaxPlayTime:   atoi(it.MaxPlayTime.Value),
		MinAge:        atoi(it.MinAge.Value),
		Categories:    links(it.Links, "boardgamecategory"),
		Mechanics:     links(it.Links, "boardgamemechanic"),
		Designers:     links(it.Links, "boardgamedesigner"),
		Publishers:    links(it.Links, "boardgamepublisher"),
	}
	if it.Ratings != nil {
		if avg, err := strconv.ParseFloat(it.Ratings.Average.Value, 64); err == nil {
			g.Rating = &avg
		}
		for _, r := range it.Ratings.Ranks {
			// id 1 is the overall board game rank
			if r.ID != "1" {
				continue
			}
			if v, err := strconv.Atoi(r.Value); err == nil {
				g.Rank = &v
			}
		}
	}
	return g
}

func primaryName(names []nameAttr) string {
	for _, n := range names {
		if n.Type == "primary" {
			return n.Value
		}
	}
	if len(names) > 0 {
		return names[0].Value
	}
	return ""
}

func links(ls []linkAttr, kind string) []string {
	out := []string{}
	for _, l := range ls {
		if l.Type == kind {
			out = append(out, l.Value)
		}
	}
	return out
}

func atoi(s string) int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return v
}
