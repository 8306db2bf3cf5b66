package domain

import (
	"encoding/json"
	"time"
)

// Item is one entry of the club's game library. Numeric fields are resolved to
// their defaults when the document is decoded, never during computations.
type Item struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	Owner           string `json:"owner"`
	MinPlayers      int    `json:"min_players"`
	MaxPlayers      int    `json:"max_players"`
	DurationMinutes int    `json:"duration_minutes"`
	MinAge          int    `json:"min_age"`

	IsAttachment bool   `json:"is_attachment"`
	BaseItemID   *int64 `json:"base_item_id,omitempty"`

	BGGID         int64     `json:"bgg_id,omitempty"`
	Description   string    `json:"description,omitempty"`
	Image         string    `json:"image,omitempty"`
	Thumbnail     string    `json:"thumbnail,omitempty"`
	YearPublished int       `json:"year_published,omitempty"`
	Categories    []string  `json:"categories,omitempty"`
	Mechanics     []string  `json:"mechanics,omitempty"`
	Designers     []string  `json:"designers,omitempty"`
	Publishers    []string  `json:"publishers,omitempty"`
	Rating        *float64  `json:"rating,omitempty"`
	Rank          *int      `json:"rank,omitempty"`
	AddedAt       time.Time `json:"added_at,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

// AggregatedItem is the display view of a base item including its attachments.
type AggregatedItem struct {
	MinPlayers      int `json:"min_players"`
	MaxPlayers      int `json:"max_players"`
	DurationMinutes int `json:"duration_minutes"`
	MinAge          int `json:"min_age"`
	AttachmentCount int `json:"attachment_count"`
}

func (it Item) ownView() AggregatedItem {
	return AggregatedItem{
		MinPlayers:      it.MinPlayers,
		MaxPlayers:      it.MaxPlayers,
		DurationMinutes: it.DurationMinutes,
		MinAge:          it.MinAge,
	}
}

// Catalog is the ordered list of items as stored in the club document.
type Catalog []Item

// Find returns a pointer into the catalog so callers can mutate in place.
func (c Catalog) Find(id int64) *Item {
	for i := range c {
		if c[i].ID == id {
			return &c[i]
		}
	}
	return nil
}

// Attachments lists the entries whose base is baseID, in catalog order.
func (c Catalog) Attachments(baseID int64) []Item {
	var out []Item
	for _, it := range c {
		if it.BaseItemID != nil && *it.BaseItemID == baseID {
			out = append(out, it)
		}
	}
	return out
}

// BaseOf returns the base item of an attachment, or nil.
func (c Catalog) BaseOf(itemID int64) *Item {
	it := c.Find(itemID)
	if it == nil || !it.IsAttachment || it.BaseItemID == nil {
		return nil
	}
	return c.Find(*it.BaseItemID)
}

// BaseCandidates lists the items that may receive attachments.
func (c Catalog) BaseCandidates() []Item {
	var out []Item
	for _, it := range c {
		if !it.IsAttachment {
			out = append(out, it)
		}
	}
	return out
}

// ItemWithAttachments pairs a base item with its attachments.
type ItemWithAttachments struct {
	Item        Item   `json:"item"`
	Attachments []Item `json:"attachments"`
}

func (c Catalog) ItemsWithAttachments() []ItemWithAttachments {
	var out []ItemWithAttachments
	for _, it := range c {
		if it.IsAttachment {
			continue
		}
		if atts := c.Attachments(it.ID); len(atts) > 0 {
			out = append(out, ItemWithAttachments{Item: it, Attachments: atts})
		}
	}
	return out
}

// Aggregate computes the view of item inclusive of its attachments.
//
// Missing numeric fields were resolved to 0 at ingestion, so a missing
// min_players or min_age pulls the minimum down to 0. This mirrors what the club
// app has always displayed and is kept until product decides otherwise.
func Aggregate(item *Item, catalog Catalog) AggregatedItem {
	if item == nil {
		return AggregatedItem{}
	}
	if item.IsAttachment {
		return item.ownView()
	}

	atts := catalog.Attachments(item.ID)
	if len(atts) == 0 {
		return item.ownView()
	}

	agg := item.ownView()
	for _, a := range atts {
		agg.MinPlayers = min(agg.MinPlayers, a.MinPlayers)
		agg.MaxPlayers = max(agg.MaxPlayers, a.MaxPlayers)
		agg.DurationMinutes = max(agg.DurationMinutes, a.DurationMinutes)
		agg.MinAge = min(agg.MinAge, a.MinAge)
	}
	agg.AttachmentCount = len(atts)
	return agg
}

// Attach marks candidateID as an attachment of baseID.
//
// Only direct checks are made: self reference, candidate already attached, and
// base being an attachment. There is no transitive cycle detection.
func Attach(catalog Catalog, baseID, candidateID int64) error {
	base := catalog.Find(baseID)
	if base == nil {
		return ErrItemNotFound
	}
	cand := catalog.Find(candidateID)
	if cand == nil {
		return ErrItemNotFound
	}

	if candidateID == baseID {
		return invalidOp("an item cannot be attached to itself")
	}
	if cand.BaseItemID != nil {
		return invalidOp("item is already attached to another base item")
	}
	if base.IsAttachment {
		return invalidOp("cannot attach to an item that is itself an attachment")
	}

	id := baseID
	cand.IsAttachment = true
	cand.BaseItemID = &id
	return nil
}

// Detach clears the attachment link of itemID. Detaching an unattached item is a no-op.
func Detach(catalog Catalog, itemID int64) error {
	it := catalog.Find(itemID)
	if it == nil {
		return ErrItemNotFound
	}
	it.IsAttachment = false
	it.BaseItemID = nil
	return nil
}
