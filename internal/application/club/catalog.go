package club

import (
	"context"
	"fmt"
	"strings"

	"github.com/baechuer/club-service/internal/domain"
	"github.com/baechuer/club-service/internal/infrastructure/bgg"
	"github.com/baechuer/club-service/internal/metrics"
)

type AddItemInput struct {
	Name            string
	Owner           string
	MinPlayers      int
	MaxPlayers      int
	DurationMinutes int
	MinAge          int
	BaseItemID      *int64
}

func (in AddItemInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return domain.Validation("name is required")
	}
	if in.MinPlayers < 0 || in.MaxPlayers < 0 || in.DurationMinutes < 0 || in.MinAge < 0 {
		return domain.Validation("numeric fields must be >= 0")
	}
	if in.MinPlayers > 0 && in.MaxPlayers > 0 && in.MinPlayers > in.MaxPlayers {
		return domain.Validation("min_players must not exceed max_players")
	}
	return nil
}

// CatalogView selects which entries ListCatalog returns.
type CatalogView string

const (
	CatalogAll             CatalogView = ""
	CatalogBases           CatalogView = "bases"
	CatalogWithAttachments CatalogView = "with_attachments"
)

// ListCatalog returns the catalog in stored order. CatalogBases keeps the
// items that may receive attachments, CatalogWithAttachments only the base
// items that have at least one.
func (s *Service) ListCatalog(ctx context.Context, view CatalogView) ([]ItemView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var items []domain.Item
	switch view {
	case CatalogAll:
		items = s.state.Catalog
	case CatalogBases:
		items = s.state.Catalog.BaseCandidates()
	case CatalogWithAttachments:
		for _, w := range s.state.Catalog.ItemsWithAttachments() {
			items = append(items, w.Item)
		}
	default:
		return nil, domain.Validation(fmt.Sprintf("unknown catalog view %q", view))
	}

	out := make([]ItemView, 0, len(items))
	for i := range items {
		out = append(out, newItemView(&items[i], s.state.Catalog))
	}
	return out, nil
}

func (s *Service) GetItem(ctx context.Context, itemID int64) (*ItemView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	it := s.state.Catalog.Find(itemID)
	if it == nil {
		return nil, domain.ErrItemNotFound
	}
	v := newItemView(it, s.state.Catalog)
	return &v, nil
}

// AddItem appends a manually entered item. With BaseItemID set, the item is
// attached to that base in the same step.
func (s *Service) AddItem(ctx context.Context, actorID int64, in AddItemInput) (*ItemView, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	it := domain.Item{
		Name:            strings.TrimSpace(in.Name),
		Owner:           strings.TrimSpace(in.Owner),
		MinPlayers:      in.MinPlayers,
		MaxPlayers:      in.MaxPlayers,
		DurationMinutes: in.DurationMinutes,
		MinAge:          in.MinAge,
		AddedAt:         s.now(),
	}
	return s.insert(ctx, actorID, it, in.BaseItemID, "add")
}

// insert adds it to the catalog under a fresh id and optionally attaches it.
func (s *Service) insert(ctx context.Context, actorID int64, it domain.Item, baseID *int64, op string) (*ItemView, error) {
	s.mu.Lock()
	if baseID != nil {
		base := s.state.Catalog.Find(*baseID)
		if base == nil {
			s.mu.Unlock()
			return nil, domain.ErrItemNotFound
		}
		if base.IsAttachment {
			s.mu.Unlock()
			return nil, fmt.Errorf("%w: cannot attach to an item that is itself an attachment", domain.ErrInvalidOperation)
		}
		if it.Owner == "" {
			it.Owner = base.Owner
		}
	}
	if it.Owner == "" {
		it.Owner = bgg.DefaultOwner
	}

	it.ID = s.state.NextGameID()
	s.state.Catalog = append(s.state.Catalog, it)
	if baseID != nil {
		// base checked above, cannot fail
		_ = domain.Attach(s.state.Catalog, *baseID, it.ID)
	}
	stored := s.state.Catalog.Find(it.ID)
	view := newItemView(stored, s.state.Catalog)
	added := *stored
	snap, v := s.commit()
	s.mu.Unlock()

	metrics.RecordCatalogOp(op)
	if s.audit != nil {
		s.audit.ItemAdded(ctx, added, actorID)
	}
	if op == "import" {
		publish(ctx, s.pub, RKCatalogImported, s.now(), CatalogPayload{
			ItemID:     added.ID,
			BaseItemID: added.BaseItemID,
			BGGID:      added.BGGID,
			Name:       added.Name,
			ActorID:    actorID,
		})
	}

	return &view, s.flush(ctx, op+"_item", snap, v)
}

// Attach links attachmentID to baseID and returns the updated base.
func (s *Service) Attach(ctx context.Context, actorID, baseID, attachmentID int64) (*ItemView, error) {
	s.mu.Lock()
	if err := domain.Attach(s.state.Catalog, baseID, attachmentID); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	view := newItemView(s.state.Catalog.Find(baseID), s.state.Catalog)
	snap, v := s.commit()
	s.mu.Unlock()

	metrics.RecordCatalogOp("attach")
	if s.audit != nil {
		s.audit.Attached(ctx, baseID, attachmentID, actorID)
	}
	base := baseID
	publish(ctx, s.pub, RKCatalogAttached, s.now(), CatalogPayload{
		ItemID:     attachmentID,
		BaseItemID: &base,
		ActorID:    actorID,
	})

	return &view, s.flush(ctx, "attach", snap, v)
}

// Detach makes itemID a standalone item again and returns it.
func (s *Service) Detach(ctx context.Context, actorID, itemID int64) (*ItemView, error) {
	s.mu.Lock()
	it := s.state.Catalog.Find(itemID)
	if it == nil {
		s.mu.Unlock()
		return nil, domain.ErrItemNotFound
	}
	if !it.IsAttachment && it.BaseItemID == nil {
		view := newItemView(it, s.state.Catalog)
		s.mu.Unlock()
		return &view, nil
	}
	prevBase := it.BaseItemID
	_ = domain.Detach(s.state.Catalog, itemID)
	view := newItemView(it, s.state.Catalog)
	snap, v := s.commit()
	s.mu.Unlock()

	metrics.RecordCatalogOp("detach")
	if s.audit != nil {
		s.audit.Detached(ctx, itemID, actorID)
	}
	publish(ctx, s.pub, RKCatalogDetached, s.now(), CatalogPayload{
		ItemID:     itemID,
		BaseItemID: prevBase,
		ActorID:    actorID,
	})

	return &view, s.flush(ctx, "detach", snap, v)
}
