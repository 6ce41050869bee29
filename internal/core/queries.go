package core

import (
	"context"

	"shopcore/pkg/domain"
)

// AvailableItems holds four equal-length parallel slices, insertion order
// preserved, for items that are available with stock remaining.
type AvailableItems struct {
	IDs    []uint64 `json:"ids"`
	Names  []string `json:"names"`
	Prices []uint64 `json:"prices"`
	Stocks []uint64 `json:"stocks"`
}

// GetAvailableItems filters the ordered id list to items where the
// availability flag is set and the legacy stock pool is non-empty.
func (s *Service) GetAvailableItems(ctx context.Context) (AvailableItems, error) {
	var out AvailableItems
	err := s.view(ctx, "get_available_items", func(view TransactionView) error {
		for _, item := range view.ListItems() {
			if !item.IsAvailable || item.Stock == 0 {
				continue
			}
			out.IDs = append(out.IDs, item.ID)
			out.Names = append(out.Names, item.Name)
			out.Prices = append(out.Prices, item.UnitPrice)
			out.Stocks = append(out.Stocks, item.Stock)
		}
		return nil
	})
	return out, err
}

// GetAllItemIDs returns the full ordered id list, unfiltered.
func (s *Service) GetAllItemIDs(ctx context.Context) ([]uint64, error) {
	var ids []uint64
	err := s.view(ctx, "get_all_item_ids", func(view TransactionView) error {
		ids = view.ItemIDs()
		return nil
	})
	return ids, err
}

// ListItems returns every item in insertion order, including unavailable and
// locked ones.
func (s *Service) ListItems(ctx context.Context) ([]Item, error) {
	var items []Item
	err := s.view(ctx, "list_items", func(view TransactionView) error {
		items = view.ListItems()
		return nil
	})
	return items, err
}

// GetTotalItemCount returns the length of the ordered id list.
func (s *Service) GetTotalItemCount(ctx context.Context) (int, error) {
	var count int
	err := s.view(ctx, "get_total_item_count", func(view TransactionView) error {
		count = len(view.ItemIDs())
		return nil
	})
	return count, err
}

// GetItem retrieves an item, failing with ErrNotFound when absent.
func (s *Service) GetItem(ctx context.Context, id uint64) (Item, error) {
	var item Item
	err := s.view(ctx, "get_item", func(view TransactionView) error {
		found, ok := view.FindItem(id)
		if !ok {
			return domain.NotFoundf("item %d", id)
		}
		item = found
		return nil
	})
	return item, err
}

// IsSoldOut reports whether the legacy stock pool is empty. It checks stock,
// not quantity, and fails with ErrNotFound for a missing id.
func (s *Service) IsSoldOut(ctx context.Context, id uint64) (bool, error) {
	var soldOut bool
	err := s.view(ctx, "is_sold_out", func(view TransactionView) error {
		item, ok := view.FindItem(id)
		if !ok {
			return domain.NotFoundf("item %d", id)
		}
		soldOut = item.Stock == 0
		return nil
	})
	return soldOut, err
}

// GetStock returns the legacy stock pool, or zero for a missing id. This is
// the only id-keyed query that tolerates an unknown id without failing.
func (s *Service) GetStock(ctx context.Context, id uint64) (uint64, error) {
	var stock uint64
	err := s.view(ctx, "get_stock", func(view TransactionView) error {
		if item, ok := view.FindItem(id); ok {
			stock = item.Stock
		}
		return nil
	})
	return stock, err
}

// GetUserPurchases reads the cumulative purchase ledger for (user, item).
// Neither purchase path currently writes the ledger, so this reads zero.
func (s *Service) GetUserPurchases(ctx context.Context, user Address, id uint64) (uint64, error) {
	var total uint64
	err := s.view(ctx, "get_user_purchases", func(view TransactionView) error {
		total = view.Purchases(user, id)
		return nil
	})
	return total, err
}

// OwnerAddress returns the current owner.
func (s *Service) OwnerAddress(ctx context.Context) (Address, error) {
	var owner Address
	err := s.view(ctx, "owner_address", func(view TransactionView) error {
		owner = view.Owner()
		return nil
	})
	return owner, err
}
