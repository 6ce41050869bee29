package core

import (
	"context"

	"shopcore/pkg/domain"
)

// AddItem creates a catalog entry with both pools set to initialQuantity.
// Price and quantity must be positive; the assigned id is never reused.
func (s *Service) AddItem(ctx context.Context, caller Address, name string, unitPrice, initialQuantity uint64) (Item, Result, error) {
	var created Item
	res, err := s.run(ctx, "add_item", func(tx Transaction) error {
		if err := check(tx,
			ownerOnly(caller),
			positiveAmount(unitPrice, "unit price"),
			positiveAmount(initialQuantity, "initial quantity"),
		); err != nil {
			return err
		}
		item, err := tx.CreateItem(name, unitPrice, initialQuantity)
		if err != nil {
			return err
		}
		created = item
		tx.RecordEvent(Event{
			Type:     domain.EventItemAdded,
			ItemID:   item.ID,
			Name:     item.Name,
			Price:    item.UnitPrice,
			Quantity: item.Quantity,
			Stock:    item.Stock,
		})
		return nil
	})
	return created, res, err
}

// LockItem sets the lock flag. Availability is untouched: only
// ChangeItemStatus couples the two flags.
func (s *Service) LockItem(ctx context.Context, caller Address, id uint64) (Item, Result, error) {
	return s.setLocked(ctx, "lock_item", caller, id, true, domain.EventItemLocked)
}

// UnlockItem clears the lock flag, leaving availability untouched.
func (s *Service) UnlockItem(ctx context.Context, caller Address, id uint64) (Item, Result, error) {
	return s.setLocked(ctx, "unlock_item", caller, id, false, domain.EventItemUnlocked)
}

func (s *Service) setLocked(ctx context.Context, op string, caller Address, id uint64, locked bool, eventType EventType) (Item, Result, error) {
	var updated Item
	res, err := s.run(ctx, op, func(tx Transaction) error {
		if err := check(tx, ownerOnly(caller), itemExists(id)); err != nil {
			return err
		}
		item, err := tx.UpdateItem(id, func(it *Item) error {
			it.Locked = locked
			return nil
		})
		if err != nil {
			return err
		}
		updated = item
		tx.RecordEvent(Event{Type: eventType, ItemID: id})
		return nil
	})
	return updated, res, err
}

// RestockItem increases the purchase pool by added. The legacy stock pool is
// deliberately untouched: restocking never replenishes the buy counter.
func (s *Service) RestockItem(ctx context.Context, caller Address, id, added uint64) (Item, Result, error) {
	var updated Item
	res, err := s.run(ctx, "restock_item", func(tx Transaction) error {
		if err := check(tx, ownerOnly(caller), itemExists(id)); err != nil {
			return err
		}
		item, err := tx.UpdateItem(id, func(it *Item) error {
			it.Quantity += added
			return nil
		})
		if err != nil {
			return err
		}
		updated = item
		tx.RecordEvent(Event{
			Type:     domain.EventItemRestocked,
			ItemID:   id,
			Quantity: item.Quantity,
		})
		return nil
	})
	return updated, res, err
}

// ChangeItemStatus sets availability and couples the lock flag to it
// (locked = !active). This is the single operation where the two flags move
// together.
func (s *Service) ChangeItemStatus(ctx context.Context, caller Address, id uint64, active bool) (Item, Result, error) {
	var updated Item
	res, err := s.run(ctx, "change_item_status", func(tx Transaction) error {
		if err := check(tx, ownerOnly(caller), itemExists(id)); err != nil {
			return err
		}
		item, err := tx.UpdateItem(id, func(it *Item) error {
			it.IsAvailable = active
			it.Locked = !active
			return nil
		})
		if err != nil {
			return err
		}
		updated = item
		tx.RecordEvent(Event{
			Type:     domain.EventItemStatusChanged,
			ItemID:   id,
			IsActive: domain.BoolPtr(active),
		})
		return nil
	})
	return updated, res, err
}

// UpdateItemPrice sets the unit price. There is no positivity check: zero is
// an accepted price.
func (s *Service) UpdateItemPrice(ctx context.Context, caller Address, id, newPrice uint64) (Item, Result, error) {
	var updated Item
	res, err := s.run(ctx, "update_item_price", func(tx Transaction) error {
		if err := check(tx, ownerOnly(caller), itemExists(id)); err != nil {
			return err
		}
		item, err := tx.UpdateItem(id, func(it *Item) error {
			it.UnitPrice = newPrice
			return nil
		})
		if err != nil {
			return err
		}
		updated = item
		tx.RecordEvent(Event{
			Type:   domain.EventItemPriceUpdated,
			ItemID: id,
			Price:  newPrice,
		})
		return nil
	})
	return updated, res, err
}

// EmergencyStop flips availability off for every item in insertion order.
// Lock flags and both pools are untouched.
func (s *Service) EmergencyStop(ctx context.Context, caller Address) (Result, error) {
	return s.run(ctx, "emergency_stop", func(tx Transaction) error {
		if err := check(tx, ownerOnly(caller)); err != nil {
			return err
		}
		for _, id := range tx.ItemIDs() {
			if _, err := tx.UpdateItem(id, func(it *Item) error {
				it.IsAvailable = false
				return nil
			}); err != nil {
				return err
			}
			tx.RecordEvent(Event{
				Type:     domain.EventItemStatusChanged,
				ItemID:   id,
				IsActive: domain.BoolPtr(false),
			})
		}
		return nil
	})
}
