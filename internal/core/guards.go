package core

import (
	"fmt"
	"math"

	"shopcore/pkg/domain"
)

// guard is one ordered precondition evaluated against the staged transaction
// state. Guards compose before any mutation; the first failure aborts the
// transaction with its specific error kind and zero side effects.
type guard func(tx Transaction) error

func check(tx Transaction, guards ...guard) error {
	for _, g := range guards {
		if err := g(tx); err != nil {
			return err
		}
	}
	return nil
}

// ownerOnly admits only the current owner. An uninitialized registry admits
// nobody.
func ownerOnly(caller Address) guard {
	return func(tx Transaction) error {
		owner := tx.Owner()
		if owner.IsZero() || caller != owner {
			return fmt.Errorf("%w: caller %q is not the owner", domain.ErrUnauthorized, caller)
		}
		return nil
	}
}

func itemExists(id uint64) guard {
	return func(tx Transaction) error {
		if _, ok := tx.FindItem(id); !ok {
			return domain.NotFoundf("item %d", id)
		}
		return nil
	}
}

func itemAvailable(id uint64) guard {
	return func(tx Transaction) error {
		item, ok := tx.FindItem(id)
		if !ok {
			return domain.NotFoundf("item %d", id)
		}
		if !item.IsAvailable {
			return fmt.Errorf("%w: item %d", domain.ErrItemUnavailable, id)
		}
		return nil
	}
}

func itemUnlocked(id uint64) guard {
	return func(tx Transaction) error {
		item, ok := tx.FindItem(id)
		if !ok {
			return domain.NotFoundf("item %d", id)
		}
		if item.Locked {
			return fmt.Errorf("%w: item %d", domain.ErrItemLocked, id)
		}
		return nil
	}
}

func positiveAmount(amount uint64, what string) guard {
	return func(Transaction) error {
		if amount == 0 {
			return domain.InvalidInputf("%s must be positive", what)
		}
		return nil
	}
}

func sufficientStock(id, requested uint64) guard {
	return func(tx Transaction) error {
		item, ok := tx.FindItem(id)
		if !ok {
			return domain.NotFoundf("item %d", id)
		}
		if item.Stock < requested {
			return fmt.Errorf("%w: item %d has stock %d, requested %d",
				domain.ErrInsufficientStock, id, item.Stock, requested)
		}
		return nil
	}
}

func sufficientQuantity(id, requested uint64) guard {
	return func(tx Transaction) error {
		item, ok := tx.FindItem(id)
		if !ok {
			return domain.NotFoundf("item %d", id)
		}
		if item.Quantity < requested {
			return fmt.Errorf("%w: item %d has quantity %d, requested %d",
				domain.ErrInsufficientStock, id, item.Quantity, requested)
		}
		return nil
	}
}

func paymentCovers(paid, cost uint64) guard {
	return func(Transaction) error {
		if paid < cost {
			return fmt.Errorf("%w: paid %d, cost %d", domain.ErrInsufficientPayment, paid, cost)
		}
		return nil
	}
}

// totalCost multiplies unit price by amount, rejecting uint64 overflow.
func totalCost(unitPrice, amount uint64) (uint64, error) {
	if amount != 0 && unitPrice > math.MaxUint64/amount {
		return 0, domain.InvalidInputf("cost overflows: price %d x amount %d", unitPrice, amount)
	}
	return unitPrice * amount, nil
}
