package core

import (
	"context"
	"fmt"

	"shopcore/pkg/domain"
)

// PurchaseReceipt reports the outcome of a committed purchase or buy call.
type PurchaseReceipt struct {
	ItemID    uint64  `json:"item_id"`
	Buyer     Address `json:"buyer"`
	Amount    uint64  `json:"amount"`
	TotalCost uint64  `json:"total_cost"`
	Paid      uint64  `json:"paid"`
	Refund    uint64  `json:"refund"`
	Remaining uint64  `json:"remaining"`
}

// Buy is the legacy purchase workflow. It depletes the stock pool and leaves
// the quantity pool alone. It does not check the lock flag, accepts a zero
// requested quantity as a paid no-op that still emits an event, and never
// refunds overpayment.
func (s *Service) Buy(ctx context.Context, caller Address, id, requestedQty, paid uint64) (PurchaseReceipt, Result, error) {
	var receipt PurchaseReceipt
	res, err := s.run(ctx, "buy", func(tx Transaction) error {
		if err := check(tx,
			itemExists(id),
			itemAvailable(id),
			sufficientStock(id, requestedQty),
		); err != nil {
			return err
		}
		item, _ := tx.FindItem(id)
		cost, err := totalCost(item.UnitPrice, requestedQty)
		if err != nil {
			return err
		}
		if err := check(tx, paymentCovers(paid, cost)); err != nil {
			return err
		}
		item, err = tx.UpdateItem(id, func(it *Item) error {
			it.Stock -= requestedQty
			return nil
		})
		if err != nil {
			return err
		}
		receipt = PurchaseReceipt{
			ItemID:    id,
			Buyer:     caller,
			Amount:    requestedQty,
			TotalCost: cost,
			Paid:      paid,
			Remaining: item.Stock,
		}
		tx.RecordEvent(Event{
			Type:      domain.EventItemPurchased,
			ItemID:    id,
			Buyer:     caller,
			Amount:    requestedQty,
			Paid:      domain.Uint64Ptr(paid),
			TotalCost: cost,
		})
		return nil
	})
	return receipt, res, err
}

// Purchase is the current workflow. It depletes the quantity pool, rejects
// locked items and zero amounts, and refunds any overpayment to the caller
// through the host value-transfer capability strictly after the commit. A
// failed refund never unwinds the committed mutation: the receipt is returned
// alongside the transfer error.
func (s *Service) Purchase(ctx context.Context, caller Address, id, amount, paid uint64) (PurchaseReceipt, Result, error) {
	var receipt PurchaseReceipt
	res, err := s.run(ctx, "purchase", func(tx Transaction) error {
		if err := check(tx,
			itemExists(id),
			itemAvailable(id),
			positiveAmount(amount, "amount"),
			itemUnlocked(id),
			sufficientQuantity(id, amount),
		); err != nil {
			return err
		}
		item, _ := tx.FindItem(id)
		cost, err := totalCost(item.UnitPrice, amount)
		if err != nil {
			return err
		}
		if err := check(tx, paymentCovers(paid, cost)); err != nil {
			return err
		}
		item, err = tx.UpdateItem(id, func(it *Item) error {
			it.Quantity -= amount
			return nil
		})
		if err != nil {
			return err
		}
		receipt = PurchaseReceipt{
			ItemID:    id,
			Buyer:     caller,
			Amount:    amount,
			TotalCost: cost,
			Paid:      paid,
			Refund:    paid - cost,
			Remaining: item.Quantity,
		}
		tx.RecordEvent(Event{
			Type:      domain.EventItemPurchased,
			ItemID:    id,
			Buyer:     caller,
			Amount:    amount,
			Remaining: domain.Uint64Ptr(item.Quantity),
			TotalCost: cost,
		})
		return nil
	})
	if err != nil {
		return PurchaseReceipt{}, res, err
	}
	if receipt.Refund > 0 {
		if s.transfer == nil {
			s.logger.Warn("no value-transfer capability, refund not sent",
				"item_id", id, "buyer", caller, "refund", receipt.Refund)
		} else if terr := s.transfer.Transfer(ctx, caller, receipt.Refund); terr != nil {
			s.logger.Error("refund transfer failed",
				"item_id", id, "buyer", caller, "refund", receipt.Refund, "error", terr)
			return receipt, res, fmt.Errorf("refund transfer: %w", terr)
		}
	}
	return receipt, res, nil
}
