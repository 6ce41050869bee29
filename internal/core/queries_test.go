package core

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"shopcore/pkg/domain"
)

func TestGetAvailableItems(t *testing.T) {
	svc, _ := newOwnedService(t)
	ctx := context.Background()
	mustAddItem(t, svc, "widget", 1, 5)
	mustAddItem(t, svc, "gadget", 2, 3)
	mustAddItem(t, svc, "gizmo", 4, 2)

	// Deactivate one and drain another's stock pool.
	if _, _, err := svc.ChangeItemStatus(ctx, ownerAddr, 2, false); err != nil {
		t.Fatalf("ChangeItemStatus: %v", err)
	}
	if _, _, err := svc.Buy(ctx, buyerAddr, 3, 2, 8); err != nil {
		t.Fatalf("Buy: %v", err)
	}

	available, err := svc.GetAvailableItems(ctx)
	if err != nil {
		t.Fatalf("GetAvailableItems: %v", err)
	}
	if !reflect.DeepEqual(available.IDs, []uint64{1}) {
		t.Fatalf("ids = %v, want [1]", available.IDs)
	}
	if !reflect.DeepEqual(available.Names, []string{"widget"}) {
		t.Fatalf("names = %v", available.Names)
	}
	if !reflect.DeepEqual(available.Prices, []uint64{1}) || !reflect.DeepEqual(available.Stocks, []uint64{5}) {
		t.Fatalf("prices = %v, stocks = %v", available.Prices, available.Stocks)
	}

	// Locking does not hide an item from the listing.
	if _, _, err := svc.LockItem(ctx, ownerAddr, 1); err != nil {
		t.Fatalf("LockItem: %v", err)
	}
	available, err = svc.GetAvailableItems(ctx)
	if err != nil {
		t.Fatalf("GetAvailableItems: %v", err)
	}
	if !reflect.DeepEqual(available.IDs, []uint64{1}) {
		t.Fatalf("ids after lock = %v, want [1]", available.IDs)
	}
}

func TestItemListings(t *testing.T) {
	svc, _ := newOwnedService(t)
	ctx := context.Background()
	mustAddItem(t, svc, "widget", 1, 5)
	mustAddItem(t, svc, "gadget", 2, 3)

	ids, err := svc.GetAllItemIDs(ctx)
	if err != nil {
		t.Fatalf("GetAllItemIDs: %v", err)
	}
	if !reflect.DeepEqual(ids, []uint64{1, 2}) {
		t.Fatalf("ids = %v, want [1 2]", ids)
	}

	count, err := svc.GetTotalItemCount(ctx)
	if err != nil {
		t.Fatalf("GetTotalItemCount: %v", err)
	}
	if count != 2 {
		t.Fatalf("count = %d, want 2", count)
	}

	items, err := svc.ListItems(ctx)
	if err != nil {
		t.Fatalf("ListItems: %v", err)
	}
	if len(items) != 2 || items[0].Name != "widget" || items[1].Name != "gadget" {
		t.Fatalf("items = %+v", items)
	}
}

func TestGetStockToleratesMissingID(t *testing.T) {
	svc, _ := newOwnedService(t)
	ctx := context.Background()
	mustAddItem(t, svc, "widget", 1, 5)

	stock, err := svc.GetStock(ctx, 1)
	if err != nil || stock != 5 {
		t.Fatalf("GetStock(1) = %d, %v; want 5, nil", stock, err)
	}

	// Unknown ids read as zero stock rather than failing.
	stock, err = svc.GetStock(ctx, 999)
	if err != nil || stock != 0 {
		t.Fatalf("GetStock(999) = %d, %v; want 0, nil", stock, err)
	}

	// The strict queries fail on the same id.
	if _, err := svc.GetItem(ctx, 999); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("GetItem(999): got %v, want ErrNotFound", err)
	}
	if _, err := svc.IsSoldOut(ctx, 999); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("IsSoldOut(999): got %v, want ErrNotFound", err)
	}
}

func TestIsSoldOutChecksStockPool(t *testing.T) {
	svc, _ := newOwnedService(t)
	ctx := context.Background()
	mustAddItem(t, svc, "widget", 1, 2)

	soldOut, err := svc.IsSoldOut(ctx, 1)
	if err != nil || soldOut {
		t.Fatalf("IsSoldOut = %v, %v; want false, nil", soldOut, err)
	}

	// Draining the stock pool sells the item out even though the quantity
	// pool is untouched.
	if _, _, err := svc.Buy(ctx, buyerAddr, 1, 2, 2); err != nil {
		t.Fatalf("Buy: %v", err)
	}
	soldOut, err = svc.IsSoldOut(ctx, 1)
	if err != nil || !soldOut {
		t.Fatalf("IsSoldOut after drain = %v, %v; want true, nil", soldOut, err)
	}
	if item := mustGetItem(t, svc, 1); item.Quantity != 2 {
		t.Fatalf("quantity = %d, want 2", item.Quantity)
	}
}

func TestGetUserPurchasesReadsZero(t *testing.T) {
	svc, _ := newOwnedService(t)
	ctx := context.Background()
	mustAddItem(t, svc, "widget", 1, 10)

	if _, _, err := svc.Purchase(ctx, buyerAddr, 1, 3, 3); err != nil {
		t.Fatalf("Purchase: %v", err)
	}
	if _, _, err := svc.Buy(ctx, buyerAddr, 1, 2, 2); err != nil {
		t.Fatalf("Buy: %v", err)
	}

	// Neither workflow writes the ledger, so the counter stays zero.
	total, err := svc.GetUserPurchases(ctx, buyerAddr, 1)
	if err != nil {
		t.Fatalf("GetUserPurchases: %v", err)
	}
	if total != 0 {
		t.Fatalf("purchases = %d, want 0", total)
	}
}
