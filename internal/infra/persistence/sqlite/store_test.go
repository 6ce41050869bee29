package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"shopcore/pkg/domain"
)

func TestSnapshotSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.db")
	ctx := context.Background()

	store, err := NewStore(path, nil)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	_, err = store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		tx.SetOwner("0xowner")
		if _, err := tx.CreateItem("widget", 3, 10); err != nil {
			return err
		}
		_, err := tx.UpdateItem(1, func(it *domain.Item) error {
			it.Locked = true
			return nil
		})
		return err
	})
	if err != nil {
		t.Fatalf("RunInTransaction: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := NewStore(path, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = reopened.Close() }()

	err = reopened.View(ctx, func(view domain.TransactionView) error {
		if view.Owner() != "0xowner" {
			t.Fatalf("owner = %q", view.Owner())
		}
		item, ok := view.FindItem(1)
		if !ok {
			t.Fatal("item 1 missing after reopen")
		}
		if item.Name != "widget" || item.UnitPrice != 3 || item.Stock != 10 || !item.Locked {
			t.Fatalf("item = %+v", item)
		}
		if view.NextItemID() != 2 {
			t.Fatalf("next id = %d, want 2", view.NextItemID())
		}
		return nil
	})
	if err != nil {
		t.Fatalf("View: %v", err)
	}

	// Id assignment continues where the snapshot left off.
	_, err = reopened.RunInTransaction(ctx, func(tx domain.Transaction) error {
		item, err := tx.CreateItem("gadget", 1, 1)
		if err != nil {
			return err
		}
		if item.ID != 2 {
			t.Fatalf("id after reopen = %d, want 2", item.ID)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("RunInTransaction: %v", err)
	}
}

func TestAbortedTransactionNotPersisted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.db")
	ctx := context.Background()

	store, err := NewStore(path, nil)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		tx.SetOwner("0xowner")
		return nil
	}); err != nil {
		t.Fatalf("RunInTransaction: %v", err)
	}
	if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		_, err := tx.CreateItem("widget", 0, 1) // rejected
		return err
	}); err == nil {
		t.Fatal("expected validation failure")
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := NewStore(path, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = reopened.Close() }()

	err = reopened.View(ctx, func(view domain.TransactionView) error {
		if view.Owner() != "0xowner" {
			t.Fatalf("owner = %q", view.Owner())
		}
		if len(view.ItemIDs()) != 0 {
			t.Fatalf("aborted item persisted: %v", view.ItemIDs())
		}
		return nil
	})
	if err != nil {
		t.Fatalf("View: %v", err)
	}
}
