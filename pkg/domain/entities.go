// Package domain defines the core persistent entities, value types, and
// rule evaluation primitives used by shopcore.
package domain

import "fmt"

// Address identifies a caller (owner or buyer). The zero value is the null
// identity and is never a valid owner.
type Address string

// ZeroAddress is the null identity.
const ZeroAddress Address = ""

// IsZero reports whether the address is the null identity.
func (a Address) IsZero() bool { return a == ZeroAddress }

// Item is a catalog entry. Stock and Quantity are independent pools: Stock is
// depleted only by the legacy buy workflow, Quantity only by the purchase
// workflow (and replenished by restocking). They are never merged.
type Item struct {
	ID          uint64 `json:"id"`
	Name        string `json:"name"`
	UnitPrice   uint64 `json:"unit_price"` // smallest currency unit
	Stock       uint64 `json:"stock"`
	Quantity    uint64 `json:"quantity"`
	IsAvailable bool   `json:"is_available"`
	Locked      bool   `json:"locked"`
	Exists      bool   `json:"exists"` // tombstone: items are marked, never removed
}

// LedgerKey addresses a per-(buyer, item) cumulative purchase counter.
func LedgerKey(buyer Address, itemID uint64) string {
	return fmt.Sprintf("%s/%d", buyer, itemID)
}

// Snapshot is the full registry state exchanged with persistence backends.
// ItemIDs preserves insertion order and is append-only.
type Snapshot struct {
	Owner      Address           `json:"owner"`
	NextItemID uint64            `json:"next_item_id"`
	ItemIDs    []uint64          `json:"item_ids"`
	Items      map[uint64]Item   `json:"items"`
	Ledger     map[string]uint64 `json:"ledger"`
}
