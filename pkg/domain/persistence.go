package domain

import "context"

// Transaction exposes the registry operations that a persistence
// implementation must support within an atomic scope. All mutations are
// staged; nothing is observable until the transaction commits.
type Transaction interface {
	Snapshot() TransactionView
	Owner() Address
	SetOwner(owner Address)
	CreateItem(name string, unitPrice, initialQuantity uint64) (Item, error)
	UpdateItem(id uint64, mutator func(*Item) error) (Item, error)
	FindItem(id uint64) (Item, bool)
	ItemIDs() []uint64
	Purchases(buyer Address, itemID uint64) uint64
	RecordEvent(event Event)
}

// TransactionView provides read-only access to committed or staged state.
type TransactionView interface {
	RuleView
}

// PersistentStore is a minimal abstraction over durable backends. A store
// serializes mutating transactions through a single authority and guarantees
// that a failed transaction leaves no observable effect.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error)
	View(ctx context.Context, fn func(TransactionView) error) error
}

// ValueTransfer is the host-supplied capability used to return excess
// payment to a buyer. Transfers happen strictly after the registry commit.
type ValueTransfer interface {
	Transfer(ctx context.Context, to Address, amount uint64) error
}

// ValueTransferFunc adapts a function to the ValueTransfer interface.
type ValueTransferFunc func(ctx context.Context, to Address, amount uint64) error

// Transfer implements ValueTransfer.
func (f ValueTransferFunc) Transfer(ctx context.Context, to Address, amount uint64) error {
	return f(ctx, to, amount)
}
