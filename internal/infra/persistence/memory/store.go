// Package memory provides the in-memory implementation of the registry
// persistence store. It is the authoritative transaction engine: durable
// backends embed it and snapshot its state after each commit.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"shopcore/pkg/domain"
)

// Compile-time contract assertion ensuring the store satisfies the domain interface.
var _ domain.PersistentStore = (*Store)(nil)

type (
	// Item aliases domain.Item for persistence operations.
	Item = domain.Item
	// Address aliases domain.Address.
	Address = domain.Address
	// Event aliases domain.Event captured in transactions.
	Event = domain.Event
	// Result aliases domain.Result summarizing rule evaluation.
	Result = domain.Result
	// RulesEngine aliases domain.RulesEngine used to evaluate rules.
	RulesEngine = domain.RulesEngine
	// Snapshot aliases domain.Snapshot exchanged with durable backends.
	Snapshot = domain.Snapshot
)

type registryState struct {
	owner      Address
	nextItemID uint64
	itemIDs    []uint64
	items      map[uint64]Item
	ledger     map[string]uint64
}

func newRegistryState() registryState {
	return registryState{
		nextItemID: 1,
		items:      make(map[uint64]Item),
		ledger:     make(map[string]uint64),
	}
}

func (s registryState) clone() registryState {
	cloned := registryState{
		owner:      s.owner,
		nextItemID: s.nextItemID,
		itemIDs:    append([]uint64(nil), s.itemIDs...),
		items:      make(map[uint64]Item, len(s.items)),
		ledger:     make(map[string]uint64, len(s.ledger)),
	}
	for k, v := range s.items {
		cloned.items[k] = v
	}
	for k, v := range s.ledger {
		cloned.ledger[k] = v
	}
	return cloned
}

// Store provides an in-memory transactional registry store. One mutex
// serializes every mutating transaction; each transaction runs against a
// deep clone of the state and commits by swapping it in.
type Store struct {
	mu    sync.RWMutex
	state registryState

	engine *RulesEngine
	sink   domain.EventSink
	nowFn  func() time.Time
}

// NewStore constructs an in-memory store backed by the provided rules engine.
func NewStore(engine *RulesEngine) *Store {
	if engine == nil {
		engine = domain.NewRulesEngine()
	}
	return &Store{
		state:  newRegistryState(),
		engine: engine,
		nowFn:  func() time.Time { return time.Now().UTC() },
	}
}

// SetEventSink registers the sink that receives committed events. The sink is
// invoked while the store mutex is still held, so observation order always
// equals commit order.
func (s *Store) SetEventSink(sink domain.EventSink) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sink = sink
}

// SetNow overrides the transaction clock (tests).
func (s *Store) SetNow(fn func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nowFn = fn
}

// Transaction represents a mutation set staged against a cloned state.
type Transaction struct {
	store  *Store
	state  registryState
	events []Event
	now    time.Time
}

var _ domain.Transaction = (*Transaction)(nil)

// RunInTransaction executes fn within a transactional copy of the store
// state. The first error returned by fn aborts the transaction with zero
// side effects. Registered rules evaluate against the staged state; a
// blocking violation also aborts. On commit, recorded events are handed to
// the event sink before the mutex is released.
func (s *Store) RunInTransaction(ctx context.Context, fn func(domain.Transaction) error) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &Transaction{
		store: s,
		state: s.state.clone(),
		now:   s.nowFn(),
	}

	if err := fn(tx); err != nil {
		return Result{}, err
	}

	var result Result
	if s.engine != nil {
		view := newStateView(&tx.state)
		res, err := s.engine.Evaluate(ctx, view, tx.events)
		if err != nil {
			return Result{}, err
		}
		result = res
		if res.HasBlocking() {
			return res, domain.RuleViolationError{Result: res}
		}
	}

	s.state = tx.state
	if s.sink != nil && len(tx.events) > 0 {
		s.sink.Emit(tx.events)
	}
	return result, nil
}

// View executes fn against a read-only snapshot of the committed state.
func (s *Store) View(ctx context.Context, fn func(domain.TransactionView) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := s.state.clone()
	return fn(newStateView(&snapshot))
}

// ExportState returns a copy of the committed state for durable backends.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := Snapshot{
		Owner:      s.state.owner,
		NextItemID: s.state.nextItemID,
		ItemIDs:    append([]uint64(nil), s.state.itemIDs...),
		Items:      make(map[uint64]Item, len(s.state.items)),
		Ledger:     make(map[string]uint64, len(s.state.ledger)),
	}
	for k, v := range s.state.items {
		out.Items[k] = v
	}
	for k, v := range s.state.ledger {
		out.Ledger[k] = v
	}
	return out
}

// ImportState replaces the committed state from a durable snapshot.
func (s *Store) ImportState(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := newRegistryState()
	state.owner = snapshot.Owner
	if snapshot.NextItemID > 0 {
		state.nextItemID = snapshot.NextItemID
	}
	state.itemIDs = append([]uint64(nil), snapshot.ItemIDs...)
	for k, v := range snapshot.Items {
		state.items[k] = v
	}
	for k, v := range snapshot.Ledger {
		state.ledger[k] = v
	}
	s.state = state
}

// Snapshot exposes a read-only view of the staged transaction state.
func (tx *Transaction) Snapshot() domain.TransactionView {
	return newStateView(&tx.state)
}

// Owner returns the staged owner address.
func (tx *Transaction) Owner() Address { return tx.state.owner }

// SetOwner stages a new owner address.
func (tx *Transaction) SetOwner(owner Address) { tx.state.owner = owner }

// CreateItem stages a new item. The id is assigned from the monotonic
// counter, appended to the ordered id list, and never reused.
func (tx *Transaction) CreateItem(name string, unitPrice, initialQuantity uint64) (Item, error) {
	if unitPrice == 0 {
		return Item{}, domain.InvalidInputf("unit price must be positive")
	}
	if initialQuantity == 0 {
		return Item{}, domain.InvalidInputf("initial quantity must be positive")
	}
	item := Item{
		ID:          tx.state.nextItemID,
		Name:        name,
		UnitPrice:   unitPrice,
		Stock:       initialQuantity,
		Quantity:    initialQuantity,
		IsAvailable: true,
		Locked:      false,
		Exists:      true,
	}
	tx.state.items[item.ID] = item
	tx.state.itemIDs = append(tx.state.itemIDs, item.ID)
	tx.state.nextItemID++
	return item, nil
}

// UpdateItem mutates an existing item using the provided mutator. The id and
// tombstone are pinned: items are mutated in place, never removed.
func (tx *Transaction) UpdateItem(id uint64, mutator func(*Item) error) (Item, error) {
	current, ok := tx.state.items[id]
	if !ok || !current.Exists {
		return Item{}, domain.NotFoundf("item %d", id)
	}
	if err := mutator(&current); err != nil {
		return Item{}, err
	}
	current.ID = id
	current.Exists = true
	tx.state.items[id] = current
	return current, nil
}

// FindItem retrieves a staged item by id.
func (tx *Transaction) FindItem(id uint64) (Item, bool) {
	item, ok := tx.state.items[id]
	if !ok || !item.Exists {
		return Item{}, false
	}
	return item, true
}

// ItemIDs returns the staged ordered id list.
func (tx *Transaction) ItemIDs() []uint64 {
	return append([]uint64(nil), tx.state.itemIDs...)
}

// Purchases reads the cumulative purchase counter for (buyer, item).
func (tx *Transaction) Purchases(buyer Address, itemID uint64) uint64 {
	return tx.state.ledger[domain.LedgerKey(buyer, itemID)]
}

// RecordEvent stages an event for emission after commit. The event id and
// timestamp are filled here; the sequence number is assigned by the log.
func (tx *Transaction) RecordEvent(event Event) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.At.IsZero() {
		event.At = tx.now
	}
	tx.events = append(tx.events, event)
}

// stateView adapts a registryState to the read-only domain views.
type stateView struct {
	state *registryState
}

var _ domain.TransactionView = stateView{}

func newStateView(state *registryState) stateView {
	return stateView{state: state}
}

// Owner returns the owner address.
func (v stateView) Owner() Address { return v.state.owner }

// NextItemID returns the monotonic id counter.
func (v stateView) NextItemID() uint64 { return v.state.nextItemID }

// ItemIDs returns the ordered id list, insertion order preserved.
func (v stateView) ItemIDs() []uint64 {
	return append([]uint64(nil), v.state.itemIDs...)
}

// ListItems returns all items in insertion order.
func (v stateView) ListItems() []Item {
	out := make([]Item, 0, len(v.state.itemIDs))
	for _, id := range v.state.itemIDs {
		if item, ok := v.state.items[id]; ok {
			out = append(out, item)
		}
	}
	return out
}

// FindItem retrieves an item by id.
func (v stateView) FindItem(id uint64) (Item, bool) {
	item, ok := v.state.items[id]
	if !ok || !item.Exists {
		return Item{}, false
	}
	return item, true
}

// Purchases reads the cumulative purchase counter for (buyer, item).
func (v stateView) Purchases(buyer Address, itemID uint64) uint64 {
	return v.state.ledger[domain.LedgerKey(buyer, itemID)]
}
