package domain

import "time"

// EventType identifies the kind of committed mutation recorded in the trail.
type EventType string

// Supported event types, one per state-changing operation.
const (
	EventItemAdded            EventType = "item_added"
	EventItemLocked           EventType = "item_locked"
	EventItemUnlocked         EventType = "item_unlocked"
	EventItemRestocked        EventType = "item_restocked"
	EventItemStatusChanged    EventType = "item_status_changed"
	EventItemPriceUpdated     EventType = "item_price_updated"
	EventOwnershipTransferred EventType = "ownership_transferred"
	EventItemPurchased        EventType = "item_purchased"
)

// Event is one immutable entry of the append-only trail. Only the fields
// relevant to the event type are set; Seq is assigned by the event log in
// commit order. The legacy buy path reports the paid amount, the purchase
// path reports the remaining quantity.
type Event struct {
	ID   string    `json:"id"`
	Seq  uint64    `json:"seq"`
	Type EventType `json:"type"`
	At   time.Time `json:"at"`

	ItemID   uint64 `json:"item_id,omitempty"`
	Name     string `json:"name,omitempty"`
	Price    uint64 `json:"price,omitempty"`
	Quantity uint64 `json:"quantity,omitempty"`
	Stock    uint64 `json:"stock,omitempty"`
	IsActive *bool  `json:"is_active,omitempty"`

	Buyer     Address `json:"buyer,omitempty"`
	Amount    uint64  `json:"amount,omitempty"`
	Remaining *uint64 `json:"remaining,omitempty"`
	Paid      *uint64 `json:"paid,omitempty"`
	TotalCost uint64  `json:"total_cost,omitempty"`

	PreviousOwner Address `json:"previous_owner,omitempty"`
	NewOwner      Address `json:"new_owner,omitempty"`
}

// EventSink receives committed events in commit order.
type EventSink interface {
	Emit(events []Event)
}

// EventSinkFunc adapts a function to the EventSink interface.
type EventSinkFunc func(events []Event)

// Emit implements EventSink.
func (f EventSinkFunc) Emit(events []Event) { f(events) }

// Uint64Ptr returns a pointer to v, for optional event fields.
func Uint64Ptr(v uint64) *uint64 { return &v }

// BoolPtr returns a pointer to v, for optional event fields.
func BoolPtr(v bool) *bool { return &v }
