package core

import (
	"context"
	"fmt"

	"shopcore/pkg/domain"
)

// EventCoherenceRule blocks a commit whose recorded events reference items
// that are absent from the staged state. The trail must never describe an
// item the registry does not hold.
type EventCoherenceRule struct{}

// NewEventCoherenceRule constructs the rule.
func NewEventCoherenceRule() *EventCoherenceRule {
	return &EventCoherenceRule{}
}

// Name identifies the rule in violations.
func (r *EventCoherenceRule) Name() string { return "event_coherence" }

// Evaluate inspects the events staged by the transaction.
func (r *EventCoherenceRule) Evaluate(_ context.Context, view domain.RuleView, events []Event) (Result, error) {
	var result Result
	for _, event := range events {
		switch event.Type {
		case domain.EventOwnershipTransferred:
			if event.NewOwner.IsZero() {
				result.Violations = append(result.Violations, Violation{
					Rule:     r.Name(),
					Severity: SeverityBlock,
					Message:  "ownership transfer to the null address",
				})
			}
		default:
			if _, ok := view.FindItem(event.ItemID); !ok {
				result.Violations = append(result.Violations, Violation{
					Rule:     r.Name(),
					Severity: SeverityBlock,
					Message:  fmt.Sprintf("event %s references missing item %d", event.Type, event.ItemID),
					ItemID:   event.ItemID,
				})
			}
		}
	}
	return result, nil
}
