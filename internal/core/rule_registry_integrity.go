package core

import (
	"context"
	"fmt"

	"shopcore/pkg/domain"
)

// RegistryIntegrityRule blocks any transaction that would corrupt the
// registry bookkeeping: the ordered id list and the item map must agree, the
// list must hold no duplicates, and the id counter must stay strictly above
// every assigned id.
type RegistryIntegrityRule struct{}

// NewRegistryIntegrityRule constructs the rule.
func NewRegistryIntegrityRule() *RegistryIntegrityRule {
	return &RegistryIntegrityRule{}
}

// Name identifies the rule in violations.
func (r *RegistryIntegrityRule) Name() string { return "registry_integrity" }

// Evaluate checks the staged state after all mutations in the transaction.
func (r *RegistryIntegrityRule) Evaluate(_ context.Context, view domain.RuleView, _ []Event) (Result, error) {
	var result Result
	block := func(id uint64, format string, args ...any) {
		result.Violations = append(result.Violations, Violation{
			Rule:     r.Name(),
			Severity: SeverityBlock,
			Message:  fmt.Sprintf(format, args...),
			ItemID:   id,
		})
	}

	ids := view.ItemIDs()
	seen := make(map[uint64]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			block(id, "id %d appears twice in the ordered list", id)
			continue
		}
		seen[id] = struct{}{}
		item, ok := view.FindItem(id)
		if !ok {
			block(id, "listed id %d has no existing item", id)
			continue
		}
		if !item.Exists {
			block(id, "listed item %d has a cleared tombstone", id)
		}
		if id >= view.NextItemID() {
			block(id, "assigned id %d is not below the counter %d", id, view.NextItemID())
		}
	}
	if len(view.ListItems()) != len(seen) {
		block(0, "item map holds entries missing from the ordered list")
	}
	return result, nil
}
