package core

import "shopcore/pkg/domain"

// NewDefaultRulesEngine builds a rules engine with the built-in invariant set.
func NewDefaultRulesEngine() *RulesEngine {
	engine := domain.NewRulesEngine()
	engine.Register(NewRegistryIntegrityRule())
	engine.Register(NewEventCoherenceRule())
	return engine
}
