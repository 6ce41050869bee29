package core

import (
	"context"
	"fmt"
	"time"

	"shopcore/internal/infra/persistence/memory"
	"shopcore/pkg/domain"
)

// Service exposes the registry operations: owner-gated administration, the
// two purchase workflows, and read-only projections. Every mutating call runs
// as one all-or-nothing transaction against the underlying store.
type Service struct {
	store    PersistentStore
	transfer domain.ValueTransfer
	logger   Logger
	metrics  MetricsRecorder
	tracer   Tracer
}

// ServiceOption customizes service construction.
type ServiceOption func(*Service)

// WithLogger attaches a structured logger to the service.
func WithLogger(logger Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetricsRecorder attaches an operation metrics recorder.
func WithMetricsRecorder(rec MetricsRecorder) ServiceOption {
	return func(s *Service) {
		if rec != nil {
			s.metrics = rec
		}
	}
}

// WithTracer attaches an operation tracer.
func WithTracer(tracer Tracer) ServiceOption {
	return func(s *Service) {
		if tracer != nil {
			s.tracer = tracer
		}
	}
}

// WithValueTransfer attaches the host value-transfer capability used to
// refund overpayment on the purchase path.
func WithValueTransfer(vt domain.ValueTransfer) ServiceOption {
	return func(s *Service) {
		if vt != nil {
			s.transfer = vt
		}
	}
}

// NewService constructs a service backed by the supplied store.
func NewService(store PersistentStore, opts ...ServiceOption) *Service {
	s := &Service{
		store:   store,
		logger:  noopLogger{},
		metrics: noopMetrics{},
		tracer:  noopTracer{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewInMemoryService creates a service and in-memory store with the given
// rules engine.
func NewInMemoryService(engine *RulesEngine, opts ...ServiceOption) *Service {
	return NewService(memory.NewStore(engine), opts...)
}

// Store returns the underlying storage implementation.
func (s *Service) Store() PersistentStore {
	return s.store
}

// Initialize records the initializing caller as the owner. It fails on a null
// address and on a registry that already has an owner.
func (s *Service) Initialize(ctx context.Context, owner Address) (Result, error) {
	return s.run(ctx, "initialize", func(tx Transaction) error {
		if owner.IsZero() {
			return domain.InvalidInputf("owner address must not be null")
		}
		if !tx.Owner().IsZero() {
			return fmt.Errorf("registry already initialized with owner %q", tx.Owner())
		}
		tx.SetOwner(owner)
		return nil
	})
}

// TransferOwnership hands the registry to newOwner and records the previous
// owner in the emitted event.
func (s *Service) TransferOwnership(ctx context.Context, caller, newOwner Address) (Result, error) {
	return s.run(ctx, "transfer_ownership", func(tx Transaction) error {
		if err := check(tx, ownerOnly(caller)); err != nil {
			return err
		}
		if newOwner.IsZero() {
			return domain.InvalidInputf("new owner must not be the null address")
		}
		previous := tx.Owner()
		tx.SetOwner(newOwner)
		tx.RecordEvent(Event{
			Type:          domain.EventOwnershipTransferred,
			PreviousOwner: previous,
			NewOwner:      newOwner,
		})
		return nil
	})
}

// run executes a mutating operation inside one store transaction with
// observability wrapped around it.
func (s *Service) run(ctx context.Context, op string, fn func(Transaction) error) (Result, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, op)
	res, err := s.store.RunInTransaction(ctx, fn)
	span.End(err)
	s.metrics.Observe(ctx, op, err == nil, time.Since(start))
	if err != nil {
		s.logger.Warn("operation rejected", "op", op, "error", err)
		return res, err
	}
	for _, v := range res.Violations {
		if v.Severity != SeverityBlock {
			s.logger.Warn("rule violation", "op", op, "rule", v.Rule, "message", v.Message)
		}
	}
	s.logger.Debug("operation committed", "op", op)
	return res, nil
}

// view executes a read-only projection against a committed snapshot.
func (s *Service) view(ctx context.Context, op string, fn func(TransactionView) error) error {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, op)
	err := s.store.View(ctx, fn)
	span.End(err)
	s.metrics.Observe(ctx, op, err == nil, time.Since(start))
	return err
}
