package domain

import (
	"errors"
	"fmt"
)

// Failure kinds returned by registry operations. Every precondition violation
// aborts the whole operation and surfaces exactly one of these; callers match
// with errors.Is.
var (
	// ErrUnauthorized indicates the caller is not the owner.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound indicates the item id is not present in the registry.
	ErrNotFound = errors.New("item not found")
	// ErrInvalidInput indicates a non-positive price/quantity or a null address.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInsufficientStock indicates the requested amount exceeds the pool.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrInsufficientPayment indicates the attached payment does not cover cost.
	ErrInsufficientPayment = errors.New("insufficient payment")
	// ErrItemLocked indicates the item is locked for the purchase workflow.
	ErrItemLocked = errors.New("item locked")
	// ErrItemUnavailable indicates the item availability flag is off.
	ErrItemUnavailable = errors.New("item unavailable")
)

// NotFoundf wraps ErrNotFound with context.
func NotFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// InvalidInputf wraps ErrInvalidInput with context.
func InvalidInputf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
