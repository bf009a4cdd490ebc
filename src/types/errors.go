package types

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound              = errors.New("not found")
	ErrOrderNotFound         = fmt.Errorf("order %w", ErrNotFound)
	ErrTicketNotFound        = fmt.Errorf("ticket %w", ErrNotFound)
	ErrCategoryNotFound      = fmt.Errorf("ticket category %w", ErrNotFound)
	ErrEventNotFound         = fmt.Errorf("event %w", ErrNotFound)
	ErrIllegalTransition     = errors.New("illegal order status transition")
	ErrInsufficientInventory = errors.New("insufficient inventory")
	ErrAlreadyProcessed      = errors.New("already processed")
	ErrExternalDependency    = errors.New("external dependency failure")
	ErrInvalidCart           = errors.New("invalid cart")
	ErrInvalidRefund         = errors.New("invalid refund")
	ErrCapacityBelowSold     = errors.New("capacity cannot be lower than tickets sold")
)

type TransitionError struct {
	From OrderStatus
	To   OrderStatus
	// Stale is set when the order changed status between read and write.
	Stale bool
}

func (e *TransitionError) Error() string {
	if e.Stale {
		return fmt.Sprintf("order status changed concurrently, cannot move from %s to %s", e.From, e.To)
	}
	return fmt.Sprintf("cannot move order from %s to %s", e.From, e.To)
}

func (e *TransitionError) Unwrap() error {
	return ErrIllegalTransition
}

type InventoryError struct {
	CategoryID uint
	Category   string
	Requested  int
	Remaining  int
	Reason     AvailabilityReason
}

func (e *InventoryError) Error() string {
	switch e.Reason {
	case AVAILABILITY_DISABLED:
		return fmt.Sprintf("%s is not available for sale", e.Category)
	case AVAILABILITY_SOLD_OUT:
		return fmt.Sprintf("%s is sold out", e.Category)
	default:
		return fmt.Sprintf("only %d tickets available for %s, requested %d", e.Remaining, e.Category, e.Requested)
	}
}

func (e *InventoryError) Unwrap() error {
	return ErrInsufficientInventory
}

// ExternalError wraps a failure of a payment or notification collaborator.
type ExternalError struct {
	Service string
	Err     error
}

func (e *ExternalError) Error() string {
	return fmt.Sprintf("%s: %s", e.Service, e.Err.Error())
}

func (e *ExternalError) Unwrap() []error {
	return []error{ErrExternalDependency, e.Err}
}
