package orders

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"
	"storefront/src/models"
	"storefront/src/monitoring"
	"storefront/src/tickets"
	"storefront/src/types"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var transitions = map[types.OrderStatus][]types.OrderStatus{
	types.ORDER_CREATED:         {types.ORDER_PENDING_PAYMENT, types.ORDER_CANCELLED},
	types.ORDER_PENDING_PAYMENT: {types.ORDER_PAID, types.ORDER_CANCELLED, types.ORDER_EXPIRED},
	types.ORDER_PAID:            {types.ORDER_REFUNDED},
}

func CanTransition(from, to types.OrderStatus) bool {
	return slices.Contains(transitions[from], to)
}

// IsTerminal reports whether no transition leaves the status.
func IsTerminal(status types.OrderStatus) bool {
	return len(transitions[status]) == 0
}

func IsHolding(status types.OrderStatus) bool {
	return slices.Contains(types.HoldingStatuses, status)
}

type transitionOptions struct {
	updates map[string]any
	hooks   []func(tx *gorm.DB, order *models.Order) error
}

type TransitionOption func(*transitionOptions)

// WithUpdates writes extra columns together with the status change.
func WithUpdates(updates map[string]any) TransitionOption {
	return func(o *transitionOptions) {
		for k, v := range updates {
			o.updates[k] = v
		}
	}
}

// WithHook runs fn inside the transition's transaction after the status
// has been written.
func WithHook(fn func(tx *gorm.DB, order *models.Order) error) TransitionOption {
	return func(o *transitionOptions) {
		o.hooks = append(o.hooks, fn)
	}
}

// Transition moves an order to status to. The write is conditional on the
// status observed when the order was read, so two concurrent transitions
// of the same order cannot both succeed.
func (s *Service) Transition(ctx context.Context, orderID uuid.UUID, to types.OrderStatus, opts ...TransitionOption) (*models.Order, error) {
	t := &transitionOptions{updates: map[string]any{}}
	for _, opt := range opts {
		opt(t)
	}

	var order models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		o, err := s.transition(tx, orderID, to, t)
		if err != nil {
			return err
		}
		order = *o
		return nil
	})
	if err != nil {
		return nil, err
	}

	if to == types.ORDER_PAID && s.issuer != nil {
		if _, err := s.issuer.IssueTickets(ctx, orderID); err != nil {
			log.Printf("[OrderStatus] order %s is paid but ticket issuance failed: %s\n", order.Reference, err.Error())
			return &order, fmt.Errorf("issue tickets for order %s: %w", order.Reference, err)
		}
	}
	return &order, nil
}

func (s *Service) transition(tx *gorm.DB, orderID uuid.UUID, to types.OrderStatus, t *transitionOptions) (*models.Order, error) {
	var order models.Order
	if err := tx.Where("id = ?", orderID).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.ErrOrderNotFound
		}
		return nil, err
	}
	from := order.Status
	if !CanTransition(from, to) {
		monitoring.TrackTransition(string(from), string(to), "rejected")
		return nil, &types.TransitionError{From: from, To: to}
	}

	now := s.now()
	updates := map[string]any{"status": to}
	for k, v := range t.updates {
		updates[k] = v
	}
	if to == types.ORDER_PAID {
		updates["paid_at"] = now
	}

	res := tx.
		Model(&models.Order{}).
		Where("id = ? AND status = ?", orderID, from).
		Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		monitoring.TrackTransition(string(from), string(to), "stale")
		return nil, &types.TransitionError{From: from, To: to, Stale: true}
	}

	if to == types.ORDER_REFUNDED {
		voided, err := tickets.VoidByOrderTx(tx, orderID)
		if err != nil {
			return nil, err
		}
		log.Printf("[OrderStatus] voided %d tickets of refunded order %s\n", voided, order.Reference)
	}

	if err := tx.Where("id = ?", orderID).First(&order).Error; err != nil {
		return nil, err
	}
	for _, hook := range t.hooks {
		if err := hook(tx, &order); err != nil {
			return nil, err
		}
	}
	monitoring.TrackTransition(string(from), string(to), "ok")
	log.Printf("[OrderStatus] order %s moved from %s to %s\n", order.Reference, from, to)
	return &order, nil
}
