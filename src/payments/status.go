package payments

import (
	"context"
	"storefront/src/types"
	"time"

	"github.com/google/uuid"
)

type PaymentStatus string

const (
	PAYMENT_PENDING   PaymentStatus = "pending"
	PAYMENT_PAID      PaymentStatus = "paid"
	PAYMENT_FAILED    PaymentStatus = "failed"
	PAYMENT_CANCELLED PaymentStatus = "cancelled"
)

type StatusResult struct {
	OrderID          uuid.UUID         `json:"order_id"`
	Reference        string            `json:"reference"`
	Status           PaymentStatus     `json:"status"`
	OrderStatus      types.OrderStatus `json:"order_status"`
	PaymentReference *string           `json:"payment_reference,omitempty"`
	TotalCents       int64             `json:"total"`
	Currency         string            `json:"currency"`
	PaidAt           *time.Time        `json:"paid_at,omitempty"`
	ExpiresAt        *time.Time        `json:"expires_at,omitempty"`
}

func StatusOf(status types.OrderStatus) PaymentStatus {
	switch status {
	case types.ORDER_PAID:
		return PAYMENT_PAID
	case types.ORDER_EXPIRED:
		return PAYMENT_FAILED
	case types.ORDER_CANCELLED, types.ORDER_REFUNDED:
		return PAYMENT_CANCELLED
	default:
		return PAYMENT_PENDING
	}
}

func (b *Bridge) PaymentStatus(ctx context.Context, orderID uuid.UUID) (*StatusResult, error) {
	order, err := b.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return &StatusResult{
		OrderID:          order.ID,
		Reference:        order.Reference,
		Status:           StatusOf(order.Status),
		OrderStatus:      order.Status,
		PaymentReference: order.PaymentReference,
		TotalCents:       order.TotalCents,
		Currency:         order.Currency,
		PaidAt:           order.PaidAt,
		ExpiresAt:        order.ExpiresAt,
	}, nil
}
