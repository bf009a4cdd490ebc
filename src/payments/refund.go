package payments

import (
	"context"
	"fmt"
	"log"
	"storefront/src/models"
	"storefront/src/orders"
	"storefront/src/types"
	"storefront/src/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RefundResult struct {
	Order           *models.Order `json:"order"`
	RefundReference string        `json:"refund_reference"`
	AmountCents     int64         `json:"amount"`
	VoidedTickets   int64         `json:"voided_tickets"`
}

// ProcessRefund refunds a paid order and voids its unused tickets. A
// partial amount is passed to the provider but the order is refunded as a
// whole.
func (b *Bridge) ProcessRefund(ctx context.Context, orderID uuid.UUID, amount *int64, reason string) (*RefundResult, error) {
	order, err := b.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != types.ORDER_PAID {
		return nil, &types.TransitionError{From: order.Status, To: types.ORDER_REFUNDED}
	}
	refundAmount := order.TotalCents
	if amount != nil {
		if *amount <= 0 || *amount > order.TotalCents {
			return nil, fmt.Errorf("amount must be between 1 and %d: %w", order.TotalCents, types.ErrInvalidRefund)
		}
		refundAmount = *amount
	}

	// one caller at a time may reach the provider for an order
	claim := b.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ? AND refund_claimed_at IS NULL", order.ID, types.ORDER_PAID).
		Update("refund_claimed_at", b.now())
	if claim.Error != nil {
		return nil, claim.Error
	}
	if claim.RowsAffected == 0 {
		return nil, fmt.Errorf("refund of order %s already in progress: %w", order.Reference, types.ErrIllegalTransition)
	}

	var reference string
	if b.refunder != nil && order.PaymentReference != nil {
		reference, err = b.refunder.Refund(ctx, *order.PaymentReference, refundAmount, reason)
		if err != nil {
			log.Printf("[Refund] provider refused refund of order %s: %s\n", order.Reference, err.Error())
			b.releaseRefundClaim(ctx, order)
			return nil, &types.ExternalError{Service: "payment", Err: err}
		}
	} else {
		code, err := utils.GenerateCode(6)
		if err != nil {
			b.releaseRefundClaim(ctx, order)
			return nil, err
		}
		reference = fmt.Sprintf("REF-%s-%s", utils.Base36Time(b.now()), code)
	}

	var voided int64
	refunded, err := b.orders.Transition(ctx, orderID, types.ORDER_REFUNDED,
		orders.WithHook(func(tx *gorm.DB, o *models.Order) error {
			if err := tx.
				Model(&models.Ticket{}).
				Where("order_id = ? AND status = ?", o.ID, types.TICKET_VOID).
				Count(&voided).
				Error; err != nil {
				return err
			}
			metadata := types.JSONB{"voided_tickets": voided}
			if reason != "" {
				metadata["reason"] = reason
			}
			return tx.Create(&models.Transaction{
				OrderID:     o.ID,
				Kind:        types.TRANSACTION_REFUND,
				Provider:    b.provider,
				Reference:   reference,
				AmountCents: refundAmount,
				Currency:    o.Currency,
				Status:      types.TRANSACTION_SUCCEEDED,
				Metadata:    &metadata,
			}).Error
		}),
	)
	if err != nil {
		log.Printf("[Refund] order %s refunded at provider as %s but not updated: %s\n", order.Reference, reference, err.Error())
		return nil, err
	}
	b.publish(ctx, "order.refunded", map[string]any{
		"order_id":  refunded.ID,
		"reference": refunded.Reference,
		"amount":    refundAmount,
	})
	log.Printf("[Refund] order %s refunded %d %s as %s, %d tickets voided\n", refunded.Reference, refundAmount, refunded.Currency, reference, voided)
	return &RefundResult{
		Order:           refunded,
		RefundReference: reference,
		AmountCents:     refundAmount,
		VoidedTickets:   voided,
	}, nil
}

func (b *Bridge) releaseRefundClaim(ctx context.Context, order *models.Order) {
	err := b.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", order.ID).
		Update("refund_claimed_at", nil).
		Error
	if err != nil {
		log.Printf("[Refund] claim on order %s not released: %s\n", order.Reference, err.Error())
	}
}
