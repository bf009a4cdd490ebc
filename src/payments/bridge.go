package payments

import (
	"context"
	"errors"
	"fmt"
	"log"
	"storefront/src/models"
	"storefront/src/monitoring"
	"storefront/src/orders"
	"storefront/src/types"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const DEDUP_TTL = 72 * time.Hour

// Refunder returns money for a captured payment and yields the provider's
// refund reference.
type Refunder interface {
	Refund(ctx context.Context, paymentReference string, amountCents int64, reason string) (string, error)
}

type Notifier interface {
	SendOrderConfirmation(ctx context.Context, orderID uuid.UUID) error
	SendTicketDelivery(ctx context.Context, orderID uuid.UUID) error
}

// Bridge reconciles asynchronous payment provider events with order state.
type Bridge struct {
	db        *gorm.DB
	orders    *orders.Service
	issuer    orders.TicketIssuer
	refunder  Refunder
	notifier  Notifier
	publisher orders.Publisher
	redis     *redis.Client
	provider  string
	now       func() time.Time
}

func NewBridge(db *gorm.DB, svc *orders.Service, issuer orders.TicketIssuer) *Bridge {
	return &Bridge{
		db:       db,
		orders:   svc,
		issuer:   issuer,
		provider: "stripe",
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (b *Bridge) WithRefunder(r Refunder) *Bridge {
	b.refunder = r
	return b
}

func (b *Bridge) WithNotifier(n Notifier) *Bridge {
	b.notifier = n
	return b
}

func (b *Bridge) WithPublisher(p orders.Publisher) *Bridge {
	b.publisher = p
	return b
}

func (b *Bridge) WithClock(now func() time.Time) *Bridge {
	b.now = now
	return b
}

// WithDedup short-circuits exact redeliveries of a provider event id.
func (b *Bridge) WithDedup(rdb *redis.Client) *Bridge {
	b.redis = rdb
	return b
}

// Handle applies one payment event. Redelivered or already applied events
// return types.ErrAlreadyProcessed.
func (b *Bridge) Handle(ctx context.Context, ev types.PaymentEvent) error {
	if ev.ID != "" && b.redis != nil {
		first, err := b.redis.SetNX(ctx, dedupKey(ev.ID), b.now().Format(time.RFC3339), DEDUP_TTL).Result()
		if err != nil {
			log.Printf("[PaymentEvent] dedup unavailable for %s: %s\n", ev.ID, err.Error())
		} else if !first {
			log.Printf("[PaymentEvent] %s already seen\n", ev.ID)
			monitoring.TrackPaymentEvent(string(ev.Type), "duplicate")
			return types.ErrAlreadyProcessed
		}
	}

	var err error
	switch ev.Type {
	case types.PAYMENT_SUCCEEDED:
		err = b.handleSucceeded(ctx, ev.Object)
	case types.PAYMENT_FAILED:
		err = b.handleFailed(ctx, ev.Object)
	case types.PAYMENT_CANCELED:
		err = b.handleCanceled(ctx, ev.Object)
	default:
		err = fmt.Errorf("unsupported payment event type %q", ev.Type)
	}

	switch {
	case err == nil:
		monitoring.TrackPaymentEvent(string(ev.Type), "applied")
	case errors.Is(err, types.ErrAlreadyProcessed):
		monitoring.TrackPaymentEvent(string(ev.Type), "noop")
	case errors.Is(err, types.ErrOrderNotFound):
		monitoring.TrackPaymentEvent(string(ev.Type), "unknown_order")
	default:
		monitoring.TrackPaymentEvent(string(ev.Type), "error")
		if ev.ID != "" && b.redis != nil {
			if derr := b.redis.Del(ctx, dedupKey(ev.ID)).Err(); derr != nil {
				log.Printf("[PaymentEvent] could not release %s: %s\n", ev.ID, derr.Error())
			}
		}
	}
	return err
}

func (b *Bridge) handleSucceeded(ctx context.Context, obj types.PaymentObject) error {
	order, err := b.lookup(ctx, obj)
	if err != nil {
		return err
	}

	switch {
	case order.Status == types.ORDER_PAID:
		if _, err := b.issuer.IssueTickets(ctx, order.ID); err != nil {
			return err
		}
		// a first delivery may have stopped before notifying; already sent
		// kinds are skipped by the notifier
		b.notifyPaid(ctx, order)
		log.Printf("[PaymentEvent] order %s already paid\n", order.Reference)
		return types.ErrAlreadyProcessed
	case order.Status == types.ORDER_REFUNDED:
		return types.ErrAlreadyProcessed
	case order.Status == types.ORDER_CREATED:
		return fmt.Errorf("order %s has no payment attached yet", order.Reference)
	case !orders.IsHolding(order.Status):
		log.Printf("[PaymentEvent] payment %s captured for %s order %s\n", obj.ID, order.Status, order.Reference)
		return &types.TransitionError{From: order.Status, To: types.ORDER_PAID}
	}

	amount := obj.Amount
	if amount == 0 {
		amount = order.TotalCents
	} else if amount != order.TotalCents {
		log.Printf("[PaymentEvent] amount %d for order %s differs from total %d\n", amount, order.Reference, order.TotalCents)
	}
	currency := obj.Currency
	if currency == "" {
		currency = order.Currency
	}

	paid, err := b.orders.Transition(ctx, order.ID, types.ORDER_PAID,
		orders.WithUpdates(map[string]any{"payment_method": b.provider}),
		orders.WithHook(func(tx *gorm.DB, o *models.Order) error {
			return tx.Create(&models.Transaction{
				OrderID:     o.ID,
				Kind:        types.TRANSACTION_PAYMENT,
				Provider:    b.provider,
				Reference:   obj.ID,
				AmountCents: amount,
				Currency:    currency,
				Status:      types.TRANSACTION_SUCCEEDED,
			}).Error
		}),
	)
	if err != nil {
		var te *types.TransitionError
		if errors.As(err, &te) && te.Stale {
			return b.staleSucceeded(ctx, order, obj)
		}
		return err
	}

	b.notifyPaid(ctx, paid)
	b.publish(ctx, "order.paid", map[string]any{
		"order_id":  paid.ID,
		"reference": paid.Reference,
		"event_id":  paid.EventID,
		"total":     paid.TotalCents,
	})
	log.Printf("[PaymentEvent] order %s paid with %s\n", paid.Reference, obj.ID)
	return nil
}

// staleSucceeded resolves a success event whose paid write lost to another
// writer. Only a concurrent payment makes it a no-op.
func (b *Bridge) staleSucceeded(ctx context.Context, order *models.Order, obj types.PaymentObject) error {
	var current models.Order
	if err := b.db.WithContext(ctx).Where("id = ?", order.ID).First(&current).Error; err != nil {
		return err
	}
	switch {
	case current.Status == types.ORDER_PAID:
		return types.ErrAlreadyProcessed
	case orders.IsHolding(current.Status):
		return fmt.Errorf("order %s changed while applying payment %s, retry", current.Reference, obj.ID)
	}
	log.Printf("[PaymentEvent] payment %s captured for %s order %s\n", obj.ID, current.Status, current.Reference)
	return &types.TransitionError{From: current.Status, To: types.ORDER_PAID}
}

func (b *Bridge) notifyPaid(ctx context.Context, order *models.Order) {
	if b.notifier == nil {
		return
	}
	if err := b.notifier.SendOrderConfirmation(ctx, order.ID); err != nil {
		log.Printf("[PaymentEvent] confirmation for order %s not sent: %s\n", order.Reference, err.Error())
	}
	if err := b.notifier.SendTicketDelivery(ctx, order.ID); err != nil {
		log.Printf("[PaymentEvent] tickets for order %s not delivered: %s\n", order.Reference, err.Error())
	}
}

// handleFailed leaves the order holding so the customer can retry before
// it expires.
func (b *Bridge) handleFailed(ctx context.Context, obj types.PaymentObject) error {
	order, err := b.lookup(ctx, obj)
	if err != nil {
		return err
	}
	log.Printf("[PaymentEvent] payment %s failed for order %s (%s)\n", obj.ID, order.Reference, order.Status)
	return nil
}

func (b *Bridge) handleCanceled(ctx context.Context, obj types.PaymentObject) error {
	order, err := b.lookup(ctx, obj)
	if err != nil {
		return err
	}
	if orders.IsTerminal(order.Status) {
		return types.ErrAlreadyProcessed
	}
	if order.Status == types.ORDER_PAID {
		return &types.TransitionError{From: order.Status, To: types.ORDER_CANCELLED}
	}
	if _, err := b.orders.Transition(ctx, order.ID, types.ORDER_CANCELLED); err != nil {
		return err
	}
	b.publish(ctx, "order.cancelled", map[string]any{"order_id": order.ID, "reference": order.Reference})
	return nil
}

// lookup finds the order by payment reference, falling back to the order
// id carried in the intent metadata.
func (b *Bridge) lookup(ctx context.Context, obj types.PaymentObject) (*models.Order, error) {
	var order models.Order
	err := b.db.WithContext(ctx).Where("payment_reference = ?", obj.ID).First(&order).Error
	if err == nil {
		return &order, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if id, perr := uuid.Parse(obj.Metadata["order_id"]); perr == nil {
		err = b.db.WithContext(ctx).Where("id = ?", id).First(&order).Error
		if err == nil {
			return &order, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}
	log.Printf("[PaymentEvent] no order for payment %s\n", obj.ID)
	return nil, types.ErrOrderNotFound
}

func (b *Bridge) publish(ctx context.Context, topic string, payload any) {
	if b.publisher == nil {
		return
	}
	if err := b.publisher.Publish(ctx, topic, payload); err != nil {
		log.Printf("[Events] could not publish %s: %s\n", topic, err.Error())
	}
}

func dedupKey(eventID string) string {
	return "payment_event:" + eventID
}
