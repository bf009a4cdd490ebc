package orders

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"
	"storefront/src/inventory"
	"storefront/src/models"
	"storefront/src/monitoring"
	"storefront/src/types"
	"storefront/src/utils"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Checkout struct {
	Order        *models.Order `json:"order"`
	ClientSecret string        `json:"client_secret"`
	IntentID     string        `json:"intent_id"`
}

// Fee applies a percentage surcharge rounded half up to a whole minor unit.
func Fee(subtotal int64, percent int64) int64 {
	return decimal.NewFromInt(subtotal).
		Mul(decimal.NewFromInt(percent)).
		Div(decimal.NewFromInt(100)).
		Round(0).
		IntPart()
}

// Reference builds the customer facing order reference.
func Reference(now time.Time) (string, error) {
	suffix, err := utils.GenerateCode(4)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("ORD-%s-%s", utils.Base36Time(now), suffix), nil
}

// CreateOrder turns a cart into an order holding inventory until the
// payment window closes, and opens a payment intent for it.
func (s *Service) CreateOrder(ctx context.Context, userID uint, cart []types.CartItem, customer types.CustomerInfo) (*Checkout, error) {
	started := time.Now()
	defer monitoring.TrackCheckout(started)

	items, err := mergeCart(cart)
	if err != nil {
		return nil, err
	}
	categories, event, err := s.loadCart(ctx, cart, items)
	if err != nil {
		return nil, err
	}

	checks, err := s.inventory.CheckBatch(ctx, items)
	if err != nil {
		return nil, err
	}
	for _, check := range checks {
		if !check.OK() {
			monitoring.TrackInventoryRejection(string(check.Reason))
			log.Printf("[Checkout] rejected %s x%d: %s, %d left\n", check.Category, check.Requested, check.Reason, check.Remaining)
			return nil, check.Err()
		}
	}

	var subtotal int64
	orderItems := make([]models.OrderItem, 0, len(items))
	currency := s.cfg.Currency
	for _, item := range items {
		category := categories[item.CategoryID]
		subtotal += category.PriceCents * int64(item.Quantity)
		orderItems = append(orderItems, models.OrderItem{
			CategoryID:     item.CategoryID,
			Quantity:       item.Quantity,
			UnitPriceCents: category.PriceCents,
		})
		if category.Currency != "" {
			currency = category.Currency
		}
	}
	fees := Fee(subtotal, s.cfg.ServiceFeePercent)

	now := s.now()
	expiresAt := now.Add(s.cfg.HoldWindow)
	reference, err := Reference(now)
	if err != nil {
		return nil, err
	}
	order := models.Order{
		Reference:      reference,
		UserID:         userID,
		EventID:        event.ID,
		Status:         types.ORDER_CREATED,
		SubtotalCents:  subtotal,
		FeesCents:      fees,
		TotalCents:     subtotal + fees,
		Currency:       currency,
		ExpiresAt:      &expiresAt,
		CustomerName:   customer.FullName,
		CustomerEmail:  customer.Email,
		CustomerPhone:  customer.Phone,
		BillingAddress: billingAddress(customer),
		Items:          orderItems,
	}

	ids := make([]uint, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.CategoryID)
	}
	slices.Sort(ids)
	qty := map[uint]int{}
	for _, item := range items {
		qty[item.CategoryID] = item.Quantity
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, id := range ids {
			if err := s.inventory.Guard(tx, id, qty[id]); err != nil {
				return err
			}
		}
		return tx.Create(&order).Error
	})
	if err != nil {
		log.Printf("[Checkout] could not reserve order for user %d: %s\n", userID, err.Error())
		return nil, err
	}
	monitoring.TrackOrderCreated(strconv.FormatUint(uint64(event.ID), 10))
	log.Printf("[Checkout] order %s created, total %d %s, holds until %s\n", order.Reference, order.TotalCents, order.Currency, expiresAt.Format(time.RFC3339))

	intent, err := s.payments.CreateIntent(ctx, types.PaymentIntentRequest{
		OrderID:     order.ID,
		Reference:   order.Reference,
		AmountCents: order.TotalCents,
		Currency:    order.Currency,
		Customer:    customer,
	})
	if err != nil {
		log.Printf("[Checkout] payment intent for order %s failed: %s\n", order.Reference, err.Error())
		if _, cerr := s.Transition(ctx, order.ID, types.ORDER_CANCELLED); cerr != nil {
			log.Printf("[Checkout] could not cancel order %s: %s\n", order.Reference, cerr.Error())
		}
		return nil, &types.ExternalError{Service: "payment", Err: err}
	}

	pending, err := s.Transition(ctx, order.ID, types.ORDER_PENDING_PAYMENT, WithUpdates(map[string]any{
		"payment_reference": intent.ID,
	}))
	if err != nil {
		return nil, err
	}
	pending.Items = order.Items
	s.publish(ctx, "order.created", map[string]any{
		"order_id":  pending.ID,
		"reference": pending.Reference,
		"event_id":  pending.EventID,
		"total":     pending.TotalCents,
	})
	return &Checkout{Order: pending, ClientSecret: intent.ClientSecret, IntentID: intent.ID}, nil
}

// mergeCart folds duplicate category lines and rejects empty carts and
// non positive quantities.
func mergeCart(cart []types.CartItem) ([]inventory.Item, error) {
	if len(cart) == 0 {
		return nil, fmt.Errorf("cart is empty: %w", types.ErrInvalidCart)
	}
	index := map[uint]int{}
	items := []inventory.Item{}
	for _, line := range cart {
		if line.Quantity <= 0 {
			return nil, fmt.Errorf("quantity for category %d must be positive: %w", line.CategoryID, types.ErrInvalidCart)
		}
		if i, ok := index[line.CategoryID]; ok {
			items[i].Quantity += line.Quantity
			continue
		}
		index[line.CategoryID] = len(items)
		items = append(items, inventory.Item{CategoryID: line.CategoryID, Quantity: line.Quantity})
	}
	return items, nil
}

func (s *Service) loadCart(ctx context.Context, cart []types.CartItem, items []inventory.Item) (map[uint]models.TicketCategory, *models.Event, error) {
	ids := make([]uint, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.CategoryID)
	}
	var list []models.TicketCategory
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&list).Error; err != nil {
		return nil, nil, err
	}
	categories := make(map[uint]models.TicketCategory, len(list))
	for _, c := range list {
		categories[c.ID] = c
	}

	var eventID uint
	for _, item := range items {
		c, ok := categories[item.CategoryID]
		if !ok {
			return nil, nil, fmt.Errorf("category %d: %w", item.CategoryID, types.ErrCategoryNotFound)
		}
		if eventID == 0 {
			eventID = c.EventID
		} else if c.EventID != eventID {
			return nil, nil, fmt.Errorf("all tickets must belong to one event: %w", types.ErrInvalidCart)
		}
		if c.MaxPerOrder > 0 && item.Quantity > c.MaxPerOrder {
			return nil, nil, fmt.Errorf("at most %d %s tickets per order: %w", c.MaxPerOrder, c.Name, types.ErrInvalidCart)
		}
	}
	for _, line := range cart {
		if line.EventID != 0 && line.EventID != eventID {
			return nil, nil, fmt.Errorf("category %d is not part of event %d: %w", line.CategoryID, line.EventID, types.ErrInvalidCart)
		}
	}

	var event models.Event
	if err := s.db.WithContext(ctx).Where("id = ?", eventID).First(&event).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, types.ErrEventNotFound
		}
		return nil, nil, err
	}
	if event.Status != types.EVENT_PUBLISHED {
		return nil, nil, fmt.Errorf("event %s is %s: %w", event.Title, event.Status, types.ErrInvalidCart)
	}
	return categories, &event, nil
}

func billingAddress(c types.CustomerInfo) *types.JSONB {
	if c.Address == "" && c.City == "" && c.ZipCode == "" {
		return nil
	}
	return &types.JSONB{
		"address":  c.Address,
		"city":     c.City,
		"zip_code": c.ZipCode,
	}
}
