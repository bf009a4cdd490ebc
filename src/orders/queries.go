package orders

import (
	"context"
	"errors"
	"fmt"
	"storefront/src/models"
	"storefront/src/models/scopes"
	"storefront/src/types"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Stats struct {
	Total        int64                       `json:"total"`
	ByStatus     map[types.OrderStatus]int64 `json:"by_status"`
	RevenueCents int64                       `json:"revenue"`
	TicketsSold  int64                       `json:"tickets_sold"`
}

func (s *Service) Get(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).
		Where("id = ?", orderID).
		Preload("Items.Category").
		Preload("Event").
		Preload("Tickets").
		First(&order).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

// GetForUser loads an order only if it belongs to userID.
func (s *Service) GetForUser(ctx context.Context, orderID uuid.UUID, userID uint) (*models.Order, error) {
	order, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, types.ErrOrderNotFound
	}
	return order, nil
}

func (s *Service) ListByUser(ctx context.Context, userID uint, status types.OrderStatus) ([]models.Order, error) {
	var list []models.Order
	q := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	err := q.
		Preload("Items.Category").
		Preload("Event").
		Order("created_at DESC").
		Find(&list).
		Error
	return list, err
}

// Cancel lets the owner abandon an unpaid order. Paid orders have to be
// refunded instead.
func (s *Service) Cancel(ctx context.Context, orderID uuid.UUID, userID uint) (*models.Order, error) {
	var order models.Order
	if err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", orderID, userID).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.ErrOrderNotFound
		}
		return nil, err
	}
	if order.Status == types.ORDER_PAID {
		return nil, fmt.Errorf("paid orders must be refunded: %w", &types.TransitionError{From: order.Status, To: types.ORDER_CANCELLED})
	}
	cancelled, err := s.Transition(ctx, orderID, types.ORDER_CANCELLED)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, "order.cancelled", map[string]any{"order_id": cancelled.ID, "reference": cancelled.Reference})
	return cancelled, nil
}

// Stats counts orders per status and sums revenue of paid orders,
// optionally for one event.
func (s *Service) Stats(ctx context.Context, eventID *uint) (*Stats, error) {
	byEvent := func(db *gorm.DB) *gorm.DB {
		if eventID != nil {
			return db.Where("orders.event_id = ?", *eventID)
		}
		return db
	}

	var rows []struct {
		Status types.OrderStatus
		Total  int64
	}
	if err := s.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("status, COUNT(*) AS total").
		Scopes(byEvent).
		Group("status").
		Scan(&rows).
		Error; err != nil {
		return nil, err
	}
	st := &Stats{ByStatus: map[types.OrderStatus]int64{}}
	for _, r := range rows {
		st.ByStatus[r.Status] = r.Total
		st.Total += r.Total
	}

	if err := s.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("COALESCE(SUM(total_cents), 0)").
		Scopes(byEvent, scopes.WithPaidStatus).
		Scan(&st.RevenueCents).
		Error; err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).
		Model(&models.OrderItem{}).
		Select("COALESCE(SUM(order_items.quantity), 0)").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Scopes(byEvent, scopes.WithPaidStatus).
		Scan(&st.TicketsSold).
		Error; err != nil {
		return nil, err
	}
	return st, nil
}
