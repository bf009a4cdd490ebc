package orders

import (
	"context"
	"log"
	"storefront/src/models"
	"storefront/src/models/scopes"
	"storefront/src/types"
)

type sweepRule struct {
	from types.OrderStatus
	to   types.OrderStatus
}

// Holding orders whose window closed. A created order never received a
// payment intent and can only be cancelled.
var sweepRules = []sweepRule{
	{from: types.ORDER_PENDING_PAYMENT, to: types.ORDER_EXPIRED},
	{from: types.ORDER_CREATED, to: types.ORDER_CANCELLED},
}

// ProcessExpiredOrders releases every hold whose expiry has passed and
// returns the number of orders moved. Running it twice is harmless.
func (s *Service) ProcessExpiredOrders(ctx context.Context) (int64, error) {
	now := s.now()
	var processed int64
	for _, rule := range sweepRules {
		if !CanTransition(rule.from, rule.to) {
			continue
		}
		res := s.db.WithContext(ctx).
			Model(&models.Order{}).
			Scopes(scopes.WithStaleHold(rule.from, now)).
			Update("status", rule.to)
		if res.Error != nil {
			log.Printf("[Sweep] %s -> %s failed: %s\n", rule.from, rule.to, res.Error.Error())
			return processed, res.Error
		}
		processed += res.RowsAffected
		if res.RowsAffected > 0 {
			log.Printf("[Sweep] moved %d orders from %s to %s\n", res.RowsAffected, rule.from, rule.to)
		}
	}
	if processed > 0 {
		s.publish(ctx, "order.expired", map[string]any{"count": processed, "at": now})
	}
	return processed, nil
}
