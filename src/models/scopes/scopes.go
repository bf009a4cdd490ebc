package scopes

import (
	"storefront/src/types"
	"time"

	"gorm.io/gorm"
)

func WithID(id any) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("id = ?", id)
	}
}

func WithIDs(ids ...uint) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("id IN (?)", ids)
	}
}

// WithLiveHold keeps orders that still hold inventory at now.
func WithLiveHold(now time.Time) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.
			Where("orders.status IN ?", types.HoldingStatuses).
			Where("orders.expires_at > ?", now)
	}
}

// WithStaleHold keeps holding orders whose window has closed at now.
func WithStaleHold(status types.OrderStatus, now time.Time) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.
			Where("status = ?", status).
			Where("expires_at <= ?", now)
	}
}

func WithPaidStatus(db *gorm.DB) *gorm.DB {
	return db.Where("orders.status = ?", types.ORDER_PAID)
}
