package models

import (
	"storefront/src/types"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OrderItem struct {
	ID             uuid.UUID `gorm:"primarykey;type:uuid" json:"id"`
	OrderID        uuid.UUID `gorm:"type:uuid;index" json:"order_id"`
	CategoryID     uint      `gorm:"index" json:"category_id"`
	Quantity       int       `gorm:"not null" json:"quantity"`
	UnitPriceCents int64     `json:"unit_price"`

	Category *TicketCategory `gorm:"foreignKey:category_id" json:"category,omitempty"`

	types.Timestamps
}

func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

func (i *OrderItem) LineTotal() int64 {
	return i.UnitPriceCents * int64(i.Quantity)
}
