package models

import (
	"storefront/src/types"
)

type TicketCategory struct {
	ID          uint   `gorm:"primarykey" json:"id"`
	EventID     uint   `gorm:"index" json:"event_id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	PriceCents  int64  `json:"price"`
	Currency    string `json:"currency,omitempty"`
	Capacity    int    `json:"capacity"`
	MaxPerOrder int    `json:"max_per_order,omitempty"`
	IsAvailable bool   `json:"is_available"`

	Event *Event `gorm:"foreignKey:event_id" json:"event,omitempty"`

	types.Timestamps
}
