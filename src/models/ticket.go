package models

import (
	"storefront/src/types"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Ticket struct {
	ID         uuid.UUID          `gorm:"primarykey;type:uuid" json:"id"`
	Number     string             `gorm:"uniqueIndex" json:"ticket_number"`
	Code       string             `gorm:"uniqueIndex;size:12" json:"code"`
	QRPayload  string             `json:"qr_payload"`
	Status     types.TicketStatus `gorm:"index;not null" json:"status"`
	OrderID    uuid.UUID          `gorm:"type:uuid;index" json:"order_id"`
	CategoryID uint               `json:"category_id"`
	UserID     uint               `gorm:"index" json:"user_id"`
	EventID    uint               `gorm:"index" json:"event_id"`
	IssuedAt   time.Time          `json:"issued_at"`
	ValidFrom  time.Time          `json:"valid_from"`
	ValidUntil time.Time          `json:"valid_until"`
	RedeemedAt *time.Time         `json:"redeemed_at,omitempty"`
	GateID     *string            `json:"gate_id,omitempty"`

	Order    *Order          `gorm:"foreignKey:order_id" json:"order,omitempty"`
	Event    *Event          `gorm:"foreignKey:event_id" json:"event,omitempty"`
	Category *TicketCategory `gorm:"foreignKey:category_id" json:"category,omitempty"`

	types.Timestamps
}

func (t *Ticket) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
