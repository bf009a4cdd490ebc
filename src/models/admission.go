package models

import (
	"storefront/src/types"

	"github.com/google/uuid"
)

// Admission records a successful gate redemption of a ticket.
type Admission struct {
	ID uint `gorm:"primarykey" json:"id"`

	TicketID uuid.UUID `gorm:"type:uuid;uniqueIndex" json:"ticket_id"`
	GateID   *string   `json:"gate_id,omitempty"`
	By       uint      `json:"by,omitempty"`
	Type     string    `gorm:"default:'single'" json:"type,omitempty"`
	Status   string    `gorm:"default:'completed'" json:"status,omitempty"`

	Ticket *Ticket `gorm:"foreignKey:ticket_id" json:"ticket,omitempty"`

	types.Timestamps
}
