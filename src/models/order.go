package models

import (
	"storefront/src/types"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Order struct {
	ID               uuid.UUID         `gorm:"primarykey;type:uuid" json:"id"`
	Reference        string            `gorm:"uniqueIndex" json:"reference"`
	UserID           uint              `gorm:"index" json:"user_id"`
	EventID          uint              `gorm:"index" json:"event_id"`
	Status           types.OrderStatus `gorm:"index;not null" json:"status"`
	SubtotalCents    int64             `json:"subtotal"`
	FeesCents        int64             `json:"fees"`
	TotalCents       int64             `json:"total"`
	Currency         string            `json:"currency"`
	ExpiresAt        *time.Time        `gorm:"index" json:"expires_at,omitempty"`
	PaymentReference *string           `gorm:"uniqueIndex" json:"payment_reference,omitempty"`
	PaymentMethod    string            `json:"payment_method,omitempty"`
	PaidAt           *time.Time        `json:"paid_at,omitempty"`
	RefundClaimedAt  *time.Time        `json:"-"`
	CustomerName     string            `json:"customer_name,omitempty"`
	CustomerEmail    string            `json:"customer_email,omitempty"`
	CustomerPhone    string            `json:"customer_phone,omitempty"`
	BillingAddress   *types.JSONB      `gorm:"type:jsonb" json:"billing_address,omitempty"`

	Event   *Event      `gorm:"foreignKey:event_id" json:"event,omitempty"`
	User    *User       `gorm:"foreignKey:user_id" json:"-"`
	Items   []OrderItem `gorm:"foreignKey:order_id" json:"items,omitempty"`
	Tickets []Ticket    `gorm:"foreignKey:order_id" json:"tickets,omitempty"`

	types.Timestamps
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// Units is the number of tickets the order entitles its owner to.
func (o *Order) Units() int {
	n := 0
	for _, item := range o.Items {
		n += item.Quantity
	}
	return n
}
