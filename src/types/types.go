package types

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Timestamps struct {
	CreatedAt time.Time      `gorm:"autoCreateTime:nano" json:"created_at,omitempty"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime:nano" json:"updated_at,omitempty"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty,omitnil"`
}

type JSONB map[string]any

func (a JSONB) Value() (driver.Value, error) {
	valueString, err := json.Marshal(a)
	return string(valueString), err
}

func (a *JSONB) Scan(value any) error {
	var b []byte
	switch v := value.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	case nil:
		return nil
	default:
		return errors.New("type assertion to []byte failed")
	}
	return json.Unmarshal(b, &a)
}

type Metadata map[string]any

type EventStatus string

const (
	EVENT_DRAFT     EventStatus = "draft"
	EVENT_PUBLISHED EventStatus = "published"
	EVENT_CANCELLED EventStatus = "cancelled"
	EVENT_COMPLETED EventStatus = "completed"
)

type OrderStatus string

const (
	ORDER_CREATED         OrderStatus = "created"
	ORDER_PENDING_PAYMENT OrderStatus = "pending_payment"
	ORDER_PAID            OrderStatus = "paid"
	ORDER_CANCELLED       OrderStatus = "cancelled"
	ORDER_EXPIRED         OrderStatus = "expired"
	ORDER_REFUNDED        OrderStatus = "refunded"
)

// HoldingStatuses count their items against live inventory until expires_at.
var HoldingStatuses = []OrderStatus{ORDER_CREATED, ORDER_PENDING_PAYMENT}

type TicketStatus string

const (
	TICKET_ACTIVE TicketStatus = "active"
	TICKET_USED   TicketStatus = "used"
	TICKET_VOID   TicketStatus = "void"
)

type TransactionKind string

const (
	TRANSACTION_PAYMENT TransactionKind = "payment"
	TRANSACTION_REFUND  TransactionKind = "refund"
)

type TransactionStatus string

const (
	TRANSACTION_SUCCEEDED TransactionStatus = "succeeded"
	TRANSACTION_FAILED    TransactionStatus = "failed"
)

type PaymentEventType string

const (
	PAYMENT_SUCCEEDED PaymentEventType = "succeeded"
	PAYMENT_FAILED    PaymentEventType = "failed"
	PAYMENT_CANCELED  PaymentEventType = "canceled"
)

type AvailabilityReason string

const (
	AVAILABILITY_OK           AvailabilityReason = "ok"
	AVAILABILITY_DISABLED     AvailabilityReason = "disabled"
	AVAILABILITY_SOLD_OUT     AvailabilityReason = "sold_out"
	AVAILABILITY_INSUFFICIENT AvailabilityReason = "insufficient"
)

type InvalidTicketReason string

const (
	TICKET_NOT_FOUND InvalidTicketReason = "not_found"
	TICKET_IS_USED   InvalidTicketReason = "used"
	TICKET_IS_VOID   InvalidTicketReason = "void"
	TICKET_EXPIRED   InvalidTicketReason = "expired"
)

type NotificationKind string

const (
	NOTIFY_ORDER_CONFIRMATION NotificationKind = "order_confirmation"
	NOTIFY_PAYMENT_REMINDER   NotificationKind = "payment_reminder"
	NOTIFY_EVENT_REMINDER     NotificationKind = "event_reminder"
	NOTIFY_TICKET_DELIVERY    NotificationKind = "ticket_delivery"
)

type Role string

const (
	ROLE_CUSTOMER  Role = "customer"
	ROLE_STAFF     Role = "staff"
	ROLE_ORGANIZER Role = "organizer"
	ROLE_ADMIN     Role = "admin"
)

type CartItem struct {
	CategoryID uint `json:"category_id" binding:"required"`
	EventID    uint `json:"event_id,omitempty"`
	Quantity   int  `json:"quantity" binding:"required,gt=0"`
}

type CustomerInfo struct {
	Email    string `json:"email" binding:"required,email"`
	FullName string `json:"full_name" binding:"required"`
	Phone    string `json:"phone,omitempty"`
	Address  string `json:"address,omitempty"`
	City     string `json:"city,omitempty"`
	ZipCode  string `json:"zip_code,omitempty"`
}

type CreateOrderRequestBody struct {
	Cart     []CartItem   `json:"cart" binding:"required,min=1,dive"`
	Customer CustomerInfo `json:"customer" binding:"required"`
}

type RefundRequestBody struct {
	Amount *int64 `json:"amount,omitempty" binding:"omitempty,gt=0"`
	Reason string `json:"reason,omitempty"`
}

type UpdateCategoryRequestBody struct {
	IsAvailable *bool `json:"is_available,omitempty"`
	Capacity    *int  `json:"capacity,omitempty" binding:"omitempty,gte=0"`
}

type ValidateTicketRequestBody struct {
	Code    string `json:"code,omitempty" binding:"required_without=Payload,omitempty,ticketcode"`
	Payload string `json:"payload,omitempty" binding:"required_without=Code"`
}

type RedeemTicketRequestBody struct {
	Code    string  `json:"code,omitempty" binding:"required_without=Payload,omitempty,ticketcode"`
	Payload string  `json:"payload,omitempty" binding:"required_without=Code"`
	GateID  *string `json:"gate_id,omitempty"`
}

type UUIDRequestParams struct {
	ID string `uri:"id" binding:"required,uuid"`
}

type SimpleRequestParams struct {
	ID uint `uri:"id" binding:"required"`
}

type OrdersQueryFilters struct {
	Status string `form:"status" binding:"omitempty,oneof=created pending_payment paid cancelled expired refunded"`
}

type AvailabilityQuery struct {
	Qty int `form:"qty" binding:"omitempty,gt=0"`
}

type PaymentIntentRequest struct {
	OrderID     uuid.UUID
	Reference   string
	AmountCents int64
	Currency    string
	Customer    CustomerInfo
}

type PaymentIntent struct {
	ID           string `json:"intent_id"`
	ClientSecret string `json:"client_secret"`
}

// PaymentEvent is the provider-neutral shape of an asynchronous payment webhook.
type PaymentEvent struct {
	ID     string           `json:"id"`
	Type   PaymentEventType `json:"type"`
	Object PaymentObject    `json:"object"`
}

type PaymentObject struct {
	ID       string            `json:"id"`
	Status   string            `json:"status"`
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type Claims struct {
	Username    string   `json:"username"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
	UID         string   `json:"uid"`
	jwt.RegisteredClaims
}

// Handler processes one queued message. A nil error acknowledges it.
type Handler func(ctx context.Context, payload string) error
