package orders

import (
	"context"
	"log"
	"storefront/src/config"
	"storefront/src/inventory"
	"storefront/src/models"
	"storefront/src/types"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PaymentProvider starts a payment for an order.
type PaymentProvider interface {
	CreateIntent(ctx context.Context, req types.PaymentIntentRequest) (*types.PaymentIntent, error)
}

// TicketIssuer issues the tickets of a paid order. It must be idempotent.
type TicketIssuer interface {
	IssueTickets(ctx context.Context, orderID uuid.UUID) ([]models.Ticket, error)
}

type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) error
}

type Service struct {
	db        *gorm.DB
	cfg       config.Storefront
	inventory *inventory.Evaluator
	payments  PaymentProvider
	issuer    TicketIssuer
	publisher Publisher
	now       func() time.Time
}

func NewService(db *gorm.DB, cfg config.Storefront, payments PaymentProvider, issuer TicketIssuer) *Service {
	s := &Service{
		db:       db,
		cfg:      cfg,
		payments: payments,
		issuer:   issuer,
		now:      func() time.Time { return time.Now().UTC() },
	}
	s.inventory = inventory.NewEvaluator(db).WithClock(s.clock)
	return s
}

func (s *Service) WithPublisher(p Publisher) *Service {
	s.publisher = p
	return s
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) Inventory() *inventory.Evaluator {
	return s.inventory
}

func (s *Service) clock() time.Time {
	return s.now()
}

func (s *Service) publish(ctx context.Context, topic string, payload any) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, topic, payload); err != nil {
		log.Printf("[Events] could not publish %s: %s\n", topic, err.Error())
	}
}
