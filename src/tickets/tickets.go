package tickets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"storefront/src/models"
	"storefront/src/monitoring"
	"storefront/src/types"
	"storefront/src/utils"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const CODE_LENGTH = 12

// Payload is the plaintext sealed into a ticket's QR code.
type Payload struct {
	Code       string    `json:"code"`
	EventID    uint      `json:"eventId"`
	ValidFrom  time.Time `json:"validFrom"`
	ValidUntil time.Time `json:"validUntil"`
}

// Validation reports whether a ticket can be admitted and, if not, why.
type Validation struct {
	Valid      bool                      `json:"valid"`
	Reason     types.InvalidTicketReason `json:"reason,omitempty"`
	RedeemedAt *time.Time                `json:"redeemed_at,omitempty"`
	Ticket     *models.Ticket            `json:"ticket,omitempty"`
}

type Stats struct {
	Total     int64   `json:"total"`
	Active    int64   `json:"active"`
	Used      int64   `json:"used"`
	Void      int64   `json:"void"`
	UsageRate float64 `json:"usage_rate"`
}

type Service struct {
	db    *gorm.DB
	key   []byte
	grace time.Duration
	now   func() time.Time
}

func NewService(db *gorm.DB, key []byte, grace time.Duration) *Service {
	return &Service{
		db:    db,
		key:   key,
		grace: grace,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// IssueTickets creates one ticket per purchased unit of a paid order.
// Calling it again for the same order returns the tickets already issued.
func (s *Service) IssueTickets(ctx context.Context, orderID uuid.UUID) ([]models.Ticket, error) {
	var issued []models.Ticket
	created := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", orderID).
			First(&order).
			Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return types.ErrOrderNotFound
			}
			return err
		}
		if order.Status != types.ORDER_PAID {
			return fmt.Errorf("order %s is %s, tickets are issued for paid orders only: %w", order.Reference, order.Status, types.ErrIllegalTransition)
		}

		if err := tx.Where("order_id = ?", orderID).Order("number").Find(&issued).Error; err != nil {
			return err
		}
		if len(issued) > 0 {
			return nil
		}

		var items []models.OrderItem
		if err := tx.Where("order_id = ?", orderID).Find(&items).Error; err != nil {
			return err
		}
		var event models.Event
		if err := tx.Where("id = ?", order.EventID).First(&event).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return types.ErrEventNotFound
			}
			return err
		}

		now := s.now()
		validFrom := event.StartsAt.UTC()
		validUntil := event.EndTime().UTC().Add(s.grace)
		prefix := eventPrefix(event.Title)
		stamp := utils.Base36Time(now)
		codes := map[string]bool{}

		for _, item := range items {
			for range item.Quantity {
				code, err := uniqueCode(codes)
				if err != nil {
					return err
				}
				suffix, err := utils.GenerateCode(6)
				if err != nil {
					return err
				}
				payload, err := s.seal(Payload{
					Code:       code,
					EventID:    event.ID,
					ValidFrom:  validFrom,
					ValidUntil: validUntil,
				})
				if err != nil {
					return err
				}
				issued = append(issued, models.Ticket{
					Number:     fmt.Sprintf("%s-%s-%s", prefix, stamp, suffix),
					Code:       code,
					QRPayload:  payload,
					Status:     types.TICKET_ACTIVE,
					OrderID:    order.ID,
					CategoryID: item.CategoryID,
					UserID:     order.UserID,
					EventID:    order.EventID,
					IssuedAt:   now,
					ValidFrom:  validFrom,
					ValidUntil: validUntil,
				})
			}
		}
		if len(issued) == 0 {
			return nil
		}
		if err := tx.Create(&issued).Error; err != nil {
			return err
		}
		created = true
		return nil
	})
	if err != nil {
		log.Printf("[Tickets] issuance for order %s failed: %s\n", orderID, err.Error())
		return nil, err
	}
	if created {
		monitoring.TrackTicketsIssued(len(issued))
		log.Printf("[Tickets] issued %d tickets for order %s\n", len(issued), orderID)
	}
	return issued, nil
}

func (s *Service) Validate(ctx context.Context, code string) (*Validation, error) {
	var ticket models.Ticket
	err := s.db.WithContext(ctx).
		Where("code = ?", strings.ToUpper(strings.TrimSpace(code))).
		Preload("Event").
		Preload("Order").
		Preload("Category").
		First(&ticket).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &Validation{Reason: types.TICKET_NOT_FOUND}, nil
		}
		return nil, err
	}
	return s.check(&ticket), nil
}

// Redeem admits a ticket exactly once. A ticket already redeemed reports
// the original redemption time.
func (s *Service) Redeem(ctx context.Context, code string, gateID *string, staffID uint) (*Validation, error) {
	v, err := s.Validate(ctx, code)
	if err != nil {
		return nil, err
	}
	if !v.Valid {
		monitoring.TrackRedemption(string(v.Reason))
		return v, nil
	}

	ticket := v.Ticket
	now := s.now()
	won := false
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.
			Model(&models.Ticket{}).
			Where("id = ? AND status = ?", ticket.ID, types.TICKET_ACTIVE).
			Updates(map[string]any{
				"status":      types.TICKET_USED,
				"redeemed_at": now,
				"gate_id":     gateID,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		won = true
		return tx.Create(&models.Admission{
			TicketID: ticket.ID,
			GateID:   gateID,
			By:       staffID,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	if !won {
		var current models.Ticket
		if err := s.db.WithContext(ctx).Where("id = ?", ticket.ID).First(&current).Error; err != nil {
			return nil, err
		}
		log.Printf("[Admission] ticket %s lost redemption race, status %s\n", current.Number, current.Status)
		result := s.check(&current)
		monitoring.TrackRedemption(string(result.Reason))
		return result, nil
	}

	ticket.Status = types.TICKET_USED
	ticket.RedeemedAt = &now
	ticket.GateID = gateID
	monitoring.TrackRedemption("admitted")
	log.Printf("[Admission] ticket %s admitted\n", ticket.Number)
	return &Validation{Valid: true, Ticket: ticket, RedeemedAt: &now}, nil
}

func (s *Service) check(ticket *models.Ticket) *Validation {
	switch {
	case ticket.Status == types.TICKET_USED:
		return &Validation{Reason: types.TICKET_IS_USED, RedeemedAt: ticket.RedeemedAt, Ticket: ticket}
	case ticket.Status == types.TICKET_VOID:
		return &Validation{Reason: types.TICKET_IS_VOID, Ticket: ticket}
	case s.now().After(ticket.ValidUntil):
		return &Validation{Reason: types.TICKET_EXPIRED, Ticket: ticket}
	}
	return &Validation{Valid: true, Ticket: ticket}
}

func (s *Service) VoidByOrder(ctx context.Context, orderID uuid.UUID) (int64, error) {
	return VoidByOrderTx(s.db.WithContext(ctx), orderID)
}

// VoidByOrderTx voids the active tickets of an order. Used tickets keep
// their status.
func VoidByOrderTx(tx *gorm.DB, orderID uuid.UUID) (int64, error) {
	res := tx.
		Model(&models.Ticket{}).
		Where("order_id = ? AND status = ?", orderID, types.TICKET_ACTIVE).
		Update("status", types.TICKET_VOID)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// DecodePayload opens a QR payload produced at issuance.
func (s *Service) DecodePayload(payload string) (*Payload, error) {
	plain, err := utils.DecryptMessage(s.key, strings.TrimSpace(payload))
	if err != nil {
		return nil, fmt.Errorf("invalid ticket payload: %w", err)
	}
	var p Payload
	if err := json.Unmarshal([]byte(*plain), &p); err != nil {
		return nil, fmt.Errorf("invalid ticket payload: %w", err)
	}
	return &p, nil
}

// ResolveCode returns the redemption code from either a typed code or a
// scanned QR payload.
func (s *Service) ResolveCode(code, payload string) (string, error) {
	if code != "" {
		return code, nil
	}
	p, err := s.DecodePayload(payload)
	if err != nil {
		return "", err
	}
	return p.Code, nil
}

func (s *Service) Get(ctx context.Context, ticketID uuid.UUID) (*models.Ticket, error) {
	var ticket models.Ticket
	err := s.db.WithContext(ctx).
		Where("id = ?", ticketID).
		Preload("Event").
		Preload("Category").
		First(&ticket).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.ErrTicketNotFound
		}
		return nil, err
	}
	return &ticket, nil
}

func (s *Service) ListByUser(ctx context.Context, userID uint) ([]models.Ticket, error) {
	var list []models.Ticket
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Preload("Event").
		Preload("Category").
		Order("issued_at DESC").
		Find(&list).
		Error
	return list, err
}

func (s *Service) Stats(ctx context.Context, eventID uint) (*Stats, error) {
	var rows []struct {
		Status types.TicketStatus
		Total  int64
	}
	err := s.db.WithContext(ctx).
		Model(&models.Ticket{}).
		Select("status, COUNT(*) AS total").
		Where("event_id = ?", eventID).
		Group("status").
		Scan(&rows).
		Error
	if err != nil {
		return nil, err
	}
	var st Stats
	for _, r := range rows {
		st.Total += r.Total
		switch r.Status {
		case types.TICKET_ACTIVE:
			st.Active = r.Total
		case types.TICKET_USED:
			st.Used = r.Total
		case types.TICKET_VOID:
			st.Void = r.Total
		}
	}
	if st.Total > 0 {
		st.UsageRate = float64(st.Used) / float64(st.Total) * 100
	}
	return &st, nil
}

func (s *Service) seal(p Payload) (string, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return utils.EncryptMessage(s.key, string(b))
}

func uniqueCode(seen map[string]bool) (string, error) {
	for {
		code, err := utils.GenerateCode(CODE_LENGTH)
		if err != nil {
			return "", err
		}
		if !seen[code] {
			seen[code] = true
			return code, nil
		}
	}
}

func eventPrefix(title string) string {
	p := strings.ToUpper(strings.ReplaceAll(slug.Make(title), "-", ""))
	if len(p) < 3 {
		p += strings.Repeat("X", 3-len(p))
	}
	return p[:3]
}
