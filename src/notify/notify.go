// Package notify sends the customer emails of the order lifecycle and keeps a
// log row for every attempt.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"
	"storefront/src/models"
	"storefront/src/monitoring"
	"storefront/src/types"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	STATUS_SENT   = "sent"
	STATUS_FAILED = "failed"

	EVENT_REMINDER_LEAD = 24 * time.Hour
)

var ErrNoRecipient = errors.New("order has no recipient address")

type Message struct {
	From     string
	FromName string
	To       []string
	ReplyTo  string
	Subject  string
	Body     string
	Html     bool
}

// Mailer delivers a rendered message through some transport.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

type Service struct {
	db       *gorm.DB
	mailer   Mailer
	from     string
	fromName string
	appHost  string
	window   time.Duration
	now      func() time.Time
}

type Option func(*Service)

func WithSender(from, name string) Option {
	return func(s *Service) {
		s.from = from
		s.fromName = name
	}
}

func WithAppHost(host string) Option {
	return func(s *Service) {
		s.appHost = host
	}
}

// WithReminderWindow sets how close to expiry a holding order must be to get a payment reminder.
func WithReminderWindow(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.window = d
		}
	}
}

func NewService(db *gorm.DB, mailer Mailer, opts ...Option) *Service {
	s := &Service{
		db:       db,
		mailer:   mailer,
		fromName: "Storefront",
		window:   2 * time.Hour,
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

type view struct {
	Order   *models.Order
	Event   *models.Event
	Tickets []models.Ticket
	Link    string
}

func (s *Service) SendOrderConfirmation(ctx context.Context, orderID uuid.UUID) error {
	order, err := s.loadOrder(ctx, orderID, "Items.Category")
	if err != nil {
		return err
	}
	subject := fmt.Sprintf("Order %s confirmed", order.Reference)
	_, err = s.deliver(ctx, types.NOTIFY_ORDER_CONFIRMATION, order, subject, view{
		Order: order,
		Event: order.Event,
	})
	return err
}

// SendPaymentReminder reminds the customer of a holding order. Orders that no
// longer hold inventory are skipped silently.
func (s *Service) SendPaymentReminder(ctx context.Context, orderID uuid.UUID) error {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if !slices.Contains(types.HoldingStatuses, order.Status) || order.ExpiresAt == nil || !order.ExpiresAt.After(s.now()) {
		log.Printf("[Notify] order %s is %s, no payment reminder\n", order.Reference, order.Status)
		return nil
	}
	subject := fmt.Sprintf("Complete your order %s", order.Reference)
	_, err = s.deliver(ctx, types.NOTIFY_PAYMENT_REMINDER, order, subject, view{
		Order: order,
		Event: order.Event,
		Link:  s.link("orders", order.ID.String()),
	})
	return err
}

func (s *Service) SendTicketDelivery(ctx context.Context, orderID uuid.UUID) error {
	order, err := s.loadOrder(ctx, orderID, "Tickets.Category")
	if err != nil {
		return err
	}
	if len(order.Tickets) == 0 {
		return fmt.Errorf("order %s has no tickets to deliver", order.Reference)
	}
	subject := fmt.Sprintf("Your tickets for %s", order.Event.Title)
	_, err = s.deliver(ctx, types.NOTIFY_TICKET_DELIVERY, order, subject, view{
		Order:   order,
		Event:   order.Event,
		Tickets: order.Tickets,
		Link:    s.link("tickets"),
	})
	return err
}

// SendEventReminder mails every paid order of the event and returns how many
// reminders went out on this call.
func (s *Service) SendEventReminder(ctx context.Context, eventID uint) (int, error) {
	var list []models.Order
	err := s.db.WithContext(ctx).
		Preload("Event").
		Preload("Tickets", "status = ?", types.TICKET_ACTIVE).
		Where("event_id = ? AND status = ?", eventID, types.ORDER_PAID).
		Find(&list).Error
	if err != nil {
		return 0, err
	}
	sent := 0
	var errs []error
	for i := range list {
		order := &list[i]
		if order.Event == nil {
			continue
		}
		subject := fmt.Sprintf("Reminder: %s is coming up", order.Event.Title)
		ok, err := s.deliver(ctx, types.NOTIFY_EVENT_REMINDER, order, subject, view{
			Order:   order,
			Event:   order.Event,
			Tickets: order.Tickets,
			Link:    s.link("tickets"),
		})
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if ok {
			sent++
		}
	}
	return sent, errors.Join(errs...)
}

// SchedulePaymentReminders reminds every holding order expiring within the
// reminder window. Returns the number of orders scanned.
func (s *Service) SchedulePaymentReminders(ctx context.Context) (int64, error) {
	now := s.now()
	var ids []uuid.UUID
	err := s.db.WithContext(ctx).Model(&models.Order{}).
		Where("status IN ?", types.HoldingStatuses).
		Where("expires_at > ? AND expires_at <= ?", now, now.Add(s.window)).
		Pluck("id", &ids).Error
	if err != nil {
		return 0, err
	}
	var errs []error
	for _, id := range ids {
		if err := s.SendPaymentReminder(ctx, id); err != nil {
			errs = append(errs, err)
		}
	}
	return int64(len(ids)), errors.Join(errs...)
}

// ScheduleEventReminders sends reminders for published events starting within a day.
func (s *Service) ScheduleEventReminders(ctx context.Context) (int64, error) {
	now := s.now()
	var events []uint
	err := s.db.WithContext(ctx).Model(&models.Event{}).
		Where("status = ?", types.EVENT_PUBLISHED).
		Where("starts_at > ? AND starts_at <= ?", now, now.Add(EVENT_REMINDER_LEAD)).
		Pluck("id", &events).Error
	if err != nil {
		return 0, err
	}
	var total int64
	var errs []error
	for _, id := range events {
		n, err := s.SendEventReminder(ctx, id)
		total += int64(n)
		if err != nil {
			errs = append(errs, err)
		}
	}
	return total, errors.Join(errs...)
}

func (s *Service) loadOrder(ctx context.Context, id uuid.UUID, preload ...string) (*models.Order, error) {
	q := s.db.WithContext(ctx).Preload("Event")
	for _, p := range preload {
		q = q.Preload(p)
	}
	var order models.Order
	if err := q.Where("id = ?", id).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.ErrOrderNotFound
		}
		return nil, err
	}
	if order.Event == nil {
		return nil, types.ErrEventNotFound
	}
	return &order, nil
}

// deliver renders and sends one message unless the same kind was already sent
// for the order. It reports whether a message went out.
func (s *Service) deliver(ctx context.Context, kind types.NotificationKind, order *models.Order, subject string, data view) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("kind = ? AND reference_value = ? AND status = ?", kind, order.ID.String(), STATUS_SENT).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}

	entry := models.Notification{
		Kind:           kind,
		ReferenceType:  "order",
		ReferenceValue: order.ID.String(),
		Recipient:      order.CustomerEmail,
		Subject:        subject,
	}
	sendErr := s.send(ctx, kind, order, subject, data)
	entry.Status = STATUS_SENT
	if sendErr != nil {
		msg := sendErr.Error()
		entry.Status = STATUS_FAILED
		entry.Error = &msg
		log.Printf("[Notify] %s for order %s failed: %s\n", kind, order.Reference, msg)
	}
	monitoring.TrackNotification(string(kind), entry.Status)
	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		log.Printf("[Notify] could not log %s for order %s: %s\n", kind, order.Reference, err.Error())
	}
	if sendErr != nil {
		return false, sendErr
	}
	return true, nil
}

func (s *Service) send(ctx context.Context, kind types.NotificationKind, order *models.Order, subject string, data view) error {
	if order.CustomerEmail == "" {
		return ErrNoRecipient
	}
	if s.mailer == nil {
		return &types.ExternalError{Service: "mailer", Err: errors.New("no mail transport configured")}
	}
	body, err := render(string(kind), data)
	if err != nil {
		return err
	}
	err = s.mailer.Send(ctx, Message{
		From:     s.from,
		FromName: s.fromName,
		To:       []string{order.CustomerEmail},
		Subject:  subject,
		Body:     body,
		Html:     true,
	})
	if err != nil {
		return &types.ExternalError{Service: "mailer", Err: err}
	}
	return nil
}

func (s *Service) link(parts ...string) string {
	out := s.appHost
	for _, p := range parts {
		out += "/" + p
	}
	return out
}

func formatDate(v any) string {
	switch t := v.(type) {
	case time.Time:
		return t.Format("Mon, 02 Jan 2006 15:04 MST")
	case *time.Time:
		if t == nil {
			return ""
		}
		return t.Format("Mon, 02 Jan 2006 15:04 MST")
	default:
		return ""
	}
}
