package payments

import (
	"context"
	"encoding/json"
	"errors"
	"storefront/src/config"
	"storefront/src/db/testdb"
	"storefront/src/models"
	"storefront/src/orders"
	"storefront/src/tickets"
	"storefront/src/types"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/stripe/stripe-go/v82"
	"gorm.io/gorm"
)

type notifierMock struct {
	mock.Mock
}

func (m *notifierMock) SendOrderConfirmation(ctx context.Context, orderID uuid.UUID) error {
	return m.Called(ctx, orderID).Error(0)
}

func (m *notifierMock) SendTicketDelivery(ctx context.Context, orderID uuid.UUID) error {
	return m.Called(ctx, orderID).Error(0)
}

type refunderMock struct {
	mock.Mock
}

func (m *refunderMock) Refund(ctx context.Context, paymentReference string, amountCents int64, reason string) (string, error) {
	args := m.Called(ctx, paymentReference, amountCents, reason)
	return args.String(0), args.Error(1)
}

type publisherMock struct {
	mock.Mock
}

func (m *publisherMock) Publish(ctx context.Context, topic string, payload any) error {
	return m.Called(ctx, topic, payload).Error(0)
}

// blockingRefunder holds its first call until release is closed.
type blockingRefunder struct {
	calls   atomic.Int32
	entered chan struct{}
	release chan struct{}
}

func (r *blockingRefunder) Refund(ctx context.Context, paymentReference string, amountCents int64, reason string) (string, error) {
	if r.calls.Add(1) == 1 {
		close(r.entered)
		<-r.release
	}
	return "re_" + paymentReference, nil
}

// flakyIssuer fails the first issuance and delegates afterwards.
type flakyIssuer struct {
	next   orders.TicketIssuer
	failed atomic.Bool
}

func (f *flakyIssuer) IssueTickets(ctx context.Context, orderID uuid.UUID) ([]models.Ticket, error) {
	if f.failed.CompareAndSwap(false, true) {
		return nil, errors.New("ticket store unavailable")
	}
	return f.next.IssueTickets(ctx, orderID)
}

type BridgeSuite struct {
	suite.Suite
	DB        *gorm.DB
	Fx        testdb.Fixture
	Tickets   *tickets.Service
	Orders    *orders.Service
	Notifier  *notifierMock
	Publisher *publisherMock
	Bridge    *Bridge
	Now       time.Time
}

func (s *BridgeSuite) SetupTest() {
	s.DB = testdb.New(s.T())
	s.Fx = testdb.Seed(s.T(), s.DB, testdb.Category{Name: "Regular", PriceCents: 100_000, Capacity: 10})
	s.Now = time.Now().UTC().Truncate(time.Second)
	clock := func() time.Time { return s.Now }
	s.Tickets = tickets.NewService(s.DB, []byte("0123456789abcdef0123456789abcdef"), 24*time.Hour).WithClock(clock)
	s.Orders = orders.NewService(s.DB, config.Defaults(), nil, s.Tickets).WithClock(clock)
	s.Notifier = new(notifierMock)
	s.Publisher = new(publisherMock)
	s.Publisher.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	s.Bridge = NewBridge(s.DB, s.Orders, s.Tickets).
		WithNotifier(s.Notifier).
		WithPublisher(s.Publisher).
		WithClock(clock)
}

func (s *BridgeSuite) seedOrder(status types.OrderStatus, intentID string, qty int) models.Order {
	expires := s.Now.Add(time.Hour)
	o := models.Order{
		Reference:     "ORD-" + uuid.NewString()[:8],
		UserID:        s.Fx.User.ID,
		EventID:       s.Fx.Event.ID,
		Status:        status,
		SubtotalCents: int64(qty) * 100_000,
		FeesCents:     int64(qty) * 10_000,
		TotalCents:    int64(qty) * 110_000,
		Currency:      "idr",
		ExpiresAt:     &expires,
		Items:         []models.OrderItem{{CategoryID: s.Fx.Categories[0].ID, Quantity: qty, UnitPriceCents: 100_000}},
	}
	if intentID != "" {
		o.PaymentReference = &intentID
	}
	require.NoError(s.T(), s.DB.Create(&o).Error)
	return o
}

func (s *BridgeSuite) event(kind types.PaymentEventType, intentID string, amount int64) types.PaymentEvent {
	return types.PaymentEvent{
		ID:     "evt_" + uuid.NewString()[:8],
		Type:   kind,
		Object: types.PaymentObject{ID: intentID, Status: string(kind), Amount: amount, Currency: "idr"},
	}
}

func (s *BridgeSuite) reload(id uuid.UUID) models.Order {
	var o models.Order
	require.NoError(s.T(), s.DB.Where("id = ?", id).First(&o).Error)
	return o
}

func (s *BridgeSuite) count(model any, query string, args ...any) int64 {
	var n int64
	require.NoError(s.T(), s.DB.Model(model).Where(query, args...).Count(&n).Error)
	return n
}

func (s *BridgeSuite) TestSucceededPaysAndIssuesOnce() {
	ctx := context.Background()
	o := s.seedOrder(types.ORDER_PENDING_PAYMENT, "pi_1", 2)
	// the redelivery asks again; the notifier skips kinds it already sent
	s.Notifier.On("SendOrderConfirmation", mock.Anything, o.ID).Return(nil).Twice()
	s.Notifier.On("SendTicketDelivery", mock.Anything, o.ID).Return(nil).Twice()

	err := s.Bridge.Handle(ctx, s.event(types.PAYMENT_SUCCEEDED, "pi_1", 220_000))
	require.NoError(s.T(), err)

	paid := s.reload(o.ID)
	assert.Equal(s.T(), types.ORDER_PAID, paid.Status)
	require.NotNil(s.T(), paid.PaidAt)
	assert.Equal(s.T(), "stripe", paid.PaymentMethod)
	assert.Equal(s.T(), int64(2), s.count(&models.Ticket{}, "order_id = ?", o.ID))
	assert.Equal(s.T(), int64(1), s.count(&models.Transaction{}, "order_id = ? AND kind = ?", o.ID, types.TRANSACTION_PAYMENT))

	err = s.Bridge.Handle(ctx, s.event(types.PAYMENT_SUCCEEDED, "pi_1", 220_000))
	assert.ErrorIs(s.T(), err, types.ErrAlreadyProcessed)
	assert.Equal(s.T(), int64(2), s.count(&models.Ticket{}, "order_id = ?", o.ID))
	assert.Equal(s.T(), int64(1), s.count(&models.Transaction{}, "order_id = ?", o.ID))
	assert.Equal(s.T(), types.ORDER_PAID, s.reload(o.ID).Status)

	s.Notifier.AssertExpectations(s.T())
	s.Publisher.AssertCalled(s.T(), "Publish", mock.Anything, "order.paid", mock.Anything)
}

func (s *BridgeSuite) TestNotificationFailureDoesNotRollBack() {
	o := s.seedOrder(types.ORDER_PENDING_PAYMENT, "pi_2", 1)
	s.Notifier.On("SendOrderConfirmation", mock.Anything, o.ID).Return(errors.New("smtp down"))
	s.Notifier.On("SendTicketDelivery", mock.Anything, o.ID).Return(errors.New("smtp down"))

	err := s.Bridge.Handle(context.Background(), s.event(types.PAYMENT_SUCCEEDED, "pi_2", 0))
	require.NoError(s.T(), err)
	assert.Equal(s.T(), types.ORDER_PAID, s.reload(o.ID).Status)
	assert.Equal(s.T(), int64(1), s.count(&models.Ticket{}, "order_id = ?", o.ID))
}

func (s *BridgeSuite) TestSucceededUnknownOrder() {
	err := s.Bridge.Handle(context.Background(), s.event(types.PAYMENT_SUCCEEDED, "pi_missing", 100))
	assert.ErrorIs(s.T(), err, types.ErrOrderNotFound)
}

func (s *BridgeSuite) TestSucceededFallsBackToMetadata() {
	o := s.seedOrder(types.ORDER_PENDING_PAYMENT, "", 1)
	s.Notifier.On("SendOrderConfirmation", mock.Anything, o.ID).Return(nil)
	s.Notifier.On("SendTicketDelivery", mock.Anything, o.ID).Return(nil)

	ev := s.event(types.PAYMENT_SUCCEEDED, "pi_3", 110_000)
	ev.Object.Metadata = map[string]string{"order_id": o.ID.String()}
	require.NoError(s.T(), s.Bridge.Handle(context.Background(), ev))
	assert.Equal(s.T(), types.ORDER_PAID, s.reload(o.ID).Status)
}

func (s *BridgeSuite) TestSucceededOnExpiredOrder() {
	o := s.seedOrder(types.ORDER_EXPIRED, "pi_4", 1)
	err := s.Bridge.Handle(context.Background(), s.event(types.PAYMENT_SUCCEEDED, "pi_4", 110_000))
	assert.ErrorIs(s.T(), err, types.ErrIllegalTransition)
	assert.Equal(s.T(), types.ORDER_EXPIRED, s.reload(o.ID).Status)
	assert.Equal(s.T(), int64(0), s.count(&models.Ticket{}, "order_id = ?", o.ID))
}

func (s *BridgeSuite) TestFailedKeepsOrderHolding() {
	o := s.seedOrder(types.ORDER_PENDING_PAYMENT, "pi_5", 1)
	require.NoError(s.T(), s.Bridge.Handle(context.Background(), s.event(types.PAYMENT_FAILED, "pi_5", 110_000)))
	assert.Equal(s.T(), types.ORDER_PENDING_PAYMENT, s.reload(o.ID).Status)
}

func (s *BridgeSuite) TestCanceled() {
	ctx := context.Background()
	pending := s.seedOrder(types.ORDER_PENDING_PAYMENT, "pi_6", 1)
	paid := s.seedOrder(types.ORDER_PAID, "pi_7", 1)

	require.NoError(s.T(), s.Bridge.Handle(ctx, s.event(types.PAYMENT_CANCELED, "pi_6", 0)))
	assert.Equal(s.T(), types.ORDER_CANCELLED, s.reload(pending.ID).Status)

	err := s.Bridge.Handle(ctx, s.event(types.PAYMENT_CANCELED, "pi_6", 0))
	assert.ErrorIs(s.T(), err, types.ErrAlreadyProcessed)

	err = s.Bridge.Handle(ctx, s.event(types.PAYMENT_CANCELED, "pi_7", 0))
	assert.ErrorIs(s.T(), err, types.ErrIllegalTransition)
	assert.Equal(s.T(), types.ORDER_PAID, s.reload(paid.ID).Status)
}

func (s *BridgeSuite) TestRedisDedup() {
	ctx := context.Background()
	rdb, rmock := redismock.NewClientMock()
	s.Bridge.WithDedup(rdb)
	o := s.seedOrder(types.ORDER_PENDING_PAYMENT, "pi_8", 1)
	s.Notifier.On("SendOrderConfirmation", mock.Anything, o.ID).Return(nil)
	s.Notifier.On("SendTicketDelivery", mock.Anything, o.ID).Return(nil)

	ev := s.event(types.PAYMENT_SUCCEEDED, "pi_8", 110_000)
	stamp := s.Now.Format(time.RFC3339)
	rmock.ExpectSetNX(dedupKey(ev.ID), stamp, DEDUP_TTL).SetVal(true)
	rmock.ExpectSetNX(dedupKey(ev.ID), stamp, DEDUP_TTL).SetVal(false)

	require.NoError(s.T(), s.Bridge.Handle(ctx, ev))
	assert.ErrorIs(s.T(), s.Bridge.Handle(ctx, ev), types.ErrAlreadyProcessed)
	assert.Equal(s.T(), int64(1), s.count(&models.Ticket{}, "order_id = ?", o.ID))
	assert.NoError(s.T(), rmock.ExpectationsWereMet())
}

func (s *BridgeSuite) TestRedisKeyReleasedOnFailure() {
	ctx := context.Background()
	rdb, rmock := redismock.NewClientMock()
	s.Bridge.WithDedup(rdb)
	s.seedOrder(types.ORDER_CREATED, "pi_9", 1)

	ev := s.event(types.PAYMENT_SUCCEEDED, "pi_9", 110_000)
	rmock.ExpectSetNX(dedupKey(ev.ID), s.Now.Format(time.RFC3339), DEDUP_TTL).SetVal(true)
	rmock.ExpectDel(dedupKey(ev.ID)).SetVal(1)

	err := s.Bridge.Handle(ctx, ev)
	assert.Error(s.T(), err)
	assert.NotErrorIs(s.T(), err, types.ErrAlreadyProcessed)
	assert.NoError(s.T(), rmock.ExpectationsWereMet())
}

func (s *BridgeSuite) TestRefundVoidsUnusedTickets() {
	ctx := context.Background()
	o := s.seedOrder(types.ORDER_PAID, "pi_10", 3)
	issued, err := s.Tickets.IssueTickets(ctx, o.ID)
	require.NoError(s.T(), err)
	_, err = s.Tickets.Redeem(ctx, issued[0].Code, nil, 0)
	require.NoError(s.T(), err)

	res, err := s.Bridge.ProcessRefund(ctx, o.ID, nil, "event postponed")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), types.ORDER_REFUNDED, res.Order.Status)
	assert.Equal(s.T(), int64(2), res.VoidedTickets)
	assert.Equal(s.T(), int64(330_000), res.AmountCents)
	assert.Regexp(s.T(), `^REF-`, res.RefundReference)

	assert.Equal(s.T(), int64(1), s.count(&models.Ticket{}, "order_id = ? AND status = ?", o.ID, types.TICKET_USED))
	assert.Equal(s.T(), int64(2), s.count(&models.Ticket{}, "order_id = ? AND status = ?", o.ID, types.TICKET_VOID))
	assert.Equal(s.T(), int64(1), s.count(&models.Transaction{}, "order_id = ? AND kind = ?", o.ID, types.TRANSACTION_REFUND))

	_, err = s.Bridge.ProcessRefund(ctx, o.ID, nil, "")
	assert.ErrorIs(s.T(), err, types.ErrIllegalTransition)
}

func (s *BridgeSuite) TestRefundThroughProvider() {
	ctx := context.Background()
	refunder := new(refunderMock)
	s.Bridge.WithRefunder(refunder)
	o := s.seedOrder(types.ORDER_PAID, "pi_11", 1)
	partial := int64(50_000)

	refunder.On("Refund", mock.Anything, "pi_11", partial, "").Return("re_123", nil).Once()
	res, err := s.Bridge.ProcessRefund(ctx, o.ID, &partial, "")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "re_123", res.RefundReference)
	assert.Equal(s.T(), types.ORDER_REFUNDED, res.Order.Status)
	refunder.AssertExpectations(s.T())
}

func (s *BridgeSuite) TestRefundRejections() {
	ctx := context.Background()
	refunder := new(refunderMock)
	s.Bridge.WithRefunder(refunder)
	paid := s.seedOrder(types.ORDER_PAID, "pi_12", 1)
	pending := s.seedOrder(types.ORDER_PENDING_PAYMENT, "pi_13", 1)

	tooMuch := int64(110_001)
	_, err := s.Bridge.ProcessRefund(ctx, paid.ID, &tooMuch, "")
	assert.ErrorIs(s.T(), err, types.ErrInvalidRefund)

	_, err = s.Bridge.ProcessRefund(ctx, pending.ID, nil, "")
	assert.ErrorIs(s.T(), err, types.ErrIllegalTransition)

	_, err = s.Bridge.ProcessRefund(ctx, uuid.New(), nil, "")
	assert.ErrorIs(s.T(), err, types.ErrOrderNotFound)

	refunder.On("Refund", mock.Anything, "pi_12", int64(110_000), "").Return("", errors.New("charge_already_refunded")).Once()
	_, err = s.Bridge.ProcessRefund(ctx, paid.ID, nil, "")
	assert.ErrorIs(s.T(), err, types.ErrExternalDependency)
	assert.Equal(s.T(), types.ORDER_PAID, s.reload(paid.ID).Status)

	refunder.On("Refund", mock.Anything, "pi_12", int64(110_000), "").Return("re_retry", nil).Once()
	res, err := s.Bridge.ProcessRefund(ctx, paid.ID, nil, "")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "re_retry", res.RefundReference)
	refunder.AssertExpectations(s.T())
}

func (s *BridgeSuite) TestConcurrentRefundReachesProviderOnce() {
	ctx := context.Background()
	refunder := &blockingRefunder{entered: make(chan struct{}), release: make(chan struct{})}
	s.Bridge.WithRefunder(refunder)
	o := s.seedOrder(types.ORDER_PAID, "pi_15", 1)

	var (
		wg    sync.WaitGroup
		first *RefundResult
		err   error
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		first, err = s.Bridge.ProcessRefund(ctx, o.ID, nil, "")
	}()
	<-refunder.entered

	_, second := s.Bridge.ProcessRefund(ctx, o.ID, nil, "")
	assert.ErrorIs(s.T(), second, types.ErrIllegalTransition)

	close(refunder.release)
	wg.Wait()
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "re_pi_15", first.RefundReference)
	assert.Equal(s.T(), int32(1), refunder.calls.Load())
	assert.Equal(s.T(), types.ORDER_REFUNDED, s.reload(o.ID).Status)
	assert.Equal(s.T(), int64(1), s.count(&models.Transaction{}, "order_id = ? AND kind = ?", o.ID, types.TRANSACTION_REFUND))
}

func (s *BridgeSuite) TestSucceededRacingStatusChangeIsRetried() {
	ctx := context.Background()
	o := s.seedOrder(types.ORDER_PENDING_PAYMENT, "pi_16", 1)
	s.Notifier.On("SendOrderConfirmation", mock.Anything, o.ID).Return(nil).Once()
	s.Notifier.On("SendTicketDelivery", mock.Anything, o.ID).Return(nil).Once()

	// another writer expires the order between the read and the paid write
	var raced atomic.Bool
	err := s.DB.Callback().Update().Before("gorm:update").Register("test:expire_order", func(tx *gorm.DB) {
		if tx.Statement.Table != "orders" || !raced.CompareAndSwap(false, true) {
			return
		}
		tx.Session(&gorm.Session{NewDB: true}).
			Exec("UPDATE orders SET status = ? WHERE id = ?", types.ORDER_EXPIRED, o.ID)
	})
	require.NoError(s.T(), err)

	err = s.Bridge.Handle(ctx, s.event(types.PAYMENT_SUCCEEDED, "pi_16", 110_000))
	require.Error(s.T(), err)
	assert.NotErrorIs(s.T(), err, types.ErrAlreadyProcessed)
	assert.NotEqual(s.T(), types.ORDER_PAID, s.reload(o.ID).Status)
	assert.Equal(s.T(), int64(0), s.count(&models.Ticket{}, "order_id = ?", o.ID))

	require.NoError(s.T(), s.Bridge.Handle(ctx, s.event(types.PAYMENT_SUCCEEDED, "pi_16", 110_000)))
	assert.Equal(s.T(), types.ORDER_PAID, s.reload(o.ID).Status)
	s.Notifier.AssertExpectations(s.T())
}

func (s *BridgeSuite) TestStaleSucceededReadsCurrentStatus() {
	ctx := context.Background()
	obj := types.PaymentObject{ID: "pi_17"}
	o := s.seedOrder(types.ORDER_EXPIRED, "pi_17", 1)

	err := s.Bridge.staleSucceeded(ctx, &o, obj)
	var te *types.TransitionError
	require.ErrorAs(s.T(), err, &te)
	assert.Equal(s.T(), types.ORDER_EXPIRED, te.From)
	assert.NotErrorIs(s.T(), err, types.ErrAlreadyProcessed)

	require.NoError(s.T(), s.DB.Model(&models.Order{}).Where("id = ?", o.ID).Update("status", types.ORDER_PENDING_PAYMENT).Error)
	err = s.Bridge.staleSucceeded(ctx, &o, obj)
	require.Error(s.T(), err)
	assert.NotErrorIs(s.T(), err, types.ErrAlreadyProcessed)
	assert.NotErrorIs(s.T(), err, types.ErrIllegalTransition)

	require.NoError(s.T(), s.DB.Model(&models.Order{}).Where("id = ?", o.ID).Update("status", types.ORDER_PAID).Error)
	assert.ErrorIs(s.T(), s.Bridge.staleSucceeded(ctx, &o, obj), types.ErrAlreadyProcessed)
}

func (s *BridgeSuite) TestRedeliveryAfterFailedIssuanceNotifies() {
	ctx := context.Background()
	issuer := &flakyIssuer{next: s.Tickets}
	svc := orders.NewService(s.DB, config.Defaults(), nil, issuer).WithClock(func() time.Time { return s.Now })
	bridge := NewBridge(s.DB, svc, issuer).
		WithNotifier(s.Notifier).
		WithPublisher(s.Publisher).
		WithClock(func() time.Time { return s.Now })
	o := s.seedOrder(types.ORDER_PENDING_PAYMENT, "pi_18", 2)

	err := bridge.Handle(ctx, s.event(types.PAYMENT_SUCCEEDED, "pi_18", 220_000))
	require.Error(s.T(), err)
	assert.Equal(s.T(), types.ORDER_PAID, s.reload(o.ID).Status)
	assert.Equal(s.T(), int64(0), s.count(&models.Ticket{}, "order_id = ?", o.ID))
	s.Notifier.AssertNotCalled(s.T(), "SendOrderConfirmation", mock.Anything, o.ID)

	s.Notifier.On("SendOrderConfirmation", mock.Anything, o.ID).Return(nil).Once()
	s.Notifier.On("SendTicketDelivery", mock.Anything, o.ID).Return(nil).Once()
	err = bridge.Handle(ctx, s.event(types.PAYMENT_SUCCEEDED, "pi_18", 220_000))
	assert.ErrorIs(s.T(), err, types.ErrAlreadyProcessed)
	assert.Equal(s.T(), int64(2), s.count(&models.Ticket{}, "order_id = ?", o.ID))
	s.Notifier.AssertExpectations(s.T())
}

func (s *BridgeSuite) TestMissingEventReleasesDedupKey() {
	ctx := context.Background()
	rdb, rmock := redismock.NewClientMock()
	s.Bridge.WithDedup(rdb)
	o := s.seedOrder(types.ORDER_PAID, "pi_19", 1)
	require.NoError(s.T(), s.DB.Model(&models.Order{}).Where("id = ?", o.ID).Update("event_id", 9999).Error)

	ev := s.event(types.PAYMENT_SUCCEEDED, "pi_19", 110_000)
	rmock.ExpectSetNX(dedupKey(ev.ID), s.Now.Format(time.RFC3339), DEDUP_TTL).SetVal(true)
	rmock.ExpectDel(dedupKey(ev.ID)).SetVal(1)

	err := s.Bridge.Handle(ctx, ev)
	assert.ErrorIs(s.T(), err, types.ErrEventNotFound)
	assert.NotErrorIs(s.T(), err, types.ErrOrderNotFound)
	assert.NoError(s.T(), rmock.ExpectationsWereMet())
}

func (s *BridgeSuite) TestPaymentStatus() {
	o := s.seedOrder(types.ORDER_EXPIRED, "pi_14", 1)
	st, err := s.Bridge.PaymentStatus(context.Background(), o.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), PAYMENT_FAILED, st.Status)
	assert.Equal(s.T(), types.ORDER_EXPIRED, st.OrderStatus)
}

func TestBridgeSuite(t *testing.T) {
	suite.Run(t, new(BridgeSuite))
}

func TestStatusOf(t *testing.T) {
	cases := map[types.OrderStatus]PaymentStatus{
		types.ORDER_CREATED:         PAYMENT_PENDING,
		types.ORDER_PENDING_PAYMENT: PAYMENT_PENDING,
		types.ORDER_PAID:            PAYMENT_PAID,
		types.ORDER_EXPIRED:         PAYMENT_FAILED,
		types.ORDER_CANCELLED:       PAYMENT_CANCELLED,
		types.ORDER_REFUNDED:        PAYMENT_CANCELLED,
	}
	for in, want := range cases {
		assert.Equal(t, want, StatusOf(in), in)
	}
}

func TestFromStripe(t *testing.T) {
	raw := json.RawMessage(`{"id":"pi_1","object":"payment_intent","amount":110000,"currency":"idr","status":"succeeded","metadata":{"order_id":"abc"}}`)
	ev, err := FromStripe(stripe.Event{ID: "evt_1", Type: "payment_intent.succeeded", Data: &stripe.EventData{Raw: raw}})
	require.NoError(t, err)
	assert.Equal(t, types.PAYMENT_SUCCEEDED, ev.Type)
	assert.Equal(t, "pi_1", ev.Object.ID)
	assert.Equal(t, int64(110_000), ev.Object.Amount)
	assert.Equal(t, "abc", ev.Object.Metadata["order_id"])

	_, err = FromStripe(stripe.Event{ID: "evt_2", Type: "customer.created", Data: &stripe.EventData{Raw: raw}})
	assert.ErrorIs(t, err, ErrIgnoredEvent)
}

func TestParseEvent(t *testing.T) {
	ev, err := ParseEvent(`{"id":"evt_1","type":"payment_intent.payment_failed","data":{"object":{"id":"pi_1","amount":500,"metadata":{"order_id":"x"}}}}`)
	require.NoError(t, err)
	assert.Equal(t, types.PAYMENT_FAILED, ev.Type)
	assert.Equal(t, "pi_1", ev.Object.ID)
	assert.Equal(t, "x", ev.Object.Metadata["order_id"])

	ev, err = ParseEvent(`{"id":"evt_2","type":"canceled","object":{"id":"pi_2","status":"canceled"}}`)
	require.NoError(t, err)
	assert.Equal(t, types.PAYMENT_CANCELED, ev.Type)

	_, err = ParseEvent(`{"type":"charge.refunded","object":{"id":"ch_1"}}`)
	assert.ErrorIs(t, err, ErrIgnoredEvent)

	_, err = ParseEvent(`not json`)
	assert.Error(t, err)

	_, err = ParseEvent(`{"type":"succeeded","object":{}}`)
	assert.Error(t, err)
}
