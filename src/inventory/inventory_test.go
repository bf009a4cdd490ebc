package inventory

import (
	"context"
	"errors"
	"storefront/src/db/testdb"
	"storefront/src/models"
	"storefront/src/types"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type InventorySuite struct {
	suite.Suite
	DB  *gorm.DB
	Fx  testdb.Fixture
	Inv *Evaluator
	Now time.Time
}

func (s *InventorySuite) SetupTest() {
	s.DB = testdb.New(s.T())
	s.Fx = testdb.Seed(s.T(), s.DB,
		testdb.Category{Name: "Regular", PriceCents: 100_000, Capacity: 10},
		testdb.Category{Name: "VIP", PriceCents: 250_000, Capacity: 5},
	)
	s.Now = time.Now().UTC()
	s.Inv = NewEvaluator(s.DB).WithClock(func() time.Time { return s.Now })
}

func (s *InventorySuite) order(status types.OrderStatus, expiresIn time.Duration, categoryID uint, qty int) models.Order {
	expires := s.Now.Add(expiresIn)
	o := models.Order{
		Reference: "ORD-" + uuid.NewString()[:8],
		UserID:    s.Fx.User.ID,
		EventID:   s.Fx.Event.ID,
		Status:    status,
		ExpiresAt: &expires,
		Items:     []models.OrderItem{{CategoryID: categoryID, Quantity: qty, UnitPriceCents: 100_000}},
	}
	require.NoError(s.T(), s.DB.Create(&o).Error)
	return o
}

func (s *InventorySuite) TestStatusCountsSoldAndHeld() {
	regular := s.Fx.Categories[0].ID
	s.order(types.ORDER_PAID, -time.Hour, regular, 3)
	s.order(types.ORDER_PENDING_PAYMENT, time.Hour, regular, 2)
	s.order(types.ORDER_CREATED, time.Hour, regular, 1)
	s.order(types.ORDER_CANCELLED, time.Hour, regular, 4)
	s.order(types.ORDER_REFUNDED, time.Hour, regular, 4)

	st, err := s.Inv.Status(context.Background(), regular)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 3, st.Sold)
	assert.Equal(s.T(), 3, st.Held)
	assert.Equal(s.T(), 4, st.Available)
	assert.True(s.T(), st.Purchasable)
}

func (s *InventorySuite) TestExpiredHoldIsNotCounted() {
	regular := s.Fx.Categories[0].ID
	o := s.order(types.ORDER_PENDING_PAYMENT, -time.Minute, regular, 6)

	check, err := s.Inv.CheckAvailability(context.Background(), regular, 10)
	require.NoError(s.T(), err)
	assert.True(s.T(), check.OK())
	assert.Equal(s.T(), 10, check.Remaining)

	var stored models.Order
	require.NoError(s.T(), s.DB.First(&stored, "id = ?", o.ID).Error)
	assert.Equal(s.T(), types.ORDER_PENDING_PAYMENT, stored.Status)
}

func (s *InventorySuite) TestCheckAvailabilityReasons() {
	ctx := context.Background()
	regular, vip := s.Fx.Categories[0].ID, s.Fx.Categories[1].ID

	s.order(types.ORDER_PENDING_PAYMENT, time.Hour, regular, 6)
	check, err := s.Inv.CheckAvailability(ctx, regular, 6)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), types.AVAILABILITY_INSUFFICIENT, check.Reason)
	assert.Equal(s.T(), 4, check.Remaining)

	var inv *types.InventoryError
	require.True(s.T(), errors.As(check.Err(), &inv))
	assert.Equal(s.T(), "Regular", inv.Category)

	s.order(types.ORDER_PAID, 0, vip, 5)
	check, err = s.Inv.CheckAvailability(ctx, vip, 1)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), types.AVAILABILITY_SOLD_OUT, check.Reason)

	_, err = s.Inv.SetAvailability(ctx, regular, false)
	require.NoError(s.T(), err)
	check, err = s.Inv.CheckAvailability(ctx, regular, 1)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), types.AVAILABILITY_DISABLED, check.Reason)

	_, err = s.Inv.CheckAvailability(ctx, 9999, 1)
	assert.ErrorIs(s.T(), err, types.ErrCategoryNotFound)
}

func (s *InventorySuite) TestCheckBatchIsPerItem() {
	checks, err := s.Inv.CheckBatch(context.Background(), []Item{
		{CategoryID: s.Fx.Categories[0].ID, Quantity: 10},
		{CategoryID: s.Fx.Categories[1].ID, Quantity: 6},
	})
	require.NoError(s.T(), err)
	require.Len(s.T(), checks, 2)
	assert.True(s.T(), checks[0].OK())
	assert.Equal(s.T(), types.AVAILABILITY_INSUFFICIENT, checks[1].Reason)
}

func (s *InventorySuite) TestGuardRejectsInsideTransaction() {
	regular := s.Fx.Categories[0].ID
	s.order(types.ORDER_CREATED, time.Hour, regular, 6)

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		return s.Inv.Guard(tx, regular, 6)
	})
	var inv *types.InventoryError
	require.True(s.T(), errors.As(err, &inv))
	assert.Equal(s.T(), 4, inv.Remaining)

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		return s.Inv.Guard(tx, regular, 4)
	})
	assert.NoError(s.T(), err)
}

func (s *InventorySuite) TestEventViews() {
	ctx := context.Background()
	regular, vip := s.Fx.Categories[0].ID, s.Fx.Categories[1].ID
	s.order(types.ORDER_PAID, 0, vip, 5)
	s.order(types.ORDER_PAID, 0, regular, 2)

	all, err := s.Inv.EventStatus(ctx, s.Fx.Event.ID)
	require.NoError(s.T(), err)
	require.Len(s.T(), all, 2)

	low, err := s.Inv.LowStock(ctx, s.Fx.Event.ID, 8)
	require.NoError(s.T(), err)
	require.Len(s.T(), low, 1)
	assert.Equal(s.T(), regular, low[0].CategoryID)

	out, err := s.Inv.SoldOut(ctx, s.Fx.Event.ID)
	require.NoError(s.T(), err)
	require.Len(s.T(), out, 1)
	assert.Equal(s.T(), vip, out[0].CategoryID)
}

func (s *InventorySuite) TestSetCapacity() {
	ctx := context.Background()
	regular := s.Fx.Categories[0].ID
	s.order(types.ORDER_PAID, 0, regular, 4)

	_, err := s.Inv.SetCapacity(ctx, regular, 3)
	assert.ErrorIs(s.T(), err, types.ErrCapacityBelowSold)

	st, err := s.Inv.SetCapacity(ctx, regular, 4)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 4, st.Capacity)
	assert.Equal(s.T(), 0, st.Available)
}

func TestInventorySuite(t *testing.T) {
	suite.Run(t, new(InventorySuite))
}

func TestStatusDatabaseFailure(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: conn}), &gorm.Config{})
	require.NoError(t, err)

	mock.ExpectQuery("SELECT").WillReturnError(errors.New("connection refused"))

	_, err = NewEvaluator(gdb).Status(context.Background(), 1)
	assert.EqualError(t, err, "connection refused")
	assert.NoError(t, mock.ExpectationsWereMet())
}
