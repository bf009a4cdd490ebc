package inventory

import (
	"context"
	"errors"
	"fmt"
	"storefront/src/models"
	"storefront/src/models/scopes"
	"storefront/src/monitoring"
	"storefront/src/types"
	"strconv"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Status is the live inventory picture of one ticket category.
type Status struct {
	CategoryID  uint   `json:"category_id"`
	EventID     uint   `json:"event_id"`
	Name        string `json:"name"`
	PriceCents  int64  `json:"price"`
	Capacity    int    `json:"capacity"`
	Sold        int    `json:"sold"`
	Held        int    `json:"held"`
	Available   int    `json:"available"`
	IsAvailable bool   `json:"is_available"`
	Purchasable bool   `json:"purchasable"`
}

// Check is the outcome of an availability check for a requested quantity.
type Check struct {
	CategoryID uint                     `json:"category_id"`
	Category   string                   `json:"category"`
	Requested  int                      `json:"requested"`
	Remaining  int                      `json:"remaining"`
	Reason     types.AvailabilityReason `json:"reason"`
}

func (c Check) OK() bool {
	return c.Reason == types.AVAILABILITY_OK
}

// Err converts a failed check into an *types.InventoryError.
func (c Check) Err() error {
	if c.OK() {
		return nil
	}
	return &types.InventoryError{
		CategoryID: c.CategoryID,
		Category:   c.Category,
		Requested:  c.Requested,
		Remaining:  c.Remaining,
		Reason:     c.Reason,
	}
}

type Item struct {
	CategoryID uint
	Quantity   int
}

type Evaluator struct {
	db  *gorm.DB
	now func() time.Time
}

func NewEvaluator(db *gorm.DB) *Evaluator {
	return &Evaluator{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// WithClock replaces the time source used for the hold expiry predicate.
func (e *Evaluator) WithClock(now func() time.Time) *Evaluator {
	e.now = now
	return e
}

func (e *Evaluator) Status(ctx context.Context, categoryID uint) (*Status, error) {
	return e.status(e.db.WithContext(ctx), categoryID, false)
}

func (e *Evaluator) CheckAvailability(ctx context.Context, categoryID uint, qty int) (*Check, error) {
	st, err := e.Status(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	check := evaluate(st, qty)
	return &check, nil
}

// CheckBatch checks every item independently. Each result is a point in
// time read; nothing is reserved.
func (e *Evaluator) CheckBatch(ctx context.Context, items []Item) ([]Check, error) {
	checks := make([]Check, 0, len(items))
	for _, item := range items {
		check, err := e.CheckAvailability(ctx, item.CategoryID, item.Quantity)
		if err != nil {
			return nil, err
		}
		checks = append(checks, *check)
	}
	return checks, nil
}

// Guard locks the category row inside tx and recomputes its availability.
// It must run in the same transaction that inserts the order items.
func (e *Evaluator) Guard(tx *gorm.DB, categoryID uint, qty int) error {
	st, err := e.status(tx, categoryID, true)
	if err != nil {
		return err
	}
	check := evaluate(st, qty)
	if !check.OK() {
		monitoring.TrackInventoryRejection(string(check.Reason))
	}
	return check.Err()
}

// EventStatus lists the on-sale categories of an event.
func (e *Evaluator) EventStatus(ctx context.Context, eventID uint) ([]Status, error) {
	var categories []models.TicketCategory
	err := e.db.WithContext(ctx).
		Model(&models.TicketCategory{}).
		Where("event_id = ?", eventID).
		Where("is_available = ?", true).
		Order("id").
		Find(&categories).
		Error
	if err != nil {
		return nil, err
	}
	if len(categories) == 0 {
		return []Status{}, nil
	}
	ids := make([]uint, 0, len(categories))
	for _, c := range categories {
		ids = append(ids, c.ID)
	}
	sold, held, err := e.tally(e.db.WithContext(ctx), ids...)
	if err != nil {
		return nil, err
	}
	list := make([]Status, 0, len(categories))
	for _, c := range categories {
		list = append(list, build(c, sold[c.ID], held[c.ID]))
	}
	return list, nil
}

// LowStock lists on-sale categories with at most threshold units left.
func (e *Evaluator) LowStock(ctx context.Context, eventID uint, threshold int) ([]Status, error) {
	all, err := e.EventStatus(ctx, eventID)
	if err != nil {
		return nil, err
	}
	low := []Status{}
	for _, st := range all {
		if st.Available > 0 && st.Available <= threshold {
			low = append(low, st)
		}
	}
	return low, nil
}

func (e *Evaluator) SoldOut(ctx context.Context, eventID uint) ([]Status, error) {
	all, err := e.EventStatus(ctx, eventID)
	if err != nil {
		return nil, err
	}
	out := []Status{}
	for _, st := range all {
		if st.Available == 0 {
			out = append(out, st)
		}
	}
	return out, nil
}

func (e *Evaluator) SetAvailability(ctx context.Context, categoryID uint, available bool) (*Status, error) {
	res := e.db.WithContext(ctx).
		Model(&models.TicketCategory{}).
		Scopes(scopes.WithID(categoryID)).
		Update("is_available", available)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, types.ErrCategoryNotFound
	}
	return e.Status(ctx, categoryID)
}

// SetCapacity changes the capacity of a category. The new capacity may
// not be lower than the units already sold.
func (e *Evaluator) SetCapacity(ctx context.Context, categoryID uint, capacity int) (*Status, error) {
	if capacity < 0 {
		return nil, fmt.Errorf("capacity must not be negative: %w", types.ErrCapacityBelowSold)
	}
	var st *Status
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := e.status(tx, categoryID, true)
		if err != nil {
			return err
		}
		if capacity < current.Sold {
			return fmt.Errorf("%d sold for %s: %w", current.Sold, current.Name, types.ErrCapacityBelowSold)
		}
		if err := tx.Model(&models.TicketCategory{}).
			Scopes(scopes.WithID(categoryID)).
			Update("capacity", capacity).
			Error; err != nil {
			return err
		}
		current.Capacity = capacity
		current.Available = available(capacity, current.Sold, current.Held)
		st = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return st, nil
}

func (e *Evaluator) status(tx *gorm.DB, categoryID uint, lock bool) (*Status, error) {
	var category models.TicketCategory
	q := tx.Model(&models.TicketCategory{})
	if lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	if err := q.Scopes(scopes.WithID(categoryID)).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.ErrCategoryNotFound
		}
		return nil, err
	}
	sold, held, err := e.tally(tx, categoryID)
	if err != nil {
		return nil, err
	}
	st := build(category, sold[categoryID], held[categoryID])
	monitoring.TrackAvailability(strconv.FormatUint(uint64(categoryID), 10), st.Available)
	return &st, nil
}

type unitRow struct {
	CategoryID uint
	Units      int
}

// tally sums sold and live held units per category.
func (e *Evaluator) tally(tx *gorm.DB, categoryIDs ...uint) (map[uint]int, map[uint]int, error) {
	base := func() *gorm.DB {
		return tx.Session(&gorm.Session{NewDB: true}).
			Model(&models.OrderItem{}).
			Select("order_items.category_id AS category_id, COALESCE(SUM(order_items.quantity), 0) AS units").
			Joins("JOIN orders ON orders.id = order_items.order_id").
			Where("order_items.category_id IN ?", categoryIDs).
			Group("order_items.category_id")
	}

	var soldRows, heldRows []unitRow
	if err := base().Scopes(scopes.WithPaidStatus).Scan(&soldRows).Error; err != nil {
		return nil, nil, err
	}
	if err := base().Scopes(scopes.WithLiveHold(e.now())).Scan(&heldRows).Error; err != nil {
		return nil, nil, err
	}

	sold := make(map[uint]int, len(soldRows))
	for _, r := range soldRows {
		sold[r.CategoryID] = r.Units
	}
	held := make(map[uint]int, len(heldRows))
	for _, r := range heldRows {
		held[r.CategoryID] = r.Units
	}
	return sold, held, nil
}

func build(c models.TicketCategory, sold, held int) Status {
	st := Status{
		CategoryID:  c.ID,
		EventID:     c.EventID,
		Name:        c.Name,
		PriceCents:  c.PriceCents,
		Capacity:    c.Capacity,
		Sold:        sold,
		Held:        held,
		Available:   available(c.Capacity, sold, held),
		IsAvailable: c.IsAvailable,
	}
	st.Purchasable = st.IsAvailable && st.Available > 0
	return st
}

func available(capacity, sold, held int) int {
	return max(0, capacity-sold-held)
}

func evaluate(st *Status, qty int) Check {
	check := Check{
		CategoryID: st.CategoryID,
		Category:   st.Name,
		Requested:  qty,
		Remaining:  st.Available,
		Reason:     types.AVAILABILITY_OK,
	}
	switch {
	case !st.IsAvailable:
		check.Reason = types.AVAILABILITY_DISABLED
	case st.Available == 0:
		check.Reason = types.AVAILABILITY_SOLD_OUT
	case qty > st.Available:
		check.Reason = types.AVAILABILITY_INSUFFICIENT
	}
	return check
}
