// Package testdb opens throwaway in-memory databases for package tests.
package testdb

import (
	"fmt"
	"storefront/src/models"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// New returns a migrated sqlite database private to the calling test.
// The pool is pinned to one connection so every statement sees the same
// in-memory database.
func New(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		t.Fatalf("could not open sqlite: %s", err.Error())
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("could not access sqlite pool: %s", err.Error())
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := gdb.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("error migration: %s", err.Error())
	}
	return gdb
}

// Fixture seeds a user, a published event and its categories.
type Fixture struct {
	User       models.User
	Event      models.Event
	Categories []models.TicketCategory
}

// Category describes one category to seed.
type Category struct {
	Name        string
	PriceCents  int64
	Capacity    int
	MaxPerOrder int
}

func Seed(t testing.TB, gdb *gorm.DB, cats ...Category) Fixture {
	t.Helper()
	var f Fixture
	f.User = models.User{Name: "Test User", Email: uuid.NewString() + "@example.com", Role: "customer", UID: uuid.NewString()}
	if err := gdb.Create(&f.User).Error; err != nil {
		t.Fatalf("could not create user: %s", err.Error())
	}
	start := time.Now().UTC().Add(72 * time.Hour).Truncate(time.Second)
	f.Event = models.Event{
		Title:    "Jakarta Jazz Night",
		Venue:    "JIExpo",
		StartsAt: start,
		EndsAt:   start.Add(4 * time.Hour),
		Status:   "published",
	}
	if err := gdb.Create(&f.Event).Error; err != nil {
		t.Fatalf("could not create event: %s", err.Error())
	}
	for _, c := range cats {
		cat := models.TicketCategory{
			EventID:     f.Event.ID,
			Name:        c.Name,
			PriceCents:  c.PriceCents,
			Currency:    "idr",
			Capacity:    c.Capacity,
			MaxPerOrder: c.MaxPerOrder,
			IsAvailable: true,
		}
		if err := gdb.Create(&cat).Error; err != nil {
			t.Fatalf("could not create category: %s", err.Error())
		}
		f.Categories = append(f.Categories, cat)
	}
	return f
}
