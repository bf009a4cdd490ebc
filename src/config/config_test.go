package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ORDER_HOLD_WINDOW", "")
	t.Setenv("SERVICE_FEE_PERCENT", "")
	cfg := Load()
	assert.Equal(t, time.Hour, cfg.HoldWindow)
	assert.Equal(t, int64(10), cfg.ServiceFeePercent)
	assert.Equal(t, "idr", cfg.Currency)
	assert.Equal(t, 24*time.Hour, cfg.TicketGracePeriod)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ORDER_HOLD_WINDOW", "15m")
	t.Setenv("SERVICE_FEE_PERCENT", "5")
	t.Setenv("SWEEP_INTERVAL", "not-a-duration")
	t.Setenv("LOW_STOCK_THRESHOLD", "abc")
	cfg := Load()
	assert.Equal(t, 15*time.Minute, cfg.HoldWindow)
	assert.Equal(t, int64(5), cfg.ServiceFeePercent)
	assert.Equal(t, DEFAULT_SWEEP_INTERVAL, cfg.SweepInterval)
	assert.Equal(t, DEFAULT_LOW_STOCK_THRESHOLD, cfg.LowStockThreshold)
}

func TestGetDSN(t *testing.T) {
	t.Setenv("DATABASE_HOST", "db")
	t.Setenv("DATABASE_NAME", "storefront")
	assert.Contains(t, GetDSN(), "host=db")
	assert.Contains(t, GetDSN(), "dbname=storefront")
}
