package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"
)

// const dsn = "host=localhost user=postgres password=password dbname=storefront port=5432 sslmode=disable TimeZone=Asia/Jakarta"

func GetDSN() string {
	DATABASE_HOST := os.Getenv("DATABASE_HOST")
	DATABASE_PORT := os.Getenv("DATABASE_PORT")
	DATABASE_SSLMODE := os.Getenv("DATABASE_SSLMODE")
	DATABASE_TIMEZONE := os.Getenv("DATABASE_TIMEZONE")
	DATABASE_USER := os.Getenv("DATABASE_USER")
	DATABASE_PASSWORD := os.Getenv("DATABASE_PASSWORD")
	DATABASE_NAME := os.Getenv("DATABASE_NAME")
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s", DATABASE_HOST, DATABASE_USER, DATABASE_PASSWORD, DATABASE_NAME, DATABASE_PORT, DATABASE_SSLMODE, DATABASE_TIMEZONE)
	return dsn
}

const TIME_PARSE_FORMAT = "2006-01-02 15:04:05 -07:00"

const (
	DEFAULT_HOLD_WINDOW             = time.Hour
	DEFAULT_SERVICE_FEE_PERCENT     = 10
	DEFAULT_CURRENCY                = "idr"
	DEFAULT_TICKET_GRACE_PERIOD     = 24 * time.Hour
	DEFAULT_SWEEP_INTERVAL          = time.Minute
	DEFAULT_PAYMENT_REMINDER_WINDOW = 2 * time.Hour
	DEFAULT_LOW_STOCK_THRESHOLD     = 10
)

var API_ENV = os.Getenv("API_ENV")

// Storefront holds the tunables of the order/ticket lifecycle.
type Storefront struct {
	HoldWindow            time.Duration
	ServiceFeePercent     int64
	Currency              string
	TicketGracePeriod     time.Duration
	SweepInterval         time.Duration
	PaymentReminderWindow time.Duration
	LowStockThreshold     int
}

func Defaults() Storefront {
	return Storefront{
		HoldWindow:            DEFAULT_HOLD_WINDOW,
		ServiceFeePercent:     DEFAULT_SERVICE_FEE_PERCENT,
		Currency:              DEFAULT_CURRENCY,
		TicketGracePeriod:     DEFAULT_TICKET_GRACE_PERIOD,
		SweepInterval:         DEFAULT_SWEEP_INTERVAL,
		PaymentReminderWindow: DEFAULT_PAYMENT_REMINDER_WINDOW,
		LowStockThreshold:     DEFAULT_LOW_STOCK_THRESHOLD,
	}
}

// Load reads the storefront tunables from the environment, falling back to
// the defaults for anything missing or malformed.
func Load() Storefront {
	d := Defaults()
	return Storefront{
		HoldWindow:            getEnvDuration("ORDER_HOLD_WINDOW", d.HoldWindow),
		ServiceFeePercent:     int64(getEnvInt("SERVICE_FEE_PERCENT", int(d.ServiceFeePercent))),
		Currency:              getEnv("DEFAULT_CURRENCY", d.Currency),
		TicketGracePeriod:     getEnvDuration("TICKET_GRACE_PERIOD", d.TicketGracePeriod),
		SweepInterval:         getEnvDuration("SWEEP_INTERVAL", d.SweepInterval),
		PaymentReminderWindow: getEnvDuration("PAYMENT_REMINDER_WINDOW", d.PaymentReminderWindow),
		LowStockThreshold:     getEnvInt("LOW_STOCK_THRESHOLD", d.LowStockThreshold),
	}
}

func IsProd() bool {
	return API_ENV == "production"
}

func IsLocal() bool {
	return API_ENV == "local"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("[config] %s is not a number, using %d: %s\n", key, defaultValue, err.Error())
		return defaultValue
	}
	return intValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		log.Printf("[config] %s is not a valid duration, using %s\n", key, defaultValue)
		return defaultValue
	}
	return d
}
