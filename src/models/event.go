package models

import (
	"storefront/src/types"
	"time"
)

type Event struct {
	ID       uint              `gorm:"primarykey" json:"id"`
	Title    string            `json:"title,omitempty"`
	Venue    string            `json:"venue,omitempty"`
	Address  string            `json:"address,omitempty"`
	StartsAt time.Time         `json:"starts_at"`
	EndsAt   time.Time         `json:"ends_at"`
	Status   types.EventStatus `gorm:"default:'draft'" json:"status,omitempty"`

	Categories []TicketCategory `gorm:"foreignKey:event_id" json:"categories,omitempty"`

	types.Timestamps
}

// EndTime falls back to the start when the event has no explicit end.
func (e *Event) EndTime() time.Time {
	if e.EndsAt.IsZero() || e.EndsAt.Before(e.StartsAt) {
		return e.StartsAt
	}
	return e.EndsAt
}
