package models

import (
	"storefront/src/types"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Notification struct {
	ID             uuid.UUID              `gorm:"primarykey;type:uuid" json:"id"`
	Kind           types.NotificationKind `gorm:"index" json:"kind"`
	ReferenceType  string                 `json:"ref_type"`
	ReferenceValue string                 `gorm:"index" json:"ref_value"`
	Recipient      string                 `json:"recipient"`
	Subject        string                 `json:"subject"`
	Status         string                 `json:"status"`
	Error          *string                `json:"error,omitempty"`

	types.Timestamps
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}
