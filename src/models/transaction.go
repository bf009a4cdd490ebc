package models

import (
	"storefront/src/types"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Transaction struct {
	ID uuid.UUID `gorm:"primarykey;type:uuid" json:"id"`

	OrderID     uuid.UUID               `gorm:"type:uuid;index" json:"order_id"`
	Kind        types.TransactionKind   `gorm:"uniqueIndex:idx_transaction_kind_ref" json:"kind"`
	Provider    string                  `json:"provider"`
	Reference   string                  `gorm:"uniqueIndex:idx_transaction_kind_ref" json:"reference"`
	AmountCents int64                   `json:"amount"`
	Currency    string                  `json:"currency"`
	Status      types.TransactionStatus `json:"status"`
	Metadata    *types.JSONB            `gorm:"type:jsonb" json:"metadata,omitempty"`

	types.Timestamps

	Order *Order `gorm:"foreignKey:order_id" json:"-"`
}

func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
