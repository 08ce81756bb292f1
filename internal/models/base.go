package models

import (
	"time"

	"billbook/internal/uuid"

	"gorm.io/gorm"
)

// Base contains common columns for internally-keyed tables (users, audit
// logs). Transactions and inventory items do not embed it: their primary
// keys are supplied by the caller and the ledger respectively.
type Base struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate hook generates a UUIDv7 for new records
func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.New()
	}
	return nil
}
