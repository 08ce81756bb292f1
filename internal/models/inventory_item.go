package models

import "time"

// InventoryItem is derived stock state for one product key. It is never
// authored directly (except through the admin override endpoint): the ledger
// fold creates it the first time a product key appears in a transaction and
// mutates it on every later transaction touching the same key. Items are
// never deleted, even at zero or negative quantity.
type InventoryItem struct {
	// ID is the normalized product key: the line item description trimmed
	// and lower-cased.
	ID string `gorm:"primaryKey;size:255" json:"id"`

	// Name keeps the display casing of the first-seen description and is
	// not updated by later spelling variants of the same key.
	Name string `gorm:"size:255;not null" json:"name"`

	// Quantity is a running signed total. Sales beyond recorded purchases
	// drive it negative; that is recorded, not blocked.
	Quantity float64 `gorm:"not null" json:"quantity"`

	// AverageCost is the weighted average purchase cost, recomputed on
	// every purchase that leaves quantity positive.
	AverageCost float64 `gorm:"not null" json:"average_cost"`

	// SellingPrice is the most recent sale unit price, overwritten (not
	// averaged) on every sale.
	SellingPrice float64 `gorm:"not null" json:"selling_price"`

	// LastUpdated is the business date of the latest transaction that
	// touched this key, not wall-clock time.
	LastUpdated time.Time `gorm:"not null" json:"last_updated"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
