package models

import "time"

// TransactionType distinguishes stock-in from stock-out events.
type TransactionType string

const (
	TransactionTypePurchase TransactionType = "PURCHASE" // vendor invoice, increases stock
	TransactionTypeSale     TransactionType = "SALE"     // customer bill, decreases stock
)

// TransactionStatus represents the payment lifecycle of a transaction.
type TransactionStatus string

const (
	TransactionStatusDraft   TransactionStatus = "Draft"
	TransactionStatusPending TransactionStatus = "Pending"
	TransactionStatusPaid    TransactionStatus = "Paid"
	TransactionStatusOverdue TransactionStatus = "Overdue"
)

// Transaction is a finalized business event: a customer bill (SALE) or a
// vendor invoice (PURCHASE). The ID is chosen by the caller and acts as the
// idempotency key for upserts; submitting the same ID again replaces the
// record in place. Transactions are hard-deleted, never soft-deleted.
type Transaction struct {
	ID            string            `gorm:"primaryKey;size:64" json:"id"`
	Type          TransactionType   `gorm:"not null;index" json:"type"`
	InvoiceNumber string            `gorm:"size:64" json:"invoice_number"`
	PartyName     string            `gorm:"size:255" json:"party_name"`
	Date          time.Time         `gorm:"not null;index" json:"date"`
	DueDate       *time.Time        `json:"due_date,omitempty"`
	Status        TransactionStatus `gorm:"not null;default:'Pending'" json:"status"`
	TotalAmount   float64           `gorm:"not null" json:"total_amount"`
	Notes         string            `json:"notes,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`

	// Line items are owned by the transaction and replaced wholesale on upsert.
	Items []LineItem `gorm:"foreignKey:TransactionID;constraint:OnDelete:CASCADE" json:"items"`
}

// LineItem is one product line within a transaction. It has no identity
// beyond its parent; the surrogate ID exists only for the database.
type LineItem struct {
	ID            uint    `gorm:"primaryKey" json:"-"`
	TransactionID string  `gorm:"size:64;not null;index" json:"-"`
	Description   string  `gorm:"size:255;not null" json:"description"`
	Quantity      float64 `gorm:"not null" json:"quantity"`
	Price         float64 `gorm:"not null" json:"price"`
}
