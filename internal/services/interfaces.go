package services

import (
	"sync"
	"time"

	"gorm.io/gorm"

	"billbook/internal/models"
	"billbook/internal/pagination"
)

// ledgerMu serializes every write that can touch inventory rows: transaction
// upserts, admin overrides, and rebuilds. Inventory maintenance is a
// read-modify-write per product key, so concurrent submissions sharing a key
// would otherwise lose updates. One process-wide writer keeps the ledger
// consistent; multi-instance deployments must route submissions to a single
// writer.
var ledgerMu sync.Mutex

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(email, password, firstName, lastName string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	RecordLogin(user *models.User)
}

// TransactionFilter holds optional filter parameters for listing transactions.
type TransactionFilter struct {
	FromDate *time.Time
	ToDate   *time.Time
	Type     *models.TransactionType
	Status   *models.TransactionStatus
}

// TransactionServicer defines the contract for transaction-related business
// logic. Upsert reports whether the id was newly inserted; the ledger is
// applied incrementally for new ids and rebuilt from history for edits.
type TransactionServicer interface {
	Upsert(txn *models.Transaction) (stored *models.Transaction, isNew bool, err error)
	Delete(id string) error
	List(page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	Find(id string) (*models.Transaction, error)
}

// InventoryServicer defines the contract for inventory-related business logic.
// ApplyTransaction and RebuildWithin run inside a caller-owned database
// transaction; the caller must hold the ledger write lock for both.
type InventoryServicer interface {
	Upsert(item *models.InventoryItem) (*models.InventoryItem, error)
	List() ([]models.InventoryItem, error)
	Rebuild() (int, error)
	ApplyTransaction(tx *gorm.DB, txn *models.Transaction) error
	RebuildWithin(tx *gorm.DB) (int, error)
}

// MonthlySummary aggregates one calendar month of transactions.
type MonthlySummary struct {
	Year          int     `json:"year"`
	Month         int     `json:"month"`
	SalesTotal    float64 `json:"sales_total"`
	PurchaseTotal float64 `json:"purchase_total"`
	SalesCount    int64   `json:"sales_count"`
	PurchaseCount int64   `json:"purchase_count"`
	// Outstanding is the value of sales not yet marked Paid.
	Outstanding float64 `json:"outstanding"`
}

// ValuationLine is one product's contribution to the stock valuation.
type ValuationLine struct {
	ProductKey  string  `json:"product_key"`
	Name        string  `json:"name"`
	Quantity    float64 `json:"quantity"`
	AverageCost float64 `json:"average_cost"`
	Value       float64 `json:"value"`
}

// StockValuation is the current inventory valued at weighted average cost.
type StockValuation struct {
	Lines      []ValuationLine `json:"lines"`
	TotalValue float64         `json:"total_value"`
}

// ReportServicer defines the contract for read-only reporting. Report
// consumers never mutate the transaction or inventory stores.
type ReportServicer interface {
	MonthlySummary(year int, month time.Month) (*MonthlySummary, error)
	StockValuation() (*StockValuation, error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]interface{})
}
