package services

import (
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "billbook/internal/errors"
	"billbook/internal/ledger"
	"billbook/internal/models"
)

// inventoryItemColumns are the columns a ledger write may change. created_at
// is deliberately excluded so the row keeps its original creation time.
var inventoryItemColumns = []string{
	"name", "quantity", "average_cost", "selling_price", "last_updated", "updated_at",
}

// inventoryService maintains the derived inventory snapshot.
type inventoryService struct {
	db *gorm.DB
}

// NewInventoryService creates a new InventoryServicer.
func NewInventoryService(db *gorm.DB) InventoryServicer {
	return &inventoryService{db: db}
}

// Upsert is the admin override: replace-or-insert an inventory item keyed by
// its normalized product key. The next rebuild overwrites overridden values
// with derived ones.
func (s *inventoryService) Upsert(item *models.InventoryItem) (*models.InventoryItem, error) {
	item.ID = ledger.Normalize(item.ID)
	if item.ID == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "inventory item id is required")
	}
	if strings.TrimSpace(item.Name) == "" {
		item.Name = item.ID
	}

	ledgerMu.Lock()
	defer ledgerMu.Unlock()

	if err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns(inventoryItemColumns),
	}).Create(item).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return item, nil
}

// List retrieves every inventory item, sorted by product name.
func (s *inventoryService) List() ([]models.InventoryItem, error) {
	var items []models.InventoryItem
	if err := s.db.Order("name ASC").Find(&items).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return items, nil
}

// Rebuild derives the inventory from the full transaction history and
// persists it, reconciling any drift between incremental maintenance and
// the canonical fold. Returns the number of derived items.
func (s *inventoryService) Rebuild() (int, error) {
	ledgerMu.Lock()
	defer ledgerMu.Unlock()

	var count int
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var txErr error
		count, txErr = s.RebuildWithin(tx)
		return txErr
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// ApplyTransaction folds one newly inserted transaction into the persisted
// snapshot: it loads the inventory rows for the product keys the
// transaction touches, applies the fold step, and writes the touched rows
// back. Runs inside the caller's database transaction; the caller holds the
// ledger write lock.
func (s *inventoryService) ApplyTransaction(tx *gorm.DB, txn *models.Transaction) error {
	keys := make([]string, 0, len(txn.Items))
	seen := make(map[string]struct{}, len(txn.Items))
	for _, item := range txn.Items {
		key := ledger.Normalize(item.Description)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}
	if len(keys) == 0 {
		return nil
	}

	var existing []models.InventoryItem
	if err := tx.Where("id IN ?", keys).Find(&existing).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	state := make(ledger.Snapshot, len(existing))
	for _, item := range existing {
		state[item.ID] = item
	}

	ledger.Apply(state, txn)

	return s.persistSnapshot(tx, state)
}

// RebuildWithin is Rebuild running inside a caller-owned database
// transaction; the caller holds the ledger write lock.
//
// The history is loaded in submission order (created_at, then id) so that
// same-date transactions refold exactly as they were first applied, and line
// items in insertion order so first-seen names and last-written selling
// prices within a transaction are stable across rebuilds.
func (s *inventoryService) RebuildWithin(tx *gorm.DB) (int, error) {
	var transactions []models.Transaction
	if err := tx.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("id ASC")
	}).Order("created_at ASC").Order("id ASC").Find(&transactions).Error; err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	state := ledger.Derive(transactions)
	if err := s.persistSnapshot(tx, state); err != nil {
		return 0, err
	}
	return len(state), nil
}

// persistSnapshot upserts every item in the snapshot. Keys absent from the
// snapshot are left alone: inventory items are never deleted.
func (s *inventoryService) persistSnapshot(tx *gorm.DB, state ledger.Snapshot) error {
	for _, item := range state {
		item := item
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns(inventoryItemColumns),
		}).Create(&item).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	return nil
}
