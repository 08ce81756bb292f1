package services

import (
	"errors"
	"math"
	"strings"

	"gorm.io/gorm"

	apperrors "billbook/internal/errors"
	"billbook/internal/models"
	"billbook/internal/pagination"
)

// transactionService handles transaction-related business logic.
type transactionService struct {
	db               *gorm.DB
	inventoryService InventoryServicer
}

// NewTransactionService creates a new TransactionServicer.
func NewTransactionService(db *gorm.DB, inventoryService InventoryServicer) TransactionServicer {
	return &transactionService{
		db:               db,
		inventoryService: inventoryService,
	}
}

// Upsert stores a transaction under its caller-chosen id, replacing any
// prior record with the same id. The returned flag reports whether the id
// was newly inserted.
//
// A new id applies the transaction's line items to the inventory snapshot
// incrementally. An existing id replaces the record and rebuilds the
// inventory from the full transaction history, so edits correct the deltas
// the previous version already applied. Record write and inventory
// maintenance commit as one database transaction; a storage failure leaves
// neither visible.
func (s *transactionService) Upsert(txn *models.Transaction) (*models.Transaction, bool, error) {
	if err := validateTransaction(txn); err != nil {
		return nil, false, err
	}

	if txn.Status == "" {
		txn.Status = models.TransactionStatusPending
	}

	ledgerMu.Lock()
	defer ledgerMu.Unlock()

	var isNew bool
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Transaction{}).Where("id = ?", txn.ID).Count(&count).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		isNew = count == 0

		if err := s.writeRecord(tx, txn, isNew); err != nil {
			return err
		}

		if isNew {
			return s.inventoryService.ApplyTransaction(tx, txn)
		}
		_, err := s.inventoryService.RebuildWithin(tx)
		return err
	})
	if err != nil {
		return nil, false, err
	}

	stored, err := s.Find(txn.ID)
	if err != nil {
		return nil, false, err
	}
	return stored, isNew, nil
}

// writeRecord persists the transaction header and replaces its line items.
func (s *transactionService) writeRecord(tx *gorm.DB, txn *models.Transaction, isNew bool) error {
	items := txn.Items
	header := *txn
	header.Items = nil

	if isNew {
		if err := tx.Create(&header).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	} else {
		if err := tx.Where("transaction_id = ?", txn.ID).Delete(&models.LineItem{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		updates := map[string]interface{}{
			"type":           txn.Type,
			"invoice_number": txn.InvoiceNumber,
			"party_name":     txn.PartyName,
			"date":           txn.Date,
			"due_date":       txn.DueDate,
			"status":         txn.Status,
			"total_amount":   txn.TotalAmount,
			"notes":          txn.Notes,
		}
		if err := tx.Model(&models.Transaction{}).Where("id = ?", txn.ID).Updates(updates).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	for i := range items {
		items[i].ID = 0
		items[i].TransactionID = txn.ID
	}
	if err := tx.Create(&items).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	txn.Items = items
	return nil
}

// validateTransaction rejects a submission before any fold or write, so a
// bad transaction is never partially applied.
func validateTransaction(txn *models.Transaction) error {
	if strings.TrimSpace(txn.ID) == "" {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "transaction id is required")
	}
	if txn.Type != models.TransactionTypePurchase && txn.Type != models.TransactionTypeSale {
		return apperrors.ErrInvalidTransactionType
	}
	if txn.Date.IsZero() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "transaction date is required")
	}
	if len(txn.Items) == 0 {
		return apperrors.ErrEmptyLineItems
	}
	for _, item := range txn.Items {
		// NaN fails every comparison, so it is caught here as well.
		if strings.TrimSpace(item.Description) == "" ||
			!(item.Quantity > 0) || !(item.Price >= 0) ||
			math.IsInf(item.Quantity, 0) || math.IsInf(item.Price, 0) {
			return apperrors.ErrMalformedLineItem
		}
	}
	return nil
}

// Delete removes a transaction by id. Deleting an absent id is a no-op.
// Inventory is left untouched: a deletion does not retroactively reverse
// the deltas the transaction applied.
func (s *transactionService) Delete(id string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("transaction_id = ?", id).Delete(&models.LineItem{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Where("id = ?", id).Delete(&models.Transaction{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}

// List retrieves a paginated, filtered list of transactions, newest business
// date first (display order; the ledger folds in ascending order).
func (s *transactionService) List(page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	page.Defaults()

	base := s.db.Model(&models.Transaction{})
	base = applyTransactionFilters(base, filter)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var transactions []models.Transaction
	if err := base.Scopes(pagination.Paginate(page)).
		Preload("Items").
		Order("date DESC").
		Order("created_at DESC").
		Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(transactions, page.Page, page.PageSize, totalItems)
	return &result, nil
}

func applyTransactionFilters(q *gorm.DB, f TransactionFilter) *gorm.DB {
	if f.FromDate != nil {
		q = q.Where("date >= ?", *f.FromDate)
	}
	if f.ToDate != nil {
		q = q.Where("date <= ?", *f.ToDate)
	}
	if f.Type != nil {
		q = q.Where("type = ?", *f.Type)
	}
	if f.Status != nil {
		q = q.Where("status = ?", *f.Status)
	}
	return q
}

// Find retrieves a transaction by id with its line items.
func (s *transactionService) Find(id string) (*models.Transaction, error) {
	var transaction models.Transaction
	if err := s.db.Preload("Items").Where("id = ?", id).First(&transaction).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &transaction, nil
}
