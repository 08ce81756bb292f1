package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "billbook/internal/errors"
	"billbook/internal/models"
	"billbook/internal/pagination"
	"billbook/internal/services"
)

// TransactionHandler handles transaction-related requests.
type TransactionHandler struct {
	transactionService services.TransactionServicer
	auditService       services.AuditServicer
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(transactionService services.TransactionServicer, auditService services.AuditServicer) *TransactionHandler {
	return &TransactionHandler{transactionService: transactionService, auditService: auditService}
}

// LineItemRequest represents one product line in a submission
type LineItemRequest struct {
	Description string  `json:"description" binding:"required,max=255"`
	Quantity    float64 `json:"quantity" binding:"required,gt=0"`
	Price       float64 `json:"price" binding:"gte=0"`
}

// UpsertTransactionRequest represents the request payload for submitting a
// transaction. The idempotency key is the id in the URL path.
type UpsertTransactionRequest struct {
	Type          models.TransactionType   `json:"type" binding:"required,transaction_type"`
	InvoiceNumber string                   `json:"invoice_number" binding:"max=64"`
	PartyName     string                   `json:"party_name" binding:"required,max=255"`
	Date          string                   `json:"date" binding:"required"`
	DueDate       *string                  `json:"due_date"`
	Status        models.TransactionStatus `json:"status" binding:"omitempty,transaction_status"`
	Items         []LineItemRequest        `json:"items" binding:"required,min=1,dive"`
	TotalAmount   *float64                 `json:"total_amount"`
	Notes         string                   `json:"notes" binding:"max=1000"`
}

// UpsertTransactionResponse represents the stored transaction plus whether
// ledger adjustment occurred
type UpsertTransactionResponse struct {
	Transaction   models.Transaction `json:"transaction"`
	LedgerApplied bool               `json:"ledger_applied"`
}

// UpsertTransaction handles submission of a bill or invoice
// @Summary     Submit a transaction
// @Description Create or replace a transaction under the caller-chosen id. A new id applies the line items to inventory; resubmitting an existing id replaces the record and rebuilds inventory from history.
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string                   true "Transaction ID (idempotency key)"
// @Param       request body UpsertTransactionRequest true "Transaction details"
// @Success     200 {object} UpsertTransactionResponse "Transaction replaced"
// @Success     201 {object} UpsertTransactionResponse "Transaction created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/{id} [put]
func (h *TransactionHandler) UpsertTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpsertTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	txn, err := buildTransaction(c.Param("id"), req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	stored, isNew, err := h.transactionService.Upsert(txn)
	if err != nil {
		respondWithError(c, err)
		return
	}

	action := "UPDATE_TRANSACTION"
	status := http.StatusOK
	if isNew {
		action = "CREATE_TRANSACTION"
		status = http.StatusCreated
	}
	h.auditService.Log(userID, action, "transaction", stored.ID, c.ClientIP(),
		map[string]interface{}{"type": stored.Type, "total_amount": stored.TotalAmount})

	c.JSON(status, gin.H{"transaction": stored, "ledger_applied": isNew})
}

// buildTransaction converts a validated request into the domain model.
func buildTransaction(id string, req UpsertTransactionRequest) (*models.Transaction, error) {
	date, err := parseFlexibleTime(req.Date)
	if err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
	}

	var dueDate *time.Time
	if req.DueDate != nil && *req.DueDate != "" {
		parsed, parseErr := parseFlexibleTime(*req.DueDate)
		if parseErr != nil {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, parseErr.Error())
		}
		dueDate = &parsed
	}

	items := make([]models.LineItem, 0, len(req.Items))
	var computedTotal float64
	for _, item := range req.Items {
		items = append(items, models.LineItem{
			Description: item.Description,
			Quantity:    item.Quantity,
			Price:       item.Price,
		})
		computedTotal += item.Quantity * item.Price
	}

	total := computedTotal
	if req.TotalAmount != nil {
		total = *req.TotalAmount
	}

	return &models.Transaction{
		ID:            id,
		Type:          req.Type,
		InvoiceNumber: req.InvoiceNumber,
		PartyName:     req.PartyName,
		Date:          date,
		DueDate:       dueDate,
		Status:        req.Status,
		TotalAmount:   total,
		Notes:         req.Notes,
		Items:         items,
	}, nil
}

// GetTransactions handles the retrieval of transactions
// @Summary     List transactions
// @Description Get a paginated list of transactions, newest business date first, with optional filters
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       page      query int    false "Page number (default 1)"
// @Param       page_size query int    false "Items per page (default 20, max 100)"
// @Param       from_date query string false "Filter by start date (RFC3339 or YYYY-MM-DD)"
// @Param       to_date   query string false "Filter by end date (RFC3339 or YYYY-MM-DD)"
// @Param       type      query string false "Filter by type (PURCHASE or SALE)"
// @Param       status    query string false "Filter by status (Draft, Pending, Paid, Overdue)"
// @Success     200 {object} pagination.PageResponse[models.Transaction] "Paginated transactions"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions [get]
func (h *TransactionHandler) GetTransactions(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	filter, err := parseTransactionFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.transactionService.List(page, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func parseTransactionFilter(c *gin.Context) (services.TransactionFilter, error) {
	var filter services.TransactionFilter

	if v := c.Query("from_date"); v != "" {
		t, err := parseFlexibleTime(v)
		if err != nil {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid from_date format, use RFC3339 or YYYY-MM-DD")
		}
		filter.FromDate = &t
	}

	if v := c.Query("to_date"); v != "" {
		t, err := parseFlexibleTime(v)
		if err != nil {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid to_date format, use RFC3339 or YYYY-MM-DD")
		}
		filter.ToDate = &t
	}

	if v := c.Query("type"); v != "" {
		txType := models.TransactionType(v)
		switch txType {
		case models.TransactionTypePurchase, models.TransactionTypeSale:
			filter.Type = &txType
		default:
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid type, must be PURCHASE or SALE")
		}
	}

	if v := c.Query("status"); v != "" {
		status := models.TransactionStatus(v)
		switch status {
		case models.TransactionStatusDraft, models.TransactionStatusPending,
			models.TransactionStatusPaid, models.TransactionStatusOverdue:
			filter.Status = &status
		default:
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid status, must be Draft, Pending, Paid, or Overdue")
		}
	}

	return filter, nil
}

// GetTransactionByID handles the retrieval of a specific transaction
// @Summary     Get transaction by ID
// @Description Get a specific transaction with its line items
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Success     200 {object} models.Transaction "Transaction details"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/{id} [get]
func (h *TransactionHandler) GetTransactionByID(c *gin.Context) {
	transaction, err := h.transactionService.Find(c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transaction": transaction})
}

// DeleteTransaction handles the deletion of a transaction
// @Summary     Delete transaction
// @Description Delete a transaction by ID. Deleting is idempotent and never adjusts inventory.
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Success     200 {object} MessageResponse "Transaction deleted"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/{id} [delete]
func (h *TransactionHandler) DeleteTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	id := c.Param("id")
	if err := h.transactionService.Delete(id); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_TRANSACTION", "transaction", id, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": "Transaction deleted successfully"})
}
