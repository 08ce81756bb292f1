package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "billbook/internal/errors"
	"billbook/internal/models"
	"billbook/internal/services"
)

// InventoryHandler handles inventory-related requests.
type InventoryHandler struct {
	inventoryService services.InventoryServicer
	auditService     services.AuditServicer
}

// NewInventoryHandler creates a new InventoryHandler.
func NewInventoryHandler(inventoryService services.InventoryServicer, auditService services.AuditServicer) *InventoryHandler {
	return &InventoryHandler{inventoryService: inventoryService, auditService: auditService}
}

// OverrideInventoryRequest represents an admin override of one inventory item.
// The override replaces the derived snapshot for that key until the next
// transaction or rebuild touches it.
type OverrideInventoryRequest struct {
	Name         string  `json:"name" binding:"max=255"`
	Quantity     float64 `json:"quantity"`
	AverageCost  float64 `json:"average_cost" binding:"gte=0"`
	SellingPrice float64 `json:"selling_price" binding:"gte=0"`
	LastUpdated  string  `json:"last_updated" binding:"required"`
}

// RebuildResponse reports how many items a rebuild derived from history
type RebuildResponse struct {
	Message   string `json:"message"`
	ItemCount int    `json:"item_count"`
}

// GetInventory handles the retrieval of the inventory snapshot
// @Summary     List inventory
// @Description Get the current inventory snapshot, sorted by product name
// @Tags        inventory
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array}  models.InventoryItem "Inventory items"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /inventory [get]
func (h *InventoryHandler) GetInventory(c *gin.Context) {
	items, err := h.inventoryService.List()
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}

// OverrideInventoryItem handles an admin correction of one inventory item
// @Summary     Override inventory item
// @Description Replace the stored quantity, costs, and name for a product key. The key in the path is normalized before storage.
// @Tags        inventory
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string                   true "Product key"
// @Param       request body OverrideInventoryRequest true "Replacement values"
// @Success     200 {object} models.InventoryItem "Stored item"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /inventory/{id} [put]
func (h *InventoryHandler) OverrideInventoryItem(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req OverrideInventoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	lastUpdated, err := parseFlexibleTime(req.LastUpdated)
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	stored, err := h.inventoryService.Upsert(&models.InventoryItem{
		ID:           c.Param("id"),
		Name:         req.Name,
		Quantity:     req.Quantity,
		AverageCost:  req.AverageCost,
		SellingPrice: req.SellingPrice,
		LastUpdated:  lastUpdated,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "OVERRIDE_INVENTORY", "inventory_item", stored.ID, c.ClientIP(),
		map[string]interface{}{"quantity": stored.Quantity, "average_cost": stored.AverageCost})

	c.JSON(http.StatusOK, gin.H{"item": stored})
}

// RebuildInventory handles a full rederivation of inventory from history
// @Summary     Rebuild inventory
// @Description Refold the entire transaction history into the inventory snapshot, reconciling any drift from admin overrides
// @Tags        inventory
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} RebuildResponse "Rebuild complete"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /inventory/rebuild [post]
func (h *InventoryHandler) RebuildInventory(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	count, err := h.inventoryService.Rebuild()
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "REBUILD_INVENTORY", "inventory_item", "", c.ClientIP(),
		map[string]interface{}{"item_count": count})

	c.JSON(http.StatusOK, gin.H{
		"message":    "Inventory rebuilt successfully",
		"item_count": count,
	})
}
