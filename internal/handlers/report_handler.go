package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "billbook/internal/errors"
	"billbook/internal/services"
)

// ReportHandler handles reporting requests.
type ReportHandler struct {
	reportService services.ReportServicer
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(reportService services.ReportServicer) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// GetMonthlySummary handles the monthly trading summary
// @Summary     Monthly summary
// @Description Get sales, purchase, and outstanding totals for one calendar month
// @Tags        reports
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       year  query int true "Calendar year"
// @Param       month query int true "Month (1-12)"
// @Success     200 {object} services.MonthlySummary "Monthly summary"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /reports/monthly [get]
func (h *ReportHandler) GetMonthlySummary(c *gin.Context) {
	year, err := strconv.Atoi(c.Query("year"))
	if err != nil || year < 1 {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "year must be a positive integer"))
		return
	}

	month, err := strconv.Atoi(c.Query("month"))
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "month must be an integer between 1 and 12"))
		return
	}

	summary, err := h.reportService.MonthlySummary(year, time.Month(month))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"summary": summary})
}

// GetStockValuation handles the stock valuation report
// @Summary     Stock valuation
// @Description Get the current inventory valued at weighted average cost, one line per product
// @Tags        reports
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} services.StockValuation "Stock valuation"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /reports/valuation [get]
func (h *ReportHandler) GetStockValuation(c *gin.Context) {
	report, err := h.reportService.StockValuation()
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"valuation": report})
}
