package services

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "billbook/internal/errors"
	"billbook/internal/models"
)

// reportService produces read-only aggregates over the two stores. Money
// sums run through decimal arithmetic so report totals do not accumulate
// float drift across many rows.
type reportService struct {
	db *gorm.DB
}

// NewReportService creates a new ReportServicer.
func NewReportService(db *gorm.DB) ReportServicer {
	return &reportService{db: db}
}

// MonthlySummary aggregates the given calendar month by business date.
func (s *reportService) MonthlySummary(year int, month time.Month) (*MonthlySummary, error) {
	if year < 1 || month < time.January || month > time.December {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid year or month")
	}

	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	var transactions []models.Transaction
	if err := s.db.Where("date >= ? AND date < ?", start, end).Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	summary := &MonthlySummary{Year: year, Month: int(month)}
	sales := decimal.Zero
	purchases := decimal.Zero
	outstanding := decimal.Zero

	for _, txn := range transactions {
		amount := decimal.NewFromFloat(txn.TotalAmount)
		switch txn.Type {
		case models.TransactionTypeSale:
			sales = sales.Add(amount)
			summary.SalesCount++
			if txn.Status != models.TransactionStatusPaid {
				outstanding = outstanding.Add(amount)
			}
		case models.TransactionTypePurchase:
			purchases = purchases.Add(amount)
			summary.PurchaseCount++
		}
	}

	summary.SalesTotal = sales.InexactFloat64()
	summary.PurchaseTotal = purchases.InexactFloat64()
	summary.Outstanding = outstanding.InexactFloat64()
	return summary, nil
}

// StockValuation values the current inventory at weighted average cost.
// Negative quantities contribute negatively, which surfaces oversold stock
// in the total instead of hiding it.
func (s *reportService) StockValuation() (*StockValuation, error) {
	var items []models.InventoryItem
	if err := s.db.Order("name ASC").Find(&items).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	report := &StockValuation{Lines: make([]ValuationLine, 0, len(items))}
	total := decimal.Zero

	for _, item := range items {
		value := decimal.NewFromFloat(item.Quantity).Mul(decimal.NewFromFloat(item.AverageCost))
		total = total.Add(value)
		report.Lines = append(report.Lines, ValuationLine{
			ProductKey:  item.ID,
			Name:        item.Name,
			Quantity:    item.Quantity,
			AverageCost: item.AverageCost,
			Value:       value.InexactFloat64(),
		})
	}

	report.TotalValue = total.InexactFloat64()
	return report, nil
}
