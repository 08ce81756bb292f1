package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"billbook/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:    fmt.Sprintf("user%d@test.com", nextID()),
		Password: string(hash),
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// Date returns a fixed business date n days into March 2024.
func Date(n int) time.Time {
	return time.Date(2024, 3, n, 0, 0, 0, 0, time.UTC)
}

// Item builds a line item.
func Item(description string, quantity, price float64) models.LineItem {
	return models.LineItem{Description: description, Quantity: quantity, Price: price}
}

// Purchase builds an unpersisted PURCHASE transaction with a computed total.
func Purchase(id string, date time.Time, items ...models.LineItem) *models.Transaction {
	return buildTransaction(id, models.TransactionTypePurchase, date, items)
}

// Sale builds an unpersisted SALE transaction with a computed total.
func Sale(id string, date time.Time, items ...models.LineItem) *models.Transaction {
	return buildTransaction(id, models.TransactionTypeSale, date, items)
}

func buildTransaction(id string, txType models.TransactionType, date time.Time, items []models.LineItem) *models.Transaction {
	var total float64
	for _, item := range items {
		total += item.Quantity * item.Price
	}
	n := nextID()
	return &models.Transaction{
		ID:            id,
		Type:          txType,
		InvoiceNumber: fmt.Sprintf("INV-%04d", n),
		PartyName:     fmt.Sprintf("Test Party %d", n),
		Date:          date,
		Status:        models.TransactionStatusPending,
		TotalAmount:   total,
		Items:         items,
	}
}
