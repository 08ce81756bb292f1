// Package ledger implements the weighted-average-cost inventory fold.
//
// Stock state is never authored directly: it is derived by folding the
// transaction history in business-date order. The same single-transaction
// step serves both incremental maintenance (applying a newly submitted
// transaction to the persisted snapshot) and from-scratch derivation, so
// the two can never disagree.
package ledger

import (
	"sort"
	"strings"

	"billbook/internal/models"
)

// Normalize maps a free-text item description to its canonical product key:
// surrounding whitespace trimmed, then lower-cased. Two descriptions refer
// to the same inventory item iff they normalize to the same key. The empty
// string is a valid key.
func Normalize(description string) string {
	return strings.ToLower(strings.TrimSpace(description))
}

// Snapshot is the inventory state keyed by normalized product key.
type Snapshot map[string]models.InventoryItem

// Clone returns a deep copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	out := make(Snapshot, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Apply folds one transaction into the snapshot, mutating it in place.
// Line items are processed in list order.
//
// Purchases add quantity and recompute the weighted average cost as
// (held value + incoming value) / new quantity — but only when the new
// quantity is positive; otherwise the last meaningful cost basis is kept
// and division by zero or a negative total is avoided. Sales subtract
// quantity and overwrite the selling price without touching the cost
// basis. Quantity may go negative; that is recorded, not blocked.
//
// Apply never fails: malformed numeric input is the caller's
// data-integrity problem and NaN simply propagates.
func Apply(state Snapshot, txn *models.Transaction) {
	for _, item := range txn.Items {
		key := Normalize(item.Description)

		inv, ok := state[key]
		if !ok {
			inv = models.InventoryItem{
				ID:          key,
				Name:        item.Description,
				LastUpdated: txn.Date,
			}
		}

		switch txn.Type {
		case models.TransactionTypePurchase:
			currentValue := inv.Quantity * inv.AverageCost
			incomingValue := item.Quantity * item.Price
			inv.Quantity += item.Quantity
			if inv.Quantity > 0 {
				inv.AverageCost = (currentValue + incomingValue) / inv.Quantity
			}
		case models.TransactionTypeSale:
			inv.Quantity -= item.Quantity
			inv.SellingPrice = item.Price
		}

		inv.LastUpdated = txn.Date
		state[key] = inv
	}
}

// Derive folds the full transaction history into a fresh snapshot.
// Transactions are ordered by business date ascending; same-date
// transactions keep their input order, which fixes the outcome when
// several touch one product key on the same day.
func Derive(txns []models.Transaction) Snapshot {
	ordered := make([]models.Transaction, len(txns))
	copy(ordered, txns)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Date.Before(ordered[j].Date)
	})

	state := make(Snapshot)
	for i := range ordered {
		Apply(state, &ordered[i])
	}
	return state
}
