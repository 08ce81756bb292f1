package ledger

import (
	"math"
	"testing"
	"time"

	"billbook/internal/models"
)

func day(n int) time.Time {
	return time.Date(2024, 3, n, 0, 0, 0, 0, time.UTC)
}

func purchase(id string, date time.Time, items ...models.LineItem) models.Transaction {
	return models.Transaction{ID: id, Type: models.TransactionTypePurchase, Date: date, Items: items}
}

func sale(id string, date time.Time, items ...models.LineItem) models.Transaction {
	return models.Transaction{ID: id, Type: models.TransactionTypeSale, Date: date, Items: items}
}

func item(desc string, qty, price float64) models.LineItem {
	return models.LineItem{Description: desc, Quantity: qty, Price: price}
}

func TestNormalize(t *testing.T) {
	t.Run("trims_and_lowercases", func(t *testing.T) {
		if got := Normalize("  Laptop "); got != "laptop" {
			t.Errorf("expected %q, got %q", "laptop", got)
		}
	})

	t.Run("idempotent", func(t *testing.T) {
		for _, s := range []string{"Laptop", " usb CABLE  ", "", "déjà vu"} {
			once := Normalize(s)
			twice := Normalize(once)
			if once != twice {
				t.Errorf("Normalize not idempotent for %q: %q != %q", s, once, twice)
			}
		}
	})

	t.Run("case_and_whitespace_variants_collide", func(t *testing.T) {
		if Normalize("LAPTOP") != Normalize("laptop ") {
			t.Error("expected case/whitespace variants to map to the same key")
		}
	})

	t.Run("empty_string_is_valid_key", func(t *testing.T) {
		if got := Normalize("   "); got != "" {
			t.Errorf("expected empty key, got %q", got)
		}
	})
}

func TestApply(t *testing.T) {
	t.Run("first_purchase_initializes_item", func(t *testing.T) {
		state := make(Snapshot)
		txn := purchase("t1", day(1), item("Laptop", 5, 30000))
		Apply(state, &txn)

		inv, ok := state["laptop"]
		if !ok {
			t.Fatal("expected item under key laptop")
		}
		if inv.Name != "Laptop" {
			t.Errorf("expected display name Laptop, got %q", inv.Name)
		}
		if inv.Quantity != 5 {
			t.Errorf("expected quantity 5, got %v", inv.Quantity)
		}
		if inv.AverageCost != 30000 {
			t.Errorf("expected average cost 30000, got %v", inv.AverageCost)
		}
		if inv.SellingPrice != 0 {
			t.Errorf("expected selling price 0, got %v", inv.SellingPrice)
		}
		if !inv.LastUpdated.Equal(day(1)) {
			t.Errorf("expected last updated %v, got %v", day(1), inv.LastUpdated)
		}
	})

	t.Run("weighted_average_across_purchases", func(t *testing.T) {
		state := make(Snapshot)
		t1 := purchase("t1", day(1), item("Widget", 10, 100))
		t2 := purchase("t2", day(2), item("Widget", 30, 200))
		Apply(state, &t1)
		Apply(state, &t2)

		inv := state["widget"]
		if inv.Quantity != 40 {
			t.Errorf("expected quantity 40, got %v", inv.Quantity)
		}
		// (10*100 + 30*200) / 40 = 175
		if inv.AverageCost != 175 {
			t.Errorf("expected average cost 175, got %v", inv.AverageCost)
		}
	})

	t.Run("sale_leaves_cost_basis_untouched", func(t *testing.T) {
		state := make(Snapshot)
		t1 := purchase("t1", day(1), item("Laptop", 5, 30000))
		t2 := sale("t2", day(2), item("laptop ", 1, 35000))
		Apply(state, &t1)
		Apply(state, &t2)

		inv := state["laptop"]
		if inv.Quantity != 4 {
			t.Errorf("expected quantity 4, got %v", inv.Quantity)
		}
		if inv.AverageCost != 30000 {
			t.Errorf("expected average cost 30000 after sale, got %v", inv.AverageCost)
		}
		if inv.SellingPrice != 35000 {
			t.Errorf("expected selling price 35000, got %v", inv.SellingPrice)
		}
	})

	t.Run("selling_price_overwritten_not_averaged", func(t *testing.T) {
		state := make(Snapshot)
		t1 := purchase("t1", day(1), item("Pen", 100, 5))
		t2 := sale("t2", day(2), item("Pen", 10, 12))
		t3 := sale("t3", day(3), item("Pen", 10, 8))
		Apply(state, &t1)
		Apply(state, &t2)
		Apply(state, &t3)

		if got := state["pen"].SellingPrice; got != 8 {
			t.Errorf("expected last-seen selling price 8, got %v", got)
		}
	})

	t.Run("sale_before_purchase_goes_negative", func(t *testing.T) {
		state := make(Snapshot)
		t1 := sale("t1", day(1), item("Ghost", 3, 50))
		Apply(state, &t1)

		inv := state["ghost"]
		if inv.Quantity != -3 {
			t.Errorf("expected quantity -3, got %v", inv.Quantity)
		}
		if inv.AverageCost != 0 {
			t.Errorf("expected average cost 0, got %v", inv.AverageCost)
		}
	})

	t.Run("purchase_into_negative_keeps_cost_basis", func(t *testing.T) {
		state := make(Snapshot)
		t1 := purchase("t1", day(1), item("Cable", 10, 20))
		t2 := sale("t2", day(2), item("Cable", 25, 30))
		t3 := purchase("t3", day(3), item("Cable", 5, 40))
		Apply(state, &t1)
		Apply(state, &t2)
		Apply(state, &t3)

		inv := state["cable"]
		// 10 - 25 + 5 = -10: still negative, so the average is not recomputed.
		if inv.Quantity != -10 {
			t.Errorf("expected quantity -10, got %v", inv.Quantity)
		}
		if inv.AverageCost != 20 {
			t.Errorf("expected preserved average cost 20, got %v", inv.AverageCost)
		}
	})

	t.Run("multiple_line_items_processed_in_order", func(t *testing.T) {
		state := make(Snapshot)
		t1 := purchase("t1", day(1),
			item("Mouse", 10, 100),
			item("Mouse", 10, 300),
			item("Keyboard", 5, 500),
		)
		Apply(state, &t1)

		if got := state["mouse"].AverageCost; got != 200 {
			t.Errorf("expected mouse average cost 200, got %v", got)
		}
		if got := state["keyboard"].Quantity; got != 5 {
			t.Errorf("expected keyboard quantity 5, got %v", got)
		}
	})

	t.Run("name_fixed_by_first_sighting", func(t *testing.T) {
		state := make(Snapshot)
		t1 := purchase("t1", day(1), item("USB Cable", 1, 10))
		t2 := purchase("t2", day(2), item("usb cable", 1, 10))
		Apply(state, &t1)
		Apply(state, &t2)

		if got := state["usb cable"].Name; got != "USB Cable" {
			t.Errorf("expected first-seen name to stick, got %q", got)
		}
	})

	t.Run("nan_propagates_without_panic", func(t *testing.T) {
		state := make(Snapshot)
		t1 := purchase("t1", day(1), item("Odd", math.NaN(), 10))
		Apply(state, &t1)

		if !math.IsNaN(state["odd"].Quantity) {
			t.Errorf("expected NaN quantity, got %v", state["odd"].Quantity)
		}
	})
}

func TestDerive(t *testing.T) {
	t.Run("orders_by_business_date", func(t *testing.T) {
		// Submitted out of order; the fold must sort by date, so the day-1
		// purchase at cost 100 precedes the day-2 purchase at cost 200.
		txns := []models.Transaction{
			purchase("t2", day(2), item("Widget", 10, 200)),
			purchase("t1", day(1), item("Widget", 10, 100)),
		}
		state := Derive(txns)

		if got := state["widget"].AverageCost; got != 150 {
			t.Errorf("expected average cost 150, got %v", got)
		}
		if !state["widget"].LastUpdated.Equal(day(2)) {
			t.Errorf("expected last updated day 2, got %v", state["widget"].LastUpdated)
		}
	})

	t.Run("same_date_ties_keep_input_order", func(t *testing.T) {
		txns := []models.Transaction{
			sale("s1", day(5), item("Widget", 1, 111)),
			sale("s2", day(5), item("Widget", 1, 222)),
		}
		state := Derive(txns)

		if got := state["widget"].SellingPrice; got != 222 {
			t.Errorf("expected selling price from later-listed sale, got %v", got)
		}
	})

	t.Run("does_not_reorder_input_slice", func(t *testing.T) {
		txns := []models.Transaction{
			purchase("t2", day(2), item("A", 1, 1)),
			purchase("t1", day(1), item("A", 1, 1)),
		}
		Derive(txns)
		if txns[0].ID != "t2" {
			t.Error("Derive must not mutate the caller's slice order")
		}
	})

	t.Run("matches_incremental_application", func(t *testing.T) {
		// Fold determinism: deriving from scratch equals applying each
		// transaction in date order to an empty snapshot.
		txns := []models.Transaction{
			purchase("t1", day(1), item("Laptop", 5, 30000), item("Mouse", 20, 500)),
			sale("t2", day(2), item("laptop ", 1, 35000)),
			purchase("t3", day(3), item("Mouse", 10, 800)),
			sale("t4", day(4), item("MOUSE", 25, 1200), item("Laptop", 2, 34000)),
		}

		derived := Derive(txns)

		incremental := make(Snapshot)
		for i := range txns {
			Apply(incremental, &txns[i])
		}

		if len(derived) != len(incremental) {
			t.Fatalf("snapshot sizes differ: %d vs %d", len(derived), len(incremental))
		}
		for key, want := range incremental {
			got, ok := derived[key]
			if !ok {
				t.Errorf("derived snapshot missing key %q", key)
				continue
			}
			if got != want {
				t.Errorf("key %q: derived %+v != incremental %+v", key, got, want)
			}
		}
	})

	t.Run("example_scenario", func(t *testing.T) {
		txns := []models.Transaction{
			purchase("t1", day(1), item("Laptop", 5, 30000)),
			sale("t2", day(2), item("laptop ", 1, 35000)),
		}
		state := Derive(txns)

		inv, ok := state["laptop"]
		if !ok {
			t.Fatal("expected laptop key")
		}
		if inv.Quantity != 4 || inv.AverageCost != 30000 || inv.SellingPrice != 35000 {
			t.Errorf("unexpected snapshot: %+v", inv)
		}
	})
}
