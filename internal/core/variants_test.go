package core_test

import (
	"testing"

	"purchase-costing/internal/core"
)

func TestAggregateRows_WeightedAverage(t *testing.T) {
	rows := []core.VariantRow{
		{Name: "Size 1", Quantity: 1, UnitPrice: d("10")},
		{Name: "Size 2", Quantity: 3, UnitPrice: d("2")},
		{Name: "Size 3", Quantity: 0, UnitPrice: d("999")}, // inactive, excluded
	}

	qty, avg, err := core.AggregateRows(rows)
	if err != nil {
		t.Fatalf("AggregateRows: %v", err)
	}
	if qty != 4 {
		t.Errorf("quantity = %d, want 4", qty)
	}
	// (1×10 + 3×2) / 4 = 4
	if !avg.Equal(d("4")) {
		t.Errorf("weighted average = %s, want 4", avg)
	}
}

func TestAggregateRows_WeightedAverageBounds(t *testing.T) {
	cases := [][]core.VariantRow{
		{{Quantity: 2, UnitPrice: d("1.10")}, {Quantity: 9, UnitPrice: d("8.40")}},
		{{Quantity: 1, UnitPrice: d("5")}, {Quantity: 1, UnitPrice: d("5")}},
		{{Quantity: 50, UnitPrice: d("0.01")}, {Quantity: 1, UnitPrice: d("100")}, {Quantity: 7, UnitPrice: d("3")}},
	}

	for _, rows := range cases {
		_, avg, err := core.AggregateRows(rows)
		if err != nil {
			t.Fatalf("AggregateRows: %v", err)
		}
		lo, hi := rows[0].UnitPrice, rows[0].UnitPrice
		for _, r := range rows {
			if r.UnitPrice.LessThan(lo) {
				lo = r.UnitPrice
			}
			if r.UnitPrice.GreaterThan(hi) {
				hi = r.UnitPrice
			}
		}
		if avg.LessThan(lo) || avg.GreaterThan(hi) {
			t.Errorf("weighted average %s outside [%s, %s]", avg, lo, hi)
		}
	}
}

func TestAggregateRows_EmptyAndNegative(t *testing.T) {
	qty, avg, err := core.AggregateRows(nil)
	if err != nil || qty != 0 || !avg.IsZero() {
		t.Errorf("empty rows: got (%d, %s, %v), want (0, 0, nil)", qty, avg, err)
	}

	_, _, err = core.AggregateRows([]core.VariantRow{{Name: "bad", Quantity: -1}})
	if err == nil {
		t.Error("negative quantity should be rejected")
	}
}

func TestValidateAllocations(t *testing.T) {
	leaf := core.LineItem{Name: "plain", Quantity: 2}
	if err := core.ValidateAllocations(leaf); err != nil {
		t.Errorf("leaf item should pass: %v", err)
	}

	empty := core.LineItem{
		Name:        "bundle",
		HasVariants: true,
		VariantAllocations: []core.VariantAllocation{
			{VariantName: "Size 1", Quantity: 0},
			{VariantName: "Size 2", Quantity: 0},
		},
	}
	err := core.ValidateAllocations(empty)
	if !core.IsValidation(err, core.ValidationNoQuantities) {
		t.Errorf("expected no-quantities validation error, got %v", err)
	}

	ok := empty
	ok.VariantAllocations = append(ok.VariantAllocations, core.VariantAllocation{VariantName: "Size 3", Quantity: 1})
	if err := core.ValidateAllocations(ok); err != nil {
		t.Errorf("one active allocation should pass: %v", err)
	}
}

func TestFoldRows(t *testing.T) {
	rows := []core.VariantRow{
		{ID: "v1", Name: "Size 1", Quantity: 2, UnitPrice: d("3"), SKU: "S1", Barcode: "111"},
		{ID: "v2", Name: "Size 2", Quantity: 0, UnitPrice: d("50")},
		{ID: "v3", Name: "Size 3", Quantity: 4, UnitPrice: d("6")},
	}

	item, err := core.FoldRows(rows, "Gel Polish", "GP-01", "CZK")
	if err != nil {
		t.Fatalf("FoldRows: %v", err)
	}
	if !item.HasVariants {
		t.Error("folded item should be variant-bearing")
	}
	if item.Quantity != 6 {
		t.Errorf("quantity = %d, want 6", item.Quantity)
	}
	// (2×3 + 4×6) / 6 = 5
	if !item.UnitPrice.Equal(d("5")) {
		t.Errorf("unit price = %s, want weighted 5", item.UnitPrice)
	}
	if len(item.VariantAllocations) != 2 {
		t.Fatalf("allocations = %d, want 2 (inactive row dropped)", len(item.VariantAllocations))
	}
	for _, a := range item.VariantAllocations {
		if a.UnitPriceCurrency != "CZK" {
			t.Errorf("allocation %s currency = %s, want payment currency CZK", a.VariantName, a.UnitPriceCurrency)
		}
	}
	if item.VariantAllocations[0].Barcode != "111" {
		t.Errorf("allocation barcode not carried: %q", item.VariantAllocations[0].Barcode)
	}
}

func TestFoldRows_RejectsAllZero(t *testing.T) {
	rows := []core.VariantRow{{Name: "Size 1"}, {Name: "Size 2"}}
	_, err := core.FoldRows(rows, "Bundle", "", "USD")
	if !core.IsValidation(err, core.ValidationNoQuantities) {
		t.Errorf("expected no-quantities validation error, got %v", err)
	}
}

func TestRowsFromCatalog(t *testing.T) {
	usd := d("1.20")
	eur := d("1.10")
	czk := d("28")
	product := core.CatalogProduct{
		ID:         "77",
		Name:       "Gel Polish",
		Price:      d("9.99"),
		Weight:     d("0.05"),
		Dimensions: "3×3×8",
		Variants: []core.CatalogVariant{
			{ID: "a", Name: "Shade 1", ImportCostUSD: &usd, ImportCostEUR: &eur},
			{ID: "b", Name: "Shade 2", ImportCostCZK: &czk},
			{ID: "c", Name: "Shade 3"},
		},
	}

	rows := core.RowsFromCatalog(product, "EUR")
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}
	for _, r := range rows {
		if r.Quantity != 0 {
			t.Errorf("row %s quantity = %d, want 0 (explicit allocation required)", r.Name, r.Quantity)
		}
		if !r.Weight.Equal(product.Weight) || r.Dimensions != product.Dimensions {
			t.Errorf("row %s did not inherit parent weight/dimensions", r.Name)
		}
	}
	// Purchase-currency cost preferred.
	if !rows[0].UnitPrice.Equal(eur) {
		t.Errorf("Shade 1 price = %s, want EUR import cost %s", rows[0].UnitPrice, eur)
	}
	// No EUR cost: first available wins.
	if !rows[1].UnitPrice.Equal(czk) {
		t.Errorf("Shade 2 price = %s, want CZK import cost %s", rows[1].UnitPrice, czk)
	}
	// No import costs at all: parent product price.
	if !rows[2].UnitPrice.Equal(product.Price) {
		t.Errorf("Shade 3 price = %s, want product price %s", rows[2].UnitPrice, product.Price)
	}
}
