package core_test

import (
	"errors"
	"testing"

	"purchase-costing/internal/core"

	"github.com/shopspring/decimal"
)

func newSessionWithRates(t *testing.T, rates map[string]string) *core.Session {
	t.Helper()
	return core.NewSession(testTable(t, rates))
}

func mustAddItem(t *testing.T, s *core.Session, name string, qty int, price string) {
	t.Helper()
	if err := s.AddItem(core.LineItem{Name: name, Quantity: qty, UnitPrice: d(price)}); err != nil {
		t.Fatalf("AddItem(%s): %v", name, err)
	}
}

func checkGrandTotal(t *testing.T, s *core.Session) {
	t.Helper()
	tot := s.Order.Totals
	want := tot.Subtotal.Add(tot.ShippingInPurchase)
	if !tot.GrandTotal.Equal(want) {
		t.Fatalf("grand total %s != subtotal %s + shipping %s",
			tot.GrandTotal, tot.Subtotal, tot.ShippingInPurchase)
	}
}

func TestSession_GrandTotalHoldsAcrossMutations(t *testing.T) {
	s := newSessionWithRates(t, map[string]string{"USD": "1", "EUR": "0.9", "CZK": "23"})
	checkGrandTotal(t, s)

	mustAddItem(t, s, "Gel Base", 5, "2")
	checkGrandTotal(t, s)

	mustAddItem(t, s, "Gel Top", 5, "3")
	checkGrandTotal(t, s)

	if err := s.SetShippingCurrency("EUR"); err != nil {
		t.Fatal(err)
	}
	s.SetShippingCost(d("30"))
	checkGrandTotal(t, s)

	if err := s.SetPurchaseCurrency("CZK"); err != nil {
		t.Fatal(err)
	}
	checkGrandTotal(t, s)

	id := s.Order.Items[0].ID
	if err := s.UpdateItem(id, func(it *core.LineItem) { it.Quantity = 12 }); err != nil {
		t.Fatal(err)
	}
	checkGrandTotal(t, s)

	s.RemoveItems(id)
	checkGrandTotal(t, s)

	s.RemoveItems(s.Order.Items[0].ID)
	checkGrandTotal(t, s)
	if !s.Order.Totals.GrandTotal.Equal(s.Order.Totals.ShippingInPurchase) {
		t.Errorf("with no items the grand total should be shipping alone, got %s", s.Order.Totals.GrandTotal)
	}
}

func TestSession_TotalPaidTracksGrandTotal(t *testing.T) {
	s := newSessionWithRates(t, map[string]string{"USD": "1", "CZK": "23"})
	if err := s.SetPaymentCurrency("CZK"); err != nil {
		t.Fatal(err)
	}

	mustAddItem(t, s, "Brush Set", 2, "10")
	s.SetShippingCost(d("1"))

	// 21 USD grand total expressed in CZK.
	if want := d("483"); !s.Order.TotalPaid.Equal(want) {
		t.Errorf("total paid = %s, want %s", s.Order.TotalPaid, want)
	}
	if s.TotalPaidManual() {
		t.Error("total paid should not be flagged manual")
	}
}

func TestSession_TotalPaidOverrideIsSticky(t *testing.T) {
	s := newSessionWithRates(t, map[string]string{"USD": "1"})
	mustAddItem(t, s, "Polish", 1, "10")

	s.SetTotalPaid(d("999"))
	if !s.TotalPaidManual() {
		t.Fatal("override not recorded")
	}

	mustAddItem(t, s, "Remover", 3, "4")
	s.SetShippingCost(d("5"))
	if !s.Order.TotalPaid.Equal(d("999")) {
		t.Errorf("override must survive recomputes, got %s", s.Order.TotalPaid)
	}

	s.ResetTotalPaid()
	if s.TotalPaidManual() {
		t.Error("reset did not clear the override flag")
	}
	if !s.Order.TotalPaid.Equal(s.Order.Totals.GrandTotal) {
		t.Errorf("after reset total paid = %s, want grand total %s",
			s.Order.TotalPaid, s.Order.Totals.GrandTotal)
	}
}

func TestSession_AddItemValidation(t *testing.T) {
	s := newSessionWithRates(t, map[string]string{"USD": "1"})

	tests := []struct {
		name string
		item core.LineItem
		kind core.ValidationKind
	}{
		{"blank name", core.LineItem{Name: "  ", Quantity: 1}, core.ValidationMissingItemField},
		{"zero quantity", core.LineItem{Name: "A", Quantity: 0}, core.ValidationMissingItemField},
		{"negative price", core.LineItem{Name: "A", Quantity: 1, UnitPrice: d("-1")}, core.ValidationMissingItemField},
		{
			"variants without quantities",
			core.LineItem{
				Name:        "A",
				HasVariants: true,
				VariantAllocations: []core.VariantAllocation{
					{VariantID: "v1", VariantName: "Size 1", Quantity: 0},
				},
			},
			core.ValidationNoQuantities,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := s.AddItem(tt.item); !core.IsValidation(err, tt.kind) {
				t.Errorf("AddItem = %v, want %s validation error", err, tt.kind)
			}
		})
	}
	if len(s.Order.Items) != 0 {
		t.Errorf("rejected items must not be added, have %d", len(s.Order.Items))
	}
}

func TestSession_SetCurrencyRejectsMalformedCodes(t *testing.T) {
	s := newSessionWithRates(t, map[string]string{"USD": "1"})
	for _, code := range []string{"", "EU", "EURO", "12X"} {
		if err := s.SetPurchaseCurrency(code); !core.IsValidation(err, core.ValidationMissingCurrency) {
			t.Errorf("SetPurchaseCurrency(%q) = %v, want validation error", code, err)
		}
	}
	if err := s.SetPaymentCurrency(" czk "); err != nil {
		t.Fatal(err)
	}
	if s.Order.PaymentCurrency != "CZK" {
		t.Errorf("currency not normalized: %q", s.Order.PaymentCurrency)
	}
}

func TestSession_StaleSelectionDiscarded(t *testing.T) {
	s := newSessionWithRates(t, map[string]string{"USD": "1"})
	product := core.CatalogProduct{
		Name: "Gel Polish",
		Variants: []core.CatalogVariant{
			{ID: "v1", Name: "Shade 1"},
			{ID: "v2", Name: "Shade 2"},
		},
	}

	stale := s.BeginProductSelection()
	fresh := s.BeginProductSelection()

	if err := s.ImportCatalogVariants(stale, product); !errors.Is(err, core.ErrStaleSelection) {
		t.Fatalf("stale token accepted: %v", err)
	}
	if len(s.Staging) != 0 {
		t.Fatalf("stale fetch wrote %d staging rows", len(s.Staging))
	}

	if err := s.ImportCatalogVariants(fresh, product); err != nil {
		t.Fatalf("fresh token rejected: %v", err)
	}
	if len(s.Staging) != 2 {
		t.Fatalf("staging rows = %d, want 2", len(s.Staging))
	}
}

func TestSession_ClearStagingInvalidatesToken(t *testing.T) {
	s := newSessionWithRates(t, map[string]string{"USD": "1"})
	token := s.BeginProductSelection()
	s.ClearStaging()
	err := s.ImportCatalogVariants(token, core.CatalogProduct{Name: "P"})
	if !errors.Is(err, core.ErrStaleSelection) {
		t.Errorf("token should be stale after ClearStaging, got %v", err)
	}
}

func TestSession_FoldStaging(t *testing.T) {
	s := newSessionWithRates(t, map[string]string{"USD": "1", "EUR": "0.9"})
	if err := s.SetPaymentCurrency("EUR"); err != nil {
		t.Fatal(err)
	}

	if _, err := s.StageSeries("Shade <1-3>", 2, d("4")); err != nil {
		t.Fatal(err)
	}
	if err := s.FoldStaging("Gel Polish", "GP-001"); err != nil {
		t.Fatalf("FoldStaging: %v", err)
	}

	if len(s.Staging) != 0 {
		t.Errorf("staging not cleared, %d rows left", len(s.Staging))
	}
	if len(s.Order.Items) != 1 {
		t.Fatalf("items = %d, want 1", len(s.Order.Items))
	}
	item := s.Order.Items[0]
	if !item.HasVariants || item.Quantity != 6 || len(item.VariantAllocations) != 3 {
		t.Errorf("folded item = qty %d, %d allocations, hasVariants %v",
			item.Quantity, len(item.VariantAllocations), item.HasVariants)
	}
	if item.VariantAllocations[0].UnitPriceCurrency != "EUR" {
		t.Errorf("allocation currency = %q, want EUR", item.VariantAllocations[0].UnitPriceCurrency)
	}
	checkGrandTotal(t, s)
}

func TestSession_FoldStagingRejectsAllZeroQuantities(t *testing.T) {
	s := newSessionWithRates(t, map[string]string{"USD": "1"})
	s.StageRow(core.VariantRow{Name: "Shade 1", Quantity: 0, UnitPrice: d("4")})

	err := s.FoldStaging("Gel Polish", "")
	if !core.IsValidation(err, core.ValidationNoQuantities) {
		t.Fatalf("FoldStaging = %v, want no-quantities validation error", err)
	}
	if len(s.Staging) != 1 {
		t.Error("staging must be kept when the fold is rejected")
	}
	if len(s.Order.Items) != 0 {
		t.Error("rejected fold must not add an item")
	}
}

func TestSession_UpdateItemKeepsParentAggregated(t *testing.T) {
	s := newSessionWithRates(t, map[string]string{"USD": "1"})
	s.StageRow(core.VariantRow{Name: "Shade 1", Quantity: 2, UnitPrice: d("10")})
	s.StageRow(core.VariantRow{Name: "Shade 2", Quantity: 2, UnitPrice: d("20")})
	if err := s.FoldStaging("Gel Polish", ""); err != nil {
		t.Fatal(err)
	}

	// A direct price edit on the parent must not stick: the parent's
	// figures are aggregates of its allocations.
	id := s.Order.Items[0].ID
	if err := s.UpdateItem(id, func(it *core.LineItem) { it.UnitPrice = d("999") }); err != nil {
		t.Fatal(err)
	}
	item := s.Order.Items[0]
	// (2×10 + 2×20) / 4 = 15
	if !item.UnitPrice.Equal(d("15")) {
		t.Errorf("parent unit price = %s, want weighted average 15", item.UnitPrice)
	}
	if !s.Order.Totals.Subtotal.Equal(d("60")) {
		t.Errorf("subtotal = %s, want 60", s.Order.Totals.Subtotal)
	}

	// Editing the allocations moves the parent with them.
	if err := s.UpdateItem(id, func(it *core.LineItem) {
		it.VariantAllocations[1].Quantity = 6
	}); err != nil {
		t.Fatal(err)
	}
	item = s.Order.Items[0]
	if item.Quantity != 8 {
		t.Errorf("parent quantity = %d, want 8", item.Quantity)
	}
	// (2×10 + 6×20) / 8 = 17.5
	if !item.UnitPrice.Equal(d("17.5")) {
		t.Errorf("parent unit price = %s, want 17.5", item.UnitPrice)
	}
	checkGrandTotal(t, s)
}

func TestSession_ValidateForSubmit(t *testing.T) {
	s := newSessionWithRates(t, map[string]string{"USD": "1"})

	if err := s.ValidateForSubmit(); !core.IsValidation(err, core.ValidationMissingSupplier) {
		t.Errorf("empty order = %v, want missing-supplier", err)
	}

	s.Order.Supplier = "Nail Supply Co"
	if err := s.ValidateForSubmit(); !core.IsValidation(err, core.ValidationNoItems) {
		t.Errorf("no items = %v, want no-items", err)
	}

	mustAddItem(t, s, "Gel Base", 1, "2")
	if err := s.ValidateForSubmit(); err != nil {
		t.Errorf("complete order rejected: %v", err)
	}
}

func TestSession_RatesRefreshedRecomputes(t *testing.T) {
	table := testTable(t, map[string]string{"USD": "1", "EUR": "0.5"})
	s := core.NewSession(table)
	if err := s.SetShippingCurrency("EUR"); err != nil {
		t.Fatal(err)
	}
	mustAddItem(t, s, "Polish", 1, "10")
	s.SetShippingCost(d("5")) // 10 USD at 0.5

	if want := d("10"); !s.Order.Totals.ShippingInPurchase.Equal(want) {
		t.Fatalf("shipping in purchase = %s, want %s", s.Order.Totals.ShippingInPurchase, want)
	}

	table.Set("EUR", decimal.NewFromFloat(1))
	s.RatesRefreshed()
	if want := d("5"); !s.Order.Totals.ShippingInPurchase.Equal(want) {
		t.Errorf("after refresh shipping in purchase = %s, want %s", s.Order.Totals.ShippingInPurchase, want)
	}
	checkGrandTotal(t, s)
}
