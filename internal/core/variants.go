package core

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AggregateRows computes the aggregate quantity and the quantity-weighted
// average unit price over a set of variant rows. Only rows with a positive
// quantity count as active. A weighted mean is required because variants may
// carry materially different prices at different volumes.
//
// A negative quantity is a programmer-error contract violation, not a user
// input problem, and returns an error.
func AggregateRows(rows []VariantRow) (int, decimal.Decimal, error) {
	qty := 0
	weighted := decimal.Zero
	for _, r := range rows {
		if r.Quantity < 0 {
			return 0, decimal.Decimal{}, validationErrorf(ValidationNegativeQuantity,
				"variant %q has negative quantity %d", r.Name, r.Quantity)
		}
		if r.Quantity == 0 {
			continue
		}
		qty += r.Quantity
		weighted = weighted.Add(decimal.NewFromInt(int64(r.Quantity)).Mul(r.UnitPrice))
	}
	if qty == 0 {
		return 0, decimal.Zero, nil
	}
	return qty, weighted.Div(decimal.NewFromInt(int64(qty))), nil
}

// aggregateAllocations is AggregateRows over an item's committed
// allocations.
func aggregateAllocations(allocs []VariantAllocation) (int, decimal.Decimal, error) {
	rows := make([]VariantRow, len(allocs))
	for i, a := range allocs {
		rows[i] = VariantRow{Name: a.VariantName, Quantity: a.Quantity, UnitPrice: a.UnitPrice}
	}
	return AggregateRows(rows)
}

// ValidateAllocations rejects a variant-bearing item that has no allocation
// with positive quantity. Leaf items always pass.
func ValidateAllocations(item LineItem) error {
	if !item.HasVariants {
		return nil
	}
	for _, a := range item.VariantAllocations {
		if a.Active() {
			return nil
		}
	}
	return validationErrorf(ValidationNoQuantities,
		"item %q has variants but no quantities allocated", item.Name)
}

// FoldRows collapses a staging row set into a single variant-bearing line
// item. Inactive rows are dropped; each kept allocation carries its own unit
// price currency, defaulted to the order's payment currency. The parent's
// quantity and unit price are the aggregate of the active rows.
func FoldRows(rows []VariantRow, name, sku, paymentCurrency string) (LineItem, error) {
	qty, avg, err := AggregateRows(rows)
	if err != nil {
		return LineItem{}, err
	}
	if qty == 0 {
		return LineItem{}, validationErrorf(ValidationNoQuantities,
			"no quantities allocated across %d variants", len(rows))
	}

	var allocs []VariantAllocation
	var weight decimal.Decimal
	for _, r := range rows {
		if r.Quantity <= 0 {
			continue
		}
		allocs = append(allocs, VariantAllocation{
			VariantID:         r.ID,
			VariantName:       r.Name,
			Quantity:          r.Quantity,
			UnitPrice:         r.UnitPrice,
			UnitPriceCurrency: paymentCurrency,
			SKU:               r.SKU,
			Barcode:           r.Barcode,
		})
		if weight.IsZero() && !r.Weight.IsZero() {
			weight = r.Weight
		}
	}

	return LineItem{
		ID:                 uuid.NewString(),
		Name:               name,
		SKU:                sku,
		Quantity:           qty,
		UnitPrice:          avg,
		Weight:             weight,
		HasVariants:        true,
		VariantAllocations: allocs,
	}, nil
}

// RowsFromCatalog pre-populates the staging list from a catalog product's
// predefined variants. Quantities start at zero to force explicit user
// allocation. The unit price is the variant's last import cost in the
// purchase currency when recorded, else the first available import cost,
// else the parent product price. Weight and dimensions are inherited from
// the parent when the variant has none.
func RowsFromCatalog(p CatalogProduct, purchaseCurrency string) []VariantRow {
	rows := make([]VariantRow, 0, len(p.Variants))
	for _, v := range p.Variants {
		price := p.Price
		if c := importCost(v, purchaseCurrency); c != nil {
			price = *c
		}
		id := v.ID
		if id == "" {
			id = uuid.NewString()
		}
		rows = append(rows, VariantRow{
			ID:         id,
			Name:       v.Name,
			SKU:        v.SKU,
			Barcode:    v.Barcode,
			Quantity:   0,
			UnitPrice:  price,
			Weight:     p.Weight,
			Dimensions: p.Dimensions,
		})
	}
	return rows
}

// importCost returns the variant's import cost in the requested currency,
// falling back to the first recorded cost in any currency.
func importCost(v CatalogVariant, currency string) *decimal.Decimal {
	byCode := func(code string) *decimal.Decimal {
		switch code {
		case "USD":
			return v.ImportCostUSD
		case "EUR":
			return v.ImportCostEUR
		case "CZK":
			return v.ImportCostCZK
		}
		return nil
	}
	if c := byCode(strings.ToUpper(strings.TrimSpace(currency))); c != nil {
		return c
	}
	for _, code := range []string{"USD", "EUR", "CZK"} {
		if c := byCode(code); c != nil {
			return c
		}
	}
	return nil
}
