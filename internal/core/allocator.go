package core

import "github.com/shopspring/decimal"

// Totals are the derived order aggregates in the purchase currency.
// GrandTotal = Subtotal + ShippingInPurchase holds by construction.
type Totals struct {
	Currency           string
	Subtotal           decimal.Decimal
	ShippingInPurchase decimal.Decimal
	PerUnitShipping    decimal.Decimal
	GrandTotal         decimal.Decimal
	TotalQuantity      int
	TotalWeight        decimal.Decimal
}

// CurrencyTotals is a Totals snapshot expressed in one display currency.
type CurrencyTotals struct {
	Currency     string
	Subtotal     decimal.Decimal
	ShippingCost decimal.Decimal
	Total        decimal.Decimal
}

// Allocate distributes the shipping cost across line items and recomputes
// every derived figure. It is a pure function of its inputs: callers invoke
// it as the last step of any mutation touching items, shipping, currencies,
// or rates, which makes re-entrancy guards unnecessary.
//
// Shipping is converted into the purchase currency, divided by the total
// quantity across all items, and added to each item's unit price to give the
// per-unit landed cost. An empty order or zero total quantity yields zero
// per-unit shipping, never a division by zero.
func Allocate(items []LineItem, shippingCost decimal.Decimal, shippingCurrency, purchaseCurrency string, t *RateTable) ([]LineItem, Totals) {
	shippingInPurchase := Convert(shippingCost, shippingCurrency, purchaseCurrency, t)

	totalQty := 0
	for _, it := range items {
		totalQty += it.Quantity
	}

	perUnit := decimal.Zero
	if totalQty > 0 {
		perUnit = shippingInPurchase.Div(decimal.NewFromInt(int64(totalQty)))
	}

	out := make([]LineItem, len(items))
	copy(out, items)

	subtotal := decimal.Zero
	totalWeight := decimal.Zero
	for i := range out {
		qty := decimal.NewFromInt(int64(out[i].Quantity))
		out[i].TotalPrice = qty.Mul(out[i].UnitPrice)
		out[i].CostWithShipping = out[i].UnitPrice.Add(perUnit)
		subtotal = subtotal.Add(out[i].TotalPrice)
		totalWeight = totalWeight.Add(out[i].Weight.Mul(qty))
	}

	return out, Totals{
		Currency:           purchaseCurrency,
		Subtotal:           subtotal,
		ShippingInPurchase: shippingInPurchase,
		PerUnitShipping:    perUnit,
		GrandTotal:         subtotal.Add(shippingInPurchase),
		TotalQuantity:      totalQty,
		TotalWeight:        totalWeight,
	}
}

// In converts the totals into a display currency via the pivot.
func (t Totals) In(currency string, table *RateTable) CurrencyTotals {
	return CurrencyTotals{
		Currency:     currency,
		Subtotal:     Convert(t.Subtotal, t.Currency, currency, table),
		ShippingCost: Convert(t.ShippingInPurchase, t.Currency, currency, table),
		Total:        Convert(t.GrandTotal, t.Currency, currency, table),
	}
}
