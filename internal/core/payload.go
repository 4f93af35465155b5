package core

import "time"

// Submission is the JSON payload handed to the persistence collaborator.
// Key names and shape are a wire contract with the existing backend and must
// not change. Amounts cross this boundary as JSON numbers, matching what the
// original client sent.
type Submission struct {
	Supplier         string  `json:"supplier"`
	TrackingNumber   *string `json:"trackingNumber"`
	EstimatedArrival *string `json:"estimatedArrival"`
	Notes            *string `json:"notes"`

	PurchaseCurrency string  `json:"purchaseCurrency"`
	PaymentCurrency  string  `json:"paymentCurrency"`
	TotalPaid        float64 `json:"totalPaid"`
	PurchaseTotal    float64 `json:"purchaseTotal"`
	ExchangeRate     float64 `json:"exchangeRate"`
	ShippingCost     float64 `json:"shippingCost"`
	ShippingCurrency string  `json:"shippingCurrency"`
	Status           string  `json:"status"`

	Prices        SubmissionPrices `json:"prices"`
	ExchangeRates map[string]any   `json:"exchangeRates"`
	Items         []SubmissionItem `json:"items"`
}

// SubmissionPrices carries the order totals in the original purchase
// currency and the three fixed reporting currencies.
type SubmissionPrices struct {
	Original PriceBlock `json:"original"`
	USD      PriceBlock `json:"usd"`
	EUR      PriceBlock `json:"eur"`
	CZK      PriceBlock `json:"czk"`
}

type PriceBlock struct {
	Currency     string  `json:"currency"`
	Subtotal     float64 `json:"subtotal"`
	ShippingCost float64 `json:"shippingCost"`
	Total        float64 `json:"total"`
}

type SubmissionItem struct {
	Name               string                 `json:"name"`
	SKU                *string                `json:"sku"`
	Quantity           int                    `json:"quantity"`
	UnitPrice          float64                `json:"unitPrice"`
	UnitPriceUSD       float64                `json:"unitPriceUSD"`
	TotalPrice         float64                `json:"totalPrice"`
	CostWithShipping   float64                `json:"costWithShipping"`
	Weight             float64                `json:"weight"`
	Dimensions         *string                `json:"dimensions"`
	Notes              *string                `json:"notes"`
	HasVariants        bool                   `json:"hasVariants"`
	VariantAllocations []SubmissionAllocation `json:"variantAllocations,omitempty"`
}

type SubmissionAllocation struct {
	VariantID         string  `json:"variantId"`
	VariantName       string  `json:"variantName"`
	Quantity          int     `json:"quantity"`
	UnitPrice         float64 `json:"unitPrice"`
	UnitPriceCurrency string  `json:"unitPriceCurrency"`
	SKU               *string `json:"sku"`
	Barcode           *string `json:"barcode"`
}

// BuildSubmission assembles the outbound payload from the current order
// state. The top-level exchangeRate is the single scalar
// rate(paymentCurrency) / rate(purchaseCurrency) — distinct from the full
// table shipped under exchangeRates.
func BuildSubmission(o *PurchaseOrder, t *RateTable) Submission {
	totals := o.Totals

	rates, refreshedAt := t.Snapshot()
	rateMap := make(map[string]any, len(rates)+1)
	for code, r := range rates {
		rateMap[code] = r.InexactFloat64()
	}
	date := refreshedAt
	if date.IsZero() {
		date = time.Now()
	}
	rateMap["date"] = date.UTC().Format(time.RFC3339)

	exchangeRate := t.Rate(o.PaymentCurrency).Div(t.Rate(o.PurchaseCurrency))

	items := make([]SubmissionItem, 0, len(o.Items))
	for _, it := range o.Items {
		si := SubmissionItem{
			Name:             it.Name,
			SKU:              optional(it.SKU),
			Quantity:         it.Quantity,
			UnitPrice:        it.UnitPrice.InexactFloat64(),
			UnitPriceUSD:     ToPivot(it.UnitPrice, o.PurchaseCurrency, t).InexactFloat64(),
			TotalPrice:       it.TotalPrice.InexactFloat64(),
			CostWithShipping: it.CostWithShipping.InexactFloat64(),
			Weight:           it.Weight.InexactFloat64(),
			Dimensions:       optional(it.Dimensions),
			Notes:            optional(it.Notes),
			HasVariants:      it.HasVariants,
		}
		for _, a := range it.VariantAllocations {
			si.VariantAllocations = append(si.VariantAllocations, SubmissionAllocation{
				VariantID:         a.VariantID,
				VariantName:       a.VariantName,
				Quantity:          a.Quantity,
				UnitPrice:         a.UnitPrice.InexactFloat64(),
				UnitPriceCurrency: a.UnitPriceCurrency,
				SKU:               optional(a.SKU),
				Barcode:           optional(a.Barcode),
			})
		}
		items = append(items, si)
	}

	var arrival *string
	if o.EstimatedArrival != nil {
		v := o.EstimatedArrival.UTC().Format(time.RFC3339)
		arrival = &v
	}

	return Submission{
		Supplier:         o.Supplier,
		TrackingNumber:   optional(o.TrackingNumber),
		EstimatedArrival: arrival,
		Notes:            optional(o.Notes),
		PurchaseCurrency: o.PurchaseCurrency,
		PaymentCurrency:  o.PaymentCurrency,
		TotalPaid:        o.TotalPaid.InexactFloat64(),
		PurchaseTotal:    totals.GrandTotal.InexactFloat64(),
		ExchangeRate:     exchangeRate.InexactFloat64(),
		ShippingCost:     o.ShippingCost.InexactFloat64(),
		ShippingCurrency: o.ShippingCurrency,
		Status:           o.Status,
		Prices: SubmissionPrices{
			Original: priceBlock(totals.In(o.PurchaseCurrency, t)),
			USD:      priceBlock(totals.In("USD", t)),
			EUR:      priceBlock(totals.In("EUR", t)),
			CZK:      priceBlock(totals.In("CZK", t)),
		},
		ExchangeRates: rateMap,
		Items:         items,
	}
}

func priceBlock(ct CurrencyTotals) PriceBlock {
	return PriceBlock{
		Currency:     ct.Currency,
		Subtotal:     ct.Subtotal.InexactFloat64(),
		ShippingCost: ct.ShippingCost.InexactFloat64(),
		Total:        ct.Total.InexactFloat64(),
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
