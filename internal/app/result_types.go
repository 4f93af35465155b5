package app

import (
	"time"

	"purchase-costing/internal/core"

	"github.com/shopspring/decimal"
)

// DraftResult is returned by every draft mutation: the full editing state
// after the operation, so adapters can re-render without a second call.
type DraftResult struct {
	ID              string
	Order           core.PurchaseOrder
	Staging         []core.VariantRow
	TotalPaidManual bool
}

// PatternResult reports what a quick-selection pattern did.
type PatternResult struct {
	Draft   *DraftResult
	Matched int
	Skipped int // malformed pattern tokens that were ignored
}

// PasteResult reports how many rows a pasted list touched.
type PasteResult struct {
	Draft    *DraftResult
	Assigned int
}

// SubmitResult is returned by SubmitDraft.
type SubmitResult struct {
	PurchaseID int
	Submission core.Submission
}

// PurchaseResult is returned by GetPurchase and UpdatePurchaseStatus.
type PurchaseResult struct {
	Purchase *core.StoredPurchase
}

// PurchaseListResult is returned by ListPurchases.
type PurchaseListResult struct {
	Purchases []core.StoredPurchase
}

// ProductListResult is returned by ListProducts.
type ProductListResult struct {
	Products []core.CatalogProduct
}

// RatesResult is the current exchange rate table state.
type RatesResult struct {
	Rates       map[string]decimal.Decimal
	RefreshedAt time.Time
}

// AddCurrencyResult reports a currency registration. Warning is set when the
// live rate could not be fetched and the currency fell back to rate 1.
type AddCurrencyResult struct {
	Code    string
	Rate    decimal.Decimal
	Warning string
}
