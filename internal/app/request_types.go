package app

import (
	"time"

	"purchase-costing/internal/core"

	"github.com/shopspring/decimal"
)

// UpdateDraftRequest carries partial edits to a draft's header fields. Nil
// pointers leave the field untouched.
type UpdateDraftRequest struct {
	Supplier         *string
	TrackingNumber   *string
	Notes            *string
	EstimatedArrival *time.Time
	ClearArrival     bool

	PurchaseCurrency *string
	PaymentCurrency  *string
	ShippingCurrency *string
	ShippingCost     *decimal.Decimal

	TotalPaid      *decimal.Decimal // manual override, sticky until reset
	ResetTotalPaid bool

	Status *string
}

// ItemInput is the input for adding or replacing a plain line item.
type ItemInput struct {
	Name       string
	SKU        string
	Quantity   int
	UnitPrice  decimal.Decimal
	Weight     decimal.Decimal
	Dimensions string
	Notes      string
}

// StageRowInput is a single hand-entered variant row.
type StageRowInput struct {
	Name      string
	SKU       string
	Barcode   string
	Quantity  int
	UnitPrice decimal.Decimal
}

// SeriesRequest expands a numbered variant series into the staging list.
type SeriesRequest struct {
	Template  string // contains a <start-end> placeholder
	Quantity  int
	UnitPrice decimal.Decimal
}

// PatternRequest applies a quick-selection pattern over the staging list.
type PatternRequest struct {
	Pattern   string // "4,5,6" or "20-60"; empty targets all rows
	Quantity  int
	UnitPrice decimal.Decimal
}

// PasteRequest applies a pasted value list to staging rows.
type PasteRequest struct {
	TargetIDs []string // row ids; empty means all rows in order
	Raw       string
	Field     core.RowField
}

// FoldRequest collapses the staging list into one variant-bearing line item.
type FoldRequest struct {
	Name string
	SKU  string
}
