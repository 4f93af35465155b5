package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// PurchaseStatus values mirror the lifecycle used by the fulfilment side.
const (
	PurchaseStatusPending  = "pending"
	PurchaseStatusOrdered  = "ordered"
	PurchaseStatusReceived = "received"
)

// LineItem is one product line on a purchase order. Monetary fields are in
// the order's purchase currency. TotalPrice and CostWithShipping are derived;
// the allocator recomputes them after every mutation.
type LineItem struct {
	ID                 string
	Name               string
	SKU                string
	Quantity           int
	UnitPrice          decimal.Decimal
	Weight             decimal.Decimal // kg per unit
	Dimensions         string
	Notes              string
	TotalPrice         decimal.Decimal
	CostWithShipping   decimal.Decimal
	HasVariants        bool
	VariantAllocations []VariantAllocation
}

// VariantAllocation records how much of a variant-bearing line belongs to one
// variant. UnitPriceCurrency defaults to the order's payment currency so
// downstream receiving logic can convert correctly.
type VariantAllocation struct {
	VariantID         string
	VariantName       string
	Quantity          int
	UnitPrice         decimal.Decimal
	UnitPriceCurrency string
	SKU               string
	Barcode           string
}

// Active reports whether the allocation carries stock.
func (a VariantAllocation) Active() bool { return a.Quantity > 0 }

// VariantRow is one entry in the mutable staging list used while a
// variant-bearing line item is being built. Rows are ephemeral: they are
// folded into a LineItem's allocations or discarded on cancel.
type VariantRow struct {
	ID         string
	Name       string
	SKU        string
	Barcode    string
	Quantity   int
	UnitPrice  decimal.Decimal
	Weight     decimal.Decimal
	Dimensions string
	Selected   bool
}

// PurchaseOrder is the aggregate being edited. Totals and TotalPaid are
// derived state; the session recomputes them as the last step of every
// mutation so the grand-total invariant holds at every observable point.
type PurchaseOrder struct {
	Supplier         string
	TrackingNumber   string
	EstimatedArrival *time.Time
	Notes            string

	PurchaseCurrency string
	PaymentCurrency  string
	ShippingCurrency string
	ShippingCost     decimal.Decimal

	Items  []LineItem
	Status string

	Totals    Totals
	TotalPaid decimal.Decimal // payment currency
}

// Item returns a pointer to the line item with the given id, or nil.
func (o *PurchaseOrder) Item(id string) *LineItem {
	for i := range o.Items {
		if o.Items[i].ID == id {
			return &o.Items[i]
		}
	}
	return nil
}

// CatalogVariant is a predefined variant on a catalog product. Import costs
// are the last recorded purchase cost per currency; nil means never imported
// in that currency.
type CatalogVariant struct {
	ID            string
	Name          string
	SKU           string
	Barcode       string
	ImportCostUSD *decimal.Decimal
	ImportCostEUR *decimal.Decimal
	ImportCostCZK *decimal.Decimal
}

// CatalogProduct is the catalog collaborator's view of a product.
type CatalogProduct struct {
	ID              string
	SKU             string
	Name            string
	Price           decimal.Decimal
	Weight          decimal.Decimal
	Dimensions      string
	SellingUnitName string
	BulkUnitName    string
	BulkUnitQty     int
	Variants        []CatalogVariant
}

// StoredPurchase is a persisted purchase order as read back from the store.
type StoredPurchase struct {
	ID               int
	Supplier         string
	TrackingNumber   *string
	EstimatedArrival *time.Time
	Notes            *string
	ShippingCost     decimal.Decimal
	ShippingCurrency string
	PurchaseCurrency string
	PurchaseTotal    decimal.Decimal
	PaymentCurrency  string
	TotalPaid        decimal.Decimal
	ExchangeRate     decimal.Decimal
	Status           string
	CreatedAt        time.Time
	Items            []StoredItem
}

// StoredItem is a persisted purchase line with its variant allocations.
type StoredItem struct {
	ID               int
	PurchaseID       int
	Name             string
	SKU              *string
	Quantity         int
	UnitPrice        decimal.Decimal
	UnitPriceUSD     decimal.Decimal
	TotalPrice       decimal.Decimal
	CostWithShipping decimal.Decimal
	Weight           *decimal.Decimal
	Dimensions       *string
	Notes            *string
	HasVariants      bool
	Status           string
	Allocations      []VariantAllocation
}
