package core

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Session owns one purchase order being edited plus the staging variant list
// for the item under construction. Every mutating method ends with a
// recompute, so the grand-total invariant holds at every point a caller can
// observe the order. A session is single-writer; the app layer serializes
// access per draft.
type Session struct {
	Order   PurchaseOrder
	Staging []VariantRow

	rates           *RateTable
	totalPaidManual bool
	selectionSeq    uint64
}

// NewSession starts an empty order in USD with a recomputed (zero) total set.
func NewSession(rates *RateTable) *Session {
	s := &Session{
		Order: PurchaseOrder{
			PurchaseCurrency: PivotCurrency,
			PaymentCurrency:  PivotCurrency,
			ShippingCurrency: PivotCurrency,
			Status:           PurchaseStatusPending,
		},
		rates: rates,
	}
	s.recompute()
	return s
}

// Rates exposes the table backing this session's conversions.
func (s *Session) Rates() *RateTable { return s.rates }

// AddItem validates and appends a line item, then reallocates shipping.
// Variant-bearing items must carry at least one active allocation.
func (s *Session) AddItem(item LineItem) error {
	if strings.TrimSpace(item.Name) == "" {
		return validationErrorf(ValidationMissingItemField, "item name is required")
	}
	if item.Quantity <= 0 && !item.HasVariants {
		return validationErrorf(ValidationMissingItemField, "item %q needs a positive quantity", item.Name)
	}
	if item.UnitPrice.IsNegative() {
		return validationErrorf(ValidationMissingItemField, "item %q has a negative unit price", item.Name)
	}
	if err := ValidateAllocations(item); err != nil {
		return err
	}
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	s.Order.Items = append(s.Order.Items, item)
	s.recompute()
	return nil
}

// RemoveItems deletes the items with the given ids; unknown ids are ignored.
func (s *Session) RemoveItems(ids ...string) {
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}
	kept := s.Order.Items[:0]
	for _, it := range s.Order.Items {
		if _, gone := drop[it.ID]; !gone {
			kept = append(kept, it)
		}
	}
	s.Order.Items = kept
	s.recompute()
}

// UpdateItem applies an in-place edit to the item with the given id, then
// re-validates its allocations and reallocates shipping. A variant-bearing
// item's quantity and unit price are always re-derived from its allocations:
// the parent figures are aggregates, never directly editable.
func (s *Session) UpdateItem(id string, edit func(*LineItem)) error {
	item := s.Order.Item(id)
	if item == nil {
		return validationErrorf(ValidationNoItems, "item %s not found", id)
	}
	edit(item)
	if err := ValidateAllocations(*item); err != nil {
		return err
	}
	if item.HasVariants {
		qty, avg, err := aggregateAllocations(item.VariantAllocations)
		if err != nil {
			return err
		}
		item.Quantity = qty
		item.UnitPrice = avg
	}
	s.recompute()
	return nil
}

// SetShippingCost sets the shipping cost (in the shipping currency).
// Negative input is clamped to zero.
func (s *Session) SetShippingCost(v decimal.Decimal) {
	if v.IsNegative() {
		v = decimal.Zero
	}
	s.Order.ShippingCost = v
	s.recompute()
}

func (s *Session) SetShippingCurrency(code string) error {
	return s.setCurrency(&s.Order.ShippingCurrency, code)
}

func (s *Session) SetPurchaseCurrency(code string) error {
	return s.setCurrency(&s.Order.PurchaseCurrency, code)
}

func (s *Session) SetPaymentCurrency(code string) error {
	return s.setCurrency(&s.Order.PaymentCurrency, code)
}

func (s *Session) setCurrency(field *string, code string) error {
	code = strings.ToUpper(strings.TrimSpace(code))
	if !currencyCodeRe.MatchString(code) {
		return validationErrorf(ValidationMissingCurrency, "currency code must be 3 letters, got %q", code)
	}
	*field = code
	s.recompute()
	return nil
}

// RatesRefreshed recomputes derived state after an external table refresh.
func (s *Session) RatesRefreshed() { s.recompute() }

// SetTotalPaid records a manual total-paid figure (payment currency) and
// stops it from auto-tracking the grand total. The override is sticky until
// ResetTotalPaid.
func (s *Session) SetTotalPaid(v decimal.Decimal) {
	s.totalPaidManual = true
	s.Order.TotalPaid = v
	s.recompute()
}

// ResetTotalPaid clears the manual override; total paid tracks the
// payment-currency grand total again.
func (s *Session) ResetTotalPaid() {
	s.totalPaidManual = false
	s.recompute()
}

// TotalPaidManual reports whether total paid is under manual override.
func (s *Session) TotalPaidManual() bool { return s.totalPaidManual }

// ── Variant staging ──────────────────────────────────────────────────────────

// BeginProductSelection invalidates any in-flight catalog fetch and returns
// the token the eventual result must present to be applied.
func (s *Session) BeginProductSelection() uint64 {
	s.selectionSeq++
	return s.selectionSeq
}

// ImportCatalogVariants replaces the staging list with rows pre-populated
// from a catalog product, unless the selection token is stale — a slow fetch
// must not overwrite rows for a newer selection.
func (s *Session) ImportCatalogVariants(token uint64, p CatalogProduct) error {
	if token != s.selectionSeq {
		return ErrStaleSelection
	}
	s.Staging = RowsFromCatalog(p, s.Order.PurchaseCurrency)
	return nil
}

// StageRow appends a single hand-entered row to the staging list.
func (s *Session) StageRow(row VariantRow) {
	if row.ID == "" {
		row.ID = uuid.NewString()
	}
	s.Staging = append(s.Staging, row)
}

// StageSeries generates a variant series and appends it to the staging list.
func (s *Session) StageSeries(template string, quantity int, unitPrice decimal.Decimal) (int, error) {
	rows, err := GenerateSeries(template, quantity, unitPrice)
	if err != nil {
		return 0, err
	}
	s.Staging = append(s.Staging, rows...)
	return len(rows), nil
}

// ApplyStagingPattern runs a quick-selection pattern over the staging list.
func (s *Session) ApplyStagingPattern(pattern string, quantity int, unitPrice decimal.Decimal) (int, int, error) {
	return ApplyPattern(s.Staging, pattern, quantity, unitPrice)
}

// FillDownStaging copies a staging row's field into every row below it.
func (s *Session) FillDownStaging(source int, field RowField) error {
	return FillDown(s.Staging, source, field)
}

// PasteStagingValues applies a pasted value list to the selected staging
// rows, or to all rows when targetIDs is empty.
func (s *Session) PasteStagingValues(targetIDs []string, raw string, field RowField) (int, error) {
	return ApplyValues(s.Staging, targetIDs, raw, field)
}

// PasteStagingBarcodes assigns pasted barcodes across the staging list.
func (s *Session) PasteStagingBarcodes(raw string) (int, error) {
	return ApplyBarcodes(s.Staging, raw)
}

// ClearStaging abandons the working list.
func (s *Session) ClearStaging() {
	s.Staging = nil
	s.selectionSeq++
}

// FoldStaging collapses the staging list into one variant-bearing line item,
// adds it to the order, and clears the staging list on success.
func (s *Session) FoldStaging(name, sku string) error {
	item, err := FoldRows(s.Staging, name, sku, s.Order.PaymentCurrency)
	if err != nil {
		return err
	}
	if err := s.AddItem(item); err != nil {
		return err
	}
	s.ClearStaging()
	return nil
}

// ── Submission ───────────────────────────────────────────────────────────────

// ValidateForSubmit checks the order is complete enough to persist.
func (s *Session) ValidateForSubmit() error {
	if strings.TrimSpace(s.Order.Supplier) == "" {
		return validationErrorf(ValidationMissingSupplier, "supplier is required")
	}
	if len(s.Order.Items) == 0 {
		return validationErrorf(ValidationNoItems, "add at least one item before submitting")
	}
	for _, code := range []string{s.Order.PurchaseCurrency, s.Order.PaymentCurrency, s.Order.ShippingCurrency} {
		if !currencyCodeRe.MatchString(code) {
			return validationErrorf(ValidationMissingCurrency, "order is missing a currency")
		}
	}
	for _, it := range s.Order.Items {
		if err := ValidateAllocations(it); err != nil {
			return err
		}
	}
	return nil
}

// Submission builds the persistence payload for the current order state.
func (s *Session) Submission() Submission {
	return BuildSubmission(&s.Order, s.rates)
}

// SetEstimatedArrival sets the expected delivery time, or clears it with nil.
func (s *Session) SetEstimatedArrival(t *time.Time) {
	s.Order.EstimatedArrival = t
}

// recompute reallocates shipping and refreshes every derived figure. It is
// the last step of each mutation: no observable order state may violate
// grandTotal = subtotal + shippingInPurchase.
func (s *Session) recompute() {
	items, totals := Allocate(s.Order.Items, s.Order.ShippingCost,
		s.Order.ShippingCurrency, s.Order.PurchaseCurrency, s.rates)
	s.Order.Items = items
	s.Order.Totals = totals
	if !s.totalPaidManual {
		s.Order.TotalPaid = Convert(totals.GrandTotal, s.Order.PurchaseCurrency, s.Order.PaymentCurrency, s.rates)
	}
}
