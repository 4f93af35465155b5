package app

import (
	"context"
)

// ApplicationService is the single interface all adapters call. It decouples
// presentation from business logic. Implementations must contain no display
// logic of any kind.
type ApplicationService interface {
	// CreateDraft opens a new empty purchase draft and returns its state.
	CreateDraft(ctx context.Context) (*DraftResult, error)

	// GetDraft returns the current state of an open draft.
	GetDraft(ctx context.Context, draftID string) (*DraftResult, error)

	// UpdateDraft applies partial header edits (supplier, currencies,
	// shipping, total paid) and returns the recomputed state.
	UpdateDraft(ctx context.Context, draftID string, req UpdateDraftRequest) (*DraftResult, error)

	// DeleteDraft discards an open draft.
	DeleteDraft(ctx context.Context, draftID string) error

	// AddDraftItem validates and appends a plain line item.
	AddDraftItem(ctx context.Context, draftID string, item ItemInput) (*DraftResult, error)

	// UpdateDraftItem replaces the editable fields of an existing item.
	UpdateDraftItem(ctx context.Context, draftID, itemID string, item ItemInput) (*DraftResult, error)

	// RemoveDraftItems deletes items by id; unknown ids are ignored.
	RemoveDraftItems(ctx context.Context, draftID string, itemIDs ...string) (*DraftResult, error)

	// SelectProduct loads a catalog product's variants into the staging
	// list. A result arriving after a newer selection is discarded.
	SelectProduct(ctx context.Context, draftID, sku string) (*DraftResult, error)

	// StageRow appends a hand-entered variant row to the staging list.
	StageRow(ctx context.Context, draftID string, row StageRowInput) (*DraftResult, error)

	// StageSeries expands a numbered series template into staging rows.
	StageSeries(ctx context.Context, draftID string, req SeriesRequest) (*DraftResult, error)

	// ApplyStagingPattern runs a quick-selection pattern over staging rows.
	ApplyStagingPattern(ctx context.Context, draftID string, req PatternRequest) (*PatternResult, error)

	// FillDownStaging copies a staging row's field into every row below it.
	FillDownStaging(ctx context.Context, draftID string, source int, field string) (*DraftResult, error)

	// PasteStagingValues assigns a pasted number list positionally to the
	// selected staging rows, or to all rows when no targets are given.
	PasteStagingValues(ctx context.Context, draftID string, req PasteRequest) (*PasteResult, error)

	// PasteStagingBarcodes assigns pasted barcode lines across the staging
	// list in row order.
	PasteStagingBarcodes(ctx context.Context, draftID, raw string) (*PasteResult, error)

	// ClearStaging abandons the staging list.
	ClearStaging(ctx context.Context, draftID string) (*DraftResult, error)

	// FoldStaging collapses the staging list into one variant-bearing line
	// item and adds it to the draft.
	FoldStaging(ctx context.Context, draftID string, req FoldRequest) (*DraftResult, error)

	// SubmitDraft validates the draft, persists it as a purchase order, and
	// discards the draft on success.
	SubmitDraft(ctx context.Context, draftID string) (*SubmitResult, error)

	// GetPurchase returns a persisted purchase with its items.
	GetPurchase(ctx context.Context, id int) (*PurchaseResult, error)

	// ListPurchases returns persisted purchases, optionally by status.
	ListPurchases(ctx context.Context, status string) (*PurchaseListResult, error)

	// UpdatePurchaseStatus moves a purchase through its lifecycle.
	UpdatePurchaseStatus(ctx context.Context, id int, status string) (*PurchaseResult, error)

	// ListProducts returns catalog products for the selection dropdown.
	ListProducts(ctx context.Context) (*ProductListResult, error)

	// Rates returns the current exchange rate table.
	Rates(ctx context.Context) (*RatesResult, error)

	// RefreshRates re-fetches live rates for every registered currency.
	RefreshRates(ctx context.Context) (*RatesResult, error)

	// AddCurrency registers a custom currency code, fetching its live rate
	// when possible and falling back to rate 1 with a warning otherwise.
	AddCurrency(ctx context.Context, code string) (*AddCurrencyResult, error)
}
