package app

import (
	"context"
	"errors"
	"fmt"

	"purchase-costing/internal/core"
)

// ErrDraftNotFound is returned when a draft id is unknown or expired.
var ErrDraftNotFound = errors.New("draft not found")

type appService struct {
	purchases core.PurchaseStore
	catalog   core.CatalogStore
	rates     *core.RateTable
	provider  core.RateProvider
	drafts    *draftStore
}

// NewAppService constructs an appService that satisfies ApplicationService.
// The draft purge goroutine runs until ctx is cancelled.
func NewAppService(
	ctx context.Context,
	purchases core.PurchaseStore,
	catalog core.CatalogStore,
	rates *core.RateTable,
	provider core.RateProvider,
) ApplicationService {
	s := &appService{
		purchases: purchases,
		catalog:   catalog,
		rates:     rates,
		provider:  provider,
		drafts:    newDraftStore(),
	}
	s.drafts.startPurge(ctx)
	return s
}

// withDraft runs fn with the draft's session locked, then returns the state
// after the mutation.
func (s *appService) withDraft(draftID string, fn func(*core.Session) error) (*DraftResult, error) {
	e, ok := s.drafts.get(draftID)
	if !ok {
		return nil, ErrDraftNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := fn(e.session); err != nil {
		return nil, err
	}
	return draftResult(draftID, e.session), nil
}

func draftResult(id string, sess *core.Session) *DraftResult {
	staging := make([]core.VariantRow, len(sess.Staging))
	copy(staging, sess.Staging)
	return &DraftResult{
		ID:              id,
		Order:           sess.Order,
		Staging:         staging,
		TotalPaidManual: sess.TotalPaidManual(),
	}
}

func (s *appService) CreateDraft(ctx context.Context) (*DraftResult, error) {
	id := s.drafts.create(s.rates)
	return s.GetDraft(ctx, id)
}

func (s *appService) GetDraft(ctx context.Context, draftID string) (*DraftResult, error) {
	return s.withDraft(draftID, func(*core.Session) error { return nil })
}

func (s *appService) UpdateDraft(ctx context.Context, draftID string, req UpdateDraftRequest) (*DraftResult, error) {
	return s.withDraft(draftID, func(sess *core.Session) error {
		if req.Supplier != nil {
			sess.Order.Supplier = *req.Supplier
		}
		if req.TrackingNumber != nil {
			sess.Order.TrackingNumber = *req.TrackingNumber
		}
		if req.Notes != nil {
			sess.Order.Notes = *req.Notes
		}
		if req.ClearArrival {
			sess.SetEstimatedArrival(nil)
		} else if req.EstimatedArrival != nil {
			sess.SetEstimatedArrival(req.EstimatedArrival)
		}
		if req.Status != nil {
			sess.Order.Status = *req.Status
		}

		if req.PurchaseCurrency != nil {
			if err := sess.SetPurchaseCurrency(*req.PurchaseCurrency); err != nil {
				return err
			}
		}
		if req.PaymentCurrency != nil {
			if err := sess.SetPaymentCurrency(*req.PaymentCurrency); err != nil {
				return err
			}
		}
		if req.ShippingCurrency != nil {
			if err := sess.SetShippingCurrency(*req.ShippingCurrency); err != nil {
				return err
			}
		}
		if req.ShippingCost != nil {
			sess.SetShippingCost(*req.ShippingCost)
		}

		if req.ResetTotalPaid {
			sess.ResetTotalPaid()
		} else if req.TotalPaid != nil {
			sess.SetTotalPaid(*req.TotalPaid)
		}
		return nil
	})
}

func (s *appService) DeleteDraft(ctx context.Context, draftID string) error {
	if _, ok := s.drafts.get(draftID); !ok {
		return ErrDraftNotFound
	}
	s.drafts.delete(draftID)
	return nil
}

func (s *appService) AddDraftItem(ctx context.Context, draftID string, item ItemInput) (*DraftResult, error) {
	return s.withDraft(draftID, func(sess *core.Session) error {
		return sess.AddItem(core.LineItem{
			Name:       item.Name,
			SKU:        item.SKU,
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice,
			Weight:     item.Weight,
			Dimensions: item.Dimensions,
			Notes:      item.Notes,
		})
	})
}

func (s *appService) UpdateDraftItem(ctx context.Context, draftID, itemID string, item ItemInput) (*DraftResult, error) {
	return s.withDraft(draftID, func(sess *core.Session) error {
		return sess.UpdateItem(itemID, func(it *core.LineItem) {
			it.Name = item.Name
			it.SKU = item.SKU
			it.Weight = item.Weight
			it.Dimensions = item.Dimensions
			it.Notes = item.Notes
			if !it.HasVariants {
				it.Quantity = item.Quantity
				it.UnitPrice = item.UnitPrice
			}
		})
	})
}

func (s *appService) RemoveDraftItems(ctx context.Context, draftID string, itemIDs ...string) (*DraftResult, error) {
	return s.withDraft(draftID, func(sess *core.Session) error {
		sess.RemoveItems(itemIDs...)
		return nil
	})
}

// SelectProduct fetches the product outside the draft lock: catalog lookups
// can be slow and must not block other edits. The selection token detects a
// fetch that lost the race to a newer selection or a cleared staging list.
func (s *appService) SelectProduct(ctx context.Context, draftID, sku string) (*DraftResult, error) {
	e, ok := s.drafts.get(draftID)
	if !ok {
		return nil, ErrDraftNotFound
	}

	e.mu.Lock()
	token := e.session.BeginProductSelection()
	e.mu.Unlock()

	product, err := s.catalog.GetProductBySKU(ctx, sku)
	if err != nil {
		return nil, err
	}

	return s.withDraft(draftID, func(sess *core.Session) error {
		return sess.ImportCatalogVariants(token, *product)
	})
}

func (s *appService) StageRow(ctx context.Context, draftID string, row StageRowInput) (*DraftResult, error) {
	return s.withDraft(draftID, func(sess *core.Session) error {
		sess.StageRow(core.VariantRow{
			Name:      row.Name,
			SKU:       row.SKU,
			Barcode:   row.Barcode,
			Quantity:  row.Quantity,
			UnitPrice: row.UnitPrice,
		})
		return nil
	})
}

func (s *appService) StageSeries(ctx context.Context, draftID string, req SeriesRequest) (*DraftResult, error) {
	return s.withDraft(draftID, func(sess *core.Session) error {
		_, err := sess.StageSeries(req.Template, req.Quantity, req.UnitPrice)
		return err
	})
}

func (s *appService) ApplyStagingPattern(ctx context.Context, draftID string, req PatternRequest) (*PatternResult, error) {
	var matched, skipped int
	draft, err := s.withDraft(draftID, func(sess *core.Session) error {
		var err error
		matched, skipped, err = sess.ApplyStagingPattern(req.Pattern, req.Quantity, req.UnitPrice)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &PatternResult{Draft: draft, Matched: matched, Skipped: skipped}, nil
}

func (s *appService) FillDownStaging(ctx context.Context, draftID string, source int, field string) (*DraftResult, error) {
	return s.withDraft(draftID, func(sess *core.Session) error {
		return sess.FillDownStaging(source, core.RowField(field))
	})
}

func (s *appService) PasteStagingValues(ctx context.Context, draftID string, req PasteRequest) (*PasteResult, error) {
	var assigned int
	draft, err := s.withDraft(draftID, func(sess *core.Session) error {
		var err error
		assigned, err = sess.PasteStagingValues(req.TargetIDs, req.Raw, req.Field)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &PasteResult{Draft: draft, Assigned: assigned}, nil
}

func (s *appService) PasteStagingBarcodes(ctx context.Context, draftID, raw string) (*PasteResult, error) {
	var assigned int
	draft, err := s.withDraft(draftID, func(sess *core.Session) error {
		var err error
		assigned, err = sess.PasteStagingBarcodes(raw)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &PasteResult{Draft: draft, Assigned: assigned}, nil
}

func (s *appService) ClearStaging(ctx context.Context, draftID string) (*DraftResult, error) {
	return s.withDraft(draftID, func(sess *core.Session) error {
		sess.ClearStaging()
		return nil
	})
}

func (s *appService) FoldStaging(ctx context.Context, draftID string, req FoldRequest) (*DraftResult, error) {
	return s.withDraft(draftID, func(sess *core.Session) error {
		return sess.FoldStaging(req.Name, req.SKU)
	})
}

func (s *appService) SubmitDraft(ctx context.Context, draftID string) (*SubmitResult, error) {
	e, ok := s.drafts.get(draftID)
	if !ok {
		return nil, ErrDraftNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.session.ValidateForSubmit(); err != nil {
		return nil, err
	}
	sub := e.session.Submission()

	id, err := s.purchases.SavePurchase(ctx, sub)
	if err != nil {
		return nil, fmt.Errorf("save purchase: %w", err)
	}
	s.drafts.delete(draftID)
	return &SubmitResult{PurchaseID: id, Submission: sub}, nil
}

func (s *appService) GetPurchase(ctx context.Context, id int) (*PurchaseResult, error) {
	p, err := s.purchases.GetPurchase(ctx, id)
	if err != nil {
		return nil, err
	}
	return &PurchaseResult{Purchase: p}, nil
}

func (s *appService) ListPurchases(ctx context.Context, status string) (*PurchaseListResult, error) {
	purchases, err := s.purchases.ListPurchases(ctx, status)
	if err != nil {
		return nil, err
	}
	return &PurchaseListResult{Purchases: purchases}, nil
}

func (s *appService) UpdatePurchaseStatus(ctx context.Context, id int, status string) (*PurchaseResult, error) {
	switch status {
	case core.PurchaseStatusPending, core.PurchaseStatusOrdered, core.PurchaseStatusReceived:
	default:
		return nil, fmt.Errorf("unknown purchase status %q", status)
	}
	if err := s.purchases.UpdateStatus(ctx, id, status); err != nil {
		return nil, err
	}
	return s.GetPurchase(ctx, id)
}

func (s *appService) ListProducts(ctx context.Context) (*ProductListResult, error) {
	products, err := s.catalog.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	return &ProductListResult{Products: products}, nil
}

func (s *appService) Rates(ctx context.Context) (*RatesResult, error) {
	rates, refreshedAt := s.rates.Snapshot()
	return &RatesResult{Rates: rates, RefreshedAt: refreshedAt}, nil
}

func (s *appService) RefreshRates(ctx context.Context) (*RatesResult, error) {
	if err := s.rates.Refresh(ctx, s.provider); err != nil {
		return nil, err
	}
	s.recomputeDrafts()
	return s.Rates(ctx)
}

func (s *appService) AddCurrency(ctx context.Context, code string) (*AddCurrencyResult, error) {
	rate, err := s.rates.AddCustomCurrency(ctx, code, s.provider)
	if err != nil {
		var fe *core.FetchError
		if errors.As(err, &fe) {
			// Registered with rate 1; the fetch failure is a notice, not a
			// rejection.
			return &AddCurrencyResult{Code: code, Rate: rate, Warning: fe.Error()}, nil
		}
		return nil, err
	}
	s.recomputeDrafts()
	return &AddCurrencyResult{Code: code, Rate: rate}, nil
}

// recomputeDrafts re-derives totals on every open draft after the shared rate
// table changed.
func (s *appService) recomputeDrafts() {
	s.drafts.each(func(e *draftEntry) {
		e.mu.Lock()
		e.session.RatesRefreshed()
		e.mu.Unlock()
	})
}
