package web

import (
	"encoding/json"
	"net/http"
	"time"

	"purchase-costing/internal/app"
	"purchase-costing/internal/core"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

// ── Request DTOs ──────────────────────────────────────────────────────────────

type updateDraftRequest struct {
	Supplier       *string `json:"supplier"`
	TrackingNumber *string `json:"trackingNumber"`
	Notes          *string `json:"notes"`
	// RFC3339 or YYYY-MM-DD; an empty string clears the date.
	EstimatedArrival *string `json:"estimatedArrival"`

	PurchaseCurrency *string          `json:"purchaseCurrency"`
	PaymentCurrency  *string          `json:"paymentCurrency"`
	ShippingCurrency *string          `json:"shippingCurrency"`
	ShippingCost     *decimal.Decimal `json:"shippingCost"`

	TotalPaid      *decimal.Decimal `json:"totalPaid"`
	ResetTotalPaid bool             `json:"resetTotalPaid"`

	Status *string `json:"status"`
}

type itemRequest struct {
	Name       string          `json:"name"`
	SKU        string          `json:"sku"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unitPrice"`
	Weight     decimal.Decimal `json:"weight"`
	Dimensions string          `json:"dimensions"`
	Notes      string          `json:"notes"`
}

type selectProductRequest struct {
	SKU string `json:"sku"`
}

type stageRowRequest struct {
	Name      string          `json:"name"`
	SKU       string          `json:"sku"`
	Barcode   string          `json:"barcode"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

type seriesRequest struct {
	Template  string          `json:"template"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

type patternRequest struct {
	Pattern   string          `json:"pattern"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

type fillDownRequest struct {
	Source int    `json:"source"`
	Field  string `json:"field"`
}

type pasteRequest struct {
	TargetIDs []string `json:"targetIds"`
	Values    string   `json:"values"`
	Field     string   `json:"field"`
}

type barcodesRequest struct {
	Barcodes string `json:"barcodes"`
}

type foldRequest struct {
	Name string `json:"name"`
	SKU  string `json:"sku"`
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, r, "invalid JSON body: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return false
	}
	return true
}

func draftID(r *http.Request) string {
	return chi.URLParam(r, "id")
}

// ── Draft lifecycle ───────────────────────────────────────────────────────────

// createDraft handles POST /api/drafts.
func (h *Handler) createDraft(w http.ResponseWriter, r *http.Request) {
	draft, err := h.svc.CreateDraft(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, draft)
}

// getDraft handles GET /api/drafts/{id}.
func (h *Handler) getDraft(w http.ResponseWriter, r *http.Request) {
	draft, err := h.svc.GetDraft(r.Context(), draftID(r))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, draft)
}

// updateDraft handles PATCH /api/drafts/{id}.
func (h *Handler) updateDraft(w http.ResponseWriter, r *http.Request) {
	var body updateDraftRequest
	if !decodeJSON(w, r, &body) {
		return
	}

	req := app.UpdateDraftRequest{
		Supplier:         body.Supplier,
		TrackingNumber:   body.TrackingNumber,
		Notes:            body.Notes,
		PurchaseCurrency: body.PurchaseCurrency,
		PaymentCurrency:  body.PaymentCurrency,
		ShippingCurrency: body.ShippingCurrency,
		ShippingCost:     body.ShippingCost,
		TotalPaid:        body.TotalPaid,
		ResetTotalPaid:   body.ResetTotalPaid,
		Status:           body.Status,
	}
	if body.EstimatedArrival != nil {
		if *body.EstimatedArrival == "" {
			req.ClearArrival = true
		} else {
			t, err := parseArrival(*body.EstimatedArrival)
			if err != nil {
				writeError(w, r, "invalid estimatedArrival: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
				return
			}
			req.EstimatedArrival = &t
		}
	}

	draft, err := h.svc.UpdateDraft(r.Context(), draftID(r), req)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, draft)
}

func parseArrival(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

// deleteDraft handles DELETE /api/drafts/{id}.
func (h *Handler) deleteDraft(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteDraft(r.Context(), draftID(r)); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// submitDraft handles POST /api/drafts/{id}/submit.
func (h *Handler) submitDraft(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.SubmitDraft(r.Context(), draftID(r))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// ── Items ─────────────────────────────────────────────────────────────────────

// addItem handles POST /api/drafts/{id}/items.
func (h *Handler) addItem(w http.ResponseWriter, r *http.Request) {
	var body itemRequest
	if !decodeJSON(w, r, &body) {
		return
	}
	draft, err := h.svc.AddDraftItem(r.Context(), draftID(r), app.ItemInput(body))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, draft)
}

// updateItem handles PUT /api/drafts/{id}/items/{itemID}.
func (h *Handler) updateItem(w http.ResponseWriter, r *http.Request) {
	var body itemRequest
	if !decodeJSON(w, r, &body) {
		return
	}
	draft, err := h.svc.UpdateDraftItem(r.Context(), draftID(r), chi.URLParam(r, "itemID"), app.ItemInput(body))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, draft)
}

// removeItem handles DELETE /api/drafts/{id}/items/{itemID}.
func (h *Handler) removeItem(w http.ResponseWriter, r *http.Request) {
	draft, err := h.svc.RemoveDraftItems(r.Context(), draftID(r), chi.URLParam(r, "itemID"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, draft)
}

// ── Variant staging ───────────────────────────────────────────────────────────

// selectProduct handles POST /api/drafts/{id}/staging/select.
func (h *Handler) selectProduct(w http.ResponseWriter, r *http.Request) {
	var body selectProductRequest
	if !decodeJSON(w, r, &body) {
		return
	}
	draft, err := h.svc.SelectProduct(r.Context(), draftID(r), body.SKU)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, draft)
}

// stageRow handles POST /api/drafts/{id}/staging/rows.
func (h *Handler) stageRow(w http.ResponseWriter, r *http.Request) {
	var body stageRowRequest
	if !decodeJSON(w, r, &body) {
		return
	}
	draft, err := h.svc.StageRow(r.Context(), draftID(r), app.StageRowInput(body))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, draft)
}

// stageSeries handles POST /api/drafts/{id}/staging/series.
func (h *Handler) stageSeries(w http.ResponseWriter, r *http.Request) {
	var body seriesRequest
	if !decodeJSON(w, r, &body) {
		return
	}
	draft, err := h.svc.StageSeries(r.Context(), draftID(r), app.SeriesRequest(body))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, draft)
}

// applyPattern handles POST /api/drafts/{id}/staging/pattern.
func (h *Handler) applyPattern(w http.ResponseWriter, r *http.Request) {
	var body patternRequest
	if !decodeJSON(w, r, &body) {
		return
	}
	result, err := h.svc.ApplyStagingPattern(r.Context(), draftID(r), app.PatternRequest(body))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// fillDown handles POST /api/drafts/{id}/staging/fill-down.
func (h *Handler) fillDown(w http.ResponseWriter, r *http.Request) {
	var body fillDownRequest
	if !decodeJSON(w, r, &body) {
		return
	}
	draft, err := h.svc.FillDownStaging(r.Context(), draftID(r), body.Source, body.Field)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, draft)
}

// pasteValues handles POST /api/drafts/{id}/staging/paste.
func (h *Handler) pasteValues(w http.ResponseWriter, r *http.Request) {
	var body pasteRequest
	if !decodeJSON(w, r, &body) {
		return
	}
	result, err := h.svc.PasteStagingValues(r.Context(), draftID(r), app.PasteRequest{
		TargetIDs: body.TargetIDs,
		Raw:       body.Values,
		Field:     core.RowField(body.Field),
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// pasteBarcodes handles POST /api/drafts/{id}/staging/barcodes.
func (h *Handler) pasteBarcodes(w http.ResponseWriter, r *http.Request) {
	var body barcodesRequest
	if !decodeJSON(w, r, &body) {
		return
	}
	result, err := h.svc.PasteStagingBarcodes(r.Context(), draftID(r), body.Barcodes)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// clearStaging handles DELETE /api/drafts/{id}/staging.
func (h *Handler) clearStaging(w http.ResponseWriter, r *http.Request) {
	draft, err := h.svc.ClearStaging(r.Context(), draftID(r))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, draft)
}

// foldStaging handles POST /api/drafts/{id}/staging/fold.
func (h *Handler) foldStaging(w http.ResponseWriter, r *http.Request) {
	var body foldRequest
	if !decodeJSON(w, r, &body) {
		return
	}
	draft, err := h.svc.FoldStaging(r.Context(), draftID(r), app.FoldRequest(body))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, draft)
}
