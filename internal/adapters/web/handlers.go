package web

import (
	"net/http"

	"purchase-costing/internal/app"

	"github.com/go-chi/chi/v5"
)

// Handler holds the ApplicationService and the chi router.
type Handler struct {
	svc app.ApplicationService
}

// NewHandler creates and wires the chi router with all routes.
func NewHandler(svc app.ApplicationService, allowedOrigins string) http.Handler {
	h := &Handler{svc: svc}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger)
	r.Use(Recoverer)
	r.Use(CORS(allowedOrigins))
	r.Use(RequestBodyLimit(1 << 20)) // 1 MB

	r.Get("/api/health", h.health)

	// ── Drafts: the purchase entry form ──────────────────────────────────────
	r.Route("/api/drafts", func(r chi.Router) {
		r.Post("/", h.createDraft)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.getDraft)
			r.Patch("/", h.updateDraft)
			r.Delete("/", h.deleteDraft)
			r.Post("/submit", h.submitDraft)

			r.Post("/items", h.addItem)
			r.Put("/items/{itemID}", h.updateItem)
			r.Delete("/items/{itemID}", h.removeItem)

			r.Route("/staging", func(r chi.Router) {
				r.Post("/select", h.selectProduct)
				r.Post("/rows", h.stageRow)
				r.Post("/series", h.stageSeries)
				r.Post("/pattern", h.applyPattern)
				r.Post("/fill-down", h.fillDown)
				r.Post("/paste", h.pasteValues)
				r.Post("/barcodes", h.pasteBarcodes)
				r.Post("/fold", h.foldStaging)
				r.Delete("/", h.clearStaging)
			})
		})
	})

	// ── Persisted purchases ──────────────────────────────────────────────────
	r.Route("/api/purchases", func(r chi.Router) {
		r.Get("/", h.listPurchases)
		r.Get("/{id}", h.getPurchase)
		r.Patch("/{id}/status", h.updatePurchaseStatus)
	})

	// ── Catalog and rates ────────────────────────────────────────────────────
	r.Get("/api/products", h.listProducts)
	r.Get("/api/rates", h.getRates)
	r.Post("/api/rates/refresh", h.refreshRates)
	r.Post("/api/rates/currencies", h.addCurrency)

	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
