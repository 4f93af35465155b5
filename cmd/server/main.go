package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	webAdapter "purchase-costing/internal/adapters/web"
	"purchase-costing/internal/app"
	"purchase-costing/internal/core"
	"purchase-costing/internal/db"
	"purchase-costing/internal/fxapi"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	ctx := context.Background()
	pool, err := db.NewPool(ctx)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer pool.Close()

	purchases := core.NewPurchaseStore(pool)
	catalog := core.NewCatalogStore(pool)

	rates := core.NewRateTable()
	provider := fxapi.New(os.Getenv("FX_API_URL"))
	if err := rates.Refresh(ctx, provider); err != nil {
		// Static default rates stay in effect until the next refresh lands.
		log.Printf("initial rate refresh failed: %v", err)
	}
	startRateRefresher(ctx, rates, provider)

	svc := app.NewAppService(ctx, purchases, catalog, rates, provider)

	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "8080"
	}

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	handler := webAdapter.NewHandler(svc, allowedOrigins)

	log.Printf("server starting on :%s", port)
	if err := http.ListenAndServe(":"+port, handler); err != nil {
		log.Fatalf("server: %v", err)
	}
}

// startRateRefresher re-fetches live rates on an interval. Failures keep the
// previous table and are logged only.
func startRateRefresher(ctx context.Context, rates *core.RateTable, provider core.RateProvider) {
	interval := time.Hour
	if v := os.Getenv("RATE_REFRESH_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			log.Fatalf("invalid RATE_REFRESH_INTERVAL %q: %v", v, err)
		}
		interval = d
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := rates.Refresh(ctx, provider); err != nil {
					log.Printf("rate refresh failed: %v", err)
				}
			}
		}
	}()
}
