package core_test

import (
	"context"
	"os"
	"testing"

	"purchase-costing/internal/core"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func setupTestDB(t *testing.T) *pgxpool.Pool {
	_ = godotenv.Load("../../.env")

	// Use a dedicated TEST database to avoid wiping the live app database.
	// Set TEST_DATABASE_URL in your .env or environment to run integration tests.
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set — skipping integration test to protect live database")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	_, err = pool.Exec(ctx, `
		TRUNCATE TABLE purchase_item_variants, purchase_items, import_purchases,
		               catalog_variants, catalog_products CASCADE;
	`)
	if err != nil {
		t.Fatalf("Failed to clean test database: %v", err)
	}

	return pool
}

func submitFixtureOrder(t *testing.T, store core.PurchaseStore, supplier string) int {
	t.Helper()
	sub, _ := submissionFixture(t)
	sub.Supplier = supplier
	sub.Status = core.PurchaseStatusOrdered

	id, err := store.SavePurchase(context.Background(), sub)
	if err != nil {
		t.Fatalf("SavePurchase: %v", err)
	}
	return id
}

func TestPurchaseStore_SaveAndGet(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	store := core.NewPurchaseStore(pool)
	ctx := context.Background()

	id := submitFixtureOrder(t, store, "Nail Supply Co")
	if id <= 0 {
		t.Fatalf("SavePurchase returned id %d", id)
	}

	got, err := store.GetPurchase(ctx, id)
	if err != nil {
		t.Fatalf("GetPurchase: %v", err)
	}
	if got.Supplier != "Nail Supply Co" || got.Status != core.PurchaseStatusOrdered {
		t.Errorf("purchase = %q/%q", got.Supplier, got.Status)
	}
	if got.PurchaseCurrency != "USD" || got.PaymentCurrency != "CZK" {
		t.Errorf("currencies = %s/%s", got.PurchaseCurrency, got.PaymentCurrency)
	}
	if !got.PurchaseTotal.Equal(d("32")) {
		t.Errorf("purchase total = %s, want 32", got.PurchaseTotal)
	}
	if len(got.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(got.Items))
	}

	var variantItem *core.StoredItem
	for i := range got.Items {
		if got.Items[i].HasVariants {
			variantItem = &got.Items[i]
		}
	}
	if variantItem == nil {
		t.Fatal("variant-bearing item not persisted")
	}
	if len(variantItem.Allocations) != 2 {
		t.Fatalf("allocations = %d, want 2", len(variantItem.Allocations))
	}
	a := variantItem.Allocations[0]
	if a.VariantID != "v1" || a.Quantity != 3 || a.UnitPriceCurrency != "CZK" {
		t.Errorf("allocation = %+v", a)
	}
}

func TestPurchaseStore_GetMissing(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	store := core.NewPurchaseStore(pool)
	if _, err := store.GetPurchase(context.Background(), 999999); err == nil {
		t.Fatal("expected error for missing purchase")
	}
}

func TestPurchaseStore_ListAndFilter(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	store := core.NewPurchaseStore(pool)
	ctx := context.Background()

	firstID := submitFixtureOrder(t, store, "Supplier A")
	secondID := submitFixtureOrder(t, store, "Supplier B")
	if err := store.UpdateStatus(ctx, secondID, core.PurchaseStatusReceived); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}

	all, err := store.ListPurchases(ctx, "")
	if err != nil {
		t.Fatalf("ListPurchases: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("all purchases = %d, want 2", len(all))
	}

	received, err := store.ListPurchases(ctx, core.PurchaseStatusReceived)
	if err != nil {
		t.Fatalf("ListPurchases(received): %v", err)
	}
	if len(received) != 1 || received[0].ID != secondID {
		t.Errorf("received filter returned %d rows", len(received))
	}

	ordered, err := store.ListPurchases(ctx, core.PurchaseStatusOrdered)
	if err != nil {
		t.Fatal(err)
	}
	if len(ordered) != 1 || ordered[0].ID != firstID {
		t.Errorf("ordered filter returned %d rows", len(ordered))
	}
}

func TestPurchaseStore_UpdateStatusMissing(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	store := core.NewPurchaseStore(pool)
	if err := store.UpdateStatus(context.Background(), 999999, core.PurchaseStatusReceived); err == nil {
		t.Fatal("expected error updating a missing purchase")
	}
}

func TestCatalogStore_Lookup(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ctx := context.Background()
	var productID int
	err := pool.QueryRow(ctx, `
		INSERT INTO catalog_products (sku, name, price, weight, dimensions, selling_unit_name, bulk_unit_name, bulk_unit_qty)
		VALUES ('GP-001', 'Gel Polish', 5.00, 0.015, '3x3x7', 'bottle', 'box', 12)
		RETURNING id`,
	).Scan(&productID)
	if err != nil {
		t.Fatalf("seed product: %v", err)
	}
	_, err = pool.Exec(ctx, `
		INSERT INTO catalog_variants (product_id, name, sku, barcode, import_cost_usd, import_cost_eur, import_cost_czk)
		VALUES ($1, 'Shade 1', 'GP-001-1', '8591234', 2.00, 1.85, 46.00),
		       ($1, 'Shade 2', 'GP-001-2', NULL, NULL, NULL, NULL)`,
		productID,
	)
	if err != nil {
		t.Fatalf("seed variants: %v", err)
	}

	store := core.NewCatalogStore(pool)

	p, err := store.GetProductBySKU(ctx, "GP-001")
	if err != nil {
		t.Fatalf("GetProductBySKU: %v", err)
	}
	if p.Name != "Gel Polish" || len(p.Variants) != 2 {
		t.Errorf("product = %q with %d variants", p.Name, len(p.Variants))
	}
	v := p.Variants[0]
	if v.ImportCostUSD == nil || !v.ImportCostUSD.Equal(d("2")) {
		t.Errorf("variant import cost USD = %v", v.ImportCostUSD)
	}
	if p.Variants[1].ImportCostUSD != nil {
		t.Error("missing import cost should scan as nil")
	}

	if _, err := store.GetProductBySKU(ctx, "NO-SUCH"); err == nil {
		t.Fatal("expected error for unknown sku")
	}

	products, err := store.ListProducts(ctx)
	if err != nil {
		t.Fatalf("ListProducts: %v", err)
	}
	if len(products) != 1 {
		t.Errorf("products = %d, want 1", len(products))
	}
}
