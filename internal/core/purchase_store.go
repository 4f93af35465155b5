package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// PurchaseStore is the persistence collaborator for submitted purchase
// orders.
type PurchaseStore interface {
	// SavePurchase persists a submission with its items and variant
	// allocations in one transaction and returns the new purchase id.
	SavePurchase(ctx context.Context, sub Submission) (int, error)

	// GetPurchase returns a purchase by id, including all items.
	GetPurchase(ctx context.Context, id int) (*StoredPurchase, error)

	// ListPurchases returns purchases newest first, optionally filtered by
	// status. An empty status returns all.
	ListPurchases(ctx context.Context, status string) ([]StoredPurchase, error)

	// UpdateStatus moves a purchase to a new lifecycle status.
	UpdateStatus(ctx context.Context, id int, status string) error
}

type purchaseStore struct {
	pool *pgxpool.Pool
}

// NewPurchaseStore constructs a PurchaseStore backed by PostgreSQL.
func NewPurchaseStore(pool *pgxpool.Pool) PurchaseStore {
	return &purchaseStore{pool: pool}
}

func (s *purchaseStore) SavePurchase(ctx context.Context, sub Submission) (int, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var arrival *time.Time
	if sub.EstimatedArrival != nil {
		t, err := time.Parse(time.RFC3339, *sub.EstimatedArrival)
		if err != nil {
			return 0, fmt.Errorf("parse estimated arrival: %w", err)
		}
		arrival = &t
	}

	var purchaseID int
	if err := tx.QueryRow(ctx, `
		INSERT INTO import_purchases
		            (supplier, tracking_number, estimated_arrival, notes,
		             shipping_cost, shipping_currency,
		             purchase_currency, purchase_total,
		             payment_currency, total_paid, exchange_rate,
		             status, prices, exchange_rates)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id`,
		sub.Supplier, sub.TrackingNumber, arrival, sub.Notes,
		decimal.NewFromFloat(sub.ShippingCost), sub.ShippingCurrency,
		sub.PurchaseCurrency, decimal.NewFromFloat(sub.PurchaseTotal),
		sub.PaymentCurrency, decimal.NewFromFloat(sub.TotalPaid), decimal.NewFromFloat(sub.ExchangeRate),
		sub.Status, sub.Prices, sub.ExchangeRates,
	).Scan(&purchaseID); err != nil {
		return 0, fmt.Errorf("insert purchase: %w", err)
	}

	for i, item := range sub.Items {
		var itemID int
		if err := tx.QueryRow(ctx, `
			INSERT INTO purchase_items
			            (purchase_id, name, sku, quantity, unit_price, unit_price_usd,
			             total_price, cost_with_shipping, weight, dimensions, notes,
			             has_variants, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, 'ordered')
			RETURNING id`,
			purchaseID, item.Name, item.SKU, item.Quantity,
			decimal.NewFromFloat(item.UnitPrice), decimal.NewFromFloat(item.UnitPriceUSD),
			decimal.NewFromFloat(item.TotalPrice), decimal.NewFromFloat(item.CostWithShipping),
			decimal.NewFromFloat(item.Weight), item.Dimensions, item.Notes,
			item.HasVariants,
		).Scan(&itemID); err != nil {
			return 0, fmt.Errorf("insert purchase item %d: %w", i+1, err)
		}

		for j, a := range item.VariantAllocations {
			if _, err := tx.Exec(ctx, `
				INSERT INTO purchase_item_variants
				            (item_id, variant_id, variant_name, quantity,
				             unit_price, unit_price_currency, sku, barcode)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
				itemID, a.VariantID, a.VariantName, a.Quantity,
				decimal.NewFromFloat(a.UnitPrice), a.UnitPriceCurrency, a.SKU, a.Barcode,
			); err != nil {
				return 0, fmt.Errorf("insert item %d allocation %d: %w", i+1, j+1, err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit purchase: %w", err)
	}
	return purchaseID, nil
}

func (s *purchaseStore) GetPurchase(ctx context.Context, id int) (*StoredPurchase, error) {
	p := &StoredPurchase{}
	if err := s.pool.QueryRow(ctx, `
		SELECT id, supplier, tracking_number, estimated_arrival, notes,
		       shipping_cost, shipping_currency,
		       purchase_currency, purchase_total,
		       payment_currency, total_paid, exchange_rate,
		       status, created_at
		FROM import_purchases
		WHERE id = $1`,
		id,
	).Scan(
		&p.ID, &p.Supplier, &p.TrackingNumber, &p.EstimatedArrival, &p.Notes,
		&p.ShippingCost, &p.ShippingCurrency,
		&p.PurchaseCurrency, &p.PurchaseTotal,
		&p.PaymentCurrency, &p.TotalPaid, &p.ExchangeRate,
		&p.Status, &p.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("purchase %d not found", id)
		}
		return nil, fmt.Errorf("get purchase %d: %w", id, err)
	}

	items, err := s.fetchItems(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Items = items
	return p, nil
}

func (s *purchaseStore) ListPurchases(ctx context.Context, status string) ([]StoredPurchase, error) {
	query := `
		SELECT id, supplier, tracking_number, estimated_arrival, notes,
		       shipping_cost, shipping_currency,
		       purchase_currency, purchase_total,
		       payment_currency, total_paid, exchange_rate,
		       status, created_at
		FROM import_purchases`
	args := []any{}
	if status != "" {
		query += " WHERE status = $1"
		args = append(args, status)
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list purchases: %w", err)
	}
	defer rows.Close()

	var out []StoredPurchase
	for rows.Next() {
		var p StoredPurchase
		if err := rows.Scan(
			&p.ID, &p.Supplier, &p.TrackingNumber, &p.EstimatedArrival, &p.Notes,
			&p.ShippingCost, &p.ShippingCurrency,
			&p.PurchaseCurrency, &p.PurchaseTotal,
			&p.PaymentCurrency, &p.TotalPaid, &p.ExchangeRate,
			&p.Status, &p.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan purchase: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *purchaseStore) UpdateStatus(ctx context.Context, id int, status string) error {
	tag, err := s.pool.Exec(ctx,
		"UPDATE import_purchases SET status = $1, updated_at = NOW() WHERE id = $2",
		status, id,
	)
	if err != nil {
		return fmt.Errorf("update purchase %d status: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("purchase %d not found", id)
	}
	return nil
}

// fetchItems returns all items for a purchase, each with its allocations.
func (s *purchaseStore) fetchItems(ctx context.Context, purchaseID int) ([]StoredItem, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, purchase_id, name, sku, quantity, unit_price, unit_price_usd,
		       total_price, cost_with_shipping, weight, dimensions, notes,
		       has_variants, status
		FROM purchase_items
		WHERE purchase_id = $1
		ORDER BY id`,
		purchaseID,
	)
	if err != nil {
		return nil, fmt.Errorf("fetch items for purchase %d: %w", purchaseID, err)
	}
	defer rows.Close()

	var items []StoredItem
	for rows.Next() {
		var it StoredItem
		if err := rows.Scan(
			&it.ID, &it.PurchaseID, &it.Name, &it.SKU, &it.Quantity,
			&it.UnitPrice, &it.UnitPriceUSD,
			&it.TotalPrice, &it.CostWithShipping, &it.Weight, &it.Dimensions, &it.Notes,
			&it.HasVariants, &it.Status,
		); err != nil {
			return nil, fmt.Errorf("scan purchase item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range items {
		allocs, err := s.fetchAllocations(ctx, items[i].ID)
		if err != nil {
			return nil, err
		}
		items[i].Allocations = allocs
	}
	return items, nil
}

func (s *purchaseStore) fetchAllocations(ctx context.Context, itemID int) ([]VariantAllocation, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT variant_id, variant_name, quantity, unit_price, unit_price_currency,
		       COALESCE(sku, ''), COALESCE(barcode, '')
		FROM purchase_item_variants
		WHERE item_id = $1
		ORDER BY id`,
		itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("fetch allocations for item %d: %w", itemID, err)
	}
	defer rows.Close()

	var allocs []VariantAllocation
	for rows.Next() {
		var a VariantAllocation
		if err := rows.Scan(&a.VariantID, &a.VariantName, &a.Quantity,
			&a.UnitPrice, &a.UnitPriceCurrency, &a.SKU, &a.Barcode); err != nil {
			return nil, fmt.Errorf("scan allocation: %w", err)
		}
		allocs = append(allocs, a)
	}
	return allocs, rows.Err()
}
