package core

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// CatalogStore is the catalog collaborator: product and variant lookups used
// to pre-populate the variant staging list.
type CatalogStore interface {
	// GetProductBySKU returns a product with its predefined variants.
	GetProductBySKU(ctx context.Context, sku string) (*CatalogProduct, error)

	// ListProducts returns all catalog products without variants, by name.
	ListProducts(ctx context.Context) ([]CatalogProduct, error)
}

type catalogStore struct {
	pool *pgxpool.Pool
}

// NewCatalogStore constructs a CatalogStore backed by PostgreSQL.
func NewCatalogStore(pool *pgxpool.Pool) CatalogStore {
	return &catalogStore{pool: pool}
}

func (s *catalogStore) GetProductBySKU(ctx context.Context, sku string) (*CatalogProduct, error) {
	var id int
	p := &CatalogProduct{}
	var weight *decimal.Decimal
	var dimensions, sellingUnit, bulkUnit *string
	var bulkQty *int
	if err := s.pool.QueryRow(ctx, `
		SELECT id, sku, name, price, weight, dimensions,
		       selling_unit_name, bulk_unit_name, bulk_unit_qty
		FROM catalog_products
		WHERE sku = $1`,
		sku,
	).Scan(&id, &p.SKU, &p.Name, &p.Price, &weight, &dimensions,
		&sellingUnit, &bulkUnit, &bulkQty); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &FetchError{Op: "catalog lookup", Err: fmt.Errorf("product %q not found", sku)}
		}
		return nil, fmt.Errorf("get product %q: %w", sku, err)
	}
	p.ID = strconv.Itoa(id)
	if weight != nil {
		p.Weight = *weight
	}
	if dimensions != nil {
		p.Dimensions = *dimensions
	}
	if sellingUnit != nil {
		p.SellingUnitName = *sellingUnit
	}
	if bulkUnit != nil {
		p.BulkUnitName = *bulkUnit
	}
	if bulkQty != nil {
		p.BulkUnitQty = *bulkQty
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, name, COALESCE(sku, ''), COALESCE(barcode, ''),
		       import_cost_usd, import_cost_eur, import_cost_czk
		FROM catalog_variants
		WHERE product_id = $1
		ORDER BY id`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("fetch variants for product %q: %w", sku, err)
	}
	defer rows.Close()

	for rows.Next() {
		var v CatalogVariant
		var vid int
		if err := rows.Scan(&vid, &v.Name, &v.SKU, &v.Barcode,
			&v.ImportCostUSD, &v.ImportCostEUR, &v.ImportCostCZK); err != nil {
			return nil, fmt.Errorf("scan variant: %w", err)
		}
		v.ID = strconv.Itoa(vid)
		p.Variants = append(p.Variants, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *catalogStore) ListProducts(ctx context.Context) ([]CatalogProduct, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT id, sku, name, price FROM catalog_products ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var out []CatalogProduct
	for rows.Next() {
		var p CatalogProduct
		var id int
		if err := rows.Scan(&id, &p.SKU, &p.Name, &p.Price); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		p.ID = strconv.Itoa(id)
		out = append(out, p)
	}
	return out, rows.Err()
}
