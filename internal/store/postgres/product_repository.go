// Copyright 2026 The Medikart Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/medikart/medikart/internal/catalog"
)

// ProductRepository implements catalog.Repository. Every query is keyed on
// tenant_id; there is no way to reach another tenant's catalog through it.
type ProductRepository struct {
	db *DB
}

// NewProductRepository creates a new product repository
func NewProductRepository(db *DB) *ProductRepository {
	return &ProductRepository{db: db}
}

const productColumns = `id, tenant_id, sku, name, description, category,
	price_cents, stock_qty, requires_prescription, active, created_at, updated_at`

func scanProduct(row pgx.Row) (*catalog.Product, error) {
	var p catalog.Product
	err := row.Scan(
		&p.ID, &p.TenantID, &p.SKU, &p.Name, &p.Description, &p.Category,
		&p.PriceCents, &p.StockQty, &p.RequiresPrescription, &p.Active,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, catalog.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to scan product: %w", err)
	}
	return &p, nil
}

// Create inserts a new product
func (r *ProductRepository) Create(ctx context.Context, p *catalog.Product) error {
	now := time.Now()
	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO products (
			id, tenant_id, sku, name, description, category,
			price_cents, stock_qty, requires_prescription, active,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`,
		p.ID, p.TenantID, p.SKU, p.Name, p.Description, p.Category,
		p.PriceCents, p.StockQty, p.RequiresPrescription, p.Active,
		now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to insert product: %w", err)
	}

	p.CreatedAt = now
	p.UpdatedAt = now

	return nil
}

// GetByID retrieves a product within a tenant
func (r *ProductRepository) GetByID(ctx context.Context, tenantID, productID string) (*catalog.Product, error) {
	row := r.db.pool.QueryRow(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE tenant_id = $1 AND id = $2
	`, tenantID, productID)
	return scanProduct(row)
}

// GetBySKU retrieves a product by SKU within a tenant
func (r *ProductRepository) GetBySKU(ctx context.Context, tenantID, sku string) (*catalog.Product, error) {
	row := r.db.pool.QueryRow(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE tenant_id = $1 AND sku = $2
	`, tenantID, sku)
	return scanProduct(row)
}

// Update persists product changes
func (r *ProductRepository) Update(ctx context.Context, p *catalog.Product) error {
	result, err := r.db.pool.Exec(ctx, `
		UPDATE products SET
			name = $3,
			description = $4,
			category = $5,
			price_cents = $6,
			stock_qty = $7,
			requires_prescription = $8,
			active = $9,
			updated_at = NOW()
		WHERE tenant_id = $1 AND id = $2
	`,
		p.TenantID, p.ID, p.Name, p.Description, p.Category,
		p.PriceCents, p.StockQty, p.RequiresPrescription, p.Active,
	)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}

	if result.RowsAffected() == 0 {
		return catalog.ErrProductNotFound
	}

	return nil
}

// List returns a tenant's products with optional filters
func (r *ProductRepository) List(ctx context.Context, tenantID string, filter catalog.ListFilter) ([]*catalog.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE tenant_id = $1
	`
	args := []any{tenantID}

	if filter.Category != "" {
		args = append(args, filter.Category)
		query += fmt.Sprintf(` AND category = $%d`, len(args))
	}
	if filter.ActiveOnly {
		query += ` AND active = TRUE`
	}
	query += fmt.Sprintf(` ORDER BY name LIMIT %d OFFSET %d`, filter.Limit, filter.Offset)

	rows, err := r.db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	var products []*catalog.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}

	return products, rows.Err()
}

// AdjustStock atomically changes stock by delta. A negative delta that would
// take stock below zero leaves the row untouched and returns
// catalog.ErrInsufficientStock.
func (r *ProductRepository) AdjustStock(ctx context.Context, tenantID, productID string, delta int) error {
	result, err := r.db.pool.Exec(ctx, `
		UPDATE products SET
			stock_qty = stock_qty + $3,
			updated_at = NOW()
		WHERE tenant_id = $1 AND id = $2 AND stock_qty + $3 >= 0
	`, tenantID, productID, delta)
	if err != nil {
		return fmt.Errorf("failed to adjust stock: %w", err)
	}

	if result.RowsAffected() == 0 {
		// Row missing or guard failed; disambiguate for the caller.
		if _, err := r.GetByID(ctx, tenantID, productID); err != nil {
			return err
		}
		return catalog.ErrInsufficientStock
	}

	return nil
}
