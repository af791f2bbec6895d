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
	"github.com/medikart/medikart/internal/order"
)

// OrderRepository implements order.Repository
type OrderRepository struct {
	db *DB
}

// NewOrderRepository creates a new order repository
func NewOrderRepository(db *DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create inserts an order and its items in one transaction
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	tx, err := r.db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	now := time.Now()
	_, err = tx.Exec(ctx, `
		INSERT INTO orders (id, tenant_id, customer_id, status, pickup, total_cents, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, o.ID, o.TenantID, o.CustomerID, o.Status, o.Pickup, o.TotalCents, now, now)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	for _, item := range o.Items {
		_, err = tx.Exec(ctx, `
			INSERT INTO order_items (order_id, product_id, sku, name, quantity, unit_price_cents)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, o.ID, item.ProductID, item.SKU, item.Name, item.Quantity, item.UnitPriceCents)
		if err != nil {
			return fmt.Errorf("failed to insert order item: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit order: %w", err)
	}

	o.CreatedAt = now
	o.UpdatedAt = now

	return nil
}

// GetByID retrieves an order with its items, within a tenant
func (r *OrderRepository) GetByID(ctx context.Context, tenantID, orderID string) (*order.Order, error) {
	var o order.Order
	err := r.db.pool.QueryRow(ctx, `
		SELECT id, tenant_id, customer_id, status, pickup, total_cents, created_at, updated_at
		FROM orders
		WHERE tenant_id = $1 AND id = $2
	`, tenantID, orderID).Scan(
		&o.ID, &o.TenantID, &o.CustomerID, &o.Status, &o.Pickup, &o.TotalCents,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, order.ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	items, err := r.loadItems(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	o.Items = items

	return &o, nil
}

func (r *OrderRepository) loadItems(ctx context.Context, orderID string) ([]order.Item, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT product_id, sku, name, quantity, unit_price_cents
		FROM order_items
		WHERE order_id = $1
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order items: %w", err)
	}
	defer rows.Close()

	var items []order.Item
	for rows.Next() {
		var it order.Item
		if err := rows.Scan(&it.ProductID, &it.SKU, &it.Name, &it.Quantity, &it.UnitPriceCents); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, it)
	}

	return items, rows.Err()
}

// List returns a tenant's orders, newest first. Items are not loaded.
func (r *OrderRepository) List(ctx context.Context, tenantID string, filter order.ListFilter) ([]*order.Order, error) {
	query := `
		SELECT id, tenant_id, customer_id, status, pickup, total_cents, created_at, updated_at
		FROM orders
		WHERE tenant_id = $1
	`
	args := []any{tenantID}

	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(` AND status = $%d`, len(args))
	}
	if filter.CustomerID != "" {
		args = append(args, filter.CustomerID)
		query += fmt.Sprintf(` AND customer_id = $%d`, len(args))
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT %d OFFSET %d`, filter.Limit, filter.Offset)

	rows, err := r.db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	var orders []*order.Order
	for rows.Next() {
		var o order.Order
		err := rows.Scan(
			&o.ID, &o.TenantID, &o.CustomerID, &o.Status, &o.Pickup, &o.TotalCents,
			&o.CreatedAt, &o.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, &o)
	}

	return orders, rows.Err()
}

// UpdateStatus performs a guarded transition. The WHERE clause carries the
// expected current status, so two racing transitions cannot both win; the
// loser sees zero rows affected and gets ErrInvalidTransition.
func (r *OrderRepository) UpdateStatus(ctx context.Context, tenantID, orderID, from, to string) error {
	result, err := r.db.pool.Exec(ctx, `
		UPDATE orders SET status = $4, updated_at = NOW()
		WHERE tenant_id = $1 AND id = $2 AND status = $3
	`, tenantID, orderID, from, to)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}

	if result.RowsAffected() == 0 {
		if _, err := r.GetByID(ctx, tenantID, orderID); err != nil {
			return err
		}
		return order.ErrInvalidTransition
	}

	return nil
}

// AppendHistory records one status transition
func (r *OrderRepository) AppendHistory(ctx context.Context, entry *order.HistoryEntry) error {
	now := time.Now()
	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO order_status_history (id, order_id, tenant_id, from_status, to_status, actor_id, note, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, entry.ID, entry.OrderID, entry.TenantID, entry.From, entry.To, entry.ActorID, entry.Note, now)
	if err != nil {
		return fmt.Errorf("failed to append order history: %w", err)
	}

	entry.CreatedAt = now

	return nil
}

// History returns an order's transitions in chronological order
func (r *OrderRepository) History(ctx context.Context, tenantID, orderID string) ([]*order.HistoryEntry, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT id, order_id, tenant_id, from_status, to_status, actor_id, note, created_at
		FROM order_status_history
		WHERE tenant_id = $1 AND order_id = $2
		ORDER BY created_at
	`, tenantID, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order history: %w", err)
	}
	defer rows.Close()

	var entries []*order.HistoryEntry
	for rows.Next() {
		var e order.HistoryEntry
		err := rows.Scan(&e.ID, &e.OrderID, &e.TenantID, &e.From, &e.To, &e.ActorID, &e.Note, &e.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		entries = append(entries, &e)
	}

	return entries, rows.Err()
}

// ListStalePending returns pending orders created before cutoff, across all
// tenants. Only the auto-accept job calls this.
func (r *OrderRepository) ListStalePending(ctx context.Context, cutoff time.Time, limit int) ([]*order.Order, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT id, tenant_id, customer_id, status, pickup, total_cents, created_at, updated_at
		FROM orders
		WHERE status = $1 AND created_at < $2
		ORDER BY created_at
		LIMIT $3
	`, order.StatusPending, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list stale pending orders: %w", err)
	}
	defer rows.Close()

	var orders []*order.Order
	for rows.Next() {
		var o order.Order
		err := rows.Scan(
			&o.ID, &o.TenantID, &o.CustomerID, &o.Status, &o.Pickup, &o.TotalCents,
			&o.CreatedAt, &o.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, &o)
	}

	return orders, rows.Err()
}
