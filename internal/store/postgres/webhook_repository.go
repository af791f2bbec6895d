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
	"database/sql"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/medikart/medikart/internal/notification"
)

// WebhookEndpointRepository implements notification.EndpointRepository
type WebhookEndpointRepository struct {
	db *DB
}

// NewWebhookEndpointRepository creates a new webhook endpoint repository
func NewWebhookEndpointRepository(db *DB) *WebhookEndpointRepository {
	return &WebhookEndpointRepository{db: db}
}

// Upsert creates or replaces the tenant's endpoint configuration
func (r *WebhookEndpointRepository) Upsert(ctx context.Context, e *notification.Endpoint) error {
	now := time.Now()
	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO webhook_endpoints (id, tenant_id, url, secret, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		ON CONFLICT (tenant_id) DO UPDATE SET
			url = EXCLUDED.url,
			secret = EXCLUDED.secret,
			active = EXCLUDED.active,
			updated_at = EXCLUDED.updated_at
	`, e.ID, e.TenantID, e.URL, e.Secret, e.Active, now)
	if err != nil {
		return fmt.Errorf("failed to upsert webhook endpoint: %w", err)
	}

	e.UpdatedAt = now

	return nil
}

// GetByTenant retrieves the tenant's endpoint
func (r *WebhookEndpointRepository) GetByTenant(ctx context.Context, tenantID string) (*notification.Endpoint, error) {
	var e notification.Endpoint
	err := r.db.pool.QueryRow(ctx, `
		SELECT id, tenant_id, url, secret, active, created_at, updated_at
		FROM webhook_endpoints
		WHERE tenant_id = $1
	`, tenantID).Scan(&e.ID, &e.TenantID, &e.URL, &e.Secret, &e.Active, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, notification.ErrEndpointNotFound
		}
		return nil, fmt.Errorf("failed to get webhook endpoint: %w", err)
	}
	return &e, nil
}

// WebhookDeliveryRepository implements notification.DeliveryRepository
type WebhookDeliveryRepository struct {
	db *DB
}

// NewWebhookDeliveryRepository creates a new webhook delivery repository
func NewWebhookDeliveryRepository(db *DB) *WebhookDeliveryRepository {
	return &WebhookDeliveryRepository{db: db}
}

// Record stores the outcome of one delivery attempt chain
func (r *WebhookDeliveryRepository) Record(ctx context.Context, d *notification.Delivery) error {
	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO webhook_deliveries (
			id, tenant_id, endpoint_id, event_type, payload,
			status, attempts, last_error, created_at, completed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		d.ID, d.TenantID, d.EndpointID, d.EventType, d.Payload,
		d.Status, d.Attempts, d.LastError, d.CreatedAt, d.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record webhook delivery: %w", err)
	}
	return nil
}

// ListByTenant returns a tenant's delivery log, newest first
func (r *WebhookDeliveryRepository) ListByTenant(ctx context.Context, tenantID string, limit, offset int) ([]*notification.Delivery, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT id, tenant_id, endpoint_id, event_type, payload,
			status, attempts, last_error, created_at, completed_at
		FROM webhook_deliveries
		WHERE tenant_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, tenantID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list webhook deliveries: %w", err)
	}
	defer rows.Close()

	var deliveries []*notification.Delivery
	for rows.Next() {
		var d notification.Delivery
		var completedAt sql.NullTime
		err := rows.Scan(
			&d.ID, &d.TenantID, &d.EndpointID, &d.EventType, &d.Payload,
			&d.Status, &d.Attempts, &d.LastError, &d.CreatedAt, &completedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan webhook delivery: %w", err)
		}
		if completedAt.Valid {
			d.CompletedAt = &completedAt.Time
		}
		deliveries = append(deliveries, &d)
	}

	return deliveries, rows.Err()
}
