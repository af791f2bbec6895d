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
	"encoding/json"
	"log/slog"
	"time"

	"github.com/medikart/medikart/internal/audit"
)

// AuditRepository implements audit.Logger, persisting events to the
// audit_events table. It is usually fanned out alongside the slog logger via
// audit.MultiLogger. Persistence failures are logged, never propagated: an
// audit outage must not fail the business operation.
type AuditRepository struct {
	db *DB
}

// NewAuditRepository creates a new audit event repository
func NewAuditRepository(db *DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Log persists one audit event
func (r *AuditRepository) Log(ctx context.Context, event audit.Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	var metadata []byte
	if len(event.Metadata) > 0 {
		var err error
		metadata, err = json.Marshal(event.Metadata)
		if err != nil {
			slog.ErrorContext(ctx, "failed to marshal audit metadata", "error", err, "event_type", event.Type)
			metadata = nil
		}
	}

	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO audit_events (event_type, tenant_id, actor_id, resource, metadata, ip_address, user_agent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		event.Type, event.TenantID, event.ActorID, event.Resource,
		metadata, event.IPAddress, event.UserAgent, event.Timestamp,
	)
	if err != nil {
		slog.ErrorContext(ctx, "failed to persist audit event", "error", err, "event_type", event.Type)
	}
}
