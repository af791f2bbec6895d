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

	"github.com/medikart/medikart/internal/loyalty"
)

// LedgerRepository implements loyalty.Repository. The ledger is append-only;
// balances are computed with SUM and never stored.
type LedgerRepository struct {
	db *DB
}

// NewLedgerRepository creates a new loyalty ledger repository
func NewLedgerRepository(db *DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// Append inserts a ledger entry. Debits are guarded against the summed
// balance inside the statement, so concurrent redemptions cannot drive a
// customer's balance negative; a failed guard inserts nothing and returns
// loyalty.ErrInsufficientCredit.
func (r *LedgerRepository) Append(ctx context.Context, entry *loyalty.Entry) error {
	now := time.Now()
	result, err := r.db.pool.Exec(ctx, `
		INSERT INTO loyalty_ledger (id, tenant_id, customer_id, kind, amount, reference, note, created_at)
		SELECT $1, $2, $3, $4, $5, $6, $7, $8
		WHERE $5 >= 0 OR (
			SELECT COALESCE(SUM(amount), 0)
			FROM loyalty_ledger
			WHERE tenant_id = $2 AND customer_id = $3
		) + $5 >= 0
	`, entry.ID, entry.TenantID, entry.CustomerID, entry.Kind, entry.Amount, entry.Reference, entry.Note, now)
	if err != nil {
		return fmt.Errorf("failed to insert ledger entry: %w", err)
	}

	if result.RowsAffected() == 0 {
		return loyalty.ErrInsufficientCredit
	}

	entry.CreatedAt = now

	return nil
}

// Balance sums a customer's entries. No rows means zero balance.
func (r *LedgerRepository) Balance(ctx context.Context, tenantID, customerID string) (int64, error) {
	var balance int64
	err := r.db.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0)
		FROM loyalty_ledger
		WHERE tenant_id = $1 AND customer_id = $2
	`, tenantID, customerID).Scan(&balance)
	if err != nil {
		return 0, fmt.Errorf("failed to compute balance: %w", err)
	}
	return balance, nil
}

// History returns a customer's entries, newest first
func (r *LedgerRepository) History(ctx context.Context, tenantID, customerID string, limit, offset int) ([]*loyalty.Entry, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT id, tenant_id, customer_id, kind, amount, reference, note, created_at
		FROM loyalty_ledger
		WHERE tenant_id = $1 AND customer_id = $2
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`, tenantID, customerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger history: %w", err)
	}
	defer rows.Close()

	var entries []*loyalty.Entry
	for rows.Next() {
		var e loyalty.Entry
		err := rows.Scan(&e.ID, &e.TenantID, &e.CustomerID, &e.Kind, &e.Amount, &e.Reference, &e.Note, &e.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		entries = append(entries, &e)
	}

	return entries, rows.Err()
}
