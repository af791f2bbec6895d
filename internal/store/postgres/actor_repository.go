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
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/medikart/medikart/internal/identity"
)

// ActorRepository implements identity.ActorRepository
type ActorRepository struct {
	db *DB
}

// NewActorRepository creates a new actor repository
func NewActorRepository(db *DB) *ActorRepository {
	return &ActorRepository{db: db}
}

const actorColumns = `id, tenant_id, email, role, name, phone, active,
	failed_login_attempts, locked_until, created_at, updated_at`

func scanActor(row pgx.Row) (*identity.Actor, error) {
	var a identity.Actor
	var lockedUntil sql.NullTime

	err := row.Scan(
		&a.ID, &a.TenantID, &a.Email, &a.Role, &a.Name, &a.Phone, &a.Active,
		&a.FailedLoginAttempts, &lockedUntil, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, identity.ErrActorNotFound
		}
		return nil, fmt.Errorf("failed to scan actor: %w", err)
	}

	if lockedUntil.Valid {
		a.LockedUntil = &lockedUntil.Time
	}

	return &a, nil
}

// Create inserts a new actor
func (r *ActorRepository) Create(ctx context.Context, actor *identity.Actor) error {
	now := time.Now()
	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO actors (
			id, tenant_id, email, role, name, phone, active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		actor.ID, actor.TenantID, actor.Email, actor.Role, actor.Name, actor.Phone, actor.Active,
		now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to insert actor: %w", err)
	}

	actor.CreatedAt = now
	actor.UpdatedAt = now

	return nil
}

// AddCredentials stores the password hash for an actor
func (r *ActorRepository) AddCredentials(ctx context.Context, credentials *identity.Credentials) error {
	now := time.Now()

	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO credentials (actor_id, password_hash, updated_at)
		VALUES ($1, $2, $3)
	`, credentials.ActorID, credentials.PasswordHash, now)
	if err != nil {
		return fmt.Errorf("failed to insert credentials: %w", err)
	}

	credentials.UpdatedAt = now

	return nil
}

// GetByID retrieves an actor by ID. Callers re-check the tenant binding.
func (r *ActorRepository) GetByID(ctx context.Context, id string) (*identity.Actor, error) {
	row := r.db.pool.QueryRow(ctx, `
		SELECT `+actorColumns+`
		FROM actors
		WHERE id = $1
	`, id)
	return scanActor(row)
}

// GetByEmail retrieves an actor by email within a tenant. A nil tenantID
// looks up the platform-level (super admin) namespace.
func (r *ActorRepository) GetByEmail(ctx context.Context, tenantID *string, email string) (*identity.Actor, error) {
	var row pgx.Row
	if tenantID == nil {
		row = r.db.pool.QueryRow(ctx, `
			SELECT `+actorColumns+`
			FROM actors
			WHERE tenant_id IS NULL AND email = $1
		`, email)
	} else {
		row = r.db.pool.QueryRow(ctx, `
			SELECT `+actorColumns+`
			FROM actors
			WHERE tenant_id = $1 AND email = $2
		`, *tenantID, email)
	}
	return scanActor(row)
}

// Update persists profile changes
func (r *ActorRepository) Update(ctx context.Context, actor *identity.Actor) error {
	result, err := r.db.pool.Exec(ctx, `
		UPDATE actors SET
			email = $2,
			name = $3,
			phone = $4,
			updated_at = NOW()
		WHERE id = $1
	`, actor.ID, actor.Email, actor.Name, actor.Phone)
	if err != nil {
		return fmt.Errorf("failed to update actor: %w", err)
	}

	if result.RowsAffected() == 0 {
		return identity.ErrActorNotFound
	}

	return nil
}

// UpdateLockout updates the failed-attempt counter and lockout expiry
func (r *ActorRepository) UpdateLockout(ctx context.Context, actorID string, failedAttempts int, lockedUntil *time.Time) error {
	_, err := r.db.pool.Exec(ctx, `
		UPDATE actors
		SET failed_login_attempts = $1, locked_until = $2, updated_at = NOW()
		WHERE id = $3
	`, failedAttempts, lockedUntil, actorID)
	if err != nil {
		return fmt.Errorf("failed to update actor lockout status: %w", err)
	}
	return nil
}

// Deactivate disables an actor within its tenant. A nil tenantID targets the
// platform-level namespace.
func (r *ActorRepository) Deactivate(ctx context.Context, tenantID *string, actorID string) error {
	var result pgconn.CommandTag
	var err error
	if tenantID == nil {
		result, err = r.db.pool.Exec(ctx, `
			UPDATE actors SET active = FALSE, updated_at = NOW()
			WHERE id = $1 AND tenant_id IS NULL
		`, actorID)
	} else {
		result, err = r.db.pool.Exec(ctx, `
			UPDATE actors SET active = FALSE, updated_at = NOW()
			WHERE id = $1 AND tenant_id = $2
		`, actorID, *tenantID)
	}
	if err != nil {
		return fmt.Errorf("failed to deactivate actor: %w", err)
	}

	if result.RowsAffected() == 0 {
		return identity.ErrActorNotFound
	}

	return nil
}

// GetCredentials retrieves the stored password hash
func (r *ActorRepository) GetCredentials(ctx context.Context, actorID string) (*identity.Credentials, error) {
	var creds identity.Credentials

	err := r.db.pool.QueryRow(ctx, `
		SELECT actor_id, password_hash, updated_at
		FROM credentials
		WHERE actor_id = $1
	`, actorID).Scan(&creds.ActorID, &creds.PasswordHash, &creds.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, identity.ErrActorNotFound
		}
		return nil, fmt.Errorf("failed to get credentials: %w", err)
	}

	return &creds, nil
}

// UpdatePassword replaces the stored password hash
func (r *ActorRepository) UpdatePassword(ctx context.Context, actorID, passwordHash string) error {
	result, err := r.db.pool.Exec(ctx, `
		UPDATE credentials SET password_hash = $2, updated_at = NOW()
		WHERE actor_id = $1
	`, actorID, passwordHash)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	if result.RowsAffected() == 0 {
		return identity.ErrActorNotFound
	}

	return nil
}

// ListByTenant returns a tenant's actors, optionally filtered by role
func (r *ActorRepository) ListByTenant(ctx context.Context, tenantID, role string, limit, offset int) ([]*identity.Actor, error) {
	query := `
		SELECT ` + actorColumns + `
		FROM actors
		WHERE tenant_id = $1
	`
	args := []any{tenantID}

	if role != "" {
		query += ` AND role = $2`
		args = append(args, role)
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT %d OFFSET %d`, limit, offset)

	rows, err := r.db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list actors: %w", err)
	}
	defer rows.Close()

	var actors []*identity.Actor
	for rows.Next() {
		a, err := scanActor(rows)
		if err != nil {
			return nil, err
		}
		actors = append(actors, a)
	}

	return actors, rows.Err()
}
