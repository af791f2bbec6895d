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

package identity

import (
	"context"
	"errors"
	"time"
)

// Domain errors
var (
	ErrActorNotFound      = errors.New("actor not found")
	ErrActorAlreadyExists = errors.New("actor already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrWeakPassword       = errors.New("password does not meet security requirements")
	ErrAccountLocked      = errors.New("account is locked")
	ErrActorDeactivated   = errors.New("actor is deactivated")
)

// Actor represents an authenticated principal: a platform super admin, a
// tenant admin, or a tenant customer. Admins and customers are bound to
// exactly one tenant; super admins carry no tenant binding at all.
type Actor struct {
	ID                  string
	TenantID            *string // nil only for super_admin
	Email               string
	Role                string
	Name                string
	Phone               string
	Active              bool
	FailedLoginAttempts int
	LockedUntil         *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Credentials represents actor authentication credentials
type Credentials struct {
	ActorID      string
	PasswordHash string
	UpdatedAt    time.Time
}

// ActorRepository defines the interface for actor persistence.
// Tenant-scoped lookups take the tenant ID explicitly; only GetByID is
// cross-tenant, and its callers re-check the tenant binding.
type ActorRepository interface {
	Create(ctx context.Context, actor *Actor) error
	AddCredentials(ctx context.Context, credentials *Credentials) error
	GetByID(ctx context.Context, id string) (*Actor, error)
	GetByEmail(ctx context.Context, tenantID *string, email string) (*Actor, error)
	Update(ctx context.Context, actor *Actor) error
	UpdateLockout(ctx context.Context, actorID string, failedAttempts int, lockedUntil *time.Time) error
	Deactivate(ctx context.Context, tenantID *string, actorID string) error
	GetCredentials(ctx context.Context, actorID string) (*Credentials, error)
	UpdatePassword(ctx context.Context, actorID, passwordHash string) error
	ListByTenant(ctx context.Context, tenantID, role string, limit, offset int) ([]*Actor, error)
}
