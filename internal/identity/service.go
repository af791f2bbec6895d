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
	"fmt"
	"strings"
	"time"

	"github.com/medikart/medikart/internal/audit"
	"github.com/medikart/medikart/internal/auth"
	"github.com/medikart/medikart/internal/id"
	"github.com/medikart/medikart/internal/notification"
)

// Service provides actor-related business logic
type Service struct {
	repo               ActorRepository
	hasher             *PasswordHasher
	auditLogger        audit.Logger
	publisher          notification.Publisher
	lockoutMaxAttempts int
	lockoutDuration    time.Duration
}

// NewService creates a new identity service
func NewService(
	repo ActorRepository,
	hasher *PasswordHasher,
	auditLogger audit.Logger,
	publisher notification.Publisher,
	lockoutMaxAttempts int,
	lockoutDuration time.Duration,
) *Service {
	return &Service{
		repo:               repo,
		hasher:             hasher,
		auditLogger:        auditLogger,
		publisher:          publisher,
		lockoutMaxAttempts: lockoutMaxAttempts,
		lockoutDuration:    lockoutDuration,
	}
}

// RegisterParams holds actor registration input.
type RegisterParams struct {
	TenantID string // empty only for super_admin
	Email    string
	Password string
	Name     string
	Phone    string
	Role     string
}

// Register creates a new actor with credentials. Admins and customers are
// bound to the given tenant; super admins reject any tenant binding.
func (s *Service) Register(ctx context.Context, p RegisterParams) (*Actor, error) {
	p.Email = strings.ToLower(strings.TrimSpace(p.Email))
	if !isValidEmail(p.Email) {
		return nil, ErrInvalidEmail
	}
	if !auth.ValidRole(p.Role) {
		return nil, fmt.Errorf("invalid role %q", p.Role)
	}
	if auth.TenantBound(p.Role) && p.TenantID == "" {
		return nil, fmt.Errorf("role %s requires a tenant", p.Role)
	}
	if !auth.TenantBound(p.Role) && p.TenantID != "" {
		return nil, fmt.Errorf("role %s must not carry a tenant", p.Role)
	}
	if !isStrongPassword(p.Password) {
		return nil, ErrWeakPassword
	}

	var tenantID *string
	if p.TenantID != "" {
		tenantID = &p.TenantID
	}

	if existing, err := s.repo.GetByEmail(ctx, tenantID, p.Email); err == nil && existing != nil {
		return nil, ErrActorAlreadyExists
	}

	now := time.Now()
	actor := &Actor{
		ID:        id.NewUUIDv7(),
		TenantID:  tenantID,
		Email:     p.Email,
		Role:      p.Role,
		Name:      p.Name,
		Phone:     p.Phone,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, actor); err != nil {
		return nil, fmt.Errorf("failed to create actor: %w", err)
	}

	passwordHash, err := s.hasher.Hash(p.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.repo.AddCredentials(ctx, &Credentials{
		ActorID:      actor.ID,
		PasswordHash: passwordHash,
	}); err != nil {
		return nil, fmt.Errorf("failed to store credentials: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeActorCreated,
		TenantID: p.TenantID,
		ActorID:  actor.ID,
		Resource: "actor",
		Metadata: map[string]any{"email": actor.Email, "role": actor.Role},
	})

	if actor.Role == auth.RoleCustomer {
		s.publisher.Publish(ctx, notification.Event{
			TenantID: p.TenantID,
			Type:     notification.EventCustomerRegistered,
			Payload: map[string]any{
				"actor_id": actor.ID,
				"email":    actor.Email,
				"name":     actor.Name,
			},
			OccurredAt: now,
		})
	}

	return actor, nil
}

// Authenticate authenticates an actor with email and password within a
// tenant. Pass a nil tenantID for super_admin login.
func (s *Service) Authenticate(ctx context.Context, tenantID *string, email, password string) (*Actor, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	tid := ""
	if tenantID != nil {
		tid = *tenantID
	}

	actor, err := s.repo.GetByEmail(ctx, tenantID, email)
	if err != nil {
		s.auditLogger.Log(ctx, audit.Event{
			Type:     audit.TypeLoginFailed,
			TenantID: tid,
			Resource: email,
			Metadata: map[string]any{audit.AttrReason: "actor_not_found"},
		})
		return nil, ErrInvalidCredentials
	}

	if !actor.Active {
		s.auditLogger.Log(ctx, audit.Event{
			Type:     audit.TypeLoginFailed,
			TenantID: tid,
			ActorID:  actor.ID,
			Resource: "login",
			Metadata: map[string]any{audit.AttrReason: "deactivated"},
		})
		return nil, ErrActorDeactivated
	}

	if actor.LockedUntil != nil && actor.LockedUntil.After(time.Now()) {
		s.auditLogger.Log(ctx, audit.Event{
			Type:     audit.TypeLoginFailed,
			TenantID: tid,
			ActorID:  actor.ID,
			Resource: "login",
			Metadata: map[string]any{audit.AttrReason: "locked_out"},
		})
		return nil, ErrAccountLocked
	}

	credentials, err := s.repo.GetCredentials(ctx, actor.ID)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	valid, err := s.hasher.Verify(password, credentials.PasswordHash)
	if err != nil || !valid {
		newAttempts := actor.FailedLoginAttempts + 1
		var newLockedUntil *time.Time

		if newAttempts >= s.lockoutMaxAttempts {
			until := time.Now().Add(s.lockoutDuration)
			newLockedUntil = &until
		}

		_ = s.repo.UpdateLockout(ctx, actor.ID, newAttempts, newLockedUntil)

		s.auditLogger.Log(ctx, audit.Event{
			Type:     audit.TypeLoginFailed,
			TenantID: tid,
			ActorID:  actor.ID,
			Resource: "login",
			Metadata: map[string]any{
				audit.AttrReason: "invalid_password",
				"attempts":       newAttempts,
			},
		})

		return nil, ErrInvalidCredentials
	}

	// Reset failed attempts if > 0
	if actor.FailedLoginAttempts > 0 || actor.LockedUntil != nil {
		_ = s.repo.UpdateLockout(ctx, actor.ID, 0, nil)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeLoginSuccess,
		TenantID: tid,
		ActorID:  actor.ID,
		Resource: "login",
	})

	return actor, nil
}

// Get retrieves an actor by ID
func (s *Service) Get(ctx context.Context, actorID string) (*Actor, error) {
	actor, err := s.repo.GetByID(ctx, actorID)
	if err != nil {
		return nil, ErrActorNotFound
	}
	return actor, nil
}

// UpdateProfile updates mutable actor fields.
func (s *Service) UpdateProfile(ctx context.Context, actorID, name, phone string) (*Actor, error) {
	actor, err := s.repo.GetByID(ctx, actorID)
	if err != nil {
		return nil, ErrActorNotFound
	}

	if name != "" {
		actor.Name = name
	}
	if phone != "" {
		actor.Phone = phone
	}
	actor.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, actor); err != nil {
		return nil, fmt.Errorf("failed to update actor: %w", err)
	}
	return actor, nil
}

// ChangePassword changes an actor's password after verifying the old one.
func (s *Service) ChangePassword(ctx context.Context, actorID, oldPassword, newPassword string) error {
	credentials, err := s.repo.GetCredentials(ctx, actorID)
	if err != nil {
		return ErrActorNotFound
	}

	valid, err := s.hasher.Verify(oldPassword, credentials.PasswordHash)
	if err != nil || !valid {
		return ErrInvalidCredentials
	}

	if !isStrongPassword(newPassword) {
		return ErrWeakPassword
	}

	newHash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.repo.UpdatePassword(ctx, actorID, newHash); err != nil {
		return err
	}

	tid := ""
	if actor, err := s.repo.GetByID(ctx, actorID); err == nil && actor.TenantID != nil {
		tid = *actor.TenantID
	}
	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypePasswordChanged,
		TenantID: tid,
		ActorID:  actorID,
		Resource: "credentials",
	})

	return nil
}

// Deactivate soft-deactivates an actor within a tenant.
func (s *Service) Deactivate(ctx context.Context, tenantID *string, actorID, requestedBy string) error {
	if err := s.repo.Deactivate(ctx, tenantID, actorID); err != nil {
		return err
	}

	tid := ""
	if tenantID != nil {
		tid = *tenantID
	}
	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeActorDeactivated,
		TenantID: tid,
		ActorID:  requestedBy,
		Resource: "actor",
		Metadata: map[string]any{"actor_id": actorID},
	})
	return nil
}

// ListByTenant lists actors of a given role within a tenant.
func (s *Service) ListByTenant(ctx context.Context, tenantID, role string, limit, offset int) ([]*Actor, error) {
	return s.repo.ListByTenant(ctx, tenantID, role, limit, offset)
}

// Helper functions
func isValidEmail(email string) bool {
	if len(email) < 3 || len(email) > 254 {
		return false
	}
	at := strings.Index(email, "@")
	return at > 0 && at < len(email)-1
}

func isStrongPassword(password string) bool {
	return len(password) >= 8
}
