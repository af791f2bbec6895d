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

package tenant

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/medikart/medikart/internal/audit"
	"github.com/medikart/medikart/internal/id"
	"github.com/medikart/medikart/internal/notification"
)

var subdomainPattern = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]{1,61}[a-z0-9])?$`)

// Service provides tenant onboarding and lifecycle business logic
type Service struct {
	repo        Repository
	auditLogger audit.Logger
	publisher   notification.Publisher
}

// NewService creates a new tenant service
func NewService(repo Repository, auditLogger audit.Logger, publisher notification.Publisher) *Service {
	return &Service{
		repo:        repo,
		auditLogger: auditLogger,
		publisher:   publisher,
	}
}

// CreateParams holds tenant creation input.
type CreateParams struct {
	Name         string
	Subdomain    string
	BusinessType string
	// Approved tenants (provisioned by a super admin) start active;
	// self-service registrations start pending.
	Approved bool
	ActorID  string
}

// Create provisions a new tenant. Self-service tenants start in pending
// status and serve no traffic until activated.
func (s *Service) Create(ctx context.Context, p CreateParams) (*Tenant, error) {
	if p.Name == "" {
		return nil, fmt.Errorf("tenant name is required")
	}
	if !subdomainPattern.MatchString(p.Subdomain) {
		return nil, fmt.Errorf("invalid subdomain %q", p.Subdomain)
	}
	if p.BusinessType == "" {
		p.BusinessType = BusinessGeneral
	}

	if _, err := s.repo.GetBySubdomain(ctx, p.Subdomain); err == nil {
		return nil, ErrSubdomainTaken
	}

	status := StatusPending
	if p.Approved {
		status = StatusActive
	}

	now := time.Now()
	t := &Tenant{
		ID:           id.NewUUIDv7(),
		Name:         p.Name,
		Subdomain:    p.Subdomain,
		Status:       status,
		BusinessType: p.BusinessType,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to create tenant: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeTenantCreated,
		TenantID: t.ID,
		ActorID:  p.ActorID,
		Resource: "tenant",
		Metadata: map[string]any{"subdomain": t.Subdomain, "status": t.Status},
	})

	s.publisher.Publish(ctx, notification.Event{
		TenantID: t.ID,
		Type:     notification.EventTenantCreated,
		Payload: map[string]any{
			"name":      t.Name,
			"subdomain": t.Subdomain,
			"status":    t.Status,
		},
		OccurredAt: now,
	})

	return t, nil
}

// Get retrieves a tenant by ID
func (s *Service) Get(ctx context.Context, id string) (*Tenant, error) {
	return s.repo.GetByID(ctx, id)
}

// GetBySubdomain retrieves a tenant by its subdomain
func (s *Service) GetBySubdomain(ctx context.Context, subdomain string) (*Tenant, error) {
	return s.repo.GetBySubdomain(ctx, subdomain)
}

// List lists tenants with pagination. Super-admin only at the transport layer.
func (s *Service) List(ctx context.Context, limit, offset int) ([]*Tenant, error) {
	return s.repo.List(ctx, limit, offset)
}

// UpdateProfile updates mutable tenant profile fields.
func (s *Service) UpdateProfile(ctx context.Context, tenantID, actorID, name, businessType string) (*Tenant, error) {
	t, err := s.repo.GetByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	if name != "" {
		t.Name = name
	}
	if businessType != "" {
		t.BusinessType = businessType
	}
	t.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to update tenant: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeTenantUpdated,
		TenantID: t.ID,
		ActorID:  actorID,
		Resource: "tenant_profile",
	})

	return t, nil
}

// UpdateBranding replaces the tenant's branding fields.
func (s *Service) UpdateBranding(ctx context.Context, tenantID, actorID string, branding Branding) (*Tenant, error) {
	t, err := s.repo.GetByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	t.Branding = branding
	t.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to update branding: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeTenantUpdated,
		TenantID: t.ID,
		ActorID:  actorID,
		Resource: "tenant_branding",
	})

	return t, nil
}

// Activate transitions a tenant to active. Legal from pending or suspended.
func (s *Service) Activate(ctx context.Context, tenantID, actorID string) (*Tenant, error) {
	return s.transition(ctx, tenantID, actorID, StatusActive, audit.TypeTenantActivated)
}

// Suspend transitions a tenant to suspended. Legal from active only.
func (s *Service) Suspend(ctx context.Context, tenantID, actorID string) (*Tenant, error) {
	return s.transition(ctx, tenantID, actorID, StatusSuspended, audit.TypeTenantSuspended)
}

func (s *Service) transition(ctx context.Context, tenantID, actorID, target, auditType string) (*Tenant, error) {
	t, err := s.repo.GetByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	if !legalStatusChange(t.Status, target) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, t.Status, target)
	}

	from := t.Status
	t.Status = target
	t.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to update tenant status: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     auditType,
		TenantID: t.ID,
		ActorID:  actorID,
		Resource: "tenant_status",
		Metadata: map[string]any{"from": from, "to": target},
	})

	return t, nil
}

func legalStatusChange(from, to string) bool {
	switch to {
	case StatusActive:
		return from == StatusPending || from == StatusSuspended
	case StatusSuspended:
		return from == StatusActive
	}
	return false
}
