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

package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/medikart/medikart/internal/audit"
	"github.com/medikart/medikart/internal/id"
)

// Service provides product catalog business logic
type Service struct {
	repo        Repository
	auditLogger audit.Logger
}

// NewService creates a new catalog service
func NewService(repo Repository, auditLogger audit.Logger) *Service {
	return &Service{
		repo:        repo,
		auditLogger: auditLogger,
	}
}

// CreateParams holds product creation input.
type CreateParams struct {
	SKU                  string
	Name                 string
	Description          string
	Category             string
	PriceCents           int64
	StockQty             int
	RequiresPrescription bool
}

// Create adds a product to the tenant's catalog.
func (s *Service) Create(ctx context.Context, tenantID, actorID string, p CreateParams) (*Product, error) {
	if p.SKU == "" || p.Name == "" {
		return nil, fmt.Errorf("sku and name are required")
	}
	if p.PriceCents < 0 {
		return nil, ErrInvalidPrice
	}
	if p.StockQty < 0 {
		return nil, ErrInvalidStock
	}

	if _, err := s.repo.GetBySKU(ctx, tenantID, p.SKU); err == nil {
		return nil, ErrSKUTaken
	}

	now := time.Now()
	product := &Product{
		ID:                   id.NewUUIDv7(),
		TenantID:             tenantID,
		SKU:                  p.SKU,
		Name:                 p.Name,
		Description:          p.Description,
		Category:             p.Category,
		PriceCents:           p.PriceCents,
		StockQty:             p.StockQty,
		RequiresPrescription: p.RequiresPrescription,
		Active:               true,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	if err := s.repo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeProductCreated,
		TenantID: tenantID,
		ActorID:  actorID,
		Resource: "product",
		Metadata: map[string]any{"sku": product.SKU},
	})

	return product, nil
}

// Get retrieves a product within a tenant.
func (s *Service) Get(ctx context.Context, tenantID, productID string) (*Product, error) {
	return s.repo.GetByID(ctx, tenantID, productID)
}

// List lists products in a tenant's catalog.
func (s *Service) List(ctx context.Context, tenantID string, filter ListFilter) ([]*Product, error) {
	if filter.Limit <= 0 || filter.Limit > 200 {
		filter.Limit = 50
	}
	return s.repo.List(ctx, tenantID, filter)
}

// UpdateParams holds mutable product fields; nil means unchanged.
type UpdateParams struct {
	Name                 *string
	Description          *string
	Category             *string
	PriceCents           *int64
	RequiresPrescription *bool
}

// Update mutates a product within a tenant.
func (s *Service) Update(ctx context.Context, tenantID, productID string, p UpdateParams) (*Product, error) {
	product, err := s.repo.GetByID(ctx, tenantID, productID)
	if err != nil {
		return nil, err
	}

	if p.Name != nil {
		product.Name = *p.Name
	}
	if p.Description != nil {
		product.Description = *p.Description
	}
	if p.Category != nil {
		product.Category = *p.Category
	}
	if p.PriceCents != nil {
		if *p.PriceCents < 0 {
			return nil, ErrInvalidPrice
		}
		product.PriceCents = *p.PriceCents
	}
	if p.RequiresPrescription != nil {
		product.RequiresPrescription = *p.RequiresPrescription
	}
	product.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	return product, nil
}

// SetStock sets the absolute stock quantity.
func (s *Service) SetStock(ctx context.Context, tenantID, productID string, qty int) (*Product, error) {
	if qty < 0 {
		return nil, ErrInvalidStock
	}
	product, err := s.repo.GetByID(ctx, tenantID, productID)
	if err != nil {
		return nil, err
	}
	product.StockQty = qty
	product.UpdatedAt = time.Now()
	if err := s.repo.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to set stock: %w", err)
	}
	return product, nil
}

// Deactivate hides a product from the storefront without deleting it.
func (s *Service) Deactivate(ctx context.Context, tenantID, productID string) error {
	product, err := s.repo.GetByID(ctx, tenantID, productID)
	if err != nil {
		return err
	}
	product.Active = false
	product.UpdatedAt = time.Now()
	return s.repo.Update(ctx, product)
}
