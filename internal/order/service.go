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

package order

import (
	"context"
	"fmt"
	"time"

	"github.com/medikart/medikart/internal/audit"
	"github.com/medikart/medikart/internal/catalog"
	"github.com/medikart/medikart/internal/id"
	"github.com/medikart/medikart/internal/notification"
)

// ProductSource is the slice of the catalog the order service needs.
type ProductSource interface {
	GetByID(ctx context.Context, tenantID, productID string) (*catalog.Product, error)
	AdjustStock(ctx context.Context, tenantID, productID string, delta int) error
}

// Service provides order lifecycle business logic
type Service struct {
	repo        Repository
	products    ProductSource
	publisher   notification.Publisher
	auditLogger audit.Logger
}

// NewService creates a new order service
func NewService(repo Repository, products ProductSource, publisher notification.Publisher, auditLogger audit.Logger) *Service {
	return &Service{
		repo:        repo,
		products:    products,
		publisher:   publisher,
		auditLogger: auditLogger,
	}
}

// PlaceParams holds order creation input.
type PlaceParams struct {
	CustomerID string
	Pickup     bool
	Items      []PlaceItem
}

// PlaceItem is one requested order line.
type PlaceItem struct {
	ProductID string
	Quantity  int
}

// Place creates a pending order, pricing each line from the tenant's
// catalog and reserving stock.
func (s *Service) Place(ctx context.Context, tenantID string, p PlaceParams) (*Order, error) {
	if len(p.Items) == 0 {
		return nil, ErrEmptyOrder
	}

	var items []Item
	var total int64
	for _, req := range p.Items {
		if req.Quantity <= 0 {
			return nil, fmt.Errorf("quantity for product %s must be positive", req.ProductID)
		}
		product, err := s.products.GetByID(ctx, tenantID, req.ProductID)
		if err != nil {
			return nil, fmt.Errorf("product %s: %w", req.ProductID, err)
		}
		if !product.Active {
			return nil, fmt.Errorf("product %s is not available", product.SKU)
		}
		if product.StockQty < req.Quantity {
			return nil, fmt.Errorf("%w: %s", ErrInsufficientStock, product.SKU)
		}
		items = append(items, Item{
			ProductID:      product.ID,
			SKU:            product.SKU,
			Name:           product.Name,
			Quantity:       req.Quantity,
			UnitPriceCents: product.PriceCents,
		})
		total += product.PriceCents * int64(req.Quantity)
	}

	now := time.Now()
	o := &Order{
		ID:         id.NewUUIDv7(),
		TenantID:   tenantID,
		CustomerID: p.CustomerID,
		Status:     StatusPending,
		Pickup:     p.Pickup,
		TotalCents: total,
		Items:      items,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.repo.Create(ctx, o); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	// Reserve stock after the order row exists; a failed adjustment leaves
	// the order pending for an admin to resolve rather than half-created.
	for _, item := range items {
		if err := s.products.AdjustStock(ctx, tenantID, item.ProductID, -item.Quantity); err != nil {
			return nil, fmt.Errorf("failed to reserve stock for %s: %w", item.SKU, err)
		}
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeOrderPlaced,
		TenantID: tenantID,
		ActorID:  p.CustomerID,
		Resource: "order",
		Metadata: map[string]any{"order_id": o.ID, "total_cents": total},
	})

	s.publisher.Publish(ctx, notification.Event{
		TenantID: tenantID,
		Type:     notification.EventOrderPlaced,
		Payload: map[string]any{
			"order_id":    o.ID,
			"customer_id": o.CustomerID,
			"total_cents": o.TotalCents,
			"pickup":      o.Pickup,
		},
		OccurredAt: now,
	})

	return o, nil
}

// Get retrieves an order within a tenant.
func (s *Service) Get(ctx context.Context, tenantID, orderID string) (*Order, error) {
	return s.repo.GetByID(ctx, tenantID, orderID)
}

// List lists a tenant's orders.
func (s *Service) List(ctx context.Context, tenantID string, filter ListFilter) ([]*Order, error) {
	if filter.Limit <= 0 || filter.Limit > 200 {
		filter.Limit = 50
	}
	return s.repo.List(ctx, tenantID, filter)
}

// History returns the transition log for an order.
func (s *Service) History(ctx context.Context, tenantID, orderID string) ([]*HistoryEntry, error) {
	if _, err := s.repo.GetByID(ctx, tenantID, orderID); err != nil {
		return nil, err
	}
	return s.repo.History(ctx, tenantID, orderID)
}

// Transition moves an order along a legal edge of the status machine.
// Re-invoking a transition (same target as current status) or requesting an
// illegal edge returns ErrInvalidTransition; nothing is silently absorbed.
func (s *Service) Transition(ctx context.Context, tenantID, orderID, target, actorID, note string) (*Order, error) {
	if !ValidStatus(target) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, target)
	}

	o, err := s.repo.GetByID(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}

	if target == StatusReadyForPickup && !o.Pickup {
		return nil, fmt.Errorf("%w: order is not a pickup order", ErrInvalidTransition)
	}
	if !CanTransition(o.Status, target) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, target)
	}

	from := o.Status
	if err := s.repo.UpdateStatus(ctx, tenantID, orderID, from, target); err != nil {
		return nil, err
	}

	entry := &HistoryEntry{
		ID:        id.NewUUIDv7(),
		OrderID:   orderID,
		TenantID:  tenantID,
		From:      from,
		To:        target,
		ActorID:   actorID,
		Note:      note,
		CreatedAt: time.Now(),
	}
	if err := s.repo.AppendHistory(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to append history: %w", err)
	}

	auditType := audit.TypeOrderTransitioned
	if target == StatusCancelled {
		auditType = audit.TypeOrderCancelled
	}
	s.auditLogger.Log(ctx, audit.Event{
		Type:     auditType,
		TenantID: tenantID,
		ActorID:  actorID,
		Resource: "order",
		Metadata: map[string]any{"order_id": orderID, "from": from, "to": target},
	})

	s.publisher.Publish(ctx, notification.Event{
		TenantID: tenantID,
		Type:     notification.EventOrderStatusChanged,
		Payload: map[string]any{
			"order_id": orderID,
			"from":     from,
			"to":       target,
		},
		OccurredAt: entry.CreatedAt,
	})

	o.Status = target
	o.UpdatedAt = entry.CreatedAt
	return o, nil
}

// Cancel cancels an order from any pre-terminal state and restocks its items.
func (s *Service) Cancel(ctx context.Context, tenantID, orderID, actorID, note string) (*Order, error) {
	o, err := s.Transition(ctx, tenantID, orderID, StatusCancelled, actorID, note)
	if err != nil {
		return nil, err
	}

	for _, item := range o.Items {
		if err := s.products.AdjustStock(ctx, tenantID, item.ProductID, item.Quantity); err != nil {
			// Order is already cancelled; restock failures are surfaced to
			// the caller but do not roll the cancellation back.
			return o, fmt.Errorf("failed to restock %s: %w", item.SKU, err)
		}
	}
	return o, nil
}
