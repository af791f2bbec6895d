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
	"errors"
	"time"
)

// Domain errors
var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrEmptyOrder        = errors.New("order has no items")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidTransition = errors.New("invalid order status transition")
)

// Order statuses
const (
	StatusPending        = "pending"
	StatusAccepted       = "accepted"
	StatusPacked         = "packed"
	StatusDispatched     = "dispatched"
	StatusDelivered      = "delivered"
	StatusReadyForPickup = "ready_for_pickup"
	StatusCancelled      = "cancelled"
)

// Order is a tenant-scoped purchase with a status machine lifecycle.
type Order struct {
	ID         string    `json:"id"`
	TenantID   string    `json:"tenant_id"`
	CustomerID string    `json:"customer_id"`
	Status     string    `json:"status"`
	Pickup     bool      `json:"pickup"`
	TotalCents int64     `json:"total_cents"`
	Items      []Item    `json:"items"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Item is one order line.
type Item struct {
	ProductID      string `json:"product_id"`
	SKU            string `json:"sku"`
	Name           string `json:"name"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int64  `json:"unit_price_cents"`
}

// HistoryEntry records one status transition.
type HistoryEntry struct {
	ID        string    `json:"id"`
	OrderID   string    `json:"order_id"`
	TenantID  string    `json:"tenant_id"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	ActorID   string    `json:"actor_id,omitempty"`
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ListFilter narrows List results.
type ListFilter struct {
	Status     string
	CustomerID string
	Limit      int
	Offset     int
}

// Repository defines order persistence. Every method is tenant-scoped.
type Repository interface {
	Create(ctx context.Context, order *Order) error
	GetByID(ctx context.Context, tenantID, orderID string) (*Order, error)
	List(ctx context.Context, tenantID string, filter ListFilter) ([]*Order, error)
	// UpdateStatus performs a guarded transition: the row is only updated
	// when its current status equals from. Returns ErrInvalidTransition
	// when the guard misses, which makes concurrent transitions safe.
	UpdateStatus(ctx context.Context, tenantID, orderID, from, to string) error
	AppendHistory(ctx context.Context, entry *HistoryEntry) error
	History(ctx context.Context, tenantID, orderID string) ([]*HistoryEntry, error)
	// ListStalePending returns pending orders older than cutoff, across all
	// tenants. Used only by the auto-accept job.
	ListStalePending(ctx context.Context, cutoff time.Time, limit int) ([]*Order, error)
}
