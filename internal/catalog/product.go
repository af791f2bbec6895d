package catalog

import (
	"context"
	"errors"
	"time"
)

// Domain errors
var (
	ErrProductNotFound   = errors.New("product not found")
	ErrSKUTaken          = errors.New("sku already exists in this tenant")
	ErrInvalidPrice      = errors.New("price must be non-negative")
	ErrInvalidStock      = errors.New("stock must be non-negative")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// Product is a tenant-scoped catalog entry. Prices are integer paise/cents;
// no floats anywhere near money.
type Product struct {
	ID                   string    `json:"id"`
	TenantID             string    `json:"tenant_id"`
	SKU                  string    `json:"sku"`
	Name                 string    `json:"name"`
	Description          string    `json:"description,omitempty"`
	Category             string    `json:"category,omitempty"`
	PriceCents           int64     `json:"price_cents"`
	StockQty             int       `json:"stock_qty"`
	RequiresPrescription bool      `json:"requires_prescription"`
	Active               bool      `json:"active"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// ListFilter narrows List results.
type ListFilter struct {
	Category   string
	ActiveOnly bool
	Limit      int
	Offset     int
}

// Repository defines product persistence. Every method requires the owning
// tenant ID; there is deliberately no way to fetch a product without one.
type Repository interface {
	Create(ctx context.Context, product *Product) error
	GetByID(ctx context.Context, tenantID, productID string) (*Product, error)
	GetBySKU(ctx context.Context, tenantID, sku string) (*Product, error)
	Update(ctx context.Context, product *Product) error
	List(ctx context.Context, tenantID string, filter ListFilter) ([]*Product, error)
	AdjustStock(ctx context.Context, tenantID, productID string, delta int) error
}
