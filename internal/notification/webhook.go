package notification

import (
	"context"
	"errors"
	"time"
)

var ErrEndpointNotFound = errors.New("webhook endpoint not found")

// Delivery statuses
const (
	DeliveryDelivered = "delivered"
	DeliveryFailed    = "failed"
)

// Endpoint is a tenant's outbound webhook configuration (e.g. an n8n
// workflow URL). One endpoint per tenant; reconfiguring replaces it.
type Endpoint struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenant_id"`
	URL       string    `json:"url"`
	Secret    string    `json:"-"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Delivery is the recorded outcome of one event delivery attempt chain.
type Delivery struct {
	ID          string     `json:"id"`
	TenantID    string     `json:"tenant_id"`
	EndpointID  string     `json:"endpoint_id"`
	EventType   string     `json:"event_type"`
	Payload     []byte     `json:"-"`
	Status      string     `json:"status"`
	Attempts    int        `json:"attempts"`
	LastError   string     `json:"last_error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// EndpointRepository defines webhook endpoint persistence.
type EndpointRepository interface {
	Upsert(ctx context.Context, endpoint *Endpoint) error
	GetByTenant(ctx context.Context, tenantID string) (*Endpoint, error)
}

// DeliveryRepository records delivery outcomes for manual inspection.
type DeliveryRepository interface {
	Record(ctx context.Context, delivery *Delivery) error
	ListByTenant(ctx context.Context, tenantID string, limit, offset int) ([]*Delivery, error)
}
