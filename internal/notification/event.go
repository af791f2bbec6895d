package notification

import (
	"context"
	"time"
)

// Business event types published to tenant webhooks.
const (
	EventOrderPlaced        = "order_placed"
	EventOrderStatusChanged = "order_status_changed"
	EventCustomerRegistered = "customer_registered"
	EventTenantCreated      = "tenant_created"
)

// Event is one business occurrence delivered to a tenant's webhook endpoint.
type Event struct {
	ID         string         `json:"id"`
	TenantID   string         `json:"tenant_id"`
	Type       string         `json:"type"`
	Payload    map[string]any `json:"payload"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// Publisher accepts business events for asynchronous delivery. Publish never
// blocks request handling on network I/O.
type Publisher interface {
	Publish(ctx context.Context, event Event)
}

// NopPublisher discards all events. Used in tests and when webhooks are
// disabled for a deployment.
type NopPublisher struct{}

func (NopPublisher) Publish(ctx context.Context, event Event) {}
