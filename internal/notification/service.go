package notification

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/medikart/medikart/internal/audit"
	"github.com/medikart/medikart/internal/id"
)

// Service manages tenant webhook configuration and the delivery log.
type Service struct {
	endpoints   EndpointRepository
	deliveries  DeliveryRepository
	auditLogger audit.Logger
}

// NewService creates a new notification service
func NewService(endpoints EndpointRepository, deliveries DeliveryRepository, auditLogger audit.Logger) *Service {
	return &Service{
		endpoints:   endpoints,
		deliveries:  deliveries,
		auditLogger: auditLogger,
	}
}

// Configure sets or replaces the tenant's webhook endpoint.
func (s *Service) Configure(ctx context.Context, tenantID, actorID, rawURL, secret string, active bool) (*Endpoint, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid webhook url %q", rawURL)
	}

	now := time.Now()
	endpoint := &Endpoint{
		ID:        id.NewUUIDv7(),
		TenantID:  tenantID,
		URL:       rawURL,
		Secret:    secret,
		Active:    active,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.endpoints.Upsert(ctx, endpoint); err != nil {
		return nil, fmt.Errorf("failed to save webhook endpoint: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeWebhookConfigured,
		TenantID: tenantID,
		ActorID:  actorID,
		Resource: "webhook_endpoint",
		Metadata: map[string]any{"url": rawURL, "active": active},
	})

	return endpoint, nil
}

// Get returns the tenant's webhook endpoint.
func (s *Service) Get(ctx context.Context, tenantID string) (*Endpoint, error) {
	return s.endpoints.GetByTenant(ctx, tenantID)
}

// Deliveries lists the tenant's recent delivery outcomes, newest first.
func (s *Service) Deliveries(ctx context.Context, tenantID string, limit, offset int) ([]*Delivery, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.deliveries.ListByTenant(ctx, tenantID, limit, offset)
}
