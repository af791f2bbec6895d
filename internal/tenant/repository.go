package tenant

import (
	"context"
	"errors"
)

var (
	ErrTenantNotFound    = errors.New("tenant not found")
	ErrSubdomainTaken    = errors.New("subdomain already in use")
	ErrInvalidTransition = errors.New("invalid tenant status transition")
)

// Repository defines the interface for the tenant directory. This is the
// only place cross-tenant lookups exist: every other repository in the
// system requires a tenant ID on every call.
type Repository interface {
	Create(ctx context.Context, tenant *Tenant) error
	GetByID(ctx context.Context, id string) (*Tenant, error)
	GetBySubdomain(ctx context.Context, subdomain string) (*Tenant, error)
	Update(ctx context.Context, tenant *Tenant) error
	List(ctx context.Context, limit, offset int) ([]*Tenant, error)
}
