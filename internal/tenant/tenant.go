package tenant

import (
	"time"
)

// Tenant represents one isolated business account on the platform.
// Tenants are never hard-deleted; lifecycle is expressed through Status.
type Tenant struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Subdomain    string    `json:"subdomain"`
	Status       string    `json:"status"`
	BusinessType string    `json:"business_type"`
	Branding     Branding  `json:"branding"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Branding holds per-tenant storefront customization.
type Branding struct {
	LogoURL        string `json:"logo_url,omitempty"`
	PrimaryColor   string `json:"primary_color,omitempty"`
	SecondaryColor string `json:"secondary_color,omitempty"`
	SupportPhone   string `json:"support_phone,omitempty"`
}

// Status values
const (
	StatusPending   = "pending"
	StatusActive    = "active"
	StatusSuspended = "suspended"
)

// Business type classifications
const (
	BusinessPharmacy = "pharmacy"
	BusinessGrocery  = "grocery"
	BusinessGeneral  = "general"
)

// IsActive reports whether the tenant may serve traffic.
func (t *Tenant) IsActive() bool {
	return t.Status == StatusActive
}

// ValidStatus reports whether s is a known tenant status.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusActive, StatusSuspended:
		return true
	}
	return false
}
