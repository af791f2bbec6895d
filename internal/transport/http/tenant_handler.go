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

package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/medikart/medikart/internal/auth"
	"github.com/medikart/medikart/internal/identity"
	"github.com/medikart/medikart/internal/observability/logger"
	"github.com/medikart/medikart/internal/tenant"
)

// CreateTenantRequest represents tenant onboarding data
type CreateTenantRequest struct {
	Name         string `json:"name" binding:"required" example:"Apollo Pharmacy"`
	Subdomain    string `json:"subdomain" binding:"required" example:"apollo"`
	BusinessType string `json:"business_type" example:"pharmacy"`
	Approved     bool   `json:"approved"`
}

// CreateTenant onboards a new tenant
// @Summary Create Tenant
// @Description Onboard a new tenant. Approved tenants start active; others start pending.
// @Tags Tenants
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateTenantRequest true "Tenant Data"
// @Success 201 {object} tenant.Tenant
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /platform/tenants [post]
func (h *Handler) CreateTenant(w http.ResponseWriter, r *http.Request) {
	var req CreateTenantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tn, err := h.tenantService.Create(r.Context(), tenant.CreateParams{
		Name:         req.Name,
		Subdomain:    req.Subdomain,
		BusinessType: req.BusinessType,
		Approved:     req.Approved,
		ActorID:      GetActorID(r.Context()),
	})
	if err != nil {
		switch {
		case errors.Is(err, tenant.ErrSubdomainTaken):
			respondError(w, http.StatusConflict, "subdomain already in use")
		default:
			slog.ErrorContext(r.Context(), "failed to create tenant", logger.Error(err))
			respondError(w, http.StatusBadRequest, err.Error())
		}
		return
	}

	respondJSON(w, http.StatusCreated, tn)
}

// ListTenants returns the tenant directory
// @Summary List Tenants
// @Description List all tenants on the platform
// @Tags Tenants
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]any
// @Router /platform/tenants [get]
func (h *Handler) ListTenants(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	tenants, err := h.tenantService.List(r.Context(), limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list tenants")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"tenants": tenants})
}

// GetTenant returns one tenant
// @Summary Get Tenant
// @Description Retrieve a tenant by ID
// @Tags Tenants
// @Produce json
// @Security BearerAuth
// @Param tenantID path string true "Tenant ID"
// @Success 200 {object} tenant.Tenant
// @Failure 404 {object} map[string]string
// @Router /platform/tenants/{tenantID} [get]
func (h *Handler) GetTenant(w http.ResponseWriter, r *http.Request) {
	tn, err := h.tenantService.Get(r.Context(), chi.URLParam(r, "tenantID"))
	if err != nil {
		respondError(w, http.StatusNotFound, "tenant not found")
		return
	}
	respondJSON(w, http.StatusOK, tn)
}

// UpdateTenantProfileRequest represents tenant profile changes
type UpdateTenantProfileRequest struct {
	Name         string `json:"name"`
	BusinessType string `json:"business_type"`
}

// UpdateTenantProfile updates a tenant's profile
// @Summary Update Tenant Profile
// @Description Update a tenant's name and business type
// @Tags Tenants
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param tenantID path string true "Tenant ID"
// @Param request body UpdateTenantProfileRequest true "Profile Data"
// @Success 200 {object} tenant.Tenant
// @Failure 400 {object} map[string]string
// @Router /platform/tenants/{tenantID}/profile [put]
func (h *Handler) UpdateTenantProfile(w http.ResponseWriter, r *http.Request) {
	var req UpdateTenantProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tn, err := h.tenantService.UpdateProfile(r.Context(), chi.URLParam(r, "tenantID"), GetActorID(r.Context()), req.Name, req.BusinessType)
	if err != nil {
		switch {
		case errors.Is(err, tenant.ErrTenantNotFound):
			respondError(w, http.StatusNotFound, "tenant not found")
		default:
			respondError(w, http.StatusBadRequest, err.Error())
		}
		return
	}

	respondJSON(w, http.StatusOK, tn)
}

// UpdateTenantBranding updates a tenant's branding
// @Summary Update Tenant Branding
// @Description Update a tenant's storefront branding
// @Tags Tenants
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param tenantID path string true "Tenant ID"
// @Param request body tenant.Branding true "Branding Data"
// @Success 200 {object} tenant.Tenant
// @Failure 400 {object} map[string]string
// @Router /platform/tenants/{tenantID}/branding [put]
func (h *Handler) UpdateTenantBranding(w http.ResponseWriter, r *http.Request) {
	var branding tenant.Branding
	if err := json.NewDecoder(r.Body).Decode(&branding); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tn, err := h.tenantService.UpdateBranding(r.Context(), chi.URLParam(r, "tenantID"), GetActorID(r.Context()), branding)
	if err != nil {
		switch {
		case errors.Is(err, tenant.ErrTenantNotFound):
			respondError(w, http.StatusNotFound, "tenant not found")
		default:
			respondError(w, http.StatusBadRequest, err.Error())
		}
		return
	}

	respondJSON(w, http.StatusOK, tn)
}

// ActivateTenant transitions a tenant to active
// @Summary Activate Tenant
// @Description Activate a pending or suspended tenant
// @Tags Tenants
// @Produce json
// @Security BearerAuth
// @Param tenantID path string true "Tenant ID"
// @Success 200 {object} tenant.Tenant
// @Failure 409 {object} map[string]string
// @Router /platform/tenants/{tenantID}/activate [post]
func (h *Handler) ActivateTenant(w http.ResponseWriter, r *http.Request) {
	h.transitionTenant(w, r, h.tenantService.Activate)
}

// SuspendTenant transitions a tenant to suspended
// @Summary Suspend Tenant
// @Description Suspend an active tenant
// @Tags Tenants
// @Produce json
// @Security BearerAuth
// @Param tenantID path string true "Tenant ID"
// @Success 200 {object} tenant.Tenant
// @Failure 409 {object} map[string]string
// @Router /platform/tenants/{tenantID}/suspend [post]
func (h *Handler) SuspendTenant(w http.ResponseWriter, r *http.Request) {
	h.transitionTenant(w, r, h.tenantService.Suspend)
}

func (h *Handler) transitionTenant(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, tenantID, actorID string) (*tenant.Tenant, error)) {
	tn, err := fn(r.Context(), chi.URLParam(r, "tenantID"), GetActorID(r.Context()))
	if err != nil {
		switch {
		case errors.Is(err, tenant.ErrTenantNotFound):
			respondError(w, http.StatusNotFound, "tenant not found")
		case errors.Is(err, tenant.ErrInvalidTransition):
			respondError(w, http.StatusConflict, "tenant cannot make that status transition")
		default:
			respondError(w, http.StatusInternalServerError, "failed to update tenant status")
		}
		return
	}
	respondJSON(w, http.StatusOK, tn)
}

// ProvisionAdminRequest represents tenant admin provisioning data
type ProvisionAdminRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
}

// ProvisionTenantAdmin creates an admin account inside a tenant
// @Summary Provision Tenant Admin
// @Description Create an admin account bound to the given tenant
// @Tags Tenants
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param tenantID path string true "Tenant ID"
// @Param request body ProvisionAdminRequest true "Admin Data"
// @Success 201 {object} map[string]any
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /platform/tenants/{tenantID}/admins [post]
func (h *Handler) ProvisionTenantAdmin(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenantID")

	if _, err := h.tenantService.Get(r.Context(), tenantID); err != nil {
		respondError(w, http.StatusNotFound, "tenant not found")
		return
	}

	var req ProvisionAdminRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	actor, err := h.identityService.Register(r.Context(), identity.RegisterParams{
		TenantID: tenantID,
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Phone:    req.Phone,
		Role:     auth.RoleAdmin,
	})
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrActorAlreadyExists):
			respondError(w, http.StatusConflict, "account already exists")
		case errors.Is(err, identity.ErrInvalidEmail), errors.Is(err, identity.ErrWeakPassword):
			respondError(w, http.StatusBadRequest, err.Error())
		default:
			slog.ErrorContext(r.Context(), "failed to provision admin", logger.Error(err), logger.TenantID(tenantID))
			respondError(w, http.StatusInternalServerError, "failed to provision admin")
		}
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"actor_id":  actor.ID,
		"email":     actor.Email,
		"role":      actor.Role,
		"tenant_id": tenantID,
	})
}
