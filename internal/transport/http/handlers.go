// @title Medikart API
// @version 1.0.0
// @description Multi-tenant pharmacy and quick-commerce platform
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url http://www.swagger.io/support
// @contact.email support@swagger.io

// @license.name Apache 2.0
// @license.url https://www.apache.org/licenses/LICENSE-2.0

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/medikart/medikart/internal/audit"
	"github.com/medikart/medikart/internal/auth"
	"github.com/medikart/medikart/internal/catalog"
	"github.com/medikart/medikart/internal/identity"
	"github.com/medikart/medikart/internal/loyalty"
	"github.com/medikart/medikart/internal/notification"
	"github.com/medikart/medikart/internal/observability/logger"
	"github.com/medikart/medikart/internal/order"
	"github.com/medikart/medikart/internal/tenant"
	"github.com/medikart/medikart/internal/upload"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Handler holds HTTP handlers and dependencies
type Handler struct {
	identityService *identity.Service
	tenantService   *tenant.Service
	catalogService  *catalog.Service
	orderService    *order.Service
	loyaltyService  *loyalty.Service
	webhookService  *notification.Service
	uploads         *upload.Store
	tokens          *auth.TokenIssuer
	auditLogger     audit.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(
	identityService *identity.Service,
	tenantService *tenant.Service,
	catalogService *catalog.Service,
	orderService *order.Service,
	loyaltyService *loyalty.Service,
	webhookService *notification.Service,
	uploads *upload.Store,
	tokens *auth.TokenIssuer,
	auditLogger audit.Logger,
) *Handler {
	return &Handler{
		identityService: identityService,
		tenantService:   tenantService,
		catalogService:  catalogService,
		orderService:    orderService,
		loyaltyService:  loyaltyService,
		webhookService:  webhookService,
		uploads:         uploads,
		tokens:          tokens,
		auditLogger:     auditLogger,
	}
}

// NewRouter creates a new HTTP router
func NewRouter(h *Handler, resolver *TenantResolver, rateLimiter *RateLimiter) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(RateLimitMiddleware(rateLimiter))
	r.Use(func(handler http.Handler) http.Handler {
		return otelhttp.NewHandler(handler, "http_request",
			otelhttp.WithSpanNameFormatter(func(operation string, r *http.Request) string {
				return r.Method + " " + r.URL.Path
			}),
		)
	})
	r.Use(LoggingMiddleware())
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// Health check
	r.Get("/health", h.HealthCheck)

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(resolver.Middleware)

		// Authentication. Register requires a tenant signal; login takes
		// one optionally (super admins have no tenant to name).
		r.Post("/auth/register", h.Register)
		r.Post("/auth/login", h.Login)

		// Authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(h.AuthMiddleware)

			r.Get("/auth/me", h.GetCurrentActor)
			r.Put("/auth/me", h.UpdateProfile)
			r.Post("/auth/change-password", h.ChangePassword)

			// Platform plane: tenant lifecycle, super admin only. These
			// operate on tenants in any status, so the active-tenant
			// check does not apply here.
			r.Route("/platform/tenants", func(r chi.Router) {
				r.Use(RequireRole(auth.RoleSuperAdmin))

				r.Post("/", h.CreateTenant)
				r.Get("/", h.ListTenants)
				r.Route("/{tenantID}", func(r chi.Router) {
					r.Get("/", h.GetTenant)
					r.Put("/profile", h.UpdateTenantProfile)
					r.Put("/branding", h.UpdateTenantBranding)
					r.Post("/activate", h.ActivateTenant)
					r.Post("/suspend", h.SuspendTenant)
					r.Post("/admins", h.ProvisionTenantAdmin)
				})
			})

			// Tenant plane: everything below runs in exactly one
			// tenant's context and fails closed without one.
			r.Group(func(r chi.Router) {
				r.Use(h.ValidateTenantAccess)
				r.Use(h.RequireActiveTenant)
				h.mountTenantRoutes(r)
			})

			// The same tenant plane, addressed by path parameter. Used
			// by super admin tooling and integrations that cannot set
			// a subdomain Host.
			r.Route("/t/{tenantID}", func(r chi.Router) {
				r.Use(resolver.Middleware)
				r.Use(h.ValidateTenantAccess)
				r.Use(h.RequireActiveTenant)
				h.mountTenantRoutes(r)
			})
		})
	})

	return r
}

// mountTenantRoutes attaches the tenant-scoped API surface. Callers have
// already established tenant context and verified the tenant is active.
func (h *Handler) mountTenantRoutes(r chi.Router) {
	staff := RequireRole(auth.RoleSuperAdmin, auth.RoleAdmin)

	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.ListProducts)
		r.With(staff).Post("/", h.CreateProduct)
		r.With(staff).Post("/import", h.ImportProducts)
		r.Route("/{productID}", func(r chi.Router) {
			r.Get("/", h.GetProduct)
			r.With(staff).Put("/", h.UpdateProduct)
			r.With(staff).Put("/stock", h.SetProductStock)
			r.With(staff).Delete("/", h.DeactivateProduct)
		})
	})

	r.Route("/orders", func(r chi.Router) {
		r.Post("/", h.PlaceOrder)
		r.Get("/", h.ListOrders)
		r.Route("/{orderID}", func(r chi.Router) {
			r.Get("/", h.GetOrder)
			r.With(staff).Post("/status", h.TransitionOrder)
			r.Post("/cancel", h.CancelOrder)
			r.Get("/history", h.OrderHistory)
		})
	})

	r.Route("/loyalty", func(r chi.Router) {
		r.Get("/balance", h.LoyaltyBalance)
		r.Get("/history", h.LoyaltyHistory)
		r.Post("/redeem", h.RedeemLoyalty)
		r.With(staff).Post("/credit", h.CreditLoyalty)
		r.With(staff).Post("/adjust", h.AdjustLoyalty)
	})

	r.Route("/webhooks", func(r chi.Router) {
		r.Use(staff)
		r.Post("/", h.ConfigureWebhook)
		r.Get("/", h.GetWebhook)
		r.Get("/deliveries", h.ListWebhookDeliveries)
	})

	r.With(staff).Post("/uploads", h.UploadFile)
	r.With(staff).Get("/customers", h.ListCustomers)
	r.With(staff).Delete("/customers/{actorID}", h.DeactivateCustomer)
}

// HealthCheck returns the health status
// @Summary Health Check
// @Description Checks if the service is up and running
// @Tags System
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "medikart",
	})
}

// RegisterRequest represents customer registration data
type RegisterRequest struct {
	Email    string `json:"email" binding:"required" example:"customer@example.com"`
	Password string `json:"password" binding:"required" example:"secret123"`
	Name     string `json:"name" example:"Asha Rao"`
	Phone    string `json:"phone" example:"+91-9000000000"`
	TenantID string `json:"tenant_id,omitempty"`
}

// Register handles customer self-registration
// @Summary Register a new customer
// @Description Register a new customer account in the resolved tenant
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Registration Data"
// @Success 201 {object} map[string]any
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /auth/register [post]
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	tenantID := getExplicitTenant(r.Context())
	if tenantID == "" {
		respondError(w, http.StatusBadRequest, "tenant identification required")
		return
	}

	tn, err := h.tenantService.Get(r.Context(), tenantID)
	if err != nil {
		respondError(w, http.StatusNotFound, "tenant not found")
		return
	}
	if !tn.IsActive() {
		respondError(w, http.StatusForbidden, "tenant is not active")
		return
	}

	var req RegisterRequest
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
		Role:     auth.RoleCustomer,
	})
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to register customer",
			logger.Error(err),
			logger.Email(req.Email),
			logger.TenantID(tenantID),
		)

		switch {
		case errors.Is(err, identity.ErrActorAlreadyExists):
			respondError(w, http.StatusConflict, "account already exists")
		case errors.Is(err, identity.ErrInvalidEmail):
			respondError(w, http.StatusBadRequest, "invalid email address")
		case errors.Is(err, identity.ErrWeakPassword):
			respondError(w, http.StatusBadRequest, "password does not meet security requirements")
		default:
			respondError(w, http.StatusInternalServerError, "failed to create account")
		}
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"actor_id":  actor.ID,
		"email":     actor.Email,
		"tenant_id": tenantID,
	})
}

// LoginRequest represents login credentials
type LoginRequest struct {
	Email    string `json:"email" binding:"required" example:"customer@example.com"`
	Password string `json:"password" binding:"required" example:"secret123"`
	TenantID string `json:"tenant_id,omitempty"`
}

// Login handles login for all roles
// @Summary Login
// @Description Authenticate and receive a bearer token. Tenant-bound actors log in against the resolved tenant; super admins log in with no tenant signal.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Credentials"
// @Success 200 {object} map[string]any
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Router /auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var tenantPtr *string
	tenantID := getExplicitTenant(r.Context())
	if tenantID != "" {
		tenantPtr = &tenantID
	}

	actor, err := h.identityService.Authenticate(r.Context(), tenantPtr, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrAccountLocked):
			respondError(w, http.StatusUnauthorized, "account is temporarily locked")
		default:
			respondError(w, http.StatusUnauthorized, "invalid credentials")
		}
		return
	}

	actorTenant := ""
	if actor.TenantID != nil {
		actorTenant = *actor.TenantID
	}

	token, err := h.tokens.Issue(actor.ID, actorTenant, actor.Email, actor.Role)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to issue token", logger.Error(err), logger.ActorID(actor.ID))
		respondError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"token":     token,
		"actor_id":  actor.ID,
		"email":     actor.Email,
		"role":      actor.Role,
		"tenant_id": actorTenant,
	})
}

// GetCurrentActor returns the authenticated actor
// @Summary Get Current Actor
// @Description Retrieve details of the currently authenticated actor
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]any
// @Failure 404 {object} map[string]string
// @Router /auth/me [get]
func (h *Handler) GetCurrentActor(w http.ResponseWriter, r *http.Request) {
	actor, err := h.identityService.Get(r.Context(), GetActorID(r.Context()))
	if err != nil {
		respondError(w, http.StatusNotFound, "actor not found")
		return
	}

	tenantID := ""
	if actor.TenantID != nil {
		tenantID = *actor.TenantID
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"actor_id":  actor.ID,
		"email":     actor.Email,
		"role":      actor.Role,
		"name":      actor.Name,
		"phone":     actor.Phone,
		"tenant_id": tenantID,
	})
}

// ChangePasswordRequest represents password change data
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

// ChangePassword changes the actor's password
// @Summary Change Password
// @Description Update the password for the current actor
// @Tags Auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ChangePasswordRequest true "Password Change Data"
// @Success 200 {object} map[string]string
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Router /auth/change-password [post]
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	err := h.identityService.ChangePassword(r.Context(), GetActorID(r.Context()), req.OldPassword, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrInvalidCredentials):
			respondError(w, http.StatusUnauthorized, "invalid old password")
		case errors.Is(err, identity.ErrWeakPassword):
			respondError(w, http.StatusBadRequest, "new password does not meet security requirements")
		default:
			respondError(w, http.StatusInternalServerError, "failed to change password")
		}
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "password changed successfully",
	})
}

// UpdateProfileRequest represents mutable profile fields
type UpdateProfileRequest struct {
	Name  string `json:"name" example:"Jane Doe"`
	Phone string `json:"phone" example:"+91-9876543210"`
}

// UpdateProfile updates the current actor's profile
// @Summary Update Profile
// @Description Update name and phone for the currently authenticated actor
// @Tags Auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body UpdateProfileRequest true "Profile Data"
// @Success 200 {object} map[string]any
// @Failure 400 {object} map[string]string
// @Router /auth/me [put]
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	actor, err := h.identityService.UpdateProfile(r.Context(), GetActorID(r.Context()), req.Name, req.Phone)
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrActorNotFound):
			respondError(w, http.StatusNotFound, "actor not found")
		default:
			respondError(w, http.StatusInternalServerError, "failed to update profile")
		}
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"actor_id": actor.ID,
		"email":    actor.Email,
		"name":     actor.Name,
		"phone":    actor.Phone,
	})
}

// DeactivateCustomer soft-deactivates a customer account
// @Summary Deactivate Customer
// @Description Deactivate a customer account in the current tenant
// @Tags Customers
// @Produce json
// @Security BearerAuth
// @Param actorID path string true "Actor ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /customers/{actorID} [delete]
func (h *Handler) DeactivateCustomer(w http.ResponseWriter, r *http.Request) {
	actorID := chi.URLParam(r, "actorID")
	tenantID := GetTenantID(r.Context())

	if err := h.identityService.Deactivate(r.Context(), &tenantID, actorID, GetActorID(r.Context())); err != nil {
		respondError(w, http.StatusNotFound, "customer not found")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "customer deactivated",
	})
}

// ListCustomers returns the tenant's customers
// @Summary List Customers
// @Description List customer accounts in the current tenant
// @Tags Customers
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]any
// @Router /customers [get]
func (h *Handler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	actors, err := h.identityService.ListByTenant(r.Context(), GetTenantID(r.Context()), auth.RoleCustomer, limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list customers")
		return
	}

	out := make([]map[string]any, 0, len(actors))
	for _, a := range actors {
		out = append(out, map[string]any{
			"actor_id": a.ID,
			"email":    a.Email,
			"name":     a.Name,
			"phone":    a.Phone,
			"active":   a.Active,
		})
	}

	respondJSON(w, http.StatusOK, map[string]any{"customers": out})
}

// Helper functions

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

func getIPAddress(r *http.Request) string {
	// Check X-Forwarded-For header first
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return xff
	}
	// Check X-Real-IP header
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}

func pagination(r *http.Request) (limit, offset int) {
	limit = 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}
