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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/medikart/medikart/internal/audit"
	"github.com/medikart/medikart/internal/auth"
	"github.com/medikart/medikart/internal/observability/logger"
)

// Tenant Context Principles:
// 1. For tenant-bound actors the token is the single source of truth.
// 2. An explicit signal that contradicts the token is a hard failure,
//    never a silent fallback.
// 3. Super admins carry no tenant in the token and must name one
//    explicitly on tenant-scoped routes.

// maxBodyPeek bounds how much of a request body the tenant resolver will
// read when looking for a tenant_id field.
const maxBodyPeek = 1 << 20

// LoggingMiddleware logs HTTP requests
func LoggingMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			slog.InfoContext(r.Context(), "http_request_start",
				logger.RequestID(middleware.GetReqID(r.Context())),
				logger.Method(r.Method),
				logger.Path(r.URL.Path),
				logger.RemoteAddr(r.RemoteAddr),
			)

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				slog.InfoContext(r.Context(), "http_request_end",
					logger.RequestID(middleware.GetReqID(r.Context())),
					logger.Method(r.Method),
					logger.Path(r.URL.Path),
					logger.RemoteAddr(r.RemoteAddr),
					logger.UserAgent(r.UserAgent()),
					logger.StatusCode(ww.Status()),
					logger.Duration(time.Since(start).Milliseconds()),
					logger.TenantID(GetTenantID(r.Context())),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

// TenantResolver extracts the explicit tenant signal from a request, in
// strict priority order: subdomain, then {tenantID} path parameter, then
// tenant_id query parameter, then a tenant_id field in a JSON body. The
// first signal found wins; later ones are not consulted. The result is
// stored as the explicit tenant; ValidateTenantAccess reconciles it with
// the token.
type TenantResolver struct {
	// BaseDomain is the platform's serving domain, e.g. "medikart.io".
	// A Host of "acme.medikart.io" resolves subdomain "acme".
	BaseDomain string

	// Lookup maps a subdomain to a tenant ID. Path, query, and body
	// signals carry tenant IDs directly and skip the lookup.
	Lookup func(ctx context.Context, subdomain string) (string, error)
}

// Middleware resolves the explicit tenant signal into the request context.
// Requests without any signal pass through; RequireTenant or
// ValidateTenantAccess decides whether that is an error.
func (tr *TenantResolver) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tenantID, err := tr.resolve(r)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}

		if tenantID != "" {
			ctx := context.WithValue(r.Context(), explicitTenantKey, tenantID)
			r = r.WithContext(ctx)
		}

		next.ServeHTTP(w, r)
	})
}

func (tr *TenantResolver) resolve(r *http.Request) (string, error) {
	// 1. Subdomain
	if sub := tr.subdomain(r.Host); sub != "" {
		id, err := tr.Lookup(r.Context(), sub)
		if err != nil {
			slog.WarnContext(r.Context(), "unknown tenant subdomain", logger.Subdomain(sub))
			return "", fmt.Errorf("unknown tenant subdomain %q", sub)
		}
		return id, nil
	}

	// 2. Path parameter
	if id := chi.URLParam(r, "tenantID"); id != "" {
		return id, nil
	}

	// 3. Query parameter
	if id := r.URL.Query().Get("tenant_id"); id != "" {
		return id, nil
	}

	// 4. JSON body field
	return tr.peekBody(r)
}

func (tr *TenantResolver) subdomain(host string) string {
	if tr.BaseDomain == "" {
		return ""
	}
	// Strip port
	if i := strings.LastIndex(host, ":"); i != -1 && !strings.Contains(host[i:], "]") {
		host = host[:i]
	}
	if !strings.HasSuffix(host, "."+tr.BaseDomain) {
		return ""
	}
	sub := strings.TrimSuffix(host, "."+tr.BaseDomain)
	if sub == "" || strings.Contains(sub, ".") {
		return ""
	}
	return sub
}

// peekBody reads a JSON body looking for tenant_id, restoring the body so
// the handler can decode it again.
func (tr *TenantResolver) peekBody(r *http.Request) (string, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return "", nil
	}
	ct := r.Header.Get("Content-Type")
	if !strings.HasPrefix(ct, "application/json") {
		return "", nil
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyPeek))
	if err != nil {
		return "", nil
	}
	r.Body = io.NopCloser(bytes.NewReader(body))

	var probe struct {
		TenantID string `json:"tenant_id"`
	}
	if err := json.Unmarshal(body, &probe); err != nil {
		return "", nil
	}
	return probe.TenantID, nil
}

// AuthMiddleware validates the Bearer token and stores the actor identity
// in the context. It does not decide tenant access; that is
// ValidateTenantAccess's job.
func (h *Handler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			respondError(w, http.StatusUnauthorized, "not authenticated")
			return
		}

		tokenString, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			respondError(w, http.StatusUnauthorized, "authorization header must use the Bearer scheme")
			return
		}

		claims, err := h.tokens.Verify(tokenString)
		if err != nil {
			respondError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), actorIDKey, claims.Subject)
		ctx = context.WithValue(ctx, roleKey, claims.Role)
		if claims.TenantID != "" {
			ctx = context.WithValue(ctx, tokenTenantKey, claims.TenantID)
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func getTokenTenant(ctx context.Context) string {
	if val, ok := ctx.Value(tokenTenantKey).(string); ok {
		return val
	}
	return ""
}

// ValidateTenantAccess reconciles the token's tenant binding with the
// explicit request signal and establishes the authoritative tenant context.
//
//   - Tenant-bound actors operate in their token's tenant. An explicit
//     signal naming a different tenant is rejected outright.
//   - Super admins have no token binding and must name a tenant through
//     one of the request signals.
//   - A request with no resolvable tenant at all is rejected.
func (h *Handler) ValidateTenantAccess(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tokenTenant := getTokenTenant(ctx)
		explicit := getExplicitTenant(ctx)

		var tenantID string
		switch {
		case tokenTenant != "":
			if explicit != "" && explicit != tokenTenant {
				h.auditLogger.Log(ctx, audit.Event{
					Type:      audit.TypeCrossTenantDenied,
					TenantID:  explicit,
					ActorID:   GetActorID(ctx),
					Resource:  r.URL.Path,
					IPAddress: getIPAddress(r),
					UserAgent: r.UserAgent(),
					Metadata:  map[string]any{"token_tenant": tokenTenant},
				})
				respondError(w, http.StatusForbidden, "access to this tenant is not permitted")
				return
			}
			tenantID = tokenTenant
		case explicit != "":
			// Super admin acting on a named tenant.
			tenantID = explicit
		default:
			respondError(w, http.StatusBadRequest, "tenant identification required")
			return
		}

		ctx = context.WithValue(ctx, tenantIDKey, tenantID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireActiveTenant rejects requests whose tenant is not active. It must
// run after ValidateTenantAccess. Super admins bypass the check so that
// pending and suspended tenants stay manageable.
func (h *Handler) RequireActiveTenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetRole(r.Context()) == auth.RoleSuperAdmin {
			next.ServeHTTP(w, r)
			return
		}

		tn, err := h.tenantService.Get(r.Context(), GetTenantID(r.Context()))
		if err != nil {
			respondError(w, http.StatusNotFound, "tenant not found")
			return
		}
		if !tn.IsActive() {
			respondError(w, http.StatusForbidden, "tenant is not active")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// RequireRole restricts a route to the given roles.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !allowed[GetRole(r.Context())] {
				respondError(w, http.StatusForbidden, "insufficient role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
