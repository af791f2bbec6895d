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

// Test Purpose: Validate the tenant resolution and access control pipeline.
//
// Scope:
//   - Explicit tenant signals resolve in strict priority order
//   - Tenant-bound tokens pin the tenant; contradicting signals are rejected
//   - Super admins must name a tenant explicitly on tenant-scoped routes
//   - Requests with no resolvable tenant fail closed
//   - Suspended tenants stop serving traffic for tenant-bound actors

package http

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/medikart/medikart/internal/audit"
	"github.com/medikart/medikart/internal/auth"
	"github.com/medikart/medikart/internal/notification"
	"github.com/medikart/medikart/internal/tenant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memTenantRepo struct {
	tenants map[string]*tenant.Tenant
}

func (m *memTenantRepo) Create(ctx context.Context, t *tenant.Tenant) error {
	m.tenants[t.ID] = t
	return nil
}

func (m *memTenantRepo) GetByID(ctx context.Context, id string) (*tenant.Tenant, error) {
	if t, ok := m.tenants[id]; ok {
		return t, nil
	}
	return nil, tenant.ErrTenantNotFound
}

func (m *memTenantRepo) GetBySubdomain(ctx context.Context, subdomain string) (*tenant.Tenant, error) {
	for _, t := range m.tenants {
		if t.Subdomain == subdomain {
			return t, nil
		}
	}
	return nil, tenant.ErrTenantNotFound
}

func (m *memTenantRepo) Update(ctx context.Context, t *tenant.Tenant) error {
	m.tenants[t.ID] = t
	return nil
}

func (m *memTenantRepo) List(ctx context.Context, limit, offset int) ([]*tenant.Tenant, error) {
	var out []*tenant.Tenant
	for _, t := range m.tenants {
		out = append(out, t)
	}
	return out, nil
}

type captureAudit struct {
	events []audit.Event
}

func (c *captureAudit) Log(ctx context.Context, event audit.Event) {
	c.events = append(c.events, event)
}

type testEnv struct {
	handler  *Handler
	tokens   *auth.TokenIssuer
	resolver *TenantResolver
	audits   *captureAudit
	repo     *memTenantRepo
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	repo := &memTenantRepo{tenants: map[string]*tenant.Tenant{
		"tenant-a": {ID: "tenant-a", Subdomain: "acme", Status: tenant.StatusActive},
		"tenant-b": {ID: "tenant-b", Subdomain: "bravo", Status: tenant.StatusActive},
		"tenant-s": {ID: "tenant-s", Subdomain: "stale", Status: tenant.StatusSuspended},
	}}

	audits := &captureAudit{}
	tokens := auth.NewTokenIssuer("test-secret-0123456789abcdef", time.Hour, "medikart")
	tenantService := tenant.NewService(repo, audits, notification.NopPublisher{})

	h := NewHandler(nil, tenantService, nil, nil, nil, nil, nil, tokens, audits)

	resolver := &TenantResolver{
		BaseDomain: "medikart.io",
		Lookup: func(ctx context.Context, subdomain string) (string, error) {
			tn, err := repo.GetBySubdomain(ctx, subdomain)
			if err != nil {
				return "", err
			}
			return tn.ID, nil
		},
	}

	return &testEnv{handler: h, tokens: tokens, resolver: resolver, audits: audits, repo: repo}
}

// protectedRouter builds a minimal tenant-scoped route the way NewRouter
// wires the real one.
func (e *testEnv) protectedRouter() *chi.Mux {
	r := chi.NewRouter()
	probe := func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"tenant_id": GetTenantID(r.Context())})
	}

	r.Group(func(r chi.Router) {
		r.Use(e.resolver.Middleware)
		r.Use(e.handler.AuthMiddleware)
		r.Group(func(r chi.Router) {
			r.Use(e.handler.ValidateTenantAccess)
			r.Use(e.handler.RequireActiveTenant)
			r.Get("/probe", probe)
		})
		r.Route("/t/{tenantID}", func(r chi.Router) {
			r.Use(e.resolver.Middleware)
			r.Use(e.handler.ValidateTenantAccess)
			r.Use(e.handler.RequireActiveTenant)
			r.Get("/probe", probe)
		})
	})

	return r
}

func (e *testEnv) issueToken(t *testing.T, actorID, tenantID, role string) string {
	t.Helper()
	token, err := e.tokens.Issue(actorID, tenantID, actorID+"@example.com", role)
	require.NoError(t, err)
	return token
}

func TestTenantResolution_Subdomain(t *testing.T) {
	env := newTestEnv(t)
	router := env.protectedRouter()

	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Host = "acme.medikart.io"
	req.Header.Set("Authorization", "Bearer "+env.issueToken(t, "cust-1", "tenant-a", auth.RoleCustomer))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "tenant-a")
}

func TestTenantResolution_UnknownSubdomainRejected(t *testing.T) {
	env := newTestEnv(t)
	router := env.protectedRouter()

	// A subdomain under the base domain that maps to no tenant is a bad
	// request, not a silent fallthrough to later signals.
	req := httptest.NewRequest(http.MethodGet, "/probe?tenant_id=tenant-a", nil)
	req.Host = "nosuch.medikart.io"
	req.Header.Set("Authorization", "Bearer "+env.issueToken(t, "cust-1", "tenant-a", auth.RoleCustomer))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "unknown tenant subdomain")
}

func TestTenantResolution_QueryParameter(t *testing.T) {
	env := newTestEnv(t)
	router := env.protectedRouter()

	req := httptest.NewRequest(http.MethodGet, "/probe?tenant_id=tenant-a", nil)
	req.Header.Set("Authorization", "Bearer "+env.issueToken(t, "admin-1", "tenant-a", auth.RoleAdmin))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestTenantResolution_NoSignalFailsClosed(t *testing.T) {
	env := newTestEnv(t)
	router := env.protectedRouter()

	// Super admin with no tenant signal anywhere.
	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("Authorization", "Bearer "+env.issueToken(t, "root-1", "", auth.RoleSuperAdmin))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "tenant identification required")
}

func TestTenantAccess_CrossTenantDenied(t *testing.T) {
	env := newTestEnv(t)
	router := env.protectedRouter()

	// tenant-a customer names tenant-b explicitly.
	req := httptest.NewRequest(http.MethodGet, "/probe?tenant_id=tenant-b", nil)
	req.Header.Set("Authorization", "Bearer "+env.issueToken(t, "cust-1", "tenant-a", auth.RoleCustomer))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)

	// The attempt is audited.
	require.NotEmpty(t, env.audits.events)
	last := env.audits.events[len(env.audits.events)-1]
	assert.Equal(t, audit.TypeCrossTenantDenied, last.Type)
	assert.Equal(t, "tenant-b", last.TenantID)
	assert.Equal(t, "cust-1", last.ActorID)
}

func TestTenantAccess_PathParameterMismatchDenied(t *testing.T) {
	env := newTestEnv(t)
	router := env.protectedRouter()

	req := httptest.NewRequest(http.MethodGet, "/t/tenant-b/probe", nil)
	req.Header.Set("Authorization", "Bearer "+env.issueToken(t, "admin-1", "tenant-a", auth.RoleAdmin))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestTenantAccess_TokenWinsOverMatchingSignal(t *testing.T) {
	env := newTestEnv(t)
	router := env.protectedRouter()

	// Signal agrees with the token; the request proceeds.
	req := httptest.NewRequest(http.MethodGet, "/t/tenant-a/probe", nil)
	req.Header.Set("Authorization", "Bearer "+env.issueToken(t, "admin-1", "tenant-a", auth.RoleAdmin))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "tenant-a")
}

func TestTenantAccess_SuperAdminAnyTenant(t *testing.T) {
	env := newTestEnv(t)
	router := env.protectedRouter()

	for _, target := range []string{"tenant-a", "tenant-b"} {
		req := httptest.NewRequest(http.MethodGet, "/t/"+target+"/probe", nil)
		req.Header.Set("Authorization", "Bearer "+env.issueToken(t, "root-1", "", auth.RoleSuperAdmin))

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), target)
	}
}

func TestTenantAccess_SuspendedTenantRejected(t *testing.T) {
	env := newTestEnv(t)
	router := env.protectedRouter()

	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("Authorization", "Bearer "+env.issueToken(t, "cust-9", "tenant-s", auth.RoleCustomer))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "not active")
}

func TestTenantAccess_SuperAdminBypassesActiveCheck(t *testing.T) {
	env := newTestEnv(t)
	router := env.protectedRouter()

	req := httptest.NewRequest(http.MethodGet, "/t/tenant-s/probe", nil)
	req.Header.Set("Authorization", "Bearer "+env.issueToken(t, "root-1", "", auth.RoleSuperAdmin))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthMiddleware_RejectsMissingAndMalformedTokens(t *testing.T) {
	env := newTestEnv(t)
	router := env.protectedRouter()

	cases := map[string]string{
		"missing":      "",
		"wrong scheme": "Basic abc123",
		"garbage":      "Bearer not-a-jwt",
	}

	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/probe?tenant_id=tenant-a", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestTenantResolver_BodySignal(t *testing.T) {
	env := newTestEnv(t)

	var seenTenant, seenBody string
	r := chi.NewRouter()
	r.Use(env.resolver.Middleware)
	r.Post("/echo", func(w http.ResponseWriter, req *http.Request) {
		seenTenant = getExplicitTenant(req.Context())
		raw, _ := io.ReadAll(req.Body)
		seenBody = string(raw)
		w.WriteHeader(http.StatusOK)
	})

	body := `{"tenant_id":"tenant-a","email":"x@example.com"}`
	req := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, "tenant-a", seenTenant)
	// The body is restored for the handler.
	assert.Equal(t, body, seenBody)
}

func TestTenantResolver_SubdomainParsing(t *testing.T) {
	tr := &TenantResolver{BaseDomain: "medikart.io"}

	cases := map[string]string{
		"acme.medikart.io":      "acme",
		"acme.medikart.io:8080": "acme",
		"medikart.io":           "",
		"deep.acme.medikart.io": "",
		"evil.example.com":      "",
	}

	for host, want := range cases {
		assert.Equal(t, want, tr.subdomain(host), "host %q", host)
	}
}

func TestRequireRole(t *testing.T) {
	r := chi.NewRouter()
	r.With(RequireRole(auth.RoleAdmin, auth.RoleSuperAdmin)).Get("/staff", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/staff", nil)
	req = req.WithContext(context.WithValue(req.Context(), roleKey, auth.RoleCustomer))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/staff", nil)
	req = req.WithContext(context.WithValue(req.Context(), roleKey, auth.RoleAdmin))
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
