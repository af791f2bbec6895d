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

// Test Purpose: Validate the credit and redeem endpoints of the loyalty
// surface.
//
// Scope:
//   - Staff can grant credit to a named customer
//   - Customers redeem against their own ledger, never a named one
//   - Redeeming past the balance answers 409
//   - Non-positive amounts answer 400

package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/medikart/medikart/internal/auth"
	"github.com/medikart/medikart/internal/loyalty"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memLedgerRepo is an in-memory loyalty.Repository.
type memLedgerRepo struct {
	entries []*loyalty.Entry
}

func (m *memLedgerRepo) Append(ctx context.Context, entry *loyalty.Entry) error {
	m.entries = append(m.entries, entry)
	return nil
}

func (m *memLedgerRepo) Balance(ctx context.Context, tenantID, customerID string) (int64, error) {
	var sum int64
	for _, e := range m.entries {
		if e.TenantID == tenantID && e.CustomerID == customerID {
			sum += e.Amount
		}
	}
	return sum, nil
}

func (m *memLedgerRepo) History(ctx context.Context, tenantID, customerID string, limit, offset int) ([]*loyalty.Entry, error) {
	var out []*loyalty.Entry
	for _, e := range m.entries {
		if e.TenantID == tenantID && e.CustomerID == customerID {
			out = append(out, e)
		}
	}
	return out, nil
}

func TestLoyaltyHandler_CreditAndRedeem(t *testing.T) {
	repo := &memLedgerRepo{}
	svc := loyalty.NewService(repo, &captureAudit{})
	h := NewHandler(nil, nil, nil, nil, svc, nil, nil, nil, &captureAudit{})

	staffRouter := chi.NewRouter()
	staffRouter.Use(asActor("tenant-a", "admin-1", auth.RoleAdmin))
	staffRouter.Post("/loyalty/credit", h.CreditLoyalty)

	customerRouter := chi.NewRouter()
	customerRouter.Use(asActor("tenant-a", "cust-1", auth.RoleCustomer))
	customerRouter.Post("/loyalty/redeem", h.RedeemLoyalty)

	post := func(r http.Handler, path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	rec := post(staffRouter, "/loyalty/credit", `{"customer_id":"cust-1","amount":500,"reference":"promo"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	// Zero or negative grants are rejected.
	rec = post(staffRouter, "/loyalty/credit", `{"customer_id":"cust-1","amount":0}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// The customer's own redemption draws from their ledger; a customer_id
	// in the body is ignored for customers.
	rec = post(customerRouter, "/loyalty/redeem", `{"customer_id":"cust-2","amount":300}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	balance, err := repo.Balance(context.Background(), "tenant-a", "cust-1")
	require.NoError(t, err)
	assert.Equal(t, int64(200), balance)

	// Redeeming past the balance is a conflict.
	rec = post(customerRouter, "/loyalty/redeem", `{"amount":500}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "insufficient credit")
}
