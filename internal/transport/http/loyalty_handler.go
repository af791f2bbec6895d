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
	"encoding/json"
	"errors"
	"net/http"

	"github.com/medikart/medikart/internal/auth"
	"github.com/medikart/medikart/internal/loyalty"
)

// loyaltyCustomer decides whose ledger a request addresses. Customers
// always get their own; staff name one with the customer_id query
// parameter.
func loyaltyCustomer(r *http.Request) string {
	if GetRole(r.Context()) == auth.RoleCustomer {
		return GetActorID(r.Context())
	}
	return r.URL.Query().Get("customer_id")
}

// LoyaltyBalance returns a customer's credit balance
// @Summary Loyalty Balance
// @Description Get the credit balance for the current customer, or for a named customer when called by staff
// @Tags Loyalty
// @Produce json
// @Security BearerAuth
// @Param customer_id query string false "Customer ID (staff only)"
// @Success 200 {object} map[string]any
// @Failure 400 {object} map[string]string
// @Router /loyalty/balance [get]
func (h *Handler) LoyaltyBalance(w http.ResponseWriter, r *http.Request) {
	customerID := loyaltyCustomer(r)
	if customerID == "" {
		respondError(w, http.StatusBadRequest, "customer_id is required")
		return
	}

	balance, err := h.loyaltyService.Balance(r.Context(), GetTenantID(r.Context()), customerID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to compute balance")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"customer_id": customerID,
		"balance":     balance,
	})
}

// LoyaltyHistory returns a customer's ledger entries
// @Summary Loyalty History
// @Description List credit ledger entries, newest first
// @Tags Loyalty
// @Produce json
// @Security BearerAuth
// @Param customer_id query string false "Customer ID (staff only)"
// @Success 200 {object} map[string]any
// @Failure 400 {object} map[string]string
// @Router /loyalty/history [get]
func (h *Handler) LoyaltyHistory(w http.ResponseWriter, r *http.Request) {
	customerID := loyaltyCustomer(r)
	if customerID == "" {
		respondError(w, http.StatusBadRequest, "customer_id is required")
		return
	}

	limit, offset := pagination(r)
	entries, err := h.loyaltyService.History(r.Context(), GetTenantID(r.Context()), customerID, limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load history")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

// AdjustLoyaltyRequest represents a manual credit adjustment
type AdjustLoyaltyRequest struct {
	CustomerID string `json:"customer_id" binding:"required"`
	Amount     int64  `json:"amount" binding:"required" example:"500"`
	Note       string `json:"note"`
}

// AdjustLoyalty applies a signed manual credit adjustment
// @Summary Adjust Loyalty Credit
// @Description Apply a manual signed adjustment to a customer's credit ledger
// @Tags Loyalty
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body AdjustLoyaltyRequest true "Adjustment Data"
// @Success 201 {object} loyalty.Entry
// @Failure 400 {object} map[string]string
// @Router /loyalty/adjust [post]
func (h *Handler) AdjustLoyalty(w http.ResponseWriter, r *http.Request) {
	var req AdjustLoyaltyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.CustomerID == "" {
		respondError(w, http.StatusBadRequest, "customer_id is required")
		return
	}

	entry, err := h.loyaltyService.Adjust(r.Context(), GetTenantID(r.Context()), req.CustomerID, GetActorID(r.Context()), req.Amount, req.Note)
	if err != nil {
		switch {
		case errors.Is(err, loyalty.ErrInvalidAmount):
			respondError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, loyalty.ErrInsufficientCredit):
			respondError(w, http.StatusConflict, "insufficient credit balance")
		default:
			respondError(w, http.StatusInternalServerError, "failed to adjust credit")
		}
		return
	}

	respondJSON(w, http.StatusCreated, entry)
}

// CreditLoyaltyRequest represents a credit grant
type CreditLoyaltyRequest struct {
	CustomerID string `json:"customer_id" binding:"required"`
	Amount     int64  `json:"amount" binding:"required" example:"500"`
	Reference  string `json:"reference" example:"order-01HX"`
	Note       string `json:"note"`
}

// CreditLoyalty grants credit to a customer's ledger
// @Summary Credit Loyalty
// @Description Append a positive credit entry to a customer's ledger
// @Tags Loyalty
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreditLoyaltyRequest true "Credit Data"
// @Success 201 {object} loyalty.Entry
// @Failure 400 {object} map[string]string
// @Router /loyalty/credit [post]
func (h *Handler) CreditLoyalty(w http.ResponseWriter, r *http.Request) {
	var req CreditLoyaltyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.CustomerID == "" {
		respondError(w, http.StatusBadRequest, "customer_id is required")
		return
	}

	entry, err := h.loyaltyService.Credit(r.Context(), GetTenantID(r.Context()), req.CustomerID, req.Amount, req.Reference, req.Note)
	if err != nil {
		switch {
		case errors.Is(err, loyalty.ErrInvalidAmount):
			respondError(w, http.StatusBadRequest, err.Error())
		default:
			respondError(w, http.StatusInternalServerError, "failed to credit ledger")
		}
		return
	}

	respondJSON(w, http.StatusCreated, entry)
}

// RedeemLoyaltyRequest represents a credit redemption
type RedeemLoyaltyRequest struct {
	CustomerID string `json:"customer_id,omitempty"`
	Amount     int64  `json:"amount" binding:"required" example:"200"`
	Reference  string `json:"reference" example:"order-01HX"`
	Note       string `json:"note"`
}

// RedeemLoyalty spends credit from a customer's ledger. Customers redeem
// their own credit; staff name a customer in the body.
// @Summary Redeem Loyalty
// @Description Redeem credit against the derived ledger balance
// @Tags Loyalty
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body RedeemLoyaltyRequest true "Redemption Data"
// @Success 201 {object} loyalty.Entry
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /loyalty/redeem [post]
func (h *Handler) RedeemLoyalty(w http.ResponseWriter, r *http.Request) {
	var req RedeemLoyaltyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	customerID := req.CustomerID
	if GetRole(r.Context()) == auth.RoleCustomer {
		customerID = GetActorID(r.Context())
	}
	if customerID == "" {
		respondError(w, http.StatusBadRequest, "customer_id is required")
		return
	}

	entry, err := h.loyaltyService.Redeem(r.Context(), GetTenantID(r.Context()), customerID, req.Amount, req.Reference, req.Note)
	if err != nil {
		switch {
		case errors.Is(err, loyalty.ErrInvalidAmount):
			respondError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, loyalty.ErrInsufficientCredit):
			respondError(w, http.StatusConflict, "insufficient credit balance")
		default:
			respondError(w, http.StatusInternalServerError, "failed to redeem credit")
		}
		return
	}

	respondJSON(w, http.StatusCreated, entry)
}
