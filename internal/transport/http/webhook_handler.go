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

	"github.com/medikart/medikart/internal/notification"
)

// ConfigureWebhookRequest represents webhook endpoint configuration
type ConfigureWebhookRequest struct {
	URL    string `json:"url" binding:"required" example:"https://hooks.example.com/medikart"`
	Secret string `json:"secret" binding:"required"`
	Active bool   `json:"active"`
}

// ConfigureWebhook sets the tenant's outbound webhook endpoint
// @Summary Configure Webhook
// @Description Set or replace the tenant's webhook endpoint. Events are signed with the shared secret.
// @Tags Webhooks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ConfigureWebhookRequest true "Endpoint Data"
// @Success 200 {object} notification.Endpoint
// @Failure 400 {object} map[string]string
// @Router /webhooks [post]
func (h *Handler) ConfigureWebhook(w http.ResponseWriter, r *http.Request) {
	var req ConfigureWebhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	endpoint, err := h.webhookService.Configure(r.Context(), GetTenantID(r.Context()), GetActorID(r.Context()), req.URL, req.Secret, req.Active)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, endpoint)
}

// GetWebhook returns the tenant's webhook configuration
// @Summary Get Webhook
// @Description Retrieve the tenant's webhook endpoint configuration
// @Tags Webhooks
// @Produce json
// @Security BearerAuth
// @Success 200 {object} notification.Endpoint
// @Failure 404 {object} map[string]string
// @Router /webhooks [get]
func (h *Handler) GetWebhook(w http.ResponseWriter, r *http.Request) {
	endpoint, err := h.webhookService.Get(r.Context(), GetTenantID(r.Context()))
	if err != nil {
		if errors.Is(err, notification.ErrEndpointNotFound) {
			respondError(w, http.StatusNotFound, "no webhook configured")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to load webhook")
		return
	}

	respondJSON(w, http.StatusOK, endpoint)
}

// ListWebhookDeliveries returns the tenant's delivery log
// @Summary List Webhook Deliveries
// @Description List webhook delivery outcomes, newest first
// @Tags Webhooks
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]any
// @Router /webhooks/deliveries [get]
func (h *Handler) ListWebhookDeliveries(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	deliveries, err := h.webhookService.Deliveries(r.Context(), GetTenantID(r.Context()), limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list deliveries")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"deliveries": deliveries})
}
