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

	"github.com/go-chi/chi/v5"
	"github.com/medikart/medikart/internal/auth"
	"github.com/medikart/medikart/internal/catalog"
	"github.com/medikart/medikart/internal/order"
)

// PlaceOrderRequest represents a new order
type PlaceOrderRequest struct {
	Pickup bool               `json:"pickup"`
	Items  []PlaceOrderItem   `json:"items" binding:"required"`
}

// PlaceOrderItem is one requested order line
type PlaceOrderItem struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required" example:"2"`
}

// PlaceOrder creates a new order for the authenticated customer
// @Summary Place Order
// @Description Place an order in the current tenant. Lines are priced from the catalog and stock is reserved.
// @Tags Orders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body PlaceOrderRequest true "Order Data"
// @Success 201 {object} order.Order
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /orders [post]
func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req PlaceOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	items := make([]order.PlaceItem, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, order.PlaceItem{ProductID: it.ProductID, Quantity: it.Quantity})
	}

	o, err := h.orderService.Place(r.Context(), GetTenantID(r.Context()), order.PlaceParams{
		CustomerID: GetActorID(r.Context()),
		Pickup:     req.Pickup,
		Items:      items,
	})
	if err != nil {
		switch {
		case errors.Is(err, order.ErrEmptyOrder):
			respondError(w, http.StatusBadRequest, "order has no items")
		case errors.Is(err, order.ErrInsufficientStock), errors.Is(err, catalog.ErrInsufficientStock):
			respondError(w, http.StatusConflict, "insufficient stock")
		default:
			respondError(w, http.StatusBadRequest, err.Error())
		}
		return
	}

	respondJSON(w, http.StatusCreated, o)
}

// ListOrders returns orders in the current tenant. Customers see only
// their own orders; staff see all.
// @Summary List Orders
// @Description List orders in the current tenant
// @Tags Orders
// @Produce json
// @Security BearerAuth
// @Param status query string false "Filter by status"
// @Success 200 {object} map[string]any
// @Router /orders [get]
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	filter := order.ListFilter{
		Status: r.URL.Query().Get("status"),
		Limit:  limit,
		Offset: offset,
	}
	if GetRole(r.Context()) == auth.RoleCustomer {
		filter.CustomerID = GetActorID(r.Context())
	}

	orders, err := h.orderService.List(r.Context(), GetTenantID(r.Context()), filter)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list orders")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"orders": orders})
}

// GetOrder returns one order
// @Summary Get Order
// @Description Retrieve an order with its items
// @Tags Orders
// @Produce json
// @Security BearerAuth
// @Param orderID path string true "Order ID"
// @Success 200 {object} order.Order
// @Failure 404 {object} map[string]string
// @Router /orders/{orderID} [get]
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.orderService.Get(r.Context(), GetTenantID(r.Context()), chi.URLParam(r, "orderID"))
	if err != nil {
		respondError(w, http.StatusNotFound, "order not found")
		return
	}

	// Customers can only read their own orders.
	if GetRole(r.Context()) == auth.RoleCustomer && o.CustomerID != GetActorID(r.Context()) {
		respondError(w, http.StatusNotFound, "order not found")
		return
	}

	respondJSON(w, http.StatusOK, o)
}

// TransitionOrderRequest represents an order status change
type TransitionOrderRequest struct {
	Status string `json:"status" binding:"required" example:"accepted"`
	Note   string `json:"note"`
}

// TransitionOrder moves an order through its lifecycle
// @Summary Transition Order
// @Description Move an order to the next status. Repeating a transition or skipping ahead is rejected.
// @Tags Orders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param orderID path string true "Order ID"
// @Param request body TransitionOrderRequest true "Target Status"
// @Success 200 {object} order.Order
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /orders/{orderID}/status [post]
func (h *Handler) TransitionOrder(w http.ResponseWriter, r *http.Request) {
	var req TransitionOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	o, err := h.orderService.Transition(r.Context(), GetTenantID(r.Context()), chi.URLParam(r, "orderID"), req.Status, GetActorID(r.Context()), req.Note)
	if err != nil {
		switch {
		case errors.Is(err, order.ErrOrderNotFound):
			respondError(w, http.StatusNotFound, "order not found")
		case errors.Is(err, order.ErrInvalidTransition):
			respondError(w, http.StatusConflict, "order cannot make that status transition")
		default:
			respondError(w, http.StatusBadRequest, err.Error())
		}
		return
	}

	respondJSON(w, http.StatusOK, o)
}

// CancelOrderRequest carries an optional cancellation note
type CancelOrderRequest struct {
	Note string `json:"note"`
}

// CancelOrder cancels an order and restocks its lines
// @Summary Cancel Order
// @Description Cancel an order that has not reached a terminal status. Stock is returned to the catalog.
// @Tags Orders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param orderID path string true "Order ID"
// @Param request body CancelOrderRequest false "Cancellation Note"
// @Success 200 {object} order.Order
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /orders/{orderID}/cancel [post]
func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	var req CancelOrderRequest
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&req)
	}

	tenantID := GetTenantID(r.Context())
	orderID := chi.URLParam(r, "orderID")

	// Customers can only cancel their own orders.
	if GetRole(r.Context()) == auth.RoleCustomer {
		o, err := h.orderService.Get(r.Context(), tenantID, orderID)
		if err != nil || o.CustomerID != GetActorID(r.Context()) {
			respondError(w, http.StatusNotFound, "order not found")
			return
		}
	}

	o, err := h.orderService.Cancel(r.Context(), tenantID, orderID, GetActorID(r.Context()), req.Note)
	if err != nil {
		switch {
		case errors.Is(err, order.ErrOrderNotFound):
			respondError(w, http.StatusNotFound, "order not found")
		case errors.Is(err, order.ErrInvalidTransition):
			respondError(w, http.StatusConflict, "order can no longer be cancelled")
		default:
			respondError(w, http.StatusInternalServerError, "failed to cancel order")
		}
		return
	}

	respondJSON(w, http.StatusOK, o)
}

// OrderHistory returns an order's status transitions
// @Summary Order History
// @Description List an order's status transitions in chronological order
// @Tags Orders
// @Produce json
// @Security BearerAuth
// @Param orderID path string true "Order ID"
// @Success 200 {object} map[string]any
// @Failure 404 {object} map[string]string
// @Router /orders/{orderID}/history [get]
func (h *Handler) OrderHistory(w http.ResponseWriter, r *http.Request) {
	tenantID := GetTenantID(r.Context())
	orderID := chi.URLParam(r, "orderID")

	if GetRole(r.Context()) == auth.RoleCustomer {
		o, err := h.orderService.Get(r.Context(), tenantID, orderID)
		if err != nil || o.CustomerID != GetActorID(r.Context()) {
			respondError(w, http.StatusNotFound, "order not found")
			return
		}
	}

	entries, err := h.orderService.History(r.Context(), tenantID, orderID)
	if err != nil {
		respondError(w, http.StatusNotFound, "order not found")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"history": entries})
}
