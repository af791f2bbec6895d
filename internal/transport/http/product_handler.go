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
	"github.com/medikart/medikart/internal/catalog"
)

// CreateProductRequest represents new product data
type CreateProductRequest struct {
	SKU                  string `json:"sku" binding:"required" example:"PARA-500"`
	Name                 string `json:"name" binding:"required" example:"Paracetamol 500mg"`
	Description          string `json:"description"`
	Category             string `json:"category" example:"analgesics"`
	PriceCents           int64  `json:"price_cents" example:"2500"`
	StockQty             int    `json:"stock_qty" example:"100"`
	RequiresPrescription bool   `json:"requires_prescription"`
}

// CreateProduct adds a product to the tenant's catalog
// @Summary Create Product
// @Description Add a product to the current tenant's catalog
// @Tags Catalog
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateProductRequest true "Product Data"
// @Success 201 {object} catalog.Product
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /products [post]
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p, err := h.catalogService.Create(r.Context(), GetTenantID(r.Context()), GetActorID(r.Context()), catalog.CreateParams{
		SKU:                  req.SKU,
		Name:                 req.Name,
		Description:          req.Description,
		Category:             req.Category,
		PriceCents:           req.PriceCents,
		StockQty:             req.StockQty,
		RequiresPrescription: req.RequiresPrescription,
	})
	if err != nil {
		switch {
		case errors.Is(err, catalog.ErrSKUTaken):
			respondError(w, http.StatusConflict, "sku already exists")
		default:
			respondError(w, http.StatusBadRequest, err.Error())
		}
		return
	}

	respondJSON(w, http.StatusCreated, p)
}

// ListProducts returns the tenant's catalog
// @Summary List Products
// @Description List products in the current tenant's catalog
// @Tags Catalog
// @Produce json
// @Security BearerAuth
// @Param category query string false "Filter by category"
// @Param active query bool false "Only active products"
// @Success 200 {object} map[string]any
// @Router /products [get]
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	products, err := h.catalogService.List(r.Context(), GetTenantID(r.Context()), catalog.ListFilter{
		Category:   r.URL.Query().Get("category"),
		ActiveOnly: r.URL.Query().Get("active") == "true",
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list products")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"products": products})
}

// GetProduct returns one product
// @Summary Get Product
// @Description Retrieve a product from the current tenant's catalog
// @Tags Catalog
// @Produce json
// @Security BearerAuth
// @Param productID path string true "Product ID"
// @Success 200 {object} catalog.Product
// @Failure 404 {object} map[string]string
// @Router /products/{productID} [get]
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.catalogService.Get(r.Context(), GetTenantID(r.Context()), chi.URLParam(r, "productID"))
	if err != nil {
		respondError(w, http.StatusNotFound, "product not found")
		return
	}
	respondJSON(w, http.StatusOK, p)
}

// UpdateProductRequest represents product changes; absent fields are left
// unchanged.
type UpdateProductRequest struct {
	Name                 *string `json:"name"`
	Description          *string `json:"description"`
	Category             *string `json:"category"`
	PriceCents           *int64  `json:"price_cents"`
	RequiresPrescription *bool   `json:"requires_prescription"`
}

// UpdateProduct updates a product
// @Summary Update Product
// @Description Update product fields; omitted fields are unchanged
// @Tags Catalog
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param productID path string true "Product ID"
// @Param request body UpdateProductRequest true "Product Changes"
// @Success 200 {object} catalog.Product
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /products/{productID} [put]
func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var req UpdateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p, err := h.catalogService.Update(r.Context(), GetTenantID(r.Context()), chi.URLParam(r, "productID"), catalog.UpdateParams{
		Name:                 req.Name,
		Description:          req.Description,
		Category:             req.Category,
		PriceCents:           req.PriceCents,
		RequiresPrescription: req.RequiresPrescription,
	})
	if err != nil {
		switch {
		case errors.Is(err, catalog.ErrProductNotFound):
			respondError(w, http.StatusNotFound, "product not found")
		default:
			respondError(w, http.StatusBadRequest, err.Error())
		}
		return
	}

	respondJSON(w, http.StatusOK, p)
}

// SetStockRequest represents a stock level change
type SetStockRequest struct {
	StockQty int `json:"stock_qty"`
}

// SetProductStock sets the absolute stock level
// @Summary Set Product Stock
// @Description Set a product's stock quantity
// @Tags Catalog
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param productID path string true "Product ID"
// @Param request body SetStockRequest true "Stock Data"
// @Success 200 {object} catalog.Product
// @Failure 400 {object} map[string]string
// @Router /products/{productID}/stock [put]
func (h *Handler) SetProductStock(w http.ResponseWriter, r *http.Request) {
	var req SetStockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p, err := h.catalogService.SetStock(r.Context(), GetTenantID(r.Context()), chi.URLParam(r, "productID"), req.StockQty)
	if err != nil {
		switch {
		case errors.Is(err, catalog.ErrProductNotFound):
			respondError(w, http.StatusNotFound, "product not found")
		default:
			respondError(w, http.StatusBadRequest, err.Error())
		}
		return
	}

	respondJSON(w, http.StatusOK, p)
}

// DeactivateProduct removes a product from sale
// @Summary Deactivate Product
// @Description Mark a product inactive; it stays in the catalog record
// @Tags Catalog
// @Produce json
// @Security BearerAuth
// @Param productID path string true "Product ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /products/{productID} [delete]
func (h *Handler) DeactivateProduct(w http.ResponseWriter, r *http.Request) {
	err := h.catalogService.Deactivate(r.Context(), GetTenantID(r.Context()), chi.URLParam(r, "productID"))
	if err != nil {
		respondError(w, http.StatusNotFound, "product not found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "product deactivated"})
}

// ImportProducts bulk-imports products from a CSV file
// @Summary Import Products
// @Description Bulk-import products from a CSV file (multipart field "file"). Rows that fail validation are skipped and reported.
// @Tags Catalog
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "CSV file: sku,name,category,price_cents,stock"
// @Success 200 {object} catalog.ImportResult
// @Failure 400 {object} map[string]string
// @Router /products/import [post]
func (h *Handler) ImportProducts(w http.ResponseWriter, r *http.Request) {
	file, _, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "multipart field \"file\" is required")
		return
	}
	defer file.Close()

	result, err := h.catalogService.ImportCSV(r.Context(), GetTenantID(r.Context()), GetActorID(r.Context()), file)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, result)
}
