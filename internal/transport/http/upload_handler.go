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
	"errors"
	"net/http"

	"github.com/medikart/medikart/internal/audit"
	"github.com/medikart/medikart/internal/upload"
)

// UploadFile stores an uploaded file under the tenant's directory
// @Summary Upload File
// @Description Upload a file (multipart field "file"). The kind form field selects the allow-list: logo, product, or catalog.
// @Tags Uploads
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param kind formData string true "Upload kind: logo, product, or catalog"
// @Param file formData file true "File to upload"
// @Success 201 {object} map[string]string
// @Failure 400 {object} map[string]string
// @Failure 413 {object} map[string]string
// @Router /uploads [post]
func (h *Handler) UploadFile(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "multipart field \"file\" is required")
		return
	}
	defer file.Close()

	kind := r.FormValue("kind")
	if kind == "" {
		kind = upload.KindProduct
	}

	tenantID := GetTenantID(r.Context())
	path, err := h.uploads.Save(tenantID, kind, header.Header.Get("Content-Type"), header.Size, file)
	if err != nil {
		switch {
		case errors.Is(err, upload.ErrTooLarge):
			respondError(w, http.StatusRequestEntityTooLarge, "file exceeds size limit")
		case errors.Is(err, upload.ErrUnsupportedType):
			respondError(w, http.StatusBadRequest, "unsupported file type")
		default:
			respondError(w, http.StatusBadRequest, err.Error())
		}
		return
	}

	h.auditLogger.Log(r.Context(), audit.Event{
		Type:      audit.TypeFileUploaded,
		TenantID:  tenantID,
		ActorID:   GetActorID(r.Context()),
		Resource:  path,
		IPAddress: getIPAddress(r),
		Metadata:  map[string]any{"kind": kind, "size": header.Size},
	})

	respondJSON(w, http.StatusCreated, map[string]string{"path": path})
}
