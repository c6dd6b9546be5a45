package api

import (
	"bytes"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/erazemk/invman/internal/imaging"
	"github.com/erazemk/invman/internal/model"
	"github.com/erazemk/invman/internal/store"
)

// OrganizationsHandler handles the organization hierarchy.
type OrganizationsHandler struct {
	DB *sql.DB
}

// List handles GET /organization.
func (h *OrganizationsHandler) List(w http.ResponseWriter, r *http.Request) {
	orgs, err := store.ListOrganizations(r.Context(), h.DB)
	if err != nil {
		storeError(w, err, "failed to list organizations")
		return
	}
	if orgs == nil {
		orgs = []model.Organization{}
	}
	jsonResponse(w, http.StatusOK, orgs)
}

// Create handles POST /organization.
func (h *OrganizationsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.OrganizationRequest
	if !decodeValid(w, r, &req) {
		return
	}

	org, err := store.CreateOrganization(r.Context(), h.DB, req)
	if err != nil {
		storeError(w, err, "failed to create organization")
		return
	}

	slog.Info("organization created", "user", GetClaims(r.Context()).Subject, "organization", org.Name)
	jsonResponse(w, http.StatusCreated, org)
}

// CreateSubInventory handles POST /organization/{id}/sub-inventory.
func (h *OrganizationsHandler) CreateSubInventory(w http.ResponseWriter, r *http.Request) {
	orgID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req model.SubInventoryRequest
	if !decodeValid(w, r, &req) {
		return
	}

	sub, err := store.CreateSubInventory(r.Context(), h.DB, orgID, req)
	if err != nil {
		storeError(w, err, "failed to create sub-inventory")
		return
	}
	jsonResponse(w, http.StatusCreated, sub)
}

// UpdateSubInventory handles PUT /organization/{id}/sub-inventory/{sid}.
func (h *OrganizationsHandler) UpdateSubInventory(w http.ResponseWriter, r *http.Request) {
	orgID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	subID, ok := pathID(w, r, "sid")
	if !ok {
		return
	}
	var req model.SubInventoryRequest
	if !decodeValid(w, r, &req) {
		return
	}

	if err := store.UpdateSubInventory(r.Context(), h.DB, orgID, subID, req); err != nil {
		storeError(w, err, "failed to update sub-inventory")
		return
	}
	h.respondOrganization(w, r, orgID)
}

// DeleteSubInventory handles DELETE /organization/{id}/sub-inventory/{sid}.
func (h *OrganizationsHandler) DeleteSubInventory(w http.ResponseWriter, r *http.Request) {
	orgID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	subID, ok := pathID(w, r, "sid")
	if !ok {
		return
	}

	if err := store.DeleteSubInventory(r.Context(), h.DB, orgID, subID); err != nil {
		storeError(w, err, "failed to delete sub-inventory")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateLocator handles POST /organization/{id}/sub-inventory/{sid}/locator.
func (h *OrganizationsHandler) CreateLocator(w http.ResponseWriter, r *http.Request) {
	orgID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	subID, ok := pathID(w, r, "sid")
	if !ok {
		return
	}
	var req model.LocatorRequest
	if !decodeValid(w, r, &req) {
		return
	}

	loc, err := store.CreateLocator(r.Context(), h.DB, orgID, subID, req)
	if err != nil {
		storeError(w, err, "failed to create locator")
		return
	}
	jsonResponse(w, http.StatusCreated, loc)
}

// UpdateLocator handles PUT /organization/{id}/sub-inventory/{sid}/locator/{lid}.
func (h *OrganizationsHandler) UpdateLocator(w http.ResponseWriter, r *http.Request) {
	orgID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	subID, ok := pathID(w, r, "sid")
	if !ok {
		return
	}
	locID, ok := pathID(w, r, "lid")
	if !ok {
		return
	}
	var req model.LocatorRequest
	if !decodeValid(w, r, &req) {
		return
	}

	if err := store.UpdateLocator(r.Context(), h.DB, orgID, subID, locID, req); err != nil {
		storeError(w, err, "failed to update locator")
		return
	}
	h.respondOrganization(w, r, orgID)
}

// DeleteLocator handles DELETE /organization/{id}/sub-inventory/{sid}/locator/{lid}.
func (h *OrganizationsHandler) DeleteLocator(w http.ResponseWriter, r *http.Request) {
	orgID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	subID, ok := pathID(w, r, "sid")
	if !ok {
		return
	}
	locID, ok := pathID(w, r, "lid")
	if !ok {
		return
	}

	if err := store.DeleteLocator(r.Context(), h.DB, orgID, subID, locID); err != nil {
		storeError(w, err, "failed to delete locator")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *OrganizationsHandler) respondOrganization(w http.ResponseWriter, r *http.Request, id int64) {
	org, err := store.GetOrganization(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err, "failed to get organization")
		return
	}
	if org == nil {
		jsonError(w, http.StatusNotFound, "Organization not found")
		return
	}
	jsonResponse(w, http.StatusOK, org)
}

// UploadAttachment handles PUT /organization/{id}/attachment. The body is the
// raw image; it is normalised to JPEG before storage.
func (h *OrganizationsHandler) UploadAttachment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	defer r.Body.Close()

	att, err := imaging.Normalize(r.Body, imaging.MaxUploadBytes)
	switch {
	case errors.Is(err, imaging.ErrTooLarge):
		jsonError(w, http.StatusRequestEntityTooLarge, err.Error())
		return
	case err != nil:
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := store.SetOrganizationAttachment(r.Context(), h.DB, id, att.Data, att.MIME); err != nil {
		storeError(w, err, "failed to store attachment")
		return
	}

	slog.Info("organization attachment uploaded", "organization", id, "bytes", len(att.Data),
		"width", att.Width, "height", att.Height)
	jsonResponse(w, http.StatusOK, map[string]any{"width": att.Width, "height": att.Height, "size": len(att.Data)})
}

// GetAttachment handles GET /organization/{id}/attachment. ?thumb=1 returns
// a small preview.
func (h *OrganizationsHandler) GetAttachment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	data, mime, err := store.GetOrganizationAttachment(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err, "failed to get attachment")
		return
	}
	if data == nil {
		jsonError(w, http.StatusNotFound, "Attachment not found")
		return
	}

	if r.URL.Query().Get("thumb") != "" {
		thumb, err := imaging.Resize(data, imaging.ThumbDimension)
		if err != nil {
			storeError(w, err, "failed to render thumbnail")
			return
		}
		data, mime = thumb.Data, thumb.MIME
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "private, max-age=300")
	w.WriteHeader(http.StatusOK)
	bytes.NewReader(data).WriteTo(w)
}
