package handlers

import (
	"net/http"

	"gorm.io/datatypes"

	"github.com/luxequeer/deployer/internal/api/types"
	"github.com/luxequeer/deployer/internal/models"
	"github.com/luxequeer/deployer/internal/services"
)

// ContentHandler previews the rows the Octavia page reads.
type ContentHandler struct {
	svc      services.ContentService
	validate Validator
}

func NewContentHandler(svc services.ContentService, v Validator) *ContentHandler {
	return &ContentHandler{svc: svc, validate: v}
}

func (h *ContentHandler) LatestEdit(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.LatestEdit(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, types.APIResponse{Success: true, Data: c})
}

func (h *ContentHandler) Gallery(w http.ResponseWriter, r *http.Request) {
	g, err := h.svc.OctaviaGallery(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, types.APIResponse{Success: true, Data: g})
}

func (h *ContentHandler) SaveGallery(w http.ResponseWriter, r *http.Request) {
	var req types.GallerySaveRequest
	if !decode(w, r, h.validate, &req) {
		return
	}

	imgs := make([]models.Image, 0, len(req.Images))
	for _, in := range req.Images {
		imgs = append(imgs, models.Image{
			URL:         in.URL,
			Description: in.Description,
			Metadata:    datatypes.JSON(in.Metadata),
		})
	}
	if err := h.svc.SaveGallery(r.Context(), imgs); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, types.APIResponse{Success: true, Data: imgs})
}
