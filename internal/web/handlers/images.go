package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/face-attendance/internal/imagestore"
)

// ImagesHandler serves stored face crops and thumbnails.
type ImagesHandler struct {
	store *imagestore.Store
}

// NewImagesHandler creates a new images handler.
func NewImagesHandler(store *imagestore.Store) *ImagesHandler {
	return &ImagesHandler{store: store}
}

// Serve handles GET /images/*, where the wildcard is the relative path
// returned by the ingestion and listing endpoints.
func (h *ImagesHandler) Serve(w http.ResponseWriter, r *http.Request) {
	rel := chi.URLParam(r, "*")
	if rel == "" {
		respondError(w, http.StatusBadRequest, "missing image path")
		return
	}
	full, err := h.store.Open(rel)
	if err != nil {
		respondError(w, http.StatusNotFound, "image not found")
		return
	}
	http.ServeFile(w, r, full)
}
