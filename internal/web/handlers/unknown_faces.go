package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/quarantine"
)

// UnknownFacesHandler manages the quarantine review queue.
type UnknownFacesHandler struct {
	service *quarantine.Service
}

// NewUnknownFacesHandler creates a new unknown faces handler.
func NewUnknownFacesHandler(service *quarantine.Service) *UnknownFacesHandler {
	return &UnknownFacesHandler{service: service}
}

// UnknownFaceResponse is the JSON shape of one quarantined detection.
type UnknownFaceResponse struct {
	ID               int64     `json:"id"`
	CameraID         int64     `json:"camera_id"`
	FaceImage        string    `json:"face_image"`
	ThumbImage       string    `json:"thumb_image"`
	Similarity       float64   `json:"cosine_similarity"`
	HasEncoding      bool      `json:"has_encoding"`
	Processed        bool      `json:"processed"`
	LinkedEmployeeID *int64    `json:"linked_employee_id,omitempty"`
	RecordedAt       time.Time `json:"recorded_at"`
}

func toUnknownFaceResponse(f database.UnknownFace) UnknownFaceResponse {
	return UnknownFaceResponse{
		ID:               f.ID,
		CameraID:         f.CameraID,
		FaceImage:        f.FaceImage,
		ThumbImage:       f.ThumbImage,
		Similarity:       f.Similarity,
		HasEncoding:      len(f.FaceEncoding) > 0,
		Processed:        f.Processed,
		LinkedEmployeeID: f.LinkedEmployeeID,
		RecordedAt:       f.RecordedAt,
	}
}

// List handles GET /unknown-faces. The processed query parameter filters
// the review queue: "false" lists only open detections.
func (h *UnknownFacesHandler) List(w http.ResponseWriter, r *http.Request) {
	var processed *bool
	switch r.URL.Query().Get("processed") {
	case "true":
		v := true
		processed = &v
	case "false":
		v := false
		processed = &v
	case "":
	default:
		respondError(w, http.StatusBadRequest, "processed must be true or false")
		return
	}

	faces, err := h.service.List(r.Context(), processed, queryInt(r, "limit"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	out := make([]UnknownFaceResponse, 0, len(faces))
	for _, f := range faces {
		out = append(out, toUnknownFaceResponse(f))
	}
	respondJSON(w, http.StatusOK, map[string]any{"unknown_faces": out})
}

// Get handles GET /unknown-faces/{id}.
func (h *UnknownFacesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid detection id")
		return
	}
	face, err := h.service.Get(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toUnknownFaceResponse(*face))
}

// CandidateResponse is one suggested employee for a detection.
type CandidateResponse struct {
	EmployeeID       int64   `json:"employee_id"`
	ReferenceImageID int64   `json:"reference_image_id"`
	Distance         float64 `json:"distance"`
}

// Candidates handles GET /unknown-faces/{id}/candidates.
func (h *UnknownFacesHandler) Candidates(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid detection id")
		return
	}
	candidates, err := h.service.Candidates(r.Context(), id, queryInt(r, "limit"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	out := make([]CandidateResponse, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, CandidateResponse(c))
	}
	respondJSON(w, http.StatusOK, map[string]any{"candidates": out})
}

// LinkRequest is the body of a promotion request.
type LinkRequest struct {
	EmployeeID int64 `json:"employee_id"`
}

// Link handles POST /unknown-faces/{id}/link, promoting the detection
// into a reference image of the given employee.
func (h *UnknownFacesHandler) Link(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid detection id")
		return
	}
	var req LinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.EmployeeID == 0 {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	img, err := h.service.Promote(r.Context(), id, req.EmployeeID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{
		"unknown_face_id":    id,
		"employee_id":        img.EmployeeID,
		"reference_image_id": img.ID,
		"is_primary":         img.IsPrimary,
		"message":            fmt.Sprintf("detection %d linked to employee %d", id, img.EmployeeID),
	})
}
