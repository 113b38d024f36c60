package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/kozaktomas/face-attendance/internal/database"
)

// CamerasHandler manages the camera directory.
type CamerasHandler struct {
	reader database.CameraReader
	writer database.CameraWriter
}

// NewCamerasHandler creates a new cameras handler.
func NewCamerasHandler(reader database.CameraReader, writer database.CameraWriter) *CamerasHandler {
	return &CamerasHandler{reader: reader, writer: writer}
}

// CameraResponse is the JSON shape of one camera.
type CameraResponse struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	IPAddress string `json:"ip_address"`
	RegionID  *int64 `json:"region_id,omitempty"`
	Active    bool   `json:"active"`
}

func toCameraResponse(c database.Camera) CameraResponse {
	return CameraResponse{
		ID:        c.ID,
		Name:      c.Name,
		IPAddress: c.IPAddress,
		RegionID:  c.RegionID,
		Active:    c.Active,
	}
}

// List handles GET /cameras.
func (h *CamerasHandler) List(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"
	cameras, err := h.reader.ListCameras(r.Context(), activeOnly)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	out := make([]CameraResponse, 0, len(cameras))
	for _, c := range cameras {
		out = append(out, toCameraResponse(c))
	}
	respondJSON(w, http.StatusOK, map[string]any{"cameras": out})
}

// CameraRequest is the body for create and update operations.
type CameraRequest struct {
	Name      string `json:"name"`
	IPAddress string `json:"ip_address"`
	RegionID  *int64 `json:"region_id"`
	Active    *bool  `json:"active"`
}

// Create handles POST /cameras.
func (h *CamerasHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CameraRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	camera := database.Camera{
		Name:      req.Name,
		IPAddress: req.IPAddress,
		RegionID:  req.RegionID,
		Active:    true,
	}
	if err := h.writer.CreateCamera(r.Context(), &camera); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, toCameraResponse(camera))
}

// Update handles PUT /cameras/{id}.
func (h *CamerasHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid camera id")
		return
	}
	var req CameraRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	camera, err := h.reader.GetCamera(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if req.Name != "" {
		camera.Name = req.Name
	}
	if req.IPAddress != "" {
		camera.IPAddress = req.IPAddress
	}
	if req.RegionID != nil {
		camera.RegionID = req.RegionID
	}
	if req.Active != nil {
		camera.Active = *req.Active
	}
	if err := h.writer.UpdateCamera(r.Context(), camera); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toCameraResponse(*camera))
}
