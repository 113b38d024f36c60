package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/kozaktomas/face-attendance/internal/attendance"
	"github.com/kozaktomas/face-attendance/internal/database"
)

// RegionsHandler manages regions and their counters.
type RegionsHandler struct {
	store     database.RegionStore
	recounter *attendance.Recounter
}

// NewRegionsHandler creates a new regions handler.
func NewRegionsHandler(store database.RegionStore, recounter *attendance.Recounter) *RegionsHandler {
	return &RegionsHandler{store: store, recounter: recounter}
}

// RegionResponse is the JSON shape of one region with its counters.
type RegionResponse struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	Label          string `json:"label"`
	EmployeesCount int    `json:"employees_count"`
	ArrivalsCount  int    `json:"arrivals_count"`
	AbsenteesCount int    `json:"absentees_count"`
	Active         bool   `json:"active"`
}

func toRegionResponse(reg database.Region) RegionResponse {
	return RegionResponse{
		ID:             reg.ID,
		Name:           reg.Name,
		Label:          reg.Label,
		EmployeesCount: reg.EmployeesCount,
		ArrivalsCount:  reg.ArrivalsCount,
		AbsenteesCount: reg.AbsenteesCount,
		Active:         reg.Active,
	}
}

// List handles GET /regions.
func (h *RegionsHandler) List(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"
	regions, err := h.store.ListRegions(r.Context(), activeOnly)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	out := make([]RegionResponse, 0, len(regions))
	for _, reg := range regions {
		out = append(out, toRegionResponse(reg))
	}
	respondJSON(w, http.StatusOK, map[string]any{"regions": out})
}

// Get handles GET /regions/{id}.
func (h *RegionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid region id")
		return
	}
	region, err := h.store.GetRegion(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toRegionResponse(*region))
}

// RegionRequest is the body for create and update operations.
type RegionRequest struct {
	Name   string `json:"name"`
	Label  string `json:"label"`
	Active *bool  `json:"active"`
}

// Create handles POST /regions.
func (h *RegionsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req RegionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	region := database.Region{Name: req.Name, Label: req.Label, Active: true}
	if region.Label == "" {
		region.Label = req.Name
	}
	if err := h.store.CreateRegion(r.Context(), &region); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, toRegionResponse(region))
}

// Update handles PUT /regions/{id}.
func (h *RegionsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid region id")
		return
	}
	var req RegionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	region, err := h.store.GetRegion(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if req.Name != "" {
		region.Name = req.Name
	}
	if req.Label != "" {
		region.Label = req.Label
	}
	if req.Active != nil {
		region.Active = *req.Active
	}
	if err := h.store.UpdateRegion(r.Context(), region); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toRegionResponse(*region))
}

// Recount handles POST /regions/{id}/recount, scheduling a full counter
// recount on the background worker.
func (h *RegionsHandler) Recount(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid region id")
		return
	}
	if _, err := h.store.GetRegion(r.Context(), id); err != nil {
		respondServiceError(w, err)
		return
	}
	h.recounter.Schedule(id)
	respondJSON(w, http.StatusAccepted, map[string]string{"status": "scheduled"})
}
