package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/kozaktomas/face-attendance/internal/attendance"
	"github.com/kozaktomas/face-attendance/internal/database"
)

// EmployeesHandler manages the employee directory.
type EmployeesHandler struct {
	reader    database.EmployeeReader
	writer    database.EmployeeWriter
	images    database.ReferenceImageStore
	recounter *attendance.Recounter
}

// NewEmployeesHandler creates a new employees handler. Roster changes feed
// the region counters, so every write schedules a recount of the affected
// region. recounter may be nil in tests.
func NewEmployeesHandler(reader database.EmployeeReader, writer database.EmployeeWriter, images database.ReferenceImageStore, recounter *attendance.Recounter) *EmployeesHandler {
	return &EmployeesHandler{reader: reader, writer: writer, images: images, recounter: recounter}
}

func (h *EmployeesHandler) scheduleRecount(regionID *int64) {
	if h.recounter == nil || regionID == nil {
		return
	}
	h.recounter.Schedule(*regionID)
}

// EmployeeResponse is the JSON shape of one employee.
type EmployeeResponse struct {
	ID        int64  `json:"id"`
	Code      string `json:"code"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	FullName  string `json:"full_name"`
	Position  string `json:"position"`
	RegionID  *int64 `json:"region_id,omitempty"`
	Active    bool   `json:"active"`
}

func toEmployeeResponse(e database.Employee) EmployeeResponse {
	return EmployeeResponse{
		ID:        e.ID,
		Code:      e.Code,
		FirstName: e.FirstName,
		LastName:  e.LastName,
		FullName:  e.FullName(),
		Position:  e.Position,
		RegionID:  e.RegionID,
		Active:    e.Active,
	}
}

// List handles GET /employees. The q parameter searches by name,
// diacritics- and case-insensitive.
func (h *EmployeesHandler) List(w http.ResponseWriter, r *http.Request) {
	query := database.NormalizeName(database.RemoveDiacritics(r.URL.Query().Get("q")))
	activeOnly := r.URL.Query().Get("active") == "true"

	employees, err := h.reader.SearchEmployees(r.Context(), query, activeOnly)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	out := make([]EmployeeResponse, 0, len(employees))
	for _, e := range employees {
		out = append(out, toEmployeeResponse(e))
	}
	respondJSON(w, http.StatusOK, map[string]any{"employees": out})
}

// Get handles GET /employees/{id}.
func (h *EmployeesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid employee id")
		return
	}
	employee, err := h.reader.GetEmployee(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toEmployeeResponse(*employee))
}

// EmployeeRequest is the body for create and update operations.
type EmployeeRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Position  string `json:"position"`
	RegionID  *int64 `json:"region_id"`
	Active    *bool  `json:"active"`
}

// Create handles POST /employees. The employee code is generated by the
// store and cannot be chosen by the caller.
func (h *EmployeesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req EmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if req.FirstName == "" && req.LastName == "" {
		respondError(w, http.StatusBadRequest, "employee name is required")
		return
	}

	employee := database.Employee{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Position:  req.Position,
		RegionID:  req.RegionID,
		Active:    true,
	}
	if err := h.writer.CreateEmployee(r.Context(), &employee); err != nil {
		respondServiceError(w, err)
		return
	}
	h.scheduleRecount(employee.RegionID)
	respondJSON(w, http.StatusCreated, toEmployeeResponse(employee))
}

// Update handles PUT /employees/{id}.
func (h *EmployeesHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid employee id")
		return
	}
	var req EmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	existing, err := h.reader.GetEmployee(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	previousRegion := existing.RegionID
	if req.FirstName != "" {
		existing.FirstName = req.FirstName
	}
	if req.LastName != "" {
		existing.LastName = req.LastName
	}
	if req.Position != "" {
		existing.Position = req.Position
	}
	if req.RegionID != nil {
		existing.RegionID = req.RegionID
	}
	if req.Active != nil {
		existing.Active = *req.Active
	}

	if err := h.writer.UpdateEmployee(r.Context(), existing); err != nil {
		respondServiceError(w, err)
		return
	}
	// A moved employee changes the counts of both regions.
	h.scheduleRecount(existing.RegionID)
	if previousRegion != nil && (existing.RegionID == nil || *existing.RegionID != *previousRegion) {
		h.scheduleRecount(previousRegion)
	}
	respondJSON(w, http.StatusOK, toEmployeeResponse(*existing))
}

// Deactivate handles DELETE /employees/{id}. Employees are soft-deleted:
// their history stays, they just stop matching.
func (h *EmployeesHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid employee id")
		return
	}
	employee, err := h.reader.GetEmployee(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if err := h.writer.DeactivateEmployee(r.Context(), id); err != nil {
		respondServiceError(w, err)
		return
	}
	h.scheduleRecount(employee.RegionID)
	respondJSON(w, http.StatusOK, map[string]string{"status": "deactivated"})
}

// ReferenceImageResponse is the JSON shape of one reference image.
type ReferenceImageResponse struct {
	ID        int64  `json:"id"`
	Path      string `json:"path"`
	IsPrimary bool   `json:"is_primary"`
}

// Images handles GET /employees/{id}/images.
func (h *EmployeesHandler) Images(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid employee id")
		return
	}
	if _, err := h.reader.GetEmployee(r.Context(), id); err != nil {
		respondServiceError(w, err)
		return
	}
	images, err := h.images.ListReferenceImages(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	out := make([]ReferenceImageResponse, 0, len(images))
	for _, img := range images {
		out = append(out, ReferenceImageResponse{ID: img.ID, Path: img.Path, IsPrimary: img.IsPrimary})
	}
	respondJSON(w, http.StatusOK, map[string]any{"images": out})
}
