package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/face-attendance/internal/database"
)

// CapturesHandler serves the append-only capture journal.
type CapturesHandler struct {
	store database.CaptureStore
}

// NewCapturesHandler creates a new captures handler.
func NewCapturesHandler(store database.CaptureStore) *CapturesHandler {
	return &CapturesHandler{store: store}
}

// CaptureResponse is the JSON shape of one journal row.
type CaptureResponse struct {
	ID           int64     `json:"id"`
	EmployeeID   int64     `json:"employee_id"`
	EmployeeCode string    `json:"employee_code"`
	EmployeeName string    `json:"employee_name"`
	Position     string    `json:"position"`
	RegionLabel  string    `json:"region_label"`
	CameraIP     string    `json:"camera_ip"`
	CapturedAt   time.Time `json:"captured_at"`
	FaceImage    string    `json:"face_image"`
	Similarity   float64   `json:"cosine_similarity"`
}

func toCaptureResponse(d database.CaptureDetail) CaptureResponse {
	return CaptureResponse{
		ID:           d.ID,
		EmployeeID:   d.EmployeeID,
		EmployeeCode: d.EmployeeCode,
		EmployeeName: d.EmployeeName,
		Position:     d.Position,
		RegionLabel:  d.RegionLabel,
		CameraIP:     d.CameraIP,
		CapturedAt:   d.CapturedAt,
		FaceImage:    d.FaceImage,
		Similarity:   d.Similarity,
	}
}

func respondCaptures(w http.ResponseWriter, captures []database.CaptureDetail) {
	out := make([]CaptureResponse, 0, len(captures))
	for _, c := range captures {
		out = append(out, toCaptureResponse(c))
	}
	respondJSON(w, http.StatusOK, map[string]any{"captures": out})
}

// List handles GET /captures with optional day and limit filters.
func (h *CapturesHandler) List(w http.ResponseWriter, r *http.Request) {
	day, err := queryDay(r, "day")
	if err != nil {
		respondError(w, http.StatusBadRequest, "day must be YYYY-MM-DD")
		return
	}
	captures, err := h.store.ListCaptures(r.Context(), day, queryInt(r, "limit"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondCaptures(w, captures)
}

// ByEmployee handles GET /captures/employee/{code}.
func (h *CapturesHandler) ByEmployee(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if code == "" {
		respondError(w, http.StatusBadRequest, "missing employee code")
		return
	}
	captures, err := h.store.ListCapturesByEmployeeCode(r.Context(), code, queryInt(r, "limit"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondCaptures(w, captures)
}
