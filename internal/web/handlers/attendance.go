package handlers

import (
	"net/http"
	"time"

	"github.com/kozaktomas/face-attendance/internal/database"
)

// AttendanceHandler serves attendance day rows.
type AttendanceHandler struct {
	store database.AttendanceStore
}

// NewAttendanceHandler creates a new attendance handler.
func NewAttendanceHandler(store database.AttendanceStore) *AttendanceHandler {
	return &AttendanceHandler{store: store}
}

// AttendanceResponse is the JSON shape of one attendance day row.
type AttendanceResponse struct {
	ID           int64      `json:"id"`
	EmployeeID   int64      `json:"employee_id"`
	EmployeeCode string     `json:"employee_code"`
	EmployeeName string     `json:"employee_name"`
	Date         string     `json:"date"`
	CheckIn      *time.Time `json:"check_in"`
	CheckOut     *time.Time `json:"check_out"`
	Status       string     `json:"status"`
	FaceImage    string     `json:"face_image"`
	ThumbImage   string     `json:"thumb_image"`
	Similarity   float64    `json:"cosine_similarity"`
}

func toAttendanceResponse(d database.AttendanceDetail) AttendanceResponse {
	return AttendanceResponse{
		ID:           d.ID,
		EmployeeID:   d.EmployeeID,
		EmployeeCode: d.EmployeeCode,
		EmployeeName: d.EmployeeName,
		Date:         d.Date.UTC().Format("2006-01-02"),
		CheckIn:      d.CheckIn,
		CheckOut:     d.CheckOut,
		Status:       d.Status,
		FaceImage:    d.FaceImage,
		ThumbImage:   d.ThumbImage,
		Similarity:   d.Similarity,
	}
}

// List handles GET /attendance with optional day, region_id and limit filters.
func (h *AttendanceHandler) List(w http.ResponseWriter, r *http.Request) {
	day, err := queryDay(r, "day")
	if err != nil {
		respondError(w, http.StatusBadRequest, "day must be YYYY-MM-DD")
		return
	}

	records, err := h.store.ListAttendance(r.Context(), database.AttendanceListOptions{
		Day:      day,
		RegionID: queryInt64(r, "region_id"),
		Limit:    queryInt(r, "limit"),
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	out := make([]AttendanceResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, toAttendanceResponse(rec))
	}
	respondJSON(w, http.StatusOK, map[string]any{"attendance": out})
}
