package handlers

import (
	"net/http"
	"sync"
	"time"

	"github.com/kozaktomas/face-attendance/internal/attendance"
	"github.com/kozaktomas/face-attendance/internal/database"
)

const dashboardCacheTTL = 30 * time.Second

// dashboardCache holds cached dashboard data with expiry. Attendance
// dashboards are refreshed aggressively by wall displays, and the
// underlying counts change slowly.
type dashboardCache struct {
	mu        sync.RWMutex
	data      *DashboardResponse
	expiresAt time.Time
}

func (c *dashboardCache) get() (*DashboardResponse, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.data == nil || time.Now().After(c.expiresAt) {
		return nil, false
	}
	return c.data, true
}

func (c *dashboardCache) set(data *DashboardResponse) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = data
	c.expiresAt = time.Now().Add(dashboardCacheTTL)
}

// DashboardHandler aggregates today's numbers for the overview screen.
type DashboardHandler struct {
	directory  database.DirectoryReader
	attendance database.AttendanceStore
	quarantine database.QuarantineStore
	regions    database.RegionStore
	cache      dashboardCache
	now        func() time.Time
}

// NewDashboardHandler creates a new dashboard handler.
func NewDashboardHandler(
	directory database.DirectoryReader,
	att database.AttendanceStore,
	quarantine database.QuarantineStore,
	regions database.RegionStore,
) *DashboardHandler {
	return &DashboardHandler{
		directory:  directory,
		attendance: att,
		quarantine: quarantine,
		regions:    regions,
		now:        time.Now,
	}
}

// DashboardResponse represents the dashboard aggregate.
type DashboardResponse struct {
	Date            string           `json:"date"`
	ActiveEmployees int              `json:"active_employees"`
	ActiveCameras   int              `json:"active_cameras"`
	PresentToday    int              `json:"present_today"`
	LateToday       int              `json:"late_today"`
	OpenUnknown     int              `json:"open_unknown_faces"`
	Regions         []RegionResponse `json:"regions"`
}

// Get handles GET /dashboard.
func (h *DashboardHandler) Get(w http.ResponseWriter, r *http.Request) {
	if cached, ok := h.cache.get(); ok {
		respondJSON(w, http.StatusOK, cached)
		return
	}

	ctx := r.Context()
	today := attendance.Day(h.now())

	activeEmployees, err := h.directory.CountActiveEmployees(ctx, 0)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	activeCameras, err := h.directory.CountActiveCameras(ctx)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	presentToday, err := h.attendance.CountAttendance(ctx, 0, today, "")
	if err != nil {
		respondServiceError(w, err)
		return
	}
	lateToday, err := h.attendance.CountAttendance(ctx, 0, today, database.StatusLate)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	unprocessed := false
	open, err := h.quarantine.ListUnknownFaces(ctx, &unprocessed, 0)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	regions, err := h.regions.ListRegions(ctx, true)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	regionOut := make([]RegionResponse, 0, len(regions))
	for _, reg := range regions {
		regionOut = append(regionOut, toRegionResponse(reg))
	}

	resp := &DashboardResponse{
		Date:            today.Format("2006-01-02"),
		ActiveEmployees: activeEmployees,
		ActiveCameras:   activeCameras,
		PresentToday:    presentToday,
		LateToday:       lateToday,
		OpenUnknown:     len(open),
		Regions:         regionOut,
	}
	h.cache.set(resp)
	respondJSON(w, http.StatusOK, resp)
}
