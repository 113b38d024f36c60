package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/database/mock"
)

func TestDashboardGet(t *testing.T) {
	store := mock.NewStore()
	region := store.AddRegion(database.Region{Name: "hq", Label: "HQ", Active: true})
	regionID := region.ID
	jana := store.AddEmployee(database.Employee{Code: "EMP0001", FirstName: "Jana", LastName: "Nova", RegionID: &regionID, Active: true})
	petr := store.AddEmployee(database.Employee{Code: "EMP0002", FirstName: "Petr", LastName: "Maly", RegionID: &regionID, Active: true})
	store.AddCamera(database.Camera{Name: "gate", IPAddress: "10.0.0.5", Active: true})

	now := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	day := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	checkIn := day.Add(8 * time.Hour)
	lateIn := day.Add(10 * time.Hour)
	ctx := context.Background()
	if _, err := store.StartDay(ctx, &database.AttendanceRecord{
		EmployeeID: jana.ID, RegionID: &regionID, Date: day, CheckIn: &checkIn, Status: database.StatusCame,
	}); err != nil {
		t.Fatalf("failed to seed attendance: %v", err)
	}
	if _, err := store.StartDay(ctx, &database.AttendanceRecord{
		EmployeeID: petr.ID, RegionID: &regionID, Date: day, CheckIn: &lateIn, Status: database.StatusLate,
	}); err != nil {
		t.Fatalf("failed to seed attendance: %v", err)
	}
	if err := store.InsertUnknownFace(ctx, &database.UnknownFace{CameraID: 1, FaceImage: "unknown/a.jpg"}); err != nil {
		t.Fatalf("failed to seed unknown face: %v", err)
	}

	handler := NewDashboardHandler(store, store, store, store)
	handler.now = func() time.Time { return now }

	req := httptest.NewRequest(http.MethodGet, "/api/v1/dashboard", nil)
	rec := httptest.NewRecorder()
	handler.Get(rec, req)

	assertStatusCode(t, rec, http.StatusOK)
	var resp DashboardResponse
	parseJSONResponse(t, rec, &resp)
	if resp.Date != "2025-06-02" {
		t.Errorf("expected date 2025-06-02, got %q", resp.Date)
	}
	if resp.ActiveEmployees != 2 {
		t.Errorf("expected 2 active employees, got %d", resp.ActiveEmployees)
	}
	if resp.ActiveCameras != 1 {
		t.Errorf("expected 1 active camera, got %d", resp.ActiveCameras)
	}
	if resp.PresentToday != 2 {
		t.Errorf("expected 2 present today, got %d", resp.PresentToday)
	}
	if resp.LateToday != 1 {
		t.Errorf("expected 1 late today, got %d", resp.LateToday)
	}
	if resp.OpenUnknown != 1 {
		t.Errorf("expected 1 open unknown face, got %d", resp.OpenUnknown)
	}
	if len(resp.Regions) != 1 {
		t.Errorf("expected 1 region, got %d", len(resp.Regions))
	}
}

func TestDashboardCaches(t *testing.T) {
	store := mock.NewStore()
	handler := NewDashboardHandler(store, store, store, store)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/dashboard", nil)
	rec := httptest.NewRecorder()
	handler.Get(rec, req)
	assertStatusCode(t, rec, http.StatusOK)

	// New data within the TTL must not change the response.
	store.AddEmployee(database.Employee{Code: "EMP0001", FirstName: "Jana", LastName: "Nova", Active: true})
	rec = httptest.NewRecorder()
	handler.Get(rec, req)
	var resp DashboardResponse
	parseJSONResponse(t, rec, &resp)
	if resp.ActiveEmployees != 0 {
		t.Errorf("expected cached zero count, got %d", resp.ActiveEmployees)
	}
}
