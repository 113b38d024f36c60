package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kozaktomas/face-attendance/internal/attendance"
	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/database/mock"
)

func TestRegionsCreateAndList(t *testing.T) {
	store := mock.NewStore()
	handler := NewRegionsHandler(store, attendance.NewRecounter(store, 4))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/regions",
		strings.NewReader(`{"name": "hq", "label": "Headquarters"}`))
	rec := httptest.NewRecorder()
	handler.Create(rec, req)

	assertStatusCode(t, rec, http.StatusCreated)
	var created RegionResponse
	parseJSONResponse(t, rec, &created)
	if created.Label != "Headquarters" || !created.Active {
		t.Errorf("unexpected created region: %+v", created)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/regions", nil)
	rec = httptest.NewRecorder()
	handler.List(rec, req)

	assertStatusCode(t, rec, http.StatusOK)
	var resp struct {
		Regions []RegionResponse `json:"regions"`
	}
	parseJSONResponse(t, rec, &resp)
	if len(resp.Regions) != 1 {
		t.Errorf("expected 1 region, got %d", len(resp.Regions))
	}
}

func TestRegionsCreateMissingName(t *testing.T) {
	store := mock.NewStore()
	handler := NewRegionsHandler(store, attendance.NewRecounter(store, 4))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/regions", strings.NewReader(`{"label": "x"}`))
	rec := httptest.NewRecorder()
	handler.Create(rec, req)
	assertStatusCode(t, rec, http.StatusBadRequest)
}

func TestRegionsUpdate(t *testing.T) {
	store := mock.NewStore()
	store.AddRegion(database.Region{Name: "hq", Label: "HQ", Active: true})
	handler := NewRegionsHandler(store, attendance.NewRecounter(store, 4))

	req := requestWithChiParams(
		httptest.NewRequest(http.MethodPut, "/api/v1/regions/1",
			strings.NewReader(`{"label": "Main office"}`)),
		map[string]string{"id": "1"},
	)
	rec := httptest.NewRecorder()
	handler.Update(rec, req)

	assertStatusCode(t, rec, http.StatusOK)
	var resp RegionResponse
	parseJSONResponse(t, rec, &resp)
	if resp.Label != "Main office" || resp.Name != "hq" {
		t.Errorf("unexpected updated region: %+v", resp)
	}
}

func TestRegionsRecount(t *testing.T) {
	store := mock.NewStore()
	region := store.AddRegion(database.Region{Name: "hq", Label: "HQ", Active: true})
	regionID := region.ID
	store.AddEmployee(database.Employee{Code: "EMP0001", FirstName: "Jana", LastName: "Nova", RegionID: &regionID, Active: true})

	recounter := attendance.NewRecounter(store, 4)
	recounter.Start(context.Background())
	handler := NewRegionsHandler(store, recounter)

	req := requestWithChiParams(
		httptest.NewRequest(http.MethodPost, "/api/v1/regions/1/recount", nil),
		map[string]string{"id": "1"},
	)
	rec := httptest.NewRecorder()
	handler.Recount(rec, req)

	assertStatusCode(t, rec, http.StatusAccepted)
	recounter.Stop()

	got, err := store.GetRegion(context.Background(), region.ID)
	if err != nil {
		t.Fatalf("failed to load region: %v", err)
	}
	if got.EmployeesCount != 1 {
		t.Errorf("expected recounted employees 1, got %d", got.EmployeesCount)
	}
}

func TestRegionsRecountNotFound(t *testing.T) {
	store := mock.NewStore()
	handler := NewRegionsHandler(store, attendance.NewRecounter(store, 4))

	req := requestWithChiParams(
		httptest.NewRequest(http.MethodPost, "/api/v1/regions/7/recount", nil),
		map[string]string{"id": "7"},
	)
	rec := httptest.NewRecorder()
	handler.Recount(rec, req)
	assertStatusCode(t, rec, http.StatusNotFound)
}

func TestRegionsGetCounters(t *testing.T) {
	store := mock.NewStore()
	region := store.AddRegion(database.Region{Name: "hq", Label: "HQ", Active: true})
	regionID := region.ID
	employee := store.AddEmployee(database.Employee{Code: "EMP0001", FirstName: "Jana", LastName: "Nova", RegionID: &regionID, Active: true})

	day := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	checkIn := day.Add(8 * time.Hour)
	if _, err := store.StartDay(context.Background(), &database.AttendanceRecord{
		EmployeeID: employee.ID,
		RegionID:   &regionID,
		Date:       day,
		CheckIn:    &checkIn,
		Status:     database.StatusCame,
	}); err != nil {
		t.Fatalf("failed to seed attendance: %v", err)
	}
	if err := store.RecountRegion(context.Background(), region.ID, day); err != nil {
		t.Fatalf("failed to recount: %v", err)
	}

	handler := NewRegionsHandler(store, attendance.NewRecounter(store, 4))
	req := requestWithChiParams(
		httptest.NewRequest(http.MethodGet, "/api/v1/regions/1", nil),
		map[string]string{"id": "1"},
	)
	rec := httptest.NewRecorder()
	handler.Get(rec, req)

	assertStatusCode(t, rec, http.StatusOK)
	var resp RegionResponse
	parseJSONResponse(t, rec, &resp)
	if resp.EmployeesCount != 1 || resp.ArrivalsCount != 1 {
		t.Errorf("unexpected counters: %+v", resp)
	}
}
