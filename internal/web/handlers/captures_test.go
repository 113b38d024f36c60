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

func seedCapture(t *testing.T, store *mock.Store, employeeID, cameraID int64, at time.Time) {
	t.Helper()
	err := store.AppendCapture(context.Background(), &database.CaptureStat{
		EmployeeID: employeeID,
		CameraID:   cameraID,
		CapturedAt: at,
		FaceImage:  "stats/a.jpg",
		Similarity: 0.9,
	})
	if err != nil {
		t.Fatalf("failed to seed capture: %v", err)
	}
}

func TestCapturesList(t *testing.T) {
	store := mock.NewStore()
	employee := store.AddEmployee(database.Employee{Code: "EMP0001", FirstName: "Jana", LastName: "Nova", Position: "engineer", Active: true})
	camera := store.AddCamera(database.Camera{Name: "gate", IPAddress: "10.0.0.5", Active: true})
	monday := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	seedCapture(t, store, employee.ID, camera.ID, monday)
	seedCapture(t, store, employee.ID, camera.ID, monday.Add(24*time.Hour))
	handler := NewCapturesHandler(store)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/captures?day=2025-06-02", nil)
	rec := httptest.NewRecorder()
	handler.List(rec, req)

	assertStatusCode(t, rec, http.StatusOK)
	var resp struct {
		Captures []CaptureResponse `json:"captures"`
	}
	parseJSONResponse(t, rec, &resp)
	if len(resp.Captures) != 1 {
		t.Fatalf("expected 1 capture for the day, got %d", len(resp.Captures))
	}
	c := resp.Captures[0]
	if c.EmployeeName != "Jana Nova" || c.EmployeeCode != "EMP0001" {
		t.Errorf("expected joined employee data, got %+v", c)
	}
	if c.CameraIP != "10.0.0.5" {
		t.Errorf("expected joined camera ip, got %q", c.CameraIP)
	}
}

func TestCapturesByEmployee(t *testing.T) {
	store := mock.NewStore()
	jana := store.AddEmployee(database.Employee{Code: "EMP0001", FirstName: "Jana", LastName: "Nova", Active: true})
	petr := store.AddEmployee(database.Employee{Code: "EMP0002", FirstName: "Petr", LastName: "Maly", Active: true})
	camera := store.AddCamera(database.Camera{Name: "gate", IPAddress: "10.0.0.5", Active: true})
	now := time.Now()
	seedCapture(t, store, jana.ID, camera.ID, now)
	seedCapture(t, store, petr.ID, camera.ID, now)
	handler := NewCapturesHandler(store)

	req := requestWithChiParams(
		httptest.NewRequest(http.MethodGet, "/api/v1/captures/employee/EMP0002", nil),
		map[string]string{"code": "EMP0002"},
	)
	rec := httptest.NewRecorder()
	handler.ByEmployee(rec, req)

	assertStatusCode(t, rec, http.StatusOK)
	var resp struct {
		Captures []CaptureResponse `json:"captures"`
	}
	parseJSONResponse(t, rec, &resp)
	if len(resp.Captures) != 1 {
		t.Fatalf("expected 1 capture, got %d", len(resp.Captures))
	}
	if resp.Captures[0].EmployeeID != petr.ID {
		t.Errorf("expected captures of employee %d, got %d", petr.ID, resp.Captures[0].EmployeeID)
	}
}

func TestCapturesListBadDay(t *testing.T) {
	handler := NewCapturesHandler(mock.NewStore())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/captures?day=junk", nil)
	rec := httptest.NewRecorder()
	handler.List(rec, req)

	assertStatusCode(t, rec, http.StatusBadRequest)
}
