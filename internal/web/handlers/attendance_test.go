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

func seedDayRow(t *testing.T, store *mock.Store, employeeID int64, day time.Time) {
	t.Helper()
	checkIn := day.Add(8 * time.Hour)
	created, err := store.StartDay(context.Background(), &database.AttendanceRecord{
		EmployeeID: employeeID,
		Date:       day,
		CheckIn:    &checkIn,
		Status:     database.StatusCame,
	})
	if err != nil || !created {
		t.Fatalf("failed to seed day row: created=%v err=%v", created, err)
	}
}

func TestAttendanceList(t *testing.T) {
	store := mock.NewStore()
	employee := store.AddEmployee(database.Employee{Code: "EMP0001", FirstName: "Jana", LastName: "Nova", Active: true})
	monday := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	seedDayRow(t, store, employee.ID, monday)
	seedDayRow(t, store, employee.ID, monday.Add(24*time.Hour))
	handler := NewAttendanceHandler(store)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/attendance?day=2025-06-02", nil)
	rec := httptest.NewRecorder()
	handler.List(rec, req)

	assertStatusCode(t, rec, http.StatusOK)
	var resp struct {
		Attendance []AttendanceResponse `json:"attendance"`
	}
	parseJSONResponse(t, rec, &resp)
	if len(resp.Attendance) != 1 {
		t.Fatalf("expected 1 row for the day, got %d", len(resp.Attendance))
	}
	row := resp.Attendance[0]
	if row.Date != "2025-06-02" {
		t.Errorf("expected date 2025-06-02, got %q", row.Date)
	}
	if row.EmployeeCode != "EMP0001" {
		t.Errorf("expected employee code on the row, got %q", row.EmployeeCode)
	}
	if row.CheckIn == nil || row.CheckOut != nil {
		t.Errorf("expected open day row, got check_in=%v check_out=%v", row.CheckIn, row.CheckOut)
	}
}

func TestAttendanceListAllDays(t *testing.T) {
	store := mock.NewStore()
	employee := store.AddEmployee(database.Employee{Code: "EMP0001", FirstName: "Jana", LastName: "Nova", Active: true})
	monday := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	seedDayRow(t, store, employee.ID, monday)
	seedDayRow(t, store, employee.ID, monday.Add(24*time.Hour))
	handler := NewAttendanceHandler(store)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/attendance", nil)
	rec := httptest.NewRecorder()
	handler.List(rec, req)

	assertStatusCode(t, rec, http.StatusOK)
	var resp struct {
		Attendance []AttendanceResponse `json:"attendance"`
	}
	parseJSONResponse(t, rec, &resp)
	if len(resp.Attendance) != 2 {
		t.Errorf("expected 2 rows without a day filter, got %d", len(resp.Attendance))
	}
}

func TestAttendanceListBadDay(t *testing.T) {
	handler := NewAttendanceHandler(mock.NewStore())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/attendance?day=today", nil)
	rec := httptest.NewRecorder()
	handler.List(rec, req)

	assertStatusCode(t, rec, http.StatusBadRequest)
}
