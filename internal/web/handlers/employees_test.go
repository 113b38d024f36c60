package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/kozaktomas/face-attendance/internal/attendance"
	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/database/mock"
)

func TestEmployeesCreateAndGet(t *testing.T) {
	store := mock.NewStore()
	handler := NewEmployeesHandler(store, store, store, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/employees",
		strings.NewReader(`{"first_name": "Jana", "last_name": "Nová", "position": "engineer"}`))
	rec := httptest.NewRecorder()
	handler.Create(rec, req)

	assertStatusCode(t, rec, http.StatusCreated)
	var created EmployeeResponse
	parseJSONResponse(t, rec, &created)
	if created.Code != "EMP0001" {
		t.Errorf("expected generated code EMP0001, got %q", created.Code)
	}
	if !created.Active {
		t.Error("expected new employee active")
	}
	if created.FullName != "Jana Nová" {
		t.Errorf("expected full name, got %q", created.FullName)
	}

	req = requestWithChiParams(
		httptest.NewRequest(http.MethodGet, "/api/v1/employees/1", nil),
		map[string]string{"id": "1"},
	)
	rec = httptest.NewRecorder()
	handler.Get(rec, req)
	assertStatusCode(t, rec, http.StatusOK)
}

func TestEmployeesCreateSequentialCodes(t *testing.T) {
	store := mock.NewStore()
	handler := NewEmployeesHandler(store, store, store, nil)

	var last EmployeeResponse
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/employees",
			strings.NewReader(`{"first_name": "A", "last_name": "B"}`))
		rec := httptest.NewRecorder()
		handler.Create(rec, req)
		assertStatusCode(t, rec, http.StatusCreated)
		parseJSONResponse(t, rec, &last)
	}
	if last.Code != "EMP0002" {
		t.Errorf("expected second code EMP0002, got %q", last.Code)
	}
}

func TestEmployeesCreateMissingName(t *testing.T) {
	store := mock.NewStore()
	handler := NewEmployeesHandler(store, store, store, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/employees", strings.NewReader(`{"position": "x"}`))
	rec := httptest.NewRecorder()
	handler.Create(rec, req)
	assertStatusCode(t, rec, http.StatusBadRequest)
}

func TestEmployeesListSearch(t *testing.T) {
	store := mock.NewStore()
	store.AddEmployee(database.Employee{Code: "EMP0001", FirstName: "Jana", LastName: "Nova", Active: true})
	store.AddEmployee(database.Employee{Code: "EMP0002", FirstName: "Petr", LastName: "Maly", Active: true})
	handler := NewEmployeesHandler(store, store, store, nil)

	// Diacritics in the query must still match the plain stored name.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/employees?q=Jan%C3%A1", nil)
	rec := httptest.NewRecorder()
	handler.List(rec, req)

	assertStatusCode(t, rec, http.StatusOK)
	var resp struct {
		Employees []EmployeeResponse `json:"employees"`
	}
	parseJSONResponse(t, rec, &resp)
	if len(resp.Employees) != 1 || resp.Employees[0].Code != "EMP0001" {
		t.Errorf("expected only Jana in results, got %+v", resp.Employees)
	}
}

func TestEmployeesUpdate(t *testing.T) {
	store := mock.NewStore()
	store.AddEmployee(database.Employee{Code: "EMP0001", FirstName: "Jana", LastName: "Nova", Active: true})
	handler := NewEmployeesHandler(store, store, store, nil)

	req := requestWithChiParams(
		httptest.NewRequest(http.MethodPut, "/api/v1/employees/1",
			strings.NewReader(`{"position": "lead engineer"}`)),
		map[string]string{"id": "1"},
	)
	rec := httptest.NewRecorder()
	handler.Update(rec, req)

	assertStatusCode(t, rec, http.StatusOK)
	var resp EmployeeResponse
	parseJSONResponse(t, rec, &resp)
	if resp.Position != "lead engineer" {
		t.Errorf("expected updated position, got %q", resp.Position)
	}
	if resp.FirstName != "Jana" {
		t.Errorf("expected untouched name, got %q", resp.FirstName)
	}
}

func TestEmployeesDeactivate(t *testing.T) {
	store := mock.NewStore()
	employee := store.AddEmployee(database.Employee{Code: "EMP0001", FirstName: "Jana", LastName: "Nova", Active: true})
	handler := NewEmployeesHandler(store, store, store, nil)

	req := requestWithChiParams(
		httptest.NewRequest(http.MethodDelete, "/api/v1/employees/1", nil),
		map[string]string{"id": "1"},
	)
	rec := httptest.NewRecorder()
	handler.Deactivate(rec, req)

	assertStatusCode(t, rec, http.StatusOK)
	got, err := store.GetEmployee(req.Context(), employee.ID)
	if err != nil {
		t.Fatalf("failed to load employee: %v", err)
	}
	if got.Active {
		t.Error("expected employee deactivated")
	}
}

func TestEmployeesWritesScheduleRecount(t *testing.T) {
	store := mock.NewStore()
	first := store.AddRegion(database.Region{Name: "hq", Label: "HQ", Active: true})
	second := store.AddRegion(database.Region{Name: "plant", Label: "Plant", Active: true})
	rc := attendance.NewRecounter(store, 8)
	rc.Start(context.Background())
	handler := NewEmployeesHandler(store, store, store, rc)

	body := fmt.Sprintf(`{"first_name": "Jana", "last_name": "Nova", "region_id": %d}`, first.ID)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/employees", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.Create(rec, req)
	assertStatusCode(t, rec, http.StatusCreated)
	var created EmployeeResponse
	parseJSONResponse(t, rec, &created)
	employeeID := strconv.FormatInt(created.ID, 10)

	// Moving the employee recounts both the old and the new region.
	req = requestWithChiParams(
		httptest.NewRequest(http.MethodPut, "/api/v1/employees/"+employeeID,
			strings.NewReader(fmt.Sprintf(`{"region_id": %d}`, second.ID))),
		map[string]string{"id": employeeID},
	)
	rec = httptest.NewRecorder()
	handler.Update(rec, req)
	assertStatusCode(t, rec, http.StatusOK)

	req = requestWithChiParams(
		httptest.NewRequest(http.MethodDelete, "/api/v1/employees/"+employeeID, nil),
		map[string]string{"id": employeeID},
	)
	rec = httptest.NewRecorder()
	handler.Deactivate(rec, req)
	assertStatusCode(t, rec, http.StatusOK)

	rc.Stop()

	// Create, move (both regions), deactivate.
	if len(store.RecountCalls) != 4 {
		t.Fatalf("expected 4 recounts, got %d (%v)", len(store.RecountCalls), store.RecountCalls)
	}
	oldRegion, err := store.GetRegion(context.Background(), first.ID)
	if err != nil {
		t.Fatalf("failed to load region: %v", err)
	}
	if oldRegion.EmployeesCount != 0 {
		t.Errorf("expected old region emptied, got %d employees", oldRegion.EmployeesCount)
	}
	newRegion, err := store.GetRegion(context.Background(), second.ID)
	if err != nil {
		t.Fatalf("failed to load region: %v", err)
	}
	if newRegion.EmployeesCount != 0 {
		t.Errorf("expected deactivated employee not counted, got %d", newRegion.EmployeesCount)
	}
}

func TestEmployeesGetNotFound(t *testing.T) {
	store := mock.NewStore()
	handler := NewEmployeesHandler(store, store, store, nil)

	req := requestWithChiParams(
		httptest.NewRequest(http.MethodGet, "/api/v1/employees/42", nil),
		map[string]string{"id": "42"},
	)
	rec := httptest.NewRecorder()
	handler.Get(rec, req)
	assertStatusCode(t, rec, http.StatusNotFound)
}

func TestEmployeesImages(t *testing.T) {
	store := mock.NewStore()
	employee := store.AddEmployee(database.Employee{Code: "EMP0001", FirstName: "Jana", LastName: "Nova", Active: true})
	if err := store.CreateReferenceImage(context.Background(), &database.ReferenceImage{
		EmployeeID: employee.ID,
		Path:       "unknown/a.jpg",
		IsPrimary:  true,
	}); err != nil {
		t.Fatalf("failed to seed reference image: %v", err)
	}
	handler := NewEmployeesHandler(store, store, store, nil)

	req := requestWithChiParams(
		httptest.NewRequest(http.MethodGet, "/api/v1/employees/1/images", nil),
		map[string]string{"id": "1"},
	)
	rec := httptest.NewRecorder()
	handler.Images(rec, req)

	assertStatusCode(t, rec, http.StatusOK)
	var resp struct {
		Images []ReferenceImageResponse `json:"images"`
	}
	parseJSONResponse(t, rec, &resp)
	if len(resp.Images) != 1 || !resp.Images[0].IsPrimary {
		t.Errorf("expected one primary image, got %+v", resp.Images)
	}
}
