package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/database/mock"
)

func TestCamerasCreateAndList(t *testing.T) {
	store := mock.NewStore()
	handler := NewCamerasHandler(store, store)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cameras",
		strings.NewReader(`{"name": "gate", "ip_address": "10.0.0.5"}`))
	rec := httptest.NewRecorder()
	handler.Create(rec, req)

	assertStatusCode(t, rec, http.StatusCreated)
	var created CameraResponse
	parseJSONResponse(t, rec, &created)
	if created.IPAddress != "10.0.0.5" || !created.Active {
		t.Errorf("unexpected created camera: %+v", created)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/cameras?active=true", nil)
	rec = httptest.NewRecorder()
	handler.List(rec, req)

	assertStatusCode(t, rec, http.StatusOK)
	var resp struct {
		Cameras []CameraResponse `json:"cameras"`
	}
	parseJSONResponse(t, rec, &resp)
	if len(resp.Cameras) != 1 {
		t.Errorf("expected 1 camera, got %d", len(resp.Cameras))
	}
}

func TestCamerasCreateMissingName(t *testing.T) {
	store := mock.NewStore()
	handler := NewCamerasHandler(store, store)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cameras", strings.NewReader(`{"ip_address": "10.0.0.5"}`))
	rec := httptest.NewRecorder()
	handler.Create(rec, req)
	assertStatusCode(t, rec, http.StatusBadRequest)
}

func TestCamerasUpdate(t *testing.T) {
	store := mock.NewStore()
	store.AddCamera(database.Camera{Name: "gate", IPAddress: "10.0.0.5", Active: true})
	handler := NewCamerasHandler(store, store)

	req := requestWithChiParams(
		httptest.NewRequest(http.MethodPut, "/api/v1/cameras/1",
			strings.NewReader(`{"active": false}`)),
		map[string]string{"id": "1"},
	)
	rec := httptest.NewRecorder()
	handler.Update(rec, req)

	assertStatusCode(t, rec, http.StatusOK)
	var resp CameraResponse
	parseJSONResponse(t, rec, &resp)
	if resp.Active {
		t.Error("expected camera deactivated")
	}
	if resp.Name != "gate" {
		t.Errorf("expected untouched name, got %q", resp.Name)
	}
}

func TestCamerasUpdateNotFound(t *testing.T) {
	store := mock.NewStore()
	handler := NewCamerasHandler(store, store)

	req := requestWithChiParams(
		httptest.NewRequest(http.MethodPut, "/api/v1/cameras/9", strings.NewReader(`{"name": "x"}`)),
		map[string]string{"id": "9"},
	)
	rec := httptest.NewRecorder()
	handler.Update(rec, req)
	assertStatusCode(t, rec, http.StatusNotFound)
}
