package handlers

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/kozaktomas/face-attendance/internal/ingest"
)

// maxUploadSize bounds the multipart form held in memory per request.
const maxUploadSize = 10 << 20 // 10 MiB

// RecognitionsHandler accepts recognition events from edge devices.
type RecognitionsHandler struct {
	gateway *ingest.Gateway
}

// NewRecognitionsHandler creates a new recognitions handler.
func NewRecognitionsHandler(gateway *ingest.Gateway) *RecognitionsHandler {
	return &RecognitionsHandler{gateway: gateway}
}

// Create handles POST /recognitions. The body is a multipart form with
// fields file, user, cosine_similarity, camera_ip and timestamp, plus an
// optional face_encoding JSON array.
func (h *RecognitionsHandler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		respondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	image, err := io.ReadAll(io.LimitReader(file, maxUploadSize))
	if err != nil {
		respondError(w, http.StatusBadRequest, "failed to read file")
		return
	}

	similarity, err := strconv.ParseFloat(r.FormValue("cosine_similarity"), 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid cosine_similarity")
		return
	}

	occurredAt, err := parseTimestamp(r.FormValue("timestamp"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid timestamp")
		return
	}

	var encoding []float32
	if raw := r.FormValue("face_encoding"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &encoding); err != nil {
			respondError(w, http.StatusBadRequest, "invalid face_encoding")
			return
		}
	}

	result, err := h.gateway.Process(r.Context(), ingest.Event{
		Subject:    r.FormValue("user"),
		Similarity: similarity,
		CameraIP:   r.FormValue("camera_ip"),
		OccurredAt: occurredAt,
		Image:      image,
		Encoding:   encoding,
	})
	if err != nil {
		log.Printf("recognition event rejected (camera %s): %v",
			sanitizeForLog(r.FormValue("camera_ip")), err)
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// timestampFormats are the accepted timestamp layouts, tried in order.
var timestampFormats = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// parseTimestamp parses the optional timestamp field. An omitted field
// means the event is timestamped at receipt.
func parseTimestamp(raw string) (time.Time, error) {
	if raw == "" {
		return time.Now().UTC(), nil
	}
	var lastErr error
	for _, layout := range timestampFormats {
		t, err := time.ParseInLocation(layout, raw, time.UTC)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
