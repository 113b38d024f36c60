// Package ingest is the entry point for recognition events coming from
// edge devices. It validates each event, stores the face crop, and routes
// the event either into attendance reconciliation or into quarantine.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/kozaktomas/face-attendance/internal/attendance"
	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/imagestore"
	"github.com/kozaktomas/face-attendance/internal/quarantine"
)

// SubjectUnrecognized is the subject value edge devices send when the
// face matched no enrolled employee.
const SubjectUnrecognized = "unrecognized"

// Sentinel errors of the ingestion pipeline. Callers map them onto
// transport status codes.
var (
	ErrValidation = errors.New("invalid recognition event")
	ErrStorage    = errors.New("image storage failed")
)

// Event is a recognition event as reported by an edge device.
type Event struct {
	Subject    string    // employee id as text, or SubjectUnrecognized
	Similarity float64   // cosine similarity reported by the matcher
	CameraIP   string    // reporting device address, may be empty
	OccurredAt time.Time // capture timestamp
	Image      []byte    // face crop
	Encoding   []float32 // face encoding, optional
}

// Result describes what happened to an accepted event.
type Result struct {
	Status     string  `json:"status"` // "recorded" or "quarantined"
	EmployeeID int64   `json:"employee_id"`
	Similarity float64 `json:"cosine_similarity"`
	SavedFile  string  `json:"saved_file"`
	Message    string  `json:"message"`
	CheckedIn  bool    `json:"checked_in"`
}

// Result status values.
const (
	StatusRecorded    = "recorded"
	StatusQuarantined = "quarantined"
)

// Gateway validates and routes recognition events.
type Gateway struct {
	directory  database.DirectoryReader
	reconciler *attendance.Reconciler
	quarantine *quarantine.Service
	captures   database.CaptureStore
	images     *imagestore.Store
}

// NewGateway wires the ingestion pipeline together.
func NewGateway(
	directory database.DirectoryReader,
	reconciler *attendance.Reconciler,
	q *quarantine.Service,
	captures database.CaptureStore,
	images *imagestore.Store,
) *Gateway {
	return &Gateway{
		directory:  directory,
		reconciler: reconciler,
		quarantine: q,
		captures:   captures,
		images:     images,
	}
}

// Process handles one recognition event end to end. The crop is stored
// before any database write: an event whose image cannot be persisted is
// rejected whole rather than recorded without evidence.
func (g *Gateway) Process(ctx context.Context, ev Event) (*Result, error) {
	if err := validate(ev); err != nil {
		return nil, err
	}

	camera, err := g.directory.ResolveCamera(ctx, ev.CameraIP)
	if err != nil {
		return nil, fmt.Errorf("resolve camera %q: %w", ev.CameraIP, err)
	}

	if ev.Subject == SubjectUnrecognized {
		return g.processUnrecognized(ctx, ev, camera)
	}

	employeeID, err := strconv.ParseInt(ev.Subject, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: subject %q is neither an employee id nor %q",
			ErrValidation, ev.Subject, SubjectUnrecognized)
	}
	employee, err := g.directory.GetEmployee(ctx, employeeID)
	if err != nil {
		return nil, fmt.Errorf("load employee %d: %w", employeeID, err)
	}
	if !employee.Active {
		// Deactivated employees are not matchable.
		return nil, fmt.Errorf("employee %d is inactive: %w", employeeID, database.ErrNotFound)
	}
	return g.processRecognized(ctx, ev, camera, employee)
}

func validate(ev Event) error {
	if len(ev.Image) == 0 {
		return fmt.Errorf("%w: missing face image", ErrValidation)
	}
	if ev.Subject == "" {
		return fmt.Errorf("%w: missing subject", ErrValidation)
	}
	if ev.OccurredAt.IsZero() {
		return fmt.Errorf("%w: missing capture timestamp", ErrValidation)
	}
	// Cosine similarity is negative for a poor match; only reject values
	// outside the cosine range.
	if ev.Similarity < -1 || ev.Similarity > 1 {
		return fmt.Errorf("%w: cosine similarity %v out of range", ErrValidation, ev.Similarity)
	}
	return nil
}

func (g *Gateway) processUnrecognized(ctx context.Context, ev Event, camera *database.Camera) (*Result, error) {
	facePath, thumbPath, err := g.images.SaveWithThumb(imagestore.KindUnknown, ev.OccurredAt, ev.Image)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	face := &database.UnknownFace{
		CameraID:     camera.ID,
		RegionID:     camera.RegionID,
		FaceImage:    facePath,
		ThumbImage:   thumbPath,
		Similarity:   ev.Similarity,
		FaceEncoding: ev.Encoding,
	}
	if err := g.quarantine.Quarantine(ctx, face); err != nil {
		return nil, err
	}

	return &Result{
		Status:     StatusQuarantined,
		Similarity: ev.Similarity,
		SavedFile:  facePath,
		Message:    "face quarantined for review",
	}, nil
}

func (g *Gateway) processRecognized(ctx context.Context, ev Event, camera *database.Camera, employee *database.Employee) (*Result, error) {
	facePath, thumbPath, err := g.images.SaveWithThumb(imagestore.KindAttendance, ev.OccurredAt, ev.Image)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	rec, checkedIn, err := g.reconciler.Record(ctx, attendance.Event{
		EmployeeID: employee.ID,
		CameraID:   camera.ID,
		RegionID:   employee.RegionID,
		OccurredAt: ev.OccurredAt,
		FaceImage:  facePath,
		ThumbImage: thumbPath,
		Similarity: ev.Similarity,
	})
	if err != nil {
		return nil, err
	}

	if err := g.captures.AppendCapture(ctx, &database.CaptureStat{
		EmployeeID: employee.ID,
		CameraID:   camera.ID,
		CapturedAt: ev.OccurredAt,
		FaceImage:  facePath,
		Similarity: ev.Similarity,
	}); err != nil {
		return nil, fmt.Errorf("journal capture: %w", err)
	}

	message := fmt.Sprintf("checked out at %s", ev.OccurredAt.UTC().Format("15:04:05"))
	if checkedIn {
		message = fmt.Sprintf("checked in with status %s", rec.Status)
	}
	return &Result{
		Status:     StatusRecorded,
		EmployeeID: employee.ID,
		Similarity: ev.Similarity,
		SavedFile:  facePath,
		Message:    message,
		CheckedIn:  checkedIn,
	}, nil
}
