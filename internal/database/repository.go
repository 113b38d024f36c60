package database

import (
	"context"
	"time"
)

// EmployeeReader provides read access to the employee directory.
// Lookups return ErrNotFound when no matching row exists.
type EmployeeReader interface {
	// GetEmployee retrieves an employee by id.
	GetEmployee(ctx context.Context, id int64) (*Employee, error)
	// GetEmployeeByCode retrieves an employee by its generated code.
	GetEmployeeByCode(ctx context.Context, code string) (*Employee, error)
	// SearchEmployees lists employees, optionally filtered by a
	// diacritics-insensitive name query (already normalized by the caller).
	SearchEmployees(ctx context.Context, normalizedQuery string, activeOnly bool) ([]Employee, error)
	// CountActiveEmployees counts active employees, regionID 0 means all regions.
	CountActiveEmployees(ctx context.Context, regionID int64) (int, error)
}

// CameraReader provides read access to the camera directory.
type CameraReader interface {
	// GetCamera retrieves a camera by id.
	GetCamera(ctx context.Context, id int64) (*Camera, error)
	// ResolveCamera maps a reported camera address to an active camera.
	// An empty ip or an ip with no exact match falls back to the first
	// active camera; the resolution policy is a deployment choice.
	ResolveCamera(ctx context.Context, ip string) (*Camera, error)
	// ListCameras lists cameras, optionally only active ones.
	ListCameras(ctx context.Context, activeOnly bool) ([]Camera, error)
	// CountActiveCameras counts active cameras.
	CountActiveCameras(ctx context.Context) (int, error)
}

// DirectoryReader is the read surface the ingestion gateway needs. It can be
// served by the primary store or by an external HR database.
type DirectoryReader interface {
	EmployeeReader
	CameraReader
}

// EmployeeWriter provides write access to the employee directory.
type EmployeeWriter interface {
	// CreateEmployee inserts an employee, assigning ID and a sequential Code.
	CreateEmployee(ctx context.Context, e *Employee) error
	// UpdateEmployee updates mutable employee fields.
	UpdateEmployee(ctx context.Context, e *Employee) error
	// DeactivateEmployee soft-deletes an employee (active=false).
	DeactivateEmployee(ctx context.Context, id int64) error
}

// CameraWriter provides write access to the camera directory.
type CameraWriter interface {
	CreateCamera(ctx context.Context, c *Camera) error
	UpdateCamera(ctx context.Context, c *Camera) error
}

// RegionStore manages regions and their denormalized counters.
type RegionStore interface {
	GetRegion(ctx context.Context, id int64) (*Region, error)
	ListRegions(ctx context.Context, activeOnly bool) ([]Region, error)
	CreateRegion(ctx context.Context, r *Region) error
	UpdateRegion(ctx context.Context, r *Region) error
	// RecountRegion performs a full recount of the region counters for the
	// given day and writes them back. Idempotent.
	RecountRegion(ctx context.Context, regionID int64, day time.Time) error
}

// AttendanceListOptions filters attendance list queries.
type AttendanceListOptions struct {
	Day      *time.Time
	RegionID int64 // 0 means all regions
	Limit    int   // 0 means no limit
}

// AttendanceStore owns the per-(employee, date) attendance rows.
type AttendanceStore interface {
	// StartDay inserts the first row of the day for rec's (employee, date)
	// pair. Returns false without error when a row already exists, including
	// when a concurrent creator won the race; callers must then take the
	// CloseDay path.
	StartDay(ctx context.Context, rec *AttendanceRecord) (bool, error)
	// CloseDay overwrites check-out, image and similarity on the existing
	// day row and returns the updated row.
	CloseDay(ctx context.Context, employeeID int64, day time.Time, at time.Time, faceImage, thumbImage string, similarity float64) (*AttendanceRecord, error)
	// GetDay retrieves the row for (employee, date), ErrNotFound when absent.
	GetDay(ctx context.Context, employeeID int64, day time.Time) (*AttendanceRecord, error)
	// ListAttendance lists attendance rows, most recent first.
	ListAttendance(ctx context.Context, opts AttendanceListOptions) ([]AttendanceDetail, error)
	// CountAttendance counts rows for a day; status "" counts all statuses,
	// regionID 0 means all regions.
	CountAttendance(ctx context.Context, regionID int64, day time.Time, status string) (int, error)
}

// QuarantineStore holds unknown-face detections.
type QuarantineStore interface {
	// InsertUnknownFace appends a new detection. Never merges with prior rows.
	InsertUnknownFace(ctx context.Context, u *UnknownFace) error
	// GetUnknownFace retrieves a detection by id, ErrNotFound when absent.
	GetUnknownFace(ctx context.Context, id int64) (*UnknownFace, error)
	// ListUnknownFaces lists detections, most recent first. processed nil
	// lists all rows.
	ListUnknownFaces(ctx context.Context, processed *bool, limit int) ([]UnknownFace, error)
	// PromoteUnknownFace atomically marks the detection processed, links it
	// to the employee and creates a reference image carrying over the stored
	// face crop and encoding. ErrConflict when already processed.
	PromoteUnknownFace(ctx context.Context, detectionID, employeeID int64) (*ReferenceImage, error)
}

// ReferenceImageStore holds employee-owned face references.
type ReferenceImageStore interface {
	// CreateReferenceImage inserts a reference image. When IsPrimary is set,
	// any prior primary image of the employee is unset in the same
	// transaction.
	CreateReferenceImage(ctx context.Context, img *ReferenceImage) error
	// ListReferenceImages lists images for one employee.
	ListReferenceImages(ctx context.Context, employeeID int64) ([]ReferenceImage, error)
	// ListEncodedReferenceImages lists all images that carry a face encoding,
	// used to build the candidate index.
	ListEncodedReferenceImages(ctx context.Context) ([]ReferenceImage, error)
}

// CaptureStore is the append-only capture journal.
type CaptureStore interface {
	// AppendCapture inserts a journal row. No uniqueness constraint.
	AppendCapture(ctx context.Context, s *CaptureStat) error
	// ListCaptures lists captures most recent first, optionally for one
	// UTC calendar day.
	ListCaptures(ctx context.Context, day *time.Time, limit int) ([]CaptureDetail, error)
	// ListCapturesByEmployeeCode lists captures of one employee, most
	// recent first.
	ListCapturesByEmployeeCode(ctx context.Context, code string, limit int) ([]CaptureDetail, error)
}
