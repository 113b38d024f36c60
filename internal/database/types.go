package database

import (
	"time"
)

// Attendance status values for a day row.
const (
	StatusCame   = "came"
	StatusLate   = "late"
	StatusAbsent = "absent"
)

// Region groups employees and cameras and carries denormalized counters.
// The counters are a cache: a full recount is the source of truth.
type Region struct {
	ID             int64
	Name           string
	Label          string
	EmployeesCount int
	ArrivalsCount  int
	AbsenteesCount int
	Active         bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Employee is an identity record. The ingestion engine only reads it
// and gates matching on the Active flag.
type Employee struct {
	ID        int64
	Code      string // generated, unique, e.g. EMP0001
	FirstName string
	LastName  string
	Position  string
	RegionID  *int64
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// FullName returns the display name of the employee.
func (e *Employee) FullName() string {
	if e.FirstName == "" {
		return e.LastName
	}
	if e.LastName == "" {
		return e.FirstName
	}
	return e.FirstName + " " + e.LastName
}

// Camera is a capture source.
type Camera struct {
	ID        int64
	Name      string
	IPAddress string
	RegionID  *int64
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// AttendanceRecord holds one row per (employee, date). The first event of
// the day sets CheckIn, every later event overwrites CheckOut together with
// the latest image and similarity.
type AttendanceRecord struct {
	ID         int64
	EmployeeID int64
	CameraID   *int64
	RegionID   *int64
	Date       time.Time // date only, UTC midnight
	CheckIn    *time.Time
	CheckOut   *time.Time
	Status     string
	FaceImage  string
	ThumbImage string
	Similarity float64
	RecordedAt time.Time
}

// UnknownFace is a quarantined detection that could not be matched to an
// employee. Rows are append-only; the only transition is promotion, which
// sets Processed and LinkedEmployeeID.
type UnknownFace struct {
	ID               int64
	CameraID         int64
	RegionID         *int64
	FaceImage        string
	ThumbImage       string
	Similarity       float64
	FaceEncoding     []float32 // nil when the edge device sent no encoding
	Processed        bool
	LinkedEmployeeID *int64
	RecordedAt       time.Time
}

// ReferenceImage is a face reference owned by exactly one employee.
// At most one image per employee may be primary.
type ReferenceImage struct {
	ID           int64
	EmployeeID   int64
	CameraID     *int64
	Path         string
	FaceEncoding []float32
	IsPrimary    bool
	UploadedAt   time.Time
}

// CaptureStat is an immutable journal row appended for every matched event.
type CaptureStat struct {
	ID         int64
	EmployeeID int64
	CameraID   int64
	CapturedAt time.Time
	FaceImage  string
	Similarity float64
}

// CaptureDetail is a capture row joined with employee and camera data for
// the stats query.
type CaptureDetail struct {
	CaptureStat
	EmployeeCode string
	EmployeeName string
	Position     string
	RegionLabel  string
	CameraIP     string
}

// AttendanceDetail is an attendance row joined with employee data for list
// screens and the dashboard.
type AttendanceDetail struct {
	AttendanceRecord
	EmployeeCode string
	EmployeeName string
}
