package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/kozaktomas/face-attendance/internal/database"
)

// CaptureRepository is the append-only capture journal.
type CaptureRepository struct {
	pool *Pool
}

// NewCaptureRepository creates a new PostgreSQL capture repository.
func NewCaptureRepository(pool *Pool) *CaptureRepository {
	return &CaptureRepository{pool: pool}
}

// AppendCapture inserts a journal row. Pure insert, no uniqueness.
func (r *CaptureRepository) AppendCapture(ctx context.Context, s *database.CaptureStat) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO capture_stats (employee_id, camera_id, captured_at, face_image, similarity)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, s.EmployeeID, s.CameraID, s.CapturedAt, s.FaceImage, s.Similarity).Scan(&s.ID)
	if err != nil {
		return fmt.Errorf("append capture: %w", err)
	}
	return nil
}

const captureDetailQuery = `
	SELECT s.id, s.employee_id, s.camera_id, s.captured_at, s.face_image, s.similarity,
	       e.code, e.first_name, e.last_name, e.position,
	       COALESCE(r.label, ''), c.ip_address
	FROM capture_stats s
	JOIN employees e ON e.id = s.employee_id
	JOIN cameras c ON c.id = s.camera_id
	LEFT JOIN regions r ON r.id = e.region_id
`

func (r *CaptureRepository) collectCaptures(ctx context.Context, query string, args ...any) ([]database.CaptureDetail, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list captures: %w", err)
	}
	defer rows.Close()

	var captures []database.CaptureDetail
	for rows.Next() {
		var d database.CaptureDetail
		var firstName, lastName string
		err := rows.Scan(
			&d.ID, &d.EmployeeID, &d.CameraID, &d.CapturedAt, &d.FaceImage, &d.Similarity,
			&d.EmployeeCode, &firstName, &lastName, &d.Position,
			&d.RegionLabel, &d.CameraIP,
		)
		if err != nil {
			return nil, fmt.Errorf("scan capture: %w", err)
		}
		d.EmployeeName = (&database.Employee{FirstName: firstName, LastName: lastName}).FullName()
		captures = append(captures, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate captures: %w", err)
	}
	return captures, nil
}

// ListCaptures lists captures most recent first, optionally filtered to a
// single UTC calendar day.
func (r *CaptureRepository) ListCaptures(ctx context.Context, day *time.Time, limit int) ([]database.CaptureDetail, error) {
	if limit <= 0 {
		limit = 1000
	}
	var dayArg any
	if day != nil {
		dayArg = day.UTC().Format("2006-01-02")
	}
	query := captureDetailQuery + `
		WHERE ($1::date IS NULL OR (s.captured_at AT TIME ZONE 'UTC')::date = $1)
		ORDER BY s.captured_at DESC
		LIMIT $2
	`
	return r.collectCaptures(ctx, query, dayArg, limit)
}

// ListCapturesByEmployeeCode lists captures of one employee, most recent first.
func (r *CaptureRepository) ListCapturesByEmployeeCode(ctx context.Context, code string, limit int) ([]database.CaptureDetail, error) {
	if limit <= 0 {
		limit = 1000
	}
	query := captureDetailQuery + `
		WHERE e.code = $1
		ORDER BY s.captured_at DESC
		LIMIT $2
	`
	return r.collectCaptures(ctx, query, code, limit)
}
