package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/kozaktomas/face-attendance/internal/database"
)

// AttendanceRepository owns the per-(employee, date) attendance rows.
type AttendanceRepository struct {
	pool *Pool
}

// NewAttendanceRepository creates a new PostgreSQL attendance repository.
func NewAttendanceRepository(pool *Pool) *AttendanceRepository {
	return &AttendanceRepository{pool: pool}
}

const attendanceColumns = `id, employee_id, camera_id, region_id, date, check_in, check_out, status, face_image, thumb_image, similarity, recorded_at`

func scanAttendance(row rowScanner) (*database.AttendanceRecord, error) {
	var rec database.AttendanceRecord
	var cameraID, regionID sql.NullInt64
	var checkIn, checkOut sql.NullTime
	err := row.Scan(
		&rec.ID,
		&rec.EmployeeID,
		&cameraID,
		&regionID,
		&rec.Date,
		&checkIn,
		&checkOut,
		&rec.Status,
		&rec.FaceImage,
		&rec.ThumbImage,
		&rec.Similarity,
		&rec.RecordedAt,
	)
	if err != nil {
		return nil, err
	}
	if cameraID.Valid {
		rec.CameraID = &cameraID.Int64
	}
	if regionID.Valid {
		rec.RegionID = &regionID.Int64
	}
	if checkIn.Valid {
		t := checkIn.Time
		rec.CheckIn = &t
	}
	if checkOut.Valid {
		t := checkOut.Time
		rec.CheckOut = &t
	}
	return &rec, nil
}

func dateArg(day time.Time) string {
	return day.UTC().Format("2006-01-02")
}

// StartDay inserts the first row of the day for rec's (employee, date) pair.
// The unique index on (employee_id, date) arbitrates concurrent creators:
// the loser gets false back and must take the CloseDay path.
func (r *AttendanceRepository) StartDay(ctx context.Context, rec *database.AttendanceRecord) (bool, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO attendance_records
			(employee_id, camera_id, region_id, date, check_in, status, face_image, thumb_image, similarity)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (employee_id, date) DO NOTHING
		RETURNING id, recorded_at
	`, rec.EmployeeID, rec.CameraID, rec.RegionID, dateArg(rec.Date), rec.CheckIn,
		rec.Status, rec.FaceImage, rec.ThumbImage, rec.Similarity,
	).Scan(&rec.ID, &rec.RecordedAt)
	if err == sql.ErrNoRows {
		// Row for the day already exists.
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("start attendance day: %w", err)
	}
	return true, nil
}

// CloseDay overwrites check-out, image and similarity on the existing day
// row. The latest event always wins; intermediate events leave no history.
func (r *AttendanceRepository) CloseDay(ctx context.Context, employeeID int64, day time.Time, at time.Time, faceImage, thumbImage string, similarity float64) (*database.AttendanceRecord, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE attendance_records
		SET check_out = $3, face_image = $4, thumb_image = $5, similarity = $6
		WHERE employee_id = $1 AND date = $2
		RETURNING `+attendanceColumns,
		employeeID, dateArg(day), at, faceImage, thumbImage, similarity,
	)
	rec, err := scanAttendance(row)
	if err == sql.ErrNoRows {
		return nil, database.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("close attendance day: %w", err)
	}
	return rec, nil
}

// GetDay retrieves the row for (employee, date).
func (r *AttendanceRepository) GetDay(ctx context.Context, employeeID int64, day time.Time) (*database.AttendanceRecord, error) {
	row := r.pool.QueryRow(ctx,
		"SELECT "+attendanceColumns+" FROM attendance_records WHERE employee_id = $1 AND date = $2",
		employeeID, dateArg(day),
	)
	rec, err := scanAttendance(row)
	if err == sql.ErrNoRows {
		return nil, database.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get attendance day: %w", err)
	}
	return rec, nil
}

// ListAttendance lists attendance rows joined with employee identity, most
// recent first.
func (r *AttendanceRepository) ListAttendance(ctx context.Context, opts database.AttendanceListOptions) ([]database.AttendanceDetail, error) {
	var day any
	if opts.Day != nil {
		day = dateArg(*opts.Day)
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = 1000
	}
	query := `
		SELECT a.id, a.employee_id, a.camera_id, a.region_id, a.date,
		       a.check_in, a.check_out, a.status, a.face_image, a.thumb_image,
		       a.similarity, a.recorded_at,
		       e.code, e.first_name, e.last_name
		FROM attendance_records a
		JOIN employees e ON e.id = a.employee_id
		WHERE ($1::date IS NULL OR a.date = $1)
		  AND ($2 = 0 OR a.region_id = $2)
		ORDER BY a.date DESC, a.recorded_at DESC
		LIMIT $3
	`
	rows, err := r.pool.Query(ctx, query, day, opts.RegionID, limit)
	if err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	defer rows.Close()

	var details []database.AttendanceDetail
	for rows.Next() {
		var d database.AttendanceDetail
		var cameraID, regionID sql.NullInt64
		var checkIn, checkOut sql.NullTime
		var firstName, lastName string
		err := rows.Scan(
			&d.ID, &d.EmployeeID, &cameraID, &regionID, &d.Date,
			&checkIn, &checkOut, &d.Status, &d.FaceImage, &d.ThumbImage,
			&d.Similarity, &d.RecordedAt,
			&d.EmployeeCode, &firstName, &lastName,
		)
		if err != nil {
			return nil, fmt.Errorf("scan attendance row: %w", err)
		}
		if cameraID.Valid {
			d.CameraID = &cameraID.Int64
		}
		if regionID.Valid {
			d.RegionID = &regionID.Int64
		}
		if checkIn.Valid {
			t := checkIn.Time
			d.CheckIn = &t
		}
		if checkOut.Valid {
			t := checkOut.Time
			d.CheckOut = &t
		}
		d.EmployeeName = (&database.Employee{FirstName: firstName, LastName: lastName}).FullName()
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attendance rows: %w", err)
	}
	return details, nil
}

// CountAttendance counts rows for a day; status "" counts all statuses.
func (r *AttendanceRepository) CountAttendance(ctx context.Context, regionID int64, day time.Time, status string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM attendance_records
		WHERE date = $1
		  AND ($2 = 0 OR region_id = $2)
		  AND ($3 = '' OR status = $3)
	`, dateArg(day), regionID, status).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count attendance: %w", err)
	}
	return count, nil
}
