package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/pgvector/pgvector-go"
)

// QuarantineRepository holds unknown-face detections and the promotion
// transaction.
type QuarantineRepository struct {
	pool *Pool
}

// NewQuarantineRepository creates a new PostgreSQL quarantine repository.
func NewQuarantineRepository(pool *Pool) *QuarantineRepository {
	return &QuarantineRepository{pool: pool}
}

// encodingArg converts a face encoding to a nullable pgvector value.
func encodingArg(encoding []float32) any {
	if len(encoding) == 0 {
		return nil
	}
	return pgvector.NewVector(encoding)
}

// scanEncoding parses a nullable vector column rendered as text.
func scanEncoding(s sql.NullString) ([]float32, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	var vec pgvector.Vector
	if err := vec.Scan(s.String); err != nil {
		return nil, fmt.Errorf("parse face encoding: %w", err)
	}
	return vec.Slice(), nil
}

const unknownFaceColumns = `id, camera_id, region_id, face_image, thumb_image, similarity, face_encoding::text, processed, linked_employee_id, recorded_at`

func scanUnknownFace(row rowScanner) (*database.UnknownFace, error) {
	var u database.UnknownFace
	var regionID, linkedID sql.NullInt64
	var encoding sql.NullString
	err := row.Scan(
		&u.ID,
		&u.CameraID,
		&regionID,
		&u.FaceImage,
		&u.ThumbImage,
		&u.Similarity,
		&encoding,
		&u.Processed,
		&linkedID,
		&u.RecordedAt,
	)
	if err != nil {
		return nil, err
	}
	if regionID.Valid {
		u.RegionID = &regionID.Int64
	}
	if linkedID.Valid {
		u.LinkedEmployeeID = &linkedID.Int64
	}
	if u.FaceEncoding, err = scanEncoding(encoding); err != nil {
		return nil, err
	}
	return &u, nil
}

// InsertUnknownFace appends a new detection. Each detection is independent
// evidence; rows are never merged.
func (r *QuarantineRepository) InsertUnknownFace(ctx context.Context, u *database.UnknownFace) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO unknown_faces (camera_id, region_id, face_image, thumb_image, similarity, face_encoding)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, recorded_at
	`, u.CameraID, u.RegionID, u.FaceImage, u.ThumbImage, u.Similarity, encodingArg(u.FaceEncoding),
	).Scan(&u.ID, &u.RecordedAt)
	if err != nil {
		return fmt.Errorf("insert unknown face: %w", err)
	}
	return nil
}

// GetUnknownFace retrieves a detection by id.
func (r *QuarantineRepository) GetUnknownFace(ctx context.Context, id int64) (*database.UnknownFace, error) {
	row := r.pool.QueryRow(ctx, "SELECT "+unknownFaceColumns+" FROM unknown_faces WHERE id = $1", id)
	u, err := scanUnknownFace(row)
	if err == sql.ErrNoRows {
		return nil, database.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get unknown face: %w", err)
	}
	return u, nil
}

// ListUnknownFaces lists detections, most recent first.
func (r *QuarantineRepository) ListUnknownFaces(ctx context.Context, processed *bool, limit int) ([]database.UnknownFace, error) {
	if limit <= 0 {
		limit = 1000
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+unknownFaceColumns+` FROM unknown_faces
		WHERE ($1::boolean IS NULL OR processed = $1)
		ORDER BY recorded_at DESC
		LIMIT $2
	`, processed, limit)
	if err != nil {
		return nil, fmt.Errorf("list unknown faces: %w", err)
	}
	defer rows.Close()

	var faces []database.UnknownFace
	for rows.Next() {
		u, err := scanUnknownFace(rows)
		if err != nil {
			return nil, fmt.Errorf("scan unknown face: %w", err)
		}
		faces = append(faces, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate unknown faces: %w", err)
	}
	return faces, nil
}

// PromoteUnknownFace atomically marks the detection processed, links it to
// the employee and creates a reference image carrying over the detection's
// stored crop and encoding. The detection row is kept as an audit trail.
func (r *QuarantineRepository) PromoteUnknownFace(ctx context.Context, detectionID, employeeID int64) (*database.ReferenceImage, error) {
	tx, err := r.pool.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var cameraID sql.NullInt64
	var faceImage string
	var encoding sql.NullString
	var processed bool
	err = tx.QueryRowContext(ctx, `
		SELECT camera_id, face_image, face_encoding::text, processed
		FROM unknown_faces WHERE id = $1 FOR UPDATE
	`, detectionID).Scan(&cameraID, &faceImage, &encoding, &processed)
	if err == sql.ErrNoRows {
		return nil, database.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock unknown face: %w", err)
	}
	if processed {
		return nil, database.ErrConflict
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE unknown_faces SET processed = TRUE, linked_employee_id = $2 WHERE id = $1
	`, detectionID, employeeID); err != nil {
		return nil, fmt.Errorf("mark unknown face processed: %w", err)
	}

	img := database.ReferenceImage{
		EmployeeID: employeeID,
		Path:       faceImage,
	}
	if cameraID.Valid {
		img.CameraID = &cameraID.Int64
	}
	if img.FaceEncoding, err = scanEncoding(encoding); err != nil {
		return nil, err
	}

	// The first reference image of an employee becomes primary.
	err = tx.QueryRowContext(ctx, `
		INSERT INTO reference_images (employee_id, camera_id, path, face_encoding, is_primary)
		VALUES ($1, $2, $3, $4,
			NOT EXISTS (SELECT 1 FROM reference_images WHERE employee_id = $1 AND is_primary))
		RETURNING id, is_primary, uploaded_at
	`, img.EmployeeID, img.CameraID, img.Path, encodingArg(img.FaceEncoding),
	).Scan(&img.ID, &img.IsPrimary, &img.UploadedAt)
	if err != nil {
		return nil, fmt.Errorf("create reference image: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit promotion: %w", err)
	}
	return &img, nil
}
