package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kozaktomas/face-attendance/internal/database"
)

// ReferenceImageRepository holds employee-owned face references.
type ReferenceImageRepository struct {
	pool *Pool
}

// NewReferenceImageRepository creates a new PostgreSQL reference image repository.
func NewReferenceImageRepository(pool *Pool) *ReferenceImageRepository {
	return &ReferenceImageRepository{pool: pool}
}

const referenceImageColumns = `id, employee_id, camera_id, path, face_encoding::text, is_primary, uploaded_at`

func scanReferenceImage(row rowScanner) (*database.ReferenceImage, error) {
	var img database.ReferenceImage
	var cameraID sql.NullInt64
	var encoding sql.NullString
	err := row.Scan(
		&img.ID,
		&img.EmployeeID,
		&cameraID,
		&img.Path,
		&encoding,
		&img.IsPrimary,
		&img.UploadedAt,
	)
	if err != nil {
		return nil, err
	}
	if cameraID.Valid {
		img.CameraID = &cameraID.Int64
	}
	if img.FaceEncoding, err = scanEncoding(encoding); err != nil {
		return nil, err
	}
	return &img, nil
}

// CreateReferenceImage inserts a reference image. A primary image demotes
// any prior primary of the same employee in the same transaction.
func (r *ReferenceImageRepository) CreateReferenceImage(ctx context.Context, img *database.ReferenceImage) error {
	tx, err := r.pool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if img.IsPrimary {
		if _, err := tx.ExecContext(ctx,
			"UPDATE reference_images SET is_primary = FALSE WHERE employee_id = $1 AND is_primary",
			img.EmployeeID,
		); err != nil {
			return fmt.Errorf("demote prior primary image: %w", err)
		}
	}

	err = tx.QueryRowContext(ctx, `
		INSERT INTO reference_images (employee_id, camera_id, path, face_encoding, is_primary)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, uploaded_at
	`, img.EmployeeID, img.CameraID, img.Path, encodingArg(img.FaceEncoding), img.IsPrimary,
	).Scan(&img.ID, &img.UploadedAt)
	if err != nil {
		return fmt.Errorf("create reference image: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit reference image: %w", err)
	}
	return nil
}

// ListReferenceImages lists images for one employee, newest first.
func (r *ReferenceImageRepository) ListReferenceImages(ctx context.Context, employeeID int64) ([]database.ReferenceImage, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT "+referenceImageColumns+" FROM reference_images WHERE employee_id = $1 ORDER BY uploaded_at DESC",
		employeeID,
	)
	if err != nil {
		return nil, fmt.Errorf("list reference images: %w", err)
	}
	defer rows.Close()
	return collectReferenceImages(rows)
}

// ListEncodedReferenceImages lists all images carrying a face encoding.
func (r *ReferenceImageRepository) ListEncodedReferenceImages(ctx context.Context) ([]database.ReferenceImage, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT "+referenceImageColumns+" FROM reference_images WHERE face_encoding IS NOT NULL ORDER BY id",
	)
	if err != nil {
		return nil, fmt.Errorf("list encoded reference images: %w", err)
	}
	defer rows.Close()
	return collectReferenceImages(rows)
}

func collectReferenceImages(rows *sql.Rows) ([]database.ReferenceImage, error) {
	var images []database.ReferenceImage
	for rows.Next() {
		img, err := scanReferenceImage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reference image: %w", err)
		}
		images = append(images, *img)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reference images: %w", err)
	}
	return images, nil
}
