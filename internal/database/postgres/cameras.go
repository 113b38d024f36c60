package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kozaktomas/face-attendance/internal/database"
)

// CameraRepository provides PostgreSQL-backed camera storage.
type CameraRepository struct {
	pool *Pool
}

// NewCameraRepository creates a new PostgreSQL camera repository.
func NewCameraRepository(pool *Pool) *CameraRepository {
	return &CameraRepository{pool: pool}
}

const cameraColumns = `id, name, ip_address, region_id, active, created_at, updated_at`

func scanCamera(row rowScanner) (*database.Camera, error) {
	var c database.Camera
	var regionID sql.NullInt64
	err := row.Scan(
		&c.ID,
		&c.Name,
		&c.IPAddress,
		&regionID,
		&c.Active,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if regionID.Valid {
		c.RegionID = &regionID.Int64
	}
	return &c, nil
}

// GetCamera retrieves a camera by id.
func (r *CameraRepository) GetCamera(ctx context.Context, id int64) (*database.Camera, error) {
	row := r.pool.QueryRow(ctx, "SELECT "+cameraColumns+" FROM cameras WHERE id = $1", id)
	c, err := scanCamera(row)
	if err == sql.ErrNoRows {
		return nil, database.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get camera: %w", err)
	}
	return c, nil
}

// ResolveCamera maps a reported address to an active camera. An exact match
// on ip_address wins; otherwise the first active camera is used. ErrNotFound
// when no active camera exists at all.
func (r *CameraRepository) ResolveCamera(ctx context.Context, ip string) (*database.Camera, error) {
	if ip != "" {
		row := r.pool.QueryRow(ctx, "SELECT "+cameraColumns+" FROM cameras WHERE ip_address = $1 AND active ORDER BY id LIMIT 1", ip)
		c, err := scanCamera(row)
		if err == nil {
			return c, nil
		}
		if err != sql.ErrNoRows {
			return nil, fmt.Errorf("resolve camera by ip: %w", err)
		}
	}

	row := r.pool.QueryRow(ctx, "SELECT "+cameraColumns+" FROM cameras WHERE active ORDER BY id LIMIT 1")
	c, err := scanCamera(row)
	if err == sql.ErrNoRows {
		return nil, database.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("resolve camera: %w", err)
	}
	return c, nil
}

// ListCameras lists cameras, optionally only active ones.
func (r *CameraRepository) ListCameras(ctx context.Context, activeOnly bool) ([]database.Camera, error) {
	rows, err := r.pool.Query(ctx, "SELECT "+cameraColumns+" FROM cameras WHERE (NOT $1 OR active) ORDER BY name", activeOnly)
	if err != nil {
		return nil, fmt.Errorf("list cameras: %w", err)
	}
	defer rows.Close()

	var cameras []database.Camera
	for rows.Next() {
		c, err := scanCamera(rows)
		if err != nil {
			return nil, fmt.Errorf("scan camera: %w", err)
		}
		cameras = append(cameras, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cameras: %w", err)
	}
	return cameras, nil
}

// CountActiveCameras counts active cameras.
func (r *CameraRepository) CountActiveCameras(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM cameras WHERE active").Scan(&count); err != nil {
		return 0, fmt.Errorf("count active cameras: %w", err)
	}
	return count, nil
}

// CreateCamera inserts a camera.
func (r *CameraRepository) CreateCamera(ctx context.Context, c *database.Camera) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO cameras (name, ip_address, region_id, active)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`, c.Name, c.IPAddress, c.RegionID, c.Active).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create camera: %w", err)
	}
	return nil
}

// UpdateCamera updates mutable camera fields.
func (r *CameraRepository) UpdateCamera(ctx context.Context, c *database.Camera) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE cameras
		SET name = $2, ip_address = $3, region_id = $4, active = $5, updated_at = NOW()
		WHERE id = $1
	`, c.ID, c.Name, c.IPAddress, c.RegionID, c.Active)
	if err != nil {
		return fmt.Errorf("update camera: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if affected == 0 {
		return database.ErrNotFound
	}
	return nil
}
