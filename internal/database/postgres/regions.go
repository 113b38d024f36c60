package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/kozaktomas/face-attendance/internal/database"
)

// RegionRepository provides PostgreSQL-backed region storage and the
// denormalized counter recount.
type RegionRepository struct {
	pool *Pool
}

// NewRegionRepository creates a new PostgreSQL region repository.
func NewRegionRepository(pool *Pool) *RegionRepository {
	return &RegionRepository{pool: pool}
}

const regionColumns = `id, name, label, employees_count, arrivals_count, absentees_count, active, created_at, updated_at`

func scanRegion(row rowScanner) (*database.Region, error) {
	var r database.Region
	err := row.Scan(
		&r.ID,
		&r.Name,
		&r.Label,
		&r.EmployeesCount,
		&r.ArrivalsCount,
		&r.AbsenteesCount,
		&r.Active,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// GetRegion retrieves a region by id.
func (r *RegionRepository) GetRegion(ctx context.Context, id int64) (*database.Region, error) {
	row := r.pool.QueryRow(ctx, "SELECT "+regionColumns+" FROM regions WHERE id = $1", id)
	reg, err := scanRegion(row)
	if err == sql.ErrNoRows {
		return nil, database.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get region: %w", err)
	}
	return reg, nil
}

// ListRegions lists regions, optionally only active ones.
func (r *RegionRepository) ListRegions(ctx context.Context, activeOnly bool) ([]database.Region, error) {
	rows, err := r.pool.Query(ctx, "SELECT "+regionColumns+" FROM regions WHERE (NOT $1 OR active) ORDER BY name", activeOnly)
	if err != nil {
		return nil, fmt.Errorf("list regions: %w", err)
	}
	defer rows.Close()

	var regions []database.Region
	for rows.Next() {
		reg, err := scanRegion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan region: %w", err)
		}
		regions = append(regions, *reg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate regions: %w", err)
	}
	return regions, nil
}

// CreateRegion inserts a region.
func (r *RegionRepository) CreateRegion(ctx context.Context, reg *database.Region) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO regions (name, label, active)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`, reg.Name, reg.Label, reg.Active).Scan(&reg.ID, &reg.CreatedAt, &reg.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create region: %w", err)
	}
	return nil
}

// UpdateRegion updates region name, label and active flag. The counters are
// owned by RecountRegion and never written here.
func (r *RegionRepository) UpdateRegion(ctx context.Context, reg *database.Region) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE regions SET name = $2, label = $3, active = $4, updated_at = NOW()
		WHERE id = $1
	`, reg.ID, reg.Name, reg.Label, reg.Active)
	if err != nil {
		return fmt.Errorf("update region: %w", err)
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

// RecountRegion performs a full recount of the region counters for the given
// day and writes them back. Concurrent recounts are commutative because each
// write reflects a true recount at that instant.
func (r *RegionRepository) RecountRegion(ctx context.Context, regionID int64, day time.Time) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE regions SET
			employees_count = (SELECT COUNT(*) FROM employees WHERE region_id = $1 AND active),
			arrivals_count  = (SELECT COUNT(*) FROM attendance_records WHERE region_id = $1 AND date = $2 AND status = $3),
			absentees_count = (SELECT COUNT(*) FROM attendance_records WHERE region_id = $1 AND date = $2 AND status = $4),
			updated_at = NOW()
		WHERE id = $1
	`, regionID, day.UTC().Format("2006-01-02"), database.StatusCame, database.StatusAbsent)
	if err != nil {
		return fmt.Errorf("recount region: %w", err)
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
