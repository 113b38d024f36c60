package mariadb

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kozaktomas/face-attendance/internal/database"
)

// Directory is a read-only database.DirectoryReader backed by an external
// HR database. The expected schema mirrors the primary store's employees
// and cameras tables; writes always go through the primary store.
type Directory struct {
	pool *Pool
}

// NewDirectory creates a directory reader on top of a MariaDB pool.
func NewDirectory(pool *Pool) *Directory {
	return &Directory{pool: pool}
}

const employeeColumns = `id, code, first_name, last_name, position, region_id, active, created_at, updated_at`

func scanEmployee(row interface{ Scan(...any) error }) (*database.Employee, error) {
	var e database.Employee
	var regionID sql.NullInt64
	err := row.Scan(
		&e.ID, &e.Code, &e.FirstName, &e.LastName, &e.Position,
		&regionID, &e.Active, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if regionID.Valid {
		e.RegionID = &regionID.Int64
	}
	return &e, nil
}

// GetEmployee retrieves an employee by id.
func (d *Directory) GetEmployee(ctx context.Context, id int64) (*database.Employee, error) {
	row := d.pool.db.QueryRowContext(ctx, "SELECT "+employeeColumns+" FROM employees WHERE id = ?", id)
	e, err := scanEmployee(row)
	if err == sql.ErrNoRows {
		return nil, database.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get employee: %w", err)
	}
	return e, nil
}

// GetEmployeeByCode retrieves an employee by its code.
func (d *Directory) GetEmployeeByCode(ctx context.Context, code string) (*database.Employee, error) {
	row := d.pool.db.QueryRowContext(ctx, "SELECT "+employeeColumns+" FROM employees WHERE code = ?", code)
	e, err := scanEmployee(row)
	if err == sql.ErrNoRows {
		return nil, database.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get employee by code: %w", err)
	}
	return e, nil
}

// SearchEmployees lists employees whose name contains the query. The HR
// schema carries no normalized column, so matching is case-insensitive but
// not diacritics-insensitive here.
func (d *Directory) SearchEmployees(ctx context.Context, normalizedQuery string, activeOnly bool) ([]database.Employee, error) {
	rows, err := d.pool.db.QueryContext(ctx, `
		SELECT `+employeeColumns+`
		FROM employees
		WHERE (? = '' OR LOWER(CONCAT(first_name, ' ', last_name)) LIKE CONCAT('%', ?, '%'))
		  AND (NOT ? OR active)
		ORDER BY first_name, last_name
	`, normalizedQuery, normalizedQuery, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("search employees: %w", err)
	}
	defer rows.Close()

	var employees []database.Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("scan employee: %w", err)
		}
		employees = append(employees, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate employees: %w", err)
	}
	return employees, nil
}

// CountActiveEmployees counts active employees, regionID 0 means all regions.
func (d *Directory) CountActiveEmployees(ctx context.Context, regionID int64) (int, error) {
	var count int
	err := d.pool.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM employees WHERE active AND (? = 0 OR region_id = ?)",
		regionID, regionID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count active employees: %w", err)
	}
	return count, nil
}

const cameraColumns = `id, name, ip_address, region_id, active, created_at, updated_at`

func scanCamera(row interface{ Scan(...any) error }) (*database.Camera, error) {
	var c database.Camera
	var regionID sql.NullInt64
	err := row.Scan(
		&c.ID, &c.Name, &c.IPAddress, &regionID, &c.Active, &c.CreatedAt, &c.UpdatedAt,
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
func (d *Directory) GetCamera(ctx context.Context, id int64) (*database.Camera, error) {
	row := d.pool.db.QueryRowContext(ctx, "SELECT "+cameraColumns+" FROM cameras WHERE id = ?", id)
	c, err := scanCamera(row)
	if err == sql.ErrNoRows {
		return nil, database.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get camera: %w", err)
	}
	return c, nil
}

// ResolveCamera maps a reported address to an active camera, falling back
// to the first active camera when no exact match exists.
func (d *Directory) ResolveCamera(ctx context.Context, ip string) (*database.Camera, error) {
	if ip != "" {
		row := d.pool.db.QueryRowContext(ctx,
			"SELECT "+cameraColumns+" FROM cameras WHERE ip_address = ? AND active ORDER BY id LIMIT 1", ip)
		c, err := scanCamera(row)
		if err == nil {
			return c, nil
		}
		if err != sql.ErrNoRows {
			return nil, fmt.Errorf("resolve camera by ip: %w", err)
		}
	}

	row := d.pool.db.QueryRowContext(ctx, "SELECT "+cameraColumns+" FROM cameras WHERE active ORDER BY id LIMIT 1")
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
func (d *Directory) ListCameras(ctx context.Context, activeOnly bool) ([]database.Camera, error) {
	rows, err := d.pool.db.QueryContext(ctx,
		"SELECT "+cameraColumns+" FROM cameras WHERE (NOT ? OR active) ORDER BY name", activeOnly)
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
func (d *Directory) CountActiveCameras(ctx context.Context) (int, error) {
	var count int
	if err := d.pool.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM cameras WHERE active").Scan(&count); err != nil {
		return 0, fmt.Errorf("count active cameras: %w", err)
	}
	return count, nil
}
