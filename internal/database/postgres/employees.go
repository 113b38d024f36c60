package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kozaktomas/face-attendance/internal/database"
)

// EmployeeRepository provides PostgreSQL-backed employee storage.
type EmployeeRepository struct {
	pool *Pool
}

// NewEmployeeRepository creates a new PostgreSQL employee repository.
func NewEmployeeRepository(pool *Pool) *EmployeeRepository {
	return &EmployeeRepository{pool: pool}
}

const employeeColumns = `id, code, first_name, last_name, position, region_id, active, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEmployee(row rowScanner) (*database.Employee, error) {
	var e database.Employee
	var regionID sql.NullInt64
	err := row.Scan(
		&e.ID,
		&e.Code,
		&e.FirstName,
		&e.LastName,
		&e.Position,
		&regionID,
		&e.Active,
		&e.CreatedAt,
		&e.UpdatedAt,
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
func (r *EmployeeRepository) GetEmployee(ctx context.Context, id int64) (*database.Employee, error) {
	row := r.pool.QueryRow(ctx, "SELECT "+employeeColumns+" FROM employees WHERE id = $1", id)
	e, err := scanEmployee(row)
	if err == sql.ErrNoRows {
		return nil, database.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get employee: %w", err)
	}
	return e, nil
}

// GetEmployeeByCode retrieves an employee by its generated code.
func (r *EmployeeRepository) GetEmployeeByCode(ctx context.Context, code string) (*database.Employee, error) {
	row := r.pool.QueryRow(ctx, "SELECT "+employeeColumns+" FROM employees WHERE code = $1", code)
	e, err := scanEmployee(row)
	if err == sql.ErrNoRows {
		return nil, database.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get employee by code: %w", err)
	}
	return e, nil
}

// SearchEmployees lists employees matching the normalized name query.
func (r *EmployeeRepository) SearchEmployees(ctx context.Context, normalizedQuery string, activeOnly bool) ([]database.Employee, error) {
	query := `
		SELECT ` + employeeColumns + `
		FROM employees
		WHERE ($1 = '' OR search_name LIKE '%' || $1 || '%')
		  AND (NOT $2 OR active)
		ORDER BY first_name, last_name
	`
	rows, err := r.pool.Query(ctx, query, normalizedQuery, activeOnly)
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
func (r *EmployeeRepository) CountActiveEmployees(ctx context.Context, regionID int64) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM employees
		WHERE active AND ($1 = 0 OR region_id = $1)
	`, regionID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count active employees: %w", err)
	}
	return count, nil
}

// CreateEmployee inserts an employee, assigning ID and a sequential code.
// The code comes from a store-level sequence so concurrent creations never
// collide.
func (r *EmployeeRepository) CreateEmployee(ctx context.Context, e *database.Employee) error {
	searchName := database.NormalizeName(e.FirstName + " " + e.LastName)
	err := r.pool.QueryRow(ctx, `
		INSERT INTO employees (code, first_name, last_name, position, search_name, region_id, active)
		VALUES ('EMP' || LPAD(nextval('employee_code_seq')::TEXT, 4, '0'), $1, $2, $3, $4, $5, $6)
		RETURNING id, code, created_at, updated_at
	`, e.FirstName, e.LastName, e.Position, searchName, e.RegionID, e.Active).Scan(
		&e.ID, &e.Code, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create employee: %w", err)
	}
	return nil
}

// UpdateEmployee updates mutable employee fields.
func (r *EmployeeRepository) UpdateEmployee(ctx context.Context, e *database.Employee) error {
	searchName := database.NormalizeName(e.FirstName + " " + e.LastName)
	result, err := r.pool.Exec(ctx, `
		UPDATE employees
		SET first_name = $2, last_name = $3, position = $4, search_name = $5,
		    region_id = $6, active = $7, updated_at = NOW()
		WHERE id = $1
	`, e.ID, e.FirstName, e.LastName, e.Position, searchName, e.RegionID, e.Active)
	if err != nil {
		return fmt.Errorf("update employee: %w", err)
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

// DeactivateEmployee soft-deletes an employee.
func (r *EmployeeRepository) DeactivateEmployee(ctx context.Context, id int64) error {
	result, err := r.pool.Exec(ctx, "UPDATE employees SET active = FALSE, updated_at = NOW() WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("deactivate employee: %w", err)
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
