package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"attendance_backend/internal/models"
)

// LookupRepository reads the seeded roles and departments tables.
type LookupRepository interface {
	GetRoles(ctx context.Context) ([]models.Role, error)
	GetRoleByID(ctx context.Context, id int64) (*models.Role, error)
	GetDepartments(ctx context.Context) ([]models.Department, error)
	GetDepartmentByID(ctx context.Context, id int64) (*models.Department, error)
}

type lookupRepository struct {
	db *sql.DB
}

// NewLookupRepository creates a new instance of LookupRepository.
func NewLookupRepository(db *sql.DB) LookupRepository {
	return &lookupRepository{db: db}
}

func (r *lookupRepository) GetRoles(ctx context.Context) ([]models.Role, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, role_name FROM roles ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("%w: querying roles: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	roles := []models.Role{}
	for rows.Next() {
		var role models.Role
		if err := rows.Scan(&role.ID, &role.Name); err != nil {
			return nil, fmt.Errorf("%w: scanning role: %v", ErrDatabaseError, err)
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating role rows: %v", ErrDatabaseError, err)
	}
	return roles, nil
}

func (r *lookupRepository) GetRoleByID(ctx context.Context, id int64) (*models.Role, error) {
	var role models.Role
	err := r.db.QueryRowContext(ctx, `SELECT id, role_name FROM roles WHERE id = $1`, id).Scan(&role.ID, &role.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting role %d: %v", ErrDatabaseError, id, err)
	}
	return &role, nil
}

func (r *lookupRepository) GetDepartments(ctx context.Context) ([]models.Department, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, dept_name FROM departments ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("%w: querying departments: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	departments := []models.Department{}
	for rows.Next() {
		var dept models.Department
		if err := rows.Scan(&dept.ID, &dept.Name); err != nil {
			return nil, fmt.Errorf("%w: scanning department: %v", ErrDatabaseError, err)
		}
		departments = append(departments, dept)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating department rows: %v", ErrDatabaseError, err)
	}
	return departments, nil
}

func (r *lookupRepository) GetDepartmentByID(ctx context.Context, id int64) (*models.Department, error) {
	var dept models.Department
	err := r.db.QueryRowContext(ctx, `SELECT id, dept_name FROM departments WHERE id = $1`, id).Scan(&dept.ID, &dept.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting department %d: %v", ErrDatabaseError, id, err)
	}
	return &dept, nil
}
