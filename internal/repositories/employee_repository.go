package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"attendance_backend/internal/models"

	"github.com/google/uuid"
)

// EmployeeRepository defines the interface for employee related database operations.
type EmployeeRepository interface {
	CreateEmployee(ctx context.Context, executor SQLExecutor, employee *models.Employee) (*models.Employee, error)
	GetEmployeeByEmpID(ctx context.Context, empID uuid.UUID) (*models.Employee, error)
	GetEmployeeByEmail(ctx context.Context, email string) (*models.Employee, error)
	GetEmployeeDetailsByEmpID(ctx context.Context, empID uuid.UUID) (*models.EmployeeDetails, error)
	GetEmployeeDetailsByEmail(ctx context.Context, email string) (*models.EmployeeDetails, error)
	GetEmployees(ctx context.Context, filter models.EmployeeFilter) ([]models.EmployeeDetails, error)
	CountByEmailExcluding(ctx context.Context, email string, empID uuid.UUID) (int, error)
	UpdateEmployee(ctx context.Context, executor SQLExecutor, employee *models.Employee) error
	DeleteEmployee(ctx context.Context, executor SQLExecutor, empID uuid.UUID) error

	// LockEmployee takes a row lock on the employee for the rest of the
	// surrounding transaction. Returns ErrNotFound when the employee is missing.
	LockEmployee(ctx context.Context, executor SQLExecutor, empID uuid.UUID) error
}

type employeeRepository struct {
	db *sql.DB
}

// NewEmployeeRepository creates a new instance of EmployeeRepository.
func NewEmployeeRepository(db *sql.DB) EmployeeRepository {
	return &employeeRepository{db: db}
}

const employeeColumns = `e.id, e.emp_id, e.first_name, e.last_name, e.email, e.password_hash,
	e.role_id, e.dept_id, e.reporting_to, e.created_at, e.updated_at`

const employeeDetailsSelect = `SELECT ` + employeeColumns + `,
	COALESCE(r.role_name, '') AS role_name, COALESCE(d.dept_name, '') AS dept_name
	FROM employees e
	LEFT JOIN roles r ON e.role_id = r.id
	LEFT JOIN departments d ON e.dept_id = d.id`

func scanEmployeeFields(e *models.Employee, reportingTo *uuid.NullUUID) []interface{} {
	return []interface{}{
		&e.ID, &e.EmpID, &e.FirstName, &e.LastName, &e.Email, &e.PasswordHash,
		&e.RoleID, &e.DeptID, reportingTo, &e.CreatedAt, &e.UpdatedAt,
	}
}

func applyReportingTo(e *models.Employee, reportingTo uuid.NullUUID) {
	if reportingTo.Valid {
		id := reportingTo.UUID
		e.ReportingTo = &id
	}
}

// scanEmployeeRow maps an employees row without joins.
func scanEmployeeRow(row scanner) (*models.Employee, error) {
	var e models.Employee
	var reportingTo uuid.NullUUID
	if err := row.Scan(scanEmployeeFields(&e, &reportingTo)...); err != nil {
		return nil, err
	}
	applyReportingTo(&e, reportingTo)
	return &e, nil
}

// scanEmployeeDetailsRow maps an employees row joined with role and department names.
func scanEmployeeDetailsRow(row scanner) (*models.EmployeeDetails, error) {
	var d models.EmployeeDetails
	var reportingTo uuid.NullUUID
	dest := append(scanEmployeeFields(&d.Employee, &reportingTo), &d.RoleName, &d.DeptName)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	applyReportingTo(&d.Employee, reportingTo)
	return &d, nil
}

func nullableUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}

func (r *employeeRepository) CreateEmployee(ctx context.Context, executor SQLExecutor, employee *models.Employee) (*models.Employee, error) {
	query := `INSERT INTO employees (emp_id, first_name, last_name, email, password_hash, role_id, dept_id, reporting_to, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	          RETURNING id`

	currentTime := time.Now().UTC().Truncate(time.Second)
	employee.CreatedAt = currentTime
	employee.UpdatedAt = currentTime

	err := executor.QueryRowContext(ctx, query,
		employee.EmpID, employee.FirstName, employee.LastName, employee.Email, employee.PasswordHash,
		employee.RoleID, employee.DeptID, nullableUUID(employee.ReportingTo),
		employee.CreatedAt, employee.UpdatedAt,
	).Scan(&employee.ID)
	if err != nil {
		return nil, classifyPQError(err, fmt.Sprintf("creating employee %s", employee.Email))
	}
	return employee, nil
}

func (r *employeeRepository) GetEmployeeByEmpID(ctx context.Context, empID uuid.UUID) (*models.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees e WHERE e.emp_id = $1`
	e, err := scanEmployeeRow(r.db.QueryRowContext(ctx, query, empID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting employee %s: %v", ErrDatabaseError, empID, err)
	}
	return e, nil
}

func (r *employeeRepository) GetEmployeeByEmail(ctx context.Context, email string) (*models.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees e WHERE e.email = $1`
	e, err := scanEmployeeRow(r.db.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting employee by email: %v", ErrDatabaseError, err)
	}
	return e, nil
}

func (r *employeeRepository) GetEmployeeDetailsByEmpID(ctx context.Context, empID uuid.UUID) (*models.EmployeeDetails, error) {
	query := employeeDetailsSelect + ` WHERE e.emp_id = $1`
	d, err := scanEmployeeDetailsRow(r.db.QueryRowContext(ctx, query, empID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting employee details %s: %v", ErrDatabaseError, empID, err)
	}
	return d, nil
}

func (r *employeeRepository) GetEmployeeDetailsByEmail(ctx context.Context, email string) (*models.EmployeeDetails, error) {
	query := employeeDetailsSelect + ` WHERE e.email = $1`
	d, err := scanEmployeeDetailsRow(r.db.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting employee details by email: %v", ErrDatabaseError, err)
	}
	return d, nil
}

func (r *employeeRepository) GetEmployees(ctx context.Context, filter models.EmployeeFilter) ([]models.EmployeeDetails, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(employeeDetailsSelect)

	var args []interface{}
	switch {
	case filter.DeptID != nil:
		queryBuilder.WriteString(" WHERE e.dept_id = $1")
		args = append(args, *filter.DeptID)
	case filter.RoleID != nil:
		queryBuilder.WriteString(" WHERE e.role_id = $1")
		args = append(args, *filter.RoleID)
	case strings.TrimSpace(filter.Search) != "":
		queryBuilder.WriteString(" WHERE (e.first_name ILIKE $1 OR e.last_name ILIKE $1 OR e.email ILIKE $1)")
		args = append(args, "%"+strings.TrimSpace(filter.Search)+"%")
	}
	queryBuilder.WriteString(" ORDER BY e.id ASC")

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("%w: querying employees: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	employees := []models.EmployeeDetails{}
	for rows.Next() {
		d, err := scanEmployeeDetailsRow(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning employee from list: %v", ErrDatabaseError, err)
		}
		employees = append(employees, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating employee rows: %v", ErrDatabaseError, err)
	}
	return employees, nil
}

func (r *employeeRepository) CountByEmailExcluding(ctx context.Context, email string, empID uuid.UUID) (int, error) {
	query := `SELECT COUNT(*) FROM employees WHERE email = $1 AND emp_id <> $2`
	var count int
	if err := r.db.QueryRowContext(ctx, query, email, empID).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: counting employees by email: %v", ErrDatabaseError, err)
	}
	return count, nil
}

func (r *employeeRepository) UpdateEmployee(ctx context.Context, executor SQLExecutor, employee *models.Employee) error {
	query := `UPDATE employees SET
	            first_name = $1, last_name = $2, email = $3, role_id = $4,
	            dept_id = $5, reporting_to = $6, updated_at = $7
	          WHERE emp_id = $8`

	employee.UpdatedAt = time.Now().UTC().Truncate(time.Second)
	result, err := executor.ExecContext(ctx, query,
		employee.FirstName, employee.LastName, employee.Email, employee.RoleID,
		employee.DeptID, nullableUUID(employee.ReportingTo), employee.UpdatedAt, employee.EmpID,
	)
	if err != nil {
		return classifyPQError(err, fmt.Sprintf("updating employee %s", employee.EmpID))
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *employeeRepository) DeleteEmployee(ctx context.Context, executor SQLExecutor, empID uuid.UUID) error {
	query := `DELETE FROM employees WHERE emp_id = $1`
	result, err := executor.ExecContext(ctx, query, empID)
	if err != nil {
		return classifyPQError(err, fmt.Sprintf("deleting employee %s", empID))
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *employeeRepository) LockEmployee(ctx context.Context, executor SQLExecutor, empID uuid.UUID) error {
	query := `SELECT id FROM employees WHERE emp_id = $1 FOR UPDATE`
	var id int64
	if err := executor.QueryRowContext(ctx, query, empID).Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("%w: locking employee %s: %v", ErrDatabaseError, empID, err)
	}
	return nil
}
