package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"attendance_backend/internal/models"
	"attendance_backend/internal/repositories"
	"attendance_backend/pkg/utils"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

// --- Custom Service Errors for Employees ---
var (
	ErrEmployeeNotFound      = errors.New("employee not found")
	ErrEmailExists           = errors.New("email already exists")
	ErrInvalidRole           = errors.New("invalid role ID")
	ErrInvalidDepartment     = errors.New("invalid department ID")
	ErrReportingToNotFound   = errors.New("reporting manager not found")
	ErrReportingToSelf       = errors.New("employee cannot report to themselves")
	ErrEmployeeValidation    = errors.New("employee data validation error")
	ErrEmployeeUpdateFailed  = errors.New("failed to update employee")
	ErrPasswordHashingFailed = errors.New("failed to hash password")
)

// --- Employee DTOs ---
type CreateEmployeeRequest struct {
	FirstName   string     `json:"first_name" binding:"required"`
	LastName    string     `json:"last_name" binding:"required"`
	Email       string     `json:"email" binding:"required,email"`
	Password    string     `json:"password" binding:"required,min=8"`
	RoleID      int64      `json:"role_id" binding:"required"`
	DeptID      int64      `json:"dept_id" binding:"required"`
	ReportingTo *uuid.UUID `json:"reporting_to"`
}

type UpdateEmployeeRequest struct {
	FirstName   string     `json:"first_name" binding:"required"`
	LastName    string     `json:"last_name" binding:"required"`
	Email       string     `json:"email" binding:"required,email"`
	RoleID      int64      `json:"role_id" binding:"required"`
	DeptID      int64      `json:"dept_id" binding:"required"`
	ReportingTo *uuid.UUID `json:"reporting_to"`
}

// --- EmployeeService Interface ---
type EmployeeService interface {
	CreateEmployee(ctx context.Context, req CreateEmployeeRequest) (*models.EmployeeDetails, error)
	GetEmployeeByEmpID(ctx context.Context, empID uuid.UUID) (*models.EmployeeDetails, error)
	GetEmployeeByEmail(ctx context.Context, email string) (*models.EmployeeDetails, error)
	GetEmployees(ctx context.Context, filter models.EmployeeFilter) ([]models.EmployeeDetails, error)
	UpdateEmployee(ctx context.Context, empID uuid.UUID, req UpdateEmployeeRequest) (*models.EmployeeDetails, error)
	UpdateEmployeeByEmail(ctx context.Context, email string, req UpdateEmployeeRequest) (*models.EmployeeDetails, error)
	DeleteEmployee(ctx context.Context, empID uuid.UUID) error
	DeleteEmployeeByEmail(ctx context.Context, email string) error
	GetRoles(ctx context.Context) ([]models.Role, error)
	GetDepartments(ctx context.Context) ([]models.Department, error)
}

// --- employeeService Implementation ---
type employeeService struct {
	employeeRepo repositories.EmployeeRepository
	lookupRepo   repositories.LookupRepository
	tx           repositories.Transactor
}

// NewEmployeeService creates a new instance of EmployeeService.
func NewEmployeeService(er repositories.EmployeeRepository, lr repositories.LookupRepository, tx repositories.Transactor) EmployeeService {
	return &employeeService{
		employeeRepo: er,
		lookupRepo:   lr,
		tx:           tx,
	}
}

func (s *employeeService) validateRole(ctx context.Context, roleID int64) error {
	if _, err := s.lookupRepo.GetRoleByID(ctx, roleID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("%w: %d", ErrInvalidRole, roleID)
		}
		return fmt.Errorf("failed to validate role: %w", err)
	}
	return nil
}

func (s *employeeService) validateDepartment(ctx context.Context, deptID int64) error {
	if _, err := s.lookupRepo.GetDepartmentByID(ctx, deptID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("%w: %d", ErrInvalidDepartment, deptID)
		}
		return fmt.Errorf("failed to validate department: %w", err)
	}
	return nil
}

func (s *employeeService) validateReportingTo(ctx context.Context, reportingTo *uuid.UUID, self uuid.UUID) error {
	if reportingTo == nil {
		return nil
	}
	if *reportingTo == self {
		return ErrReportingToSelf
	}
	if _, err := s.employeeRepo.GetEmployeeByEmpID(ctx, *reportingTo); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrReportingToNotFound, reportingTo)
		}
		return fmt.Errorf("failed to validate reporting manager: %w", err)
	}
	return nil
}

func validateNames(firstName, lastName string) error {
	if utils.IsEmpty(firstName) {
		return fmt.Errorf("%w: first name is required", ErrEmployeeValidation)
	}
	if utils.IsEmpty(lastName) {
		return fmt.Errorf("%w: last name is required", ErrEmployeeValidation)
	}
	return nil
}

// mapWriteError converts constraint violations that slipped past validation.
func mapWriteError(err error, action string) error {
	switch {
	case errors.Is(err, repositories.ErrDuplicateKey):
		return ErrEmailExists
	case errors.Is(err, repositories.ErrForeignKey):
		return fmt.Errorf("%w: %v", ErrEmployeeValidation, err)
	}
	return fmt.Errorf("failed to %s: %w", action, err)
}

func (s *employeeService) CreateEmployee(ctx context.Context, req CreateEmployeeRequest) (*models.EmployeeDetails, error) {
	if err := validateNames(req.FirstName, req.LastName); err != nil {
		return nil, err
	}
	if !utils.IsValidPasswordLength(req.Password, minPasswordLength) {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrEmployeeValidation, minPasswordLength)
	}
	if err := s.validateRole(ctx, req.RoleID); err != nil {
		return nil, err
	}
	if err := s.validateDepartment(ctx, req.DeptID); err != nil {
		return nil, err
	}

	email := utils.NormalizeEmail(req.Email)
	existing, err := s.employeeRepo.GetEmployeeByEmail(ctx, email)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing email: %w", err)
	}
	if existing != nil {
		return nil, ErrEmailExists
	}

	empID := uuid.New()
	if err := s.validateReportingTo(ctx, req.ReportingTo, empID); err != nil {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPasswordHashingFailed, err)
	}

	employee := &models.Employee{
		EmpID:        empID,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Email:        email,
		PasswordHash: string(hashedPassword),
		RoleID:       req.RoleID,
		DeptID:       req.DeptID,
		ReportingTo:  req.ReportingTo,
	}

	err = s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		_, err := s.employeeRepo.CreateEmployee(ctx, exec, employee)
		return err
	})
	if err != nil {
		return nil, mapWriteError(err, "create employee")
	}
	return s.GetEmployeeByEmpID(ctx, empID)
}

func (s *employeeService) GetEmployeeByEmpID(ctx context.Context, empID uuid.UUID) (*models.EmployeeDetails, error) {
	employee, err := s.employeeRepo.GetEmployeeDetailsByEmpID(ctx, empID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrEmployeeNotFound
		}
		return nil, fmt.Errorf("failed to get employee by emp_id: %w", err)
	}
	return employee, nil
}

func (s *employeeService) GetEmployeeByEmail(ctx context.Context, email string) (*models.EmployeeDetails, error) {
	employee, err := s.employeeRepo.GetEmployeeDetailsByEmail(ctx, utils.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrEmployeeNotFound
		}
		return nil, fmt.Errorf("failed to get employee by email: %w", err)
	}
	return employee, nil
}

// GetEmployees lists employees. Department and role filters must reference
// existing rows.
func (s *employeeService) GetEmployees(ctx context.Context, filter models.EmployeeFilter) ([]models.EmployeeDetails, error) {
	switch {
	case filter.DeptID != nil:
		if err := s.validateDepartment(ctx, *filter.DeptID); err != nil {
			return nil, err
		}
	case filter.RoleID != nil:
		if err := s.validateRole(ctx, *filter.RoleID); err != nil {
			return nil, err
		}
	}

	employees, err := s.employeeRepo.GetEmployees(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to get employees: %w", err)
	}
	return employees, nil
}

func (s *employeeService) UpdateEmployee(ctx context.Context, empID uuid.UUID, req UpdateEmployeeRequest) (*models.EmployeeDetails, error) {
	existing, err := s.employeeRepo.GetEmployeeByEmpID(ctx, empID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrEmployeeNotFound
		}
		return nil, fmt.Errorf("failed to get employee for update: %w", err)
	}
	return s.update(ctx, existing, req)
}

func (s *employeeService) UpdateEmployeeByEmail(ctx context.Context, email string, req UpdateEmployeeRequest) (*models.EmployeeDetails, error) {
	existing, err := s.employeeRepo.GetEmployeeByEmail(ctx, utils.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrEmployeeNotFound
		}
		return nil, fmt.Errorf("failed to get employee for update: %w", err)
	}
	return s.update(ctx, existing, req)
}

func (s *employeeService) update(ctx context.Context, existing *models.Employee, req UpdateEmployeeRequest) (*models.EmployeeDetails, error) {
	if err := validateNames(req.FirstName, req.LastName); err != nil {
		return nil, err
	}
	if err := s.validateRole(ctx, req.RoleID); err != nil {
		return nil, err
	}
	if err := s.validateDepartment(ctx, req.DeptID); err != nil {
		return nil, err
	}

	email := utils.NormalizeEmail(req.Email)
	if email != existing.Email {
		count, err := s.employeeRepo.CountByEmailExcluding(ctx, email, existing.EmpID)
		if err != nil {
			return nil, fmt.Errorf("failed to check existing email: %w", err)
		}
		if count > 0 {
			return nil, ErrEmailExists
		}
	}
	if err := s.validateReportingTo(ctx, req.ReportingTo, existing.EmpID); err != nil {
		return nil, err
	}

	updated := *existing
	updated.FirstName = strings.TrimSpace(req.FirstName)
	updated.LastName = strings.TrimSpace(req.LastName)
	updated.Email = email
	updated.RoleID = req.RoleID
	updated.DeptID = req.DeptID
	updated.ReportingTo = req.ReportingTo

	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		return s.employeeRepo.UpdateEmployee(ctx, exec, &updated)
	})
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: no rows affected for %s", ErrEmployeeUpdateFailed, existing.EmpID)
		}
		return nil, mapWriteError(err, "update employee")
	}
	return s.GetEmployeeByEmpID(ctx, existing.EmpID)
}

func (s *employeeService) DeleteEmployee(ctx context.Context, empID uuid.UUID) error {
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		return s.employeeRepo.DeleteEmployee(ctx, exec, empID)
	})
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrEmployeeNotFound
		}
		return fmt.Errorf("failed to delete employee: %w", err)
	}
	return nil
}

func (s *employeeService) DeleteEmployeeByEmail(ctx context.Context, email string) error {
	existing, err := s.employeeRepo.GetEmployeeByEmail(ctx, utils.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrEmployeeNotFound
		}
		return fmt.Errorf("failed to get employee for delete: %w", err)
	}
	return s.DeleteEmployee(ctx, existing.EmpID)
}

func (s *employeeService) GetRoles(ctx context.Context) ([]models.Role, error) {
	roles, err := s.lookupRepo.GetRoles(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get roles: %w", err)
	}
	return roles, nil
}

func (s *employeeService) GetDepartments(ctx context.Context) ([]models.Department, error) {
	departments, err := s.lookupRepo.GetDepartments(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get departments: %w", err)
	}
	return departments, nil
}
