// Package repotest provides in-memory implementations of the repository
// interfaces for service and handler tests.
package repotest

import (
	"context"
	"sort"
	"sync"
	"time"

	"attendance_backend/internal/models"
	"attendance_backend/internal/repositories"
	"attendance_backend/pkg/utils"

	"github.com/google/uuid"
)

// Transactor runs fn directly with a nil executor. Calls are serialized the
// way a row lock on the employee would serialize them in PostgreSQL.
type Transactor struct {
	mu  sync.Mutex
	Err error
}

func (t *Transactor) WithinTx(ctx context.Context, fn func(exec repositories.SQLExecutor) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.Err != nil {
		return t.Err
	}
	return fn(nil)
}

// AttendanceRepository keeps sessions in a slice and enforces one open
// session per employee like the partial unique index does.
type AttendanceRepository struct {
	mu      sync.Mutex
	nextID  int64
	records []models.Attendance

	// CloseErr, when set, is returned by CloseSession instead of updating.
	CloseErr error
}

func NewAttendanceRepository() *AttendanceRepository {
	return &AttendanceRepository{}
}

// Seed stores a session as is and returns it with its assigned id.
func (r *AttendanceRepository) Seed(empID uuid.UUID, checkin models.LocalDateTime, checkout *models.LocalDateTime) models.Attendance {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	a := models.Attendance{ID: r.nextID, EmpID: empID, CheckinDatetime: checkin, CheckoutDatetime: checkout}
	r.records = append(r.records, a)
	return a
}

// All returns a copy of every stored session in insertion order.
func (r *AttendanceRepository) All() []models.Attendance {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Attendance(nil), r.records...)
}

func (r *AttendanceRepository) CreateCheckin(ctx context.Context, executor repositories.SQLExecutor, empID uuid.UUID, checkin models.LocalDateTime) (*models.Attendance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.records {
		if a.EmpID == empID && a.IsOpen() {
			return nil, repositories.ErrDuplicateKey
		}
	}
	r.nextID++
	a := models.Attendance{ID: r.nextID, EmpID: empID, CheckinDatetime: checkin}
	r.records = append(r.records, a)
	return &a, nil
}

func (r *AttendanceRepository) CloseSession(ctx context.Context, executor repositories.SQLExecutor, id int64, checkout models.LocalDateTime) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.CloseErr != nil {
		return r.CloseErr
	}
	for i := range r.records {
		if r.records[i].ID == id && r.records[i].IsOpen() {
			out := checkout
			r.records[i].CheckoutDatetime = &out
			return nil
		}
	}
	return repositories.ErrNotFound
}

func (r *AttendanceRepository) FindOpenByEmployee(ctx context.Context, executor repositories.SQLExecutor, empID uuid.UUID) (*models.Attendance, error) {
	list := r.filter(func(a models.Attendance) bool { return a.EmpID == empID && a.IsOpen() }, false)
	if len(list) == 0 {
		return nil, repositories.ErrNotFound
	}
	return &list[len(list)-1], nil
}

func (r *AttendanceRepository) FindLatestCheckout(ctx context.Context, executor repositories.SQLExecutor, empID uuid.UUID) (*models.LocalDateTime, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *models.LocalDateTime
	for _, a := range r.records {
		if a.EmpID != empID || a.CheckoutDatetime == nil {
			continue
		}
		if latest == nil || a.CheckoutDatetime.After(latest.Time) {
			checkout := *a.CheckoutDatetime
			latest = &checkout
		}
	}
	return latest, nil
}

func (r *AttendanceRepository) FindByEmployee(ctx context.Context, empID uuid.UUID) ([]models.Attendance, error) {
	return r.filter(func(a models.Attendance) bool { return a.EmpID == empID }, true), nil
}

func (r *AttendanceRepository) FindByEmployeeAndDate(ctx context.Context, empID uuid.UUID, date time.Time) ([]models.Attendance, error) {
	return r.filter(func(a models.Attendance) bool {
		return a.EmpID == empID && a.CheckinDatetime.Date().Equal(date)
	}, false), nil
}

func (r *AttendanceRepository) FindByEmployeeAndDateRange(ctx context.Context, empID uuid.UUID, startDate, endDate time.Time) ([]models.Attendance, error) {
	return r.filter(func(a models.Attendance) bool {
		return a.EmpID == empID && inRange(a.CheckinDatetime.Date(), startDate, endDate)
	}, false), nil
}

func (r *AttendanceRepository) FindByDate(ctx context.Context, date time.Time) ([]models.Attendance, error) {
	return r.filter(func(a models.Attendance) bool { return a.CheckinDatetime.Date().Equal(date) }, false), nil
}

func (r *AttendanceRepository) FindByDateRange(ctx context.Context, startDate, endDate time.Time) ([]models.Attendance, error) {
	return r.filter(func(a models.Attendance) bool {
		return inRange(a.CheckinDatetime.Date(), startDate, endDate)
	}, false), nil
}

func inRange(d, start, end time.Time) bool {
	return !d.Before(start) && !d.After(end)
}

func (r *AttendanceRepository) filter(keep func(models.Attendance) bool, newestFirst bool) []models.Attendance {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Attendance{}
	for _, a := range r.records {
		if keep(a) {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if newestFirst {
			return out[i].CheckinDatetime.After(out[j].CheckinDatetime.Time)
		}
		return out[i].CheckinDatetime.Before(out[j].CheckinDatetime.Time)
	})
	return out
}

// LookupRepository serves the seeded role and department sets.
type LookupRepository struct {
	Roles       []models.Role
	Departments []models.Department
}

// NewLookupRepository returns the same roles and departments the schema seeds.
func NewLookupRepository() *LookupRepository {
	return &LookupRepository{
		Roles: []models.Role{
			{ID: 1, Name: "Employee"},
			{ID: 2, Name: "Supervisor"},
			{ID: 3, Name: "Manager"},
			{ID: 4, Name: "Director"},
			{ID: 5, Name: "Administrator"},
		},
		Departments: []models.Department{
			{ID: 1, Name: "Information Technology"},
			{ID: 2, Name: "Human Resources"},
			{ID: 3, Name: "Finance"},
			{ID: 4, Name: "Marketing"},
			{ID: 5, Name: "Operations"},
			{ID: 6, Name: "Engineering"},
			{ID: 7, Name: "Customer Support"},
		},
	}
}

func (r *LookupRepository) GetRoles(ctx context.Context) ([]models.Role, error) {
	return append([]models.Role{}, r.Roles...), nil
}

func (r *LookupRepository) GetRoleByID(ctx context.Context, id int64) (*models.Role, error) {
	for _, role := range r.Roles {
		if role.ID == id {
			found := role
			return &found, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *LookupRepository) GetDepartments(ctx context.Context) ([]models.Department, error) {
	return append([]models.Department{}, r.Departments...), nil
}

func (r *LookupRepository) GetDepartmentByID(ctx context.Context, id int64) (*models.Department, error) {
	for _, dept := range r.Departments {
		if dept.ID == id {
			found := dept
			return &found, nil
		}
	}
	return nil, repositories.ErrNotFound
}

// EmployeeRepository keeps employees keyed by emp_id and enforces the
// email unique constraint and the role/department foreign keys.
type EmployeeRepository struct {
	mu        sync.Mutex
	nextID    int64
	employees []models.Employee
	lookup    *LookupRepository

	// UpdateErr, when set, is returned by UpdateEmployee instead of updating.
	UpdateErr error
}

func NewEmployeeRepository(lookup *LookupRepository) *EmployeeRepository {
	return &EmployeeRepository{lookup: lookup}
}

// Seed stores an employee, assigning an emp_id when it has none.
func (r *EmployeeRepository) Seed(e models.Employee) models.Employee {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	e.ID = r.nextID
	if e.EmpID == uuid.Nil {
		e.EmpID = uuid.New()
	}
	r.employees = append(r.employees, e)
	return e
}

func (r *EmployeeRepository) indexOf(empID uuid.UUID) int {
	for i, e := range r.employees {
		if e.EmpID == empID {
			return i
		}
	}
	return -1
}

func (r *EmployeeRepository) checkConstraints(e *models.Employee) error {
	for _, other := range r.employees {
		if other.Email == e.Email && other.EmpID != e.EmpID {
			return repositories.ErrDuplicateKey
		}
	}
	if _, err := r.lookup.GetRoleByID(context.Background(), e.RoleID); err != nil {
		return repositories.ErrForeignKey
	}
	if _, err := r.lookup.GetDepartmentByID(context.Background(), e.DeptID); err != nil {
		return repositories.ErrForeignKey
	}
	if e.ReportingTo != nil && r.indexOf(*e.ReportingTo) < 0 {
		return repositories.ErrForeignKey
	}
	return nil
}

func (r *EmployeeRepository) CreateEmployee(ctx context.Context, executor repositories.SQLExecutor, employee *models.Employee) (*models.Employee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.checkConstraints(employee); err != nil {
		return nil, err
	}
	r.nextID++
	employee.ID = r.nextID
	employee.CreatedAt = time.Now().UTC().Truncate(time.Second)
	employee.UpdatedAt = employee.CreatedAt
	r.employees = append(r.employees, *employee)
	return employee, nil
}

func (r *EmployeeRepository) GetEmployeeByEmpID(ctx context.Context, empID uuid.UUID) (*models.Employee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i := r.indexOf(empID); i >= 0 {
		e := r.employees[i]
		return &e, nil
	}
	return nil, repositories.ErrNotFound
}

func (r *EmployeeRepository) GetEmployeeByEmail(ctx context.Context, email string) (*models.Employee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.employees {
		if e.Email == email {
			found := e
			return &found, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *EmployeeRepository) details(e models.Employee) models.EmployeeDetails {
	d := models.EmployeeDetails{Employee: e}
	if role, err := r.lookup.GetRoleByID(context.Background(), e.RoleID); err == nil {
		d.RoleName = role.Name
	}
	if dept, err := r.lookup.GetDepartmentByID(context.Background(), e.DeptID); err == nil {
		d.DeptName = dept.Name
	}
	return d
}

func (r *EmployeeRepository) GetEmployeeDetailsByEmpID(ctx context.Context, empID uuid.UUID) (*models.EmployeeDetails, error) {
	e, err := r.GetEmployeeByEmpID(ctx, empID)
	if err != nil {
		return nil, err
	}
	d := r.details(*e)
	return &d, nil
}

func (r *EmployeeRepository) GetEmployeeDetailsByEmail(ctx context.Context, email string) (*models.EmployeeDetails, error) {
	e, err := r.GetEmployeeByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	d := r.details(*e)
	return &d, nil
}

func (r *EmployeeRepository) GetEmployees(ctx context.Context, filter models.EmployeeFilter) ([]models.EmployeeDetails, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.EmployeeDetails{}
	for _, e := range r.employees {
		switch {
		case filter.DeptID != nil:
			if e.DeptID != *filter.DeptID {
				continue
			}
		case filter.RoleID != nil:
			if e.RoleID != *filter.RoleID {
				continue
			}
		case filter.Search != "":
			if !utils.ContainsFold(e.FirstName, filter.Search) &&
				!utils.ContainsFold(e.LastName, filter.Search) &&
				!utils.ContainsFold(e.Email, filter.Search) {
				continue
			}
		}
		out = append(out, r.details(e))
	}
	return out, nil
}

func (r *EmployeeRepository) CountByEmailExcluding(ctx context.Context, email string, empID uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, e := range r.employees {
		if e.Email == email && e.EmpID != empID {
			count++
		}
	}
	return count, nil
}

func (r *EmployeeRepository) UpdateEmployee(ctx context.Context, executor repositories.SQLExecutor, employee *models.Employee) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.UpdateErr != nil {
		return r.UpdateErr
	}
	i := r.indexOf(employee.EmpID)
	if i < 0 {
		return repositories.ErrNotFound
	}
	if err := r.checkConstraints(employee); err != nil {
		return err
	}
	employee.UpdatedAt = time.Now().UTC().Truncate(time.Second)
	r.employees[i] = *employee
	return nil
}

func (r *EmployeeRepository) DeleteEmployee(ctx context.Context, executor repositories.SQLExecutor, empID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.indexOf(empID)
	if i < 0 {
		return repositories.ErrNotFound
	}
	r.employees = append(r.employees[:i], r.employees[i+1:]...)
	for j := range r.employees {
		if r.employees[j].ReportingTo != nil && *r.employees[j].ReportingTo == empID {
			r.employees[j].ReportingTo = nil
		}
	}
	return nil
}

func (r *EmployeeRepository) LockEmployee(ctx context.Context, executor repositories.SQLExecutor, empID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.indexOf(empID) < 0 {
		return repositories.ErrNotFound
	}
	return nil
}

var (
	_ repositories.Transactor           = (*Transactor)(nil)
	_ repositories.AttendanceRepository = (*AttendanceRepository)(nil)
	_ repositories.EmployeeRepository   = (*EmployeeRepository)(nil)
	_ repositories.LookupRepository     = (*LookupRepository)(nil)
)
