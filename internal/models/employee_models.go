package models

import (
	"time"

	"github.com/google/uuid"
)

// Employee is a row of the employees table.
type Employee struct {
	ID           int64      `json:"id"`
	EmpID        uuid.UUID  `json:"emp_id"`
	FirstName    string     `json:"first_name"`
	LastName     string     `json:"last_name"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	RoleID       int64      `json:"role_id"`
	DeptID       int64      `json:"dept_id"`
	ReportingTo  *uuid.UUID `json:"reporting_to"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// FullName is the display name used in attendance summaries.
func (e *Employee) FullName() string {
	return e.FirstName + " " + e.LastName
}

// EmployeeDetails is an employee joined with its role and department names.
type EmployeeDetails struct {
	Employee
	RoleName string `json:"role_name"`
	DeptName string `json:"dept_name"`
}

// Role is a lookup row of the roles table.
type Role struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Department is a lookup row of the departments table.
type Department struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// EmployeeFilter narrows an employee listing. Only the first non-empty
// criterion in the order DeptID, RoleID, Search is applied.
type EmployeeFilter struct {
	DeptID *int64
	RoleID *int64
	Search string
}
