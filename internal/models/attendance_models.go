package models

import "github.com/google/uuid"

// Attendance statuses reported in summaries.
const (
	StatusCheckedIn  = "Checked In"
	StatusCheckedOut = "Checked Out"
)

// Attendance is a single check-in/check-out session. A nil CheckoutDatetime
// marks an open session.
type Attendance struct {
	ID               int64          `json:"id"`
	EmpID            uuid.UUID      `json:"emp_id"`
	CheckinDatetime  LocalDateTime  `json:"checkin_datetime"`
	CheckoutDatetime *LocalDateTime `json:"checkout_datetime"`
}

// IsOpen reports whether the session has not been checked out yet.
func (a *Attendance) IsOpen() bool {
	return a.CheckoutDatetime == nil
}

// AttendanceResponse echoes the result of a check-in or check-out.
type AttendanceResponse struct {
	ID                  int64          `json:"id"`
	EmpID               uuid.UUID      `json:"emp_id"`
	CheckinDatetime     LocalDateTime  `json:"checkin_datetime"`
	CheckoutDatetime    *LocalDateTime `json:"checkout_datetime"`
	TotalWorkingSeconds *int64         `json:"total_working_seconds"`
}

// AttendanceSummary is a derived, non-persisted view of one session.
type AttendanceSummary struct {
	EmpID        uuid.UUID `json:"emp_id"`
	EmployeeName string    `json:"employee_name"`
	Date         string    `json:"date"`
	CheckinTime  string    `json:"checkin_time"`
	CheckoutTime *string   `json:"checkout_time"`
	TotalHours   *string   `json:"total_hours"`
	Status       string    `json:"status"`
}

// WorkingHours is the aggregated closed-session duration for a day or range.
type WorkingHours struct {
	EmpID        uuid.UUID `json:"emp_id"`
	Date         string    `json:"date,omitempty"`
	StartDate    string    `json:"start_date,omitempty"`
	EndDate      string    `json:"end_date,omitempty"`
	TotalSeconds int64     `json:"total_seconds"`
	TotalHours   string    `json:"total_hours"`
}

// AttendanceStatus reports whether an employee currently has an open session.
type AttendanceStatus struct {
	EmpID      uuid.UUID   `json:"emp_id"`
	CheckedIn  bool        `json:"checked_in"`
	Attendance *Attendance `json:"attendance"`
}
