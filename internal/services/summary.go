package services

import (
	"fmt"
	"time"

	"attendance_backend/internal/models"
)

// FormatDuration renders d as "{hours}h {minutes}m" using whole hours and
// the remaining whole minutes. Negative durations render as zero.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	hours := int64(d / time.Hour)
	minutes := int64((d % time.Hour) / time.Minute)
	return fmt.Sprintf("%dh %dm", hours, minutes)
}

// sessionDuration is the elapsed time of a closed session, zero for open ones.
func sessionDuration(a models.Attendance) time.Duration {
	if a.CheckoutDatetime == nil {
		return 0
	}
	d := a.CheckoutDatetime.Sub(a.CheckinDatetime.Time)
	if d < 0 {
		return 0
	}
	return d
}

// totalClosedDuration sums the elapsed time of every closed session.
func totalClosedDuration(records []models.Attendance) time.Duration {
	var total time.Duration
	for _, a := range records {
		total += sessionDuration(a)
	}
	return total
}

func buildSummary(a models.Attendance, employee *models.Employee) models.AttendanceSummary {
	summary := models.AttendanceSummary{
		EmpID:        a.EmpID,
		EmployeeName: employee.FullName(),
		Date:         a.CheckinDatetime.DateString(),
		CheckinTime:  a.CheckinDatetime.TimeString(),
		Status:       models.StatusCheckedIn,
	}
	if a.CheckoutDatetime != nil {
		checkoutTime := a.CheckoutDatetime.TimeString()
		totalHours := FormatDuration(sessionDuration(a))
		summary.CheckoutTime = &checkoutTime
		summary.TotalHours = &totalHours
		summary.Status = models.StatusCheckedOut
	}
	return summary
}

// toAttendanceResponse echoes a session; seconds are only set once it is closed.
func toAttendanceResponse(a *models.Attendance) *models.AttendanceResponse {
	resp := &models.AttendanceResponse{
		ID:               a.ID,
		EmpID:            a.EmpID,
		CheckinDatetime:  a.CheckinDatetime,
		CheckoutDatetime: a.CheckoutDatetime,
	}
	if a.CheckoutDatetime != nil {
		seconds := int64(sessionDuration(*a) / time.Second)
		resp.TotalWorkingSeconds = &seconds
	}
	return resp
}
