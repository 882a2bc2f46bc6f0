package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"attendance_backend/internal/models"

	"github.com/google/uuid"
)

// AttendanceRepository defines the persistence operations for attendance sessions.
// Dates are calendar dates; a session belongs to the date of its check-in.
type AttendanceRepository interface {
	CreateCheckin(ctx context.Context, executor SQLExecutor, empID uuid.UUID, checkin models.LocalDateTime) (*models.Attendance, error)
	CloseSession(ctx context.Context, executor SQLExecutor, id int64, checkout models.LocalDateTime) error
	FindOpenByEmployee(ctx context.Context, executor SQLExecutor, empID uuid.UUID) (*models.Attendance, error)
	// FindLatestCheckout returns the latest checkout of the employee's closed
	// sessions, or nil when there is none.
	FindLatestCheckout(ctx context.Context, executor SQLExecutor, empID uuid.UUID) (*models.LocalDateTime, error)

	FindByEmployee(ctx context.Context, empID uuid.UUID) ([]models.Attendance, error)
	FindByEmployeeAndDate(ctx context.Context, empID uuid.UUID, date time.Time) ([]models.Attendance, error)
	FindByEmployeeAndDateRange(ctx context.Context, empID uuid.UUID, startDate, endDate time.Time) ([]models.Attendance, error)
	FindByDate(ctx context.Context, date time.Time) ([]models.Attendance, error)
	FindByDateRange(ctx context.Context, startDate, endDate time.Time) ([]models.Attendance, error)
}

type attendanceRepository struct {
	db *sql.DB
}

// NewAttendanceRepository creates a new instance of AttendanceRepository.
func NewAttendanceRepository(db *sql.DB) AttendanceRepository {
	return &attendanceRepository{db: db}
}

const attendanceColumns = `id, emp_id, checkin_datetime, checkout_datetime`

// scanAttendance maps one attendances row field by field.
func scanAttendance(row scanner) (*models.Attendance, error) {
	var (
		a        models.Attendance
		checkin  time.Time
		checkout sql.NullTime
	)
	if err := row.Scan(&a.ID, &a.EmpID, &checkin, &checkout); err != nil {
		return nil, err
	}
	a.CheckinDatetime = models.NewLocalDateTime(checkin)
	if checkout.Valid {
		out := models.NewLocalDateTime(checkout.Time)
		a.CheckoutDatetime = &out
	}
	return &a, nil
}

func dateParam(d time.Time) string {
	return d.Format(models.LocalDateLayout)
}

func (r *attendanceRepository) CreateCheckin(ctx context.Context, executor SQLExecutor, empID uuid.UUID, checkin models.LocalDateTime) (*models.Attendance, error) {
	query := `INSERT INTO attendances (emp_id, checkin_datetime)
	          VALUES ($1, $2)
	          RETURNING id`

	a := &models.Attendance{EmpID: empID, CheckinDatetime: checkin}
	err := executor.QueryRowContext(ctx, query, empID, checkin.Time).Scan(&a.ID)
	if err != nil {
		return nil, classifyPQError(err, fmt.Sprintf("creating check-in for employee %s", empID))
	}
	return a, nil
}

func (r *attendanceRepository) CloseSession(ctx context.Context, executor SQLExecutor, id int64, checkout models.LocalDateTime) error {
	query := `UPDATE attendances SET checkout_datetime = $1
	          WHERE id = $2 AND checkout_datetime IS NULL`

	result, err := executor.ExecContext(ctx, query, checkout.Time, id)
	if err != nil {
		return classifyPQError(err, fmt.Sprintf("closing attendance %d", id))
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: reading affected rows for attendance %d: %v", ErrDatabaseError, id, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// FindOpenByEmployee locks and returns the employee's open session, or ErrNotFound.
func (r *attendanceRepository) FindOpenByEmployee(ctx context.Context, executor SQLExecutor, empID uuid.UUID) (*models.Attendance, error) {
	query := `SELECT ` + attendanceColumns + ` FROM attendances
	          WHERE emp_id = $1 AND checkout_datetime IS NULL
	          ORDER BY checkin_datetime DESC
	          LIMIT 1
	          FOR UPDATE`

	a, err := scanAttendance(executor.QueryRowContext(ctx, query, empID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: finding open attendance for employee %s: %v", ErrDatabaseError, empID, err)
	}
	return a, nil
}

func (r *attendanceRepository) FindLatestCheckout(ctx context.Context, executor SQLExecutor, empID uuid.UUID) (*models.LocalDateTime, error) {
	query := `SELECT MAX(checkout_datetime) FROM attendances WHERE emp_id = $1`

	var latest sql.NullTime
	if err := executor.QueryRowContext(ctx, query, empID).Scan(&latest); err != nil {
		return nil, fmt.Errorf("%w: finding latest checkout for employee %s: %v", ErrDatabaseError, empID, err)
	}
	if !latest.Valid {
		return nil, nil
	}
	checkout := models.NewLocalDateTime(latest.Time)
	return &checkout, nil
}

func (r *attendanceRepository) FindByEmployee(ctx context.Context, empID uuid.UUID) ([]models.Attendance, error) {
	query := `SELECT ` + attendanceColumns + ` FROM attendances
	          WHERE emp_id = $1
	          ORDER BY checkin_datetime DESC`
	return r.queryList(ctx, "attendance by employee", query, empID)
}

func (r *attendanceRepository) FindByEmployeeAndDate(ctx context.Context, empID uuid.UUID, date time.Time) ([]models.Attendance, error) {
	query := `SELECT ` + attendanceColumns + ` FROM attendances
	          WHERE emp_id = $1 AND checkin_datetime::date = $2::date
	          ORDER BY checkin_datetime ASC`
	return r.queryList(ctx, "attendance by employee and date", query, empID, dateParam(date))
}

func (r *attendanceRepository) FindByEmployeeAndDateRange(ctx context.Context, empID uuid.UUID, startDate, endDate time.Time) ([]models.Attendance, error) {
	query := `SELECT ` + attendanceColumns + ` FROM attendances
	          WHERE emp_id = $1 AND checkin_datetime::date BETWEEN $2::date AND $3::date
	          ORDER BY checkin_datetime ASC`
	return r.queryList(ctx, "attendance by employee and date range", query, empID, dateParam(startDate), dateParam(endDate))
}

func (r *attendanceRepository) FindByDate(ctx context.Context, date time.Time) ([]models.Attendance, error) {
	query := `SELECT ` + attendanceColumns + ` FROM attendances
	          WHERE checkin_datetime::date = $1::date
	          ORDER BY checkin_datetime ASC`
	return r.queryList(ctx, "attendance by date", query, dateParam(date))
}

func (r *attendanceRepository) FindByDateRange(ctx context.Context, startDate, endDate time.Time) ([]models.Attendance, error) {
	query := `SELECT ` + attendanceColumns + ` FROM attendances
	          WHERE checkin_datetime::date BETWEEN $1::date AND $2::date
	          ORDER BY checkin_datetime ASC`
	return r.queryList(ctx, "attendance by date range", query, dateParam(startDate), dateParam(endDate))
}

func (r *attendanceRepository) queryList(ctx context.Context, what, query string, args ...interface{}) ([]models.Attendance, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: querying %s: %v", ErrDatabaseError, what, err)
	}
	defer rows.Close()

	attendances := []models.Attendance{}
	for rows.Next() {
		a, err := scanAttendance(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning %s: %v", ErrDatabaseError, what, err)
		}
		attendances = append(attendances, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating %s rows: %v", ErrDatabaseError, what, err)
	}
	return attendances, nil
}
