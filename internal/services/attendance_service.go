package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"attendance_backend/internal/models"
	"attendance_backend/internal/repositories"
	"attendance_backend/pkg/utils"

	"github.com/google/uuid"
)

// --- Custom Service Errors for Attendance ---
var (
	ErrAlreadyCheckedIn      = errors.New("employee already checked in, must check out before checking in again")
	ErrNoOpenAttendance      = errors.New("no open attendance found, must check in before checking out")
	ErrCheckoutBeforeCheckin = errors.New("checkout time cannot be before checkin time")
	ErrInvalidDateRange      = errors.New("start date cannot be after end date")
	ErrOutsideBusinessHours  = errors.New("outside business hours")
	ErrCheckoutFailed        = errors.New("failed to checkout")
	ErrCheckinOverlaps       = errors.New("checkin time falls inside an earlier session")
	ErrInvalidTimestamp      = errors.New("timestamp must not be the zero value")
)

// --- Attendance DTOs ---
type CheckinRequest struct {
	EmpID           uuid.UUID             `json:"emp_id" binding:"required"`
	CheckinDatetime *models.LocalDateTime `json:"checkin_datetime"`
}

type CheckoutRequest struct {
	EmpID            uuid.UUID             `json:"emp_id" binding:"required"`
	CheckoutDatetime *models.LocalDateTime `json:"checkout_datetime"`
}

// --- AttendanceService Interface ---
type AttendanceService interface {
	// Session lifecycle
	CheckIn(ctx context.Context, req CheckinRequest) (*models.AttendanceResponse, error)
	CheckOut(ctx context.Context, req CheckoutRequest) (*models.AttendanceResponse, error)
	GetCurrentStatus(ctx context.Context, empID uuid.UUID) (*models.Attendance, error)

	// Record queries
	GetAttendanceByEmployee(ctx context.Context, empID uuid.UUID) ([]models.Attendance, error)
	GetAttendanceByEmployeeAndDate(ctx context.Context, empID uuid.UUID, date time.Time) ([]models.Attendance, error)
	GetDailySessions(ctx context.Context, empID uuid.UUID, date time.Time) ([]models.Attendance, error)
	GetAttendanceByDate(ctx context.Context, date time.Time) ([]models.Attendance, error)
	GetTodayAttendance(ctx context.Context) ([]models.Attendance, error)
	GetAttendanceByDateRange(ctx context.Context, startDate, endDate time.Time) ([]models.Attendance, error)

	// Summaries and working time
	GetSummaryByEmployee(ctx context.Context, empID uuid.UUID, startDate, endDate time.Time) ([]models.AttendanceSummary, error)
	GetSummaryByDate(ctx context.Context, date time.Time) ([]models.AttendanceSummary, error)
	GetTodaySummary(ctx context.Context) ([]models.AttendanceSummary, error)
	GetDailyWorkingDuration(ctx context.Context, empID uuid.UUID, date time.Time) (time.Duration, error)
	GetWorkingDurationInRange(ctx context.Context, empID uuid.UUID, startDate, endDate time.Time) (time.Duration, error)
}

// BusinessHours is a daily window, as offsets from midnight, outside of
// which check-in and check-out are rejected.
type BusinessHours struct {
	Start time.Duration
	End   time.Duration
}

// AttendanceOption customizes an AttendanceService.
type AttendanceOption func(*attendanceService)

// WithClock replaces the clock used for defaulted timestamps and "today".
func WithClock(now func() time.Time) AttendanceOption {
	return func(s *attendanceService) { s.now = now }
}

// WithBusinessHours enables the business-hours restriction.
func WithBusinessHours(hours BusinessHours) AttendanceOption {
	return func(s *attendanceService) { s.businessHours = &hours }
}

// --- attendanceService Implementation ---
type attendanceService struct {
	attendanceRepo repositories.AttendanceRepository
	employeeRepo   repositories.EmployeeRepository
	tx             repositories.Transactor
	now            func() time.Time
	businessHours  *BusinessHours
}

// NewAttendanceService creates a new instance of AttendanceService.
func NewAttendanceService(ar repositories.AttendanceRepository, er repositories.EmployeeRepository, tx repositories.Transactor, opts ...AttendanceOption) AttendanceService {
	s := &attendanceService{
		attendanceRepo: ar,
		employeeRepo:   er,
		tx:             tx,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// timestampOrNow uses the clock only when the request carried no timestamp.
func (s *attendanceService) timestampOrNow(ts *models.LocalDateTime) (models.LocalDateTime, error) {
	if ts == nil {
		return models.NewLocalDateTime(s.now()), nil
	}
	if ts.IsZero() {
		return models.LocalDateTime{}, fmt.Errorf("%w: %s", ErrInvalidTimestamp, ts)
	}
	return *ts, nil
}

func (s *attendanceService) today() time.Time {
	return models.NewLocalDateTime(s.now()).Date()
}

func (s *attendanceService) checkBusinessHours(ts models.LocalDateTime, action string) error {
	if s.businessHours == nil {
		return nil
	}
	timeOfDay := ts.Sub(ts.Date())
	if timeOfDay < s.businessHours.Start || timeOfDay > s.businessHours.End {
		return fmt.Errorf("%w: %s is only allowed between %s and %s", ErrOutsideBusinessHours, action,
			clockString(s.businessHours.Start), clockString(s.businessHours.End))
	}
	return nil
}

func clockString(d time.Duration) string {
	return fmt.Sprintf("%02d:%02d", int(d/time.Hour), int((d%time.Hour)/time.Minute))
}

// ensureEmployee resolves the employee or fails with ErrEmployeeNotFound.
func (s *attendanceService) ensureEmployee(ctx context.Context, empID uuid.UUID) (*models.Employee, error) {
	employee, err := s.employeeRepo.GetEmployeeByEmpID(ctx, empID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrEmployeeNotFound
		}
		return nil, fmt.Errorf("failed to get employee %s: %w", empID, err)
	}
	return employee, nil
}

func (s *attendanceService) lockEmployee(ctx context.Context, exec repositories.SQLExecutor, empID uuid.UUID) error {
	if err := s.employeeRepo.LockEmployee(ctx, exec, empID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrEmployeeNotFound
		}
		return fmt.Errorf("failed to lock employee %s: %w", empID, err)
	}
	return nil
}

func validateDateRange(startDate, endDate time.Time) error {
	if startDate.After(endDate) {
		return ErrInvalidDateRange
	}
	return nil
}

// --- Session lifecycle ---

// CheckIn opens a session. The employee row is locked for the duration of
// the transaction so that concurrent check-ins for one employee serialize;
// the open-session unique index rejects anything that slips through.
func (s *attendanceService) CheckIn(ctx context.Context, req CheckinRequest) (*models.AttendanceResponse, error) {
	checkin, err := s.timestampOrNow(req.CheckinDatetime)
	if err != nil {
		return nil, err
	}

	var created *models.Attendance
	err = s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.lockEmployee(ctx, exec, req.EmpID); err != nil {
			return err
		}
		if err := s.checkBusinessHours(checkin, "check-in"); err != nil {
			return err
		}

		open, err := s.attendanceRepo.FindOpenByEmployee(ctx, exec, req.EmpID)
		if err != nil && !errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("failed to look up open attendance: %w", err)
		}
		if open != nil {
			return fmt.Errorf("%w (open since %s)", ErrAlreadyCheckedIn, open.CheckinDatetime)
		}

		latest, err := s.attendanceRepo.FindLatestCheckout(ctx, exec, req.EmpID)
		if err != nil {
			return fmt.Errorf("failed to look up latest checkout: %w", err)
		}
		if latest != nil && checkin.Before(latest.Time) {
			return fmt.Errorf("%w: previous session ended at %s", ErrCheckinOverlaps, latest)
		}

		created, err = s.attendanceRepo.CreateCheckin(ctx, exec, req.EmpID, checkin)
		if err != nil {
			if errors.Is(err, repositories.ErrDuplicateKey) {
				return ErrAlreadyCheckedIn
			}
			return fmt.Errorf("failed to create check-in: %w", err)
		}
		utils.LogDebug("Check-in recorded", map[string]interface{}{"emp_id": req.EmpID.String(), "attendance_id": created.ID})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toAttendanceResponse(created), nil
}

// CheckOut closes the employee's open session, wherever it started.
func (s *attendanceService) CheckOut(ctx context.Context, req CheckoutRequest) (*models.AttendanceResponse, error) {
	checkout, err := s.timestampOrNow(req.CheckoutDatetime)
	if err != nil {
		return nil, err
	}

	var closed *models.Attendance
	err = s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.lockEmployee(ctx, exec, req.EmpID); err != nil {
			return err
		}

		open, err := s.attendanceRepo.FindOpenByEmployee(ctx, exec, req.EmpID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return ErrNoOpenAttendance
			}
			return fmt.Errorf("failed to look up open attendance: %w", err)
		}
		if checkout.Before(open.CheckinDatetime.Time) {
			return ErrCheckoutBeforeCheckin
		}
		if err := s.checkBusinessHours(checkout, "check-out"); err != nil {
			return err
		}

		if err := s.attendanceRepo.CloseSession(ctx, exec, open.ID, checkout); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return fmt.Errorf("%w: attendance %d was not updated", ErrCheckoutFailed, open.ID)
			}
			return fmt.Errorf("failed to close attendance %d: %w", open.ID, err)
		}
		open.CheckoutDatetime = &checkout
		closed = open
		utils.LogDebug("Check-out recorded", map[string]interface{}{"emp_id": req.EmpID.String(), "attendance_id": open.ID})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toAttendanceResponse(closed), nil
}

// GetCurrentStatus returns the open session of the employee, or nil.
func (s *attendanceService) GetCurrentStatus(ctx context.Context, empID uuid.UUID) (*models.Attendance, error) {
	if _, err := s.ensureEmployee(ctx, empID); err != nil {
		return nil, err
	}
	records, err := s.attendanceRepo.FindByEmployee(ctx, empID)
	if err != nil {
		return nil, fmt.Errorf("failed to get attendance for employee %s: %w", empID, err)
	}
	for i := range records {
		if records[i].IsOpen() {
			return &records[i], nil
		}
	}
	return nil, nil
}

// --- Record queries ---

func (s *attendanceService) GetAttendanceByEmployee(ctx context.Context, empID uuid.UUID) ([]models.Attendance, error) {
	if _, err := s.ensureEmployee(ctx, empID); err != nil {
		return nil, err
	}
	records, err := s.attendanceRepo.FindByEmployee(ctx, empID)
	if err != nil {
		return nil, fmt.Errorf("failed to get attendance for employee %s: %w", empID, err)
	}
	return records, nil
}

func (s *attendanceService) GetAttendanceByEmployeeAndDate(ctx context.Context, empID uuid.UUID, date time.Time) ([]models.Attendance, error) {
	if _, err := s.ensureEmployee(ctx, empID); err != nil {
		return nil, err
	}
	records, err := s.attendanceRepo.FindByEmployeeAndDate(ctx, empID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to get attendance for employee %s on %s: %w", empID, date.Format(models.LocalDateLayout), err)
	}
	return records, nil
}

// GetDailySessions lists the employee's sessions of one day, earliest first.
func (s *attendanceService) GetDailySessions(ctx context.Context, empID uuid.UUID, date time.Time) ([]models.Attendance, error) {
	return s.GetAttendanceByEmployeeAndDate(ctx, empID, date)
}

func (s *attendanceService) GetAttendanceByDate(ctx context.Context, date time.Time) ([]models.Attendance, error) {
	records, err := s.attendanceRepo.FindByDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("failed to get attendance on %s: %w", date.Format(models.LocalDateLayout), err)
	}
	return records, nil
}

func (s *attendanceService) GetTodayAttendance(ctx context.Context) ([]models.Attendance, error) {
	return s.GetAttendanceByDate(ctx, s.today())
}

func (s *attendanceService) GetAttendanceByDateRange(ctx context.Context, startDate, endDate time.Time) ([]models.Attendance, error) {
	if err := validateDateRange(startDate, endDate); err != nil {
		return nil, err
	}
	records, err := s.attendanceRepo.FindByDateRange(ctx, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("failed to get attendance for date range: %w", err)
	}
	return records, nil
}

// --- Summaries and working time ---

func (s *attendanceService) GetSummaryByEmployee(ctx context.Context, empID uuid.UUID, startDate, endDate time.Time) ([]models.AttendanceSummary, error) {
	employee, err := s.ensureEmployee(ctx, empID)
	if err != nil {
		return nil, err
	}
	if err := validateDateRange(startDate, endDate); err != nil {
		return nil, err
	}
	records, err := s.attendanceRepo.FindByEmployeeAndDateRange(ctx, empID, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("failed to get attendance summary for employee %s: %w", empID, err)
	}

	summaries := make([]models.AttendanceSummary, 0, len(records))
	for _, a := range records {
		summaries = append(summaries, buildSummary(a, employee))
	}
	return summaries, nil
}

// GetSummaryByDate builds one summary per session of the day. Sessions whose
// employee no longer resolves are left out.
func (s *attendanceService) GetSummaryByDate(ctx context.Context, date time.Time) ([]models.AttendanceSummary, error) {
	records, err := s.GetAttendanceByDate(ctx, date)
	if err != nil {
		return nil, err
	}

	employees := make(map[uuid.UUID]*models.Employee)
	summaries := make([]models.AttendanceSummary, 0, len(records))
	for _, a := range records {
		employee, seen := employees[a.EmpID]
		if !seen {
			employee, err = s.employeeRepo.GetEmployeeByEmpID(ctx, a.EmpID)
			if err != nil && !errors.Is(err, repositories.ErrNotFound) {
				return nil, fmt.Errorf("failed to resolve employee %s: %w", a.EmpID, err)
			}
			employees[a.EmpID] = employee
		}
		if employee == nil {
			continue
		}
		summaries = append(summaries, buildSummary(a, employee))
	}
	return summaries, nil
}

func (s *attendanceService) GetTodaySummary(ctx context.Context) ([]models.AttendanceSummary, error) {
	return s.GetSummaryByDate(ctx, s.today())
}

// GetDailyWorkingDuration sums closed sessions of one day; open sessions count as zero.
func (s *attendanceService) GetDailyWorkingDuration(ctx context.Context, empID uuid.UUID, date time.Time) (time.Duration, error) {
	records, err := s.GetAttendanceByEmployeeAndDate(ctx, empID, date)
	if err != nil {
		return 0, err
	}
	return totalClosedDuration(records), nil
}

func (s *attendanceService) GetWorkingDurationInRange(ctx context.Context, empID uuid.UUID, startDate, endDate time.Time) (time.Duration, error) {
	if _, err := s.ensureEmployee(ctx, empID); err != nil {
		return 0, err
	}
	if err := validateDateRange(startDate, endDate); err != nil {
		return 0, err
	}
	records, err := s.attendanceRepo.FindByEmployeeAndDateRange(ctx, empID, startDate, endDate)
	if err != nil {
		return 0, fmt.Errorf("failed to get working hours for employee %s: %w", empID, err)
	}
	return totalClosedDuration(records), nil
}
