package handlers

import (
	"errors"
	"net/http"

	"attendance_backend/internal/models"
	"attendance_backend/internal/services"
	"attendance_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// AttendanceHandler holds the attendance service.
type AttendanceHandler struct {
	attendanceService services.AttendanceService
}

// NewAttendanceHandler creates a new AttendanceHandler.
func NewAttendanceHandler(as services.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{attendanceService: as}
}

// respondAttendanceError maps engine failures to HTTP responses. Rejected
// business rules are logged as warnings, everything else as errors.
func respondAttendanceError(c *gin.Context, err error, action string) {
	var apiErr *utils.APIError
	switch {
	case errors.Is(err, services.ErrEmployeeNotFound):
		apiErr = utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Employee not found.", err.Error())
	case errors.Is(err, services.ErrNoOpenAttendance):
		apiErr = utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "No open attendance found. Must check in before checking out.", err.Error())
	case errors.Is(err, services.ErrAlreadyCheckedIn):
		apiErr = utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Employee already checked in. Must check out before checking in again.", err.Error())
	case errors.Is(err, services.ErrCheckoutBeforeCheckin):
		apiErr = utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest, "Checkout time cannot be before checkin time.", err.Error())
	case errors.Is(err, services.ErrInvalidDateRange):
		apiErr = utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest, "Start date cannot be after end date.", err.Error())
	case errors.Is(err, services.ErrOutsideBusinessHours):
		apiErr = utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest, "Outside business hours.", err.Error())
	case errors.Is(err, services.ErrCheckinOverlaps):
		apiErr = utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest, "Check-in cannot be before the end of an earlier session.", err.Error())
	case errors.Is(err, services.ErrInvalidTimestamp):
		apiErr = utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest, "Timestamp must be a real date and time.", err.Error())
	default:
		utils.LogError(err, action+": unexpected error from attendance service")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to "+action+".", "Internal error"))
		return
	}
	utils.LogWarn(err, action+": request rejected")
	utils.RespondWithError(c, apiErr)
}

// --- Session lifecycle ---

// CheckIn handles POST /attendance/checkin.
func (h *AttendanceHandler) CheckIn(c *gin.Context) {
	var req services.CheckinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogWarn(err, "CheckIn: Failed to bind JSON")
		utils.RespondValidationFailed(c, err)
		return
	}

	attendance, err := h.attendanceService.CheckIn(c.Request.Context(), req)
	if err != nil {
		respondAttendanceError(c, err, "check in")
		return
	}
	c.JSON(http.StatusCreated, attendance)
}

// CheckOut handles POST /attendance/checkout.
func (h *AttendanceHandler) CheckOut(c *gin.Context) {
	var req services.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogWarn(err, "CheckOut: Failed to bind JSON")
		utils.RespondValidationFailed(c, err)
		return
	}

	attendance, err := h.attendanceService.CheckOut(c.Request.Context(), req)
	if err != nil {
		respondAttendanceError(c, err, "check out")
		return
	}
	c.JSON(http.StatusOK, attendance)
}

// GetCurrentStatus reports whether the employee has an open session.
func (h *AttendanceHandler) GetCurrentStatus(c *gin.Context) {
	empID, ok := empIDParam(c)
	if !ok {
		return
	}

	open, err := h.attendanceService.GetCurrentStatus(c.Request.Context(), empID)
	if err != nil {
		respondAttendanceError(c, err, "fetch attendance status")
		return
	}
	c.JSON(http.StatusOK, models.AttendanceStatus{EmpID: empID, CheckedIn: open != nil, Attendance: open})
}

// --- Record queries ---

func (h *AttendanceHandler) GetAttendanceByEmployee(c *gin.Context) {
	empID, ok := empIDParam(c)
	if !ok {
		return
	}

	records, err := h.attendanceService.GetAttendanceByEmployee(c.Request.Context(), empID)
	if err != nil {
		respondAttendanceError(c, err, "fetch attendance")
		return
	}
	c.JSON(http.StatusOK, records)
}

func (h *AttendanceHandler) GetAttendanceByEmployeeAndDate(c *gin.Context) {
	empID, ok := empIDParam(c)
	if !ok {
		return
	}
	date, ok := dateParam(c, "date")
	if !ok {
		return
	}

	records, err := h.attendanceService.GetAttendanceByEmployeeAndDate(c.Request.Context(), empID, date)
	if err != nil {
		respondAttendanceError(c, err, "fetch attendance")
		return
	}
	c.JSON(http.StatusOK, records)
}

func (h *AttendanceHandler) GetDailySessions(c *gin.Context) {
	empID, ok := empIDParam(c)
	if !ok {
		return
	}
	date, ok := dateParam(c, "date")
	if !ok {
		return
	}

	records, err := h.attendanceService.GetDailySessions(c.Request.Context(), empID, date)
	if err != nil {
		respondAttendanceError(c, err, "fetch daily sessions")
		return
	}
	c.JSON(http.StatusOK, records)
}

func (h *AttendanceHandler) GetAttendanceByDate(c *gin.Context) {
	date, ok := dateParam(c, "date")
	if !ok {
		return
	}

	records, err := h.attendanceService.GetAttendanceByDate(c.Request.Context(), date)
	if err != nil {
		respondAttendanceError(c, err, "fetch attendance")
		return
	}
	c.JSON(http.StatusOK, records)
}

func (h *AttendanceHandler) GetAttendanceByDateRange(c *gin.Context) {
	startDate, endDate, ok := dateRangeQuery(c)
	if !ok {
		return
	}

	records, err := h.attendanceService.GetAttendanceByDateRange(c.Request.Context(), startDate, endDate)
	if err != nil {
		respondAttendanceError(c, err, "fetch attendance")
		return
	}
	c.JSON(http.StatusOK, records)
}

func (h *AttendanceHandler) GetTodayAttendance(c *gin.Context) {
	records, err := h.attendanceService.GetTodayAttendance(c.Request.Context())
	if err != nil {
		respondAttendanceError(c, err, "fetch today's attendance")
		return
	}
	c.JSON(http.StatusOK, records)
}

// --- Summaries and working time ---

func (h *AttendanceHandler) GetSummaryByEmployee(c *gin.Context) {
	empID, ok := empIDParam(c)
	if !ok {
		return
	}
	startDate, endDate, ok := dateRangeQuery(c)
	if !ok {
		return
	}

	summaries, err := h.attendanceService.GetSummaryByEmployee(c.Request.Context(), empID, startDate, endDate)
	if err != nil {
		respondAttendanceError(c, err, "fetch attendance summary")
		return
	}
	c.JSON(http.StatusOK, summaries)
}

func (h *AttendanceHandler) GetSummaryByDate(c *gin.Context) {
	date, ok := dateParam(c, "date")
	if !ok {
		return
	}

	summaries, err := h.attendanceService.GetSummaryByDate(c.Request.Context(), date)
	if err != nil {
		respondAttendanceError(c, err, "fetch attendance summary")
		return
	}
	c.JSON(http.StatusOK, summaries)
}

func (h *AttendanceHandler) GetTodaySummary(c *gin.Context) {
	summaries, err := h.attendanceService.GetTodaySummary(c.Request.Context())
	if err != nil {
		respondAttendanceError(c, err, "fetch today's summary")
		return
	}
	c.JSON(http.StatusOK, summaries)
}

// GetDailyWorkingHours sums the closed sessions of one day.
func (h *AttendanceHandler) GetDailyWorkingHours(c *gin.Context) {
	empID, ok := empIDParam(c)
	if !ok {
		return
	}
	date, ok := dateParam(c, "date")
	if !ok {
		return
	}

	total, err := h.attendanceService.GetDailyWorkingDuration(c.Request.Context(), empID, date)
	if err != nil {
		respondAttendanceError(c, err, "calculate working hours")
		return
	}
	c.JSON(http.StatusOK, models.WorkingHours{
		EmpID:        empID,
		Date:         utils.FormatDate(date),
		TotalSeconds: int64(total.Seconds()),
		TotalHours:   services.FormatDuration(total),
	})
}

// GetWorkingHoursInRange sums the closed sessions between start_date and end_date.
func (h *AttendanceHandler) GetWorkingHoursInRange(c *gin.Context) {
	empID, ok := empIDParam(c)
	if !ok {
		return
	}
	startDate, endDate, ok := dateRangeQuery(c)
	if !ok {
		return
	}

	total, err := h.attendanceService.GetWorkingDurationInRange(c.Request.Context(), empID, startDate, endDate)
	if err != nil {
		respondAttendanceError(c, err, "calculate working hours")
		return
	}
	c.JSON(http.StatusOK, models.WorkingHours{
		EmpID:        empID,
		StartDate:    utils.FormatDate(startDate),
		EndDate:      utils.FormatDate(endDate),
		TotalSeconds: int64(total.Seconds()),
		TotalHours:   services.FormatDuration(total),
	})
}
