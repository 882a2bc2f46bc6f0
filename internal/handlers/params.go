package handlers

import (
	"fmt"
	"net/http"
	"time"

	"attendance_backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// empIDParam parses the :empId path parameter, responding 400 when malformed.
func empIDParam(c *gin.Context) (uuid.UUID, bool) {
	empID, err := utils.ParseEmpID(c.Param("empId"))
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest, "Invalid employee ID format.", err.Error()))
		return uuid.Nil, false
	}
	return empID, true
}

// dateParam parses a YYYY-MM-DD path parameter, responding 400 when malformed.
func dateParam(c *gin.Context, name string) (time.Time, bool) {
	date, err := utils.ParseDate(c.Param(name))
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest, "Invalid date format. Use YYYY-MM-DD.", err.Error()))
		return time.Time{}, false
	}
	return date, true
}

// dateRangeQuery reads the required start_date and end_date query parameters.
func dateRangeQuery(c *gin.Context) (time.Time, time.Time, bool) {
	startStr, endStr := c.Query("start_date"), c.Query("end_date")
	if startStr == "" || endStr == "" {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest,
			"start_date and end_date query parameters are required.", ""))
		return time.Time{}, time.Time{}, false
	}

	startDate, err := utils.ParseDate(startStr)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest, "Invalid start_date format. Use YYYY-MM-DD.", err.Error()))
		return time.Time{}, time.Time{}, false
	}
	endDate, err := utils.ParseDate(endStr)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest, "Invalid end_date format. Use YYYY-MM-DD.", err.Error()))
		return time.Time{}, time.Time{}, false
	}
	return startDate, endDate, true
}

// optionalInt64Query parses an optional integer query parameter.
func optionalInt64Query(c *gin.Context, name string) (*int64, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	value, err := utils.StrToInt64(raw)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest,
			fmt.Sprintf("Invalid %s format.", name), err.Error()))
		return nil, false
	}
	return &value, true
}
