package handlers

import (
	"errors"
	"net/http"

	"attendance_backend/internal/models"
	"attendance_backend/internal/services"
	"attendance_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// EmployeeHandler holds the employee service.
type EmployeeHandler struct {
	employeeService services.EmployeeService
}

// NewEmployeeHandler creates a new EmployeeHandler.
func NewEmployeeHandler(es services.EmployeeService) *EmployeeHandler {
	return &EmployeeHandler{employeeService: es}
}

func respondEmployeeError(c *gin.Context, err error, action string) {
	var apiErr *utils.APIError
	switch {
	case errors.Is(err, services.ErrEmployeeNotFound):
		apiErr = utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Employee not found.", err.Error())
	case errors.Is(err, services.ErrEmailExists):
		apiErr = utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Email already exists.", err.Error())
	case errors.Is(err, services.ErrInvalidRole):
		apiErr = utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest, "Invalid role ID.", err.Error())
	case errors.Is(err, services.ErrInvalidDepartment):
		apiErr = utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest, "Invalid department ID.", err.Error())
	case errors.Is(err, services.ErrReportingToNotFound), errors.Is(err, services.ErrReportingToSelf):
		apiErr = utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest, "Invalid reporting manager.", err.Error())
	case errors.Is(err, services.ErrEmployeeValidation):
		apiErr = utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Validation failed: "+err.Error(), err.Error())
	default:
		utils.LogError(err, action+": unexpected error from employee service")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to "+action+".", "Internal error"))
		return
	}
	utils.LogWarn(err, action+": request rejected")
	utils.RespondWithError(c, apiErr)
}

// CreateEmployee handles the creation of a new employee.
func (h *EmployeeHandler) CreateEmployee(c *gin.Context) {
	var req services.CreateEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogWarn(err, "CreateEmployee: Failed to bind JSON")
		utils.RespondValidationFailed(c, err)
		return
	}

	employee, err := h.employeeService.CreateEmployee(c.Request.Context(), req)
	if err != nil {
		respondEmployeeError(c, err, "create employee")
		return
	}
	c.JSON(http.StatusCreated, employee)
}

// GetEmployees lists employees, optionally filtered by dept_id, role_id or search.
func (h *EmployeeHandler) GetEmployees(c *gin.Context) {
	deptID, ok := optionalInt64Query(c, "dept_id")
	if !ok {
		return
	}
	roleID, ok := optionalInt64Query(c, "role_id")
	if !ok {
		return
	}

	filter := models.EmployeeFilter{DeptID: deptID, RoleID: roleID, Search: c.Query("search")}
	employees, err := h.employeeService.GetEmployees(c.Request.Context(), filter)
	if err != nil {
		respondEmployeeError(c, err, "fetch employees")
		return
	}
	c.JSON(http.StatusOK, employees)
}

func (h *EmployeeHandler) GetEmployeeByEmpID(c *gin.Context) {
	empID, ok := empIDParam(c)
	if !ok {
		return
	}

	employee, err := h.employeeService.GetEmployeeByEmpID(c.Request.Context(), empID)
	if err != nil {
		respondEmployeeError(c, err, "fetch employee")
		return
	}
	c.JSON(http.StatusOK, employee)
}

func (h *EmployeeHandler) GetEmployeeByEmail(c *gin.Context) {
	employee, err := h.employeeService.GetEmployeeByEmail(c.Request.Context(), c.Param("email"))
	if err != nil {
		respondEmployeeError(c, err, "fetch employee")
		return
	}
	c.JSON(http.StatusOK, employee)
}

func (h *EmployeeHandler) UpdateEmployee(c *gin.Context) {
	empID, ok := empIDParam(c)
	if !ok {
		return
	}

	var req services.UpdateEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogWarn(err, "UpdateEmployee: Failed to bind JSON for "+empID.String())
		utils.RespondValidationFailed(c, err)
		return
	}

	employee, err := h.employeeService.UpdateEmployee(c.Request.Context(), empID, req)
	if err != nil {
		respondEmployeeError(c, err, "update employee")
		return
	}
	c.JSON(http.StatusOK, employee)
}

func (h *EmployeeHandler) UpdateEmployeeByEmail(c *gin.Context) {
	email := c.Param("email")

	var req services.UpdateEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogWarn(err, "UpdateEmployeeByEmail: Failed to bind JSON")
		utils.RespondValidationFailed(c, err)
		return
	}

	employee, err := h.employeeService.UpdateEmployeeByEmail(c.Request.Context(), email, req)
	if err != nil {
		respondEmployeeError(c, err, "update employee")
		return
	}
	c.JSON(http.StatusOK, employee)
}

func (h *EmployeeHandler) DeleteEmployee(c *gin.Context) {
	empID, ok := empIDParam(c)
	if !ok {
		return
	}

	if err := h.employeeService.DeleteEmployee(c.Request.Context(), empID); err != nil {
		respondEmployeeError(c, err, "delete employee")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *EmployeeHandler) DeleteEmployeeByEmail(c *gin.Context) {
	if err := h.employeeService.DeleteEmployeeByEmail(c.Request.Context(), c.Param("email")); err != nil {
		respondEmployeeError(c, err, "delete employee")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *EmployeeHandler) GetRoles(c *gin.Context) {
	roles, err := h.employeeService.GetRoles(c.Request.Context())
	if err != nil {
		respondEmployeeError(c, err, "fetch roles")
		return
	}
	c.JSON(http.StatusOK, roles)
}

func (h *EmployeeHandler) GetDepartments(c *gin.Context) {
	departments, err := h.employeeService.GetDepartments(c.Request.Context())
	if err != nil {
		respondEmployeeError(c, err, "fetch departments")
		return
	}
	c.JSON(http.StatusOK, departments)
}
