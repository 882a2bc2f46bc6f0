package handlers

import (
	"errors"
	"net/http"

	"attendance_backend/internal/middleware"
	"attendance_backend/internal/models"
	"attendance_backend/internal/services"
	"attendance_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// AuthHandler holds the authentication service.
type AuthHandler struct {
	authService     services.AuthService
	employeeService services.EmployeeService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(as services.AuthService, es services.EmployeeService) *AuthHandler {
	return &AuthHandler{authService: as, employeeService: es}
}

// Login handles employee login.
func (h *AuthHandler) Login(c *gin.Context) {
	var creds models.Credentials
	if err := c.ShouldBindJSON(&creds); err != nil {
		utils.LogWarn(err, "Login: Failed to bind JSON")
		utils.RespondValidationFailed(c, err)
		return
	}

	resp, err := h.authService.Login(c.Request.Context(), creds)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			utils.LogWarn(err, "Login: rejected credentials")
			utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Invalid credentials", ""))
			return
		}
		utils.LogError(err, "Login: Error from authService.Login")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to login.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetCurrentEmployee returns the profile of the authenticated employee.
func (h *AuthHandler) GetCurrentEmployee(c *gin.Context) {
	raw, exists := c.Get(middleware.ContextEmpID)
	empIDStr, ok := raw.(string)
	if !exists || !ok {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Employee not authenticated.", "Missing employee ID in context"))
		return
	}

	empID, err := utils.ParseEmpID(empIDStr)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Employee not authenticated.", err.Error()))
		return
	}

	employee, err := h.employeeService.GetEmployeeByEmpID(c.Request.Context(), empID)
	if err != nil {
		respondEmployeeError(c, err, "fetch current employee")
		return
	}
	c.JSON(http.StatusOK, employee)
}
