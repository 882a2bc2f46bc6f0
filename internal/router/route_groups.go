package router

import (
	"attendance_backend/internal/handlers"
	"attendance_backend/internal/middleware"

	"github.com/gin-gonic/gin"
)

// Roles allowed to change the employee directory when auth is enabled.
var employeeWriterRoles = []string{"Administrator", "Manager", "Director"}

func authMiddleware(auth AuthOptions) gin.HandlerFunc {
	return middleware.AuthMiddleware(auth.Tokens)
}

// SetupPublicAuthRoutes sets up the routes reachable without a token.
func SetupPublicAuthRoutes(group *gin.RouterGroup, authHandler *handlers.AuthHandler) {
	group.POST("/login", authHandler.Login)
}

func SetupAuthenticatedAuthRoutes(group *gin.RouterGroup, authHandler *handlers.AuthHandler) {
	group.GET("/me", authHandler.GetCurrentEmployee)
}

// SetupAttendanceRoutes sets up the attendance routes.
func SetupAttendanceRoutes(apiGroup *gin.RouterGroup, attendanceHandler *handlers.AttendanceHandler) {
	attendanceRoutes := apiGroup.Group("/attendance")
	{
		attendanceRoutes.POST("/checkin", attendanceHandler.CheckIn)
		attendanceRoutes.POST("/checkout", attendanceHandler.CheckOut)

		attendanceRoutes.GET("/employee/:empId", attendanceHandler.GetAttendanceByEmployee)
		attendanceRoutes.GET("/employee/:empId/date/:date", attendanceHandler.GetAttendanceByEmployeeAndDate)
		attendanceRoutes.GET("/employee/:empId/sessions/:date", attendanceHandler.GetDailySessions)
		attendanceRoutes.GET("/employee/:empId/working-hours", attendanceHandler.GetWorkingHoursInRange)
		attendanceRoutes.GET("/employee/:empId/working-hours/:date", attendanceHandler.GetDailyWorkingHours)
		attendanceRoutes.GET("/employee/:empId/status", attendanceHandler.GetCurrentStatus)

		attendanceRoutes.GET("/date/:date", attendanceHandler.GetAttendanceByDate)
		attendanceRoutes.GET("/date-range", attendanceHandler.GetAttendanceByDateRange)
		attendanceRoutes.GET("/today", attendanceHandler.GetTodayAttendance)

		attendanceRoutes.GET("/summary/employee/:empId", attendanceHandler.GetSummaryByEmployee)
		attendanceRoutes.GET("/summary/date/:date", attendanceHandler.GetSummaryByDate)
		attendanceRoutes.GET("/summary/today", attendanceHandler.GetTodaySummary)
	}
}

// SetupEmployeeRoutes sets up the employee directory routes. Writes are
// restricted to employeeWriterRoles when requireRoles is set.
func SetupEmployeeRoutes(apiGroup *gin.RouterGroup, employeeHandler *handlers.EmployeeHandler, requireRoles bool) {
	employeeRoutes := apiGroup.Group("/employees")
	{
		employeeRoutes.GET("", employeeHandler.GetEmployees)
		employeeRoutes.GET("/roles", employeeHandler.GetRoles)
		employeeRoutes.GET("/departments", employeeHandler.GetDepartments)
		employeeRoutes.GET("/uuid/:empId", employeeHandler.GetEmployeeByEmpID)
		employeeRoutes.GET("/email/:email", employeeHandler.GetEmployeeByEmail)
	}

	writeRoutes := employeeRoutes.Group("")
	if requireRoles {
		writeRoutes.Use(middleware.RoleAuthMiddleware(employeeWriterRoles...))
	}
	{
		writeRoutes.POST("", employeeHandler.CreateEmployee)
		writeRoutes.PUT("/uuid/:empId", employeeHandler.UpdateEmployee)
		writeRoutes.DELETE("/uuid/:empId", employeeHandler.DeleteEmployee)
		writeRoutes.PUT("/email/:email", employeeHandler.UpdateEmployeeByEmail)
		writeRoutes.DELETE("/email/:email", employeeHandler.DeleteEmployeeByEmail)
	}
}
