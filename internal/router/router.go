package router

import (
	"database/sql"
	"fmt"

	"attendance_backend/internal/config"
	"attendance_backend/internal/handlers"
	"attendance_backend/internal/repositories"
	"attendance_backend/internal/services"
	"attendance_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// Handlers bundles every handler the routes are wired to.
type Handlers struct {
	Attendance *handlers.AttendanceHandler
	Employee   *handlers.EmployeeHandler
	Auth       *handlers.AuthHandler
	Health     *handlers.HealthHandler
}

// Setup initializes the repositories, services and handlers backed by db
// and registers all routes on engine.
func Setup(engine *gin.Engine, db *sql.DB, cfg *config.Config) error {
	// Initialize Repositories
	attendanceRepo := repositories.NewAttendanceRepository(db)
	employeeRepo := repositories.NewEmployeeRepository(db)
	lookupRepo := repositories.NewLookupRepository(db)
	transactor := repositories.NewTransactor(db)

	// Initialize Services
	var attendanceOpts []services.AttendanceOption
	if bh := cfg.Attendance.BusinessHours; bh.Enabled {
		start, end, err := bh.Window()
		if err != nil {
			return fmt.Errorf("business hours: %w", err)
		}
		attendanceOpts = append(attendanceOpts, services.WithBusinessHours(services.BusinessHours{Start: start, End: end}))
		utils.LogInfo("Business hours restriction enabled", map[string]interface{}{"start": bh.Start, "end": bh.End})
	}

	tokens := utils.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL)
	attendanceService := services.NewAttendanceService(attendanceRepo, employeeRepo, transactor, attendanceOpts...)
	employeeService := services.NewEmployeeService(employeeRepo, lookupRepo, transactor)
	authService := services.NewAuthService(employeeRepo, tokens)

	// Initialize Handlers
	h := Handlers{
		Attendance: handlers.NewAttendanceHandler(attendanceService),
		Employee:   handlers.NewEmployeeHandler(employeeService),
		Auth:       handlers.NewAuthHandler(authService, employeeService),
		Health:     handlers.NewHealthHandler(db),
	}

	RegisterRoutes(engine, h, AuthOptions{Enabled: cfg.Auth.Enabled, Tokens: tokens})
	return nil
}

// AuthOptions controls whether the API groups require a bearer token.
type AuthOptions struct {
	Enabled bool
	Tokens  *utils.TokenManager
}

// RegisterRoutes mounts every route group. Health and login are always public.
func RegisterRoutes(engine *gin.Engine, h Handlers, auth AuthOptions) {
	engine.GET("/ping", h.Health.Ping)
	engine.GET("/health", h.Health.Health)

	api := engine.Group("/api")
	SetupPublicAuthRoutes(api.Group("/auth"), h.Auth)

	protected := api.Group("")
	if auth.Enabled {
		protected.Use(authMiddleware(auth))
		SetupAuthenticatedAuthRoutes(protected.Group("/auth"), h.Auth)
	}
	SetupAttendanceRoutes(protected, h.Attendance)
	SetupEmployeeRoutes(protected, h.Employee, auth.Enabled)

	utils.LogInfo("Routes registered", map[string]interface{}{"auth_enabled": auth.Enabled})
}
