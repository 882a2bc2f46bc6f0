package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"attendance_backend/internal/handlers"
	"attendance_backend/internal/models"
	"attendance_backend/internal/repositories/repotest"
	"attendance_backend/internal/router"
	"attendance_backend/internal/services"
	"attendance_backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	zerolog.SetGlobalLevel(zerolog.Disabled)
	os.Exit(m.Run())
}

type fakePinger struct{ err error }

func (p fakePinger) PingContext(context.Context) error { return p.err }

type apiFixture struct {
	engine    *gin.Engine
	tokens    *utils.TokenManager
	directory services.EmployeeService
	alice     *models.EmployeeDetails
}

func newAPI(t *testing.T, authEnabled bool, pinger fakePinger) *apiFixture {
	t.Helper()

	lookup := repotest.NewLookupRepository()
	employees := repotest.NewEmployeeRepository(lookup)
	attendance := repotest.NewAttendanceRepository()
	tx := &repotest.Transactor{}
	tokens := utils.NewTokenManager("test-secret", time.Hour)

	clock := services.WithClock(func() time.Time { return time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC) })
	attendanceService := services.NewAttendanceService(attendance, employees, tx, clock)
	employeeService := services.NewEmployeeService(employees, lookup, tx)
	authService := services.NewAuthService(employees, tokens)

	alice, err := employeeService.CreateEmployee(context.Background(), services.CreateEmployeeRequest{
		FirstName: "Alice", LastName: "Smith", Email: "alice@example.com",
		Password: "alice-password", RoleID: 1, DeptID: 1,
	})
	require.NoError(t, err)

	engine := gin.New()
	router.RegisterRoutes(engine, router.Handlers{
		Attendance: handlers.NewAttendanceHandler(attendanceService),
		Employee:   handlers.NewEmployeeHandler(employeeService),
		Auth:       handlers.NewAuthHandler(authService, employeeService),
		Health:     handlers.NewHealthHandler(pinger),
	}, router.AuthOptions{Enabled: authEnabled, Tokens: tokens})

	return &apiFixture{engine: engine, tokens: tokens, directory: employeeService, alice: alice}
}

func (f *apiFixture) do(t *testing.T, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.engine.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body utils.APIError
	decode(t, rec, &body)
	assert.NotEmpty(t, body.Message)
	return body.Code
}

func TestAttendanceLifecycle(t *testing.T) {
	f := newAPI(t, false, fakePinger{})
	empID := f.alice.EmpID.String()

	rec := f.do(t, http.MethodPost, "/api/attendance/checkin",
		map[string]string{"emp_id": empID, "checkin_datetime": "2024-01-15T09:00:00"}, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var checkin map[string]interface{}
	decode(t, rec, &checkin)
	assert.Equal(t, empID, checkin["emp_id"])
	assert.Equal(t, "2024-01-15T09:00:00", checkin["checkin_datetime"])
	assert.Nil(t, checkin["checkout_datetime"])
	assert.Nil(t, checkin["total_working_seconds"])

	rec = f.do(t, http.MethodPost, "/api/attendance/checkin",
		map[string]string{"emp_id": empID, "checkin_datetime": "2024-01-15T10:00:00"}, "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, utils.ErrCodeConflict, errorCode(t, rec))

	rec = f.do(t, http.MethodGet, "/api/attendance/employee/"+empID+"/status", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var status models.AttendanceStatus
	decode(t, rec, &status)
	assert.True(t, status.CheckedIn)
	require.NotNil(t, status.Attendance)

	rec = f.do(t, http.MethodPost, "/api/attendance/checkout",
		map[string]string{"emp_id": empID, "checkout_datetime": "2024-01-15T08:00:00"}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/attendance/checkout",
		map[string]string{"emp_id": empID, "checkout_datetime": "2024-01-15T17:30:00"}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var checkout models.AttendanceResponse
	decode(t, rec, &checkout)
	require.NotNil(t, checkout.TotalWorkingSeconds)
	assert.Equal(t, int64(30600), *checkout.TotalWorkingSeconds)

	rec = f.do(t, http.MethodPost, "/api/attendance/checkout", map[string]string{"emp_id": empID}, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, utils.ErrCodeNotFound, errorCode(t, rec))

	rec = f.do(t, http.MethodPost, "/api/attendance/checkin",
		map[string]string{"emp_id": empID, "checkin_datetime": "2024-01-15T10:00:00"}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, utils.ErrCodeBadRequest, errorCode(t, rec))

	rec = f.do(t, http.MethodGet, "/api/attendance/summary/date/2024-01-15", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var summaries []models.AttendanceSummary
	decode(t, rec, &summaries)
	require.Len(t, summaries, 1)
	assert.Equal(t, "Alice Smith", summaries[0].EmployeeName)
	assert.Equal(t, "Checked Out", summaries[0].Status)
	require.NotNil(t, summaries[0].TotalHours)
	assert.Equal(t, "8h 30m", *summaries[0].TotalHours)

	rec = f.do(t, http.MethodGet, "/api/attendance/employee/"+empID+"/working-hours/2024-01-15", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var hours models.WorkingHours
	decode(t, rec, &hours)
	assert.Equal(t, int64(30600), hours.TotalSeconds)
	assert.Equal(t, "8h 30m", hours.TotalHours)
	assert.Equal(t, "2024-01-15", hours.Date)

	rec = f.do(t, http.MethodGet, "/api/attendance/employee/"+empID+"/working-hours?start_date=2024-01-01&end_date=2024-01-31", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &hours)
	assert.Equal(t, int64(30600), hours.TotalSeconds)

	for _, path := range []string{
		"/api/attendance/employee/" + empID,
		"/api/attendance/employee/" + empID + "/date/2024-01-15",
		"/api/attendance/employee/" + empID + "/sessions/2024-01-15",
		"/api/attendance/date/2024-01-15",
		"/api/attendance/date-range?start_date=2024-01-15&end_date=2024-01-15",
		"/api/attendance/today",
	} {
		rec = f.do(t, http.MethodGet, path, nil, "")
		require.Equal(t, http.StatusOK, rec.Code, path)
		var records []models.Attendance
		decode(t, rec, &records)
		assert.Len(t, records, 1, path)
	}

	rec = f.do(t, http.MethodGet, "/api/attendance/summary/employee/"+empID+"?start_date=2024-01-15&end_date=2024-01-15", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	rec = f.do(t, http.MethodGet, "/api/attendance/summary/today", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestAttendanceBadRequests(t *testing.T) {
	f := newAPI(t, false, fakePinger{})
	empID := f.alice.EmpID.String()

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		status int
	}{
		{"malformed emp_id in body", http.MethodPost, "/api/attendance/checkin", map[string]string{"emp_id": "nope"}, http.StatusBadRequest},
		{"missing emp_id", http.MethodPost, "/api/attendance/checkin", map[string]string{}, http.StatusBadRequest},
		{"malformed datetime", http.MethodPost, "/api/attendance/checkin", map[string]string{"emp_id": empID, "checkin_datetime": "yesterday"}, http.StatusBadRequest},
		{"zero datetime", http.MethodPost, "/api/attendance/checkin", map[string]string{"emp_id": empID, "checkin_datetime": "0001-01-01T00:00:00"}, http.StatusBadRequest},
		{"malformed emp_id in path", http.MethodGet, "/api/attendance/employee/not-a-uuid", nil, http.StatusBadRequest},
		{"uuid without hyphens", http.MethodGet, "/api/attendance/employee/" + "0123456789abcdef0123456789abcdef", nil, http.StatusBadRequest},
		{"malformed date", http.MethodGet, "/api/attendance/date/2024-13-01", nil, http.StatusBadRequest},
		{"missing range params", http.MethodGet, "/api/attendance/date-range?start_date=2024-01-01", nil, http.StatusBadRequest},
		{"reversed range", http.MethodGet, "/api/attendance/date-range?start_date=2024-02-01&end_date=2024-01-01", nil, http.StatusBadRequest},
		{"unknown employee", http.MethodGet, "/api/attendance/employee/00000000-0000-0000-0000-000000000001", nil, http.StatusNotFound},
		{"unknown employee check-in", http.MethodPost, "/api/attendance/checkin", map[string]string{"emp_id": "00000000-0000-0000-0000-000000000001"}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, tt.method, tt.path, tt.body, "")
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			errorCode(t, rec)
		})
	}
}

func TestEmployeeRoutes(t *testing.T) {
	f := newAPI(t, false, fakePinger{})

	rec := f.do(t, http.MethodPost, "/api/employees", map[string]interface{}{
		"first_name": "Bob", "last_name": "Jones", "email": "bob@example.com",
		"password": "bob-password", "role_id": 2, "dept_id": 3,
		"reporting_to": f.alice.EmpID.String(),
	}, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var bob models.EmployeeDetails
	decode(t, rec, &bob)
	assert.Equal(t, "Supervisor", bob.RoleName)
	assert.Equal(t, "Finance", bob.DeptName)
	assert.NotContains(t, rec.Body.String(), "password")

	rec = f.do(t, http.MethodPost, "/api/employees", map[string]interface{}{
		"first_name": "Bob", "last_name": "Again", "email": "bob@example.com",
		"password": "bob-password", "role_id": 2, "dept_id": 3,
	}, "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/employees", map[string]interface{}{
		"first_name": "Eve", "last_name": "X", "email": "eve@example.com",
		"password": "eve-password", "role_id": 42, "dept_id": 3,
	}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/employees?dept_id=3", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []models.EmployeeDetails
	decode(t, rec, &list)
	require.Len(t, list, 1)
	assert.Equal(t, bob.EmpID, list[0].EmpID)

	rec = f.do(t, http.MethodGet, "/api/employees?dept_id=abc", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/employees/email/bob@example.com", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodPut, "/api/employees/uuid/"+bob.EmpID.String(), map[string]interface{}{
		"first_name": "Robert", "last_name": "Jones", "email": "bob@example.com",
		"role_id": 2, "dept_id": 3,
	}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decode(t, rec, &bob)
	assert.Equal(t, "Robert", bob.FirstName)
	assert.Nil(t, bob.ReportingTo)

	rec = f.do(t, http.MethodGet, "/api/employees/roles", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var roles []models.Role
	decode(t, rec, &roles)
	assert.Len(t, roles, 5)

	rec = f.do(t, http.MethodGet, "/api/employees/departments", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodDelete, "/api/employees/uuid/"+bob.EmpID.String(), nil, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = f.do(t, http.MethodGet, "/api/employees/uuid/"+bob.EmpID.String(), nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = f.do(t, http.MethodDelete, "/api/employees/email/bob@example.com", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealth(t *testing.T) {
	f := newAPI(t, false, fakePinger{})
	rec := f.do(t, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = f.do(t, http.MethodGet, "/ping", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	f = newAPI(t, false, fakePinger{err: errors.New("connection refused")})
	rec = f.do(t, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, utils.ErrCodeServiceUnavailable, errorCode(t, rec))
}

func TestAuthEnabled(t *testing.T) {
	f := newAPI(t, true, fakePinger{})

	_, err := f.directory.CreateEmployee(context.Background(), services.CreateEmployeeRequest{
		FirstName: "Ada", LastName: "Admin", Email: "ada@example.com",
		Password: "ada-password", RoleID: 5, DeptID: 1,
	})
	require.NoError(t, err)

	login := func(email, password string) string {
		rec := f.do(t, http.MethodPost, "/api/auth/login", map[string]string{"email": email, "password": password}, "")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var resp models.LoginResponse
		decode(t, rec, &resp)
		return resp.AccessToken
	}

	rec := f.do(t, http.MethodGet, "/api/attendance/today", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = f.do(t, http.MethodGet, "/api/attendance/today", nil, "garbage")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/auth/login", map[string]string{"email": "alice@example.com", "password": "nope"}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	employeeToken := login("alice@example.com", "alice-password")
	rec = f.do(t, http.MethodGet, "/api/attendance/today", nil, employeeToken)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/auth/me", nil, employeeToken)
	require.Equal(t, http.StatusOK, rec.Code)
	var me models.EmployeeDetails
	decode(t, rec, &me)
	assert.Equal(t, f.alice.EmpID, me.EmpID)

	newEmployee := map[string]interface{}{
		"first_name": "Carl", "last_name": "C", "email": "carl@example.com",
		"password": "carl-password", "role_id": 1, "dept_id": 2,
	}
	rec = f.do(t, http.MethodPost, "/api/employees", newEmployee, employeeToken)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	adminToken := login("ada@example.com", "ada-password")
	rec = f.do(t, http.MethodPost, "/api/employees", newEmployee, adminToken)
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = f.do(t, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestDeletingEmployeeKeepsAttendanceHistory(t *testing.T) {
	f := newAPI(t, false, fakePinger{})
	empID := f.alice.EmpID.String()

	rec := f.do(t, http.MethodPost, "/api/attendance/checkin",
		map[string]string{"emp_id": empID, "checkin_datetime": "2024-01-15T09:00:00"}, "")
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = f.do(t, http.MethodPost, "/api/attendance/checkout",
		map[string]string{"emp_id": empID, "checkout_datetime": "2024-01-15T17:00:00"}, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodDelete, "/api/employees/uuid/"+empID, nil, "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/attendance/date/2024-01-15", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var records []models.Attendance
	decode(t, rec, &records)
	require.Len(t, records, 1)
	assert.Equal(t, f.alice.EmpID, records[0].EmpID)

	rec = f.do(t, http.MethodGet, "/api/attendance/summary/date/2024-01-15", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var summaries []models.AttendanceSummary
	decode(t, rec, &summaries)
	assert.Empty(t, summaries)

	rec = f.do(t, http.MethodGet, "/api/attendance/employee/"+empID, nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
