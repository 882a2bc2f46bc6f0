package services_test

import (
	"context"
	"testing"
	"time"

	"attendance_backend/internal/models"
	"attendance_backend/internal/repositories/repotest"
	"attendance_backend/internal/services"
	"attendance_backend/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogin(t *testing.T) {
	ctx := context.Background()
	lookup := repotest.NewLookupRepository()
	employees := repotest.NewEmployeeRepository(lookup)
	directory := services.NewEmployeeService(employees, lookup, &repotest.Transactor{})
	tokens := utils.NewTokenManager("test-secret", time.Hour)
	auth := services.NewAuthService(employees, tokens)

	created, err := directory.CreateEmployee(ctx, services.CreateEmployeeRequest{
		FirstName: "Ada", LastName: "Admin", Email: "ada@example.com",
		Password: "correct-horse", RoleID: 5, DeptID: 1,
	})
	require.NoError(t, err)

	t.Run("valid credentials issue a token", func(t *testing.T) {
		resp, err := auth.Login(ctx, models.Credentials{Email: "ADA@example.com", Password: "correct-horse"})
		require.NoError(t, err)

		assert.Equal(t, created.EmpID, resp.Employee.EmpID)
		assert.Equal(t, int64(3600), resp.ExpiresIn)

		claims, err := tokens.ValidateToken(resp.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, created.EmpID.String(), claims.EmpID)
		assert.Equal(t, "Administrator", claims.Role)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := auth.Login(ctx, models.Credentials{Email: "ada@example.com", Password: "wrong"})
		assert.ErrorIs(t, err, services.ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := auth.Login(ctx, models.Credentials{Email: "nobody@example.com", Password: "correct-horse"})
		assert.ErrorIs(t, err, services.ErrInvalidCredentials)
	})
}
