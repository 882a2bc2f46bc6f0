package services

import (
	"context"
	"errors"
	"fmt"

	"attendance_backend/internal/models"
	"attendance_backend/internal/repositories"
	"attendance_backend/pkg/utils"

	"golang.org/x/crypto/bcrypt"
)

// --- Custom Service Errors ---
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenGeneration    = errors.New("failed to generate token")
)

// --- AuthService Interface ---
type AuthService interface {
	Login(ctx context.Context, creds models.Credentials) (*models.LoginResponse, error)
}

// --- authService Implementation ---
type authService struct {
	employeeRepo repositories.EmployeeRepository
	tokens       *utils.TokenManager
}

// NewAuthService creates a new instance of AuthService.
func NewAuthService(er repositories.EmployeeRepository, tokens *utils.TokenManager) AuthService {
	return &authService{
		employeeRepo: er,
		tokens:       tokens,
	}
}

// Login checks the password against the stored bcrypt hash and issues an
// access token carrying the employee's role name.
func (s *authService) Login(ctx context.Context, creds models.Credentials) (*models.LoginResponse, error) {
	employee, err := s.employeeRepo.GetEmployeeDetailsByEmail(ctx, utils.NormalizeEmail(creds.Email))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login attempt failed: %w", err)
	}

	// bcrypt.ErrMismatchedHashAndPassword on a wrong password
	if err := bcrypt.CompareHashAndPassword([]byte(employee.PasswordHash), []byte(creds.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	accessToken, err := s.tokens.GenerateAccessToken(employee.EmpID.String(), employee.Email, employee.RoleName)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenGeneration, err)
	}

	return &models.LoginResponse{
		Employee:    employee,
		AccessToken: accessToken,
		ExpiresIn:   int64(s.tokens.TTL().Seconds()),
	}, nil
}
