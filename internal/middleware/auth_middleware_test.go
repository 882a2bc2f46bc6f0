package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"attendance_backend/internal/middleware"
	"attendance_backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(tokens *utils.TokenManager, roles ...string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(middleware.AuthMiddleware(tokens))
	if len(roles) > 0 {
		engine.Use(middleware.RoleAuthMiddleware(roles...))
	}
	engine.GET("/whoami", func(c *gin.Context) {
		c.String(http.StatusOK, "%s|%s|%s", c.GetString(middleware.ContextEmpID), c.GetString(middleware.ContextEmail), c.GetString(middleware.ContextRole))
	})
	return engine
}

func get(engine *gin.Engine, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestAuthMiddleware(t *testing.T) {
	tokens := utils.NewTokenManager("secret", time.Hour)
	token, err := tokens.GenerateAccessToken("emp-1", "ada@example.com", "Administrator")
	require.NoError(t, err)
	engine := newEngine(tokens)

	rec := get(engine, "Bearer "+token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "emp-1|ada@example.com|Administrator", rec.Body.String())

	rec = get(engine, "bearer "+token)
	assert.Equal(t, http.StatusOK, rec.Code)

	for _, header := range []string{"", token, "Basic abc", "Bearer"} {
		rec = get(engine, header)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, header)
	}

	forged, err := utils.NewTokenManager("other", time.Hour).GenerateAccessToken("emp-1", "ada@example.com", "Administrator")
	require.NoError(t, err)
	rec = get(engine, "Bearer "+forged)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRoleAuthMiddleware(t *testing.T) {
	tokens := utils.NewTokenManager("secret", time.Hour)
	engine := newEngine(tokens, "Administrator", "Manager")

	tests := []struct {
		role   string
		status int
	}{
		{"Administrator", http.StatusOK},
		{"manager", http.StatusOK},
		{"Employee", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			token, err := tokens.GenerateAccessToken("emp-1", "x@example.com", tt.role)
			require.NoError(t, err)
			assert.Equal(t, tt.status, get(engine, "Bearer "+token).Code)
		})
	}

	t.Run("without auth middleware", func(t *testing.T) {
		gin.SetMode(gin.TestMode)
		bare := gin.New()
		bare.Use(middleware.RoleAuthMiddleware("Administrator"))
		bare.GET("/whoami", func(c *gin.Context) { c.Status(http.StatusOK) })
		assert.Equal(t, http.StatusForbidden, get(bare, "").Code)
	})
}
