package handlers

import (
	"context"
	"net/http"
	"time"

	"attendance_backend/internal/database"
	"attendance_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

const healthCheckTimeout = 3 * time.Second

// HealthHandler reports liveness and database readiness.
type HealthHandler struct {
	db database.Pinger
}

func NewHealthHandler(db database.Pinger) *HealthHandler {
	return &HealthHandler{db: db}
}

func (h *HealthHandler) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "pong"})
}

// Health answers 503 when the database does not respond.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	if err := database.Healthy(ctx, h.db); err != nil {
		utils.LogError(err, "Health: database check failed")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusServiceUnavailable, utils.ErrCodeServiceUnavailable, "Service unhealthy", err.Error()))
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "database": "up"})
}
