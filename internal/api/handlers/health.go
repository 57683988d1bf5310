package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/Conceptual-Machines/magda-melody/internal/database"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const healthTimeout = 2 * time.Second

type HealthHandler struct {
	db *gorm.DB
}

// NewHealthHandler takes an optional database; nil reports it as disabled
func NewHealthHandler(db *gorm.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

// HealthCheck returns the health status of the API
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	dbStatus := "disabled"
	status := http.StatusOK

	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
		defer cancel()
		if err := database.Ping(ctx, h.db); err != nil {
			dbStatus = "unreachable"
			status = http.StatusServiceUnavailable
		} else {
			dbStatus = "ok"
		}
	}

	overall := "healthy"
	if status != http.StatusOK {
		overall = "degraded"
	}
	c.JSON(status, gin.H{
		"status":   overall,
		"database": dbStatus,
	})
}
