package handlers

import (
	"net/http"
	"time"

	"github.com/Conceptual-Machines/magda-melody/internal/cache"
	"github.com/Conceptual-Machines/magda-melody/internal/services"
	"github.com/gin-gonic/gin"
)

// MetricsHandler reports service uptime and melody service state
type MetricsHandler struct {
	startTime time.Time
	version   string
	melodies  *services.MelodyService
}

func NewMetricsHandler(version string, melodies *services.MelodyService) *MetricsHandler {
	return &MetricsHandler{
		startTime: time.Now(),
		version:   version,
		melodies:  melodies,
	}
}

type MetricsResponse struct {
	Status    string        `json:"status"`
	Version   string        `json:"version"`
	StartTime string        `json:"start_time"`
	Uptime    string        `json:"uptime"`
	Melody    MelodyMetrics `json:"melody"`
}

type MelodyMetrics struct {
	Strategies []string    `json:"strategies"`
	History    bool        `json:"history"`
	Cache      cache.Stats `json:"cache"`
}

// GetMetrics handles GET /api/metrics
func (h *MetricsHandler) GetMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, MetricsResponse{
		Status:    "healthy",
		Version:   h.version,
		StartTime: h.startTime.UTC().Format(time.RFC3339),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Melody: MelodyMetrics{
			Strategies: h.melodies.Strategies(),
			History:    h.melodies.HistoryEnabled(),
			Cache:      h.melodies.CacheStats(),
		},
	})
}
