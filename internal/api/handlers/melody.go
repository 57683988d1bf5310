package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Conceptual-Machines/magda-melody/internal/export"
	"github.com/Conceptual-Machines/magda-melody/internal/harmony"
	"github.com/Conceptual-Machines/magda-melody/internal/logger"
	"github.com/Conceptual-Machines/magda-melody/internal/middleware"
	"github.com/Conceptual-Machines/magda-melody/internal/models"
	"github.com/Conceptual-Machines/magda-melody/internal/services"
	"github.com/gin-gonic/gin"
)

type MelodyHandler struct {
	melodies *services.MelodyService
}

func NewMelodyHandler(melodies *services.MelodyService) *MelodyHandler {
	return &MelodyHandler{melodies: melodies}
}

// Generate handles POST /api/v1/melodies
func (h *MelodyHandler) Generate(c *gin.Context) {
	var req services.GenerateRequest
	if !bind(c, &req) {
		return
	}
	req.RequestID = c.GetString("request_id")
	req.UserID = middleware.GetCurrentUserID(c)

	resp, err := h.melodies.Generate(c.Request.Context(), req)
	if err != nil {
		respondError(c, "Generation failed", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Batch handles POST /api/v1/melodies/batch
func (h *MelodyHandler) Batch(c *gin.Context) {
	var req services.BatchRequest
	if !bind(c, &req) {
		return
	}
	req.RequestID = c.GetString("request_id")
	req.UserID = middleware.GetCurrentUserID(c)

	resp, err := h.melodies.Batch(c.Request.Context(), req)
	if err != nil {
		respondError(c, "Batch generation failed", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Fragments handles POST /api/v1/melodies/fragments
func (h *MelodyHandler) Fragments(c *gin.Context) {
	var req services.FragmentsRequest
	if !bind(c, &req) {
		return
	}
	req.RequestID = c.GetString("request_id")

	resp, err := h.melodies.Fragments(c.Request.Context(), req)
	if err != nil {
		respondError(c, "Fragment generation failed", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Harmony handles POST /api/v1/harmony
func (h *MelodyHandler) Harmony(c *gin.Context) {
	var req services.HarmonyRequest
	if !bind(c, &req) {
		return
	}
	hc, err := h.melodies.Harmony(req)
	if err != nil {
		respondError(c, "Harmony generation failed", err)
		return
	}
	c.JSON(http.StatusOK, hc)
}

// Evaluate handles POST /api/v1/evaluate
func (h *MelodyHandler) Evaluate(c *gin.Context) {
	var req models.EvaluateRequest
	if !bind(c, &req) {
		return
	}
	result, err := h.melodies.Evaluate(req)
	if err != nil {
		respondError(c, "Evaluation failed", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Strategies handles GET /api/v1/strategies
func (h *MelodyHandler) Strategies(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"strategies": h.melodies.Strategies(),
		"scales":     harmony.Scales(),
	})
}

// Get handles GET /api/v1/melodies/:id
func (h *MelodyHandler) Get(c *gin.Context) {
	g, err := h.melodies.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, "Failed to load generation", err)
		return
	}
	c.JSON(http.StatusOK, g)
}

// MIDI handles GET /api/v1/melodies/:id/midi
func (h *MelodyHandler) MIDI(c *gin.Context) {
	data, g, err := h.melodies.MIDI(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, "Failed to render generation", err)
		return
	}
	filename := export.FileBase(g.Strategy, g.Seed) + ".mid"
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentTypeMIDI, data)
}

func bind(c *gin.Context, dest interface{}) bool {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)
	if err := c.ShouldBindJSON(dest); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	return true
}

func respondError(c *gin.Context, msg string, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrStoreDisabled):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		logger.Error(msg, err, logger.WithContext(c))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":      msg,
			"request_id": c.GetString("request_id"),
		})
	}
}
