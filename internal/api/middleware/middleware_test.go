package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Conceptual-Machines/magda-melody/internal/metrics"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type endpointRecorder struct {
	endpoints []string
	statuses  []int
}

func (r *endpointRecorder) RecordAPIRequest(_ context.Context, endpoint string, status int, _ time.Duration) {
	r.endpoints = append(r.endpoints, endpoint)
	r.statuses = append(r.statuses, status)
}

func (r *endpointRecorder) RecordGeneration(context.Context, metrics.Generation) {}

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRequestTracking(t *testing.T) {
	rec := &endpointRecorder{}
	r := gin.New()
	r.Use(RequestTracking(rec))
	r.GET("/items/:id", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("request_id"))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/items/3", nil))

	require.Equal(t, http.StatusOK, w.Code)
	id := w.Header().Get("X-Request-ID")
	_, err := uuid.Parse(id)
	assert.NoError(t, err)
	assert.Equal(t, id, w.Body.String())
	assert.Equal(t, []string{"/items/:id"}, rec.endpoints)

	incoming := uuid.New().String()
	req := httptest.NewRequest(http.MethodGet, "/items/4", nil)
	req.Header.Set("X-Request-ID", incoming)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, incoming, w.Header().Get("X-Request-ID"))
}

func TestRecoverWithSentry(t *testing.T) {
	r := gin.New()
	r.Use(RecoverWithSentry())
	r.GET("/boom", func(c *gin.Context) {
		panic("boom")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Internal server error")
}

func TestGatewayAuth(t *testing.T) {
	r := gin.New()
	r.GET("/me", GatewayAuth(), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("user_id_str"))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("X-User-ID", "u-42")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u-42", w.Body.String())
}

func TestCORSPreflight(t *testing.T) {
	r := gin.New()
	r.Use(CORS())
	r.POST("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	preflight := httptest.NewRequest(http.MethodOptions, "/x", nil)
	preflight.Header.Set("Origin", "https://studio.example")
	preflight.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, preflight)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)

	req := httptest.NewRequest(http.MethodPost, "/x", nil)
	req.Header.Set("Origin", "https://studio.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
