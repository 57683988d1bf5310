package middleware

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

const corsMaxAge = 12 * time.Hour

// CORS allows browser clients from any origin
func CORS() gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:    []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposeHeaders:   []string{"X-Request-ID", "Content-Disposition"},
		MaxAge:          corsMaxAge,
	})
}
