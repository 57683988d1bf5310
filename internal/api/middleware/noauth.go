package middleware

import (
	"github.com/gin-gonic/gin"
)

// NoAuth is a pass-through middleware for AUTH_MODE=none
func NoAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Set a dummy user ID for logging purposes
		c.Set("user_id", "anonymous")
		c.Set("user_id_str", "anonymous")
		c.Next()
	}
}
