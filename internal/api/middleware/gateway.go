package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GatewayAuth trusts user info from gateway headers (X-User-ID, X-User-Email).
// Only use it when the service is reachable solely through the gateway.
func GatewayAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader("X-User-ID")
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "Authentication required",
				"message": "Missing X-User-ID header from gateway",
			})
			c.Abort()
			return
		}

		c.Set("user_id", userID)
		c.Set("user_id_str", userID)
		c.Set("user_email", c.GetHeader("X-User-Email"))

		c.Next()
	}
}
