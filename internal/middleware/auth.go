package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Conceptual-Machines/magda-melody/internal/config"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	bearerPrefix = "Bearer"
	issuer       = "magda-melody"
)

// ErrMissingSecret is returned when tokens are issued or checked without a secret
var ErrMissingSecret = errors.New("jwt secret is not configured")

type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// IssueToken signs an HS256 token for userID valid for ttl
func IssueToken(secret, userID, email string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", ErrMissingSecret
	}
	now := time.Now()
	claims := Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseToken validates a token string and returns its claims
func ParseToken(secret, tokenString string) (*Claims, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		// Verify signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithIssuer(issuer))
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.UserID == "" {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// JWTAuth middleware validates bearer tokens and attaches the user to the context
func JWTAuth(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c.GetHeader("Authorization"))
		if tokenString == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization required"})
			c.Abort()
			return
		}

		claims, err := ParseToken(cfg.JWTSecret, tokenString)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("user_id_str", claims.UserID)
		c.Set("user_email", claims.Email)
		c.Next()
	}
}

// GetCurrentUserID returns the authenticated user id, or "" for anonymous requests
func GetCurrentUserID(c *gin.Context) string {
	id, exists := c.Get("user_id_str")
	if !exists {
		return ""
	}
	s, _ := id.(string)
	return s
}

func bearerToken(header string) string {
	parts := strings.Split(header, " ")
	if len(parts) == 2 && parts[0] == bearerPrefix {
		return parts[1]
	}
	return ""
}
