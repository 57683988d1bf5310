package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Conceptual-Machines/magda-melody/internal/config"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func newAuthRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", JWTAuth(&config.Config{JWTSecret: testSecret}), func(c *gin.Context) {
		c.String(http.StatusOK, GetCurrentUserID(c))
	})
	return r
}

func TestIssueAndParse(t *testing.T) {
	token, err := IssueToken(testSecret, "user-7", "u7@example.com", time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken(testSecret, token)
	require.NoError(t, err)
	assert.Equal(t, "user-7", claims.UserID)
	assert.Equal(t, "u7@example.com", claims.Email)

	_, err = ParseToken("other-secret", token)
	assert.Error(t, err)

	_, err = IssueToken("", "user-7", "", time.Hour)
	assert.ErrorIs(t, err, ErrMissingSecret)
}

func TestJWTAuth(t *testing.T) {
	valid, err := IssueToken(testSecret, "user-1", "", time.Hour)
	require.NoError(t, err)
	expired, err := IssueToken(testSecret, "user-1", "", -time.Minute)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{"valid", "Bearer " + valid, http.StatusOK, "user-1"},
		{"missing", "", http.StatusUnauthorized, ""},
		{"wrong scheme", "Token " + valid, http.StatusUnauthorized, ""},
		{"expired", "Bearer " + expired, http.StatusUnauthorized, ""},
		{"garbage", "Bearer abc.def.ghi", http.StatusUnauthorized, ""},
	}

	r := newAuthRouter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			if tt.body != "" {
				assert.Equal(t, tt.body, w.Body.String())
			}
		})
	}
}
