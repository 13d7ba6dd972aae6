package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"coinmeet/config"
	"coinmeet/internal/auth"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRateLimiterWindow(t *testing.T) {
	l := NewInMemoryRateLimiter(2, time.Minute)
	assert.True(t, l.Allow("1.2.3.4"))
	assert.True(t, l.Allow("1.2.3.4"))
	assert.False(t, l.Allow("1.2.3.4"))
	assert.True(t, l.Allow("5.6.7.8"))

	l.sweep(time.Now().Add(2 * time.Minute))
	l.mu.Lock()
	assert.Empty(t, l.visitors)
	l.mu.Unlock()
	assert.True(t, l.Allow("1.2.3.4"))

	// One token comes back every 30s.
	now := time.Now()
	ok, wait := l.take("9.9.9.9", now)
	assert.True(t, ok)
	_, _ = l.take("9.9.9.9", now)
	ok, wait = l.take("9.9.9.9", now)
	assert.False(t, ok)
	assert.InDelta(t, 30*time.Second, wait, float64(time.Second))
	ok, _ = l.take("9.9.9.9", now.Add(31*time.Second))
	assert.True(t, ok)
}

func TestRateLimitMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(RateLimit(NewInMemoryRateLimiter(1, time.Minute)))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 2)
	var last *httptest.ResponseRecorder
	for i := 0; i < 2; i++ {
		last = httptest.NewRecorder()
		r.ServeHTTP(last, httptest.NewRequest(http.MethodGet, "/ping", nil))
		codes = append(codes, last.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusTooManyRequests}, codes)
	assert.Equal(t, "60", last.Header().Get("Retry-After"))
}

func TestAuthAndUserType(t *testing.T) {
	cfg := &config.JWTConfig{AccessSecret: "test-secret", AccessExpiry: time.Hour, Issuer: "coinmeet-test"}
	r := gin.New()
	r.GET("/male", AuthRequired(cfg), RequireUserType("male"), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": GetUserID(c), "type": GetUserType(c)})
	})
	r.GET("/admin", AuthRequired(cfg), AdminRequired(), func(c *gin.Context) { c.Status(http.StatusOK) })

	maleToken, err := auth.GenerateAccessToken(cfg, 42, "male")
	require.NoError(t, err)
	femaleToken, err := auth.GenerateAccessToken(cfg, 7, "female")
	require.NoError(t, err)
	foreign, err := auth.GenerateAccessToken(&config.JWTConfig{AccessSecret: "other", AccessExpiry: time.Hour}, 42, "male")
	require.NoError(t, err)
	expired, err := auth.GenerateAccessToken(&config.JWTConfig{AccessSecret: cfg.AccessSecret, AccessExpiry: -time.Minute, Issuer: cfg.Issuer}, 42, "male")
	require.NoError(t, err)

	tests := []struct {
		name   string
		path   string
		header string
		want   int
		msg    string
	}{
		{"missing header", "/male", "", http.StatusUnauthorized, "missing authorization header"},
		{"wrong scheme", "/male", "Token " + maleToken, http.StatusUnauthorized, "invalid authorization format"},
		{"bad signature", "/male", "Bearer " + foreign, http.StatusUnauthorized, "invalid token"},
		{"expired", "/male", "Bearer " + expired, http.StatusUnauthorized, "token expired"},
		{"wrong type", "/male", "Bearer " + femaleToken, http.StatusForbidden, "forbidden for female accounts"},
		{"ok", "/male", "bearer " + maleToken, http.StatusOK, ""},
		{"not admin", "/admin", "Bearer " + maleToken, http.StatusForbidden, "admin access required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
			if tt.msg != "" {
				var body struct {
					Success bool   `json:"success"`
					Message string `json:"message"`
				}
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
				assert.False(t, body.Success)
				assert.Equal(t, tt.msg, body.Message)
			}
			if tt.want == http.StatusOK && tt.path == "/male" {
				assert.JSONEq(t, `{"id":42,"type":"male"}`, w.Body.String())
			}
		})
	}
}
