package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/coachmybody/server/models"
	"github.com/coachmybody/server/services"
)

type stubResolver struct {
	tokens map[string]*models.User
}

func (s stubResolver) FindByToken(_ context.Context, token string) (*models.User, error) {
	if u, ok := s.tokens[token]; ok {
		return u, nil
	}
	return nil, services.ErrInvalidAccessToken
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", BearerToken("Bearer abc"))
	assert.Equal(t, "abc", BearerToken("bearer  abc "))
	assert.Equal(t, "abc", BearerToken("abc"))
	assert.Equal(t, "", BearerToken(""))
	assert.Equal(t, "", BearerToken("Basic dXNlcjpwdw=="))
}

func TestAuthRequired(t *testing.T) {
	gin.SetMode(gin.TestMode)
	user := &models.User{ID: uuid.New(), SocialID: "s1"}
	r := gin.New()
	r.Use(AuthRequired(stubResolver{tokens: map[string]*models.User{"good": user}}))
	r.GET("/me", func(c *gin.Context) {
		u, ok := CurrentUser(c)
		assert.True(t, ok)
		c.String(http.StatusOK, u.SocialID)
	})

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"valid", "Bearer good", http.StatusOK},
		{"raw token", "good", http.StatusOK},
		{"missing", "", http.StatusUnauthorized},
		{"unknown", "Bearer bad", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.status, w.Code)
			if tc.status == http.StatusUnauthorized {
				assert.Contains(t, w.Body.String(), "INVALID_ACCESS_TOKEN")
			}
		})
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(4) // burst of 2
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.allow("1.1.1.1"))
	assert.True(t, rl.allow("1.1.1.1"))
	assert.False(t, rl.allow("1.1.1.1"))
	assert.True(t, rl.allow("2.2.2.2"), "buckets are per client")

	now = now.Add(15 * time.Second)
	assert.True(t, rl.allow("1.1.1.1"), "one token refills every 15s")

	now = now.Add(limiterIdleTTL + time.Second)
	rl.allow("3.3.3.3")
	assert.NotContains(t, rl.limiters, "2.2.2.2", "idle clients are forgotten")
}

func TestMetricsUsesRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Metrics())
	r.GET("/items/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/items/7", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
}
