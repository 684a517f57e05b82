package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadgen-api/internal/application/principal"
	"leadgen-api/internal/infrastructure/persistence/redis"
	apperrors "leadgen-api/pkg/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeAuthenticator struct{}

func (fakeAuthenticator) Authenticate(_ context.Context, token string) (*principal.Principal, error) {
	if token == "good" {
		return &principal.Principal{UserID: "u1", Email: "ada@example.com"}, nil
	}
	return nil, apperrors.ErrTokenInvalid
}

func whoami(c *gin.Context) {
	p := CurrentPrincipal(c)
	if p == nil {
		c.String(http.StatusOK, "anonymous")
		return
	}
	c.String(http.StatusOK, p.UserID)
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			ErrorCode string `json:"error_code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Error.ErrorCode
}

func TestAuth(t *testing.T) {
	r := gin.New()
	r.GET("/me", Auth(AuthConfig{CookieName: "leadgen.session"}, fakeAuthenticator{}), whoami)

	tests := []struct {
		name     string
		header   string
		cookie   string
		wantCode int
		wantBody string
		errCode  apperrors.ErrorCode
	}{
		{name: "bearer", header: "Bearer good", wantCode: 200, wantBody: "u1"},
		{name: "lowercase bearer", header: "bearer good", wantCode: 200, wantBody: "u1"},
		{name: "cookie", cookie: "good", wantCode: 200, wantBody: "u1"},
		{name: "missing", wantCode: 401, errCode: apperrors.CodeTokenMissing},
		{name: "bad scheme", header: "Basic abc", wantCode: 401, errCode: apperrors.CodeTokenMissing},
		{name: "invalid", header: "Bearer nope", wantCode: 401, errCode: apperrors.CodeTokenInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "leadgen.session", Value: tt.cookie})
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantCode, w.Code)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, w.Body.String())
			}
			if tt.errCode != "" {
				assert.Equal(t, string(tt.errCode), errorCode(t, w))
			}
		})
	}
}

func TestOptionalAuth(t *testing.T) {
	r := gin.New()
	r.GET("/session", OptionalAuth(AuthConfig{}, fakeAuthenticator{}), whoami)

	for token, want := range map[string]string{"good": "u1", "nope": "anonymous", "": "anonymous"} {
		req := httptest.NewRequest(http.MethodGet, "/session", nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, want, w.Body.String())
	}
}

type countingLimiter struct {
	keys []string
	max  int
	err  error
}

func (l *countingLimiter) Take(_ context.Context, key string, limit int, _ time.Duration) (redis.Decision, error) {
	if l.err != nil {
		return redis.Decision{}, l.err
	}
	l.keys = append(l.keys, key)
	d := redis.Decision{Limit: limit, Allowed: len(l.keys) <= limit}
	if d.Allowed {
		d.Remaining = limit - len(l.keys)
	} else {
		d.RetryAfter = 1500 * time.Millisecond
	}
	return d, nil
}

func TestRateLimit(t *testing.T) {
	limiter := &countingLimiter{}
	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set("user_id", "u1"); c.Next() })
	r.GET("/x", RateLimit(RateLimitConfig{Enabled: true, Limit: 2, Window: time.Minute, Scope: "upstream"}, limiter), whoami)

	codes := make([]int, 0, 3)
	remaining := make([]string, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
		codes = append(codes, w.Code)
		remaining = append(remaining, w.Header().Get("X-RateLimit-Remaining"))
		assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
		if w.Code == http.StatusTooManyRequests {
			assert.Equal(t, "2", w.Header().Get("Retry-After"))
		}
	}
	assert.Equal(t, []int{200, 200, 429}, codes)
	assert.Equal(t, []string{"1", "0", "0"}, remaining)
	assert.Equal(t, "ratelimit:user:u1:upstream", limiter.keys[0])
}

func TestRateLimit_FailsOpen(t *testing.T) {
	r := gin.New()
	r.GET("/x", RateLimit(RateLimitConfig{Enabled: true, Limit: 1}, &countingLimiter{err: errors.New("redis down")}), whoami)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("X-RateLimit-Remaining"))
}

func TestRetryAfterSeconds(t *testing.T) {
	assert.Equal(t, 1, retryAfterSeconds(0))
	assert.Equal(t, 1, retryAfterSeconds(200*time.Millisecond))
	assert.Equal(t, 2, retryAfterSeconds(1500*time.Millisecond))
	assert.Equal(t, 60, retryAfterSeconds(time.Minute))
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/x", func(c *gin.Context) { c.String(http.StatusOK, c.GetString("request_id")) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(RequestIDHeader, strings.Repeat("a", 200))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Len(t, w.Body.String(), 36)
	assert.Equal(t, w.Body.String(), w.Header().Get(RequestIDHeader))
}

func TestRecovery(t *testing.T) {
	r := gin.New()
	r.Use(Recovery())
	r.GET("/panic", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, string(apperrors.CodeInternalError), errorCode(t, w))
}
