package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newServer(mw ...echo.MiddlewareFunc) *echo.Echo {
	e := echo.New()
	e.Use(mw...)
	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	return e
}

func TestCORSConfig(t *testing.T) {
	tests := []struct {
		name    string
		domain  string
		origin  string
		allowed bool
	}{
		{"dev origin", "", "http://localhost:4200", true},
		{"unknown dev origin", "", "http://evil.example.com", false},
		{"production https", "photos.example.com", "https://photos.example.com", true},
		{"production http", "photos.example.com", "http://photos.example.com", false},
		{"local http", "localhost:4200", "http://localhost:4200", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newServer(CORSConfig(tt.domain, []string{"http://localhost:4200"}))

			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			req.Header.Set(echo.HeaderOrigin, tt.origin)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			if tt.allowed {
				assert.Equal(t, tt.origin, rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
			} else {
				assert.Empty(t, rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
			}
		})
	}
}

func TestSecurityHeaders(t *testing.T) {
	e := newServer(SecurityHeaders("photos.example.com"))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "default-src 'none'; frame-ancestors https://photos.example.com", rec.Header().Get("Content-Security-Policy"))
	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.NotEmpty(t, rec.Header().Get("Strict-Transport-Security"))
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	e := newServer(RequestLogger(zap.New(core)))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))

	entries := logs.All()
	if assert.Len(t, entries, 2) {
		assert.Equal(t, "request", entries[0].Message)
		assert.Equal(t, int64(http.StatusOK), entries[0].ContextMap()["status"])
		assert.Equal(t, "request failed", entries[1].Message)
	}
}

func TestAgentToken(t *testing.T) {
	e := echo.New()
	e.Use(AgentToken("s3cret"))
	ok := func(c echo.Context) error { return c.String(http.StatusOK, "ok") }
	e.GET("/health", ok)
	e.GET("/storage/folder-contents", ok)
	e.POST("/uploads", ok)
	e.GET("/uploads/:runId", ok)
	e.POST("/quick-upload", ok)
	e.GET("/storage-report", ok)

	tests := []struct {
		name   string
		method string
		target string
		token  string
		want   int
	}{
		{"open route", http.MethodGet, "/health", "", http.StatusOK},
		{"similar prefix is open", http.MethodGet, "/storage-report", "", http.StatusOK},
		{"storage without token", http.MethodGet, "/storage/folder-contents?path=/etc", "", http.StatusUnauthorized},
		{"storage with wrong token", http.MethodGet, "/storage/folder-contents?path=/etc", "nope", http.StatusUnauthorized},
		{"storage with token", http.MethodGet, "/storage/folder-contents?path=/etc", "s3cret", http.StatusOK},
		{"start upload without token", http.MethodPost, "/uploads", "", http.StatusUnauthorized},
		{"run status without token", http.MethodGet, "/uploads/run-1", "", http.StatusUnauthorized},
		{"quick upload without token", http.MethodPost, "/quick-upload", "", http.StatusUnauthorized},
		{"quick upload with token", http.MethodPost, "/quick-upload", "s3cret", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.target, nil)
			req.RemoteAddr = "192.168.1.50:51234"
			if tt.token != "" {
				req.Header.Set(HeaderAgentToken, tt.token)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestAgentToken_DisabledWhenEmpty(t *testing.T) {
	e := echo.New()
	e.Use(AgentToken(""))
	e.GET("/storage/images", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/storage/images", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
