package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// HeaderAgentToken carries the shared secret for local filesystem and upload routes
const HeaderAgentToken = "X-Agent-Token"

// protectedPrefixes expose the local disk or start transfers from it
var protectedPrefixes = []string{"/storage", "/uploads", "/quick-upload"}

// AgentToken requires the X-Agent-Token header on the storage and upload
// routes. An empty token disables the check.
func AgentToken(token string) echo.MiddlewareFunc {
	return middleware.KeyAuthWithConfig(middleware.KeyAuthConfig{
		Skipper: func(c echo.Context) bool {
			return token == "" || c.Request().Method == http.MethodOptions || !isProtected(c.Request().URL.Path)
		},
		KeyLookup: "header:" + HeaderAgentToken,
		Validator: func(key string, c echo.Context) (bool, error) {
			return subtle.ConstantTimeCompare([]byte(key), []byte(token)) == 1, nil
		},
		ErrorHandler: func(err error, c echo.Context) error {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "missing or invalid agent token"})
		},
	})
}

func isProtected(path string) bool {
	for _, prefix := range protectedPrefixes {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}
