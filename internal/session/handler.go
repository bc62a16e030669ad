package session

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"eventlens-client/internal/backend"
)

// Handler handles session HTTP requests
type Handler struct {
	sessionService *Service
}

// NewHandler creates a new Handler instance
func NewHandler(sessionService *Service) *Handler {
	return &Handler{
		sessionService: sessionService,
	}
}

// RegisterRoutes registers session routes with the Echo instance
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.POST("/session", h.handleLogin)
	e.GET("/session", h.handleGetSession)
	e.DELETE("/session", h.handleLogout)
	e.GET("/health", h.handleHealth)
}

// handleLogin signs in with a token issued by the backend
func (h *Handler) handleLogin(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Invalid request format",
		})
	}

	session, err := h.sessionService.Login(c.Request().Context(), req.Token)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidToken):
			return c.JSON(http.StatusBadRequest, map[string]string{
				"error": err.Error(),
			})
		case errors.Is(err, backend.ErrUnauthorized):
			return c.JSON(http.StatusUnauthorized, map[string]string{
				"error": "The token was rejected. Sign in again.",
			})
		case errors.Is(err, backend.ErrUnavailable), errors.Is(err, backend.ErrTimeout):
			return c.JSON(http.StatusBadGateway, map[string]string{
				"error": "The photo service is temporarily unavailable. Please try again later.",
			})
		default:
			c.Logger().Errorf("sign in failed: %v", err)
			return c.JSON(http.StatusInternalServerError, map[string]string{
				"error": "Failed to sign in",
			})
		}
	}

	return c.JSON(http.StatusOK, newResponse(session))
}

// handleGetSession reports whether a session is active and whose it is
func (h *Handler) handleGetSession(c echo.Context) error {
	session, err := h.sessionService.Current()
	if err != nil {
		if errors.Is(err, ErrNoSession) {
			return c.JSON(http.StatusOK, newResponse(nil))
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "Failed to read session",
		})
	}

	return c.JSON(http.StatusOK, newResponse(session))
}

// handleLogout destroys the local session
func (h *Handler) handleLogout(c echo.Context) error {
	if err := h.sessionService.Logout(); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": err.Error(),
		})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Signed out",
	})
}

// handleHealth returns the health status of the local agent
func (h *Handler) handleHealth(c echo.Context) error {
	_, err := h.sessionService.Current()

	response := map[string]interface{}{
		"status":        "healthy",
		"authenticated": err == nil,
		"timestamp":     time.Now().UTC().Format(time.RFC3339),
	}

	return c.JSON(http.StatusOK, response)
}
