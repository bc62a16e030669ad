package upload

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// Handler handles upload HTTP requests from the local UI
type Handler struct {
	service  *Service
	sessions SessionProvider
}

// NewHandler creates a new Handler instance
func NewHandler(service *Service, sessions SessionProvider) *Handler {
	return &Handler{
		service:  service,
		sessions: sessions,
	}
}

// RegisterRoutes registers upload routes with the Echo instance
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.POST("/uploads", h.StartUpload)
	e.POST("/quick-upload", h.StartQuickUpload)
	e.GET("/uploads/:runId", h.GetRunStatus)
	e.DELETE("/uploads/:runId", h.CancelRun)
	e.POST("/uploads/:runId/retry", h.RetryRun)
}

// StartUpload handles POST /uploads
func (h *Handler) StartUpload(c echo.Context) error {
	var req StartUploadRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Invalid request format",
		})
	}

	if _, err := h.sessions.Current(); err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{
			"error": "Sign in to upload to your collections",
		})
	}

	runID, err := h.service.StartUpload(req)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(http.StatusAccepted, StartUploadResponse{
		RunID:  runID,
		Status: StateRunning,
	})
}

// StartQuickUpload handles POST /quick-upload
func (h *Handler) StartQuickUpload(c echo.Context) error {
	var req QuickUploadRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Invalid request format",
		})
	}

	if strings.TrimSpace(req.LinkID) == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "link_id is required",
		})
	}

	runID, err := h.service.StartQuickUpload(req)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(http.StatusAccepted, StartUploadResponse{
		RunID:  runID,
		Status: StateRunning,
	})
}

// GetRunStatus handles GET /uploads/:runId
func (h *Handler) GetRunStatus(c echo.Context) error {
	runID := c.Param("runId")

	if strings.TrimSpace(runID) == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "run_id is required",
		})
	}

	status, err := h.service.GetRunStatus(runID)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(http.StatusOK, status)
}

// CancelRun handles DELETE /uploads/:runId
func (h *Handler) CancelRun(c echo.Context) error {
	runID := c.Param("runId")

	if err := h.service.CancelRun(runID); err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Upload cancellation requested",
	})
}

// RetryRun handles POST /uploads/:runId/retry
func (h *Handler) RetryRun(c echo.Context) error {
	runID := c.Param("runId")

	newRunID, err := h.service.Retry(runID)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(http.StatusAccepted, StartUploadResponse{
		RunID:  newRunID,
		Status: StateRunning,
	})
}

// handleServiceError maps service errors to appropriate HTTP responses
func handleServiceError(c echo.Context, err error) error {
	resp := GetErrorResponse(err)
	if resp.StatusCode == http.StatusInternalServerError && !errors.Is(err, ErrRunNotFound) {
		c.Logger().Errorf("upload request failed: %v", err)
	}
	return c.JSON(resp.StatusCode, map[string]string{
		"error": resp.Message,
	})
}
