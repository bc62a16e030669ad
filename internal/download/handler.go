package download

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"eventlens-client/internal/backend"
	"eventlens-client/internal/normalize"
)

// Handler handles HTTP requests for gallery browsing and downloads
type Handler struct {
	service *Service
}

// NewHandler creates a new download handler
func NewHandler(service *Service) *Handler {
	return &Handler{
		service: service,
	}
}

// RegisterRoutes registers gallery and download routes with the Echo router
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/collections", h.ListCollections)
	e.GET("/collections/:collectionId/events", h.ListEvents)
	e.GET("/collections/:collectionId/events/:eventId/photos", h.ListPhotos)
	e.GET("/collections/:collectionId/events/:eventId/faces", h.ListFaces)
	e.GET("/collections/:collectionId/leads", h.ListLeads)
	e.POST("/downloads/zip", h.DownloadZip)
}

func (h *Handler) ListCollections(c echo.Context) error {
	records, err := h.service.gallery.ListCollections(c.Request().Context())
	return respondList(c, records, err)
}

func (h *Handler) ListEvents(c echo.Context) error {
	records, err := h.service.gallery.ListEvents(c.Request().Context(), c.Param("collectionId"))
	return respondList(c, records, err)
}

func (h *Handler) ListPhotos(c echo.Context) error {
	records, err := h.service.gallery.ListPhotos(c.Request().Context(), c.Param("collectionId"), c.Param("eventId"))
	return respondList(c, records, err)
}

func (h *Handler) ListFaces(c echo.Context) error {
	records, err := h.service.gallery.ListFaces(c.Request().Context(), c.Param("collectionId"), c.Param("eventId"))
	return respondList(c, records, err)
}

func (h *Handler) ListLeads(c echo.Context) error {
	records, err := h.service.gallery.ListLeads(c.Request().Context(), c.Param("collectionId"))
	return respondList(c, records, err)
}

// DownloadZip handles POST /downloads/zip
// It streams an event's photos as a ZIP archive directly to the response
func (h *Handler) DownloadZip(c echo.Context) error {
	var req ZipRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Invalid request body",
		})
	}

	if strings.TrimSpace(req.CollectionID) == "" || strings.TrimSpace(req.EventID) == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "collection_id and event_id are required",
		})
	}

	ctx := c.Request().Context()
	photos, err := h.service.SelectPhotos(ctx, req.CollectionID, req.EventID, req.PhotoIDs)
	if err != nil {
		return handleBackendError(c, err)
	}

	if len(photos) == 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "No files provided for download",
		})
	}

	timestamp := time.Now().Format("20060102-150405")
	filename := fmt.Sprintf("photos-%s.zip", timestamp)

	c.Response().Header().Set(echo.HeaderContentType, "application/zip")
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%s", filename))
	c.Response().WriteHeader(http.StatusOK)

	if _, err := h.service.StreamZipArchive(ctx, c.Response().Writer, photos); err != nil {
		// Headers are already sent; the connection is closed mid-stream
		c.Logger().Errorf("Failed to stream ZIP archive: %v", err)
	}

	return nil
}

func respondList(c echo.Context, records []normalize.Record, err error) error {
	if err != nil {
		return handleBackendError(c, err)
	}
	return c.JSON(http.StatusOK, ListResponse{
		Items: records,
		Count: len(records),
	})
}

func handleBackendError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, backend.ErrNotAuthenticated), errors.Is(err, backend.ErrUnauthorized):
		return c.JSON(http.StatusUnauthorized, map[string]string{
			"error": "Sign in to view this collection",
		})
	case errors.Is(err, backend.ErrNotFound):
		return c.JSON(http.StatusNotFound, map[string]string{
			"error": "Collection or event not found",
		})
	case errors.Is(err, backend.ErrUnavailable), errors.Is(err, backend.ErrTimeout):
		return c.JSON(http.StatusBadGateway, map[string]string{
			"error": "The photo service is temporarily unavailable. Please try again later.",
		})
	default:
		c.Logger().Errorf("gallery request failed: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "An unexpected error occurred. Please try again.",
		})
	}
}
