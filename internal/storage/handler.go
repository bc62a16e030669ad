package storage

import (
	"errors"
	"io/fs"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

// Handler handles HTTP requests for local photo browsing
type Handler struct {
	service *Service
}

// NewHandler creates a new storage handler
func NewHandler(service *Service) *Handler {
	return &Handler{
		service: service,
	}
}

// RegisterRoutes registers storage routes with the Echo router
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/storage/folder-contents", h.GetFolderContents)
	e.GET("/storage/images", h.ListImages)
}

// GetFolderContents handles GET /storage/folder-contents
// It lists the files and folders directly inside a local folder
func (h *Handler) GetFolderContents(c echo.Context) error {
	path := c.QueryParam("path")

	if path == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "path query parameter is required",
		})
	}

	folder, err := h.service.Stat(path)
	if err != nil {
		return handlePathError(c, err)
	}

	contents, err := h.service.ListFolderContents(folder)
	if err != nil {
		return handlePathError(c, err)
	}

	return c.JSON(http.StatusOK, GetFolderContentsResponse{
		Folder:   folder,
		Contents: contents,
	})
}

// ListImages handles GET /storage/images
func (h *Handler) ListImages(c echo.Context) error {
	path := c.QueryParam("path")

	if path == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "path query parameter is required",
		})
	}

	recursive, _ := strconv.ParseBool(c.QueryParam("recursive"))

	images, err := h.service.ListImages(path, recursive)
	if err != nil {
		return handlePathError(c, err)
	}

	var total int64
	for _, image := range images {
		total += image.Size
	}

	return c.JSON(http.StatusOK, ListImagesResponse{
		Folder:    path,
		Images:    images,
		TotalSize: total,
	})
}

func handlePathError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return c.JSON(http.StatusNotFound, map[string]string{
			"error": "Folder not found",
		})
	case errors.Is(err, fs.ErrPermission):
		return c.JSON(http.StatusForbidden, map[string]string{
			"error": "Folder is not readable",
		})
	case errors.Is(err, ErrNotFolder):
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": err.Error(),
		})
	default:
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "Failed to read folder",
		})
	}
}
