package upload

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"eventlens-client/internal/backend"
	"eventlens-client/internal/transfer"
)

var (
	ErrNoFiles            = errors.New("no files selected for upload")
	ErrInvalidDestination = errors.New("collection and event must be selected")
	ErrMissingDestination = errors.New("backend returned no destination for file")
	ErrNoContent          = errors.New("file has no content source")
	ErrInvalidPaths       = errors.New("unable to read the selected photos")
	ErrInvalidBatchSize   = fmt.Errorf("batch size must be between 1 and %d", MaxBatchSize)
	ErrRunNotFound        = errors.New("upload run not found")
	ErrRunActive          = errors.New("upload run is still in progress")
	ErrRunNotActive       = errors.New("upload run has already finished")
	ErrNothingToRetry     = errors.New("no failed files to retry")
)

type ErrorResponse struct {
	StatusCode int
	Message    string
}

// StatusMessage returns the human-readable outcome shown to the user.
// It names a failure category only; per-file detail lives in the result.
func StatusMessage(err error) string {
	switch {
	case err == nil:
		return "Upload complete."
	case errors.Is(err, ErrNoFiles):
		return "Select at least one photo to upload."
	case errors.Is(err, ErrInvalidDestination):
		return "Select a collection and event before uploading."
	case errors.Is(err, context.Canceled):
		return "Upload cancelled."
	case errors.Is(err, backend.ErrNotAuthenticated), errors.Is(err, backend.ErrUnauthorized):
		return "Your session has expired. Sign in again to continue uploading."
	case errors.Is(err, backend.ErrTimeout),
		errors.Is(err, backend.ErrUnavailable),
		errors.Is(err, transfer.ErrTransport):
		return "Upload interrupted. Check your connection and try again."
	default:
		return "Upload interrupted. Some photos may already be uploaded; retry to send the rest."
	}
}

// GetErrorResponse returns appropriate HTTP response for an error
func GetErrorResponse(err error) ErrorResponse {
	switch {
	case errors.Is(err, ErrNoFiles), errors.Is(err, ErrInvalidDestination):
		return ErrorResponse{http.StatusBadRequest, StatusMessage(err)}
	case errors.Is(err, ErrInvalidPaths), errors.Is(err, ErrInvalidBatchSize):
		return ErrorResponse{http.StatusBadRequest, err.Error()}
	case errors.Is(err, ErrRunNotFound):
		return ErrorResponse{http.StatusNotFound, err.Error()}
	case errors.Is(err, ErrRunActive), errors.Is(err, ErrRunNotActive), errors.Is(err, ErrNothingToRetry):
		return ErrorResponse{http.StatusConflict, err.Error()}
	case errors.Is(err, backend.ErrNotAuthenticated), errors.Is(err, backend.ErrUnauthorized):
		return ErrorResponse{http.StatusUnauthorized, StatusMessage(err)}
	case errors.Is(err, backend.ErrNotFound):
		return ErrorResponse{http.StatusNotFound, err.Error()}
	case errors.Is(err, backend.ErrUnavailable), errors.Is(err, backend.ErrTimeout):
		return ErrorResponse{http.StatusBadGateway, "The photo service is temporarily unavailable. Please try again later."}
	default:
		return ErrorResponse{http.StatusInternalServerError, "An unexpected error occurred. Please try again."}
	}
}
