package upload

import (
	"context"
	"io"

	"eventlens-client/pkg/models"
)

// DestinationRequester issues one transfer destination per file descriptor,
// positionally aligned with the input
type DestinationRequester interface {
	RequestDestinations(ctx context.Context, dest models.DestinationContext, files []models.FileDescriptor) ([]models.TransferDestination, error)
}

// Transferer is the binary transfer primitive
type Transferer interface {
	Put(ctx context.Context, url string, body io.Reader, size int64, contentType string) error
}

// FileResolver turns local paths into uploadable files
type FileResolver interface {
	Resolve(paths []string, recursive bool) ([]models.File, error)
}

// SessionProvider reports the active session, if any
type SessionProvider interface {
	Current() (*models.Session, error)
}
