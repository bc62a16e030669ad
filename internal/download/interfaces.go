package download

import (
	"context"

	"eventlens-client/internal/normalize"
)

// Gallery lists the records the backend holds for an event
type Gallery interface {
	ListCollections(ctx context.Context) ([]normalize.Record, error)
	ListEvents(ctx context.Context, collectionID string) ([]normalize.Record, error)
	ListPhotos(ctx context.Context, collectionID, eventID string) ([]normalize.Record, error)
	ListFaces(ctx context.Context, collectionID, eventID string) ([]normalize.Record, error)
	ListLeads(ctx context.Context, collectionID string) ([]normalize.Record, error)
}
