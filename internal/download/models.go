package download

import "eventlens-client/internal/normalize"

// ZipRequest represents the request body for ZIP download
type ZipRequest struct {
	CollectionID string   `json:"collection_id"`
	EventID      string   `json:"event_id"`
	PhotoIDs     []string `json:"photo_ids,omitempty"` // empty means every photo of the event
}

// ListResponse wraps a normalized record list
type ListResponse struct {
	Items []normalize.Record `json:"items"`
	Count int                `json:"count"`
}
