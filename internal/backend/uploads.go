package backend

import (
	"context"
	"net/http"

	"eventlens-client/internal/normalize"
	"eventlens-client/pkg/models"
)

// RequestDestinations asks the backend for one transfer destination per file.
// The response list is matched to files by position; an entry with a null URL
// means the backend skipped that file, and a missing entry is flagged Missing.
func (c *Client) RequestDestinations(ctx context.Context, dest models.DestinationContext, files []models.FileDescriptor) ([]models.TransferDestination, error) {
	payload := destinationRequest{
		CollectionID: dest.CollectionID,
		EventID:      dest.EventID,
		Files:        files,
		IsPublic:     dest.Public,
	}

	r := request{
		op:       "requestDestinations",
		method:   http.MethodPost,
		endpoint: "/uploads/urls",
		payload:  &payload,
		mode:     ModeAuthenticated,
	}
	if dest.Public {
		payload.LinkID = dest.LinkID
		payload.PIN = dest.PIN
		r.endpoint = "/public/uploads/urls"
		r.mode = ModePublic
	}

	data, err := c.do(ctx, r)
	if err != nil {
		return nil, err
	}

	entries := normalize.ExtractList(data, keyURLs)
	destinations := make([]models.TransferDestination, len(files))
	for i, file := range files {
		d := models.TransferDestination{
			FileIndex:   i,
			ContentType: models.File{Type: file.Type}.ContentType(),
		}
		if i < len(entries) {
			d.URL = destinationURL(entries[i])
		} else {
			d.Missing = true
		}
		destinations[i] = d
	}

	return destinations, nil
}

func destinationURL(entry any) string {
	switch v := entry.(type) {
	case string:
		return v
	case map[string]any:
		rec := normalize.NormalizeItem(v)
		if s, ok := rec["uploadurl"].(string); ok {
			return s
		}
		if s, ok := rec["url"].(string); ok {
			return s
		}
	}
	return ""
}
