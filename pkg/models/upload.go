package models

import (
	"io"
	"strings"
)

// DefaultContentType is sent when a file has no declared MIME type
const DefaultContentType = "image/jpeg"

// File is one local file queued for upload. Open is called once per transfer
// attempt and the returned reader is closed by the caller.
type File struct {
	Name string
	Type string
	Size int64
	Path string `json:"-"`
	Open func() (io.ReadCloser, error) `json:"-"`
}

// Descriptor returns the lightweight metadata sent when requesting destinations
func (f File) Descriptor() FileDescriptor {
	return FileDescriptor{
		Name: f.Name,
		Type: f.Type,
		Size: f.Size,
	}
}

// ContentType returns the declared MIME type or the image/jpeg default
func (f File) ContentType() string {
	if strings.TrimSpace(f.Type) == "" {
		return DefaultContentType
	}
	return f.Type
}

// FileDescriptor never carries file bytes
type FileDescriptor struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Size int64  `json:"size"`
}

// DestinationContext identifies where a run's files go and how requests are authorized
type DestinationContext struct {
	CollectionID string `json:"collection_id"`
	EventID      string `json:"event_id"`
	Public       bool   `json:"public"`
	LinkID       string `json:"link_id,omitempty"` // quick-upload link, public mode only
	PIN          string `json:"pin,omitempty"`
}

// Complete reports whether every field required for the request mode is present
func (d DestinationContext) Complete() bool {
	if strings.TrimSpace(d.CollectionID) == "" || strings.TrimSpace(d.EventID) == "" {
		return false
	}
	if d.Public && strings.TrimSpace(d.LinkID) == "" {
		return false
	}
	return true
}

// TransferDestination is the backend's answer for one file of a batch.
// An empty URL means the backend skipped the file (duplicate or rejected).
type TransferDestination struct {
	FileIndex   int    `json:"file_index"`
	URL         string `json:"upload_url,omitempty"`
	ContentType string `json:"content_type"`
	Missing     bool   `json:"-"` // no positional entry was returned for this file
}

// Skipped reports whether the backend declined to issue a URL for this file
func (d TransferDestination) Skipped() bool {
	return !d.Missing && d.URL == ""
}
