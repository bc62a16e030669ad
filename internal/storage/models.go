package storage

import "time"

// Item is a file or folder on the local disk
type Item struct {
	Name       string    `json:"name"`
	Path       string    `json:"path"`
	MimeType   string    `json:"mime_type,omitempty"`
	Size       int64     `json:"size"`
	IsFolder   bool      `json:"is_folder"`
	ModifiedAt time.Time `json:"modified_at"`
}

// GetFolderContentsResponse represents the response for getting folder contents
type GetFolderContentsResponse struct {
	Folder   *Item   `json:"folder"`
	Contents []*Item `json:"contents"`
}

// ListImagesResponse represents the photos found under a folder
type ListImagesResponse struct {
	Folder    string  `json:"folder"`
	Images    []*Item `json:"images"`
	TotalSize int64   `json:"total_size"`
}
