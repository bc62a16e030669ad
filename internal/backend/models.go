package backend

import "eventlens-client/pkg/models"

// Mode selects how a request is authorized
type Mode int

const (
	// ModeAuthenticated attaches the session's bearer credential
	ModeAuthenticated Mode = iota
	// ModePublic attaches no credential; the payload carries the link id and PIN
	ModePublic
)

// Primary list keys per endpoint
const (
	keyURLs        = "urls"
	keyCollections = "collections"
	keyEvents      = "events"
	keyPhotos      = "photos"
	keyFaces       = "faces"
	keyLeads       = "leads"
)

type destinationRequest struct {
	CollectionID string                  `json:"collectionId"`
	EventID      string                  `json:"eventId"`
	Files        []models.FileDescriptor `json:"files"`
	IsPublic     bool                    `json:"isPublic"`
	LinkID       string                  `json:"linkId,omitempty"`
	PIN          string                  `json:"pin,omitempty"`
}

type request struct {
	op       string
	method   string
	endpoint string
	payload  any
	mode     Mode
	token    string // overrides the client's credential source when set
}
