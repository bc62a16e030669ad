package session

import (
	"errors"
	"time"

	"eventlens-client/pkg/models"
)

var (
	ErrNoSession    = errors.New("no active session")
	ErrInvalidToken = errors.New("token is required")
)

// LoginRequest carries a bearer token issued by the backend's sign-in flow
type LoginRequest struct {
	Token string `json:"token"`
}

// Response describes the active session without exposing its credential
type Response struct {
	Authenticated bool            `json:"authenticated"`
	Profile       *models.Profile `json:"profile,omitempty"`
	CreatedAt     *time.Time      `json:"created_at,omitempty"`
}

func newResponse(s *models.Session) Response {
	if s == nil {
		return Response{Authenticated: false}
	}
	profile := s.Profile
	createdAt := s.CreatedAt
	return Response{
		Authenticated: true,
		Profile:       &profile,
		CreatedAt:     &createdAt,
	}
}
