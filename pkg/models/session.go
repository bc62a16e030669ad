package models

import (
	"errors"
	"strings"
	"time"
)

// Profile is the signed-in user's account as reported by the backend
type Profile struct {
	UserID   string `json:"user_id"`
	Name     string `json:"name"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role,omitempty"` // "photographer", "client", "admin"
	TenantID string `json:"tenant_id,omitempty"`
}

// Session is created on successful authentication and destroyed on logout.
// It is constructed once and passed by reference to every component that
// issues authenticated requests.
type Session struct {
	Token     string    `json:"token"`
	Profile   Profile   `json:"profile"`
	CreatedAt time.Time `json:"created_at"`
}

var ErrNoCredential = errors.New("session has no credential")

// BearerToken returns the credential attached to authenticated requests
func (s *Session) BearerToken() (string, error) {
	if s == nil || strings.TrimSpace(s.Token) == "" {
		return "", ErrNoCredential
	}
	return s.Token, nil
}

// CredentialSource supplies the bearer credential for authenticated requests
type CredentialSource interface {
	BearerToken() (string, error)
}
