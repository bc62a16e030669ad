package session

import (
	"context"

	"eventlens-client/pkg/models"
)

// ProfileFetcher resolves the account behind a bearer token
type ProfileFetcher interface {
	GetProfile(ctx context.Context, token string) (*models.Profile, error)
}
