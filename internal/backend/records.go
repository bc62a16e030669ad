package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"eventlens-client/internal/normalize"
	"eventlens-client/pkg/models"
)

// ListCollections lists the signed-in photographer's collections
func (c *Client) ListCollections(ctx context.Context) ([]normalize.Record, error) {
	return c.listRecords(ctx, "listCollections", "/collections", keyCollections)
}

// ListEvents lists the events of a collection
func (c *Client) ListEvents(ctx context.Context, collectionID string) ([]normalize.Record, error) {
	endpoint := fmt.Sprintf("/collections/%s/events", url.PathEscape(collectionID))
	return c.listRecords(ctx, "listEvents", endpoint, keyEvents)
}

// ListPhotos lists the photos of an event
func (c *Client) ListPhotos(ctx context.Context, collectionID, eventID string) ([]normalize.Record, error) {
	endpoint := fmt.Sprintf("/collections/%s/events/%s/photos", url.PathEscape(collectionID), url.PathEscape(eventID))
	return c.listRecords(ctx, "listPhotos", endpoint, keyPhotos)
}

// ListFaces lists the face clusters detected in an event
func (c *Client) ListFaces(ctx context.Context, collectionID, eventID string) ([]normalize.Record, error) {
	endpoint := fmt.Sprintf("/collections/%s/events/%s/faces", url.PathEscape(collectionID), url.PathEscape(eventID))
	return c.listRecords(ctx, "listFaces", endpoint, keyFaces)
}

// ListLeads lists guests who left contact details on a collection
func (c *Client) ListLeads(ctx context.Context, collectionID string) ([]normalize.Record, error) {
	endpoint := fmt.Sprintf("/collections/%s/leads", url.PathEscape(collectionID))
	return c.listRecords(ctx, "listLeads", endpoint, keyLeads)
}

func (c *Client) listRecords(ctx context.Context, op, endpoint, primaryKey string) ([]normalize.Record, error) {
	data, err := c.do(ctx, request{
		op:       op,
		method:   http.MethodGet,
		endpoint: endpoint,
		mode:     ModeAuthenticated,
	})
	if err != nil {
		return nil, err
	}
	return normalize.ExtractRecords(data, primaryKey), nil
}

// GetProfile resolves the account behind token. It is used while signing in,
// before a session exists, so the token is passed explicitly.
func (c *Client) GetProfile(ctx context.Context, token string) (*models.Profile, error) {
	data, err := c.do(ctx, request{
		op:       "getProfile",
		method:   http.MethodGet,
		endpoint: "/me",
		mode:     ModeAuthenticated,
		token:    token,
	})
	if err != nil {
		return nil, err
	}

	obj, ok := data.(map[string]any)
	if !ok {
		return nil, &Error{Op: "getProfile", Err: ErrUnexpectedResponse}
	}
	for _, key := range []string{"user", "profile"} {
		if nested, ok := obj[key].(map[string]any); ok {
			obj = nested
			break
		}
	}

	rec := normalize.NormalizeItem(obj)
	profile := &models.Profile{
		UserID:   rec.FirstString("user_id", "userid", "id", "sub"),
		Name:     rec.String(normalize.KeyName),
		Email:    rec.String("email"),
		Role:     rec.FirstString("role", "user_role"),
		TenantID: rec.FirstString("tenant_id", "tenantid"),
	}
	if profile.UserID == "" {
		return nil, &Error{Op: "getProfile", Err: fmt.Errorf("%w: profile has no user id", ErrUnexpectedResponse)}
	}

	return profile, nil
}
