package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"eventlens-client/internal/normalize"
	"eventlens-client/pkg/models"
)

// Client is the request layer every backend call goes through. Successful
// responses are unwrapped by the normalizer before callers see them.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	credentials models.CredentialSource
	logger      *zap.Logger
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient = &http.Client{Timeout: timeout}
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a backend client. credentials may be nil when only
// public-mode calls are made.
func NewClient(baseURL string, credentials models.CredentialSource, opts ...Option) *Client {
	c := &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		credentials: credentials,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithCredentials returns a copy of the client bound to another credential source
func (c *Client) WithCredentials(credentials models.CredentialSource) *Client {
	clone := *c
	clone.credentials = credentials
	return &clone
}

// do executes one JSON call and returns the unwrapped payload.
// A body that is empty or not JSON yields a nil payload without error.
func (c *Client) do(ctx context.Context, r request) (any, error) {
	var body io.Reader
	if r.payload != nil {
		jsonData, err := json.Marshal(r.payload)
		if err != nil {
			return nil, &Error{Op: r.op, Err: fmt.Errorf("failed to marshal request: %w", err)}
		}
		body = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, c.baseURL+r.endpoint, body)
	if err != nil {
		return nil, &Error{Op: r.op, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	if r.payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if r.mode == ModeAuthenticated {
		token, err := c.bearerToken(r.token)
		if err != nil {
			return nil, &Error{Op: r.op, Err: ErrNotAuthenticated}
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &Error{Op: r.op, Err: handleNetworkError(err)}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Op: r.op, Status: resp.StatusCode, Err: handleNetworkError(err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &Error{Op: r.op, Status: resp.StatusCode, Err: handleBackendError(resp.StatusCode, raw)}
	}

	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}

	shape := normalize.Classify(raw)
	if shape == normalize.ShapeInvalid {
		c.logger.Debug("backend returned a non-JSON payload",
			zap.String("op", r.op),
			zap.Int("bytes", len(raw)))
		return nil, nil
	}

	return normalize.Unwrap(raw), nil
}

func (c *Client) bearerToken(override string) (string, error) {
	if strings.TrimSpace(override) != "" {
		return override, nil
	}
	if c.credentials == nil {
		return "", ErrNotAuthenticated
	}
	return c.credentials.BearerToken()
}
