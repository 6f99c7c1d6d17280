// Package pantry is a small client for the getpantry.cloud JSON basket API.
//
// Every basket holds one JSON object. Reads of a missing basket yield an
// empty object instead of an error, and response bodies are parsed as JSON
// whatever Content-Type the server declares.
package pantry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultBaseURL is the public Pantry API root.
const DefaultBaseURL = "https://getpantry.cloud/apiv1"

// maxBodyBytes caps how much of a response body is read. Pantry baskets are
// limited to well under this size.
const maxBodyBytes = 4 << 20

// ClientConfig holds configuration for creating a Client.
type ClientConfig struct {
	// BaseURL is the API root, e.g. "https://getpantry.cloud/apiv1".
	// Empty means DefaultBaseURL.
	BaseURL string
	// HTTPClient is used for all requests. If nil, a client with Timeout is built.
	HTTPClient *http.Client
	// Timeout bounds each request when HTTPClient is nil.
	Timeout time.Duration
	// Logger receives one debug line per call. If nil, logging is disabled.
	Logger *zap.Logger
}

// Client talks to one Pantry API root. It is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient validates the configuration and returns a ready client.
func NewClient(config ClientConfig) (*Client, error) {
	base := strings.TrimSpace(config.BaseURL)
	if base == "" {
		base = DefaultBaseURL
	}
	parsed, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("pantry: invalid base url %q: %w", base, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("pantry: base url %q must be http or https", base)
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		timeout := config.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		baseURL:    strings.TrimRight(base, "/"),
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// BaseURL returns the API root without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Get reads the basket into out. A missing basket, or a body that is not a
// JSON object, leaves out untouched and returns nil.
func (c *Client) Get(ctx context.Context, ref Ref, out any) error {
	body, status, err := c.do(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return err
	}
	if status == http.StatusNotFound {
		return nil
	}
	if status < 200 || status >= 300 {
		return &StatusError{Method: http.MethodGet, StatusCode: status}
	}
	c.decodeObject(ref, body, out)
	return nil
}

// Put replaces the whole basket with v. A nil v is sent as {}.
func (c *Client) Put(ctx context.Context, ref Ref, v any) error {
	return c.write(ctx, http.MethodPut, ref, v)
}

// Post creates the basket, or appends to it when it already exists.
// A nil v is sent as {}.
func (c *Client) Post(ctx context.Context, ref Ref, v any) error {
	return c.write(ctx, http.MethodPost, ref, v)
}

// Ping checks that the API root answers at all. Any HTTP response counts.
func (c *Client) Ping(ctx context.Context) error {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return fmt.Errorf("pantry: build ping request: %w", err)
	}
	response, err := c.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("pantry: ping %s: %w", c.baseURL, err)
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(response.Body, maxBodyBytes))
	response.Body.Close()
	return nil
}

func (c *Client) write(ctx context.Context, method string, ref Ref, v any) error {
	if v == nil {
		v = map[string]any{}
	}
	_, status, err := c.do(ctx, method, ref, v)
	if err != nil {
		return err
	}
	if status < 200 || status >= 300 {
		return &StatusError{Method: method, StatusCode: status}
	}
	return nil
}

func (c *Client) basketURL(ref Ref) string {
	return c.baseURL + "/pantry/" + url.PathEscape(ref.PantryID) + "/basket/" + url.PathEscape(ref.Basket)
}

func (c *Client) do(ctx context.Context, method string, ref Ref, payload any) ([]byte, int, error) {
	if !ref.Valid() {
		return nil, 0, fmt.Errorf("pantry: %s requires pantry id and basket", method)
	}

	var bodyReader io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, 0, fmt.Errorf("pantry: encode %s body: %w", method, err)
		}
		bodyReader = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, c.basketURL(ref), bodyReader)
	if err != nil {
		return nil, 0, fmt.Errorf("pantry: create request: %w", err)
	}
	if payload != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	request.Header.Set("Accept", "application/json")

	started := time.Now()
	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, 0, fmt.Errorf("pantry: %s %s: %w", method, ref.Basket, err)
	}
	defer response.Body.Close()

	body, err := io.ReadAll(io.LimitReader(response.Body, maxBodyBytes))
	if err != nil {
		return nil, 0, fmt.Errorf("pantry: read %s response: %w", method, err)
	}

	c.logger.Debug("pantry call",
		zap.String("method", method),
		zap.String("pantry_id", ref.PantryID),
		zap.String("basket", ref.Basket),
		zap.Int("status", response.StatusCode),
		zap.Duration("duration", time.Since(started)),
	)
	return body, response.StatusCode, nil
}

// decodeObject fills out from body only when body holds a JSON object.
// Pantry sometimes labels JSON as text/html, so the declared type is ignored.
func (c *Client) decodeObject(ref Ref, body []byte, out any) {
	if out == nil {
		return
	}
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return
	}
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &probe); err != nil {
		c.logger.Debug("pantry body is not a JSON object", zap.String("basket", ref.Basket), zap.Error(err))
		return
	}
	if err := json.Unmarshal(trimmed, out); err != nil {
		c.logger.Debug("pantry body did not match target shape", zap.String("basket", ref.Basket), zap.Error(err))
	}
}
