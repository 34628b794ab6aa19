// Package dashclient is a typed Go client for the dashboard API, plus the
// client-side state helpers the dashboard pages are built on: optimistic
// toggles, the holdings privacy view, a polling loop and a hover-card cache.
package dashclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// ErrAuthRequired is matched by errors.Is for any 401 answer. Callers send
// the user to APIError.Redirect instead of surfacing it as a failure.
var ErrAuthRequired = errors.New("dashclient: authentication required")

const maxErrorBody = 64 * 1024

// APIError is a non-2xx answer from the dashboard API.
type APIError struct {
	StatusCode int
	Code       string `json:"code"`
	Message    string `json:"error"`
	Details    string `json:"details"`
	Redirect   string `json:"redirect"`
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if e.Code != "" {
		return fmt.Sprintf("dashboard api %d %s: %s", e.StatusCode, e.Code, msg)
	}
	return fmt.Sprintf("dashboard api %d: %s", e.StatusCode, msg)
}

func (e *APIError) Is(target error) bool {
	return target == ErrAuthRequired && e.StatusCode == http.StatusUnauthorized
}

// IsNotFound reports whether err is a 404 answer.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// Client calls the dashboard API. It is safe for concurrent use.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

type Option func(*Client)

// WithToken sends the bearer token on every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New builds a client rooted at baseURL, e.g. "https://dash.example.com/api".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout:   15 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) get(ctx context.Context, path string, query url.Values, dest any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, dest)
}

func (c *Client) send(ctx context.Context, method, path string, body, dest any) error {
	return c.do(ctx, method, path, nil, body, dest)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, dest any) error {
	var reader io.Reader
	contentType := ""
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(payload)
		contentType = "application/json"
	}
	return c.doRaw(ctx, method, path, query, reader, contentType, dest)
}

func (c *Client) doRaw(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string, dest any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp)
	}
	if dest == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if len(bytes.TrimSpace(raw)) > 0 {
		_ = json.Unmarshal(raw, apiErr)
	}
	apiErr.StatusCode = resp.StatusCode
	return apiErr
}

func boolBody(key string, v bool) map[string]bool {
	return map[string]bool{key: v}
}
