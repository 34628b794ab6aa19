// Package upstream is the HTTP client for the backend that owns KOL, tweet,
// stock and brokerage data.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"kolboard/internal/observability"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"
)

// maxResponseSize caps how much of an upstream body is read.
const maxResponseSize = 10 * 1024 * 1024

// Config configures a Client.
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	RPS       float64
	Burst     int
	Transport http.RoundTripper
}

// Client calls the upstream backend. It is safe for concurrent use.
type Client struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
	limiter    *rate.Limiter
}

// StatusError is returned for a non-2xx upstream response.
type StatusError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("upstream %s returned %d: %s", e.Endpoint, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("upstream %s returned %d", e.Endpoint, e.StatusCode)
}

// IsNotFound reports whether err is an upstream 404.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusNotFound
}

// New builds a Client. A zero RPS disables client-side rate limiting.
func New(cfg Config) *Client {
	base := cfg.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	limit := rate.Inf
	if cfg.RPS > 0 {
		limit = rate.Limit(cfg.RPS)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		timeout: timeout,
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(base,
				otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
					return "upstream " + r.Method + " " + r.URL.Path
				}),
			),
		},
		limiter: rate.NewLimiter(limit, burst),
	}
}

type authKey struct{}

// WithAuthorization returns a context whose upstream calls carry the given
// Authorization header value.
func WithAuthorization(ctx context.Context, header string) context.Context {
	if header == "" {
		return ctx
	}
	return context.WithValue(ctx, authKey{}, header)
}

func authorizationFrom(ctx context.Context) string {
	v, _ := ctx.Value(authKey{}).(string)
	return v
}

func (c *Client) getJSON(ctx context.Context, endpoint, path string, query url.Values, dest any) error {
	return c.do(ctx, http.MethodGet, endpoint, path, query, nil, dest)
}

func (c *Client) postJSON(ctx context.Context, endpoint, path string, body, dest any) error {
	return c.do(ctx, http.MethodPost, endpoint, path, nil, body, dest)
}

func (c *Client) do(ctx context.Context, method, endpoint, path string, query url.Values, body, dest any) (err error) {
	if c.baseURL == "" {
		return errors.New("upstream base URL is not configured")
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("upstream %s: %w", endpoint, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", endpoint, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("build %s request: %w", endpoint, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth := authorizationFrom(ctx); auth != "" {
		req.Header.Set("Authorization", auth)
	}

	start := time.Now()
	status := "error"
	defer func() {
		observability.UpstreamRequestDuration.WithLabelValues(endpoint, status).Observe(time.Since(start).Seconds())
	}()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("upstream %s: %w", endpoint, err)
	}
	defer resp.Body.Close()
	status = strconv.Itoa(resp.StatusCode)

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("read %s response: %w", endpoint, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{Endpoint: endpoint, StatusCode: resp.StatusCode, Body: truncate(string(raw), 512)}
	}
	if dest == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("decode %s response: %w", endpoint, err)
	}
	return nil
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
