package backend

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

	"github.com/sony/gobreaker/v2"

	"github.com/angelmondragon/agrostore-bff/pkg/config"
	pkgerrors "github.com/angelmondragon/agrostore-bff/pkg/errors"
	"github.com/angelmondragon/agrostore-bff/pkg/metrics"
)

const (
	defaultTimeout              = 10 * time.Second
	defaultBreakerFailures      = 5
	defaultBreakerOpenInterval  = 30 * time.Second
	responseBodyLimit     int64 = 1 << 20
	errorBodyLimit              = 1024
	apiKeyHeader                = "X-Api-Key"
)

var errBaseURLRequired = errors.New("backend base url is required")

// Client talks to the storefront backend that owns catalog, pricing,
// shipping quotes, saved addresses and orders.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	breaker    *gobreaker.CircuitBreaker[*rawResponse]
	metrics    *metrics.BackendMetrics

	breakerFailures uint32
	breakerOpen     time.Duration
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithAPIKey sends the key on every request.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		c.apiKey = strings.TrimSpace(key)
	}
}

// WithBreaker tunes when the circuit trips and how long it stays open.
func WithBreaker(maxConsecutiveFailures uint32, openInterval time.Duration) Option {
	return func(c *Client) {
		if maxConsecutiveFailures > 0 {
			c.breakerFailures = maxConsecutiveFailures
		}
		if openInterval > 0 {
			c.breakerOpen = openInterval
		}
	}
}

// WithMetrics records per-operation latency.
func WithMetrics(m *metrics.BackendMetrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// NewClient builds a backend client rooted at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, errBaseURLRequired
	}
	if _, err := url.ParseRequestURI(trimmed); err != nil {
		return nil, fmt.Errorf("invalid backend base url: %w", err)
	}

	client := &Client{
		baseURL:         trimmed,
		httpClient:      &http.Client{Timeout: defaultTimeout},
		breakerFailures: defaultBreakerFailures,
		breakerOpen:     defaultBreakerOpenInterval,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	failures := client.breakerFailures
	client.breaker = gobreaker.NewCircuitBreaker[*rawResponse](gobreaker.Settings{
		Name:    "storefront-backend",
		Timeout: client.breakerOpen,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		// Cancelled callers are not backend failures.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})
	return client, nil
}

// NewFromConfig wires the client from the Backend config section.
func NewFromConfig(cfg config.BackendConfig, m *metrics.BackendMetrics) (*Client, error) {
	return NewClient(cfg.BaseURL,
		WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
		WithAPIKey(cfg.APIKey),
		WithBreaker(cfg.BreakerMaxFailures, cfg.BreakerOpenInterval),
		WithMetrics(m),
	)
}

type rawResponse struct {
	status int
	body   []byte
}

// errServer marks 5xx answers so the breaker counts them as failures.
type errServer struct {
	status int
	body   string
}

func (e *errServer) Error() string {
	return fmt.Sprintf("status %d: %s", e.status, e.body)
}

func (c *Client) do(ctx context.Context, operation, method, path string, query url.Values, in, out any) error {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "backend client not configured")
	}

	var payload []byte
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal "+operation+" request")
		}
		payload = b
	}

	start := time.Now()
	resp, err := c.breaker.Execute(func() (*rawResponse, error) {
		return c.roundTrip(ctx, method, c.buildURL(path, query), payload)
	})

	status := 0
	var srvErr *errServer
	switch {
	case resp != nil:
		status = resp.status
	case errors.As(err, &srvErr):
		status = srvErr.status
	}
	c.metrics.Observe(operation, status, time.Since(start))

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "backend temporarily unavailable")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, operation+" request failed")
	}

	if resp.status >= http.StatusBadRequest {
		return mapClientError(operation, resp)
	}

	if out == nil || len(resp.body) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.body, out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode "+operation+" response")
	}
	return nil
}

func (c *Client) roundTrip(ctx context.Context, method, target string, payload []byte) (*rawResponse, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set(apiKeyHeader, c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	b, err := io.ReadAll(io.LimitReader(resp.Body, responseBodyLimit))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, &errServer{status: resp.StatusCode, body: truncate(b)}
	}
	return &rawResponse{status: resp.StatusCode, body: b}, nil
}

func mapClientError(operation string, resp *rawResponse) error {
	cause := fmt.Errorf("status %d: %s", resp.status, truncate(resp.body))
	switch resp.status {
	case http.StatusNotFound:
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, cause, operation+": not found")
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return pkgerrors.Wrap(pkgerrors.CodeValidation, cause, operation+": rejected by backend").
			WithDetails(map[string]any{"backend_message": truncate(resp.body)})
	case http.StatusUnauthorized, http.StatusForbidden:
		return pkgerrors.Wrap(pkgerrors.CodeDependency, cause, operation+": backend rejected credentials")
	case http.StatusConflict:
		return pkgerrors.Wrap(pkgerrors.CodeConflict, cause, operation+": conflict")
	default:
		return pkgerrors.Wrap(pkgerrors.CodeDependency, cause, operation+" request failed")
	}
}

func truncate(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > errorBodyLimit {
		return s[:errorBodyLimit]
	}
	return s
}

func (c *Client) buildURL(path string, query url.Values) string {
	target := fmt.Sprintf("%s/%s", c.baseURL, strings.TrimLeft(path, "/"))
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	return target
}
