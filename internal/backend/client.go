// Package backend is the client for the remote registry REST API.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"regdesk/internal/platform/config"
	"regdesk/internal/platform/metrics"
	"regdesk/pkg/domain"
	"regdesk/pkg/requestcontext"
)

const (
	defaultTimeout    = 30 * time.Second
	defaultMaxRetries = 2
	defaultBackoff    = time.Second
	defaultEndpoint   = "/register/upload"
	maxResponseBytes  = 8 << 20
)

// TokenSource supplies the bearer token for each request.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a fixed bearer token.
type StaticToken string

func (t StaticToken) Token(context.Context) (string, error) { return string(t), nil }

// Client calls the registry API. Transient failures are retried with linear
// backoff.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	maxRetries int
	backoff    time.Duration
	endpoints  map[domain.Category]string
	logger     *slog.Logger
	metrics    *metrics.Metrics
	tracer     trace.Tracer
}

// Option configures a Client.
type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

// WithRetries sets how many times a transient failure is retried after the
// first attempt, and the base of the linear backoff.
func WithRetries(maxRetries int, backoff time.Duration) Option {
	return func(c *Client) {
		if maxRetries < 0 {
			maxRetries = 0
		}
		c.maxRetries = maxRetries
		c.backoff = backoff
	}
}

// WithEndpoints overrides the registration path per category.
func WithEndpoints(endpoints map[domain.Category]string) Option {
	return func(c *Client) {
		for k, v := range endpoints {
			c.endpoints[k] = v
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Client) { c.tracer = tp.Tracer("regdesk/backend") }
}

// New creates a client for baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		tokens:     StaticToken(""),
		maxRetries: defaultMaxRetries,
		backoff:    defaultBackoff,
		endpoints:  map[domain.Category]string{},
		logger:     slog.Default(),
		tracer:     otel.Tracer("regdesk/backend"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewFromConfig builds a client from the backend section of the server config.
func NewFromConfig(cfg config.BackendConfig, opts ...Option) *Client {
	base := []Option{
		WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
		WithRetries(cfg.MaxRetries, cfg.RetryBackoff),
		WithEndpoints(cfg.Endpoints),
	}
	if cfg.Token != "" {
		base = append(base, WithTokenSource(StaticToken(cfg.Token)))
	}
	return New(cfg.BaseURL, append(base, opts...)...)
}

// Endpoint returns the registration path for a category.
func (c *Client) Endpoint(category domain.Category) string {
	if ep := c.endpoints[category]; ep != "" {
		return ep
	}
	return defaultEndpoint
}

// request is replayable: the body is held in memory so retries resend it.
type request struct {
	op          string
	method      string
	path        string
	body        []byte
	contentType string
	progress    bool
}

func jsonRequest(op, method, path string, v any) (request, error) {
	req := request{op: op, method: method, path: path}
	if v == nil {
		return req, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return req, fmt.Errorf("encoding %s request: %w", op, err)
	}
	req.body = b
	req.contentType = "application/json"
	return req, nil
}

// do runs req with retries and returns the response body of the first
// successful attempt.
func (c *Client) do(ctx context.Context, req request) ([]byte, error) {
	ctx, span := c.tracer.Start(ctx, "backend."+req.op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", req.method),
			attribute.String("url.path", req.path),
		))
	defer span.End()

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			wait := c.backoff * time.Duration(attempt)
			c.metrics.IncrementBackendRetry(req.op)
			c.logger.WarnContext(ctx, "retrying registry request",
				"operation", req.op,
				"attempt", attempt+1,
				"max_attempts", c.maxRetries+1,
				"wait", wait.String(),
				"error", lastErr,
				"request_id", requestcontext.RequestID(ctx),
			)
			if err := sleep(ctx, wait); err != nil {
				lastErr = classifyTransport(req.op, err)
				break
			}
		}

		start := time.Now()
		body, err := c.doOnce(ctx, req)
		c.metrics.ObserveBackend(req.op, outcome(err), time.Since(start))
		if err == nil {
			span.SetAttributes(attribute.Int("regdesk.attempts", attempt+1))
			return body, nil
		}
		lastErr = err
		if !IsRetryable(err) {
			break
		}
	}

	span.RecordError(lastErr)
	span.SetStatus(codes.Error, string(CategoryOf(lastErr)))
	return nil, lastErr
}

func (c *Client) doOnce(ctx context.Context, req request) ([]byte, error) {
	var body io.Reader
	if req.body != nil {
		body = bytes.NewReader(req.body)
		if req.progress {
			body = newProgressReader(ctx, body, int64(len(req.body)), req.op, c.logger)
		}
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.method, c.baseURL+req.path, body)
	if err != nil {
		return nil, newAPIError(ErrorBadData, req.op, 0, "building request", err)
	}
	httpReq.ContentLength = int64(len(req.body))
	if req.contentType != "" {
		httpReq.Header.Set("Content-Type", req.contentType)
	}
	httpReq.Header.Set("Accept", "application/json")
	if id := requestcontext.RequestID(ctx); id != "" {
		httpReq.Header.Set("X-Request-ID", id)
	}
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, newAPIError(ErrorAuthentication, req.op, 0, "bearer token unavailable", err)
	}
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, classifyTransport(req.op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, classifyTransport(req.op, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := errorMessage(raw)
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, classifyStatus(req.op, resp.StatusCode, msg)
	}
	return raw, nil
}

func decode(op string, raw []byte, v any) error {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return newAPIError(ErrorBadData, op, http.StatusOK, "unreadable registry response", err)
	}
	return nil
}

func outcome(err error) string {
	if err == nil {
		return "success"
	}
	if c := CategoryOf(err); c != "" {
		return string(c)
	}
	return "error"
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
