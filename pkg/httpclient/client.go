// Package httpclient is the outbound HTTP client HoppyHub services use to
// call each other: the opinion and beer services reach the images service
// through it, search backfills from the beer service, and the gateway probes
// its upstreams.
package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net"
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/TomWia9/HoppyHub-sub002/pkg/logger"
)

const correlationHeader = "X-Correlation-ID"

// Config holds HTTP client configuration.
type Config struct {
	Timeout         time.Duration
	MaxRetries      int
	RetryWaitMin    time.Duration
	RetryWaitMax    time.Duration
	MaxConnsPerHost int
}

// DefaultConfig is tuned for service-to-service calls inside the cluster.
func DefaultConfig() Config {
	return Config{
		Timeout:         30 * time.Second,
		MaxRetries:      3,
		RetryWaitMin:    time.Second,
		RetryWaitMax:    5 * time.Second,
		MaxConnsPerHost: 100,
	}
}

// wait returns the jittered delay before retry number attempt (1-based),
// doubling from RetryWaitMin up to RetryWaitMax.
func (c Config) wait(attempt int) time.Duration {
	d := c.RetryWaitMin << (attempt - 1)
	if d <= 0 || (c.RetryWaitMax > 0 && d > c.RetryWaitMax) {
		d = c.RetryWaitMax
	}
	return jitter(d)
}

// Client wraps http.Client with retries and trace propagation.
type Client struct {
	httpClient *http.Client
	config     Config
}

// New creates a client with its own pooled transport.
func New(cfg Config) *Client {
	if cfg.MaxConnsPerHost <= 0 {
		cfg.MaxConnsPerHost = DefaultConfig().MaxConnsPerHost
	}
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   cfg.MaxConnsPerHost,
		MaxConnsPerHost:       cfg.MaxConnsPerHost,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: time.Second,
	}

	return &Client{
		httpClient: &http.Client{Transport: transport, Timeout: cfg.Timeout},
		config:     cfg,
	}
}

// Do sends req, retrying transport errors and retryable 5xx statuses with
// jittered exponential backoff. A 503 carrying Retry-After waits at least
// that long. Requests with a body are retried only when req.GetBody can
// replay it.
//
// The outgoing request carries the caller's trace context and correlation
// ID so the downstream service logs under the same request.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	req = req.WithContext(ctx)
	propagate(ctx, req.Header)
	replayable := req.Body == nil || req.Body == http.NoBody || req.GetBody != nil
	target := req.URL.Host

	var retryAfter time.Duration
	for attempt := 0; ; attempt++ {
		if attempt > 0 {
			wait := max(c.config.wait(attempt), retryAfter)
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			if req.GetBody != nil {
				body, err := req.GetBody()
				if err != nil {
					return nil, fmt.Errorf("rewind request body: %w", err)
				}
				req.Body = body
			}
		}
		canRetry := replayable && attempt < c.config.MaxRetries

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if canRetry && ctx.Err() == nil && isTransportError(err) {
				retryAfter = 0
				observeRequest(target, outcomeRetried)
				continue
			}
			observeRequest(target, outcomeError)
			return nil, fmt.Errorf("%s %s failed after %d attempts: %w", req.Method, req.URL.Redacted(), attempt+1, err)
		}

		if canRetry && retryableStatus(resp.StatusCode) {
			retryAfter = parseRetryAfter(resp.Header.Get("Retry-After"))
			_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
			_ = resp.Body.Close()
			observeRequest(target, outcomeRetried)
			continue
		}

		observeRequest(target, statusOutcome(resp.StatusCode))
		return resp, nil
	}
}

// Get performs a GET request with retry.
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create GET request: %w", err)
	}
	return c.Do(ctx, req)
}

// Post performs a POST request with retry.
func (c *Client) Post(ctx context.Context, url, contentType string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, fmt.Errorf("create POST request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	return c.Do(ctx, req)
}

func propagate(ctx context.Context, h http.Header) {
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(h))
	if id := logger.CorrelationIDFromContext(ctx); id != "" && h.Get(correlationHeader) == "" {
		h.Set(correlationHeader, id)
	}
}

// 501 means the route will never work; retrying it only burns the budget.
func retryableStatus(code int) bool {
	return code >= 500 && code != http.StatusNotImplemented
}

// parseRetryAfter understands the delay-seconds form only; HTTP dates are
// ignored.
func parseRetryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(v)
	if err != nil || secs <= 0 {
		return 0
	}
	return min(time.Duration(secs)*time.Second, maxRetryAfter)
}

const maxRetryAfter = 30 * time.Second

func jitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	delta := float64(d) * 0.25 * (2*rand.Float64() - 1) // #nosec G404 -- non-cryptographic jitter
	return d + time.Duration(delta)
}

func isTransportError(err error) bool {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
