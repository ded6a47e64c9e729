// Package fetcher retrieves remote pages and images over HTTP.
// Each request is validated, rate limited, guarded by a circuit breaker and
// classified into found, confirmed absent (feed.ErrNotFound) or failed (*feed.FetchError).
package fetcher

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"apod-feed/internal/observability/metrics"
	"apod-feed/internal/observability/tracing"
	"apod-feed/internal/resilience/circuitbreaker"
	"apod-feed/internal/usecase/feed"

	"golang.org/x/time/rate"
)

// Sentinel errors for fetch operations. Both are wrapped in a *feed.FetchError.
var (
	// ErrInvalidURL indicates a URL that is not absolute http(s) with a host.
	ErrInvalidURL = errors.New("invalid URL")

	// ErrPrivateIP indicates a host that resolves to a private address.
	ErrPrivateIP = errors.New("private IP address not allowed")

	// ErrBodyTooLarge indicates a response body over the configured limit.
	ErrBodyTooLarge = errors.New("response body too large")

	// ErrTooManyRedirects indicates a redirect chain over the configured limit.
	ErrTooManyRedirects = errors.New("too many redirects")
)

// StatusError is an HTTP response status that is neither success nor a confirmed absence.
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected HTTP status %s", e.Status)
}

// HTTPFetcher implements feed.PageFetcher and cache.Downloader.
// It never retries: one Fetch call issues at most one GET.
type HTTPFetcher struct {
	client  *http.Client
	breaker *circuitbreaker.CircuitBreaker
	limiter *rate.Limiter
	config  Config
}

// NewHTTPFetcher creates a fetcher from config. The config is assumed valid.
func NewHTTPFetcher(config Config) *HTTPFetcher {
	cbConfig := config.Breaker
	if cbConfig.Name == "" {
		cbConfig = circuitbreaker.PageFetchConfig()
	}
	// A confirmed absence is an answer, not a failure of the upstream.
	cbConfig.IsSuccessful = func(err error) bool {
		return err == nil || errors.Is(err, feed.ErrNotFound)
	}

	f := &HTTPFetcher{
		breaker: circuitbreaker.New(cbConfig),
		limiter: rate.NewLimiter(rate.Limit(config.RequestsPerSecond), 1),
		config:  config,
	}

	f.client = &http.Client{
		Timeout: config.Timeout,
		Transport: tracing.NewTransport(&http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        20,
			MaxIdleConnsPerHost: 4,
			IdleConnTimeout:     90 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12, // Enforce TLS 1.2+
			},
		}),
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= f.config.MaxRedirects {
				return fmt.Errorf("%w: %d redirects", ErrTooManyRedirects, len(via))
			}
			if err := validateURL(req.URL.String(), f.config.DenyPrivateIPs); err != nil {
				return fmt.Errorf("redirect target validation failed: %w", err)
			}
			return nil
		},
	}

	return f
}

// Breaker exposes the circuit breaker for health reporting.
func (f *HTTPFetcher) Breaker() *circuitbreaker.CircuitBreaker {
	return f.breaker
}

// BaseURL returns the configured archive root.
func (f *HTTPFetcher) BaseURL() string {
	return f.config.BaseURL
}

// Fetch issues one GET for urlStr and returns the body.
//
// Returns:
//   - feed.ErrNotFound for 404 and 410 (and every HTTP status error in Lenient mode)
//   - *feed.FetchError for everything else: invalid URL, rate-limit wait cancelled,
//     open circuit, transport failure, unexpected status, oversized body
func (f *HTTPFetcher) Fetch(ctx context.Context, urlStr string) ([]byte, error) {
	if err := validateURL(urlStr, f.config.DenyPrivateIPs); err != nil {
		return nil, &feed.FetchError{URL: urlStr, Err: err}
	}

	if err := f.limiter.Wait(ctx); err != nil {
		return nil, &feed.FetchError{URL: urlStr, Err: fmt.Errorf("rate limit wait: %w", err)}
	}

	start := time.Now()
	result, err := f.breaker.Execute(func() (interface{}, error) {
		return f.doFetch(ctx, urlStr)
	})
	duration := time.Since(start)

	switch {
	case err == nil:
		metrics.RecordPageFetch(metrics.FetchOutcomeSuccess, duration)
		return result.([]byte), nil
	case errors.Is(err, feed.ErrNotFound):
		metrics.RecordPageFetch(metrics.FetchOutcomeNotFound, duration)
		slog.Debug("remote resource not found", slog.String("url", urlStr))
		return nil, feed.ErrNotFound
	default:
		metrics.RecordPageFetch(metrics.FetchOutcomeFailure, duration)
		return nil, &feed.FetchError{URL: urlStr, Err: err}
	}
}

func (f *HTTPFetcher) doFetch(ctx context.Context, urlStr string) ([]byte, error) {
	reqCtx, cancel := context.WithTimeout(ctx, f.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", ErrInvalidURL, err)
	}
	req.Header.Set("User-Agent", f.config.UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone {
		return nil, feed.ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		statusErr := &StatusError{StatusCode: resp.StatusCode, Status: resp.Status}
		if f.config.Lenient {
			slog.Debug("HTTP error treated as missing resource",
				slog.String("url", urlStr),
				slog.Int("status", resp.StatusCode))
			return nil, feed.ErrNotFound
		}
		return nil, statusErr
	}

	limitedReader := io.LimitReader(resp.Body, f.config.MaxBodySize+1)
	body, err := io.ReadAll(limitedReader)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if int64(len(body)) > f.config.MaxBodySize {
		return nil, fmt.Errorf("%w: response exceeds limit of %d bytes", ErrBodyTooLarge, f.config.MaxBodySize)
	}

	return body, nil
}
