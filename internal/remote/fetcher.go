// Package remote downloads wordlist documents over HTTP.
package remote

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/avast/retry-go"
	"resty.dev/v3"

	"github.com/at-ishikawa/elicitor/internal/config"
)

// StatusError is returned for a non-2xx response.
type StatusError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: response error %d: %s", e.URL, e.StatusCode, e.Body)
}

// Fetcher downloads raw documents. The body is returned untouched.
type Fetcher struct {
	httpClient       *resty.Client
	maxRetryAttempts uint
	retryDelay       time.Duration
}

func NewFetcher(cfg config.RemoteConfig) *Fetcher {
	client := resty.New()
	client.SetTimeout(time.Duration(cfg.TimeoutSeconds) * time.Second)
	if cfg.UserAgent != "" {
		client.SetHeader("User-Agent", cfg.UserAgent)
	}

	return &Fetcher{
		httpClient:       client,
		maxRetryAttempts: uint(cfg.RetryAttempts),
		retryDelay:       100 * time.Millisecond,
	}
}

func (f *Fetcher) Close() error {
	return f.httpClient.Close()
}

// isRetryableError reports whether a failed GET is worth repeating.
// Server errors, rate limiting and transport failures are; other client
// errors are not.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode >= http.StatusInternalServerError ||
			statusErr.StatusCode == http.StatusTooManyRequests
	}
	return true
}

// Fetch downloads url and returns the response body.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	var body []byte
	attempt := 0
	if err := retry.Do(
		func() error {
			attempt++
			data, err := f.fetch(ctx, url)
			if err != nil {
				if !isRetryableError(err) {
					return retry.Unrecoverable(err)
				}
				slog.Default().Warn("fetch failed, retrying",
					slog.String("url", url),
					slog.Int("attempt", attempt),
					slog.Any("error", err),
				)
				return err
			}
			body = data
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(f.maxRetryAttempts+1),
		retry.Delay(f.retryDelay),
		retry.LastErrorOnly(true),
		retry.DelayType(func(n uint, err error, config *retry.Config) time.Duration {
			return retry.BackOffDelay(n, err, config)
		}),
	); err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	return body, nil
}

func (f *Fetcher) fetch(ctx context.Context, url string) ([]byte, error) {
	response, err := f.httpClient.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		return nil, fmt.Errorf("httpClient.Get() > %w", err)
	}
	if response.StatusCode() < http.StatusOK || response.StatusCode() >= http.StatusMultipleChoices {
		return nil, &StatusError{URL: url, StatusCode: response.StatusCode(), Body: response.String()}
	}
	return response.Bytes(), nil
}
