package tts

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"
)

// request performs one synthesis POST. It returns the response on 200 and
// an *APIError otherwise; transport errors are returned as is.
type request func(ctx context.Context) (*http.Response, error)

// withRetry runs do until it succeeds, fails with a non-retryable API
// error, or cfg.MaxRetries retries are spent. Backoff grows linearly.
func withRetry(ctx context.Context, cfg *Config, logger *slog.Logger, provider string, do request) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(cfg.RetryDelay * time.Duration(attempt)):
			}
		}

		resp, err := do(ctx)
		if err == nil {
			return resp, nil
		}
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			if !apiErr.IsRetryable() {
				return nil, apiErr
			}
			logger.Warn("retrying request", "attempt", attempt+1, "status", apiErr.StatusCode)
			lastErr = apiErr
			continue
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = WrapError(provider, err)
	}

	return nil, lastErr
}
