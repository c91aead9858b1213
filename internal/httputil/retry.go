// Package httputil holds HTTP helpers for the outbound AI provider calls.
package httputil

import (
	"context"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// RetryBaseDelay is the first backoff after an HTTP 429. Each further
// attempt doubles it.
var RetryBaseDelay = 2 * time.Second

// DefaultMaxRetries is used when DoWithRetry is called with maxRetries <= 0.
const DefaultMaxRetries = 4

var logger = zap.NewNop()

// SetLogger sets the logger used to report rate-limit backoffs.
func SetLogger(l *zap.Logger) {
	logger = l
}

// DoWithRetry sends req and retries while the server answers 429 Too Many
// Requests, sleeping RetryBaseDelay, 2x, 4x... between attempts. Any other
// status is returned to the caller untouched. When retries run out the last
// 429 response is returned. Cancelling ctx during a backoff returns
// ctx.Err(). The request body must be replayable (GetBody set), which
// http.NewRequest arranges for bytes.Reader bodies.
func DoWithRetry(ctx context.Context, client *http.Client, req *http.Request, maxRetries int) (*http.Response, error) {
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	if client == nil {
		client = http.DefaultClient
	}

	backoff := RetryBaseDelay
	for attempt := 0; ; attempt++ {
		r := req.Clone(ctx)
		if attempt > 0 && req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, err
			}
			r.Body = body
		}

		resp, err := client.Do(r)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusTooManyRequests || attempt >= maxRetries {
			return resp, nil
		}

		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		logger.Warn("rate limited, backing off",
			zap.String("url", req.URL.String()),
			zap.Duration("backoff", backoff),
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", maxRetries))

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
}
