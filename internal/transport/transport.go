// Package transport provides the HTTP transport used for generator requests.
package transport

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// DefaultMaxWait caps how long a single retry-after is honored
const DefaultMaxWait = 2 * time.Minute

// RateLimitedTransport retries requests rejected with 429 Too Many Requests after the delay the server asks for
type RateLimitedTransport struct {
	base    http.RoundTripper
	maxWait time.Duration
	logger  *zap.Logger
}

func WithRateLimiting(base http.RoundTripper, logger *zap.Logger) *RateLimitedTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RateLimitedTransport{base: base, maxWait: DefaultMaxWait, logger: logger}
}

// WithMaxWait sets the longest retry-after delay that is waited out. Longer delays return the 429 response as-is
func (t *RateLimitedTransport) WithMaxWait(d time.Duration) *RateLimitedTransport {
	t.maxWait = d
	return t
}

func (t *RateLimitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// Preserve the original request body for retries
	var bodyBytes []byte
	if req.Body != nil {
		var err error
		bodyBytes, err = io.ReadAll(req.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read request body: %w", err)
		}
		err = req.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to close request body: %w", err)
		}
	}

	for {
		// Restore the request body for each attempt
		if bodyBytes != nil {
			req.Body = io.NopCloser(bytes.NewReader(bodyBytes))
		}

		resp, err := t.base.RoundTrip(req)
		if err != nil {
			return resp, err
		}
		if resp.StatusCode != http.StatusTooManyRequests {
			return resp, nil
		}

		waitDuration := retryAfter(resp.Header.Get("retry-after"), time.Now())
		if waitDuration <= 0 || waitDuration > t.maxWait {
			return resp, nil
		}

		// Close the response body to free resources
		if err := resp.Body.Close(); err != nil {
			return nil, fmt.Errorf("failed to close response body: %w", err)
		}

		t.logger.Warn("rate limited, waiting", zap.Duration("wait", waitDuration), zap.String("url", req.URL.String()))
		timer := time.NewTimer(waitDuration)
		select {
		case <-req.Context().Done():
			timer.Stop()
			return nil, req.Context().Err()
		case <-timer.C:
			// Retry
		}
	}
}

// retryAfter parses a retry-after header, given either in seconds or as an HTTP date
func retryAfter(value string, now time.Time) time.Duration {
	if value == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}
	if retryTime, err := http.ParseTime(value); err == nil {
		return retryTime.Sub(now)
	}
	return 0
}
