package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"
)

// maxRetryAfter caps how long a server-provided Retry-After can stall a command.
const maxRetryAfter = 30 * time.Second

// retryTransport wraps an http.RoundTripper with automatic retry on transient errors.
type retryTransport struct {
	base       http.RoundTripper
	maxRetries int
	baseDelay  time.Duration
}

// RoundTrip implements http.RoundTripper with retry logic for 429 responses,
// and for 5xx responses to idempotent requests.
func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var resp *http.Response
	var err error

	for attempt := range t.maxRetries + 1 {
		// Body is consumed on read; replay it for each attempt.
		if req.Body != nil && req.GetBody != nil {
			body, bodyErr := req.GetBody()
			if bodyErr != nil {
				return nil, fmt.Errorf("cloning request body: %w", bodyErr)
			}

			req.Body = body
		}

		resp, err = t.base.RoundTrip(req)
		if err != nil {
			return nil, fmt.Errorf("round trip: %w", err)
		}

		if !shouldRetry(req.Method, resp.StatusCode) {
			return resp, nil
		}

		if attempt < t.maxRetries {
			delay := t.delay(attempt, resp)

			// Close response body before retry to prevent connection leak.
			_ = resp.Body.Close()

			slog.Debug("retrying request",
				"method", req.Method,
				"path", req.URL.Path,
				"status", resp.StatusCode,
				"attempt", attempt+1,
				"delay", delay,
			)

			select {
			case <-req.Context().Done():
				return nil, fmt.Errorf("retry wait: %w", req.Context().Err())
			case <-time.After(delay):
			}
		}
	}

	return resp, nil
}

// delay returns the wait before the next attempt: the server's Retry-After
// when it sent one in seconds, exponential backoff otherwise.
func (t *retryTransport) delay(attempt int, resp *http.Response) time.Duration {
	if s := resp.Header.Get("Retry-After"); s != "" {
		if secs, err := strconv.Atoi(s); err == nil && secs >= 0 {
			return min(time.Duration(secs)*time.Second, maxRetryAfter)
		}
	}

	return t.baseDelay * (1 << attempt) //nolint:gosec // attempt is bounded by maxRetries (small int)
}

// shouldRetry returns true for responses that warrant a retry. A 5xx to a
// POST may arrive after the server acted on it, so only 429 is retried there.
func shouldRetry(method string, statusCode int) bool {
	if statusCode == http.StatusTooManyRequests {
		return true
	}

	if statusCode < http.StatusInternalServerError || statusCode > http.StatusGatewayTimeout {
		return false
	}

	switch method {
	case http.MethodGet, http.MethodHead, http.MethodDelete:
		return true
	default:
		return false
	}
}

// loggingTransport wraps an http.RoundTripper with slog debug logging.
// The Authorization header is never logged.
type loggingTransport struct {
	base http.RoundTripper
}

// RoundTrip implements http.RoundTripper with request/response logging.
func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	authed := req.Header.Get("Authorization") != ""

	slog.Debug("http request", "method", req.Method, "url", req.URL.String(), "auth", authed)

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		slog.Debug("http error",
			"method", req.Method,
			"url", req.URL.String(),
			"error", err,
			"duration", time.Since(start),
		)

		return nil, fmt.Errorf("logging round trip: %w", err)
	}

	slog.Debug("http response",
		"method", req.Method,
		"url", req.URL.String(),
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)

	return resp, nil
}
