// Package heartbeat probes the ChromaDB heartbeat endpoint.
//
// The endpoint is treated as opaque: HTTP 200 means ready, everything else
// means not ready. The decoded JSON payload is passed through for display
// only.
package heartbeat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Info is the decoded heartbeat payload. Its contents belong to the server
// and are never interpreted.
type Info map[string]any

// ErrNotReady is wrapped by Await when the retry budget is exhausted.
var ErrNotReady = errors.New("server never became ready")

// Client probes a single heartbeat URL.
type Client struct {
	url  string
	http *http.Client
}

// New creates a heartbeat client for the given endpoint URL.
// Each probe is bounded by timeout.
func New(url string, timeout time.Duration) *Client {
	return &Client{
		url:  url,
		http: &http.Client{Timeout: timeout},
	}
}

// URL returns the probed endpoint.
func (c *Client) URL() string {
	return c.url
}

// Beat performs a single heartbeat probe. It returns the decoded payload on
// HTTP 200 and an error otherwise.
func (c *Client) Beat(ctx context.Context) (Info, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build heartbeat request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("heartbeat request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("heartbeat returned status %d", resp.StatusCode)
	}

	var info Info
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		// A ready server with an unreadable payload still counts as ready;
		// the payload is informational only.
		return Info{}, nil
	}

	return info, nil
}

// Await polls the heartbeat up to attempts times, sleeping interval between
// probes. It short-circuits on the first success and never probes again
// after that. The interval is constant; there is no backoff.
//
// Returns the payload, the number of probes made, and an error wrapping
// ErrNotReady if the budget is exhausted. Context cancellation aborts the
// wait at any blocking point.
func (c *Client) Await(ctx context.Context, attempts int, interval time.Duration) (Info, int, error) {
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		info, err := c.Beat(ctx)
		if err == nil {
			return info, attempt, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return nil, attempt, ctx.Err()
		}

		// No sleep after the final attempt.
		if attempt == attempts {
			break
		}

		select {
		case <-time.After(interval):
		case <-ctx.Done():
			return nil, attempt, ctx.Err()
		}
	}

	return nil, attempts, fmt.Errorf("%w after %d attempts: %v", ErrNotReady, attempts, lastErr)
}
