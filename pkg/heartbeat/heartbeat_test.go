package heartbeat

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBeat_Ready(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/heartbeat", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"nanosecond heartbeat": 1700000000000000000}`))
	}))
	defer srv.Close()

	c := New(srv.URL+"/api/v1/heartbeat", time.Second)
	info, err := c.Beat(context.Background())
	require.NoError(t, err)
	assert.Contains(t, info, "nanosecond heartbeat")
}

func TestBeat_NotReadyStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	_, err := c.Beat(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestBeat_UnreadablePayloadStillReady(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	info, err := c.Beat(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, info)
}

func TestAwait_ShortCircuitsOnFirstSuccess(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	_, used, err := c.Await(context.Background(), 5, 10*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, 1, used)
	assert.Equal(t, int32(1), requests.Load(), "no further requests after the first 200")
}

func TestAwait_SucceedsMidBudget(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	_, used, err := c.Await(context.Background(), 5, time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, 3, used)
	assert.Equal(t, int32(3), requests.Load())
}

func TestAwait_BoundedAttempts(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	interval := 20 * time.Millisecond
	c := New(srv.URL, time.Second)

	start := time.Now()
	_, used, err := c.Await(context.Background(), 5, interval)
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotReady))
	assert.Equal(t, 5, used)
	assert.Equal(t, int32(5), requests.Load(), "must make exactly attempts requests")

	// 5 attempts with 4 sleeps in between: at least 4 intervals, bounded retry
	// with a constant interval (no backoff blowup).
	assert.GreaterOrEqual(t, elapsed, 4*interval)
	assert.Less(t, elapsed, 20*interval)
}

func TestAwait_ContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	c := New(srv.URL, time.Second)
	_, _, err := c.Await(ctx, 1000, time.Hour)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestAwait_ConnectionRefused(t *testing.T) {
	// Grab a port that nothing is listening on.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := New(url, 100*time.Millisecond)
	_, used, err := c.Await(context.Background(), 2, time.Millisecond)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotReady))
	assert.Equal(t, 2, used)
}
