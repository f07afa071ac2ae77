package lifecycle

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentplatform/chromactl/pkg/heartbeat"
)

// exitedHandle fakes a child that already terminated.
func exitedHandle() *Handle {
	h := &Handle{done: make(chan struct{}), waitErr: errors.New("exit status 1")}
	close(h.done)
	return h
}

// runningHandle fakes a child that never exits on its own.
func runningHandle() *Handle {
	return &Handle{done: make(chan struct{})}
}

func readySupervisor(t *testing.T, handlerFunc http.HandlerFunc) (*Supervisor, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handlerFunc)
	t.Cleanup(srv.Close)

	s := testSupervisor(t, t.TempDir(), freePort(t))
	s.hb = heartbeat.New(srv.URL+"/api/v1/heartbeat", time.Second)
	s.cfg.Readiness.Interval = time.Millisecond
	s.setState(StateLaunched)
	return s, srv
}

func TestAwaitReady_Success(t *testing.T) {
	s, _ := readySupervisor(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"nanosecond heartbeat": 1}`))
	})

	info, err := s.AwaitReady(context.Background(), runningHandle())
	require.NoError(t, err)
	assert.Contains(t, info, "nanosecond heartbeat")
	assert.Equal(t, StateReady, s.State())
}

func TestAwaitReady_ExhaustsBudget(t *testing.T) {
	var requests atomic.Int32
	s, _ := readySupervisor(t, func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	s.cfg.Readiness.Attempts = 3

	_, err := s.AwaitReady(context.Background(), runningHandle())
	require.Error(t, err)

	var notReady *NotReadyError
	require.True(t, errors.As(err, &notReady))
	assert.Equal(t, 3, notReady.Attempts)
	assert.Equal(t, int32(3), requests.Load(), "exactly attempts probes, no more")
	assert.Equal(t, StateFailed, s.State())
}

func TestAwaitReady_ChildExitedBeforeReady(t *testing.T) {
	s, _ := readySupervisor(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := s.AwaitReady(context.Background(), exitedHandle())
	require.Error(t, err)

	var launchErr *LaunchError
	require.True(t, errors.As(err, &launchErr))
	assert.Contains(t, err.Error(), "exited before becoming ready")
	assert.Equal(t, StateFailed, s.State())
}

func TestAwaitReady_CancelledDuringSleep(t *testing.T) {
	s, _ := readySupervisor(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	s.cfg.Readiness.Interval = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := s.AwaitReady(ctx, runningHandle())
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestAwaitReady_RequiresLaunchedState(t *testing.T) {
	s := testSupervisor(t, t.TempDir(), freePort(t))
	_, err := s.AwaitReady(context.Background(), runningHandle())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LAUNCHED")
}

func TestLaunch_RequiresPrecheckedState(t *testing.T) {
	s := testSupervisor(t, t.TempDir(), freePort(t))
	_, err := s.Launch()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PRECHECKED")
}

func TestLaunch_SpawnFailure(t *testing.T) {
	dataDir := t.TempDir()
	s := testSupervisor(t, dataDir, freePort(t))
	s.cfg.Server.Python = filepath.Join(dataDir, "no-such-binary")
	s.setState(StatePrechecked)

	_, err := s.Launch()
	require.Error(t, err)

	var launchErr *LaunchError
	require.True(t, errors.As(err, &launchErr))
	assert.Equal(t, StateFailed, s.State())

	// The log file was opened, got its header, and was released: a fresh
	// truncate-open must succeed.
	logPath := s.cfg.Server.LogPath()
	data, readErr := os.ReadFile(logPath)
	require.NoError(t, readErr)
	assert.True(t, strings.HasPrefix(string(data), "ChromaDB server log"))

	f, openErr := os.OpenFile(logPath, os.O_WRONLY|os.O_TRUNC, 0644)
	require.NoError(t, openErr)
	require.NoError(t, f.Close())
}

func TestHandle_ShutdownGracefulAndIdempotent(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "server.log")
	h, err := launch("/bin/sh", []string{"-c", "sleep 30"}, os.Environ(), logPath)
	require.NoError(t, err)
	require.Greater(t, h.PID(), 0)
	assert.False(t, h.Exited())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, h.shutdown(ctx))
	assert.True(t, h.Exited())

	// Second call on the exited handle is a no-op.
	require.NoError(t, h.shutdown(ctx))
}

func TestSupervisor_ShutdownTransitions(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "server.log")
	h, err := launch("/bin/sh", []string{"-c", "sleep 30"}, os.Environ(), logPath)
	require.NoError(t, err)

	s := testSupervisor(t, t.TempDir(), freePort(t))
	s.setState(StateLaunched)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, s.Shutdown(ctx, h))
	assert.Equal(t, StateStopped, s.State())

	// Shutdown from a terminal state is a no-op.
	require.NoError(t, s.Shutdown(ctx, h))
	assert.Equal(t, StateStopped, s.State())
}

func TestSupervisor_ShutdownIgnoredBeforeLaunch(t *testing.T) {
	s := testSupervisor(t, t.TempDir(), freePort(t))
	require.NoError(t, s.Shutdown(context.Background(), nil))
	assert.Equal(t, StateNotStarted, s.State())
}

func TestSupervisor_TerminalStateRejectsFurtherOperations(t *testing.T) {
	s := testSupervisor(t, t.TempDir(), freePort(t))
	s.setState(StateFailed)

	_, err := s.Launch()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FAILED")
	assert.Contains(t, err.Error(), "new Supervisor")

	s.setState(StateStopped)
	_, err = s.AwaitReady(context.Background(), runningHandle())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STOPPED")
	assert.Contains(t, err.Error(), "new Supervisor")
}

func TestHandle_ChildExitObserved(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "server.log")
	h, err := launch("/bin/sh", []string{"-c", "exit 3"}, os.Environ(), logPath)
	require.NoError(t, err)

	select {
	case <-h.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("child never reaped")
	}

	assert.True(t, h.Exited())
	require.Error(t, h.ExitErr())
	assert.Contains(t, h.ExitErr().Error(), "exit status 3")
}
