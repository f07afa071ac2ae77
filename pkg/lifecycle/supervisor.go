// Package lifecycle brings up a ChromaDB server process and confirms it is
// usable: ordered preflight checks, an explicit child environment, subprocess
// launch with log redirection, bounded heartbeat polling, and graceful
// shutdown.
//
// A Supervisor owns exactly one run. Every blocking operation takes a
// context.Context so operator interrupts cancel cleanly at any point.
package lifecycle

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/agentplatform/chromactl/internal/logger"
	"github.com/agentplatform/chromactl/pkg/config"
	"github.com/agentplatform/chromactl/pkg/heartbeat"
)

// Supervisor drives a single server run through its lifecycle states.
type Supervisor struct {
	cfg *config.Config
	hb  *heartbeat.Client
	run commandRunner

	mu            sync.Mutex
	state         State
	pythonVersion string
	chromaVersion string
}

// New creates a Supervisor for the given configuration.
func New(cfg *config.Config) *Supervisor {
	return &Supervisor{
		cfg:   cfg,
		hb:    heartbeat.New(cfg.Server.HeartbeatURL(), cfg.Readiness.Timeout),
		run:   runCommand,
		state: StateNotStarted,
	}
}

// State returns the current lifecycle state.
func (s *Supervisor) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// PythonVersion returns the interpreter version discovered during preflight.
func (s *Supervisor) PythonVersion() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pythonVersion
}

// ChromaVersion returns the chromadb library version discovered during
// preflight.
func (s *Supervisor) ChromaVersion() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chromaVersion
}

func (s *Supervisor) setState(st State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = st
}

func (s *Supervisor) require(st State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == st {
		return nil
	}
	if s.state.terminal() {
		return fmt.Errorf("run finished in state %s; create a new Supervisor for another run", s.state)
	}
	return fmt.Errorf("operation requires state %s, current state is %s", st, s.state)
}

// Launch spawns the server subprocess with stdout and stderr redirected to
// the configured log file. The log handle is released on every path,
// including spawn failure; after a successful start it is owned by the
// handle's reaper goroutine and closed when the child exits.
func (s *Supervisor) Launch() (*Handle, error) {
	if err := s.require(StatePrechecked); err != nil {
		return nil, err
	}

	env, err := Environ(s.cfg.Server)
	if err != nil {
		s.setState(StateFailed)
		return nil, &LaunchError{Err: err}
	}

	srv := s.cfg.Server
	args := []string{
		"-m", "chromadb.cli.cli", "run",
		"--host", srv.Host,
		"--port", strconv.Itoa(srv.HTTPPort),
		"--path", srv.DataDir,
	}

	logger.Info("launching server",
		"command", srv.Python,
		"host", srv.Host,
		"port", srv.HTTPPort,
		"data_dir", srv.DataDir,
		"log_file", srv.LogPath())

	handle, err := launch(srv.Python, args, env, srv.LogPath())
	if err != nil {
		s.setState(StateFailed)
		return nil, err
	}

	logger.Info("server process started", "pid", handle.PID())
	s.setState(StateLaunched)
	return handle, nil
}

// AwaitReady polls the heartbeat endpoint up to the configured attempt
// budget, sleeping the configured constant interval between probes. It
// short-circuits on the first ready response. A child that exits before
// becoming ready fails immediately and is not retried.
func (s *Supervisor) AwaitReady(ctx context.Context, handle *Handle) (heartbeat.Info, error) {
	if err := s.require(StateLaunched); err != nil {
		return nil, err
	}

	attempts := s.cfg.Readiness.Attempts
	interval := s.cfg.Readiness.Interval

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if handle.Exited() {
			s.setState(StateFailed)
			return nil, &LaunchError{Err: fmt.Errorf("server process exited before becoming ready: %v", handle.ExitErr())}
		}

		info, err := s.hb.Beat(ctx)
		if err == nil {
			logger.Info("server is ready", "attempt", attempt, "url", s.hb.URL())
			s.setState(StateReady)
			return info, nil
		}
		lastErr = err
		logger.Debug("heartbeat not ready", "attempt", attempt, "attempts", attempts, "error", err)

		if attempt == attempts {
			break
		}

		select {
		case <-time.After(interval):
		case <-handle.Done():
			s.setState(StateFailed)
			return nil, &LaunchError{Err: fmt.Errorf("server process exited before becoming ready: %v", handle.ExitErr())}
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	s.setState(StateFailed)
	return nil, &NotReadyError{Attempts: attempts, Err: lastErr}
}

// Shutdown terminates the child gracefully and blocks until it exits. It is
// idempotent: a second call, or a call on an already-exited handle, is a
// no-op. Shutdown is accepted only from the Launched and Ready states;
// anywhere else it does nothing.
func (s *Supervisor) Shutdown(ctx context.Context, handle *Handle) error {
	st := s.State()
	if handle == nil || (st != StateLaunched && st != StateReady) {
		return nil
	}

	logger.Info("stopping server", "pid", handle.PID())
	if err := handle.shutdown(ctx); err != nil {
		return err
	}

	s.setState(StateStopped)
	logger.Info("server stopped")
	return nil
}
