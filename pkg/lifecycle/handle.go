package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"
)

// Handle wraps a launched server process. It is owned by exactly one
// Supervisor for the duration of the run.
type Handle struct {
	cmd     *exec.Cmd
	pid     int
	done    chan struct{}
	waitErr error
}

// launch opens the log file, writes a launch header, and starts the command
// with stdout/stderr redirected into it. On any failure before the process
// is running, the log handle is closed here; afterwards the reaper goroutine
// closes it when the child exits.
func launch(name string, args, env []string, logPath string) (*Handle, error) {
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, &LaunchError{Err: fmt.Errorf("cannot open log file %s: %w", logPath, err)}
	}

	header := fmt.Sprintf("ChromaDB server log - %s\nCommand: %s %s\n%s\n",
		time.Now().Format(time.RFC3339), name, strings.Join(args, " "), strings.Repeat("=", 50))
	if _, err := logFile.WriteString(header); err != nil {
		_ = logFile.Close()
		return nil, &LaunchError{Err: fmt.Errorf("cannot write log file %s: %w", logPath, err)}
	}

	cmd := exec.Command(name, args...)
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	cmd.Env = env

	if err := cmd.Start(); err != nil {
		_ = logFile.Close()
		return nil, &LaunchError{Err: err}
	}

	h := &Handle{
		cmd:  cmd,
		pid:  cmd.Process.Pid,
		done: make(chan struct{}),
	}

	go func() {
		h.waitErr = cmd.Wait()
		_ = logFile.Close()
		close(h.done)
	}()

	return h, nil
}

// PID returns the child's process id.
func (h *Handle) PID() int { return h.pid }

// Done returns a channel closed when the child exits.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Exited reports whether the child has exited.
func (h *Handle) Exited() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

// ExitErr returns the child's wait error. Only meaningful after Exited
// reports true.
func (h *Handle) ExitErr() error { return h.waitErr }

// Stop terminates the child directly, bypassing the supervisor's state
// machine. Callers cleaning up after a failed run use this; a normal stop
// goes through Supervisor.Shutdown.
func (h *Handle) Stop(ctx context.Context) error {
	return h.shutdown(ctx)
}

// shutdown sends SIGTERM and blocks until the child exits. If the context
// expires first, the child is killed and the wait completes. Calling on an
// already-exited handle is a no-op.
func (h *Handle) shutdown(ctx context.Context) error {
	select {
	case <-h.done:
		return nil
	default:
	}

	if err := h.cmd.Process.Signal(syscall.SIGTERM); err != nil {
		if errors.Is(err, os.ErrProcessDone) {
			<-h.done
			return nil
		}
		return fmt.Errorf("failed to signal process %d: %w", h.pid, err)
	}

	select {
	case <-h.done:
		return nil
	case <-ctx.Done():
		_ = h.cmd.Process.Kill()
		<-h.done
		return nil
	}
}
