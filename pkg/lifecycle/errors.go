package lifecycle

import "fmt"

// PreconditionError reports a failed preflight check. Every precondition
// failure is fatal to the run; nothing is retried.
type PreconditionError struct {
	// Check names the condition that failed (runtime, client library,
	// data directory, port).
	Check string
	Err   error
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("precondition %q failed: %v", e.Check, e.Err)
}

func (e *PreconditionError) Unwrap() error { return e.Err }

// LaunchError reports that the server subprocess could not be started, or
// exited before becoming ready.
type LaunchError struct {
	Err error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("failed to launch server: %v", e.Err)
}

func (e *LaunchError) Unwrap() error { return e.Err }

// NotReadyError reports that the heartbeat never returned ready within the
// bounded retry budget.
type NotReadyError struct {
	Attempts int
	Err      error
}

func (e *NotReadyError) Error() string {
	return fmt.Sprintf("server not ready after %d heartbeat attempts: %v", e.Attempts, e.Err)
}

func (e *NotReadyError) Unwrap() error { return e.Err }
