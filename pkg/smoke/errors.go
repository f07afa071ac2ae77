package smoke

import "fmt"

// OperationError reports a failed smoke-test step. The exercise is
// sequential, so the first failing step aborts the run.
type OperationError struct {
	// Op names the step that failed (open, collection, insert, count, query).
	Op  string
	Err error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("smoke operation %q failed: %v", e.Op, e.Err)
}

func (e *OperationError) Unwrap() error { return e.Err }

func opErr(op string, err error) *OperationError {
	return &OperationError{Op: op, Err: err}
}
