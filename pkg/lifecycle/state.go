package lifecycle

import "fmt"

// State tracks the lifecycle of a single supervised run.
//
// The machine is linear: NotStarted → Prechecked → Launched → Ready.
// Failed is terminal and reachable from any non-terminal state. Stopped is
// terminal and reachable only from Launched or Ready via Shutdown. There is
// no automatic restart; a new run needs a new Supervisor.
type State int32

const (
	StateNotStarted State = iota
	StatePrechecked
	StateLaunched
	StateReady
	StateFailed
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "NOT_STARTED"
	case StatePrechecked:
		return "PRECHECKED"
	case StateLaunched:
		return "LAUNCHED"
	case StateReady:
		return "READY"
	case StateFailed:
		return "FAILED"
	case StateStopped:
		return "STOPPED"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", int32(s))
	}
}

// terminal reports whether no further transitions are allowed.
func (s State) terminal() bool {
	return s == StateFailed || s == StateStopped
}
