package threaddump

import "errors"

// State is a JVM thread state. Unrecognized states coerce to StateUnknown.
type State string

const (
	StateRunnable     State = "RUNNABLE"
	StateBlocked      State = "BLOCKED"
	StateWaiting      State = "WAITING"
	StateTimedWaiting State = "TIMED_WAITING"
	StateNew          State = "NEW"
	StateTerminated   State = "TERMINATED"
	StateUnknown      State = "UNKNOWN"
)

var knownStates = map[State]bool{
	StateRunnable: true, StateBlocked: true, StateWaiting: true,
	StateTimedWaiting: true, StateNew: true, StateTerminated: true,
}

// Thread is one thread entry from a dump snapshot. IDs are strings:
// well-formed entries use the numeric id, malformed ones are coerced
// to "unknown-N" so the analysis never aborts on a bad entry.
type Thread struct {
	ID           string   `json:"id"`
	Name         string   `json:"name,omitempty"`
	State        State    `json:"state"`
	StackTrace   []string `json:"stack_trace,omitempty"`
	LocksHeld    []string `json:"locks_held,omitempty"`
	LocksWaiting []string `json:"locks_waiting,omitempty"`
}

// Lock is one entry of the optional explicit lock table.
type Lock struct {
	Identity       string   `json:"identity"`
	OwnerThread    string   `json:"owner_thread,omitempty"`
	WaitingThreads []string `json:"waiting_threads,omitempty"`
}

// Snapshot is an immutable point-in-time thread dump. The analyzer
// never treats it as a live target.
type Snapshot struct {
	Timestamp string   `json:"timestamp,omitempty"`
	Threads   []Thread `json:"threads"`
	Locks     []Lock   `json:"locks,omitempty"`
}

// Hub is a lock ranked by how many threads are waiting on it.
type Hub struct {
	Lock    string   `json:"lock"`
	Waiters []string `json:"waiters"`
}

// Analysis is the full output of analyzing one snapshot.
type Analysis struct {
	Snapshot    *Snapshot     `json:"snapshot"`
	Graph       *WaitForGraph `json:"graph"`
	Cycles      [][]string    `json:"cycles"`
	Hubs        []Hub         `json:"hubs"`
	StateCounts map[State]int `json:"state_counts"`
}

// ErrMalformedDump signals a dump whose required top-level structure
// (the threads array) is absent. Anything less is degraded, not fatal.
var ErrMalformedDump = errors.New("malformed thread dump")
