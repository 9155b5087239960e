package threaddump

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"flakelens/internal/logging"
)

// rawSnapshot mirrors the wire format of a dump. Threads is a pointer
// so an absent array (fatal) is distinguishable from an empty one.
type rawSnapshot struct {
	Timestamp string       `json:"timestamp"`
	Threads   *[]rawThread `json:"threads"`
	Locks     []rawLock    `json:"locks"`
}

type rawThread struct {
	ID           *int     `json:"id"`
	Name         string   `json:"name"`
	State        string   `json:"state"`
	StackTrace   []string `json:"stack_trace"`
	LocksHeld    []string `json:"locks_held"`
	LocksWaiting []string `json:"locks_waiting"`
}

type rawLock struct {
	Identity       string `json:"identity"`
	OwnerThread    *int   `json:"owner_thread"`
	WaitingThreads []int  `json:"waiting_threads"`
}

// Parse decodes a JSON thread-dump snapshot. Only the threads array is
// required; a missing locks table degrades to an empty one. Malformed
// thread entries are coerced (id "unknown-N", state UNKNOWN) and noted,
// never fatal.
func Parse(data []byte) (*Snapshot, error) {
	var raw rawSnapshot
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDump, err)
	}
	if raw.Threads == nil {
		return nil, fmt.Errorf("%w: missing threads array", ErrMalformedDump)
	}

	logger := logging.New("threaddump")
	snap := &Snapshot{Timestamp: raw.Timestamp}

	unknownSeq := 0
	for _, rt := range *raw.Threads {
		t := Thread{
			Name:         rt.Name,
			StackTrace:   rt.StackTrace,
			LocksHeld:    rt.LocksHeld,
			LocksWaiting: rt.LocksWaiting,
		}
		if rt.ID != nil {
			t.ID = strconv.Itoa(*rt.ID)
		} else {
			unknownSeq++
			t.ID = fmt.Sprintf("unknown-%d", unknownSeq)
			logger.Warn("thread entry missing id, coerced", "id", t.ID, "name", rt.Name)
		}
		t.State = coerceState(rt.State)
		if t.State == StateUnknown && rt.State != "" {
			logger.Warn("unknown thread state, coerced", "thread", t.ID, "state", rt.State)
		}
		snap.Threads = append(snap.Threads, t)
	}

	for _, rl := range raw.Locks {
		l := Lock{Identity: rl.Identity}
		if rl.OwnerThread != nil {
			l.OwnerThread = strconv.Itoa(*rl.OwnerThread)
		}
		for _, w := range rl.WaitingThreads {
			l.WaitingThreads = append(l.WaitingThreads, strconv.Itoa(w))
		}
		snap.Locks = append(snap.Locks, l)
	}

	return snap, nil
}

func coerceState(s string) State {
	st := State(strings.ToUpper(strings.TrimSpace(s)))
	if knownStates[st] {
		return st
	}
	return StateUnknown
}
