package threaddump

import (
	"errors"
	"testing"
)

func TestParse_MissingThreadsArrayIsFatal(t *testing.T) {
	_, err := Parse([]byte(`{"timestamp": "2024-01-01T00:00:00Z"}`))
	if !errors.Is(err, ErrMalformedDump) {
		t.Fatalf("err = %v, want ErrMalformedDump", err)
	}
}

func TestParse_InvalidJSONIsFatal(t *testing.T) {
	_, err := Parse([]byte(`{not json`))
	if !errors.Is(err, ErrMalformedDump) {
		t.Fatalf("err = %v, want ErrMalformedDump", err)
	}
}

func TestParse_EmptyThreadsAndMissingLocksDegrade(t *testing.T) {
	snap, err := Parse([]byte(`{"threads": []}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(snap.Threads) != 0 || len(snap.Locks) != 0 {
		t.Errorf("expected empty snapshot, got %+v", snap)
	}
}

func TestParse_CoercesMalformedEntries(t *testing.T) {
	data := []byte(`{
		"threads": [
			{"name": "no-id", "state": "RUNNABLE"},
			{"id": 7, "state": "SPINNING"},
			{"id": 8}
		]
	}`)
	snap, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(snap.Threads) != 3 {
		t.Fatalf("got %d threads, want 3", len(snap.Threads))
	}
	if snap.Threads[0].ID != "unknown-1" {
		t.Errorf("coerced id = %q, want unknown-1", snap.Threads[0].ID)
	}
	if snap.Threads[0].State != StateRunnable {
		t.Errorf("state = %s, want RUNNABLE", snap.Threads[0].State)
	}
	if snap.Threads[1].State != StateUnknown {
		t.Errorf("unknown state coerced to %s, want UNKNOWN", snap.Threads[1].State)
	}
	if snap.Threads[2].ID != "8" || snap.Threads[2].State != StateUnknown {
		t.Errorf("thread 8 = %+v, want id 8 with UNKNOWN state", snap.Threads[2])
	}
}

func TestParse_LockTable(t *testing.T) {
	data := []byte(`{
		"threads": [{"id": 1, "state": "BLOCKED", "locks_waiting": ["0xdead"]}],
		"locks": [{"identity": "0xdead", "owner_thread": 2, "waiting_threads": [1, 3]}]
	}`)
	snap, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(snap.Locks) != 1 {
		t.Fatalf("got %d locks, want 1", len(snap.Locks))
	}
	l := snap.Locks[0]
	if l.OwnerThread != "2" {
		t.Errorf("owner = %q, want 2", l.OwnerThread)
	}
	if len(l.WaitingThreads) != 2 || l.WaitingThreads[0] != "1" || l.WaitingThreads[1] != "3" {
		t.Errorf("waiters = %v, want [1 3]", l.WaitingThreads)
	}
}
