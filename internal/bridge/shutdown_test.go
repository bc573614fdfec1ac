package bridge

import (
	"errors"
	"sync"
	"testing"
)

// recordingCloser counts Close calls.
type recordingCloser struct {
	mu     sync.Mutex
	closed int
}

func (c *recordingCloser) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed++
}

func (c *recordingCloser) closeCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// recordingExit captures exit codes without terminating the test
// process.
type recordingExit struct {
	mu    sync.Mutex
	codes []int
}

func (e *recordingExit) exit(code int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.codes = append(e.codes, code)
}

func (e *recordingExit) recorded() []int {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]int, len(e.codes))
	copy(out, e.codes)
	return out
}

func TestCoordinatorExitOnce(t *testing.T) {
	transport := &recordingCloser{}
	exit := &recordingExit{}
	c := NewCoordinator(transport, testLogger(), exit.exit)

	c.Exit(1)
	c.Exit(0)
	c.Exit(2)

	if got := transport.closeCount(); got != 1 {
		t.Errorf("transport closed %d times, want 1", got)
	}
	if codes := exit.recorded(); len(codes) != 1 || codes[0] != 1 {
		t.Errorf("exit codes = %v, want [1]", codes)
	}
}

func TestCoordinatorExitNilTransport(t *testing.T) {
	exit := &recordingExit{}
	c := NewCoordinator(nil, testLogger(), exit.exit)

	c.Exit(0)

	if codes := exit.recorded(); len(codes) != 1 || codes[0] != 0 {
		t.Errorf("exit codes = %v, want [0]", codes)
	}
}

func TestCoordinatorRepeatedSignalExitsImmediately(t *testing.T) {
	transport := &recordingCloser{}
	exit := &recordingExit{}
	c := NewCoordinator(transport, testLogger(), exit.exit)

	// Pretend shutdown is already in flight but stuck.
	c.requested.Store(true)

	c.Signal()

	if codes := exit.recorded(); len(codes) != 1 || codes[0] != 1 {
		t.Errorf("exit codes = %v, want [1]", codes)
	}
	// The immediate path performs no transport I/O.
	if got := transport.closeCount(); got != 0 {
		t.Errorf("transport closed %d times on immediate exit, want 0", got)
	}
}

func TestCoordinatorFail(t *testing.T) {
	transport := &recordingCloser{}
	exit := &recordingExit{}
	c := NewCoordinator(transport, testLogger(), exit.exit)

	c.Fail("event stream died", errors.New("retry budget exhausted"), 1)

	if got := transport.closeCount(); got != 1 {
		t.Errorf("transport closed %d times, want 1", got)
	}
	if codes := exit.recorded(); len(codes) != 1 || codes[0] != 1 {
		t.Errorf("exit codes = %v, want [1]", codes)
	}
}
