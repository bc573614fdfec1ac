package bridge

import (
	"os"
	"sync"
	"sync/atomic"

	"github.com/amcrest2mqtt/amcrest2mqtt/internal/infrastructure/logging"
)

// Closer is the transport teardown surface. The bus client's Close
// publishes the offline status best-effort before disconnecting.
type Closer interface {
	Close()
}

// Coordinator serialises process shutdown. However many goroutines race
// to report a fatal condition or a signal, exactly one shutdown sequence
// runs and exactly one exit code wins.
type Coordinator struct {
	transport Closer
	log       *logging.Logger

	// exit is os.Exit in production, injectable for tests.
	exit func(code int)

	requested atomic.Bool
	once      sync.Once
}

// NewCoordinator builds a Coordinator around the bus transport. A nil
// exit func defaults to os.Exit.
func NewCoordinator(transport Closer, log *logging.Logger, exit func(code int)) *Coordinator {
	if exit == nil {
		exit = os.Exit
	}
	return &Coordinator{
		transport: transport,
		log:       log,
		exit:      exit,
	}
}

// Signal handles one termination signal. The first signal starts a
// graceful shutdown in the background; a repeated signal means the
// graceful path is stuck, so the process exits immediately with no
// further I/O.
func (c *Coordinator) Signal() {
	if c.requested.Swap(true) {
		c.exit(1)
		return
	}
	c.log.Info("termination signal received, shutting down")
	go c.Exit(0)
}

// Exit runs the shutdown sequence at most once: close the bus transport
// (which publishes the offline status best-effort), then exit with the
// given code. Later calls with a different code are ignored; the first
// caller wins.
func (c *Coordinator) Exit(code int) {
	c.once.Do(func() {
		c.requested.Store(true)
		if c.transport != nil {
			c.transport.Close()
		}
		c.log.Info("exiting", "code", code)
		c.exit(code)
	})
}

// Fail logs a fatal condition and exits with the given code.
func (c *Coordinator) Fail(msg string, err error, code int) {
	c.log.Error(msg, "error", err)
	c.Exit(code)
}
