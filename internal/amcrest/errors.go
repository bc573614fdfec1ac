package amcrest

import "errors"

// Domain-specific errors for camera operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrUnavailable indicates a transient I/O failure talking to the
	// camera. Callers recover locally (log, skip, retry later).
	ErrUnavailable = errors.New("amcrest: device unavailable")

	// ErrAuthFailed indicates the camera rejected the configured credentials.
	ErrAuthFailed = errors.New("amcrest: authentication failed")

	// ErrBadResponse indicates the camera returned a payload that does not
	// match the expected CGI format.
	ErrBadResponse = errors.New("amcrest: unexpected response format")

	// ErrStreamExhausted is the terminal protocol error: the event stream
	// dropped and its internal retry budget ran out. The bridge treats
	// this as fatal.
	ErrStreamExhausted = errors.New("amcrest: event stream retries exhausted")
)
