package bridge

import "errors"

// Domain-specific errors for the bridge core.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrUnsupportedModel is returned when capability resolution does not
	// recognise the camera's device type. The motion event code is
	// model-family-specific, so an unknown model fails explicitly at
	// startup instead of silently defaulting.
	ErrUnsupportedModel = errors.New("bridge: unsupported device model")

	// ErrMissingSerial is returned when the camera reports an empty
	// serial number. The serial is the topic namespace key; without it
	// no topic can be derived.
	ErrMissingSerial = errors.New("bridge: device reported empty serial number")

	// ErrDeviceUnreachable is returned by the liveness probe when the
	// camera stops answering. Fatal: it means the event stream has
	// silently died upstream of the protocol layer.
	ErrDeviceUnreachable = errors.New("bridge: device unreachable")
)
