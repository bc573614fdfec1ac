// Package bridge contains the device-to-bus translation core.
//
// This package manages:
//   - Device identity resolution and model capability lookup
//   - Topic derivation (state, discovery, status) keyed by serial number
//   - Automation-platform discovery descriptors
//   - Event stream mapping onto binary sensor state topics
//   - Periodic telemetry (storage polling, liveness probing)
//   - The single-exit shutdown coordinator
//
// # Lifecycle
//
// Startup is strictly sequential: resolve identity, resolve
// capabilities, derive topics, connect the bus transport, announce
// (status, config snapshot, discovery), then start the telemetry loops
// and block in the event loop. Identity and capabilities are resolved
// once, before any concurrent activity, and are immutable afterwards.
//
// Every failure past the announcement is fatal by design. The bridge
// does not reconnect or degrade: a dead event stream, a failed publish,
// or an unreachable device terminates the process so a supervisor can
// restart it from a clean state.
//
// # Collaborators
//
// The package depends on small interfaces (Publisher, DeviceClient,
// EventSource) rather than the concrete mqtt and amcrest clients, so
// the core translation logic tests without a broker or a camera.
package bridge
