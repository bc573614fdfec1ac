package mqtt

import (
	"encoding/json"
	"fmt"
)

// Maximum payload size for MQTT messages (1MB).
// This prevents resource exhaustion and aligns with typical broker limits.
const maxPayloadSize = 1 << 20 // 1MB

// Publish sends a retained message at the configured QoS and blocks until
// the library acknowledges delivery (or reports a local error).
//
// The bridge never pipelines unacknowledged publishes: a publish issued
// from a single call site has completed before the next statement runs.
// Concurrent producers (event loop, telemetry timers) are serialised per
// call by an internal mutex; the mutex is never held across calls.
//
// A failed publish is, by policy, fatal to the bridge: callers escalate
// the returned error to the shutdown coordinator. The sole exception is
// the best-effort offline announcement inside Close.
//
// Returns:
//   - error: nil on acknowledged delivery, or a wrapped ErrPublishFailed /
//     ErrNotConnected
func (c *Client) Publish(topic string, payload []byte) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if len(payload) > maxPayloadSize {
		return fmt.Errorf("%w: payload size %d exceeds maximum %d bytes", ErrPublishFailed, len(payload), maxPayloadSize)
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}

	c.pubMu.Lock()
	defer c.pubMu.Unlock()

	token := c.client.Publish(topic, byte(c.cfg.QoS), true, payload)
	if !token.WaitTimeout(defaultPublishTimeout) {
		return fmt.Errorf("%w: timeout after %v", ErrPublishFailed, defaultPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}

	return nil
}

// PublishString publishes a string payload. Equivalent to Publish with
// []byte(payload).
func (c *Client) PublishString(topic string, payload string) error {
	return c.Publish(topic, []byte(payload))
}

// PublishJSON marshals v and publishes the result.
func (c *Client) PublishJSON(topic string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%w: encoding payload: %w", ErrPublishFailed, err)
	}
	return c.Publish(topic, data)
}
