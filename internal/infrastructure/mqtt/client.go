package mqtt

import (
	"fmt"
	"sync"
	"sync/atomic"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/amcrest2mqtt/amcrest2mqtt/internal/infrastructure/config"
)

// Will describes the Last Will and Testament registered before dialing.
// The broker publishes it (retained) if the bridge disconnects without a
// clean close.
type Will struct {
	Topic   string
	Payload string
}

// Client wraps paho.mqtt.golang as the bridge's transport lifecycle owner.
//
// Every steady-state publish is retained, uses the configured QoS uniformly,
// and blocks until the library acknowledges delivery. An unexpected
// connection drop (one not initiated by Close) is reported through the
// unexpected-disconnect callback; the bridge treats it as fatal and never
// runs its own reconnect loop.
//
// Thread Safety:
//   - Publish is safe for concurrent use from multiple goroutines; calls
//     are mutually exclusive per publish, with no lock held across calls.
type Client struct {
	client pahomqtt.Client
	cfg    config.MQTTConfig

	// statusTopic receives the best-effort "offline" announcement on Close.
	statusTopic string

	state atomic.Int32

	// pubMu serialises individual publish calls.
	pubMu sync.Mutex

	// onUnexpectedDisconnect is invoked when the background connection
	// drops for a reason other than a locally-issued disconnect.
	onUnexpectedDisconnect func(err error)
	callbackMu             sync.RWMutex
}

// Connect establishes a connection to the MQTT broker.
//
// It performs the following setup:
//  1. Builds connection options from config (broker URL, auth, TLS material)
//  2. Registers the Last Will and Testament before dialing
//  3. Dials and blocks until the broker acknowledges the connection
//
// Parameters:
//   - cfg: MQTT configuration
//   - clientID: stable client identifier (derived from the device serial)
//   - will: LWT registration; will.Topic doubles as the status topic for
//     the graceful offline announcement on Close
//
// Returns:
//   - *Client: Connected client ready for use
//   - error: ErrInvalidTLS or ErrConnectionFailed
func Connect(cfg config.MQTTConfig, clientID string, will Will) (*Client, error) {
	opts, err := buildClientOptions(cfg, clientID, will)
	if err != nil {
		return nil, err
	}

	c := &Client{
		cfg:         cfg,
		statusTopic: will.Topic,
	}

	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		c.handleConnectionLost(err)
	})

	c.setState(StateConnecting)
	c.client = pahomqtt.NewClient(opts)

	token := c.client.Connect()
	if !token.WaitTimeout(defaultConnectTimeout) {
		c.setState(StateDisconnected)
		return nil, fmt.Errorf("%w: timeout after %v", ErrConnectionFailed, defaultConnectTimeout)
	}
	if err := token.Error(); err != nil {
		c.setState(StateDisconnected)
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	c.setState(StateConnected)
	return c, nil
}

// handleConnectionLost runs on the library's network goroutine when the
// connection drops. A drop during Closing is the local disconnect itself;
// anything else escalates.
func (c *Client) handleConnectionLost(err error) {
	if s := c.State(); s == StateClosing || s == StateDisconnected {
		return
	}
	c.setState(StateDisconnected)

	c.callbackMu.RLock()
	callback := c.onUnexpectedDisconnect
	c.callbackMu.RUnlock()
	if callback != nil {
		callback(err)
	}
}

// SetOnUnexpectedDisconnect sets the callback invoked when the background
// connection drops unexpectedly. The callback may run concurrently with an
// in-flight Publish.
func (c *Client) SetOnUnexpectedDisconnect(callback func(err error)) {
	c.callbackMu.Lock()
	c.onUnexpectedDisconnect = callback
	c.callbackMu.Unlock()
}

// State returns the current connection state.
func (c *Client) State() ConnectionState {
	return ConnectionState(c.state.Load())
}

func (c *Client) setState(s ConnectionState) {
	c.state.Store(int32(s))
}

// IsConnected reports whether the broker connection is up.
func (c *Client) IsConnected() bool {
	return c.State() == StateConnected && c.client != nil && c.client.IsConnected()
}

// Close drains and tears down the connection.
//
// If still connected it publishes "offline" to the status topic
// (retained, best-effort: a failure here never blocks shutdown), halts the
// library's background activity, and disconnects. Close is safe to call on
// a client whose connection already dropped, and safe to call twice.
func (c *Client) Close() {
	if c.client == nil {
		return
	}
	if s := c.State(); s == StateClosing || s == StateDisconnected {
		return
	}
	c.setState(StateClosing)

	if c.client.IsConnected() {
		// Best-effort: the one publish allowed to fail silently.
		token := c.client.Publish(c.statusTopic, byte(c.cfg.QoS), true, "offline")
		token.WaitTimeout(defaultPublishTimeout)
	}

	c.client.Disconnect(defaultDisconnectQuiesce)
	c.setState(StateDisconnected)
}
