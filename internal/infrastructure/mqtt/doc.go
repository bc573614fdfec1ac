// Package mqtt owns the bridge's broker connection lifecycle.
//
// This package manages:
//   - Connection to the broker with Last Will and Testament registration
//   - Retained, acknowledgement-blocking publishing at a uniform QoS
//   - Escalation of unexpected disconnects (always fatal to the bridge)
//   - The graceful offline announcement during shutdown
//
// # Lifecycle
//
// The connection moves through an explicit state machine:
//
//	Disconnected → Connecting → Connected → Closing → Disconnected
//
// There is no reconnect path. Transient network hiccups are absorbed by
// the library's keepalive machinery; a full connection loss surfaces via
// SetOnUnexpectedDisconnect and terminates the process, because a bridge
// running half-connected would silently drop events.
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT, "amcrest2mqtt_"+serial, mqtt.Will{
//	    Topic:   topics.Status,
//	    Payload: "offline",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	client.PublishString(topics.Status, "online")
package mqtt
