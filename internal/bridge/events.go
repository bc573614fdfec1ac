package bridge

import "github.com/amcrest2mqtt/amcrest2mqtt/internal/amcrest"

// mappedEvent is the bus-facing form of a recognised camera event.
type mappedEvent struct {
	// channel is the entity key whose state topic receives the payload.
	channel string

	// payload is the binary sensor state, "on" or "off".
	payload string
}

// mapEvent translates a raw camera event into a binary-sensor state
// change. Pure: same event and capability set always yield the same
// mapping.
//
// Returns:
//   - mappedEvent: the channel and payload to publish
//   - bool: false when the event has no mapping; the caller still
//     publishes the raw event and logs it
func mapEvent(caps CapabilitySet, ev amcrest.Event) (mappedEvent, bool) {
	switch {
	case ev.Code == caps.MotionCode:
		return mappedEvent{entityMotion, onOff(ev.Action == "Start")}, true

	case ev.Code == eventCodeCrossRegion && caps.SupportsHuman:
		if dataString(ev, "ObjectType") != "Human" {
			return mappedEvent{}, false
		}
		return mappedEvent{entityHuman, onOff(ev.Action == "Start")}, true

	case ev.Code == eventCodeTalkAction:
		// A talk invitation is the press; any other talk action (hangup,
		// answer) releases the sensor.
		return mappedEvent{entityDoorbell, onOff(dataString(ev, "Action") == "Invite")}, true
	}

	return mappedEvent{}, false
}

// onOff renders a boolean as the binary sensor payload.
func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}

// dataString extracts a string field from the event's data payload,
// returning "" when absent or non-string.
func dataString(ev amcrest.Event, key string) string {
	s, _ := ev.Data[key].(string)
	return s
}
