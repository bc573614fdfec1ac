package bridge

import (
	"fmt"
	"strings"
)

// Event codes emitted by the camera's notification channel.
const (
	// eventCodeProfileAlarm is the motion code used by the AD110 line.
	eventCodeProfileAlarm = "ProfileAlarmTransmit"

	// eventCodeVideoMotion is the motion code used by every other model.
	eventCodeVideoMotion = "VideoMotion"

	// eventCodeCrossRegion carries smart detection results; the payload's
	// ObjectType field distinguishes humans from vehicles etc.
	eventCodeCrossRegion = "CrossRegionDetection"

	// eventCodeTalkAction fires when a doorbell press invites a talk
	// session.
	eventCodeTalkAction = "_DoTalkAction_"
)

// CapabilitySet holds the derived, immutable capability flags for one
// device. Computed once from the device type at startup; gates which
// discovery descriptors and event mappings are active.
type CapabilitySet struct {
	IsDoorbell    bool
	SupportsHuman bool

	// MotionCode is the event code this model family uses for motion.
	MotionCode string
}

// doorbellModels is the fixed lookup table for the doorbell families.
// The motion code is model-family-specific and not derivable from any
// documented capability, hence the explicit table.
var doorbellModels = map[string]CapabilitySet{
	"AD110": {IsDoorbell: true, SupportsHuman: false, MotionCode: eventCodeProfileAlarm},
	"AD410": {IsDoorbell: true, SupportsHuman: true, MotionCode: eventCodeVideoMotion},
}

// ResolveCapabilities computes the CapabilitySet for a device type.
//
// Doorbell models resolve from the fixed table; the IP camera families
// (IP2M, IP4M, IP8M, IPC, …) resolve to the generic camera profile. Any
// other device type is an explicit unsupported-model condition, fatal at
// startup.
func ResolveCapabilities(deviceType string) (CapabilitySet, error) {
	if caps, ok := doorbellModels[deviceType]; ok {
		return caps, nil
	}
	if strings.HasPrefix(deviceType, "IP") {
		return CapabilitySet{MotionCode: eventCodeVideoMotion}, nil
	}
	return CapabilitySet{}, fmt.Errorf("%w: %q", ErrUnsupportedModel, deviceType)
}
