package bridge

import (
	"context"
	"fmt"
	"strings"
)

// DeviceIdentity is the immutable identity record for the bridged camera.
// Resolved once at startup, before any concurrent activity begins, and
// passed by value into every component; never mutated afterwards.
type DeviceIdentity struct {
	DeviceType      string
	SerialNumber    string
	SoftwareVersion string
	DisplayName     string
	Host            string
}

// ResolveIdentity queries the device's static descriptor fields.
//
// Parameters:
//   - ctx: Context for the descriptor queries
//   - dev: Device collaborator
//   - nameOverride: replaces the camera-reported display name when set
//
// Returns:
//   - DeviceIdentity: resolved identity
//   - error: a query failure, or ErrMissingSerial when the camera reports
//     no serial number (the topic namespace key)
func ResolveIdentity(ctx context.Context, dev DeviceClient, nameOverride string) (DeviceIdentity, error) {
	deviceType, err := dev.DeviceType(ctx)
	if err != nil {
		return DeviceIdentity{}, fmt.Errorf("querying device type: %w", err)
	}

	serial, err := dev.SerialNumber(ctx)
	if err != nil {
		return DeviceIdentity{}, fmt.Errorf("querying serial number: %w", err)
	}
	serial = strings.TrimSpace(serial)
	if serial == "" {
		return DeviceIdentity{}, ErrMissingSerial
	}

	version, err := dev.SoftwareVersion(ctx)
	if err != nil {
		return DeviceIdentity{}, fmt.Errorf("querying software version: %w", err)
	}

	name := nameOverride
	if name == "" {
		name, err = dev.DisplayName(ctx)
		if err != nil {
			return DeviceIdentity{}, fmt.Errorf("querying display name: %w", err)
		}
	}

	return DeviceIdentity{
		DeviceType:      strings.TrimSpace(deviceType),
		SerialNumber:    serial,
		SoftwareVersion: strings.TrimSpace(version),
		DisplayName:     strings.TrimSpace(name),
		Host:            dev.Host(),
	}, nil
}
