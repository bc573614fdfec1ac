package bridge

import (
	"strings"
	"testing"
)

func TestNewTopicSetDerivation(t *testing.T) {
	topics := NewTopicSet(testIdentity(), "homeassistant")

	want := map[string]string{
		"status":       "amcrest2mqtt/9M0AB12CDEF34G5/status",
		"config":       "amcrest2mqtt/9M0AB12CDEF34G5/config",
		"event":        "amcrest2mqtt/9M0AB12CDEF34G5/event",
		"motion":       "amcrest2mqtt/9M0AB12CDEF34G5/motion",
		"doorbell":     "amcrest2mqtt/9M0AB12CDEF34G5/doorbell",
		"human":        "amcrest2mqtt/9M0AB12CDEF34G5/human",
		"used":         "amcrest2mqtt/9M0AB12CDEF34G5/storage/used",
		"used_percent": "amcrest2mqtt/9M0AB12CDEF34G5/storage/used_percent",
		"total":        "amcrest2mqtt/9M0AB12CDEF34G5/storage/total",
	}
	got := map[string]string{
		"status":       topics.Status,
		"config":       topics.Config,
		"event":        topics.Event,
		"motion":       topics.Motion,
		"doorbell":     topics.Doorbell,
		"human":        topics.Human,
		"used":         topics.StorageUsed,
		"used_percent": topics.StorageUsedPercent,
		"total":        topics.StorageTotal,
	}
	for name, topic := range want {
		if got[name] != topic {
			t.Errorf("%s topic = %q, want %q", name, got[name], topic)
		}
	}
}

func TestNewTopicSetDiscoveryPaths(t *testing.T) {
	topics := NewTopicSet(testIdentity(), "homeassistant")

	doorbell := topics.Discovery[entityDoorbell]
	if doorbell.Current != "homeassistant/binary_sensor/amcrest2mqtt-9M0AB12CDEF34G5/doorbell/config" {
		t.Errorf("doorbell current = %q", doorbell.Current)
	}
	if doorbell.Legacy != "homeassistant/binary_sensor/amcrest2mqtt-9M0AB12CDEF34G5/front_doorbell_doorbell/config" {
		t.Errorf("doorbell legacy = %q", doorbell.Legacy)
	}

	version := topics.Discovery[entityVersion]
	if !strings.HasPrefix(version.Current, "homeassistant/sensor/") {
		t.Errorf("version current = %q, want sensor component", version.Current)
	}

	if len(topics.Discovery) != len(entityKeys) {
		t.Errorf("discovery entries = %d, want %d", len(topics.Discovery), len(entityKeys))
	}
}

func TestNewTopicSetSerialDisjointness(t *testing.T) {
	a := NewTopicSet(DeviceIdentity{SerialNumber: "AAAA", DisplayName: "Cam"}, "homeassistant")
	b := NewTopicSet(DeviceIdentity{SerialNumber: "BBBB", DisplayName: "Cam"}, "homeassistant")

	seen := make(map[string]bool)
	collect := func(ts TopicSet) []string {
		out := []string{ts.Status, ts.Config, ts.Event, ts.Motion, ts.Doorbell, ts.Human,
			ts.StorageUsed, ts.StorageUsedPercent, ts.StorageTotal}
		for _, d := range ts.Discovery {
			out = append(out, d.Current, d.Legacy)
		}
		return out
	}

	for _, topic := range collect(a) {
		seen[topic] = true
	}
	for _, topic := range collect(b) {
		if seen[topic] {
			t.Errorf("topic %q shared between devices with different serials", topic)
		}
	}
}

func TestNameSlug(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"spaces to underscores", "Front Doorbell", "front_doorbell"},
		{"mixed punctuation", "Garage (East) Cam", "garage_east_cam"},
		{"already simple", "porch", "porch"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := nameSlug(tt.in); got != tt.want {
				t.Errorf("nameSlug(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
