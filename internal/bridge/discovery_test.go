package bridge

import (
	"bytes"
	"encoding/json"
	"testing"
)

func discoveryFixtures(t *testing.T) (DeviceIdentity, CapabilitySet, TopicSet) {
	t.Helper()
	identity := testIdentity()
	caps, err := ResolveCapabilities(identity.DeviceType)
	if err != nil {
		t.Fatalf("ResolveCapabilities() error = %v", err)
	}
	return identity, caps, NewTopicSet(identity, "homeassistant")
}

func TestPublishDiscoveryEntityGating(t *testing.T) {
	identity, _, topics := discoveryFixtures(t)

	tests := []struct {
		name    string
		caps    CapabilitySet
		storage bool
		want    []string
	}{
		{
			name:    "AD410 with storage",
			caps:    CapabilitySet{IsDoorbell: true, SupportsHuman: true, MotionCode: eventCodeVideoMotion},
			storage: true,
			want: []string{
				entityDoorbell, entityHuman, entityMotion,
				entityStorageUsedPercent, entityStorageUsed, entityStorageTotal,
				entityVersion, entitySerialNumber, entityHost,
			},
		},
		{
			name: "AD110 without storage",
			caps: CapabilitySet{IsDoorbell: true, MotionCode: eventCodeProfileAlarm},
			want: []string{
				entityDoorbell, entityMotion,
				entityVersion, entitySerialNumber, entityHost,
			},
		},
		{
			name:    "generic camera with storage",
			caps:    CapabilitySet{MotionCode: eventCodeVideoMotion},
			storage: true,
			want: []string{
				entityMotion,
				entityStorageUsedPercent, entityStorageUsed, entityStorageTotal,
				entityVersion, entitySerialNumber, entityHost,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pub := &recordingPublisher{}
			opts := DiscoveryOptions{QoS: 0, StorageEnabled: tt.storage}
			if err := PublishDiscovery(pub, identity, tt.caps, topics, opts); err != nil {
				t.Fatalf("PublishDiscovery() error = %v", err)
			}

			// Each entity publishes a legacy retraction then a descriptor.
			messages := pub.recorded()
			if len(messages) != 2*len(tt.want) {
				t.Fatalf("publish count = %d, want %d", len(messages), 2*len(tt.want))
			}
			for i, key := range tt.want {
				retract, descriptor := messages[2*i], messages[2*i+1]
				if retract.topic != topics.Discovery[key].Legacy {
					t.Errorf("message %d topic = %q, want legacy %s", 2*i, retract.topic, key)
				}
				if len(retract.payload) != 0 {
					t.Errorf("legacy %s retraction payload = %q, want empty", key, retract.payload)
				}
				if descriptor.topic != topics.Discovery[key].Current {
					t.Errorf("message %d topic = %q, want current %s", 2*i+1, descriptor.topic, key)
				}
			}
		})
	}
}

func TestPublishDiscoveryIdempotent(t *testing.T) {
	identity, caps, topics := discoveryFixtures(t)
	opts := DiscoveryOptions{QoS: 1, StorageEnabled: true}

	first := &recordingPublisher{}
	second := &recordingPublisher{}
	if err := PublishDiscovery(first, identity, caps, topics, opts); err != nil {
		t.Fatalf("first pass error = %v", err)
	}
	if err := PublishDiscovery(second, identity, caps, topics, opts); err != nil {
		t.Fatalf("second pass error = %v", err)
	}

	a, b := first.recorded(), second.recorded()
	if len(a) != len(b) {
		t.Fatalf("pass sizes differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].topic != b[i].topic || !bytes.Equal(a[i].payload, b[i].payload) {
			t.Errorf("message %d differs between passes: %q vs %q", i, a[i].payload, b[i].payload)
		}
	}
}

func TestPublishDiscoveryDescriptorContent(t *testing.T) {
	identity, caps, topics := discoveryFixtures(t)
	pub := &recordingPublisher{}
	opts := DiscoveryOptions{QoS: 1, StorageEnabled: true}
	if err := PublishDiscovery(pub, identity, caps, topics, opts); err != nil {
		t.Fatalf("PublishDiscovery() error = %v", err)
	}

	var doorbell map[string]any
	if err := json.Unmarshal(pub.payloadFor(t, topics.Discovery[entityDoorbell].Current), &doorbell); err != nil {
		t.Fatalf("doorbell descriptor not JSON: %v", err)
	}
	if doorbell["availability_topic"] != topics.Status {
		t.Errorf("availability_topic = %v, want %q", doorbell["availability_topic"], topics.Status)
	}
	if doorbell["state_topic"] != topics.Doorbell {
		t.Errorf("state_topic = %v, want %q", doorbell["state_topic"], topics.Doorbell)
	}
	if doorbell["payload_on"] != "on" || doorbell["payload_off"] != "off" {
		t.Errorf("payloads = %v/%v, want on/off", doorbell["payload_on"], doorbell["payload_off"])
	}
	if doorbell["unique_id"] != identity.SerialNumber+".doorbell" {
		t.Errorf("unique_id = %v", doorbell["unique_id"])
	}
	if doorbell["name"] != "Front Doorbell Doorbell" {
		t.Errorf("name = %v", doorbell["name"])
	}
	device, ok := doorbell["device"].(map[string]any)
	if !ok {
		t.Fatalf("device block missing: %v", doorbell["device"])
	}
	if device["name"] != "Amcrest AD410" {
		t.Errorf("device name = %v", device["name"])
	}
	if device["identifiers"] != identity.SerialNumber {
		t.Errorf("device identifiers = %v", device["identifiers"])
	}
	if device["via_device"] != "amcrest2mqtt" {
		t.Errorf("via_device = %v", device["via_device"])
	}

	var human map[string]any
	if err := json.Unmarshal(pub.payloadFor(t, topics.Discovery[entityHuman].Current), &human); err != nil {
		t.Fatalf("human descriptor not JSON: %v", err)
	}
	if human["device_class"] != "motion" {
		t.Errorf("human device_class = %v, want motion", human["device_class"])
	}

	var version map[string]any
	if err := json.Unmarshal(pub.payloadFor(t, topics.Discovery[entityVersion].Current), &version); err != nil {
		t.Fatalf("version descriptor not JSON: %v", err)
	}
	if version["state_topic"] != topics.Config {
		t.Errorf("version state_topic = %v, want config topic", version["state_topic"])
	}
	if version["value_template"] != "{{ value_json.sw_version }}" {
		t.Errorf("version value_template = %v", version["value_template"])
	}
	if version["entity_category"] != "diagnostic" {
		t.Errorf("version entity_category = %v", version["entity_category"])
	}
	if enabled, ok := version["enabled_by_default"].(bool); !ok || enabled {
		t.Errorf("enabled_by_default = %v, want false", version["enabled_by_default"])
	}

	var storage map[string]any
	if err := json.Unmarshal(pub.payloadFor(t, topics.Discovery[entityStorageUsed].Current), &storage); err != nil {
		t.Fatalf("storage descriptor not JSON: %v", err)
	}
	if storage["unit_of_measurement"] != "GB" {
		t.Errorf("storage unit = %v, want GB", storage["unit_of_measurement"])
	}
}

func TestPublishDiscoveryFailureAborts(t *testing.T) {
	identity, caps, topics := discoveryFixtures(t)
	pub := &recordingPublisher{failOn: topics.Discovery[entityHuman].Current}
	opts := DiscoveryOptions{StorageEnabled: true}

	if err := PublishDiscovery(pub, identity, caps, topics, opts); err == nil {
		t.Fatal("PublishDiscovery() should fail when a descriptor publish fails")
	}

	// Nothing past the failed entity was attempted.
	for _, m := range pub.recorded() {
		if m.topic == topics.Discovery[entityMotion].Current {
			t.Error("motion descriptor published after an earlier failure")
		}
	}
}
