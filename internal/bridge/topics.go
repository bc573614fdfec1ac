package bridge

import (
	"fmt"
	"strings"

	"github.com/gosimple/slug"
)

// namespaceRoot is the root of the bridge's topic namespace.
const namespaceRoot = "amcrest2mqtt"

// Entity keys for discovery-eligible entities. The order of entityKeys is
// the publish order of the discovery pass.
const (
	entityDoorbell           = "doorbell"
	entityHuman              = "human"
	entityMotion             = "motion"
	entityStorageUsed        = "storage_used"
	entityStorageUsedPercent = "storage_used_percent"
	entityStorageTotal       = "storage_total"
	entityVersion            = "version"
	entitySerialNumber       = "serial_number"
	entityHost               = "host"
)

var entityKeys = []string{
	entityDoorbell,
	entityHuman,
	entityMotion,
	entityStorageUsed,
	entityStorageUsedPercent,
	entityStorageTotal,
	entityVersion,
	entitySerialNumber,
	entityHost,
}

// entityComponents maps each entity to its discovery component type.
var entityComponents = map[string]string{
	entityDoorbell:           "binary_sensor",
	entityHuman:              "binary_sensor",
	entityMotion:             "binary_sensor",
	entityStorageUsed:        "sensor",
	entityStorageUsedPercent: "sensor",
	entityStorageTotal:       "sensor",
	entityVersion:            "sensor",
	entitySerialNumber:       "sensor",
	entityHost:               "sensor",
}

// DiscoveryTopics is the pair of discovery paths for one entity.
type DiscoveryTopics struct {
	// Current is keyed by serial number only and receives the descriptor.
	Current string

	// Legacy is additionally keyed by the display-name slug; it is
	// retracted (empty retained payload) because consumers may have
	// indexed it historically.
	Legacy string
}

// TopicSet is the derived, immutable set of bus topics for one device.
// Every topic is uniquely derived from the serial number, so two devices
// with different serials never collide.
type TopicSet struct {
	Status   string
	Config   string
	Event    string
	Motion   string
	Doorbell string
	Human    string

	StorageUsed        string
	StorageUsedPercent string
	StorageTotal       string

	// Discovery maps entity key to its current/legacy discovery topics.
	Discovery map[string]DiscoveryTopics
}

// NewTopicSet derives the full topic set for a device.
//
// Pure: no I/O, no error conditions. The discovery prefix is the
// automation platform's configured root (default "homeassistant").
func NewTopicSet(identity DeviceIdentity, discoveryPrefix string) TopicSet {
	base := fmt.Sprintf("%s/%s", namespaceRoot, identity.SerialNumber)
	deviceSlug := nameSlug(identity.DisplayName)

	discovery := make(map[string]DiscoveryTopics, len(entityKeys))
	for _, key := range entityKeys {
		component := entityComponents[key]
		discovery[key] = DiscoveryTopics{
			Current: fmt.Sprintf("%s/%s/%s-%s/%s/config",
				discoveryPrefix, component, namespaceRoot, identity.SerialNumber, key),
			Legacy: fmt.Sprintf("%s/%s/%s-%s/%s_%s/config",
				discoveryPrefix, component, namespaceRoot, identity.SerialNumber, deviceSlug, key),
		}
	}

	return TopicSet{
		Status:   base + "/status",
		Config:   base + "/config",
		Event:    base + "/event",
		Motion:   base + "/motion",
		Doorbell: base + "/doorbell",
		Human:    base + "/human",

		StorageUsed:        base + "/storage/used",
		StorageUsedPercent: base + "/storage/used_percent",
		StorageTotal:       base + "/storage/total",

		Discovery: discovery,
	}
}

// nameSlug normalises a display name into the legacy topic slug,
// underscore-separated ("Front Doorbell" → "front_doorbell").
func nameSlug(name string) string {
	return strings.ReplaceAll(slug.Make(name), "-", "_")
}
