package bridge

import (
	"fmt"
)

// manufacturer is the fixed manufacturer string in every descriptor's
// device block.
const manufacturer = "Amcrest"

// deviceBlock is the device-identity section shared by all descriptors.
// Field order is fixed so repeated discovery passes produce byte-identical
// payloads.
type deviceBlock struct {
	Name         string `json:"name"`
	Manufacturer string `json:"manufacturer"`
	Model        string `json:"model"`
	Identifiers  string `json:"identifiers"`
	SWVersion    string `json:"sw_version"`
	ViaDevice    string `json:"via_device"`
}

// descriptor is one discovery message. A shared base plus entity-specific
// overrides, built as a struct so the payload shape stays statically
// checkable.
type descriptor struct {
	AvailabilityTopic string      `json:"availability_topic"`
	QoS               int         `json:"qos"`
	Device            deviceBlock `json:"device"`
	StateTopic        string      `json:"state_topic"`
	PayloadOn         string      `json:"payload_on,omitempty"`
	PayloadOff        string      `json:"payload_off,omitempty"`
	DeviceClass       string      `json:"device_class,omitempty"`
	UnitOfMeasurement string      `json:"unit_of_measurement,omitempty"`
	Icon              string      `json:"icon,omitempty"`
	ValueTemplate     string      `json:"value_template,omitempty"`
	EntityCategory    string      `json:"entity_category,omitempty"`
	EnabledByDefault  *bool       `json:"enabled_by_default,omitempty"`
	Name              string      `json:"name"`
	UniqueID          string      `json:"unique_id"`
}

// discoveryEntity pairs an entity key with its fully built descriptor.
type discoveryEntity struct {
	key  string
	desc descriptor
}

// DiscoveryOptions gates which descriptors are emitted.
type DiscoveryOptions struct {
	// QoS is echoed into each descriptor so consumers subscribe at the
	// bridge's delivery level.
	QoS int

	// StorageEnabled controls the storage sensors; false when the
	// storage poll interval is zero.
	StorageEnabled bool
}

// PublishDiscovery emits the automation-platform descriptors for every
// eligible entity: for each, first an empty retained payload to the
// legacy topic (the bus treats an empty retained payload as deletion),
// then the descriptor JSON to the current topic.
//
// Idempotent: re-running republishes identical descriptors. Runs at most
// once per connection lifetime; any publish failure aborts the pass and
// is escalated by the caller.
func PublishDiscovery(pub Publisher, identity DeviceIdentity, caps CapabilitySet, topics TopicSet, opts DiscoveryOptions) error {
	for _, entity := range discoveryEntities(identity, caps, topics, opts) {
		paths := topics.Discovery[entity.key]

		if err := pub.Publish(paths.Legacy, nil); err != nil {
			return fmt.Errorf("retracting legacy %s descriptor: %w", entity.key, err)
		}
		if err := pub.PublishJSON(paths.Current, entity.desc); err != nil {
			return fmt.Errorf("publishing %s descriptor: %w", entity.key, err)
		}
	}
	return nil
}

// discoveryEntities builds the ordered descriptor list for a device.
func discoveryEntities(identity DeviceIdentity, caps CapabilitySet, topics TopicSet, opts DiscoveryOptions) []discoveryEntity {
	base := descriptor{
		AvailabilityTopic: topics.Status,
		QoS:               opts.QoS,
		Device: deviceBlock{
			Name:         fmt.Sprintf("%s %s", manufacturer, identity.DeviceType),
			Manufacturer: manufacturer,
			Model:        identity.DeviceType,
			Identifiers:  identity.SerialNumber,
			SWVersion:    identity.SoftwareVersion,
			ViaDevice:    namespaceRoot,
		},
	}

	binarySensor := func(key, stateTopic, name string) descriptor {
		d := base
		d.StateTopic = stateTopic
		d.PayloadOn = "on"
		d.PayloadOff = "off"
		d.Name = fmt.Sprintf("%s %s", identity.DisplayName, name)
		d.UniqueID = identity.SerialNumber + "." + key
		return d
	}

	storageSensor := func(key, stateTopic, name, unit string) descriptor {
		d := base
		d.StateTopic = stateTopic
		d.UnitOfMeasurement = unit
		d.Icon = "mdi:micro-sd"
		d.Name = fmt.Sprintf("%s %s", identity.DisplayName, name)
		d.UniqueID = identity.SerialNumber + "." + key
		return d
	}

	// Diagnostic sensors read their value out of the retained config
	// snapshot; they ship disabled so they only cost the users who want
	// them.
	disabled := false
	diagnosticSensor := func(key, field, name, icon string) descriptor {
		d := base
		d.StateTopic = topics.Config
		d.ValueTemplate = fmt.Sprintf("{{ value_json.%s }}", field)
		d.Icon = icon
		d.EntityCategory = "diagnostic"
		d.EnabledByDefault = &disabled
		d.Name = fmt.Sprintf("%s %s", identity.DisplayName, name)
		d.UniqueID = identity.SerialNumber + "." + key
		return d
	}

	var entities []discoveryEntity

	if caps.IsDoorbell {
		entities = append(entities, discoveryEntity{entityDoorbell,
			binarySensor(entityDoorbell, topics.Doorbell, "Doorbell")})
	}
	if caps.SupportsHuman {
		human := binarySensor(entityHuman, topics.Human, "Human")
		human.DeviceClass = "motion"
		entities = append(entities, discoveryEntity{entityHuman, human})
	}

	motion := binarySensor(entityMotion, topics.Motion, "Motion")
	motion.DeviceClass = "motion"
	entities = append(entities, discoveryEntity{entityMotion, motion})

	if opts.StorageEnabled {
		entities = append(entities,
			discoveryEntity{entityStorageUsedPercent,
				storageSensor(entityStorageUsedPercent, topics.StorageUsedPercent, "Storage Used %", "%")},
			discoveryEntity{entityStorageUsed,
				storageSensor(entityStorageUsed, topics.StorageUsed, "Storage Used", "GB")},
			discoveryEntity{entityStorageTotal,
				storageSensor(entityStorageTotal, topics.StorageTotal, "Storage Total", "GB")},
		)
	}

	entities = append(entities,
		discoveryEntity{entityVersion,
			diagnosticSensor(entityVersion, "sw_version", "Version", "mdi:package-up")},
		discoveryEntity{entitySerialNumber,
			diagnosticSensor(entitySerialNumber, "serial_number", "Serial Number", "mdi:alphabetical")},
		discoveryEntity{entityHost,
			diagnosticSensor(entityHost, "host", "Host", "mdi:ip-network")},
	)

	return entities
}
