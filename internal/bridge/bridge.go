package bridge

import (
	"context"
	"fmt"

	"github.com/amcrest2mqtt/amcrest2mqtt/internal/amcrest"
	"github.com/amcrest2mqtt/amcrest2mqtt/internal/infrastructure/logging"
)

// Publisher is the bus-facing surface the bridge needs: acknowledged,
// retained publishes. Satisfied by the mqtt client.
type Publisher interface {
	Publish(topic string, payload []byte) error
	PublishString(topic, payload string) error
	PublishJSON(topic string, v any) error
}

// DeviceClient is the camera-facing query surface. Satisfied by the
// amcrest client.
type DeviceClient interface {
	DeviceType(ctx context.Context) (string, error)
	SerialNumber(ctx context.Context) (string, error)
	SoftwareVersion(ctx context.Context) (string, error)
	DisplayName(ctx context.Context) (string, error)
	StorageStats(ctx context.Context) (amcrest.StorageStats, error)
	Host() string
}

// EventSource is the camera's notification channel. Satisfied by the
// amcrest event stream.
type EventSource interface {
	Next(ctx context.Context) (amcrest.Event, error)
}

// configSnapshot is the retained bridge metadata record. The diagnostic
// discovery sensors template their values out of this payload.
type configSnapshot struct {
	Version      string `json:"version"`
	DeviceType   string `json:"device_type"`
	DeviceName   string `json:"device_name"`
	SWVersion    string `json:"sw_version"`
	SerialNumber string `json:"serial_number"`
	Host         string `json:"host"`
}

// Options configures a Bridge.
type Options struct {
	Pub      Publisher
	Events   EventSource
	Identity DeviceIdentity
	Caps     CapabilitySet
	Topics   TopicSet
	Log      *logging.Logger

	// Version is the bridge build version, recorded in the config
	// snapshot.
	Version string

	// Discovery enables the descriptor pass during Start.
	Discovery DiscoveryOptions

	// DiscoveryEnabled gates the whole descriptor pass.
	DiscoveryEnabled bool
}

// Bridge translates the camera's event stream onto the bus for one
// device. Construct with New, announce with Start, then block in Run.
type Bridge struct {
	pub      Publisher
	events   EventSource
	identity DeviceIdentity
	caps     CapabilitySet
	topics   TopicSet
	log      *logging.Logger

	version          string
	discovery        DiscoveryOptions
	discoveryEnabled bool
}

// New builds a Bridge from its collaborators.
func New(opts Options) *Bridge {
	return &Bridge{
		pub:              opts.Pub,
		events:           opts.Events,
		identity:         opts.Identity,
		caps:             opts.Caps,
		topics:           opts.Topics,
		log:              opts.Log,
		version:          opts.Version,
		discovery:        opts.Discovery,
		discoveryEnabled: opts.DiscoveryEnabled,
	}
}

// Start announces the bridge on the bus: the online status, the retained
// config snapshot, and (when enabled) the discovery descriptors. Runs
// once per connection; any publish failure is returned and treated as
// fatal by the caller.
func (b *Bridge) Start(ctx context.Context) error {
	if err := b.pub.PublishString(b.topics.Status, "online"); err != nil {
		return fmt.Errorf("publishing online status: %w", err)
	}

	snapshot := configSnapshot{
		Version:      b.version,
		DeviceType:   b.identity.DeviceType,
		DeviceName:   b.identity.DisplayName,
		SWVersion:    b.identity.SoftwareVersion,
		SerialNumber: b.identity.SerialNumber,
		Host:         b.identity.Host,
	}
	if err := b.pub.PublishJSON(b.topics.Config, snapshot); err != nil {
		return fmt.Errorf("publishing config snapshot: %w", err)
	}

	if b.discoveryEnabled {
		if err := PublishDiscovery(b.pub, b.identity, b.caps, b.topics, b.discovery); err != nil {
			return fmt.Errorf("discovery pass: %w", err)
		}
		b.log.Info("discovery descriptors published",
			"serial_number", b.identity.SerialNumber)
	}

	return nil
}

// Run consumes the event stream until it fails or ctx is cancelled.
// Every event is published raw to the event topic; recognised events
// additionally drive their binary sensor. The returned error is always
// terminal: the stream's retry budget is exhausted, a publish failed,
// or the context ended.
func (b *Bridge) Run(ctx context.Context) error {
	for {
		ev, err := b.events.Next(ctx)
		if err != nil {
			return fmt.Errorf("event stream: %w", err)
		}

		b.log.Info("device event",
			"code", ev.Code,
			"action", ev.Action,
			"index", ev.Index,
			"data", ev.Data)

		if err := b.pub.PublishJSON(b.topics.Event, ev.Payload()); err != nil {
			return fmt.Errorf("publishing event: %w", err)
		}

		mapped, ok := mapEvent(b.caps, ev)
		if !ok {
			continue
		}
		if err := b.pub.PublishString(b.channelTopic(mapped.channel), mapped.payload); err != nil {
			return fmt.Errorf("publishing %s state: %w", mapped.channel, err)
		}
	}
}

// channelTopic resolves a mapped event channel to its state topic.
func (b *Bridge) channelTopic(channel string) string {
	switch channel {
	case entityDoorbell:
		return b.topics.Doorbell
	case entityHuman:
		return b.topics.Human
	default:
		return b.topics.Motion
	}
}
