// amcrest2mqtt - Amcrest camera to MQTT bridge
//
// This is the main entry point for the amcrest2mqtt bridge. The bridge
// connects one Amcrest camera (doorbell or IP camera) to an MQTT broker:
//   - Real-time camera events onto per-device state topics
//   - Home Assistant discovery descriptors for automatic entity setup
//   - Periodic storage telemetry and a device liveness probe
//
// The process is deliberately single-shot: any unrecoverable failure
// terminates it with a non-zero exit code so a supervisor (systemd,
// container runtime) restarts it from a clean state.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/amcrest2mqtt/amcrest2mqtt/internal/amcrest"
	"github.com/amcrest2mqtt/amcrest2mqtt/internal/bridge"
	"github.com/amcrest2mqtt/amcrest2mqtt/internal/infrastructure/config"
	"github.com/amcrest2mqtt/amcrest2mqtt/internal/infrastructure/influxdb"
	"github.com/amcrest2mqtt/amcrest2mqtt/internal/infrastructure/logging"
	"github.com/amcrest2mqtt/amcrest2mqtt/internal/infrastructure/mqtt"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

// identityTimeout bounds the startup descriptor queries against the
// camera.
const identityTimeout = 30 * time.Second

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// run only returns for failures that happen before the broker
	// connection exists; everything after routes through the shutdown
	// coordinator, which owns the exit code.
	if err := run(ctx, cancel); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the application logic, separated from main for testability.
//
// Parameters:
//   - ctx: Lifecycle context; cancelled when shutdown begins
//   - cancel: Cancels ctx so the telemetry loops and event loop stop
//
// Returns:
//   - error: a pre-connection startup failure; never returns after the
//     broker connection is established
func run(ctx context.Context, cancel context.CancelFunc) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting amcrest2mqtt",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)

	// Resolve the camera's identity and capabilities before touching the
	// broker: the serial number keys every topic.
	dev := amcrest.New(amcrest.Config{
		Host:     cfg.Amcrest.Host,
		Port:     cfg.Amcrest.Port,
		Username: cfg.Amcrest.Username,
		Password: cfg.Amcrest.Password,
	})

	identityCtx, identityCancel := context.WithTimeout(ctx, identityTimeout)
	defer identityCancel()
	identity, err := bridge.ResolveIdentity(identityCtx, dev, cfg.Amcrest.NameOverride)
	if err != nil {
		return fmt.Errorf("resolving device identity: %w", err)
	}
	log.Info("device identified",
		"device_type", identity.DeviceType,
		"serial_number", identity.SerialNumber,
		"sw_version", identity.SoftwareVersion,
		"name", identity.DisplayName,
	)

	caps, err := bridge.ResolveCapabilities(identity.DeviceType)
	if err != nil {
		return fmt.Errorf("resolving capabilities: %w", err)
	}

	topics := bridge.NewTopicSet(identity, cfg.Discovery.Prefix)

	// Connect to the broker with the last-will registered before the
	// network dial, so an unclean death always flips the status topic.
	mqttClient, err := mqtt.Connect(cfg.MQTT, "amcrest2mqtt_"+identity.SerialNumber, mqtt.Will{
		Topic:   topics.Status,
		Payload: "offline",
	})
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"qos", cfg.MQTT.QoS,
	)

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			mqttClient.Close()
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"bucket", cfg.InfluxDB.Bucket,
		)
	}

	// From here on, every exit path runs through the coordinator: close
	// the sinks, announce offline, exit with the right code.
	coordinator := bridge.NewCoordinator(teardown{mqtt: mqttClient, influx: influxClient}, log, nil)

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	go func() {
		for range signals {
			cancel()
			coordinator.Signal()
		}
	}()

	mqttClient.SetOnUnexpectedDisconnect(func(err error) {
		cancel()
		coordinator.Fail("MQTT connection lost", err, 1)
	})

	scheduler := bridge.NewScheduler(bridge.SchedulerOptions{
		Device:           dev,
		Pub:              mqttClient,
		Topics:           topics,
		Identity:         identity,
		History:          influxClient,
		StorageInterval:  cfg.Telemetry.StoragePollInterval,
		LivenessInterval: cfg.Telemetry.LivenessInterval,
		Log:              log,
		Fatal: func(msg string, err error) {
			cancel()
			coordinator.Fail(msg, err, 1)
		},
	})

	stream := dev.StreamEvents(amcrest.StreamOptions{})
	b := bridge.New(bridge.Options{
		Pub:              mqttClient,
		Events:           stream,
		Identity:         identity,
		Caps:             caps,
		Topics:           topics,
		Log:              log,
		Version:          version,
		DiscoveryEnabled: cfg.Discovery.Enabled,
		Discovery: bridge.DiscoveryOptions{
			QoS:            cfg.MQTT.QoS,
			StorageEnabled: cfg.Telemetry.StoragePollInterval > 0,
		},
	})

	if err := b.Start(ctx); err != nil {
		coordinator.Fail("bus announcement failed", err, 1)
		return nil
	}

	scheduler.Start(ctx)
	log.Info("initialisation complete, consuming events")

	err = b.Run(ctx)
	stream.Close()
	if ctx.Err() != nil {
		// Shutdown is already in flight; the signal path owns the exit.
		coordinator.Exit(0)
		return nil
	}
	coordinator.Fail("event loop terminated", err, 1)
	return nil
}

// teardown closes the bridge's sinks in dependency order: flush the
// telemetry history first, then disconnect from the broker (which
// publishes the offline status best-effort).
type teardown struct {
	mqtt   *mqtt.Client
	influx *influxdb.Client
}

func (t teardown) Close() {
	if t.influx != nil {
		_ = t.influx.Close()
	}
	t.mqtt.Close()
}

// getConfigPath returns the configuration file path.
// Uses AMCREST2MQTT_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("AMCREST2MQTT_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
