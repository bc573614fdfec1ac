package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the amcrest2mqtt bridge.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Amcrest   AmcrestConfig   `yaml:"amcrest"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	Discovery DiscoveryConfig `yaml:"discovery"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// AmcrestConfig contains camera connection settings.
type AmcrestConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`

	// NameOverride replaces the camera-reported display name when set.
	// The display name feeds the legacy discovery topic slug.
	NameOverride string `yaml:"name_override"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker MQTTBrokerConfig `yaml:"broker"`
	Auth   MQTTAuthConfig   `yaml:"auth"`
	QoS    int              `yaml:"qos"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host string    `yaml:"host"`
	Port int       `yaml:"port"`
	TLS  TLSConfig `yaml:"tls"`
}

// TLSConfig contains TLS material for the broker connection.
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CAFile   string `yaml:"ca_file"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// DiscoveryConfig contains Home Assistant discovery settings.
type DiscoveryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Prefix  string `yaml:"prefix"`
}

// TelemetryConfig contains periodic telemetry task settings.
type TelemetryConfig struct {
	// StoragePollInterval is the interval between storage usage polls.
	// Zero disables storage polling entirely: the task is never armed and
	// no storage discovery descriptors are published.
	StoragePollInterval time.Duration `yaml:"storage_poll_interval"`

	// LivenessInterval is the interval between device reachability probes.
	// Zero disables the probe.
	LivenessInterval time.Duration `yaml:"liveness_interval"`
}

// InfluxDBConfig contains the optional telemetry history sink settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: AMCREST2MQTT_SECTION_KEY
// For example: AMCREST2MQTT_AMCREST_HOST, AMCREST2MQTT_MQTT_USERNAME
//
// Parameters:
//   - path: Path to the YAML configuration file; if the file does not exist
//     the file step is skipped and only defaults plus environment apply
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If the file cannot be parsed or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config file: %w", err)
			}
		case os.IsNotExist(err):
			// Environment-only deployments (containers) carry no file.
		default:
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Amcrest: AmcrestConfig{
			Port:     80,
			Username: "admin",
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host: "localhost",
				Port: 1883,
			},
			QoS: 0,
		},
		Discovery: DiscoveryConfig{
			Enabled: false,
			Prefix:  "homeassistant",
		},
		Telemetry: TelemetryConfig{
			StoragePollInterval: time.Hour,
			LivenessInterval:    30 * time.Second,
		},
		InfluxDB: InfluxDBConfig{
			BatchSize:     20,
			FlushInterval: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: AMCREST2MQTT_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Amcrest
	if v := os.Getenv("AMCREST2MQTT_AMCREST_HOST"); v != "" {
		cfg.Amcrest.Host = v
	}
	if v, ok := envInt("AMCREST2MQTT_AMCREST_PORT"); ok {
		cfg.Amcrest.Port = v
	}
	if v := os.Getenv("AMCREST2MQTT_AMCREST_USERNAME"); v != "" {
		cfg.Amcrest.Username = v
	}
	if v := os.Getenv("AMCREST2MQTT_AMCREST_PASSWORD"); v != "" {
		cfg.Amcrest.Password = v
	}
	if v := os.Getenv("AMCREST2MQTT_AMCREST_NAME"); v != "" {
		cfg.Amcrest.NameOverride = v
	}

	// MQTT
	if v := os.Getenv("AMCREST2MQTT_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v, ok := envInt("AMCREST2MQTT_MQTT_PORT"); ok {
		cfg.MQTT.Broker.Port = v
	}
	if v := os.Getenv("AMCREST2MQTT_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("AMCREST2MQTT_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}
	if v, ok := envInt("AMCREST2MQTT_MQTT_QOS"); ok {
		cfg.MQTT.QoS = v
	}

	// Discovery
	if v := os.Getenv("AMCREST2MQTT_DISCOVERY_ENABLED"); v != "" {
		cfg.Discovery.Enabled = v == "true"
	}
	if v := os.Getenv("AMCREST2MQTT_DISCOVERY_PREFIX"); v != "" {
		cfg.Discovery.Prefix = v
	}

	// Telemetry
	if v := os.Getenv("AMCREST2MQTT_STORAGE_POLL_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Telemetry.StoragePollInterval = d
		}
	}

	// InfluxDB
	if v := os.Getenv("AMCREST2MQTT_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
}

// envInt reads an integer environment variable.
// Returns false if the variable is unset or not a valid integer.
func envInt(name string) (int, bool) {
	v := os.Getenv(name)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Validate checks the configuration for errors.
//
// Missing required values are a startup-fatal condition: the process must
// exit before any broker connection is attempted.
//
// Returns:
//   - error: Description of all validation failures, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// Amcrest validation
	if c.Amcrest.Host == "" {
		errs = append(errs, "amcrest.host is required (set AMCREST2MQTT_AMCREST_HOST)")
	}
	if c.Amcrest.Password == "" {
		errs = append(errs, "amcrest.password is required (set AMCREST2MQTT_AMCREST_PASSWORD)")
	}
	if c.Amcrest.Port < 1 || c.Amcrest.Port > 65535 {
		errs = append(errs, "amcrest.port must be between 1 and 65535")
	}

	// MQTT validation
	if c.MQTT.Auth.Username == "" {
		errs = append(errs, "mqtt.auth.username is required (set AMCREST2MQTT_MQTT_USERNAME)")
	}
	if c.MQTT.Broker.Port < 1 || c.MQTT.Broker.Port > 65535 {
		errs = append(errs, "mqtt.broker.port must be between 1 and 65535")
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	// Telemetry validation
	if c.Telemetry.StoragePollInterval < 0 {
		errs = append(errs, "telemetry.storage_poll_interval must not be negative")
	}
	if c.Telemetry.LivenessInterval < 0 {
		errs = append(errs, "telemetry.liveness_interval must not be negative")
	}

	// InfluxDB validation
	if c.InfluxDB.Enabled && c.InfluxDB.URL == "" {
		errs = append(errs, "influxdb.url is required when influxdb is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}
