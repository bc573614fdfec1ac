package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TestRun_MissingRequiredConfig verifies run fails when the required
// settings are absent.
func TestRun_MissingRequiredConfig(t *testing.T) {
	originalEnv := os.Getenv("AMCREST2MQTT_CONFIG")
	defer os.Setenv("AMCREST2MQTT_CONFIG", originalEnv)

	// Point at an empty config: no camera host, no password, no broker
	// username.
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "empty.yaml")
	if err := os.WriteFile(configPath, []byte("{}\n"), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	os.Setenv("AMCREST2MQTT_CONFIG", configPath)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	err := run(ctx, cancel)
	if err == nil {
		t.Fatal("run() should fail without required configuration")
	}
	if !strings.Contains(err.Error(), "config") {
		t.Errorf("error should mention config, got: %v", err)
	}
}

// TestRun_UnreachableCamera verifies run fails when the camera cannot be
// queried for its identity.
func TestRun_UnreachableCamera(t *testing.T) {
	originalEnv := os.Getenv("AMCREST2MQTT_CONFIG")
	defer os.Setenv("AMCREST2MQTT_CONFIG", originalEnv)

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	configContent := `
amcrest:
  host: "127.0.0.1"
  port: 1
  password: "secret"

mqtt:
  auth:
    username: "bridge"

logging:
  level: error
`
	if err := os.WriteFile(configPath, []byte(configContent), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	os.Setenv("AMCREST2MQTT_CONFIG", configPath)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	err := run(ctx, cancel)
	if err == nil {
		t.Fatal("run() should fail when the camera is unreachable")
	}
	if !strings.Contains(err.Error(), "identity") {
		t.Errorf("error should mention identity resolution, got: %v", err)
	}
}

func TestGetConfigPath(t *testing.T) {
	originalEnv := os.Getenv("AMCREST2MQTT_CONFIG")
	defer os.Setenv("AMCREST2MQTT_CONFIG", originalEnv)

	os.Unsetenv("AMCREST2MQTT_CONFIG")
	if got := getConfigPath(); got != defaultConfigPath {
		t.Errorf("getConfigPath() = %q, want %q", got, defaultConfigPath)
	}

	os.Setenv("AMCREST2MQTT_CONFIG", "/etc/amcrest2mqtt/config.yaml")
	if got := getConfigPath(); got != "/etc/amcrest2mqtt/config.yaml" {
		t.Errorf("getConfigPath() = %q, want env override", got)
	}
}
