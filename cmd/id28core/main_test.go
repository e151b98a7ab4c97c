package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// offlineConfig writes a config that needs no broker, no InfluxDB, and no
// queue-server install, so run() can be exercised in isolation.
func offlineConfig(t *testing.T, devicesPath string) string {
	t.Helper()
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")

	content := `
instrument:
  id: test-28id

devices:
  path: "` + devicesPath + `"

database:
  path: "` + filepath.Join(dir, "test.db") + `"
  wal_mode: true
  busy_timeout: 5000

mqtt:
  enabled: false

influxdb:
  enabled: false

logging:
  level: error
  format: text
  output: stdout

qserver:
  managed: false
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return configPath
}

func writeTestDevices(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "devices.yml")
	content := `
motor_factory:
- name: sample_x
  prefix: "28idc:"
  motors:
    value: m7
  labels: [motors]
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("writing devices file: %v", err)
	}
	return path
}

func TestGetConfigPath_Default(t *testing.T) {
	t.Setenv("ID28_CONFIG", "")
	os.Unsetenv("ID28_CONFIG")

	if path := getConfigPath(); path != defaultConfigPath {
		t.Errorf("getConfigPath() = %q, want %q", path, defaultConfigPath)
	}
}

func TestGetConfigPath_EnvOverride(t *testing.T) {
	t.Setenv("ID28_CONFIG", "/custom/path/config.yaml")

	if path := getConfigPath(); path != "/custom/path/config.yaml" {
		t.Errorf("getConfigPath() = %q, want env override", path)
	}
}

func TestRun_MissingConfig(t *testing.T) {
	t.Setenv("ID28_CONFIG", "/nonexistent/path/config.yaml")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx); err == nil {
		t.Fatal("run() should fail with a missing config file")
	}
}

func TestRun_MissingDevicesFile(t *testing.T) {
	configPath := offlineConfig(t, "/nonexistent/devices.yml")
	t.Setenv("ID28_CONFIG", configPath)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx); err == nil {
		t.Fatal("run() should fail when the devices file is missing")
	}
}

func TestRun_OfflineStartupAndShutdown(t *testing.T) {
	configPath := offlineConfig(t, writeTestDevices(t))
	t.Setenv("ID28_CONFIG", configPath)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := run(ctx); err != nil {
		t.Fatalf("run() error = %v, want clean shutdown on context timeout", err)
	}
}
