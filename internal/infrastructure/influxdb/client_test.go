package influxdb_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aps28id/id28-core/internal/infrastructure/config"
	"github.com/aps28id/id28-core/internal/infrastructure/influxdb"
)

// testConfig returns a configuration for a local dev InfluxDB.
func testConfig() config.InfluxDBConfig {
	return config.InfluxDBConfig{
		Enabled:       true,
		URL:           "http://127.0.0.1:8086",
		Token:         "id28-dev-token",
		Org:           "id28",
		Bucket:        "host_metrics",
		BatchSize:     100,
		FlushInterval: 1,
	}
}

func TestConnect_Disabled(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false

	_, err := influxdb.Connect(cfg)
	if err == nil {
		t.Fatal("Connect() should return error when disabled")
	}
	if !errors.Is(err, influxdb.ErrDisabled) {
		t.Errorf("Connect() error = %v, want ErrDisabled", err)
	}
}

func TestConnect_InvalidURL(t *testing.T) {
	cfg := testConfig()
	cfg.URL = "http://127.0.0.1:59999" // Non-existent port

	_, err := influxdb.Connect(cfg)
	if err == nil {
		t.Fatal("Connect() should fail for unreachable server")
	}
	if !errors.Is(err, influxdb.ErrConnectionFailed) {
		t.Errorf("Connect() error = %v, want ErrConnectionFailed", err)
	}
}

func TestClose_Nil(t *testing.T) {
	client := &influxdb.Client{}
	if err := client.Close(); err != nil {
		t.Errorf("Close() on zero client error = %v, want nil", err)
	}
}

func TestHealthCheck_NotConnected(t *testing.T) {
	client := &influxdb.Client{}

	err := client.HealthCheck(context.Background())
	if !errors.Is(err, influxdb.ErrNotConnected) {
		t.Errorf("HealthCheck() error = %v, want ErrNotConnected", err)
	}
}

func TestWriteHostMetric_NotConnected(t *testing.T) {
	client := &influxdb.Client{}

	// Should be a silent no-op on a disconnected client.
	client.WriteHostMetric("qs-host-id28", "uptime_seconds", 42)
	client.WriteLifecycleEvent("qs-host-id28", "started", 1234)
	client.WritePoint("catalog", nil, map[string]interface{}{"devices": 1})
	client.Flush()
}
