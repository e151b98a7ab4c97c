package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for ID28 core.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Instrument InstrumentConfig `yaml:"instrument"`
	Devices    DevicesConfig    `yaml:"devices"`
	Database   DatabaseConfig   `yaml:"database"`
	MQTT       MQTTConfig       `yaml:"mqtt"`
	InfluxDB   InfluxDBConfig   `yaml:"influxdb"`
	Logging    LoggingConfig    `yaml:"logging"`
	QServer    QServerConfig    `yaml:"qserver"`
}

// InstrumentConfig identifies the beamline instrument.
type InstrumentConfig struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Timezone string `yaml:"timezone"`
}

// DevicesConfig locates the device declaration file.
type DevicesConfig struct {
	// Path is the YAML device file consumed by the factory registry.
	Path string `yaml:"path"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Enabled   bool                `yaml:"enabled"`
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// InfluxDBConfig contains InfluxDB connection settings for host metrics.
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

// QServerConfig contains queue-server host supervision settings.
type QServerConfig struct {
	// Managed indicates whether ID28 core should manage the host
	// lifecycle. If false, the host is expected to be running externally.
	Managed bool `yaml:"managed"`

	// Name identifies the instance. Default: "qs-host-id28".
	Name string `yaml:"name"`

	// Binary is the host executable. Default: "start-re-manager".
	Binary string `yaml:"binary"`

	// ConfigPath is the queue-server startup YAML, passed as --config.
	ConfigPath string `yaml:"config_path"`

	// StateDir holds PID and log files. Empty picks a runtime directory.
	StateDir string `yaml:"state_dir"`

	// ControlPort is the ZMQ control port. Default: 60615.
	ControlPort int `yaml:"control_port"`

	// InfoPort is the ZMQ info port. Default: 60625.
	InfoPort int `yaml:"info_port"`

	// ExtraArgs are appended to the host command line.
	ExtraArgs []string `yaml:"extra_args"`

	// StartupTimeoutSeconds is how long to wait for the control port.
	// Default: 30
	StartupTimeoutSeconds int `yaml:"startup_timeout_seconds"`

	// RestartOnFailure enables automatic restart if the host crashes.
	// Default: true
	RestartOnFailure bool `yaml:"restart_on_failure"`

	// RestartDelaySeconds is the time to wait before restarting.
	// Default: 5
	RestartDelaySeconds int `yaml:"restart_delay_seconds"`

	// MaxRestartAttempts limits restart attempts. 0 means unlimited.
	// Default: 10
	MaxRestartAttempts int `yaml:"max_restart_attempts"`

	// HealthCheckInterval is how often to run watchdog health checks.
	// Default: 30s
	HealthCheckInterval time.Duration `yaml:"health_check_interval"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: ID28_SECTION_KEY
// For example: ID28_DATABASE_PATH, ID28_MQTT_HOST
func Load(path string) (*Config, error) {
	// Start with defaults
	cfg := defaultConfig()

	// Read and parse YAML file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Instrument: InstrumentConfig{
			ID:       "28id",
			Name:     "APS 28-ID",
			Timezone: "America/Chicago",
		},
		Devices: DevicesConfig{
			Path: "./configs/devices.yml",
		},
		Database: DatabaseConfig{
			Path:        "./data/id28core.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "id28core",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
				MaxAttempts:  0,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		QServer: QServerConfig{
			Name:                  "qs-host-id28",
			Binary:                "start-re-manager",
			ControlPort:           60615,
			InfoPort:              60625,
			StartupTimeoutSeconds: 30,
			RestartOnFailure:      true,
			RestartDelaySeconds:   5,
			MaxRestartAttempts:    10,
			HealthCheckInterval:   30 * time.Second,
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: ID28_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Devices
	if v := os.Getenv("ID28_DEVICES_PATH"); v != "" {
		cfg.Devices.Path = v
	}

	// Database
	if v := os.Getenv("ID28_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// MQTT
	if v := os.Getenv("ID28_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("ID28_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("ID28_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// InfluxDB
	if v := os.Getenv("ID28_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// Queue-server host
	if v := os.Getenv("ID28_QSERVER_BINARY"); v != "" {
		cfg.QServer.Binary = v
	}
	if v := os.Getenv("ID28_QSERVER_CONFIG_PATH"); v != "" {
		cfg.QServer.ConfigPath = v
	}
	if v := os.Getenv("ID28_QSERVER_CONTROL_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.QServer.ControlPort = port
		}
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []string

	if c.Instrument.ID == "" {
		errs = append(errs, "instrument.id is required")
	}

	if c.Devices.Path == "" {
		errs = append(errs, "devices.path is required")
	}

	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	if c.QServer.ControlPort < 1 || c.QServer.ControlPort > 65535 {
		errs = append(errs, "qserver.control_port must be between 1 and 65535")
	}
	if c.QServer.InfoPort < 1 || c.QServer.InfoPort > 65535 {
		errs = append(errs, "qserver.info_port must be between 1 and 65535")
	}
	if c.QServer.ControlPort == c.QServer.InfoPort {
		errs = append(errs, "qserver.control_port and qserver.info_port must differ")
	}
	if c.QServer.Managed && c.QServer.ConfigPath == "" {
		errs = append(errs, "qserver.config_path is required when qserver.managed is true")
	}

	if c.InfluxDB.Enabled {
		if c.InfluxDB.URL == "" {
			errs = append(errs, "influxdb.url is required when influxdb is enabled")
		}
		if c.InfluxDB.Token == "" {
			errs = append(errs, "influxdb.token is required when influxdb is enabled (set ID28_INFLUXDB_TOKEN environment variable)")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetStartupTimeout returns the queue-server startup timeout as a Duration.
func (c *Config) GetStartupTimeout() time.Duration {
	return time.Duration(c.QServer.StartupTimeoutSeconds) * time.Second
}

// GetRestartDelay returns the queue-server restart delay as a Duration.
func (c *Config) GetRestartDelay() time.Duration {
	return time.Duration(c.QServer.RestartDelaySeconds) * time.Second
}
