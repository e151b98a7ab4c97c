package qserver

import (
	"fmt"
	"strings"
	"time"
)

// Defaults for the queue-server host.
const (
	// DefaultBinary is the queue-server host executable.
	DefaultBinary = "start-re-manager"

	// DefaultInstanceName identifies the beamline's host instance. CLI
	// invocations may suffix it to run additional named instances.
	DefaultInstanceName = "qs-host-id28"

	// DefaultControlPort is the ZMQ control port the host listens on.
	DefaultControlPort = 60615

	// DefaultInfoPort is the ZMQ info (console output) port.
	DefaultInfoPort = 60625

	defaultStartupTimeout  = 30 * time.Second
	defaultGracefulTimeout = 10 * time.Second
	defaultRestartDelay    = 5 * time.Second

	maxPort = 65535
)

// Config holds configuration for the queue-server host.
type Config struct {
	// Managed indicates whether this process controls the host lifecycle.
	// If false, the host is expected to be running externally.
	Managed bool

	// Name identifies the instance; PID and log files derive from it.
	Name string

	// Binary is the host executable. Default: "start-re-manager".
	Binary string

	// ConfigPath is the queue-server YAML startup configuration, passed
	// as --config=<path>.
	ConfigPath string

	// StateDir is where PID and log files live. If empty, a writable
	// runtime directory is chosen (/var/run, falling back to /tmp).
	StateDir string

	// ControlPort is the ZMQ control port. Default 60615.
	ControlPort int

	// InfoPort is the ZMQ info port. Default 60625.
	InfoPort int

	// ExtraArgs are appended verbatim to the command line.
	ExtraArgs []string

	// StartupTimeout is how long to wait for the control port to accept
	// connections after starting.
	StartupTimeout time.Duration

	// GracefulTimeout is how long to wait after SIGTERM before SIGKILL.
	GracefulTimeout time.Duration

	// RestartOnFailure enables automatic restart in daemon mode.
	RestartOnFailure bool

	// RestartDelay is the base delay before restart attempts.
	RestartDelay time.Duration

	// MaxRestartAttempts limits restart attempts. 0 means unlimited.
	MaxRestartAttempts int

	// HealthCheckInterval is how often the daemon-mode watchdog runs.
	HealthCheckInterval time.Duration
}

// ApplyDefaults fills zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = DefaultInstanceName
	}
	if c.Binary == "" {
		c.Binary = DefaultBinary
	}
	if c.ControlPort == 0 {
		c.ControlPort = DefaultControlPort
	}
	if c.InfoPort == 0 {
		c.InfoPort = DefaultInfoPort
	}
	if c.StartupTimeout == 0 {
		c.StartupTimeout = defaultStartupTimeout
	}
	if c.GracefulTimeout == 0 {
		c.GracefulTimeout = defaultGracefulTimeout
	}
	if c.RestartDelay == 0 {
		c.RestartDelay = defaultRestartDelay
	}
}

// Validate checks the configuration for errors.
func (c Config) Validate() error {
	var errs []string

	if c.Name == "" {
		errs = append(errs, "name is required")
	} else if strings.ContainsAny(c.Name, "/ \t") {
		errs = append(errs, fmt.Sprintf("name %q must not contain slashes or whitespace", c.Name))
	}

	if c.Binary == "" {
		errs = append(errs, "binary is required")
	}

	if c.ControlPort < 1 || c.ControlPort > maxPort {
		errs = append(errs, "control_port must be between 1 and 65535")
	}
	if c.InfoPort < 1 || c.InfoPort > maxPort {
		errs = append(errs, "info_port must be between 1 and 65535")
	}
	if c.ControlPort == c.InfoPort {
		errs = append(errs, "control_port and info_port must differ")
	}

	if c.Managed && c.ConfigPath == "" {
		errs = append(errs, "config_path is required when the host is managed")
	}

	if len(errs) > 0 {
		return fmt.Errorf("qserver config errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

// BuildArgs constructs the start-re-manager command line. The startup
// configuration always travels as --config=<path>; non-default ports are
// passed explicitly so the host and its clients agree.
func (c Config) BuildArgs() []string {
	var args []string

	if c.ConfigPath != "" {
		args = append(args, "--config="+c.ConfigPath)
	}
	if c.ControlPort != DefaultControlPort {
		args = append(args, fmt.Sprintf("--zmq-control-addr=tcp://*:%d", c.ControlPort))
	}
	if c.InfoPort != DefaultInfoPort {
		args = append(args, fmt.Sprintf("--zmq-info-addr=tcp://*:%d", c.InfoPort))
	}

	args = append(args, c.ExtraArgs...)
	return args
}
