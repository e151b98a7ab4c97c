package qserver

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/aps28id/id28-core/internal/process"
)

// Lifecycle actions reported through Manager.SetOnEvent.
const (
	ActionStarted   = "started"
	ActionStopped   = "stopped"
	ActionRestarted = "restarted"
	ActionFailed    = "failed"
)

// Logger is a minimal logging interface for this package.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(msg string, args ...any) {}
func (noopLogger) Info(msg string, args ...any)  {}
func (noopLogger) Warn(msg string, args ...any)  {}
func (noopLogger) Error(msg string, args ...any) {}

// Manager supervises the queue-server host as a child process. It wraps
// process.Manager with host-specific readiness and health checks: the
// host is ready when its ZMQ control port accepts TCP connections, and
// healthy while the process is live and the port still answers.
type Manager struct {
	config  Config
	proc    *process.Manager
	logger  Logger
	onEvent func(action string, pid int)
}

// NewManager creates a queue-server host manager. The config should have
// passed Validate.
func NewManager(cfg Config) *Manager {
	cfg.ApplyDefaults()

	m := &Manager{
		config: cfg,
		logger: noopLogger{},
	}

	pc := process.DefaultConfig(cfg.Name, cfg.Binary, cfg.BuildArgs())
	pc.GracefulTimeout = cfg.GracefulTimeout
	pc.RestartOnFailure = cfg.RestartOnFailure
	if cfg.RestartDelay > 0 {
		pc.RestartDelay = cfg.RestartDelay
	}
	if cfg.MaxRestartAttempts > 0 {
		pc.MaxRestartAttempts = cfg.MaxRestartAttempts
	}
	if cfg.HealthCheckInterval > 0 {
		pc.HealthCheckInterval = cfg.HealthCheckInterval
	}
	pc.HealthCheckFunc = func(ctx context.Context) error { return m.healthCheck() }
	pc.OnStart = func() { m.emit(ActionStarted) }
	pc.OnStop = func(err error) {
		if err != nil {
			m.emit(ActionFailed)
		} else {
			m.emit(ActionStopped)
		}
	}
	pc.OnRestart = func(attempt int) { m.emit(ActionRestarted) }
	m.proc = process.NewManager(pc)

	return m
}

// SetLogger sets the logger for the manager and its child supervisor.
func (m *Manager) SetLogger(logger Logger) {
	if logger != nil {
		m.logger = logger
		m.proc.SetLogger(logger)
	}
}

// SetOnEvent registers a callback invoked after lifecycle transitions
// (actions "started", "stopped", "restarted", "failed"). Used to feed
// the run log and status bus.
func (m *Manager) SetOnEvent(fn func(action string, pid int)) {
	m.onEvent = fn
}

func (m *Manager) emit(action string) {
	if m.onEvent != nil {
		m.onEvent(action, m.proc.PID())
	}
}

// Start launches the host and waits for the control port to accept
// connections. On unmanaged configs it only verifies an external host
// is reachable.
func (m *Manager) Start(ctx context.Context) error {
	if !m.config.Managed {
		m.logger.Info("queue-server host is external, probing control port",
			"port", m.config.ControlPort)
		if err := m.dialControl(1 * time.Second); err != nil {
			return fmt.Errorf("external host not reachable: %w", err)
		}
		return nil
	}

	m.logger.Info("starting queue-server host",
		"instance", m.config.Name,
		"binary", m.config.Binary,
		"control_port", m.config.ControlPort)

	if err := m.proc.Start(ctx); err != nil {
		return fmt.Errorf("starting %s: %w", m.config.Name, err)
	}

	if err := m.waitForReady(ctx); err != nil {
		m.proc.Stop()
		return err
	}

	if err := writePIDFile(m.config.PIDFilePath(), m.proc.PID(), m.config.Binary); err != nil {
		m.logger.Warn("could not record pid file", "error", err)
	}

	m.logger.Info("queue-server host ready",
		"instance", m.config.Name,
		"pid", m.proc.PID())
	return nil
}

// Stop terminates the host and clears its PID file. An external host is
// not ours to stop; ErrNotManaged is returned.
func (m *Manager) Stop() error {
	if !m.config.Managed {
		return ErrNotManaged
	}
	if err := m.proc.Stop(); err != nil {
		return fmt.Errorf("stopping %s: %w", m.config.Name, err)
	}
	if err := removePIDFile(m.config.PIDFilePath()); err != nil {
		m.logger.Warn("could not remove pid file", "error", err)
	}
	return nil
}

// IsRunning reports whether the supervised host is running.
func (m *Manager) IsRunning() bool {
	if !m.config.Managed {
		return m.dialControl(500*time.Millisecond) == nil
	}
	return m.proc.IsRunning()
}

// PID returns the host process ID, or 0 when not running.
func (m *Manager) PID() int {
	return m.proc.PID()
}

// Stats returns supervision statistics for the host process.
func (m *Manager) Stats() process.Stats {
	return m.proc.Stats()
}

// HealthCheck verifies the host is live and its control port answers.
func (m *Manager) HealthCheck() error {
	return m.healthCheck()
}

func (m *Manager) healthCheck() error {
	if m.config.Managed {
		pid := m.proc.PID()
		if pid == 0 {
			return ErrNotRunning
		}
		if state := processState(pid); state == "Z" {
			return fmt.Errorf("host pid %d is a zombie", pid)
		}
	}
	if err := m.dialControl(2 * time.Second); err != nil {
		return fmt.Errorf("control port %d: %w", m.config.ControlPort, err)
	}
	return nil
}

// waitForReady polls the control port until it accepts a connection or
// the startup timeout elapses.
func (m *Manager) waitForReady(ctx context.Context) error {
	deadline := time.Now().Add(m.config.StartupTimeout)
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	for {
		if err := m.dialControl(1 * time.Second); err == nil {
			return nil
		}
		if !m.proc.IsRunning() {
			return fmt.Errorf("%w: process exited during startup: %v",
				ErrStartTimeout, m.proc.LastError())
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("%w after %s", ErrStartTimeout, m.config.StartupTimeout)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (m *Manager) dialControl(timeout time.Duration) error {
	addr := net.JoinHostPort("127.0.0.1", fmt.Sprintf("%d", m.config.ControlPort))
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return err
	}
	return conn.Close()
}
