package qserver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"syscall"
	"time"
)

// InstanceStatus describes a named detached instance.
type InstanceStatus struct {
	Name    string `json:"name"`
	Running bool   `json:"running"`
	PID     int    `json:"pid,omitempty"`
	State   string `json:"state,omitempty"`
	PIDFile string `json:"pid_file"`
	LogFile string `json:"log_file,omitempty"`
}

// Control manages a detached queue-server host instance across separate
// CLI invocations. State lives in the instance's PID file, so a stop or
// status invoked later can find the process a start launched.
type Control struct {
	config Config
	logger Logger
}

// NewControl creates a controller for the configured instance.
func NewControl(cfg Config) *Control {
	cfg.ApplyDefaults()
	return &Control{config: cfg, logger: noopLogger{}}
}

// SetLogger sets the logger for the controller.
func (c *Control) SetLogger(logger Logger) {
	if logger != nil {
		c.logger = logger
	}
}

// Config returns the controller's effective configuration.
func (c *Control) Config() Config {
	return c.config
}

// Start launches the host detached from the calling process. Output goes
// to the instance log file and the PID is recorded. Returns the PID of
// the new process, or ErrAlreadyRunning when a live instance exists.
func (c *Control) Start(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if pid, ok := c.livePID(); ok {
		return pid, fmt.Errorf("%w (pid %d)", ErrAlreadyRunning, pid)
	}

	logPath := c.config.LogFilePath()
	logFile, err := os.OpenFile(logPath, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return 0, fmt.Errorf("opening log file %s: %w", logPath, err)
	}
	defer logFile.Close()

	fmt.Fprintf(logFile, "--- %s starting %s at %s ---\n",
		c.config.Name, c.config.Binary, time.Now().Format(time.RFC3339))

	// Plain Command, not CommandContext: the instance must outlive this
	// invocation and its context.
	cmd := exec.Command(c.config.Binary, c.config.BuildArgs()...)
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	cmd.Stdin = nil
	// New session: the instance survives this CLI process and its
	// terminal, and can be signalled as a group.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("starting %s: %w", c.config.Binary, err)
	}
	pid := cmd.Process.Pid

	// Let the process settle and catch immediate exits (bad config,
	// missing python env) before claiming success.
	time.Sleep(200 * time.Millisecond)
	if !processAlive(pid, c.config.Binary) {
		return 0, fmt.Errorf("%s exited immediately, see %s", c.config.Name, logPath)
	}

	if err := writePIDFile(c.config.PIDFilePath(), pid, c.config.Binary); err != nil {
		syscall.Kill(-pid, syscall.SIGTERM)
		return 0, err
	}

	// The instance is on its own; do not hold a wait handle.
	if err := cmd.Process.Release(); err != nil {
		c.logger.Warn("could not release process handle", "error", err)
	}

	c.logger.Info("instance started",
		"instance", c.config.Name, "pid", pid, "log", logPath)
	return pid, nil
}

// Stop terminates the instance recorded in the PID file: SIGTERM to the
// process group, then SIGKILL after the graceful timeout. The PID file is
// removed on success. Returns ErrNotRunning when no live instance exists.
func (c *Control) Stop() error {
	pidPath := c.config.PIDFilePath()
	pid, err := readPIDFile(pidPath)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrNotRunning
		}
		return err
	}

	if !processAlive(pid, c.config.Binary) {
		removePIDFile(pidPath)
		return fmt.Errorf("%w (stale pid file removed)", ErrNotRunning)
	}

	c.logger.Info("stopping instance", "instance", c.config.Name, "pid", pid)

	if err := syscall.Kill(-pid, syscall.SIGTERM); err != nil {
		// Fall back to the single process when the group is gone.
		if err := syscall.Kill(pid, syscall.SIGTERM); err != nil {
			return fmt.Errorf("signalling pid %d: %w", pid, err)
		}
	}

	deadline := time.Now().Add(c.config.GracefulTimeout)
	for time.Now().Before(deadline) {
		if !processAlive(pid, c.config.Binary) {
			return removePIDFile(pidPath)
		}
		time.Sleep(100 * time.Millisecond)
	}

	c.logger.Warn("graceful stop timed out, sending SIGKILL",
		"instance", c.config.Name, "pid", pid)
	syscall.Kill(-pid, syscall.SIGKILL)
	syscall.Kill(pid, syscall.SIGKILL)

	for i := 0; i < 20; i++ {
		if !processAlive(pid, c.config.Binary) {
			return removePIDFile(pidPath)
		}
		time.Sleep(100 * time.Millisecond)
	}
	return fmt.Errorf("pid %d did not exit after SIGKILL", pid)
}

// Restart stops the instance if it is running, then starts a fresh one.
// Exactly one instance exists afterwards.
func (c *Control) Restart(ctx context.Context) (int, error) {
	if err := c.Stop(); err != nil && !errors.Is(err, ErrNotRunning) {
		return 0, fmt.Errorf("restart: %w", err)
	}
	pid, err := c.Start(ctx)
	if err != nil {
		return 0, fmt.Errorf("restart: %w", err)
	}
	return pid, nil
}

// Checkup starts the instance only when no live one exists. It reports
// whether a start happened, so repeated checkups converge on exactly one
// running instance. Suitable for cron.
func (c *Control) Checkup(ctx context.Context) (bool, error) {
	if pid, ok := c.livePID(); ok {
		c.logger.Debug("checkup: instance already running",
			"instance", c.config.Name, "pid", pid)
		return false, nil
	}
	if _, err := c.Start(ctx); err != nil {
		return false, fmt.Errorf("checkup: %w", err)
	}
	return true, nil
}

// Status reports the instance's current state without changing it.
func (c *Control) Status() InstanceStatus {
	st := InstanceStatus{
		Name:    c.config.Name,
		PIDFile: c.config.PIDFilePath(),
	}
	if _, err := os.Stat(c.config.LogFilePath()); err == nil {
		st.LogFile = c.config.LogFilePath()
	}
	pid, ok := c.livePID()
	if !ok {
		return st
	}
	st.Running = true
	st.PID = pid
	st.State = processState(pid)
	return st
}

// Console streams the instance log file to w, following appended output
// until ctx is cancelled. Returns ErrNoLogFile when the instance has
// never written one.
func (c *Control) Console(ctx context.Context, w io.Writer) error {
	logPath := c.config.LogFilePath()
	f, err := os.Open(logPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrNoLogFile, c.config.Name)
		}
		return fmt.Errorf("opening log file %s: %w", logPath, err)
	}
	defer f.Close()

	// Start near the end so the console shows recent output, not the
	// whole history.
	if info, err := f.Stat(); err == nil && info.Size() > 4096 {
		f.Seek(-4096, io.SeekEnd)
	}

	buf := make([]byte, 4096)
	for {
		n, err := f.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				return werr
			}
			continue
		}
		if err != nil && err != io.EOF {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(250 * time.Millisecond):
		}
	}
}

// Run executes the host in the foreground with inherited stdio. No PID
// file is written; the process belongs to the caller's terminal and is
// stopped with Ctrl-C. Intended for interactive debugging.
func (c *Control) Run(ctx context.Context) error {
	if pid, ok := c.livePID(); ok {
		return fmt.Errorf("%w (pid %d)", ErrAlreadyRunning, pid)
	}

	cmd := exec.CommandContext(ctx, c.config.Binary, c.config.BuildArgs()...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin

	c.logger.Info("running instance in foreground",
		"instance", c.config.Name, "binary", c.config.Binary)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("running %s: %w", c.config.Binary, err)
	}
	return nil
}

// livePID returns the recorded PID when it refers to a live instance.
func (c *Control) livePID() (int, bool) {
	pid, err := readPIDFile(c.config.PIDFilePath())
	if err != nil {
		return 0, false
	}
	if !processAlive(pid, c.config.Binary) {
		return 0, false
	}
	return pid, true
}
