package qserver

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"
)

const (
	pidFileMode     = 0644
	pidAcquireTries = 3
)

// stateDir returns the directory for PID and log files. A configured
// StateDir wins; otherwise prefer /var/run, falling back to /tmp when it
// is not writable (non-root invocations).
func (c Config) stateDir() string {
	if c.StateDir != "" {
		return c.StateDir
	}
	if f, err := os.CreateTemp("/var/run", ".qshost-*"); err == nil {
		f.Close()
		os.Remove(f.Name())
		return "/var/run"
	}
	return "/tmp"
}

// PIDFilePath returns the PID file path for this instance.
func (c Config) PIDFilePath() string {
	return filepath.Join(c.stateDir(), c.Name+".pid")
}

// LogFilePath returns the log file path for this instance.
func (c Config) LogFilePath() string {
	return filepath.Join(c.stateDir(), c.Name+".log")
}

// writePIDFile records pid atomically. O_EXCL prevents two concurrent
// starts from both claiming the instance; a stale file from a dead
// process is removed and the write retried.
func writePIDFile(path string, pid int, binary string) error {
	for attempt := 0; attempt < pidAcquireTries; attempt++ {
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, pidFileMode)
		if err == nil {
			_, werr := fmt.Fprintf(f, "%d\n", pid)
			cerr := f.Close()
			if werr != nil {
				os.Remove(path)
				return fmt.Errorf("writing pid file %s: %w", path, werr)
			}
			if cerr != nil {
				os.Remove(path)
				return fmt.Errorf("closing pid file %s: %w", path, cerr)
			}
			return nil
		}
		if !os.IsExist(err) {
			return fmt.Errorf("creating pid file %s: %w", path, err)
		}

		existing, rerr := readPIDFile(path)
		if rerr == nil && processAlive(existing, binary) {
			return fmt.Errorf("%w (pid %d)", ErrAlreadyRunning, existing)
		}

		// Stale or unreadable; clear it and try again.
		if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) {
			return fmt.Errorf("removing stale pid file %s: %w", path, rmErr)
		}
		time.Sleep(10 * time.Millisecond)
	}
	return fmt.Errorf("acquiring pid file %s: %w", path, ErrAlreadyRunning)
}

// readPIDFile parses the PID recorded at path.
func readPIDFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("parsing pid file %s: %w", path, err)
	}
	if pid <= 0 {
		return 0, fmt.Errorf("pid file %s holds invalid pid %d", path, pid)
	}
	return pid, nil
}

// removePIDFile deletes the instance's PID file. Missing is not an error.
func removePIDFile(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing pid file %s: %w", path, err)
	}
	return nil
}

// processAlive reports whether pid refers to a live process running the
// given binary. Signal 0 probes existence; /proc/PID/comm guards against
// PID reuse by an unrelated process. The comm field truncates names to
// 15 characters.
func processAlive(pid int, binary string) bool {
	if err := syscall.Kill(pid, 0); err != nil {
		return syscall.EPERM == err
	}
	// A zombie still answers signal 0 but is no longer running.
	if processState(pid) == "Z" {
		return false
	}
	comm, err := os.ReadFile(fmt.Sprintf("/proc/%d/comm", pid))
	if err != nil {
		// /proc unavailable; existence check already passed.
		return true
	}
	want := filepath.Base(binary)
	if len(want) > 15 {
		want = want[:15]
	}
	return strings.TrimSpace(string(comm)) == want
}

// processState returns the single-letter state from /proc/PID/stat
// (R running, S sleeping, Z zombie, ...). Empty string if unavailable.
func processState(pid int) string {
	data, err := os.ReadFile(fmt.Sprintf("/proc/%d/stat", pid))
	if err != nil {
		return ""
	}
	// Format: pid (comm) state ... The comm may contain spaces, so scan
	// past the closing paren.
	s := string(data)
	idx := strings.LastIndex(s, ") ")
	if idx < 0 || idx+2 >= len(s) {
		return ""
	}
	fields := strings.Fields(s[idx+2:])
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
