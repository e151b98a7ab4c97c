package qserver

import "errors"

// Domain-specific errors for queue-server host supervision.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrAlreadyRunning is returned when starting an instance that is
	// already running.
	ErrAlreadyRunning = errors.New("qserver: instance already running")

	// ErrNotRunning is returned when stopping an instance that is not
	// running.
	ErrNotRunning = errors.New("qserver: instance not running")

	// ErrNotManaged is returned when lifecycle operations are invoked on
	// an unmanaged (external) host.
	ErrNotManaged = errors.New("qserver: host is not managed")

	// ErrStartTimeout is returned when the host does not become ready
	// within the startup timeout.
	ErrStartTimeout = errors.New("qserver: host did not become ready")

	// ErrNoLogFile is returned by console when the instance has never
	// written a log file.
	ErrNoLogFile = errors.New("qserver: no log file for instance")
)
