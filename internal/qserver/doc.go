// Package qserver supervises the bluesky queue-server host process
// (start-re-manager).
//
// Two supervision modes share one Config:
//
// Manager runs the host as a child of the current process (daemon mode).
// The child is monitored, restarted on failure with backoff, health-checked
// through /proc and the ZMQ control port, and stopped on shutdown.
//
// Control manages a detached instance from short-lived CLI invocations:
// start, stop, restart, status, checkup, console, and run. Instances are
// identified by name and tracked through a PID file, so any invocation can
// find the instance an earlier one started. Restart is stop-if-running then
// start; checkup starts the host only when no live instance exists, so
// repeated checkups leave exactly one.
package qserver
