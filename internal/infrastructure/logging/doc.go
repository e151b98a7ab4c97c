// Package logging provides structured logging for ID28 core.
//
// It wraps log/slog with service-wide default fields and level filtering
// driven by the logging section of the configuration.
package logging
