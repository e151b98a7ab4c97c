// Package config loads and validates the ID28 core configuration.
//
// Configuration is read from a YAML file, layered over hardcoded
// defaults, then overridden by ID28_* environment variables. Load is the
// only entry point; it returns a validated Config or an error listing
// every problem found.
package config
