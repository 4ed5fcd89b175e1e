// Package config loads and validates the client's YAML configuration:
// backend base URL, request timeout, per-family staleness overrides,
// and telemetry settings. ${VAR} references expand from the
// environment at load time, so tokens and endpoints stay out of the
// file itself.
package config
