// Package config loads and validates the process-wide configuration from a
// YAML file and DEPSAFE_* environment variables. It covers the coordinator's
// resilience defaults (failure threshold, open window, timeouts, retry
// backoff) and the telemetry settings, and converts them into the typed
// configs the resilience and observe packages consume. String values may
// reference environment variables with ${VAR}; missing variables fail the
// load rather than expanding to empty strings.
package config
