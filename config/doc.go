// Package config loads and validates the engine's YAML configuration.
//
// A configuration names the triple store backend, the optional metrics
// endpoint and the set of model declarations. Model context and
// constraint documents live in separate JSON files referenced by path,
// relative to the configuration file.
//
// Environment references of the form ${VAR} or ${VAR:-default} are
// expanded before parsing, so credentials stay out of the file itself.
//
// SafeConfig wraps a Config for components that re-read configuration
// concurrently with updates.
package config
