// Package config loads and validates YAML configuration for the realtime
// tooling. Values go through three stages: Load (file + ${VAR} env
// expansion), applyDefaults, and Validate.
package config
