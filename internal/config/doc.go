// Package config loads chronicle configuration from JSON or YAML files with
// CHRONICLE_* environment variable overlays. Defaults are always applied
// first, so partial files and partial environments are fine.
package config
