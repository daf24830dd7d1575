// Package config loads and validates the TOML configuration for clipper.
// Values resolve in three passes: defaults, file decode, then normalize and
// validate.
package config
