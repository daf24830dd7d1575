// Package logging assembles the structured slog loggers used across clipper.
//
// It owns the console and JSON handlers, centralizes level plumbing, and
// exposes attr helpers so job code tags log lines uniformly. A no-op logger
// is provided for tests and wiring code that cannot fail.
package logging
