// Package testsupport provides shared helpers for package tests.
package testsupport

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"clipper/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Output.Dir = filepath.Join(base, "out")
	cfg.History.Path = filepath.Join(base, "history.db")

	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("test config invalid: %v", err)
	}
	return &cfg
}

// WithHistoryDisabled turns off job history recording.
func WithHistoryDisabled() ConfigOption {
	return func(cfg *config.Config) {
		cfg.History.Enabled = false
	}
}

// WithMode sets the default processing mode.
func WithMode(mode string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Output.Mode = mode
	}
}

// WriteConfigFile renders a minimal config file pointing at per-test temp
// locations and returns its path. extra is appended verbatim for overrides.
func WriteConfigFile(t testing.TB, extra string) string {
	t.Helper()

	base := t.TempDir()
	contents := fmt.Sprintf(`[output]
dir = %q

[history]
enabled = true
path = %q
`, filepath.Join(base, "out"), filepath.Join(base, "history.db"))
	contents += extra

	path := filepath.Join(base, "config.toml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write test config: %v", err)
	}
	return path
}
