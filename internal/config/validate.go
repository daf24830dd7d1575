package config

import (
	"fmt"

	"clipper/internal/command"
	"clipper/internal/plan"
	"clipper/internal/services"
)

// Validate checks every configuration value that has a bounded domain.
func (c *Config) Validate() error {
	if c.Trim.FixedDuration <= 0 {
		return services.Wrap(services.ErrConfiguration, "config", "trim",
			fmt.Sprintf("fixed_duration must be positive, got %v", c.Trim.FixedDuration), nil)
	}
	if c.Trim.RemainderThreshold < 0 {
		return services.Wrap(services.ErrConfiguration, "config", "trim",
			fmt.Sprintf("remainder_threshold must not be negative, got %v", c.Trim.RemainderThreshold), nil)
	}
	if _, err := plan.ParseRemainderPolicy(c.Trim.Remainder); err != nil {
		return services.Wrap(services.ErrConfiguration, "config", "trim", "invalid remainder policy", err)
	}
	if _, err := command.ParseMode(c.Output.Mode); err != nil {
		return services.Wrap(services.ErrConfiguration, "config", "output", "invalid mode", err)
	}
	if _, err := command.ParseQuality(c.Transforms.Quality); err != nil {
		return services.Wrap(services.ErrConfiguration, "config", "transforms", "invalid quality", err)
	}
	if c.Output.Dir == "" {
		return services.Wrap(services.ErrConfiguration, "config", "output", "dir must not be empty", nil)
	}

	switch c.Logging.Format {
	case "", "console", "json":
	default:
		return services.Wrap(services.ErrConfiguration, "config", "logging",
			fmt.Sprintf("format must be console or json, got %q", c.Logging.Format), nil)
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return services.Wrap(services.ErrConfiguration, "config", "logging",
			fmt.Sprintf("unknown level %q", c.Logging.Level), nil)
	}

	if c.History.Enabled && c.History.Path == "" {
		return services.Wrap(services.ErrConfiguration, "config", "history", "path required when history is enabled", nil)
	}
	return nil
}
