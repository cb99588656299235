package config

import (
	"errors"
	"fmt"
	"slices"

	"github.com/robfig/cron/v3"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateBehavior(); err != nil {
		return err
	}
	if err := c.validateScanning(); err != nil {
		return err
	}
	if err := c.validateIdentification(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateWatch(); err != nil {
		return err
	}
	return nil
}

// ValidateTargets ensures at least one library root is configured before a move.
func (c *Config) ValidateTargets() error {
	if c.Paths.MoviesDir == "" && c.Paths.TVDir == "" {
		return errors.New("paths.movies_dir or paths.tv_dir must be set (or pass --movies-target/--tv-target)")
	}
	return nil
}

func (c *Config) validateBehavior() error {
	if !slices.Contains(ConflictPolicies, c.Behavior.ConflictPolicy) {
		return fmt.Errorf("behavior.conflict_policy must be one of %v, got %q", ConflictPolicies, c.Behavior.ConflictPolicy)
	}
	return nil
}

func (c *Config) validateScanning() error {
	if c.Scanning.Concurrency < 1 {
		return errors.New("scanning.concurrency must be at least 1")
	}
	return nil
}

func (c *Config) validateIdentification() error {
	id := c.Identification
	if id.MinimumMovieDurationMinutes < 0 {
		return errors.New("identification.minimum_movie_duration_minutes must be non-negative")
	}
	if id.ProbeTimeoutSeconds < 0 {
		return errors.New("identification.probe_timeout_seconds must be non-negative")
	}
	if id.YellowThreshold < 0 || id.GreenThreshold > 100 || id.YellowThreshold > id.GreenThreshold {
		return fmt.Errorf("identification thresholds must satisfy 0 <= yellow (%d) <= green (%d) <= 100", id.YellowThreshold, id.GreenThreshold)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error", "critical":
	default:
		return fmt.Errorf("logging.level %q is not recognized", c.Logging.Level)
	}
	if c.Logging.MaxFileSizeMB < 0 || c.Logging.BackupCount < 0 {
		return errors.New("logging.max_file_size_mb and logging.backup_count must be non-negative")
	}
	return nil
}

func (c *Config) validateWatch() error {
	if c.Watch.DebounceSeconds < 0 {
		return errors.New("watch.debounce_seconds must be non-negative")
	}
	if c.Watch.Schedule != "" {
		if _, err := cron.ParseStandard(c.Watch.Schedule); err != nil {
			return fmt.Errorf("watch.schedule: %w", err)
		}
	}
	return nil
}
