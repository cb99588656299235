package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeBehavior()
	c.normalizeIdentification()
	if err := c.normalizeLogging(); err != nil {
		return err
	}
	c.Watch.Schedule = strings.TrimSpace(c.Watch.Schedule)
	return nil
}

func (c *Config) normalizePaths() error {
	if strings.TrimSpace(c.Paths.MoviesDir) == "" {
		if value, ok := os.LookupEnv("RESHELF_MOVIES_DIR"); ok {
			c.Paths.MoviesDir = value
		}
	}
	if strings.TrimSpace(c.Paths.TVDir) == "" {
		if value, ok := os.LookupEnv("RESHELF_TV_DIR"); ok {
			c.Paths.TVDir = value
		}
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}

	var err error
	if c.Paths.Source, err = expandPath(strings.TrimSpace(c.Paths.Source)); err != nil {
		return fmt.Errorf("paths.source: %w", err)
	}
	if c.Paths.MoviesDir, err = expandPath(strings.TrimSpace(c.Paths.MoviesDir)); err != nil {
		return fmt.Errorf("paths.movies_dir: %w", err)
	}
	if c.Paths.TVDir, err = expandPath(strings.TrimSpace(c.Paths.TVDir)); err != nil {
		return fmt.Errorf("paths.tv_dir: %w", err)
	}
	if c.Paths.StateDir, err = expandPath(strings.TrimSpace(c.Paths.StateDir)); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeBehavior() {
	policy := strings.ToLower(strings.TrimSpace(c.Behavior.ConflictPolicy))
	policy = strings.ReplaceAll(policy, "-", "_")
	if policy == "" {
		policy = defaultConflictPolicy
	}
	c.Behavior.ConflictPolicy = policy
}

func (c *Config) normalizeIdentification() {
	keywords := make([]string, 0, len(c.Identification.MovieKeywords))
	for _, keyword := range c.Identification.MovieKeywords {
		keyword = strings.ToLower(strings.TrimSpace(keyword))
		if keyword != "" {
			keywords = append(keywords, keyword)
		}
	}
	c.Identification.MovieKeywords = keywords
	c.Identification.FFprobeBinary = strings.TrimSpace(c.Identification.FFprobeBinary)
	if c.Identification.FFprobeBinary == "" {
		c.Identification.FFprobeBinary = defaultFFprobeBinary
	}
}

func (c *Config) normalizeLogging() error {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	var err error
	if c.Logging.FilePath, err = expandPath(strings.TrimSpace(c.Logging.FilePath)); err != nil {
		return fmt.Errorf("logging.file_path: %w", err)
	}
	return nil
}
