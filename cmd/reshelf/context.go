package main

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"reshelf/internal/config"
	"reshelf/internal/identification"
	"reshelf/internal/logging"
	"reshelf/internal/media/ffprobe"
	"reshelf/internal/scoring"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	configOnce   sync.Once
	config       *config.Config
	configPath   string
	configExists bool
	configErr    error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, exists, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
		c.configExists = exists
	})
	return c.config, c.configErr
}

// ensureLogger builds the process logger from the loaded configuration and
// the --log-level override.
func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		level := cfg.Logging.Level
		if c.logLevelFlag != nil && strings.TrimSpace(*c.logLevelFlag) != "" {
			level = strings.TrimSpace(*c.logLevelFlag)
		}
		c.logger, c.loggerErr = logging.New(logging.Options{
			Level:      level,
			Format:     cfg.Logging.Format,
			FilePath:   cfg.Logging.FilePath,
			MaxSizeMB:  cfg.Logging.MaxFileSizeMB,
			MaxBackups: cfg.Logging.BackupCount,
		})
	})
	return c.logger, c.loggerErr
}

// engineFactory returns a constructor for identification engines configured
// from cfg. Each call builds a fresh engine with its own duration cache.
func engineFactory(cfg *config.Config, logger *slog.Logger) func() *identification.Engine {
	var probe identification.DurationProbe
	if cfg.Identification.MinimumMovieDurationMinutes > 0 {
		probe = ffprobe.NewDurationProbe(cfg.Identification.FFprobeBinary, cfg.ProbeTimeout())
	}
	opts := identification.Options{
		MoviesInOwnDirectory: cfg.Identification.MoviesAlwaysInOwnDirectory,
		MinimumMovieMinutes:  cfg.Identification.MinimumMovieDurationMinutes,
		MovieKeywords:        cfg.Identification.MovieKeywords,
		Probe:                probe,
		Logger:               logger,
	}
	return func() *identification.Engine {
		return identification.New(opts)
	}
}

func newScorer(cfg *config.Config) *scoring.Scorer {
	return scoring.New(cfg.Identification.GreenThreshold, cfg.Identification.YellowThreshold)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
