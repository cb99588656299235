package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"reshelf/internal/services"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains source and library directory configuration.
type Paths struct {
	Source    string `toml:"source"`
	MoviesDir string `toml:"movies_dir"`
	TVDir     string `toml:"tv_dir"`
	StateDir  string `toml:"state_dir"`
}

// Behavior contains defaults for relocation runs.
type Behavior struct {
	DryRun         bool   `toml:"dry_run"`
	ConflictPolicy string `toml:"conflict_policy"`
}

// Scanning contains configuration for the filesystem walker.
type Scanning struct {
	Concurrency    int  `toml:"concurrency"`
	FollowSymlinks bool `toml:"follow_symlinks"`
}

// Identification contains heuristics and thresholds for the identification engine.
type Identification struct {
	MoviesAlwaysInOwnDirectory  bool     `toml:"movies_always_in_own_directory"`
	MinimumMovieDurationMinutes float64  `toml:"minimum_movie_duration_minutes"`
	MovieKeywords               []string `toml:"movie_keywords"`
	FFprobeBinary               string   `toml:"ffprobe_binary"`
	ProbeTimeoutSeconds         int      `toml:"probe_timeout_seconds"`
	GreenThreshold              int      `toml:"green_threshold"`
	YellowThreshold             int      `toml:"yellow_threshold"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	FilePath      string `toml:"file_path"`
	MaxFileSizeMB int    `toml:"max_file_size_mb"`
	BackupCount   int    `toml:"backup_count"`
}

// Watch contains configuration for the watch command.
type Watch struct {
	DebounceSeconds int    `toml:"debounce_seconds"`
	Schedule        string `toml:"schedule"`
}

// Config encapsulates all configuration values for reshelf.
//
// Configuration sections by subsystem:
//   - Paths: scan source, movie/tv library roots, state directory
//   - Behavior: dry-run default and conflict policy
//   - Scanning: worker count and symlink handling
//   - Identification: directory/duration constraints, keywords, score thresholds
//   - Logging: log format, level, and rotating file output
//   - Watch: debounce window and optional cron schedule
type Config struct {
	Paths          Paths          `toml:"paths"`
	Behavior       Behavior       `toml:"behavior"`
	Scanning       Scanning       `toml:"scanning"`
	Identification Identification `toml:"identification"`
	Logging        Logging        `toml:"logging"`
	Watch          Watch          `toml:"watch"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, services.Wrap(services.ErrConfiguration, "config", "open", resolvedPath, err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, services.Wrap(services.ErrConfiguration, "config", "parse", resolvedPath, err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, services.Wrap(services.ErrConfiguration, "config", "normalize", "", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, services.Wrap(services.ErrConfiguration, "config", "validate", "", err)
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("reshelf.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the state directory that holds the move journal
// and lock files.
func (c *Config) EnsureDirectories() error {
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		return nil
	}
	if err := os.MkdirAll(c.Paths.StateDir, 0o755); err != nil {
		return fmt.Errorf("create state directory %q: %w", c.Paths.StateDir, err)
	}
	return nil
}

// ProbeTimeout returns the duration probe timeout.
func (c *Config) ProbeTimeout() time.Duration {
	if c.Identification.ProbeTimeoutSeconds <= 0 {
		return defaultProbeTimeoutSeconds * time.Second
	}
	return time.Duration(c.Identification.ProbeTimeoutSeconds) * time.Second
}

// WatchDebounce returns the quiet period the watch command waits for before a pass.
func (c *Config) WatchDebounce() time.Duration {
	return time.Duration(c.Watch.DebounceSeconds) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Encode renders the configuration as TOML.
func (c *Config) Encode() ([]byte, error) {
	var buf bytes.Buffer
	encoder := toml.NewEncoder(&buf)
	encoder.SetIndentTables(true)
	if err := encoder.Encode(c); err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return buf.Bytes(), nil
}

// Save writes the configuration to path, replacing any existing file atomically.
func (c *Config) Save(path string) error {
	data, err := c.Encode()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace config: %w", err)
	}
	return nil
}
