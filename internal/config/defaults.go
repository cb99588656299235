package config

const (
	defaultConfigPath             = "~/.config/reshelf/config.toml"
	defaultStateDir               = "~/.local/share/reshelf"
	defaultDryRun                 = true
	defaultConflictPolicy         = "skip"
	defaultScanConcurrency        = 8
	defaultFFprobeBinary          = "ffprobe"
	defaultProbeTimeoutSeconds    = 10
	defaultGreenThreshold         = 70
	defaultYellowThreshold        = 40
	defaultLogFormat              = "console"
	defaultLogLevel               = "info"
	defaultLogMaxFileSizeMB       = 10
	defaultLogBackupCount         = 5
	defaultWatchDebounceSeconds   = 10
	defaultMinimumMovieDurationMn = 0
)

// ConflictPolicies lists the accepted behavior.conflict_policy values.
var ConflictPolicies = []string{"skip", "replace", "keep_both"}

func defaultMovieKeywords() []string {
	return []string{"episode", "invalid date"}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
		},
		Behavior: Behavior{
			DryRun:         defaultDryRun,
			ConflictPolicy: defaultConflictPolicy,
		},
		Scanning: Scanning{
			Concurrency: defaultScanConcurrency,
		},
		Identification: Identification{
			MinimumMovieDurationMinutes: defaultMinimumMovieDurationMn,
			MovieKeywords:               defaultMovieKeywords(),
			FFprobeBinary:               defaultFFprobeBinary,
			ProbeTimeoutSeconds:         defaultProbeTimeoutSeconds,
			GreenThreshold:              defaultGreenThreshold,
			YellowThreshold:             defaultYellowThreshold,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			MaxFileSizeMB: defaultLogMaxFileSizeMB,
			BackupCount:   defaultLogBackupCount,
		},
		Watch: Watch{
			DebounceSeconds: defaultWatchDebounceSeconds,
		},
	}
}
