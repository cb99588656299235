package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"reshelf/internal/preflight"
	"reshelf/internal/services"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check library paths, the state directory and ffprobe",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			lines := renderSectionHeader("Configuration", colorize)
			configDetail := ctx.configPath
			if !ctx.configExists {
				configDetail += " (not found, using defaults)"
			}
			lines = append(lines,
				renderStatusLine("Config", statusInfo, configDetail, colorize),
				renderStatusLine("Dry run default", statusInfo, yesNo(cfg.Behavior.DryRun), colorize),
				renderStatusLine("Conflict policy", statusInfo, cfg.Behavior.ConflictPolicy, colorize),
			)
			if err := cfg.ValidateTargets(); err != nil {
				lines = append(lines, renderStatusLine("Library targets", statusWarn, "none configured", colorize))
			}

			results := preflight.RunAll(cmd.Context(), cfg)
			lines = append(lines, "")
			lines = append(lines, renderSectionHeader("Environment", colorize)...)
			for _, r := range results {
				kind := statusOK
				switch {
				case !r.Passed && r.Optional:
					kind = statusWarn
				case !r.Passed:
					kind = statusError
				}
				lines = append(lines, renderStatusLine(r.Name, kind, r.Detail, colorize))
			}
			for _, line := range lines {
				fmt.Fprintln(out, line)
			}

			if failed := preflight.Failed(results); len(failed) > 0 {
				return services.Wrap(services.ErrConfiguration, "status", "preflight",
					fmt.Sprintf("%d required check(s) failed", len(failed)), nil)
			}
			return nil
		},
	}
}
