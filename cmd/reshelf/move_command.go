package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"reshelf/internal/config"
	"reshelf/internal/organizer"
	"reshelf/internal/relocation"
	"reshelf/internal/services"
)

func newMoveCommand(ctx *commandContext) *cobra.Command {
	var moviesTarget, tvTarget string
	var dryRun, noDryRun bool
	var policyFlag string
	var minConfidence int
	var workers int
	var saveConfig bool
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "move [source]",
		Short: "Move identified media into the library",
		Long: `Scan a source directory, identify each video, and move confident matches
and their subtitles, artwork and NFO files into the movie and TV libraries.

Runs are dry by default (behavior.dry_run). Pass --no-dry-run to move files.
Every run is recorded in the history journal.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			if moviesTarget != "" {
				if cfg.Paths.MoviesDir, err = config.ExpandPath(moviesTarget); err != nil {
					return services.Wrap(services.ErrValidation, "cli", "resolve movies target", moviesTarget, err)
				}
			}
			if tvTarget != "" {
				if cfg.Paths.TVDir, err = config.ExpandPath(tvTarget); err != nil {
					return services.Wrap(services.ErrValidation, "cli", "resolve tv target", tvTarget, err)
				}
			}
			live, err := resolveDryRun(cfg.Behavior.DryRun, dryRun, noDryRun)
			if err != nil {
				return err
			}
			if policyFlag == "" {
				policyFlag = cfg.Behavior.ConflictPolicy
			}
			policy, err := relocation.ParsePolicy(policyFlag)
			if err != nil {
				return err
			}
			source, err := resolveSource(cfg, args)
			if err != nil {
				return err
			}

			if saveConfig {
				if err := cfg.Save(ctx.configPath); err != nil {
					return fmt.Errorf("save config: %w", err)
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Saved library targets to %s\n", ctx.configPath)
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			report, err := runBatch(runCtx, cfg, logger, batchOptions{
				source:        source,
				dryRun:        !live,
				policy:        policy,
				minConfidence: minConfidence,
				workers:       workers,
				progress:      stderrProgress(),
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			if jsonOutput {
				if werr := writeJSON(cmd.OutOrStdout(), report); werr != nil {
					return werr
				}
			} else {
				printReport(cmd.OutOrStdout(), source, report)
			}
			if err != nil {
				return err
			}
			if report.Failed > 0 {
				return fmt.Errorf("%d item(s) failed to move", report.Failed)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&moviesTarget, "movies-target", "", "Movie library root (overrides paths.movies_dir)")
	cmd.Flags().StringVar(&tvTarget, "tv-target", "", "TV library root (overrides paths.tv_dir)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report planned moves without touching files")
	cmd.Flags().BoolVar(&noDryRun, "no-dry-run", false, "Move files even when behavior.dry_run is set")
	cmd.Flags().StringVar(&policyFlag, "conflict-policy", "", "skip, replace or keep_both (default behavior.conflict_policy)")
	cmd.Flags().IntVar(&minConfidence, "confidence", 0, "Minimum confidence required to move a file")
	cmd.Flags().IntVar(&workers, "max-workers", 0, "Identification workers (default scanning.concurrency)")
	cmd.Flags().BoolVar(&saveConfig, "save-config", false, "Persist --movies-target/--tv-target to the config file")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the batch report as JSON")
	return cmd
}

// resolveDryRun returns true for a live run.
func resolveDryRun(defaultDryRun, dryRun, noDryRun bool) (bool, error) {
	switch {
	case dryRun && noDryRun:
		return false, services.Wrap(services.ErrValidation, "cli", "parse flags", "--dry-run and --no-dry-run are mutually exclusive", nil)
	case dryRun:
		return false, nil
	case noDryRun:
		return true, nil
	default:
		return !defaultDryRun, nil
	}
}

func printReport(out io.Writer, source string, report organizer.Report) {
	if len(report.Items) == 0 {
		fmt.Fprintf(out, "No video files found under %s\n", source)
		return
	}
	colorize := shouldColorize(out)
	rows := make([][]string, 0, len(report.Items))
	for _, item := range report.Items {
		detail := item.Destination
		if item.Outcome != nil && len(item.Outcome.Errors) > 0 {
			detail = item.Outcome.Errors[0]
		}
		rows = append(rows, []string{
			relativeTo(source, item.Path),
			string(item.Status),
			renderConfidence(item.Score, colorize),
			detail,
		})
	}
	fmt.Fprintln(out, renderTable([]column{
		pathColumn("File"), textColumn("Result"), numericColumn("Confidence"), pathColumn("Destination"),
	}, rows))

	mode := "Moved"
	if report.DryRun {
		mode = "Dry run: would move"
	}
	fmt.Fprintf(out, "%s %d of %d planned; %d skipped, %d below threshold, %d failed (%d rolled back)\n",
		mode, report.Moved, report.Planned, report.Skipped, report.BelowThreshold, report.Failed, report.RolledBack)
	if report.BatchID != "" {
		fmt.Fprintf(out, "Batch %s recorded in history\n", shortID(report.BatchID))
	}
}
