package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"reshelf/internal/logging"
	"reshelf/internal/relocation"
	"reshelf/internal/services"
	"reshelf/internal/watch"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var schedule string
	var dryRun, noDryRun bool
	var minConfidence int

	cmd := &cobra.Command{
		Use:   "watch [source]",
		Short: "Organize a source directory whenever it changes",
		Long: `Run a move batch at startup, then again whenever files appear under the
source directory (after watch.debounce_seconds of quiet) and on the optional
cron schedule. Stop with Ctrl-C.`,
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
			live, err := resolveDryRun(cfg.Behavior.DryRun, dryRun, noDryRun)
			if err != nil {
				return err
			}
			policy, err := relocation.ParsePolicy(cfg.Behavior.ConflictPolicy)
			if err != nil {
				return err
			}
			source, err := resolveSource(cfg, args)
			if err != nil {
				return err
			}
			if schedule = strings.TrimSpace(schedule); schedule == "" {
				schedule = cfg.Watch.Schedule
			}
			if err := cfg.ValidateTargets(); err != nil {
				return services.Wrap(services.ErrConfiguration, "cli", "validate targets", "", err)
			}

			watcher, err := watch.New(watch.Options{
				Root:       source,
				Debounce:   cfg.WatchDebounce(),
				Schedule:   schedule,
				RunOnStart: true,
				Logger:     logger,
			})
			if err != nil {
				return err
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return watcher.Run(runCtx, func(passCtx context.Context) error {
				report, err := runBatch(passCtx, cfg, logger, batchOptions{
					source:        source,
					dryRun:        !live,
					policy:        policy,
					minConfidence: minConfidence,
				})
				if err != nil {
					return err
				}
				logger.Info("watch pass summary",
					logging.String("batch_id", report.BatchID),
					logging.Int("moved", report.Moved),
					logging.Int("skipped", report.Skipped),
					logging.Int("failed", report.Failed),
					logging.Bool("dry_run", report.DryRun),
				)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&schedule, "schedule", "", "Cron schedule for periodic passes (overrides watch.schedule)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report planned moves without touching files")
	cmd.Flags().BoolVar(&noDryRun, "no-dry-run", false, "Move files even when behavior.dry_run is set")
	cmd.Flags().IntVar(&minConfidence, "confidence", 0, "Minimum confidence required to move a file")
	return cmd
}
