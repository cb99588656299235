package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"reshelf/internal/config"
	"reshelf/internal/history"
	"reshelf/internal/organizer"
	"reshelf/internal/planner"
	"reshelf/internal/preflight"
	"reshelf/internal/relocation"
	"reshelf/internal/scanner"
	"reshelf/internal/services"
)

type batchOptions struct {
	source        string
	dryRun        bool
	policy        relocation.Policy
	minConfidence int
	workers       int
	progress      func(organizer.Progress)
}

// resolveSource picks the scan root from the argument list or paths.source.
func resolveSource(cfg *config.Config, args []string) (string, error) {
	source := cfg.Paths.Source
	if len(args) > 0 {
		source = strings.TrimSpace(args[0])
	}
	if source == "" {
		return "", services.Wrap(services.ErrValidation, "cli", "resolve source", "no source given and paths.source is empty", nil)
	}
	abs, err := filepath.Abs(source)
	if err != nil {
		return "", fmt.Errorf("resolve source %s: %w", source, err)
	}
	return abs, nil
}

func scanSource(ctx context.Context, cfg *config.Config, logger *slog.Logger, source string, workers int) ([]scanner.Item, error) {
	if workers <= 0 {
		workers = cfg.Scanning.Concurrency
	}
	scan := scanner.New(scanner.Options{
		Workers:        workers,
		FollowSymlinks: cfg.Scanning.FollowSymlinks,
		NewEngine:      engineFactory(cfg, logger),
		Logger:         logger,
	})
	return scan.Scan(ctx, source)
}

// checkLibraryRoots fails a live batch early when a library root cannot be
// created or written.
func checkLibraryRoots(cfg *config.Config) error {
	var problems []string
	for _, root := range []struct{ name, path string }{
		{"movies", cfg.Paths.MoviesDir},
		{"tv", cfg.Paths.TVDir},
	} {
		if root.path == "" {
			continue
		}
		if r := preflight.CheckLibraryRoot(root.name, root.path); !r.Passed {
			problems = append(problems, r.Detail)
		}
	}
	if len(problems) > 0 {
		return services.Wrap(services.ErrConfiguration, "cli", "check library roots", strings.Join(problems, "; "), nil)
	}
	return nil
}

// runBatch scans source and organizes the result, journaling into the
// history store under paths.state_dir.
func runBatch(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts batchOptions) (organizer.Report, error) {
	if err := cfg.ValidateTargets(); err != nil {
		return organizer.Report{}, services.Wrap(services.ErrConfiguration, "cli", "validate targets", "", err)
	}
	if !opts.dryRun {
		if err := checkLibraryRoots(cfg); err != nil {
			return organizer.Report{}, err
		}
	}

	items, err := scanSource(ctx, cfg, logger, opts.source, opts.workers)
	if err != nil {
		return organizer.Report{}, err
	}

	store, err := history.Open(cfg.Paths.StateDir)
	if err != nil {
		return organizer.Report{}, err
	}
	defer store.Close()

	org, err := organizer.New(organizer.Options{
		Planner:       planner.New(cfg.Paths.MoviesDir, cfg.Paths.TVDir),
		Scorer:        newScorer(cfg),
		Mover:         relocation.NewMover(logger),
		Journal:       store,
		MinConfidence: opts.minConfidence,
		Policy:        opts.policy,
		DryRun:        opts.dryRun,
		SourceRoot:    opts.source,
		LockRoots:     []string{cfg.Paths.MoviesDir, cfg.Paths.TVDir},
		Progress:      opts.progress,
		Logger:        logger,
	})
	if err != nil {
		return organizer.Report{}, err
	}
	return org.Run(ctx, items)
}

// stderrProgress prints one line per item when stderr is a terminal.
func stderrProgress() func(organizer.Progress) {
	if !shouldColorize(os.Stderr) {
		return nil
	}
	return func(p organizer.Progress) {
		fmt.Fprintf(os.Stderr, "\r\x1b[K[%d/%d] %s", p.Index+1, p.Total, filepath.Base(p.Path))
		if p.Index+1 == p.Total {
			fmt.Fprintln(os.Stderr)
		}
	}
}
