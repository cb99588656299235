package scanner

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"reshelf/internal/identification"
	"reshelf/internal/logging"
	"reshelf/internal/media"
)

// DefaultWorkers is used when Options.Workers is not positive.
const DefaultWorkers = 8

// Options configure a Scanner.
type Options struct {
	Workers        int
	FollowSymlinks bool
	// NewEngine builds one engine per worker.
	NewEngine func() *identification.Engine
	Logger    *slog.Logger
}

// Item is one scanned file. Error holds a stat failure; the file is still
// identified from its name.
type Item struct {
	Path   string                     `json:"path"`
	Size   int64                      `json:"size"`
	Error  string                     `json:"error,omitempty"`
	Result media.IdentificationResult `json:"result"`
}

// Scanner identifies every video file under a root.
type Scanner struct {
	opts   Options
	logger *slog.Logger
}

// New constructs a Scanner.
func New(opts Options) *Scanner {
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.NewEngine == nil {
		logger := opts.Logger
		opts.NewEngine = func() *identification.Engine {
			return identification.New(identification.Options{Logger: logger})
		}
	}
	return &Scanner{opts: opts, logger: logging.NewComponentLogger(opts.Logger, "scanner")}
}

// Scan walks root and identifies each video file. Items come back sorted by
// path. Cancelling ctx stops the workers and returns the context error with
// the items finished so far omitted.
func (s *Scanner) Scan(ctx context.Context, root string) ([]Item, error) {
	logger := logging.WithContext(ctx, s.logger)
	started := time.Now()

	paths, err := walkTree(root, s.opts.FollowSymlinks, func(path string, err error) {
		logging.WarnWithContext(logger, "skipping unreadable path", "scan_path_unreadable",
			logging.String("path", path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check permissions on the source tree"),
			logging.String(logging.FieldImpact, "files below this path are not scanned"),
		)
	})
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		logging.WarnWithContext(logger, "no video files found", "scan_empty",
			logging.String("root", root),
			logging.String(logging.FieldImpact, "nothing to organize"),
		)
		return []Item{}, nil
	}

	items := make([]Item, len(paths))
	jobs := make(chan int)
	workers := min(s.opts.Workers, len(paths))

	var wg sync.WaitGroup
	wg.Add(workers)
	for range workers {
		go func() {
			defer wg.Done()
			engine := s.opts.NewEngine()
			for idx := range jobs {
				items[idx] = s.scanOne(ctx, engine, paths[idx])
			}
		}()
	}

feed:
	for idx := range paths {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- idx:
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	logger.Info("scan complete",
		logging.String("root", root),
		logging.Int("files", len(items)),
		logging.Int("workers", workers),
		logging.Duration("elapsed", time.Since(started)),
	)
	return items, nil
}

func (s *Scanner) scanOne(ctx context.Context, engine *identification.Engine, path string) Item {
	item := Item{Path: path}
	if info, err := os.Stat(path); err != nil {
		item.Error = err.Error()
		s.logger.Debug("stat failed", logging.String("path", path), logging.Error(err))
	} else {
		item.Size = info.Size()
	}
	item.Result = engine.Identify(ctx, path)
	return item
}
