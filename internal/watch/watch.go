// Package watch triggers organizer passes when a source tree changes or a
// cron schedule fires.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/robfig/cron/v3"

	"reshelf/internal/logging"
	"reshelf/internal/services"
)

// Trigger runs one pass. Errors are logged and do not stop the watcher.
type Trigger func(ctx context.Context) error

// Options configure a Watcher.
type Options struct {
	Root string
	// Debounce is the quiet period after the last filesystem event before a
	// pass starts. Zero fires on every event.
	Debounce time.Duration
	// Schedule is an optional standard cron spec or descriptor ("@hourly").
	Schedule string
	// RunOnStart fires one pass before waiting for events.
	RunOnStart bool
	Logger     *slog.Logger
}

// Watcher coalesces filesystem events and scheduled ticks into passes.
type Watcher struct {
	opts     Options
	schedule cron.Schedule
	logger   *slog.Logger
}

// New validates opts and constructs a Watcher.
func New(opts Options) (*Watcher, error) {
	opts.Root = strings.TrimSpace(opts.Root)
	if opts.Root == "" {
		return nil, services.Wrap(services.ErrValidation, "watch", "configure", "root is required", nil)
	}
	info, err := os.Stat(opts.Root)
	if err != nil {
		return nil, services.Wrap(services.ErrNotFound, "watch", "stat root", opts.Root, err)
	}
	if !info.IsDir() {
		return nil, services.Wrap(services.ErrValidation, "watch", "stat root", opts.Root+" is not a directory", nil)
	}
	if opts.Debounce < 0 {
		opts.Debounce = 0
	}
	w := &Watcher{opts: opts, logger: logging.NewComponentLogger(opts.Logger, "watch")}
	if spec := strings.TrimSpace(opts.Schedule); spec != "" {
		schedule, err := cron.ParseStandard(spec)
		if err != nil {
			return nil, services.Wrap(services.ErrValidation, "watch", "parse schedule", spec, err)
		}
		w.schedule = schedule
	}
	return w, nil
}

// Run watches until ctx is cancelled. Passes never overlap; requests that
// arrive while a pass is running collapse into a single follow-up pass.
func (w *Watcher) Run(ctx context.Context, trigger Trigger) error {
	if trigger == nil {
		return errors.New("watch requires a trigger")
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fsw.Close()

	if err := w.addTree(fsw, w.opts.Root); err != nil {
		return err
	}

	requests := make(chan string, 1)
	request := func(reason string) {
		select {
		case requests <- reason:
		default:
		}
	}

	var runner sync.WaitGroup
	runner.Add(1)
	go func() {
		defer runner.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case reason := <-requests:
				w.runPass(ctx, trigger, reason)
			}
		}
	}()
	defer runner.Wait()

	if w.schedule != nil {
		scheduler := cron.New()
		scheduler.Schedule(w.schedule, cron.FuncJob(func() { request("schedule") }))
		scheduler.Start()
		defer func() { <-scheduler.Stop().Done() }()
	}

	w.logger.Info("watching for new media",
		logging.String("root", w.opts.Root),
		logging.Duration("debounce", w.opts.Debounce),
		logging.String("schedule", w.opts.Schedule),
	)
	if w.opts.RunOnStart {
		request("startup")
	}

	var debounce *time.Timer
	var debounceC <-chan time.Time
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("watch stopped")
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addTree(fsw, event.Name); err != nil {
						logging.WarnWithContext(w.logger, "failed to watch new directory", "watch_add_failed",
							logging.String("path", event.Name),
							logging.Error(err),
							logging.String(logging.FieldImpact, "changes inside this directory are only picked up by the next pass"),
						)
					}
				}
			}
			w.logger.Debug("filesystem event", logging.String("path", event.Name), logging.String("op", event.Op.String()))
			if w.opts.Debounce == 0 {
				request("filesystem")
				continue
			}
			if debounce == nil {
				debounce = time.NewTimer(w.opts.Debounce)
			} else {
				debounce.Reset(w.opts.Debounce)
			}
			debounceC = debounce.C
		case <-debounceC:
			debounceC = nil
			request("filesystem")
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logging.WarnWithContext(w.logger, "filesystem watcher error", "watch_error",
				logging.Error(err),
				logging.String(logging.FieldImpact, "some events may have been missed"),
			)
		}
	}
}

func (w *Watcher) runPass(ctx context.Context, trigger Trigger, reason string) {
	start := time.Now()
	w.logger.Info("pass started", logging.String("reason", reason))
	if err := trigger(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		logging.ErrorWithContext(w.logger, "pass failed", "watch_pass_failed",
			logging.String("reason", reason),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "the next event or scheduled tick retries"),
		)
		return
	}
	w.logger.Info("pass finished", logging.String("reason", reason), logging.Duration("elapsed", time.Since(start)))
}

// relevant filters to create, write and rename events on visible paths.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) {
		return false
	}
	return !strings.HasPrefix(filepath.Base(event.Name), ".")
}

// addTree watches root and every directory below it. Hidden directories are
// skipped.
func (w *Watcher) addTree(fsw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return services.Wrap(services.ErrNotFound, "watch", "walk", path, err)
			}
			w.logger.Debug("skipping unreadable path", logging.String("path", path), logging.Error(err))
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := fsw.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}
