package organizer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"

	"reshelf/internal/history"
	"reshelf/internal/logging"
	"reshelf/internal/media"
	"reshelf/internal/relocation"
	"reshelf/internal/scanner"
	"reshelf/internal/scoring"
	"reshelf/internal/services"
)

// LockFileName is created in each destination root during live batches.
const LockFileName = ".reshelf.lock"

// Planner maps a record to its library path.
type Planner interface {
	Destination(record media.Record) string
}

// Scorer rates an identification.
type Scorer interface {
	Score(result media.IdentificationResult) scoring.Score
}

// Mover relocates a record and its companions.
type Mover interface {
	MoveWithCompanions(ctx context.Context, record media.Record, destination string, policy relocation.Policy, dryRun bool) media.MoveOutcome
}

// Journal persists batch results.
type Journal interface {
	BeginBatch(ctx context.Context, sourceRoot string, dryRun bool, policy string) (history.Batch, error)
	Record(ctx context.Context, entry history.Entry) error
	FinishBatch(ctx context.Context, batchID string) error
}

// Status is the per-item result of a batch.
type Status string

const (
	StatusMoved          Status = "moved"
	StatusSkipped        Status = "skipped"
	StatusFailed         Status = "failed"
	StatusRolledBack     Status = "rolled_back"
	StatusBelowThreshold Status = "below_threshold"
	StatusUnidentified   Status = "unidentified"
	StatusInPlace        Status = "in_place"
)

// Progress is reported before each item is processed.
type Progress struct {
	Index int
	Total int
	Path  string
}

// Options configure an Organizer.
type Options struct {
	Planner       Planner
	Scorer        Scorer
	Mover         Mover
	Journal       Journal
	MinConfidence int
	Policy        relocation.Policy
	DryRun        bool
	SourceRoot    string
	// LockRoots are the library roots locked for the duration of a live batch.
	LockRoots []string
	Progress  func(Progress)
	Logger    *slog.Logger
}

// ItemResult describes what happened to one scanned file.
type ItemResult struct {
	Path        string             `json:"path"`
	Destination string             `json:"destination,omitempty"`
	Kind        media.Kind         `json:"kind"`
	Title       string             `json:"title"`
	Score       scoring.Score      `json:"score"`
	Status      Status             `json:"status"`
	Outcome     *media.MoveOutcome `json:"outcome,omitempty"`
}

// Report summarizes a batch.
type Report struct {
	BatchID        string       `json:"batch_id,omitempty"`
	DryRun         bool         `json:"dry_run"`
	Planned        int          `json:"planned"`
	Moved          int          `json:"moved"`
	Skipped        int          `json:"skipped"`
	Failed         int          `json:"failed"`
	RolledBack     int          `json:"rolled_back"`
	BelowThreshold int          `json:"below_threshold"`
	Items          []ItemResult `json:"items"`
}

// Organizer drives relocation batches.
type Organizer struct {
	opts   Options
	logger *slog.Logger
}

// New constructs an Organizer.
func New(opts Options) (*Organizer, error) {
	if opts.Planner == nil || opts.Scorer == nil || opts.Mover == nil {
		return nil, errors.New("organizer requires planner, scorer and mover")
	}
	if opts.Policy == "" {
		opts.Policy = relocation.PolicySkip
	}
	return &Organizer{opts: opts, logger: logging.NewComponentLogger(opts.Logger, "organizer")}, nil
}

// Run processes items in order. It stops between items when ctx is
// cancelled and returns the partial report with the context error.
func (o *Organizer) Run(ctx context.Context, items []scanner.Item) (Report, error) {
	report := Report{DryRun: o.opts.DryRun, Items: make([]ItemResult, 0, len(items))}

	if !o.opts.DryRun {
		release, err := o.lockRoots()
		if err != nil {
			return report, err
		}
		defer release()
	}

	if o.opts.Journal != nil {
		batch, err := o.opts.Journal.BeginBatch(ctx, o.opts.SourceRoot, o.opts.DryRun, string(o.opts.Policy))
		if err != nil {
			return report, fmt.Errorf("begin batch: %w", err)
		}
		report.BatchID = batch.ID
		ctx = services.WithBatchID(ctx, batch.ID)
		defer func() {
			if err := o.opts.Journal.FinishBatch(context.WithoutCancel(ctx), batch.ID); err != nil {
				o.logger.Warn("failed to close history batch", logging.Error(err))
			}
		}()
	}
	ctx = services.WithStage(ctx, "organize")
	logger := logging.WithContext(ctx, o.logger)
	logger.Info("batch started",
		logging.Int("items", len(items)),
		logging.Bool("dry_run", o.opts.DryRun),
		logging.String("policy", string(o.opts.Policy)),
	)

	for idx, item := range items {
		if err := ctx.Err(); err != nil {
			logger.Info("batch cancelled", logging.Int("processed", idx))
			return report, err
		}
		if o.opts.Progress != nil {
			o.opts.Progress(Progress{Index: idx, Total: len(items), Path: item.Path})
		}
		result := o.process(ctx, logger, item)
		report.add(result)
		o.journal(ctx, logger, report.BatchID, result)
	}

	logger.Info("batch finished",
		logging.Int("planned", report.Planned),
		logging.Int("moved", report.Moved),
		logging.Int("skipped", report.Skipped),
		logging.Int("failed", report.Failed),
		logging.Int("rolled_back", report.RolledBack),
		logging.Int("below_threshold", report.BelowThreshold),
	)
	return report, nil
}

func (o *Organizer) process(ctx context.Context, logger *slog.Logger, item scanner.Item) ItemResult {
	record := item.Result.Record
	result := ItemResult{
		Path:  item.Path,
		Kind:  record.Kind,
		Title: record.Title,
		Score: o.opts.Scorer.Score(item.Result),
	}

	if result.Score.Confidence < o.opts.MinConfidence {
		result.Status = StatusBelowThreshold
		logger.Debug("below confidence threshold",
			logging.String("path", item.Path),
			logging.Int("confidence", result.Score.Confidence),
			logging.Int("minimum", o.opts.MinConfidence),
		)
		return result
	}
	if record.Kind == media.KindUnknown {
		result.Status = StatusUnidentified
		return result
	}

	destination := o.opts.Planner.Destination(record)
	result.Destination = destination
	if filepath.Clean(destination) == filepath.Clean(item.Path) {
		result.Status = StatusInPlace
		return result
	}

	outcome := o.opts.Mover.MoveWithCompanions(ctx, record, destination, o.opts.Policy, o.opts.DryRun)
	result.Outcome = &outcome
	switch {
	case outcome.RollbackPerformed:
		result.Status = StatusRolledBack
	case !outcome.Success:
		result.Status = StatusFailed
	case primarySkipped(outcome, item.Path):
		result.Status = StatusSkipped
	default:
		result.Status = StatusMoved
		if dest := primaryDestination(outcome); dest != "" {
			result.Destination = dest
		}
	}
	if !outcome.Success {
		logging.WarnWithContext(logger, "relocation failed", "relocation_failed",
			logging.String("path", item.Path),
			logging.String("destination", destination),
			logging.String("reason", strings.Join(outcome.Errors, "; ")),
			logging.Bool("rolled_back", outcome.RollbackPerformed),
			logging.String(logging.FieldImpact, "file left at its source"),
		)
	}
	return result
}

func primarySkipped(outcome media.MoveOutcome, source string) bool {
	return len(outcome.Skipped) > 0 && outcome.Skipped[0] == source
}

// primaryDestination is the first destination recorded in the outcome; the
// primary always moves first.
func primaryDestination(outcome media.MoveOutcome) string {
	for _, list := range [][]string{outcome.Moved, outcome.Replaced, outcome.KeptBoth} {
		if len(list) > 0 {
			return list[0]
		}
	}
	return ""
}

func (r *Report) add(item ItemResult) {
	r.Items = append(r.Items, item)
	if item.Outcome != nil {
		r.Planned++
	}
	switch item.Status {
	case StatusMoved:
		r.Moved++
	case StatusSkipped, StatusUnidentified, StatusInPlace:
		r.Skipped++
	case StatusFailed:
		r.Failed++
	case StatusRolledBack:
		r.Failed++
		r.RolledBack++
	case StatusBelowThreshold:
		r.BelowThreshold++
	}
}

func (o *Organizer) journal(ctx context.Context, logger *slog.Logger, batchID string, item ItemResult) {
	if o.opts.Journal == nil || batchID == "" {
		return
	}
	entry := history.Entry{
		BatchID:     batchID,
		Source:      item.Path,
		Destination: item.Destination,
		Action:      string(item.Status),
		Kind:        string(item.Kind),
		Title:       item.Title,
		Success:     item.Status == StatusMoved || item.Status == StatusSkipped || item.Status == StatusInPlace,
	}
	if item.Outcome != nil {
		entry.Rollback = item.Outcome.RollbackPerformed
		entry.Error = strings.Join(append(append([]string{}, item.Outcome.Errors...), item.Outcome.RollbackErrors...), "; ")
	}
	if err := o.opts.Journal.Record(context.WithoutCancel(ctx), entry); err != nil {
		logging.WarnWithContext(logger, "failed to journal item", "history_write_failed",
			logging.String("path", item.Path),
			logging.Error(err),
			logging.String(logging.FieldImpact, "history is missing this item"),
		)
	}
}

// lockRoots takes an exclusive lock file in every distinct destination root.
// The returned func releases them.
func (o *Organizer) lockRoots() (func(), error) {
	var locks []*flock.Flock
	release := func() {
		for i := len(locks) - 1; i >= 0; i-- {
			if err := locks[i].Unlock(); err != nil {
				o.logger.Warn("failed to release library lock", logging.String("lock", locks[i].Path()), logging.Error(err))
			}
		}
	}
	seen := make(map[string]struct{})
	for _, root := range o.opts.LockRoots {
		root = strings.TrimSpace(root)
		if root == "" {
			continue
		}
		root = filepath.Clean(root)
		if _, ok := seen[root]; ok {
			continue
		}
		seen[root] = struct{}{}
		if err := os.MkdirAll(root, 0o755); err != nil {
			release()
			return nil, services.Wrap(services.ErrConfiguration, "organizer", "ensure library root", root, err)
		}
		lock := flock.New(filepath.Join(root, LockFileName))
		ok, err := lock.TryLock()
		if err != nil {
			release()
			return nil, fmt.Errorf("acquire lock %s: %w", lock.Path(), err)
		}
		if !ok {
			release()
			return nil, services.Wrap(services.ErrTransient, "organizer", "acquire lock",
				"another reshelf process is organizing into "+root, nil)
		}
		locks = append(locks, lock)
	}
	return release, nil
}
