package relocation

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sys/unix"

	"reshelf/internal/fileutil"
	"reshelf/internal/logging"
	"reshelf/internal/media"
	"reshelf/internal/services"
)

// Policy decides what happens when a destination already exists.
type Policy string

const (
	PolicySkip     Policy = "skip"
	PolicyReplace  Policy = "replace"
	PolicyKeepBoth Policy = "keep_both"
)

// ParsePolicy accepts "skip", "replace", "keep_both" and "keep-both" in any case.
func ParsePolicy(value string) (Policy, error) {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(value)), "-", "_")
	switch Policy(normalized) {
	case PolicySkip, PolicyReplace, PolicyKeepBoth:
		return Policy(normalized), nil
	}
	return "", services.Wrap(services.ErrValidation, "relocation", "parse policy",
		fmt.Sprintf("unknown conflict policy %q", value), nil)
}

// Action is what a transfer did (or would do on a dry run).
type Action string

const (
	ActionMoved    Action = "moved"
	ActionSkipped  Action = "skipped"
	ActionReplaced Action = "replaced"
	ActionKeptBoth Action = "kept_both"
)

// Step describes one file transfer. Destination is the final path, with any
// keep-both suffix applied.
type Step struct {
	Source      string
	Destination string
	Action      Action
	CrossVolume bool
	DryRun      bool
}

// Mover relocates files. It is safe for sequential use; callers serialize
// calls that target the same library.
type Mover struct {
	logger     *slog.Logger
	transfer   func(source, dest string, crossVolume bool) error
	sameVolume func(source, destDir string) bool
	newBackOff func() backoff.BackOff
}

// NewMover constructs a Mover.
func NewMover(logger *slog.Logger) *Mover {
	m := &Mover{
		logger:     logging.NewComponentLogger(logger, "relocation"),
		sameVolume: SameVolume,
		newBackOff: rollbackBackOff,
	}
	m.transfer = m.transferFile
	return m
}

func rollbackBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 50 * time.Millisecond
	b.MaxInterval = time.Second
	b.MaxElapsedTime = 5 * time.Second
	return backoff.WithMaxRetries(b, 5)
}

// MoveOne transfers a single file according to policy. A dry run only stats
// paths and reports the action a live run would take.
func (m *Mover) MoveOne(ctx context.Context, source, dest string, policy Policy, dryRun bool) (Step, error) {
	logger := logging.WithContext(ctx, m.logger)
	step := Step{Source: source, Destination: dest, Action: ActionMoved, DryRun: dryRun}

	srcInfo, err := os.Stat(source)
	if err != nil {
		return step, services.Wrap(services.ErrNotFound, "relocation", "stat source",
			"Source does not exist: "+source, err)
	}
	if !srcInfo.Mode().IsRegular() {
		return step, services.Wrap(services.ErrValidation, "relocation", "stat source",
			"Source is not a regular file: "+source, nil)
	}

	destInfo, err := os.Lstat(dest)
	switch {
	case err == nil:
		if os.SameFile(srcInfo, destInfo) {
			step.Action = ActionSkipped
			return step, nil
		}
		switch policy {
		case PolicyReplace:
			step.Action = ActionReplaced
		case PolicyKeepBoth:
			suffixed, err := ApplyConflictSuffix(dest)
			if err != nil {
				return step, err
			}
			step.Destination = suffixed
			step.Action = ActionKeptBoth
		default:
			step.Action = ActionSkipped
			logger.Info("destination exists; skipping",
				logging.String("source", source),
				logging.String("destination", dest),
			)
			return step, nil
		}
	case !errors.Is(err, fs.ErrNotExist):
		return step, services.Wrap(services.ErrTransient, "relocation", "stat destination",
			"Cannot inspect destination: "+dest, err)
	}

	step.CrossVolume = !m.sameVolume(source, filepath.Dir(step.Destination))

	if dryRun {
		logger.Info("dry run: would move file",
			logging.String("source", source),
			logging.String("destination", step.Destination),
			logging.String("action", string(step.Action)),
			logging.Bool("cross_volume", step.CrossVolume),
		)
		return step, nil
	}

	if err := os.MkdirAll(filepath.Dir(step.Destination), 0o755); err != nil {
		return step, services.Wrap(services.ErrTransient, "relocation", "create directory",
			"Cannot create "+filepath.Dir(step.Destination), err)
	}
	if err := m.transfer(source, step.Destination, step.CrossVolume); err != nil {
		return step, services.Wrap(services.ErrTransient, "relocation", "transfer",
			fmt.Sprintf("Failed to move %s -> %s", source, step.Destination), err)
	}
	logger.Info("moved file",
		logging.String("source", source),
		logging.String("destination", step.Destination),
		logging.String("action", string(step.Action)),
		logging.Bool("cross_volume", step.CrossVolume),
	)
	return step, nil
}

// transferFile renames on the same volume and falls back to a verified copy
// when the kernel reports a cross-device rename. The source is removed only
// after the copy verified; if that removal fails the copy is discarded.
func (m *Mover) transferFile(source, dest string, crossVolume bool) error {
	if !crossVolume {
		err := os.Rename(source, dest)
		if err == nil {
			return nil
		}
		var linkErr *os.LinkError
		if !errors.As(err, &linkErr) || !errors.Is(linkErr.Err, unix.EXDEV) {
			return err
		}
	}
	if err := fileutil.CopyFileVerified(source, dest); err != nil {
		return err
	}
	if err := os.Remove(source); err != nil {
		_ = os.Remove(dest)
		return fmt.Errorf("remove source after copy: %w", err)
	}
	return nil
}

// MoveWithCompanions relocates record's primary file to destination and its
// companions next to it. The call is all-or-nothing: a failure or panic rolls
// back every completed transfer, the primary included.
func (m *Mover) MoveWithCompanions(ctx context.Context, record media.Record, destination string, policy Policy, dryRun bool) (outcome media.MoveOutcome) {
	logger := logging.WithContext(ctx, m.logger).With(logging.String("source", record.SourcePath))
	outcome = media.MoveOutcome{
		Moved:          []string{},
		Skipped:        []string{},
		Replaced:       []string{},
		KeptBoth:       []string{},
		Errors:         []string{},
		RollbackErrors: []string{},
	}

	companions := collectCompanions(record)
	transfers := make([]Transfer, 0, len(companions)+1)
	transfers = append(transfers, Transfer{Source: record.SourcePath, Destination: destination})
	for _, companion := range companions {
		transfers = append(transfers, Transfer{
			Source:      companion,
			Destination: companionDestination(record.SourcePath, destination, companion),
		})
	}

	logger.Debug("relocation preflight",
		logging.String("destination", destination),
		logging.Int("files", len(transfers)),
		logging.Bool("dry_run", dryRun),
	)
	report := Preflight(filepath.Dir(destination), transfers, !dryRun)
	if !report.OK() {
		outcome.Errors = append(outcome.Errors, report.Errors...)
		logging.WarnWithContext(logger, "preflight failed; nothing moved", "preflight_failed",
			logging.String("destination", destination),
			logging.String("reason", strings.Join(report.Errors, "; ")),
			logging.String(logging.FieldErrorHint, "free space, fix permissions or shorten the library path"),
			logging.String(logging.FieldImpact, "file left in place"),
		)
		return outcome
	}

	var completed []Step
	defer func() {
		if r := recover(); r != nil {
			outcome.Success = false
			outcome.Errors = append(outcome.Errors, fmt.Sprintf("Unexpected error moving %s: %v", record.SourcePath, r))
			m.rollback(logger, completed, &outcome)
		}
	}()

	logger.Debug("moving primary file", logging.String("destination", destination))
	primary, err := m.MoveOne(ctx, record.SourcePath, destination, policy, dryRun)
	if err != nil {
		outcome.Errors = append(outcome.Errors, fmt.Sprintf("Failed to move %s: %v", record.SourcePath, err))
		logging.WarnWithContext(logger, "primary move failed", "relocation_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "file left in place"),
		)
		return outcome
	}
	recordStep(&outcome, primary)
	if primary.Action == ActionSkipped {
		// Companions belong to the file that stays in place.
		outcome.Skipped = append(outcome.Skipped, companions...)
		outcome.Success = true
		return outcome
	}
	if !dryRun {
		completed = append(completed, primary)
	}

	if len(companions) > 0 {
		logger.Debug("moving companions", logging.Int("count", len(companions)))
	}
	for _, companion := range companions {
		target := companionDestination(record.SourcePath, primary.Destination, companion)
		step, err := m.MoveOne(ctx, companion, target, policy, dryRun)
		if err != nil {
			outcome.Errors = append(outcome.Errors, fmt.Sprintf("Failed to move companion %s: %v; rolled back", companion, err))
			m.rollback(logger, completed, &outcome)
			return outcome
		}
		recordStep(&outcome, step)
		if !dryRun && step.Action != ActionSkipped {
			completed = append(completed, step)
		}
	}

	outcome.Success = true
	logger.Info("relocation succeeded",
		logging.String("destination", primary.Destination),
		logging.String("summary", outcome.Summary()),
		logging.Bool("dry_run", dryRun),
	)
	return outcome
}

func recordStep(outcome *media.MoveOutcome, step Step) {
	switch step.Action {
	case ActionSkipped:
		outcome.Skipped = append(outcome.Skipped, step.Source)
	case ActionReplaced:
		outcome.Replaced = append(outcome.Replaced, step.Destination)
	case ActionKeptBoth:
		outcome.KeptBoth = append(outcome.KeptBoth, step.Destination)
	default:
		outcome.Moved = append(outcome.Moved, step.Destination)
	}
}

// rollback undoes completed transfers in reverse order. Steps that cannot be
// undone after retries are reported in RollbackErrors.
func (m *Mover) rollback(logger *slog.Logger, completed []Step, outcome *media.MoveOutcome) {
	outcome.RollbackPerformed = true
	for i := len(completed) - 1; i >= 0; i-- {
		step := completed[i]
		err := backoff.Retry(func() error { return m.undo(step) }, m.newBackOff())
		if err != nil {
			outcome.RollbackErrors = append(outcome.RollbackErrors,
				fmt.Sprintf("Rollback failed for %s: %v", step.Destination, err))
			logging.ErrorWithContext(logger, "rollback step failed", "rollback_failed",
				logging.String("source", step.Source),
				logging.String("destination", step.Destination),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "move the file back manually"),
			)
			continue
		}
		logger.Info("rolled back transfer",
			logging.String("source", step.Source),
			logging.String("destination", step.Destination),
		)
	}
}

// undo reverses one transfer: the file goes back to its source when the
// source is gone, otherwise the destination copy is deleted.
func (m *Mover) undo(step Step) error {
	_, err := os.Lstat(step.Source)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if err := os.MkdirAll(filepath.Dir(step.Source), 0o755); err != nil {
			return err
		}
		return m.transferFile(step.Destination, step.Source, !m.sameVolume(step.Destination, filepath.Dir(step.Source)))
	case err != nil:
		return err
	}
	if err := os.Remove(step.Destination); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
