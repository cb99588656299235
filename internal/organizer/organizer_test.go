package organizer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/gofrs/flock"

	"reshelf/internal/history"
	"reshelf/internal/media"
	"reshelf/internal/planner"
	"reshelf/internal/relocation"
	"reshelf/internal/scanner"
	"reshelf/internal/scoring"
	"reshelf/internal/services"
)

type fakeJournal struct {
	begun    int
	finished []string
	entries  []history.Entry
	err      error
}

func (j *fakeJournal) BeginBatch(_ context.Context, _ string, dryRun bool, policy string) (history.Batch, error) {
	j.begun++
	return history.Batch{ID: "batch-1", DryRun: dryRun, Policy: policy}, j.err
}

func (j *fakeJournal) Record(_ context.Context, entry history.Entry) error {
	j.entries = append(j.entries, entry)
	return nil
}

func (j *fakeJournal) FinishBatch(_ context.Context, id string) error {
	j.finished = append(j.finished, id)
	return nil
}

type stubMover struct {
	outcome media.MoveOutcome
	calls   int
}

func (m *stubMover) MoveWithCompanions(context.Context, media.Record, string, relocation.Policy, bool) media.MoveOutcome {
	m.calls++
	return m.outcome
}

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("data"), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// nfoMovie scores 85: IMDB ID, NFO title and year.
func nfoMovie(path, title string, year int) scanner.Item {
	var meta media.Metadata
	meta.Set(media.KeyTitleSource, media.TitleSourceNFO)
	meta.Set(media.KeyIMDbID, "tt0078748")
	return scanner.Item{Path: path, Result: media.IdentificationResult{Record: media.Record{
		Kind: media.KindMovie, SourcePath: path, Title: title, Year: year, Metadata: meta,
	}}}
}

// filenameMovie scores 25: filename title and year.
func filenameMovie(path, title string, year int) scanner.Item {
	return scanner.Item{Path: path, Result: media.IdentificationResult{Record: media.Record{
		Kind: media.KindMovie, SourcePath: path, Title: title, Year: year,
	}}}
}

func unknownItem(path string) scanner.Item {
	return scanner.Item{Path: path, Result: media.IdentificationResult{Record: media.Record{
		Kind: media.KindUnknown, SourcePath: path,
	}}}
}

type fixture struct {
	source  string
	movies  string
	tv      string
	journal *fakeJournal
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	base := t.TempDir()
	return fixture{
		source:  filepath.Join(base, "incoming"),
		movies:  filepath.Join(base, "library", "movies"),
		tv:      filepath.Join(base, "library", "tv"),
		journal: &fakeJournal{},
	}
}

func (f fixture) options(mover Mover, minConfidence int, dryRun bool) Options {
	return Options{
		Planner:       planner.New(f.movies, f.tv),
		Scorer:        scoring.New(scoring.DefaultGreenThreshold, scoring.DefaultYellowThreshold),
		Mover:         mover,
		Journal:       f.journal,
		MinConfidence: minConfidence,
		Policy:        relocation.PolicySkip,
		DryRun:        dryRun,
		SourceRoot:    f.source,
		LockRoots:     []string{f.movies, f.tv},
	}
}

func TestNewRequiresCollaborators(t *testing.T) {
	if _, err := New(Options{}); err == nil {
		t.Fatal("expected error without planner, scorer and mover")
	}
}

func TestRunMovesConfidentItemsAndFiltersTheRest(t *testing.T) {
	f := newFixture(t)
	alien := filepath.Join(f.source, "Alien.mkv")
	heat := filepath.Join(f.source, "Heat.1995.mkv")
	junk := filepath.Join(f.source, "clip.mkv")
	for _, p := range []string{alien, filepath.Join(f.source, "Alien.srt"), heat, junk} {
		touch(t, p)
	}

	var progress []Progress
	opts := f.options(relocation.NewMover(nil), 40, false)
	opts.Progress = func(p Progress) { progress = append(progress, p) }
	org, err := New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	items := []scanner.Item{
		nfoMovie(alien, "Alien", 1979),
		filenameMovie(heat, "Heat", 1995),
		unknownItem(junk),
	}
	report, err := org.Run(context.Background(), items)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if report.BatchID != "batch-1" {
		t.Fatalf("batch id = %q", report.BatchID)
	}
	if report.Planned != 1 || report.Moved != 1 || report.BelowThreshold != 2 || report.Failed != 0 {
		t.Fatalf("unexpected counts: %+v", report)
	}
	if len(progress) != 3 || progress[2].Index != 2 || progress[2].Total != 3 {
		t.Fatalf("unexpected progress: %+v", progress)
	}

	want := filepath.Join(f.movies, "Alien (1979)", "Alien (1979).mkv")
	if report.Items[0].Status != StatusMoved || report.Items[0].Destination != want {
		t.Fatalf("unexpected first item: %+v", report.Items[0])
	}
	for _, p := range []string{want, filepath.Join(f.movies, "Alien (1979)", "Alien (1979).srt")} {
		if _, err := os.Stat(p); err != nil {
			t.Fatalf("expected %s: %v", p, err)
		}
	}
	if _, err := os.Stat(heat); err != nil {
		t.Fatalf("below-threshold file should stay put: %v", err)
	}

	if f.journal.begun != 1 || len(f.journal.finished) != 1 {
		t.Fatalf("journal begin/finish = %d/%v", f.journal.begun, f.journal.finished)
	}
	if len(f.journal.entries) != 3 {
		t.Fatalf("expected 3 journal entries, got %d", len(f.journal.entries))
	}
	first := f.journal.entries[0]
	if first.Action != string(StatusMoved) || !first.Success || first.Destination != want || first.Kind != "movie" {
		t.Fatalf("unexpected journal entry: %+v", first)
	}
	if f.journal.entries[1].Action != string(StatusBelowThreshold) || f.journal.entries[1].Success {
		t.Fatalf("unexpected below-threshold entry: %+v", f.journal.entries[1])
	}
	if _, err := os.Stat(filepath.Join(f.movies, LockFileName)); err != nil {
		t.Fatalf("expected lock file in movies root: %v", err)
	}
}

func TestRunSkipsUnknownWhenFloorIsZero(t *testing.T) {
	f := newFixture(t)
	junk := filepath.Join(f.source, "clip.mkv")
	touch(t, junk)
	mover := &stubMover{}
	org, err := New(f.options(mover, 0, false))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	report, err := org.Run(context.Background(), []scanner.Item{unknownItem(junk)})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Items[0].Status != StatusUnidentified || report.Skipped != 1 || mover.calls != 0 {
		t.Fatalf("unknown should be skipped without moving: %+v calls=%d", report, mover.calls)
	}
}

func TestRunSkipsFilesAlreadyInPlace(t *testing.T) {
	f := newFixture(t)
	inPlace := filepath.Join(f.movies, "Alien (1979)", "Alien (1979).mkv")
	touch(t, inPlace)
	mover := &stubMover{}
	org, err := New(f.options(mover, 0, false))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	report, err := org.Run(context.Background(), []scanner.Item{nfoMovie(inPlace, "Alien", 1979)})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Items[0].Status != StatusInPlace || mover.calls != 0 {
		t.Fatalf("expected in-place skip, got %+v", report.Items[0])
	}
}

func TestRunDryRunTouchesNothing(t *testing.T) {
	f := newFixture(t)
	alien := filepath.Join(f.source, "Alien.mkv")
	touch(t, alien)
	org, err := New(f.options(relocation.NewMover(nil), 0, true))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	report, err := org.Run(context.Background(), []scanner.Item{nfoMovie(alien, "Alien", 1979)})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !report.DryRun || report.Moved != 1 {
		t.Fatalf("unexpected dry-run report: %+v", report)
	}
	if _, err := os.Stat(alien); err != nil {
		t.Fatalf("dry run moved the source: %v", err)
	}
	if _, err := os.Stat(f.movies); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("dry run created the library root: %v", err)
	}
}

func TestRunCountsRollbacksAsFailures(t *testing.T) {
	f := newFixture(t)
	alien := filepath.Join(f.source, "Alien.mkv")
	touch(t, alien)
	mover := &stubMover{outcome: media.MoveOutcome{
		RollbackPerformed: true,
		Errors:            []string{"Failed to move companion x; rolled back"},
		RollbackErrors:    []string{},
	}}
	org, err := New(f.options(mover, 0, false))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	report, err := org.Run(context.Background(), []scanner.Item{nfoMovie(alien, "Alien", 1979)})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Failed != 1 || report.RolledBack != 1 || report.Items[0].Status != StatusRolledBack {
		t.Fatalf("unexpected report: %+v", report)
	}
	entry := f.journal.entries[0]
	if entry.Success || !entry.Rollback || entry.Error != "Failed to move companion x; rolled back" {
		t.Fatalf("unexpected journal entry: %+v", entry)
	}
}

func TestRunReportsSkippedPrimary(t *testing.T) {
	f := newFixture(t)
	alien := filepath.Join(f.source, "Alien.mkv")
	touch(t, alien)
	mover := &stubMover{outcome: media.MoveOutcome{Success: true, Skipped: []string{alien}}}
	org, err := New(f.options(mover, 0, false))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	report, err := org.Run(context.Background(), []scanner.Item{nfoMovie(alien, "Alien", 1979)})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Items[0].Status != StatusSkipped || report.Skipped != 1 || report.Planned != 1 {
		t.Fatalf("unexpected report: %+v", report)
	}
}

func TestRunStopsOnCancellation(t *testing.T) {
	f := newFixture(t)
	mover := &stubMover{outcome: media.MoveOutcome{Success: true}}
	org, err := New(f.options(mover, 0, false))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	report, err := org.Run(ctx, []scanner.Item{nfoMovie(filepath.Join(f.source, "a.mkv"), "A", 2000)})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(report.Items) != 0 || mover.calls != 0 {
		t.Fatalf("no item should run after cancellation: %+v", report)
	}
	if len(f.journal.finished) != 1 {
		t.Fatalf("batch should still be closed, got %v", f.journal.finished)
	}
}

func TestRunFailsWhenLibraryIsLocked(t *testing.T) {
	f := newFixture(t)
	if err := os.MkdirAll(f.tv, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	held := flock.New(filepath.Join(f.tv, LockFileName))
	ok, err := held.TryLock()
	if err != nil || !ok {
		t.Fatalf("TryLock: ok=%v err=%v", ok, err)
	}
	defer func() { _ = held.Unlock() }()

	mover := &stubMover{}
	org, err := New(f.options(mover, 0, false))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = org.Run(context.Background(), []scanner.Item{nfoMovie(filepath.Join(f.source, "a.mkv"), "A", 2000)})
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected lock contention error, got %v", err)
	}
	if mover.calls != 0 || f.journal.begun != 0 {
		t.Fatal("nothing should run while the library is locked")
	}

	// The movies lock taken before the failure must have been released.
	moviesLock := flock.New(filepath.Join(f.movies, LockFileName))
	if ok, err := moviesLock.TryLock(); err != nil || !ok {
		t.Fatalf("movies lock should be free: ok=%v err=%v", ok, err)
	}
	_ = moviesLock.Unlock()
}

func TestRunDryRunIgnoresLocks(t *testing.T) {
	f := newFixture(t)
	if err := os.MkdirAll(f.movies, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	held := flock.New(filepath.Join(f.movies, LockFileName))
	if ok, err := held.TryLock(); err != nil || !ok {
		t.Fatalf("TryLock: ok=%v err=%v", ok, err)
	}
	defer func() { _ = held.Unlock() }()

	org, err := New(f.options(&stubMover{outcome: media.MoveOutcome{Success: true}}, 0, true))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := org.Run(context.Background(), nil); err != nil {
		t.Fatalf("dry run should not need the lock: %v", err)
	}
}
