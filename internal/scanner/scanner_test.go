package scanner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"sync/atomic"
	"testing"

	"reshelf/internal/identification"
	"reshelf/internal/media"
	"reshelf/internal/services"
)

func writeFile(t *testing.T, path string, size int) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, make([]byte, size), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestWalkFiltersVideoFiles(t *testing.T) {
	root := t.TempDir()
	want := []string{
		writeFile(t, filepath.Join(root, "a", "Movie (2001).mkv"), 1),
		writeFile(t, filepath.Join(root, "b", "Show", "Season 1", "Show.S01E01.MP4"), 1),
		writeFile(t, filepath.Join(root, "c.ts"), 1),
	}
	writeFile(t, filepath.Join(root, "a", "Movie (2001).srt"), 1)
	writeFile(t, filepath.Join(root, "notes.txt"), 1)
	slices.Sort(want)

	got, err := Walk(root, false)
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	if !slices.Equal(got, want) {
		t.Fatalf("Walk = %v, want %v", got, want)
	}
}

func TestWalkSymlinks(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	target := writeFile(t, filepath.Join(outside, "linked", "Film.mkv"), 1)
	if err := os.Symlink(filepath.Join(outside, "linked"), filepath.Join(root, "dirlink")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}
	if err := os.Symlink(target, filepath.Join(root, "filelink.mkv")); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(root, filepath.Join(root, "loop")); err != nil {
		t.Fatal(err)
	}

	skipped, err := Walk(root, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(skipped) != 0 {
		t.Fatalf("symlinks should be skipped, got %v", skipped)
	}

	followed, err := Walk(root, true)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{filepath.Join(root, "dirlink", "Film.mkv"), filepath.Join(root, "filelink.mkv")}
	if !slices.Equal(followed, want) {
		t.Fatalf("followed = %v, want %v", followed, want)
	}
}

func TestWalkMissingRoot(t *testing.T) {
	_, err := Walk(filepath.Join(t.TempDir(), "missing"), false)
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestWalkSingleFile(t *testing.T) {
	file := writeFile(t, filepath.Join(t.TempDir(), "Clip.mkv"), 1)
	got, err := Walk(file, false)
	if err != nil || !slices.Equal(got, []string{file}) {
		t.Fatalf("Walk(file) = %v, %v", got, err)
	}
}

func TestScanIdentifiesWithPerWorkerEngines(t *testing.T) {
	root := t.TempDir()
	movie := writeFile(t, filepath.Join(root, "Heat (1995)", "Heat.mkv"), 42)
	episode := writeFile(t, filepath.Join(root, "Lost", "Season 01", "Lost.S01E02.mkv"), 7)
	for i := range 6 {
		writeFile(t, filepath.Join(root, "extra", "Clip"+string(rune('A'+i))+".mkv"), 1)
	}

	var engines atomic.Int32
	s := New(Options{
		Workers: 3,
		NewEngine: func() *identification.Engine {
			engines.Add(1)
			return identification.New(identification.Options{})
		},
	})
	items, err := s.Scan(context.Background(), root)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(items) != 8 {
		t.Fatalf("expected 8 items, got %d", len(items))
	}
	if got := engines.Load(); got != 3 {
		t.Fatalf("expected one engine per worker, got %d", got)
	}
	if !slices.IsSortedFunc(items, func(a, b Item) int {
		switch {
		case a.Path < b.Path:
			return -1
		case a.Path > b.Path:
			return 1
		}
		return 0
	}) {
		t.Fatal("items should be sorted by path")
	}

	byPath := map[string]Item{}
	for _, item := range items {
		byPath[item.Path] = item
	}
	if got := byPath[movie]; got.Size != 42 || got.Result.Record.Kind != media.KindMovie || got.Result.Record.Title != "Heat" {
		t.Fatalf("movie item = %+v", got)
	}
	if got := byPath[episode]; got.Size != 7 || got.Result.Record.Kind != media.KindEpisode {
		t.Fatalf("episode item = %+v", got)
	}
}

func TestScanCancelled(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.mkv"), 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := New(Options{Workers: 1}).Scan(ctx, root); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestScanEmptyTree(t *testing.T) {
	items, err := New(Options{}).Scan(context.Background(), t.TempDir())
	if err != nil || len(items) != 0 {
		t.Fatalf("Scan(empty) = %v, %v", items, err)
	}
}
