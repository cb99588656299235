package preflight

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"reshelf/internal/config"
	"reshelf/internal/deps"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
	if !strings.Contains(result.Detail, "free") {
		t.Fatalf("expected free space in detail, got %q", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckLibraryRoot_Missing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "library", "movies")
	result := CheckLibraryRoot("Movies", path)
	if !result.Passed {
		t.Fatalf("missing root under writable parent should pass, got %s", result.Detail)
	}
	if !strings.Contains(result.Detail, "will be created") {
		t.Fatalf("unexpected detail: %q", result.Detail)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("check must not create the directory")
	}
}

func TestCheckLibraryRoot_UnderFile(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if result := CheckLibraryRoot("Movies", filepath.Join(f, "movies")); result.Passed {
		t.Fatal("expected failure when the root sits under a file")
	}
}

func TestCheckSourceDir(t *testing.T) {
	dir := t.TempDir()
	if r := CheckSourceDir("Source", dir); !r.Passed {
		t.Fatalf("expected pass, got %s", r.Detail)
	}
	file := filepath.Join(dir, "movie.mkv")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if r := CheckSourceDir("Source", file); !r.Passed || !strings.Contains(r.Detail, "single file") {
		t.Fatalf("single file source should pass, got %+v", r)
	}
	if r := CheckSourceDir("Source", filepath.Join(dir, "missing")); r.Passed {
		t.Fatal("expected failure for missing source")
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	if results := RunAll(context.Background(), nil); results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAll_ConfiguredPaths(t *testing.T) {
	stub := filepath.Join(t.TempDir(), "ffprobe")
	if err := os.WriteFile(stub, []byte("#!/bin/sh\necho 'ffprobe version test'\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	cfg := config.Default()
	cfg.Paths.Source = t.TempDir()
	cfg.Paths.MoviesDir = t.TempDir()
	cfg.Paths.TVDir = filepath.Join(t.TempDir(), "tv")
	cfg.Paths.StateDir = t.TempDir()
	cfg.Identification.FFprobeBinary = stub

	results := RunAll(context.Background(), &cfg)
	if len(results) != 5 {
		t.Fatalf("expected 5 results, got %d: %+v", len(results), results)
	}
	for _, r := range results {
		if !r.Passed {
			t.Errorf("check %q failed: %s", r.Name, r.Detail)
		}
	}
	if last := results[len(results)-1]; last.Name != "FFprobe" || last.Detail != "ffprobe version test" {
		t.Fatalf("unexpected ffprobe result: %+v", last)
	}
	if failed := Failed(results); len(failed) != 0 {
		t.Fatalf("expected no failures, got %+v", failed)
	}
}

func TestMissingFFprobeIsOptional(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.Source = ""
	cfg.Paths.MoviesDir = ""
	cfg.Paths.TVDir = ""
	cfg.Paths.StateDir = ""
	cfg.Identification.FFprobeBinary = "clearly-not-present-ffprobe"

	results := RunAll(context.Background(), &cfg)
	if len(results) != 1 || results[0].Passed || !results[0].Optional {
		t.Fatalf("unexpected results: %+v", results)
	}
	if len(Failed(results)) != 0 {
		t.Fatal("optional failures must not count as failed")
	}
}

func TestFromDependencyFallsBackToPath(t *testing.T) {
	r := FromDependency(deps.Status{Name: "X", Available: true, Path: "/usr/bin/x"})
	if !r.Passed || r.Detail != "/usr/bin/x" {
		t.Fatalf("unexpected result: %+v", r)
	}
}
