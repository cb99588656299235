package ffprobe

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"reshelf/internal/services"
)

func TestResultHelpers(t *testing.T) {
	result := Result{Format: Format{Duration: "123.45", Size: "1000"}}
	if result.DurationSeconds() != 123.45 {
		t.Fatalf("unexpected duration: %v", result.DurationSeconds())
	}
	if result.SizeBytes() != 1000 {
		t.Fatalf("unexpected size: %d", result.SizeBytes())
	}
}

func TestResultHelpersHandleInvalidNumbers(t *testing.T) {
	result := Result{Format: Format{Duration: "bad", Size: "-1"}}
	if !math.IsNaN(result.DurationSeconds()) {
		t.Fatalf("expected duration NaN, got %v", result.DurationSeconds())
	}
	if result.SizeBytes() != 0 {
		t.Fatalf("expected size 0, got %d", result.SizeBytes())
	}
}

func fakeProbe(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ffprobe")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatalf("write fake ffprobe: %v", err)
	}
	return path
}

func TestDurationMinutes(t *testing.T) {
	binary := fakeProbe(t, `echo '{"format":{"filename":"x.mkv","duration":"5400.000000"}}'`)
	probe := NewDurationProbe(binary, time.Second)
	minutes, err := probe.DurationMinutes(context.Background(), "x.mkv")
	if err != nil {
		t.Fatalf("DurationMinutes returned error: %v", err)
	}
	if minutes != 90 {
		t.Fatalf("expected 90 minutes, got %v", minutes)
	}
}

func TestDurationMinutesFailures(t *testing.T) {
	tests := []struct {
		name   string
		binary func(t *testing.T) string
		marker error
	}{
		{"missing binary", func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope") }, services.ErrExternalTool},
		{"non-zero exit", func(t *testing.T) string { return fakeProbe(t, "exit 1") }, services.ErrExternalTool},
		{"no duration", func(t *testing.T) string { return fakeProbe(t, `echo '{"format":{}}'`) }, services.ErrExternalTool},
		{"timeout", func(t *testing.T) string { return fakeProbe(t, "exec sleep 5") }, services.ErrTimeout},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			probe := NewDurationProbe(tc.binary(t), 200*time.Millisecond)
			_, err := probe.DurationMinutes(context.Background(), "x.mkv")
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, tc.marker) {
				t.Fatalf("expected %v marker, got %v", tc.marker, err)
			}
		})
	}
}
