package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"reshelf/internal/history"
	"reshelf/internal/services"
)

type cliTestEnv struct {
	base       string
	source     string
	movies     string
	tv         string
	state      string
	configPath string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()
	t.Setenv("RESHELF_MOVIES_DIR", "")
	t.Setenv("RESHELF_TV_DIR", "")

	base := t.TempDir()
	t.Setenv("HOME", base)
	env := &cliTestEnv{
		base:       base,
		source:     filepath.Join(base, "incoming"),
		movies:     filepath.Join(base, "library", "movies"),
		tv:         filepath.Join(base, "library", "tv"),
		state:      filepath.Join(base, "state"),
		configPath: filepath.Join(base, "config.toml"),
	}
	if err := os.MkdirAll(env.source, 0o755); err != nil {
		t.Fatalf("mkdir source: %v", err)
	}
	writeTestConfig(t, env.configPath, fmt.Sprintf(`[paths]
source = %q
movies_dir = %q
tv_dir = %q
state_dir = %q

[logging]
level = "error"
`, env.source, env.movies, env.tv, env.state))
	return env
}

func writeTestConfig(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func (e *cliTestEnv) touch(t *testing.T, rel string) string {
	t.Helper()
	path := filepath.Join(e.source, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("video"), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestIdentifyJSON(t *testing.T) {
	env := setupCLITestEnv(t)
	path := env.touch(t, filepath.Join("Heat (1995)", "Heat.mkv"))

	out, _, err := runCLI(t, []string{"identify", "--json", path}, env.configPath)
	if err != nil {
		t.Fatalf("identify: %v", err)
	}
	var views []struct {
		Path   string `json:"path"`
		Result struct {
			Record struct {
				Kind  string `json:"kind"`
				Title string `json:"title"`
				Year  int    `json:"year"`
			} `json:"record"`
			Reasons []string `json:"reasons"`
		} `json:"result"`
		Score struct {
			Confidence int    `json:"confidence"`
			Level      string `json:"level"`
		} `json:"score"`
		Destination string `json:"destination"`
	}
	if err := json.Unmarshal([]byte(out), &views); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
	if len(views) != 1 {
		t.Fatalf("expected 1 view, got %d", len(views))
	}
	v := views[0]
	if v.Result.Record.Kind != "movie" || v.Result.Record.Title != "Heat" || v.Result.Record.Year != 1995 {
		t.Fatalf("unexpected record: %+v", v.Result.Record)
	}
	if v.Score.Confidence != 25 || v.Score.Level != "red" {
		t.Fatalf("unexpected score: %+v", v.Score)
	}
	want := filepath.Join(env.movies, "Heat (1995)", "Heat (1995).mkv")
	if v.Destination != want {
		t.Fatalf("destination = %q, want %q", v.Destination, want)
	}
	if len(v.Result.Reasons) == 0 {
		t.Fatal("expected reasons in output")
	}
}

func TestIdentifyHumanOutput(t *testing.T) {
	env := setupCLITestEnv(t)
	path := env.touch(t, filepath.Join("Severance", "Season 01", "Severance.S01E02.mkv"))

	out, _, err := runCLI(t, []string{"identify", path}, env.configPath)
	if err != nil {
		t.Fatalf("identify: %v", err)
	}
	for _, fragment := range []string{"Kind:        episode", "Title:       Severance", "Episode:     S01E02", "Reasons:"} {
		if !strings.Contains(out, fragment) {
			t.Fatalf("expected %q in output:\n%s", fragment, out)
		}
	}
}

func TestIdentifyMissingFile(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := runCLI(t, []string{"identify", filepath.Join(env.source, "nope.mkv")}, env.configPath)
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if services.ExitCode(err) != 3 {
		t.Fatalf("exit code = %d", services.ExitCode(err))
	}
}

func TestScanListsFiles(t *testing.T) {
	env := setupCLITestEnv(t)
	env.touch(t, filepath.Join("Heat (1995)", "Heat.mkv"))
	env.touch(t, filepath.Join("Severance", "Season 01", "Severance.S01E02.mkv"))
	env.touch(t, "notes.txt")

	out, _, err := runCLI(t, []string{"scan", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	var summary struct {
		Files int `json:"files"`
		Items []struct {
			Kind string `json:"kind"`
		} `json:"items"`
	}
	if err := json.Unmarshal([]byte(out), &summary); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if summary.Files != 2 || len(summary.Items) != 2 {
		t.Fatalf("unexpected summary: %+v", summary)
	}

	out, _, err = runCLI(t, []string{"scan"}, env.configPath)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if !strings.Contains(out, "2 files") || !strings.Contains(out, "Severance") {
		t.Fatalf("unexpected table output:\n%s", out)
	}
}

func TestMoveDryRunThenLive(t *testing.T) {
	env := setupCLITestEnv(t)
	source := env.touch(t, filepath.Join("Heat (1995)", "Heat.mkv"))
	env.touch(t, filepath.Join("Heat (1995)", "Heat.srt"))
	dest := filepath.Join(env.movies, "Heat (1995)", "Heat (1995).mkv")

	out, _, err := runCLI(t, []string{"move"}, env.configPath)
	if err != nil {
		t.Fatalf("dry-run move: %v", err)
	}
	if !strings.Contains(out, "Dry run: would move 1 of 1 planned") {
		t.Fatalf("unexpected dry-run output:\n%s", out)
	}
	if _, err := os.Stat(source); err != nil {
		t.Fatalf("dry run moved the source: %v", err)
	}

	out, _, err = runCLI(t, []string{"move", "--no-dry-run"}, env.configPath)
	if err != nil {
		t.Fatalf("live move: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Moved 1 of 1 planned") {
		t.Fatalf("unexpected live output:\n%s", out)
	}
	for _, p := range []string{dest, filepath.Join(env.movies, "Heat (1995)", "Heat (1995).srt")} {
		if _, err := os.Stat(p); err != nil {
			t.Fatalf("expected %s: %v", p, err)
		}
	}

	out, _, err = runCLI(t, []string{"history", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	var batches []history.Batch
	if err := json.Unmarshal([]byte(out), &batches); err != nil {
		t.Fatalf("decode history: %v\n%s", err, out)
	}
	if len(batches) != 2 || batches[0].DryRun || !batches[1].DryRun {
		t.Fatalf("unexpected batches: %+v", batches)
	}

	out, _, err = runCLI(t, []string{"history", "--batch", batches[0].ID[:8]}, env.configPath)
	if err != nil {
		t.Fatalf("history --batch: %v", err)
	}
	if !strings.Contains(out, "moved") || !strings.Contains(out, "Heat") {
		t.Fatalf("unexpected batch output:\n%s", out)
	}
}

func TestMoveRespectsConfidenceFloor(t *testing.T) {
	env := setupCLITestEnv(t)
	source := env.touch(t, filepath.Join("Heat (1995)", "Heat.mkv"))

	out, _, err := runCLI(t, []string{"move", "--no-dry-run", "--confidence", "70"}, env.configPath)
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if !strings.Contains(out, "1 below threshold") {
		t.Fatalf("unexpected output:\n%s", out)
	}
	if _, err := os.Stat(source); err != nil {
		t.Fatalf("low-confidence file should stay: %v", err)
	}
}

func TestMoveTargetsOverrideAndSave(t *testing.T) {
	env := setupCLITestEnv(t)
	env.touch(t, filepath.Join("Heat (1995)", "Heat.mkv"))
	alt := filepath.Join(env.base, "alt-movies")

	if _, _, err := runCLI(t, []string{"move", "--no-dry-run", "--movies-target", alt, "--save-config"}, env.configPath); err != nil {
		t.Fatalf("move: %v", err)
	}
	if _, err := os.Stat(filepath.Join(alt, "Heat (1995)", "Heat (1995).mkv")); err != nil {
		t.Fatalf("expected file under override target: %v", err)
	}
	data, err := os.ReadFile(env.configPath)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	if !strings.Contains(string(data), alt) {
		t.Fatalf("saved config should contain %s:\n%s", alt, data)
	}
}

func TestMoveFlagValidation(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := runCLI(t, []string{"move", "--dry-run", "--no-dry-run"}, env.configPath)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	_, _, err = runCLI(t, []string{"move", "--conflict-policy", "overwrite"}, env.configPath)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for policy, got %v", err)
	}
}

func TestMoveRequiresTargets(t *testing.T) {
	env := setupCLITestEnv(t)
	writeTestConfig(t, env.configPath, fmt.Sprintf("[paths]\nsource = %q\nstate_dir = %q\n", env.source, env.state))
	_, _, err := runCLI(t, []string{"move"}, env.configPath)
	if services.ExitCode(err) != 2 {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestStatusReportsChecks(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, []string{"status"}, env.configPath)
	if err != nil {
		t.Fatalf("status: %v\n%s", err, out)
	}
	for _, fragment := range []string{"== Configuration ==", "== Environment ==", "Movies library:", "State directory:", "FFprobe:"} {
		if !strings.Contains(out, fragment) {
			t.Fatalf("expected %q in output:\n%s", fragment, out)
		}
	}
}

func TestConfigCommands(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	target := filepath.Join(dir, "reshelf", "config.toml")

	out, _, err := runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out, "Wrote sample configuration") {
		t.Fatalf("unexpected init output: %s", out)
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected error when config already exists")
	}

	out, _, err = runCLI(t, []string{"config", "validate"}, target)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	if !strings.Contains(out, "Configuration valid") {
		t.Fatalf("unexpected validate output: %s", out)
	}

	out, _, err = runCLI(t, []string{"config", "show"}, target)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if !strings.Contains(out, "conflict_policy = 'skip'") && !strings.Contains(out, `conflict_policy = "skip"`) {
		t.Fatalf("unexpected show output:\n%s", out)
	}
}

func TestInvalidConfigExitCode(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	path := filepath.Join(dir, "config.toml")
	writeTestConfig(t, path, "[behavior]\nconflict_policy = \"overwrite\"\n")
	_, _, err := runCLI(t, []string{"status"}, path)
	if services.ExitCode(err) != 2 {
		t.Fatalf("expected exit code 2, got %d (%v)", services.ExitCode(err), err)
	}
}

func TestResolveDryRun(t *testing.T) {
	tests := []struct {
		name                  string
		def, dryRun, noDryRun bool
		wantLive, wantErr     bool
	}{
		{"config dry", true, false, false, false, false},
		{"config live", false, false, false, true, false},
		{"flag dry", false, true, false, false, false},
		{"flag live", true, false, true, true, false},
		{"both", true, true, true, false, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			live, err := resolveDryRun(tc.def, tc.dryRun, tc.noDryRun)
			if (err != nil) != tc.wantErr {
				t.Fatalf("err = %v", err)
			}
			if live != tc.wantLive {
				t.Fatalf("live = %v, want %v", live, tc.wantLive)
			}
		})
	}
}
