package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"reshelf/internal/scoring"
)

// statusKind is the tone of a rendered value. Status checks and confidence
// levels share it so both color the same way.
type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

var statusKinds = map[statusKind]struct{ label, color string }{
	statusInfo:  {"INFO", "\x1b[34m"},
	statusOK:    {"OK", "\x1b[32m"},
	statusWarn:  {"WARN", "\x1b[33m"},
	statusError: {"ERROR", "\x1b[31m"},
}

const ansiReset = "\x1b[0m"

const statusLabelWidth = 20

// paint wraps s in the kind's color when colorize is set.
func paint(kind statusKind, s string, colorize bool) string {
	if !colorize {
		return s
	}
	return statusKinds[kind].color + s + ansiReset
}

// levelKind maps a confidence level onto the status palette.
func levelKind(level scoring.Level) statusKind {
	switch level {
	case scoring.LevelGreen:
		return statusOK
	case scoring.LevelYellow:
		return statusWarn
	default:
		return statusError
	}
}

// renderStatusLine renders "  Label:   [OK] detail".
func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	badge := "[" + statusKinds[kind].label + "]"
	if message != "" {
		badge += " " + message
	}
	return paint(kind, fmt.Sprintf("  %-*s %s", statusLabelWidth, label+":", badge), colorize)
}

// renderConfidence renders "85 (green)" in its level's color.
func renderConfidence(score scoring.Score, colorize bool) string {
	return paint(levelKind(score.Level), fmt.Sprintf("%d (%s)", score.Confidence, score.Level), colorize)
}

func renderSectionHeader(title string, colorize bool) []string {
	line := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	return []string{
		paint(statusInfo, line, colorize),
		paint(statusInfo, strings.Repeat("-", len(line)), colorize),
	}
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
