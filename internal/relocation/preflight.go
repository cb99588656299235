package relocation

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"golang.org/x/sys/unix"
)

const (
	// FreeSpaceMargin is kept free on the destination on top of the payload.
	FreeSpaceMargin = 100 * 1024 * 1024
	// MaxPathLength bounds every destination path.
	MaxPathLength = 255
)

// Transfer pairs a source file with its planned destination.
type Transfer struct {
	Source      string
	Destination string
}

// PreflightReport is the result of checking a destination before any file
// is touched.
type PreflightReport struct {
	FreeSpaceOK    bool
	PathLengthOK   bool
	PermissionsOK  bool
	RequiredBytes  uint64
	AvailableBytes uint64
	Errors         []string
}

// OK reports whether every check passed.
func (r PreflightReport) OK() bool {
	return r.FreeSpaceOK && r.PathLengthOK && r.PermissionsOK
}

// Preflight checks that destDir can receive the transfers. With create set
// the directory is created first; otherwise (dry runs) the nearest existing
// ancestor is probed and nothing is written.
func Preflight(destDir string, transfers []Transfer, create bool) PreflightReport {
	report := PreflightReport{FreeSpaceOK: true, PathLengthOK: true, PermissionsOK: true}

	probe := destDir
	if create {
		if err := os.MkdirAll(destDir, 0o755); err != nil {
			report.PermissionsOK = false
			report.Errors = append(report.Errors, fmt.Sprintf("Cannot create destination: %v", err))
			return report
		}
	} else {
		probe = nearestExistingDir(destDir)
	}

	if err := unix.Access(probe, unix.W_OK); err != nil {
		report.PermissionsOK = false
		report.Errors = append(report.Errors, fmt.Sprintf("Destination is not writable: %s", probe))
	}

	for _, t := range transfers {
		if info, err := os.Stat(t.Source); err == nil {
			report.RequiredBytes += uint64(info.Size())
		}
	}

	var fs unix.Statfs_t
	if err := unix.Statfs(probe, &fs); err == nil {
		report.AvailableBytes = fs.Bavail * uint64(fs.Bsize)
		if report.AvailableBytes < report.RequiredBytes+FreeSpaceMargin {
			report.FreeSpaceOK = false
			report.Errors = append(report.Errors, fmt.Sprintf("Insufficient space: need %s, have %s",
				humanize.IBytes(report.RequiredBytes+FreeSpaceMargin), humanize.IBytes(report.AvailableBytes)))
		}
	}

	for _, t := range transfers {
		if len(t.Destination) > MaxPathLength {
			report.PathLengthOK = false
			report.Errors = append(report.Errors, fmt.Sprintf("Path too long: %s (%d characters, limit %d)",
				t.Destination, len(t.Destination), MaxPathLength))
			break
		}
	}
	return report
}
