package relocation

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"reshelf/internal/services"
)

// ApplyConflictSuffix returns the first free "name (N).ext" variant of path,
// counting from 1. It fails when a candidate cannot be inspected or would
// exceed MaxPathLength.
func ApplyConflictSuffix(path string) (string, error) {
	dir := filepath.Dir(path)
	ext := filepath.Ext(path)
	stem := trimExt(filepath.Base(path))
	for counter := 1; ; counter++ {
		candidate := filepath.Join(dir, fmt.Sprintf("%s (%d)%s", stem, counter, ext))
		if len(candidate) > MaxPathLength {
			return "", services.Wrap(services.ErrValidation, "relocation", "conflict suffix",
				fmt.Sprintf("Path too long: %s (%d characters)", candidate, len(candidate)), nil)
		}
		_, err := os.Lstat(candidate)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			return candidate, nil
		case err != nil:
			return "", services.Wrap(services.ErrTransient, "relocation", "conflict suffix",
				"Cannot inspect "+candidate, err)
		}
	}
}
