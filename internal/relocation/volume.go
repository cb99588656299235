package relocation

import (
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// SameVolume reports whether source and destDir live on the same device. A
// destination that does not exist yet is judged by its nearest existing
// ancestor. Any stat failure counts as a different volume so the caller takes
// the verified-copy path.
func SameVolume(source, destDir string) bool {
	var src unix.Stat_t
	if err := unix.Stat(source, &src); err != nil {
		return false
	}
	var dst unix.Stat_t
	if err := unix.Stat(nearestExistingDir(destDir), &dst); err != nil {
		return false
	}
	return src.Dev == dst.Dev
}

// nearestExistingDir walks up from dir until it finds an existing directory.
func nearestExistingDir(dir string) string {
	dir = filepath.Clean(dir)
	for {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return dir
		}
		dir = parent
	}
}
