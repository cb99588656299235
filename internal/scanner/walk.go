package scanner

import (
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"reshelf/internal/media"
	"reshelf/internal/services"
)

// Walk lists the video files under root, sorted by path. A root that is a
// file yields itself when it is a video. Symbolic links are skipped unless
// followSymlinks is set; followed directory links are entered once.
func Walk(root string, followSymlinks bool) ([]string, error) {
	return walkTree(root, followSymlinks, nil)
}

func walkTree(root string, followSymlinks bool, onError func(path string, err error)) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, services.Wrap(services.ErrNotFound, "scan", "stat root", root, err)
	}
	if !info.IsDir() {
		if info.Mode().IsRegular() && media.IsVideo(root) {
			return []string{root}, nil
		}
		return nil, nil
	}

	var files []string
	visited := make(map[string]struct{})
	var walk func(dir string)
	walk = func(dir string) {
		if real, err := filepath.EvalSymlinks(dir); err == nil {
			if _, seen := visited[real]; seen {
				return
			}
			visited[real] = struct{}{}
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			if onError != nil {
				onError(dir, err)
			}
			return
		}
		for _, entry := range entries {
			path := filepath.Join(dir, entry.Name())
			mode := entry.Type()
			if mode&fs.ModeSymlink != 0 {
				if !followSymlinks {
					continue
				}
				target, err := os.Stat(path)
				if err != nil {
					if onError != nil {
						onError(path, err)
					}
					continue
				}
				mode = target.Mode().Type()
			}
			switch {
			case mode.IsDir():
				walk(path)
			case mode.IsRegular() && media.IsVideo(path):
				files = append(files, path)
			}
		}
	}
	walk(root)
	slices.Sort(files)
	return files, nil
}
