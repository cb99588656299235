package identification

import (
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"reshelf/internal/media"
)

// subtitleDirs are child folder names (lowercase) searched for subtitles.
var subtitleDirs = map[string]struct{}{
	"sub": {}, "subs": {}, "subtitle": {}, "subtitles": {},
}

// discoverCompanions lists subtitles and artwork next to a movie plus
// subtitles anywhere under Sub/Subs/Subtitle/Subtitles child folders. Other
// child folders are never entered.
func (e *Engine) discoverCompanions(path string) []string {
	dir := filepath.Dir(path)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var companions []string
	for _, entry := range entries {
		full := filepath.Join(dir, entry.Name())
		if entry.IsDir() {
			if _, ok := subtitleDirs[strings.ToLower(entry.Name())]; ok {
				companions = append(companions, subtitlesUnder(full)...)
			}
			continue
		}
		if !entry.Type().IsRegular() {
			continue
		}
		if media.IsSubtitle(full) || media.IsImage(full) {
			companions = append(companions, full)
		}
	}
	slices.Sort(companions)
	return companions
}

func subtitlesUnder(root string) []string {
	var found []string
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() && media.IsSubtitle(path) {
			found = append(found, path)
		}
		return nil
	})
	return found
}
