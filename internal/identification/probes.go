package identification

import (
	"context"
	"os"
	"path/filepath"

	"github.com/patrickmn/go-cache"

	"reshelf/internal/logging"
	"reshelf/internal/media"
	"reshelf/internal/patterns"
)

const (
	showFolderKey = "show:"
	onlyMediaKey  = "only:"
	durationKey   = "duration:"
)

type durationEntry struct {
	minutes float64
	ok      bool
}

// inShowFolder reports whether the file's directory looks like a TV show
// folder: it is a season folder, has a season subfolder, or holds two or more
// media files. Results are memoized per directory.
func (e *Engine) inShowFolder(path string) bool {
	dir := filepath.Dir(path)
	if cached, ok := e.cache.Get(showFolderKey + dir); ok {
		return cached.(bool)
	}
	result := isShowFolder(dir)
	e.cache.Set(showFolderKey+dir, result, cache.DefaultExpiration)
	return result
}

func isShowFolder(dir string) bool {
	if _, ok := patterns.ExtractSeasonFromFolder(dirName(dir)); ok {
		return true
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	mediaFiles := 0
	for _, entry := range entries {
		if entry.IsDir() {
			if _, ok := patterns.ExtractSeasonFromFolder(entry.Name()); ok {
				return true
			}
			continue
		}
		if entry.Type().IsRegular() && media.IsLibraryMedia(entry.Name()) {
			mediaFiles++
			if mediaFiles >= 2 {
				return true
			}
		}
	}
	return false
}

// onlyMediaFile reports whether path is the only media file in its directory.
// An unreadable directory counts as isolated.
func (e *Engine) onlyMediaFile(path string) bool {
	if cached, ok := e.cache.Get(onlyMediaKey + path); ok {
		return cached.(bool)
	}
	result := true
	entries, err := os.ReadDir(filepath.Dir(path))
	if err == nil {
		self := filepath.Base(path)
		for _, entry := range entries {
			if entry.Type().IsRegular() && entry.Name() != self && media.IsLibraryMedia(entry.Name()) {
				result = false
				break
			}
		}
	}
	e.cache.Set(onlyMediaKey+path, result, cache.DefaultExpiration)
	return result
}

// probeDuration asks the probe once per path; failures are remembered too.
func (e *Engine) probeDuration(ctx context.Context, path string) (float64, bool) {
	if cached, ok := e.cache.Get(durationKey + path); ok {
		entry := cached.(durationEntry)
		return entry.minutes, entry.ok
	}
	minutes, err := e.opts.Probe.DurationMinutes(ctx, path)
	entry := durationEntry{minutes: minutes, ok: err == nil}
	if err != nil {
		e.logger.Debug("duration probe failed", logging.String("path", path), logging.Error(err))
		entry.minutes = 0
	}
	e.cache.Set(durationKey+path, entry, cache.DefaultExpiration)
	return entry.minutes, entry.ok
}
