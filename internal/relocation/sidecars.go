package relocation

import (
	"os"
	"path/filepath"
	"strings"

	"reshelf/internal/media"
)

// DiscoverSidecars lists the files next to path that share its stem and carry
// a subtitle, .nfo or artwork extension.
func DiscoverSidecars(path string) []string {
	dir := filepath.Dir(path)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	self := filepath.Base(path)
	stem := trimExt(self)
	var sidecars []string
	for _, entry := range entries {
		name := entry.Name()
		if name == self || !entry.Type().IsRegular() || trimExt(name) != stem {
			continue
		}
		if isSidecar(name) {
			sidecars = append(sidecars, filepath.Join(dir, name))
		}
	}
	return sidecars
}

func isSidecar(name string) bool {
	return media.IsSubtitle(name) || media.IsSidecarMetadata(name) || media.IsImage(name)
}

func trimExt(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// companionDestination maps a companion next to the primary's final path.
// Files sharing the primary's stem take the new stem. Other subtitles keep
// their distinguishing part as a label ("Movie.en.srt" -> "<new>.en.srt").
// Anything else keeps its own name.
func companionDestination(primarySource, primaryDest, companion string) string {
	dir := filepath.Dir(primaryDest)
	newStem := trimExt(filepath.Base(primaryDest))
	oldStem := trimExt(filepath.Base(primarySource))
	name := filepath.Base(companion)
	ext := filepath.Ext(name)
	stem := trimExt(name)

	switch {
	case stem == oldStem:
		return filepath.Join(dir, newStem+ext)
	case media.IsSubtitle(name):
		label := strings.TrimPrefix(stem, oldStem+".")
		return filepath.Join(dir, newStem+"."+label+ext)
	default:
		return filepath.Join(dir, name)
	}
}

// subtitleDirs are child folder names (lowercase) whose subtitles belong to
// the folder's sole video.
var subtitleDirs = map[string]struct{}{
	"sub": {}, "subs": {}, "subtitle": {}, "subtitles": {},
}

// folderArtwork are artwork stems (lowercase) that describe a whole folder.
var folderArtwork = map[string]struct{}{
	"poster": {}, "fanart": {}, "banner": {}, "landscape": {},
	"clearlogo": {}, "folder": {}, "thumb": {},
}

// belongsTo reports whether companion travels with primary. Files next to
// primary qualify when named "<stem>.ext" or "<stem>.<label>.ext". Subtitle
// folder contents and folder artwork qualify only while primary is the sole
// video in its directory.
func belongsTo(primary, companion string, soleVideo bool) bool {
	dir := filepath.Dir(primary)
	stem := trimExt(filepath.Base(primary))
	name := filepath.Base(companion)
	companionStem := trimExt(name)

	if filepath.Dir(companion) == dir {
		if companionStem == stem || strings.HasPrefix(companionStem, stem+".") {
			return true
		}
		_, ok := folderArtwork[strings.ToLower(companionStem)]
		return ok && soleVideo && media.IsImage(name)
	}
	if !soleVideo || !media.IsSubtitle(name) {
		return false
	}
	rel, err := filepath.Rel(dir, companion)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return false
	}
	first, _, _ := strings.Cut(rel, string(filepath.Separator))
	_, ok := subtitleDirs[strings.ToLower(first)]
	return ok
}

// soleVideo reports whether path is the only video file in its directory.
func soleVideo(path string) bool {
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		return false
	}
	self := filepath.Base(path)
	for _, entry := range entries {
		if entry.Name() != self && entry.Type().IsRegular() && media.IsVideo(entry.Name()) {
			return false
		}
	}
	return true
}

// collectCompanions merges same-stem sidecars with the engine's companions
// that belong to this primary, without duplicates. Files named after other
// titles in a shared folder stay behind.
func collectCompanions(record media.Record) []string {
	seen := map[string]struct{}{record.SourcePath: {}}
	var out []string
	add := func(p string) {
		p = filepath.Clean(p)
		if _, ok := seen[p]; ok {
			return
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	for _, p := range DiscoverSidecars(record.SourcePath) {
		add(p)
	}
	sole := soleVideo(record.SourcePath)
	for _, p := range record.Companions {
		if belongsTo(record.SourcePath, filepath.Clean(p), sole) {
			add(p)
		}
	}
	return out
}
