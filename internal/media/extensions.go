package media

import (
	"path/filepath"
	"strings"
)

var videoExtensions = map[string]struct{}{
	".mkv": {}, ".mp4": {}, ".avi": {}, ".mov": {}, ".wmv": {}, ".flv": {},
	".m4v": {}, ".mpg": {}, ".mpeg": {}, ".webm": {}, ".ts": {},
}

// libraryExtensions is the narrower set used when judging whether a directory
// holds several media files.
var libraryExtensions = map[string]struct{}{
	".mkv": {}, ".mp4": {}, ".avi": {}, ".mov": {}, ".wmv": {}, ".flv": {},
	".webm": {}, ".m4v": {},
}

var subtitleExtensions = map[string]struct{}{
	".srt": {}, ".ssa": {}, ".ass": {}, ".vtt": {}, ".sub": {},
	".idx": {}, ".sbv": {}, ".lrc": {}, ".smi": {}, ".stl": {},
}

var imageExtensions = map[string]struct{}{
	".jpg": {}, ".jpeg": {}, ".png": {},
}

func extOf(path string) string { return strings.ToLower(filepath.Ext(path)) }

// IsVideo reports whether path has a video container extension the scanner picks up.
func IsVideo(path string) bool {
	_, ok := videoExtensions[extOf(path)]
	return ok
}

// IsLibraryMedia reports whether path counts as a media file for directory
// isolation checks.
func IsLibraryMedia(path string) bool {
	_, ok := libraryExtensions[extOf(path)]
	return ok
}

// IsSubtitle reports whether path has a subtitle extension.
func IsSubtitle(path string) bool {
	_, ok := subtitleExtensions[extOf(path)]
	return ok
}

// IsImage reports whether path is artwork (poster, fanart, thumb).
func IsImage(path string) bool {
	_, ok := imageExtensions[extOf(path)]
	return ok
}

// IsSidecarMetadata reports whether path is an .nfo file.
func IsSidecarMetadata(path string) bool {
	return extOf(path) == ".nfo"
}
