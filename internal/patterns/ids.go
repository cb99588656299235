package patterns

import (
	"path/filepath"
	"regexp"
	"strings"
)

var tmdbTagPattern = regexp.MustCompile(`(?i)[\[{]tmdb(?:id)?-(\d+)[\]}]`)

// ExtractTMDbIDFromPath returns the TMDb identifier from a Jellyfin-style
// "[tmdbid-603]" or "{tmdb-603}" tag in any component of path. The component
// nearest the file wins.
func ExtractTMDbIDFromPath(path string) (string, bool) {
	parts := strings.Split(filepath.ToSlash(filepath.Clean(path)), "/")
	for i := len(parts) - 1; i >= 0; i-- {
		if m := tmdbTagPattern.FindStringSubmatch(parts[i]); m != nil {
			return m[1], true
		}
	}
	return "", false
}
