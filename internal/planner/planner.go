// Package planner maps identified media to Jellyfin-style library paths.
package planner

import (
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"reshelf/internal/media"
	"reshelf/internal/textutil"
)

// minorWords stay lowercase in show titles unless they lead the title.
var minorWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "as": {}, "at": {}, "but": {}, "by": {},
	"for": {}, "if": {}, "in": {}, "nor": {}, "of": {}, "on": {}, "or": {},
	"so": {}, "the": {}, "to": {}, "up": {}, "yet": {},
}

// Planner computes destinations under the movie and TV library roots. An
// empty root leaves files of that kind where they are.
type Planner struct {
	moviesRoot string
	tvRoot     string
}

// New constructs a Planner.
func New(moviesRoot, tvRoot string) *Planner {
	return &Planner{moviesRoot: moviesRoot, tvRoot: tvRoot}
}

// Destination returns the library path for record. Unknown records and kinds
// without a configured root map to their source path.
func (p *Planner) Destination(record media.Record) string {
	switch record.Kind {
	case media.KindMovie:
		return p.movie(record)
	case media.KindEpisode:
		return p.episode(record)
	default:
		return record.SourcePath
	}
}

// movie: <root>/<Title> (<Year>) [tmdbid-N]/<same>[ Part N].ext
func (p *Planner) movie(record media.Record) string {
	if p.moviesRoot == "" {
		return record.SourcePath
	}
	title := record.Title
	if title == "" {
		title = "Unknown"
	}
	folder := textutil.SanitizeFileName(title)
	if record.Year != 0 {
		folder = fmt.Sprintf("%s (%d)", folder, record.Year)
	}
	if id := record.Metadata.Value(media.KeyTMDbID); id != "" {
		folder = fmt.Sprintf("%s [tmdbid-%s]", folder, id)
	}

	ext := filepath.Ext(record.SourcePath)
	name := folder + ext
	if record.Part != 0 {
		name = fmt.Sprintf("%s Part %d%s", folder, record.Part, ext)
	}
	return filepath.Join(p.moviesRoot, folder, textutil.SanitizeFileName(name))
}

// episode: <root>/<Show> (<Year>) [tmdbid-N]/Season NN/<Show> - SxxEyy....ext
func (p *Planner) episode(record media.Record) string {
	if p.tvRoot == "" {
		return record.SourcePath
	}
	title := record.Title
	if title == "" {
		title = "Unknown Show"
	}
	show := textutil.SanitizeFileName(TitleCase(title))
	folder := show
	if record.Year != 0 {
		folder = fmt.Sprintf("%s (%d)", folder, record.Year)
	}
	if id := record.Metadata.Value(media.KeyTMDbID); id != "" {
		folder = fmt.Sprintf("%s [tmdbid-%s]", folder, id)
	}

	season, _ := record.SeasonNumber()
	seasonFolder := fmt.Sprintf("Season %02d", season)
	ext := filepath.Ext(record.SourcePath)

	var name string
	switch {
	case record.Date != "":
		name = fmt.Sprintf("%s - %s%s", show, record.Date, ext)
	case len(record.Episodes) > 0:
		marker := fmt.Sprintf("S%02dE%02d", season, record.Episodes[0])
		if len(record.Episodes) > 1 {
			marker += fmt.Sprintf("-E%02d", record.Episodes[len(record.Episodes)-1])
		}
		if record.Part != 0 {
			name = fmt.Sprintf("%s - %s Part %d%s", show, marker, record.Part, ext)
		} else if episodeTitle := record.Metadata.Value(media.KeyEpisodeTitle); episodeTitle != "" {
			name = fmt.Sprintf("%s - %s - %s%s", show, marker, textutil.SanitizeFileName(episodeTitle), ext)
		} else {
			name = fmt.Sprintf("%s - %s%s", show, marker, ext)
		}
	default:
		name = show + ext
	}
	return filepath.Join(p.tvRoot, folder, seasonFolder, textutil.SanitizeFileName(name))
}

// TitleCase capitalizes each word except minor words after the first.
func TitleCase(text string) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return text
	}
	caser := cases.Title(language.Und)
	lower := cases.Lower(language.Und)
	for i, word := range words {
		if _, minor := minorWords[strings.ToLower(word)]; minor && i > 0 {
			words[i] = lower.String(word)
			continue
		}
		words[i] = caser.String(word)
	}
	return strings.Join(words, " ")
}
