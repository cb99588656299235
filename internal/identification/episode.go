package identification

import (
	"fmt"
	"strings"

	"reshelf/internal/media"
	"reshelf/internal/nfo"
	"reshelf/internal/patterns"
)

// genericDirs are folder names too generic to be a show title.
var genericDirs = map[string]struct{}{
	"source": {}, "sources": {}, "tv": {}, "movies": {}, "movie": {},
	"video": {}, "videos": {}, "media": {}, "downloads": {}, "download": {},
	"incoming": {}, "complete": {},
}

func isGeneric(name string) bool {
	if name == "" {
		return true
	}
	_, ok := genericDirs[strings.ToLower(name)]
	return ok
}

func (e *Engine) identifyEpisode(parts pathParts, ep *patterns.EpisodeMatch, date string, sidecar *nfo.Metadata, tr *trace) media.Record {
	record := media.Record{
		Kind:       media.KindEpisode,
		SourcePath: parts.path,
		Date:       date,
	}

	year, yearSource := episodeYear(parts, sidecar)

	if sidecar != nil && sidecar.Title != "" {
		record.Title = patterns.CleanTitle(sidecar.Title, year)
		record.Metadata.Set(media.KeyTitleSource, media.TitleSourceNFO)
		tr.reason("Show title from NFO")
	} else {
		record.Title = showTitleFromPath(parts, tr)
	}

	var filenameEpisodeTitle string
	switch {
	case ep != nil:
		season := ep.Season
		record.Season = &season
		record.Episodes = ep.Episodes
		tr.reason(fmt.Sprintf("Parsed episode: S%02dE%02d", season, ep.Episodes[0]))
		if ep.Title != "" {
			filenameEpisodeTitle = ep.Title
			tr.reason("Episode title from filename: " + ep.Title)
		}
	case sidecar != nil && sidecar.Season != nil:
		season := *sidecar.Season
		record.Season = &season
		if sidecar.Episode != nil {
			record.Episodes = []int{*sidecar.Episode}
		}
		tr.reason("Season/episode from NFO")
	default:
		if season, ok := patterns.ExtractSeasonFromFolder(parts.folder); ok {
			record.Season = &season
			tr.reason(fmt.Sprintf("Season %d from folder", season))
		}
	}

	if part, ok := patterns.ExtractPart(parts.stem); ok {
		record.Part = part
		tr.reason(fmt.Sprintf("Multipart episode: Part %d", part))
	}

	record.Year = year
	switch yearSource {
	case "folder":
		tr.reason(fmt.Sprintf("Year %d parsed from folder", year))
	case "filename":
		tr.reason(fmt.Sprintf("Year %d parsed from filename", year))
	}

	if sidecar != nil {
		if sidecar.IMDbID != "" {
			record.Metadata.Set(media.KeyIMDbID, sidecar.IMDbID)
			tr.reason("IMDB ID from NFO")
		}
		if sidecar.TMDbID != "" {
			record.Metadata.Set(media.KeyTMDbID, sidecar.TMDbID)
			tr.reason("TMDB ID from NFO")
		}
		if sidecar.TVDbID != "" {
			record.Metadata.Set(media.KeyTVDbID, sidecar.TVDbID)
			tr.reason("TVDB ID from NFO")
		}
	}
	switch {
	case sidecar != nil && sidecar.EpisodeTitle != "":
		record.Metadata.Set(media.KeyEpisodeTitle, sidecar.EpisodeTitle)
	case filenameEpisodeTitle != "":
		record.Metadata.Set(media.KeyEpisodeTitle, filenameEpisodeTitle)
	}
	return record
}

// showTitleFromPath picks the show title from folder structure, preferring
// the show folder above a season folder, then the containing folder, then the
// grandparent, and finally the filename text before the episode marker.
func showTitleFromPath(parts pathParts, tr *trace) string {
	grandparentTitle := patterns.CleanTitle(parts.grandparent, 0)
	folderTitle := patterns.CleanTitle(parts.folder, 0)
	_, inSeasonDir := patterns.ExtractSeasonFromFolder(parts.folder)

	switch {
	case inSeasonDir && grandparentTitle != "" && !isGeneric(parts.grandparent):
		tr.reason("Show title from folder structure")
		return grandparentTitle
	case folderTitle != "" && !isGeneric(parts.folder):
		tr.reason("Show title from folder structure")
		return folderTitle
	case grandparentTitle != "" && !isGeneric(parts.grandparent):
		tr.reason("Show title from folder structure")
		return grandparentTitle
	default:
		tr.reason("Show title from filename")
		return patterns.CleanTitle(patterns.TitleBeforeEpisode(parts.stem), 0)
	}
}

// episodeYear returns the show year: the sidecar year, else a year in the
// show or season folder name, else (only for a bare filename with no folder
// structure) a year in the filename.
func episodeYear(parts pathParts, sidecar *nfo.Metadata) (int, string) {
	if sidecar != nil && validYear(sidecar.Year) {
		return sidecar.Year, "nfo"
	}
	if year, ok := patterns.ExtractYear(parts.grandparent); ok {
		return year, "folder"
	}
	if year, ok := patterns.ExtractYear(parts.folder); ok {
		return year, "folder"
	}
	if parts.grandparent == "" {
		if year, ok := patterns.ExtractYear(parts.stem); ok {
			return year, "filename"
		}
	}
	return 0, ""
}
