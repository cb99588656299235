package identification

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"reshelf/internal/media"
	"reshelf/internal/nfo"
	"reshelf/internal/patterns"
)

// movieRoute records which signal made a file look like a movie.
type movieRoute int

const (
	routeIdentifier movieRoute = iota
	routeYearOrPart
	routeSidecarTitle
	routeKeyword
	routeDefault
)

const (
	reasonShowFolder    = "File in show folder - cannot be movie when movies_always_in_own_directory is enabled"
	reasonMultipleMedia = "Directory contains multiple media files - cannot be movie when movies_always_in_own_directory is enabled"
)

func (e *Engine) selectMovieRoute(parts pathParts, sidecar *nfo.Metadata) movieRoute {
	if sidecar != nil && (sidecar.TMDbID != "" || sidecar.IMDbID != "") {
		return routeIdentifier
	}
	_, hasYear := patterns.ExtractYear(parts.stem)
	if !hasYear {
		_, hasYear = patterns.ExtractYear(parts.folder)
	}
	_, hasPart := patterns.ExtractPart(parts.stem)
	if hasYear || hasPart || (sidecar != nil && validYear(sidecar.Year)) {
		return routeYearOrPart
	}
	if sidecar != nil && sidecar.Title != "" {
		return routeSidecarTitle
	}
	lower := strings.ToLower(parts.stem)
	for _, keyword := range e.opts.MovieKeywords {
		if strings.Contains(lower, keyword) {
			return routeKeyword
		}
	}
	return routeDefault
}

// identifyMovie handles files without episode signals. The directory and
// duration constraints may downgrade the result to unknown.
func (e *Engine) identifyMovie(ctx context.Context, logger *slog.Logger, parts pathParts, sidecar *nfo.Metadata, tr *trace) media.Record {
	route := e.selectMovieRoute(parts, sidecar)

	if e.opts.MoviesInOwnDirectory {
		if e.inShowFolder(parts.path) {
			tr.reason(reasonShowFolder)
			return unknownRecord(parts)
		}
		if !e.onlyMediaFile(parts.path) {
			tr.reason(reasonMultipleMedia)
			return unknownRecord(parts)
		}
	}

	minutes, probed := e.durationMinutes(ctx, logger, parts.path)
	if probed && minutes < e.opts.MinimumMovieMinutes {
		tr.reason(fmt.Sprintf("Duration %.1fmin < %vmin - not a movie", minutes, e.opts.MinimumMovieMinutes))
		if route == routeSidecarTitle {
			record := e.buildMovie(parts, sidecar, tr)
			tr.reason("Short duration despite NFO title")
			return record
		}
		tr.reason("Short duration - classified as unknown")
		return unknownRecord(parts)
	}

	record := e.buildMovie(parts, sidecar, tr)
	if probed {
		tr.reason(fmt.Sprintf("Duration %.1fmin meets minimum", minutes))
	}
	constrained := e.opts.MoviesInOwnDirectory
	switch route {
	case routeIdentifier:
		if constrained {
			tr.reason("NFO with TMDB/IMDB ID and directory constraints satisfied")
		}
	case routeYearOrPart, routeSidecarTitle:
		if constrained {
			tr.reason("Directory constraints and duration satisfied")
		}
	case routeKeyword:
		if constrained {
			tr.reason("Movie keyword detected and directory constraints satisfied")
		} else {
			tr.reason("Movie keyword detected")
		}
	default:
		if constrained {
			tr.reason("No episode pattern - defaulting to movie and directory constraints satisfied")
		} else {
			tr.reason("No episode pattern - defaulting to movie")
		}
	}
	return record
}

func (e *Engine) buildMovie(parts pathParts, sidecar *nfo.Metadata, tr *trace) media.Record {
	record := media.Record{Kind: media.KindMovie, SourcePath: parts.path}

	if sidecar != nil && sidecar.Title != "" {
		tr.reason("Movie title and year from NFO")
		if validYear(sidecar.Year) {
			record.Year = sidecar.Year
		} else {
			record.Year = movieYearFromPath(parts, tr)
		}
		record.Title = patterns.CleanTitle(sidecar.Title, record.Year)
		record.Metadata.Set(media.KeyTitleSource, media.TitleSourceNFO)
	} else {
		year, fromFilename := patterns.ExtractYear(parts.stem)
		record.Title = patterns.CleanTitle(parts.stem, year)
		tr.reason("Movie title from filename")
		if fromFilename {
			tr.reason(fmt.Sprintf("Year %d parsed from filename", year))
		} else if folderYear, ok := patterns.ExtractYear(parts.folder); ok {
			year = folderYear
			tr.reason(fmt.Sprintf("Year %d parsed from folder", year))
		}
		record.Year = year
		if record.Title == "" && !isGeneric(parts.folder) {
			record.Title = patterns.CleanTitle(parts.folder, record.Year)
		}
	}

	if part, ok := patterns.ExtractPart(parts.stem); ok {
		record.Part = part
		tr.reason(fmt.Sprintf("Multipart movie: Part %d", part))
	}

	record.Companions = e.discoverCompanions(parts.path)
	if n := len(record.Companions); n > 0 {
		tr.reason(fmt.Sprintf("Found %d companion files", n))
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
	}
	if _, ok := record.Metadata.Get(media.KeyTMDbID); !ok {
		if id, ok := patterns.ExtractTMDbIDFromPath(parts.path); ok {
			record.Metadata.Set(media.KeyTMDbID, id)
			tr.reason("TMDB ID from folder tag")
		}
	}
	return record
}

// movieYearFromPath is the fallback when a sidecar names the movie but
// carries no usable year.
func movieYearFromPath(parts pathParts, tr *trace) int {
	if year, ok := patterns.ExtractYear(parts.stem); ok {
		tr.reason(fmt.Sprintf("Year %d parsed from filename", year))
		return year
	}
	if year, ok := patterns.ExtractYear(parts.folder); ok {
		tr.reason(fmt.Sprintf("Year %d parsed from folder", year))
		return year
	}
	return 0
}

func (e *Engine) durationMinutes(ctx context.Context, logger *slog.Logger, path string) (float64, bool) {
	if e.opts.MinimumMovieMinutes <= 0 || e.opts.Probe == nil {
		return 0, false
	}
	minutes, ok := e.probeDuration(ctx, path)
	if !ok {
		logger.Debug("duration unavailable; skipping minimum duration check")
	}
	return minutes, ok
}
