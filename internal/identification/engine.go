package identification

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/patrickmn/go-cache"

	"reshelf/internal/logging"
	"reshelf/internal/media"
	"reshelf/internal/nfo"
	"reshelf/internal/patterns"
)

// DurationProbe reports how long a file plays, in minutes.
type DurationProbe interface {
	DurationMinutes(ctx context.Context, path string) (float64, error)
}

// Options configure an Engine.
type Options struct {
	// MoviesInOwnDirectory downgrades movies that share their directory with
	// other media or sit inside a show folder.
	MoviesInOwnDirectory bool
	// MinimumMovieMinutes downgrades movies shorter than this. Zero disables
	// the check, as does a nil Probe.
	MinimumMovieMinutes float64
	// MovieKeywords are lowercase filename fragments that suggest a movie.
	MovieKeywords []string
	Probe         DurationProbe
	Logger        *slog.Logger
}

// Engine identifies media files.
type Engine struct {
	opts   Options
	cache  *cache.Cache
	logger *slog.Logger
}

// New constructs an Engine with its own cache.
func New(opts Options) *Engine {
	keywords := make([]string, 0, len(opts.MovieKeywords))
	for _, k := range opts.MovieKeywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			keywords = append(keywords, k)
		}
	}
	opts.MovieKeywords = keywords
	return &Engine{
		opts:   opts,
		cache:  cache.New(cache.NoExpiration, 0),
		logger: logging.NewComponentLogger(opts.Logger, "identification"),
	}
}

// pathParts holds the name components the heuristics look at.
type pathParts struct {
	path        string
	stem        string
	folder      string
	grandparent string
}

func splitPath(path string) pathParts {
	dir := filepath.Dir(path)
	base := filepath.Base(path)
	return pathParts{
		path:        path,
		stem:        strings.TrimSuffix(base, filepath.Ext(base)),
		folder:      dirName(dir),
		grandparent: dirName(filepath.Dir(dir)),
	}
}

// dirName returns the last element of dir, or "" when dir has no named
// element ("." or the filesystem root).
func dirName(dir string) string {
	name := filepath.Base(dir)
	if name == "." || name == string(filepath.Separator) {
		return ""
	}
	return name
}

// trace accumulates reasons and non-fatal errors for one Identify call.
type trace struct {
	reasons []string
	errors  []string
}

func (t *trace) reason(msg string) { t.reasons = append(t.reasons, msg) }

func (t *trace) fail(msg string) { t.errors = append(t.errors, msg) }

// Identify classifies the file at path.
func (e *Engine) Identify(ctx context.Context, path string) media.IdentificationResult {
	logger := logging.WithContext(ctx, e.logger).With(logging.String("path", path))
	parts := splitPath(path)
	tr := &trace{}

	sidecar := e.readSidecar(logger, path, tr)

	episode, hasEpisode := patterns.ExtractEpisode(parts.stem)
	if !hasEpisode && folderHasSeason(parts) {
		episode, hasEpisode = patterns.ExtractEpisode(parts.folder)
	}
	date, hasDate := patterns.ExtractDate(parts.stem)

	var record media.Record
	if hasEpisode || hasDate || (sidecar != nil && sidecar.Season != nil) {
		var ep *patterns.EpisodeMatch
		if hasEpisode {
			ep = &episode
		}
		record = e.identifyEpisode(parts, ep, date, sidecar, tr)
	} else {
		record = e.identifyMovie(ctx, logger, parts, sidecar, tr)
	}

	logger.Debug("identified media file",
		logging.String("kind", string(record.Kind)),
		logging.String("title", record.Title),
		logging.Int("reasons", len(tr.reasons)),
		logging.Int("errors", len(tr.errors)),
	)
	return media.IdentificationResult{Record: record, Reasons: tr.reasons, Errors: tr.errors}
}

func folderHasSeason(parts pathParts) bool {
	if _, ok := patterns.ExtractSeasonFromFolder(parts.folder); ok {
		return true
	}
	_, ok := patterns.ExtractSeasonFromFolder(parts.grandparent)
	return ok
}

// readSidecar locates and parses the .nfo for path. A parse failure is
// recorded and logged; identification continues on filename signals.
func (e *Engine) readSidecar(logger *slog.Logger, path string, tr *trace) *nfo.Metadata {
	sidecarPath, ok := nfo.Find(path)
	if !ok {
		return nil
	}
	name := filepath.Base(sidecarPath)
	meta, err := nfo.Parse(sidecarPath)
	if err != nil {
		tr.fail("Failed to parse NFO: " + name)
		logging.WarnWithContext(logger, "sidecar unreadable", "nfo_parse_failed",
			logging.String("nfo", sidecarPath),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "fix or remove the .nfo file"),
			logging.String(logging.FieldImpact, "identification falls back to filename signals"),
		)
		return nil
	}
	tr.reason("Found NFO file: " + name)
	return &meta
}

func unknownRecord(parts pathParts) media.Record {
	return media.Record{
		Kind:       media.KindUnknown,
		SourcePath: parts.path,
		Title:      patterns.CleanTitle(parts.stem, 0),
	}
}

func validYear(year int) bool {
	return year >= patterns.MinYear && year <= patterns.MaxYear
}
