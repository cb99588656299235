// Package scoring rates how much an identification can be trusted.
package scoring

import (
	"fmt"

	"reshelf/internal/media"
)

// Default thresholds for the confidence levels.
const (
	DefaultGreenThreshold  = 70
	DefaultYellowThreshold = 40
)

// Level buckets a confidence value.
type Level string

const (
	LevelGreen  Level = "green"
	LevelYellow Level = "yellow"
	LevelRed    Level = "red"
)

// Score is a confidence in 0..100 with the reasons that produced it.
type Score struct {
	Confidence int      `json:"confidence"`
	Level      Level    `json:"level"`
	Reasons    []string `json:"reasons"`
}

// Scorer assigns confidence to identification results.
type Scorer struct {
	green  int
	yellow int
}

// New constructs a Scorer with the given level thresholds.
func New(green, yellow int) *Scorer {
	return &Scorer{green: green, yellow: yellow}
}

// Level maps a confidence to green, yellow or red.
func (s *Scorer) Level(confidence int) Level {
	switch {
	case confidence >= s.green:
		return LevelGreen
	case confidence >= s.yellow:
		return LevelYellow
	default:
		return LevelRed
	}
}

// Score rates result.
func (s *Scorer) Score(result media.IdentificationResult) Score {
	record := result.Record
	if record.Kind == media.KindUnknown {
		return Score{Confidence: 0, Level: s.Level(0), Reasons: []string{"Unknown media type"}}
	}

	confidence := 0
	var reasons []string
	add := func(delta int, reason string) {
		confidence += delta
		reasons = append(reasons, reason)
	}

	meta := record.Metadata
	switch {
	case has(meta, media.KeyIMDbID):
		add(50, "IMDB ID from NFO")
	case has(meta, media.KeyTMDbID):
		add(45, "TMDB ID from NFO")
	case has(meta, media.KeyTVDbID):
		add(40, "TVDB ID from NFO")
	}

	switch {
	case record.Title == "":
		add(-20, "No title identified")
	case meta.Value(media.KeyTitleSource) == media.TitleSourceNFO:
		add(20, "Title from NFO")
	default:
		add(10, "Title from filename")
	}

	switch record.Kind {
	case media.KindMovie:
		if record.Year != 0 {
			add(15, fmt.Sprintf("Year identified: %d", record.Year))
		} else {
			add(-10, "No year found")
		}
	case media.KindEpisode:
		season, hasSeason := record.SeasonNumber()
		switch {
		case hasSeason && len(record.Episodes) > 0:
			add(20, fmt.Sprintf("Season/episode identified: S%02dE%02d", season, record.Episodes[0]))
		case record.Date != "":
			add(15, "Date episode identified: "+record.Date)
		default:
			add(-15, "No season/episode information")
		}
		if has(meta, media.KeyEpisodeTitle) {
			add(10, "Episode title identified")
		}
	}

	if record.Part != 0 {
		add(5, fmt.Sprintf("Part %d identified", record.Part))
	}
	if n := len(result.Errors); n > 0 {
		add(-5*n, fmt.Sprintf("%d error(s) during identification", n))
	}

	confidence = max(0, min(100, confidence))
	return Score{Confidence: confidence, Level: s.Level(confidence), Reasons: reasons}
}

func has(meta media.Metadata, key string) bool {
	value, ok := meta.Get(key)
	return ok && value != ""
}
