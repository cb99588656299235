package media

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Kind classifies a media file.
type Kind string

const (
	KindMovie   Kind = "movie"
	KindEpisode Kind = "episode"
	KindUnknown Kind = "unknown"
)

// Metadata keys written by the identification engine.
const (
	KeyIMDbID       = "imdbid"
	KeyTMDbID       = "tmdbid"
	KeyTVDbID       = "tvdbid"
	KeyEpisodeTitle = "episode_title"
	KeyTitleSource  = "title_source"
)

// TitleSourceNFO marks a title that came from a sidecar file.
const TitleSourceNFO = "nfo"

// Metadata is a string map that remembers insertion order so reports and
// JSON output stay stable. The zero value is ready to use.
type Metadata struct {
	keys   []string
	values map[string]string
}

// Set stores value under key. Updating an existing key keeps its position.
func (m *Metadata) Set(key, value string) {
	if m.values == nil {
		m.values = make(map[string]string)
	}
	if _, exists := m.values[key]; !exists {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// Get returns the value for key.
func (m Metadata) Get(key string) (string, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Value returns the value for key or "".
func (m Metadata) Value(key string) string {
	return m.values[key]
}

// Keys returns the keys in insertion order.
func (m Metadata) Keys() []string {
	return append([]string(nil), m.keys...)
}

func (m Metadata) Len() int { return len(m.keys) }

// MarshalJSON renders the map as a JSON object in insertion order.
func (m Metadata) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(m.values[key])
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Record is the identification of one primary media file.
//
// Year and Part use 0 for "absent". Season is a pointer because season 0
// (specials) is valid. Only episode records carry Season, Episodes or Date;
// unknown records carry nothing beyond Title and SourcePath.
type Record struct {
	Kind       Kind     `json:"kind"`
	SourcePath string   `json:"source_path"`
	Title      string   `json:"title,omitempty"`
	Year       int      `json:"year,omitempty"`
	Season     *int     `json:"season,omitempty"`
	Episodes   []int    `json:"episodes,omitempty"`
	Part       int      `json:"part,omitempty"`
	Date       string   `json:"date,omitempty"`
	Metadata   Metadata `json:"metadata"`
	Companions []string `json:"companions,omitempty"`
}

// SeasonNumber returns the season when one is set.
func (r Record) SeasonNumber() (int, bool) {
	if r.Season == nil {
		return 0, false
	}
	return *r.Season, true
}

// EpisodeLabel renders the episode marker, e.g. "S01E02", "S01E02-E04" or
// the air date for dated episodes. Non-episodes return "".
func (r Record) EpisodeLabel() string {
	if r.Kind != KindEpisode {
		return ""
	}
	season, ok := r.SeasonNumber()
	if ok && len(r.Episodes) > 0 {
		label := fmt.Sprintf("S%02dE%02d", season, r.Episodes[0])
		if len(r.Episodes) > 1 {
			label += fmt.Sprintf("-E%02d", r.Episodes[len(r.Episodes)-1])
		}
		return label
	}
	return r.Date
}

// IdentificationResult is the output of one identification call. Reasons
// trace how each field was decided; Errors collects non-fatal problems such
// as an unreadable sidecar.
type IdentificationResult struct {
	Record  Record   `json:"record"`
	Reasons []string `json:"reasons"`
	Errors  []string `json:"errors"`
}

// MoveOutcome reports the effect of relocating a primary file and its
// companions. The path lists hold final destinations (Skipped holds sources).
// RollbackErrors lists cleanup steps that could not be undone.
type MoveOutcome struct {
	Success           bool     `json:"success"`
	Moved             []string `json:"moved"`
	Skipped           []string `json:"skipped"`
	Replaced          []string `json:"replaced"`
	KeptBoth          []string `json:"kept_both"`
	RollbackPerformed bool     `json:"rollback_performed"`
	Errors            []string `json:"errors"`
	RollbackErrors    []string `json:"rollback_errors"`
}

// Summary renders a one-line description for logs and tables.
func (o MoveOutcome) Summary() string {
	parts := []string{}
	if n := len(o.Moved); n > 0 {
		parts = append(parts, fmt.Sprintf("%d moved", n))
	}
	if n := len(o.Replaced); n > 0 {
		parts = append(parts, fmt.Sprintf("%d replaced", n))
	}
	if n := len(o.KeptBoth); n > 0 {
		parts = append(parts, fmt.Sprintf("%d kept both", n))
	}
	if n := len(o.Skipped); n > 0 {
		parts = append(parts, fmt.Sprintf("%d skipped", n))
	}
	if o.RollbackPerformed {
		parts = append(parts, "rolled back")
	}
	if len(parts) == 0 {
		return "nothing to do"
	}
	return strings.Join(parts, ", ")
}
