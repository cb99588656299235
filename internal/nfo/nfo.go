// Package nfo reads Kodi/Jellyfin style .nfo sidecar files.
package nfo

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/transform"

	"reshelf/internal/services"
)

// directoryNames are the conventional directory-level sidecars, in lookup order.
var directoryNames = []string{"movie.nfo", "tvshow.nfo", "show.nfo"}

// Metadata holds the fields reshelf reads from a sidecar. Absent numeric
// fields are zero (Year) or nil (Season, Episode).
type Metadata struct {
	Title        string
	Year         int
	IMDbID       string
	TMDbID       string
	TVDbID       string
	EpisodeTitle string
	Season       *int
	Episode      *int
}

// HasIdentifier reports whether any provider identifier is present.
func (m Metadata) HasIdentifier() bool {
	return m.IMDbID != "" || m.TMDbID != "" || m.TVDbID != ""
}

// element is a minimal parsed XML node. text holds the character data that
// precedes the first child element.
type element struct {
	name     string
	attrs    []xml.Attr
	text     string
	children []*element
}

// Parse reads the sidecar at path. Malformed XML yields an error marked
// services.ErrValidation; fields that are missing or unparsable are simply
// left unset.
func Parse(path string) (Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Metadata{}, services.Wrap(services.ErrNotFound, "nfo", "read", path, err)
		}
		return Metadata{}, services.Wrap(services.ErrValidation, "nfo", "read", path, err)
	}
	root, err := decode(data)
	if err != nil {
		return Metadata{}, services.Wrap(services.ErrValidation, "nfo", "parse", path, err)
	}
	return extract(root), nil
}

func decode(data []byte) (*element, error) {
	decoder := xml.NewDecoder(bytes.NewReader(data))
	decoder.CharsetReader = charsetReader

	var root *element
	var stack []*element
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			node := &element{name: strings.ToLower(t.Name.Local), attrs: t.Attr}
			if len(stack) == 0 {
				if root != nil {
					return nil, errors.New("multiple root elements")
				}
				root = node
			} else {
				parent := stack[len(stack)-1]
				parent.children = append(parent.children, node)
			}
			stack = append(stack, node)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				// Kodi appends a bare URL line after the document; ignore trailing data.
				return root, nil
			}
		case xml.CharData:
			if len(stack) > 0 {
				current := stack[len(stack)-1]
				if len(current.children) == 0 {
					current.text += string(t)
				}
			}
		}
	}
	if root == nil {
		return nil, errors.New("no root element")
	}
	if len(stack) > 0 {
		return nil, fmt.Errorf("unclosed element <%s>", stack[len(stack)-1].name)
	}
	return root, nil
}

func charsetReader(label string, input io.Reader) (io.Reader, error) {
	enc, err := ianaindex.IANA.Encoding(label)
	if err != nil {
		return nil, fmt.Errorf("unsupported encoding %q: %w", label, err)
	}
	if enc == nil {
		return input, nil
	}
	return transform.NewReader(input, enc.NewDecoder()), nil
}

func extract(root *element) Metadata {
	var meta Metadata
	meta.Title = root.childText("title")
	if year, ok := atoi(root.childText("year")); ok {
		meta.Year = year
	}

	meta.IMDbID = root.descendantText("imdbid", "imdb_id")
	if meta.IMDbID != "" {
		meta.IMDbID = NormalizeIMDbID(meta.IMDbID)
	}
	meta.TMDbID = root.descendantText("tmdbid", "tmdb_id")
	meta.TVDbID = root.descendantText("tvdbid", "tvdb_id")

	root.walk(func(node *element) {
		if node.name != "uniqueid" {
			return
		}
		value := strings.TrimSpace(node.text)
		if value == "" {
			return
		}
		switch strings.ToLower(node.attr("type")) {
		case "imdb":
			if meta.IMDbID == "" {
				meta.IMDbID = NormalizeIMDbID(value)
			}
		case "tmdb":
			if meta.TMDbID == "" {
				meta.TMDbID = value
			}
		case "tvdb":
			if meta.TVDbID == "" {
				meta.TVDbID = value
			}
		}
	})

	meta.EpisodeTitle = root.childText("episodetitle")
	if root.child("episodetitle") == nil {
		meta.EpisodeTitle = root.childText("episode_title")
	}
	if season, ok := atoi(root.childText("season")); ok {
		meta.Season = &season
	}
	if episode, ok := atoi(root.childText("episode")); ok {
		meta.Episode = &episode
	}
	return meta
}

func (e *element) child(name string) *element {
	for _, c := range e.children {
		if c.name == name {
			return c
		}
	}
	return nil
}

func (e *element) childText(name string) string {
	if c := e.child(name); c != nil {
		return strings.TrimSpace(c.text)
	}
	return ""
}

// descendantText returns the text of the first descendant named primary, or,
// when no such element exists, of the first one named fallback.
func (e *element) descendantText(primary, fallback string) string {
	found := e.find(primary)
	if found == nil {
		found = e.find(fallback)
	}
	if found == nil {
		return ""
	}
	return strings.TrimSpace(found.text)
}

func (e *element) find(name string) *element {
	for _, c := range e.children {
		if c.name == name {
			return c
		}
		if found := c.find(name); found != nil {
			return found
		}
	}
	return nil
}

func (e *element) walk(fn func(*element)) {
	for _, c := range e.children {
		fn(c)
		c.walk(fn)
	}
}

func (e *element) attr(name string) string {
	for _, a := range e.attrs {
		if strings.EqualFold(a.Name.Local, name) {
			return a.Value
		}
	}
	return ""
}

func atoi(value string) (int, bool) {
	if value == "" {
		return 0, false
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, false
	}
	return n, true
}

// NormalizeIMDbID reduces IMDb URLs to their title id and guarantees the
// "tt" prefix.
func NormalizeIMDbID(id string) string {
	if strings.Contains(id, "imdb.com") {
		for _, part := range strings.Split(id, "/") {
			if strings.HasPrefix(part, "tt") {
				id = part
			}
		}
	}
	if !strings.HasPrefix(id, "tt") {
		id = "tt" + id
	}
	return id
}

// Find returns the sidecar for mediaPath: a same-stem .nfo first, then
// movie.nfo, tvshow.nfo and show.nfo in the same directory.
func Find(mediaPath string) (string, bool) {
	dir := filepath.Dir(mediaPath)
	stem := strings.TrimSuffix(filepath.Base(mediaPath), filepath.Ext(mediaPath))
	candidates := append([]string{stem + ".nfo"}, directoryNames...)
	for _, name := range candidates {
		candidate := filepath.Join(dir, name)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true
		}
	}
	return "", false
}
