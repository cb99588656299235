package patterns

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// EpisodeMatch describes an episode marker found in a name.
type EpisodeMatch struct {
	Season int
	// Episodes is never empty. A range such as E01-E03 expands to every
	// episode it covers.
	Episodes []int
	// Title is the episode title embedded after the marker, if any.
	Title string
}

// episodePatterns are tried in order; the first one that matches wins.
var episodePatterns = []*regexp.Regexp{
	// S01E02, S01 E02, S01E02-E03, s1.e2
	regexp.MustCompile(`(?i)s(\d{1,2})[ ._\-]*e(\d{1,4})(?:[ ._\-]*-?[ ._\-]*e(\d{1,4}))?`),
	// 1x02, 1x02-03; a range needs an explicit dash
	regexp.MustCompile(`(?i)(\d{1,2})x(\d{1,4})(?:[ ._\-]*-[ ._\-]*(\d{1,4}))?`),
}

var (
	episodeTitleDash      = regexp.MustCompile(`^\s*[-\x{2013}]\s*(.+)$`)
	episodeTitleParen     = regexp.MustCompile(`^\s*\(([^)]+)\)`)
	episodeTitleTags      = regexp.MustCompile(`\[.*?\]`)
	episodeTitleQuality   = regexp.MustCompile(`(?i)\d{3,4}p`)
	episodeTitleRelease   = regexp.MustCompile(`(?i)\b(?:WEB-?DL|HDTV|BluRay|x264|x265|HEVC|10bit)\b`)
	trailingTitleSplitter = regexp.MustCompile(`[\s\-\x{2013}\x{2014}]+$`)
)

// ExtractEpisode finds the first season/episode marker in name.
func ExtractEpisode(name string) (EpisodeMatch, bool) {
	for _, pattern := range episodePatterns {
		loc := pattern.FindStringSubmatchIndex(name)
		if loc == nil {
			continue
		}
		season, _ := strconv.Atoi(name[loc[2]:loc[3]])
		first, _ := strconv.Atoi(name[loc[4]:loc[5]])
		episodes := []int{first}
		if loc[6] >= 0 {
			second, _ := strconv.Atoi(name[loc[6]:loc[7]])
			if second > first {
				episodes = episodes[:0]
				for ep := first; ep <= second; ep++ {
					episodes = append(episodes, ep)
				}
			} else {
				episodes = append(episodes, second)
			}
		}
		return EpisodeMatch{
			Season:   season,
			Episodes: episodes,
			Title:    episodeTitleAfter(name[loc[1]:]),
		}, true
	}
	return EpisodeMatch{}, false
}

// episodeTitleAfter pulls an episode title out of the text following a
// marker: "- Title", "(Title)" or a bare title.
func episodeTitleAfter(remainder string) string {
	remainder = strings.TrimSpace(remainder)
	if remainder == "" {
		return ""
	}

	var title string
	first, _ := utf8.DecodeRuneInString(remainder)
	switch {
	case episodeTitleDash.MatchString(remainder):
		title = strings.TrimSpace(episodeTitleDash.FindStringSubmatch(remainder)[1])
	case strings.HasPrefix(remainder, "(") && strings.Contains(remainder, ")"):
		m := episodeTitleParen.FindStringSubmatch(remainder)
		if m == nil {
			return ""
		}
		title = strings.TrimSpace(m[1])
	case unicode.IsSpace(first) || unicode.IsLetter(first):
		title = remainder
	default:
		return ""
	}

	title = episodeTitleTags.ReplaceAllString(title, "")
	title = episodeTitleQuality.ReplaceAllString(title, "")
	title = episodeTitleRelease.ReplaceAllString(title, "")
	return strings.Trim(title, " .-_")
}

// TitleBeforeEpisode returns the portion of name ahead of the first episode
// marker, falling back to the text before a date and then to the whole name.
func TitleBeforeEpisode(name string) string {
	for _, pattern := range episodePatterns {
		if loc := pattern.FindStringIndex(name); loc != nil {
			return trailingTitleSplitter.ReplaceAllString(name[:loc[0]], "")
		}
	}
	if loc := datePattern.FindStringIndex(name); loc != nil {
		return name[:loc[0]]
	}
	return name
}
