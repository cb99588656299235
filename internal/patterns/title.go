package patterns

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	volumePattern        = regexp.MustCompile(`(?i)\b(Vol|Volume)\s+(\d+)\b`)
	parentheticalPattern = regexp.MustCompile(`\(([^)]+)\)`)
	fourDigits           = regexp.MustCompile(`^\d{4}$`)
	parenYear            = regexp.MustCompile(`\(\d{4}\)`)
	bracketTags          = regexp.MustCompile(`\[.*?\]`)
	separatorRun         = regexp.MustCompile(`[._\-\x{2013}\x{2014}]+`)
	bareYear             = regexp.MustCompile(`\s+(19\d{2}|20\d{2})`)
	whitespaceRun        = regexp.MustCompile(`\s+`)
	startsWithDigit      = regexp.MustCompile(`^\d`)
	strayDigitPair       = regexp.MustCompile(`\b\d\s+\d\b`)
	anyParenthetical     = regexp.MustCompile(`\([^)]*\)`)
	quotedNumber         = regexp.MustCompile(`'(\d+)'`)
)

// noisePatterns strip release metadata in order. Each expression is removed
// wherever it matches.
var noisePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bp(?:ar)?t[.\s]*(?:\d+|[IVX]+|One|Two|Three|Four|Five|Six|Seven|Eight|Nine|Ten)\b`),
	regexp.MustCompile(`(?i)\b\d{3,4}[pi]\b`),
	regexp.MustCompile(`(?i)\b(3d|imax|\d+mm)\b`),
	regexp.MustCompile(`\b[Hh]\s*\.?\s*26[45]\b`),
	regexp.MustCompile(`(?i)\b(x264|x265|h264|h265|hevc|xvid|divx|mp4)\b`),
	regexp.MustCompile(`(?i)\b(?:aac|dd|ddp|ac3|dts|truehd|atmos)\s*\d*\s*\.?\s*\d*\b`),
	regexp.MustCompile(`(?i)\b(webrip|web\s+dl|webdl|web|dl|tvrip|bluray|bdrip|dvdrip|hdrip|hdtv|uhd|4k|amzn|nf|hulu|dv)\b`),
	regexp.MustCompile(`(?i)\b(proper|repack|internal|extended\s+edition|unrated|remastered|directors?\s+cut|cut|dubbed)\b`),
	regexp.MustCompile(`(?i)\bedition\b`),
}

// trailingCompounds are multi-word platform or language tags removed from the
// end of a title before single descriptors.
var trailingCompounds = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\s+disney\s+plus\s*$`),
	regexp.MustCompile(`(?i)\s+paramount\s+plus\s*$`),
	regexp.MustCompile(`(?i)\s+disney\s+animated\s*$`),
	regexp.MustCompile(`(?i)\s+roku\s+original\s*$`),
	regexp.MustCompile(`(?i)\s+netflix\s+original\s*$`),
	regexp.MustCompile(`(?i)\s+hulu\s+original\s*$`),
	regexp.MustCompile(`(?i)\s+french\s+korean\s*$`),
}

const descriptorWords = `(korean|japanese|chinese|french|spanish|german|italian|russian|polish|persian|irish|belgian|british|telugu|netflix|hulu|original|roku|disney|plus|paramount|animated|criterion|hdr|amzn)`

var (
	trailingDescriptor = regexp.MustCompile(`(?i)\s+` + descriptorWords + `\s*$`)
	leadingDescriptor  = regexp.MustCompile(`(?i)^` + descriptorWords + `\s+`)
)

// collectionPatterns remove credits, genre tags and season/collection wording
// once descriptors are gone.
var collectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(michael\s+bay|baz\s+luhrmann|david\s+o\s+russell|idris\s+elba|bj\s+novak)\b`),
	regexp.MustCompile(`(?i)\b(black\s+and\s+chrome|romantic\s+comedy|unrated)\b`),
	regexp.MustCompile(`(?i)\bseasons?\s*\d+\s*(?:to|-)+\s*\d+\b`),
	regexp.MustCompile(`(?i)\bseason[s]?\s*\d{1,2}\b`),
	regexp.MustCompile(`\b[Ss]\d{1,2}\b`),
	regexp.MustCompile(`(?i)\b(complete|seasons?|season pack)\b`),
	regexp.MustCompile(`(?i)\b\d+\s*(?:to|-)+\s*\d+\b`),
	regexp.MustCompile(`(?i)\bto\s*\d+\b`),
}

// releaseGroups only match exact case so ordinary words survive.
var releaseGroups = []*regexp.Regexp{
	regexp.MustCompile(`\b(GROUP|KOGI|AVS|GGEZ|BAE|RBB|NTB|RARBG|ION10|MEMENTO|KILLERS|ROVERS|SPARKS|FLUX)\b`),
	regexp.MustCompile(`\b(KOGi|NTb|RBB)\b`),
	regexp.MustCompile(`\b[Ee]\d{1,4}\b`),
}

var hyphenatedNames = []struct {
	pattern *regexp.Regexp
	name    string
}{
	{regexp.MustCompile(`(?i)\bSpider Man\b`), "Spider-Man"},
	{regexp.MustCompile(`(?i)\bSpider Verse\b`), "Spider-Verse"},
	{regexp.MustCompile(`(?i)\bX Men\b`), "X-Men"},
}

// CleanTitle turns a raw file or folder name fragment into a display title.
//
// extractedYear is the year already identified for the item (0 when none).
// That year is removed from the title unless the title consists of nothing
// but the year, so "1917 (2019)" keeps its name. Without an extracted year
// any trailing 1900-2040 year is dropped. "Vol N" markers and non-year
// parentheticals such as "(US)" survive cleaning.
func CleanTitle(title string, extractedYear int) string {
	// Volume markers are parked behind a placeholder that no cleanup
	// expression touches.
	var volumes []string
	for _, m := range volumePattern.FindAllStringSubmatch(title, -1) {
		volumes = append(volumes, m[2])
		title = strings.ReplaceAll(title, m[0], volumePlaceholder(m[2]))
	}

	var preserved []string
	for _, m := range parentheticalPattern.FindAllStringSubmatch(title, -1) {
		content := m[1]
		if !fourDigits.MatchString(content) && strings.TrimSpace(content) != "" {
			preserved = append(preserved, "("+content+")")
		}
	}

	for _, pattern := range episodePatterns {
		title = pattern.ReplaceAllString(title, "")
	}
	title = datePattern.ReplaceAllString(title, "")
	title = parenYear.ReplaceAllString(title, "")
	title = bracketTags.ReplaceAllString(title, "")
	title = separatorRun.ReplaceAllString(title, " ")

	if extractedYear != 0 {
		title = removeExtractedYear(title, extractedYear)
	} else {
		title = removeBareYears(title)
	}

	for _, pattern := range noisePatterns {
		title = pattern.ReplaceAllString(title, "")
	}

	title = strings.TrimSpace(whitespaceRun.ReplaceAllString(title, " "))
	for _, pattern := range trailingCompounds {
		title = pattern.ReplaceAllString(title, "")
	}
	title = stripRepeatedly(trailingDescriptor, title)
	title = stripRepeatedly(leadingDescriptor, title)

	for _, pattern := range collectionPatterns {
		title = pattern.ReplaceAllString(title, "")
	}
	title = quotedNumber.ReplaceAllString(title, "${1}")
	title = bracketTags.ReplaceAllString(title, "")
	for _, pattern := range releaseGroups {
		title = pattern.ReplaceAllString(title, "")
	}
	if !startsWithDigit.MatchString(title) {
		title = strayDigitPair.ReplaceAllString(title, "")
	}
	title = anyParenthetical.ReplaceAllString(title, "")
	title = strings.TrimSpace(whitespaceRun.ReplaceAllString(title, " "))

	for _, number := range volumes {
		title = strings.ReplaceAll(title, volumePlaceholder(number), "Vol "+number)
	}
	for _, h := range hyphenatedNames {
		title = h.pattern.ReplaceAllLiteralString(title, h.name)
	}
	if len(preserved) > 0 {
		title = title + " " + strings.Join(preserved, " ")
	}
	return strings.TrimSpace(title)
}

func volumePlaceholder(number string) string {
	return "VOLPLACEHOLDER" + number + "ENDVOL"
}

func removeExtractedYear(title string, year int) string {
	yearText := strconv.Itoa(year)
	inner := regexp.MustCompile(`\s+` + yearText + `[-\s]*`)
	switch {
	case inner.MatchString(title):
		return inner.ReplaceAllString(title, " ")
	case strings.TrimSpace(title) == yearText:
		return title
	default:
		return regexp.MustCompile(`^`+yearText+`[-\s]*`).ReplaceAllString(title, "")
	}
}

// removeBareYears drops whitespace-led years in the accepted range that are
// followed by whitespace or the end of the title.
func removeBareYears(title string) string {
	matches := bareYear.FindAllStringSubmatchIndex(title, -1)
	if matches == nil {
		return title
	}
	var b strings.Builder
	last := 0
	for _, loc := range matches {
		end := loc[1]
		if end < len(title) && !isSpace(title[end]) {
			continue
		}
		if year, _ := strconv.Atoi(title[loc[2]:loc[3]]); !validYear(year) {
			continue
		}
		b.WriteString(title[last:loc[0]])
		last = end
	}
	b.WriteString(title[last:])
	return b.String()
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\f', '\v':
		return true
	}
	return false
}

func stripRepeatedly(pattern *regexp.Regexp, title string) string {
	for {
		next := pattern.ReplaceAllString(title, "")
		if next == title {
			return title
		}
		title = next
	}
}
