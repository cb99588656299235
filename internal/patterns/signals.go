package patterns

import (
	"regexp"
	"strconv"
	"strings"
)

const (
	MinYear = 1900
	MaxYear = 2040
)

var (
	datePattern         = regexp.MustCompile(`(\d{4})[-.](\d{2})[-.](\d{2})`)
	dateAnywhere        = regexp.MustCompile(`\d{4}[-.]\d{2}[-.]\d{2}`)
	parenYearPattern    = regexp.MustCompile(`\((\d{4})\)`)
	yearAfterSxxExx     = regexp.MustCompile(`[Ss]\d{1,2}[Ee]\d{1,4}[-_]$`)
	yearAfterNxM        = regexp.MustCompile(`(?i)\d{1,2}x\d{1,4}[-_]$`)
	partPattern         = regexp.MustCompile(`(?i)\bp(?:ar)?t[.\s]*(\d+|(?:[IVX]+|One|Two|Three|Four|Five|Six|Seven|Eight|Nine|Ten)\b)`)
	seasonFolderPattern = regexp.MustCompile(`(?i)(?:season[.\s]*(\d{1,2})|(?:^|[.\s_-])s(\d{1,2})(?:[.\s_-]|$))`)
)

var romanParts = map[string]int{
	"I": 1, "II": 2, "III": 3, "IV": 4, "V": 5,
	"VI": 6, "VII": 7, "VIII": 8, "IX": 9, "X": 10,
}

var wordParts = map[string]int{
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10,
}

// ExtractDate finds a YYYY-MM-DD or YYYY.MM.DD date and returns it with dashes.
func ExtractDate(name string) (string, bool) {
	m := datePattern.FindStringSubmatch(name)
	if m == nil {
		return "", false
	}
	return m[1] + "-" + m[2] + "-" + m[3], true
}

// ExtractYear finds a release year in name. A parenthesized year wins over a
// bare one. Years that belong to a date or directly follow an episode marker
// (Show.S05E06-1976) are ignored.
func ExtractYear(name string) (int, bool) {
	if loc := parenYearPattern.FindStringSubmatchIndex(name); loc != nil {
		date := dateAnywhere.FindStringIndex(name[max(0, loc[0]-1):])
		if date == nil || date[0] > 1 {
			if year, _ := strconv.Atoi(name[loc[2]:loc[3]]); validYear(year) {
				return year, true
			}
		}
	}

	for pos := 0; pos+4 <= len(name); pos++ {
		if !standaloneYearAt(name, pos) {
			continue
		}
		window := name[max(0, pos-2):min(len(name), pos+15)]
		if dateAnywhere.MatchString(window) {
			continue
		}
		before := name[max(0, pos-10):pos]
		if yearAfterSxxExx.MatchString(before) || yearAfterNxM.MatchString(before) {
			continue
		}
		if year, _ := strconv.Atoi(name[pos : pos+4]); validYear(year) {
			return year, true
		}
	}
	return 0, false
}

// standaloneYearAt reports whether a 19xx/20xx token bounded by separators or
// the string edges starts at pos.
func standaloneYearAt(name string, pos int) bool {
	if pos > 0 && !isYearSeparator(name[pos-1]) {
		return false
	}
	if !(strings.HasPrefix(name[pos:], "19") || strings.HasPrefix(name[pos:], "20")) {
		return false
	}
	if !isDigit(name[pos+2]) || !isDigit(name[pos+3]) {
		return false
	}
	return pos+4 == len(name) || isYearSeparator(name[pos+4])
}

func isYearSeparator(c byte) bool {
	switch c {
	case '.', '_', '-', ' ', '\t', '\n', '\r', '\f', '\v':
		return true
	}
	return false
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func validYear(year int) bool { return year >= MinYear && year <= MaxYear }

// ExtractPart finds a "Part N" / "Pt. N" marker. N may be digits, a Roman
// numeral up to X, or a spelled-out number up to Ten.
func ExtractPart(name string) (int, bool) {
	m := partPattern.FindStringSubmatch(name)
	if m == nil {
		return 0, false
	}
	token := m[1]
	if n, err := strconv.Atoi(token); err == nil {
		return n, n > 0
	}
	if n, ok := romanParts[strings.ToUpper(token)]; ok {
		return n, true
	}
	if n, ok := wordParts[strings.ToLower(token)]; ok {
		return n, true
	}
	return 0, false
}

// ExtractSeasonFromFolder reads a season number from a folder name such as
// "Season 02" or "Show.S03.1080p".
func ExtractSeasonFromFolder(name string) (int, bool) {
	m := seasonFolderPattern.FindStringSubmatch(name)
	if m == nil {
		return 0, false
	}
	token := m[1]
	if token == "" {
		token = m[2]
	}
	season, err := strconv.Atoi(token)
	if err != nil {
		return 0, false
	}
	return season, true
}
