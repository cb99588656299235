package textutil

import "strings"

// unsafeFileNameRemover drops characters that are invalid on at least one
// common filesystem.
var unsafeFileNameRemover = strings.NewReplacer(
	"<", "",
	">", "",
	":", "",
	"\"", "",
	"/", "",
	"\\", "",
	"|", "",
	"?", "",
	"*", "",
)

var windowsReservedNames = map[string]struct{}{
	"CON": {}, "PRN": {}, "AUX": {}, "NUL": {},
	"COM1": {}, "COM2": {}, "COM3": {}, "COM4": {}, "COM5": {}, "COM6": {}, "COM7": {}, "COM8": {}, "COM9": {},
	"LPT1": {}, "LPT2": {}, "LPT3": {}, "LPT4": {}, "LPT5": {}, "LPT6": {}, "LPT7": {}, "LPT8": {}, "LPT9": {},
}

// SanitizeFileName makes a title safe to use as a file or directory name on
// every common filesystem. Unsafe characters are dropped, whitespace runs are
// collapsed, leading and trailing spaces and dots are trimmed, and names that
// collide with Windows device names get a "_media" suffix. Empty results
// become "unknown".
func SanitizeFileName(name string) string {
	name = unsafeFileNameRemover.Replace(name)
	name = strings.Join(strings.Fields(name), " ")
	name = strings.Trim(name, " .")
	if name == "" {
		return "unknown"
	}
	stem, _, _ := strings.Cut(name, ".")
	if _, reserved := windowsReservedNames[strings.ToUpper(stem)]; reserved {
		name += "_media"
	}
	return name
}
