// Package normalize holds the low-level field parsing shared by the registry
// and the record extractor.
package normalize

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	nonDigitRe = regexp.MustCompile(`[^0-9]+`)
	digitRunRe = regexp.MustCompile(`[0-9]+`)
)

// ExtractDigits strips every non-digit character ("₪1,250" -> "1250").
// Text without digits yields "".
func ExtractDigits(text string) string {
	return nonDigitRe.ReplaceAllString(text, "")
}

// FirstNumber returns the first maximal run of digits ("13 seats" -> "13"), or "".
func FirstNumber(text string) string {
	return digitRunRe.FindString(text)
}

// SplitDateTimeHall splits the vendor's "DD/MM/YYYY HH:MM HALL_NAME" cell text
// on its first two whitespace boundaries. The hall keeps its inner spacing.
func SplitDateTimeHall(text string) (date, clock, hall string) {
	rest := strings.TrimSpace(text)
	date, rest = cutSpace(rest)
	clock, rest = cutSpace(rest)
	return date, clock, strings.TrimSpace(rest)
}

// SplitDateTime splits "DD/MM/YYYY HH:MM[:SS]" into a date and an HH:MM time.
// ok is false when src has no space separating the two parts.
func SplitDateTime(src string) (date, clock string, ok bool) {
	src = strings.TrimSpace(src)
	date, clock, ok = strings.Cut(src, " ")
	if !ok {
		return "", "", false
	}
	date = strings.TrimSpace(date)
	clock = strings.TrimSpace(clock)
	if utf8.RuneCountInString(clock) >= 5 {
		clock = string([]rune(clock)[:5]) // drop seconds
	}
	return date, clock, true
}

// cutSpace returns the text before the first whitespace run and the remainder after it.
func cutSpace(s string) (head, tail string) {
	i := strings.IndexFunc(s, unicode.IsSpace)
	if i < 0 {
		return s, ""
	}
	return s[:i], strings.TrimLeftFunc(s[i:], unicode.IsSpace)
}
