// Package slug turns display names into URL slugs.
package slug

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	invalidChars = regexp.MustCompile(`[^\w\s-]`)
	separators   = regexp.MustCompile(`[-\s]+`)
)

// Make lowercases the value, folds accents to ASCII, drops anything that is
// not a word character, space or hyphen, and joins the remaining words with
// single hyphens. "Café Crème!" becomes "cafe-creme".
func Make(value string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), value)
	if err != nil {
		folded = value
	}

	ascii := strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII {
			return -1
		}
		return r
	}, folded)

	cleaned := invalidChars.ReplaceAllString(strings.ToLower(ascii), "")
	cleaned = separators.ReplaceAllString(cleaned, "-")
	return strings.Trim(cleaned, "-_")
}

// Unique appends -1, -2 ... to base until taken reports false.
func Unique(base string, taken func(string) (bool, error)) (string, error) {
	if base == "" {
		base = "item"
	}
	candidate := base
	for i := 1; ; i++ {
		exists, err := taken(candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		candidate = base + "-" + strconv.Itoa(i)
	}
}
