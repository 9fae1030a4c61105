// Package slug turns titles into URL-safe identifiers that are unique within
// one entity kind.
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

const (
	// MaxLength matches the slug column size.
	MaxLength = 200
	// Fallback is the base used when a title has no sluggable characters.
	Fallback = "untitled"
)

var (
	disallowed = regexp.MustCompile(`[^\w\s-]`)
	separators = regexp.MustCompile(`[-\s]+`)

	nonASCII = runes.Predicate(func(r rune) bool { return r > unicode.MaxASCII })
)

// ExistsFunc reports whether a candidate slug is already taken.
type ExistsFunc func(candidate string) (bool, error)

// Slugify lowercases the title, drops accents and punctuation, and joins the
// remaining words with single hyphens. It may return an empty string.
func Slugify(title string) string {
	// transform chains keep internal buffers, so one is built per call.
	asciiOnly := transform.Chain(norm.NFKD, runes.Remove(nonASCII))
	ascii, _, err := transform.String(asciiOnly, title)
	if err != nil {
		ascii = title
	}

	value := disallowed.ReplaceAllString(strings.ToLower(ascii), "")
	value = separators.ReplaceAllString(value, "-")
	return strings.Trim(value, "-_")
}

// Unique derives a slug from title and probes base, base-1, base-2, ... until
// exists reports a free candidate.
func Unique(title string, exists ExistsFunc) (string, error) {
	base := truncate(Slugify(title), MaxLength)
	if base == "" {
		base = Fallback
	}

	taken, err := exists(base)
	if err != nil {
		return "", err
	}
	if !taken {
		return base, nil
	}

	for counter := 1; ; counter++ {
		suffix := "-" + strconv.Itoa(counter)
		candidate := truncate(base, MaxLength-len(suffix)) + suffix

		taken, err := exists(candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
}

func truncate(value string, limit int) string {
	if len(value) <= limit {
		return value
	}
	return strings.TrimRight(value[:limit], "-_")
}
