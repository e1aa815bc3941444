// Package normalize cleans messy scraped titles and authors into
// comparison keys and human-readable search queries.
package normalize

import (
	"regexp"
	"strings"
)

var (
	leadingBracket  = regexp.MustCompile(`^\s*\[\s*`)
	trailingBracket = regexp.MustCompile(`\s*\]\s*$`)
	inlineBrackets  = regexp.MustCompile(`\[.*?\]`)
	parenthetical   = regexp.MustCompile(`\(.*?\)`)
	commaArticle    = regexp.MustCompile(`(?i)^(.+),\s*(The|A|An)$`)
	embeddedBy      = regexp.MustCompile(`(?i)^(.+?)\s+by\s+(.+)$`)
	nonAlnum        = regexp.MustCompile(`[^a-zA-Z0-9\s]`)
	whitespace      = regexp.MustCompile(`\s+`)

	leadingOptBracket  = regexp.MustCompile(`^\[?\s*`)
	trailingOptBracket = regexp.MustCompile(`\s*\]?\s*$`)
)

// Subtitle boilerplate stripped from comparison keys.
var subtitleFluff = []*regexp.Regexp{
	regexp.MustCompile(`(?i):\s*a novel\b`),
	regexp.MustCompile(`(?i):\s*a memoir\b`),
	regexp.MustCompile(`(?i):\s*a thriller\b`),
}

// Looser boilerplate list for search queries, covering marketing phrasing
// that shows up in scraped titles.
var searchFluff = []*regexp.Regexp{
	regexp.MustCompile(`(?i):\s*a novel\b`),
	regexp.MustCompile(`(?i):\s*a memoir\b`),
	regexp.MustCompile(`(?i):\s*a thriller\b`),
	regexp.MustCompile(`(?i):\s*a.*?book club pick\b`),
	regexp.MustCompile(`(?i):\s*an? .*?best book\b`),
	regexp.MustCompile(`(?i):\s*read with jenna\b`),
}

// Normalize cleans a title + author into a lowercase comparison key.
// Re-normalizing an already-normalized string is a no-op. Returns the
// empty string only when both title and author reduce to nothing.
func Normalize(title, author string) string {
	t := strings.TrimSpace(title)
	a := strings.TrimSpace(author)

	// Surrounding brackets like "[ A Thousand Splendid Suns ]", then inline
	// annotations like "[Audiobook]".
	t = leadingBracket.ReplaceAllString(t, "")
	t = trailingBracket.ReplaceAllString(t, "")
	t = inlineBrackets.ReplaceAllString(t, "")

	// Parenthetical series/edition noise: "(Book 1)", "(Series, #3)".
	t = parenthetical.ReplaceAllString(t, "")

	for _, re := range subtitleFluff {
		t = re.ReplaceAllString(t, "")
	}

	// "Hobbit, The" -> "The Hobbit"
	if m := commaArticle.FindStringSubmatch(t); m != nil {
		t = m[2] + " " + m[1]
	}

	// "1984 by George Orwell" with no separate author field
	if m := embeddedBy.FindStringSubmatch(t); m != nil && a == "" {
		t = m[1]
		a = m[2]
	}

	t = Canonical(t)
	a = Canonical(a)

	if t != "" && a != "" {
		return t + " " + a
	}
	if t != "" {
		return t
	}
	return a
}

// Canonical strips non-alphanumerics, collapses whitespace, and lowercases.
func Canonical(s string) string {
	s = nonAlnum.ReplaceAllString(s, "")
	s = whitespace.ReplaceAllString(s, " ")
	return strings.ToLower(strings.TrimSpace(s))
}

// CleanForSearch builds a human-readable catalog query from a messy
// title + author. Unlike Normalize it preserves casing and internal
// punctuation, and appends only the first listed author to keep the
// query focused.
func CleanForSearch(title, author string) string {
	t := title

	t = leadingOptBracket.ReplaceAllString(t, "")
	t = trailingOptBracket.ReplaceAllString(t, "")

	// Duplicated title noise like "Title ] [ TITLE"
	if strings.Contains(t, "] [") {
		t = strings.Trim(strings.SplitN(t, "]", 2)[0], " [")
	}

	t = parenthetical.ReplaceAllString(t, "")

	for _, re := range searchFluff {
		t = re.ReplaceAllString(t, "")
	}

	if m := embeddedBy.FindStringSubmatch(t); m != nil && author == "" {
		t = m[1]
		author = m[2]
	}

	t = strings.Trim(t, " .:;,-–—")
	t = whitespace.ReplaceAllString(t, " ")
	t = strings.TrimSpace(t)

	query := t
	if author != "" {
		first := strings.SplitN(author, " and ", 2)[0]
		first = strings.SplitN(first, ",", 2)[0]
		first = strings.TrimSpace(first)
		if first != "" {
			query = t + " " + first
		}
	}
	return strings.TrimSpace(query)
}
