package synthesis

import (
	"regexp"
	"strings"
)

var (
	htmlTag      = regexp.MustCompile(`<[^>]+>`)
	mdLink       = regexp.MustCompile(`\[([^\]]+)\]\([^)]*\)`)
	mdHeading    = regexp.MustCompile(`(?m)^\s{0,3}#{1,6}\s*`)
	mdListMarker = regexp.MustCompile(`(?m)^\s*(?:[-*+]|\d+[.)])\s+`)
	mdEmphasis   = strings.NewReplacer("**", "", "__", "", "`", "", "*", "")
)

// StripMarkup turns a markdown or html flavoured completion into plain text
func StripMarkup(s string) string {
	s = htmlTag.ReplaceAllString(s, "")
	s = mdLink.ReplaceAllString(s, "$1")
	s = mdHeading.ReplaceAllString(s, "")
	s = mdListMarker.ReplaceAllString(s, "")
	s = mdEmphasis.Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

// CountWords counts whitespace separated words
func CountWords(s string) int {
	return len(strings.Fields(s))
}

// LimitWords keeps the first limit words of s. The second result reports whether s was cut.
func LimitWords(s string, limit int) (string, bool) {
	words := strings.Fields(s)
	if limit <= 0 || len(words) <= limit {
		return strings.Join(words, " "), false
	}
	return strings.Join(words[:limit], " ") + "...", true
}
