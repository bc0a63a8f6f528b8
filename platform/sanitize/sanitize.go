// Package sanitize cleans operator-entered cell text before it is stored.
package sanitize

import (
	"regexp"
	"strings"
)

// MaxCellLength bounds a single free-text cell.
const MaxCellLength = 500

var (
	htmlTagRegex    = regexp.MustCompile(`<[^>]*>`)
	whitespaceRegex = regexp.MustCompile(`\s+`)
)

// StripHTML removes all HTML tags from a string.
func StripHTML(s string) string {
	result := htmlTagRegex.ReplaceAllString(s, "")
	result = strings.ReplaceAll(result, "&lt;", "<")
	result = strings.ReplaceAll(result, "&gt;", ">")
	result = strings.ReplaceAll(result, "&amp;", "&")
	result = strings.ReplaceAll(result, "&quot;", "\"")
	result = strings.ReplaceAll(result, "&#39;", "'")
	// Re-strip after entity decode to catch encoded tags
	result = htmlTagRegex.ReplaceAllString(result, "")
	return strings.TrimSpace(result)
}

// Text strips markup, collapses runs of whitespace (pasted cells often carry
// tabs and newlines) and truncates to MaxCellLength runes.
func Text(s string) string {
	result := whitespaceRegex.ReplaceAllString(StripHTML(s), " ")
	if runes := []rune(result); len(runes) > MaxCellLength {
		result = strings.TrimSpace(string(runes[:MaxCellLength]))
	}
	return result
}

// Fields applies Text to every value and drops keys that end up blank.
func Fields(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		if v = Text(v); v != "" {
			out[strings.TrimSpace(k)] = v
		}
	}
	return out
}
