// Package snippet extracts bounded, term-anchored excerpts for display.
package snippet

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultMaxChars is the excerpt length used when none is given
const DefaultMaxChars = 240

// Build returns at most maxChars runes of text with whitespace collapsed.
// Longer text is windowed around the first of terms (tried in order) that
// occurs in it, ignoring case; with no match the leading runes are kept.
func Build(text string, terms []string, maxChars int) string {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	normalized := strings.Join(strings.Fields(text), " ")
	if normalized == "" {
		return ""
	}
	runes := []rune(normalized)
	if len(runes) <= maxChars {
		return normalized
	}

	anchor := findAnchor(runes, terms)
	if anchor < 0 {
		return strings.TrimSpace(string(runes[:maxChars]))
	}

	start := anchor - maxChars/2
	if start < 0 {
		start = 0
	}
	end := min(start+maxChars, len(runes))
	if end-start < maxChars {
		start = max(end-maxChars, 0)
	}
	return strings.TrimSpace(string(runes[start:end]))
}

// findAnchor returns the rune offset of the first matching term, or -1
func findAnchor(runes []rune, terms []string) int {
	lowered := make([]rune, len(runes))
	for i, r := range runes {
		lowered[i] = unicode.ToLower(r)
	}
	haystack := string(lowered)

	for _, term := range terms {
		term = strings.ToLower(term)
		if term == "" {
			continue
		}
		if pos := strings.Index(haystack, term); pos >= 0 {
			return utf8.RuneCountInString(haystack[:pos])
		}
	}
	return -1
}
