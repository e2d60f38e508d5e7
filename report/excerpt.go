package report

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	// Control characters and excessive whitespace
	controlCharRegex = regexp.MustCompile(`[\x00-\x08\x0b-\x1f\x7f]`)
	whitespaceRegex  = regexp.MustCompile(`\s+`)
)

// CleanLine prepares stored line or cell content for a single display line:
// control characters removed, whitespace runs collapsed, ends trimmed.
func CleanLine(content string) string {
	content = controlCharRegex.ReplaceAllString(content, "")
	content = whitespaceRegex.ReplaceAllString(content, " ")
	return strings.TrimSpace(content)
}

// Excerpt shortens content to at most maxRunes runes, keeping the first
// case-insensitive occurrence of term in view. Cut ends are marked with "...".
func Excerpt(content, term string, maxRunes int) string {
	content = CleanLine(content)
	runes := []rune(content)
	if maxRunes <= 0 || len(runes) <= maxRunes {
		return content
	}

	const ellipsis = "..."
	budget := maxRunes - 2*len(ellipsis)
	if budget < 1 {
		return string(runes[:maxRunes])
	}

	// Locate the term in rune space
	center := 0
	if idx := indexFold(content, term); idx >= 0 {
		center = utf8.RuneCountInString(content[:idx]) + utf8.RuneCountInString(term)/2
	}

	start := center - budget/2
	if start < 0 {
		start = 0
	}
	end := start + budget
	if end > len(runes) {
		end = len(runes)
		start = end - budget
	}

	var b strings.Builder
	if start > 0 {
		b.WriteString(ellipsis)
	}
	b.WriteString(string(runes[start:end]))
	if end < len(runes) {
		b.WriteString(ellipsis)
	}
	return b.String()
}

// indexFold finds term in s ignoring case. The index is a byte offset into s.
func indexFold(s, term string) int {
	if term == "" {
		return -1
	}
	lowered := strings.ToLower(s)
	if len(lowered) != len(s) {
		// Case mapping changed byte lengths; fall back to a rune-by-rune scan
		for i := range s {
			if hasPrefixFold(s[i:], term) {
				return i
			}
		}
		return -1
	}
	return strings.Index(lowered, strings.ToLower(term))
}

func hasPrefixFold(s, prefix string) bool {
	n := utf8.RuneCountInString(prefix)
	var end int
	for i := 0; i < n; i++ {
		if end >= len(s) {
			return false
		}
		_, size := utf8.DecodeRuneInString(s[end:])
		end += size
	}
	return strings.EqualFold(s[:end], prefix)
}

// HighlightTerm wraps every case-insensitive occurrence of term with render
func HighlightTerm(text, term string, render func(string) string) string {
	if term == "" || render == nil {
		return text
	}
	var b strings.Builder
	rest := text
	for {
		idx := indexFold(rest, term)
		if idx < 0 {
			b.WriteString(rest)
			return b.String()
		}
		end := idx
		for i := 0; i < utf8.RuneCountInString(term) && end < len(rest); i++ {
			_, size := utf8.DecodeRuneInString(rest[end:])
			end += size
		}
		b.WriteString(rest[:idx])
		b.WriteString(render(rest[idx:end]))
		rest = rest[end:]
	}
}
