package search

import (
	"strings"
)

// TermMatcher decides which configured term, if any, a unit of text contains
type TermMatcher struct {
	terms []string
	lower []string
}

// NewTermMatcher prepares the terms for matching. Order is preserved: when
// several terms occur in the same unit, the one configured first wins.
func NewTermMatcher(terms []string) *TermMatcher {
	tm := &TermMatcher{
		terms: make([]string, 0, len(terms)),
		lower: make([]string, 0, len(terms)),
	}
	for _, t := range terms {
		if strings.TrimSpace(t) == "" {
			continue
		}
		tm.terms = append(tm.terms, t)
		tm.lower = append(tm.lower, strings.ToLower(t))
	}
	return tm
}

// Terms returns the usable terms in configured order
func (tm *TermMatcher) Terms() []string {
	out := make([]string, len(tm.terms))
	copy(out, tm.terms)
	return out
}

// Match returns the first configured term contained in text (case-insensitive).
// Blank text never matches.
func (tm *TermMatcher) Match(text string) (string, bool) {
	if strings.TrimSpace(text) == "" {
		return "", false
	}
	lowered := strings.ToLower(text)
	for i, term := range tm.lower {
		if strings.Contains(lowered, term) {
			return tm.terms[i], true
		}
	}
	return "", false
}
