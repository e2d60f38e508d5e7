package search

import (
	"bufio"
	"io"
	"os"
	"strings"
)

// TextExtractor scans plain-text files line by line
type TextExtractor struct{}

// Scan implements the Extractor interface for text files
func (e *TextExtractor) Scan(path string, matcher *TermMatcher) ([]SearchMatch, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, accessError(path, err)
	}
	defer f.Close()

	r, err := openText(f)
	if err != nil {
		return nil, accessError(path, err)
	}

	matches, err := scanLines(r, path, matcher)
	if err != nil {
		return nil, accessError(path, err)
	}
	return matches, nil
}

// scanLines applies the matcher to every line of r. Line numbers start at 1
// and "\n", "\r\n" and a lone "\r" all end a line. The terminator is
// stripped; the rest of the line is kept whole.
func scanLines(r *bufio.Reader, path string, matcher *TermMatcher) ([]SearchMatch, error) {
	var matches []SearchMatch
	lineNum := 0

	for {
		chunk, err := r.ReadString('\n')
		if len(chunk) > 0 {
			chunk = strings.TrimSuffix(chunk, "\n")
			chunk = strings.TrimSuffix(chunk, "\r")
			for _, line := range strings.Split(chunk, "\r") {
				lineNum++
				if term, ok := matcher.Match(line); ok {
					matches = append(matches, SearchMatch{
						FilePath:    path,
						MatchedTerm: term,
						Kind:        TextLine,
						LineNumber:  lineNum,
						LineContent: line,
					})
				}
			}
		}
		if err == io.EOF {
			return matches, nil
		}
		if err != nil {
			return nil, err
		}
	}
}

// scanText runs the line scanner over already extracted text
func scanText(text, path string, matcher *TermMatcher) []SearchMatch {
	matches, _ := scanLines(bufio.NewReader(strings.NewReader(text)), path, matcher)
	return matches
}
