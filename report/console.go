// Package report renders a finished search.ResultSet: on a terminal through
// ConsoleReporter, and as a formatted workbook through Export.
package report

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"sheetshow/search"
)

// maxLineRunes caps how much of a line or cell is shown per match
const maxLineRunes = 200

// ConsoleReporter prints matches and the run summary
type ConsoleReporter struct {
	w io.Writer

	header    lipgloss.Style
	label     lipgloss.Style
	info      lipgloss.Style
	success   lipgloss.Style
	warning   lipgloss.Style
	errStyle  lipgloss.Style
	separator lipgloss.Style
	term      lipgloss.Style
}

// NewConsoleReporter creates a reporter. Colours are used only when w is a
// terminal.
func NewConsoleReporter(w io.Writer) *ConsoleReporter {
	r := lipgloss.NewRenderer(w)
	return &ConsoleReporter{
		w:         w,
		header:    r.NewStyle().Bold(true).Foreground(lipgloss.Color("#7aa2f7")),
		label:     r.NewStyle().Foreground(lipgloss.Color("#7dcfff")).Bold(true),
		info:      r.NewStyle().Foreground(lipgloss.Color("#a9b1d6")),
		success:   r.NewStyle().Foreground(lipgloss.Color("#9ece6a")).Bold(true),
		warning:   r.NewStyle().Foreground(lipgloss.Color("#e0af68")).Bold(true),
		errStyle:  r.NewStyle().Foreground(lipgloss.Color("#f7768e")).Bold(true),
		separator: r.NewStyle().Foreground(lipgloss.Color("#565f89")),
		term:      r.NewStyle().Foreground(lipgloss.Color("#f7768e")).Bold(true),
	}
}

// Print shows up to maxDisplay matches (all when maxDisplay <= 0) followed by
// the summary
func (cr *ConsoleReporter) Print(rs *search.ResultSet, maxDisplay int) {
	cr.PrintMatches(rs, maxDisplay)
	cr.PrintSummary(rs)
}

// PrintMatches shows the matches, truncated to maxDisplay
func (cr *ConsoleReporter) PrintMatches(rs *search.ResultSet, maxDisplay int) {
	if rs.Len() == 0 {
		fmt.Fprintln(cr.w, cr.warning.Render("No results found."))
		return
	}

	fmt.Fprintln(cr.w)
	fmt.Fprintln(cr.w, cr.header.Render("Search Results for: "+quoteTerms(rs.SearchTerms)))
	fmt.Fprintln(cr.w, cr.separator.Render(strings.Repeat("=", 60)))

	for _, m := range rs.Head(maxDisplay) {
		cr.printMatch(rs, m)
		fmt.Fprintln(cr.w, cr.separator.Render(strings.Repeat("-", 40)))
	}

	if shown := len(rs.Head(maxDisplay)); rs.Len() > shown {
		fmt.Fprintln(cr.w, cr.info.Render(fmt.Sprintf("... and %d more results", rs.Len()-shown)))
	}
}

func (cr *ConsoleReporter) printMatch(rs *search.ResultSet, m search.SearchMatch) {
	highlight := func(s string) string { return cr.term.Render(s) }
	content := HighlightTerm(Excerpt(m.Content(), m.MatchedTerm, maxLineRunes), m.MatchedTerm, highlight)

	fmt.Fprintf(cr.w, "%s %s\n", cr.label.Render("File:"), displayPath(rs.SearchLocation, m.FilePath))
	fmt.Fprintf(cr.w, "%s '%s'\n", cr.label.Render("Matched term:"), m.MatchedTerm)

	switch m.Kind {
	case search.SpreadsheetCell:
		fmt.Fprintf(cr.w, "%s %s, Row %d, Column: %s\n", cr.label.Render("Sheet:"), m.SheetName, m.RowNumber, m.ColumnName)
		fmt.Fprintf(cr.w, "%s %s\n", cr.label.Render("Value:"), content)
	default:
		fmt.Fprintf(cr.w, "%s %s\n", cr.label.Render(fmt.Sprintf("Line %d:", m.LineNumber)), content)
	}
}

// PrintSummary shows terms, counts, failures and timing
func (cr *ConsoleReporter) PrintSummary(rs *search.ResultSet) {
	fmt.Fprintln(cr.w)
	fmt.Fprintln(cr.w, cr.success.Render(fmt.Sprintf("Total: %s matches found", formatNumber(rs.Len()))))
	fmt.Fprintf(cr.w, "%s %s\n", cr.label.Render("Search terms:"), quoteTerms(rs.SearchTerms))
	fmt.Fprintf(cr.w, "%s %s\n", cr.label.Render("Location:"), rs.SearchLocation)
	fmt.Fprintf(cr.w, "%s %s of %s\n", cr.label.Render("Files with matches:"),
		formatNumber(rs.MatchingFiles()), formatNumber(rs.FilesSearched))
	fmt.Fprintf(cr.w, "%s %s\n", cr.label.Render("Files searched:"), formatNumber(rs.FilesSearched))

	errLine := fmt.Sprintf("%s %s", cr.label.Render("Files with errors:"), formatNumber(rs.FilesErrored))
	if rs.FilesErrored > 0 {
		errLine = fmt.Sprintf("%s %s", cr.label.Render("Files with errors:"),
			cr.errStyle.Render(formatNumber(rs.FilesErrored)+" (results may be incomplete)"))
	}
	fmt.Fprintln(cr.w, errLine)
	for _, fe := range rs.Errors {
		fmt.Fprintln(cr.w, cr.info.Render(fmt.Sprintf("  • %s: %v", displayPath(rs.SearchLocation, fe.Path), fe.Err)))
	}

	fmt.Fprintf(cr.w, "%s %s\n", cr.label.Render("Elapsed:"), formatElapsed(rs.Elapsed))
}

// displayPath shows paths relative to the search root when possible
func displayPath(root, path string) string {
	if root == "" {
		return path
	}
	abs := search.GetAbsolutePath(path)
	if abs == root {
		return filepath.Base(path)
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}

func quoteTerms(terms []string) string {
	quoted := make([]string, len(terms))
	for i, t := range terms {
		quoted[i] = "'" + t + "'"
	}
	return strings.Join(quoted, ", ")
}

func formatElapsed(d time.Duration) string {
	return fmt.Sprintf("%.2f seconds", d.Seconds())
}

// formatNumber formats a number with thousands separators
func formatNumber(n int) string {
	if n < 0 {
		return "-" + formatNumber(-n)
	}
	str := fmt.Sprintf("%d", n)
	if len(str) <= 3 {
		return str
	}

	var result strings.Builder
	for i, digit := range str {
		if i > 0 && (len(str)-i)%3 == 0 {
			result.WriteString(",")
		}
		result.WriteRune(digit)
	}

	return result.String()
}
