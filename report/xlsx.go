package report

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"sheetshow/search"
)

const (
	// ResultsSheet lists every match
	ResultsSheet = "Search Results"
	// SummarySheet holds the run statistics
	SummarySheet = "Summary"

	maxResultColWidth  = 50
	maxSummaryColWidth = 255
	maxCellRunes       = 32767 // Excel's per-cell character limit
	maxSafeTermsRunes  = 50
)

// ErrNoResults is returned when there is nothing to export
var ErrNoResults = errors.New("no results to save")

// fixedColumns are the leading columns of the results sheet. For spreadsheet
// matches line_number holds the row and line_content the cell value.
var fixedColumns = []string{
	"file_path", "match_type", "line_number", "line_content",
	"matched_term", "sheet_name", "column_name",
}

// DefaultOutputName derives "search_results_<terms>.xlsx" from the terms,
// keeping letters, digits, spaces and underscores
func DefaultOutputName(terms []string) string {
	safe := make([]string, 0, len(terms))
	for _, term := range terms {
		var b strings.Builder
		for _, r := range term {
			if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '_' {
				b.WriteRune(r)
			}
		}
		safe = append(safe, strings.ReplaceAll(strings.TrimSpace(b.String()), " ", "_"))
	}
	joined := strings.Join(safe, "_")
	if utf8.RuneCountInString(joined) > maxSafeTermsRunes {
		joined = string([]rune(joined)[:maxSafeTermsRunes])
	}
	return "search_results_" + joined + ".xlsx"
}

// sourceColumnName prefixes row-context columns so they never collide with
// the fixed columns
func sourceColumnName(col string) string {
	for _, fixed := range fixedColumns {
		if col == fixed {
			return "orig_" + col
		}
	}
	return "source_" + col
}

// Export writes rs to a two-sheet workbook and returns the path written.
// An empty output path uses DefaultOutputName; a path without an extension
// gets ".xlsx".
func Export(rs *search.ResultSet, output string) (string, error) {
	if rs == nil || rs.Len() == 0 {
		return "", ErrNoResults
	}
	if output == "" {
		output = DefaultOutputName(rs.SearchTerms)
	}
	if filepath.Ext(output) == "" {
		output += ".xlsx"
	}

	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"366092"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return "", fmt.Errorf("failed to create header style: %w", err)
	}

	if err := f.SetSheetName("Sheet1", ResultsSheet); err != nil {
		return "", fmt.Errorf("failed to name results sheet: %w", err)
	}
	header, rows := resultRows(rs)
	if err := writeTable(f, ResultsSheet, header, rows, headerStyle, maxResultColWidth); err != nil {
		return "", err
	}

	if _, err := f.NewSheet(SummarySheet); err != nil {
		return "", fmt.Errorf("failed to create summary sheet: %w", err)
	}
	summaryHeader, summaryRow := summaryTable(rs)
	if err := writeTable(f, SummarySheet, summaryHeader, [][]any{summaryRow}, headerStyle, maxSummaryColWidth); err != nil {
		return "", err
	}

	if err := f.SaveAs(output); err != nil {
		return "", fmt.Errorf("failed to save %s: %w", output, err)
	}
	return output, nil
}

// resultRows flattens matches into table rows. Row-context columns are added
// in first-seen order across all spreadsheet matches.
func resultRows(rs *search.ResultSet) ([]string, [][]any) {
	var sourceCols []string
	sourceIndex := make(map[string]int)
	for _, m := range rs.Matches {
		m.RowContext.Each(func(col, _ string) {
			name := sourceColumnName(col)
			if _, ok := sourceIndex[name]; !ok {
				sourceIndex[name] = len(fixedColumns) + len(sourceCols)
				sourceCols = append(sourceCols, name)
			}
		})
	}

	header := append(append([]string{}, fixedColumns...), sourceCols...)
	rows := make([][]any, 0, rs.Len())
	for _, m := range rs.Matches {
		row := make([]any, len(header))
		row[0] = m.FilePath
		row[1] = m.Kind.String()
		row[2] = m.Location()
		row[3] = m.Content()
		row[4] = m.MatchedTerm
		row[5] = m.SheetName
		row[6] = m.ColumnName
		m.RowContext.Each(func(col, value string) {
			row[sourceIndex[sourceColumnName(col)]] = value
		})
		rows = append(rows, row)
	}
	return header, rows
}

func summaryTable(rs *search.ResultSet) ([]string, []any) {
	header := []string{
		"Search Terms", "Search Location", "Total Results", "Unique Files",
		"Files Searched", "Files Errored", "Elapsed Seconds",
	}
	row := []any{
		strings.Join(rs.SearchTerms, ", "),
		rs.SearchLocation,
		rs.Len(),
		rs.MatchingFiles(),
		rs.FilesSearched,
		rs.FilesErrored,
		float64(rs.Elapsed.Milliseconds()) / 1000,
	}
	return header, row
}

// writeTable writes a styled header and rows, then sizes columns to fit
func writeTable(f *excelize.File, sheet string, header []string, rows [][]any, headerStyle, maxWidth int) error {
	widths := make([]int, len(header))

	headerCells := make([]any, len(header))
	for i, h := range header {
		headerCells[i] = h
		widths[i] = utf8.RuneCountInString(h)
	}
	if err := f.SetSheetRow(sheet, "A1", &headerCells); err != nil {
		return fmt.Errorf("failed to write %s header: %w", sheet, err)
	}

	lastHeader, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", lastHeader, headerStyle); err != nil {
		return fmt.Errorf("failed to style %s header: %w", sheet, err)
	}

	for r, row := range rows {
		for c, v := range row {
			if s, ok := v.(string); ok {
				if utf8.RuneCountInString(s) > maxCellRunes {
					s = string([]rune(s)[:maxCellRunes])
				}
				row[c] = s
			}
			if v != nil {
				if n := utf8.RuneCountInString(fmt.Sprint(row[c])); n > widths[c] {
					widths[c] = n
				}
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, r+2, err)
		}
	}

	for i, w := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		width := w + 2
		if width > maxWidth {
			width = maxWidth
		}
		if err := f.SetColWidth(sheet, col, col, float64(width)); err != nil {
			return fmt.Errorf("failed to size %s column %s: %w", sheet, col, err)
		}
	}
	return nil
}
