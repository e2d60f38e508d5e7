package search

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// sheetData is one worksheet as rows of stringified cells. Row i is sheet row i+1.
type sheetData struct {
	Name string
	Rows [][]string
}

// XLSXExtractor scans Office Open XML workbooks cell by cell
type XLSXExtractor struct {
	Log Logger
}

// Scan implements the Extractor interface for .xlsx/.xlsm files
func (e *XLSXExtractor) Scan(path string, matcher *TermMatcher) (matches []SearchMatch, err error) {
	defer func() {
		if r := recover(); r != nil {
			matches = nil
			err = parseError(path, fmt.Errorf("workbook reader panicked: %v", r))
		}
	}()

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, parseError(path, fmt.Errorf("%w: %v", ErrNotWorkbook, err))
	}
	defer f.Close()

	for _, name := range f.GetSheetList() {
		rows, rerr := f.GetRows(name)
		if rerr != nil {
			logger(e.Log).Warnf("skipping sheet %q in %s: %v", name, path, rerr)
			continue
		}
		matches = append(matches, scanSheet(path, sheetData{Name: name, Rows: rows}, matcher)...)
	}
	return matches, nil
}

// scanSheet treats the first row as the header and matches every cell of
// every following row. A row's context is built once, on its first match,
// and shared by all matches from that row.
func scanSheet(path string, sheet sheetData, matcher *TermMatcher) []SearchMatch {
	if len(sheet.Rows) == 0 {
		return nil
	}

	width := 0
	for _, row := range sheet.Rows {
		if len(row) > width {
			width = len(row)
		}
	}
	columns := headerNames(sheet.Rows[0], width)

	var matches []SearchMatch
	for i := 1; i < len(sheet.Rows); i++ {
		row := sheet.Rows[i]
		var rowCtx *RowContext

		for col := 0; col < len(row); col++ {
			term, ok := matcher.Match(row[col])
			if !ok {
				continue
			}
			if rowCtx == nil {
				rowCtx = NewRowContext(columns, row)
			}
			matches = append(matches, SearchMatch{
				FilePath:    path,
				MatchedTerm: term,
				Kind:        SpreadsheetCell,
				SheetName:   sheet.Name,
				RowNumber:   i + 1,
				ColumnName:  columns[col],
				CellValue:   row[col],
				RowContext:  rowCtx,
			})
		}
	}
	return matches
}

// headerNames turns the header row into unique column names. Blank headers
// get a positional "Unnamed: N" name and repeats get ".1", ".2" suffixes.
func headerNames(header []string, width int) []string {
	names := make([]string, width)
	used := make(map[string]bool, width)

	for i := 0; i < width; i++ {
		base := ""
		if i < len(header) {
			base = header[i]
		}
		if strings.TrimSpace(base) == "" {
			base = fmt.Sprintf("Unnamed: %d", i)
		}

		name := base
		for n := 1; used[name]; n++ {
			name = fmt.Sprintf("%s.%d", base, n)
		}
		used[name] = true
		names[i] = name
	}
	return names
}
