package search

import (
	"fmt"
	"os"

	"github.com/extrame/xls"
	"github.com/richardlehane/mscfb"
)

// maxXLSColumns is the BIFF8 column limit
const maxXLSColumns = 256

// workbookStreams are the OLE stream names a BIFF workbook is stored under
var workbookStreams = map[string]bool{
	"Workbook": true, // BIFF8
	"Book":     true, // BIFF5
}

// XLSExtractor scans legacy binary (.xls) workbooks cell by cell
type XLSExtractor struct {
	Log Logger
}

// Scan implements the Extractor interface for .xls files
func (e *XLSExtractor) Scan(path string, matcher *TermMatcher) (matches []SearchMatch, err error) {
	if err := sniffCompoundWorkbook(path); err != nil {
		return nil, err
	}

	// The BIFF parser panics on some malformed records
	defer func() {
		if r := recover(); r != nil {
			matches = nil
			err = parseError(path, fmt.Errorf("workbook reader panicked: %v", r))
		}
	}()

	f, err := os.Open(path)
	if err != nil {
		return nil, accessError(path, err)
	}
	defer f.Close()

	wb, err := xls.OpenReader(f, "utf-8")
	if err != nil {
		return nil, parseError(path, fmt.Errorf("%w: %v", ErrNotWorkbook, err))
	}
	if wb == nil {
		return nil, parseError(path, fmt.Errorf("%w: no workbook stream", ErrNotWorkbook))
	}

	for i := 0; i < wb.NumSheets(); i++ {
		sheet, serr := readXLSSheet(wb, i)
		if serr != nil {
			logger(e.Log).Warnf("skipping sheet %d in %s: %v", i+1, path, serr)
			continue
		}
		matches = append(matches, scanSheet(path, sheet, matcher)...)
	}
	return matches, nil
}

// readXLSSheet materialises one sheet, isolating parser panics to that sheet
func readXLSSheet(wb *xls.WorkBook, index int) (data sheetData, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sheet reader panicked: %v", r)
		}
	}()

	sheet := wb.GetSheet(index)
	if sheet == nil {
		return data, fmt.Errorf("sheet %d not found", index)
	}
	data.Name = sheet.Name

	// MaxRow is the last row index, not a count
	for r := 0; r <= int(sheet.MaxRow); r++ {
		row := sheetRow(sheet, r)
		if row == nil {
			data.Rows = append(data.Rows, nil)
			continue
		}
		data.Rows = append(data.Rows, rowCells(row))
	}
	return data, nil
}

// sheetRow returns row r, or nil when the sheet has no record for it
func sheetRow(sheet *xls.WorkSheet, r int) (row *xls.Row) {
	defer func() {
		if recover() != nil {
			row = nil
		}
	}()
	return sheet.Row(r)
}

// rowCells reads a row by position. Rows without a ROW record report no
// column bounds, so every column is probed and trailing blanks are dropped.
func rowCells(row *xls.Row) []string {
	first, last := row.FirstCol(), row.LastCol()
	if last == 0 {
		first, last = 0, maxXLSColumns
	}
	cells := make([]string, last)
	for c := first; c < last; c++ {
		cells[c] = row.Col(c)
	}
	if row.LastCol() == 0 {
		for len(cells) > 0 && cells[len(cells)-1] == "" {
			cells = cells[:len(cells)-1]
		}
	}
	return cells
}

// sniffCompoundWorkbook checks that path is an OLE compound file holding a
// workbook stream before the BIFF parser sees it
func sniffCompoundWorkbook(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return accessError(path, err)
	}
	defer f.Close()

	doc, err := mscfb.New(f)
	if err != nil {
		return parseError(path, fmt.Errorf("%w: %v", ErrNotWorkbook, err))
	}
	for entry, nerr := doc.Next(); nerr == nil; entry, nerr = doc.Next() {
		if workbookStreams[entry.Name] {
			return nil
		}
	}
	return parseError(path, fmt.Errorf("%w: no workbook stream", ErrNotWorkbook))
}
