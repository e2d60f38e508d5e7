package search

import (
	"errors"
	"fmt"
	"time"
)

// MatchKind tells which variant fields of a SearchMatch are populated
type MatchKind int

const (
	// TextLine matches carry LineNumber and LineContent
	TextLine MatchKind = iota
	// SpreadsheetCell matches carry SheetName, RowNumber, ColumnName, CellValue and RowContext
	SpreadsheetCell
)

func (k MatchKind) String() string {
	switch k {
	case TextLine:
		return "text"
	case SpreadsheetCell:
		return "spreadsheet"
	default:
		return "unknown"
	}
}

// SearchMatch is one located occurrence of a term
type SearchMatch struct {
	FilePath    string
	MatchedTerm string
	Kind        MatchKind

	// TextLine
	LineNumber  int
	LineContent string

	// SpreadsheetCell
	SheetName  string
	RowNumber  int
	ColumnName string
	CellValue  string
	RowContext *RowContext
}

// Location returns the 1-based line or row number, whichever applies
func (m SearchMatch) Location() int {
	if m.Kind == SpreadsheetCell {
		return m.RowNumber
	}
	return m.LineNumber
}

// Content returns the matched line or cell value
func (m SearchMatch) Content() string {
	if m.Kind == SpreadsheetCell {
		return m.CellValue
	}
	return m.LineContent
}

// RowContext is the ordered column -> value mapping of one spreadsheet data row.
// It is built once per row and shared read-only by every match from that row.
type RowContext struct {
	columns []string
	values  map[string]string
}

// NewRowContext pairs column names with cell values; missing cells are empty
func NewRowContext(columns, cells []string) *RowContext {
	rc := &RowContext{
		columns: columns,
		values:  make(map[string]string, len(columns)),
	}
	for i, col := range columns {
		if i < len(cells) {
			rc.values[col] = cells[i]
		} else {
			rc.values[col] = ""
		}
	}
	return rc
}

// Columns returns the column names in sheet order
func (rc *RowContext) Columns() []string {
	if rc == nil {
		return nil
	}
	out := make([]string, len(rc.columns))
	copy(out, rc.columns)
	return out
}

// Get returns the value for a column
func (rc *RowContext) Get(column string) (string, bool) {
	if rc == nil {
		return "", false
	}
	v, ok := rc.values[column]
	return v, ok
}

// Len is the number of columns
func (rc *RowContext) Len() int {
	if rc == nil {
		return 0
	}
	return len(rc.columns)
}

// Each visits the columns in order
func (rc *RowContext) Each(fn func(column, value string)) {
	if rc == nil {
		return
	}
	for _, col := range rc.columns {
		fn(col, rc.values[col])
	}
}

// Map returns a copy of the row as a plain map
func (rc *RowContext) Map() map[string]string {
	out := make(map[string]string, rc.Len())
	rc.Each(func(c, v string) { out[c] = v })
	return out
}

// ErrorKind classifies a per-file failure
type ErrorKind int

const (
	// FileAccess means the file could not be opened, read or decoded
	FileAccess ErrorKind = iota
	// Parse means the file opened but is not a usable workbook or document
	Parse
)

func (k ErrorKind) String() string {
	if k == Parse {
		return "parse"
	}
	return "file access"
}

var (
	// ErrBinaryContent is returned when a file scanned as text looks binary
	ErrBinaryContent = errors.New("file looks binary, not text")
	// ErrNotWorkbook is returned when a spreadsheet file has no workbook content
	ErrNotWorkbook = errors.New("not a readable workbook")
)

// FileError records a file the engine had to skip. It never aborts a run.
type FileError struct {
	Path string
	Kind ErrorKind
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s error in %s: %v", e.Kind, e.Path, e.Err)
}

func (e *FileError) Unwrap() error { return e.Err }

func accessError(path string, err error) *FileError {
	return &FileError{Path: path, Kind: FileAccess, Err: err}
}

func parseError(path string, err error) *FileError {
	return &FileError{Path: path, Kind: Parse, Err: err}
}

// ResultSet is the output of one run. The engine keeps no reference to it
// once Run returns.
type ResultSet struct {
	SearchTerms    []string
	SearchLocation string
	Matches        []SearchMatch
	FilesSearched  int
	FilesErrored   int
	Errors         []FileError
	Elapsed        time.Duration
}

// Len is the number of matches
func (rs *ResultSet) Len() int {
	return len(rs.Matches)
}

// Head returns at most n matches for display. n <= 0 means all.
func (rs *ResultSet) Head(n int) []SearchMatch {
	if n <= 0 || n >= len(rs.Matches) {
		return rs.Matches
	}
	return rs.Matches[:n]
}

// UniqueFiles returns the distinct file paths with matches, in first-seen order
func (rs *ResultSet) UniqueFiles() []string {
	seen := make(map[string]bool)
	var files []string
	for _, m := range rs.Matches {
		if !seen[m.FilePath] {
			seen[m.FilePath] = true
			files = append(files, m.FilePath)
		}
	}
	return files
}

// MatchingFiles is the number of files with at least one match
func (rs *ResultSet) MatchingFiles() int {
	return len(rs.UniqueFiles())
}

// FilesAttempted is every file the engine tried to scan
func (rs *ResultSet) FilesAttempted() int {
	return rs.FilesSearched + rs.FilesErrored
}
