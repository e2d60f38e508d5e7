package config

import (
	"slices"
	"strings"
)

// DefaultExtensions is the allow-list used for directory searches when none is given
var DefaultExtensions = []string{
	".txt", ".py", ".js", ".html", ".css", ".md", ".json", ".xml", ".csv",
	".xlsx", ".xls",
}

// SpreadsheetTypes are scanned cell by cell instead of line by line
var SpreadsheetTypes = []string{".xlsx", ".xlsm", ".xls"}

// DocumentTypes need text extraction before they can be scanned line by line.
// They are never in the default allow-list; users opt in with --extensions.
var DocumentTypes = []string{".docx", ".odt", ".eml", ".mbox", ".pdf", ".rtf"}

// NormalizeExtension lower-cases an extension and gives it a leading dot
func NormalizeExtension(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext == "" || ext == "." {
		return ""
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// NormalizeExtensions normalises a user supplied list, dropping blanks and duplicates
func NormalizeExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))
	for _, e := range exts {
		n := NormalizeExtension(e)
		if n == "" || slices.Contains(out, n) {
			continue
		}
		out = append(out, n)
	}
	return out
}

// BuildFileTypeMap creates a map for O(1) extension lookups
func BuildFileTypeMap(exts []string) map[string]bool {
	typeMap := make(map[string]bool, len(exts))
	for _, ext := range NormalizeExtensions(exts) {
		typeMap[ext] = true
	}
	return typeMap
}

// IsSpreadsheetFile checks if a file is one of the workbook formats
func IsSpreadsheetFile(filename string) bool {
	return slices.Contains(SpreadsheetTypes, FileExtension(filename))
}

// IsDocumentFile checks if a file needs document text extraction
func IsDocumentFile(filename string) bool {
	return slices.Contains(DocumentTypes, FileExtension(filename))
}

// FileExtension returns the lower-cased extension of filename including the dot
func FileExtension(filename string) string {
	base := filename
	if i := strings.LastIndexAny(base, `/\`); i >= 0 {
		base = base[i+1:]
	}
	lastDot := strings.LastIndex(base, ".")
	if lastDot <= 0 || lastDot == len(base)-1 {
		return ""
	}
	return strings.ToLower(base[lastDot:])
}

// GetFileTypeDescription returns a human-readable description of the allow-list
func GetFileTypeDescription(exts []string) string {
	exts = NormalizeExtensions(exts)
	var text, sheets, docs []string
	for _, ext := range exts {
		name := strings.TrimPrefix(ext, ".")
		switch {
		case slices.Contains(SpreadsheetTypes, ext):
			sheets = append(sheets, name)
		case slices.Contains(DocumentTypes, ext):
			docs = append(docs, name)
		default:
			text = append(text, name)
		}
	}

	var parts []string
	if len(text) > 0 {
		parts = append(parts, "text ("+strings.Join(text, ", ")+")")
	}
	if len(sheets) > 0 {
		parts = append(parts, "spreadsheets ("+strings.Join(sheets, ", ")+")")
	}
	if len(docs) > 0 {
		parts = append(parts, "documents ("+strings.Join(docs, ", ")+")")
	}
	if len(parts) == 0 {
		return "no file types"
	}
	return strings.Join(parts, " + ")
}
