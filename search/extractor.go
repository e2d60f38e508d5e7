package search

import (
	"sheetshow/config"
)

// Extractor scans one file and returns its matches in top-to-bottom order.
// Failures come back as a *FileError and never carry partial matches.
type Extractor interface {
	Scan(path string, matcher *TermMatcher) ([]SearchMatch, error)
}

// ExtractorRegistry holds extractors for different file types
type ExtractorRegistry struct {
	extractors map[string]Extractor
	fallback   Extractor
}

// NewExtractorRegistry creates a new registry with built-in extractors
func NewExtractorRegistry(log Logger) *ExtractorRegistry {
	reg := &ExtractorRegistry{
		extractors: make(map[string]Extractor),
		fallback:   &TextExtractor{},
	}

	reg.registerBuiltIns(log)

	return reg
}

// Register adds or replaces the extractor for an extension
func (r *ExtractorRegistry) Register(ext string, e Extractor) {
	r.extractors[config.NormalizeExtension(ext)] = e
}

// GetExtractor returns the extractor registered for an extension
func (r *ExtractorRegistry) GetExtractor(ext string) (Extractor, bool) {
	extractor, exists := r.extractors[config.NormalizeExtension(ext)]
	return extractor, exists
}

// ForFile picks the extractor for a path. Anything not registered is
// attempted as plain text, including explicitly named files with unknown
// extensions.
func (r *ExtractorRegistry) ForFile(path string) Extractor {
	if e, ok := r.GetExtractor(config.FileExtension(path)); ok {
		return e
	}
	return r.fallback
}

// registerBuiltIns registers the built-in extractors for supported formats
func (r *ExtractorRegistry) registerBuiltIns(log Logger) {
	// Workbooks
	xlsx := &XLSXExtractor{Log: log}
	r.Register(".xlsx", xlsx)
	r.Register(".xlsm", xlsx)
	r.Register(".xls", &XLSExtractor{Log: log})

	// Office / OpenDocument text
	r.Register(".docx", &DocumentExtractor{Source: &DOCXText{}})
	r.Register(".odt", &DocumentExtractor{Source: &ODTText{}})

	// Email
	r.Register(".eml", &DocumentExtractor{Source: &EMLText{}})
	r.Register(".mbox", &DocumentExtractor{Source: &MBOXText{}})

	// Other
	r.Register(".pdf", &DocumentExtractor{Source: &PDFText{}})
	r.Register(".rtf", &DocumentExtractor{Source: &RTFText{}})
}
