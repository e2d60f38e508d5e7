package search

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"sheetshow/config"
)

// Logger is the logging surface the engine needs. logger.ConsoleLogger
// satisfies it; nil means silent.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any) {}
func (nopLogger) Infof(string, ...any)  {}
func (nopLogger) Warnf(string, ...any)  {}

func logger(l Logger) Logger {
	if l == nil {
		return nopLogger{}
	}
	return l
}

// Progress is emitted once before scanning (Processed == 0) and once after
// every file. It is advisory only.
type Progress struct {
	Stage     string
	Processed int
	Total     int
	Path      string
	Elapsed   time.Duration
}

// Rate is files per second so far
func (p Progress) Rate() float64 {
	if p.Elapsed <= 0 {
		return 0
	}
	return float64(p.Processed) / p.Elapsed.Seconds()
}

// ProgressFunc is an optional callback to report progress
type ProgressFunc func(Progress)

// SearchEngine walks the target, dispatches each file to its extractor and
// aggregates the matches
type SearchEngine struct {
	Registry *ExtractorRegistry
	Log      Logger

	// Optional progress callback (nil if unused). Calls are serialised.
	OnProgress ProgressFunc
}

// NewSearchEngine creates a new search engine instance
func NewSearchEngine(log Logger) *SearchEngine {
	return &SearchEngine{
		Registry: NewExtractorRegistry(log),
		Log:      log,
	}
}

// Run performs the complete search. The only error it returns is a
// *config.ConfigurationError, raised before any file is touched; per-file
// failures are counted in the ResultSet instead.
func (se *SearchEngine) Run(cfg config.SearchConfiguration) (*ResultSet, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	startTime := time.Now()
	log := logger(se.Log)

	matcher := NewTermMatcher(cfg.Terms)
	walker := NewFileWalker(cfg.EffectiveExtensions(), cfg.Exclude)
	files := walker.Enumerate(cfg)

	rs := &ResultSet{
		SearchTerms:    matcher.Terms(),
		SearchLocation: GetAbsolutePath(cfg.Target()),
	}

	log.Infof("searching %d file(s) under %s for %d term(s)", len(files), rs.SearchLocation, len(rs.SearchTerms))
	se.emit(Progress{Stage: "discovery", Total: len(files), Elapsed: time.Since(startTime)})

	outcomes := se.scanAll(files, matcher, cfg.Workers, startTime)

	for i, out := range outcomes {
		if out.err != nil {
			rs.FilesErrored++
			rs.Errors = append(rs.Errors, *asFileError(files[i], out.err))
			log.Warnf("%v", out.err)
			continue
		}
		rs.FilesSearched++
		rs.Matches = append(rs.Matches, out.matches...)
	}

	rs.Elapsed = time.Since(startTime)
	log.Infof("search complete: %d matches in %d of %d files (%d errored) in %s",
		len(rs.Matches), rs.MatchingFiles(), len(files), rs.FilesErrored, rs.Elapsed.Round(time.Millisecond))

	return rs, nil
}

// scanFile runs the extractor for one file, turning a panic into a file error
func (se *SearchEngine) scanFile(path string, matcher *TermMatcher) (out fileOutcome) {
	defer func() {
		if r := recover(); r != nil {
			out = fileOutcome{err: parseError(path, fmt.Errorf("extractor panicked: %v", r))}
		}
	}()

	registry := se.Registry
	if registry == nil {
		registry = NewExtractorRegistry(se.Log)
	}
	matches, err := registry.ForFile(path).Scan(path, matcher)
	if err != nil {
		return fileOutcome{err: asFileError(path, err)}
	}
	logger(se.Log).Debugf("%s: %d match(es)", path, len(matches))
	return fileOutcome{matches: matches}
}

func (se *SearchEngine) emit(p Progress) {
	if se.OnProgress != nil {
		se.OnProgress(p)
	}
}

// asFileError makes sure every failure is reported as a *FileError
func asFileError(path string, err error) *FileError {
	var fe *FileError
	if errors.As(err, &fe) {
		return fe
	}
	return accessError(path, err)
}

// GetAbsolutePath returns the absolute path for a file
func GetAbsolutePath(filePath string) string {
	if filepath.IsAbs(filePath) {
		return filePath
	}

	abs, err := filepath.Abs(filePath)
	if err != nil {
		return filePath
	}

	return abs
}
