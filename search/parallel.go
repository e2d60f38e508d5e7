package search

import (
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// fileOutcome is the result of scanning one file: matches or a failure, never both
type fileOutcome struct {
	matches []SearchMatch
	err     error
}

// scanAll scans files and returns one outcome per file, indexed by walk
// position. With workers <= 1 files are scanned strictly one after another.
// With more workers a bounded pool scans them concurrently; each worker writes
// only its own slot, so the merged order is still walk order.
func (se *SearchEngine) scanAll(files []string, matcher *TermMatcher, workers int, startTime time.Time) []fileOutcome {
	outcomes := make([]fileOutcome, len(files))
	total := len(files)

	if workers <= 1 {
		for i, path := range files {
			outcomes[i] = se.scanFile(path, matcher)
			se.emit(Progress{Stage: "scanning", Processed: i + 1, Total: total, Path: path, Elapsed: time.Since(startTime)})
		}
		return outcomes
	}

	var (
		g         errgroup.Group
		mu        sync.Mutex
		processed int
	)
	g.SetLimit(workers)

	for i, path := range files {
		g.Go(func() error {
			outcomes[i] = se.scanFile(path, matcher)

			mu.Lock()
			processed++
			se.emit(Progress{Stage: "scanning", Processed: processed, Total: total, Path: path, Elapsed: time.Since(startTime)})
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}
