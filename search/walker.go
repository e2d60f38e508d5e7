package search

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"

	"sheetshow/config"
)

// FileWalker enumerates candidate files with extension filtering
type FileWalker struct {
	fileTypes map[string]bool
	exclude   []string
}

// NewFileWalker creates a walker for the given allow-list and exclude globs.
// An empty allow-list falls back to config.DefaultExtensions.
func NewFileWalker(extensions, exclude []string) *FileWalker {
	if len(extensions) == 0 {
		extensions = config.DefaultExtensions
	}
	return &FileWalker{
		fileTypes: config.BuildFileTypeMap(extensions),
		exclude:   exclude,
	}
}

// Enumerate returns the files to scan for a configuration. A single file
// target is returned as-is without extension filtering.
func (fw *FileWalker) Enumerate(cfg config.SearchConfiguration) []string {
	if cfg.File != "" {
		return []string{cfg.File}
	}
	return fw.FindFiles(cfg.Directory)
}

// isValidFileType checks if a file extension is in the allow-list
func (fw *FileWalker) isValidFileType(path string) bool {
	return fw.fileTypes[config.FileExtension(path)]
}

// isExcluded matches a root-relative path against the exclude globs
func (fw *FileWalker) isExcluded(rootPath, path string) bool {
	if len(fw.exclude) == 0 {
		return false
	}
	rel, err := filepath.Rel(rootPath, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	for _, pattern := range fw.exclude {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

// FindFiles walks rootPath recursively in lexical order. Unreadable entries
// are treated as empty subtrees. A symlinked root is followed and the
// returned paths stay under the link.
func (fw *FileWalker) FindFiles(rootPath string) []string {
	var files []string

	rootPath = walkRoot(rootPath)
	_ = filepath.WalkDir(rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // Skip entries we can't access
		}

		if d.IsDir() {
			if path != rootPath && fw.isExcluded(rootPath, path) {
				return filepath.SkipDir
			}
			return nil
		}

		if !fw.isValidFileType(path) || fw.isExcluded(rootPath, path) {
			return nil
		}

		if !d.Type().IsRegular() {
			// Follow symlinks to regular files only
			info, statErr := os.Stat(path)
			if statErr != nil || !info.Mode().IsRegular() {
				return nil
			}
		}

		files = append(files, path)
		return nil
	})

	return files
}

// walkRoot adds a trailing separator to a symlink to a directory, since
// WalkDir does not follow a symlinked root
func walkRoot(rootPath string) string {
	li, err := os.Lstat(rootPath)
	if err != nil || li.Mode()&fs.ModeSymlink == 0 {
		return rootPath
	}
	if info, err := os.Stat(rootPath); err != nil || !info.IsDir() {
		return rootPath
	}
	return rootPath + string(filepath.Separator)
}
