// Package config holds the run configuration for a search, the extension
// tables that drive file-kind dispatch, and the optional TOML defaults file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/bmatcuk/doublestar/v4"
)

// DefaultMaxDisplay is how many matches the console shows unless told otherwise
const DefaultMaxDisplay = 20

// ConfigurationError reports an invalid or contradictory run configuration.
// It is the only error a search run can fail with, and it is raised before
// any file is opened.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return "invalid configuration: " + e.Reason
	}
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

// IsConfigurationError reports whether err is (or wraps) a ConfigurationError
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

// SearchConfiguration is the immutable set of parameters for one run
type SearchConfiguration struct {
	Terms []string

	// Exactly one of File or Directory is set
	File      string
	Directory string

	// Extensions is the directory-mode allow-list. Empty means DefaultExtensions.
	Extensions []string
	// Exclude holds doublestar globs matched against paths relative to Directory
	Exclude []string

	MaxDisplay int
	Export     bool
	Output     string
	Workers    int
}

// Target returns the path being searched
func (c SearchConfiguration) Target() string {
	if c.File != "" {
		return c.File
	}
	return c.Directory
}

// IsDirectory reports whether this is a directory walk
func (c SearchConfiguration) IsDirectory() bool {
	return c.Directory != ""
}

// EffectiveExtensions returns the normalised allow-list for directory walks
func (c SearchConfiguration) EffectiveExtensions() []string {
	if len(c.Extensions) == 0 {
		return NormalizeExtensions(DefaultExtensions)
	}
	return NormalizeExtensions(c.Extensions)
}

// Validate checks the configuration and stats the target. It never opens a file.
func (c SearchConfiguration) Validate() error {
	if len(c.Terms) == 0 {
		return &ConfigurationError{Field: "terms", Reason: "at least one search term is required"}
	}
	for i, t := range c.Terms {
		if strings.TrimSpace(t) == "" {
			return &ConfigurationError{Field: "terms", Reason: fmt.Sprintf("term %d is blank", i+1)}
		}
	}

	switch {
	case c.File != "" && c.Directory != "":
		return &ConfigurationError{Field: "target", Reason: "specify either a file or a directory, not both"}
	case c.File == "" && c.Directory == "":
		return &ConfigurationError{Field: "target", Reason: "a file or a directory to search is required"}
	}

	if c.MaxDisplay < 0 {
		return &ConfigurationError{Field: "max-display", Reason: "must not be negative"}
	}
	if c.Workers < 0 {
		return &ConfigurationError{Field: "workers", Reason: "must not be negative"}
	}
	if c.IsDirectory() && len(c.Extensions) > 0 && len(NormalizeExtensions(c.Extensions)) == 0 {
		return &ConfigurationError{Field: "extensions", Reason: "no usable extensions given"}
	}

	for _, pattern := range c.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			return &ConfigurationError{Field: "exclude", Reason: fmt.Sprintf("bad glob %q", pattern)}
		}
	}

	info, err := os.Stat(c.Target())
	if err != nil {
		return &ConfigurationError{Field: "target", Reason: fmt.Sprintf("path %q does not exist or is not accessible", c.Target())}
	}
	if c.File != "" && info.IsDir() {
		return &ConfigurationError{Field: "file", Reason: fmt.Sprintf("%q is a directory, use --path", c.File)}
	}
	if c.Directory != "" && !info.IsDir() {
		return &ConfigurationError{Field: "path", Reason: fmt.Sprintf("%q is not a directory, use --file", c.Directory)}
	}
	return nil
}

// FileDefaults are the settings that may come from a TOML file. Flags given on
// the command line override them.
type FileDefaults struct {
	Extensions []string `toml:"extensions"`
	Exclude    []string `toml:"exclude"`
	MaxDisplay *int     `toml:"max_display"`
	Workers    *int     `toml:"workers"`
	LogLevel   string   `toml:"log_level"`
	Progress   *bool    `toml:"progress"`
}

// DefaultConfigPath returns sheetshow/config.toml under the user config dir, or "" if there is none
func DefaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "sheetshow", "config.toml")
}

// LoadFileDefaults decodes a TOML defaults file. When optional is true a
// missing file yields empty defaults instead of an error.
func LoadFileDefaults(path string, optional bool) (FileDefaults, error) {
	var fd FileDefaults
	if path == "" {
		return fd, nil
	}
	if _, err := os.Stat(path); err != nil {
		if optional && errors.Is(err, os.ErrNotExist) {
			return fd, nil
		}
		return fd, &ConfigurationError{Field: "config", Reason: fmt.Sprintf("cannot read %s: %v", path, err)}
	}

	md, err := toml.DecodeFile(path, &fd)
	if err != nil {
		return fd, &ConfigurationError{Field: "config", Reason: fmt.Sprintf("failed to parse %s: %v", path, err)}
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fd, &ConfigurationError{Field: "config", Reason: "unknown keys: " + strings.Join(keys, ", ")}
	}
	return fd, nil
}
