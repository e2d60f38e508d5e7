package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	tests := []struct {
		name      string
		cfg       SearchConfiguration
		wantField string
	}{
		{"valid directory", SearchConfiguration{Terms: []string{"a"}, Directory: dir}, ""},
		{"valid file", SearchConfiguration{Terms: []string{"a"}, File: file}, ""},
		{"no terms", SearchConfiguration{Directory: dir}, "terms"},
		{"blank term", SearchConfiguration{Terms: []string{"a", "  "}, Directory: dir}, "terms"},
		{"both targets", SearchConfiguration{Terms: []string{"a"}, File: file, Directory: dir}, "target"},
		{"no target", SearchConfiguration{Terms: []string{"a"}}, "target"},
		{"missing target", SearchConfiguration{Terms: []string{"a"}, Directory: filepath.Join(dir, "nope")}, "target"},
		{"file is a directory", SearchConfiguration{Terms: []string{"a"}, File: dir}, "file"},
		{"path is a file", SearchConfiguration{Terms: []string{"a"}, Directory: file}, "path"},
		{"negative workers", SearchConfiguration{Terms: []string{"a"}, Directory: dir, Workers: -1}, "workers"},
		{"negative max display", SearchConfiguration{Terms: []string{"a"}, Directory: dir, MaxDisplay: -1}, "max-display"},
		{"unusable extensions", SearchConfiguration{Terms: []string{"a"}, Directory: dir, Extensions: []string{" ", "."}}, "extensions"},
		{"bad exclude glob", SearchConfiguration{Terms: []string{"a"}, Directory: dir, Exclude: []string{"[a-"}}, "exclude"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, IsConfigurationError(err))
			var ce *ConfigurationError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.wantField, ce.Field)
		})
	}
}

func TestTargetAndExtensions(t *testing.T) {
	cfg := SearchConfiguration{Directory: "/data"}
	assert.Equal(t, "/data", cfg.Target())
	assert.True(t, cfg.IsDirectory())
	assert.Equal(t, NormalizeExtensions(DefaultExtensions), cfg.EffectiveExtensions())

	cfg = SearchConfiguration{File: "a.txt", Extensions: []string{"MD", ".md", "txt"}}
	assert.Equal(t, "a.txt", cfg.Target())
	assert.False(t, cfg.IsDirectory())
	assert.Equal(t, []string{".md", ".txt"}, cfg.EffectiveExtensions())
}

func TestLoadFileDefaults(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing optional file", func(t *testing.T) {
		fd, err := LoadFileDefaults(filepath.Join(dir, "absent.toml"), true)
		require.NoError(t, err)
		assert.Equal(t, FileDefaults{}, fd)
	})

	t.Run("missing explicit file", func(t *testing.T) {
		_, err := LoadFileDefaults(filepath.Join(dir, "absent.toml"), false)
		assert.True(t, IsConfigurationError(err))
	})

	t.Run("all keys", func(t *testing.T) {
		path := filepath.Join(dir, "full.toml")
		content := `extensions = ["txt", ".xlsx"]
exclude = ["vendor/**"]
max_display = 5
workers = 4
log_level = "debug"
progress = false
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		fd, err := LoadFileDefaults(path, false)
		require.NoError(t, err)
		assert.Equal(t, []string{"txt", ".xlsx"}, fd.Extensions)
		assert.Equal(t, []string{"vendor/**"}, fd.Exclude)
		require.NotNil(t, fd.MaxDisplay)
		assert.Equal(t, 5, *fd.MaxDisplay)
		require.NotNil(t, fd.Workers)
		assert.Equal(t, 4, *fd.Workers)
		assert.Equal(t, "debug", fd.LogLevel)
		require.NotNil(t, fd.Progress)
		assert.False(t, *fd.Progress)
	})

	t.Run("unknown key", func(t *testing.T) {
		path := filepath.Join(dir, "unknown.toml")
		require.NoError(t, os.WriteFile(path, []byte("colour = true\n"), 0o644))

		_, err := LoadFileDefaults(path, false)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "colour")
	})

	t.Run("malformed", func(t *testing.T) {
		path := filepath.Join(dir, "bad.toml")
		require.NoError(t, os.WriteFile(path, []byte("workers = [\n"), 0o644))

		_, err := LoadFileDefaults(path, true)
		assert.True(t, IsConfigurationError(err))
	})
}

func TestFileExtension(t *testing.T) {
	tests := map[string]string{
		"report.XLSX":        ".xlsx",
		"dir/archive.tar.gz": ".gz",
		".bashrc":            "",
		"Makefile":           "",
		"trailing.":          "",
		`C:\docs\notes.Txt`:  ".txt",
	}
	for in, want := range tests {
		assert.Equal(t, want, FileExtension(in), in)
	}
}

func TestNormalizeExtensions(t *testing.T) {
	assert.Equal(t, []string{".txt", ".md"}, NormalizeExtensions([]string{"TXT", " .md ", "", ".txt", "."}))
	assert.Equal(t, map[string]bool{".csv": true}, BuildFileTypeMap([]string{"csv", ".CSV"}))
}

func TestFileKinds(t *testing.T) {
	assert.True(t, IsSpreadsheetFile("a.XLSM"))
	assert.False(t, IsSpreadsheetFile("a.csv"))
	assert.True(t, IsDocumentFile("mail.eml"))
	assert.False(t, IsDocumentFile("a.txt"))
}

func TestGetFileTypeDescription(t *testing.T) {
	assert.Equal(t, "text (txt, md) + spreadsheets (xlsx) + documents (pdf)",
		GetFileTypeDescription([]string{".txt", "md", ".xlsx", ".pdf"}))
	assert.Equal(t, "no file types", GetFileTypeDescription(nil))
}
