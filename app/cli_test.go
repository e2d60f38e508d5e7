package app

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"sheetshow/logger"
)

type result struct {
	code   int
	stdout string
	stderr string
}

// execute runs the command with an isolated user config directory
func execute(t *testing.T, stdin string, args ...string) result {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())

	var out, errOut bytes.Buffer
	code := Execute(args, strings.NewReader(stdin), &out, &errOut)
	return result{code: code, stdout: out.String(), stderr: errOut.String()}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestExecuteTextSearch(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "notes.txt", "one\ntwo\n# TODO: x\n")

	res := execute(t, "", "todo", "--path", root)

	assert.Equal(t, ExitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Searching for 1 term(s) in "+root)
	assert.Contains(t, res.stdout, "File: notes.txt")
	assert.Contains(t, res.stdout, "Line 3: # TODO: x")
	assert.Contains(t, res.stdout, "Total: 1 matches found")
	assert.NotContains(t, res.stdout, "save these results", "no prompt without a terminal")
}

func TestExecuteConfigurationErrors(t *testing.T) {
	root := t.TempDir()
	file := writeFile(t, root, "a.txt", "x")

	tests := []struct {
		name string
		args []string
	}{
		{"no terms", []string{"--path", root}},
		{"no target", []string{"x"}},
		{"both targets", []string{"x", "--path", root, "--file", file}},
		{"missing path", []string{"x", "--path", filepath.Join(root, "missing")}},
		{"file given a directory", []string{"x", "--file", root}},
		{"negative workers", []string{"x", "--path", root, "--workers", "-2"}},
		{"unknown flag", []string{"x", "--path", root, "--bogus"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := execute(t, "", tt.args...)
			assert.Equal(t, ExitError, res.code)
			assert.Contains(t, res.stderr, "Error:")
			assert.NotContains(t, res.stdout, "Total:")
		})
	}
}

func TestExecuteAllFilesFailed(t *testing.T) {
	root := t.TempDir()
	path := writeFile(t, root, "broken.xlsx", "not a workbook")

	res := execute(t, "", "x", "--file", path)

	assert.Equal(t, ExitAllFailed, res.code)
	assert.Contains(t, res.stdout, "No results found.")
	assert.Contains(t, res.stdout, "Files with errors: 1")
	assert.Contains(t, res.stderr, "WARN")
}

func TestExecuteSomeFilesFailedStillSucceeds(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "broken.xlsx", "not a workbook")
	writeFile(t, root, "ok.txt", "x marks the spot\n")

	res := execute(t, "", "x", "--path", root)

	assert.Equal(t, ExitOK, res.code)
	assert.Contains(t, res.stdout, "Files with errors: 1")
}

func TestExecuteExportToOutput(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "notes.txt", "TODO a\nTODO b\n")
	output := filepath.Join(t.TempDir(), "results")

	res := execute(t, "", "todo", "--path", root, "-o", output)

	require.Equal(t, ExitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Results saved to: "+output+".xlsx")

	f, err := excelize.OpenFile(output + ".xlsx")
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"Search Results", "Summary"}, f.GetSheetList())
	rows, err := f.GetRows("Search Results")
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestExecuteExportDefaultName(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "notes.txt", "fix me soon\n")
	work := t.TempDir()
	t.Chdir(work)

	res := execute(t, "", "fix me", "--path", root, "--export")

	require.Equal(t, ExitOK, res.code, res.stderr)
	_, err := os.Stat(filepath.Join(work, "search_results_fix_me.xlsx"))
	assert.NoError(t, err)
}

func TestExecuteExportWithoutResults(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "notes.txt", "nothing\n")
	output := filepath.Join(t.TempDir(), "empty.xlsx")

	res := execute(t, "", "absent", "--path", root, "-x", "-o", output)

	assert.Equal(t, ExitOK, res.code)
	assert.Contains(t, res.stdout, "No results to save.")
	_, err := os.Stat(output)
	assert.True(t, os.IsNotExist(err))
}

func TestExecuteMaxDisplay(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "many.txt", strings.Repeat("hit\n", 5))

	res := execute(t, "", "hit", "--path", root, "-m", "2")

	assert.Equal(t, ExitOK, res.code)
	assert.Equal(t, 2, strings.Count(res.stdout, "Matched term:"))
	assert.Contains(t, res.stdout, "... and 3 more results")
}

func TestExecuteConfigFileDefaults(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "many.txt", strings.Repeat("hit\n", 5))
	writeFile(t, root, "skip/other.txt", "hit\n")
	writeFile(t, root, "data.log", "hit\n")
	cfgPath := writeFile(t, t.TempDir(), "sheetshow.toml", `extensions = ["txt", "log"]
exclude = ["skip/**"]
max_display = 1
workers = 2
log_level = "info"
`)

	res := execute(t, "", "hit", "--path", root, "--config", cfgPath)

	require.Equal(t, ExitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Total: 6 matches found")
	assert.Equal(t, 1, strings.Count(res.stdout, "Matched term:"))
	assert.Contains(t, res.stderr, "INFO")

	// Flags win over the file
	res = execute(t, "", "hit", "--path", root, "--config", cfgPath, "-m", "0", "--log-level", "error", "-e", "txt")
	require.Equal(t, ExitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Total: 5 matches found")
	assert.Equal(t, 5, strings.Count(res.stdout, "Matched term:"))
	assert.NotContains(t, res.stderr, "INFO")
}

func TestExecuteBadConfigFile(t *testing.T) {
	root := t.TempDir()
	cfgPath := writeFile(t, t.TempDir(), "bad.toml", "workers = \"many\"\n")

	res := execute(t, "", "x", "--path", root, "--config", cfgPath)

	assert.Equal(t, ExitError, res.code)
	assert.Contains(t, res.stderr, "invalid configuration")
}

func TestExecuteSpreadsheet(t *testing.T) {
	root := t.TempDir()
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"Name", "Age"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]any{"Ann", "30"}))
	path := filepath.Join(root, "people.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	res := execute(t, "", "ann", "--file", path)

	assert.Equal(t, ExitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Sheet: Sheet1, Row 2, Column: Name")
	assert.Contains(t, res.stdout, "Value: Ann")
}

func TestExecuteHelpAndVersion(t *testing.T) {
	res := execute(t, "", "--help")
	assert.Equal(t, ExitOK, res.code)
	assert.Contains(t, res.stdout, "--max-display")

	res = execute(t, "", "--version")
	assert.Equal(t, ExitOK, res.code)
	assert.Contains(t, res.stdout, version)
}

func TestPromptExport(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantSave   bool
		wantOutput string
	}{
		{"yes with name", "y\nmine.xlsx\n", true, "mine.xlsx"},
		{"yes default name", "YES\n\n", true, ""},
		{"no", "n\n", false, ""},
		{"eof", "", false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			save, output := promptExport(bufio.NewReader(strings.NewReader(tt.input)), &out)
			assert.Equal(t, tt.wantSave, save)
			assert.Equal(t, tt.wantOutput, output)
			assert.Contains(t, out.String(), "Would you like to save these results to Excel? (y/n)")
		})
	}
}

func TestExportStepPrompted(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "notes.txt", "TODO\n")
	output := filepath.Join(t.TempDir(), "answered.xlsx")
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	var out, errOut bytes.Buffer
	r := &runner{
		in:          strings.NewReader("y\n" + output + "\n"),
		out:         &out,
		errOut:      &errOut,
		st:          newStyles(&errOut),
		interactive: true,
	}
	cmd := r.newRootCommand()
	cmd.SetArgs([]string{"todo", "--path", root})
	cmd.SetOut(&out)
	require.NoError(t, cmd.Execute())

	assert.Equal(t, ExitOK, r.exitCode)
	assert.Contains(t, out.String(), "Results saved to: "+output)
	_, err := os.Stat(output)
	assert.NoError(t, err)
}

func TestLogSinkHoldsLinesBehindProgressView(t *testing.T) {
	var errOut bytes.Buffer
	r := &runner{errOut: &errOut}

	w, flush := r.logSink(true)
	log := logger.NewConsoleLogger(w, "warn")
	log.Warnf("skipping %s", "broken.xlsx")
	assert.Empty(t, errOut.String(), "nothing reaches the terminal while the view is drawn")

	flush()
	assert.Contains(t, errOut.String(), "skipping broken.xlsx")

	w, flush = r.logSink(false)
	assert.Same(t, &errOut, w)
	flush()
}
