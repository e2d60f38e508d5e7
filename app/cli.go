// Package app wires the sheetshow command line: flag and config-file
// handling, the optional progress view, console output and the export step.
package app

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"sheetshow/config"
	"sheetshow/logger"
	"sheetshow/report"
	"sheetshow/search"
)

var version = "1.0"

// Process exit codes
const (
	ExitOK        = 0
	ExitError     = 1   // configuration error or failed export
	ExitAllFailed = 2   // every candidate file failed to scan
	ExitAborted   = 130 // user quit the progress view
)

// options holds the raw flag values
type options struct {
	path       string
	file       string
	extensions []string
	exclude    []string
	export     bool
	output     string
	maxDisplay int
	workers    int
	configPath string
	logLevel   string
	noProgress bool
}

// runner carries the I/O streams for one invocation
type runner struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer
	st     styles

	// interactive enables the export prompt; progress enables the progress view
	interactive bool
	progress    bool

	exitCode int
}

// Run executes the command with the process arguments and streams. Returns a
// process exit code.
func Run() int {
	return Execute(os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
}

// Execute runs the command against the given arguments and streams
func Execute(args []string, in io.Reader, out, errOut io.Writer) int {
	r := &runner{
		in:          in,
		out:         out,
		errOut:      errOut,
		st:          newStyles(errOut),
		interactive: isTerminal(in),
		progress:    isTerminal(errOut),
	}

	cmd := r.newRootCommand()
	cmd.SetArgs(args)
	cmd.SetIn(in)
	cmd.SetOut(out)
	cmd.SetErr(errOut)

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(errOut, r.st.errStyle.Render("Error: "+err.Error()))
		return ExitError
	}
	return r.exitCode
}

func (r *runner) newRootCommand() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "sheetshow TERM [TERM...] (--path DIR | --file FILE)",
		Short: "Search text files and spreadsheets for one or more terms",
		Long: `Search text files and spreadsheets for one or more terms, case-insensitively.

Text files are matched line by line. Spreadsheets (.xlsx, .xlsm, .xls) are
matched cell by cell; every match carries its sheet, row, column and the
whole row keyed by the header. Results can be exported to an Excel workbook.

Defaults for extensions, exclude, max_display, workers, log_level and
progress can be set in a TOML file (--config, or sheetshow/config.toml in the
user config directory). Flags override the file.

Examples:
  sheetshow function --path ./src
  sheetshow TODO FIXME --file script.py
  sheetshow factor --file "Hosting Services IP Networks.xlsx"
  sheetshow error warning --path ./project --output my_results.xlsx
  sheetshow invoice --path ./mail -e eml,mbox,pdf --exclude "archive/**"`,
		Version:       version,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := r.runSearch(cmd, args, opts)
			r.exitCode = code
			return err
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.path, "path", "p", "", "Directory to search recursively")
	flags.StringVarP(&opts.file, "file", "f", "", "Single file to search")
	flags.StringSliceVarP(&opts.extensions, "extensions", "e", nil, "File extensions to search in a directory (default: "+strings.Join(config.DefaultExtensions, " ")+")")
	flags.StringSliceVar(&opts.exclude, "exclude", nil, "Glob patterns of paths to skip, relative to --path (e.g. \"vendor/**\")")
	flags.BoolVarP(&opts.export, "export", "x", false, "Export results to Excel without asking")
	flags.StringVarP(&opts.output, "output", "o", "", "Output Excel file name (implies --export)")
	flags.IntVarP(&opts.maxDisplay, "max-display", "m", config.DefaultMaxDisplay, "Maximum number of results to display (0 = all)")
	flags.IntVarP(&opts.workers, "workers", "w", 1, "Files scanned concurrently")
	flags.StringVar(&opts.configPath, "config", "", "Path to a TOML defaults file")
	flags.StringVar(&opts.logLevel, "log-level", "warn", "Log level: trace, debug, info, warn, error")
	flags.BoolVar(&opts.noProgress, "no-progress", false, "Disable the interactive progress view")

	return cmd
}

// buildConfiguration merges the TOML defaults under the flags that were
// actually given on the command line
func buildConfiguration(cmd *cobra.Command, terms []string, opts *options) (cfg config.SearchConfiguration, logLevel string, progress bool, err error) {
	var fd config.FileDefaults
	if opts.configPath != "" {
		fd, err = config.LoadFileDefaults(opts.configPath, false)
	} else {
		fd, err = config.LoadFileDefaults(config.DefaultConfigPath(), true)
	}
	if err != nil {
		return cfg, "", false, err
	}

	flags := cmd.Flags()
	cfg = config.SearchConfiguration{
		Terms:      terms,
		File:       opts.file,
		Directory:  opts.path,
		Extensions: opts.extensions,
		Exclude:    opts.exclude,
		MaxDisplay: opts.maxDisplay,
		Export:     opts.export,
		Output:     opts.output,
		Workers:    opts.workers,
	}
	logLevel = opts.logLevel
	progress = !opts.noProgress

	if !flags.Changed("extensions") && len(fd.Extensions) > 0 {
		cfg.Extensions = fd.Extensions
	}
	if !flags.Changed("exclude") && len(fd.Exclude) > 0 {
		cfg.Exclude = fd.Exclude
	}
	if !flags.Changed("max-display") && fd.MaxDisplay != nil {
		cfg.MaxDisplay = *fd.MaxDisplay
	}
	if !flags.Changed("workers") && fd.Workers != nil {
		cfg.Workers = *fd.Workers
	}
	if !flags.Changed("log-level") && fd.LogLevel != "" {
		logLevel = fd.LogLevel
	}
	if !flags.Changed("no-progress") && fd.Progress != nil {
		progress = *fd.Progress
	}
	return cfg, logger.NormalizeLevel(logLevel), progress, nil
}

// runSearch executes one search and everything after it. A returned error is
// always reported with ExitError.
func (r *runner) runSearch(cmd *cobra.Command, terms []string, opts *options) (int, error) {
	cfg, logLevel, progress, err := buildConfiguration(cmd, terms, opts)
	if err != nil {
		return ExitError, err
	}
	// Fail before the progress view starts
	if err := cfg.Validate(); err != nil {
		return ExitError, err
	}

	useProgress := progress && r.progress
	logOut, flushLog := r.logSink(useProgress)
	log := logger.NewConsoleLogger(logOut, logLevel)
	engine := search.NewSearchEngine(log)

	var rs *search.ResultSet
	if useProgress {
		var aborted bool
		rs, aborted, err = runWithProgress(engine, cfg, r.in, r.errOut)
		flushLog()
		if aborted {
			fmt.Fprintln(r.errOut, r.st.warning.Render("Search aborted."))
			return ExitAborted, nil
		}
	} else {
		fmt.Fprintf(r.out, "Searching for %d term(s) in %s...\n", len(cfg.Terms), cfg.Target())
		rs, err = engine.Run(cfg)
	}
	if err != nil {
		return ExitError, err
	}

	report.NewConsoleReporter(r.out).Print(rs, cfg.MaxDisplay)

	if err := r.exportStep(cfg, rs); err != nil {
		return ExitError, err
	}

	if rs.FilesErrored > 0 && rs.FilesSearched == 0 {
		return ExitAllFailed, nil
	}
	return ExitOK, nil
}

// logSink returns where engine log lines go. While the progress view owns
// the terminal they are held, and flush writes them out once it has exited.
func (r *runner) logSink(progress bool) (w io.Writer, flush func()) {
	if !progress {
		return r.errOut, func() {}
	}
	held := &bytes.Buffer{}
	return held, func() {
		_, _ = io.Copy(r.errOut, held)
	}
}

// exportStep exports when asked to, or offers to when the session is interactive
func (r *runner) exportStep(cfg config.SearchConfiguration, rs *search.ResultSet) error {
	output := cfg.Output
	switch {
	case cfg.Export || cfg.Output != "":
	case rs.Len() > 0 && r.interactive:
		var save bool
		save, output = promptExport(bufio.NewReader(r.in), r.out)
		if !save {
			return nil
		}
	default:
		return nil
	}

	path, err := report.Export(rs, output)
	if errors.Is(err, report.ErrNoResults) {
		fmt.Fprintln(r.out, "No results to save.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	fmt.Fprintf(r.out, "Results saved to: %s\n", path)
	return nil
}

// promptExport asks whether to save, then for an optional file name. An
// empty name means the generated default.
func promptExport(in *bufio.Reader, out io.Writer) (save bool, output string) {
	fmt.Fprint(out, "\nWould you like to save these results to Excel? (y/n): ")
	answer, _ := in.ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
	default:
		return false, ""
	}

	fmt.Fprint(out, "Enter output filename (press Enter for auto-generated name): ")
	name, _ := in.ReadString('\n')
	return true, strings.TrimSpace(name)
}

// isTerminal reports whether a stream is an interactive terminal
func isTerminal(stream any) bool {
	f, ok := stream.(*os.File)
	if !ok || f == nil {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
