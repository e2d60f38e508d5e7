package app

import (
	"fmt"
	"io"
	"runtime"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/sys/unix"

	"sheetshow/config"
	"sheetshow/search"
)

// styles is the shared palette, bound to one output's colour profile
type styles struct {
	logo      lipgloss.Style
	subHeader lipgloss.Style
	info      lipgloss.Style
	success   lipgloss.Style
	warning   lipgloss.Style
	errStyle  lipgloss.Style
	separator lipgloss.Style
	target    lipgloss.Style
	engine    lipgloss.Style
	elapsed   lipgloss.Style
	progress  lipgloss.Style
	barFull   lipgloss.Style
	barEmpty  lipgloss.Style
	footer    lipgloss.Style
}

func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		logo:      r.NewStyle().Foreground(lipgloss.Color("#7aa2f7")).Align(lipgloss.Left),
		subHeader: r.NewStyle().Foreground(lipgloss.Color("#7dcfff")).Bold(true),
		info:      r.NewStyle().Foreground(lipgloss.Color("#a9b1d6")),
		success:   r.NewStyle().Foreground(lipgloss.Color("#9ece6a")).Bold(true),
		warning:   r.NewStyle().Foreground(lipgloss.Color("#e0af68")).Bold(true),
		errStyle:  r.NewStyle().Foreground(lipgloss.Color("#f7768e")).Bold(true),
		separator: r.NewStyle().Foreground(lipgloss.Color("#565f89")),
		target:    r.NewStyle().Foreground(lipgloss.Color("75")),
		engine:    r.NewStyle().Foreground(lipgloss.Color("#bb9af7")),
		elapsed:   r.NewStyle().Foreground(lipgloss.Color("#e0af68")),
		progress:  r.NewStyle().Foreground(lipgloss.Color("#7dcfff")),
		barFull:   r.NewStyle().Foreground(lipgloss.Color("#9ece6a")),
		barEmpty:  r.NewStyle().Foreground(lipgloss.Color("#414868")),
		footer:    r.NewStyle().Foreground(lipgloss.Color("240")),
	}
}

// progressMsg carries one engine progress event into the view
type progressMsg search.Progress

// searchDoneMsg ends the view with the engine's outcome
type searchDoneMsg struct {
	rs  *search.ResultSet
	err error
}

type memUsageMsg struct {
	Text string
}

// progressModel shows what is being searched while the engine runs
type progressModel struct {
	st styles

	// Search parameters
	terms     []string
	target    string
	fileTypes string
	workers   int

	progress     search.Progress
	memUsageText string // e.g., " • RAM: XXX MB • CPU: YY%"
	sampler      *cpuSampler
	started      time.Time
	width        int

	// Outcome
	done    bool
	aborted bool
	rs      *search.ResultSet
	err     error
}

func newProgressModel(cfg config.SearchConfiguration, st styles) progressModel {
	fileTypes := "single file"
	if cfg.IsDirectory() {
		fileTypes = config.GetFileTypeDescription(cfg.EffectiveExtensions())
	}
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	return progressModel{
		st:        st,
		terms:     cfg.Terms,
		target:    search.GetAbsolutePath(cfg.Target()),
		fileTypes: fileTypes,
		workers:   workers,
		sampler:   &cpuSampler{},
		started:   time.Now(),
	}
}

func (m progressModel) Init() tea.Cmd {
	return m.memUsageTick()
}

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.aborted = true
			return m, tea.Quit
		}
		return m, nil

	case progressMsg:
		m.progress = search.Progress(msg)
		return m, nil

	case memUsageMsg:
		m.memUsageText = msg.Text
		if m.done || m.aborted {
			return m, nil
		}
		return m, m.memUsageTick()

	case searchDoneMsg:
		m.done = true
		m.rs = msg.rs
		m.err = msg.err
		return m, tea.Quit
	}
	return m, nil
}

func (m progressModel) View() string {
	// The view is cleared once the run is over; results are printed afterwards
	if m.done || m.aborted {
		return ""
	}

	width := m.width
	if width <= 0 {
		width = 100
	}

	var lines []string

	logoTop := " █▀ █ █ █▀▀ █▀▀ ▀█▀ █▀ █ █ █▀█ █ █ █"
	logoBottom := fmt.Sprintf(" ▄█ █▀█ ██▄ ██▄  █  ▄█ █▀█ █▄█ ▀▄▀▄▀  v%s", version)
	if len(logoTop) < len(logoBottom) {
		logoTop += strings.Repeat(" ", len(logoBottom)-len(logoTop))
	}
	lines = append(lines, "", m.st.logo.Render(logoTop+"\n"+logoBottom), "")

	quoted := make([]string, len(m.terms))
	for i, t := range m.terms {
		quoted[i] = fmt.Sprintf("%q", t)
	}
	lines = append(lines, m.st.subHeader.Render(wrapTextWithIndent("🔍 Searching: ", strings.Join(quoted, " "), width-4)))
	lines = append(lines, m.st.target.Render(wrapTextWithIndent("📁 Target: ", m.target+" • "+m.fileTypes, width-4)))
	lines = append(lines, m.st.engine.Render(fmt.Sprintf("⚙️ Engine: Workers %d%s", m.workers, m.memUsageText)))
	lines = append(lines, m.st.elapsed.Render(fmt.Sprintf("⏱️ Elapsed: %.1f seconds • %.1f files/s",
		time.Since(m.started).Seconds(), m.progress.Rate())))
	lines = append(lines, "")

	stage := m.progress.Stage
	if stage == "" {
		stage = "discovery"
	}
	progressLine := fmt.Sprintf("⏳ %s [%d/%d]", strings.ToUpper(stage[:1])+stage[1:], m.progress.Processed, m.progress.Total)
	if m.progress.Path != "" {
		progressLine = wrapTextWithIndent(progressLine+": ", displayName(m.target, m.progress.Path), width-4)
	}
	lines = append(lines, m.st.progress.Render(progressLine))
	lines = append(lines, m.renderBar(m.progress.Processed, m.progress.Total, width-10))
	lines = append(lines, "")
	lines = append(lines, m.st.footer.Render("🔚 'q' abort"))

	return strings.Join(lines, "\n")
}

// renderBar draws a fixed-width completion bar with a percentage
func (m progressModel) renderBar(processed, total, width int) string {
	if width > 60 {
		width = 60
	}
	if width < 10 {
		width = 10
	}
	filled := 0
	percent := 0.0
	if total > 0 {
		percent = float64(processed) / float64(total)
		if percent > 1 {
			percent = 1
		}
		filled = int(percent * float64(width))
	}
	return m.st.barFull.Render(strings.Repeat("█", filled)) +
		m.st.barEmpty.Render(strings.Repeat("░", width-filled)) +
		m.st.info.Render(fmt.Sprintf(" %3.0f%%", percent*100))
}

// displayName shortens a walked path to be relative to the target directory
func displayName(target, path string) string {
	rel := strings.TrimPrefix(search.GetAbsolutePath(path), target)
	rel = strings.TrimLeft(rel, `/\`)
	if rel == "" {
		return path
	}
	return rel
}

func wrapTextWithIndent(prefix, text string, width int) string {
	prefixWidth := lipgloss.Width(prefix)
	if width-prefixWidth < 10 {
		return prefix + text
	}
	indent := strings.Repeat(" ", prefixWidth)
	wrapped := lipgloss.NewStyle().Width(width - prefixWidth).Render(text)
	return prefix + strings.ReplaceAll(wrapped, "\n", "\n"+indent)
}

func (m progressModel) memUsageTick() tea.Cmd {
	sampler := m.sampler
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		heap, rss, cpu := sampler.sample()
		return memUsageMsg{Text: fmt.Sprintf(" • Heap %5.1f MB • Peak RSS %5.1f MB • CPU %5.1f%%",
			float64(heap)/(1024*1024), float64(rss)/(1024*1024), cpu)}
	})
}

// cpuSampler derives CPU load from successive rusage readings
type cpuSampler struct {
	lastWall time.Time
	lastProc time.Duration
	have     bool
}

func (s *cpuSampler) sample() (heap, rss uint64, cpu float64) {
	var rusage unix.Rusage
	_ = unix.Getrusage(unix.RUSAGE_SELF, &rusage)
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	heap = ms.HeapAlloc
	rss = uint64(rusage.Maxrss) * 1024 // KB to bytes

	// Process user+sys time
	nowWall := time.Now()
	user := time.Duration(rusage.Utime.Sec)*time.Second + time.Duration(rusage.Utime.Usec)*time.Microsecond
	sys := time.Duration(rusage.Stime.Sec)*time.Second + time.Duration(rusage.Stime.Usec)*time.Microsecond
	nowProc := user + sys
	if s.have {
		wallDiff := nowWall.Sub(s.lastWall)
		procDiff := nowProc - s.lastProc
		if wallDiff > 0 {
			cpu = procDiff.Seconds() / wallDiff.Seconds() * 100
			if cpu < 0 {
				cpu = 0
			}
		}
	}
	s.lastWall = nowWall
	s.lastProc = nowProc
	s.have = true
	return heap, rss, cpu
}

// runWithProgress runs the engine in the background behind the progress view.
// It reports aborted when the user quit before the search finished.
func runWithProgress(engine *search.SearchEngine, cfg config.SearchConfiguration, in io.Reader, out io.Writer) (rs *search.ResultSet, aborted bool, err error) {
	m := newProgressModel(cfg, newStyles(out))
	p := tea.NewProgram(m, tea.WithInput(in), tea.WithOutput(out))

	engine.OnProgress = func(pr search.Progress) {
		p.Send(progressMsg(pr))
	}
	go func() {
		rs, err := engine.Run(cfg)
		p.Send(searchDoneMsg{rs: rs, err: err})
	}()

	final, err := p.Run()
	if err != nil {
		return nil, false, fmt.Errorf("progress view failed: %w", err)
	}
	fm := final.(progressModel)
	if fm.aborted && !fm.done {
		return nil, true, nil
	}
	return fm.rs, false, fm.err
}
