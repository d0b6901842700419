package app

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/sys/unix"

	"pdfphrase/report"
	"pdfphrase/search"
)

// Styles (shared with the CLI summary and help output)
var (
	appStyle = lipgloss.NewStyle().
			Padding(1, 2).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#7aa2f7"))

	logoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7aa2f7")).
			Align(lipgloss.Left)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7aa2f7"))

	subHeaderStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7dcfff")).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#a9b1d6"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#9ece6a")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#e0af68")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#f7768e")).
			Bold(true)

	highlightStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#1a1b26")).
			Background(lipgloss.Color("#e0af68")).
			Bold(true)
)

// progressMsg updates the top progress line while loading.
// Format in View: "{spinner} {bar}  {Stage} [num/total]: label"
type progressMsg struct {
	Stage string
	Count int
	Total int
	Label string
}

// progressState holds the newest progress report. Dispatcher callbacks run
// on worker goroutines; the model polls it on a tick.
type progressState struct {
	mu     sync.Mutex
	latest progressMsg
	have   bool
}

func (p *progressState) set(stage string, processed, total int, label string) {
	p.mu.Lock()
	p.latest = progressMsg{Stage: stage, Count: processed, Total: total, Label: label}
	p.have = true
	p.mu.Unlock()
}

func (p *progressState) get() (progressMsg, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.latest, p.have
}

type model struct {
	// Results and paging
	out           outcome
	err           error
	currentPage   int
	totalPages    int
	contentScroll int

	// Session and timing
	started  time.Time
	quitting bool
	loading  bool

	// Window size
	width  int
	height int

	// The work being browsed
	session  *session
	job      job
	ctx      context.Context
	cancel   context.CancelFunc
	progress *progressState
	cpu      *cpuSampler
	workers  int

	// Loading line
	spinner spinner.Model
	bar     progress.Model
	percent float64

	// UI state
	confirmSelected string // "yes" or "no"
	memUsageText    string // e.g., " • RSS: XXX MB • CPU: YY%"
	progressText    string
}

func newModel(ctx context.Context, s *session, j job) model {
	ctx, cancel := context.WithCancel(ctx)
	state := &progressState{}
	s.progress = state.set

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#7dcfff"))

	return model{
		started:         time.Now(),
		loading:         true,
		session:         s,
		job:             j,
		ctx:             ctx,
		cancel:          cancel,
		progress:        state,
		cpu:             &cpuSampler{},
		workers:         s.cfg.EffectiveWorkers(),
		spinner:         sp,
		bar:             progress.New(progress.WithSolidFill("#7aa2f7"), progress.WithWidth(30), progress.WithoutPercentage()),
		confirmSelected: "yes",
	}
}

// browse runs j behind the loading screen and lets the user page through
// the matches. Quitting while loading cancels the search.
func browse(ctx context.Context, s *session, j job) (outcome, error) {
	m := newModel(ctx, s, j)
	defer m.cancel()

	final, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if err != nil {
		return outcome{}, err
	}
	fm := final.(model)
	if fm.loading {
		return outcome{}, context.Canceled
	}
	return fm.out, fm.err
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, pollProgress(), m.runSearch(), m.memUsageTick())
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		// While loading, only allow quit
		if m.loading {
			switch msg.String() {
			case "q", "ctrl+c":
				m.quitting = true
				m.cancel()
				return m, tea.Quit
			}
			return m, nil
		}

		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "left", "h":
			m.confirmSelected = "yes"
			return m, nil
		case "right", "l":
			m.confirmSelected = "no"
			return m, nil

		case "enter":
			if m.confirmSelected == "no" {
				m.quitting = true
				return m, tea.Quit
			}
			return m.advance()

		case "y", " ":
			return m.advance()
		case "n":
			if m.currentPage < m.totalPages-1 {
				m.currentPage++
			}
			m.contentScroll = 0
			return m, nil
		case "p":
			if m.currentPage > 0 {
				m.currentPage--
			}
			m.contentScroll = 0
			return m, nil

		case "home":
			m.currentPage = 0
			m.contentScroll = 0
			return m, nil
		case "end":
			m.currentPage = m.totalPages - 1
			m.contentScroll = 0
			return m, nil
		case "up", "k":
			m.contentScroll = max(m.contentScroll-1, 0)
			return m, nil
		case "down", "j":
			m.contentScroll++
			return m, nil
		case "pgup":
			m.contentScroll = max(m.contentScroll-5, 0)
			return m, nil
		case "pgdown":
			m.contentScroll += 5
			return m, nil
		}
		return m, nil

	case searchDoneMsg:
		m.out = msg.out
		m.err = msg.err
		m.loading = false
		m.confirmSelected = "yes"
		if msg.err != nil {
			m.quitting = true
			return m, tea.Quit
		}
		m.totalPages = max(len(m.out.Result.Matches), 1)
		return m, nil

	case memUsageMsg:
		m.memUsageText = msg.Text
		return m, m.memUsageTick()

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case progressTick:
		if lp, ok := m.progress.get(); ok {
			m.progressText = fmt.Sprintf("%s [%d/%d]: %s", capitalize(lp.Stage), lp.Count, lp.Total, lp.Label)
			if lp.Total > 0 {
				m.percent = float64(lp.Count) / float64(lp.Total)
			}
		}
		if !m.loading {
			return m, nil
		}
		return m, pollProgress()
	}
	return m, nil
}

// advance moves to the next match, quitting after the last.
func (m model) advance() (tea.Model, tea.Cmd) {
	if m.currentPage < m.totalPages-1 {
		m.currentPage++
		m.contentScroll = 0
		return m, nil
	}
	m.quitting = true
	return m, tea.Quit
}

func (m model) View() string {
	width := m.width
	height := m.height
	if width <= 0 {
		width = 120
	}
	if height <= 0 {
		height = 30
	}

	if m.quitting {
		return ""
	}

	var headerLines []string
	headerLines = append(headerLines, "", banner(), "")

	title := m.out.Title
	if m.loading {
		title = "Searching"
	}
	if phrase := m.out.Phrase; phrase != "" {
		title += fmt.Sprintf(": \"%s\"", phrase)
	}
	headerLines = append(headerLines, subHeaderStyle.Render("🔍 "+title))

	if !m.loading {
		headerLines = append(headerLines, successStyle.Render(fmt.Sprintf("📋 Matched: %s occurrences in %d records",
			report.FormatCount(m.out.Result.Occurrences()), len(m.out.Result.Matches))))
		if m.out.Notice != "" {
			headerLines = append(headerLines, warningStyle.Render("⚠ "+m.out.Notice))
		}
	}

	engine := fmt.Sprintf("⚙️ Engine: Workers %d%s", m.workers, m.memUsageText)
	engineStyled := lipgloss.NewStyle().Foreground(lipgloss.Color("#bb9af7"))
	headerLines = append(headerLines, engineStyled.Render(engine))

	elapsed := time.Since(m.started)
	if !m.loading {
		elapsed = m.out.Elapsed
	}
	status := fmt.Sprintf("⏱️ Searched: %.2f seconds • Words analysed: %s", elapsed.Seconds(), report.FormatCount(m.out.Result.TotalWords))
	headerLines = append(headerLines, lipgloss.NewStyle().Foreground(lipgloss.Color("#e0af68")).Render(status))

	searchInfo := strings.Join(headerLines, "\n")
	headerHeight := strings.Count(searchInfo, "\n") + 1
	// Reserve the progress, bottom status and footer rows so the box never moves.
	const progressHeight, bottomStatusHeight, footerHeight = 1, 1, 1

	parts := []string{searchInfo}
	if m.loading {
		txt := "Processing"
		if m.progressText != "" {
			txt = m.bar.ViewAs(m.percent) + "  " + m.progressText
		}
		parts = append(parts, m.spinner.View()+" "+lipgloss.NewStyle().Foreground(lipgloss.Color("#7dcfff")).Render(txt))
	} else {
		parts = append(parts, "")
	}

	boxOuterWidth := width - 4
	innerWidth := max(boxOuterWidth-6, 10)

	var boxContent string
	switch {
	case m.loading:
		boxContent = "Searching..."
	case len(m.out.Result.Matches) == 0:
		boxContent = "No matches found."
	default:
		boxContent = m.renderMatch(innerWidth)
	}

	const chromeHeight = 4
	contentHeight := max(height-headerHeight-progressHeight-bottomStatusHeight-footerHeight-chromeHeight, 1)

	// Window the box content according to contentScroll
	lines := strings.Split(boxContent, "\n")
	maxStart := max(len(lines)-contentHeight, 0)
	start := min(m.contentScroll, maxStart)
	end := min(start+contentHeight, len(lines))
	window := strings.Join(lines[start:end], "\n")
	parts = append(parts, appStyle.Width(boxOuterWidth).Height(contentHeight).Render(window))

	if !m.loading && len(m.out.Result.Matches) > 0 {
		parts = append(parts, m.renderButtons())
	} else {
		parts = append(parts, "")
	}

	quitInstruction := lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		Render("🔚 'ENTER' continue • 'q' quit • p: previous • n: next • ↑/↓ scroll")
	parts = append(parts, quitInstruction)

	return strings.Join(parts, "\n")
}

// renderMatch lays out the current match with its highlighted context.
func (m model) renderMatch(width int) string {
	match := m.out.Result.Matches[m.currentPage]
	rec := match.Base()

	var b strings.Builder
	if name, path := search.Source(match); name != "" {
		b.WriteString(wrapTextWithIndent(subHeaderStyle.Render("Document: "), name+" ("+filepath.Dir(path)+")", width) + "\n")
	}
	pages := rec.PageRange
	if pages == "" {
		pages = "N/A"
	}
	b.WriteString(subHeaderStyle.Render("Page(s): ") + pages + "\n\n")

	if original := search.Original(match); original != "" {
		b.WriteString(wrapTextWithIndent(subHeaderStyle.Render("Found phrase: "), highlightStyle.Render(original), width) + "\n\n")
	}

	var text strings.Builder
	for _, seg := range report.Segments(rec.Paragraph, search.Spans(match, m.out.Phrase)) {
		if seg.Highlight {
			text.WriteString(highlightStyle.Render(seg.Text))
		} else {
			text.WriteString(seg.Text)
		}
	}
	b.WriteString(wrapTextWithIndent(subHeaderStyle.Render("Context: "), text.String(), width) + "\n\n")

	b.WriteString(fmt.Sprintf("Match %d of %d", m.currentPage+1, len(m.out.Result.Matches)))
	return b.String()
}

func (m model) renderButtons() string {
	yesSel := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#1a1b26")).
		Background(lipgloss.Color("#9ece6a")).
		Padding(0, 1)
	yesUn := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#9ece6a")).
		Padding(0, 1)
	noSel := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#c0caf5")).
		Background(lipgloss.Color("#414868")).
		Padding(0, 1)
	noUn := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#565f89")).
		Padding(0, 1)

	yesBtn, noBtn := yesSel.Render("[ Yes ]"), noUn.Render("[ No ]")
	if m.confirmSelected == "no" {
		yesBtn, noBtn = yesUn.Render("[ Yes ]"), noSel.Render("[ No ]")
	}
	return infoStyle.Render("Continue? ") + yesBtn + "    " + noBtn
}

// runSearch runs the job in the background and reports back once.
func (m model) runSearch() tea.Cmd {
	ctx, s, j := m.ctx, m.session, m.job
	return func() tea.Msg {
		o, err := j(ctx, s)
		return searchDoneMsg{out: o, err: err}
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func wrapTextWithIndent(prefix, text string, width int) string {
	prefixWidth := lipgloss.Width(prefix)
	indent := strings.Repeat(" ", prefixWidth)
	wrapped := lipgloss.NewStyle().Width(max(width-prefixWidth, 1)).Render(text)
	return prefix + strings.ReplaceAll(wrapped, "\n", "\n"+indent)
}

func (m model) memUsageTick() tea.Cmd {
	cpu := m.cpu
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		heap, rss, load := cpu.sample()
		return memUsageMsg{Text: fmt.Sprintf(" • Heap %5.1f MB • RSS %5.1f MB • CPU %5.1f%%",
			float64(heap)/(1024*1024), float64(rss)/(1024*1024), load)}
	})
}

func pollProgress() tea.Cmd {
	return tea.Tick(time.Millisecond*100, func(time.Time) tea.Msg {
		return progressTick{}
	})
}

// cpuSampler turns successive rusage readings into a CPU percentage.
type cpuSampler struct {
	lastWall time.Time
	lastProc time.Duration
	have     bool
}

func (c *cpuSampler) sample() (heap, rss uint64, cpu float64) {
	var rusage unix.Rusage
	_ = unix.Getrusage(unix.RUSAGE_SELF, &rusage)
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	heap = ms.HeapAlloc
	rss = uint64(rusage.Maxrss * 1024) // KB to bytes

	nowWall := time.Now()
	user := time.Duration(rusage.Utime.Sec)*time.Second + time.Duration(rusage.Utime.Usec)*time.Microsecond
	sys := time.Duration(rusage.Stime.Sec)*time.Second + time.Duration(rusage.Stime.Usec)*time.Microsecond
	nowProc := user + sys
	if c.have {
		if wallDiff := nowWall.Sub(c.lastWall); wallDiff > 0 {
			cpu = max((nowProc-c.lastProc).Seconds()/wallDiff.Seconds()*100, 0)
		}
	}
	c.lastWall, c.lastProc, c.have = nowWall, nowProc, true
	return heap, rss, cpu
}

// Messages for TUI updates
type searchDoneMsg struct {
	out outcome
	err error
}

type memUsageMsg struct {
	Text string
}

type progressTick struct{}
