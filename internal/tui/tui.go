// Package tui provides a Bubble Tea terminal user interface for ygo-card-downloader.
package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/handiism/ygo-card-downloader/internal/config"
	"github.com/handiism/ygo-card-downloader/internal/download"
	"github.com/handiism/ygo-card-downloader/internal/model"
)

// pollInterval is how often the running task is polled for events.
const pollInterval = 100 * time.Millisecond

// maxLogLines is the number of recent log lines kept on screen.
const maxLogLines = 10

// Styles for the TUI
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B")).
			MarginBottom(1)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4ECDC4"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#95E1A3"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFE66D"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A8DADC"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C757D"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#4ECDC4")).
			Padding(1, 2)

	focusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F8B500"))
)

// State represents the current UI state.
type State int

const (
	StateInput State = iota
	StateDownloading
	StateComplete
	StateError
)

// field identifies the focused form element.
type field int

const (
	fieldOptions field = iota
	fieldOutputDir
	fieldWidth
	fieldHeight
	fieldCount
)

// LogEntry represents a log message in the UI.
type LogEntry struct {
	Message string
	Level   download.ProgressLevel
}

// Starter starts download tasks. *download.Manager implements it.
type Starter interface {
	Start(ctx context.Context, cfg model.DownloadConfig) (*download.Task, error)
}

// Model is the Bubble Tea model for the TUI.
type Model struct {
	state    State
	focus    field
	outDir   textinput.Model
	width    textinput.Model
	height   textinput.Model
	spinner  spinner.Model
	progress progress.Model
	logs     []LogEntry
	formErr  error
	err      error
	result   model.RunResult

	// Options
	variant model.Variant
	naming  model.NamingScheme
	resize  bool
	verbose bool

	// Download context, cancelled only on a confirmed quit
	ctx    context.Context
	cancel context.CancelFunc

	starter Starter
	task    *download.Task
	log     *slog.Logger

	current         int
	total           int
	cancelRequested bool
	confirmQuit     bool

	termWidth int
}

// NewModel creates a new TUI model with the form prefilled from settings.
func NewModel(settings *config.Settings, starter Starter, log *slog.Logger) Model {
	outDir := textinput.New()
	outDir.Placeholder = "~/Pictures/YGO Cards"
	outDir.CharLimit = 500
	outDir.Width = 60
	outDir.SetValue(settings.OutputDir)

	width := newNumberInput(settings.ResizeWidth)
	height := newNumberInput(settings.ResizeHeight)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 50

	variant, err := model.ParseVariant(settings.Variant)
	if err != nil {
		variant = model.VariantNormal
	}
	naming, err := model.ParseNamingScheme(settings.Naming)
	if err != nil {
		naming = model.NamingByName
	}

	ctx, cancel := context.WithCancel(context.Background())

	return Model{
		state:    StateInput,
		focus:    fieldOptions,
		outDir:   outDir,
		width:    width,
		height:   height,
		spinner:  sp,
		progress: prog,
		logs:     make([]LogEntry, 0),
		variant:  variant,
		naming:   naming,
		resize:   settings.ResizeImages,
		ctx:      ctx,
		cancel:   cancel,
		starter:  starter,
		log:      log.With(slog.String("component", "tui")),
	}
}

func newNumberInput(value int) textinput.Model {
	ti := textinput.New()
	ti.CharLimit = 5
	ti.Width = 6
	ti.SetValue(strconv.Itoa(value))
	return ti
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

// Message types
type (
	// TickMsg is for periodic task polling.
	TickMsg struct{}
)

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.termWidth = msg.Width
		m.progress.Width = msg.Width - 20
		if m.progress.Width > 80 {
			m.progress.Width = 80
		}
		if m.progress.Width < 20 {
			m.progress.Width = 20
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case TickMsg:
		if m.task != nil && m.state == StateDownloading {
			for _, ev := range m.task.Poll() {
				m = m.applyEvent(ev)
			}
			if m.state == StateDownloading {
				cmds = append(cmds, m.tickPoll())
			}
		}
	}

	return m, tea.Batch(cmds...)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if m.confirmQuit {
		switch key {
		case "y", "Y":
			m.task.Cancel()
			m.cancel()
			return m, tea.Quit
		case "n", "N", "esc":
			m.confirmQuit = false
		}
		return m, nil
	}

	switch m.state {
	case StateInput:
		return m.handleFormKey(msg)

	case StateDownloading:
		switch key {
		case "esc":
			if !m.cancelRequested {
				m.task.Cancel()
				m.cancelRequested = true
				m = m.addLog(LogEntry{Message: "Cancellation requested, finishing current card...", Level: download.LevelWarning})
				m.log.Info("Cancellation requested", slog.String("run_id", m.task.ID()))
			}
		case "ctrl+c", "q":
			m.confirmQuit = true
		case "v":
			m.verbose = !m.verbose
		}

	case StateComplete, StateError:
		switch key {
		case "q", "ctrl+c", "esc":
			m.cancel()
			return m, tea.Quit
		case "r":
			m = m.reset()
		}
	}

	return m, nil
}

func (m Model) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.cancel()
		return m, tea.Quit
	case "esc":
		if m.focus == fieldOptions {
			m.cancel()
			return m, tea.Quit
		}
		m = m.setFocus(fieldOptions)
		return m, nil
	case "tab", "down":
		return m.setFocus(m.nextField(1)), nil
	case "shift+tab", "up":
		return m.setFocus(m.nextField(-1)), nil
	case "enter":
		return m.startDownload()
	}

	if m.focus == fieldOptions {
		switch msg.String() {
		case "s":
			m.variant = m.variant.Next()
		case "n":
			if m.naming == model.NamingByName {
				m.naming = model.NamingByID
			} else {
				m.naming = model.NamingByName
			}
		case "r":
			m.resize = !m.resize
		case "v":
			m.verbose = !m.verbose
		case "q":
			m.cancel()
			return m, tea.Quit
		}
		return m, nil
	}

	var cmd tea.Cmd
	switch m.focus {
	case fieldOutputDir:
		m.outDir, cmd = m.outDir.Update(msg)
	case fieldWidth:
		m.width, cmd = m.width.Update(msg)
	case fieldHeight:
		m.height, cmd = m.height.Update(msg)
	}
	return m, cmd
}

// nextField moves focus by step, skipping the size inputs while resizing is off.
func (m Model) nextField(step int) field {
	f := m.focus
	for {
		f = (f + field(step) + fieldCount) % fieldCount
		if m.resize || (f != fieldWidth && f != fieldHeight) {
			return f
		}
	}
}

func (m Model) setFocus(f field) Model {
	m.focus = f
	m.outDir.Blur()
	m.width.Blur()
	m.height.Blur()
	switch f {
	case fieldOutputDir:
		m.outDir.Focus()
	case fieldWidth:
		m.width.Focus()
	case fieldHeight:
		m.height.Focus()
	}
	return m
}

// buildConfig assembles the run configuration from the form.
func (m Model) buildConfig() (model.DownloadConfig, error) {
	cfg := model.DownloadConfig{
		Variant:   m.variant,
		Naming:    m.naming,
		OutputDir: config.ExpandPath(strings.TrimSpace(m.outDir.Value())),
	}

	if m.resize {
		w, err := strconv.Atoi(strings.TrimSpace(m.width.Value()))
		if err != nil {
			return cfg, model.NewConfigError("width must be a number")
		}
		h, err := strconv.Atoi(strings.TrimSpace(m.height.Value()))
		if err != nil {
			return cfg, model.NewConfigError("height must be a number")
		}
		cfg.Resize = &model.Size{Width: w, Height: h}
	}

	return cfg, cfg.Validate()
}

// startDownload validates the form and starts a task. Configuration errors
// keep the form open.
func (m Model) startDownload() (tea.Model, tea.Cmd) {
	cfg, err := m.buildConfig()
	if err == nil {
		m.task, err = m.starter.Start(m.ctx, cfg)
	}
	if err != nil {
		m.formErr = err
		m.log.Warn("Invalid configuration", slog.Any("error", err))
		return m, nil
	}

	m.formErr = nil
	m.state = StateDownloading
	m = m.setFocus(fieldOptions)
	m.log.Info("Download started",
		slog.String("run_id", m.task.ID()),
		slog.String("variant", string(cfg.Variant)),
		slog.String("output_dir", cfg.OutputDir))

	return m, tea.Batch(m.tickPoll(), m.spinner.Tick)
}

// applyEvent folds one task event into the model.
func (m Model) applyEvent(ev download.Event) Model {
	switch ev.Kind {
	case download.EventStarted:
		m.total = ev.Total
	case download.EventProgress:
		m.current = ev.Current
		m.total = ev.Total
	case download.EventLog:
		if ev.Log.Level == download.LevelVerbose && !m.verbose {
			return m
		}
		m = m.addLog(LogEntry{Message: ev.Log.Message, Level: ev.Log.Level})
	case download.EventDone:
		m.result = ev.Result
		m.current = ev.Result.Examined
		m.state = StateComplete
		m.log.Info(ev.Result.Summary(), slog.String("run_id", ev.Result.RunID))
	case download.EventFailed:
		m.err = ev.Err
		m.state = StateError
		m.log.Error("Download failed", slog.Any("error", ev.Err))
	}
	return m
}

func (m Model) addLog(entry LogEntry) Model {
	m.logs = append(m.logs, entry)
	if len(m.logs) > maxLogLines {
		m.logs = m.logs[len(m.logs)-maxLogLines:]
	}
	return m
}

func (m Model) reset() Model {
	m.state = StateInput
	m.logs = nil
	m.err = nil
	m.formErr = nil
	m.result = model.RunResult{}
	m.task = nil
	m.current = 0
	m.total = 0
	m.cancelRequested = false
	return m.setFocus(fieldOptions)
}

// tickPoll returns a command to poll the running task.
func (m Model) tickPoll() tea.Cmd {
	return tea.Tick(pollInterval, func(_ time.Time) tea.Msg {
		return TickMsg{}
	})
}

// View renders the UI.
func (m Model) View() string {
	var b strings.Builder

	// Header
	b.WriteString(titleStyle.Render("🃏 Yu-Gi-Oh! Card Image Downloader"))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Download card artwork from YGOPRODeck"))
	b.WriteString("\n\n")

	switch m.state {
	case StateInput:
		b.WriteString(m.viewInput())
	case StateDownloading:
		b.WriteString(m.viewDownloading())
	case StateComplete:
		b.WriteString(m.viewComplete())
	case StateError:
		b.WriteString(m.viewError())
	}

	// Footer
	b.WriteString("\n")
	if m.confirmQuit {
		b.WriteString(warningStyle.Render("Download in progress. Quit anyway? (y/n)"))
	} else {
		b.WriteString(dimStyle.Render(m.getHelpText()))
	}

	return b.String()
}

func checkbox(on bool) string {
	if on {
		return "[x]"
	}
	return "[ ]"
}

func (m Model) label(f field, text string) string {
	if m.focus == f {
		return focusStyle.Render("> " + text)
	}
	return subtitleStyle.Render("  " + text)
}

func (m Model) viewInput() string {
	var b strings.Builder

	b.WriteString(m.label(fieldOutputDir, "Output directory:"))
	b.WriteString("\n  ")
	b.WriteString(m.outDir.View())
	b.WriteString("\n\n")

	b.WriteString(m.label(fieldOptions, "Options:"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("    Image size: %s (s)\n", infoStyle.Render(string(m.variant))))
	b.WriteString(fmt.Sprintf("    Naming:     %s (n)\n", infoStyle.Render(string(m.naming))))
	b.WriteString(fmt.Sprintf("    %s Resize images (r)\n", checkbox(m.resize)))
	b.WriteString(fmt.Sprintf("    %s Verbose output (v)\n", checkbox(m.verbose)))

	if m.resize {
		b.WriteString("\n")
		b.WriteString(m.label(fieldWidth, "Width: "))
		b.WriteString(m.width.View())
		b.WriteString("\n")
		b.WriteString(m.label(fieldHeight, "Height:"))
		b.WriteString(m.height.View())
		b.WriteString("\n")
	}

	if m.formErr != nil {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render("✗ " + m.formErr.Error()))
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) viewDownloading() string {
	var b strings.Builder

	if m.total == 0 {
		b.WriteString(m.spinner.View())
		b.WriteString(" ")
		b.WriteString(subtitleStyle.Render("Fetching card catalog..."))
		b.WriteString("\n\n")
	} else {
		var percent float64
		if m.total > 0 {
			percent = float64(m.current) / float64(m.total)
		}
		b.WriteString(m.progress.ViewAs(percent))
		b.WriteString("\n")
		b.WriteString(infoStyle.Render(fmt.Sprintf("Cards: %d/%d", m.current, m.total)))
		b.WriteString("\n\n")
	}

	if m.cancelRequested {
		b.WriteString(warningStyle.Render("Cancelling..."))
		b.WriteString("\n\n")
	}

	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) viewComplete() string {
	var b strings.Builder

	heading := "✨ Download Complete!"
	if m.result.Cancelled {
		heading = "Download Cancelled"
	}

	box := boxStyle.Render(fmt.Sprintf(
		"%s\n\n"+
			"Downloaded: %d\n"+
			"Skipped:    %d\n"+
			"Cards:      %d/%d\n"+
			"Location:   %s",
		heading,
		m.result.Downloaded,
		m.result.Skipped,
		m.result.Examined,
		m.result.Total,
		m.result.OutputDir,
	))
	b.WriteString(box)
	b.WriteString("\n")

	return b.String()
}

func (m Model) viewError() string {
	var b strings.Builder

	b.WriteString(errorStyle.Render("❌ Error occurred:"))
	b.WriteString("\n\n")
	if m.err != nil {
		b.WriteString(fmt.Sprintf("  %s", m.err.Error()))
	}
	b.WriteString("\n")

	return b.String()
}

func (m Model) renderLogs() string {
	var b strings.Builder

	for _, log := range m.logs {
		var style lipgloss.Style
		prefix := "•"
		switch log.Level {
		case download.LevelError:
			style = errorStyle
			prefix = "✗"
		case download.LevelWarning:
			style = warningStyle
			prefix = "!"
		case download.LevelSuccess:
			style = successStyle
			prefix = "✓"
		case download.LevelInfo:
			style = infoStyle
			prefix = "›"
		default:
			style = dimStyle
		}
		b.WriteString(style.Render(prefix + " " + log.Message))
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) getHelpText() string {
	switch m.state {
	case StateInput:
		if m.focus == fieldOptions {
			return "enter: start • tab: edit fields • s: size • n: naming • r: resize • v: verbose • q: quit"
		}
		return "enter: start • tab: next field • esc: back to options"
	case StateDownloading:
		return "esc: cancel • v: verbose • q: quit"
	case StateComplete, StateError:
		return "r: new download • q: quit"
	}
	return ""
}

// Run starts the TUI application.
func Run(settings *config.Settings, starter Starter, log *slog.Logger) error {
	p := tea.NewProgram(NewModel(settings, starter, log), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
