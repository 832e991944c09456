// Package ui provides the Bubble Tea dashboard for the Atlas explorer client.
package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/evstack/atlas-sub000/business/chainsync/app"
	syncDomain "github.com/evstack/atlas-sub000/business/chainsync/domain"
	"github.com/evstack/atlas-sub000/pkg/ui/components"
)

// SyncView is what the dashboard reads from the sync engine every frame.
type SyncView interface {
	Snapshot() syncDomain.Snapshot
	Stats() syncDomain.Stats
}

// Preferences persists the auto-refresh toggle.
type Preferences interface {
	AutoRefresh() (bool, error)
	SetAutoRefresh(enabled bool) error
}

// Options configures the dashboard.
type Options struct {
	Sync          SyncView
	Prefs         Preferences
	FrameInterval time.Duration
	RecentBlocks  int
}

// StartupStep represents a step in the startup process.
type StartupStep struct {
	Name   string
	Status string // "pending", "connecting", "done", "failed"
}

// Phase represents the current UI phase.
type Phase string

const (
	PhaseWelcome   Phase = "welcome"
	PhaseStartup   Phase = "startup"
	PhaseDashboard Phase = "dashboard"
)

// WelcomeDuration is how long the welcome screen shows before auto-advancing.
const WelcomeDuration = 2 * time.Second

const defaultFrameInterval = 16 * time.Millisecond

var startupOrder = []string{"config", "modules", "stream", "height"}

// ErrorEntry represents an error with timestamp.
type ErrorEntry struct {
	Message   string
	Timestamp time.Time
}

// Model is the main Bubble Tea model for the TUI.
type Model struct {
	sync          SyncView
	prefs         Preferences
	frameInterval time.Duration

	// Components
	blocks *components.BlocksComponent
	status *components.StatusComponent
	stats  *components.StatsComponent
	interp *app.Interpolator

	keys    KeyMap
	help    help.Model
	spinner spinner.Model

	phase        Phase
	welcomeStart time.Time
	startupTime  time.Time
	startupSteps map[string]*StartupStep

	ready       bool
	quitting    bool
	autoRefresh bool
	width       int
	height      int
	now         time.Time
	display     uint64
	visible     bool
	snapshot    syncDomain.Snapshot
	errors      []ErrorEntry // last 3
	logs        []string
}

// New creates a new TUI model.
func New(opts Options) Model {
	now := time.Now()

	interval := opts.FrameInterval
	if interval <= 0 {
		interval = defaultFrameInterval
	}

	autoRefresh := true
	var errs []ErrorEntry
	if opts.Prefs != nil {
		v, err := opts.Prefs.AutoRefresh()
		if err != nil {
			errs = append(errs, ErrorEntry{Message: err.Error(), Timestamp: now})
		} else {
			autoRefresh = v
		}
	}

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = lipgloss.NewStyle().Foreground(ColorWarning)

	return Model{
		sync:          opts.Sync,
		prefs:         opts.Prefs,
		frameInterval: interval,
		blocks:        components.NewBlocksComponent(opts.RecentBlocks),
		status:        components.NewStatusComponent(),
		stats:         components.NewStatsComponent(),
		interp:        app.NewInterpolator(),
		keys:          DefaultKeyMap(),
		help:          help.New(),
		spinner:       sp,
		phase:         PhaseWelcome,
		welcomeStart:  now,
		startupTime:   now,
		startupSteps: map[string]*StartupStep{
			"config":  {Name: "Loading configuration", Status: "pending"},
			"modules": {Name: "Starting modules", Status: "pending"},
			"stream":  {Name: "Connecting to event stream", Status: "pending"},
			"height":  {Name: "Fetching chain height", Status: "pending"},
		},
		autoRefresh: autoRefresh,
		now:         now,
		errors:      errs,
		logs:        make([]string, 0, 5),
	}
}

// Init initializes the TUI model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(frameCmd(m.frameInterval), m.spinner.Tick)
}

func frameCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return FrameMsg{Time: t}
	})
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			m.quitting = true
			return m, tea.Quit
		}
		// any other key skips the welcome screen
		if m.phase == PhaseWelcome {
			m.enterStartup()
			return m, nil
		}
		switch {
		case key.Matches(msg, m.keys.AutoRefresh):
			m.toggleAutoRefresh()
		case key.Matches(msg, m.keys.Clear):
			m.blocks.Clear()
		case key.Matches(msg, m.keys.ClearErrors):
			m.errors = nil
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.ready = true

	case FrameMsg:
		m.now = msg.Time
		if m.phase == PhaseWelcome && msg.Time.Sub(m.welcomeStart) >= WelcomeDuration {
			m.enterStartup()
		}
		m.refresh(msg.Time)
		return m, frameCmd(m.frameInterval)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case BlockMsg:
		if m.autoRefresh {
			m.blocks.Add(emissionRow(msg.Emission))
		}

	case BlocksSeedMsg:
		for _, b := range msg.Blocks {
			m.blocks.Add(components.BlockRow{
				Number:    b.Number,
				Hash:      b.Hash,
				Timestamp: b.Time(),
				TxCount:   b.TransactionCount,
				GasUsed:   b.GasUsed,
				GasLimit:  b.GasLimit,
			})
		}

	case ErrorMsg:
		m.addError(msg.Error.Error())
		m.logs = addLog(m.logs, "error", msg.Error.Error())

	case LogMsg:
		m.logs = addLog(m.logs, msg.Level, msg.Message)

	case StartupMsg:
		if step, ok := m.startupSteps[msg.Step]; ok {
			step.Status = msg.Status
		}
	}

	return m, nil
}

func (m *Model) enterStartup() {
	m.phase = PhaseStartup
	m.startupTime = time.Now()
	m.startupSteps["config"].Status = "done"
	// Send() must not be called from inside Update
	if OnStartModules != nil {
		go OnStartModules()
	}
}

// refresh pulls the current snapshot and advances the height animation.
func (m *Model) refresh(now time.Time) {
	if m.sync == nil {
		return
	}

	snap := m.sync.Snapshot()
	m.snapshot = snap
	m.display, m.visible = m.interp.Frame(now, snap)

	st := m.sync.Stats()
	m.stats.Update(components.Stats{
		Received:   st.Received,
		Emitted:    st.Emitted,
		Skipped:    st.Skipped,
		Reconnects: st.Reconnects,
		PollErrors: st.PollErrors,
		QueueDepth: st.QueueDepth,
	})
	m.status.Update(sourceStatus(snap))

	switch snap.StreamState {
	case syncDomain.StreamConnected:
		m.startupSteps["stream"].Status = "done"
	case syncDomain.StreamConnecting:
		m.startupSteps["stream"].Status = "connecting"
	}
	if snap.HasHeight {
		m.startupSteps["height"].Status = "done"
		if m.phase == PhaseStartup {
			m.phase = PhaseDashboard
		}
	} else if snap.PollError != "" {
		m.startupSteps["height"].Status = "failed"
	}
}

func (m *Model) toggleAutoRefresh() {
	m.autoRefresh = !m.autoRefresh
	if m.prefs == nil {
		return
	}
	if err := m.prefs.SetAutoRefresh(m.autoRefresh); err != nil {
		m.addError("saving preference: " + err.Error())
	}
}

func (m *Model) addError(msg string) {
	m.errors = append(m.errors, ErrorEntry{Message: msg, Timestamp: time.Now()})
	if len(m.errors) > 3 {
		m.errors = m.errors[len(m.errors)-3:]
	}
}

// AutoRefresh reports whether emitted blocks are appended to the table.
func (m Model) AutoRefresh() bool {
	return m.autoRefresh
}

// Phase returns the current screen.
func (m Model) Phase() Phase {
	return m.phase
}

// DisplayHeight is the animated height, ok is false until a height is known.
func (m Model) DisplayHeight() (uint64, bool) {
	return m.display, m.visible
}

// Blocks returns the latest-blocks table rows, newest first.
func (m Model) Blocks() []components.BlockRow {
	return m.blocks.Rows()
}

func sourceStatus(snap syncDomain.Snapshot) components.SourceStatus {
	st := components.SourceStatus{
		Source:     components.SourceOffline,
		Connecting: snap.StreamState == syncDomain.StreamConnecting,
		BlockTime:  snap.Rate.BlockTime(),
		BPS:        snap.Rate.BPS,
		RateValid:  snap.Rate.Valid,
		PollError:  snap.PollError,
	}
	switch {
	case snap.StreamState == syncDomain.StreamConnected:
		st.Source = components.SourceLive
	case snap.HasHeight && snap.PollError == "":
		st.Source = components.SourcePolling
	}
	return st
}

func emissionRow(e syncDomain.Emission) components.BlockRow {
	b := e.Event.Block
	return components.BlockRow{
		Number:    b.Number,
		Hash:      b.Hash,
		Timestamp: time.Unix(b.Timestamp, 0),
		TxCount:   b.TransactionCount,
		GasUsed:   b.GasUsed,
		GasLimit:  b.GasLimit,
		Skipped:   e.Skipped,
	}
}

// addLog adds a log message and returns the updated slice (keeps last 5).
func addLog(logs []string, level, message string) []string {
	timestamp := time.Now().Format("15:04:05")
	logs = append(logs, fmt.Sprintf("[%s] %s: %s", timestamp, level, message))
	if len(logs) > 5 {
		logs = logs[len(logs)-5:]
	}
	return logs
}

// View renders the TUI.
func (m Model) View() string {
	if m.quitting {
		return "\n  Goodbye!\n\n"
	}

	switch m.phase {
	case PhaseWelcome:
		return m.renderWelcomeScreen()
	case PhaseStartup:
		return m.renderStartupScreen()
	}

	var b strings.Builder

	b.WriteString(TitleStyle.Render(" Atlas Explorer "))
	b.WriteString("\n\n")

	b.WriteString(m.renderHeight())
	b.WriteString("\n")
	b.WriteString(m.status.View(m.spinnerView()))
	b.WriteString("\n\n")

	width := m.width - 4
	if width < 40 {
		width = 60
	}
	b.WriteString(BoxStyle.Width(width).Render(m.blocks.View(m.now, !m.autoRefresh)))
	b.WriteString("\n")
	b.WriteString(BoxStyle.Width(width).Render(m.stats.View()))
	b.WriteString("\n\n")

	if pe := m.snapshot.PollError; pe != "" && m.snapshot.StreamState != syncDomain.StreamConnected {
		b.WriteString(lipgloss.NewStyle().Foreground(ColorDanger).Render("Last poll failed: " + pe))
		b.WriteString("\n\n")
	}

	if len(m.errors) > 0 {
		errorStyle := lipgloss.NewStyle().Foreground(ColorDanger)
		errorHeader := lipgloss.NewStyle().Bold(true).Foreground(ColorDanger)

		b.WriteString(errorHeader.Render("ERRORS"))
		b.WriteString(MutedValue.Render(" (e: clear)"))
		b.WriteString("\n")
		for _, err := range m.errors {
			ago := m.now.Sub(err.Timestamp).Round(time.Second)
			b.WriteString(errorStyle.Render(fmt.Sprintf("  • %s ", err.Message)))
			b.WriteString(MutedValue.Render(fmt.Sprintf("(%s ago)", ago)))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if len(m.logs) > 0 {
		b.WriteString(MutedValue.Render(m.logs[len(m.logs)-1]))
		b.WriteString("\n")
	}

	if !m.autoRefresh {
		pauseStyle := lipgloss.NewStyle().Bold(true).Foreground(ColorWarning)
		b.WriteString(pauseStyle.Render("⏸ AUTO-REFRESH OFF"))
		b.WriteString(" • ")
	}
	b.WriteString(HelpStyle.Render(m.help.View(m.keys)))

	return b.String()
}

func (m Model) spinnerView() string {
	if m.snapshot.StreamState != syncDomain.StreamConnecting {
		return ""
	}
	return m.spinner.View()
}

func (m Model) renderHeight() string {
	label := MutedValue.Render("Block height  ")
	if !m.visible {
		return label + MutedValue.Render("-")
	}
	return label + HeightStyle.Render("#"+groupDigits(m.display))
}

// groupDigits renders n with thousands separators.
func groupDigits(n uint64) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	head := len(s) % 3
	if head > 0 {
		b.WriteString(s[:head])
	}
	for i := head; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

// renderWelcomeScreen renders the animated welcome screen.
func (m Model) renderWelcomeScreen() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary)
	mutedStyle := lipgloss.NewStyle().Foreground(ColorMuted)
	greenStyle := lipgloss.NewStyle().Foreground(ColorSecondary)

	dotCount := int(m.now.Sub(m.welcomeStart).Milliseconds()/300) % 4
	dots := strings.Repeat(".", dotCount)

	var sb strings.Builder
	sb.WriteString("\n\n\n\n")

	logo := `
     █████╗ ████████╗██╗      █████╗ ███████╗
    ██╔══██╗╚══██╔══╝██║     ██╔══██╗██╔════╝
    ███████║   ██║   ██║     ███████║███████╗
    ██╔══██║   ██║   ██║     ██╔══██║╚════██║
    ██║  ██║   ██║   ███████╗██║  ██║███████║
    ╚═╝  ╚═╝   ╚═╝   ╚══════╝╚═╝  ╚═╝╚══════╝
`
	sb.WriteString(titleStyle.Render(logo))
	sb.WriteString("\n")
	sb.WriteString(mutedStyle.Render("          B L O C K   E X P L O R E R"))
	sb.WriteString("\n\n\n")
	sb.WriteString(greenStyle.Render(fmt.Sprintf("             Initializing%s", dots)))
	sb.WriteString("\n\n")
	sb.WriteString(mutedStyle.Render("       Press any key to skip, or wait..."))
	sb.WriteString("\n")

	return sb.String()
}

// renderStartupScreen renders the loading/startup screen.
func (m Model) renderStartupScreen() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary).MarginBottom(1)
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(ColorBright)
	mutedStyle := lipgloss.NewStyle().Foreground(ColorMuted)
	successStyle := lipgloss.NewStyle().Foreground(ColorSecondary)
	connectingStyle := lipgloss.NewStyle().Foreground(ColorWarning)
	failedStyle := lipgloss.NewStyle().Foreground(ColorDanger)

	var sb strings.Builder

	sb.WriteString("\n\n")
	sb.WriteString(titleStyle.Render("  Atlas Explorer"))
	sb.WriteString("\n\n")
	sb.WriteString(headerStyle.Render("  Starting up..."))
	sb.WriteString("\n\n")

	for _, k := range startupOrder {
		step := m.startupSteps[k]

		var icon, statusText string
		var style lipgloss.Style

		switch step.Status {
		case "done":
			icon, statusText, style = "✓", "Ready", successStyle
		case "connecting":
			icon, statusText, style = m.spinner.View(), "Connecting...", connectingStyle
		case "failed":
			icon, statusText, style = "✗", "Retrying", failedStyle
		default:
			icon, statusText, style = "○", "Pending", mutedStyle
		}

		sb.WriteString(fmt.Sprintf("  %s %s %s\n",
			style.Render(icon),
			mutedStyle.Render(step.Name),
			style.Render(statusText),
		))
	}

	sb.WriteString("\n")
	elapsed := m.now.Sub(m.startupTime).Round(time.Second)
	if elapsed < 0 {
		elapsed = 0
	}
	sb.WriteString(mutedStyle.Render(fmt.Sprintf("  Elapsed: %s", elapsed)))
	sb.WriteString("\n\n")
	sb.WriteString(mutedStyle.Render("  Waiting for the first block height..."))
	sb.WriteString("\n")

	return sb.String()
}

// Program holds the Bubble Tea program instance for external access.
var Program *tea.Program

// OnStartModules is called when the welcome screen completes and modules should start.
// main sets it to know when to begin loading modules.
var OnStartModules func()

// Send sends a message to the running program.
func Send(msg tea.Msg) {
	if Program != nil {
		Program.Send(msg)
	}
	if _, ok := msg.(StartModulesMsg); ok && OnStartModules != nil {
		OnStartModules()
	}
}
