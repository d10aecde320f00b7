package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"pomo/internal/modules/pomodoro/dto"
	apperrors "pomo/internal/platform/errors"
	"pomo/internal/ui/components"
	"pomo/internal/ui/theme"
	historyview "pomo/internal/ui/views/history"
	timerview "pomo/internal/ui/views/timer"
)

// ─── ports ───────────────────────────────────────────────────────────────────

type pomodoroPort interface {
	State(ctx context.Context) dto.StateOutput
	Start(ctx context.Context, mode, title string) (dto.SessionOutput, error)
	Tick(ctx context.Context) (dto.TickOutput, error)
	Toggle(ctx context.Context) (dto.SessionOutput, error)
	Complete(ctx context.Context) (dto.CompleteOutput, error)
	SyncHistory(ctx context.Context) error
	Reload(ctx context.Context) (dto.StateOutput, error)
}

type focusPort interface {
	Hidden()
	Visible(ctx context.Context) (dto.SessionOutput, bool, error)
}

type syncPort interface {
	Stats() dto.SyncStats
}

// ─── tab index ───────────────────────────────────────────────────────────────

type tabID int

const (
	tabTimer tabID = iota
	tabHistory
	tabCount
)

var tabLabels = [tabCount]string{"Timer", "History"}

// ─── async messages ───────────────────────────────────────────────────────────

// ReloadMsg asks the model to re-read persisted state. The state file watcher
// sends it when another process writes the file.
type ReloadMsg struct{}

type stateMsg struct {
	state  dto.StateOutput
	status string
	err    error
}

type tickMsg struct{}

type tickedMsg struct {
	out dto.TickOutput
	err error
}

type completedMsg struct {
	out dto.CompleteOutput
	err error
}

type focusMsg struct {
	out       dto.SessionOutput
	penalized bool
	err       error
}

type historySyncedMsg struct{ err error }

// ─── key bindings ─────────────────────────────────────────────────────────────

type keyMap struct {
	Tab        key.Binding
	Help       key.Binding
	Palette    key.Binding
	Quit       key.Binding
	Toggle     key.Binding
	Focus      key.Binding
	ShortBreak key.Binding
	LongBreak  key.Binding
	Complete   key.Binding
	Sync       key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Tab:        key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next tab")),
		Help:       key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Palette:    key.NewBinding(key.WithKeys(":"), key.WithHelp(":", "palette")),
		Quit:       key.NewBinding(key.WithKeys("ctrl+c", "q"), key.WithHelp("q", "quit")),
		Toggle:     key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "pause/resume")),
		Focus:      key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "start focus")),
		ShortBreak: key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "short break")),
		LongBreak:  key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "long break")),
		Complete:   key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "complete now")),
		Sync:       key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "sync history")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Tab, k.Help, k.Palette, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Focus, k.ShortBreak, k.LongBreak},
		{k.Toggle, k.Complete, k.Sync},
		{k.Tab, k.Help, k.Palette, k.Quit},
	}
}

// ─── model ───────────────────────────────────────────────────────────────────

// Model is the root Bubble Tea model. It drives the one second tick while a
// session runs and turns terminal focus changes into lost focus penalties.
type Model struct {
	pomodoro pomodoroPort
	focus    focusPort
	sync     syncPort

	timerView   timerview.Model
	historyView historyview.Model

	state     dto.StateOutput
	ticking   bool
	activeTab tabID
	keys      keyMap
	help      help.Model
	showHelp  bool
	palette   components.Palette
	status    string
	width     int
	height    int
}

// ─── constructor ─────────────────────────────────────────────────────────────

// NewModel builds the root model. focus and sync may be nil.
func NewModel(pomodoro pomodoroPort, focus focusPort, sync syncPort) Model {
	return Model{
		pomodoro:    pomodoro,
		focus:       focus,
		sync:        sync,
		timerView:   timerview.New(),
		historyView: historyview.New(),
		activeTab:   tabTimer,
		keys:        defaultKeys(),
		help:        help.New(),
		palette:     components.NewPalette(),
		status:      "ready",
	}
}

func (m Model) Init() tea.Cmd {
	return m.loadStateCmd(false)
}

// ─── update ───────────────────────────────────────────────────────────────────

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	// Focus changes and ticks must be handled even while the palette is open.
	switch msg := msg.(type) {
	case tea.BlurMsg:
		if m.focus != nil {
			m.focus.Hidden()
		}
		return m, nil
	case tea.FocusMsg:
		return m, m.focusVisibleCmd()
	case tickMsg:
		return m, m.tickCmd()
	case tickedMsg:
		return m.handleTicked(msg)
	}

	// The palette owns the keyboard while open. Async results still land.
	if m.palette.Visible() {
		var cmd tea.Cmd
		m.palette, cmd = m.palette.Update(msg)
		if _, ok := msg.(tea.KeyMsg); ok {
			return m, cmd
		}
		cmds = append(cmds, cmd)
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.palette.SetWidth(min(m.width-4, 80))
		m.help.Width = m.width
		m.propagateSize()
		return m, nil

	case ReloadMsg:
		return m, m.loadStateCmd(true)

	case stateMsg:
		if msg.err != nil {
			m.status = msg.err.Error()
			return m, nil
		}
		if msg.status != "" {
			m.status = msg.status
		}
		return m, m.applyState(msg.state)

	case completedMsg:
		if msg.err != nil {
			m.status = "complete: " + msg.err.Error()
			return m, nil
		}
		m.timerView.SetCompleted(msg.out)
		m.status = completionStatus(msg.out)
		return m, m.loadStateCmd(false)

	case focusMsg:
		if msg.err != nil {
			m.status = "focus: " + msg.err.Error()
			return m, nil
		}
		if msg.penalized && msg.out.Active {
			m.status = fmt.Sprintf("away from the timer, lost focus now %ds", msg.out.LostFocusSeconds)
			return m, m.loadStateCmd(false)
		}
		return m, nil

	case historySyncedMsg:
		cmd := m.historyView.SetSyncing(false)
		switch {
		case msg.err == nil:
			m.status = "history synced"
		case errors.Is(msg.err, apperrors.ErrNotAuthenticated):
			m.status = "sign in with `pomo login` to sync history"
		case errors.Is(msg.err, apperrors.ErrRemoteDisabled):
			m.status = "no remote store configured"
		default:
			m.status = "history sync: " + msg.err.Error()
		}
		return m, tea.Batch(cmd, m.loadStateCmd(false))

	case components.PaletteSubmitMsg:
		return m.executePalette(msg.Input)

	case components.PaletteCancelMsg:
		m.status = "ready"
		return m, nil

	case tea.KeyMsg:
		if m.showHelp {
			if msg.String() == "?" || msg.String() == "esc" {
				m.showHelp = false
			}
			return m, nil
		}

		if m.activeTab == tabHistory && m.historyView.Filtering() {
			break
		}

		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "tab":
			m.activeTab = (m.activeTab + 1) % tabCount
			return m, nil
		case "shift+tab":
			m.activeTab = (m.activeTab + tabCount - 1) % tabCount
			return m, nil
		case "?":
			m.showHelp = !m.showHelp
			return m, nil
		case ":":
			return m, m.palette.Open()
		case " ":
			return m, m.toggleCmd()
		case "s":
			return m, m.startCmd("focus", "")
		case "b":
			return m, m.startCmd("short_break", "")
		case "l":
			return m, m.startCmd("long_break", "")
		case "c":
			return m, m.completeCmd()
		case "r":
			return m, m.syncHistoryCmd()
		}
	}

	var tabCmd tea.Cmd
	switch m.activeTab {
	case tabTimer:
		m.timerView, tabCmd = m.timerView.Update(msg)
	case tabHistory:
		m.historyView, tabCmd = m.historyView.Update(msg)
	}
	cmds = append(cmds, tabCmd)

	return m, tea.Batch(cmds...)
}

func (m Model) handleTicked(msg tickedMsg) (tea.Model, tea.Cmd) {
	m.ticking = false
	if msg.err != nil {
		if !errors.Is(msg.err, apperrors.ErrNoActiveSession) {
			m.status = "tick: " + msg.err.Error()
		}
		return m, m.loadStateCmd(false)
	}
	if msg.out.Completed {
		m.timerView.SetCompleted(msg.out.Completion)
		m.status = completionStatus(msg.out.Completion)
		return m, m.loadStateCmd(false)
	}
	state := m.state
	state.Session = msg.out.Session
	return m, m.applyState(state)
}

// applyState pushes state into the sub-views and keeps the tick chain alive
// while the session runs. Only one tick is ever in flight.
func (m *Model) applyState(state dto.StateOutput) tea.Cmd {
	m.state = state
	m.timerView.SetState(state)
	cmd := m.historyView.SetHistory(state.History)
	if state.Session.Active && state.Session.Status == "running" && !m.ticking {
		m.ticking = true
		cmd = tea.Batch(cmd, tea.Tick(time.Second, func(time.Time) tea.Msg { return tickMsg{} }))
	}
	return cmd
}

// ─── view ────────────────────────────────────────────────────────────────────

func (m Model) View() string {
	tabBar := m.renderTabBar()
	statusBar := m.renderStatusBar()
	contentH := max(m.height-lipgloss.Height(tabBar)-lipgloss.Height(statusBar), 1)

	var content string
	switch {
	case m.showHelp:
		content = lipgloss.NewStyle().Width(m.width).Height(contentH).
			Render(m.help.View(m.keys))
	case m.palette.Visible():
		content = lipgloss.Place(m.width, contentH,
			lipgloss.Center, lipgloss.Center, m.palette.View())
	case m.activeTab == tabHistory:
		content = m.historyView.View()
	default:
		content = m.timerView.View()
	}

	return lipgloss.JoinVertical(lipgloss.Left, tabBar, content, statusBar)
}

func (m Model) renderTabBar() string {
	parts := make([]string, tabCount)
	for i := tabID(0); i < tabCount; i++ {
		label := tabLabels[i]
		if i == m.activeTab {
			parts[i] = theme.Hot.Render(" " + label + " ")
		} else {
			parts[i] = theme.Muted.Render(" " + label + " ")
		}
	}
	sep := theme.Muted.Render(" │ ")
	bar := "pomo  " + strings.Join(parts, sep)
	return lipgloss.NewStyle().Background(theme.Mantle).Width(m.width).Render(bar) + "\n"
}

func (m Model) renderStatusBar() string {
	left := theme.Coin.Render(fmt.Sprintf("● %d", m.state.Coins)) + "  " + m.status
	if m.sync != nil {
		stats := m.sync.Stats()
		if stats.Pending > 0 || stats.Failed > 0 || stats.Dropped > 0 {
			left += theme.Muted.Render(fmt.Sprintf("  sync %d pending %d failed %d dropped", stats.Pending, stats.Failed, stats.Dropped))
		}
	}
	right := theme.Muted.Render("space:pause  ?:help  tab:switch  :::palette  q:quit")
	gap := max(m.width-lipgloss.Width(left)-lipgloss.Width(right), 1)
	bar := left + strings.Repeat(" ", gap) + right
	return "\n" + lipgloss.NewStyle().Background(theme.Mantle).Width(m.width).Render(bar)
}

// ─── palette execution ────────────────────────────────────────────────────────

func (m Model) executePalette(input string) (tea.Model, tea.Cmd) {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return m, nil
	}

	switch parts[0] {
	case "start":
		mode := "focus"
		title := ""
		if len(parts) >= 2 {
			mode = parts[1]
			title = strings.Join(parts[2:], " ")
		}
		return m, m.startCmd(mode, title)

	case "pause":
		if m.state.Session.Status != "running" {
			m.status = "nothing running"
			return m, nil
		}
		return m, m.toggleCmd()

	case "resume":
		if m.state.Session.Status != "paused" {
			m.status = "nothing paused"
			return m, nil
		}
		return m, m.toggleCmd()

	case "complete":
		return m, m.completeCmd()

	case "history:sync":
		m.activeTab = tabHistory
		return m, m.syncHistoryCmd()

	case "reload":
		return m, m.loadStateCmd(true)

	case "tab:timer":
		m.activeTab = tabTimer

	case "tab:history":
		m.activeTab = tabHistory

	default:
		m.status = "unknown command: " + parts[0]
	}
	return m, nil
}

// ─── helpers ─────────────────────────────────────────────────────────────────

func (m *Model) propagateSize() {
	sz := tea.WindowSizeMsg{Width: m.width, Height: m.height - 3}
	m.timerView, _ = m.timerView.Update(sz)
	m.historyView, _ = m.historyView.Update(sz)
}

func completionStatus(out dto.CompleteOutput) string {
	if out.CoinsAwarded > 0 {
		return fmt.Sprintf("session complete, +%d coins", out.CoinsAwarded)
	}
	if out.Item.InvalidReason != "" {
		return "session complete, no coins: " + out.Item.InvalidReason
	}
	return "session complete"
}

// ─── async commands ───────────────────────────────────────────────────────────

func (m Model) loadStateCmd(reload bool) tea.Cmd {
	return func() tea.Msg {
		if reload {
			state, err := m.pomodoro.Reload(context.Background())
			return stateMsg{state: state, status: "state reloaded", err: err}
		}
		return stateMsg{state: m.pomodoro.State(context.Background())}
	}
}

func (m Model) startCmd(mode, title string) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		out, err := m.pomodoro.Start(ctx, mode, title)
		if err != nil {
			return stateMsg{err: fmt.Errorf("start: %w", err)}
		}
		return stateMsg{state: m.pomodoro.State(ctx), status: "started " + out.Title}
	}
}

func (m Model) toggleCmd() tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		out, err := m.pomodoro.Toggle(ctx)
		if err != nil {
			return stateMsg{err: err}
		}
		return stateMsg{state: m.pomodoro.State(ctx), status: out.Status}
	}
}

func (m Model) tickCmd() tea.Cmd {
	return func() tea.Msg {
		out, err := m.pomodoro.Tick(context.Background())
		return tickedMsg{out: out, err: err}
	}
}

func (m Model) completeCmd() tea.Cmd {
	return func() tea.Msg {
		out, err := m.pomodoro.Complete(context.Background())
		return completedMsg{out: out, err: err}
	}
}

func (m *Model) syncHistoryCmd() tea.Cmd {
	spin := m.historyView.SetSyncing(true)
	m.status = "syncing history…"
	pomodoro := m.pomodoro
	return tea.Batch(spin, func() tea.Msg {
		return historySyncedMsg{err: pomodoro.SyncHistory(context.Background())}
	})
}

func (m Model) focusVisibleCmd() tea.Cmd {
	if m.focus == nil {
		return nil
	}
	return func() tea.Msg {
		out, penalized, err := m.focus.Visible(context.Background())
		return focusMsg{out: out, penalized: penalized, err: err}
	}
}
