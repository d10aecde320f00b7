package history

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"pomo/internal/modules/pomodoro/dto"
	"pomo/internal/ui/theme"
)

// ─── list item ───────────────────────────────────────────────────────────────

type historyItem struct {
	item dto.HistoryItemOutput
}

func (i historyItem) Title() string {
	return fmt.Sprintf("%s  %s", i.item.End.Local().Format("Jan 02 15:04"), modeLabel(i.item.Mode))
}

func (i historyItem) Description() string {
	if !i.item.IsValid {
		return fmt.Sprintf("%s of %s  invalid: %s", clock(i.item.ActualDuration), clock(i.item.Duration), i.item.InvalidReason)
	}
	return fmt.Sprintf("%s of %s", clock(i.item.ActualDuration), clock(i.item.Duration))
}

func (i historyItem) FilterValue() string { return i.item.Mode + " " + i.item.ID }

// ─── model ───────────────────────────────────────────────────────────────────

type Model struct {
	list    list.Model
	detail  viewport.Model
	spinner spinner.Model
	syncing bool
	width   int
	height  int
}

func New() Model {
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.Foreground(theme.Lavender).BorderForeground(theme.Lavender)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.Foreground(theme.Sapphire).BorderForeground(theme.Lavender)

	l := list.New(nil, delegate, 0, 0)
	l.Title = "History"
	l.Styles.Title = theme.Title
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.SetShowHelp(false)

	vp := viewport.New(0, 0)
	vp.Style = lipgloss.NewStyle().
		Background(theme.Mantle).
		Foreground(theme.Text).
		Padding(1)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Lavender)

	return Model{list: l, detail: vp, spinner: sp}
}

// SetHistory replaces the listed entries, keeping the selection index when
// it is still in range.
func (m *Model) SetHistory(items []dto.HistoryItemOutput) tea.Cmd {
	listItems := make([]list.Item, len(items))
	for i, item := range items {
		listItems[i] = historyItem{item: item}
	}
	cmd := m.list.SetItems(listItems)
	m.refreshDetail()
	return cmd
}

// SetSyncing shows a spinner in the title while remote history loads.
func (m *Model) SetSyncing(syncing bool) tea.Cmd {
	m.syncing = syncing
	if syncing {
		return m.spinner.Tick
	}
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()

	case spinner.TickMsg:
		if !m.syncing {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	prevIdx := m.list.Index()
	var lCmd tea.Cmd
	m.list, lCmd = m.list.Update(msg)
	cmds = append(cmds, lCmd)
	if m.list.Index() != prevIdx {
		m.refreshDetail()
	}

	var vCmd tea.Cmd
	m.detail, vCmd = m.detail.Update(msg)
	cmds = append(cmds, vCmd)

	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	title := "History"
	if m.syncing {
		title = m.spinner.View() + " History (syncing)"
	}
	m.list.Title = title

	listW := m.width * 5 / 10
	detailW := m.width - listW

	listPane := lipgloss.NewStyle().
		Width(listW).
		Height(m.height).
		Render(m.list.View())

	detailPane := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(theme.Surface1).
		Background(theme.Mantle).
		Width(max(detailW-2, 0)).
		Height(max(m.height-2, 0)).
		Render(m.detail.View())

	return lipgloss.JoinHorizontal(lipgloss.Top, listPane, detailPane)
}

// Filtering reports whether the list's search filter is currently active.
func (m Model) Filtering() bool {
	return m.list.FilterState() == list.Filtering
}

func (m *Model) resize() {
	listW := m.width * 5 / 10
	m.list.SetSize(listW, m.height)
	m.detail.Width = max(m.width-listW-4, 0)
	m.detail.Height = max(m.height-4, 0)
	m.refreshDetail()
}

func (m *Model) refreshDetail() {
	item, ok := m.list.SelectedItem().(historyItem)
	if !ok {
		m.detail.SetContent(theme.Muted.Render("No finished sessions yet."))
		return
	}
	h := item.item
	var sb strings.Builder
	sb.WriteString(theme.Title.Render(modeLabel(h.Mode)) + "\n\n")
	fmt.Fprintf(&sb, "Started   %s\n", h.Start.Local().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&sb, "Ended     %s\n", h.End.Local().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&sb, "Planned   %s\n", clock(h.Duration))
	fmt.Fprintf(&sb, "Focused   %s\n\n", clock(h.ActualDuration))
	if h.IsValid {
		sb.WriteString(theme.Good.Render("✓ counted") + "\n")
	} else {
		sb.WriteString(theme.Bad.Render("✗ not counted: "+h.InvalidReason) + "\n")
	}
	sb.WriteString("\n" + theme.Muted.Render(h.ID))
	m.detail.SetContent(sb.String())
}

func modeLabel(mode string) string {
	switch mode {
	case "short_break":
		return "Short break"
	case "long_break":
		return "Long break"
	default:
		return "Focus"
	}
}

func clock(seconds int) string {
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
