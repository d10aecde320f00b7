package timer

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"pomo/internal/modules/pomodoro/dto"
	"pomo/internal/ui/theme"
)

type Model struct {
	progress progress.Model
	state    dto.StateOutput
	last     *dto.CompleteOutput
	width    int
	height   int
}

func New() Model {
	return Model{progress: progress.New(progress.WithGradient(string(theme.Peach), string(theme.Yellow)), progress.WithoutPercentage())}
}

func (m *Model) SetState(state dto.StateOutput) {
	m.state = state
	if state.Session.Active {
		m.last = nil
	}
}

// SetCompleted keeps the result of the last finished session on screen until
// the next one starts.
func (m *Model) SetCompleted(out dto.CompleteOutput) {
	m.last = &out
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.WindowSizeMsg); ok {
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = max(min(m.width-12, 60), 10)
	}
	return m, nil
}

func (m Model) View() string {
	s := m.state.Session
	var body string
	if !s.Active {
		body = m.idleView()
	} else {
		body = m.sessionView(s)
	}
	footer := theme.Coin.Render(fmt.Sprintf("● %d coins", m.state.Coins))
	if m.state.UserID != "" {
		footer += theme.Muted.Render("   signed in as " + m.state.UserID)
	}
	pane := theme.Pane.Width(max(min(m.width-4, 72), 20)).Render(body + "\n\n" + footer)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, pane)
}

func (m Model) sessionView(s dto.SessionOutput) string {
	accent := lipgloss.NewStyle().Foreground(theme.ModeColor(s.Mode)).Bold(true)
	var sb strings.Builder
	sb.WriteString(accent.Render(strings.ToUpper(modeTitle(s.Mode))))
	sb.WriteString(theme.Muted.Render("  " + s.Title))
	if s.Status == "paused" {
		sb.WriteString(theme.Hot.Render("  ⏸ paused"))
	}
	sb.WriteString("\n")
	sb.WriteString(theme.Clock.Render(clock(s.Remaining)) + "\n")

	elapsed := 0.0
	if s.Duration > 0 {
		elapsed = float64(s.Duration-s.Remaining) / float64(s.Duration)
	}
	sb.WriteString(m.progress.ViewAs(elapsed) + "\n\n")

	if s.IsValid {
		sb.WriteString(theme.Good.Render(fmt.Sprintf("✓ valid  lost focus %ds", s.LostFocusSeconds)))
	} else {
		sb.WriteString(theme.Bad.Render(fmt.Sprintf("✗ %s  lost focus %ds", s.InvalidReason, s.LostFocusSeconds)))
	}
	if s.Synced {
		sb.WriteString(theme.Muted.Render("  ⇅ synced"))
	}
	return sb.String()
}

func (m Model) idleView() string {
	var sb strings.Builder
	sb.WriteString(theme.Title.Render("No session running") + "\n\n")
	if m.last != nil {
		item := m.last.Item
		if item.IsValid {
			sb.WriteString(theme.Good.Render(fmt.Sprintf("Finished %s (%s). +%d coins", modeTitle(item.Mode), clock(item.ActualDuration), m.last.CoinsAwarded)))
		} else {
			sb.WriteString(theme.Bad.Render(fmt.Sprintf("Finished %s (%s) without reward: %s", modeTitle(item.Mode), clock(item.ActualDuration), item.InvalidReason)))
		}
		sb.WriteString("\n\n")
	}
	sb.WriteString(theme.Muted.Render("s focus   b short break   l long break"))
	return sb.String()
}

func modeTitle(mode string) string {
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
