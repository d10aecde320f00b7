package out

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"pomo/internal/modules/pomodoro/domain"
	pomodoroout "pomo/internal/modules/pomodoro/port/out"
	"pomo/internal/platform/clock"
	"pomo/internal/platform/markdown"
	"pomo/internal/platform/slug"
)

var historyBlock = markdown.Block{Name: "history"}

// MarkdownHistoryArchive writes finished sessions as markdown notes and keeps
// an exported history table inside a managed block of a user-owned note.
type MarkdownHistoryArchive struct {
	dir   string
	clock clock.Clock
}

func NewMarkdownHistoryArchive(dir string, clk clock.Clock) *MarkdownHistoryArchive {
	return &MarkdownHistoryArchive{dir: dir, clock: clk}
}

var (
	_ pomodoroout.HistoryArchive  = (*MarkdownHistoryArchive)(nil)
	_ pomodoroout.HistoryExporter = (*MarkdownHistoryArchive)(nil)
)

func (a *MarkdownHistoryArchive) Archive(_ context.Context, item domain.HistoryItem, title string) (string, error) {
	date := item.Start
	dir := filepath.Join(a.dir, date.Format("2006"), date.Format("01"), date.Format("02"))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create archive dir: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("%s-%s.md", date.Format("150405"), slug.Make(title, string(item.Mode))))

	meta := map[string]any{
		"schema_version":  domain.SchemaVersion,
		"id":              item.ID,
		"mode":            string(item.Mode),
		"started_at":      item.Start.Format(time.RFC3339),
		"ended_at":        item.End.Format(time.RFC3339),
		"duration":        item.Duration,
		"actual_duration": item.ActualDuration,
		"is_valid":        item.IsValid,
	}
	if item.InvalidReason != "" {
		meta["invalid_reason"] = item.InvalidReason
	}
	body := fmt.Sprintf("# %s\n\n- Mode: %s\n- Planned: %s\n- Focused: %s\n- Counted: %s\n",
		title, item.Mode.Label(), formatSeconds(item.Duration), formatSeconds(item.ActualDuration), yesNo(item.IsValid))
	rendered, err := markdown.Note{Meta: meta, Body: body}.Render()
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(rendered), 0o644); err != nil {
		return "", fmt.Errorf("write session note: %w", err)
	}
	return path, nil
}

// Export renders history into the managed block of the note at path. Text
// outside the block and unrelated frontmatter keys are preserved.
func (a *MarkdownHistoryArchive) Export(_ context.Context, path string, history []domain.HistoryItem, coins int) error {
	note := markdown.Note{Meta: map[string]any{}, Body: "# Pomodoro history\n\n"}
	existing, err := os.ReadFile(path)
	switch {
	case err == nil:
		note, err = markdown.Parse(string(existing))
		if err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
	case os.IsNotExist(err):
	default:
		return fmt.Errorf("read %s: %w", path, err)
	}

	valid := 0
	focused := 0
	for _, item := range history {
		if item.IsValid {
			valid++
		}
		focused += item.ActualDuration
	}
	note.Meta["updated_at"] = a.clock.Now().Format(time.RFC3339)
	note.Meta["sessions"] = len(history)
	note.Meta["valid_sessions"] = valid
	note.Meta["focused_seconds"] = focused
	note.Meta["coins"] = coins

	note.Body = historyBlock.Replace(note.Body, historyTable(history))
	rendered, err := note.Render()
	if err != nil {
		return err
	}
	return writeAtomic(path, []byte(rendered))
}

func historyTable(history []domain.HistoryItem) string {
	var b strings.Builder
	b.WriteString("| Ended | Mode | Planned | Focused | Valid |\n")
	b.WriteString("|---|---|---|---|---|\n")
	for _, item := range history {
		status := "yes"
		if !item.IsValid {
			status = "no (" + item.InvalidReason + ")"
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n",
			item.End.Local().Format("2006-01-02 15:04"), item.Mode.Label(),
			formatSeconds(item.Duration), formatSeconds(item.ActualDuration), status)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func formatSeconds(seconds int) string {
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
