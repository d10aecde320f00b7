package out_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pomodorooutadapter "pomo/internal/modules/pomodoro/adapter/out"
	"pomo/internal/modules/pomodoro/domain"
	"pomo/internal/platform/clock"
	"pomo/internal/platform/markdown"
)

func archiveItem() domain.HistoryItem {
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	return domain.HistoryItem{
		ID:             "row-1",
		Mode:           domain.ModeFocus,
		Start:          start,
		End:            start.Add(25 * time.Minute),
		Duration:       1500,
		ActualDuration: 1490,
		IsValid:        false,
		InvalidReason:  domain.InvalidReasonLostFocus,
	}
}

func TestMarkdownArchiveWritesSessionNote(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	archive := pomodorooutadapter.NewMarkdownHistoryArchive(dir, clock.SystemClock{})

	path, err := archive.Archive(context.Background(), archiveItem(), "Write the report!")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "2026", "03", "02", "090000-write-the-report.md"), path)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	note, err := markdown.Parse(string(raw))
	require.NoError(t, err)
	assert.Equal(t, "row-1", note.Meta["id"])
	assert.Equal(t, false, note.Meta["is_valid"])
	assert.Equal(t, "lost_focus", note.Meta["invalid_reason"])
	assert.Contains(t, note.Body, "# Write the report!")
	assert.Contains(t, note.Body, "- Focused: 24:50")
}

func TestMarkdownExportKeepsSurroundingText(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "pomodoros.md")
	original := "---\ntags: [focus]\n---\n\n# My log\n\nNotes above.\n"
	require.NoError(t, os.WriteFile(path, []byte(original), 0o644))

	clk := clock.Fixed(time.Date(2026, 3, 3, 8, 0, 0, 0, time.UTC))
	exporter := pomodorooutadapter.NewMarkdownHistoryArchive(t.TempDir(), clk)
	history := []domain.HistoryItem{archiveItem()}

	require.NoError(t, exporter.Export(context.Background(), path, history, 20))
	require.NoError(t, exporter.Export(context.Background(), path, history, 25))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	note, err := markdown.Parse(string(raw))
	require.NoError(t, err)
	assert.Equal(t, []any{"focus"}, note.Meta["tags"])
	assert.Equal(t, 25, note.Meta["coins"])
	assert.Equal(t, 1, note.Meta["sessions"])
	assert.Contains(t, note.Body, "Notes above.")
	assert.Equal(t, 1, strings.Count(note.Body, "<!-- pomo:history:start -->"))

	table, ok := markdown.Block{Name: "history"}.Contents(note.Body)
	require.True(t, ok)
	assert.Contains(t, table, "| no (lost_focus) |")
}
