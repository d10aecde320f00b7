package domain_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"pomo/internal/modules/pomodoro/domain"
	apperrors "pomo/internal/platform/errors"
)

func TestValidityThreshold(t *testing.T) {
	t.Parallel()
	cases := []struct {
		lost   int
		valid  bool
		reason string
	}{
		{0, true, ""},
		{15, true, ""},
		{16, false, domain.InvalidReasonLostFocus},
		{120, false, domain.InvalidReasonLostFocus},
	}
	for _, tc := range cases {
		if got := domain.IsValid(tc.lost); got != tc.valid {
			t.Fatalf("IsValid(%d) = %t, want %t", tc.lost, got, tc.valid)
		}
		if got := domain.InvalidReason(tc.lost); got != tc.reason {
			t.Fatalf("InvalidReason(%d) = %q, want %q", tc.lost, got, tc.reason)
		}
	}
}

func TestPenalizeKeepsValidityInvariant(t *testing.T) {
	t.Parallel()
	s := domain.Session{IsValid: true}
	for _, step := range []int{3, 5, 7, 0, 1, 9} {
		s.Penalize(step)
		if s.IsValid != (s.LostFocusSeconds <= domain.LostFocusThreshold) {
			t.Fatalf("validity drifted at lost=%d", s.LostFocusSeconds)
		}
		if (s.InvalidReason != "") == s.IsValid {
			t.Fatalf("invalid reason %q inconsistent with valid=%t", s.InvalidReason, s.IsValid)
		}
	}
	if s.LostFocusSeconds != 25 || s.IsValid {
		t.Fatalf("expected 25 lost seconds and invalid, got %+v", s)
	}
}

func TestPrependHistoryDropsOldest(t *testing.T) {
	t.Parallel()
	var history []domain.HistoryItem
	for i := 0; i < domain.HistoryLimit+5; i++ {
		history = domain.PrependHistory(history, domain.HistoryItem{ID: fmt.Sprintf("h-%d", i)})
	}
	if len(history) != domain.HistoryLimit {
		t.Fatalf("expected %d entries, got %d", domain.HistoryLimit, len(history))
	}
	if history[0].ID != fmt.Sprintf("h-%d", domain.HistoryLimit+4) {
		t.Fatalf("newest entry must be first, got %s", history[0].ID)
	}
	if last := history[len(history)-1].ID; last != "h-5" {
		t.Fatalf("expected h-0..h-4 evicted, last entry %s", last)
	}
}

func TestMergeHistoryPrefersRemoteAndSorts(t *testing.T) {
	t.Parallel()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	local := []domain.HistoryItem{
		{ID: "a", End: base.Add(3 * time.Hour), ActualDuration: 1},
		{ID: "b", End: base.Add(1 * time.Hour)},
	}
	remote := []domain.HistoryItem{
		{ID: "a", End: base.Add(3 * time.Hour), ActualDuration: 99},
		{ID: "c", End: base.Add(2 * time.Hour)},
	}
	merged := domain.MergeHistory(local, remote)
	if len(merged) != 3 {
		t.Fatalf("expected 3 merged entries, got %d", len(merged))
	}
	if merged[0].ID != "a" || merged[0].ActualDuration != 99 {
		t.Fatalf("expected remote copy of a first, got %+v", merged[0])
	}
	if merged[1].ID != "c" || merged[2].ID != "b" {
		t.Fatalf("expected newest-first order a,c,b got %s,%s,%s", merged[0].ID, merged[1].ID, merged[2].ID)
	}
}

func TestFinishComputesActualDuration(t *testing.T) {
	t.Parallel()
	started := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	s := domain.Session{ID: "s1", Mode: domain.ModeFocus, Duration: 300, Remaining: 120, IsValid: true, StartedAt: started}
	item := s.Finish(started.Add(3 * time.Minute))
	if item.ActualDuration != 180 || item.Duration != 300 || item.ID != "s1" {
		t.Fatalf("unexpected history item %+v", item)
	}
}

func TestParseMode(t *testing.T) {
	t.Parallel()
	for raw, want := range map[string]domain.Mode{"": domain.ModeFocus, "Focus": domain.ModeFocus, "short": domain.ModeShortBreak, "long_break": domain.ModeLongBreak} {
		got, err := domain.ParseMode(raw)
		if err != nil || got != want {
			t.Fatalf("ParseMode(%q) = %q, %v", raw, got, err)
		}
	}
	if _, err := domain.ParseMode("nap"); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestExpiredAfterADay(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	if !(domain.Session{StartedAt: now.Add(-25 * time.Hour)}).Expired(now) {
		t.Fatalf("25h old session should be expired")
	}
	if (domain.Session{StartedAt: now.Add(-23 * time.Hour)}).Expired(now) {
		t.Fatalf("23h old session should not be expired")
	}
	if (domain.Session{}).Expired(now) {
		t.Fatalf("session without start time should not be expired")
	}
}
