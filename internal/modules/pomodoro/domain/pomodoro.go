package domain

import (
	"fmt"
	"strings"
	"time"

	apperrors "pomo/internal/platform/errors"
)

const SchemaVersion = 1

const (
	// CompletionReward is credited for every valid completed session.
	CompletionReward = 5
	// MaxResumeAge bounds how long an unfinished session may be resumed.
	MaxResumeAge = 24 * time.Hour
)

type Mode string

const (
	ModeFocus      Mode = "focus"
	ModeShortBreak Mode = "short_break"
	ModeLongBreak  Mode = "long_break"
)

func ParseMode(raw string) (Mode, error) {
	switch Mode(strings.TrimSpace(strings.ToLower(raw))) {
	case "", ModeFocus:
		return ModeFocus, nil
	case ModeShortBreak, "short", "short-break":
		return ModeShortBreak, nil
	case ModeLongBreak, "long", "long-break":
		return ModeLongBreak, nil
	}
	return "", fmt.Errorf("%w: unknown mode %q (focus|short_break|long_break)", apperrors.ErrInvalidInput, raw)
}

func (m Mode) Label() string {
	switch m {
	case ModeShortBreak:
		return "Short break"
	case ModeLongBreak:
		return "Long break"
	default:
		return "Focus"
	}
}

type Status string

const (
	StatusRunning  Status = "running"
	StatusPaused   Status = "paused"
	StatusFinished Status = "finished"
)

// SyncState tracks whether Session.ID is still the locally minted id or has
// been replaced by the id the remote row store assigned.
type SyncState string

const (
	SyncLocal     SyncState = "local"
	SyncConfirmed SyncState = "confirmed"
)

type Session struct {
	ID               string     `json:"id"`
	Title            string     `json:"title"`
	Mode             Mode       `json:"mode"`
	Status           Status     `json:"status"`
	Duration         int        `json:"duration"`
	Remaining        int        `json:"remaining"`
	IsValid          bool       `json:"isValid"`
	LostFocusSeconds int        `json:"lostFocusSeconds"`
	InvalidReason    string     `json:"invalidReason,omitempty"`
	StartedAt        time.Time  `json:"startedAt"`
	EndedAt          *time.Time `json:"endedAt,omitempty"`
	SyncState        SyncState  `json:"syncState,omitempty"`
}

// Elapsed is the number of seconds the timer has actually run.
func (s Session) Elapsed() int {
	return s.Duration - s.Remaining
}

// Final reports whether the next tick completes the session instead of
// decrementing it, so remaining is never observed at 0.
func (s Session) Final() bool {
	return s.Remaining <= 1
}

func (s *Session) TickDown() {
	if s.Remaining > 0 {
		s.Remaining--
	}
}

// Expired is false for a session without a start time; its age is unknown.
func (s Session) Expired(now time.Time) bool {
	if s.StartedAt.IsZero() {
		return false
	}
	return now.Sub(s.StartedAt) > MaxResumeAge
}

func (s Session) Confirmed() bool {
	return s.SyncState == SyncConfirmed
}

// Finish builds the archival record for a session ending at endedAt.
func (s Session) Finish(endedAt time.Time) HistoryItem {
	start := s.StartedAt
	if start.IsZero() {
		start = endedAt
	}
	return HistoryItem{
		ID:             s.ID,
		Mode:           s.Mode,
		Start:          start,
		End:            endedAt,
		Duration:       s.Duration,
		ActualDuration: s.Elapsed(),
		IsValid:        s.IsValid,
		InvalidReason:  s.InvalidReason,
	}
}

type HistoryItem struct {
	ID             string    `json:"id"`
	Mode           Mode      `json:"mode"`
	Start          time.Time `json:"start"`
	End            time.Time `json:"end"`
	Duration       int       `json:"duration"`
	ActualDuration int       `json:"actualDuration"`
	IsValid        bool      `json:"isValid"`
	InvalidReason  string    `json:"invalidReason,omitempty"`
}

type Economy struct {
	Coins int `json:"coins"`
}

// Snapshot is the persisted store state.
type Snapshot struct {
	Pomodoro      *Session      `json:"pomodoro"`
	Economy       Economy       `json:"economy"`
	History       []HistoryItem `json:"history"`
	SchemaVersion int           `json:"schemaVersion"`
}

func NewSnapshot() Snapshot {
	return Snapshot{History: []HistoryItem{}, SchemaVersion: SchemaVersion}
}

// Clone copies the snapshot so callers cannot alias the store's session or
// history backing array.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{Economy: s.Economy, SchemaVersion: s.SchemaVersion}
	if s.Pomodoro != nil {
		p := *s.Pomodoro
		if p.EndedAt != nil {
			ended := *p.EndedAt
			p.EndedAt = &ended
		}
		out.Pomodoro = &p
	}
	out.History = make([]HistoryItem, len(s.History))
	copy(out.History, s.History)
	return out
}

// Normalized fills defaults and re-establishes the session invariants on a
// snapshot read from storage.
func (s Snapshot) Normalized() Snapshot {
	out := s.Clone()
	if out.SchemaVersion < 1 {
		out.SchemaVersion = SchemaVersion
	}
	if len(out.History) > HistoryLimit {
		out.History = out.History[:HistoryLimit]
	}
	if p := out.Pomodoro; p != nil {
		if p.Duration < 0 {
			p.Duration = 0
		}
		if p.Remaining > p.Duration {
			p.Remaining = p.Duration
		}
		if p.Remaining < 0 {
			p.Remaining = 0
		}
		if p.LostFocusSeconds < 0 {
			p.LostFocusSeconds = 0
		}
		if p.Mode == "" {
			p.Mode = ModeFocus
		}
		if p.Status == "" {
			p.Status = StatusPaused
		}
		if p.ID == "" || p.SyncState == "" {
			p.SyncState = SyncLocal
		}
		p.IsValid = IsValid(p.LostFocusSeconds)
		p.InvalidReason = InvalidReason(p.LostFocusSeconds)
	}
	return out
}
