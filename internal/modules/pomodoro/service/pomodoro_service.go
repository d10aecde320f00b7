package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"pomo/internal/modules/pomodoro/domain"
	"pomo/internal/platform/clock"
	apperrors "pomo/internal/platform/errors"
	"pomo/internal/platform/id"
)

type PomodoroService struct {
	clock    clock.Clock
	idGen    id.Generator
	defaults map[domain.Mode]time.Duration
}

// NewPomodoroService builds sessions with per-mode default lengths. Modes
// missing from defaults fall back to 25 minutes.
func NewPomodoroService(clock clock.Clock, idGen id.Generator, defaults map[domain.Mode]time.Duration) *PomodoroService {
	return &PomodoroService{clock: clock, idGen: idGen, defaults: defaults}
}

func (s *PomodoroService) Now() time.Time {
	return s.clock.Now()
}

// NewSessionID mints a local session id.
func (s *PomodoroService) NewSessionID() string {
	return s.idGen.New()
}

func (s *PomodoroService) DefaultDuration(mode domain.Mode) time.Duration {
	if d, ok := s.defaults[mode]; ok && d > 0 {
		return d
	}
	return 25 * time.Minute
}

func (s *PomodoroService) Start(_ context.Context, rawMode string, duration time.Duration, title string) (domain.Session, error) {
	mode, err := domain.ParseMode(rawMode)
	if err != nil {
		return domain.Session{}, err
	}
	if duration < 0 {
		return domain.Session{}, fmt.Errorf("%w: duration must not be negative", apperrors.ErrInvalidInput)
	}
	if duration == 0 {
		duration = s.DefaultDuration(mode)
	}
	seconds := int(duration / time.Second)
	if seconds < 1 {
		return domain.Session{}, fmt.Errorf("%w: duration must be at least one second", apperrors.ErrInvalidInput)
	}
	if strings.TrimSpace(title) == "" {
		title = mode.Label()
	}
	return domain.Session{
		ID:        s.NewSessionID(),
		Title:     strings.TrimSpace(title),
		Mode:      mode,
		Status:    domain.StatusRunning,
		Duration:  seconds,
		Remaining: seconds,
		IsValid:   true,
		StartedAt: s.clock.Now(),
		SyncState: domain.SyncLocal,
	}, nil
}

// Complete stamps the end time and returns the finished session together with
// its history entry.
func (s *PomodoroService) Complete(_ context.Context, session domain.Session) (domain.Session, domain.HistoryItem) {
	endedAt := s.clock.Now()
	item := session.Finish(endedAt)
	session.Status = domain.StatusFinished
	session.EndedAt = &endedAt
	return session, item
}
