package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"pomo/internal/modules/pomodoro/domain"
	"pomo/internal/modules/pomodoro/dto"
	pomodoroout "pomo/internal/modules/pomodoro/port/out"
)

// SyncService mirrors session changes to the remote row store from a single
// background worker. Operations are applied strictly in dispatch order, and
// updates issued before a create was acknowledged are replayed against the
// id the remote assigned. Failures are logged and never retried.
type SyncService struct {
	remote  pomodoroout.RemoteSessionStore
	timeout time.Duration
	logger  zerolog.Logger

	mu        sync.Mutex
	queue     chan domain.SyncOp
	closed    bool
	confirmed map[string]string
	onConfirm func(localID, remoteID string)
	done      chan struct{}

	applied atomic.Int64
	failed  atomic.Int64
	dropped atomic.Int64
}

func NewSyncService(remote pomodoroout.RemoteSessionStore, capacity int, timeout time.Duration, logger zerolog.Logger) *SyncService {
	if capacity < 1 {
		capacity = 1
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &SyncService{
		remote:    remote,
		timeout:   timeout,
		logger:    logger.With().Str("component", "sync").Logger(),
		queue:     make(chan domain.SyncOp, capacity),
		confirmed: map[string]string{},
		done:      make(chan struct{}),
	}
}

// OnConfirmed registers the callback run after a create is acknowledged.
func (s *SyncService) OnConfirmed(fn func(localID, remoteID string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onConfirm = fn
}

func (s *SyncService) Dispatch(op domain.SyncOp) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		s.dropped.Add(1)
		s.logger.Warn().Str("op", string(op.Kind)).Str("session_id", op.SessionID).Msg("sync closed, dropping op")
		return false
	}
	select {
	case s.queue <- op:
		return true
	default:
		s.dropped.Add(1)
		s.logger.Warn().Str("op", string(op.Kind)).Str("session_id", op.SessionID).Msg("sync queue full, dropping op")
		return false
	}
}

// Run consumes the queue until Close has been called and the queue is empty,
// or ctx ends. It must be called at most once.
func (s *SyncService) Run(ctx context.Context) error {
	defer close(s.done)
	for {
		select {
		case <-ctx.Done():
			return nil
		case op, ok := <-s.queue:
			if !ok {
				return nil
			}
			s.apply(ctx, op)
		}
	}
}

// Close stops accepting operations and waits for pending ones until ctx ends.
func (s *SyncService) Close(ctx context.Context) error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.queue)
	}
	s.mu.Unlock()
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *SyncService) Stats() dto.SyncStats {
	return dto.SyncStats{
		Pending: len(s.queue),
		Applied: s.applied.Load(),
		Failed:  s.failed.Load(),
		Dropped: s.dropped.Load(),
	}
}

func (s *SyncService) apply(ctx context.Context, op domain.SyncOp) {
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	logger := s.logger.With().Str("op", string(op.Kind)).Str("reason", op.Reason).Str("session_id", op.SessionID).Logger()

	switch op.Kind {
	case domain.SyncCreate:
		record, err := s.remote.Create(callCtx, op.Record)
		if err != nil {
			s.failed.Add(1)
			logger.Warn().Err(err).Msg("remote create failed")
			return
		}
		if record.ID == "" {
			s.failed.Add(1)
			logger.Warn().Msg("remote create returned no id")
			return
		}
		s.mu.Lock()
		s.confirmed[op.SessionID] = record.ID
		onConfirm := s.onConfirm
		s.mu.Unlock()
		s.applied.Add(1)
		logger.Debug().Str("remote_id", record.ID).Msg("session confirmed")
		if onConfirm != nil {
			onConfirm(op.SessionID, record.ID)
		}

	case domain.SyncUpdate:
		target := op.SessionID
		if !op.Confirmed {
			s.mu.Lock()
			remoteID, ok := s.confirmed[op.SessionID]
			s.mu.Unlock()
			if !ok {
				s.dropped.Add(1)
				logger.Debug().Msg("no confirmed remote row, dropping update")
				return
			}
			target = remoteID
		}
		if _, err := s.remote.Update(callCtx, target, op.Changes); err != nil {
			s.failed.Add(1)
			logger.Warn().Err(err).Str("remote_id", target).Msg("remote update failed")
			return
		}
		s.applied.Add(1)

	default:
		logger.Error().Msg("unknown sync op")
	}
}
