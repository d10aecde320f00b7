package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"pomo/internal/modules/pomodoro/domain"
	"pomo/internal/modules/pomodoro/dto"
	pomodoroin "pomo/internal/modules/pomodoro/port/in"
	pomodoroout "pomo/internal/modules/pomodoro/port/out"
	"pomo/internal/modules/pomodoro/service"
	apperrors "pomo/internal/platform/errors"
)

// Options carries the optional collaborators of the Interactor.
type Options struct {
	// MergeLocalHistory keeps local-only history entries when remote history
	// is loaded instead of replacing them with the remote view.
	MergeLocalHistory bool
	Identity          pomodoroout.IdentityStore
	Archive           pomodoroout.HistoryArchive
	Exporter          pomodoroout.HistoryExporter
	Logger            zerolog.Logger
}

// Interactor is the session store: it owns the active session, history and
// coin balance, persists every transition locally and mirrors changes to the
// remote row store through the sync dispatcher. Remote and sync may be nil
// when no remote is configured.
type Interactor struct {
	svc       *service.PomodoroService
	snapshots pomodoroout.SnapshotStore
	remote    pomodoroout.RemoteSessionStore
	sync      pomodoroout.SyncDispatcher
	opts      Options
	logger    zerolog.Logger

	mu     sync.Mutex
	state  domain.Snapshot
	userID string
}

func NewInteractor(svc *service.PomodoroService, snapshots pomodoroout.SnapshotStore, remote pomodoroout.RemoteSessionStore, dispatcher pomodoroout.SyncDispatcher, opts Options) pomodoroin.Usecase {
	i := &Interactor{
		svc:       svc,
		snapshots: snapshots,
		remote:    remote,
		sync:      dispatcher,
		opts:      opts,
		logger:    opts.Logger.With().Str("component", "store").Logger(),
		state:     domain.NewSnapshot(),
	}
	if dispatcher != nil {
		dispatcher.OnConfirmed(i.confirmRemoteID)
	}
	return i
}

func (i *Interactor) Start(ctx context.Context, input dto.StartInput) (dto.SessionOutput, error) {
	session, err := i.svc.Start(ctx, input.Mode, input.Duration, input.Title)
	if err != nil {
		return dto.SessionOutput{}, err
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	if prev := i.state.Pomodoro; prev != nil {
		i.logger.Info().Str("session_id", prev.ID).Str("status", string(prev.Status)).Msg("replacing active session")
	}
	i.state.Pomodoro = &session
	i.save(ctx)
	if i.syncEnabled() {
		i.sync.Dispatch(domain.SyncOp{
			Kind:      domain.SyncCreate,
			Reason:    "start",
			SessionID: session.ID,
			Record:    domain.RecordFromSession(session, i.userID),
		})
	}
	return sessionOutput(&session), nil
}

func (i *Interactor) Tick(ctx context.Context) (dto.TickOutput, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	p := i.state.Pomodoro
	if p == nil {
		return dto.TickOutput{}, apperrors.ErrNoActiveSession
	}
	if p.Status != domain.StatusRunning {
		return dto.TickOutput{Session: sessionOutput(p)}, nil
	}
	if p.Final() {
		// The last second is spent by this tick; remaining hits 0 only inside
		// the completed session.
		p.TickDown()
		completion, err := i.completeLocked(ctx)
		if err != nil {
			return dto.TickOutput{}, err
		}
		return dto.TickOutput{Completed: true, Completion: completion}, nil
	}
	p.TickDown()
	i.save(ctx)
	return dto.TickOutput{Session: sessionOutput(p)}, nil
}

func (i *Interactor) Pause(ctx context.Context) (dto.SessionOutput, error) {
	return i.setStatus(ctx, domain.StatusPaused, "pause")
}

func (i *Interactor) Resume(ctx context.Context) (dto.SessionOutput, error) {
	return i.setStatus(ctx, domain.StatusRunning, "resume")
}

func (i *Interactor) setStatus(ctx context.Context, status domain.Status, reason string) (dto.SessionOutput, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	p := i.state.Pomodoro
	if p == nil {
		return dto.SessionOutput{}, apperrors.ErrNoActiveSession
	}
	p.Status = status
	i.save(ctx)
	i.dispatchUpdate(reason, *p)
	return sessionOutput(p), nil
}

func (i *Interactor) Complete(ctx context.Context) (dto.CompleteOutput, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.completeLocked(ctx)
}

func (i *Interactor) completeLocked(ctx context.Context) (dto.CompleteOutput, error) {
	p := i.state.Pomodoro
	if p == nil {
		return dto.CompleteOutput{}, apperrors.ErrNoActiveSession
	}
	finished, item := i.svc.Complete(ctx, *p)
	i.state.History = domain.PrependHistory(i.state.History, item)
	i.state.Pomodoro = nil
	awarded := 0
	if item.IsValid {
		awarded = domain.CompletionReward
		i.state.Economy.Coins += awarded
	}
	i.save(ctx)
	i.dispatchUpdate("complete", finished)

	if i.opts.Archive != nil {
		if path, err := i.opts.Archive.Archive(ctx, item, finished.Title); err != nil {
			i.logger.Warn().Err(err).Str("session_id", item.ID).Msg("archive session note")
		} else {
			i.logger.Debug().Str("path", path).Msg("session note written")
		}
	}
	i.logger.Info().
		Str("session_id", item.ID).
		Int("actual", item.ActualDuration).
		Bool("valid", item.IsValid).
		Int("coins_awarded", awarded).
		Msg("session completed")

	return dto.CompleteOutput{
		Item:         historyOutput(item),
		CoinsAwarded: awarded,
		Coins:        i.state.Economy.Coins,
	}, nil
}

func (i *Interactor) PenalizeLostFocus(ctx context.Context, seconds int) (dto.SessionOutput, error) {
	if seconds < 0 {
		return dto.SessionOutput{}, fmt.Errorf("%w: lost focus seconds must be non-negative", apperrors.ErrInvalidInput)
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	p := i.state.Pomodoro
	if p == nil || p.Status != domain.StatusRunning {
		return sessionOutput(p), nil
	}
	wasValid := p.IsValid
	p.Penalize(seconds)
	i.save(ctx)
	i.dispatchUpdate("penalize", *p)
	if wasValid && !p.IsValid {
		i.logger.Info().Str("session_id", p.ID).Int("lost_focus", p.LostFocusSeconds).Msg("session invalidated")
	}
	return sessionOutput(p), nil
}

func (i *Interactor) AddCoins(ctx context.Context, amount int) (dto.EconomyOutput, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.state.Economy.Coins += amount
	i.save(ctx)
	return dto.EconomyOutput{Coins: i.state.Economy.Coins}, nil
}

// LoadFromStorage reads under the lock so a reload can never resurrect state
// older than a transition that finished concurrently.
func (i *Interactor) LoadFromStorage(ctx context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	snapshot, found, err := i.snapshots.Load(ctx)
	if err != nil {
		i.logger.Warn().Err(err).Msg("load state, keeping in-memory state")
		return nil
	}
	if !found {
		return nil
	}
	i.state = snapshot.Normalized()
	if p := i.state.Pomodoro; p != nil && p.ID == "" {
		p.ID = i.svc.NewSessionID()
		i.logger.Info().Str("session_id", p.ID).Msg("assigned id to stored session")
		i.save(ctx)
	}
	return nil
}

func (i *Interactor) LoadHistory(ctx context.Context) error {
	i.mu.Lock()
	userID := i.userID
	i.mu.Unlock()
	if userID == "" {
		return apperrors.ErrNotAuthenticated
	}
	if i.remote == nil {
		return apperrors.ErrRemoteDisabled
	}

	records, err := i.remote.List(ctx, userID)
	if err != nil {
		return fmt.Errorf("list remote sessions: %w", err)
	}
	items := make([]domain.HistoryItem, 0, len(records))
	for _, record := range records {
		if !record.Completed() {
			continue
		}
		items = append(items, domain.HistoryItemFromRecord(record))
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	if i.userID != userID {
		i.logger.Info().Msg("user changed while loading history, discarding result")
		return nil
	}
	if i.opts.MergeLocalHistory {
		i.state.History = domain.MergeHistory(i.state.History, items)
	} else {
		i.state.History = domain.ReplaceHistory(items)
	}
	i.save(ctx)
	i.logger.Info().Int("remote", len(items)).Int("history", len(i.state.History)).Bool("merge", i.opts.MergeLocalHistory).Msg("history loaded")
	return nil
}

func (i *Interactor) ClearExpiredSession(ctx context.Context) (bool, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	p := i.state.Pomodoro
	if p == nil || !p.Expired(i.svc.Now()) {
		return false, nil
	}
	i.logger.Info().Str("session_id", p.ID).Time("started_at", p.StartedAt).Msg("discarding expired session")
	i.state.Pomodoro = nil
	i.save(ctx)
	return true, nil
}

func (i *Interactor) SetUserID(ctx context.Context, userID string) error {
	userID = strings.TrimSpace(userID)
	i.mu.Lock()
	i.userID = userID
	i.mu.Unlock()

	if i.opts.Identity != nil {
		if err := i.opts.Identity.SaveUserID(ctx, userID); err != nil {
			return fmt.Errorf("persist identity: %w", err)
		}
	}
	if userID == "" {
		return nil
	}
	if err := i.LoadHistory(ctx); err != nil {
		i.logger.Warn().Err(err).Msg("load remote history after login")
	}
	return nil
}

func (i *Interactor) RestoreIdentity(ctx context.Context) error {
	if i.opts.Identity == nil {
		return nil
	}
	userID, err := i.opts.Identity.LoadUserID(ctx)
	if err != nil {
		return fmt.Errorf("restore identity: %w", err)
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	i.userID = userID
	return nil
}

func (i *Interactor) State(_ context.Context) dto.StateOutput {
	i.mu.Lock()
	defer i.mu.Unlock()
	snapshot := i.state.Clone()
	history := make([]dto.HistoryItemOutput, 0, len(snapshot.History))
	for _, item := range snapshot.History {
		history = append(history, historyOutput(item))
	}
	return dto.StateOutput{
		Session:       sessionOutput(snapshot.Pomodoro),
		Coins:         snapshot.Economy.Coins,
		History:       history,
		SchemaVersion: snapshot.SchemaVersion,
		UserID:        i.userID,
	}
}

func (i *Interactor) ExportHistory(ctx context.Context, path string) (dto.ExportOutput, error) {
	if strings.TrimSpace(path) == "" {
		return dto.ExportOutput{}, fmt.Errorf("%w: export path is required", apperrors.ErrInvalidInput)
	}
	if i.opts.Exporter == nil {
		return dto.ExportOutput{}, fmt.Errorf("%w: no history exporter configured", apperrors.ErrInvalidInput)
	}
	i.mu.Lock()
	snapshot := i.state.Clone()
	i.mu.Unlock()
	if err := i.opts.Exporter.Export(ctx, path, snapshot.History, snapshot.Economy.Coins); err != nil {
		return dto.ExportOutput{}, fmt.Errorf("export history: %w", err)
	}
	return dto.ExportOutput{Path: path, Sessions: len(snapshot.History)}, nil
}

// confirmRemoteID runs on the sync worker once the remote row exists.
func (i *Interactor) confirmRemoteID(localID, remoteID string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	changed := false
	if p := i.state.Pomodoro; p != nil && p.ID == localID {
		p.ID = remoteID
		p.SyncState = domain.SyncConfirmed
		changed = true
	}
	if domain.RenameHistoryItem(i.state.History, localID, remoteID) {
		changed = true
	}
	if changed {
		i.save(context.Background())
	}
}

func (i *Interactor) syncEnabled() bool {
	return i.sync != nil && i.userID != ""
}

func (i *Interactor) dispatchUpdate(reason string, session domain.Session) {
	if !i.syncEnabled() {
		return
	}
	i.sync.Dispatch(domain.SyncOp{
		Kind:      domain.SyncUpdate,
		Reason:    reason,
		SessionID: session.ID,
		Confirmed: session.Confirmed(),
		Changes:   domain.ChangesFromSession(session),
	})
}

// save persists the current state; failures only cost durability.
func (i *Interactor) save(ctx context.Context) {
	if err := i.snapshots.Save(ctx, i.state.Clone()); err != nil {
		i.logger.Warn().Err(err).Msg("persist state")
	}
}
