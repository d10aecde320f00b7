package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"pomo/internal/modules/pomodoro/domain"
	"pomo/internal/modules/pomodoro/dto"
	pomodoroin "pomo/internal/modules/pomodoro/port/in"
	pomodoroout "pomo/internal/modules/pomodoro/port/out"
	"pomo/internal/modules/pomodoro/service"
	"pomo/internal/modules/pomodoro/usecase"
	apperrors "pomo/internal/platform/errors"

	"github.com/rs/zerolog"
)

type fakeClock struct {
	values []time.Time
	idx    int
}

func (f *fakeClock) Now() time.Time {
	if f.idx >= len(f.values) {
		return f.values[len(f.values)-1]
	}
	v := f.values[f.idx]
	f.idx++
	return v
}

type fakeID struct{}

func (fakeID) New() string { return "local-1" }

type memorySnapshots struct {
	mu      sync.Mutex
	saved   *domain.Snapshot
	saves   int
	loadErr error
}

func (m *memorySnapshots) Save(_ context.Context, snapshot domain.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = &snapshot
	m.saves++
	return nil
}

func (m *memorySnapshots) Load(context.Context) (domain.Snapshot, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return domain.Snapshot{}, false, m.loadErr
	}
	if m.saved == nil {
		return domain.Snapshot{}, false, nil
	}
	return m.saved.Clone(), true, nil
}

type fakeDispatcher struct {
	ops     []domain.SyncOp
	confirm func(localID, remoteID string)
}

func (f *fakeDispatcher) Dispatch(op domain.SyncOp) bool {
	f.ops = append(f.ops, op)
	return true
}

func (f *fakeDispatcher) OnConfirmed(fn func(localID, remoteID string)) { f.confirm = fn }

type fakeRemote struct {
	records []domain.SessionRecord
	err     error
}

func (f *fakeRemote) Create(_ context.Context, record domain.SessionRecord) (domain.SessionRecord, error) {
	return record, f.err
}

func (f *fakeRemote) Update(_ context.Context, id string, _ domain.SessionChanges) (domain.SessionRecord, error) {
	return domain.SessionRecord{ID: id}, f.err
}

func (f *fakeRemote) List(context.Context, string) ([]domain.SessionRecord, error) {
	return f.records, f.err
}

type memoryIdentity struct{ userID string }

func (m *memoryIdentity) SaveUserID(_ context.Context, userID string) error {
	m.userID = userID
	return nil
}

func (m *memoryIdentity) LoadUserID(context.Context) (string, error) { return m.userID, nil }

var t0 = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func newInteractor(clk *fakeClock, snapshots *memorySnapshots, remote pomodoroout.RemoteSessionStore, dispatcher pomodoroout.SyncDispatcher, opts usecase.Options) pomodoroin.Usecase {
	svc := service.NewPomodoroService(clk, fakeID{}, map[domain.Mode]time.Duration{
		domain.ModeFocus:      25 * time.Minute,
		domain.ModeShortBreak: 5 * time.Minute,
		domain.ModeLongBreak:  15 * time.Minute,
	})
	opts.Logger = zerolog.Nop()
	return usecase.NewInteractor(svc, snapshots, remote, dispatcher, opts)
}

func TestTickToCompletion(t *testing.T) {
	t.Parallel()
	clk := &fakeClock{values: []time.Time{t0, t0.Add(5 * time.Second)}}
	uc := newInteractor(clk, &memorySnapshots{}, nil, nil, usecase.Options{})
	ctx := context.Background()

	if _, err := uc.Start(ctx, dto.StartInput{Duration: 5 * time.Second, Mode: "focus"}); err != nil {
		t.Fatalf("start: %v", err)
	}
	prev := 5
	for n := 0; n < 4; n++ {
		out, err := uc.Tick(ctx)
		if err != nil {
			t.Fatalf("tick %d: %v", n, err)
		}
		if out.Completed {
			t.Fatalf("tick %d completed early", n)
		}
		if out.Session.Remaining != prev-1 {
			t.Fatalf("tick %d: expected remaining %d, got %d", n, prev-1, out.Session.Remaining)
		}
		prev = out.Session.Remaining
	}
	state := uc.State(ctx)
	if state.Session.Remaining != 1 || state.Session.Status != "running" {
		t.Fatalf("expected running with 1s left, got %+v", state.Session)
	}

	out, err := uc.Tick(ctx)
	if err != nil {
		t.Fatalf("final tick: %v", err)
	}
	if !out.Completed {
		t.Fatalf("final tick should complete the session")
	}
	state = uc.State(ctx)
	if state.Session.Active {
		t.Fatalf("session should be cleared after completion")
	}
	if len(state.History) != 1 {
		t.Fatalf("expected one history item, got %d", len(state.History))
	}
	item := state.History[0]
	if item.ActualDuration != 5 || !item.IsValid {
		t.Fatalf("unexpected history item %+v", item)
	}
	if state.Coins != domain.CompletionReward {
		t.Fatalf("expected %d coins, got %d", domain.CompletionReward, state.Coins)
	}
}

func TestLostFocusInvalidatesCompletion(t *testing.T) {
	t.Parallel()
	clk := &fakeClock{values: []time.Time{t0, t0.Add(time.Minute)}}
	uc := newInteractor(clk, &memorySnapshots{}, nil, nil, usecase.Options{})
	ctx := context.Background()

	if _, err := uc.Start(ctx, dto.StartInput{}); err != nil {
		t.Fatalf("start: %v", err)
	}
	out, err := uc.PenalizeLostFocus(ctx, 20)
	if err != nil {
		t.Fatalf("penalize: %v", err)
	}
	if out.IsValid || out.InvalidReason != domain.InvalidReasonLostFocus {
		t.Fatalf("expected invalid lost_focus session, got %+v", out)
	}
	done, err := uc.Complete(ctx)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if done.CoinsAwarded != 0 || done.Coins != 0 {
		t.Fatalf("invalid session must not award coins, got %+v", done)
	}
	if state := uc.State(ctx); state.History[0].IsValid {
		t.Fatalf("history entry should be invalid")
	}
}

func TestPenalizeKeepsValidityInvariant(t *testing.T) {
	t.Parallel()
	clk := &fakeClock{values: []time.Time{t0}}
	uc := newInteractor(clk, &memorySnapshots{}, nil, nil, usecase.Options{})
	ctx := context.Background()
	if _, err := uc.Start(ctx, dto.StartInput{}); err != nil {
		t.Fatalf("start: %v", err)
	}
	total := 0
	for _, seconds := range []int{0, 5, 10, 1, 0, 3} {
		total += seconds
		out, err := uc.PenalizeLostFocus(ctx, seconds)
		if err != nil {
			t.Fatalf("penalize %d: %v", seconds, err)
		}
		if out.LostFocusSeconds != total {
			t.Fatalf("expected %d lost seconds, got %d", total, out.LostFocusSeconds)
		}
		if out.IsValid != (total <= domain.LostFocusThreshold) {
			t.Fatalf("validity mismatch at %d: %+v", total, out)
		}
	}
	if _, err := uc.PenalizeLostFocus(ctx, -1); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input for negative seconds, got %v", err)
	}
}

func TestPauseResumeKeepsRemaining(t *testing.T) {
	t.Parallel()
	clk := &fakeClock{values: []time.Time{t0}}
	uc := newInteractor(clk, &memorySnapshots{}, nil, nil, usecase.Options{})
	ctx := context.Background()

	started, err := uc.Start(ctx, dto.StartInput{Duration: time.Minute})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := uc.Tick(ctx); err != nil {
		t.Fatalf("tick: %v", err)
	}
	paused, err := uc.Pause(ctx)
	if err != nil {
		t.Fatalf("pause: %v", err)
	}
	if _, err := uc.Tick(ctx); err != nil {
		t.Fatalf("tick while paused: %v", err)
	}
	if _, err := uc.PenalizeLostFocus(ctx, 30); err != nil {
		t.Fatalf("penalize while paused: %v", err)
	}
	resumed, err := uc.Resume(ctx)
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	statuses := []string{started.Status, paused.Status, resumed.Status}
	if fmt.Sprint(statuses) != "[running paused running]" {
		t.Fatalf("unexpected status sequence %v", statuses)
	}
	if paused.Remaining != 59 || resumed.Remaining != 59 {
		t.Fatalf("pause/resume must not change remaining: %d/%d", paused.Remaining, resumed.Remaining)
	}
	if resumed.LostFocusSeconds != 0 {
		t.Fatalf("penalty while paused should be ignored, got %d", resumed.LostFocusSeconds)
	}
}

func TestOperationsWithoutSession(t *testing.T) {
	t.Parallel()
	uc := newInteractor(&fakeClock{values: []time.Time{t0}}, &memorySnapshots{}, nil, nil, usecase.Options{})
	ctx := context.Background()
	if _, err := uc.Tick(ctx); err != apperrors.ErrNoActiveSession {
		t.Fatalf("tick: expected no active session, got %v", err)
	}
	if _, err := uc.Pause(ctx); err != apperrors.ErrNoActiveSession {
		t.Fatalf("pause: expected no active session, got %v", err)
	}
	if _, err := uc.Resume(ctx); err != apperrors.ErrNoActiveSession {
		t.Fatalf("resume: expected no active session, got %v", err)
	}
	if _, err := uc.Complete(ctx); err != apperrors.ErrNoActiveSession {
		t.Fatalf("complete: expected no active session, got %v", err)
	}
	if out, err := uc.PenalizeLostFocus(ctx, 10); err != nil || out.Active {
		t.Fatalf("penalize without session should be a no-op, got %+v %v", out, err)
	}
	if _, err := uc.Start(ctx, dto.StartInput{Mode: "nap"}); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("expected invalid mode error, got %v", err)
	}
}

func TestClearExpiredSession(t *testing.T) {
	t.Parallel()
	clk := &fakeClock{values: []time.Time{t0, t0.Add(25 * time.Hour)}}
	snapshots := &memorySnapshots{}
	uc := newInteractor(clk, snapshots, nil, nil, usecase.Options{})
	ctx := context.Background()
	if _, err := uc.AddCoins(ctx, 7); err != nil {
		t.Fatalf("add coins: %v", err)
	}
	if _, err := uc.Start(ctx, dto.StartInput{}); err != nil {
		t.Fatalf("start: %v", err)
	}
	if snapshots.saved.Pomodoro.ID != "local-1" {
		t.Fatalf("minted id should be persisted, got %q", snapshots.saved.Pomodoro.ID)
	}
	cleared, err := uc.ClearExpiredSession(ctx)
	if err != nil || !cleared {
		t.Fatalf("expected expired session to be cleared, got %v %v", cleared, err)
	}
	state := uc.State(ctx)
	if state.Session.Active || len(state.History) != 0 || state.Coins != 7 {
		t.Fatalf("unexpected state after expiry %+v", state)
	}
	if snapshots.saved.Pomodoro != nil {
		t.Fatalf("cleared session should be persisted")
	}
}

func TestClearExpiredKeepsFreshSession(t *testing.T) {
	t.Parallel()
	clk := &fakeClock{values: []time.Time{t0, t0.Add(23 * time.Hour)}}
	uc := newInteractor(clk, &memorySnapshots{}, nil, nil, usecase.Options{})
	ctx := context.Background()
	if _, err := uc.Start(ctx, dto.StartInput{}); err != nil {
		t.Fatalf("start: %v", err)
	}
	if cleared, _ := uc.ClearExpiredSession(ctx); cleared {
		t.Fatalf("fresh session should survive")
	}
}

func TestStoredSessionWithoutStartOrIDSurvives(t *testing.T) {
	t.Parallel()
	snapshots := &memorySnapshots{saved: &domain.Snapshot{
		Pomodoro: &domain.Session{Mode: domain.ModeFocus, Status: domain.StatusRunning, Duration: 60, Remaining: 30, IsValid: true},
	}}
	uc := newInteractor(&fakeClock{values: []time.Time{t0}}, snapshots, nil, nil, usecase.Options{})
	ctx := context.Background()

	if err := uc.LoadFromStorage(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	state := uc.State(ctx)
	if !state.Session.Active || state.Session.ID != "local-1" || state.Session.Synced {
		t.Fatalf("stored session should load with a local id, got %+v", state.Session)
	}
	cleared, err := uc.ClearExpiredSession(ctx)
	if err != nil {
		t.Fatalf("clear expired: %v", err)
	}
	if cleared || !uc.State(ctx).Session.Active {
		t.Fatalf("session without start time must not be discarded")
	}
	if state.Session.Remaining != 30 {
		t.Fatalf("remaining = %d, want 30", state.Session.Remaining)
	}
}

func TestHistoryIsBounded(t *testing.T) {
	t.Parallel()
	clk := &fakeClock{values: []time.Time{t0}}
	uc := newInteractor(clk, &memorySnapshots{}, nil, nil, usecase.Options{})
	ctx := context.Background()
	for n := 0; n < domain.HistoryLimit+3; n++ {
		if _, err := uc.Start(ctx, dto.StartInput{Duration: time.Second}); err != nil {
			t.Fatalf("start %d: %v", n, err)
		}
		if _, err := uc.Complete(ctx); err != nil {
			t.Fatalf("complete %d: %v", n, err)
		}
	}
	state := uc.State(ctx)
	if len(state.History) != domain.HistoryLimit {
		t.Fatalf("expected %d history items, got %d", domain.HistoryLimit, len(state.History))
	}
	if state.Coins != (domain.HistoryLimit+3)*domain.CompletionReward {
		t.Fatalf("unexpected coin total %d", state.Coins)
	}
}

func TestLoadFromStorageRestoresState(t *testing.T) {
	t.Parallel()
	snapshots := &memorySnapshots{}
	clk := &fakeClock{values: []time.Time{t0, t0.Add(time.Minute)}}
	first := newInteractor(clk, snapshots, nil, nil, usecase.Options{})
	ctx := context.Background()
	if _, err := first.Start(ctx, dto.StartInput{Title: "Write report"}); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := first.Tick(ctx); err != nil {
		t.Fatalf("tick: %v", err)
	}
	saved := snapshots.saved.Clone()

	second := newInteractor(clk, snapshots, nil, nil, usecase.Options{})
	if err := second.LoadFromStorage(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	state := second.State(ctx)
	if state.Session.Title != "Write report" || state.Session.Remaining != 25*60-1 {
		t.Fatalf("unexpected restored session %+v", state.Session)
	}
	if err := second.LoadFromStorage(ctx); err != nil {
		t.Fatalf("second load: %v", err)
	}
	if _, err := second.AddCoins(ctx, 0); err != nil {
		t.Fatalf("add coins: %v", err)
	}
	if fmt.Sprintf("%+v", *snapshots.saved.Pomodoro) != fmt.Sprintf("%+v", *saved.Pomodoro) {
		t.Fatalf("reload and save should round-trip the session")
	}
}

func TestLoadFromStorageSwallowsErrors(t *testing.T) {
	t.Parallel()
	snapshots := &memorySnapshots{loadErr: errors.New("disk gone")}
	uc := newInteractor(&fakeClock{values: []time.Time{t0}}, snapshots, nil, nil, usecase.Options{})
	if err := uc.LoadFromStorage(context.Background()); err != nil {
		t.Fatalf("load errors must be absorbed, got %v", err)
	}
	if state := uc.State(context.Background()); state.SchemaVersion != domain.SchemaVersion {
		t.Fatalf("expected default state, got %+v", state)
	}
}

func TestSyncOpsFollowTransitions(t *testing.T) {
	t.Parallel()
	clk := &fakeClock{values: []time.Time{t0, t0.Add(time.Minute)}}
	dispatcher := &fakeDispatcher{}
	remote := &fakeRemote{}
	uc := newInteractor(clk, &memorySnapshots{}, remote, dispatcher, usecase.Options{})
	ctx := context.Background()

	if _, err := uc.Start(ctx, dto.StartInput{}); err != nil {
		t.Fatalf("start: %v", err)
	}
	if len(dispatcher.ops) != 0 {
		t.Fatalf("no sync without a user, got %d ops", len(dispatcher.ops))
	}
	if err := uc.SetUserID(ctx, "user-1"); err != nil {
		t.Fatalf("set user: %v", err)
	}
	if _, err := uc.Start(ctx, dto.StartInput{Duration: 3 * time.Minute, Title: "Deep work"}); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := uc.Tick(ctx); err != nil {
		t.Fatalf("tick: %v", err)
	}
	if _, err := uc.Pause(ctx); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if _, err := uc.Resume(ctx); err != nil {
		t.Fatalf("resume: %v", err)
	}
	if _, err := uc.Complete(ctx); err != nil {
		t.Fatalf("complete: %v", err)
	}

	var reasons []string
	for _, op := range dispatcher.ops {
		reasons = append(reasons, op.Reason)
		if op.SessionID != "local-1" || op.Confirmed {
			t.Fatalf("ops should target the unconfirmed local id, got %+v", op)
		}
	}
	if fmt.Sprint(reasons) != "[start pause resume complete]" {
		t.Fatalf("unexpected op sequence %v", reasons)
	}
	create := dispatcher.ops[0]
	if create.Kind != domain.SyncCreate || create.Record.UserID != "user-1" || *create.Record.DurationMinutes != 3 {
		t.Fatalf("unexpected create op %+v", create.Record)
	}
	last := dispatcher.ops[len(dispatcher.ops)-1].Changes
	if last.IsComplete == nil || !*last.IsComplete || last.EndedAt == nil {
		t.Fatalf("complete op should mark the row complete, got %+v", last)
	}
}

func TestConfirmationSwapsIDs(t *testing.T) {
	t.Parallel()
	clk := &fakeClock{values: []time.Time{t0}}
	dispatcher := &fakeDispatcher{}
	uc := newInteractor(clk, &memorySnapshots{}, &fakeRemote{}, dispatcher, usecase.Options{})
	ctx := context.Background()
	if err := uc.SetUserID(ctx, "user-1"); err != nil {
		t.Fatalf("set user: %v", err)
	}
	if _, err := uc.Start(ctx, dto.StartInput{}); err != nil {
		t.Fatalf("start: %v", err)
	}
	dispatcher.confirm("local-1", "remote-9")

	state := uc.State(ctx)
	if state.Session.ID != "remote-9" || !state.Session.Synced {
		t.Fatalf("session should carry the confirmed id, got %+v", state.Session)
	}
	if _, err := uc.Pause(ctx); err != nil {
		t.Fatalf("pause: %v", err)
	}
	op := dispatcher.ops[len(dispatcher.ops)-1]
	if op.SessionID != "remote-9" || !op.Confirmed {
		t.Fatalf("update after confirmation should use the remote id, got %+v", op)
	}
}

func TestConfirmationRenamesCompletedHistory(t *testing.T) {
	t.Parallel()
	dispatcher := &fakeDispatcher{}
	uc := newInteractor(&fakeClock{values: []time.Time{t0}}, &memorySnapshots{}, &fakeRemote{}, dispatcher, usecase.Options{})
	ctx := context.Background()
	if err := uc.SetUserID(ctx, "user-1"); err != nil {
		t.Fatalf("set user: %v", err)
	}
	if _, err := uc.Start(ctx, dto.StartInput{Duration: time.Second}); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := uc.Complete(ctx); err != nil {
		t.Fatalf("complete: %v", err)
	}
	dispatcher.confirm("local-1", "remote-3")
	if got := uc.State(ctx).History[0].ID; got != "remote-3" {
		t.Fatalf("history entry should be renamed, got %s", got)
	}
}

func remoteRows() []domain.SessionRecord {
	yes, no := true, false
	minutes := 25
	ended := t0.Add(-time.Hour)
	started := ended.Add(-25 * time.Minute)
	return []domain.SessionRecord{
		{ID: "r-1", Title: "Focus", DurationMinutes: &minutes, StartedAt: &started, EndedAt: &ended, IsComplete: &yes},
		{ID: "r-2", Title: "Focus", DurationMinutes: &minutes, StartedAt: &started, IsComplete: &no},
	}
}

func TestLoadHistoryReplacesLocal(t *testing.T) {
	t.Parallel()
	clk := &fakeClock{values: []time.Time{t0}}
	remote := &fakeRemote{records: remoteRows()}
	uc := newInteractor(clk, &memorySnapshots{}, remote, nil, usecase.Options{})
	ctx := context.Background()

	if err := uc.LoadHistory(ctx); err != apperrors.ErrNotAuthenticated {
		t.Fatalf("expected not authenticated, got %v", err)
	}
	if _, err := uc.Start(ctx, dto.StartInput{Duration: time.Second}); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := uc.Complete(ctx); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if err := uc.SetUserID(ctx, "user-1"); err != nil {
		t.Fatalf("set user: %v", err)
	}
	history := uc.State(ctx).History
	if len(history) != 1 || history[0].ID != "r-1" {
		t.Fatalf("remote view should replace local history, got %+v", history)
	}
}

func TestLoadHistoryMergesWhenConfigured(t *testing.T) {
	t.Parallel()
	clk := &fakeClock{values: []time.Time{t0}}
	remote := &fakeRemote{records: remoteRows()}
	uc := newInteractor(clk, &memorySnapshots{}, remote, nil, usecase.Options{MergeLocalHistory: true})
	ctx := context.Background()
	if _, err := uc.Start(ctx, dto.StartInput{Duration: time.Second}); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := uc.Complete(ctx); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if err := uc.SetUserID(ctx, "user-1"); err != nil {
		t.Fatalf("set user: %v", err)
	}
	history := uc.State(ctx).History
	if len(history) != 2 || history[0].ID != "local-1" || history[1].ID != "r-1" {
		t.Fatalf("expected local entry merged ahead of remote, got %+v", history)
	}
}

func TestLoadHistoryRemoteFailure(t *testing.T) {
	t.Parallel()
	remote := &fakeRemote{err: errors.New("offline")}
	uc := newInteractor(&fakeClock{values: []time.Time{t0}}, &memorySnapshots{}, remote, nil, usecase.Options{})
	ctx := context.Background()
	if err := uc.SetUserID(ctx, "user-1"); err != nil {
		t.Fatalf("login must not fail on remote errors: %v", err)
	}
	if err := uc.LoadHistory(ctx); err == nil {
		t.Fatalf("explicit history load should report the remote error")
	}
}

func TestLoadHistoryWithoutRemote(t *testing.T) {
	t.Parallel()
	uc := newInteractor(&fakeClock{values: []time.Time{t0}}, &memorySnapshots{}, nil, nil, usecase.Options{})
	ctx := context.Background()
	if err := uc.SetUserID(ctx, "user-1"); err != nil {
		t.Fatalf("set user: %v", err)
	}
	if err := uc.LoadHistory(ctx); err != apperrors.ErrRemoteDisabled {
		t.Fatalf("expected remote disabled, got %v", err)
	}
}

func TestIdentityRestore(t *testing.T) {
	t.Parallel()
	identity := &memoryIdentity{}
	ctx := context.Background()
	first := newInteractor(&fakeClock{values: []time.Time{t0}}, &memorySnapshots{}, nil, nil, usecase.Options{Identity: identity})
	if err := first.SetUserID(ctx, "  user-7 "); err != nil {
		t.Fatalf("set user: %v", err)
	}
	second := newInteractor(&fakeClock{values: []time.Time{t0}}, &memorySnapshots{}, nil, nil, usecase.Options{Identity: identity})
	if err := second.RestoreIdentity(ctx); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if got := second.State(ctx).UserID; got != "user-7" {
		t.Fatalf("expected restored user, got %q", got)
	}
	if err := second.SetUserID(ctx, ""); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if identity.userID != "" {
		t.Fatalf("logout should clear the stored identity")
	}
}
