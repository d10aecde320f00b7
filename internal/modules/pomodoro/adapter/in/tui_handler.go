package in

import (
	"context"

	"pomo/internal/modules/pomodoro/dto"
	pomodoroin "pomo/internal/modules/pomodoro/port/in"
)

// TUIHandler is the surface the terminal UI drives. Reload re-reads the state
// file after another process changed it.
type TUIHandler struct {
	usecase pomodoroin.Usecase
}

func NewTUIHandler(usecase pomodoroin.Usecase) TUIHandler {
	return TUIHandler{usecase: usecase}
}

func (h TUIHandler) State(ctx context.Context) dto.StateOutput {
	return h.usecase.State(ctx)
}

func (h TUIHandler) Start(ctx context.Context, mode, title string) (dto.SessionOutput, error) {
	return h.usecase.Start(ctx, dto.StartInput{Mode: mode, Title: title})
}

func (h TUIHandler) Tick(ctx context.Context) (dto.TickOutput, error) {
	return h.usecase.Tick(ctx)
}

// Toggle pauses a running session and resumes a paused one.
func (h TUIHandler) Toggle(ctx context.Context) (dto.SessionOutput, error) {
	if h.usecase.State(ctx).Session.Status == "running" {
		return h.usecase.Pause(ctx)
	}
	return h.usecase.Resume(ctx)
}

func (h TUIHandler) Complete(ctx context.Context) (dto.CompleteOutput, error) {
	return h.usecase.Complete(ctx)
}

func (h TUIHandler) SyncHistory(ctx context.Context) error {
	return h.usecase.LoadHistory(ctx)
}

func (h TUIHandler) Reload(ctx context.Context) (dto.StateOutput, error) {
	if err := h.usecase.LoadFromStorage(ctx); err != nil {
		return dto.StateOutput{}, err
	}
	return h.usecase.State(ctx), nil
}
