package in

import (
	"context"
	"time"

	"pomo/internal/modules/pomodoro/dto"
	pomodoroin "pomo/internal/modules/pomodoro/port/in"
)

type CLIHandler struct {
	usecase pomodoroin.Usecase
}

func NewCLIHandler(usecase pomodoroin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Start(ctx context.Context, mode string, duration time.Duration, title string) (dto.SessionOutput, error) {
	return h.usecase.Start(ctx, dto.StartInput{Mode: mode, Duration: duration, Title: title})
}

func (h CLIHandler) Tick(ctx context.Context) (dto.TickOutput, error) {
	return h.usecase.Tick(ctx)
}

func (h CLIHandler) Pause(ctx context.Context) (dto.SessionOutput, error) {
	return h.usecase.Pause(ctx)
}

func (h CLIHandler) Resume(ctx context.Context) (dto.SessionOutput, error) {
	return h.usecase.Resume(ctx)
}

func (h CLIHandler) Complete(ctx context.Context) (dto.CompleteOutput, error) {
	return h.usecase.Complete(ctx)
}

func (h CLIHandler) Penalize(ctx context.Context, seconds int) (dto.SessionOutput, error) {
	return h.usecase.PenalizeLostFocus(ctx, seconds)
}

func (h CLIHandler) AddCoins(ctx context.Context, amount int) (dto.EconomyOutput, error) {
	return h.usecase.AddCoins(ctx, amount)
}

func (h CLIHandler) SyncHistory(ctx context.Context) error {
	return h.usecase.LoadHistory(ctx)
}

func (h CLIHandler) ClearExpired(ctx context.Context) (bool, error) {
	return h.usecase.ClearExpiredSession(ctx)
}

func (h CLIHandler) Login(ctx context.Context, userID string) error {
	return h.usecase.SetUserID(ctx, userID)
}

func (h CLIHandler) Logout(ctx context.Context) error {
	return h.usecase.SetUserID(ctx, "")
}

func (h CLIHandler) State(ctx context.Context) dto.StateOutput {
	return h.usecase.State(ctx)
}

func (h CLIHandler) ExportHistory(ctx context.Context, path string) (dto.ExportOutput, error) {
	return h.usecase.ExportHistory(ctx, path)
}
