package in

import (
	"context"

	"pomo/internal/modules/pomodoro/dto"
)

type Usecase interface {
	Start(ctx context.Context, input dto.StartInput) (dto.SessionOutput, error)
	Tick(ctx context.Context) (dto.TickOutput, error)
	Pause(ctx context.Context) (dto.SessionOutput, error)
	Resume(ctx context.Context) (dto.SessionOutput, error)
	Complete(ctx context.Context) (dto.CompleteOutput, error)
	PenalizeLostFocus(ctx context.Context, seconds int) (dto.SessionOutput, error)
	AddCoins(ctx context.Context, amount int) (dto.EconomyOutput, error)
	LoadFromStorage(ctx context.Context) error
	LoadHistory(ctx context.Context) error
	ClearExpiredSession(ctx context.Context) (bool, error)
	SetUserID(ctx context.Context, userID string) error
	RestoreIdentity(ctx context.Context) error
	State(ctx context.Context) dto.StateOutput
	ExportHistory(ctx context.Context, path string) (dto.ExportOutput, error)
}
