package usecase

import (
	"pomo/internal/modules/pomodoro/domain"
	"pomo/internal/modules/pomodoro/dto"
)

func sessionOutput(s *domain.Session) dto.SessionOutput {
	if s == nil {
		return dto.SessionOutput{}
	}
	return dto.SessionOutput{
		Active:           true,
		ID:               s.ID,
		Title:            s.Title,
		Mode:             string(s.Mode),
		Status:           string(s.Status),
		Duration:         s.Duration,
		Remaining:        s.Remaining,
		IsValid:          s.IsValid,
		LostFocusSeconds: s.LostFocusSeconds,
		InvalidReason:    s.InvalidReason,
		StartedAt:        s.StartedAt,
		Synced:           s.Confirmed(),
	}
}

func historyOutput(item domain.HistoryItem) dto.HistoryItemOutput {
	return dto.HistoryItemOutput{
		ID:             item.ID,
		Mode:           string(item.Mode),
		Start:          item.Start,
		End:            item.End,
		Duration:       item.Duration,
		ActualDuration: item.ActualDuration,
		IsValid:        item.IsValid,
		InvalidReason:  item.InvalidReason,
	}
}
