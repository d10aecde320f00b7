package dto

import "time"

type StartInput struct {
	Duration time.Duration
	Mode     string
	Title    string
}

type SessionOutput struct {
	Active           bool
	ID               string
	Title            string
	Mode             string
	Status           string
	Duration         int
	Remaining        int
	IsValid          bool
	LostFocusSeconds int
	InvalidReason    string
	StartedAt        time.Time
	Synced           bool
}

type HistoryItemOutput struct {
	ID             string
	Mode           string
	Start          time.Time
	End            time.Time
	Duration       int
	ActualDuration int
	IsValid        bool
	InvalidReason  string
}

type CompleteOutput struct {
	Item         HistoryItemOutput
	CoinsAwarded int
	Coins        int
}

// TickOutput carries Completion when the tick finished the session.
type TickOutput struct {
	Session    SessionOutput
	Completed  bool
	Completion CompleteOutput
}

type EconomyOutput struct {
	Coins int
}

type StateOutput struct {
	Session       SessionOutput
	Coins         int
	History       []HistoryItemOutput
	SchemaVersion int
	UserID        string
}

type ExportOutput struct {
	Path     string
	Sessions int
}

// SyncStats summarizes the remote sync queue.
type SyncStats struct {
	Pending int
	Applied int64
	Failed  int64
	Dropped int64
}
