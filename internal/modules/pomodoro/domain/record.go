package domain

import "time"

const defaultRecordMinutes = 25

// RecordMetadata is the opaque JSON column of a remote session row.
type RecordMetadata struct {
	Mode             Mode   `json:"mode,omitempty"`
	Status           Status `json:"status,omitempty"`
	IsValid          *bool  `json:"isValid,omitempty"`
	InvalidReason    string `json:"invalidReason,omitempty"`
	LostFocusSeconds int    `json:"lostFocusSeconds"`
	ActualDuration   *int   `json:"actualDuration,omitempty"`
}

// SessionRecord is one row of the remote pomodoros table.
type SessionRecord struct {
	ID              string         `json:"pomodoroId,omitempty"`
	UserID          string         `json:"userId,omitempty"`
	Title           string         `json:"title"`
	DurationMinutes *int           `json:"durationMinutes,omitempty"`
	StartedAt       *time.Time     `json:"startedAt,omitempty"`
	EndedAt         *time.Time     `json:"endedAt,omitempty"`
	IsComplete      *bool          `json:"isComplete,omitempty"`
	Metadata        RecordMetadata `json:"metadata"`
	CreatedAt       *time.Time     `json:"createdAt,omitempty"`
	UpdatedAt       *time.Time     `json:"updatedAt,omitempty"`
}

// SessionChanges is a partial row update; nil fields are left untouched.
type SessionChanges struct {
	EndedAt    *time.Time      `json:"endedAt,omitempty"`
	IsComplete *bool           `json:"isComplete,omitempty"`
	Metadata   *RecordMetadata `json:"metadata,omitempty"`
}

func (r SessionRecord) Completed() bool {
	return r.IsComplete != nil && *r.IsComplete
}

func MetadataFromSession(s Session) RecordMetadata {
	valid := s.IsValid
	meta := RecordMetadata{
		Mode:             s.Mode,
		Status:           s.Status,
		IsValid:          &valid,
		InvalidReason:    s.InvalidReason,
		LostFocusSeconds: s.LostFocusSeconds,
	}
	if s.Status == StatusFinished {
		actual := s.Elapsed()
		meta.ActualDuration = &actual
	}
	return meta
}

func RecordFromSession(s Session, userID string) SessionRecord {
	minutes := s.Duration / 60
	started := s.StartedAt
	complete := s.Status == StatusFinished
	return SessionRecord{
		UserID:          userID,
		Title:           s.Title,
		DurationMinutes: &minutes,
		StartedAt:       &started,
		EndedAt:         s.EndedAt,
		IsComplete:      &complete,
		Metadata:        MetadataFromSession(s),
	}
}

// ChangesFromSession mirrors the mutable parts of s. Completion fields are
// only sent once the session has finished.
func ChangesFromSession(s Session) SessionChanges {
	meta := MetadataFromSession(s)
	changes := SessionChanges{Metadata: &meta}
	if s.Status == StatusFinished {
		complete := true
		changes.IsComplete = &complete
		changes.EndedAt = s.EndedAt
	}
	return changes
}

// HistoryItemFromRecord maps a completed remote row back to a history entry.
// Missing columns fall back to a 25 minute focus session that counted.
func HistoryItemFromRecord(r SessionRecord) HistoryItem {
	minutes := defaultRecordMinutes
	if r.DurationMinutes != nil {
		minutes = *r.DurationMinutes
	}
	duration := minutes * 60

	item := HistoryItem{
		ID:            r.ID,
		Mode:          r.Metadata.Mode,
		Duration:      duration,
		IsValid:       true,
		InvalidReason: r.Metadata.InvalidReason,
	}
	if item.Mode == "" {
		item.Mode = ModeFocus
	}
	if r.Metadata.IsValid != nil {
		item.IsValid = *r.Metadata.IsValid
	}
	if item.IsValid {
		item.InvalidReason = ""
	} else if item.InvalidReason == "" {
		item.InvalidReason = InvalidReasonLostFocus
	}
	if r.StartedAt != nil {
		item.Start = *r.StartedAt
	}
	switch {
	case r.EndedAt != nil:
		item.End = *r.EndedAt
	case r.UpdatedAt != nil:
		item.End = *r.UpdatedAt
	default:
		item.End = item.Start
	}
	if item.Start.IsZero() {
		item.Start = item.End
	}

	if r.Metadata.ActualDuration != nil {
		item.ActualDuration = *r.Metadata.ActualDuration
	} else {
		item.ActualDuration = int(item.End.Sub(item.Start) / time.Second)
	}
	if item.ActualDuration < 0 {
		item.ActualDuration = 0
	}
	if item.ActualDuration > duration {
		item.ActualDuration = duration
	}
	return item
}
