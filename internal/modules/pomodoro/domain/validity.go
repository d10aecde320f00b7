package domain

const (
	// LostFocusThreshold is the number of unfocused seconds a session tolerates
	// before it stops counting.
	LostFocusThreshold = 15

	InvalidReasonLostFocus = "lost_focus"
)

func IsValid(lostFocusSeconds int) bool {
	return lostFocusSeconds <= LostFocusThreshold
}

// InvalidReason returns "" while the session is still valid.
func InvalidReason(lostFocusSeconds int) string {
	if IsValid(lostFocusSeconds) {
		return ""
	}
	return InvalidReasonLostFocus
}

// Penalize adds unfocused time and re-derives validity.
func (s *Session) Penalize(seconds int) {
	s.LostFocusSeconds += seconds
	s.IsValid = IsValid(s.LostFocusSeconds)
	s.InvalidReason = InvalidReason(s.LostFocusSeconds)
}
