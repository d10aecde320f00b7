package out

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"pomo/internal/modules/pomodoro/domain"
	pomodoroout "pomo/internal/modules/pomodoro/port/out"
)

// FileSnapshotStore keeps the whole store state in one JSON file. Writes go
// through a temp file and a rename so readers never see a partial document.
type FileSnapshotStore struct {
	path   string
	logger zerolog.Logger
}

func NewFileSnapshotStore(path string, logger zerolog.Logger) pomodoroout.SnapshotStore {
	return &FileSnapshotStore{path: path, logger: logger.With().Str("component", "snapshot").Logger()}
}

func (s *FileSnapshotStore) Save(_ context.Context, snapshot domain.Snapshot) error {
	if snapshot.History == nil {
		snapshot.History = []domain.HistoryItem{}
	}
	payload, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	return writeAtomic(s.path, append(payload, '\n'))
}

// Load decodes each top-level field on its own so a damaged field falls back
// to its default instead of discarding the rest of the document.
func (s *FileSnapshotStore) Load(_ context.Context) (domain.Snapshot, bool, error) {
	payload, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.Snapshot{}, false, nil
		}
		return domain.Snapshot{}, false, fmt.Errorf("read state: %w", err)
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(payload, &fields); err != nil {
		return domain.Snapshot{}, false, fmt.Errorf("decode state: %w", err)
	}

	snapshot := domain.NewSnapshot()
	if raw, ok := fields["pomodoro"]; ok && !isNull(raw) {
		if session, err := decodeSession(raw); err != nil {
			s.logger.Warn().Err(err).Msg("discarding unreadable session")
		} else {
			snapshot.Pomodoro = &session
		}
	}
	if raw, ok := fields["economy"]; ok && !isNull(raw) {
		if err := json.Unmarshal(raw, &snapshot.Economy); err != nil {
			s.logger.Warn().Err(err).Msg("discarding unreadable economy")
			snapshot.Economy = domain.Economy{}
		}
	}
	if raw, ok := fields["history"]; ok && !isNull(raw) {
		history := []domain.HistoryItem{}
		if err := json.Unmarshal(raw, &history); err != nil {
			s.logger.Warn().Err(err).Msg("discarding unreadable history")
		} else {
			snapshot.History = history
		}
	}
	if raw, ok := fields["schemaVersion"]; ok && !isNull(raw) {
		if err := json.Unmarshal(raw, &snapshot.SchemaVersion); err != nil {
			snapshot.SchemaVersion = domain.SchemaVersion
		}
	}
	return snapshot, true, nil
}

// decodeSession also accepts the older shape keyed by pomodoroId. A session
// without any id is kept; the store assigns one on load.
func decodeSession(raw json.RawMessage) (domain.Session, error) {
	var doc struct {
		domain.Session
		LegacyID string `json:"pomodoroId"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return domain.Session{}, err
	}
	session := doc.Session
	if session.ID == "" {
		session.ID = doc.LegacyID
	}
	return session, nil
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}

func writeAtomic(path string, payload []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(payload); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
