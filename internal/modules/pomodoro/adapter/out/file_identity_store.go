package out

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-json"

	pomodoroout "pomo/internal/modules/pomodoro/port/out"
)

type identityFile struct {
	UserID string `json:"userId"`
}

type FileIdentityStore struct {
	path string
}

func NewFileIdentityStore(path string) pomodoroout.IdentityStore {
	return &FileIdentityStore{path: path}
}

// SaveUserID stores userID; an empty id removes the file.
func (s *FileIdentityStore) SaveUserID(_ context.Context, userID string) error {
	if strings.TrimSpace(userID) == "" {
		if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("clear identity: %w", err)
		}
		return nil
	}
	payload, err := json.MarshalIndent(identityFile{UserID: userID}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal identity: %w", err)
	}
	return writeAtomic(s.path, payload)
}

func (s *FileIdentityStore) LoadUserID(_ context.Context) (string, error) {
	payload, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("read identity: %w", err)
	}
	identity := identityFile{}
	if err := json.Unmarshal(payload, &identity); err != nil {
		return "", fmt.Errorf("decode identity: %w", err)
	}
	return strings.TrimSpace(identity.UserID), nil
}
