package out

import (
	"context"

	"pomo/internal/modules/pomodoro/domain"
)

// SnapshotStore persists the whole store state in a single local slot.
// Load reports found=false when nothing has been saved yet.
type SnapshotStore interface {
	Save(ctx context.Context, snapshot domain.Snapshot) error
	Load(ctx context.Context) (domain.Snapshot, bool, error)
}

// RemoteSessionStore is the hosted row store mirroring sessions.
type RemoteSessionStore interface {
	Create(ctx context.Context, record domain.SessionRecord) (domain.SessionRecord, error)
	Update(ctx context.Context, id string, changes domain.SessionChanges) (domain.SessionRecord, error)
	List(ctx context.Context, userID string) ([]domain.SessionRecord, error)
}

// SyncDispatcher accepts remote operations without blocking the caller and
// reports when a locally created session has been given its remote id.
type SyncDispatcher interface {
	Dispatch(op domain.SyncOp) bool
	OnConfirmed(fn func(localID, remoteID string))
}

type IdentityStore interface {
	SaveUserID(ctx context.Context, userID string) error
	LoadUserID(ctx context.Context) (string, error)
}

// HistoryArchive keeps a human-readable record of finished sessions.
type HistoryArchive interface {
	Archive(ctx context.Context, item domain.HistoryItem, title string) (string, error)
}

// HistoryExporter renders the history into a document at path.
type HistoryExporter interface {
	Export(ctx context.Context, path string, history []domain.HistoryItem, coins int) error
}
