package domain

type SyncKind string

const (
	SyncCreate SyncKind = "create"
	SyncUpdate SyncKind = "update"
)

// SyncOp is one pending remote mirror operation. SessionID is the id the
// session carried when the op was issued; when Confirmed is false it is a
// local id that must be translated once the create is acknowledged.
type SyncOp struct {
	Kind      SyncKind
	Reason    string
	SessionID string
	Confirmed bool
	Record    SessionRecord
	Changes   SessionChanges
}
