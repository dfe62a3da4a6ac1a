package snapshot

import "context"

// BackupManager creates or refreshes the single active snapshot of a user
type BackupManager interface {
	CaptureSnapshot(ctx context.Context, userID string) (*CaptureResult, error)
	// EnsureSnapshot keeps an existing active snapshot and captures only
	// when the user has none
	EnsureSnapshot(ctx context.Context, userID string) (*CaptureResult, error)
}

// RestoreEngine reverts a user's content to the active snapshot and consumes it
type RestoreEngine interface {
	Restore(ctx context.Context, userID string) (*RestoreResult, error)
}

// Archiver keeps a copy of consumed snapshot payloads for audit
type Archiver interface {
	Archive(ctx context.Context, snap *Snapshot) error
	Backend() string
}

// Reader exposes snapshot history to the API
type Reader interface {
	GetActive(ctx context.Context, userID string) (*Snapshot, error)
	List(ctx context.Context, userID string, limit, offset int) ([]*Snapshot, int64, error)
}
