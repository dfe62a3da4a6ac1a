package snapshot

import (
	"context"
	"time"
)

// Repository is the snapshot store
type Repository interface {
	// UpsertActive inserts the user's active snapshot, or overwrites payload,
	// version and capture time of the one that already exists. The returned
	// snapshot carries the surviving row id.
	UpsertActive(ctx context.Context, userID string, version int, payload []byte, capturedAt time.Time) (*Snapshot, error)

	// GetActive returns the user's unconsumed snapshot
	GetActive(ctx context.Context, userID string) (*Snapshot, error)

	// ClaimActive marks the user's unconsumed snapshot consumed and returns it.
	// It returns a NO_ACTIVE_SNAPSHOT error when there is none.
	ClaimActive(ctx context.Context, userID string, consumedAt time.Time) (*Snapshot, error)

	// ListByUser returns the user's snapshots, newest first
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*Snapshot, int64, error)
}
