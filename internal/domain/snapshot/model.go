package snapshot

import "time"

// Snapshot is an immutable point-in-time copy of a user's content. At most
// one snapshot per user is unconsumed; the database enforces it with a
// partial unique index.
type Snapshot struct {
	ID            string     `json:"id"`
	UserID        string     `json:"userId"`
	SchemaVersion int        `json:"schemaVersion"`
	Payload       []byte     `json:"-"`
	CapturedAt    time.Time  `json:"capturedAt"`
	IsConsumed    bool       `json:"isConsumed"`
	ConsumedAt    *time.Time `json:"consumedAt,omitempty"`
}

// CaptureResult is returned by BackupManager.CaptureSnapshot
type CaptureResult struct {
	SnapshotID     string    `json:"snapshotId"`
	CapturedAt     time.Time `json:"capturedAt"`
	PostCount      int       `json:"postCount"`
	AnalyticsCount int       `json:"analyticsCount"`
	// Reused is set when EnsureSnapshot found an existing snapshot. The
	// counts are zero in that case.
	Reused bool `json:"reused,omitempty"`
}

// RestoreResult is returned by RestoreEngine.Restore
type RestoreResult struct {
	SnapshotID        string    `json:"snapshotId"`
	RestoredPosts     int       `json:"restoredPosts"`
	RestoredAnalytics int       `json:"restoredAnalytics"`
	DeletedPosts      int64     `json:"deletedPosts"`
	DeletedAnalytics  int64     `json:"deletedAnalytics"`
	ConsumedAt        time.Time `json:"consumedAt"`
}
