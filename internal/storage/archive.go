// Package storage archives consumed snapshots to object storage.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"time"

	"github.com/pratik-mahalle/creatorhub/internal/config"
	"github.com/pratik-mahalle/creatorhub/internal/domain/snapshot"
)

// Archive backends
const (
	BackendNone = "none"
	BackendS3   = "s3"
	BackendGCS  = "gcs"
)

// NewArchiver builds the configured archiver. It returns nil for "none".
func NewArchiver(ctx context.Context, cfg config.ArchiveConfig) (snapshot.Archiver, error) {
	switch cfg.Backend {
	case "", BackendNone:
		return nil, nil
	case BackendS3:
		return NewS3Archiver(ctx, cfg)
	case BackendGCS:
		return NewGCSArchiver(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown archive backend %q", cfg.Backend)
	}
}

// document is the archived form of a consumed snapshot
type document struct {
	SnapshotID    string          `json:"snapshotId"`
	UserID        string          `json:"userId"`
	SchemaVersion int             `json:"schemaVersion"`
	CapturedAt    time.Time       `json:"capturedAt"`
	ConsumedAt    *time.Time      `json:"consumedAt,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

func encodeDocument(snap *snapshot.Snapshot) ([]byte, error) {
	return json.Marshal(document{
		SnapshotID:    snap.ID,
		UserID:        snap.UserID,
		SchemaVersion: snap.SchemaVersion,
		CapturedAt:    snap.CapturedAt.UTC(),
		ConsumedAt:    snap.ConsumedAt,
		Payload:       json.RawMessage(snap.Payload),
	})
}

// objectKey is <prefix>/<user id>/<snapshot id>.json
func objectKey(prefix string, snap *snapshot.Snapshot) string {
	return path.Join(prefix, snap.UserID, snap.ID+".json")
}
