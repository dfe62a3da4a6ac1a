package dto

import (
	"time"

	"github.com/pratik-mahalle/creatorhub/internal/domain/snapshot"
)

// SnapshotDTO describes a snapshot without its payload
type SnapshotDTO struct {
	ID            string     `json:"id"`
	SchemaVersion int        `json:"schemaVersion"`
	CapturedAt    time.Time  `json:"capturedAt"`
	IsConsumed    bool       `json:"isConsumed"`
	ConsumedAt    *time.Time `json:"consumedAt,omitempty"`
}

// ToSnapshotDTO converts a snapshot
func ToSnapshotDTO(s *snapshot.Snapshot) SnapshotDTO {
	return SnapshotDTO{
		ID:            s.ID,
		SchemaVersion: s.SchemaVersion,
		CapturedAt:    s.CapturedAt,
		IsConsumed:    s.IsConsumed,
		ConsumedAt:    s.ConsumedAt,
	}
}

// RestoreResponse summarises an applied restore
type RestoreResponse struct {
	SnapshotID        string    `json:"snapshotId"`
	RestoredPosts     int       `json:"restoredPosts"`
	RestoredAnalytics int       `json:"restoredAnalytics"`
	DeletedPosts      int64     `json:"deletedPosts"`
	DeletedAnalytics  int64     `json:"deletedAnalytics"`
	ConsumedAt        time.Time `json:"consumedAt"`
}

// ToRestoreResponse converts a restore result
func ToRestoreResponse(r *snapshot.RestoreResult) RestoreResponse {
	return RestoreResponse{
		SnapshotID:        r.SnapshotID,
		RestoredPosts:     r.RestoredPosts,
		RestoredAnalytics: r.RestoredAnalytics,
		DeletedPosts:      r.DeletedPosts,
		DeletedAnalytics:  r.DeletedAnalytics,
		ConsumedAt:        r.ConsumedAt,
	}
}
