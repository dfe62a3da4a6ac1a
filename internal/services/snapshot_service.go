package services

import (
	"context"

	"github.com/pratik-mahalle/creatorhub/internal/domain/snapshot"
)

// SnapshotService implements snapshot.Reader
type SnapshotService struct {
	repo snapshot.Repository
}

// NewSnapshotService creates a new snapshot history reader
func NewSnapshotService(repo snapshot.Repository) snapshot.Reader {
	return &SnapshotService{repo: repo}
}

// GetActive returns the user's unconsumed snapshot
func (s *SnapshotService) GetActive(ctx context.Context, userID string) (*snapshot.Snapshot, error) {
	return s.repo.GetActive(ctx, userID)
}

// List returns the user's snapshot history, newest first
func (s *SnapshotService) List(ctx context.Context, userID string, limit, offset int) ([]*snapshot.Snapshot, int64, error) {
	return s.repo.ListByUser(ctx, userID, limit, offset)
}
