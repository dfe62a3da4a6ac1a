package services

import (
	"context"
	"time"

	"github.com/pratik-mahalle/creatorhub/internal/domain/snapshot"
	"github.com/pratik-mahalle/creatorhub/internal/pkg/errors"
	"github.com/pratik-mahalle/creatorhub/internal/pkg/logger"
	"github.com/pratik-mahalle/creatorhub/internal/pkg/metrics"
	"github.com/pratik-mahalle/creatorhub/internal/repository"
)

// RestoreEngine implements snapshot.RestoreEngine
type RestoreEngine struct {
	repos    repository.Manager
	archiver snapshot.Archiver
	logger   *logger.Logger
	now      func() time.Time
}

// NewRestoreEngine creates a new restore engine. archiver may be nil.
func NewRestoreEngine(repos repository.Manager, archiver snapshot.Archiver, log *logger.Logger) snapshot.RestoreEngine {
	return &RestoreEngine{
		repos:    repos,
		archiver: archiver,
		logger:   log,
		now:      time.Now,
	}
}

// Restore reverts the user's posts, analytics and profile to the active
// snapshot and consumes it, all in one transaction. The claim runs first, so
// a concurrent or repeated restore sees NO_ACTIVE_SNAPSHOT and changes nothing.
func (e *RestoreEngine) Restore(ctx context.Context, userID string) (*snapshot.RestoreResult, error) {
	start := time.Now()
	log := e.logger.With("user_id", userID)

	var result *snapshot.RestoreResult
	var consumed *snapshot.Snapshot

	err := e.repos.WithTx(ctx, func(ctx context.Context, r repository.Repositories) error {
		snap, err := r.Snapshots().ClaimActive(ctx, userID, e.now())
		if err != nil {
			return err
		}

		payload, err := snapshot.Decode(snap.Payload)
		if err != nil {
			return err
		}

		deletedPosts, err := r.Content().DeletePostsExcept(ctx, userID, payload.PostIDs())
		if err != nil {
			return err
		}
		deletedAnalytics, err := r.Content().DeleteAnalyticsExcept(ctx, userID, payload.AnalyticsIDs())
		if err != nil {
			return err
		}

		for _, p := range payload.Posts {
			p.UserID = userID
		}
		for _, a := range payload.Analytics {
			a.UserID = userID
		}

		if err := r.Content().UpsertPosts(ctx, payload.Posts); err != nil {
			return err
		}
		if err := r.Content().UpsertAnalytics(ctx, payload.Analytics); err != nil {
			return err
		}

		if err := r.Users().RestoreProfile(ctx, userID, payload.User); err != nil {
			return err
		}

		consumed = snap
		result = &snapshot.RestoreResult{
			SnapshotID:        snap.ID,
			RestoredPosts:     len(payload.Posts),
			RestoredAnalytics: len(payload.Analytics),
			DeletedPosts:      deletedPosts,
			DeletedAnalytics:  deletedAnalytics,
		}
		if snap.ConsumedAt != nil {
			result.ConsumedAt = *snap.ConsumedAt
		}
		return nil
	})

	switch {
	case errors.IsCode(err, errors.ErrCodeNoActiveSnapshot):
		metrics.RecordSnapshotRestore("no_snapshot", time.Since(start))
		return nil, err
	case err != nil:
		metrics.RecordSnapshotRestore("error", time.Since(start))
		log.ErrorWithErr(err, "Snapshot restore rolled back")
		return nil, errors.RestoreFailed(err)
	}

	metrics.RecordSnapshotRestore("ok", time.Since(start))
	log.WithFields(map[string]interface{}{
		"snapshot_id":        result.SnapshotID,
		"restored_posts":     result.RestoredPosts,
		"deleted_posts":      result.DeletedPosts,
		"restored_analytics": result.RestoredAnalytics,
		"deleted_analytics":  result.DeletedAnalytics,
	}).Info("Snapshot restored")

	e.archive(ctx, consumed)
	return result, nil
}

// archive copies the consumed snapshot to the audit store. Failures are
// logged only; the restore has already committed.
func (e *RestoreEngine) archive(ctx context.Context, snap *snapshot.Snapshot) {
	if e.archiver == nil || snap == nil {
		return
	}

	if err := e.archiver.Archive(ctx, snap); err != nil {
		metrics.RecordArchiveUpload(e.archiver.Backend(), "error")
		e.logger.WithFields(map[string]interface{}{
			"snapshot_id": snap.ID,
			"backend":     e.archiver.Backend(),
		}).WarnWithErr(err, "Failed to archive consumed snapshot")
		return
	}
	metrics.RecordArchiveUpload(e.archiver.Backend(), "ok")
}
