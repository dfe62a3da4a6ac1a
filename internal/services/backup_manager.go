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

// BackupManager implements snapshot.BackupManager
type BackupManager struct {
	repos  repository.Manager
	logger *logger.Logger
	now    func() time.Time
}

// NewBackupManager creates a new backup manager
func NewBackupManager(repos repository.Manager, log *logger.Logger) snapshot.BackupManager {
	return &BackupManager{
		repos:  repos,
		logger: log,
		now:    time.Now,
	}
}

// CaptureSnapshot serialises the user's posts, analytics and restorable
// profile fields into the user's single active snapshot. Reads and the upsert
// share one transaction. Every failure is returned as SNAPSHOT_CAPTURE_FAILED.
func (m *BackupManager) CaptureSnapshot(ctx context.Context, userID string) (*snapshot.CaptureResult, error) {
	var result *snapshot.CaptureResult

	err := m.repos.WithTx(ctx, func(ctx context.Context, r repository.Repositories) error {
		var err error
		result, err = m.capture(ctx, r, userID)
		return err
	})
	return m.finish(userID, result, err)
}

// EnsureSnapshot returns the user's active snapshot untouched when there is
// one, so the pre-trial baseline survives a repeated checkout.
func (m *BackupManager) EnsureSnapshot(ctx context.Context, userID string) (*snapshot.CaptureResult, error) {
	var result *snapshot.CaptureResult

	err := m.repos.WithTx(ctx, func(ctx context.Context, r repository.Repositories) error {
		snap, err := r.Snapshots().GetActive(ctx, userID)
		switch {
		case err == nil:
			result = &snapshot.CaptureResult{
				SnapshotID: snap.ID,
				CapturedAt: snap.CapturedAt,
				Reused:     true,
			}
			return nil
		case errors.IsCode(err, errors.ErrCodeNoActiveSnapshot):
			result, err = m.capture(ctx, r, userID)
			return err
		default:
			return err
		}
	})
	return m.finish(userID, result, err)
}

func (m *BackupManager) capture(ctx context.Context, r repository.Repositories, userID string) (*snapshot.CaptureResult, error) {
	u, err := r.Users().GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	posts, err := r.Content().AllPosts(ctx, userID)
	if err != nil {
		return nil, err
	}

	analytics, err := r.Content().AllAnalytics(ctx, userID)
	if err != nil {
		return nil, err
	}

	capturedAt := m.now().Truncate(time.Second)
	raw, err := snapshot.Encode(snapshot.NewPayload(capturedAt, u.Profile(), posts, analytics))
	if err != nil {
		return nil, err
	}

	snap, err := r.Snapshots().UpsertActive(ctx, userID, snapshot.CurrentVersion, raw, capturedAt)
	if err != nil {
		return nil, err
	}

	return &snapshot.CaptureResult{
		SnapshotID:     snap.ID,
		CapturedAt:     snap.CapturedAt,
		PostCount:      len(posts),
		AnalyticsCount: len(analytics),
	}, nil
}

func (m *BackupManager) finish(userID string, result *snapshot.CaptureResult, err error) (*snapshot.CaptureResult, error) {
	if err != nil {
		metrics.RecordSnapshotCapture("error")
		m.logger.WithFields(map[string]interface{}{
			"user_id": userID,
		}).ErrorWithErr(err, "Snapshot capture failed")
		return nil, errors.SnapshotCaptureFailed(err)
	}

	if result.Reused {
		metrics.RecordSnapshotCapture("reused")
		m.logger.WithFields(map[string]interface{}{
			"user_id":     userID,
			"snapshot_id": result.SnapshotID,
		}).Info("Active snapshot kept")
		return result, nil
	}

	metrics.RecordSnapshotCapture("ok")
	m.logger.WithFields(map[string]interface{}{
		"user_id":     userID,
		"snapshot_id": result.SnapshotID,
		"posts":       result.PostCount,
		"analytics":   result.AnalyticsCount,
	}).Info("Snapshot captured")

	return result, nil
}
