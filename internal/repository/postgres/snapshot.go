package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/pratik-mahalle/creatorhub/internal/domain/snapshot"
	"github.com/pratik-mahalle/creatorhub/internal/pkg/dbx"
	"github.com/pratik-mahalle/creatorhub/internal/pkg/errors"
)

// SnapshotRepository implements snapshot.Repository
type SnapshotRepository struct {
	db dbx.DBTX
}

// NewSnapshotRepository creates a new snapshot repository
func NewSnapshotRepository(db dbx.DBTX) snapshot.Repository {
	return &SnapshotRepository{db: db}
}

const snapshotColumns = `id, user_id, schema_version, payload, captured_at, is_consumed, consumed_at`

func scanSnapshot(row rowScanner) (*snapshot.Snapshot, error) {
	var s snapshot.Snapshot
	var payload string
	var capturedAt int64
	var consumedAt sql.NullInt64

	err := row.Scan(&s.ID, &s.UserID, &s.SchemaVersion, &payload, &capturedAt, &s.IsConsumed, &consumedAt)
	if err != nil {
		return nil, err
	}

	s.Payload = []byte(payload)
	s.CapturedAt = time.Unix(capturedAt, 0)
	s.ConsumedAt = fromNullUnix(consumedAt)
	return &s, nil
}

// UpsertActive inserts the user's active snapshot or overwrites the existing
// one. The partial unique index on (user_id) WHERE is_consumed = FALSE is the
// conflict target, so concurrent callers converge on one row.
func (r *SnapshotRepository) UpsertActive(ctx context.Context, userID string, version int, payload []byte, capturedAt time.Time) (*snapshot.Snapshot, error) {
	defer observe("upsert", "snapshots", time.Now())

	query := `
		INSERT INTO snapshots (id, user_id, schema_version, payload, captured_at, is_consumed)
		VALUES ($1, $2, $3, $4, $5, FALSE)
		ON CONFLICT (user_id) WHERE is_consumed = FALSE DO UPDATE SET
			schema_version = excluded.schema_version,
			payload = excluded.payload,
			captured_at = excluded.captured_at
		RETURNING id, captured_at
	`

	s := &snapshot.Snapshot{
		UserID:        userID,
		SchemaVersion: version,
		Payload:       payload,
	}
	var captured int64
	err := r.db.QueryRowContext(ctx, query,
		uuid.NewString(), userID, version, string(payload), capturedAt.Unix(),
	).Scan(&s.ID, &captured)
	if err != nil {
		return nil, errors.DatabaseError("Failed to upsert snapshot", err)
	}
	s.CapturedAt = time.Unix(captured, 0)
	return s, nil
}

// GetActive returns the user's unconsumed snapshot
func (r *SnapshotRepository) GetActive(ctx context.Context, userID string) (*snapshot.Snapshot, error) {
	query := `SELECT ` + snapshotColumns + ` FROM snapshots WHERE user_id = $1 AND is_consumed = FALSE`

	s, err := scanSnapshot(r.db.QueryRowContext(ctx, query, userID))
	if err == sql.ErrNoRows {
		return nil, errors.NoActiveSnapshot()
	}
	if err != nil {
		return nil, errors.DatabaseError("Failed to get snapshot", err)
	}
	return s, nil
}

// ClaimActive atomically consumes the user's active snapshot. Concurrent
// claims serialise on the row; the losers match nothing.
func (r *SnapshotRepository) ClaimActive(ctx context.Context, userID string, consumedAt time.Time) (*snapshot.Snapshot, error) {
	defer observe("claim", "snapshots", time.Now())

	query := `
		UPDATE snapshots SET is_consumed = TRUE, consumed_at = $1
		WHERE user_id = $2 AND is_consumed = FALSE
		RETURNING ` + snapshotColumns

	s, err := scanSnapshot(r.db.QueryRowContext(ctx, query, consumedAt.Unix(), userID))
	if err == sql.ErrNoRows {
		return nil, errors.NoActiveSnapshot()
	}
	if err != nil {
		return nil, errors.DatabaseError("Failed to claim snapshot", err)
	}
	return s, nil
}

// ListByUser returns the user's snapshots without payloads, newest first
func (r *SnapshotRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*snapshot.Snapshot, int64, error) {
	var total int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM snapshots WHERE user_id = $1`, userID).Scan(&total)
	if err != nil {
		return nil, 0, errors.DatabaseError("Failed to count snapshots", err)
	}

	query := `
		SELECT id, user_id, schema_version, captured_at, is_consumed, consumed_at
		FROM snapshots
		WHERE user_id = $1
		ORDER BY captured_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, 0, errors.DatabaseError("Failed to list snapshots", err)
	}
	defer rows.Close()

	snaps := []*snapshot.Snapshot{}
	for rows.Next() {
		var s snapshot.Snapshot
		var capturedAt int64
		var consumedAt sql.NullInt64
		if err := rows.Scan(&s.ID, &s.UserID, &s.SchemaVersion, &capturedAt, &s.IsConsumed, &consumedAt); err != nil {
			return nil, 0, errors.DatabaseError("Failed to scan snapshot", err)
		}
		s.CapturedAt = time.Unix(capturedAt, 0)
		s.ConsumedAt = fromNullUnix(consumedAt)
		snaps = append(snaps, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.DatabaseError("Failed to iterate snapshots", err)
	}

	return snaps, total, nil
}
