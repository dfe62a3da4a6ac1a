package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pratik-mahalle/creatorhub/internal/domain/content"
	"github.com/pratik-mahalle/creatorhub/internal/pkg/dbx"
	"github.com/pratik-mahalle/creatorhub/internal/pkg/errors"
	"github.com/pratik-mahalle/creatorhub/internal/pkg/metrics"
)

// ContentRepository implements content.Repository
type ContentRepository struct {
	db      dbx.DBTX
	dialect dialect
}

// NewContentRepository creates a new content repository
func NewContentRepository(db dbx.DBTX) content.Repository {
	return newContentRepository(db, dialectOf(db))
}

func newContentRepository(db dbx.DBTX, d dialect) *ContentRepository {
	return &ContentRepository{db: db, dialect: d}
}

const postColumns = `id, user_id, platform, body, media_ref, status, scheduled_at, published_at,
	likes, comments, shares, impressions, created_at, updated_at`

const analyticsColumns = `id, user_id, platform, metric, value, recorded_at, created_at, updated_at`

func scanPost(row rowScanner) (*content.Post, error) {
	var p content.Post
	var mediaRef sql.NullString
	var scheduledAt, publishedAt sql.NullInt64
	var createdAt, updatedAt int64

	err := row.Scan(
		&p.ID, &p.UserID, &p.Platform, &p.Body, &mediaRef, &p.Status, &scheduledAt, &publishedAt,
		&p.Likes, &p.Comments, &p.Shares, &p.Impressions, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.MediaRef = fromNullString(mediaRef)
	p.ScheduledAt = fromNullUnix(scheduledAt)
	p.PublishedAt = fromNullUnix(publishedAt)
	p.CreatedAt = time.Unix(createdAt, 0)
	p.UpdatedAt = time.Unix(updatedAt, 0)
	return &p, nil
}

func scanAnalytics(row rowScanner) (*content.AnalyticsRecord, error) {
	var a content.AnalyticsRecord
	var recordedAt, createdAt, updatedAt int64

	err := row.Scan(&a.ID, &a.UserID, &a.Platform, &a.Metric, &a.Value, &recordedAt, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	a.RecordedAt = time.Unix(recordedAt, 0)
	a.CreatedAt = time.Unix(createdAt, 0)
	a.UpdatedAt = time.Unix(updatedAt, 0)
	return &a, nil
}

// CreatePost creates a new post
func (r *ContentRepository) CreatePost(ctx context.Context, p *content.Post) error {
	now := time.Now().Truncate(time.Second)
	p.CreatedAt = now
	p.UpdatedAt = now
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Status == "" {
		p.Status = content.StatusDraft
	}

	query := `
		INSERT INTO content_posts (` + postColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.db.ExecContext(ctx, query, postArgs(p)...)
	if err != nil {
		return errors.DatabaseError("Failed to create post", err)
	}
	return nil
}

func postArgs(p *content.Post) []interface{} {
	return []interface{}{
		p.ID, p.UserID, p.Platform, p.Body, strArg(p.MediaRef), p.Status,
		nullUnix(p.ScheduledAt), nullUnix(p.PublishedAt),
		p.Likes, p.Comments, p.Shares, p.Impressions, p.CreatedAt.Unix(), p.UpdatedAt.Unix(),
	}
}

// GetPost retrieves a post owned by userID
func (r *ContentRepository) GetPost(ctx context.Context, userID, id string) (*content.Post, error) {
	query := `SELECT ` + postColumns + ` FROM content_posts WHERE id = $1 AND user_id = $2`

	p, err := scanPost(r.db.QueryRowContext(ctx, query, id, userID))
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("Post")
	}
	if err != nil {
		return nil, errors.DatabaseError("Failed to get post", err)
	}
	return p, nil
}

// UpdatePost updates the editable fields of a post
func (r *ContentRepository) UpdatePost(ctx context.Context, p *content.Post) error {
	p.UpdatedAt = time.Now().Truncate(time.Second)

	query := `
		UPDATE content_posts
		SET body = $1, media_ref = $2, status = $3, scheduled_at = $4, published_at = $5, updated_at = $6
		WHERE id = $7 AND user_id = $8
	`

	result, err := r.db.ExecContext(ctx, query,
		p.Body, strArg(p.MediaRef), p.Status, nullUnix(p.ScheduledAt), nullUnix(p.PublishedAt),
		p.UpdatedAt.Unix(), p.ID, p.UserID,
	)
	if err != nil {
		return errors.DatabaseError("Failed to update post", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.DatabaseError("Failed to get affected rows", err)
	}
	if rows == 0 {
		return errors.NotFound("Post")
	}
	return nil
}

// DeletePost deletes a post owned by userID
func (r *ContentRepository) DeletePost(ctx context.Context, userID, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM content_posts WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return errors.DatabaseError("Failed to delete post", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.DatabaseError("Failed to get affected rows", err)
	}
	if rows == 0 {
		return errors.NotFound("Post")
	}
	return nil
}

// ListPosts lists a user's posts, newest first
func (r *ContentRepository) ListPosts(ctx context.Context, userID string, filter content.Filter, limit, offset int) ([]*content.Post, int64, error) {
	where := []string{"user_id = $1"}
	args := []interface{}{userID}

	if filter.Platform != "" {
		args = append(args, filter.Platform)
		where = append(where, fmt.Sprintf("platform = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	whereClause := strings.Join(where, " AND ")

	var total int64
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM content_posts WHERE "+whereClause, args...).Scan(&total)
	if err != nil {
		return nil, 0, errors.DatabaseError("Failed to count posts", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM content_posts WHERE %s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d OFFSET $%d`, postColumns, whereClause, len(args)+1, len(args)+2)

	posts, err := r.queryPosts(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

// CountPostsSince counts posts created at or after since
func (r *ContentRepository) CountPostsSince(ctx context.Context, userID string, since time.Time) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM content_posts WHERE user_id = $1 AND created_at >= $2`,
		userID, since.Unix(),
	).Scan(&n)
	if err != nil {
		return 0, errors.DatabaseError("Failed to count posts", err)
	}
	return n, nil
}

// CreateAnalytics stores a metric sample
func (r *ContentRepository) CreateAnalytics(ctx context.Context, a *content.AnalyticsRecord) error {
	now := time.Now().Truncate(time.Second)
	a.CreatedAt = now
	a.UpdatedAt = now
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.RecordedAt.IsZero() {
		a.RecordedAt = now
	}

	query := `INSERT INTO analytics_records (` + analyticsColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.ExecContext(ctx, query, analyticsArgs(a)...)
	if err != nil {
		return errors.DatabaseError("Failed to create analytics record", err)
	}
	return nil
}

func analyticsArgs(a *content.AnalyticsRecord) []interface{} {
	return []interface{}{
		a.ID, a.UserID, a.Platform, a.Metric, a.Value,
		a.RecordedAt.Unix(), a.CreatedAt.Unix(), a.UpdatedAt.Unix(),
	}
}

// ListAnalytics lists a user's samples, optionally for one platform
func (r *ContentRepository) ListAnalytics(ctx context.Context, userID string, platform string) ([]*content.AnalyticsRecord, error) {
	query := `SELECT ` + analyticsColumns + ` FROM analytics_records WHERE user_id = $1`
	args := []interface{}{userID}
	if platform != "" {
		query += ` AND platform = $2`
		args = append(args, platform)
	}
	query += ` ORDER BY recorded_at, id`

	return r.queryAnalytics(ctx, query, args...)
}

// AllPosts returns every post of the user, oldest first
func (r *ContentRepository) AllPosts(ctx context.Context, userID string) ([]*content.Post, error) {
	defer observe("select_all", "content_posts", time.Now())
	return r.queryPosts(ctx,
		`SELECT `+postColumns+` FROM content_posts WHERE user_id = $1 ORDER BY created_at, id`, userID)
}

// AllAnalytics returns every analytics record of the user, oldest first
func (r *ContentRepository) AllAnalytics(ctx context.Context, userID string) ([]*content.AnalyticsRecord, error) {
	defer observe("select_all", "analytics_records", time.Now())
	return r.queryAnalytics(ctx,
		`SELECT `+analyticsColumns+` FROM analytics_records WHERE user_id = $1 ORDER BY recorded_at, id`, userID)
}

// DeletePostsExcept removes the user's posts whose id is not in keep
func (r *ContentRepository) DeletePostsExcept(ctx context.Context, userID string, keep []string) (int64, error) {
	defer observe("delete_except", "content_posts", time.Now())
	return r.deleteExcept(ctx, "content_posts", userID, keep)
}

// DeleteAnalyticsExcept removes the user's analytics records whose id is not in keep
func (r *ContentRepository) DeleteAnalyticsExcept(ctx context.Context, userID string, keep []string) (int64, error) {
	defer observe("delete_except", "analytics_records", time.Now())
	return r.deleteExcept(ctx, "analytics_records", userID, keep)
}

func (r *ContentRepository) deleteExcept(ctx context.Context, table, userID string, keep []string) (int64, error) {
	query := `DELETE FROM ` + table + ` WHERE user_id = $1`
	args := []interface{}{userID}
	if len(keep) > 0 {
		cond, arg, err := notInIDs(r.dialect, 2, keep)
		if err != nil {
			return 0, errors.Internal("Failed to encode kept ids", err)
		}
		query += ` AND ` + cond
		args = append(args, arg)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, errors.DatabaseError("Failed to delete from "+table, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, errors.DatabaseError("Failed to get affected rows", err)
	}
	return n, nil
}

// UpsertPosts inserts or overwrites posts by id, timestamps included
func (r *ContentRepository) UpsertPosts(ctx context.Context, posts []*content.Post) error {
	defer observe("upsert", "content_posts", time.Now())

	query := `
		INSERT INTO content_posts (` + postColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO UPDATE SET
			user_id = excluded.user_id, platform = excluded.platform, body = excluded.body,
			media_ref = excluded.media_ref, status = excluded.status,
			scheduled_at = excluded.scheduled_at, published_at = excluded.published_at,
			likes = excluded.likes, comments = excluded.comments, shares = excluded.shares,
			impressions = excluded.impressions, created_at = excluded.created_at,
			updated_at = excluded.updated_at
	`

	for _, p := range posts {
		if _, err := r.db.ExecContext(ctx, query, postArgs(p)...); err != nil {
			return errors.DatabaseError("Failed to upsert post "+p.ID, err)
		}
	}
	return nil
}

// UpsertAnalytics inserts or overwrites analytics records by id
func (r *ContentRepository) UpsertAnalytics(ctx context.Context, records []*content.AnalyticsRecord) error {
	defer observe("upsert", "analytics_records", time.Now())

	query := `
		INSERT INTO analytics_records (` + analyticsColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			user_id = excluded.user_id, platform = excluded.platform, metric = excluded.metric,
			value = excluded.value, recorded_at = excluded.recorded_at,
			created_at = excluded.created_at, updated_at = excluded.updated_at
	`

	for _, a := range records {
		if _, err := r.db.ExecContext(ctx, query, analyticsArgs(a)...); err != nil {
			return errors.DatabaseError("Failed to upsert analytics record "+a.ID, err)
		}
	}
	return nil
}

func (r *ContentRepository) queryPosts(ctx context.Context, query string, args ...interface{}) ([]*content.Post, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.DatabaseError("Failed to list posts", err)
	}
	defer rows.Close()

	posts := []*content.Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, errors.DatabaseError("Failed to scan post", err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.DatabaseError("Failed to iterate posts", err)
	}
	return posts, nil
}

func (r *ContentRepository) queryAnalytics(ctx context.Context, query string, args ...interface{}) ([]*content.AnalyticsRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.DatabaseError("Failed to list analytics records", err)
	}
	defer rows.Close()

	records := []*content.AnalyticsRecord{}
	for rows.Next() {
		a, err := scanAnalytics(rows)
		if err != nil {
			return nil, errors.DatabaseError("Failed to scan analytics record", err)
		}
		records = append(records, a)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.DatabaseError("Failed to iterate analytics records", err)
	}
	return records, nil
}

func observe(op, table string, start time.Time) {
	metrics.RecordDBQuery(op, table, time.Since(start))
}
