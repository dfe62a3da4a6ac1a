package content

import (
	"context"
	"time"
)

// Repository defines data access for posts and analytics records.
// The bulk methods back snapshot capture and restore.
type Repository interface {
	CreatePost(ctx context.Context, p *Post) error
	GetPost(ctx context.Context, userID, id string) (*Post, error)
	UpdatePost(ctx context.Context, p *Post) error
	DeletePost(ctx context.Context, userID, id string) error
	ListPosts(ctx context.Context, userID string, filter Filter, limit, offset int) ([]*Post, int64, error)
	CountPostsSince(ctx context.Context, userID string, since time.Time) (int, error)

	CreateAnalytics(ctx context.Context, a *AnalyticsRecord) error
	ListAnalytics(ctx context.Context, userID string, platform string) ([]*AnalyticsRecord, error)

	// AllPosts returns every post of the user, oldest first
	AllPosts(ctx context.Context, userID string) ([]*Post, error)
	// AllAnalytics returns every analytics record of the user, oldest first
	AllAnalytics(ctx context.Context, userID string) ([]*AnalyticsRecord, error)

	// DeletePostsExcept removes the user's posts whose id is not in keep
	DeletePostsExcept(ctx context.Context, userID string, keep []string) (int64, error)
	// DeleteAnalyticsExcept removes the user's analytics records whose id is not in keep
	DeleteAnalyticsExcept(ctx context.Context, userID string, keep []string) (int64, error)

	// UpsertPosts inserts or overwrites posts by id, timestamps included
	UpsertPosts(ctx context.Context, posts []*Post) error
	// UpsertAnalytics inserts or overwrites analytics records by id
	UpsertAnalytics(ctx context.Context, records []*AnalyticsRecord) error
}
