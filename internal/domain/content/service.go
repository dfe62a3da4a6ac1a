package content

import (
	"context"
	"time"
)

// CreatePostInput carries the author-provided fields of a post
type CreatePostInput struct {
	Platform    string
	Body        string
	MediaRef    *string
	Status      string
	ScheduledAt *time.Time
}

// UpdatePostInput carries editable fields; nil leaves a field unchanged
type UpdatePostInput struct {
	Body        *string
	MediaRef    *string
	Status      *string
	ScheduledAt *time.Time
}

// Service is the content-authoring surface. Every post it returns is
// annotated with its lock status.
type Service interface {
	ListPosts(ctx context.Context, userID string, filter Filter, limit, offset int) ([]PostView, int64, error)
	GetPost(ctx context.Context, userID, id string) (*PostView, error)
	CreatePost(ctx context.Context, userID string, in CreatePostInput) (*PostView, error)
	UpdatePost(ctx context.Context, userID, id string, in UpdatePostInput) (*PostView, error)
	DeletePost(ctx context.Context, userID, id string) error

	RecordAnalytics(ctx context.Context, userID string, rec *AnalyticsRecord) error
	ListAnalytics(ctx context.Context, userID, platform string) ([]*AnalyticsRecord, error)
}
