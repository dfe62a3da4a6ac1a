package services

import (
	"context"
	"fmt"
	"time"

	"github.com/pratik-mahalle/creatorhub/internal/domain/content"
	"github.com/pratik-mahalle/creatorhub/internal/domain/user"
	"github.com/pratik-mahalle/creatorhub/internal/pkg/errors"
	"github.com/pratik-mahalle/creatorhub/internal/pkg/logger"
)

// ContentService implements content.Service
type ContentService struct {
	repo   content.Repository
	users  user.Repository
	logger *logger.Logger
	now    func() time.Time
}

// NewContentService creates a new content service
func NewContentService(repo content.Repository, users user.Repository, log *logger.Logger) content.Service {
	return &ContentService{
		repo:   repo,
		users:  users,
		logger: log,
		now:    time.Now,
	}
}

// ListPosts lists the user's posts with lock status
func (s *ContentService) ListPosts(ctx context.Context, userID string, filter content.Filter, limit, offset int) ([]content.PostView, int64, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	posts, total, err := s.repo.ListPosts(ctx, userID, filter, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return content.Annotate(posts, u), total, nil
}

// GetPost returns a single post with lock status
func (s *ContentService) GetPost(ctx context.Context, userID, id string) (*content.PostView, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	p, err := s.repo.GetPost(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return &content.PostView{Post: p, Locked: content.IsLocked(p, u)}, nil
}

// CreatePost creates a post within the user's monthly allowance
func (s *ContentService) CreatePost(ctx context.Context, userID string, in content.CreatePostInput) (*content.PostView, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if allowance := u.ContentAllowance(); allowance >= 0 {
		used, err := s.repo.CountPostsSince(ctx, userID, monthStart(now))
		if err != nil {
			return nil, err
		}
		if used >= allowance {
			return nil, errors.QuotaExceeded(fmt.Sprintf("Monthly content limit of %d posts reached", allowance))
		}
	}

	status := in.Status
	if status == "" {
		status = content.StatusDraft
	}

	p := &content.Post{
		UserID:      userID,
		Platform:    in.Platform,
		Body:        in.Body,
		MediaRef:    in.MediaRef,
		Status:      status,
		ScheduledAt: in.ScheduledAt,
	}
	if status == content.StatusPublished {
		t := now.Truncate(time.Second)
		p.PublishedAt = &t
	}

	if err := s.repo.CreatePost(ctx, p); err != nil {
		s.logger.WithFields(map[string]interface{}{
			"user_id": userID,
		}).ErrorWithErr(err, "Failed to create post")
		return nil, err
	}

	return &content.PostView{Post: p, Locked: content.IsLocked(p, u)}, nil
}

// UpdatePost edits an unlocked post
func (s *ContentService) UpdatePost(ctx context.Context, userID, id string, in content.UpdatePostInput) (*content.PostView, error) {
	u, p, err := s.unlocked(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if in.Body != nil {
		p.Body = *in.Body
	}
	if in.MediaRef != nil {
		p.MediaRef = in.MediaRef
	}
	if in.ScheduledAt != nil {
		p.ScheduledAt = in.ScheduledAt
	}
	if in.Status != nil {
		if *in.Status == content.StatusPublished && p.PublishedAt == nil {
			t := s.now().Truncate(time.Second)
			p.PublishedAt = &t
		}
		p.Status = *in.Status
	}

	if err := s.repo.UpdatePost(ctx, p); err != nil {
		return nil, err
	}

	return &content.PostView{Post: p, Locked: content.IsLocked(p, u)}, nil
}

// DeletePost removes an unlocked post
func (s *ContentService) DeletePost(ctx context.Context, userID, id string) error {
	if _, _, err := s.unlocked(ctx, userID, id); err != nil {
		return err
	}
	return s.repo.DeletePost(ctx, userID, id)
}

func (s *ContentService) unlocked(ctx context.Context, userID, id string) (*user.User, *content.Post, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	p, err := s.repo.GetPost(ctx, userID, id)
	if err != nil {
		return nil, nil, err
	}
	if content.IsLocked(p, u) {
		return nil, nil, errors.Forbidden("Post is locked until you subscribe")
	}
	return u, p, nil
}

// RecordAnalytics stores a metric sample for the user
func (s *ContentService) RecordAnalytics(ctx context.Context, userID string, rec *content.AnalyticsRecord) error {
	rec.UserID = userID
	if rec.RecordedAt.IsZero() {
		rec.RecordedAt = s.now().Truncate(time.Second)
	}
	return s.repo.CreateAnalytics(ctx, rec)
}

// ListAnalytics lists the user's analytics, optionally for one platform
func (s *ContentService) ListAnalytics(ctx context.Context, userID, platform string) ([]*content.AnalyticsRecord, error) {
	return s.repo.ListAnalytics(ctx, userID, platform)
}

func monthStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
