package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// PostService handles content posts and analytics
type PostService struct {
	client *Client
}

// CreatePostRequest represents a new post
type CreatePostRequest struct {
	Platform    string     `json:"platform"`
	Body        string     `json:"body"`
	MediaRef    *string    `json:"mediaRef,omitempty"`
	Status      string     `json:"status,omitempty"`
	ScheduledAt *time.Time `json:"scheduledAt,omitempty"`
}

// UpdatePostRequest changes the non-nil fields of a post
type UpdatePostRequest struct {
	Body        *string    `json:"body,omitempty"`
	MediaRef    *string    `json:"mediaRef,omitempty"`
	Status      *string    `json:"status,omitempty"`
	ScheduledAt *time.Time `json:"scheduledAt,omitempty"`
}

// PostListOptions filters post listings
type PostListOptions struct {
	ListOptions
	Platform string
	Status   string
}

// List retrieves a page of posts
func (s *PostService) List(ctx context.Context, opts *PostListOptions) (*Page[Post], error) {
	query := url.Values{}
	if opts != nil {
		if opts.Page > 0 {
			query.Set("page", strconv.Itoa(opts.Page))
		}
		if opts.PageSize > 0 {
			query.Set("page_size", strconv.Itoa(opts.PageSize))
		}
		if opts.Platform != "" {
			query.Set("platform", opts.Platform)
		}
		if opts.Status != "" {
			query.Set("status", opts.Status)
		}
	}

	var page Page[Post]
	if err := s.client.doRequest(ctx, http.MethodGet, "/api/v1/content/posts", query, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Get retrieves a post by ID
func (s *PostService) Get(ctx context.Context, id string) (*Post, error) {
	var post Post
	if err := s.client.doRequest(ctx, http.MethodGet, "/api/v1/content/posts/"+url.PathEscape(id), nil, nil, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// Create creates a post
func (s *PostService) Create(ctx context.Context, req CreatePostRequest) (*Post, error) {
	var post Post
	if err := s.client.doRequest(ctx, http.MethodPost, "/api/v1/content/posts", nil, req, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// Update edits a post. Locked posts return a 403 APIError.
func (s *PostService) Update(ctx context.Context, id string, req UpdatePostRequest) (*Post, error) {
	var post Post
	if err := s.client.doRequest(ctx, http.MethodPut, "/api/v1/content/posts/"+url.PathEscape(id), nil, req, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// Delete deletes a post
func (s *PostService) Delete(ctx context.Context, id string) error {
	return s.client.doRequest(ctx, http.MethodDelete, "/api/v1/content/posts/"+url.PathEscape(id), nil, nil, nil)
}

// Analytics lists metric samples, optionally for one platform
func (s *PostService) Analytics(ctx context.Context, platform string) ([]AnalyticsRecord, error) {
	query := url.Values{}
	if platform != "" {
		query.Set("platform", platform)
	}
	var records []AnalyticsRecord
	if err := s.client.doRequest(ctx, http.MethodGet, "/api/v1/content/analytics", query, nil, &records); err != nil {
		return nil, err
	}
	return records, nil
}
