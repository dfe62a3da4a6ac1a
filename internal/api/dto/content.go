package dto

import (
	"time"

	"github.com/pratik-mahalle/creatorhub/internal/domain/content"
)

// CreatePostRequest represents a new post
type CreatePostRequest struct {
	Platform    string     `json:"platform" validate:"required,oneof=instagram tiktok youtube x linkedin facebook"`
	Body        string     `json:"body" validate:"required,max=5000"`
	MediaRef    *string    `json:"mediaRef,omitempty" validate:"omitempty,max=512"`
	Status      string     `json:"status,omitempty" validate:"omitempty,oneof=draft scheduled published"`
	ScheduledAt *time.Time `json:"scheduledAt,omitempty"`
}

// UpdatePostRequest represents a partial post update
type UpdatePostRequest struct {
	Body        *string    `json:"body,omitempty" validate:"omitempty,max=5000"`
	MediaRef    *string    `json:"mediaRef,omitempty" validate:"omitempty,max=512"`
	Status      *string    `json:"status,omitempty" validate:"omitempty,oneof=draft scheduled published failed"`
	ScheduledAt *time.Time `json:"scheduledAt,omitempty"`
}

// PostDTO is a post with its lock status
type PostDTO struct {
	ID          string     `json:"id"`
	Platform    string     `json:"platform"`
	Body        string     `json:"body"`
	MediaRef    *string    `json:"mediaRef,omitempty"`
	Status      string     `json:"status"`
	ScheduledAt *time.Time `json:"scheduledAt,omitempty"`
	PublishedAt *time.Time `json:"publishedAt,omitempty"`
	Likes       int64      `json:"likes"`
	Comments    int64      `json:"comments"`
	Shares      int64      `json:"shares"`
	Impressions int64      `json:"impressions"`
	Locked      bool       `json:"locked"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// ToPostDTO converts an annotated post
func ToPostDTO(v content.PostView) PostDTO {
	return PostDTO{
		ID:          v.ID,
		Platform:    v.Platform,
		Body:        v.Body,
		MediaRef:    v.MediaRef,
		Status:      v.Status,
		ScheduledAt: v.ScheduledAt,
		PublishedAt: v.PublishedAt,
		Likes:       v.Likes,
		Comments:    v.Comments,
		Shares:      v.Shares,
		Impressions: v.Impressions,
		Locked:      v.Locked,
		CreatedAt:   v.CreatedAt,
		UpdatedAt:   v.UpdatedAt,
	}
}

// ToPostDTOs converts a page of annotated posts
func ToPostDTOs(views []content.PostView) []PostDTO {
	out := make([]PostDTO, 0, len(views))
	for _, v := range views {
		out = append(out, ToPostDTO(v))
	}
	return out
}

// RecordAnalyticsRequest represents a metric sample
type RecordAnalyticsRequest struct {
	Platform   string     `json:"platform" validate:"required"`
	Metric     string     `json:"metric" validate:"required,max=64"`
	Value      float64    `json:"value"`
	RecordedAt *time.Time `json:"recordedAt,omitempty"`
}
