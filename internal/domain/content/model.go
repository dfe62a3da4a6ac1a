package content

import "time"

// Post statuses
const (
	StatusDraft     = "draft"
	StatusScheduled = "scheduled"
	StatusPublished = "published"
	StatusFailed    = "failed"
)

// Post is a user-authored content item (content_posts). It carries no lock
// state; see IsLocked.
type Post struct {
	ID          string     `json:"id"`
	UserID      string     `json:"userId"`
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
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// AnalyticsRecord is a per-platform metric sample
type AnalyticsRecord struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	Platform   string    `json:"platform"`
	Metric     string    `json:"metric"`
	Value      float64   `json:"value"`
	RecordedAt time.Time `json:"recordedAt"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// PostView is a post annotated with its read-time lock status
type PostView struct {
	*Post
	Locked bool `json:"locked"`
}

// Filter narrows post listings
type Filter struct {
	Platform string
	Status   string
}
