package client

import "time"

// User represents a user in the system
type User struct {
	ID                  string     `json:"id"`
	Email               string     `json:"email"`
	DisplayName         *string    `json:"displayName,omitempty"`
	AvatarRef           *string    `json:"avatarRef,omitempty"`
	SubscriptionTier    string     `json:"subscriptionTier"`
	TrialPlan           *string    `json:"trialPlan,omitempty"`
	TrialEndAt          *time.Time `json:"trialEndAt,omitempty"`
	MonthlyContentLimit *int       `json:"monthlyContentLimit"`
	PurchasedExtraUnits int        `json:"purchasedExtraUnits"`
	CreatedAt           time.Time  `json:"createdAt"`
}

// Plan is a paid subscription plan
type Plan struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Price        float64  `json:"price"`
	Currency     string   `json:"currency"`
	Interval     string   `json:"interval"`
	MonthlyLimit *int     `json:"monthlyLimit"` // nil = unlimited
	TrialDays    int      `json:"trialDays"`
	Features     []string `json:"features"`
	IsPopular    bool     `json:"isPopular"`
	IsCurrent    bool     `json:"isCurrent"`
}

// BillingInfo is the caller's subscription state
type BillingInfo struct {
	State                string     `json:"state"` // no_trial, trialing, active, expired, cancelled
	Plan                 *Plan      `json:"plan,omitempty"`
	TrialEndsAt          *time.Time `json:"trialEndsAt,omitempty"`
	DaysRemaining        int        `json:"daysRemaining"`
	HasActiveSnapshot    bool       `json:"hasActiveSnapshot"`
	MonthlyContentLimit  *int       `json:"monthlyContentLimit"`
	AvailableTransitions []string   `json:"availableTransitions"`
}

// CheckoutSession is a hosted checkout page
type CheckoutSession struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
}

// Post is a content post with its lock status
type Post struct {
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

// AnalyticsRecord is a metric sample
type AnalyticsRecord struct {
	ID         string    `json:"id"`
	Platform   string    `json:"platform"`
	Metric     string    `json:"metric"`
	Value      float64   `json:"value"`
	RecordedAt time.Time `json:"recordedAt"`
}

// Snapshot describes a trial-start snapshot
type Snapshot struct {
	ID            string     `json:"id"`
	SchemaVersion int        `json:"schemaVersion"`
	CapturedAt    time.Time  `json:"capturedAt"`
	IsConsumed    bool       `json:"isConsumed"`
	ConsumedAt    *time.Time `json:"consumedAt,omitempty"`
}

// RestoreResult summarises an applied restore
type RestoreResult struct {
	SnapshotID        string    `json:"snapshotId"`
	RestoredPosts     int       `json:"restoredPosts"`
	RestoredAnalytics int       `json:"restoredAnalytics"`
	DeletedPosts      int64     `json:"deletedPosts"`
	DeletedAnalytics  int64     `json:"deletedAnalytics"`
	ConsumedAt        time.Time `json:"consumedAt"`
}

// ListOptions contains common options for list operations
type ListOptions struct {
	Page     int `json:"page,omitempty"`      // Page number (1-based)
	PageSize int `json:"page_size,omitempty"` // Items per page
}

// Page is a paginated list response
type Page[T any] struct {
	Items      []T   `json:"items"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalItems int64 `json:"total_items"`
	TotalPages int   `json:"total_pages"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database,omitempty"`
	Redis    string `json:"redis,omitempty"`
}
