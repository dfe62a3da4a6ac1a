package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pratik-mahalle/creatorhub/internal/domain/snapshot"
	"github.com/pratik-mahalle/creatorhub/internal/domain/subscription"
	"github.com/pratik-mahalle/creatorhub/internal/domain/user"
	"github.com/pratik-mahalle/creatorhub/internal/pkg/errors"
)

// MockUserRepository is a mock implementation of user.Repository
type MockUserRepository struct {
	mu          sync.Mutex
	Users       map[string]*user.User
	EmailIndex  map[string]*user.User
	CreateError error
	GetError    error
	UpdateError error
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		Users:      make(map[string]*user.User),
		EmailIndex: make(map[string]*user.User),
	}
}

func (m *MockUserRepository) Create(ctx context.Context, u *user.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateError != nil {
		return m.CreateError
	}
	if _, ok := m.EmailIndex[u.Email]; ok {
		return errors.Conflict("User with this email already exists")
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.SubscriptionTier == "" {
		u.SubscriptionTier = user.TierNone
	}
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	m.Users[u.ID] = u
	m.EmailIndex[u.Email] = u
	return nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetError != nil {
		return nil, m.GetError
	}
	u, ok := m.Users[id]
	if !ok {
		return nil, errors.NotFound("User")
	}
	cp := *u
	return &cp, nil
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetError != nil {
		return nil, m.GetError
	}
	u, ok := m.EmailIndex[email]
	if !ok {
		return nil, errors.NotFound("User")
	}
	cp := *u
	return &cp, nil
}

func (m *MockUserRepository) GetByBillingCustomerRef(ctx context.Context, ref string) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.Users {
		if u.BillingCustomerRef != nil && *u.BillingCustomerRef == ref {
			cp := *u
			return &cp, nil
		}
	}
	return nil, errors.NotFound("User")
}

func (m *MockUserRepository) UpdateProfile(ctx context.Context, id string, displayName, avatarRef *string) error {
	return m.update(id, func(u *user.User) {
		u.DisplayName = displayName
		u.AvatarRef = avatarRef
	})
}

func (m *MockUserRepository) UpdateSubscription(ctx context.Context, id string, sub user.Subscription) error {
	return m.update(id, func(u *user.User) {
		u.SubscriptionTier = sub.Tier
		u.TrialPlan = sub.TrialPlan
		u.TrialStartedAt = sub.TrialStartedAt
		u.TrialEndAt = sub.TrialEndAt
		u.BillingCustomerRef = sub.BillingCustomerRef
		u.BillingSubscriptionRef = sub.BillingSubscriptionRef
		u.MonthlyContentLimit = sub.MonthlyContentLimit
	})
}

func (m *MockUserRepository) RestoreProfile(ctx context.Context, id string, p user.Profile) error {
	return m.update(id, func(u *user.User) {
		u.SubscriptionTier = p.SubscriptionTier
		u.DisplayName = p.DisplayName
		u.AvatarRef = p.AvatarRef
		u.TrialPlan = nil
		u.TrialStartedAt = nil
		u.TrialEndAt = nil
	})
}

func (m *MockUserRepository) ListExpiredTrials(ctx context.Context, now time.Time, limit int) ([]*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*user.User
	for _, u := range m.Users {
		if u.TrialPlan != nil && u.TrialEndAt != nil && u.TrialEndAt.Before(now) && u.SubscriptionTier.IsPaid() {
			cp := *u
			result = append(result, &cp)
		}
		if len(result) == limit {
			break
		}
	}
	return result, nil
}

func (m *MockUserRepository) ExpireTrial(ctx context.Context, id string, now time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UpdateError != nil {
		return false, m.UpdateError
	}
	u, ok := m.Users[id]
	if !ok || u.TrialPlan == nil || u.TrialEndAt == nil || !u.TrialEndAt.Before(now) || !u.SubscriptionTier.IsPaid() {
		return false, nil
	}
	u.SubscriptionTier = user.TierNone
	u.UpdatedAt = now
	return true, nil
}

func (m *MockUserRepository) update(id string, fn func(u *user.User)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UpdateError != nil {
		return m.UpdateError
	}
	u, ok := m.Users[id]
	if !ok {
		return errors.NotFound("User")
	}
	fn(u)
	u.UpdatedAt = time.Now()
	return nil
}

// MockBillingClient is a mock implementation of subscription.BillingClient
type MockBillingClient struct {
	mu            sync.Mutex
	Cancelled     []string
	Checkouts     []subscription.CheckoutRequest
	CancelError   error
	CheckoutError error
}

func (m *MockBillingClient) CancelSubscription(ctx context.Context, subscriptionRef string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CancelError != nil {
		return m.CancelError
	}
	m.Cancelled = append(m.Cancelled, subscriptionRef)
	return nil
}

func (m *MockBillingClient) CreateCheckoutSession(ctx context.Context, req subscription.CheckoutRequest) (*subscription.CheckoutSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CheckoutError != nil {
		return nil, m.CheckoutError
	}
	m.Checkouts = append(m.Checkouts, req)
	return &subscription.CheckoutSession{ID: "cs_test_" + req.UserID, URL: "https://checkout.test/" + string(req.Tier)}, nil
}

// MockBackupManager is a mock implementation of snapshot.BackupManager
type MockBackupManager struct {
	mu    sync.Mutex
	Calls []string
	Err   error
	// Existing is reported by EnsureSnapshot as a reused snapshot
	Existing map[string]bool
}

func (m *MockBackupManager) CaptureSnapshot(ctx context.Context, userID string) (*snapshot.CaptureResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, userID)
	if m.Err != nil {
		return nil, m.Err
	}
	return &snapshot.CaptureResult{SnapshotID: "snap-" + userID, CapturedAt: time.Now()}, nil
}

func (m *MockBackupManager) EnsureSnapshot(ctx context.Context, userID string) (*snapshot.CaptureResult, error) {
	m.mu.Lock()
	reused := m.Existing[userID]
	m.mu.Unlock()
	if !reused {
		return m.CaptureSnapshot(ctx, userID)
	}
	return &snapshot.CaptureResult{SnapshotID: "snap-" + userID, CapturedAt: time.Now(), Reused: true}, nil
}

// MockRestoreEngine is a mock implementation of snapshot.RestoreEngine
type MockRestoreEngine struct {
	mu    sync.Mutex
	Calls []string
	Err   error
}

func (m *MockRestoreEngine) Restore(ctx context.Context, userID string) (*snapshot.RestoreResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, userID)
	if m.Err != nil {
		return nil, m.Err
	}
	return &snapshot.RestoreResult{SnapshotID: "snap-" + userID, ConsumedAt: time.Now()}, nil
}

// MockArchiver records archived snapshots
type MockArchiver struct {
	mu       sync.Mutex
	Archived []*snapshot.Snapshot
	Err      error
}

func (m *MockArchiver) Archive(ctx context.Context, snap *snapshot.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Archived = append(m.Archived, snap)
	return nil
}

func (m *MockArchiver) Backend() string { return "mock" }

// MockController is a mock implementation of subscription.Controller
type MockController struct {
	mu        sync.Mutex
	Events    []*subscription.Event
	Cancelled []string
	Trials    []string
	Sweeps    int
	Expired   int
	Err       error
}

func (m *MockController) HandleBillingEvent(ctx context.Context, ev *subscription.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, ev)
	return m.Err
}

func (m *MockController) CancelSubscription(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Cancelled = append(m.Cancelled, userID)
	return m.Err
}

func (m *MockController) StartTrial(ctx context.Context, userID string, tier user.Tier, refs subscription.BillingRefs) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Trials = append(m.Trials, userID+":"+string(tier))
	return m.Err
}

func (m *MockController) ExpireTrials(ctx context.Context, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sweeps++
	return m.Expired, m.Err
}
