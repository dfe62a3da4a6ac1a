package services

import (
	"context"
	"database/sql"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pratik-mahalle/creatorhub/internal/domain/content"
	"github.com/pratik-mahalle/creatorhub/internal/domain/snapshot"
	"github.com/pratik-mahalle/creatorhub/internal/domain/subscription"
	"github.com/pratik-mahalle/creatorhub/internal/domain/user"
	"github.com/pratik-mahalle/creatorhub/internal/pkg/errors"
	"github.com/pratik-mahalle/creatorhub/internal/pkg/logger"
	"github.com/pratik-mahalle/creatorhub/internal/repository"
	"github.com/pratik-mahalle/creatorhub/internal/repository/postgres"
	"github.com/pratik-mahalle/creatorhub/internal/testutil"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Level: "error", Format: "json"})
}

// lifecycle wires the real repositories, backup manager and restore engine
// over an in-memory database with a fake billing provider and a movable clock.
type lifecycle struct {
	db       *sql.DB
	repos    repository.Manager
	ctrl     *SubscriptionController
	restore  snapshot.RestoreEngine
	billing  *testutil.MockBillingClient
	archiver *testutil.MockArchiver
	clock    time.Time
	userID   string
}

func newLifecycle(t *testing.T) *lifecycle {
	t.Helper()

	db := testutil.NewTestDB(t)
	t.Cleanup(func() { testutil.CleanupDB(db) })

	log := testLogger()
	repos := postgres.NewManager(db)
	lc := &lifecycle{
		db:       db,
		repos:    repos,
		billing:  &testutil.MockBillingClient{},
		archiver: &testutil.MockArchiver{},
		clock:    time.Now().Add(-200 * 24 * time.Hour).Truncate(time.Second),
		userID:   testutil.SeedUser(t, db, "creator@example.com"),
	}
	lc.restore = NewRestoreEngine(repos, lc.archiver, log)
	lc.ctrl = NewSubscriptionController(
		repos.Users(), NewBackupManager(repos, log), lc.restore, lc.billing, subscription.TrialDays, log,
	).(*SubscriptionController)
	lc.ctrl.now = func() time.Time { return lc.clock }
	return lc
}

func (lc *lifecycle) advance(d time.Duration) {
	lc.clock = lc.clock.Add(d)
}

func (lc *lifecycle) seedPost(t *testing.T, body string, at time.Time) *content.Post {
	t.Helper()
	p := &content.Post{
		ID:        uuid.NewString(),
		UserID:    lc.userID,
		Platform:  "instagram",
		Body:      body,
		Status:    content.StatusDraft,
		CreatedAt: at,
		UpdatedAt: at,
	}
	require.NoError(t, lc.repos.Content().UpsertPosts(context.Background(), []*content.Post{p}))
	return p
}

func (lc *lifecycle) user(t *testing.T) *user.User {
	t.Helper()
	u, err := lc.repos.Users().GetByID(context.Background(), lc.userID)
	require.NoError(t, err)
	return u
}

func (lc *lifecycle) bodies(t *testing.T) map[string]string {
	t.Helper()
	posts, err := lc.repos.Content().AllPosts(context.Background(), lc.userID)
	require.NoError(t, err)
	out := make(map[string]string, len(posts))
	for _, p := range posts {
		out[p.ID] = p.Body
	}
	return out
}

func (lc *lifecycle) checkout(plan string) *subscription.Event {
	return &subscription.Event{
		ID:              "evt_" + uuid.NewString(),
		Type:            subscription.EventCheckoutCompleted,
		CustomerRef:     "cus_test",
		SubscriptionRef: "sub_test",
		Metadata:        subscription.Metadata{UserID: lc.userID, PlanType: plan},
	}
}

func (lc *lifecycle) event(typ, status string) *subscription.Event {
	return &subscription.Event{
		ID:              "evt_" + uuid.NewString(),
		Type:            typ,
		CustomerRef:     "cus_test",
		SubscriptionRef: "sub_test",
		Status:          status,
	}
}

func (lc *lifecycle) activeSnapshots(t *testing.T) int {
	return testutil.CountRows(t, lc.db, "snapshots", "user_id = $1 AND is_consumed = FALSE", lc.userID)
}

func TestLifecycle_ExpiredTrialCancellationRemovesTrialContent(t *testing.T) {
	lc := newLifecycle(t)
	ctx := context.Background()
	t0 := lc.clock

	require.NoError(t, lc.ctrl.HandleBillingEvent(ctx, lc.checkout("pro")))

	active, err := lc.repos.Snapshots().GetActive(ctx, lc.userID)
	require.NoError(t, err)
	payload, err := snapshot.Decode(active.Payload)
	require.NoError(t, err)
	assert.Empty(t, payload.Posts)

	u := lc.user(t)
	assert.Equal(t, user.TierPro, u.SubscriptionTier)
	require.NotNil(t, u.TrialEndAt)
	assert.True(t, u.TrialEndAt.Equal(t0.AddDate(0, 0, subscription.TrialDays)))
	require.NotNil(t, u.MonthlyContentLimit)
	assert.Equal(t, 300, *u.MonthlyContentLimit)
	require.NotNil(t, u.BillingCustomerRef)
	assert.Equal(t, "cus_test", *u.BillingCustomerRef)

	p1 := lc.seedPost(t, "first trial post", t0.Add(24*time.Hour))

	lc.advance(20 * 24 * time.Hour)
	n, err := lc.ctrl.ExpireTrials(ctx, lc.clock)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.True(t, content.IsLocked(p1, lc.user(t)), "trial post should lock once the trial lapses")

	require.NoError(t, lc.ctrl.HandleBillingEvent(ctx, lc.event(subscription.EventSubscriptionDeleted, subscription.StatusCanceled)))

	assert.Empty(t, lc.bodies(t))
	assert.Equal(t, 0, lc.activeSnapshots(t))
	assert.Equal(t, 1, testutil.CountRows(t, lc.db, "snapshots", "user_id = $1 AND is_consumed = TRUE", lc.userID))
	assert.Len(t, lc.archiver.Archived, 1)

	u = lc.user(t)
	assert.Equal(t, user.TierNone, u.SubscriptionTier)
	assert.Nil(t, u.TrialPlan)
	assert.Nil(t, u.TrialStartedAt)

	// a redelivered cancellation finds nothing to restore and changes nothing
	lc.seedPost(t, "after cancellation", lc.clock)
	require.NoError(t, lc.ctrl.HandleBillingEvent(ctx, lc.event(subscription.EventSubscriptionDeleted, subscription.StatusCanceled)))
	assert.Len(t, lc.bodies(t), 1)

	_, err = lc.restore.Restore(ctx, lc.userID)
	assert.True(t, errors.IsCode(err, errors.ErrCodeNoActiveSnapshot))
	assert.Len(t, lc.archiver.Archived, 1)
}

func TestLifecycle_CancellationRevertsEditsAndAdditions(t *testing.T) {
	lc := newLifecycle(t)
	ctx := context.Background()
	t0 := lc.clock

	a := lc.seedPost(t, "original A", t0.Add(-48*time.Hour))
	b := lc.seedPost(t, "original B", t0.Add(-24*time.Hour))

	require.NoError(t, lc.ctrl.StartTrial(ctx, lc.userID, user.TierGrowth, subscription.BillingRefs{
		CustomerRef:     "cus_b",
		SubscriptionRef: "sub_b",
	}))

	svc := NewContentService(lc.repos.Content(), lc.repos.Users(), testLogger())
	edited := "edited during trial"
	_, err := svc.UpdatePost(ctx, lc.userID, a.ID, content.UpdatePostInput{Body: &edited})
	require.NoError(t, err)
	lc.seedPost(t, "trial post", t0.Add(time.Hour))
	require.Len(t, lc.bodies(t), 3)

	lc.advance(3 * 24 * time.Hour)
	require.NoError(t, lc.ctrl.CancelSubscription(ctx, lc.userID))

	assert.Equal(t, []string{"sub_b"}, lc.billing.Cancelled)
	assert.Equal(t, map[string]string{
		a.ID: "original A",
		b.ID: "original B",
	}, lc.bodies(t))

	u := lc.user(t)
	assert.Equal(t, user.TierNone, u.SubscriptionTier)
	assert.Nil(t, u.TrialEndAt)
	assert.Nil(t, u.MonthlyContentLimit)
	require.NotNil(t, u.BillingSubscriptionRef)
	assert.Equal(t, "sub_b", *u.BillingSubscriptionRef)
}

func TestLifecycle_ConvertedSubscriptionRestoresTrialStartState(t *testing.T) {
	lc := newLifecycle(t)
	ctx := context.Background()
	t0 := lc.clock

	before := "Before Trial"
	require.NoError(t, lc.repos.Users().UpdateProfile(ctx, lc.userID, &before, nil))
	orig := lc.seedPost(t, "pre-trial", t0.Add(-time.Hour))

	require.NoError(t, lc.ctrl.HandleBillingEvent(ctx, lc.checkout("growth")))

	during := "During Trial"
	require.NoError(t, lc.repos.Users().UpdateProfile(ctx, lc.userID, &during, nil))
	trialPost := lc.seedPost(t, "trial", t0.Add(2*24*time.Hour))

	lc.advance(subscription.TrialDays*24*time.Hour + time.Hour)
	trialEnd := t0.AddDate(0, 0, subscription.TrialDays)
	converted := lc.event(subscription.EventSubscriptionUpdated, subscription.StatusActive)
	converted.TrialEnd = &trialEnd
	converted.Metadata.PlanType = "business"
	require.NoError(t, lc.ctrl.HandleBillingEvent(ctx, converted))

	u := lc.user(t)
	assert.Equal(t, user.TierBusiness, u.SubscriptionTier)
	assert.Nil(t, u.TrialPlan)
	assert.Nil(t, u.TrialEndAt)
	assert.NotNil(t, u.TrialStartedAt)
	assert.False(t, content.IsLocked(trialPost, u))
	assert.Equal(t, 1, lc.activeSnapshots(t))

	// the sweeper leaves converted users alone
	n, err := lc.ctrl.ExpireTrials(ctx, lc.clock)
	require.NoError(t, err)
	assert.Zero(t, n)

	lc.seedPost(t, "months later", t0.AddDate(0, 3, 0))
	lc.advance(120 * 24 * time.Hour)
	require.NoError(t, lc.ctrl.HandleBillingEvent(ctx, lc.event(subscription.EventSubscriptionUpdated, subscription.StatusCanceled)))

	assert.Equal(t, map[string]string{orig.ID: "pre-trial"}, lc.bodies(t))
	u = lc.user(t)
	require.NotNil(t, u.DisplayName)
	assert.Equal(t, before, *u.DisplayName)
	assert.Equal(t, user.TierNone, u.SubscriptionTier)
}

func TestLifecycle_CheckoutRedeliveryKeepsBaselineSnapshot(t *testing.T) {
	lc := newLifecycle(t)
	ctx := context.Background()
	t0 := lc.clock
	orig := lc.seedPost(t, "pre-trial", t0.Add(-time.Hour))

	require.NoError(t, lc.ctrl.HandleBillingEvent(ctx, lc.checkout("starter")))
	lc.seedPost(t, "trial", lc.clock.Add(time.Minute))
	lc.advance(time.Hour)
	require.NoError(t, lc.ctrl.HandleBillingEvent(ctx, lc.checkout("starter")))

	assert.Equal(t, 1, lc.activeSnapshots(t))
	u := lc.user(t)
	require.NotNil(t, u.TrialStartedAt)
	assert.True(t, u.TrialStartedAt.Equal(t0))
	require.NotNil(t, u.TrialEndAt)
	assert.True(t, u.TrialEndAt.Equal(t0.AddDate(0, 0, subscription.TrialDays)))

	require.NoError(t, lc.ctrl.HandleBillingEvent(ctx, lc.event(subscription.EventSubscriptionDeleted, subscription.StatusCanceled)))
	assert.Equal(t, map[string]string{orig.ID: "pre-trial"}, lc.bodies(t))
}

func TestLifecycle_CheckoutAfterLapseStartsNewTrial(t *testing.T) {
	lc := newLifecycle(t)
	ctx := context.Background()
	t0 := lc.clock
	orig := lc.seedPost(t, "pre-trial", t0.Add(-time.Hour))

	require.NoError(t, lc.ctrl.HandleBillingEvent(ctx, lc.checkout("pro")))
	p1 := lc.seedPost(t, "first trial post", t0.Add(24*time.Hour))

	lc.advance(20 * 24 * time.Hour)
	n, err := lc.ctrl.ExpireTrials(ctx, lc.clock)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Equal(t, subscription.StateExpired, subscription.StateOf(lc.user(t), lc.clock))
	require.True(t, content.IsLocked(p1, lc.user(t)))

	require.NoError(t, lc.ctrl.HandleBillingEvent(ctx, lc.checkout("growth")))

	u := lc.user(t)
	assert.Equal(t, user.TierGrowth, u.SubscriptionTier)
	assert.Equal(t, subscription.StateTrialing, subscription.StateOf(u, lc.clock))
	require.NotNil(t, u.TrialStartedAt)
	assert.True(t, u.TrialStartedAt.Equal(t0), "window start is kept so first-trial posts stay covered")
	require.NotNil(t, u.TrialEndAt)
	assert.True(t, u.TrialEndAt.Equal(lc.clock.AddDate(0, 0, subscription.TrialDays)))
	assert.False(t, content.IsLocked(p1, u))

	// the baseline from before the first trial is still the active snapshot
	assert.Equal(t, 1, lc.activeSnapshots(t))
	active, err := lc.repos.Snapshots().GetActive(ctx, lc.userID)
	require.NoError(t, err)
	payload, err := snapshot.Decode(active.Payload)
	require.NoError(t, err)
	require.Len(t, payload.Posts, 1)
	assert.Equal(t, orig.ID, payload.Posts[0].ID)

	require.NoError(t, lc.ctrl.HandleBillingEvent(ctx, lc.event(subscription.EventSubscriptionDeleted, subscription.StatusCanceled)))
	assert.Equal(t, map[string]string{orig.ID: "pre-trial"}, lc.bodies(t))
}

func TestLifecycle_ActivationBeforeCheckoutIsRetried(t *testing.T) {
	lc := newLifecycle(t)
	ctx := context.Background()

	activated := lc.event(subscription.EventSubscriptionUpdated, subscription.StatusActive)
	activated.Metadata.UserID = lc.userID

	err := lc.ctrl.HandleBillingEvent(ctx, activated)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeTransitionPending), "got %v", err)
	assert.Equal(t, user.TierNone, lc.user(t).SubscriptionTier)
	assert.Equal(t, 0, lc.activeSnapshots(t))

	// the checkout lands, then the redelivered activation converts
	require.NoError(t, lc.ctrl.HandleBillingEvent(ctx, lc.checkout("pro")))
	require.NoError(t, lc.ctrl.HandleBillingEvent(ctx, activated))

	u := lc.user(t)
	assert.Equal(t, user.TierPro, u.SubscriptionTier)
	assert.Nil(t, u.TrialPlan)
}

func TestLifecycle_CheckoutForCancelledSubscriptionIsIgnored(t *testing.T) {
	lc := newLifecycle(t)
	ctx := context.Background()
	orig := lc.seedPost(t, "pre-trial", lc.clock.Add(-time.Hour))

	first := lc.checkout("pro")
	require.NoError(t, lc.ctrl.HandleBillingEvent(ctx, first))
	require.NoError(t, lc.ctrl.HandleBillingEvent(ctx, lc.event(subscription.EventSubscriptionDeleted, subscription.StatusCanceled)))
	require.Equal(t, 0, lc.activeSnapshots(t))

	lc.advance(time.Hour)
	lc.seedPost(t, "after cancellation", lc.clock)
	require.NoError(t, lc.ctrl.HandleBillingEvent(ctx, first))

	u := lc.user(t)
	assert.Equal(t, user.TierNone, u.SubscriptionTier)
	assert.Nil(t, u.TrialPlan)
	assert.Nil(t, u.TrialStartedAt)
	assert.Equal(t, 0, lc.activeSnapshots(t))

	// a checkout for a new subscription opens the next cycle
	next := lc.checkout("starter")
	next.SubscriptionRef = "sub_next"
	require.NoError(t, lc.ctrl.HandleBillingEvent(ctx, next))

	u = lc.user(t)
	assert.Equal(t, user.TierStarter, u.SubscriptionTier)
	require.NotNil(t, u.BillingSubscriptionRef)
	assert.Equal(t, "sub_next", *u.BillingSubscriptionRef)
	assert.Equal(t, 1, lc.activeSnapshots(t))
	assert.Len(t, lc.bodies(t), 2)
	assert.Contains(t, lc.bodies(t), orig.ID)
}

func TestLifecycle_CaptureFailureAbortsTrialStart(t *testing.T) {
	lc := newLifecycle(t)
	ctx := context.Background()

	// fail the snapshot upsert
	_, err := lc.db.Exec(`DROP TABLE snapshots`)
	require.NoError(t, err)

	err = lc.ctrl.HandleBillingEvent(ctx, lc.checkout("pro"))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeSnapshotCaptureFailed))

	u := lc.user(t)
	assert.Equal(t, user.TierNone, u.SubscriptionTier)
	assert.Nil(t, u.TrialPlan)
	assert.Nil(t, u.TrialStartedAt)
}

func TestLifecycle_CorruptSnapshotRollsBackRestore(t *testing.T) {
	lc := newLifecycle(t)
	ctx := context.Background()

	lc.seedPost(t, "kept", lc.clock.Add(-time.Hour))
	require.NoError(t, lc.ctrl.HandleBillingEvent(ctx, lc.checkout("pro")))
	lc.seedPost(t, "trial", lc.clock.Add(time.Hour))

	_, err := lc.db.Exec(`UPDATE snapshots SET payload = 'not json' WHERE user_id = $1`, lc.userID)
	require.NoError(t, err)

	err = lc.ctrl.CancelSubscription(ctx, lc.userID)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeRestoreFailed))

	assert.Len(t, lc.bodies(t), 2)
	assert.Equal(t, 1, lc.activeSnapshots(t))
	assert.Equal(t, user.TierPro, lc.user(t).SubscriptionTier)
}

func TestLifecycle_ConcurrentRestoresApplyOnce(t *testing.T) {
	lc := newLifecycle(t)
	ctx := context.Background()

	lc.seedPost(t, "kept", lc.clock.Add(-time.Hour))
	require.NoError(t, lc.ctrl.HandleBillingEvent(ctx, lc.checkout("pro")))
	lc.seedPost(t, "trial", lc.clock.Add(time.Hour))

	const workers = 8
	var wg sync.WaitGroup
	var mu sync.Mutex
	var ok, missing int

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := lc.restore.Restore(ctx, lc.userID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.IsCode(err, errors.ErrCodeNoActiveSnapshot):
				missing++
			default:
				t.Errorf("Restore() unexpected error = %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, ok)
	assert.Equal(t, workers-1, missing)
	assert.Len(t, lc.bodies(t), 1)
}

func TestRestoreEngine_CommitFailureIsRestoreFailed(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE snapshots").WillReturnError(stderrors.New("connection reset"))
	mock.ExpectRollback()

	engine := NewRestoreEngine(postgres.NewManager(db), nil, testLogger())
	_, err = engine.Restore(context.Background(), "user-1")

	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeRestoreFailed))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// controller over mocks

func newMockController(t *testing.T) (*SubscriptionController, *testutil.MockUserRepository, *testutil.MockBackupManager, *testutil.MockRestoreEngine, *testutil.MockBillingClient) {
	t.Helper()
	users := testutil.NewMockUserRepository()
	backup := &testutil.MockBackupManager{}
	restore := &testutil.MockRestoreEngine{}
	billing := &testutil.MockBillingClient{}
	ctrl := NewSubscriptionController(users, backup, restore, billing, 0, testLogger()).(*SubscriptionController)
	return ctrl, users, backup, restore, billing
}

func seedMockUser(t *testing.T, users *testutil.MockUserRepository, fn func(u *user.User)) *user.User {
	t.Helper()
	u := &user.User{Email: uuid.NewString() + "@example.com"}
	require.NoError(t, users.Create(context.Background(), u))
	if fn != nil {
		fn(u)
		require.NoError(t, users.UpdateSubscription(context.Background(), u.ID, u.Subscription()))
	}
	return u
}

func TestSubscriptionController_HandleBillingEvent(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)
	pro := user.TierPro
	subRef := "sub_1"

	tests := []struct {
		name        string
		setup       func(u *user.User)
		event       func(u *user.User) *subscription.Event
		backupErr   error
		existing    bool
		wantErr     string
		wantTier    user.Tier
		wantCapture int
		wantRestore int
	}{
		{
			name: "unknown event type is ignored",
			event: func(u *user.User) *subscription.Event {
				return &subscription.Event{Type: "invoice.paid", Metadata: subscription.Metadata{UserID: u.ID}}
			},
			wantTier: user.TierNone,
		},
		{
			name: "checkout starts trial",
			event: func(u *user.User) *subscription.Event {
				return &subscription.Event{Type: subscription.EventCheckoutCompleted, Metadata: subscription.Metadata{UserID: u.ID, PlanType: "pro"}}
			},
			wantTier:    user.TierPro,
			wantCapture: 1,
		},
		{
			name: "checkout without plan is rejected",
			event: func(u *user.User) *subscription.Event {
				return &subscription.Event{Type: subscription.EventCheckoutCompleted, Metadata: subscription.Metadata{UserID: u.ID}}
			},
			wantErr:  errors.ErrCodeValidation,
			wantTier: user.TierNone,
		},
		{
			name: "capture failure aborts trial",
			event: func(u *user.User) *subscription.Event {
				return &subscription.Event{Type: subscription.EventCheckoutCompleted, Metadata: subscription.Metadata{UserID: u.ID, PlanType: "pro"}}
			},
			backupErr:   errors.SnapshotCaptureFailed(stderrors.New("disk full")),
			wantErr:     errors.ErrCodeSnapshotCaptureFailed,
			wantTier:    user.TierNone,
			wantCapture: 1,
		},
		{
			name: "checkout for active subscriber is ignored",
			setup: func(u *user.User) {
				u.SubscriptionTier = user.TierBusiness
			},
			event: func(u *user.User) *subscription.Event {
				return &subscription.Event{Type: subscription.EventCheckoutCompleted, Metadata: subscription.Metadata{UserID: u.ID, PlanType: "pro"}}
			},
			wantTier: user.TierBusiness,
		},
		{
			name: "unknown user is ignored",
			event: func(u *user.User) *subscription.Event {
				return &subscription.Event{Type: subscription.EventSubscriptionDeleted, CustomerRef: "cus_nobody"}
			},
			wantTier: user.TierNone,
		},
		{
			name: "trialing update is a no-op",
			setup: func(u *user.User) {
				u.SubscriptionTier = pro
				u.TrialPlan = &pro
				u.TrialStartedAt = &past
				u.TrialEndAt = &future
			},
			event: func(u *user.User) *subscription.Event {
				return &subscription.Event{Type: subscription.EventSubscriptionUpdated, Status: subscription.StatusTrialing, Metadata: subscription.Metadata{UserID: u.ID}}
			},
			wantTier: user.TierPro,
		},
		{
			name: "past due cancels and restores",
			setup: func(u *user.User) {
				u.SubscriptionTier = pro
				u.BillingSubscriptionRef = &subRef
			},
			event: func(u *user.User) *subscription.Event {
				return &subscription.Event{Type: subscription.EventSubscriptionUpdated, Status: subscription.StatusPastDue, Metadata: subscription.Metadata{UserID: u.ID}}
			},
			wantTier:    user.TierNone,
			wantRestore: 1,
		},
		{
			name: "activation before checkout is retried",
			event: func(u *user.User) *subscription.Event {
				return &subscription.Event{Type: subscription.EventSubscriptionUpdated, Status: subscription.StatusActive, Metadata: subscription.Metadata{UserID: u.ID}}
			},
			wantErr:  errors.ErrCodeTransitionPending,
			wantTier: user.TierNone,
		},
		{
			name: "checkout for cancelled subscription is ignored",
			setup: func(u *user.User) {
				u.BillingSubscriptionRef = &subRef
			},
			event: func(u *user.User) *subscription.Event {
				return &subscription.Event{Type: subscription.EventCheckoutCompleted, SubscriptionRef: subRef, Metadata: subscription.Metadata{UserID: u.ID, PlanType: "pro"}}
			},
			wantTier: user.TierNone,
		},
		{
			name: "checkout after lapse keeps existing snapshot",
			setup: func(u *user.User) {
				u.TrialPlan = &pro
				u.TrialStartedAt = &past
				u.TrialEndAt = &past
			},
			event: func(u *user.User) *subscription.Event {
				return &subscription.Event{Type: subscription.EventCheckoutCompleted, Metadata: subscription.Metadata{UserID: u.ID, PlanType: "growth"}}
			},
			existing: true,
			wantTier: user.TierGrowth,
		},
		{
			name: "active after trial end converts to trial plan",
			setup: func(u *user.User) {
				u.SubscriptionTier = pro
				u.TrialPlan = &pro
				u.TrialStartedAt = &past
				u.TrialEndAt = &past
			},
			event: func(u *user.User) *subscription.Event {
				return &subscription.Event{Type: subscription.EventSubscriptionUpdated, Status: subscription.StatusActive, Metadata: subscription.Metadata{UserID: u.ID}}
			},
			wantTier: user.TierPro,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl, users, backup, restore, _ := newMockController(t)
			ctrl.now = func() time.Time { return now }
			backup.Err = tt.backupErr
			u := seedMockUser(t, users, tt.setup)
			if tt.existing {
				backup.Existing = map[string]bool{u.ID: true}
			}

			err := ctrl.HandleBillingEvent(context.Background(), tt.event(u))
			if tt.wantErr == "" {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.True(t, errors.IsCode(err, tt.wantErr), "got %v", err)
			}

			got, err := users.GetByID(context.Background(), u.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.wantTier, got.SubscriptionTier)
			assert.Len(t, backup.Calls, tt.wantCapture)
			assert.Len(t, restore.Calls, tt.wantRestore)
		})
	}
}

func TestSubscriptionController_CancelSubscription(t *testing.T) {
	pro := user.TierPro
	subRef := "sub_1"

	t.Run("provider failure stops before restore", func(t *testing.T) {
		ctrl, users, _, restore, billing := newMockController(t)
		billing.CancelError = stderrors.New("stripe down")
		u := seedMockUser(t, users, func(u *user.User) {
			u.SubscriptionTier = pro
			u.BillingSubscriptionRef = &subRef
		})

		err := ctrl.CancelSubscription(context.Background(), u.ID)
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrCodeBillingProvider))
		assert.Empty(t, restore.Calls)
	})

	t.Run("missing snapshot still cancels", func(t *testing.T) {
		ctrl, users, _, restore, billing := newMockController(t)
		restore.Err = errors.NoActiveSnapshot()
		u := seedMockUser(t, users, func(u *user.User) {
			u.SubscriptionTier = pro
			u.BillingSubscriptionRef = &subRef
		})

		require.NoError(t, ctrl.CancelSubscription(context.Background(), u.ID))
		assert.Equal(t, []string{subRef}, billing.Cancelled)

		got, _ := users.GetByID(context.Background(), u.ID)
		assert.Equal(t, user.TierNone, got.SubscriptionTier)
	})

	t.Run("restore failure keeps subscription fields", func(t *testing.T) {
		ctrl, users, _, restore, _ := newMockController(t)
		restore.Err = errors.RestoreFailed(stderrors.New("boom"))
		u := seedMockUser(t, users, func(u *user.User) {
			u.SubscriptionTier = pro
		})

		err := ctrl.CancelSubscription(context.Background(), u.ID)
		assert.True(t, errors.IsCode(err, errors.ErrCodeRestoreFailed))

		got, _ := users.GetByID(context.Background(), u.ID)
		assert.Equal(t, user.TierPro, got.SubscriptionTier)
	})

	t.Run("never subscribed skips provider", func(t *testing.T) {
		ctrl, users, _, restore, billing := newMockController(t)
		u := seedMockUser(t, users, nil)

		require.NoError(t, ctrl.CancelSubscription(context.Background(), u.ID))
		assert.Empty(t, billing.Cancelled)
		assert.Len(t, restore.Calls, 1)
	})
}

func TestSubscriptionController_ExpireTrials(t *testing.T) {
	ctrl, users, _, _, _ := newMockController(t)
	now := time.Now().Truncate(time.Second)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)
	growth := user.TierGrowth

	lapsed := seedMockUser(t, users, func(u *user.User) {
		u.SubscriptionTier = growth
		u.TrialPlan = &growth
		u.TrialStartedAt = &past
		u.TrialEndAt = &past
	})
	running := seedMockUser(t, users, func(u *user.User) {
		u.SubscriptionTier = growth
		u.TrialPlan = &growth
		u.TrialStartedAt = &past
		u.TrialEndAt = &future
	})

	n, err := ctrl.ExpireTrials(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, _ := users.GetByID(context.Background(), lapsed.ID)
	assert.Equal(t, user.TierNone, got.SubscriptionTier)
	assert.NotNil(t, got.TrialStartedAt)
	got, _ = users.GetByID(context.Background(), running.ID)
	assert.Equal(t, user.TierGrowth, got.SubscriptionTier)
}
