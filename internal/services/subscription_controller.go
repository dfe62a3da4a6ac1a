package services

import (
	"context"
	"time"

	"github.com/pratik-mahalle/creatorhub/internal/domain/snapshot"
	"github.com/pratik-mahalle/creatorhub/internal/domain/subscription"
	"github.com/pratik-mahalle/creatorhub/internal/domain/user"
	"github.com/pratik-mahalle/creatorhub/internal/pkg/errors"
	"github.com/pratik-mahalle/creatorhub/internal/pkg/logger"
	"github.com/pratik-mahalle/creatorhub/internal/pkg/metrics"
)

// expireBatch bounds one ExpireTrials query
const expireBatch = 100

// SubscriptionController implements subscription.Controller
type SubscriptionController struct {
	users     user.Repository
	backup    snapshot.BackupManager
	restore   snapshot.RestoreEngine
	billing   subscription.BillingClient
	trialDays int
	logger    *logger.Logger
	now       func() time.Time
}

// NewSubscriptionController creates the lifecycle controller. The billing
// client is used for user-initiated cancellation only.
func NewSubscriptionController(
	users user.Repository,
	backup snapshot.BackupManager,
	restore snapshot.RestoreEngine,
	billing subscription.BillingClient,
	trialDays int,
	log *logger.Logger,
) subscription.Controller {
	if trialDays < 1 {
		trialDays = subscription.TrialDays
	}
	return &SubscriptionController{
		users:     users,
		backup:    backup,
		restore:   restore,
		billing:   billing,
		trialDays: trialDays,
		logger:    log,
		now:       time.Now,
	}
}

// HandleBillingEvent dispatches a verified provider event. Unknown event
// types, unmatched users and transitions that can never apply are logged and
// ignored. Every other failure is returned so the provider redelivers,
// including events that arrived ahead of the checkout they depend on.
func (c *SubscriptionController) HandleBillingEvent(ctx context.Context, ev *subscription.Event) error {
	log := c.logger.WithFields(map[string]interface{}{
		"event_id":   ev.ID,
		"event_type": ev.Type,
	})

	var err error
	switch ev.Type {
	case subscription.EventCheckoutCompleted:
		err = c.onCheckoutCompleted(ctx, ev)
	case subscription.EventSubscriptionUpdated:
		err = c.onSubscriptionUpdated(ctx, ev, log)
	case subscription.EventSubscriptionDeleted:
		err = c.withUser(ctx, ev, func(u *user.User) error {
			return c.cancel(ctx, u, "webhook")
		})
	default:
		log.WarnWithErr(errors.UnknownBillingEvent(ev.Type), "Ignoring billing event")
		metrics.RecordBillingEvent("unknown", "ignored")
		return nil
	}

	switch {
	case err == nil:
		metrics.RecordBillingEvent(ev.Type, "ok")
		return nil
	case outerCode(err) == errors.ErrCodeConflict:
		log.WarnWithErr(err, "Billing event does not apply to current state")
		metrics.RecordBillingEvent(ev.Type, "ignored")
		return nil
	case outerCode(err) == errors.ErrCodeNotFound:
		log.WarnWithErr(err, "Billing event does not match a user")
		metrics.RecordBillingEvent(ev.Type, "unmatched")
		return nil
	case outerCode(err) == errors.ErrCodeTransitionPending:
		log.WarnWithErr(err, "Billing event arrived early, awaiting redelivery")
		metrics.RecordBillingEvent(ev.Type, "pending")
		return err
	default:
		log.ErrorWithErr(err, "Failed to handle billing event")
		metrics.RecordBillingEvent(ev.Type, "error")
		return err
	}
}

func (c *SubscriptionController) onCheckoutCompleted(ctx context.Context, ev *subscription.Event) error {
	tier, ok := user.ParseTier(ev.Metadata.PlanType)
	if !ok || !tier.IsPaid() {
		return errors.ValidationError("Checkout carries no paid plan", map[string]string{
			"planType": ev.Metadata.PlanType,
		})
	}

	return c.withUser(ctx, ev, func(u *user.User) error {
		return c.startTrial(ctx, u, tier, subscription.BillingRefs{
			CustomerRef:     ev.CustomerRef,
			SubscriptionRef: ev.SubscriptionRef,
		})
	})
}

func (c *SubscriptionController) onSubscriptionUpdated(ctx context.Context, ev *subscription.Event, log *logger.Logger) error {
	switch ev.Status {
	case subscription.StatusActive:
		if ev.TrialEnd != nil && ev.TrialEnd.After(c.now()) {
			log.Debug("Subscription still inside trial period")
			return nil
		}
		return c.withUser(ctx, ev, func(u *user.User) error {
			return c.convert(ctx, u, ev)
		})
	case subscription.StatusTrialing:
		log.Debug("Subscription trialing, nothing to do")
		return nil
	case subscription.StatusCanceled, subscription.StatusPastDue, subscription.StatusUnpaid:
		return c.withUser(ctx, ev, func(u *user.User) error {
			return c.cancel(ctx, u, "webhook")
		})
	default:
		log.WithFields(map[string]interface{}{"status": ev.Status}).Info("Ignoring subscription status")
		return nil
	}
}

// StartTrial snapshots the user's content and opens a trial of tier
func (c *SubscriptionController) StartTrial(ctx context.Context, userID string, tier user.Tier, refs subscription.BillingRefs) error {
	if !tier.IsPaid() {
		return errors.BadRequest("Trial requires a paid plan")
	}
	u, err := c.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	return c.startTrial(ctx, u, tier, refs)
}

// startTrial captures first: if the snapshot cannot be written the user is
// left untouched and the error propagates. A checkout while trialing or after
// a lapse keeps the existing snapshot and the original window start, so a
// later cancellation still returns to the state before the first trial.
func (c *SubscriptionController) startTrial(ctx context.Context, u *user.User, tier user.Tier, refs subscription.BillingRefs) error {
	now := c.now()
	from := subscription.StateOf(u, now)
	if err := c.transition(u, subscription.StateTrialing, now); err != nil {
		return err
	}
	if from == subscription.StateCancelled && refs.SubscriptionRef != "" &&
		u.BillingSubscriptionRef != nil && *u.BillingSubscriptionRef == refs.SubscriptionRef {
		return errors.Conflict("Checkout belongs to cancelled subscription " + refs.SubscriptionRef)
	}

	capture := c.backup.CaptureSnapshot
	if from == subscription.StateTrialing || from == subscription.StateExpired {
		capture = c.backup.EnsureSnapshot
	}
	snap, err := capture(ctx, u.ID)
	if err != nil {
		return err
	}

	startedAt := now.Truncate(time.Second)
	if snap.Reused && u.TrialStartedAt != nil {
		startedAt = *u.TrialStartedAt
	}
	endsAt := now.Truncate(time.Second).AddDate(0, 0, c.trialDays)
	if from == subscription.StateTrialing && u.TrialEndAt != nil {
		endsAt = *u.TrialEndAt
	}
	sub := u.Subscription()
	sub.Tier = tier
	sub.TrialPlan = &tier
	sub.TrialStartedAt = &startedAt
	sub.TrialEndAt = &endsAt
	sub.MonthlyContentLimit = planLimit(tier)
	applyRefs(&sub, refs.CustomerRef, refs.SubscriptionRef)

	if err := c.users.UpdateSubscription(ctx, u.ID, sub); err != nil {
		return err
	}

	c.logger.WithFields(map[string]interface{}{
		"user_id":     u.ID,
		"tier":        tier,
		"snapshot_id": snap.SnapshotID,
		"from":        from,
		"trial_end":   endsAt,
	}).Info("Trial started")
	return nil
}

// convert persists the paid tier and ends the trial. The snapshot stays
// unconsumed so a later cancellation still restores the pre-trial state.
func (c *SubscriptionController) convert(ctx context.Context, u *user.User, ev *subscription.Event) error {
	if err := c.transition(u, subscription.StateActive, c.now()); err != nil {
		return err
	}

	tier, ok := user.ParseTier(ev.Metadata.PlanType)
	if !ok || !tier.IsPaid() {
		switch {
		case u.TrialPlan != nil:
			tier = *u.TrialPlan
		case u.SubscriptionTier.IsPaid():
			tier = u.SubscriptionTier
		default:
			return errors.Conflict("Cannot determine plan for activated subscription")
		}
	}

	sub := u.Subscription()
	sub.Tier = tier
	sub.TrialPlan = nil
	sub.TrialEndAt = nil
	sub.MonthlyContentLimit = planLimit(tier)
	applyRefs(&sub, ev.CustomerRef, ev.SubscriptionRef)

	if err := c.users.UpdateSubscription(ctx, u.ID, sub); err != nil {
		return err
	}

	c.logger.WithFields(map[string]interface{}{
		"user_id": u.ID,
		"tier":    tier,
	}).Info("Subscription activated")
	return nil
}

// CancelSubscription cancels at the billing provider and then takes the same
// path as a cancellation webhook.
func (c *SubscriptionController) CancelSubscription(ctx context.Context, userID string) error {
	u, err := c.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	state := subscription.StateOf(u, c.now())
	if u.BillingSubscriptionRef != nil && state != subscription.StateCancelled && state != subscription.StateNoTrial {
		if c.billing == nil {
			return errors.ServiceUnavailable("Billing provider is not configured")
		}
		if err := c.billing.CancelSubscription(ctx, *u.BillingSubscriptionRef); err != nil {
			c.logger.WithFields(map[string]interface{}{
				"user_id": userID,
			}).ErrorWithErr(err, "Billing provider rejected cancellation")
			return errors.BillingProviderError(err)
		}
	}

	return c.cancel(ctx, u, "user")
}

// cancel is the single cancellation path. A missing snapshot means an earlier
// delivery already restored, so it counts as success. The subscription fields
// are cleared after the restore so a failed restore is retried in full.
func (c *SubscriptionController) cancel(ctx context.Context, u *user.User, trigger string) error {
	log := c.logger.WithFields(map[string]interface{}{
		"user_id": u.ID,
		"trigger": trigger,
	})

	if err := c.transition(u, subscription.StateCancelled, c.now()); err != nil {
		return err
	}

	res, err := c.restore.Restore(ctx, u.ID)
	switch {
	case errors.IsCode(err, errors.ErrCodeNoActiveSnapshot):
		log.Info("No active snapshot, nothing to restore")
	case err != nil:
		return err
	default:
		log.WithFields(map[string]interface{}{
			"snapshot_id":    res.SnapshotID,
			"restored_posts": res.RestoredPosts,
			"deleted_posts":  res.DeletedPosts,
		}).Info("Content restored on cancellation")
	}

	if err := c.users.UpdateSubscription(ctx, u.ID, user.Subscription{
		Tier:                   user.TierNone,
		BillingCustomerRef:     u.BillingCustomerRef,
		BillingSubscriptionRef: u.BillingSubscriptionRef,
	}); err != nil {
		return err
	}

	log.Info("Subscription cancelled")
	return nil
}

// ExpireTrials drops the tier of users whose trial ended unconverted. The
// trial window stays open so trial content reads as locked until restore.
func (c *SubscriptionController) ExpireTrials(ctx context.Context, now time.Time) (int, error) {
	expired := 0
	for {
		users, err := c.users.ListExpiredTrials(ctx, now, expireBatch)
		if err != nil {
			return expired, err
		}

		changed := 0
		for _, u := range users {
			if err := ctx.Err(); err != nil {
				return expired, err
			}
			ok, err := c.users.ExpireTrial(ctx, u.ID, now)
			if err != nil {
				return expired, err
			}
			if ok {
				changed++
				c.logger.WithFields(map[string]interface{}{
					"user_id":   u.ID,
					"trial_end": u.TrialEndAt,
				}).Info("Trial expired")
			}
		}
		expired += changed

		if len(users) < expireBatch || changed == 0 {
			break
		}
	}

	metrics.RecordTrialExpirations(expired)
	return expired, nil
}

// withUser resolves the event's user by metadata, then by customer ref
func (c *SubscriptionController) withUser(ctx context.Context, ev *subscription.Event, fn func(u *user.User) error) error {
	var u *user.User
	var err error = errors.NotFound("User")

	if ev.Metadata.UserID != "" {
		u, err = c.users.GetByID(ctx, ev.Metadata.UserID)
	}
	if errors.IsCode(err, errors.ErrCodeNotFound) && ev.CustomerRef != "" {
		u, err = c.users.GetByBillingCustomerRef(ctx, ev.CustomerRef)
	}
	if err != nil {
		return err
	}
	return fn(u)
}

func (c *SubscriptionController) transition(u *user.User, to subscription.State, now time.Time) error {
	from := subscription.StateOf(u, now)
	if subscription.Pending(from, to) {
		return errors.TransitionPending("Subscription cannot move from " + string(from) + " to " + string(to) + " yet")
	}
	if !subscription.CanTransition(from, to) {
		return errors.Conflict("Subscription cannot move from " + string(from) + " to " + string(to))
	}
	return nil
}

// outerCode is the code of the outermost AppError. Wrapped causes are
// ignored so a failed capture of a missing row still reads as a failure.
func outerCode(err error) string {
	if appErr, ok := errors.As(err); ok {
		return appErr.Code
	}
	return ""
}

func planLimit(t user.Tier) *int {
	plan, ok := subscription.PlanFor(t)
	if !ok || plan.MonthlyLimit == nil {
		return nil
	}
	n := *plan.MonthlyLimit
	return &n
}

func applyRefs(sub *user.Subscription, customerRef, subscriptionRef string) {
	if customerRef != "" {
		sub.BillingCustomerRef = &customerRef
	}
	if subscriptionRef != "" {
		sub.BillingSubscriptionRef = &subscriptionRef
	}
}
