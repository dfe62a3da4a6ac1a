package subscription

import (
	"context"
	"time"

	"github.com/pratik-mahalle/creatorhub/internal/domain/user"
)

// BillingClient is the outbound side of the billing provider
type BillingClient interface {
	CancelSubscription(ctx context.Context, subscriptionRef string) error
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
}

// EventParser verifies and translates a raw provider webhook
type EventParser interface {
	ParseEvent(payload []byte, signature string) (*Event, error)
}

// Controller drives trial and subscription state from billing events
type Controller interface {
	// HandleBillingEvent is the single ingress for provider events
	HandleBillingEvent(ctx context.Context, ev *Event) error

	// CancelSubscription is the user-initiated cancellation
	CancelSubscription(ctx context.Context, userID string) error

	// StartTrial snapshots the user's content and opens a trial of tier
	StartTrial(ctx context.Context, userID string, tier user.Tier, refs BillingRefs) error

	// ExpireTrials drops the tier of users whose trial ended unconverted
	ExpireTrials(ctx context.Context, now time.Time) (int, error)
}

// BillingRefs are provider identifiers recorded on trial start
type BillingRefs struct {
	CustomerRef     string
	SubscriptionRef string
}
