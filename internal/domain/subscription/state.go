package subscription

import (
	"slices"
	"time"

	"github.com/pratik-mahalle/creatorhub/internal/domain/user"
)

// State is the lifecycle state of a user's subscription
type State string

// Lifecycle states
const (
	StateNoTrial   State = "no_trial"
	StateTrialing  State = "trialing"
	StateActive    State = "active"
	StateExpired   State = "expired"
	StateCancelled State = "cancelled"
)

// Transition is a move between two states
type Transition struct {
	From State
	To   State
}

var validTransitions = map[Transition]bool{
	{StateNoTrial, StateTrialing}:    true, // checkout completed
	{StateTrialing, StateTrialing}:   true, // checkout redelivered
	{StateTrialing, StateActive}:     true, // trial converted
	{StateTrialing, StateExpired}:    true, // trial ended unconverted
	{StateTrialing, StateCancelled}:  true,
	{StateExpired, StateCancelled}:   true,
	{StateExpired, StateActive}:      true, // late payment
	{StateExpired, StateTrialing}:    true, // paid again after lapse
	{StateActive, StateActive}:       true, // plan change
	{StateActive, StateCancelled}:    true,
	{StateCancelled, StateTrialing}:  true, // new cycle
	{StateCancelled, StateActive}:    true,
	{StateCancelled, StateCancelled}: true, // redelivery
	{StateNoTrial, StateCancelled}:   true, // cancel without a subscription
}

// pendingTransitions cannot apply yet because an earlier event is missing
var pendingTransitions = map[Transition]bool{
	{StateNoTrial, StateActive}: true, // activation ahead of checkout
}

// CanTransition reports whether from → to is allowed
func CanTransition(from, to State) bool {
	return validTransitions[Transition{from, to}]
}

// Pending reports whether from → to may become valid once an outstanding
// event is delivered
func Pending(from, to State) bool {
	return pendingTransitions[Transition{from, to}]
}

// ValidTransitionsFrom returns the reachable states from from, sorted
func ValidTransitionsFrom(from State) []State {
	targets := make([]State, 0)
	for t := range validTransitions {
		if t.From == from {
			targets = append(targets, t.To)
		}
	}
	slices.Sort(targets)
	return targets
}

// StateOf derives the lifecycle state from the stored user fields
func StateOf(u *user.User, now time.Time) State {
	switch {
	case u.TrialPlan != nil && u.SubscriptionTier.IsPaid():
		if u.TrialEndAt != nil && !now.Before(*u.TrialEndAt) {
			return StateExpired
		}
		return StateTrialing
	case u.TrialPlan != nil:
		return StateExpired
	case u.SubscriptionTier.IsPaid():
		return StateActive
	case u.TrialStartedAt != nil || u.BillingSubscriptionRef != nil:
		return StateCancelled
	default:
		return StateNoTrial
	}
}
