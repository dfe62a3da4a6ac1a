package subscription

import (
	"time"

	"github.com/pratik-mahalle/creatorhub/internal/domain/user"
)

// Event types after translation from the billing provider
const (
	EventCheckoutCompleted   = "checkout.completed"
	EventSubscriptionUpdated = "subscription.updated"
	EventSubscriptionDeleted = "subscription.deleted"
)

// Provider subscription statuses carried on subscription.updated
const (
	StatusTrialing = "trialing"
	StatusActive   = "active"
	StatusCanceled = "canceled"
	StatusPastDue  = "past_due"
	StatusUnpaid   = "unpaid"
)

// TrialDays is the length of a paid-plan trial
const TrialDays = 14

// Metadata is attached to checkout sessions and echoed back on events
type Metadata struct {
	UserID   string `json:"userId"`
	PlanType string `json:"planType"`
}

// Event is a billing webhook event in provider-neutral form
type Event struct {
	ID              string     `json:"id"`
	Type            string     `json:"type"`
	CustomerRef     string     `json:"customerRef,omitempty"`
	SubscriptionRef string     `json:"subscriptionRef,omitempty"`
	Status          string     `json:"status,omitempty"`
	TrialEnd        *time.Time `json:"trialEnd,omitempty"`
	Metadata        Metadata   `json:"metadata"`
}

// Plan describes a paid tier
type Plan struct {
	Tier         user.Tier
	Name         string
	Description  string
	PriceMonthly float64
	Currency     string
	MonthlyLimit *int // nil = unlimited
	Features     []string
	Popular      bool
}

func limit(n int) *int { return &n }

// Plans is the catalogue of paid tiers, cheapest first
var Plans = []Plan{
	{
		Tier: user.TierStarter, Name: "Starter", Description: "For new creators finding their voice",
		PriceMonthly: 9, Currency: "USD", MonthlyLimit: limit(30),
		Features: []string{"30 posts per month", "2 connected platforms", "Basic analytics"},
	},
	{
		Tier: user.TierGrowth, Name: "Growth", Description: "For creators posting every day",
		PriceMonthly: 19, Currency: "USD", MonthlyLimit: limit(90),
		Features: []string{"90 posts per month", "5 connected platforms", "Scheduling queue"},
	},
	{
		Tier: user.TierPro, Name: "Pro", Description: "For full-time creators",
		PriceMonthly: 39, Currency: "USD", MonthlyLimit: limit(300),
		Features: []string{"300 posts per month", "All platforms", "Advanced analytics"},
		Popular:  true,
	},
	{
		Tier: user.TierBusiness, Name: "Business", Description: "For small teams and brands",
		PriceMonthly: 79, Currency: "USD", MonthlyLimit: limit(1000),
		Features: []string{"1000 posts per month", "Team seats", "Priority support"},
	},
	{
		Tier: user.TierAgency, Name: "Agency", Description: "For agencies managing many creators",
		PriceMonthly: 199, Currency: "USD", MonthlyLimit: nil,
		Features: []string{"Unlimited posts", "Client workspaces", "Dedicated manager"},
	},
}

// PlanFor returns the plan of a paid tier
func PlanFor(t user.Tier) (Plan, bool) {
	for _, p := range Plans {
		if p.Tier == t {
			return p, true
		}
	}
	return Plan{}, false
}

// CheckoutRequest asks the billing provider for a hosted checkout page
type CheckoutRequest struct {
	UserID      string
	Email       string
	CustomerRef *string
	Tier        user.Tier
	TrialDays   int
}

// CheckoutSession is the provider's answer to a CheckoutRequest
type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}
