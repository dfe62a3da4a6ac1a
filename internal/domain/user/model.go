package user

import "time"

// Tier is a subscription tier. The zero value is TierNone.
type Tier string

// Subscription tiers
const (
	TierNone     Tier = "none"
	TierStarter  Tier = "starter"
	TierGrowth   Tier = "growth"
	TierPro      Tier = "pro"
	TierBusiness Tier = "business"
	TierAgency   Tier = "agency"
)

// PaidTiers lists the tiers a user can trial or subscribe to, cheapest first
var PaidTiers = []Tier{TierStarter, TierGrowth, TierPro, TierBusiness, TierAgency}

// ParseTier maps a raw value onto a Tier. Empty input reads as TierNone.
func ParseTier(s string) (Tier, bool) {
	if s == "" {
		return TierNone, true
	}
	t := Tier(s)
	if t == TierNone {
		return t, true
	}
	for _, p := range PaidTiers {
		if p == t {
			return t, true
		}
	}
	return TierNone, false
}

// IsPaid reports whether t grants an active paid subscription
func (t Tier) IsPaid() bool {
	return t != "" && t != TierNone
}

// User represents a user in the system
type User struct {
	ID           string  `json:"id"`
	Email        string  `json:"email"`
	PasswordHash string  `json:"-"`
	DisplayName  *string `json:"display_name,omitempty"`
	AvatarRef    *string `json:"avatar_ref,omitempty"`

	SubscriptionTier       Tier       `json:"subscription_tier"`
	TrialPlan              *Tier      `json:"trial_plan,omitempty"`
	TrialStartedAt         *time.Time `json:"trial_started_at,omitempty"`
	TrialEndAt             *time.Time `json:"trial_end_at,omitempty"`
	BillingCustomerRef     *string    `json:"-"`
	BillingSubscriptionRef *string    `json:"-"`
	MonthlyContentLimit    *int       `json:"monthly_content_limit,omitempty"` // nil = unlimited
	PurchasedExtraUnits    int        `json:"purchased_extra_units"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasActiveSubscription reports whether the user currently holds a paid tier,
// trial included.
func (u *User) HasActiveSubscription() bool {
	return u.SubscriptionTier.IsPaid()
}

// InTrial reports whether a trial is pending conversion at now
func (u *User) InTrial(now time.Time) bool {
	return u.TrialPlan != nil && u.TrialEndAt != nil && now.Before(*u.TrialEndAt)
}

// ContentAllowance returns the monthly post allowance, or -1 for unlimited
func (u *User) ContentAllowance() int {
	if u.MonthlyContentLimit == nil {
		return -1
	}
	return *u.MonthlyContentLimit + u.PurchasedExtraUnits
}

// Subscription is the set of billing-driven fields written as one unit by
// the lifecycle controller.
type Subscription struct {
	Tier                   Tier
	TrialPlan              *Tier
	TrialStartedAt         *time.Time
	TrialEndAt             *time.Time
	BillingCustomerRef     *string
	BillingSubscriptionRef *string
	MonthlyContentLimit    *int
}

// Subscription returns the current billing-driven fields of u
func (u *User) Subscription() Subscription {
	return Subscription{
		Tier:                   u.SubscriptionTier,
		TrialPlan:              u.TrialPlan,
		TrialStartedAt:         u.TrialStartedAt,
		TrialEndAt:             u.TrialEndAt,
		BillingCustomerRef:     u.BillingCustomerRef,
		BillingSubscriptionRef: u.BillingSubscriptionRef,
		MonthlyContentLimit:    u.MonthlyContentLimit,
	}
}

// Profile is the subset of user fields captured in a snapshot and written
// back by a restore.
type Profile struct {
	SubscriptionTier Tier    `json:"subscriptionTier"`
	DisplayName      *string `json:"displayName,omitempty"`
	AvatarRef        *string `json:"avatarRef,omitempty"`
}

// Profile returns the restorable subset of u
func (u *User) Profile() Profile {
	return Profile{
		SubscriptionTier: u.SubscriptionTier,
		DisplayName:      u.DisplayName,
		AvatarRef:        u.AvatarRef,
	}
}

// TrialStatus represents trial information
type TrialStatus struct {
	Status        string     `json:"status"` // none, active, expired, converted
	Plan          *Tier      `json:"plan,omitempty"`
	EndsAt        *time.Time `json:"ends_at,omitempty"`
	DaysRemaining int        `json:"days_remaining"`
}
