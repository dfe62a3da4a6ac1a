package dto

import (
	"time"

	"github.com/pratik-mahalle/creatorhub/internal/domain/subscription"
	"github.com/pratik-mahalle/creatorhub/internal/domain/user"
)

// PlanDTO represents a subscription plan
type PlanDTO struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Price        float64  `json:"price"`
	Currency     string   `json:"currency"`
	Interval     string   `json:"interval"`
	MonthlyLimit *int     `json:"monthlyLimit"` // null = unlimited
	TrialDays    int      `json:"trialDays"`
	Features     []string `json:"features"`
	IsPopular    bool     `json:"isPopular"`
	IsCurrent    bool     `json:"isCurrent"`
}

// ToPlanDTO converts a catalogue plan; current is the viewer's tier
func ToPlanDTO(p subscription.Plan, current user.Tier, trialDays int) PlanDTO {
	return PlanDTO{
		ID:           string(p.Tier),
		Name:         p.Name,
		Description:  p.Description,
		Price:        p.PriceMonthly,
		Currency:     p.Currency,
		Interval:     "month",
		MonthlyLimit: p.MonthlyLimit,
		TrialDays:    trialDays,
		Features:     p.Features,
		IsPopular:    p.Popular,
		IsCurrent:    p.Tier == current,
	}
}

// BillingInfoDTO represents user billing information
type BillingInfoDTO struct {
	State               string     `json:"state"` // no_trial, trialing, active, expired, cancelled
	Plan                *PlanDTO   `json:"plan,omitempty"`
	TrialEndsAt         *time.Time `json:"trialEndsAt,omitempty"`
	DaysRemaining       int        `json:"daysRemaining"`
	HasActiveSnapshot   bool       `json:"hasActiveSnapshot"`
	MonthlyContentLimit *int       `json:"monthlyContentLimit"`
	AvailableStates     []string   `json:"availableTransitions"`
}

// CheckoutRequest starts a trial checkout for a paid plan
type CheckoutRequest struct {
	PlanID string `json:"planId" validate:"required,tier"`
}

// CheckoutResponse carries the hosted checkout URL
type CheckoutResponse struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
}
