package dto

import (
	"time"

	"github.com/pratik-mahalle/creatorhub/internal/domain/user"
)

// UserDTO represents a user in API responses
type UserDTO struct {
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

// ToUserDTO converts a domain user
func ToUserDTO(u *user.User) *UserDTO {
	d := &UserDTO{
		ID:                  u.ID,
		Email:               u.Email,
		DisplayName:         u.DisplayName,
		AvatarRef:           u.AvatarRef,
		SubscriptionTier:    string(u.SubscriptionTier),
		TrialEndAt:          u.TrialEndAt,
		MonthlyContentLimit: u.MonthlyContentLimit,
		PurchasedExtraUnits: u.PurchasedExtraUnits,
		CreatedAt:           u.CreatedAt,
	}
	if u.TrialPlan != nil {
		plan := string(*u.TrialPlan)
		d.TrialPlan = &plan
	}
	return d
}

// UpdateUserRequest represents a profile update request
type UpdateUserRequest struct {
	DisplayName *string `json:"displayName,omitempty" validate:"omitempty,min=1,max=80"`
	AvatarRef   *string `json:"avatarRef,omitempty" validate:"omitempty,max=512"`
}
