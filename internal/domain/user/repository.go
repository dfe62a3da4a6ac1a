package user

import (
	"context"
	"time"
)

// Repository defines the interface for user data access
type Repository interface {
	// Create creates a new user
	Create(ctx context.Context, user *User) error

	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id string) (*User, error)

	// GetByEmail retrieves a user by email
	GetByEmail(ctx context.Context, email string) (*User, error)

	// GetByBillingCustomerRef retrieves a user by billing provider customer id
	GetByBillingCustomerRef(ctx context.Context, ref string) (*User, error)

	// UpdateProfile updates display name and avatar
	UpdateProfile(ctx context.Context, id string, displayName, avatarRef *string) error

	// UpdateSubscription overwrites the billing-driven fields
	UpdateSubscription(ctx context.Context, id string, sub Subscription) error

	// RestoreProfile writes back a snapshotted profile and closes the trial window
	RestoreProfile(ctx context.Context, id string, p Profile) error

	// ListExpiredTrials returns users with a pending trial that ended before now
	ListExpiredTrials(ctx context.Context, now time.Time, limit int) ([]*User, error)

	// ExpireTrial drops the tier of a user whose trial ended before now. It
	// reports false when the user converted or cancelled in the meantime.
	ExpireTrial(ctx context.Context, id string, now time.Time) (bool, error)
}
