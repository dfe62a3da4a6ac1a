package user

import "context"

// Service defines the interface for user business logic
type Service interface {
	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id string) (*User, error)

	// GetByEmail retrieves a user by email
	GetByEmail(ctx context.Context, email string) (*User, error)

	// Register creates a user with a hashed password
	Register(ctx context.Context, email, password string, displayName *string) (*User, error)

	// Authenticate checks credentials and returns the user
	Authenticate(ctx context.Context, email, password string) (*User, error)

	// UpdateProfile changes display name and avatar
	UpdateProfile(ctx context.Context, id string, displayName, avatarRef *string) (*User, error)

	// GetTrialStatus gets the trial status for a user
	GetTrialStatus(ctx context.Context, userID string) (*TrialStatus, error)
}
