package services

import (
	"context"
	"math"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/pratik-mahalle/creatorhub/internal/domain/user"
	"github.com/pratik-mahalle/creatorhub/internal/pkg/errors"
	"github.com/pratik-mahalle/creatorhub/internal/pkg/logger"
)

// UserService implements user.Service
type UserService struct {
	repo       user.Repository
	bcryptCost int
	logger     *logger.Logger
	now        func() time.Time
}

// NewUserService creates a new user service
func NewUserService(repo user.Repository, bcryptCost int, log *logger.Logger) user.Service {
	if bcryptCost < bcrypt.MinCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &UserService{
		repo:       repo,
		bcryptCost: bcryptCost,
		logger:     log,
		now:        time.Now,
	}
}

// GetByID retrieves a user by ID
func (s *UserService) GetByID(ctx context.Context, id string) (*user.User, error) {
	return s.repo.GetByID(ctx, id)
}

// GetByEmail retrieves a user by email
func (s *UserService) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	return s.repo.GetByEmail(ctx, normalizeEmail(email))
}

// Register creates a user with a hashed password
func (s *UserService) Register(ctx context.Context, email, password string, displayName *string) (*user.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, errors.Internal("Failed to hash password", err)
	}

	u := &user.User{
		Email:            normalizeEmail(email),
		PasswordHash:     string(hash),
		DisplayName:      displayName,
		SubscriptionTier: user.TierNone,
	}

	if err := s.repo.Create(ctx, u); err != nil {
		s.logger.ErrorWithErr(err, "Failed to create user")
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"user_id": u.ID,
		"email":   u.Email,
	}).Info("User registered")

	return u, nil
}

// Authenticate checks credentials and returns the user
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*user.User, error) {
	u, err := s.repo.GetByEmail(ctx, normalizeEmail(email))
	if errors.IsCode(err, errors.ErrCodeNotFound) {
		return nil, errors.Unauthorized("Invalid email or password")
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, errors.Unauthorized("Invalid email or password")
	}

	return u, nil
}

// UpdateProfile changes display name and avatar
func (s *UserService) UpdateProfile(ctx context.Context, id string, displayName, avatarRef *string) (*user.User, error) {
	if err := s.repo.UpdateProfile(ctx, id, displayName, avatarRef); err != nil {
		s.logger.ErrorWithErr(err, "Failed to update profile")
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

// GetTrialStatus gets the trial status for a user
func (s *UserService) GetTrialStatus(ctx context.Context, userID string) (*user.TrialStatus, error) {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return trialStatus(u, s.now()), nil
}

func trialStatus(u *user.User, now time.Time) *user.TrialStatus {
	switch {
	case u.TrialPlan != nil && u.InTrial(now):
		days := int(math.Ceil(u.TrialEndAt.Sub(now).Hours() / 24))
		return &user.TrialStatus{Status: "active", Plan: u.TrialPlan, EndsAt: u.TrialEndAt, DaysRemaining: days}
	case u.TrialPlan != nil:
		return &user.TrialStatus{Status: "expired", Plan: u.TrialPlan, EndsAt: u.TrialEndAt}
	case u.TrialStartedAt != nil && u.HasActiveSubscription():
		tier := u.SubscriptionTier
		return &user.TrialStatus{Status: "converted", Plan: &tier}
	default:
		return &user.TrialStatus{Status: "none"}
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
