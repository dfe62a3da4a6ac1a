package services

import (
	"context"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/pratik-mahalle/creatorhub/internal/domain/user"
	"github.com/pratik-mahalle/creatorhub/internal/pkg/errors"
	"github.com/pratik-mahalle/creatorhub/internal/pkg/logger"
	"github.com/pratik-mahalle/creatorhub/internal/testutil"
)

func TestUserService_Register(t *testing.T) {
	mockRepo := testutil.NewMockUserRepository()
	log := logger.New(logger.Config{Level: "error", Format: "json"})
	service := NewUserService(mockRepo, bcrypt.MinCost, log)

	tests := []struct {
		name    string
		email   string
		wantErr bool
	}{
		{name: "successful registration", email: "Test@Example.com"},
		{name: "second user", email: "user@domain.com"},
		{name: "duplicate email", email: "test@example.com", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			u, err := service.Register(ctx, tt.email, "correct horse", nil)

			if (err != nil) != tt.wantErr {
				t.Errorf("Register() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr {
				return
			}
			if u.Email != normalizeEmail(tt.email) {
				t.Errorf("Register() email = %v, want %v", u.Email, normalizeEmail(tt.email))
			}
			if u.PasswordHash == "correct horse" || u.PasswordHash == "" {
				t.Error("Register() stored the password in clear")
			}
			if u.SubscriptionTier != user.TierNone {
				t.Errorf("Register() tier = %v, want none", u.SubscriptionTier)
			}
		})
	}
}

func TestUserService_Authenticate(t *testing.T) {
	mockRepo := testutil.NewMockUserRepository()
	log := logger.New(logger.Config{Level: "error", Format: "json"})
	service := NewUserService(mockRepo, bcrypt.MinCost, log)

	ctx := context.Background()
	if _, err := service.Register(ctx, "login@example.com", "s3cret-pass", nil); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	tests := []struct {
		name     string
		email    string
		password string
		wantErr  bool
	}{
		{name: "valid credentials", email: "login@example.com", password: "s3cret-pass"},
		{name: "email is case insensitive", email: "LOGIN@example.com", password: "s3cret-pass"},
		{name: "wrong password", email: "login@example.com", password: "nope", wantErr: true},
		{name: "unknown email", email: "ghost@example.com", password: "s3cret-pass", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.Authenticate(ctx, tt.email, tt.password)
			if (err != nil) != tt.wantErr {
				t.Errorf("Authenticate() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr && !errors.IsCode(err, errors.ErrCodeUnauthorized) {
				t.Errorf("Authenticate() error = %v, want UNAUTHORIZED", err)
			}
		})
	}
}

func TestUserService_GetTrialStatus(t *testing.T) {
	now := time.Unix(1700000000, 0)
	started := now.Add(-24 * time.Hour)
	ends := now.Add(36 * time.Hour)
	ended := now.Add(-time.Hour)
	pro := user.TierPro

	tests := []struct {
		name     string
		user     user.User
		want     string
		wantDays int
	}{
		{"no trial", user.User{SubscriptionTier: user.TierNone}, "none", 0},
		{"active trial", user.User{SubscriptionTier: pro, TrialPlan: &pro, TrialStartedAt: &started, TrialEndAt: &ends}, "active", 2},
		{"expired trial", user.User{SubscriptionTier: user.TierNone, TrialPlan: &pro, TrialStartedAt: &started, TrialEndAt: &ended}, "expired", 0},
		{"converted", user.User{SubscriptionTier: pro, TrialStartedAt: &started}, "converted", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := trialStatus(&tt.user, now)
			if got.Status != tt.want {
				t.Errorf("trialStatus() = %v, want %v", got.Status, tt.want)
			}
			if got.DaysRemaining != tt.wantDays {
				t.Errorf("trialStatus() days = %v, want %v", got.DaysRemaining, tt.wantDays)
			}
		})
	}
}
