package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/pratik-mahalle/creatorhub/internal/domain/user"
	"github.com/pratik-mahalle/creatorhub/internal/pkg/dbx"
	"github.com/pratik-mahalle/creatorhub/internal/pkg/errors"
)

// UserRepository implements user.Repository
type UserRepository struct {
	db dbx.DBTX
}

// NewUserRepository creates a new user repository
func NewUserRepository(db dbx.DBTX) user.Repository {
	return &UserRepository{db: db}
}

const userColumns = `id, email, password_hash, display_name, avatar_ref, subscription_tier,
	trial_plan, trial_started_at, trial_end_at, billing_customer_ref, billing_subscription_ref,
	monthly_content_limit, purchased_extra_units, created_at, updated_at`

func scanUser(row rowScanner) (*user.User, error) {
	var u user.User
	var displayName, avatarRef, tier, trialPlan, customerRef, subscriptionRef sql.NullString
	var trialStartedAt, trialEndAt sql.NullInt64
	var monthlyLimit sql.NullInt64
	var createdAt, updatedAt int64

	err := row.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &displayName, &avatarRef, &tier,
		&trialPlan, &trialStartedAt, &trialEndAt, &customerRef, &subscriptionRef,
		&monthlyLimit, &u.PurchasedExtraUnits, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	u.DisplayName = fromNullString(displayName)
	u.AvatarRef = fromNullString(avatarRef)
	// NULL and unknown tiers read as none
	u.SubscriptionTier, _ = user.ParseTier(tier.String)
	if trialPlan.Valid {
		if t, ok := user.ParseTier(trialPlan.String); ok && t.IsPaid() {
			u.TrialPlan = &t
		}
	}
	u.TrialStartedAt = fromNullUnix(trialStartedAt)
	u.TrialEndAt = fromNullUnix(trialEndAt)
	u.BillingCustomerRef = fromNullString(customerRef)
	u.BillingSubscriptionRef = fromNullString(subscriptionRef)
	if monthlyLimit.Valid {
		n := int(monthlyLimit.Int64)
		u.MonthlyContentLimit = &n
	}
	u.CreatedAt = time.Unix(createdAt, 0)
	u.UpdatedAt = time.Unix(updatedAt, 0)

	return &u, nil
}

func tierArg(t *user.Tier) interface{} {
	if t == nil {
		return nil
	}
	return string(*t)
}

func intArg(n *int) interface{} {
	if n == nil {
		return nil
	}
	return int64(*n)
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	now := time.Now().Truncate(time.Second)
	u.CreatedAt = now
	u.UpdatedAt = now
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.SubscriptionTier == "" {
		u.SubscriptionTier = user.TierNone
	}

	query := `
		INSERT INTO users (id, email, password_hash, display_name, avatar_ref, subscription_tier,
			purchased_extra_units, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.ExecContext(ctx, query,
		u.ID, u.Email, u.PasswordHash, strArg(u.DisplayName), strArg(u.AvatarRef), string(u.SubscriptionTier),
		u.PurchasedExtraUnits, now.Unix(), now.Unix(),
	)
	if isUniqueViolation(err) {
		return errors.Conflict("User with this email already exists")
	}
	if err != nil {
		return errors.DatabaseError("Failed to create user", err)
	}

	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*user.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

// GetByBillingCustomerRef retrieves a user by billing provider customer id
func (r *UserRepository) GetByBillingCustomerRef(ctx context.Context, ref string) (*user.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE billing_customer_ref = $1`, ref)
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg interface{}) (*user.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("User")
	}
	if err != nil {
		return nil, errors.DatabaseError("Failed to get user", err)
	}
	return u, nil
}

// UpdateProfile updates display name and avatar
func (r *UserRepository) UpdateProfile(ctx context.Context, id string, displayName, avatarRef *string) error {
	query := `
		UPDATE users
		SET display_name = $1, avatar_ref = $2, updated_at = $3
		WHERE id = $4
	`
	return r.exec(ctx, "Failed to update user profile", query,
		strArg(displayName), strArg(avatarRef), time.Now().Unix(), id,
	)
}

// UpdateSubscription overwrites the billing-driven fields
func (r *UserRepository) UpdateSubscription(ctx context.Context, id string, sub user.Subscription) error {
	tier := sub.Tier
	if tier == "" {
		tier = user.TierNone
	}

	query := `
		UPDATE users
		SET subscription_tier = $1, trial_plan = $2, trial_started_at = $3, trial_end_at = $4,
			billing_customer_ref = $5, billing_subscription_ref = $6, monthly_content_limit = $7,
			updated_at = $8
		WHERE id = $9
	`
	return r.exec(ctx, "Failed to update subscription", query,
		string(tier), tierArg(sub.TrialPlan), nullUnix(sub.TrialStartedAt), nullUnix(sub.TrialEndAt),
		strArg(sub.BillingCustomerRef), strArg(sub.BillingSubscriptionRef), intArg(sub.MonthlyContentLimit),
		time.Now().Unix(), id,
	)
}

// RestoreProfile writes back a snapshotted profile and closes the trial window
func (r *UserRepository) RestoreProfile(ctx context.Context, id string, p user.Profile) error {
	tier := p.SubscriptionTier
	if tier == "" {
		tier = user.TierNone
	}

	query := `
		UPDATE users
		SET subscription_tier = $1, display_name = $2, avatar_ref = $3,
			trial_plan = NULL, trial_started_at = NULL, trial_end_at = NULL, updated_at = $4
		WHERE id = $5
	`
	return r.exec(ctx, "Failed to restore user profile", query,
		string(tier), strArg(p.DisplayName), strArg(p.AvatarRef), time.Now().Unix(), id,
	)
}

// ListExpiredTrials returns users with a pending trial that ended before now
// and still hold the trial tier.
func (r *UserRepository) ListExpiredTrials(ctx context.Context, now time.Time, limit int) ([]*user.User, error) {
	query := `SELECT ` + userColumns + ` FROM users
		WHERE trial_plan IS NOT NULL AND trial_end_at < $1 AND subscription_tier <> $2
		ORDER BY trial_end_at
		LIMIT $3`

	rows, err := r.db.QueryContext(ctx, query, now.Unix(), string(user.TierNone), limit)
	if err != nil {
		return nil, errors.DatabaseError("Failed to list expired trials", err)
	}
	defer rows.Close()

	var users []*user.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, errors.DatabaseError("Failed to scan user", err)
		}
		users = append(users, u)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.DatabaseError("Failed to iterate users", err)
	}

	return users, nil
}

// ExpireTrial drops the tier of a user whose trial ended before now. The
// trial window is kept so trial content reads as locked until a restore.
func (r *UserRepository) ExpireTrial(ctx context.Context, id string, now time.Time) (bool, error) {
	query := `
		UPDATE users SET subscription_tier = $1, updated_at = $2
		WHERE id = $3 AND trial_plan IS NOT NULL AND trial_end_at < $4 AND subscription_tier <> $5
	`

	result, err := r.db.ExecContext(ctx, query,
		string(user.TierNone), now.Unix(), id, now.Unix(), string(user.TierNone),
	)
	if err != nil {
		return false, errors.DatabaseError("Failed to expire trial", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, errors.DatabaseError("Failed to get affected rows", err)
	}
	return rows == 1, nil
}

func (r *UserRepository) exec(ctx context.Context, msg, query string, args ...interface{}) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return errors.DatabaseError(msg, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.DatabaseError("Failed to get affected rows", err)
	}

	if rows == 0 {
		return errors.NotFound("User")
	}

	return nil
}
