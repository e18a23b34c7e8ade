package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/foodshare/backend/internal/domain"
)

const userColumns = `id, email, password_hash, full_name, phone, role, status,
	 provider, provider_id, created_at, updated_at`

// UserRepository handles user data access operations.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByID retrieves a user by their ID.
func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var user domain.User
	err := withRetry(ctx, func() error {
		return r.db.GetContext(ctx, &user,
			`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find user by id %s: %w", id, err)
	}
	return &user, nil
}

// FindByEmail retrieves a user by email address.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	err := withRetry(ctx, func() error {
		return r.db.GetContext(ctx, &user,
			`SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return &user, nil
}

// Create inserts a new account. Email collisions surface as ErrConflict.
func (r *UserRepository) Create(ctx context.Context, user domain.User) (*domain.User, error) {
	var result domain.User
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO users (email, password_hash, full_name, phone, role, status)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+userColumns,
		user.Email, user.PasswordHash, user.FullName, user.Phone, user.Role, user.Status,
	).StructScan(&result)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrConflict
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return &result, nil
}

// UpsertByProvider creates or refreshes a social-login account keyed on
// provider + provider_id. Social accounts are donor accounts; NGO and
// admin accounts go through password registration.
func (r *UserRepository) UpsertByProvider(ctx context.Context, user domain.User) (*domain.User, error) {
	var result domain.User
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO users (email, full_name, role, status, provider, provider_id)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (provider, provider_id)
		 DO UPDATE SET email = EXCLUDED.email,
		               full_name = EXCLUDED.full_name,
		               updated_at = now()
		 RETURNING `+userColumns,
		user.Email, user.FullName, user.Role, user.Status, user.Provider, user.ProviderID,
	).StructScan(&result)
	if err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}
	return &result, nil
}

// UpdateProfile persists editable profile fields.
func (r *UserRepository) UpdateProfile(ctx context.Context, id uuid.UUID, fullName string, phone *string) (*domain.User, error) {
	var result domain.User
	err := r.db.QueryRowxContext(ctx,
		`UPDATE users SET full_name = $2, phone = $3, updated_at = now()
		 WHERE id = $1
		 RETURNING `+userColumns,
		id, fullName, phone,
	).StructScan(&result)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("update profile for user %s: %w", id, err)
	}
	return &result, nil
}

// SetStatus changes the account state (approve, suspend, reactivate).
func (r *UserRepository) SetStatus(ctx context.Context, id uuid.UUID, status domain.UserStatus) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET status = $2, updated_at = now() WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("set status for user %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListByRole returns accounts of one role, newest first.
func (r *UserRepository) ListByRole(ctx context.Context, role domain.Role) ([]domain.User, error) {
	var list []domain.User
	err := withRetry(ctx, func() error {
		return r.db.SelectContext(ctx, &list,
			`SELECT `+userColumns+` FROM users WHERE role = $1 ORDER BY created_at DESC`, role)
	})
	if err != nil {
		return nil, fmt.Errorf("list users by role %s: %w", role, err)
	}
	return list, nil
}

// Delete removes the account row. Donation rows are anonymized
// separately before this runs; organization, claim and notification
// rows cascade.
func (r *UserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
