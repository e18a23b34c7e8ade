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

const organizationColumns = `id, user_id, name, address, description, phone, verification_status, created_at`

// OrganizationRepository handles NGO organization records.
type OrganizationRepository struct {
	db *sqlx.DB
}

// NewOrganizationRepository creates a new OrganizationRepository.
func NewOrganizationRepository(db *sqlx.DB) *OrganizationRepository {
	return &OrganizationRepository{db: db}
}

// Create inserts the organization record for a freshly registered NGO.
func (r *OrganizationRepository) Create(ctx context.Context, org domain.Organization) (*domain.Organization, error) {
	var result domain.Organization
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO organizations (user_id, name, address, description, phone, verification_status)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+organizationColumns,
		org.UserID, org.Name, org.Address, org.Description, org.Phone, org.VerificationStatus,
	).StructScan(&result)
	if err != nil {
		return nil, fmt.Errorf("insert organization: %w", err)
	}
	return &result, nil
}

// FindByID retrieves an organization by its ID.
func (r *OrganizationRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Organization, error) {
	var org domain.Organization
	err := withRetry(ctx, func() error {
		return r.db.GetContext(ctx, &org,
			`SELECT `+organizationColumns+` FROM organizations WHERE id = $1`, id)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find organization %s: %w", id, err)
	}
	return &org, nil
}

// FindByUserID retrieves the organization owned by an NGO account.
func (r *OrganizationRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*domain.Organization, error) {
	var org domain.Organization
	err := withRetry(ctx, func() error {
		return r.db.GetContext(ctx, &org,
			`SELECT `+organizationColumns+` FROM organizations WHERE user_id = $1`, userID)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find organization for user %s: %w", userID, err)
	}
	return &org, nil
}

// Update persists editable organization fields.
func (r *OrganizationRepository) Update(ctx context.Context, org domain.Organization) (*domain.Organization, error) {
	var result domain.Organization
	err := r.db.QueryRowxContext(ctx,
		`UPDATE organizations
		 SET name = $2, address = $3, description = $4, phone = $5
		 WHERE id = $1
		 RETURNING `+organizationColumns,
		org.ID, org.Name, org.Address, org.Description, org.Phone,
	).StructScan(&result)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("update organization %s: %w", org.ID, err)
	}
	return &result, nil
}

// SetVerificationStatus records the admin's approve/reject decision.
func (r *OrganizationRepository) SetVerificationStatus(ctx context.Context, id uuid.UUID, status domain.VerificationStatus) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE organizations SET verification_status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("set verification status for organization %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListByVerificationStatus returns organizations in a review state.
func (r *OrganizationRepository) ListByVerificationStatus(ctx context.Context, status domain.VerificationStatus) ([]domain.Organization, error) {
	var list []domain.Organization
	err := withRetry(ctx, func() error {
		return r.db.SelectContext(ctx, &list,
			`SELECT `+organizationColumns+` FROM organizations
			 WHERE verification_status = $1 ORDER BY created_at ASC`, status)
	})
	if err != nil {
		return nil, fmt.Errorf("list organizations by status %s: %w", status, err)
	}
	return list, nil
}
