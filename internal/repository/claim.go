package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/foodshare/backend/internal/domain"
)

const claimColumns = `id, donation_id, ngo_id, status, claimed_at, completed_at, cancelled_at, updated_at`

// ClaimRepository handles claim reads. Writes that pair a claim change
// with a donation state change live on DonationRepository so they share
// a transaction.
type ClaimRepository struct {
	db *sqlx.DB
}

// NewClaimRepository creates a new ClaimRepository.
func NewClaimRepository(db *sqlx.DB) *ClaimRepository {
	return &ClaimRepository{db: db}
}

// FindActiveByDonation returns the single active claim on a donation,
// or ErrNotFound when nothing holds it.
func (r *ClaimRepository) FindActiveByDonation(ctx context.Context, donationID uuid.UUID) (*domain.Claim, error) {
	var c domain.Claim
	err := withRetry(ctx, func() error {
		return r.db.GetContext(ctx, &c,
			`SELECT `+claimColumns+` FROM ngo_claims
			 WHERE donation_id = $1 AND status = $2`,
			donationID, domain.ClaimActive)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find active claim for donation %s: %w", donationID, err)
	}
	return &c, nil
}

// FindActiveByDonationAndNGO returns the active claim only if it belongs
// to the given NGO. Used to authorize NGO self-cancel.
func (r *ClaimRepository) FindActiveByDonationAndNGO(ctx context.Context, donationID, ngoID uuid.UUID) (*domain.Claim, error) {
	var c domain.Claim
	err := withRetry(ctx, func() error {
		return r.db.GetContext(ctx, &c,
			`SELECT `+claimColumns+` FROM ngo_claims
			 WHERE donation_id = $1 AND ngo_id = $2 AND status = $3`,
			donationID, ngoID, domain.ClaimActive)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find claim for donation %s by ngo %s: %w", donationID, ngoID, err)
	}
	return &c, nil
}

// ListStale returns active claims older than the hold window.
func (r *ClaimRepository) ListStale(ctx context.Context, cutoff time.Time) ([]domain.Claim, error) {
	var list []domain.Claim
	err := withRetry(ctx, func() error {
		return r.db.SelectContext(ctx, &list,
			`SELECT `+claimColumns+` FROM ngo_claims
			 WHERE status = $1 AND claimed_at <= $2`,
			domain.ClaimActive, cutoff)
	})
	if err != nil {
		return nil, fmt.Errorf("list stale claims: %w", err)
	}
	return list, nil
}

// ListByNGO returns all of an NGO's claims, newest first.
func (r *ClaimRepository) ListByNGO(ctx context.Context, ngoID uuid.UUID) ([]domain.Claim, error) {
	var list []domain.Claim
	err := withRetry(ctx, func() error {
		return r.db.SelectContext(ctx, &list,
			`SELECT `+claimColumns+` FROM ngo_claims
			 WHERE ngo_id = $1 ORDER BY claimed_at DESC`, ngoID)
	})
	if err != nil {
		return nil, fmt.Errorf("list claims for ngo %s: %w", ngoID, err)
	}
	return list, nil
}

// ActiveDonationIDsByNGO returns donation IDs currently held by the NGO.
func (r *ClaimRepository) ActiveDonationIDsByNGO(ctx context.Context, ngoID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := withRetry(ctx, func() error {
		return r.db.SelectContext(ctx, &ids,
			`SELECT donation_id FROM ngo_claims
			 WHERE ngo_id = $1 AND status = $2`,
			ngoID, domain.ClaimActive)
	})
	if err != nil {
		return nil, fmt.Errorf("list active donation ids for ngo %s: %w", ngoID, err)
	}
	return ids, nil
}

// CountCompletedByNGO reports how many pickups the NGO has completed.
func (r *ClaimRepository) CountCompletedByNGO(ctx context.Context, ngoID uuid.UUID) (int, error) {
	var n int
	err := withRetry(ctx, func() error {
		return r.db.GetContext(ctx, &n,
			`SELECT count(*) FROM ngo_claims WHERE ngo_id = $1 AND status = $2`,
			ngoID, domain.ClaimCompleted)
	})
	if err != nil {
		return 0, fmt.Errorf("count completed claims for ngo %s: %w", ngoID, err)
	}
	return n, nil
}
