package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"

	"github.com/foodshare/backend/internal/domain"
)

const donationColumns = `id, donor_id, title, description, category, quantity, unit, expiry_date,
	 pickup_address, pickup_lat, pickup_lng, pickup_instructions, urgency, qr_code,
	 status, final_state, created_at, updated_at`

// DonationRepository handles donation data access. Lifecycle writes that
// touch both the donation row and its claim rows run in a transaction,
// and every state-column update carries the prior state in its WHERE
// clause so a concurrent duplicate affects zero rows instead of
// corrupting an already-transitioned record.
type DonationRepository struct {
	db *sqlx.DB
}

// NewDonationRepository creates a new DonationRepository.
func NewDonationRepository(db *sqlx.DB) *DonationRepository {
	return &DonationRepository{db: db}
}

// Create inserts a new donation and returns the stored row.
func (r *DonationRepository) Create(ctx context.Context, d domain.Donation) (*domain.Donation, error) {
	var result domain.Donation
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO food_donations
		 (donor_id, title, description, category, quantity, unit, expiry_date,
		  pickup_address, pickup_lat, pickup_lng, pickup_instructions, urgency, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 RETURNING `+donationColumns,
		d.DonorID, d.Title, d.Description, d.Category, d.Quantity, d.Unit, d.ExpiryDate,
		d.PickupAddress, d.PickupLat, d.PickupLng, d.PickupInstructions, d.Urgency, d.Status,
	).StructScan(&result)
	if err != nil {
		return nil, fmt.Errorf("insert donation: %w", err)
	}
	return &result, nil
}

// FindByID retrieves a donation by its ID.
func (r *DonationRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Donation, error) {
	var d domain.Donation
	err := withRetry(ctx, func() error {
		return r.db.GetContext(ctx, &d,
			`SELECT `+donationColumns+` FROM food_donations WHERE id = $1`, id)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find donation %s: %w", id, err)
	}
	return &d, nil
}

// ListByDonor returns a donor's donations, newest first.
func (r *DonationRepository) ListByDonor(ctx context.Context, donorID uuid.UUID) ([]domain.Donation, error) {
	var list []domain.Donation
	err := withRetry(ctx, func() error {
		return r.db.SelectContext(ctx, &list,
			`SELECT `+donationColumns+` FROM food_donations
			 WHERE donor_id = $1 ORDER BY created_at DESC`, donorID)
	})
	if err != nil {
		return nil, fmt.Errorf("list donations for donor %s: %w", donorID, err)
	}
	return list, nil
}

// ListAll returns every donation, newest first.
func (r *DonationRepository) ListAll(ctx context.Context) ([]domain.Donation, error) {
	var list []domain.Donation
	err := withRetry(ctx, func() error {
		return r.db.SelectContext(ctx, &list,
			`SELECT `+donationColumns+` FROM food_donations ORDER BY created_at DESC`)
	})
	if err != nil {
		return nil, fmt.Errorf("list donations: %w", err)
	}
	return list, nil
}

// Update persists edited listing fields. State columns are untouched;
// lifecycle transitions go through the dedicated methods below.
func (r *DonationRepository) Update(ctx context.Context, d domain.Donation) (*domain.Donation, error) {
	var result domain.Donation
	err := r.db.QueryRowxContext(ctx,
		`UPDATE food_donations
		 SET title = $2, description = $3, category = $4, quantity = $5, unit = $6,
		     expiry_date = $7, pickup_address = $8, pickup_lat = $9, pickup_lng = $10,
		     pickup_instructions = $11, urgency = $12, updated_at = now()
		 WHERE id = $1
		 RETURNING `+donationColumns,
		d.ID, d.Title, d.Description, d.Category, d.Quantity, d.Unit,
		d.ExpiryDate, d.PickupAddress, d.PickupLat, d.PickupLng,
		d.PickupInstructions, d.Urgency,
	).StructScan(&result)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("update donation %s: %w", d.ID, err)
	}
	return &result, nil
}

// SetQRCode stores the base64 QR payload generated after insert.
func (r *DonationRepository) SetQRCode(ctx context.Context, id uuid.UUID, qr string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE food_donations SET qr_code = $2, updated_at = now() WHERE id = $1`, id, qr)
	if err != nil {
		return fmt.Errorf("set qr code for donation %s: %w", id, err)
	}
	return nil
}

// Claim atomically marks an available donation as claimed and inserts
// the active claim row. The donation update is filtered on available
// status with either no final-state marker or the resettable NGO-cancel
// marker, which the claim clears; zero affected rows or a unique-index
// violation on the claim insert both surface as ErrConflict.
func (r *DonationRepository) Claim(ctx context.Context, donationID, ngoID uuid.UUID, now time.Time) (*domain.Claim, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin claim tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE food_donations
		 SET status = $2, final_state = NULL, updated_at = $3
		 WHERE id = $1 AND status = $4
		   AND (final_state IS NULL OR final_state = $5)`,
		donationID, domain.DonationClaimed, now, domain.DonationAvailable,
		domain.FinalStateCancelledByNGO)
	if err != nil {
		return nil, fmt.Errorf("mark donation %s claimed: %w", donationID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, domain.ErrConflict
	}

	claim := domain.NewClaim(donationID, ngoID, now)
	_, err = tx.ExecContext(ctx,
		`INSERT INTO ngo_claims (id, donation_id, ngo_id, status, claimed_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		claim.ID, claim.DonationID, claim.NGOID, claim.Status, claim.ClaimedAt, claim.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrConflict
		}
		return nil, fmt.Errorf("insert claim for donation %s: %w", donationID, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit claim tx: %w", err)
	}
	return &claim, nil
}

// DonorCancel applies the permanent donor cancellation and cancels any
// active claim. Already donor-cancelled or completed donations match
// zero rows and return ErrConflict.
func (r *DonationRepository) DonorCancel(ctx context.Context, donationID uuid.UUID, now time.Time) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin cancel tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE food_donations
		 SET status = $2, final_state = $3, updated_at = $4
		 WHERE id = $1 AND status <> $5
		   AND (final_state IS NULL OR final_state <> $3)`,
		donationID, domain.DonationAvailable, domain.FinalStateCancelledByDonor, now,
		domain.DonationCompleted)
	if err != nil {
		return fmt.Errorf("donor-cancel donation %s: %w", donationID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrConflict
	}

	if err := cancelActiveClaim(ctx, tx, donationID, now); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit cancel tx: %w", err)
	}
	return nil
}

// ConfirmPickup completes a claimed donation and its active claim.
// Returns ErrConflict when the donation is not in (claimed, no final
// state), which the service distinguishes from the idempotent repeat
// scan by re-reading the row first.
func (r *DonationRepository) ConfirmPickup(ctx context.Context, donationID uuid.UUID, now time.Time) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin pickup tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE food_donations
		 SET status = $2, updated_at = $3
		 WHERE id = $1 AND status = $4 AND final_state IS NULL`,
		donationID, domain.DonationCompleted, now, domain.DonationClaimed)
	if err != nil {
		return fmt.Errorf("complete donation %s: %w", donationID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrConflict
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE ngo_claims
		 SET status = $2, completed_at = $3, updated_at = $3
		 WHERE donation_id = $1 AND status = $4`,
		donationID, domain.ClaimCompleted, now, domain.ClaimActive)
	if err != nil {
		return fmt.Errorf("complete claim for donation %s: %w", donationID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit pickup tx: %w", err)
	}
	return nil
}

// ReleaseClaim cancels a specific active claim and restores the
// donation to available with the resettable cancelled_by_ngo marker.
func (r *DonationRepository) ReleaseClaim(ctx context.Context, claimID, donationID uuid.UUID, now time.Time) error {
	return r.release(ctx, claimID, donationID, domain.FinalStateCancelledByNGO, now)
}

// ReleaseStaleClaim cancels a timed-out claim and restores the donation
// to (available, no final state) so it can be claimed again.
func (r *DonationRepository) ReleaseStaleClaim(ctx context.Context, claimID, donationID uuid.UUID, now time.Time) error {
	return r.release(ctx, claimID, donationID, domain.FinalStateNone, now)
}

func (r *DonationRepository) release(ctx context.Context, claimID, donationID uuid.UUID, final domain.FinalState, now time.Time) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin release tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE ngo_claims
		 SET status = $2, cancelled_at = $3, updated_at = $3
		 WHERE id = $1 AND status = $4`,
		claimID, domain.ClaimCancelled, now, domain.ClaimActive)
	if err != nil {
		return fmt.Errorf("cancel claim %s: %w", claimID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE food_donations
		 SET status = $2, final_state = $3, updated_at = $4
		 WHERE id = $1 AND status <> $5`,
		donationID, domain.DonationAvailable, final, now, domain.DonationCompleted)
	if err != nil {
		return fmt.Errorf("restore donation %s: %w", donationID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit release tx: %w", err)
	}
	return nil
}

// MarkExpired stamps the expired marker on a single donation. The
// filter repeats the sweep preconditions so a racing donor cancel or
// pickup makes this a no-op.
func (r *DonationRepository) MarkExpired(ctx context.Context, donationID uuid.UUID, now time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE food_donations
		 SET final_state = $2, updated_at = $3
		 WHERE id = $1 AND final_state IS NULL AND status <> $4`,
		donationID, domain.FinalStateExpired, now, domain.DonationCompleted)
	if err != nil {
		return false, fmt.Errorf("expire donation %s: %w", donationID, err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// ListExpireCandidates returns unfinalized, uncompleted donations whose
// expiry date has passed.
func (r *DonationRepository) ListExpireCandidates(ctx context.Context, today time.Time) ([]domain.Donation, error) {
	var list []domain.Donation
	err := withRetry(ctx, func() error {
		return r.db.SelectContext(ctx, &list,
			`SELECT `+donationColumns+` FROM food_donations
			 WHERE expiry_date <= $1 AND final_state IS NULL AND status <> $2`,
			today, domain.DonationCompleted)
	})
	if err != nil {
		return nil, fmt.Errorf("list expire candidates: %w", err)
	}
	return list, nil
}

// ListExpiringBetween returns donations expiring inside the window,
// regardless of status or final state. Used by the reminder sweep.
func (r *DonationRepository) ListExpiringBetween(ctx context.Context, from, to time.Time) ([]domain.Donation, error) {
	var list []domain.Donation
	err := withRetry(ctx, func() error {
		return r.db.SelectContext(ctx, &list,
			`SELECT `+donationColumns+` FROM food_donations
			 WHERE expiry_date >= $1 AND expiry_date <= $2`, from, to)
	})
	if err != nil {
		return nil, fmt.Errorf("list expiring donations: %w", err)
	}
	return list, nil
}

// AnonymizeDonor nulls the donor reference on all of a donor's rows.
// Donation history is never physically deleted.
func (r *DonationRepository) AnonymizeDonor(ctx context.Context, donorID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE food_donations SET donor_id = NULL WHERE donor_id = $1`, donorID)
	if err != nil {
		return fmt.Errorf("anonymize donations for donor %s: %w", donorID, err)
	}
	return nil
}

func cancelActiveClaim(ctx context.Context, tx *sqlx.Tx, donationID uuid.UUID, now time.Time) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE ngo_claims
		 SET status = $2, cancelled_at = $3, updated_at = $3
		 WHERE donation_id = $1 AND status = $4`,
		donationID, domain.ClaimCancelled, now, domain.ClaimActive)
	if err != nil {
		return fmt.Errorf("cancel active claim for donation %s: %w", donationID, err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
