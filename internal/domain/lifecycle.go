package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ClaimHold is how long an NGO may sit on an active claim before the
// auto-cancel sweep releases the donation.
const ClaimHold = 24 * time.Hour

// DateOnly truncates a timestamp to its UTC calendar date, the precision
// at which expiry comparisons happen.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// conflictState names the state blocking a transition: the final-state
// marker when set, otherwise the coarse status.
func (d Donation) conflictState() string {
	if d.FinalState != FinalStateNone {
		return string(d.FinalState)
	}
	return string(d.Status)
}

// CanEdit reports whether the donor may still modify listing fields.
// Finalized and completed donations are immutable.
func (d Donation) CanEdit() error {
	if d.FinalState != FinalStateNone {
		return &StateConflictError{
			Current: d.conflictState(),
			Message: "this donation is no longer editable",
		}
	}
	if d.Status == DonationCompleted {
		return &StateConflictError{
			Current: string(DonationCompleted),
			Message: "completed donations cannot be edited",
		}
	}
	return nil
}

// DonorCancelled applies the donor's cancellation. The resulting final
// state is permanent: no claim, sweep or NGO action may ever clear it.
func (d Donation) DonorCancelled(now time.Time) (Donation, error) {
	if d.Status == DonationCompleted {
		return d, &StateConflictError{
			Current: string(DonationCompleted),
			Message: "completed donations cannot be cancelled",
		}
	}
	if d.FinalState == FinalStateCancelledByDonor {
		return d, &StateConflictError{
			Current: string(FinalStateCancelledByDonor),
			Message: "this donation was already cancelled by the donor",
		}
	}
	d.Status = DonationAvailable
	d.FinalState = FinalStateCancelledByDonor
	d.UpdatedAt = now
	return d, nil
}

// CanClaim checks the NGO claim preconditions: the donation must be
// available and not past its expiry date. The donor-cancel lock is
// re-checked here on every attempt. An NGO-cancel marker does not
// block; it is resettable and the claim clears it.
func (d Donation) CanClaim(now time.Time) error {
	if d.FinalState != FinalStateNone && d.FinalState != FinalStateCancelledByNGO {
		msg := "donation cannot be claimed"
		if d.FinalState == FinalStateCancelledByDonor {
			msg = "donation was cancelled by the donor"
		}
		return &StateConflictError{Current: string(d.FinalState), Message: msg}
	}
	if d.Status != DonationAvailable {
		return &StateConflictError{
			Current: string(d.Status),
			Message: fmt.Sprintf("donation cannot be claimed while %s", d.Status),
		}
	}
	if DateOnly(d.ExpiryDate).Before(DateOnly(now)) {
		return &StateConflictError{
			Current: string(FinalStateExpired),
			Message: "donation is past its expiry date",
		}
	}
	return nil
}

// WithClaim marks the donation as held by an NGO, clearing a
// resettable NGO-cancel marker if one is set.
func (d Donation) WithClaim(now time.Time) Donation {
	d.Status = DonationClaimed
	d.FinalState = FinalStateNone
	d.UpdatedAt = now
	return d
}

// PickupConfirmed completes the donation after a QR scan. A repeat scan
// on an already-completed donation reports already=true with no error so
// the confirmation page stays idempotent.
func (d Donation) PickupConfirmed(now time.Time) (updated Donation, already bool, err error) {
	if d.FinalState != FinalStateNone {
		return d, false, &StateConflictError{
			Current: string(d.FinalState),
			Message: "this donation has been cancelled or expired",
		}
	}
	if d.Status == DonationCompleted {
		return d, true, nil
	}
	if d.Status != DonationClaimed {
		return d, false, &StateConflictError{
			Current: string(d.Status),
			Message: "this donation has not been claimed by an NGO",
		}
	}
	d.Status = DonationCompleted
	d.UpdatedAt = now
	return d, false, nil
}

// ExpireEligible reports whether the auto-expire sweep should stamp the
// donation. The donor-cancel lock and completed donations are never
// touched; claimed donations keep their status and only gain the marker.
func (d Donation) ExpireEligible(now time.Time) bool {
	if d.FinalState != FinalStateNone {
		return false
	}
	if d.Status == DonationCompleted {
		return false
	}
	return !DateOnly(d.ExpiryDate).After(DateOnly(now))
}

// WithExpired stamps the expired marker without altering status.
func (d Donation) WithExpired(now time.Time) Donation {
	d.FinalState = FinalStateExpired
	d.UpdatedAt = now
	return d
}

// ReleasedByNGO restores availability after an NGO cancels its own
// claim. The marker is resettable, so a later claim succeeds.
func (d Donation) ReleasedByNGO(now time.Time) Donation {
	d.Status = DonationAvailable
	d.FinalState = FinalStateCancelledByNGO
	d.UpdatedAt = now
	return d
}

// Restored returns the donation to (available, none) after a stale claim
// is swept. The final state is explicitly cleared, not marked expired.
func (d Donation) Restored(now time.Time) Donation {
	d.Status = DonationAvailable
	d.FinalState = FinalStateNone
	d.UpdatedAt = now
	return d
}

// ReminderMessage builds the 24h-to-expiry reminder text. Reminders are
// informational only and fire regardless of lifecycle state, so the text
// is contextualized to whatever state the donation is in.
func (d Donation) ReminderMessage() string {
	if d.Status == DonationCompleted {
		return fmt.Sprintf("Your donation '%s' was picked up. No action needed before its expiry date.", d.Title)
	}
	switch d.FinalState {
	case FinalStateExpired:
		return fmt.Sprintf("Your donation '%s' has expired. It remains in your history for reference.", d.Title)
	case FinalStateCancelledByDonor:
		return fmt.Sprintf("Your donation '%s' was cancelled by you and is approaching its original expiry date.", d.Title)
	case FinalStateCancelledByNGO:
		return fmt.Sprintf("Your donation '%s' was cancelled by an NGO and is approaching its original expiry date.", d.Title)
	default:
		return fmt.Sprintf("Your donation '%s' will expire within 24 hours. Please ensure pickup or update the expiry date.", d.Title)
	}
}

// NewClaim builds the active claim row for an NGO taking a donation.
func NewClaim(donationID, ngoID uuid.UUID, now time.Time) Claim {
	return Claim{
		ID:         uuid.New(),
		DonationID: donationID,
		NGOID:      ngoID,
		Status:     ClaimActive,
		ClaimedAt:  now,
		UpdatedAt:  now,
	}
}

// Completed finalizes a claim after pickup confirmation.
func (c Claim) Completed(now time.Time) Claim {
	c.Status = ClaimCompleted
	c.CompletedAt = &now
	c.UpdatedAt = now
	return c
}

// Cancelled finalizes a claim that was abandoned, withdrawn or overridden
// by the donor. The row stays as history; a fresh claim gets a new row.
func (c Claim) Cancelled(now time.Time) Claim {
	c.Status = ClaimCancelled
	c.CancelledAt = &now
	c.UpdatedAt = now
	return c
}
