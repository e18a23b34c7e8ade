package domain

import (
	"time"

	"github.com/google/uuid"
)

// ClaimStatus represents the state of an NGO claim. Cancelled and
// completed claims are terminal; a donation is re-claimed by inserting
// a new row, never by reactivating an old one.
type ClaimStatus string

const (
	ClaimActive    ClaimStatus = "claimed"
	ClaimCompleted ClaimStatus = "completed"
	ClaimCancelled ClaimStatus = "cancelled"
)

// Claim records one organization's attempt to take custody of a donation.
// Claim rows are append-only history; at most one row per donation holds
// status "claimed" at any time.
type Claim struct {
	ID          uuid.UUID   `json:"id" db:"id"`
	DonationID  uuid.UUID   `json:"donation_id" db:"donation_id"`
	NGOID       uuid.UUID   `json:"ngo_id" db:"ngo_id"`
	Status      ClaimStatus `json:"status" db:"status"`
	ClaimedAt   time.Time   `json:"claimed_at" db:"claimed_at"`
	CompletedAt *time.Time  `json:"completed_at,omitempty" db:"completed_at"`
	CancelledAt *time.Time  `json:"cancelled_at,omitempty" db:"cancelled_at"`
	UpdatedAt   time.Time   `json:"updated_at" db:"updated_at"`
}

// Stale reports whether an active claim has gone unredeemed for the
// given hold duration and is eligible for the auto-cancel sweep.
func (c Claim) Stale(now time.Time, hold time.Duration) bool {
	if c.Status != ClaimActive {
		return false
	}
	return !c.ClaimedAt.After(now.Add(-hold))
}
