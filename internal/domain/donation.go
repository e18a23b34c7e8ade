package domain

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DonationStatus is the coarse lifecycle state of a donation.
type DonationStatus string

const (
	DonationAvailable DonationStatus = "available"
	DonationClaimed   DonationStatus = "claimed"
	DonationCompleted DonationStatus = "completed"
)

// FinalState is a terminal or semi-terminal marker independent of the
// status column. FinalStateCancelledByDonor is permanent; the other
// non-empty values may be cleared when availability is restored.
type FinalState string

const (
	FinalStateNone             FinalState = ""
	FinalStateExpired          FinalState = "expired"
	FinalStateCancelledByDonor FinalState = "cancelled_by_donor"
	FinalStateCancelledByNGO   FinalState = "cancelled_by_ngo"
)

// Terminal reports whether the final state permanently locks the donation.
func (f FinalState) Terminal() bool {
	return f == FinalStateCancelledByDonor
}

// Value stores FinalStateNone as SQL NULL.
func (f FinalState) Value() (driver.Value, error) {
	if f == FinalStateNone {
		return nil, nil
	}
	return string(f), nil
}

// Scan maps SQL NULL back to FinalStateNone.
func (f *FinalState) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*f = FinalStateNone
	case string:
		*f = FinalState(v)
	case []byte:
		*f = FinalState(v)
	default:
		return fmt.Errorf("scan final_state: unsupported type %T", src)
	}
	return nil
}

// Urgency indicates how quickly a donation should be picked up.
type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyMedium Urgency = "medium"
	UrgencyHigh   Urgency = "high"
)

// Donation represents a food donation listing. Rows are never deleted;
// donor account removal anonymizes by nulling DonorID.
type Donation struct {
	ID                 uuid.UUID      `json:"id" db:"id"`
	DonorID            *uuid.UUID     `json:"donor_id,omitempty" db:"donor_id"`
	Title              string         `json:"title" db:"title"`
	Description        *string        `json:"description,omitempty" db:"description"`
	Category           string         `json:"category" db:"category"`
	Quantity           int            `json:"quantity" db:"quantity"`
	Unit               string         `json:"unit" db:"unit"`
	ExpiryDate         time.Time      `json:"expiry_date" db:"expiry_date"`
	PickupAddress      string         `json:"pickup_address" db:"pickup_address"`
	PickupLat          *float64       `json:"pickup_lat,omitempty" db:"pickup_lat"`
	PickupLng          *float64       `json:"pickup_lng,omitempty" db:"pickup_lng"`
	PickupInstructions *string        `json:"pickup_instructions,omitempty" db:"pickup_instructions"`
	Urgency            Urgency        `json:"urgency" db:"urgency"`
	QRCode             *string        `json:"qr_code,omitempty" db:"qr_code"`
	Status             DonationStatus `json:"status" db:"status"`
	FinalState         FinalState     `json:"final_state,omitempty" db:"final_state"`
	CreatedAt          time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at" db:"updated_at"`
}
