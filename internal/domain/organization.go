package domain

import (
	"time"

	"github.com/google/uuid"
)

// VerificationStatus is the admin review state of an organization.
type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "pending"
	VerificationApproved VerificationStatus = "approved"
	VerificationRejected VerificationStatus = "rejected"
)

// Organization holds the NGO profile attached to an ngo-role user.
type Organization struct {
	ID                 uuid.UUID          `json:"id" db:"id"`
	UserID             uuid.UUID          `json:"user_id" db:"user_id"`
	Name               string             `json:"name" db:"name"`
	Address            string             `json:"address" db:"address"`
	Description        string             `json:"description" db:"description"`
	Phone              string             `json:"phone" db:"phone"`
	VerificationStatus VerificationStatus `json:"verification_status" db:"verification_status"`
	CreatedAt          time.Time          `json:"created_at" db:"created_at"`
}
