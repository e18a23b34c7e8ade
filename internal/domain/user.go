package domain

import (
	"time"

	"github.com/google/uuid"
)

// Role distinguishes donors, receiving organizations and administrators.
type Role string

const (
	RoleDonor Role = "donor"
	RoleNGO   Role = "ngo"
	RoleAdmin Role = "admin"
)

// UserStatus is the account state. NGO accounts start pending until an
// admin approves the organization.
type UserStatus string

const (
	UserActive    UserStatus = "active"
	UserPending   UserStatus = "pending"
	UserSuspended UserStatus = "suspended"
)

// AuthProvider represents an OAuth provider.
type AuthProvider string

const (
	AuthProviderGoogle AuthProvider = "google"
)

// User represents a platform account.
type User struct {
	ID           uuid.UUID     `json:"id" db:"id"`
	Email        string        `json:"email" db:"email"`
	PasswordHash *string       `json:"-" db:"password_hash"`
	FullName     string        `json:"full_name" db:"full_name"`
	Phone        *string       `json:"phone,omitempty" db:"phone"`
	Role         Role          `json:"role" db:"role"`
	Status       UserStatus    `json:"status" db:"status"`
	Provider     *AuthProvider `json:"provider,omitempty" db:"provider"`
	ProviderID   *string       `json:"provider_id,omitempty" db:"provider_id"`
	CreatedAt    time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at" db:"updated_at"`
}
