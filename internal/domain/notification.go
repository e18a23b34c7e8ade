package domain

import (
	"time"

	"github.com/google/uuid"
)

// NotificationType represents the kind of notification.
type NotificationType string

const (
	NotificationStatusUpdate  NotificationType = "status_update"
	NotificationReminder      NotificationType = "reminder"
	NotificationBroadcast     NotificationType = "broadcast"
	NotificationAccountStatus NotificationType = "account_status"
)

// Notification represents an in-app notification for a user. Creation is
// best-effort: lifecycle transitions never depend on it succeeding.
type Notification struct {
	ID        uuid.UUID        `json:"id" db:"id"`
	UserID    uuid.UUID        `json:"user_id" db:"user_id"`
	Title     string           `json:"title" db:"title"`
	Message   string           `json:"message" db:"message"`
	Type      NotificationType `json:"type" db:"type"`
	Read      bool             `json:"read" db:"read"`
	CreatedAt time.Time        `json:"created_at" db:"created_at"`
}
