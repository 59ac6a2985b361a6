package domain

import (
	"time"

	"github.com/google/uuid"
)

// NotificationType represents the kind of notification.
type NotificationType string

const (
	NotificationClaimReceived NotificationType = "claim_received"
	NotificationReturnOffered NotificationType = "return_offered"
)

// Notification is an inbox entry alerting a report owner to a claim.
type Notification struct {
	ID        uuid.UUID        `json:"id" db:"id"`
	UserID    int64            `json:"user_id" db:"user_id"`
	ClaimID   uuid.UUID        `json:"claim_id" db:"claim_id"`
	Type      NotificationType `json:"type" db:"type"`
	Title     string           `json:"title" db:"title"`
	Message   string           `json:"message" db:"message"`
	Read      bool             `json:"read" db:"read"`
	ReadAt    *time.Time       `json:"read_at,omitempty" db:"read_at"`
	CreatedAt time.Time        `json:"created_at" db:"created_at"`
}
