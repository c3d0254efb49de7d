package models

import (
	"time"

	"github.com/uptrace/bun"
)

type NotificationType string

const (
	NotifyBookingRequest NotificationType = "booking_request"
	NotifyBookingStatus  NotificationType = "booking_status"
	NotifyMessage        NotificationType = "message"
	NotifyVerification   NotificationType = "verification"
)

// Notification is the authoritative in-app delivery channel. Email and
// realtime pushes are best-effort auxiliaries.
type Notification struct {
	bun.BaseModel `bun:"table:notifications"`

	NotificationID string           `bun:"notification_id,pk" json:"notification_id"`
	UserID         string           `bun:"user_id" json:"user_id"`
	Title          string           `bun:"title" json:"title"`
	Message        string           `bun:"message" json:"message"`
	Type           NotificationType `bun:"type" json:"type"`
	IsRead         bool             `bun:"is_read" json:"is_read"`
	CreatedAt      time.Time        `bun:"created_at" json:"created_at"`
}
