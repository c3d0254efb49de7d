package models

import "time"

// BookingEvent is the Kafka payload emitted on booking lifecycle changes.
type BookingEvent struct {
	Type        string        `json:"type"`
	BookingID   string        `json:"booking_id"`
	CustomerID  string        `json:"customer_id"`
	VendorID    string        `json:"vendor_id"`
	Status      BookingStatus `json:"status"`
	TotalAmount float64       `json:"total_amount"`
	Timestamp   time.Time     `json:"timestamp"`
}

// VendorEvent is emitted when a vendor's verification outcome is decided.
type VendorEvent struct {
	Type      string             `json:"type"`
	VendorID  string             `json:"vendor_id"`
	Status    VerificationStatus `json:"status"`
	Timestamp time.Time          `json:"timestamp"`
}

// PushEvent is a realtime event delivered over the SSE relay. Room is set for
// room-scoped events (typing), empty for direct per-user pushes.
type PushEvent struct {
	Type      string      `json:"type"`
	Room      string      `json:"room,omitempty"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

// MessageNotification is the payload of a "message_notification" push: the
// message plus a freshly counted unread total for the receiver.
type MessageNotification struct {
	Message     Message `json:"message"`
	UnreadCount int     `json:"unread_count"`
}
