package models

import (
	"time"

	"github.com/uptrace/bun"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "PENDING"
	BookingApproved  BookingStatus = "APPROVED"
	BookingConfirmed BookingStatus = "CONFIRMED"
	BookingCompleted BookingStatus = "COMPLETED"
	BookingCancelled BookingStatus = "CANCELLED"
	BookingRejected  BookingStatus = "REJECTED"
)

type PaymentState string

const (
	PaymentPending   PaymentState = "PENDING"
	PaymentCompleted PaymentState = "COMPLETED"
	PaymentRefunded  PaymentState = "REFUNDED"
	PaymentFailed    PaymentState = "FAILED"
)

// bookingEdges is the full transition graph. Anything not listed is illegal.
var bookingEdges = map[BookingStatus][]BookingStatus{
	BookingPending:   {BookingApproved, BookingRejected, BookingCancelled},
	BookingApproved:  {BookingConfirmed, BookingCancelled},
	BookingConfirmed: {BookingCompleted},
}

// CanTransition reports whether from → to is a legal booking status edge.
func CanTransition(from, to BookingStatus) bool {
	for _, next := range bookingEdges[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further status transitions are possible.
func IsTerminal(s BookingStatus) bool {
	return len(bookingEdges[s]) == 0
}

type Booking struct {
	bun.BaseModel `bun:"table:bookings"`

	BookingID       string        `bun:"booking_id,pk" json:"booking_id"`
	CustomerID      string        `bun:"customer_id" json:"customer_id"`
	VendorID        string        `bun:"vendor_id" json:"vendor_id"`
	ServiceID       string        `bun:"service_id" json:"service_id"`
	EventDate       time.Time     `bun:"event_date" json:"event_date"`
	DurationHours   int           `bun:"duration_hours" json:"duration_hours"`
	GuestCount      int           `bun:"guest_count" json:"guest_count"`
	Location        string        `bun:"location" json:"location"`
	SpecialRequests string        `bun:"special_requests,nullzero" json:"special_requests,omitempty"`
	BasePrice       float64       `bun:"base_price" json:"base_price"`
	AdditionalCosts float64       `bun:"additional_costs" json:"additional_costs"`
	TotalAmount     float64       `bun:"total_amount" json:"total_amount"`
	Status          BookingStatus `bun:"status" json:"status"`
	PaymentStatus   PaymentState  `bun:"payment_status" json:"payment_status"`
	PaymentIntentID string        `bun:"payment_intent_id,nullzero" json:"payment_intent_id,omitempty"`
	ApprovedAt      *time.Time    `bun:"approved_at,nullzero" json:"approved_at,omitempty"`
	ConfirmedAt     *time.Time    `bun:"confirmed_at,nullzero" json:"confirmed_at,omitempty"`
	CompletedAt     *time.Time    `bun:"completed_at,nullzero" json:"completed_at,omitempty"`
	CreatedAt       time.Time     `bun:"created_at" json:"created_at"`
	UpdatedAt       time.Time     `bun:"updated_at" json:"updated_at"`
}

type BookingRequest struct {
	VendorID        string    `json:"vendor_id"`
	ServiceID       string    `json:"service_id"`
	EventDate       time.Time `json:"event_date"`
	DurationHours   int       `json:"duration_hours"`
	GuestCount      int       `json:"guest_count"`
	Location        string    `json:"location"`
	SpecialRequests string    `json:"special_requests,omitempty"`
	AdditionalCosts float64   `json:"additional_costs,omitempty"`
}

// BookingPatch carries the fields a customer may change while PENDING.
// Nil pointers mean "leave unchanged".
type BookingPatch struct {
	EventDate       *time.Time `json:"event_date,omitempty"`
	DurationHours   *int       `json:"duration_hours,omitempty"`
	GuestCount      *int       `json:"guest_count,omitempty"`
	Location        *string    `json:"location,omitempty"`
	SpecialRequests *string    `json:"special_requests,omitempty"`
	AdditionalCosts *float64   `json:"additional_costs,omitempty"`
}

type StatusUpdateRequest struct {
	Status BookingStatus `json:"status"`
}

// BookingDetails is a booking with denormalized party/service projections.
type BookingDetails struct {
	Booking  Booking        `json:"booking"`
	Customer UserSummary    `json:"customer"`
	Vendor   VendorSummary  `json:"vendor"`
	Service  ServiceSummary `json:"service"`
}
