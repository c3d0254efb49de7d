package models

import (
	"time"
)

type PaymentStatus string

const (
	StatusPending   PaymentStatus = "pending"
	StatusSuccess   PaymentStatus = "success"
	StatusFailed    PaymentStatus = "failed"
	StatusRefunded  PaymentStatus = "refunded"
	StatusCancelled PaymentStatus = "cancelled"
)

type Payment struct {
	PaymentID     string        `json:"payment_id" bun:"payment_id,pk"`
	BookingID     string        `json:"booking_id" bun:"booking_id"`
	Status        PaymentStatus `json:"status" bun:"status"`
	Amount        float64       `json:"amount" bun:"amount"`
	Currency      string        `json:"currency" bun:"currency"`
	IntentID      string        `json:"intent_id,omitempty" bun:"intent_id,nullzero"`
	TransactionID string        `json:"transaction_id,omitempty" bun:"transaction_id,nullzero"`
	CreatedDate   time.Time     `json:"created_date" bun:"created_date"`
	UpdatedDate   time.Time     `json:"updated_date,omitempty" bun:"updated_date,nullzero"`
}

type PaymentIntentRequest struct {
	BookingID string `json:"booking_id" binding:"required"`
}

type PaymentIntentResponse struct {
	PaymentID    string  `json:"payment_id"`
	BookingID    string  `json:"booking_id"`
	IntentID     string  `json:"intent_id"`
	ClientSecret string  `json:"client_secret"`
	Amount       float64 `json:"amount"`
	Currency     string  `json:"currency"`
}

// PaymentEvent is published to Kafka so the marketplace can reconcile
// Booking.paymentStatus without the client's involvement.
type PaymentEvent struct {
	Type      string    `json:"type"`
	PaymentID string    `json:"payment_id"`
	BookingID string    `json:"booking_id"`
	Amount    float64   `json:"amount"`
	Timestamp time.Time `json:"timestamp"`
}

// BookingSnapshot is the slice of a booking the payment service needs
// to decide whether a charge is allowed and for how much.
type BookingSnapshot struct {
	BookingID     string  `json:"booking_id"`
	CustomerID    string  `json:"customer_id"`
	Status        string  `json:"status"`
	PaymentStatus string  `json:"payment_status"`
	TotalAmount   float64 `json:"total_amount"`
}

type StripeCard struct {
	Number   string `json:"number"`
	ExpMonth string `json:"exp_month"`
	ExpYear  string `json:"exp_year"`
	CVC      string `json:"cvc"`
	Name     string `json:"name,omitempty"`
}

type StripeCardValidationRequest struct {
	BookingID string      `json:"booking_id" binding:"required"`
	Card      *StripeCard `json:"card" binding:"required"`
}

type StripeCardValidationResponse struct {
	Valid    bool   `json:"valid"`
	Message  string `json:"message"`
	CardType string `json:"card_type,omitempty"`
	Last4    string `json:"last4,omitempty"`
}

type StripePaymentRequest struct {
	PaymentID string            `json:"payment_id,omitempty"`
	BookingID string            `json:"booking_id" binding:"required"`
	Amount    float64           `json:"-"`
	Currency  string            `json:"currency,omitempty"`
	Token     string            `json:"token,omitempty"`
	Card      *StripeCard       `json:"card,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

type StripePaymentResponse struct {
	PaymentID     string        `json:"payment_id"`
	BookingID     string        `json:"booking_id"`
	Status        PaymentStatus `json:"status"`
	Amount        float64       `json:"amount"`
	Currency      string        `json:"currency"`
	TransactionID string        `json:"transaction_id"`
	PaymentMethod string        `json:"payment_method"`
	ReceiptURL    string        `json:"receipt_url,omitempty"`
	Created       int64         `json:"created"`
}
