package storage

import (
	"shaadibiyah/internal/models"
)

type Store interface {
	// Payment operations
	SavePayment(payment *models.Payment) error
	GetPayment(id string) (*models.Payment, error)
	UpdatePayment(payment *models.Payment) error
	ListPayments(bookingID string, limit, offset int) ([]*models.Payment, error)
	GetPaymentByBookingID(bookingID string) (*models.Payment, error)

	// GetBookingSnapshot reads the booking row the marketplace owns. The
	// payment service never writes bookings, it only checks eligibility
	// and takes the amount from here.
	GetBookingSnapshot(bookingID string) (*models.BookingSnapshot, error)

	// Health and maintenance
	Close() error
	HealthCheck() error
}
