package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"shaadibiyah/internal/models"

	"github.com/uptrace/bun"
)

type DB struct {
	Bun *bun.DB
}

// ---------------- BOOKINGS ----------------

// GetBookingByID → fetch one booking by its ID
func (d *DB) GetBookingByID(ctx context.Context, id string) (*models.Booking, error) {
	var booking models.Booking
	err := d.Bun.NewSelect().
		Model(&booking).
		Where("booking_id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// CreateBooking → insert new booking
func (d *DB) CreateBooking(ctx context.Context, booking models.Booking) error {
	_, err := d.Bun.NewInsert().Model(&booking).Exec(ctx)
	return err
}

// UpdateBookingIfPending applies a customer edit only while the booking is
// still PENDING. The status guard is part of the UPDATE itself so a
// concurrent vendor transition cannot slip in between check and write.
// Returns false when the guard failed (0 rows affected).
func (d *DB) UpdateBookingIfPending(ctx context.Context, booking models.Booking) (bool, error) {
	res, err := d.Bun.NewUpdate().
		Model(&booking).
		Column("event_date", "duration_hours", "guest_count", "location",
			"special_requests", "additional_costs", "total_amount", "updated_at").
		Where("booking_id = ?", booking.BookingID).
		Where("status = ?", models.BookingPending).
		Exec(ctx)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

// TransitionStatus moves a booking to newStatus only if its current status is
// one of fromStates, as a single conditional UPDATE. This is the at-most-once
// guarantee: of two racing transitions, exactly one sees a row affected.
// The timestamp column matching newStatus is stamped in the same statement.
func (d *DB) TransitionStatus(ctx context.Context, bookingID string, fromStates []models.BookingStatus, newStatus models.BookingStatus, now time.Time) (bool, error) {
	if len(fromStates) == 0 {
		return false, errors.New("no from states given")
	}

	q := d.Bun.NewUpdate().
		Model((*models.Booking)(nil)).
		Set("status = ?", newStatus).
		Set("updated_at = ?", now).
		Where("booking_id = ?", bookingID).
		Where("status IN (?)", bun.In(fromStates))

	switch newStatus {
	case models.BookingApproved:
		q = q.Set("approved_at = ?", now)
	case models.BookingConfirmed:
		q = q.Set("confirmed_at = ?", now)
	case models.BookingCompleted:
		q = q.Set("completed_at = ?", now)
	}

	res, err := q.Exec(ctx)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

// SetPaymentStatus reconciles the payment state independently of the booking
// status. A COMPLETED payment is immutable; the guard refuses to move off it.
func (d *DB) SetPaymentStatus(ctx context.Context, bookingID string, state models.PaymentState) (bool, error) {
	res, err := d.Bun.NewUpdate().
		Model((*models.Booking)(nil)).
		Set("payment_status = ?", state).
		Set("updated_at = ?", time.Now()).
		Where("booking_id = ?", bookingID).
		Where("payment_status != ?", models.PaymentCompleted).
		Exec(ctx)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

// SetPaymentIntentID records the Stripe intent handle on the booking.
func (d *DB) SetPaymentIntentID(ctx context.Context, bookingID, intentID string) error {
	_, err := d.Bun.NewUpdate().
		Model((*models.Booking)(nil)).
		Set("payment_intent_id = ?", intentID).
		Where("booking_id = ?", bookingID).
		Exec(ctx)
	return err
}

// ListByCustomer → all bookings created by a customer, newest first
func (d *DB) ListByCustomer(ctx context.Context, customerID string) ([]models.Booking, error) {
	var bookings []models.Booking
	err := d.Bun.NewSelect().
		Model(&bookings).
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

// ListByVendor → all bookings addressed to a vendor, newest first
func (d *DB) ListByVendor(ctx context.Context, vendorID string) ([]models.Booking, error) {
	var bookings []models.Booking
	err := d.Bun.NewSelect().
		Model(&bookings).
		Where("vendor_id = ?", vendorID).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

// ---------------- PROJECTION LOOKUPS ----------------

func (d *DB) GetUser(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	err := d.Bun.NewSelect().
		Model(&user).
		Where("user_id = ?", userID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (d *DB) GetVendor(ctx context.Context, vendorID string) (*models.Vendor, error) {
	var vendor models.Vendor
	err := d.Bun.NewSelect().
		Model(&vendor).
		Where("vendor_id = ?", vendorID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &vendor, nil
}

func (d *DB) GetVendorByOwner(ctx context.Context, ownerID string) (*models.Vendor, error) {
	var vendor models.Vendor
	err := d.Bun.NewSelect().
		Model(&vendor).
		Where("owner_id = ?", ownerID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &vendor, nil
}

func (d *DB) GetService(ctx context.Context, serviceID string) (*models.Service, error) {
	var service models.Service
	err := d.Bun.NewSelect().
		Model(&service).
		Where("service_id = ?", serviceID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &service, nil
}

// IsNotFound reports whether err is the driver's empty-result error.
func IsNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
