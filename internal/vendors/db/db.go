package db

import (
	"context"
	"database/sql"
	"errors"

	"shaadibiyah/internal/models"

	"github.com/uptrace/bun"
)

type DB struct {
	Bun *bun.DB
}

// ---------------- VENDORS ----------------

func (d *DB) CreateVendor(ctx context.Context, vendor models.Vendor) error {
	_, err := d.Bun.NewInsert().Model(&vendor).Exec(ctx)
	return err
}

func (d *DB) GetVendorByID(ctx context.Context, vendorID string) (*models.Vendor, error) {
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

// ListVendors returns active vendors, optionally filtered by category.
// Only verified vendors appear in the public catalog.
func (d *DB) ListVendors(ctx context.Context, category models.VendorCategory) ([]models.Vendor, error) {
	var vendors []models.Vendor
	q := d.Bun.NewSelect().
		Model(&vendors).
		Where("is_active = ?", true).
		Where("verification_status = ?", models.VerificationVerified).
		Order("rating DESC")
	if category != "" {
		q = q.Where("category = ?", category)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	return vendors, nil
}

func (d *DB) UpdateVendorProfile(ctx context.Context, vendor models.Vendor) error {
	_, err := d.Bun.NewUpdate().
		Model(&vendor).
		Column("business_name", "category", "contact_email", "is_active").
		Where("vendor_id = ?", vendor.VendorID).
		Exec(ctx)
	return err
}

// ---------------- SERVICES ----------------

func (d *DB) CreateService(ctx context.Context, service models.Service) error {
	_, err := d.Bun.NewInsert().Model(&service).Exec(ctx)
	return err
}

func (d *DB) GetServiceByID(ctx context.Context, serviceID string) (*models.Service, error) {
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

func (d *DB) ListServicesByVendor(ctx context.Context, vendorID string) ([]models.Service, error) {
	var services []models.Service
	err := d.Bun.NewSelect().
		Model(&services).
		Where("vendor_id = ?", vendorID).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return services, nil
}

func (d *DB) UpdateService(ctx context.Context, service models.Service) error {
	_, err := d.Bun.NewUpdate().
		Model(&service).
		Column("name", "description", "base_price", "is_active").
		Where("service_id = ?", service.ServiceID).
		Exec(ctx)
	return err
}

// ---------------- REVIEWS ----------------

// AddReview inserts the review and recomputes the vendor's rating aggregate
// in one transaction, so a crash between the two cannot skew the mean.
func (d *DB) AddReview(ctx context.Context, review models.Review) error {
	return d.Bun.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(&review).Exec(ctx); err != nil {
			return err
		}

		var agg struct {
			Count int     `bun:"cnt"`
			Mean  float64 `bun:"mean"`
		}
		err := tx.NewSelect().
			Model((*models.Review)(nil)).
			ColumnExpr("COUNT(*) AS cnt").
			ColumnExpr("AVG(rating) AS mean").
			Where("vendor_id = ?", review.VendorID).
			Scan(ctx, &agg)
		if err != nil {
			return err
		}

		_, err = tx.NewUpdate().
			Model((*models.Vendor)(nil)).
			Set("rating = ?", agg.Mean).
			Set("review_count = ?", agg.Count).
			Where("vendor_id = ?", review.VendorID).
			Exec(ctx)
		return err
	})
}

func (d *DB) GetReviewByBooking(ctx context.Context, bookingID string) (*models.Review, error) {
	var review models.Review
	err := d.Bun.NewSelect().
		Model(&review).
		Where("booking_id = ?", bookingID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &review, nil
}

func (d *DB) ListReviewsByVendor(ctx context.Context, vendorID string) ([]models.Review, error) {
	var reviews []models.Review
	err := d.Bun.NewSelect().
		Model(&reviews).
		Where("vendor_id = ?", vendorID).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return reviews, nil
}

func (d *DB) GetBookingByID(ctx context.Context, bookingID string) (*models.Booking, error) {
	var booking models.Booking
	err := d.Bun.NewSelect().
		Model(&booking).
		Where("booking_id = ?", bookingID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// IsNotFound reports whether err is the driver's empty-result error.
func IsNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
