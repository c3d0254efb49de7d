package db_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"shaadibiyah/internal/models"
	"shaadibiyah/internal/vendors/db"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "github.com/uptrace/bun/driver/sqliteshim"
)

func setupTestDB(t *testing.T) (*db.DB, *bun.DB) {
	sqldb, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to connect to in-memory database: %v", err)
	}

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())

	for _, model := range []interface{}{
		(*models.Vendor)(nil),
		(*models.Service)(nil),
		(*models.Review)(nil),
		(*models.Booking)(nil),
	} {
		_, err = bunDB.NewCreateTable().Model(model).Exec(context.Background())
		if err != nil {
			t.Fatalf("Failed to create table: %v", err)
		}
	}

	return &db.DB{Bun: bunDB}, bunDB
}

func insertVendor(t *testing.T, bunDB *bun.DB, status models.VerificationStatus, category models.VendorCategory) models.Vendor {
	vendor := models.Vendor{
		VendorID:           uuid.New().String(),
		OwnerID:            uuid.New().String(),
		BusinessName:       "Test Vendor",
		Category:           category,
		ContactEmail:       "vendor@example.com",
		VerificationStatus: status,
		IsActive:           true,
		CreatedAt:          time.Now(),
	}
	_, err := bunDB.NewInsert().Model(&vendor).Exec(context.Background())
	assert.NoError(t, err)
	return vendor
}

func TestListVendorsOnlyVerified(t *testing.T) {
	vendorDB, bunDB := setupTestDB(t)
	defer bunDB.Close()

	verified := insertVendor(t, bunDB, models.VerificationVerified, models.CategoryVenue)
	insertVendor(t, bunDB, models.VerificationPending, models.CategoryVenue)
	insertVendor(t, bunDB, models.VerificationVerified, models.CategoryCaterer)

	vendors, err := vendorDB.ListVendors(context.Background(), models.CategoryVenue)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(vendors))
	assert.Equal(t, verified.VendorID, vendors[0].VendorID)

	// No category filter: all verified vendors
	all, err := vendorDB.ListVendors(context.Background(), "")
	assert.NoError(t, err)
	assert.Equal(t, 2, len(all))
}

func TestAddReviewRecomputesMean(t *testing.T) {
	vendorDB, bunDB := setupTestDB(t)
	defer bunDB.Close()

	vendor := insertVendor(t, bunDB, models.VerificationVerified, models.CategoryPhotographer)

	ratings := []int{5, 3, 4}
	for _, rating := range ratings {
		review := models.Review{
			ReviewID:   uuid.New().String(),
			VendorID:   vendor.VendorID,
			CustomerID: uuid.New().String(),
			BookingID:  uuid.New().String(),
			Rating:     rating,
			CreatedAt:  time.Now(),
		}
		err := vendorDB.AddReview(context.Background(), review)
		assert.NoError(t, err)
	}

	updated, err := vendorDB.GetVendorByID(context.Background(), vendor.VendorID)
	assert.NoError(t, err)
	assert.Equal(t, 3, updated.ReviewCount)
	assert.InDelta(t, 4.0, updated.Rating, 0.001)
}

func TestGetReviewByBooking(t *testing.T) {
	vendorDB, bunDB := setupTestDB(t)
	defer bunDB.Close()

	vendor := insertVendor(t, bunDB, models.VerificationVerified, models.CategoryMusic)
	bookingID := uuid.New().String()

	review := models.Review{
		ReviewID:   uuid.New().String(),
		VendorID:   vendor.VendorID,
		CustomerID: "cust-1",
		BookingID:  bookingID,
		Rating:     5,
		Comment:    "Brilliant qawwali night",
		CreatedAt:  time.Now(),
	}
	err := vendorDB.AddReview(context.Background(), review)
	assert.NoError(t, err)

	found, err := vendorDB.GetReviewByBooking(context.Background(), bookingID)
	assert.NoError(t, err)
	assert.Equal(t, review.ReviewID, found.ReviewID)

	missing, err := vendorDB.GetReviewByBooking(context.Background(), "no-such-booking")
	assert.Error(t, err)
	assert.Nil(t, missing)
	assert.True(t, db.IsNotFound(err))
}

func TestServiceCRUD(t *testing.T) {
	vendorDB, bunDB := setupTestDB(t)
	defer bunDB.Close()

	vendor := insertVendor(t, bunDB, models.VerificationVerified, models.CategoryCaterer)

	service := models.Service{
		ServiceID: uuid.New().String(),
		VendorID:  vendor.VendorID,
		Name:      "Deluxe Buffet",
		BasePrice: 1500.0,
		IsActive:  true,
		CreatedAt: time.Now(),
	}
	err := vendorDB.CreateService(context.Background(), service)
	assert.NoError(t, err)

	services, err := vendorDB.ListServicesByVendor(context.Background(), vendor.VendorID)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(services))

	service.BasePrice = 1800.0
	service.IsActive = false
	err = vendorDB.UpdateService(context.Background(), service)
	assert.NoError(t, err)

	updated, err := vendorDB.GetServiceByID(context.Background(), service.ServiceID)
	assert.NoError(t, err)
	assert.Equal(t, 1800.0, updated.BasePrice)
	assert.False(t, updated.IsActive)
}
