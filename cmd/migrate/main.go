package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"shaadibiyah/internal/config"
	"shaadibiyah/internal/models"
)

// Development reset tool: drops every marketplace table, recreates the
// schema from the bun models and seeds a small working data set. Never
// point this at a production database.

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Println(".env file not found, using environment variables")
	}
	cfg := config.Load()

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		cfg.Database.Username, cfg.Database.Password,
		cfg.Database.Host, cfg.Database.Port, cfg.Database.Database)
	connector := pgdriver.NewConnector(pgdriver.WithDSN(dsn))
	sqldb := sql.OpenDB(connector)
	defer sqldb.Close()

	if err := sqldb.PingContext(ctx); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	db := bun.NewDB(sqldb, pgdialect.New())

	log.Println("Dropping tables...")
	_ = dropTables(ctx, db)

	log.Println("Creating tables...")
	_ = createTables(ctx, db)

	log.Println("Seeding sample data...")
	_ = seedData(ctx, db)

	log.Println("✅ Done.")
}

func dropTables(ctx context.Context, db *bun.DB) error {
	tables := []interface{}{
		(*models.Review)(nil),
		(*models.Notification)(nil),
		(*models.Message)(nil),
		(*models.ChatSession)(nil),
		(*models.VerificationDocument)(nil),
		(*models.Booking)(nil),
		(*models.Service)(nil),
		(*models.Vendor)(nil),
		(*models.User)(nil),
	}
	for _, m := range tables {
		_, _ = db.NewDropTable().Model(m).IfExists().Cascade().Exec(ctx)
	}
	return nil
}

func createTables(ctx context.Context, db *bun.DB) error {
	tables := []interface{}{
		(*models.User)(nil),
		(*models.Vendor)(nil),
		(*models.Service)(nil),
		(*models.Booking)(nil),
		(*models.VerificationDocument)(nil),
		(*models.ChatSession)(nil),
		(*models.Message)(nil),
		(*models.Notification)(nil),
		(*models.Review)(nil),
	}
	for _, m := range tables {
		_, err := db.NewCreateTable().Model(m).IfNotExists().Exec(ctx)
		if err != nil {
			log.Fatalf("❌ Failed to create table for %T: %v", m, err)
		}
	}
	return nil
}

func seedData(ctx context.Context, db *bun.DB) error {
	now := time.Now()

	users := []models.User{
		{UserID: "user-admin-001", Email: "admin@shaadibiyah.com", FullName: "Platform Admin", Role: models.RoleAdmin, CreatedAt: now},
		{UserID: "user-cust-001", Email: "ayesha@example.com", FullName: "Ayesha Khan", Phone: "+92-300-1234567", Role: models.RoleCustomer, CreatedAt: now},
		{UserID: "user-vend-001", Email: "owner@shahicaterers.pk", FullName: "Imran Shahid", Phone: "+92-333-1112223", Role: models.RoleVendor, CreatedAt: now},
	}
	_, _ = db.NewInsert().Model(&users).Exec(ctx)

	vendor := models.Vendor{
		VendorID:           "vendor-001",
		OwnerID:            "user-vend-001",
		BusinessName:       "Shahi Caterers",
		Category:           models.CategoryCaterer,
		ContactEmail:       "bookings@shahicaterers.pk",
		VerificationStatus: models.VerificationVerified,
		IsActive:           true,
		IsVerified:         true,
		Rating:             4.5,
		ReviewCount:        2,
		CreatedAt:          now,
	}
	_, _ = db.NewInsert().Model(&vendor).Exec(ctx)

	services := []models.Service{
		{ServiceID: "service-001", VendorID: "vendor-001", Name: "Mehndi Dinner Package", Description: "Full dinner service for mehndi night, per 100 guests.", BasePrice: 250000, IsActive: true, CreatedAt: now},
		{ServiceID: "service-002", VendorID: "vendor-001", Name: "Walima Buffet", Description: "Premium walima buffet with live stations.", BasePrice: 400000, IsActive: true, CreatedAt: now},
	}
	_, _ = db.NewInsert().Model(&services).Exec(ctx)

	booking := models.Booking{
		BookingID:       "booking-001",
		CustomerID:      "user-cust-001",
		VendorID:        "vendor-001",
		ServiceID:       "service-001",
		EventDate:       now.AddDate(0, 1, 0),
		DurationHours:   5,
		GuestCount:      300,
		Location:        "DHA Phase 5, Lahore",
		BasePrice:       250000,
		AdditionalCosts: 50000,
		TotalAmount:     300000,
		Status:          models.BookingApproved,
		PaymentStatus:   models.PaymentPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	_, _ = db.NewInsert().Model(&booking).Exec(ctx)

	return nil
}
