package analytics

import (
	"context"
	"time"

	"shaadibiyah/internal/models"

	"github.com/uptrace/bun"
)

// Service handles analytics operations
type Service struct {
	db *bun.DB
}

// NewService creates a new analytics service
func NewService(db *bun.DB) *Service {
	return &Service{db: db}
}

// VendorAnalytics represents aggregated booking data for one vendor
type VendorAnalytics struct {
	VendorID            string                `json:"vendor_id"`
	TotalBookings       int                   `json:"total_bookings"`
	CompletedBookings   int                   `json:"completed_bookings"`
	CancelledBookings   int                   `json:"cancelled_bookings"`
	TotalRevenue        float64               `json:"total_revenue"`
	AverageBookingValue float64               `json:"average_booking_value"`
	MonthlySales        []MonthlySalesMetrics `json:"monthly_sales"`
	SalesByService      []ServiceSalesMetrics `json:"sales_by_service"`
}

// MonthlySalesMetrics contains metrics for a single calendar month
type MonthlySalesMetrics struct {
	Month    string  `json:"month"`
	Revenue  float64 `json:"revenue"`
	Bookings int     `json:"bookings"`
}

// ServiceSalesMetrics contains booking metrics for one service listing
type ServiceSalesMetrics struct {
	ServiceID   string  `json:"service_id"`
	ServiceName string  `json:"service_name"`
	Bookings    int     `json:"bookings"`
	Revenue     float64 `json:"revenue"`
}

// PlatformAnalytics represents marketplace-wide metrics for admins
type PlatformAnalytics struct {
	TotalVendors       int                    `json:"total_vendors"`
	VerifiedVendors    int                    `json:"verified_vendors"`
	TotalBookings      int                    `json:"total_bookings"`
	TotalRevenue       float64                `json:"total_revenue"`
	BookingsByCategory []CategorySalesMetrics `json:"bookings_by_category"`
}

// CategorySalesMetrics contains booking metrics per vendor category
type CategorySalesMetrics struct {
	Category models.VendorCategory `json:"category"`
	Bookings int                   `json:"bookings"`
	Revenue  float64               `json:"revenue"`
}

// GetVendorAnalytics returns booking and revenue analytics for a vendor.
// Revenue only counts COMPLETED bookings; everything else is volume.
func (s *Service) GetVendorAnalytics(ctx context.Context, vendorID string) (*VendorAnalytics, error) {
	var bookings []models.Booking
	err := s.db.NewSelect().
		Model(&bookings).
		Where("vendor_id = ?", vendorID).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	var services []models.Service
	err = s.db.NewSelect().
		Model(&services).
		Where("vendor_id = ?", vendorID).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	serviceNames := make(map[string]string, len(services))
	for _, svc := range services {
		serviceNames[svc.ServiceID] = svc.Name
	}

	analytics := &VendorAnalytics{
		VendorID:      vendorID,
		TotalBookings: len(bookings),
	}

	monthly := make(map[string]*MonthlySalesMetrics)
	byService := make(map[string]*ServiceSalesMetrics)
	var monthKeys []string

	for _, b := range bookings {
		switch b.Status {
		case models.BookingCompleted:
			analytics.CompletedBookings++
			analytics.TotalRevenue += b.TotalAmount
		case models.BookingCancelled:
			analytics.CancelledBookings++
		}

		month := b.CreatedAt.Format("2006-01")
		m, ok := monthly[month]
		if !ok {
			m = &MonthlySalesMetrics{Month: month}
			monthly[month] = m
			monthKeys = append(monthKeys, month)
		}
		m.Bookings++
		if b.Status == models.BookingCompleted {
			m.Revenue += b.TotalAmount
		}

		sm, ok := byService[b.ServiceID]
		if !ok {
			sm = &ServiceSalesMetrics{
				ServiceID:   b.ServiceID,
				ServiceName: serviceNames[b.ServiceID],
			}
			byService[b.ServiceID] = sm
		}
		sm.Bookings++
		if b.Status == models.BookingCompleted {
			sm.Revenue += b.TotalAmount
		}
	}

	if analytics.CompletedBookings > 0 {
		analytics.AverageBookingValue = analytics.TotalRevenue / float64(analytics.CompletedBookings)
	}

	for _, month := range monthKeys {
		analytics.MonthlySales = append(analytics.MonthlySales, *monthly[month])
	}
	for _, svc := range services {
		if sm, ok := byService[svc.ServiceID]; ok {
			analytics.SalesByService = append(analytics.SalesByService, *sm)
		}
	}

	return analytics, nil
}

// GetPlatformAnalytics returns marketplace-wide aggregates for the admin
// dashboard.
func (s *Service) GetPlatformAnalytics(ctx context.Context) (*PlatformAnalytics, error) {
	totalVendors, err := s.db.NewSelect().Model((*models.Vendor)(nil)).Count(ctx)
	if err != nil {
		return nil, err
	}

	verifiedVendors, err := s.db.NewSelect().
		Model((*models.Vendor)(nil)).
		Where("verification_status = ?", models.VerificationVerified).
		Count(ctx)
	if err != nil {
		return nil, err
	}

	var vendors []models.Vendor
	err = s.db.NewSelect().
		Model(&vendors).
		Column("vendor_id", "category").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	categories := make(map[string]models.VendorCategory, len(vendors))
	for _, v := range vendors {
		categories[v.VendorID] = v.Category
	}

	var bookings []models.Booking
	err = s.db.NewSelect().
		Model(&bookings).
		Column("vendor_id", "status", "total_amount").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	analytics := &PlatformAnalytics{
		TotalVendors:    totalVendors,
		VerifiedVendors: verifiedVendors,
		TotalBookings:   len(bookings),
	}

	byCategory := make(map[models.VendorCategory]*CategorySalesMetrics)
	for _, b := range bookings {
		category := categories[b.VendorID]
		cm, ok := byCategory[category]
		if !ok {
			cm = &CategorySalesMetrics{Category: category}
			byCategory[category] = cm
		}
		cm.Bookings++
		if b.Status == models.BookingCompleted {
			cm.Revenue += b.TotalAmount
			analytics.TotalRevenue += b.TotalAmount
		}
	}
	for _, cm := range byCategory {
		analytics.BookingsByCategory = append(analytics.BookingsByCategory, *cm)
	}

	return analytics, nil
}

// ResolveVendorByOwner maps the authenticated user to their vendor profile.
func (s *Service) ResolveVendorByOwner(ctx context.Context, ownerID string) (*models.Vendor, error) {
	vendor := new(models.Vendor)
	err := s.db.NewSelect().
		Model(vendor).
		Where("owner_id = ?", ownerID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return vendor, nil
}

// BookingsInRange returns the vendor's bookings whose event date falls in
// [from, to), most imminent first.
func (s *Service) BookingsInRange(ctx context.Context, vendorID string, from, to time.Time) ([]models.Booking, error) {
	var bookings []models.Booking
	err := s.db.NewSelect().
		Model(&bookings).
		Where("vendor_id = ?", vendorID).
		Where("event_date >= ?", from).
		Where("event_date < ?", to).
		Order("event_date ASC").
		Scan(ctx)
	return bookings, err
}
