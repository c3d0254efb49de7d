package vendor

import (
	"context"
	"fmt"
	"time"

	"shaadibiyah/internal/apperr"
	"shaadibiyah/internal/logger"
	"shaadibiyah/internal/models"

	"github.com/google/uuid"
)

type DBLayer interface {
	CreateVendor(ctx context.Context, vendor models.Vendor) error
	GetVendorByID(ctx context.Context, vendorID string) (*models.Vendor, error)
	GetVendorByOwner(ctx context.Context, ownerID string) (*models.Vendor, error)
	ListVendors(ctx context.Context, category models.VendorCategory) ([]models.Vendor, error)
	UpdateVendorProfile(ctx context.Context, vendor models.Vendor) error
	CreateService(ctx context.Context, service models.Service) error
	GetServiceByID(ctx context.Context, serviceID string) (*models.Service, error)
	ListServicesByVendor(ctx context.Context, vendorID string) ([]models.Service, error)
	UpdateService(ctx context.Context, service models.Service) error
	AddReview(ctx context.Context, review models.Review) error
	GetReviewByBooking(ctx context.Context, bookingID string) (*models.Review, error)
	ListReviewsByVendor(ctx context.Context, vendorID string) ([]models.Review, error)
	GetBookingByID(ctx context.Context, bookingID string) (*models.Booking, error)
}

type Service struct {
	DB     DBLayer
	logger *logger.Logger
}

func NewService(db DBLayer, log *logger.Logger) *Service {
	return &Service{DB: db, logger: log}
}

type RegisterRequest struct {
	BusinessName string                `json:"business_name"`
	Category     models.VendorCategory `json:"category"`
	ContactEmail string                `json:"contact_email"`
}

var validCategories = map[models.VendorCategory]bool{
	models.CategoryVenue:        true,
	models.CategoryCaterer:      true,
	models.CategoryPhotographer: true,
	models.CategoryDecorator:    true,
	models.CategoryMakeupArtist: true,
	models.CategoryMusic:        true,
	models.CategoryTransport:    true,
}

// Register creates a vendor profile for the caller. The profile starts
// unverified; it cannot take bookings until the verification workflow
// completes.
func (s *Service) Register(ctx context.Context, ownerID string, req RegisterRequest) (*models.Vendor, error) {
	if req.BusinessName == "" {
		return nil, apperr.New(apperr.Validation, "business name is required")
	}
	if !validCategories[req.Category] {
		return nil, apperr.Newf(apperr.Validation, "unknown vendor category %s", req.Category)
	}
	if existing, err := s.DB.GetVendorByOwner(ctx, ownerID); err == nil && existing != nil {
		return nil, apperr.New(apperr.Conflict, "caller already owns a vendor profile")
	}

	vendor := models.Vendor{
		VendorID:           uuid.NewString(),
		OwnerID:            ownerID,
		BusinessName:       req.BusinessName,
		Category:           req.Category,
		ContactEmail:       req.ContactEmail,
		VerificationStatus: models.VerificationPending,
		IsActive:           true,
		CreatedAt:          time.Now(),
	}
	if err := s.DB.CreateVendor(ctx, vendor); err != nil {
		return nil, fmt.Errorf("failed to create vendor: %w", err)
	}
	s.logger.Info("VENDOR", fmt.Sprintf("registered vendor %s (%s)", vendor.VendorID, vendor.BusinessName))
	return &vendor, nil
}

func (s *Service) GetVendor(ctx context.Context, vendorID string) (*models.Vendor, error) {
	vendor, err := s.DB.GetVendorByID(ctx, vendorID)
	if err != nil {
		return nil, apperr.Wrap(apperr.NotFound, "vendor not found", err)
	}
	return vendor, nil
}

func (s *Service) ListVendors(ctx context.Context, category models.VendorCategory) ([]models.Vendor, error) {
	if category != "" && !validCategories[category] {
		return nil, apperr.Newf(apperr.Validation, "unknown vendor category %s", category)
	}
	return s.DB.ListVendors(ctx, category)
}

type ProfilePatch struct {
	BusinessName *string                `json:"business_name,omitempty"`
	Category     *models.VendorCategory `json:"category,omitempty"`
	ContactEmail *string                `json:"contact_email,omitempty"`
	IsActive     *bool                  `json:"is_active,omitempty"`
}

func (s *Service) UpdateProfile(ctx context.Context, vendorID, callerID string, patch ProfilePatch) (*models.Vendor, error) {
	vendor, err := s.DB.GetVendorByID(ctx, vendorID)
	if err != nil {
		return nil, apperr.Wrap(apperr.NotFound, "vendor not found", err)
	}
	if vendor.OwnerID != callerID {
		return nil, apperr.New(apperr.Authorization, "only the vendor owner may edit the profile")
	}

	if patch.BusinessName != nil {
		vendor.BusinessName = *patch.BusinessName
	}
	if patch.Category != nil {
		if !validCategories[*patch.Category] {
			return nil, apperr.Newf(apperr.Validation, "unknown vendor category %s", *patch.Category)
		}
		vendor.Category = *patch.Category
	}
	if patch.ContactEmail != nil {
		vendor.ContactEmail = *patch.ContactEmail
	}
	if patch.IsActive != nil {
		vendor.IsActive = *patch.IsActive
	}

	if err := s.DB.UpdateVendorProfile(ctx, *vendor); err != nil {
		return nil, fmt.Errorf("failed to update vendor: %w", err)
	}
	return vendor, nil
}

// ---------------- SERVICES ----------------

type ServiceRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	BasePrice   float64 `json:"base_price"`
}

func (s *Service) CreateService(ctx context.Context, callerID string, req ServiceRequest) (*models.Service, error) {
	if req.Name == "" {
		return nil, apperr.New(apperr.Validation, "service name is required")
	}
	if req.BasePrice <= 0 {
		return nil, apperr.New(apperr.Validation, "base price must be positive")
	}

	vendor, err := s.DB.GetVendorByOwner(ctx, callerID)
	if err != nil {
		return nil, apperr.Wrap(apperr.NotFound, "no vendor owned by caller", err)
	}

	svc := models.Service{
		ServiceID:   uuid.NewString(),
		VendorID:    vendor.VendorID,
		Name:        req.Name,
		Description: req.Description,
		BasePrice:   req.BasePrice,
		IsActive:    true,
		CreatedAt:   time.Now(),
	}
	if err := s.DB.CreateService(ctx, svc); err != nil {
		return nil, fmt.Errorf("failed to create service: %w", err)
	}
	s.logger.Info("VENDOR", fmt.Sprintf("vendor %s added service %s", vendor.VendorID, svc.Name))
	return &svc, nil
}

func (s *Service) ListServices(ctx context.Context, vendorID string) ([]models.Service, error) {
	if _, err := s.DB.GetVendorByID(ctx, vendorID); err != nil {
		return nil, apperr.Wrap(apperr.NotFound, "vendor not found", err)
	}
	return s.DB.ListServicesByVendor(ctx, vendorID)
}

type ServicePatch struct {
	Name        *string  `json:"name,omitempty"`
	Description *string  `json:"description,omitempty"`
	BasePrice   *float64 `json:"base_price,omitempty"`
	IsActive    *bool    `json:"is_active,omitempty"`
}

func (s *Service) UpdateServiceListing(ctx context.Context, serviceID, callerID string, patch ServicePatch) (*models.Service, error) {
	svc, err := s.DB.GetServiceByID(ctx, serviceID)
	if err != nil {
		return nil, apperr.Wrap(apperr.NotFound, "service not found", err)
	}
	vendor, err := s.DB.GetVendorByID(ctx, svc.VendorID)
	if err != nil {
		return nil, fmt.Errorf("failed to load vendor: %w", err)
	}
	if vendor.OwnerID != callerID {
		return nil, apperr.New(apperr.Authorization, "only the vendor owner may edit services")
	}

	if patch.Name != nil {
		svc.Name = *patch.Name
	}
	if patch.Description != nil {
		svc.Description = *patch.Description
	}
	if patch.BasePrice != nil {
		if *patch.BasePrice <= 0 {
			return nil, apperr.New(apperr.Validation, "base price must be positive")
		}
		svc.BasePrice = *patch.BasePrice
	}
	if patch.IsActive != nil {
		svc.IsActive = *patch.IsActive
	}

	if err := s.DB.UpdateService(ctx, *svc); err != nil {
		return nil, fmt.Errorf("failed to update service: %w", err)
	}
	return svc, nil
}

// ---------------- REVIEWS ----------------

// AddReview accepts one review per COMPLETED booking, from the booking's
// customer only. The vendor rating is the arithmetic mean over all reviews,
// recomputed inside the same transaction as the insert.
func (s *Service) AddReview(ctx context.Context, customerID string, req models.ReviewRequest) (*models.Review, error) {
	if req.Rating < 1 || req.Rating > 5 {
		return nil, apperr.New(apperr.Validation, "rating must be between 1 and 5")
	}

	booking, err := s.DB.GetBookingByID(ctx, req.BookingID)
	if err != nil {
		return nil, apperr.Wrap(apperr.NotFound, "booking not found", err)
	}
	if booking.CustomerID != customerID {
		return nil, apperr.New(apperr.Authorization, "only the booking customer may review it")
	}
	if booking.Status != models.BookingCompleted {
		return nil, apperr.Newf(apperr.Conflict, "booking is %s; only completed bookings can be reviewed", booking.Status)
	}
	if existing, err := s.DB.GetReviewByBooking(ctx, req.BookingID); err == nil && existing != nil {
		return nil, apperr.New(apperr.Conflict, "booking already reviewed")
	}

	review := models.Review{
		ReviewID:   uuid.NewString(),
		VendorID:   booking.VendorID,
		CustomerID: customerID,
		BookingID:  req.BookingID,
		Rating:     req.Rating,
		Comment:    req.Comment,
		CreatedAt:  time.Now(),
	}
	if err := s.DB.AddReview(ctx, review); err != nil {
		return nil, fmt.Errorf("failed to add review: %w", err)
	}
	s.logger.Info("VENDOR", fmt.Sprintf("review %d/5 recorded for vendor %s", review.Rating, review.VendorID))
	return &review, nil
}

func (s *Service) ListReviews(ctx context.Context, vendorID string) ([]models.Review, error) {
	if _, err := s.DB.GetVendorByID(ctx, vendorID); err != nil {
		return nil, apperr.Wrap(apperr.NotFound, "vendor not found", err)
	}
	return s.DB.ListReviewsByVendor(ctx, vendorID)
}
