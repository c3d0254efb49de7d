package models

import (
	"time"

	"github.com/uptrace/bun"
)

type VendorCategory string

const (
	CategoryVenue        VendorCategory = "VENUE"
	CategoryCaterer      VendorCategory = "CATERER"
	CategoryPhotographer VendorCategory = "PHOTOGRAPHER"
	CategoryDecorator    VendorCategory = "DECORATOR"
	CategoryMakeupArtist VendorCategory = "MAKEUP_ARTIST"
	CategoryMusic        VendorCategory = "MUSIC"
	CategoryTransport    VendorCategory = "TRANSPORT"
)

type VerificationStatus string

const (
	VerificationPending        VerificationStatus = "PENDING"
	VerificationDocumentSent   VerificationStatus = "DOCUMENT_SENT"
	VerificationDocumentSigned VerificationStatus = "DOCUMENT_SIGNED"
	VerificationVerified       VerificationStatus = "VERIFIED"
	VerificationRejected       VerificationStatus = "REJECTED"
	VerificationExpired        VerificationStatus = "EXPIRED"
)

type Vendor struct {
	bun.BaseModel `bun:"table:vendors"`

	VendorID           string             `bun:"vendor_id,pk" json:"vendor_id"`
	OwnerID            string             `bun:"owner_id" json:"owner_id"`
	BusinessName       string             `bun:"business_name" json:"business_name"`
	Category           VendorCategory     `bun:"category" json:"category"`
	ContactEmail       string             `bun:"contact_email" json:"contact_email"`
	VerificationStatus VerificationStatus `bun:"verification_status" json:"verification_status"`
	VerificationNotes  string             `bun:"verification_notes,nullzero" json:"verification_notes,omitempty"`
	IsActive           bool               `bun:"is_active" json:"is_active"`
	IsVerified         bool               `bun:"is_verified" json:"is_verified"`
	Rating             float64            `bun:"rating" json:"rating"`
	ReviewCount        int                `bun:"review_count" json:"review_count"`
	DocumentSignedAt   *time.Time         `bun:"document_signed_at,nullzero" json:"document_signed_at,omitempty"`
	CreatedAt          time.Time          `bun:"created_at" json:"created_at"`
}

// CanTransact reports whether the vendor may offer services and accept bookings.
func (v *Vendor) CanTransact() bool {
	return v.VerificationStatus == VerificationVerified && v.IsActive
}

type VendorSummary struct {
	VendorID     string         `json:"vendor_id"`
	BusinessName string         `json:"business_name"`
	Category     VendorCategory `json:"category"`
	Rating       float64        `json:"rating"`
	ReviewCount  int            `json:"review_count"`
}

func (v *Vendor) Summary() VendorSummary {
	return VendorSummary{
		VendorID:     v.VendorID,
		BusinessName: v.BusinessName,
		Category:     v.Category,
		Rating:       v.Rating,
		ReviewCount:  v.ReviewCount,
	}
}

type Review struct {
	bun.BaseModel `bun:"table:reviews"`

	ReviewID   string    `bun:"review_id,pk" json:"review_id"`
	VendorID   string    `bun:"vendor_id" json:"vendor_id"`
	CustomerID string    `bun:"customer_id" json:"customer_id"`
	BookingID  string    `bun:"booking_id" json:"booking_id"`
	Rating     int       `bun:"rating" json:"rating"`
	Comment    string    `bun:"comment,nullzero" json:"comment,omitempty"`
	CreatedAt  time.Time `bun:"created_at" json:"created_at"`
}

type ReviewRequest struct {
	BookingID string `json:"booking_id"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment,omitempty"`
}
