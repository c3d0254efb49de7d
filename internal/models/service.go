package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Service struct {
	bun.BaseModel `bun:"table:services"`

	ServiceID   string    `bun:"service_id,pk" json:"service_id"`
	VendorID    string    `bun:"vendor_id" json:"vendor_id"`
	Name        string    `bun:"name" json:"name"`
	Description string    `bun:"description,nullzero" json:"description,omitempty"`
	BasePrice   float64   `bun:"base_price" json:"base_price"`
	IsActive    bool      `bun:"is_active" json:"is_active"`
	CreatedAt   time.Time `bun:"created_at" json:"created_at"`
}

type ServiceSummary struct {
	ServiceID string  `json:"service_id"`
	Name      string  `json:"name"`
	BasePrice float64 `json:"base_price"`
}

func (s *Service) Summary() ServiceSummary {
	return ServiceSummary{
		ServiceID: s.ServiceID,
		Name:      s.Name,
		BasePrice: s.BasePrice,
	}
}
