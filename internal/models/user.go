package models

import (
	"time"

	"github.com/uptrace/bun"
)

type UserRole string

const (
	RoleCustomer UserRole = "customer"
	RoleVendor   UserRole = "vendor"
	RoleAdmin    UserRole = "admin"
)

type User struct {
	bun.BaseModel `bun:"table:users"`

	UserID    string    `bun:"user_id,pk" json:"user_id"`
	Email     string    `bun:"email" json:"email"`
	FullName  string    `bun:"full_name" json:"full_name"`
	Phone     string    `bun:"phone" json:"phone,omitempty"`
	Role      UserRole  `bun:"role" json:"role"`
	CreatedAt time.Time `bun:"created_at" json:"created_at"`
}

// UserSummary is the denormalized projection embedded in booking responses.
type UserSummary struct {
	UserID   string `json:"user_id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone,omitempty"`
}

func (u *User) Summary() UserSummary {
	return UserSummary{
		UserID:   u.UserID,
		FullName: u.FullName,
		Email:    u.Email,
		Phone:    u.Phone,
	}
}
