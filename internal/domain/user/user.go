package user

import (
	"context"
	"time"

	"github.com/geocoder89/yardsale/internal/apperr"
)

const (
	RoleUser      = "user"
	RoleModerator = "moderator"
	RoleAdmin     = "admin"
	RoleReadOnly  = "readonly"
)

var (
	ErrNotFound   = apperr.NotFound("User.NotFound", "user not found")
	ErrEmailTaken = apperr.Conflict("User.EmailTaken", "email is already registered")
)

type User struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	PasswordHash  string    `json:"-"` // never expose hash in JSON
	Name          string    `json:"name"`
	Role          string    `json:"role"`
	IsActive      bool      `json:"isActive"`
	EmailVerified bool      `json:"emailVerified"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// CanCreateEvents reports whether the role is allowed to organize sales.
func (u User) CanCreateEvents() bool {
	switch u.Role {
	case RoleUser, RoleModerator, RoleAdmin:
		return true
	}
	return false
}

func (u User) IsStaff() bool {
	return IsStaffRole(u.Role)
}

func IsStaffRole(role string) bool {
	return role == RoleAdmin || role == RoleModerator
}

type Reader interface {
	GetByID(ctx context.Context, id string) (User, error)
}
