package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/shopfront-backend/pkg/db/models"
	"github.com/angelmondragon/shopfront-backend/pkg/enums"
)

// UserDTO is the transport shape that omits sensitive credentials.
type UserDTO struct {
	ID                     uuid.UUID      `json:"id"`
	Username               string         `json:"username"`
	Email                  string         `json:"email"`
	FirstName              string         `json:"first_name"`
	LastName               string         `json:"last_name"`
	FullName               string         `json:"full_name"`
	PhoneNumber            *string        `json:"phone_number,omitempty"`
	DateOfBirth            *string        `json:"date_of_birth,omitempty"`
	NewsletterSubscription bool           `json:"newsletter_subscription"`
	IsActive               bool           `json:"is_active"`
	IsStaff                bool           `json:"is_staff"`
	IsSuperuser            bool           `json:"is_superuser"`
	Role                   enums.UserRole `json:"role"`
	LastLoginAt            *time.Time     `json:"last_login_at,omitempty"`
	CreatedAt              time.Time      `json:"created_at"`
	UpdatedAt              time.Time      `json:"updated_at"`
}

// RegisterInput carries the fields accepted at sign-up.
type RegisterInput struct {
	Email                  string
	Password               string
	FirstName              string
	LastName               string
	PhoneNumber            *string
	NewsletterSubscription bool
}

// UpdateProfileInput patches the caller's own profile.
type UpdateProfileInput struct {
	Email                  *string
	FirstName              *string
	LastName               *string
	PhoneNumber            *string
	DateOfBirth            *time.Time
	NewsletterSubscription *bool
}

// AdminUpdateInput is what staff may change on another account.
type AdminUpdateInput struct {
	Email     *string
	FirstName *string
	LastName  *string
	IsActive  *bool
	IsStaff   *bool
}

// Actor identifies the operator performing an admin action.
type Actor struct {
	UserID      uuid.UUID
	IsSuperuser bool
}

// ListParams filters the admin user listing.
type ListParams struct {
	Limit    int
	Cursor   string
	Search   string
	IsActive *bool
	IsStaff  *bool
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}
	dto := &UserDTO{
		ID:                     u.ID,
		Username:               u.Username,
		Email:                  u.Email,
		FirstName:              u.FirstName,
		LastName:               u.LastName,
		FullName:               u.FullName(),
		PhoneNumber:            u.PhoneNumber,
		NewsletterSubscription: u.NewsletterSubscription,
		IsActive:               u.IsActive,
		IsStaff:                u.IsStaff,
		IsSuperuser:            u.IsSuperuser,
		Role:                   enums.RoleFor(u.IsStaff, u.IsSuperuser),
		LastLoginAt:            u.LastLoginAt,
		CreatedAt:              u.CreatedAt,
		UpdatedAt:              u.UpdatedAt,
	}
	if u.DateOfBirth != nil {
		dob := u.DateOfBirth.Format("2006-01-02")
		dto.DateOfBirth = &dob
	}
	return dto
}
