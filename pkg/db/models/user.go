package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents the canonical identity entity.
type User struct {
	ID                     uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	Username               string     `gorm:"column:username;size:150;not null;uniqueIndex:users_username_key"`
	Email                  string     `gorm:"column:email;not null;uniqueIndex:users_email_key"`
	PasswordHash           string     `gorm:"column:password_hash;not null"`
	FirstName              string     `gorm:"column:first_name;size:150;not null;default:''"`
	LastName               string     `gorm:"column:last_name;size:150;not null;default:''"`
	PhoneNumber            *string    `gorm:"column:phone_number;size:17"`
	DateOfBirth            *time.Time `gorm:"column:date_of_birth"`
	NewsletterSubscription bool       `gorm:"column:newsletter_subscription;not null"`
	IsActive               bool       `gorm:"column:is_active;not null"`
	IsStaff                bool       `gorm:"column:is_staff;not null"`
	IsSuperuser            bool       `gorm:"column:is_superuser;not null"`
	LastLoginAt            *time.Time `gorm:"column:last_login_at"`
	CreatedAt              time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt              time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	ensureID(&u.ID)
	return nil
}

func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}
