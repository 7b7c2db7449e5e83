package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/shopfront-backend/pkg/enums"
)

// Address is an address-book entry. At most one per user has IsDefault set.
type Address struct {
	ID                   uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	UserID               uuid.UUID         `gorm:"column:user_id;type:uuid;not null;index:addresses_user_id_idx"`
	User                 *User             `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	AddressType          enums.AddressType `gorm:"column:address_type;type:text;not null"`
	FirstName            string            `gorm:"column:first_name;size:100;not null"`
	LastName             string            `gorm:"column:last_name;size:100;not null"`
	Company              string            `gorm:"column:company;size:100;not null;default:''"`
	AddressLine1         string            `gorm:"column:address_line1;not null"`
	AddressLine2         string            `gorm:"column:address_line2;not null;default:''"`
	City                 string            `gorm:"column:city;size:100;not null"`
	State                string            `gorm:"column:state;size:100;not null"`
	PostalCode           string            `gorm:"column:postal_code;size:20;not null"`
	Country              string            `gorm:"column:country;size:100;not null"`
	Phone                string            `gorm:"column:phone;size:20;not null"`
	IsDefault            bool              `gorm:"column:is_default;not null"`
	DeliveryInstructions string            `gorm:"column:delivery_instructions;not null;default:''"`
	CreatedAt            time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (a *Address) BeforeCreate(*gorm.DB) error {
	ensureID(&a.ID)
	return nil
}

func (a Address) FullName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

func (a Address) FullAddress() string {
	return joinNonEmpty(a.AddressLine1, a.AddressLine2, a.City, a.State, a.PostalCode, a.Country)
}
