package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Category is a node in the catalog tree. A nil ParentID marks a root.
type Category struct {
	ID          uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	Name        string     `gorm:"column:name;size:100;not null;uniqueIndex:categories_name_key"`
	Slug        string     `gorm:"column:slug;size:100;not null;uniqueIndex:categories_slug_key"`
	Description string     `gorm:"column:description;not null;default:''"`
	ImageURL    *string    `gorm:"column:image_url"`
	ParentID    *uuid.UUID `gorm:"column:parent_id;type:uuid;index:categories_parent_id_idx"`
	Parent      *Category  `gorm:"foreignKey:ParentID;constraint:OnDelete:CASCADE"`
	IsActive    bool       `gorm:"column:is_active;not null"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *Category) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	return nil
}
