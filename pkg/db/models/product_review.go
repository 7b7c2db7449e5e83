package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProductReview is a user's rating of a product; one per (product, user).
type ProductReview struct {
	ID                 uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	ProductID          uuid.UUID `gorm:"column:product_id;type:uuid;not null;uniqueIndex:product_reviews_product_user_key,priority:1"`
	Product            *Product  `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	UserID             uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex:product_reviews_product_user_key,priority:2;index:product_reviews_user_id_idx"`
	User               *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Rating             int       `gorm:"column:rating;not null;check:product_reviews_rating_check,rating >= 1 AND rating <= 5"`
	Title              string    `gorm:"column:title;size:200;not null;default:''"`
	Comment            string    `gorm:"column:comment;not null"`
	IsVerifiedPurchase bool      `gorm:"column:is_verified_purchase;not null"`
	IsApproved         bool      `gorm:"column:is_approved;not null"`
	CreatedAt          time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (r *ProductReview) BeforeCreate(*gorm.DB) error {
	ensureID(&r.ID)
	return nil
}
