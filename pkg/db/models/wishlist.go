package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const DefaultWishlistName = "My Wishlist"

// Wishlist is a named, optionally public, list of products owned by one user.
type Wishlist struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;index:wishlists_user_id_idx"`
	User      *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Name      string    `gorm:"column:name;size:100;not null"`
	IsPublic  bool      `gorm:"column:is_public;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (w *Wishlist) BeforeCreate(*gorm.DB) error {
	ensureID(&w.ID)
	return nil
}

// WishlistProduct is the join row between a wishlist and a product.
type WishlistProduct struct {
	WishlistID uuid.UUID `gorm:"column:wishlist_id;type:uuid;primaryKey"`
	Wishlist   *Wishlist `gorm:"foreignKey:WishlistID;constraint:OnDelete:CASCADE"`
	ProductID  uuid.UUID `gorm:"column:product_id;type:uuid;primaryKey;index:wishlist_products_product_id_idx"`
	Product    *Product  `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}
