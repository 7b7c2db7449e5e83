package wishlist

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/shopfront-backend/pkg/db/models"
)

// ProductSummary is the slice of a product shown on a wishlist.
type ProductSummary struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Price     string    `json:"price"`
	MainImage string    `json:"main_image"`
	IsInStock bool      `json:"is_in_stock"`
	IsActive  bool      `json:"is_active"`
}

// WishlistDTO is a wishlist with its products.
type WishlistDTO struct {
	ID           uuid.UUID        `json:"id"`
	UserID       uuid.UUID        `json:"user_id"`
	Name         string           `json:"name"`
	IsPublic     bool             `json:"is_public"`
	Products     []ProductSummary `json:"products"`
	ProductCount int              `json:"product_count"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// UpdateInput patches a wishlist; nil fields are untouched.
type UpdateInput struct {
	Name     *string
	IsPublic *bool
}

func toDTO(w models.Wishlist, products []models.Product) WishlistDTO {
	dto := WishlistDTO{
		ID:        w.ID,
		UserID:    w.UserID,
		Name:      w.Name,
		IsPublic:  w.IsPublic,
		Products:  make([]ProductSummary, 0, len(products)),
		CreatedAt: w.CreatedAt,
		UpdatedAt: w.UpdatedAt,
	}
	for _, p := range products {
		dto.Products = append(dto.Products, ProductSummary{
			ID:        p.ID,
			Name:      p.Name,
			Slug:      p.Slug,
			Price:     p.Price.StringFixed(2),
			MainImage: p.MainImage(),
			IsInStock: p.IsInStock(),
			IsActive:  p.IsActive,
		})
	}
	dto.ProductCount = len(dto.Products)
	return dto
}
