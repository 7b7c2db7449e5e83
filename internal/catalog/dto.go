package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/shopfront-backend/pkg/db/models"
	"github.com/angelmondragon/shopfront-backend/pkg/types"
)

// CategoryDTO is the API shape of a category.
type CategoryDTO struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Slug        string     `json:"slug"`
	Description string     `json:"description,omitempty"`
	ImageURL    *string    `json:"image_url,omitempty"`
	ParentID    *uuid.UUID `json:"parent_id,omitempty"`
	IsActive    bool       `json:"is_active"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// CategoryNode is a category with its children, used by the tree endpoint.
type CategoryNode struct {
	CategoryDTO
	Children []CategoryNode `json:"children"`
}

// RatingSummary aggregates approved reviews for a product.
type RatingSummary struct {
	Count   int64   `json:"count"`
	Average float64 `json:"average"`
}

// ProductDTO carries stored fields plus the derived read-only ones.
type ProductDTO struct {
	ID                 uuid.UUID     `json:"id"`
	CategoryID         uuid.UUID     `json:"category_id"`
	CategoryName       string        `json:"category_name,omitempty"`
	CategorySlug       string        `json:"category_slug,omitempty"`
	Name               string        `json:"name"`
	Slug               string        `json:"slug"`
	SKU                string        `json:"sku"`
	Description        string        `json:"description"`
	ShortDescription   string        `json:"short_description,omitempty"`
	Price              string        `json:"price"`
	CompareAtPrice     *string       `json:"compare_at_price,omitempty"`
	CostPrice          *string       `json:"cost_price,omitempty"`
	Quantity           int           `json:"quantity"`
	LowStockThreshold  int           `json:"low_stock_threshold"`
	TrackInventory     bool          `json:"track_inventory"`
	Brand              string        `json:"brand,omitempty"`
	Material           string        `json:"material,omitempty"`
	Color              string        `json:"color,omitempty"`
	Size               string        `json:"size,omitempty"`
	Weight             *string       `json:"weight,omitempty"`
	Dimensions         string        `json:"dimensions,omitempty"`
	MainImage          string        `json:"main_image"`
	AllImages          []string      `json:"all_images"`
	MetaTitle          string        `json:"meta_title,omitempty"`
	MetaDescription    string        `json:"meta_description,omitempty"`
	MetaKeywords       string        `json:"meta_keywords,omitempty"`
	IsFeatured         bool          `json:"is_featured"`
	IsActive           bool          `json:"is_active"`
	IsNew              bool          `json:"is_new"`
	ViewsCount         int           `json:"views_count"`
	SalesCount         int           `json:"sales_count"`
	IsInStock          bool          `json:"is_in_stock"`
	IsLowStock         bool          `json:"is_low_stock"`
	DiscountPercentage int           `json:"discount_percentage"`
	Rating             RatingSummary `json:"rating"`
	CreatedAt          time.Time     `json:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at"`
}

// CategoryInput creates a category. Slug is derived from Name when blank.
type CategoryInput struct {
	Name        string
	Slug        string
	Description string
	ImageURL    *string
	ParentID    *uuid.UUID
	IsActive    *bool
}

// CategoryUpdate patches a category. ClearParent promotes it to a root.
type CategoryUpdate struct {
	Name        *string
	Slug        *string
	Description *string
	ImageURL    *string
	ParentID    *uuid.UUID
	ClearParent bool
	IsActive    *bool
}

// ProductInput creates a product.
type ProductInput struct {
	CategoryID        uuid.UUID
	Name              string
	Slug              string
	SKU               string
	Description       string
	ShortDescription  string
	Price             decimal.Decimal
	CompareAtPrice    *decimal.Decimal
	CostPrice         *decimal.Decimal
	Quantity          int
	LowStockThreshold *int
	TrackInventory    *bool
	Brand             string
	Material          string
	Color             string
	Size              string
	Weight            *decimal.Decimal
	Dimensions        string
	Images            []string
	MetaTitle         string
	MetaDescription   string
	MetaKeywords      string
	IsFeatured        bool
	IsActive          *bool
	IsNew             bool
}

// ProductUpdate patches a product; nil fields are untouched.
type ProductUpdate struct {
	CategoryID        *uuid.UUID
	Name              *string
	Slug              *string
	SKU               *string
	Description       *string
	ShortDescription  *string
	Price             *decimal.Decimal
	CompareAtPrice    types.Nullable[decimal.Decimal]
	CostPrice         types.Nullable[decimal.Decimal]
	Quantity          *int
	LowStockThreshold *int
	TrackInventory    *bool
	Brand             *string
	Material          *string
	Color             *string
	Size              *string
	Weight            types.Nullable[decimal.Decimal]
	Dimensions        *string
	Images            *[]string
	MetaTitle         *string
	MetaDescription   *string
	MetaKeywords      *string
	IsFeatured        *bool
	IsActive          *bool
	IsNew             *bool
}

// Ordering values accepted by ListProducts.
const (
	OrderNewest    = "newest"
	OrderPriceAsc  = "price_asc"
	OrderPriceDesc = "price_desc"
	OrderPopular   = "popular"
)

// ProductFilters narrows ListProducts.
type ProductFilters struct {
	CategorySlug string
	Featured     *bool
	New          *bool
	InStock      *bool
	Search       string
	MinPrice     *decimal.Decimal
	MaxPrice     *decimal.Decimal
	Ordering     string
	Page         int
	PageSize     int
	// IncludeInactive is honoured only for staff viewers.
	IncludeInactive bool
}

func categoryDTO(c models.Category) CategoryDTO {
	return CategoryDTO{
		ID:          c.ID,
		Name:        c.Name,
		Slug:        c.Slug,
		Description: c.Description,
		ImageURL:    c.ImageURL,
		ParentID:    c.ParentID,
		IsActive:    c.IsActive,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func productDTO(p models.Product, rating RatingSummary) ProductDTO {
	dto := ProductDTO{
		ID:                 p.ID,
		CategoryID:         p.CategoryID,
		Name:               p.Name,
		Slug:               p.Slug,
		SKU:                p.SKU,
		Description:        p.Description,
		ShortDescription:   p.ShortDescription,
		Price:              types.Money(p.Price),
		CompareAtPrice:     types.MoneyPtr(p.CompareAtPrice),
		CostPrice:          types.MoneyPtr(p.CostPrice),
		Quantity:           p.Quantity,
		LowStockThreshold:  p.LowStockThreshold,
		TrackInventory:     p.TrackInventory,
		Brand:              p.Brand,
		Material:           p.Material,
		Color:              p.Color,
		Size:               p.Size,
		Weight:             types.MoneyPtr(p.Weight),
		Dimensions:         p.Dimensions,
		MainImage:          p.MainImage(),
		AllImages:          p.Images(),
		MetaTitle:          p.MetaTitle,
		MetaDescription:    p.MetaDescription,
		MetaKeywords:       p.MetaKeywords,
		IsFeatured:         p.IsFeatured,
		IsActive:           p.IsActive,
		IsNew:              p.IsNew,
		ViewsCount:         p.ViewsCount,
		SalesCount:         p.SalesCount,
		IsInStock:          p.IsInStock(),
		IsLowStock:         p.IsLowStock(),
		DiscountPercentage: p.DiscountPercentage(),
		Rating:             rating,
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
	}
	if p.Category != nil {
		dto.CategoryName = p.Category.Name
		dto.CategorySlug = p.Category.Slug
	}
	return dto
}
