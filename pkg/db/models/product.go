package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PlaceholderImage is served when a product has no images.
const PlaceholderImage = "/static/images/placeholder.jpg"

// Product is a sellable catalog entry. Stock is tracked in Quantity.
type Product struct {
	ID                uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	CategoryID        uuid.UUID        `gorm:"column:category_id;type:uuid;not null;index:products_category_id_idx"`
	Category          *Category        `gorm:"foreignKey:CategoryID;constraint:OnDelete:CASCADE"`
	Name              string           `gorm:"column:name;size:200;not null"`
	Slug              string           `gorm:"column:slug;size:200;not null;uniqueIndex:products_slug_key"`
	SKU               string           `gorm:"column:sku;size:50;not null;uniqueIndex:products_sku_key"`
	Description       string           `gorm:"column:description;not null"`
	ShortDescription  string           `gorm:"column:short_description;size:300;not null;default:''"`
	Price             decimal.Decimal  `gorm:"column:price;type:numeric(10,2);not null"`
	CompareAtPrice    *decimal.Decimal `gorm:"column:compare_at_price;type:numeric(10,2)"`
	CostPrice         *decimal.Decimal `gorm:"column:cost_price;type:numeric(10,2)"`
	Quantity          int              `gorm:"column:quantity;not null;default:0"`
	LowStockThreshold int              `gorm:"column:low_stock_threshold;not null"`
	TrackInventory    bool             `gorm:"column:track_inventory;not null"`
	Brand             string           `gorm:"column:brand;size:100;not null;default:''"`
	Material          string           `gorm:"column:material;size:100;not null;default:''"`
	Color             string           `gorm:"column:color;size:50;not null;default:''"`
	Size              string           `gorm:"column:size;size:50;not null;default:''"`
	Weight            *decimal.Decimal `gorm:"column:weight;type:numeric(8,2)"`
	Dimensions        string           `gorm:"column:dimensions;size:100;not null;default:''"`
	Image1            string           `gorm:"column:image_1;not null;default:''"`
	Image2            string           `gorm:"column:image_2;not null;default:''"`
	Image3            string           `gorm:"column:image_3;not null;default:''"`
	Image4            string           `gorm:"column:image_4;not null;default:''"`
	MetaTitle         string           `gorm:"column:meta_title;size:200;not null;default:''"`
	MetaDescription   string           `gorm:"column:meta_description;not null;default:''"`
	MetaKeywords      string           `gorm:"column:meta_keywords;size:200;not null;default:''"`
	IsFeatured        bool             `gorm:"column:is_featured;not null"`
	IsActive          bool             `gorm:"column:is_active;not null"`
	IsNew             bool             `gorm:"column:is_new;not null"`
	ViewsCount        int              `gorm:"column:views_count;not null;default:0"`
	SalesCount        int              `gorm:"column:sales_count;not null;default:0"`
	CreatedAt         time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

func (p Product) IsInStock() bool {
	return p.Quantity > 0
}

func (p Product) IsLowStock() bool {
	return p.Quantity <= p.LowStockThreshold
}

// DiscountPercentage is floor(100*(compare-price)/compare), or 0 when there
// is no higher compare-at price.
func (p Product) DiscountPercentage() int {
	if p.CompareAtPrice == nil || !p.CompareAtPrice.GreaterThan(p.Price) {
		return 0
	}
	compare := *p.CompareAtPrice
	pct := compare.Sub(p.Price).Mul(decimal.NewFromInt(100)).Div(compare).Floor()
	return int(pct.IntPart())
}

// Images returns the non-empty image urls in slot order.
func (p Product) Images() []string {
	out := make([]string, 0, 4)
	for _, img := range []string{p.Image1, p.Image2, p.Image3, p.Image4} {
		if img != "" {
			out = append(out, img)
		}
	}
	return out
}

func (p Product) MainImage() string {
	if p.Image1 != "" {
		return p.Image1
	}
	return PlaceholderImage
}

// CanFulfil reports whether qty units can be sold right now.
func (p Product) CanFulfil(qty int) bool {
	if !p.TrackInventory {
		return true
	}
	return qty <= p.Quantity
}
