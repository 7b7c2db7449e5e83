package marketplace

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// PriceRange bounds a search by sale price. Nil bounds are open.
type PriceRange struct {
	Min *decimal.Decimal
	Max *decimal.Decimal
}

// Shipping is the delivery offer attached to a listing.
type Shipping struct {
	Cost   decimal.Decimal `json:"cost"`
	Days   string          `json:"days,omitempty"`
	Method string          `json:"method,omitempty"`
}

// Listing is a normalized external marketplace product.
type Listing struct {
	ID            string            `json:"marketplace_id"`
	Title         string            `json:"title"`
	Description   string            `json:"description,omitempty"`
	Price         decimal.Decimal   `json:"price"`
	OriginalPrice *decimal.Decimal  `json:"original_price,omitempty"`
	ImageURL      string            `json:"image_url,omitempty"`
	Images        []string          `json:"images,omitempty"`
	DetailURL     string            `json:"detail_url,omitempty"`
	SellerID      string            `json:"seller_id,omitempty"`
	SellerName    string            `json:"seller_name,omitempty"`
	Orders        int64             `json:"orders"`
	Rating        string            `json:"rating,omitempty"`
	Shipping      *Shipping         `json:"shipping,omitempty"`
	Specs         map[string]string `json:"specs,omitempty"`
}

// flexString accepts both JSON strings and numbers.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	*f = flexString(data)
	return nil
}

type rawProduct struct {
	ProductID       flexString `json:"product_id"`
	Title           string     `json:"product_title"`
	Description     string     `json:"product_description"`
	SalePrice       flexString `json:"target_sale_price"`
	OriginalPrice   flexString `json:"target_original_price"`
	MainImageURL    string     `json:"product_main_image_url"`
	ImageURLs       string     `json:"product_image_urls"`
	DetailURL       string     `json:"product_detail_url"`
	SellerID        flexString `json:"seller_id"`
	StoreName       string     `json:"store_name"`
	Orders          flexString `json:"orders"`
	EvaluateRate    flexString `json:"evaluate_rate"`
	ShippingCost    flexString `json:"shipping_cost"`
	ShippingDays    flexString `json:"shipping_days"`
	ShippingMethod  string     `json:"shipping_method"`
	ProductAttrList []struct {
		Name  string `json:"name"`
		Value string `json:"value"`
	} `json:"product_attributes"`
}

type productsEnvelope struct {
	Products struct {
		Product []rawProduct `json:"product"`
	} `json:"products"`
}

type linksEnvelope struct {
	PromotionLinks struct {
		PromotionLink []struct {
			SourceValue   string `json:"source_value"`
			PromotionLink string `json:"promotion_link"`
		} `json:"promotion_link"`
	} `json:"promotion_links"`
}

// cents converts a minor-unit amount into a decimal price.
func cents(value flexString) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(string(value)))
	if err != nil {
		return decimal.Zero
	}
	return d.Div(decimal.NewFromInt(100)).Round(2)
}

func (p rawProduct) toListing(withDetail bool) Listing {
	listing := Listing{
		ID:         string(p.ProductID),
		Title:      p.Title,
		Price:      cents(p.SalePrice),
		ImageURL:   p.MainImageURL,
		DetailURL:  p.DetailURL,
		SellerID:   string(p.SellerID),
		SellerName: p.StoreName,
		Rating:     string(p.EvaluateRate),
	}
	if strings.TrimSpace(string(p.OriginalPrice)) != "" {
		original := cents(p.OriginalPrice)
		listing.OriginalPrice = &original
	}
	if orders, err := decimal.NewFromString(string(p.Orders)); err == nil {
		listing.Orders = orders.IntPart()
	}
	if p.ShippingCost != "" || p.ShippingDays != "" || p.ShippingMethod != "" {
		listing.Shipping = &Shipping{
			Cost:   cents(p.ShippingCost),
			Days:   string(p.ShippingDays),
			Method: p.ShippingMethod,
		}
	}
	if !withDetail {
		return listing
	}
	listing.Description = p.Description
	for _, img := range strings.Split(p.ImageURLs, ",") {
		if img = strings.TrimSpace(img); img != "" {
			listing.Images = append(listing.Images, img)
		}
	}
	if len(p.ProductAttrList) > 0 {
		listing.Specs = make(map[string]string, len(p.ProductAttrList))
		for _, attr := range p.ProductAttrList {
			listing.Specs[attr.Name] = attr.Value
		}
	}
	return listing
}
