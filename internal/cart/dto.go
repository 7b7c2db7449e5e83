package cart

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/shopfront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/shopfront-backend/pkg/errors"
)

// SessionHeader carries the anonymous cart token in both directions.
const SessionHeader = "X-Cart-Session"

// Owner identifies whose cart an operation touches. Exactly one field is set.
type Owner struct {
	UserID       *uuid.UUID
	SessionToken string
}

// UserOwner is the owner for a signed-in user.
func UserOwner(id uuid.UUID) Owner {
	return Owner{UserID: &id}
}

// SessionOwner is the owner for an anonymous session token.
func SessionOwner(token string) Owner {
	return Owner{SessionToken: strings.TrimSpace(token)}
}

// NewSessionToken issues a fresh anonymous cart token.
func NewSessionToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

func (o Owner) validate() error {
	hasUser := o.UserID != nil && *o.UserID != uuid.Nil
	hasSession := o.SessionToken != ""
	if hasUser == hasSession {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart owner must be a user or a session token")
	}
	if hasSession && len(o.SessionToken) > 64 {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart session token is too long")
	}
	return nil
}

// ItemDTO is one cart line priced at the product's current price.
type ItemDTO struct {
	ID          uuid.UUID `json:"id"`
	ProductID   uuid.UUID `json:"product_id"`
	ProductName string    `json:"product_name"`
	ProductSlug string    `json:"product_slug"`
	MainImage   string    `json:"main_image"`
	UnitPrice   string    `json:"unit_price"`
	Quantity    int       `json:"quantity"`
	Total       string    `json:"total"`
	IsInStock   bool      `json:"is_in_stock"`
}

// Summary is the cart as returned to callers.
type Summary struct {
	ID           *uuid.UUID `json:"id,omitempty"`
	SessionToken string     `json:"session_token,omitempty"`
	Items        []ItemDTO  `json:"items"`
	TotalItems   int        `json:"total_items"`
	Subtotal     string     `json:"subtotal"`
}

// TotalItems sums line quantities.
func TotalItems(items []models.CartItem) int {
	total := 0
	for _, item := range items {
		total += item.Quantity
	}
	return total
}

// Subtotal prices every line at its product's current price.
func Subtotal(items []models.CartItem) decimal.Decimal {
	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(lineTotal(item))
	}
	return sum
}

func lineTotal(item models.CartItem) decimal.Decimal {
	if item.Product == nil {
		return decimal.Zero
	}
	return item.Product.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
}

func summarize(cart *models.Cart, items []models.CartItem) *Summary {
	out := &Summary{Items: make([]ItemDTO, 0, len(items)), Subtotal: decimal.Zero.StringFixed(2)}
	if cart != nil {
		id := cart.ID
		out.ID = &id
		if cart.SessionToken != nil {
			out.SessionToken = *cart.SessionToken
		}
	}
	for _, item := range items {
		dto := ItemDTO{ID: item.ID, ProductID: item.ProductID, Quantity: item.Quantity, Total: lineTotal(item).StringFixed(2)}
		if p := item.Product; p != nil {
			dto.ProductName = p.Name
			dto.ProductSlug = p.Slug
			dto.MainImage = p.MainImage()
			dto.UnitPrice = p.Price.StringFixed(2)
			dto.IsInStock = p.IsInStock()
		}
		out.Items = append(out.Items, dto)
	}
	out.TotalItems = TotalItems(items)
	out.Subtotal = Subtotal(items).StringFixed(2)
	return out
}
