package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/shopfront-backend/pkg/db/models"
	"github.com/angelmondragon/shopfront-backend/pkg/enums"
)

// CustomerInfo is who the order is for.
type CustomerInfo struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
}

// ShippingInfo is where the order goes.
type ShippingInfo struct {
	AddressLine1 string
	AddressLine2 string
	City         string
	State        string
	PostalCode   string
	Country      string
}

// PlaceOrderInput turns the user's cart into an order. Shipping comes from
// AddressID when set, otherwise from Shipping. Charges come from the
// service's Pricing, never from the caller.
type PlaceOrderInput struct {
	UserID         uuid.UUID
	Customer       CustomerInfo
	Shipping       ShippingInfo
	AddressID      *uuid.UUID
	PaymentMethod  enums.PaymentMethod
	ShippingMethod string
	Notes          string
	IPAddress      string
	UserAgent      string
}

// AdminListParams filters the operator order list.
type AdminListParams struct {
	Limit         int
	Cursor        string
	Status        *enums.OrderStatus
	PaymentStatus *enums.PaymentStatus
	Search        string
}

// OrderItemDTO is one snapshotted order line.
type OrderItemDTO struct {
	ID          uuid.UUID  `json:"id"`
	ProductID   *uuid.UUID `json:"product_id,omitempty"`
	ProductName string     `json:"product_name"`
	ProductSKU  string     `json:"product_sku"`
	Quantity    int        `json:"quantity"`
	Price       string     `json:"price"`
	Total       string     `json:"total"`
}

// OrderDTO is the full order.
type OrderDTO struct {
	ID             uuid.UUID           `json:"id"`
	OrderNumber    string              `json:"order_number"`
	UserID         uuid.UUID           `json:"user_id"`
	Status         enums.OrderStatus   `json:"status"`
	PaymentStatus  enums.PaymentStatus `json:"payment_status"`
	PaymentMethod  enums.PaymentMethod `json:"payment_method"`
	TransactionID  *string             `json:"transaction_id,omitempty"`
	FullName       string              `json:"full_name"`
	FirstName      string              `json:"first_name"`
	LastName       string              `json:"last_name"`
	Email          string              `json:"email"`
	Phone          string              `json:"phone"`
	AddressLine1   string              `json:"address_line1"`
	AddressLine2   string              `json:"address_line2,omitempty"`
	City           string              `json:"city"`
	State          string              `json:"state"`
	PostalCode     string              `json:"postal_code"`
	Country        string              `json:"country"`
	FullAddress    string              `json:"full_address"`
	ShippingMethod string              `json:"shipping_method,omitempty"`
	TrackingNumber *string             `json:"tracking_number,omitempty"`
	Subtotal       string              `json:"subtotal"`
	ShippingCost   string              `json:"shipping_cost"`
	Tax            string              `json:"tax"`
	Discount       string              `json:"discount"`
	Total          string              `json:"total"`
	Notes          string              `json:"notes,omitempty"`
	Items          []OrderItemDTO      `json:"items"`
	TotalItems     int                 `json:"total_items"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

// FromModel maps an order with its items.
func FromModel(o *models.Order) *OrderDTO {
	dto := &OrderDTO{
		ID:             o.ID,
		OrderNumber:    o.OrderNumber,
		UserID:         o.UserID,
		Status:         o.Status,
		PaymentStatus:  o.PaymentStatus,
		PaymentMethod:  o.PaymentMethod,
		TransactionID:  o.TransactionID,
		FullName:       o.FullName(),
		FirstName:      o.FirstName,
		LastName:       o.LastName,
		Email:          o.Email,
		Phone:          o.Phone,
		AddressLine1:   o.AddressLine1,
		AddressLine2:   o.AddressLine2,
		City:           o.City,
		State:          o.State,
		PostalCode:     o.PostalCode,
		Country:        o.Country,
		FullAddress:    o.FullAddress(),
		ShippingMethod: o.ShippingMethod,
		TrackingNumber: o.TrackingNumber,
		Subtotal:       o.Subtotal.StringFixed(2),
		ShippingCost:   o.ShippingCost.StringFixed(2),
		Tax:            o.Tax.StringFixed(2),
		Discount:       o.Discount.StringFixed(2),
		Total:          o.Total.StringFixed(2),
		Notes:          o.Notes,
		Items:          make([]OrderItemDTO, 0, len(o.Items)),
		CreatedAt:      o.CreatedAt,
		UpdatedAt:      o.UpdatedAt,
	}
	for _, item := range o.Items {
		dto.Items = append(dto.Items, OrderItemDTO{
			ID:          item.ID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			ProductSKU:  item.ProductSKU,
			Quantity:    item.Quantity,
			Price:       item.Price.StringFixed(2),
			Total:       item.Total().StringFixed(2),
		})
		dto.TotalItems += item.Quantity
	}
	return dto
}
