package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/shopfront-backend/pkg/enums"
)

// Order is an immutable priced snapshot of a checked-out cart. Only the
// status, payment and tracking columns change after creation.
type Order struct {
	ID             uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	UserID         uuid.UUID           `gorm:"column:user_id;type:uuid;not null;index:orders_user_id_idx"`
	User           *User               `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	OrderNumber    string              `gorm:"column:order_number;size:20;not null;uniqueIndex:orders_order_number_key"`
	Status         enums.OrderStatus   `gorm:"column:status;type:text;not null;index:orders_status_idx"`
	FirstName      string              `gorm:"column:first_name;size:100;not null"`
	LastName       string              `gorm:"column:last_name;size:100;not null"`
	Email          string              `gorm:"column:email;not null"`
	Phone          string              `gorm:"column:phone;size:20;not null"`
	AddressLine1   string              `gorm:"column:address_line1;not null"`
	AddressLine2   string              `gorm:"column:address_line2;not null;default:''"`
	City           string              `gorm:"column:city;size:100;not null"`
	State          string              `gorm:"column:state;size:100;not null"`
	PostalCode     string              `gorm:"column:postal_code;size:20;not null"`
	Country        string              `gorm:"column:country;size:100;not null"`
	ShippingMethod string              `gorm:"column:shipping_method;size:100;not null;default:''"`
	ShippingCost   decimal.Decimal     `gorm:"column:shipping_cost;type:numeric(10,2);not null"`
	TrackingNumber *string             `gorm:"column:tracking_number;size:100"`
	PaymentMethod  enums.PaymentMethod `gorm:"column:payment_method;type:text;not null"`
	PaymentStatus  enums.PaymentStatus `gorm:"column:payment_status;type:text;not null;index:orders_payment_status_idx"`
	TransactionID  *string             `gorm:"column:transaction_id;size:100"`
	Subtotal       decimal.Decimal     `gorm:"column:subtotal;type:numeric(10,2);not null"`
	Tax            decimal.Decimal     `gorm:"column:tax;type:numeric(10,2);not null"`
	Discount       decimal.Decimal     `gorm:"column:discount;type:numeric(10,2);not null"`
	Total          decimal.Decimal     `gorm:"column:total;type:numeric(10,2);not null"`
	Notes          string              `gorm:"column:notes;not null;default:''"`
	IPAddress      *string             `gorm:"column:ip_address;size:45"`
	Items          []OrderItem         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time           `gorm:"column:created_at;autoCreateTime;index:orders_created_at_idx"`
	UpdatedAt      time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	ensureID(&o.ID)
	return nil
}

func (o Order) FullName() string {
	return strings.TrimSpace(o.FirstName + " " + o.LastName)
}

// FullAddress joins the non-empty address parts with ", ".
func (o Order) FullAddress() string {
	return joinNonEmpty(o.AddressLine1, o.AddressLine2, o.City, o.State, o.PostalCode, o.Country)
}

// OrderItem snapshots the product's name, sku and price at checkout.
type OrderItem struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	OrderID     uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index:order_items_order_id_idx"`
	ProductID   *uuid.UUID      `gorm:"column:product_id;type:uuid;index:order_items_product_id_idx"`
	ProductName string          `gorm:"column:product_name;size:200;not null"`
	ProductSKU  string          `gorm:"column:product_sku;size:50;not null"`
	Quantity    int             `gorm:"column:quantity;not null;check:order_items_quantity_check,quantity >= 1"`
	Price       decimal.Decimal `gorm:"column:price;type:numeric(10,2);not null"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (i *OrderItem) BeforeCreate(*gorm.DB) error {
	ensureID(&i.ID)
	return nil
}

func (i OrderItem) Total() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// OrderNumberCounter holds the last issued sequence for one calendar day.
type OrderNumberCounter struct {
	Day       string `gorm:"column:day;size:8;primaryKey"`
	LastValue int    `gorm:"column:last_value;not null"`
}

func joinNonEmpty(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			kept = append(kept, s)
		}
	}
	return strings.Join(kept, ", ")
}
