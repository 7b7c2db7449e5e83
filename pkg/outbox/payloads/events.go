package payloads

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/shopfront-backend/pkg/enums"
)

// OrderPlacedEvent is emitted once a cart has been turned into an order.
type OrderPlacedEvent struct {
	OrderID       uuid.UUID           `json:"order_id"`
	OrderNumber   string              `json:"order_number"`
	UserID        uuid.UUID           `json:"user_id"`
	TotalAmount   string              `json:"total_amount"`
	ItemCount     int                 `json:"item_count"`
	PaymentMethod enums.PaymentMethod `json:"payment_method"`
}

// OrderStatusChangedEvent reports a fulfilment status transition.
type OrderStatusChangedEvent struct {
	OrderID     uuid.UUID         `json:"order_id"`
	OrderNumber string            `json:"order_number"`
	From        enums.OrderStatus `json:"from"`
	To          enums.OrderStatus `json:"to"`
}

// OrderPaymentStatusChangedEvent reports a payment status transition.
type OrderPaymentStatusChangedEvent struct {
	OrderID     uuid.UUID           `json:"order_id"`
	OrderNumber string              `json:"order_number"`
	From        enums.PaymentStatus `json:"from"`
	To          enums.PaymentStatus `json:"to"`
}

// OrderTrackingUpdatedEvent reports a new or cleared carrier tracking number.
type OrderTrackingUpdatedEvent struct {
	OrderID        uuid.UUID `json:"order_id"`
	OrderNumber    string    `json:"order_number"`
	TrackingNumber *string   `json:"tracking_number"`
}

// UserRegisteredEvent announces a new account.
type UserRegisteredEvent struct {
	UserID                 uuid.UUID `json:"user_id"`
	Email                  string    `json:"email"`
	NewsletterSubscription bool      `json:"newsletter_subscription"`
}

// ReviewSubmittedEvent tells moderators a review is waiting.
type ReviewSubmittedEvent struct {
	ReviewID  uuid.UUID `json:"review_id"`
	ProductID uuid.UUID `json:"product_id"`
	UserID    uuid.UUID `json:"user_id"`
	Rating    int       `json:"rating"`
}
