package enums

import "fmt"

// OutboxEventType maps to outbox_events.event_type.
type OutboxEventType string

const (
	EventOrderPlaced               OutboxEventType = "order_placed"
	EventOrderStatusChanged        OutboxEventType = "order_status_changed"
	EventOrderPaymentStatusChanged OutboxEventType = "order_payment_status_changed"
	EventOrderTrackingUpdated      OutboxEventType = "order_tracking_updated"
	EventUserRegistered            OutboxEventType = "user_registered"
	EventReviewSubmitted           OutboxEventType = "review_submitted"
)

var validOutboxEventTypes = []OutboxEventType{
	EventOrderPlaced,
	EventOrderStatusChanged,
	EventOrderPaymentStatusChanged,
	EventOrderTrackingUpdated,
	EventUserRegistered,
	EventReviewSubmitted,
}

// String implements fmt.Stringer.
func (o OutboxEventType) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OutboxEventType.
func (o OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == o {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into an OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
