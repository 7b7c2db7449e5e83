package checkout

import (
	"fmt"

	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/shopfront-backend/pkg/errors"
)

// StockValidationInput describes one cart line checked before checkout.
type StockValidationInput struct {
	ProductID      uuid.UUID
	ProductName    string
	Active         bool
	TrackInventory bool
	Available      int
	Quantity       int
}

// StockViolationDetail is returned to callers for every line that cannot be sold.
type StockViolationDetail struct {
	ProductID    uuid.UUID `json:"product_id"`
	ProductName  string    `json:"product_name,omitempty"`
	Reason       string    `json:"reason"`
	Available    int       `json:"available"`
	RequestedQty int       `json:"requested_qty"`
}

const (
	ReasonInactive          = "inactive"
	ReasonInsufficientStock = "insufficient_stock"
	ReasonInvalidQuantity   = "invalid_quantity"
)

// ValidateStock ensures every line is active, has a positive quantity and,
// for tracked products, does not exceed the stock on hand.
func ValidateStock(items []StockValidationInput) error {
	var violations []StockViolationDetail
	for _, item := range items {
		reason := ""
		switch {
		case item.Quantity < 1:
			reason = ReasonInvalidQuantity
		case !item.Active:
			reason = ReasonInactive
		case item.TrackInventory && item.Quantity > item.Available:
			reason = ReasonInsufficientStock
		}
		if reason == "" {
			continue
		}
		violations = append(violations, StockViolationDetail{
			ProductID:    item.ProductID,
			ProductName:  item.ProductName,
			Reason:       reason,
			Available:    item.Available,
			RequestedQty: item.Quantity,
		})
	}
	if len(violations) == 0 {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%d cart item(s) cannot be ordered", len(violations))).WithDetails(map[string]any{
		"violations": violations,
	})
}
