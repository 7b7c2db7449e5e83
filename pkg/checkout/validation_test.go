package checkout

import (
	"testing"

	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/shopfront-backend/pkg/errors"
)

func TestValidateStock_NoViolations(t *testing.T) {
	items := []StockValidationInput{
		{ProductID: uuid.New(), ProductName: "Tracked", Active: true, TrackInventory: true, Available: 2, Quantity: 2},
		{ProductID: uuid.New(), ProductName: "Untracked", Active: true, TrackInventory: false, Available: 0, Quantity: 9},
	}
	if err := ValidateStock(items); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestValidateStock_Violations(t *testing.T) {
	short := uuid.New()
	items := []StockValidationInput{
		{ProductID: short, ProductName: "Shortfall", Active: true, TrackInventory: true, Available: 1, Quantity: 3},
		{ProductID: uuid.New(), ProductName: "Retired", Active: false, TrackInventory: true, Available: 10, Quantity: 1},
		{ProductID: uuid.New(), ProductName: "Zero", Active: true, Quantity: 0},
		{ProductID: uuid.New(), ProductName: "Fine", Active: true, TrackInventory: true, Available: 5, Quantity: 1},
	}

	err := ValidateStock(items)
	if err == nil {
		t.Fatal("expected violation error")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}

	details, ok := typed.Details().(map[string]any)
	if !ok {
		t.Fatalf("expected details map, got %T", typed.Details())
	}
	violations, ok := details["violations"].([]StockViolationDetail)
	if !ok {
		t.Fatalf("expected violations slice, got %T", details["violations"])
	}
	if len(violations) != 3 {
		t.Fatalf("expected 3 violations, got %d", len(violations))
	}
	if violations[0].ProductID != short || violations[0].Reason != ReasonInsufficientStock || violations[0].Available != 1 {
		t.Fatalf("unexpected first violation %+v", violations[0])
	}
	if violations[1].Reason != ReasonInactive || violations[2].Reason != ReasonInvalidQuantity {
		t.Fatalf("unexpected reasons %+v", violations)
	}
}
