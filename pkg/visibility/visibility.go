package visibility

import (
	"github.com/angelmondragon/shopfront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/shopfront-backend/pkg/errors"
)

// Viewer describes who is reading the catalog.
type Viewer struct {
	IsStaff bool
}

// EnsureProductVisible hides inactive products, and products in inactive
// categories, from everyone but staff.
func EnsureProductVisible(product *models.Product, viewer Viewer) error {
	if product == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	if viewer.IsStaff {
		return nil
	}
	if !product.IsActive {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	if product.Category != nil && !product.Category.IsActive {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return nil
}

// EnsureCategoryVisible applies the same rule to categories.
func EnsureCategoryVisible(category *models.Category, viewer Viewer) error {
	if category == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
	}
	if !viewer.IsStaff && !category.IsActive {
		return pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
	}
	return nil
}

// EnsurePurchasable rejects products a customer cannot put in a cart.
func EnsurePurchasable(product *models.Product) error {
	if product == nil || !product.IsActive {
		return pkgerrors.New(pkgerrors.CodeValidation, "product is not available")
	}
	return nil
}
