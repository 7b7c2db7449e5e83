// Package cart keeps shopping carts for users and anonymous sessions.
package cart

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/shopfront-backend/internal/activity"
	"github.com/angelmondragon/shopfront-backend/pkg/checkout"
	"github.com/angelmondragon/shopfront-backend/pkg/db"
	"github.com/angelmondragon/shopfront-backend/pkg/db/models"
	"github.com/angelmondragon/shopfront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/shopfront-backend/pkg/errors"
	"github.com/angelmondragon/shopfront-backend/pkg/visibility"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type productLoader interface {
	FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// RequestMeta is forwarded into activity entries.
type RequestMeta struct {
	IPAddress string
	UserAgent string
}

// Service exposes cart operations. Every call names its owner explicitly.
type Service interface {
	Get(ctx context.Context, owner Owner) (*Summary, error)
	AddItem(ctx context.Context, owner Owner, productID uuid.UUID, quantity int, meta RequestMeta) (*Summary, error)
	UpdateItem(ctx context.Context, owner Owner, productID uuid.UUID, quantity int) (*Summary, error)
	RemoveItem(ctx context.Context, owner Owner, productID uuid.UUID, meta RequestMeta) (*Summary, error)
	Clear(ctx context.Context, owner Owner) error
	Merge(ctx context.Context, sessionToken string, userID uuid.UUID) (*Summary, error)
}

type service struct {
	repo     Repository
	products productLoader
	tx       txRunner
	activity activity.Recorder
}

func NewService(repo Repository, products productLoader, tx txRunner, recorder activity.Recorder) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if recorder == nil {
		recorder = activity.Nop{}
	}
	return &service{repo: repo, products: products, tx: tx, activity: recorder}, nil
}

// Get returns the owner's cart; an owner without one gets an empty summary.
func (s *service) Get(ctx context.Context, owner Owner) (*Summary, error) {
	if err := owner.validate(); err != nil {
		return nil, err
	}
	cart, err := s.repo.FindByOwner(ctx, owner)
	if err != nil {
		if db.IsNotFound(err) {
			empty := summarize(nil, nil)
			empty.SessionToken = owner.SessionToken
			return empty, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return s.load(ctx, s.repo, cart)
}

func (s *service) AddItem(ctx context.Context, owner Owner, productID uuid.UUID, quantity int, meta RequestMeta) (*Summary, error) {
	if err := owner.validate(); err != nil {
		return nil, err
	}
	if quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	product, err := s.purchasable(ctx, productID)
	if err != nil {
		return nil, err
	}

	var summary *Summary
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		cart, err := s.ensureCart(ctx, repo, owner)
		if err != nil {
			return err
		}
		existing, err := repo.FindItem(ctx, cart.ID, productID)
		switch {
		case err == nil:
			next := existing.Quantity + quantity
			if err := checkStock(product, next); err != nil {
				return err
			}
			if err := repo.SetItemQuantity(ctx, existing.ID, next); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart item")
			}
		case db.IsNotFound(err):
			if err := checkStock(product, quantity); err != nil {
				return err
			}
			item := &models.CartItem{CartID: cart.ID, ProductID: productID, Quantity: quantity}
			if err := repo.CreateItem(ctx, item); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add cart item")
			}
		default:
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
		}
		if err := repo.Touch(ctx, cart.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "touch cart")
		}
		summary, err = s.load(ctx, repo, cart)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, owner, enums.ActivityAddToCart, fmt.Sprintf("Added %d x %s to cart", quantity, product.Name), productID, meta)
	return summary, nil
}

func (s *service) UpdateItem(ctx context.Context, owner Owner, productID uuid.UUID, quantity int) (*Summary, error) {
	if err := owner.validate(); err != nil {
		return nil, err
	}
	if quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	product, err := s.purchasable(ctx, productID)
	if err != nil {
		return nil, err
	}
	if err := checkStock(product, quantity); err != nil {
		return nil, err
	}

	var summary *Summary
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		cart, item, err := s.findItem(ctx, repo, owner, productID)
		if err != nil {
			return err
		}
		if err := repo.SetItemQuantity(ctx, item.ID, quantity); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart item")
		}
		if err := repo.Touch(ctx, cart.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "touch cart")
		}
		summary, err = s.load(ctx, repo, cart)
		return err
	})
	if err != nil {
		return nil, err
	}
	return summary, nil
}

func (s *service) RemoveItem(ctx context.Context, owner Owner, productID uuid.UUID, meta RequestMeta) (*Summary, error) {
	if err := owner.validate(); err != nil {
		return nil, err
	}

	var summary *Summary
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		cart, _, err := s.findItem(ctx, repo, owner, productID)
		if err != nil {
			return err
		}
		if _, err := repo.DeleteItem(ctx, cart.ID, productID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove cart item")
		}
		if err := repo.Touch(ctx, cart.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "touch cart")
		}
		summary, err = s.load(ctx, repo, cart)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, owner, enums.ActivityRemoveFromCart, "Removed item from cart", productID, meta)
	return summary, nil
}

// Clear empties the cart. Owners without a cart are a no-op.
func (s *service) Clear(ctx context.Context, owner Owner) error {
	if err := owner.validate(); err != nil {
		return err
	}
	cart, err := s.repo.FindByOwner(ctx, owner)
	if err != nil {
		if db.IsNotFound(err) {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if err := s.repo.ClearItems(ctx, cart.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return nil
}

// Merge folds an anonymous cart into the user's cart after sign-in. Merged
// quantities are capped at tracked stock and the session cart is removed.
func (s *service) Merge(ctx context.Context, sessionToken string, userID uuid.UUID) (*Summary, error) {
	anon := SessionOwner(sessionToken)
	owner := UserOwner(userID)
	if err := anon.validate(); err != nil {
		return nil, err
	}
	if err := owner.validate(); err != nil {
		return nil, err
	}

	var summary *Summary
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		source, err := repo.FindByOwner(ctx, anon)
		if err != nil {
			if db.IsNotFound(err) {
				return nil
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load session cart")
		}
		lines, err := repo.Items(ctx, source.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load session cart items")
		}
		target, err := s.ensureCart(ctx, repo, owner)
		if err != nil {
			return err
		}
		for _, line := range lines {
			if line.Product == nil || !line.Product.IsActive {
				continue
			}
			existing, err := repo.FindItem(ctx, target.ID, line.ProductID)
			switch {
			case err == nil:
				next := capToStock(line.Product, existing.Quantity+line.Quantity)
				if next < 1 {
					continue
				}
				if err := repo.SetItemQuantity(ctx, existing.ID, next); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "merge cart item")
				}
			case db.IsNotFound(err):
				qty := capToStock(line.Product, line.Quantity)
				if qty < 1 {
					continue
				}
				item := &models.CartItem{CartID: target.ID, ProductID: line.ProductID, Quantity: qty}
				if err := repo.CreateItem(ctx, item); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "merge cart item")
				}
			default:
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
			}
		}
		if err := repo.Delete(ctx, source.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete session cart")
		}
		summary, err = s.load(ctx, repo, target)
		return err
	})
	if err != nil {
		return nil, err
	}
	if summary == nil {
		return s.Get(ctx, owner)
	}
	return summary, nil
}

func (s *service) ensureCart(ctx context.Context, repo Repository, owner Owner) (*models.Cart, error) {
	cart, err := repo.FindByOwner(ctx, owner)
	if err == nil {
		return cart, nil
	}
	if !db.IsNotFound(err) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	cart = &models.Cart{UserID: owner.UserID}
	if owner.SessionToken != "" {
		token := owner.SessionToken
		cart.SessionToken = &token
	}
	created, err := repo.CreateIfAbsent(ctx, cart)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart")
	}
	if created {
		return cart, nil
	}
	cart, err = repo.FindByOwner(ctx, owner)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return cart, nil
}

func (s *service) findItem(ctx context.Context, repo Repository, owner Owner, productID uuid.UUID) (*models.Cart, *models.CartItem, error) {
	cart, err := repo.FindByOwner(ctx, owner)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	item, err := repo.FindItem(ctx, cart.ID, productID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
	}
	return cart, item, nil
}

func (s *service) purchasable(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	product, err := s.products.FindProduct(ctx, productID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if err := visibility.EnsurePurchasable(product); err != nil {
		return nil, err
	}
	return product, nil
}

func (s *service) load(ctx context.Context, repo Repository, cart *models.Cart) (*Summary, error) {
	items, err := repo.Items(ctx, cart.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart items")
	}
	return summarize(cart, items), nil
}

func (s *service) record(ctx context.Context, owner Owner, kind enums.ActivityType, description string, productID uuid.UUID, meta RequestMeta) {
	if owner.UserID == nil {
		return
	}
	s.activity.Record(ctx, activity.Entry{
		UserID:      *owner.UserID,
		Type:        kind,
		Description: description,
		IPAddress:   meta.IPAddress,
		UserAgent:   meta.UserAgent,
		Metadata:    map[string]any{"product_id": productID.String()},
	})
}

func checkStock(product *models.Product, quantity int) error {
	return checkout.ValidateStock([]checkout.StockValidationInput{{
		ProductID:      product.ID,
		ProductName:    product.Name,
		Active:         product.IsActive,
		TrackInventory: product.TrackInventory,
		Available:      product.Quantity,
		Quantity:       quantity,
	}})
}

func capToStock(product *models.Product, quantity int) int {
	if product.TrackInventory && quantity > product.Quantity {
		return product.Quantity
	}
	return quantity
}
