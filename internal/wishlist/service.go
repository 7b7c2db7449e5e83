// Package wishlist manages named product lists owned by users.
package wishlist

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/shopfront-backend/pkg/db"
	"github.com/angelmondragon/shopfront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/shopfront-backend/pkg/errors"
)

type productLoader interface {
	FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// Service exposes business rules for wishlist management.
type Service interface {
	Create(ctx context.Context, userID uuid.UUID, name string, isPublic bool) (*WishlistDTO, error)
	List(ctx context.Context, userID uuid.UUID) ([]WishlistDTO, error)
	Get(ctx context.Context, viewer *uuid.UUID, id uuid.UUID) (*WishlistDTO, error)
	Update(ctx context.Context, userID, id uuid.UUID, input UpdateInput) (*WishlistDTO, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
	AddProduct(ctx context.Context, userID, id, productID uuid.UUID) (*WishlistDTO, error)
	RemoveProduct(ctx context.Context, userID, id, productID uuid.UUID) (*WishlistDTO, error)
}

type service struct {
	repo     Repository
	products productLoader
}

func NewService(repo Repository, products productLoader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("wishlist repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	return &service{repo: repo, products: products}, nil
}

func (s *service) Create(ctx context.Context, userID uuid.UUID, name string, isPublic bool) (*WishlistDTO, error) {
	name, err := normalizeName(name)
	if err != nil {
		return nil, err
	}
	w := &models.Wishlist{UserID: userID, Name: name, IsPublic: isPublic}
	if err := s.repo.Create(ctx, w); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create wishlist")
	}
	dto := toDTO(*w, nil)
	return &dto, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]WishlistDTO, error) {
	rows, err := s.repo.ListForUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list wishlists")
	}
	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	products, err := s.repo.Products(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load wishlist products")
	}
	out := make([]WishlistDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDTO(row, products[row.ID]))
	}
	return out, nil
}

// Get returns a wishlist to its owner, or to anyone when it is public.
// Private lists look missing to everyone else.
func (s *service) Get(ctx context.Context, viewer *uuid.UUID, id uuid.UUID) (*WishlistDTO, error) {
	w, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !w.IsPublic && (viewer == nil || *viewer != w.UserID) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "wishlist not found")
	}
	return s.withProducts(ctx, *w)
}

func (s *service) Update(ctx context.Context, userID, id uuid.UUID, input UpdateInput) (*WishlistDTO, error) {
	w, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if input.Name != nil {
		name, err := normalizeName(*input.Name)
		if err != nil {
			return nil, err
		}
		w.Name = name
	}
	if input.IsPublic != nil {
		w.IsPublic = *input.IsPublic
	}
	if err := s.repo.Save(ctx, w); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update wishlist")
	}
	return s.withProducts(ctx, *w)
}

func (s *service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if _, err := s.owned(ctx, userID, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete wishlist")
	}
	return nil
}

// AddProduct is idempotent: adding a product twice keeps one entry.
func (s *service) AddProduct(ctx context.Context, userID, id, productID uuid.UUID) (*WishlistDTO, error) {
	w, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if _, err := s.products.FindProduct(ctx, productID); err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if err := s.repo.AddProduct(ctx, w.ID, productID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add wishlist product")
	}
	return s.withProducts(ctx, *w)
}

func (s *service) RemoveProduct(ctx context.Context, userID, id, productID uuid.UUID) (*WishlistDTO, error) {
	w, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	removed, err := s.repo.RemoveProduct(ctx, w.ID, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove wishlist product")
	}
	if !removed {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product is not on this wishlist")
	}
	return s.withProducts(ctx, *w)
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Wishlist, error) {
	w, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "wishlist not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load wishlist")
	}
	return w, nil
}

func (s *service) owned(ctx context.Context, userID, id uuid.UUID) (*models.Wishlist, error) {
	w, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if w.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "wishlist not found")
	}
	return w, nil
}

func (s *service) withProducts(ctx context.Context, w models.Wishlist) (*WishlistDTO, error) {
	products, err := s.repo.Products(ctx, []uuid.UUID{w.ID})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load wishlist products")
	}
	dto := toDTO(w, products[w.ID])
	return &dto, nil
}

func normalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.DefaultWishlistName, nil
	}
	if len(name) > 100 {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "name must be at most 100 characters")
	}
	return name, nil
}
