package wishlist

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/shopfront-backend/internal/repo"
	"github.com/angelmondragon/shopfront-backend/pkg/db/models"
)

// Repository encapsulates wishlist persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, w *models.Wishlist) error
	Save(ctx context.Context, w *models.Wishlist) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Wishlist, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Wishlist, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Products(ctx context.Context, wishlistIDs []uuid.UUID) (map[uuid.UUID][]models.Product, error)
	AddProduct(ctx context.Context, wishlistID, productID uuid.UUID) error
	RemoveProduct(ctx context.Context, wishlistID, productID uuid.UUID) (bool, error)
}

type repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{Base: r.Bind(tx)}
}

func (r *repository) Create(ctx context.Context, w *models.Wishlist) error {
	return r.DB(ctx).Omit(clause.Associations).Create(w).Error
}

func (r *repository) Save(ctx context.Context, w *models.Wishlist) error {
	return r.DB(ctx).Omit(clause.Associations).Save(w).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Wishlist, error) {
	var w models.Wishlist
	if err := r.DB(ctx).First(&w, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *repository) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Wishlist, error) {
	var rows []models.Wishlist
	err := r.DB(ctx).Where("user_id = ?", userID).Order("created_at ASC").Order("id ASC").Find(&rows).Error
	return rows, err
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	db := r.DB(ctx)
	if err := db.Where("wishlist_id = ?", id).Delete(&models.WishlistProduct{}).Error; err != nil {
		return err
	}
	return db.Where("id = ?", id).Delete(&models.Wishlist{}).Error
}

// Products loads the products on each wishlist, most recently added first.
func (r *repository) Products(ctx context.Context, wishlistIDs []uuid.UUID) (map[uuid.UUID][]models.Product, error) {
	out := make(map[uuid.UUID][]models.Product, len(wishlistIDs))
	if len(wishlistIDs) == 0 {
		return out, nil
	}
	var rows []models.WishlistProduct
	err := r.DB(ctx).
		Preload("Product").
		Where("wishlist_id IN ?", wishlistIDs).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		if row.Product != nil {
			out[row.WishlistID] = append(out[row.WishlistID], *row.Product)
		}
	}
	return out, nil
}

// AddProduct inserts the pair and ignores duplicates.
func (r *repository) AddProduct(ctx context.Context, wishlistID, productID uuid.UUID) error {
	return r.DB(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Omit(clause.Associations).
		Create(&models.WishlistProduct{WishlistID: wishlistID, ProductID: productID}).Error
}

func (r *repository) RemoveProduct(ctx context.Context, wishlistID, productID uuid.UUID) (bool, error) {
	res := r.DB(ctx).Where("wishlist_id = ? AND product_id = ?", wishlistID, productID).Delete(&models.WishlistProduct{})
	return res.RowsAffected > 0, res.Error
}
