package cart

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/shopfront-backend/internal/repo"
	"github.com/angelmondragon/shopfront-backend/pkg/db/models"
)

// Repository persists carts and their lines.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByOwner(ctx context.Context, owner Owner) (*models.Cart, error)
	CreateIfAbsent(ctx context.Context, cart *models.Cart) (bool, error)
	Touch(ctx context.Context, cartID uuid.UUID) error
	Items(ctx context.Context, cartID uuid.UUID) ([]models.CartItem, error)
	FindItem(ctx context.Context, cartID, productID uuid.UUID) (*models.CartItem, error)
	CreateItem(ctx context.Context, item *models.CartItem) error
	SetItemQuantity(ctx context.Context, itemID uuid.UUID, quantity int) error
	DeleteItem(ctx context.Context, cartID, productID uuid.UUID) (bool, error)
	ClearItems(ctx context.Context, cartID uuid.UUID) error
	Delete(ctx context.Context, cartID uuid.UUID) error
	DeleteAnonymousBefore(ctx context.Context, cutoff time.Time) (int64, error)
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

func (r *repository) FindByOwner(ctx context.Context, owner Owner) (*models.Cart, error) {
	var cart models.Cart
	query := r.DB(ctx)
	if owner.UserID != nil {
		query = query.Where("user_id = ?", *owner.UserID)
	} else {
		query = query.Where("session_token = ?", owner.SessionToken)
	}
	if err := query.First(&cart).Error; err != nil {
		return nil, err
	}
	return &cart, nil
}

// CreateIfAbsent inserts cart unless its owner already has one. It reports
// false when a concurrent request created the owner's cart first.
func (r *repository) CreateIfAbsent(ctx context.Context, cart *models.Cart) (bool, error) {
	res := r.DB(ctx).Omit(clause.Associations).Clauses(clause.OnConflict{DoNothing: true}).Create(cart)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) Touch(ctx context.Context, cartID uuid.UUID) error {
	return r.DB(ctx).Model(&models.Cart{}).Where("id = ?", cartID).Update("updated_at", time.Now().UTC()).Error
}

// Items returns the cart lines with their live products, oldest first.
func (r *repository) Items(ctx context.Context, cartID uuid.UUID) ([]models.CartItem, error) {
	var rows []models.CartItem
	err := r.DB(ctx).
		Preload("Product").
		Where("cart_id = ?", cartID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) FindItem(ctx context.Context, cartID, productID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	if err := r.DB(ctx).Where("cart_id = ? AND product_id = ?", cartID, productID).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) CreateItem(ctx context.Context, item *models.CartItem) error {
	return r.DB(ctx).Omit(clause.Associations).Create(item).Error
}

func (r *repository) SetItemQuantity(ctx context.Context, itemID uuid.UUID, quantity int) error {
	return r.DB(ctx).Model(&models.CartItem{}).Where("id = ?", itemID).Update("quantity", quantity).Error
}

func (r *repository) DeleteItem(ctx context.Context, cartID, productID uuid.UUID) (bool, error) {
	res := r.DB(ctx).Where("cart_id = ? AND product_id = ?", cartID, productID).Delete(&models.CartItem{})
	return res.RowsAffected > 0, res.Error
}

func (r *repository) ClearItems(ctx context.Context, cartID uuid.UUID) error {
	return r.DB(ctx).Where("cart_id = ?", cartID).Delete(&models.CartItem{}).Error
}

func (r *repository) Delete(ctx context.Context, cartID uuid.UUID) error {
	db := r.DB(ctx)
	if err := db.Where("cart_id = ?", cartID).Delete(&models.CartItem{}).Error; err != nil {
		return err
	}
	return db.Where("id = ?", cartID).Delete(&models.Cart{}).Error
}

// DeleteAnonymousBefore drops session carts untouched since cutoff.
func (r *repository) DeleteAnonymousBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	db := r.DB(ctx)
	stale := db.Model(&models.Cart{}).Select("id").Where("user_id IS NULL AND updated_at < ?", cutoff)
	if err := db.Where("cart_id IN (?)", stale).Delete(&models.CartItem{}).Error; err != nil {
		return 0, err
	}
	res := db.Where("user_id IS NULL AND updated_at < ?", cutoff).Delete(&models.Cart{})
	return res.RowsAffected, res.Error
}
