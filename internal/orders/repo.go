package orders

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/shopfront-backend/internal/repo"
	"github.com/angelmondragon/shopfront-backend/pkg/db/models"
	"github.com/angelmondragon/shopfront-backend/pkg/enums"
	"github.com/angelmondragon/shopfront-backend/pkg/pagination"
)

// Repository persists orders and the rows checkout touches.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	FindCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	CartItems(ctx context.Context, cartID uuid.UUID) ([]models.CartItem, error)
	DeleteCart(ctx context.Context, cartID uuid.UUID) error
	LockProducts(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
	DecrementStock(ctx context.Context, productID uuid.UUID, qty int) (bool, error)
	IncrementSales(ctx context.Context, productID uuid.UUID, qty int) error
	NextSequence(ctx context.Context, day string) (int, error)

	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByNumberForUser(ctx context.Context, userID uuid.UUID, number string) (*models.Order, error)
	List(ctx context.Context, params listParams) ([]models.Order, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Order, error)
	UpdateFields(ctx context.Context, ids []uuid.UUID, fields map[string]any) (int64, error)
	HasPurchased(ctx context.Context, userID, productID uuid.UUID) (bool, error)
}

type listParams struct {
	UserID        *uuid.UUID
	Status        *enums.OrderStatus
	PaymentStatus *enums.PaymentStatus
	Search        string
	Cursor        *pagination.Cursor
	Limit         int
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

func (r *repository) FindCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	if err := r.DB(ctx).Where("user_id = ?", userID).First(&cart).Error; err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *repository) CartItems(ctx context.Context, cartID uuid.UUID) ([]models.CartItem, error) {
	var rows []models.CartItem
	err := r.DB(ctx).Where("cart_id = ?", cartID).Order("created_at ASC").Order("id ASC").Find(&rows).Error
	return rows, err
}

func (r *repository) DeleteCart(ctx context.Context, cartID uuid.UUID) error {
	db := r.DB(ctx)
	if err := db.Where("cart_id = ?", cartID).Delete(&models.CartItem{}).Error; err != nil {
		return err
	}
	return db.Where("id = ?", cartID).Delete(&models.Cart{}).Error
}

// LockProducts loads the products row-locked until the transaction ends.
// SQLite has no row locks; its writers are already serialized.
func (r *repository) LockProducts(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	query := r.DB(ctx)
	if query.Dialector.Name() == "postgres" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var rows []models.Product
	err := query.Where("id IN ?", ids).Order("id ASC").Find(&rows).Error
	return rows, err
}

// DecrementStock takes qty units only when that many are on hand.
func (r *repository) DecrementStock(ctx context.Context, productID uuid.UUID, qty int) (bool, error) {
	res := r.DB(ctx).
		Model(&models.Product{}).
		Where("id = ? AND quantity >= ?", productID, qty).
		Updates(map[string]any{
			"quantity":    gorm.Expr("quantity - ?", qty),
			"sales_count": gorm.Expr("sales_count + ?", qty),
		})
	return res.RowsAffected == 1, res.Error
}

func (r *repository) IncrementSales(ctx context.Context, productID uuid.UUID, qty int) error {
	return r.DB(ctx).
		Model(&models.Product{}).
		Where("id = ?", productID).
		Update("sales_count", gorm.Expr("sales_count + ?", qty)).Error
}

// NextSequence bumps the day's counter and returns the new value. The upsert
// holds the counter row until commit so concurrent checkouts queue on it.
func (r *repository) NextSequence(ctx context.Context, day string) (int, error) {
	var value int
	err := r.DB(ctx).Raw(
		`INSERT INTO order_number_counters (day, last_value) VALUES (?, 1)
		 ON CONFLICT (day) DO UPDATE SET last_value = order_number_counters.last_value + 1
		 RETURNING last_value`, day,
	).Row().Scan(&value)
	return value, err
}

func (r *repository) Create(ctx context.Context, order *models.Order) error {
	return r.DB(ctx).Omit("User").Create(order).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.withItems(ctx).First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindByNumberForUser(ctx context.Context, userID uuid.UUID, number string) (*models.Order, error) {
	var order models.Order
	if err := r.withItems(ctx).Where("user_id = ? AND order_number = ?", userID, number).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) List(ctx context.Context, params listParams) ([]models.Order, error) {
	query := r.DB(ctx).Model(&models.Order{}).Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at ASC")
	})
	if params.UserID != nil {
		query = query.Where("user_id = ?", *params.UserID)
	}
	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}
	if params.PaymentStatus != nil {
		query = query.Where("payment_status = ?", *params.PaymentStatus)
	}
	if term := strings.TrimSpace(params.Search); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		query = query.Where("LOWER(order_number) LIKE ? OR LOWER(email) LIKE ? OR LOWER(last_name) LIKE ?", like, like, like)
	}
	if params.Cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", params.Cursor.CreatedAt, params.Cursor.CreatedAt, params.Cursor.ID)
	}
	var rows []models.Order
	err := query.Order("created_at DESC").Order("id DESC").Limit(params.Limit).Find(&rows).Error
	return rows, err
}

func (r *repository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Order, error) {
	var rows []models.Order
	err := r.DB(ctx).Where("id IN ?", ids).Find(&rows).Error
	return rows, err
}

func (r *repository) UpdateFields(ctx context.Context, ids []uuid.UUID, fields map[string]any) (int64, error) {
	fields["updated_at"] = time.Now().UTC()
	res := r.DB(ctx).Model(&models.Order{}).Where("id IN ?", ids).Updates(fields)
	return res.RowsAffected, res.Error
}

// HasPurchased reports whether any of the user's orders contains the product.
func (r *repository) HasPurchased(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	var count int64
	err := r.DB(ctx).
		Model(&models.OrderItem{}).
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.user_id = ? AND order_items.product_id = ?", userID, productID).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) withItems(ctx context.Context) *gorm.DB {
	return r.DB(ctx).Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at ASC")
	})
}
