package catalog

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/shopfront-backend/internal/repo"
	"github.com/angelmondragon/shopfront-backend/pkg/db/models"
	"github.com/angelmondragon/shopfront-backend/pkg/pagination"
)

// Repository persists categories and products.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateCategory(ctx context.Context, c *models.Category) error
	SaveCategory(ctx context.Context, c *models.Category) error
	FindCategory(ctx context.Context, id uuid.UUID) (*models.Category, error)
	FindCategoryBySlug(ctx context.Context, slug string) (*models.Category, error)
	ListCategories(ctx context.Context, activeOnly bool) ([]models.Category, error)
	CategoryFieldTaken(ctx context.Context, column, value string, exclude uuid.UUID) (bool, error)
	DeleteCategories(ctx context.Context, ids []uuid.UUID) (int64, error)

	CreateProduct(ctx context.Context, p *models.Product) error
	SaveProduct(ctx context.Context, p *models.Product) error
	FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindProductBySlug(ctx context.Context, slug string) (*models.Product, error)
	ProductFieldTaken(ctx context.Context, column, value string, exclude uuid.UUID) (bool, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) (bool, error)
	ListProducts(ctx context.Context, q productQuery) ([]models.Product, int64, error)
	AdjustStock(ctx context.Context, id uuid.UUID, delta int) (bool, error)
	IncrementViews(ctx context.Context, id uuid.UUID) error
	RatingSummaries(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID]RatingSummary, error)
}

type productQuery struct {
	CategoryIDs []uuid.UUID
	Featured    *bool
	New         *bool
	InStock     *bool
	Search      string
	MinPrice    any
	MaxPrice    any
	Ordering    string
	ActiveOnly  bool
	Offset      pagination.Offset
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

func (r *repository) CreateCategory(ctx context.Context, c *models.Category) error {
	return r.DB(ctx).Create(c).Error
}

func (r *repository) SaveCategory(ctx context.Context, c *models.Category) error {
	return r.DB(ctx).Omit(clause.Associations).Save(c).Error
}

func (r *repository) FindCategory(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	var c models.Category
	if err := r.DB(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *repository) FindCategoryBySlug(ctx context.Context, slug string) (*models.Category, error) {
	var c models.Category
	if err := r.DB(ctx).First(&c, "slug = ?", slug).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *repository) ListCategories(ctx context.Context, activeOnly bool) ([]models.Category, error) {
	query := r.DB(ctx).Model(&models.Category{})
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	var rows []models.Category
	err := query.Order("name ASC").Find(&rows).Error
	return rows, err
}

// CategoryFieldTaken checks name or slug uniqueness, ignoring exclude.
func (r *repository) CategoryFieldTaken(ctx context.Context, column, value string, exclude uuid.UUID) (bool, error) {
	return fieldTaken(r.DB(ctx).Model(&models.Category{}), column, value, exclude)
}

// DeleteCategories removes ids leaf-first, so ids must list parents before
// their children. Deleting children first keeps the parent_id cascade from
// hiding rows from the count.
func (r *repository) DeleteCategories(ctx context.Context, ids []uuid.UUID) (int64, error) {
	db := r.DB(ctx)
	if err := db.Where("category_id IN ?", ids).Delete(&models.Product{}).Error; err != nil {
		return 0, err
	}
	var removed int64
	for i := len(ids) - 1; i >= 0; i-- {
		res := db.Where("id = ?", ids[i]).Delete(&models.Category{})
		if res.Error != nil {
			return removed, res.Error
		}
		removed += res.RowsAffected
	}
	return removed, nil
}

func (r *repository) CreateProduct(ctx context.Context, p *models.Product) error {
	return r.DB(ctx).Omit(clause.Associations).Create(p).Error
}

func (r *repository) SaveProduct(ctx context.Context, p *models.Product) error {
	return r.DB(ctx).Omit(clause.Associations).Save(p).Error
}

func (r *repository) FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var p models.Product
	if err := r.DB(ctx).Preload("Category").First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repository) FindProductBySlug(ctx context.Context, slug string) (*models.Product, error) {
	var p models.Product
	if err := r.DB(ctx).Preload("Category").First(&p, "slug = ?", slug).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repository) ProductFieldTaken(ctx context.Context, column, value string, exclude uuid.UUID) (bool, error) {
	return fieldTaken(r.DB(ctx).Model(&models.Product{}), column, value, exclude)
}

func (r *repository) DeleteProduct(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.DB(ctx).Delete(&models.Product{}, "id = ?", id)
	return res.RowsAffected > 0, res.Error
}

func (r *repository) ListProducts(ctx context.Context, q productQuery) ([]models.Product, int64, error) {
	query := r.DB(ctx).Model(&models.Product{})
	if q.ActiveOnly {
		query = query.
			Joins("JOIN categories ON categories.id = products.category_id").
			Where("products.is_active = ? AND categories.is_active = ?", true, true)
	}
	if len(q.CategoryIDs) > 0 {
		query = query.Where("products.category_id IN ?", q.CategoryIDs)
	}
	if q.Featured != nil {
		query = query.Where("products.is_featured = ?", *q.Featured)
	}
	if q.New != nil {
		query = query.Where("products.is_new = ?", *q.New)
	}
	if q.InStock != nil {
		if *q.InStock {
			query = query.Where("products.quantity > 0")
		} else {
			query = query.Where("products.quantity <= 0")
		}
	}
	if term := strings.TrimSpace(q.Search); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		query = query.Where("LOWER(products.name) LIKE ? OR LOWER(products.sku) LIKE ? OR LOWER(products.brand) LIKE ?", like, like, like)
	}
	if q.MinPrice != nil {
		query = query.Where("products.price >= ?", q.MinPrice)
	}
	if q.MaxPrice != nil {
		query = query.Where("products.price <= ?", q.MaxPrice)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	switch q.Ordering {
	case OrderPriceAsc:
		query = query.Order("products.price ASC")
	case OrderPriceDesc:
		query = query.Order("products.price DESC")
	case OrderPopular:
		query = query.Order("products.sales_count DESC").Order("products.views_count DESC")
	}
	query = query.Order("products.created_at DESC").Order("products.id DESC")

	offset := q.Offset.Normalize()
	var rows []models.Product
	err := query.
		Preload("Category").
		Offset(offset.SQLOffset()).
		Limit(offset.PageSize).
		Find(&rows).Error
	return rows, total, err
}

// AdjustStock applies delta and refuses to take quantity below zero.
func (r *repository) AdjustStock(ctx context.Context, id uuid.UUID, delta int) (bool, error) {
	res := r.DB(ctx).
		Model(&models.Product{}).
		Where("id = ? AND quantity + ? >= 0", id, delta).
		UpdateColumn("quantity", gorm.Expr("quantity + ?", delta))
	return res.RowsAffected > 0, res.Error
}

func (r *repository) IncrementViews(ctx context.Context, id uuid.UUID) error {
	return r.DB(ctx).
		Model(&models.Product{}).
		Where("id = ?", id).
		UpdateColumn("views_count", gorm.Expr("views_count + 1")).Error
}

func (r *repository) RatingSummaries(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID]RatingSummary, error) {
	out := make(map[uuid.UUID]RatingSummary, len(productIDs))
	if len(productIDs) == 0 {
		return out, nil
	}
	var rows []struct {
		ProductID uuid.UUID
		Count     int64
		Average   float64
	}
	err := r.DB(ctx).
		Model(&models.ProductReview{}).
		Select("product_id, COUNT(*) AS count, AVG(rating) AS average").
		Where("product_id IN ? AND is_approved = ?", productIDs, true).
		Group("product_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ProductID] = RatingSummary{Count: row.Count, Average: roundRating(row.Average)}
	}
	return out, nil
}

func fieldTaken(query *gorm.DB, column, value string, exclude uuid.UUID) (bool, error) {
	query = query.Where(clause.Eq{Column: clause.Column{Name: column}, Value: value})
	if exclude != uuid.Nil {
		query = query.Where("id <> ?", exclude)
	}
	var count int64
	err := query.Count(&count).Error
	return count > 0, err
}

func roundRating(avg float64) float64 {
	return float64(int(avg*10+0.5)) / 10
}
