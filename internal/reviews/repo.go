package reviews

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/shopfront-backend/internal/repo"
	"github.com/angelmondragon/shopfront-backend/pkg/db/models"
	"github.com/angelmondragon/shopfront-backend/pkg/pagination"
)

// Repository persists product reviews.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, review *models.ProductReview) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.ProductReview, error)
	List(ctx context.Context, params listParams) ([]models.ProductReview, error)
	Summary(ctx context.Context, productID uuid.UUID) (Summary, error)
	SetApproved(ctx context.Context, ids []uuid.UUID, approved bool) (int64, error)
	ExistingIDs(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

type listParams struct {
	ProductID *uuid.UUID
	Approved  *bool
	Cursor    *pagination.Cursor
	Limit     int
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

func (r *repository) Create(ctx context.Context, review *models.ProductReview) error {
	return r.DB(ctx).Omit(clause.Associations).Create(review).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.ProductReview, error) {
	var review models.ProductReview
	if err := r.DB(ctx).Preload("User").First(&review, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *repository) List(ctx context.Context, params listParams) ([]models.ProductReview, error) {
	query := r.DB(ctx).Model(&models.ProductReview{}).Preload("User")
	if params.ProductID != nil {
		query = query.Where("product_id = ?", *params.ProductID)
	}
	if params.Approved != nil {
		query = query.Where("is_approved = ?", *params.Approved)
	}
	if params.Cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", params.Cursor.CreatedAt, params.Cursor.CreatedAt, params.Cursor.ID)
	}
	var rows []models.ProductReview
	err := query.Order("created_at DESC").Order("id DESC").Limit(params.Limit).Find(&rows).Error
	return rows, err
}

// Summary counts approved reviews and averages their rating to one decimal.
func (r *repository) Summary(ctx context.Context, productID uuid.UUID) (Summary, error) {
	var row struct {
		Count   int64
		Average *float64
	}
	err := r.DB(ctx).
		Model(&models.ProductReview{}).
		Select("COUNT(*) AS count, AVG(rating) AS average").
		Where("product_id = ? AND is_approved = ?", productID, true).
		Scan(&row).Error
	if err != nil {
		return Summary{}, err
	}
	out := Summary{Count: row.Count}
	if row.Average != nil {
		out.Average = math.Round(*row.Average*10) / 10
	}
	return out, nil
}

func (r *repository) SetApproved(ctx context.Context, ids []uuid.UUID, approved bool) (int64, error) {
	res := r.DB(ctx).
		Model(&models.ProductReview{}).
		Where("id IN ?", ids).
		Updates(map[string]any{"is_approved": approved, "updated_at": time.Now().UTC()})
	return res.RowsAffected, res.Error
}

func (r *repository) ExistingIDs(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error) {
	var found []uuid.UUID
	err := r.DB(ctx).Model(&models.ProductReview{}).Where("id IN ?", ids).Pluck("id", &found).Error
	return found, err
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.DB(ctx).Where("id = ?", id).Delete(&models.ProductReview{})
	return res.RowsAffected > 0, res.Error
}
