package addresses

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/shopfront-backend/internal/repo"
	"github.com/angelmondragon/shopfront-backend/pkg/db/models"
)

// Repository persists address-book entries. Every lookup is scoped by user.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Address, error)
	FindForUser(ctx context.Context, userID, id uuid.UUID) (*models.Address, error)
	CountForUser(ctx context.Context, userID uuid.UUID) (int64, error)
	Create(ctx context.Context, address *models.Address) error
	Save(ctx context.Context, address *models.Address) error
	ClearDefault(ctx context.Context, userID, keepID uuid.UUID) error
	Delete(ctx context.Context, userID, id uuid.UUID) (bool, error)
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

func (r *repository) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Address, error) {
	var rows []models.Address
	err := r.DB(ctx).
		Where("user_id = ?", userID).
		Order("is_default DESC").
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) FindForUser(ctx context.Context, userID, id uuid.UUID) (*models.Address, error) {
	var row models.Address
	if err := r.DB(ctx).Where("id = ? AND user_id = ?", id, userID).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repository) CountForUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.DB(ctx).Model(&models.Address{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

func (r *repository) Create(ctx context.Context, address *models.Address) error {
	return r.DB(ctx).Create(address).Error
}

func (r *repository) Save(ctx context.Context, address *models.Address) error {
	return r.DB(ctx).Save(address).Error
}

// ClearDefault unsets is_default on every address of the user except keepID.
func (r *repository) ClearDefault(ctx context.Context, userID, keepID uuid.UUID) error {
	return r.DB(ctx).
		Model(&models.Address{}).
		Where("user_id = ? AND is_default = ? AND id <> ?", userID, true, keepID).
		UpdateColumn("is_default", false).Error
}

func (r *repository) Delete(ctx context.Context, userID, id uuid.UUID) (bool, error) {
	res := r.DB(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&models.Address{})
	return res.RowsAffected > 0, res.Error
}
