package users

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/shopfront-backend/internal/repo"
	"github.com/angelmondragon/shopfront-backend/pkg/db/models"
	"github.com/angelmondragon/shopfront-backend/pkg/pagination"
)

// Repository exposes user-related persistence operations.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, user *models.User) error
	Save(ctx context.Context, user *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	EmailTaken(ctx context.Context, email string, exclude uuid.UUID) (bool, error)
	UsernameTaken(ctx context.Context, username string) (bool, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error
	List(ctx context.Context, params listParams) ([]models.User, error)
	SetActive(ctx context.Context, ids []uuid.UUID, active bool) (int64, error)
	ExistingIDs(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

type listParams struct {
	Limit    int
	Cursor   *pagination.Cursor
	Search   string
	IsActive *bool
	IsStaff  *bool
}

type repository struct {
	repo.Base
}

// NewRepository constructs a users repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{Base: r.Bind(tx)}
}

// Create inserts a new user.
func (r *repository) Create(ctx context.Context, user *models.User) error {
	return r.DB(ctx).Create(user).Error
}

func (r *repository) Save(ctx context.Context, user *models.User) error {
	return r.DB(ctx).Save(user).Error
}

// FindByEmail retrieves the user matching the provided email.
func (r *repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.DB(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByID loads a user by their UUID.
func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.DB(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *repository) EmailTaken(ctx context.Context, email string, exclude uuid.UUID) (bool, error) {
	var count int64
	query := r.DB(ctx).Model(&models.User{}).Where("email = ?", email)
	if exclude != uuid.Nil {
		query = query.Where("id <> ?", exclude)
	}
	err := query.Count(&count).Error
	return count > 0, err
}

func (r *repository) UsernameTaken(ctx context.Context, username string) (bool, error) {
	var count int64
	err := r.DB(ctx).Model(&models.User{}).Where("username = ?", username).Count(&count).Error
	return count > 0, err
}

// UpdateLastLogin refreshes the user's last_login_at timestamp.
func (r *repository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.DB(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("last_login_at", at).Error
}

func (r *repository) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	return r.DB(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Updates(map[string]any{"password_hash": hash, "updated_at": time.Now().UTC()}).Error
}

func (r *repository) List(ctx context.Context, params listParams) ([]models.User, error) {
	query := r.DB(ctx).Model(&models.User{})
	if term := strings.TrimSpace(params.Search); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		query = query.Where("LOWER(email) LIKE ? OR LOWER(username) LIKE ? OR LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ?", like, like, like, like)
	}
	if params.IsActive != nil {
		query = query.Where("is_active = ?", *params.IsActive)
	}
	if params.IsStaff != nil {
		query = query.Where("is_staff = ?", *params.IsStaff)
	}
	if params.Cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", params.Cursor.CreatedAt, params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var rows []models.User
	err := query.Order("created_at DESC").Order("id DESC").Limit(params.Limit).Find(&rows).Error
	return rows, err
}

func (r *repository) SetActive(ctx context.Context, ids []uuid.UUID, active bool) (int64, error) {
	res := r.DB(ctx).
		Model(&models.User{}).
		Where("id IN ?", ids).
		Updates(map[string]any{"is_active": active, "updated_at": time.Now().UTC()})
	return res.RowsAffected, res.Error
}

func (r *repository) ExistingIDs(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error) {
	var found []uuid.UUID
	err := r.DB(ctx).Model(&models.User{}).Where("id IN ?", ids).Pluck("id", &found).Error
	return found, err
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.DB(ctx).Delete(&models.User{}, "id = ?", id)
	return res.RowsAffected > 0, res.Error
}
