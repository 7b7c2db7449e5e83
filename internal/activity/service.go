// Package activity keeps the per-user audit trail.
package activity

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/shopfront-backend/internal/repo"
	"github.com/angelmondragon/shopfront-backend/pkg/db/models"
	"github.com/angelmondragon/shopfront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/shopfront-backend/pkg/errors"
	"github.com/angelmondragon/shopfront-backend/pkg/logger"
	"github.com/angelmondragon/shopfront-backend/pkg/pagination"

	"gorm.io/gorm"
)

// Entry is one activity to record.
type Entry struct {
	UserID      uuid.UUID
	Type        enums.ActivityType
	Description string
	IPAddress   string
	UserAgent   string
	Metadata    map[string]any
}

// Recorder is what other services depend on. Recording never fails the caller.
type Recorder interface {
	Record(ctx context.Context, entry Entry)
}

// ActivityDTO is the API shape of an activity row.
type ActivityDTO struct {
	ID           uuid.UUID          `json:"id"`
	ActivityType enums.ActivityType `json:"activity_type"`
	Description  string             `json:"description"`
	IPAddress    *string            `json:"ip_address,omitempty"`
	UserAgent    string             `json:"user_agent,omitempty"`
	Metadata     json.RawMessage    `json:"metadata,omitempty"`
	CreatedAt    time.Time          `json:"created_at"`
}

type Service struct {
	repo.Base
	logg *logger.Logger
}

func NewService(db *gorm.DB, logg *logger.Logger) *Service {
	return &Service{Base: repo.NewBase(db), logg: logg}
}

// Record stores the entry and logs instead of returning errors.
func (s *Service) Record(ctx context.Context, entry Entry) {
	if s == nil || entry.UserID == uuid.Nil {
		return
	}
	if err := s.record(ctx, entry); err != nil && s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"user_id":       entry.UserID.String(),
			"activity_type": entry.Type,
		})
		s.logg.Warn(s.logg.WithField(logCtx, "error", err.Error()), "activity.record_failed")
	}
}

func (s *Service) record(ctx context.Context, entry Entry) error {
	if !entry.Type.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid activity type")
	}
	row := &models.UserActivity{
		UserID:       entry.UserID,
		ActivityType: entry.Type,
		Description:  entry.Description,
		UserAgent:    truncate(entry.UserAgent, 512),
	}
	if entry.IPAddress != "" {
		ip := truncate(entry.IPAddress, 45)
		row.IPAddress = &ip
	}
	if len(entry.Metadata) > 0 {
		raw, err := json.Marshal(entry.Metadata)
		if err != nil {
			return err
		}
		row.Metadata = raw
	}
	return s.DB(ctx).Create(row).Error
}

// ListForUser returns a user's activity, newest first.
func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*pagination.Page[ActivityDTO], error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	query := s.DB(ctx).Model(&models.UserActivity{}).Where("user_id = ?", userID)
	if cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.UserActivity
	if err := query.Order("created_at DESC").Order("id DESC").Limit(pagination.LimitWithBuffer(params.Limit)).Find(&rows).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list activity")
	}

	dtos := make([]ActivityDTO, 0, len(rows))
	for _, row := range rows {
		dtos = append(dtos, ActivityDTO{
			ID:           row.ID,
			ActivityType: row.ActivityType,
			Description:  row.Description,
			IPAddress:    row.IPAddress,
			UserAgent:    row.UserAgent,
			Metadata:     row.Metadata,
			CreatedAt:    row.CreatedAt,
		})
	}
	page := pagination.Trim(dtos, params.Limit, func(a ActivityDTO) pagination.Cursor {
		return pagination.Cursor{CreatedAt: a.CreatedAt, ID: a.ID}
	})
	return &page, nil
}

func truncate(value string, max int) string {
	if len(value) <= max {
		return value
	}
	return value[:max]
}

// Nop discards activity. Handy in tests and tools.
type Nop struct{}

func (Nop) Record(context.Context, Entry) {}
