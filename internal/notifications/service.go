package notifications

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/shopfront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/shopfront-backend/pkg/errors"
	"github.com/angelmondragon/shopfront-backend/pkg/pagination"
)

const (
	columnRead     = "is_read"
	columnArchived = "is_archived"
)

// Notifier is the narrow dependency other services use to alert users,
// optionally inside their own transaction.
type Notifier interface {
	Notify(ctx context.Context, tx *gorm.DB, input Input) error
}

// Service defines notification operations.
type Service interface {
	Notifier
	List(ctx context.Context, params ListParams) (*pagination.Page[NotificationDTO], error)
	MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error
	MarkUnread(ctx context.Context, userID, notificationID uuid.UUID) error
	Archive(ctx context.Context, userID, notificationID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
	DeleteArchivedOlderThan(ctx context.Context, age time.Duration) (int64, error)
}

type service struct {
	repo Repository
	now  func() time.Time
}

// ListParams configures pagination for notifications.
type ListParams struct {
	UserID     uuid.UUID
	Limit      int
	Cursor     string
	UnreadOnly bool
}

// NewService wires notifications dependencies.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifications repository required")
	}
	return &service{repo: repo, now: time.Now}, nil
}

func (s *service) Notify(ctx context.Context, tx *gorm.DB, input Input) error {
	if input.UserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if !input.Type.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid notification type")
	}
	title := strings.TrimSpace(input.Title)
	message := strings.TrimSpace(input.Message)
	if title == "" || message == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "title and message are required")
	}

	row := &models.Notification{
		UserID:  input.UserID,
		Type:    input.Type,
		Title:   title,
		Message: message,
		Link:    input.Link,
	}
	if len(input.Metadata) > 0 {
		raw, err := json.Marshal(input.Metadata)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid notification metadata")
		}
		row.Metadata = raw
	}

	if err := s.repo.WithTx(tx).Create(ctx, row); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create notification")
	}
	return nil
}

func (s *service) List(ctx context.Context, params ListParams) (*pagination.Page[NotificationDTO], error) {
	if params.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	query := listNotificationsParams{
		UserID:     params.UserID,
		Limit:      pagination.LimitWithBuffer(params.Limit),
		UnreadOnly: params.UnreadOnly,
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notifications")
	}

	dtos := make([]NotificationDTO, 0, len(rows))
	for _, row := range rows {
		dtos = append(dtos, toDTO(row))
	}
	page := pagination.Trim(dtos, params.Limit, func(n NotificationDTO) pagination.Cursor {
		return pagination.Cursor{CreatedAt: n.CreatedAt, ID: n.ID}
	})
	return &page, nil
}

func (s *service) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	return s.setFlag(ctx, userID, notificationID, columnRead, true, "mark notification read")
}

func (s *service) MarkUnread(ctx context.Context, userID, notificationID uuid.UUID) error {
	return s.setFlag(ctx, userID, notificationID, columnRead, false, "mark notification unread")
}

func (s *service) Archive(ctx context.Context, userID, notificationID uuid.UUID) error {
	return s.setFlag(ctx, userID, notificationID, columnArchived, true, "archive notification")
}

func (s *service) setFlag(ctx context.Context, userID, notificationID uuid.UUID, column string, value bool, action string) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if notificationID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "notification id required")
	}

	found, err := s.repo.SetFlag(ctx, userID, notificationID, column, value)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, action)
	}
	if !found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
	}
	return nil
}

func (s *service) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	if userID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	count, err := s.repo.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notifications read")
	}
	return count, nil
}

func (s *service) DeleteArchivedOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	if age <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "retention must be positive")
	}
	count, err := s.repo.DeleteArchivedBefore(ctx, s.now().UTC().Add(-age))
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete archived notifications")
	}
	return count, nil
}
