package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/shopfront-backend/pkg/enums"
)

// Notification stores in-app notifications addressed to a user.
type Notification struct {
	ID         uuid.UUID              `gorm:"column:id;type:uuid;primaryKey"`
	UserID     uuid.UUID              `gorm:"column:user_id;type:uuid;not null;index:notifications_user_created_idx,priority:1"`
	Type       enums.NotificationType `gorm:"column:notification_type;type:text;not null"`
	Title      string                 `gorm:"column:title;size:200;not null"`
	Message    string                 `gorm:"column:message;not null"`
	Link       *string                `gorm:"column:link"`
	IsRead     bool                   `gorm:"column:is_read;not null"`
	IsArchived bool                   `gorm:"column:is_archived;not null"`
	Metadata   json.RawMessage        `gorm:"column:metadata;type:jsonb"`
	CreatedAt  time.Time              `gorm:"column:created_at;autoCreateTime;index:notifications_user_created_idx,priority:2"`
	UpdatedAt  time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}

func (n *Notification) BeforeCreate(*gorm.DB) error {
	ensureID(&n.ID)
	return nil
}
