package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/shopfront-backend/pkg/enums"
)

// UserActivity is an append-only audit row.
type UserActivity struct {
	ID           uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	UserID       uuid.UUID          `gorm:"column:user_id;type:uuid;not null;index:user_activities_user_created_idx,priority:1"`
	ActivityType enums.ActivityType `gorm:"column:activity_type;type:text;not null"`
	Description  string             `gorm:"column:description;not null;default:''"`
	IPAddress    *string            `gorm:"column:ip_address;size:45"`
	UserAgent    string             `gorm:"column:user_agent;not null;default:''"`
	Metadata     json.RawMessage    `gorm:"column:metadata;type:jsonb"`
	CreatedAt    time.Time          `gorm:"column:created_at;autoCreateTime;index:user_activities_user_created_idx,priority:2"`
}

func (a *UserActivity) BeforeCreate(*gorm.DB) error {
	ensureID(&a.ID)
	return nil
}
