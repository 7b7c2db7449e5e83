package notifications

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/shopfront-backend/pkg/db/models"
	"github.com/angelmondragon/shopfront-backend/pkg/enums"
)

// Input describes a notification to deliver to one user.
type Input struct {
	UserID   uuid.UUID
	Type     enums.NotificationType
	Title    string
	Message  string
	Link     *string
	Metadata map[string]any
}

// NotificationDTO is the API shape of a notification.
type NotificationDTO struct {
	ID         uuid.UUID              `json:"id"`
	Type       enums.NotificationType `json:"notification_type"`
	Title      string                 `json:"title"`
	Message    string                 `json:"message"`
	Link       *string                `json:"link,omitempty"`
	IsRead     bool                   `json:"is_read"`
	IsArchived bool                   `json:"is_archived"`
	Metadata   json.RawMessage        `json:"metadata,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
}

func toDTO(n models.Notification) NotificationDTO {
	return NotificationDTO{
		ID:         n.ID,
		Type:       n.Type,
		Title:      n.Title,
		Message:    n.Message,
		Link:       n.Link,
		IsRead:     n.IsRead,
		IsArchived: n.IsArchived,
		Metadata:   n.Metadata,
		CreatedAt:  n.CreatedAt,
	}
}
