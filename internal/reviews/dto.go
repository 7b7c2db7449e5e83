package reviews

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/shopfront-backend/pkg/db/models"
)

// CreateInput is a shopper's review of one product.
type CreateInput struct {
	Rating    int
	Title     string
	Comment   string
	IPAddress string
	UserAgent string
}

// Summary aggregates approved reviews.
type Summary struct {
	Count   int64   `json:"count"`
	Average float64 `json:"average"`
}

// ReviewDTO is the API shape of a review.
type ReviewDTO struct {
	ID                 uuid.UUID `json:"id"`
	ProductID          uuid.UUID `json:"product_id"`
	UserID             uuid.UUID `json:"user_id"`
	UserName           string    `json:"user_name,omitempty"`
	Rating             int       `json:"rating"`
	Title              string    `json:"title,omitempty"`
	Comment            string    `json:"comment"`
	IsVerifiedPurchase bool      `json:"is_verified_purchase"`
	IsApproved         bool      `json:"is_approved"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// AdminListParams filters the moderation queue.
type AdminListParams struct {
	Limit     int
	Cursor    string
	Approved  *bool
	ProductID *uuid.UUID
}

func toDTO(r *models.ProductReview) ReviewDTO {
	dto := ReviewDTO{
		ID:                 r.ID,
		ProductID:          r.ProductID,
		UserID:             r.UserID,
		Rating:             r.Rating,
		Title:              r.Title,
		Comment:            r.Comment,
		IsVerifiedPurchase: r.IsVerifiedPurchase,
		IsApproved:         r.IsApproved,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}
	if r.User != nil {
		dto.UserName = r.User.FullName()
		if dto.UserName == "" {
			dto.UserName = r.User.Username
		}
	}
	return dto
}
