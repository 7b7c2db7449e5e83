package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/shopfront-backend/api/responses"
	"github.com/angelmondragon/shopfront-backend/api/validators"
	"github.com/angelmondragon/shopfront-backend/internal/reviews"
	"github.com/angelmondragon/shopfront-backend/pkg/logger"
)

type reviewCreator interface {
	Create(ctx context.Context, userID, productID uuid.UUID, input reviews.CreateInput) (*reviews.ReviewDTO, error)
}

type reviewCreateRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Title   string `json:"title" validate:"max=200"`
	Comment string `json:"comment" validate:"required,max=5000"`
}

// ReviewCreate records the caller's review. It stays hidden until approved.
func ReviewCreate(svc reviewCreator, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("reviews"))
			return
		}
		userID, err := requireUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body reviewCreateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		review, err := svc.Create(r.Context(), userID, productID, reviews.CreateInput{
			Rating:    body.Rating,
			Title:     validators.SanitizeString(body.Title, 200),
			Comment:   validators.SanitizeString(body.Comment, 5000),
			IPAddress: clientIP(r),
			UserAgent: userAgent(r),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, review)
	}
}
