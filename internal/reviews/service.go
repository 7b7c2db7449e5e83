// Package reviews stores product reviews and their moderation state.
package reviews

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/shopfront-backend/internal/activity"
	"github.com/angelmondragon/shopfront-backend/pkg/bulk"
	"github.com/angelmondragon/shopfront-backend/pkg/db"
	"github.com/angelmondragon/shopfront-backend/pkg/db/models"
	"github.com/angelmondragon/shopfront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/shopfront-backend/pkg/errors"
	"github.com/angelmondragon/shopfront-backend/pkg/outbox"
	"github.com/angelmondragon/shopfront-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/shopfront-backend/pkg/pagination"
)

// uniqueReviewConstraint guards one review per product and user.
const uniqueReviewConstraint = "product_reviews_product_user_key"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type productLoader interface {
	FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type purchaseChecker interface {
	HasPurchased(ctx context.Context, userID, productID uuid.UUID) (bool, error)
}

// Service manages reviews.
type Service interface {
	Create(ctx context.Context, userID, productID uuid.UUID, input CreateInput) (*ReviewDTO, error)
	ListForProduct(ctx context.Context, productID uuid.UUID, params pagination.Params) (*pagination.Page[ReviewDTO], error)
	Summary(ctx context.Context, productID uuid.UUID) (*Summary, error)
	AdminList(ctx context.Context, params AdminListParams) (*pagination.Page[ReviewDTO], error)
	Moderate(ctx context.Context, ids []uuid.UUID, approved bool) (*bulk.Result, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ServiceParams wires the review service.
type ServiceParams struct {
	Repo       Repository
	Tx         txRunner
	Products   productLoader
	Purchases  purchaseChecker
	Outbox     outbox.Emitter
	Activity   activity.Recorder
	MaxBulkIDs int
}

type service struct {
	repo      Repository
	tx        txRunner
	products  productLoader
	purchases purchaseChecker
	outbox    outbox.Emitter
	activity  activity.Recorder
	maxBulk   int
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("reviews repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	if params.Purchases == nil {
		return nil, fmt.Errorf("purchase checker required")
	}
	if params.Outbox == nil {
		params.Outbox = outbox.NopEmitter{}
	}
	if params.Activity == nil {
		params.Activity = activity.Nop{}
	}
	return &service{
		repo:      params.Repo,
		tx:        params.Tx,
		products:  params.Products,
		purchases: params.Purchases,
		outbox:    params.Outbox,
		activity:  params.Activity,
		maxBulk:   params.MaxBulkIDs,
	}, nil
}

// Create stores a review awaiting moderation. A second review of the same
// product by the same user is a conflict.
func (s *service) Create(ctx context.Context, userID, productID uuid.UUID, input CreateInput) (*ReviewDTO, error) {
	violations := map[string]string{}
	if input.Rating < 1 || input.Rating > 5 {
		violations["rating"] = "must be between 1 and 5"
	}
	comment := strings.TrimSpace(input.Comment)
	if comment == "" {
		violations["comment"] = "required"
	}
	title := strings.TrimSpace(input.Title)
	if len(title) > 200 {
		violations["title"] = "must be at most 200 characters"
	}
	if len(violations) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid review").WithDetails(violations)
	}

	product, err := s.products.FindProduct(ctx, productID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if !product.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	verified, err := s.purchases.HasPurchased(ctx, userID, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check purchase")
	}

	review := &models.ProductReview{
		ProductID:          productID,
		UserID:             userID,
		Rating:             input.Rating,
		Title:              title,
		Comment:            comment,
		IsVerifiedPurchase: verified,
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, review); err != nil {
			if db.IsUniqueViolation(err, uniqueReviewConstraint) {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "you have already reviewed this product")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create review")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventReviewSubmitted,
			AggregateType: enums.AggregateReview,
			AggregateID:   review.ID,
			Actor:         &outbox.ActorRef{UserID: userID, Role: enums.UserRoleCustomer},
			Data: payloads.ReviewSubmittedEvent{
				ReviewID:  review.ID,
				ProductID: productID,
				UserID:    userID,
				Rating:    review.Rating,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	s.activity.Record(ctx, activity.Entry{
		UserID:      userID,
		Type:        enums.ActivityAddReview,
		Description: fmt.Sprintf("Reviewed %s (%d/5)", product.Name, review.Rating),
		IPAddress:   input.IPAddress,
		UserAgent:   input.UserAgent,
		Metadata:    map[string]any{"product_id": productID.String(), "review_id": review.ID.String()},
	})
	dto := toDTO(review)
	return &dto, nil
}

// ListForProduct pages through approved reviews, newest first.
func (s *service) ListForProduct(ctx context.Context, productID uuid.UUID, params pagination.Params) (*pagination.Page[ReviewDTO], error) {
	approved := true
	return s.list(ctx, listParams{ProductID: &productID, Approved: &approved}, params)
}

func (s *service) Summary(ctx context.Context, productID uuid.UUID) (*Summary, error) {
	summary, err := s.repo.Summary(ctx, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "summarize reviews")
	}
	return &summary, nil
}

func (s *service) AdminList(ctx context.Context, params AdminListParams) (*pagination.Page[ReviewDTO], error) {
	return s.list(ctx, listParams{ProductID: params.ProductID, Approved: params.Approved}, pagination.Params{
		Limit:  params.Limit,
		Cursor: params.Cursor,
	})
}

// Moderate approves or rejects reviews in bulk.
func (s *service) Moderate(ctx context.Context, ids []uuid.UUID, approved bool) (*bulk.Result, error) {
	ids, err := bulk.NormalizeIDs(ids, s.maxBulk)
	if err != nil {
		return nil, err
	}
	result := &bulk.Result{}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		existing, err := repo.ExistingIDs(ctx, ids)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load reviews")
		}
		result.MissingIDs = bulk.Missing(ids, existing)
		if len(existing) == 0 {
			return nil
		}
		result.Updated, err = repo.SetApproved(ctx, existing, approved)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "moderate reviews")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	found, err := s.repo.Delete(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete review")
	}
	if !found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "review not found")
	}
	return nil
}

func (s *service) list(ctx context.Context, filters listParams, params pagination.Params) (*pagination.Page[ReviewDTO], error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	filters.Cursor = cursor
	filters.Limit = pagination.LimitWithBuffer(params.Limit)
	rows, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list reviews")
	}
	dtos := make([]ReviewDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, toDTO(&rows[i]))
	}
	page := pagination.Trim(dtos, params.Limit, func(r ReviewDTO) pagination.Cursor {
		return pagination.Cursor{CreatedAt: r.CreatedAt, ID: r.ID}
	})
	return &page, nil
}
