package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/shopfront-backend/api/responses"
	"github.com/angelmondragon/shopfront-backend/api/validators"
	"github.com/angelmondragon/shopfront-backend/internal/catalog"
	"github.com/angelmondragon/shopfront-backend/internal/reviews"
	pkgerrors "github.com/angelmondragon/shopfront-backend/pkg/errors"
	"github.com/angelmondragon/shopfront-backend/pkg/logger"
	"github.com/angelmondragon/shopfront-backend/pkg/pagination"
)

type catalogReader interface {
	ListCategories(ctx context.Context, viewer catalog.Viewer) ([]catalog.CategoryDTO, error)
	CategoryTree(ctx context.Context, viewer catalog.Viewer) ([]catalog.CategoryNode, error)
	GetCategory(ctx context.Context, viewer catalog.Viewer, slug string) (*catalog.CategoryDTO, error)
	GetProduct(ctx context.Context, viewer catalog.Viewer, ref string) (*catalog.ProductDTO, error)
	ListProducts(ctx context.Context, viewer catalog.Viewer, filters catalog.ProductFilters) (*pagination.OffsetPage[catalog.ProductDTO], error)
}

type reviewReader interface {
	ListForProduct(ctx context.Context, productID uuid.UUID, params pagination.Params) (*pagination.Page[reviews.ReviewDTO], error)
	Summary(ctx context.Context, productID uuid.UUID) (*reviews.Summary, error)
}

var productOrderings = map[string]bool{
	catalog.OrderNewest:    true,
	catalog.OrderPriceAsc:  true,
	catalog.OrderPriceDesc: true,
	catalog.OrderPopular:   true,
}

func CategoryList(svc catalogReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("catalog"))
			return
		}
		list, err := svc.ListCategories(r.Context(), viewerFrom(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func CategoryTree(svc catalogReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("catalog"))
			return
		}
		tree, err := svc.CategoryTree(r.Context(), viewerFrom(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, tree)
	}
}

func CategoryGet(svc catalogReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("catalog"))
			return
		}
		category, err := svc.GetCategory(r.Context(), viewerFrom(r), chi.URLParam(r, "slug"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, category)
	}
}

// ProductList serves the storefront listing with its filters and ordering.
func ProductList(svc catalogReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("catalog"))
			return
		}
		filters, err := parseProductFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := svc.ListProducts(r.Context(), viewerFrom(r), filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

// ProductGet accepts either the product id or its slug.
func ProductGet(svc catalogReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("catalog"))
			return
		}
		product, err := svc.GetProduct(r.Context(), viewerFrom(r), chi.URLParam(r, "productRef"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

type productReviewsResponse struct {
	Summary *reviews.Summary                    `json:"summary"`
	Reviews *pagination.Page[reviews.ReviewDTO] `json:"reviews"`
}

// ProductReviews lists approved reviews alongside the rating summary.
func ProductReviews(svc reviewReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("reviews"))
			return
		}
		productID, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.ListForProduct(r.Context(), productID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		summary, err := svc.Summary(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, productReviewsResponse{Summary: summary, Reviews: page})
	}
}

func parseProductFilters(r *http.Request) (catalog.ProductFilters, error) {
	q := r.URL.Query()
	filters := catalog.ProductFilters{
		CategorySlug: strings.TrimSpace(q.Get("category")),
		Search:       validators.SanitizeString(q.Get("search"), 200),
		Ordering:     strings.TrimSpace(q.Get("ordering")),
	}
	if filters.Ordering != "" && !productOrderings[filters.Ordering] {
		return filters, pkgerrors.New(pkgerrors.CodeValidation, "unknown ordering").
			WithDetails(map[string]any{"field": "ordering"})
	}

	var err error
	if filters.Featured, err = validators.ParseQueryBool(r, "featured"); err != nil {
		return filters, err
	}
	if filters.New, err = validators.ParseQueryBool(r, "new"); err != nil {
		return filters, err
	}
	if filters.InStock, err = validators.ParseQueryBool(r, "in_stock"); err != nil {
		return filters, err
	}
	if filters.MinPrice, err = validators.ParseQueryDecimal(r, "min_price"); err != nil {
		return filters, err
	}
	if filters.MaxPrice, err = validators.ParseQueryDecimal(r, "max_price"); err != nil {
		return filters, err
	}
	if filters.Page, err = validators.ParseQueryInt(r, "page", 1, 1, 100000); err != nil {
		return filters, err
	}
	if filters.PageSize, err = validators.ParseQueryInt(r, "page_size", pagination.DefaultLimit, 1, pagination.MaxLimit); err != nil {
		return filters, err
	}
	if include, err := validators.ParseQueryBool(r, "include_inactive"); err != nil {
		return filters, err
	} else if include != nil {
		filters.IncludeInactive = *include
	}
	return filters, nil
}
