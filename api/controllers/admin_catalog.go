package controllers

import (
	"net/http"

	"github.com/angelmondragon/shopfront-backend/api/responses"
	"github.com/angelmondragon/shopfront-backend/api/validators"
	"github.com/angelmondragon/shopfront-backend/internal/catalog"
	"github.com/angelmondragon/shopfront-backend/pkg/logger"
	"github.com/angelmondragon/shopfront-backend/pkg/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type categoryCreateRequest struct {
	Name        string     `json:"name" validate:"required,max=100"`
	Slug        string     `json:"slug" validate:"omitempty,max=120"`
	Description string     `json:"description"`
	ImageURL    *string    `json:"image_url" validate:"omitempty,url"`
	ParentID    *uuid.UUID `json:"parent_id"`
	IsActive    *bool      `json:"is_active"`
}

type categoryUpdateRequest struct {
	Name        *string            `json:"name" validate:"omitempty,max=100"`
	Slug        *string            `json:"slug" validate:"omitempty,max=120"`
	Description *string            `json:"description"`
	ImageURL    *string            `json:"image_url" validate:"omitempty,url"`
	ParentID    types.NullableUUID `json:"parent_id"`
	IsActive    *bool              `json:"is_active"`
}

type productCreateRequest struct {
	CategoryID        uuid.UUID        `json:"category_id" validate:"required"`
	Name              string           `json:"name" validate:"required,max=200"`
	Slug              string           `json:"slug" validate:"omitempty,max=220"`
	SKU               string           `json:"sku" validate:"required,max=100"`
	Description       string           `json:"description"`
	ShortDescription  string           `json:"short_description" validate:"max=500"`
	Price             decimal.Decimal  `json:"price"`
	CompareAtPrice    *decimal.Decimal `json:"compare_at_price"`
	CostPrice         *decimal.Decimal `json:"cost_price"`
	Quantity          int              `json:"quantity" validate:"gte=0"`
	LowStockThreshold *int             `json:"low_stock_threshold" validate:"omitempty,gte=0"`
	TrackInventory    *bool            `json:"track_inventory"`
	Brand             string           `json:"brand" validate:"max=100"`
	Material          string           `json:"material" validate:"max=100"`
	Color             string           `json:"color" validate:"max=50"`
	Size              string           `json:"size" validate:"max=50"`
	Weight            *decimal.Decimal `json:"weight"`
	Dimensions        string           `json:"dimensions" validate:"max=100"`
	Images            []string         `json:"images" validate:"omitempty,dive,url"`
	MetaTitle         string           `json:"meta_title" validate:"max=200"`
	MetaDescription   string           `json:"meta_description" validate:"max=500"`
	MetaKeywords      string           `json:"meta_keywords" validate:"max=255"`
	IsFeatured        bool             `json:"is_featured"`
	IsActive          *bool            `json:"is_active"`
	IsNew             bool             `json:"is_new"`
}

type productUpdateRequest struct {
	CategoryID        *uuid.UUID                      `json:"category_id"`
	Name              *string                         `json:"name" validate:"omitempty,max=200"`
	Slug              *string                         `json:"slug" validate:"omitempty,max=220"`
	SKU               *string                         `json:"sku" validate:"omitempty,max=100"`
	Description       *string                         `json:"description"`
	ShortDescription  *string                         `json:"short_description" validate:"omitempty,max=500"`
	Price             *decimal.Decimal                `json:"price"`
	CompareAtPrice    types.Nullable[decimal.Decimal] `json:"compare_at_price"`
	CostPrice         types.Nullable[decimal.Decimal] `json:"cost_price"`
	Quantity          *int                            `json:"quantity" validate:"omitempty,gte=0"`
	LowStockThreshold *int                            `json:"low_stock_threshold" validate:"omitempty,gte=0"`
	TrackInventory    *bool                           `json:"track_inventory"`
	Brand             *string                         `json:"brand" validate:"omitempty,max=100"`
	Material          *string                         `json:"material" validate:"omitempty,max=100"`
	Color             *string                         `json:"color" validate:"omitempty,max=50"`
	Size              *string                         `json:"size" validate:"omitempty,max=50"`
	Weight            types.Nullable[decimal.Decimal] `json:"weight"`
	Dimensions        *string                         `json:"dimensions" validate:"omitempty,max=100"`
	Images            *[]string                       `json:"images"`
	MetaTitle         *string                         `json:"meta_title" validate:"omitempty,max=200"`
	MetaDescription   *string                         `json:"meta_description" validate:"omitempty,max=500"`
	MetaKeywords      *string                         `json:"meta_keywords" validate:"omitempty,max=255"`
	IsFeatured        *bool                           `json:"is_featured"`
	IsActive          *bool                           `json:"is_active"`
	IsNew             *bool                           `json:"is_new"`
}

type stockAdjustRequest struct {
	Delta int `json:"delta" validate:"required"`
}

type categoryDeleteResponse struct {
	Deleted int64 `json:"deleted"`
}

func AdminCategoryCreate(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("catalog"))
			return
		}
		var body categoryCreateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		category, err := svc.CreateCategory(r.Context(), catalog.CategoryInput{
			Name:        body.Name,
			Slug:        body.Slug,
			Description: body.Description,
			ImageURL:    body.ImageURL,
			ParentID:    body.ParentID,
			IsActive:    body.IsActive,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, category)
	}
}

// AdminCategoryUpdate treats "parent_id": null as a request to make the
// category a root.
func AdminCategoryUpdate(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("catalog"))
			return
		}
		id, err := validators.ParseUUIDParam(r, "categoryId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body categoryUpdateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		update := catalog.CategoryUpdate{
			Name:        body.Name,
			Slug:        body.Slug,
			Description: body.Description,
			ImageURL:    body.ImageURL,
			IsActive:    body.IsActive,
		}
		if body.ParentID.Set {
			update.ParentID = body.ParentID.Value
			update.ClearParent = body.ParentID.Value == nil
		}
		category, err := svc.UpdateCategory(r.Context(), id, update)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, category)
	}
}

// AdminCategoryDelete reports how many categories went with the subtree.
func AdminCategoryDelete(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("catalog"))
			return
		}
		id, err := validators.ParseUUIDParam(r, "categoryId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		deleted, err := svc.DeleteCategory(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, categoryDeleteResponse{Deleted: deleted})
	}
}

func AdminProductCreate(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("catalog"))
			return
		}
		var body productCreateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.CreateProduct(r.Context(), catalog.ProductInput{
			CategoryID:        body.CategoryID,
			Name:              body.Name,
			Slug:              body.Slug,
			SKU:               body.SKU,
			Description:       body.Description,
			ShortDescription:  body.ShortDescription,
			Price:             body.Price,
			CompareAtPrice:    body.CompareAtPrice,
			CostPrice:         body.CostPrice,
			Quantity:          body.Quantity,
			LowStockThreshold: body.LowStockThreshold,
			TrackInventory:    body.TrackInventory,
			Brand:             body.Brand,
			Material:          body.Material,
			Color:             body.Color,
			Size:              body.Size,
			Weight:            body.Weight,
			Dimensions:        body.Dimensions,
			Images:            body.Images,
			MetaTitle:         body.MetaTitle,
			MetaDescription:   body.MetaDescription,
			MetaKeywords:      body.MetaKeywords,
			IsFeatured:        body.IsFeatured,
			IsActive:          body.IsActive,
			IsNew:             body.IsNew,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

func AdminProductUpdate(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("catalog"))
			return
		}
		id, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body productUpdateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.UpdateProduct(r.Context(), id, catalog.ProductUpdate{
			CategoryID:        body.CategoryID,
			Name:              body.Name,
			Slug:              body.Slug,
			SKU:               body.SKU,
			Description:       body.Description,
			ShortDescription:  body.ShortDescription,
			Price:             body.Price,
			CompareAtPrice:    body.CompareAtPrice,
			CostPrice:         body.CostPrice,
			Quantity:          body.Quantity,
			LowStockThreshold: body.LowStockThreshold,
			TrackInventory:    body.TrackInventory,
			Brand:             body.Brand,
			Material:          body.Material,
			Color:             body.Color,
			Size:              body.Size,
			Weight:            body.Weight,
			Dimensions:        body.Dimensions,
			Images:            body.Images,
			MetaTitle:         body.MetaTitle,
			MetaDescription:   body.MetaDescription,
			MetaKeywords:      body.MetaKeywords,
			IsFeatured:        body.IsFeatured,
			IsActive:          body.IsActive,
			IsNew:             body.IsNew,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

func AdminProductDelete(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("catalog"))
			return
		}
		id, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.DeleteProduct(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

// AdminProductAdjustStock applies a signed delta to on-hand quantity.
func AdminProductAdjustStock(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("catalog"))
			return
		}
		id, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body stockAdjustRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.AdjustStock(r.Context(), id, body.Delta)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}
