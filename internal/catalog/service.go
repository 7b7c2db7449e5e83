// Package catalog owns the category tree and the product catalog.
package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/shopfront-backend/internal/activity"
	"github.com/angelmondragon/shopfront-backend/pkg/db"
	"github.com/angelmondragon/shopfront-backend/pkg/db/models"
	"github.com/angelmondragon/shopfront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/shopfront-backend/pkg/errors"
	"github.com/angelmondragon/shopfront-backend/pkg/pagination"
	"github.com/angelmondragon/shopfront-backend/pkg/slug"
	"github.com/angelmondragon/shopfront-backend/pkg/visibility"
)

const (
	defaultLowStockThreshold = 5
	maxImages                = 4
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Viewer is who is reading; UserID is nil for anonymous callers.
type Viewer struct {
	UserID    *uuid.UUID
	IsStaff   bool
	IPAddress string
	UserAgent string
}

// Service exposes catalog reads for shoppers and writes for staff.
type Service interface {
	CreateCategory(ctx context.Context, input CategoryInput) (*CategoryDTO, error)
	UpdateCategory(ctx context.Context, id uuid.UUID, input CategoryUpdate) (*CategoryDTO, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) (int64, error)
	ListCategories(ctx context.Context, viewer Viewer) ([]CategoryDTO, error)
	CategoryTree(ctx context.Context, viewer Viewer) ([]CategoryNode, error)
	GetCategory(ctx context.Context, viewer Viewer, slug string) (*CategoryDTO, error)

	CreateProduct(ctx context.Context, input ProductInput) (*ProductDTO, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, input ProductUpdate) (*ProductDTO, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	AdjustStock(ctx context.Context, id uuid.UUID, delta int) (*ProductDTO, error)
	GetProduct(ctx context.Context, viewer Viewer, ref string) (*ProductDTO, error)
	ListProducts(ctx context.Context, viewer Viewer, filters ProductFilters) (*pagination.OffsetPage[ProductDTO], error)
}

type service struct {
	repo     Repository
	tx       txRunner
	activity activity.Recorder
}

func NewService(repo Repository, tx txRunner, recorder activity.Recorder) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if recorder == nil {
		recorder = activity.Nop{}
	}
	return &service{repo: repo, tx: tx, activity: recorder}, nil
}

func (s *service) CreateCategory(ctx context.Context, input CategoryInput) (*CategoryDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" || len(name) > 100 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required and must be at most 100 characters")
	}
	category := &models.Category{
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		ImageURL:    input.ImageURL,
		ParentID:    input.ParentID,
		IsActive:    true,
	}
	if input.IsActive != nil {
		category.IsActive = *input.IsActive
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := s.ensureCategoryUnique(ctx, repo, "name", name, uuid.Nil); err != nil {
			return err
		}
		value, err := s.categorySlug(ctx, repo, input.Slug, name, uuid.Nil)
		if err != nil {
			return err
		}
		category.Slug = value
		if category.ParentID != nil {
			if _, err := loadCategory(ctx, repo, *category.ParentID); err != nil {
				return pkgerrors.New(pkgerrors.CodeValidation, "parent category not found")
			}
		}
		if err := repo.CreateCategory(ctx, category); err != nil {
			return conflictOr(err, "category already exists", "create category")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	dto := categoryDTO(*category)
	return &dto, nil
}

func (s *service) UpdateCategory(ctx context.Context, id uuid.UUID, input CategoryUpdate) (*CategoryDTO, error) {
	var updated *models.Category
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		category, err := loadCategory(ctx, repo, id)
		if err != nil {
			return err
		}
		if input.Name != nil {
			name := strings.TrimSpace(*input.Name)
			if name == "" || len(name) > 100 {
				return pkgerrors.New(pkgerrors.CodeValidation, "name is required and must be at most 100 characters")
			}
			if name != category.Name {
				if err := s.ensureCategoryUnique(ctx, repo, "name", name, id); err != nil {
					return err
				}
			}
			category.Name = name
		}
		if input.Slug != nil {
			value, err := s.categorySlug(ctx, repo, *input.Slug, category.Name, id)
			if err != nil {
				return err
			}
			category.Slug = value
		}
		if input.Description != nil {
			category.Description = strings.TrimSpace(*input.Description)
		}
		if input.ImageURL != nil {
			category.ImageURL = input.ImageURL
		}
		if input.IsActive != nil {
			category.IsActive = *input.IsActive
		}
		switch {
		case input.ClearParent:
			category.ParentID = nil
		case input.ParentID != nil:
			all, err := repo.ListCategories(ctx, false)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load categories")
			}
			if !containsCategory(all, *input.ParentID) {
				return pkgerrors.New(pkgerrors.CodeValidation, "parent category not found")
			}
			if buildIndex(all).wouldCycle(id, *input.ParentID) {
				return pkgerrors.New(pkgerrors.CodeValidation, "category cannot be its own ancestor")
			}
			parent := *input.ParentID
			category.ParentID = &parent
		}
		if err := repo.SaveCategory(ctx, category); err != nil {
			return conflictOr(err, "category already exists", "update category")
		}
		updated = category
		return nil
	})
	if err != nil {
		return nil, err
	}
	dto := categoryDTO(*updated)
	return &dto, nil
}

// DeleteCategory removes the category, its descendants and their products.
func (s *service) DeleteCategory(ctx context.Context, id uuid.UUID) (int64, error) {
	var removed int64
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := loadCategory(ctx, repo, id); err != nil {
			return err
		}
		all, err := repo.ListCategories(ctx, false)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load categories")
		}
		ids := buildIndex(all).descendants(id)
		removed, err = repo.DeleteCategories(ctx, ids)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete categories")
		}
		return nil
	})
	return removed, err
}

func (s *service) ListCategories(ctx context.Context, viewer Viewer) ([]CategoryDTO, error) {
	rows, err := s.repo.ListCategories(ctx, !viewer.IsStaff)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list categories")
	}
	out := make([]CategoryDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, categoryDTO(row))
	}
	return out, nil
}

// CategoryTree nests categories under their parents. For shoppers an
// inactive category hides its whole subtree.
func (s *service) CategoryTree(ctx context.Context, viewer Viewer) ([]CategoryNode, error) {
	rows, err := s.repo.ListCategories(ctx, !viewer.IsStaff)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list categories")
	}
	return buildIndex(rows).tree(uuid.Nil), nil
}

func (s *service) GetCategory(ctx context.Context, viewer Viewer, value string) (*CategoryDTO, error) {
	category, err := s.repo.FindCategoryBySlug(ctx, strings.TrimSpace(value))
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load category")
	}
	if err := visibility.EnsureCategoryVisible(category, visibility.Viewer{IsStaff: viewer.IsStaff}); err != nil {
		return nil, err
	}
	dto := categoryDTO(*category)
	return &dto, nil
}

func (s *service) CreateProduct(ctx context.Context, input ProductInput) (*ProductDTO, error) {
	product := &models.Product{
		CategoryID:        input.CategoryID,
		Name:              strings.TrimSpace(input.Name),
		SKU:               strings.TrimSpace(input.SKU),
		Description:       strings.TrimSpace(input.Description),
		ShortDescription:  strings.TrimSpace(input.ShortDescription),
		Price:             input.Price,
		CompareAtPrice:    input.CompareAtPrice,
		CostPrice:         input.CostPrice,
		Quantity:          input.Quantity,
		LowStockThreshold: defaultLowStockThreshold,
		TrackInventory:    true,
		Brand:             strings.TrimSpace(input.Brand),
		Material:          strings.TrimSpace(input.Material),
		Color:             strings.TrimSpace(input.Color),
		Size:              strings.TrimSpace(input.Size),
		Weight:            input.Weight,
		Dimensions:        strings.TrimSpace(input.Dimensions),
		MetaTitle:         strings.TrimSpace(input.MetaTitle),
		MetaDescription:   strings.TrimSpace(input.MetaDescription),
		MetaKeywords:      strings.TrimSpace(input.MetaKeywords),
		IsFeatured:        input.IsFeatured,
		IsActive:          true,
		IsNew:             input.IsNew,
	}
	if input.LowStockThreshold != nil {
		product.LowStockThreshold = *input.LowStockThreshold
	}
	if input.TrackInventory != nil {
		product.TrackInventory = *input.TrackInventory
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}
	if err := setImages(product, input.Images); err != nil {
		return nil, err
	}
	if err := validateProduct(product); err != nil {
		return nil, err
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		category, err := loadCategory(ctx, repo, product.CategoryID)
		if err != nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "category not found")
		}
		if err := s.ensureProductUnique(ctx, repo, "sku", product.SKU, uuid.Nil); err != nil {
			return err
		}
		value, err := s.productSlug(ctx, repo, input.Slug, product.Name, uuid.Nil)
		if err != nil {
			return err
		}
		product.Slug = value
		if err := repo.CreateProduct(ctx, product); err != nil {
			return conflictOr(err, "product sku or slug already exists", "create product")
		}
		product.Category = category
		return nil
	})
	if err != nil {
		return nil, err
	}
	dto := productDTO(*product, RatingSummary{})
	return &dto, nil
}

func (s *service) UpdateProduct(ctx context.Context, id uuid.UUID, input ProductUpdate) (*ProductDTO, error) {
	var updated *models.Product
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		product, err := loadProduct(ctx, repo, id)
		if err != nil {
			return err
		}
		if input.CategoryID != nil && *input.CategoryID != product.CategoryID {
			category, err := loadCategory(ctx, repo, *input.CategoryID)
			if err != nil {
				return pkgerrors.New(pkgerrors.CodeValidation, "category not found")
			}
			product.CategoryID = category.ID
			product.Category = category
		}
		if err := applyProductUpdate(product, input); err != nil {
			return err
		}
		if err := validateProduct(product); err != nil {
			return err
		}
		if input.SKU != nil {
			if err := s.ensureProductUnique(ctx, repo, "sku", product.SKU, id); err != nil {
				return err
			}
		}
		if input.Slug != nil {
			value, err := s.productSlug(ctx, repo, *input.Slug, product.Name, id)
			if err != nil {
				return err
			}
			product.Slug = value
		}
		if err := repo.SaveProduct(ctx, product); err != nil {
			return conflictOr(err, "product sku or slug already exists", "update product")
		}
		updated = product
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.withRating(ctx, *updated)
}

func (s *service) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	found, err := s.repo.DeleteProduct(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete product")
	}
	if !found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return nil
}

func (s *service) AdjustStock(ctx context.Context, id uuid.UUID, delta int) (*ProductDTO, error) {
	if delta == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delta must not be zero")
	}
	var product *models.Product
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := loadProduct(ctx, repo, id); err != nil {
			return err
		}
		ok, err := repo.AdjustStock(ctx, id, delta)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "adjust stock")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeValidation, "stock cannot go below zero")
		}
		product, err = loadProduct(ctx, repo, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.withRating(ctx, *product)
}

// GetProduct resolves ref as a product id or a slug. Shopper reads count a
// view and, for signed-in users, record view_product.
func (s *service) GetProduct(ctx context.Context, viewer Viewer, ref string) (*ProductDTO, error) {
	ref = strings.TrimSpace(ref)
	var (
		product *models.Product
		err     error
	)
	if id, parseErr := uuid.Parse(ref); parseErr == nil {
		product, err = s.repo.FindProduct(ctx, id)
	} else {
		product, err = s.repo.FindProductBySlug(ctx, ref)
	}
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if err := visibility.EnsureProductVisible(product, visibility.Viewer{IsStaff: viewer.IsStaff}); err != nil {
		return nil, err
	}

	if !viewer.IsStaff {
		if err := s.repo.IncrementViews(ctx, product.ID); err == nil {
			product.ViewsCount++
		}
		if viewer.UserID != nil {
			s.activity.Record(ctx, activity.Entry{
				UserID:      *viewer.UserID,
				Type:        enums.ActivityViewProduct,
				Description: "Viewed " + product.Name,
				IPAddress:   viewer.IPAddress,
				UserAgent:   viewer.UserAgent,
				Metadata:    map[string]any{"product_id": product.ID.String()},
			})
		}
	}
	return s.withRating(ctx, *product)
}

func (s *service) ListProducts(ctx context.Context, viewer Viewer, filters ProductFilters) (*pagination.OffsetPage[ProductDTO], error) {
	query := productQuery{
		Featured:   filters.Featured,
		New:        filters.New,
		InStock:    filters.InStock,
		Search:     filters.Search,
		Ordering:   filters.Ordering,
		ActiveOnly: !(viewer.IsStaff && filters.IncludeInactive),
		Offset:     pagination.Offset{Page: filters.Page, PageSize: filters.PageSize},
	}
	switch filters.Ordering {
	case "", OrderNewest, OrderPriceAsc, OrderPriceDesc, OrderPopular:
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "ordering must be one of newest, price_asc, price_desc, popular")
	}
	if filters.MinPrice != nil {
		query.MinPrice = *filters.MinPrice
	}
	if filters.MaxPrice != nil {
		query.MaxPrice = *filters.MaxPrice
	}
	if filters.MinPrice != nil && filters.MaxPrice != nil && filters.MinPrice.GreaterThan(*filters.MaxPrice) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "min_price must not exceed max_price")
	}

	if value := strings.TrimSpace(filters.CategorySlug); value != "" {
		all, err := s.repo.ListCategories(ctx, query.ActiveOnly)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load categories")
		}
		var root *models.Category
		for i := range all {
			if all[i].Slug == value {
				root = &all[i]
				break
			}
		}
		if root == nil {
			page := pagination.NewOffsetPage[ProductDTO](nil, 0, query.Offset)
			return &page, nil
		}
		query.CategoryIDs = buildIndex(all).descendants(root.ID)
	}

	rows, total, err := s.repo.ListProducts(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	ratings, err := s.repo.RatingSummaries(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load ratings")
	}
	items := make([]ProductDTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, productDTO(row, ratings[row.ID]))
	}
	page := pagination.NewOffsetPage(items, total, query.Offset)
	return &page, nil
}

func (s *service) withRating(ctx context.Context, product models.Product) (*ProductDTO, error) {
	ratings, err := s.repo.RatingSummaries(ctx, []uuid.UUID{product.ID})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load ratings")
	}
	dto := productDTO(product, ratings[product.ID])
	return &dto, nil
}

func (s *service) ensureCategoryUnique(ctx context.Context, repo Repository, column, value string, exclude uuid.UUID) error {
	taken, err := repo.CategoryFieldTaken(ctx, column, value, exclude)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check category "+column)
	}
	if taken {
		return pkgerrors.New(pkgerrors.CodeConflict, "category "+column+" already exists")
	}
	return nil
}

func (s *service) ensureProductUnique(ctx context.Context, repo Repository, column, value string, exclude uuid.UUID) error {
	taken, err := repo.ProductFieldTaken(ctx, column, value, exclude)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check product "+column)
	}
	if taken {
		return pkgerrors.New(pkgerrors.CodeConflict, "product "+column+" already exists")
	}
	return nil
}

// categorySlug keeps an explicit slug (which must be free) or derives one from name.
func (s *service) categorySlug(ctx context.Context, repo Repository, explicit, name string, self uuid.UUID) (string, error) {
	if value := slug.Make(explicit); value != "" {
		if err := s.ensureCategoryUnique(ctx, repo, "slug", value, self); err != nil {
			return "", err
		}
		return value, nil
	}
	value := slug.Make(name)
	if value == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "name must contain letters or digits")
	}
	if err := s.ensureCategoryUnique(ctx, repo, "slug", value, self); err != nil {
		return "", err
	}
	return value, nil
}

// productSlug keeps an explicit slug (which must be free) or derives a unique
// one from name with a numeric suffix.
func (s *service) productSlug(ctx context.Context, repo Repository, explicit, name string, self uuid.UUID) (string, error) {
	if value := slug.Make(explicit); value != "" {
		if err := s.ensureProductUnique(ctx, repo, "slug", value, self); err != nil {
			return "", err
		}
		return value, nil
	}
	value, err := slug.Unique(slug.Make(name), func(candidate string) (bool, error) {
		return repo.ProductFieldTaken(ctx, "slug", candidate, self)
	})
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "generate slug")
	}
	return value, nil
}

func loadCategory(ctx context.Context, repo Repository, id uuid.UUID) (*models.Category, error) {
	category, err := repo.FindCategory(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load category")
	}
	return category, nil
}

func loadProduct(ctx context.Context, repo Repository, id uuid.UUID) (*models.Product, error) {
	product, err := repo.FindProduct(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}

func containsCategory(all []models.Category, id uuid.UUID) bool {
	for _, c := range all {
		if c.ID == id {
			return true
		}
	}
	return false
}

func conflictOr(err error, conflictMsg, op string) error {
	if db.IsUniqueViolation(err, "") {
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, conflictMsg)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, op)
}

func setImages(p *models.Product, images []string) error {
	cleaned := make([]string, 0, len(images))
	for _, img := range images {
		if img = strings.TrimSpace(img); img != "" {
			cleaned = append(cleaned, img)
		}
	}
	if len(cleaned) > maxImages {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("at most %d images are allowed", maxImages))
	}
	slots := [maxImages]string{}
	copy(slots[:], cleaned)
	p.Image1, p.Image2, p.Image3, p.Image4 = slots[0], slots[1], slots[2], slots[3]
	return nil
}

func validateProduct(p *models.Product) error {
	violations := map[string]string{}
	if p.Name == "" || len(p.Name) > 200 {
		violations["name"] = "required, at most 200 characters"
	}
	if p.SKU == "" || len(p.SKU) > 50 {
		violations["sku"] = "required, at most 50 characters"
	}
	if p.Description == "" {
		violations["description"] = "required"
	}
	if !p.Price.GreaterThan(decimal.Zero) {
		violations["price"] = "must be greater than 0"
	}
	if p.CompareAtPrice != nil && p.CompareAtPrice.IsNegative() {
		violations["compare_at_price"] = "must not be negative"
	}
	if p.CostPrice != nil && p.CostPrice.IsNegative() {
		violations["cost_price"] = "must not be negative"
	}
	if p.Quantity < 0 {
		violations["quantity"] = "must not be negative"
	}
	if p.LowStockThreshold < 0 {
		violations["low_stock_threshold"] = "must not be negative"
	}
	if len(violations) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid product").WithDetails(violations)
	}
	return nil
}

func applyProductUpdate(p *models.Product, in ProductUpdate) error {
	setString := func(dst *string, v *string) {
		if v != nil {
			*dst = strings.TrimSpace(*v)
		}
	}
	setString(&p.Name, in.Name)
	setString(&p.SKU, in.SKU)
	setString(&p.Description, in.Description)
	setString(&p.ShortDescription, in.ShortDescription)
	setString(&p.Brand, in.Brand)
	setString(&p.Material, in.Material)
	setString(&p.Color, in.Color)
	setString(&p.Size, in.Size)
	setString(&p.Dimensions, in.Dimensions)
	setString(&p.MetaTitle, in.MetaTitle)
	setString(&p.MetaDescription, in.MetaDescription)
	setString(&p.MetaKeywords, in.MetaKeywords)
	if in.Price != nil {
		p.Price = *in.Price
	}
	in.CompareAtPrice.Apply(&p.CompareAtPrice)
	in.CostPrice.Apply(&p.CostPrice)
	in.Weight.Apply(&p.Weight)
	if in.Quantity != nil {
		p.Quantity = *in.Quantity
	}
	if in.LowStockThreshold != nil {
		p.LowStockThreshold = *in.LowStockThreshold
	}
	if in.TrackInventory != nil {
		p.TrackInventory = *in.TrackInventory
	}
	if in.IsFeatured != nil {
		p.IsFeatured = *in.IsFeatured
	}
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
	if in.IsNew != nil {
		p.IsNew = *in.IsNew
	}
	if in.Images != nil {
		return setImages(p, *in.Images)
	}
	return nil
}
