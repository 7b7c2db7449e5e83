package wishlist

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/shopfront-backend/internal/catalog"
	"github.com/angelmondragon/shopfront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/shopfront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/shopfront-backend/pkg/errors"
)

func setup(t *testing.T) (Service, uuid.UUID, uuid.UUID, *models.Product) {
	t.Helper()
	client := dbtest.NewSQLite(t, models.All()...)
	owner := &models.User{Username: "lena", Email: "lena@example.com", PasswordHash: "x", IsActive: true}
	other := &models.User{Username: "mo", Email: "mo@example.com", PasswordHash: "x", IsActive: true}
	require.NoError(t, client.DB().Create(owner).Error)
	require.NoError(t, client.DB().Create(other).Error)
	cat := &models.Category{Name: "Garden", Slug: "garden", IsActive: true}
	require.NoError(t, client.DB().Create(cat).Error)
	product := &models.Product{
		CategoryID: cat.ID, Name: "Trowel", Slug: "trowel", SKU: "TR-1", Description: "d",
		Price: decimal.NewFromInt(9), Quantity: 2, LowStockThreshold: 5, TrackInventory: true, IsActive: true,
	}
	require.NoError(t, client.DB().Create(product).Error)

	svc, err := NewService(NewRepository(client.DB()), catalog.NewRepository(client.DB()))
	require.NoError(t, err)
	return svc, owner.ID, other.ID, product
}

func requireCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	require.Error(t, err)
	require.True(t, pkgerrors.IsCode(err, code), "expected %s, got %v", code, err)
}

func TestAddProductIsIdempotent(t *testing.T) {
	svc, owner, _, product := setup(t)
	ctx := context.Background()

	w, err := svc.Create(ctx, owner, "", false)
	require.NoError(t, err)
	require.Equal(t, models.DefaultWishlistName, w.Name)

	_, err = svc.AddProduct(ctx, owner, w.ID, product.ID)
	require.NoError(t, err)
	w, err = svc.AddProduct(ctx, owner, w.ID, product.ID)
	require.NoError(t, err)
	require.Equal(t, 1, w.ProductCount)
	require.Equal(t, "9.00", w.Products[0].Price)

	_, err = svc.AddProduct(ctx, owner, w.ID, uuid.New())
	requireCode(t, err, pkgerrors.CodeNotFound)

	w, err = svc.RemoveProduct(ctx, owner, w.ID, product.ID)
	require.NoError(t, err)
	require.Zero(t, w.ProductCount)
	_, err = svc.RemoveProduct(ctx, owner, w.ID, product.ID)
	requireCode(t, err, pkgerrors.CodeNotFound)
}

func TestVisibilityAndOwnership(t *testing.T) {
	svc, owner, other, _ := setup(t)
	ctx := context.Background()

	w, err := svc.Create(ctx, owner, "Birthday", false)
	require.NoError(t, err)

	_, err = svc.Get(ctx, &other, w.ID)
	requireCode(t, err, pkgerrors.CodeNotFound)
	_, err = svc.Get(ctx, nil, w.ID)
	requireCode(t, err, pkgerrors.CodeNotFound)
	_, err = svc.Get(ctx, &owner, w.ID)
	require.NoError(t, err)

	public := true
	_, err = svc.Update(ctx, other, w.ID, UpdateInput{IsPublic: &public})
	requireCode(t, err, pkgerrors.CodeNotFound)
	_, err = svc.Update(ctx, owner, w.ID, UpdateInput{IsPublic: &public})
	require.NoError(t, err)

	got, err := svc.Get(ctx, nil, w.ID)
	require.NoError(t, err)
	require.True(t, got.IsPublic)

	requireCode(t, svc.Delete(ctx, other, w.ID), pkgerrors.CodeNotFound)
	require.NoError(t, svc.Delete(ctx, owner, w.ID))

	lists, err := svc.List(ctx, owner)
	require.NoError(t, err)
	require.Empty(t, lists)
}
