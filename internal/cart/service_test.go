package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/shopfront-backend/internal/activity"
	"github.com/angelmondragon/shopfront-backend/internal/catalog"
	"github.com/angelmondragon/shopfront-backend/pkg/db"
	"github.com/angelmondragon/shopfront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/shopfront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/shopfront-backend/pkg/errors"
	"github.com/angelmondragon/shopfront-backend/pkg/logger"
)

type fixture struct {
	svc    Service
	client *db.Client
	user   *models.User
	cat    *models.Category
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	client := dbtest.NewSQLite(t,
		&models.User{}, &models.UserActivity{},
		&models.Category{}, &models.Product{},
		&models.Cart{}, &models.CartItem{},
	)
	user := &models.User{Username: "grace", Email: "grace@example.com", PasswordHash: "x", IsActive: true}
	require.NoError(t, client.DB().Create(user).Error)
	cat := &models.Category{Name: "Kitchen", Slug: "kitchen", IsActive: true}
	require.NoError(t, client.DB().Create(cat).Error)

	svc, err := NewService(NewRepository(client.DB()), catalog.NewRepository(client.DB()), client, activity.NewService(client.DB(), logger.Nop()))
	require.NoError(t, err)
	return &fixture{svc: svc, client: client, user: user, cat: cat}
}

func (f *fixture) product(t *testing.T, sku, price string, qty int) *models.Product {
	t.Helper()
	p := &models.Product{
		CategoryID:        f.cat.ID,
		Name:              "Item " + sku,
		Slug:              sku,
		SKU:               sku,
		Description:       "desc",
		Price:             decimal.RequireFromString(price),
		Quantity:          qty,
		LowStockThreshold: 5,
		TrackInventory:    true,
		IsActive:          true,
	}
	require.NoError(t, f.client.DB().Create(p).Error)
	return p
}

func requireCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	require.Error(t, err)
	require.True(t, pkgerrors.IsCode(err, code), "expected %s, got %v", code, err)
}

func TestOwnerMustBeExactlyOne(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Get(ctx, Owner{})
	requireCode(t, err, pkgerrors.CodeValidation)

	both := Owner{UserID: &f.user.ID, SessionToken: "abc"}
	_, err = f.svc.Get(ctx, both)
	requireCode(t, err, pkgerrors.CodeValidation)
}

func TestGetWithoutCartIsEmpty(t *testing.T) {
	f := newFixture(t)
	summary, err := f.svc.Get(context.Background(), SessionOwner("nobody"))
	require.NoError(t, err)
	require.Nil(t, summary.ID)
	require.Empty(t, summary.Items)
	require.Equal(t, "0.00", summary.Subtotal)

	var carts int64
	require.NoError(t, f.client.DB().Model(&models.Cart{}).Count(&carts).Error)
	require.Zero(t, carts)
}

func TestAddItemAccumulatesAndPricesLive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := UserOwner(f.user.ID)

	pan := f.product(t, "PAN", "50", 10)
	lid := f.product(t, "LID", "30", 10)

	_, err := f.svc.AddItem(ctx, owner, pan.ID, 1, RequestMeta{})
	require.NoError(t, err)
	_, err = f.svc.AddItem(ctx, owner, pan.ID, 1, RequestMeta{})
	require.NoError(t, err)
	summary, err := f.svc.AddItem(ctx, owner, lid.ID, 1, RequestMeta{IPAddress: "10.0.0.1"})
	require.NoError(t, err)
	require.Len(t, summary.Items, 2)
	require.Equal(t, 3, summary.TotalItems)
	require.Equal(t, "130.00", summary.Subtotal)

	require.NoError(t, f.client.DB().Model(&models.Product{}).Where("id = ?", pan.ID).Update("price", decimal.NewFromInt(60)).Error)
	summary, err = f.svc.Get(ctx, owner)
	require.NoError(t, err)
	require.Equal(t, "150.00", summary.Subtotal)

	var added int64
	require.NoError(t, f.client.DB().Model(&models.UserActivity{}).Where("activity_type = ?", "add_to_cart").Count(&added).Error)
	require.EqualValues(t, 3, added)
}

// staleLookupRepo misses the owner's cart a set number of times, as a request
// racing another request's first AddItem would.
type staleLookupRepo struct {
	Repository
	misses *int
}

func (r staleLookupRepo) WithTx(tx *gorm.DB) Repository {
	return staleLookupRepo{Repository: r.Repository.WithTx(tx), misses: r.misses}
}

func (r staleLookupRepo) FindByOwner(ctx context.Context, owner Owner) (*models.Cart, error) {
	if *r.misses > 0 {
		*r.misses--
		return nil, gorm.ErrRecordNotFound
	}
	return r.Repository.FindByOwner(ctx, owner)
}

func TestAddItemReusesCartCreatedConcurrently(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := SessionOwner("tok-race")
	pan := f.product(t, "PAN", "50", 10)
	lid := f.product(t, "LID", "30", 10)

	_, err := f.svc.AddItem(ctx, owner, pan.ID, 1, RequestMeta{})
	require.NoError(t, err)

	misses := 1
	racer, err := NewService(
		staleLookupRepo{Repository: NewRepository(f.client.DB()), misses: &misses},
		catalog.NewRepository(f.client.DB()), f.client, activity.Nop{},
	)
	require.NoError(t, err)

	summary, err := racer.AddItem(ctx, owner, lid.ID, 2, RequestMeta{})
	require.NoError(t, err)
	require.Zero(t, misses)
	require.Len(t, summary.Items, 2)
	require.Equal(t, "110.00", summary.Subtotal)

	var carts int64
	require.NoError(t, f.client.DB().Model(&models.Cart{}).Count(&carts).Error)
	require.EqualValues(t, 1, carts)
}

func TestAddItemChecksStockAndAvailability(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := SessionOwner(NewSessionToken())

	scarce := f.product(t, "SCARCE", "10", 2)
	_, err := f.svc.AddItem(ctx, owner, scarce.ID, 2, RequestMeta{})
	require.NoError(t, err)
	_, err = f.svc.AddItem(ctx, owner, scarce.ID, 1, RequestMeta{})
	requireCode(t, err, pkgerrors.CodeValidation)

	_, err = f.svc.AddItem(ctx, owner, scarce.ID, 0, RequestMeta{})
	requireCode(t, err, pkgerrors.CodeValidation)

	_, err = f.svc.AddItem(ctx, owner, uuid.New(), 1, RequestMeta{})
	requireCode(t, err, pkgerrors.CodeNotFound)

	retired := f.product(t, "RETIRED", "10", 5)
	require.NoError(t, f.client.DB().Model(&models.Product{}).Where("id = ?", retired.ID).Update("is_active", false).Error)
	_, err = f.svc.AddItem(ctx, owner, retired.ID, 1, RequestMeta{})
	requireCode(t, err, pkgerrors.CodeValidation)
}

func TestUpdateRemoveAndClear(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := SessionOwner("session-1")
	p := f.product(t, "CUP", "4.50", 10)

	_, err := f.svc.UpdateItem(ctx, owner, p.ID, 2)
	requireCode(t, err, pkgerrors.CodeNotFound)

	_, err = f.svc.AddItem(ctx, owner, p.ID, 1, RequestMeta{})
	require.NoError(t, err)
	summary, err := f.svc.UpdateItem(ctx, owner, p.ID, 4)
	require.NoError(t, err)
	require.Equal(t, "18.00", summary.Subtotal)
	require.Equal(t, "session-1", summary.SessionToken)

	_, err = f.svc.UpdateItem(ctx, owner, p.ID, 11)
	requireCode(t, err, pkgerrors.CodeValidation)

	summary, err = f.svc.RemoveItem(ctx, owner, p.ID, RequestMeta{})
	require.NoError(t, err)
	require.Empty(t, summary.Items)

	_, err = f.svc.AddItem(ctx, owner, p.ID, 1, RequestMeta{})
	require.NoError(t, err)
	require.NoError(t, f.svc.Clear(ctx, owner))
	summary, err = f.svc.Get(ctx, owner)
	require.NoError(t, err)
	require.Zero(t, summary.TotalItems)
}

func TestMergeFoldsSessionCartIntoUserCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	token := NewSessionToken()
	p := f.product(t, "MUG", "12", 3)
	q := f.product(t, "BOWL", "8", 10)

	_, err := f.svc.AddItem(ctx, UserOwner(f.user.ID), p.ID, 2, RequestMeta{})
	require.NoError(t, err)
	_, err = f.svc.AddItem(ctx, SessionOwner(token), p.ID, 2, RequestMeta{})
	require.NoError(t, err)
	_, err = f.svc.AddItem(ctx, SessionOwner(token), q.ID, 1, RequestMeta{})
	require.NoError(t, err)

	summary, err := f.svc.Merge(ctx, token, f.user.ID)
	require.NoError(t, err)
	require.Equal(t, 4, summary.TotalItems)
	require.Equal(t, "44.00", summary.Subtotal)

	anon, err := f.svc.Get(ctx, SessionOwner(token))
	require.NoError(t, err)
	require.Nil(t, anon.ID)
}
