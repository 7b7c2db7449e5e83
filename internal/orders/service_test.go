package orders

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/shopfront-backend/internal/activity"
	"github.com/angelmondragon/shopfront-backend/internal/addresses"
	"github.com/angelmondragon/shopfront-backend/internal/notifications"
	"github.com/angelmondragon/shopfront-backend/pkg/db"
	"github.com/angelmondragon/shopfront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/shopfront-backend/pkg/db/models"
	"github.com/angelmondragon/shopfront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/shopfront-backend/pkg/errors"
	"github.com/angelmondragon/shopfront-backend/pkg/logger"
	"github.com/angelmondragon/shopfront-backend/pkg/outbox"
	"github.com/angelmondragon/shopfront-backend/pkg/pagination"
)

var orderDay = time.Date(2024, 6, 1, 10, 30, 0, 0, time.UTC)

type fixture struct {
	svc    Service
	client *db.Client
	cat    *models.Category
}

func newFixture(t *testing.T, client *db.Client) *fixture {
	t.Helper()
	notifier, err := notifications.NewService(notifications.NewRepository(client.DB()))
	require.NoError(t, err)
	svc, err := NewService(ServiceParams{
		Repo:      NewRepository(client.DB()),
		Tx:        client,
		Addresses: addresses.NewRepository(client.DB()),
		Outbox:    outbox.NewService(outbox.NewRepository(client.DB()), logger.Nop()),
		Notifier:  notifier,
		Activity:  activity.NewService(client.DB(), logger.Nop()),
		Pricing: Pricing{
			TaxRate:          decimal.RequireFromString("0.10"),
			FlatShipping:     decimal.RequireFromString("7.50"),
			FreeShippingOver: decimal.RequireFromString("500"),
		},
		Now: func() time.Time { return orderDay },
	})
	require.NoError(t, err)

	cat := &models.Category{Name: "General", Slug: "general", IsActive: true}
	require.NoError(t, client.DB().Create(cat).Error)
	return &fixture{svc: svc, client: client, cat: cat}
}

func newMemoryFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixture(t, dbtest.NewSQLite(t, models.All()...))
}

func (f *fixture) user(t *testing.T, name string) *models.User {
	t.Helper()
	u := &models.User{Username: name, Email: name + "@example.com", PasswordHash: "x", IsActive: true}
	require.NoError(t, f.client.DB().Create(u).Error)
	return u
}

func (f *fixture) product(t *testing.T, sku, price string, qty int, tracked bool) *models.Product {
	t.Helper()
	p := &models.Product{
		CategoryID:        f.cat.ID,
		Name:              "Product " + sku,
		Slug:              sku,
		SKU:               sku,
		Description:       "desc",
		Price:             decimal.RequireFromString(price),
		Quantity:          qty,
		LowStockThreshold: 5,
		TrackInventory:    tracked,
		IsActive:          true,
	}
	require.NoError(t, f.client.DB().Create(p).Error)
	return p
}

func (f *fixture) cart(t *testing.T, user *models.User, lines map[*models.Product]int) {
	t.Helper()
	cart := &models.Cart{UserID: &user.ID}
	require.NoError(t, f.client.DB().Create(cart).Error)
	for p, qty := range lines {
		require.NoError(t, f.client.DB().Create(&models.CartItem{CartID: cart.ID, ProductID: p.ID, Quantity: qty}).Error)
	}
}

func placeInput(userID uuid.UUID) PlaceOrderInput {
	return PlaceOrderInput{
		UserID:        userID,
		Customer:      CustomerInfo{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", Phone: "+260970000000"},
		Shipping:      ShippingInfo{AddressLine1: "12 Cairo Road", City: "Lusaka", State: "Lusaka", PostalCode: "10101", Country: "Zambia"},
		PaymentMethod: enums.PaymentMethodMobileMoney,
	}
}

func requireCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	require.Error(t, err)
	require.True(t, pkgerrors.IsCode(err, code), "expected %s, got %v", code, err)
}

func TestFormatOrderNumber(t *testing.T) {
	require.Equal(t, "INV-20240601-0001", FormatOrderNumber("20240601", 1))
	require.Equal(t, "INV-20240601-10000", FormatOrderNumber("20240601", 10000))

	lusaka := time.FixedZone("CAT", 2*60*60)
	late := time.Date(2024, 6, 1, 23, 30, 0, 0, time.UTC)
	require.Equal(t, "20240602", dayKey(late, lusaka))
	require.Equal(t, "20240601", dayKey(late, nil))
}

func TestPlaceOrderSnapshotsCartAndTakesStock(t *testing.T) {
	f := newMemoryFixture(t)
	ctx := context.Background()
	buyer := f.user(t, "ada")
	pan := f.product(t, "PAN", "50", 5, true)
	lid := f.product(t, "LID", "30", 0, false)
	f.cart(t, buyer, map[*models.Product]int{pan: 2, lid: 1})

	order, err := f.svc.PlaceOrder(ctx, placeInput(buyer.ID))
	require.NoError(t, err)
	require.Equal(t, "INV-20240601-0001", order.OrderNumber)
	require.Equal(t, "130.00", order.Subtotal)
	require.Equal(t, "13.00", order.Tax)
	require.Equal(t, "7.50", order.ShippingCost)
	require.Equal(t, "0.00", order.Discount)
	require.Equal(t, "150.50", order.Total)
	require.Equal(t, enums.OrderStatusPending, order.Status)
	require.Equal(t, enums.PaymentStatusPending, order.PaymentStatus)
	require.Equal(t, 3, order.TotalItems)

	var storedPan, storedLid models.Product
	require.NoError(t, f.client.DB().First(&storedPan, "id = ?", pan.ID).Error)
	require.Equal(t, 3, storedPan.Quantity)
	require.Equal(t, 2, storedPan.SalesCount)
	require.NoError(t, f.client.DB().First(&storedLid, "id = ?", lid.ID).Error)
	require.Equal(t, 0, storedLid.Quantity)
	require.Equal(t, 1, storedLid.SalesCount)

	var carts, events, notes int64
	require.NoError(t, f.client.DB().Model(&models.Cart{}).Count(&carts).Error)
	require.NoError(t, f.client.DB().Model(&models.OutboxEvent{}).Where("event_type = ?", enums.EventOrderPlaced).Count(&events).Error)
	require.NoError(t, f.client.DB().Model(&models.Notification{}).Where("user_id = ?", buyer.ID).Count(&notes).Error)
	require.Zero(t, carts)
	require.EqualValues(t, 1, events)
	require.EqualValues(t, 1, notes)

	require.NoError(t, f.client.DB().Model(&models.Product{}).Where("id = ?", pan.ID).Update("price", decimal.NewFromInt(99)).Error)
	again, err := f.svc.Get(ctx, buyer.ID, order.OrderNumber)
	require.NoError(t, err)
	require.Equal(t, "150.50", again.Total)

	f.cart(t, buyer, map[*models.Product]int{pan: 1})
	second, err := f.svc.PlaceOrder(ctx, placeInput(buyer.ID))
	require.NoError(t, err)
	require.Equal(t, "INV-20240601-0002", second.OrderNumber)
}

func TestPlaceOrderFailuresLeaveStateUntouched(t *testing.T) {
	f := newMemoryFixture(t)
	ctx := context.Background()
	buyer := f.user(t, "bob")

	_, err := f.svc.PlaceOrder(ctx, placeInput(buyer.ID))
	requireCode(t, err, pkgerrors.CodeValidation)

	scarce := f.product(t, "SCARCE", "10", 1, true)
	f.cart(t, buyer, map[*models.Product]int{scarce: 2})
	_, err = f.svc.PlaceOrder(ctx, placeInput(buyer.ID))
	requireCode(t, err, pkgerrors.CodeValidation)

	var items, counters int64
	require.NoError(t, f.client.DB().Model(&models.CartItem{}).Count(&items).Error)
	require.NoError(t, f.client.DB().Model(&models.OrderNumberCounter{}).Count(&counters).Error)
	require.EqualValues(t, 1, items)
	require.Zero(t, counters)

	bad := placeInput(buyer.ID)
	bad.Customer.Phone = "12ab"
	bad.PaymentMethod = "cheque"
	_, err = f.svc.PlaceOrder(ctx, bad)
	requireCode(t, err, pkgerrors.CodeValidation)
	details, ok := pkgerrors.As(err).Details().(map[string]string)
	require.True(t, ok)
	require.Contains(t, details, "phone")
	require.Contains(t, details, "payment_method")
}

func TestPricingCharges(t *testing.T) {
	pricing := Pricing{
		TaxRate:          decimal.RequireFromString("0.16"),
		FlatShipping:     decimal.RequireFromString("25"),
		FreeShippingOver: decimal.RequireFromString("500"),
	}

	small := pricing.Charges(decimal.RequireFromString("33.33"))
	require.Equal(t, "5.33", small.Tax.StringFixed(2))
	require.Equal(t, "25.00", small.ShippingCost.StringFixed(2))
	require.True(t, small.Discount.IsZero())

	large := pricing.Charges(decimal.RequireFromString("500"))
	require.Equal(t, "80.00", large.Tax.StringFixed(2))
	require.True(t, large.ShippingCost.IsZero())

	none := Pricing{}.Charges(decimal.RequireFromString("130"))
	require.True(t, none.Tax.IsZero())
	require.True(t, none.ShippingCost.IsZero())

	client := dbtest.NewSQLite(t, models.All()...)
	notifier, err := notifications.NewService(notifications.NewRepository(client.DB()))
	require.NoError(t, err)
	_, err = NewService(ServiceParams{
		Repo:     NewRepository(client.DB()),
		Tx:       client,
		Notifier: notifier,
		Pricing:  Pricing{TaxRate: decimal.RequireFromString("-0.1")},
	})
	require.Error(t, err)
}

func TestPlaceOrderFromAddressBook(t *testing.T) {
	f := newMemoryFixture(t)
	ctx := context.Background()
	buyer := f.user(t, "cleo")
	addr := &models.Address{
		UserID: buyer.ID, AddressType: enums.AddressTypeShipping, FirstName: "Cleo", LastName: "Banda",
		AddressLine1: "4 Independence Ave", City: "Ndola", State: "Copperbelt", PostalCode: "20100",
		Country: "Zambia", Phone: "+260960000000", IsDefault: true,
	}
	require.NoError(t, f.client.DB().Create(addr).Error)
	f.cart(t, buyer, map[*models.Product]int{f.product(t, "MAP", "12", 3, true): 1})

	in := PlaceOrderInput{
		UserID:        buyer.ID,
		AddressID:     &addr.ID,
		Customer:      CustomerInfo{Email: "cleo@example.com"},
		PaymentMethod: enums.PaymentMethodCash,
	}
	order, err := f.svc.PlaceOrder(ctx, in)
	require.NoError(t, err)
	require.Equal(t, "Cleo Banda", order.FullName)
	require.Equal(t, "Ndola", order.City)

	other := f.user(t, "dan")
	in.UserID = other.ID
	_, err = f.svc.PlaceOrder(ctx, in)
	requireCode(t, err, pkgerrors.CodeValidation)
}

func TestReadsAreOwnerScoped(t *testing.T) {
	f := newMemoryFixture(t)
	ctx := context.Background()
	owner := f.user(t, "erin")
	stranger := f.user(t, "finn")
	p := f.product(t, "TEA", "3", 50, true)

	for i := 0; i < 3; i++ {
		f.cart(t, owner, map[*models.Product]int{p: 1})
		_, err := f.svc.PlaceOrder(ctx, placeInput(owner.ID))
		require.NoError(t, err)
	}

	_, err := f.svc.Get(ctx, stranger.ID, "INV-20240601-0001")
	requireCode(t, err, pkgerrors.CodeNotFound)

	page, err := f.svc.ListForUser(ctx, owner.ID, paginationParams(2, ""))
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	require.NotEmpty(t, page.NextCursor)

	page, err = f.svc.ListForUser(ctx, owner.ID, paginationParams(2, page.NextCursor))
	require.NoError(t, err)
	require.Len(t, page.Items, 1)

	page, err = f.svc.ListForUser(ctx, stranger.ID, paginationParams(10, ""))
	require.NoError(t, err)
	require.Empty(t, page.Items)
}

func TestStatusCommandsAreIndependent(t *testing.T) {
	f := newMemoryFixture(t)
	ctx := context.Background()
	buyer := f.user(t, "gia")
	staff := Actor{UserID: f.user(t, "ops").ID, Role: enums.UserRoleStaff}
	p := f.product(t, "INK", "5", 10, true)
	f.cart(t, buyer, map[*models.Product]int{p: 1})
	order, err := f.svc.PlaceOrder(ctx, placeInput(buyer.ID))
	require.NoError(t, err)

	updated, err := f.svc.UpdateStatus(ctx, staff, order.ID, enums.OrderStatusDelivered)
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusDelivered, updated.Status)
	require.Equal(t, enums.PaymentStatusPending, updated.PaymentStatus)

	updated, err = f.svc.UpdateStatus(ctx, staff, order.ID, enums.OrderStatusPending)
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusPending, updated.Status)

	txn := "MM-778"
	updated, err = f.svc.UpdatePaymentStatus(ctx, staff, order.ID, enums.PaymentStatusPaid, &txn)
	require.NoError(t, err)
	require.Equal(t, enums.PaymentStatusPaid, updated.PaymentStatus)
	require.Equal(t, "MM-778", *updated.TransactionID)
	require.Equal(t, order.Total, updated.Total)

	_, err = f.svc.UpdateStatus(ctx, staff, order.ID, "lost")
	requireCode(t, err, pkgerrors.CodeValidation)

	var events int64
	require.NoError(t, f.client.DB().Model(&models.OutboxEvent{}).Where("aggregate_id = ?", order.ID).Count(&events).Error)
	require.EqualValues(t, 4, events)
}

func TestSetTrackingAnnouncesChanges(t *testing.T) {
	f := newMemoryFixture(t)
	ctx := context.Background()
	buyer := f.user(t, "hana")
	staff := Actor{UserID: f.user(t, "ship").ID, Role: enums.UserRoleStaff}
	f.cart(t, buyer, map[*models.Product]int{f.product(t, "BOX", "8", 4, true): 1})
	order, err := f.svc.PlaceOrder(ctx, placeInput(buyer.ID))
	require.NoError(t, err)

	count := func(model any, where string, args ...any) int64 {
		t.Helper()
		var n int64
		require.NoError(t, f.client.DB().Model(model).Where(where, args...).Count(&n).Error)
		return n
	}
	trackingEvents := func() int64 {
		return count(&models.OutboxEvent{}, "aggregate_id = ? AND event_type = ?", order.ID, enums.EventOrderTrackingUpdated)
	}
	notes := func() int64 {
		return count(&models.Notification{}, "user_id = ?", buyer.ID)
	}
	baseNotes := notes()

	updated, err := f.svc.SetTracking(ctx, staff, order.ID, " ZM123 ")
	require.NoError(t, err)
	require.Equal(t, "ZM123", *updated.TrackingNumber)
	require.EqualValues(t, 1, trackingEvents())
	require.Equal(t, baseNotes+1, notes())

	_, err = f.svc.SetTracking(ctx, staff, order.ID, "ZM123")
	require.NoError(t, err)
	require.EqualValues(t, 1, trackingEvents())

	updated, err = f.svc.SetTracking(ctx, staff, order.ID, "")
	require.NoError(t, err)
	require.Nil(t, updated.TrackingNumber)
	require.EqualValues(t, 2, trackingEvents())
	require.Equal(t, baseNotes+1, notes())

	_, err = f.svc.SetTracking(ctx, staff, uuid.New(), "ZM9")
	requireCode(t, err, pkgerrors.CodeNotFound)
}

func TestApplyBulkStatus(t *testing.T) {
	f := newMemoryFixture(t)
	ctx := context.Background()
	buyer := f.user(t, "hal")
	staff := Actor{UserID: f.user(t, "ops").ID, Role: enums.UserRoleStaff}
	p := f.product(t, "PEN", "2", 10, true)

	var ids []uuid.UUID
	for i := 0; i < 2; i++ {
		f.cart(t, buyer, map[*models.Product]int{p: 1})
		order, err := f.svc.PlaceOrder(ctx, placeInput(buyer.ID))
		require.NoError(t, err)
		ids = append(ids, order.ID)
	}
	_, err := f.svc.UpdateStatus(ctx, staff, ids[1], enums.OrderStatusShipped)
	require.NoError(t, err)

	ghost := uuid.New()
	result, err := f.svc.ApplyBulkStatus(ctx, staff, []uuid.UUID{ids[0], ids[1], ids[0], ghost}, enums.OrderStatusShipped)
	require.NoError(t, err)
	require.EqualValues(t, 2, result.Updated)
	require.Equal(t, []uuid.UUID{ghost}, result.MissingIDs)

	var changes int64
	require.NoError(t, f.client.DB().Model(&models.OutboxEvent{}).Where("event_type = ?", enums.EventOrderStatusChanged).Count(&changes).Error)
	require.EqualValues(t, 2, changes)

	result, err = f.svc.ApplyBulkPaymentStatus(ctx, staff, ids, enums.PaymentStatusRefunded)
	require.NoError(t, err)
	require.EqualValues(t, 2, result.Updated)
	require.Empty(t, result.MissingIDs)

	_, err = f.svc.ApplyBulkStatus(ctx, staff, nil, enums.OrderStatusShipped)
	requireCode(t, err, pkgerrors.CodeValidation)
	tooMany := make([]uuid.UUID, 101)
	for i := range tooMany {
		tooMany[i] = uuid.New()
	}
	_, err = f.svc.ApplyBulkStatus(ctx, staff, tooMany, enums.OrderStatusShipped)
	requireCode(t, err, pkgerrors.CodeValidation)
}

func TestConcurrentCheckoutsIssueUniqueNumbersAndNeverOversell(t *testing.T) {
	f := newFixture(t, dbtest.NewSQLiteFile(t, models.All()...))
	ctx := context.Background()
	const buyers = 8
	const stock = 5
	p := f.product(t, "LAST", "10", stock, true)

	users := make([]*models.User, buyers)
	for i := range users {
		users[i] = f.user(t, fmt.Sprintf("buyer%d", i))
		f.cart(t, users[i], map[*models.Product]int{p: 1})
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		numbers []string
		failed  int
	)
	for _, u := range users {
		wg.Add(1)
		go func(u *models.User) {
			defer wg.Done()
			order, err := f.svc.PlaceOrder(ctx, placeInput(u.ID))
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
					t.Errorf("unexpected error: %v", err)
				}
				failed++
				return
			}
			numbers = append(numbers, order.OrderNumber)
		}(u)
	}
	wg.Wait()

	require.Len(t, numbers, stock)
	require.Equal(t, buyers-stock, failed)
	sort.Strings(numbers)
	for i, n := range numbers {
		require.Equal(t, FormatOrderNumber("20240601", i+1), n)
	}

	var stored models.Product
	require.NoError(t, f.client.DB().First(&stored, "id = ?", p.ID).Error)
	require.Zero(t, stored.Quantity)
	require.Equal(t, stock, stored.SalesCount)
}

func paginationParams(limit int, cursor string) pagination.Params {
	return pagination.Params{Limit: limit, Cursor: cursor}
}
