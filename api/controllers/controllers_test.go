package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/shopfront-backend/api/middleware"
	"github.com/angelmondragon/shopfront-backend/internal/cart"
	"github.com/angelmondragon/shopfront-backend/internal/marketplace"
	"github.com/angelmondragon/shopfront-backend/internal/orders"
	"github.com/angelmondragon/shopfront-backend/internal/reviews"
	"github.com/angelmondragon/shopfront-backend/pkg/bulk"
	"github.com/angelmondragon/shopfront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/shopfront-backend/pkg/errors"
	"github.com/angelmondragon/shopfront-backend/pkg/logger"
	"github.com/angelmondragon/shopfront-backend/pkg/pagination"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Code    string          `json:"code"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return env
}

func jsonRequest(method, target string, body any) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func asUser(req *http.Request, id uuid.UUID, role enums.UserRole) *http.Request {
	ctx := middleware.WithUserID(req.Context(), id.String())
	ctx = middleware.WithRole(ctx, string(role))
	return req.WithContext(ctx)
}

func withSession(req *http.Request, token string) *http.Request {
	return req.WithContext(middleware.WithCartSession(req.Context(), token))
}

func withURLParams(req *http.Request, kv ...string) *http.Request {
	rctx := chi.NewRouteContext()
	for i := 0; i+1 < len(kv); i += 2 {
		rctx.URLParams.Add(kv[i], kv[i+1])
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

type stubCart struct {
	cart.Service
	owner    cart.Owner
	quantity int
	err      error
	merged   string
}

func (s *stubCart) AddItem(_ context.Context, owner cart.Owner, productID uuid.UUID, quantity int, _ cart.RequestMeta) (*cart.Summary, error) {
	s.owner = owner
	s.quantity = quantity
	if s.err != nil {
		return nil, s.err
	}
	return &cart.Summary{SessionToken: owner.SessionToken, TotalItems: quantity, Subtotal: "10.00"}, nil
}

func (s *stubCart) Get(_ context.Context, owner cart.Owner) (*cart.Summary, error) {
	s.owner = owner
	return &cart.Summary{Items: []cart.ItemDTO{}, Subtotal: "0.00"}, nil
}

func (s *stubCart) Merge(_ context.Context, sessionToken string, _ uuid.UUID) (*cart.Summary, error) {
	s.merged = sessionToken
	return &cart.Summary{}, nil
}

func TestCartAddItemDefaultsQuantityForSession(t *testing.T) {
	svc := &stubCart{}
	req := jsonRequest(http.MethodPost, "/api/v1/cart/items", map[string]any{"product_id": uuid.New()})
	req = withSession(req, "sess-abc")
	rec := httptest.NewRecorder()

	CartAddItem(svc, logger.Nop())(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.quantity != 1 {
		t.Fatalf("expected default quantity 1, got %d", svc.quantity)
	}
	if svc.owner.UserID != nil || svc.owner.SessionToken != "sess-abc" {
		t.Fatalf("expected session owner, got %+v", svc.owner)
	}
}

func TestCartAddItemPrefersSignedInUser(t *testing.T) {
	svc := &stubCart{}
	userID := uuid.New()
	req := jsonRequest(http.MethodPost, "/api/v1/cart/items", map[string]any{"product_id": uuid.New(), "quantity": 3})
	req = withSession(asUser(req, userID, enums.UserRoleCustomer), "sess-abc")
	rec := httptest.NewRecorder()

	CartAddItem(svc, logger.Nop())(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if svc.owner.UserID == nil || *svc.owner.UserID != userID {
		t.Fatalf("expected user owner, got %+v", svc.owner)
	}
	if svc.quantity != 3 {
		t.Fatalf("expected quantity 3, got %d", svc.quantity)
	}
}

func TestCartAddItemSurfacesStockConflict(t *testing.T) {
	svc := &stubCart{err: pkgerrors.New(pkgerrors.CodeConflict, "only 2 items available")}
	req := withSession(jsonRequest(http.MethodPost, "/api/v1/cart/items", map[string]any{"product_id": uuid.New(), "quantity": 5}), "s")
	rec := httptest.NewRecorder()

	CartAddItem(svc, logger.Nop())(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env.Code != string(pkgerrors.CodeConflict) || env.Error != "only 2 items available" {
		t.Fatalf("unexpected error envelope %+v", env)
	}
}

func TestCartNilServiceIsInternal(t *testing.T) {
	rec := httptest.NewRecorder()
	CartGet(nil, logger.Nop())(rec, withSession(httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil), "s"))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

type stubOrders struct {
	input orders.PlaceOrderInput
}

func (s *stubOrders) PlaceOrder(_ context.Context, input orders.PlaceOrderInput) (*orders.OrderDTO, error) {
	s.input = input
	return &orders.OrderDTO{ID: uuid.New(), OrderNumber: "INV-20260101-0001", UserID: input.UserID, Status: enums.OrderStatusPending}, nil
}

func (s *stubOrders) Get(context.Context, uuid.UUID, string) (*orders.OrderDTO, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
}

func (s *stubOrders) ListForUser(context.Context, uuid.UUID, pagination.Params) (*pagination.Page[orders.OrderDTO], error) {
	return &pagination.Page[orders.OrderDTO]{Items: []orders.OrderDTO{}}, nil
}

func TestOrderPlaceMapsBody(t *testing.T) {
	svc := &stubOrders{}
	userID := uuid.New()
	req := jsonRequest(http.MethodPost, "/api/v1/orders", map[string]any{
		"email":          "buyer@example.com",
		"first_name":     "Ama",
		"payment_method": "mobile_money",
		"city":           "Accra",
	})
	req = asUser(req, userID, enums.UserRoleCustomer)
	rec := httptest.NewRecorder()

	OrderPlace(svc, logger.Nop())(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.input.UserID != userID {
		t.Fatalf("expected user id to be passed through")
	}
	if svc.input.PaymentMethod != enums.PaymentMethodMobileMoney {
		t.Fatalf("unexpected payment method %q", svc.input.PaymentMethod)
	}
	if svc.input.Shipping.City != "Accra" || svc.input.Customer.Email != "buyer@example.com" {
		t.Fatalf("unexpected customer/shipping mapping %+v", svc.input)
	}
}

func TestOrderPlaceRejectsClientSuppliedCharges(t *testing.T) {
	for _, field := range []string{"discount", "tax", "shipping_cost"} {
		svc := &stubOrders{}
		req := asUser(jsonRequest(http.MethodPost, "/api/v1/orders", map[string]any{
			"email":          "buyer@example.com",
			"payment_method": "mobile_money",
			field:            "999",
		}), uuid.New(), enums.UserRoleCustomer)
		rec := httptest.NewRecorder()

		OrderPlace(svc, logger.Nop())(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", field, rec.Code)
		}
		if svc.input.UserID != uuid.Nil {
			t.Fatalf("%s: order must not be placed", field)
		}
	}
}

func TestOrderPlaceRejectsUnknownPaymentMethod(t *testing.T) {
	svc := &stubOrders{}
	req := asUser(jsonRequest(http.MethodPost, "/api/v1/orders", map[string]any{
		"email":          "buyer@example.com",
		"payment_method": "barter",
	}), uuid.New(), enums.UserRoleCustomer)
	rec := httptest.NewRecorder()

	OrderPlace(svc, logger.Nop())(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestOrderPlaceRequiresUser(t *testing.T) {
	rec := httptest.NewRecorder()
	OrderPlace(&stubOrders{}, logger.Nop())(rec, jsonRequest(http.MethodPost, "/api/v1/orders", map[string]any{}))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestOrderGetNotFound(t *testing.T) {
	req := withURLParams(httptest.NewRequest(http.MethodGet, "/api/v1/orders/INV-1", nil), "orderNumber", "INV-1")
	req = asUser(req, uuid.New(), enums.UserRoleCustomer)
	rec := httptest.NewRecorder()

	OrderGet(&stubOrders{}, logger.Nop())(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

type stubAdminOrders struct {
	orders.Service
	actor  orders.Actor
	ids    []uuid.UUID
	status enums.OrderStatus
}

func (s *stubAdminOrders) ApplyBulkStatus(_ context.Context, actor orders.Actor, ids []uuid.UUID, status enums.OrderStatus) (*bulk.Result, error) {
	s.actor = actor
	s.ids = ids
	s.status = status
	return &bulk.Result{Updated: int64(len(ids)) - 1, MissingIDs: ids[:1]}, nil
}

func TestAdminOrderBulkStatus(t *testing.T) {
	svc := &stubAdminOrders{}
	adminID := uuid.New()
	ids := []uuid.UUID{uuid.New(), uuid.New()}
	req := asUser(jsonRequest(http.MethodPost, "/api/v1/admin/orders/bulk-status", map[string]any{
		"ids":    ids,
		"status": "shipped",
	}), adminID, enums.UserRoleStaff)
	rec := httptest.NewRecorder()

	AdminOrderBulkStatus(svc, logger.Nop())(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.actor.UserID != adminID || svc.actor.Role != enums.UserRoleStaff {
		t.Fatalf("unexpected actor %+v", svc.actor)
	}
	if svc.status != enums.OrderStatusShipped || len(svc.ids) != 2 {
		t.Fatalf("unexpected bulk call %v %v", svc.status, svc.ids)
	}
	var result bulk.Result
	if err := json.Unmarshal(decodeEnvelope(t, rec).Data, &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if result.Updated != 1 || len(result.MissingIDs) != 1 {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestAdminOrderBulkStatusRejectsEmptyIDs(t *testing.T) {
	req := asUser(jsonRequest(http.MethodPost, "/api/v1/admin/orders/bulk-status", map[string]any{
		"ids":    []string{},
		"status": "shipped",
	}), uuid.New(), enums.UserRoleStaff)
	rec := httptest.NewRecorder()

	AdminOrderBulkStatus(&stubAdminOrders{}, logger.Nop())(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAdminOrderListRejectsUnknownStatus(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/orders?status=lost", nil)
	rec := httptest.NewRecorder()

	AdminOrderList(&stubAdminOrders{}, logger.Nop())(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

type stubReviews struct {
	reviews.Service
	approved *bool
	ids      []uuid.UUID
}

func (s *stubReviews) Moderate(_ context.Context, ids []uuid.UUID, approved bool) (*bulk.Result, error) {
	s.ids = ids
	s.approved = &approved
	return &bulk.Result{Updated: int64(len(ids))}, nil
}

func TestAdminReviewModerateRequiresApprovedFlag(t *testing.T) {
	svc := &stubReviews{}
	rec := httptest.NewRecorder()
	AdminReviewModerate(svc, logger.Nop())(rec, jsonRequest(http.MethodPost, "/api/v1/admin/reviews/moderate", map[string]any{
		"ids": []uuid.UUID{uuid.New()},
	}))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without approved, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	AdminReviewModerate(svc, logger.Nop())(rec, jsonRequest(http.MethodPost, "/api/v1/admin/reviews/moderate", map[string]any{
		"ids":      []uuid.UUID{uuid.New()},
		"approved": false,
	}))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.approved == nil || *svc.approved {
		t.Fatalf("expected explicit false to reach the service")
	}
}

type stubMarketplace struct {
	keywords string
	limit    int
	prices   marketplace.PriceRange
	listings []marketplace.Listing
}

func (s *stubMarketplace) Search(_ context.Context, keywords string, prices marketplace.PriceRange, limit int) []marketplace.Listing {
	s.keywords = keywords
	s.prices = prices
	s.limit = limit
	return s.listings
}

func (s *stubMarketplace) Detail(context.Context, string) *marketplace.Listing { return nil }

func (s *stubMarketplace) AffiliateLink(_ context.Context, productURL string) string {
	return productURL + "?aff=1"
}

func TestMarketplaceSearchEmptyResultsAreNotAnError(t *testing.T) {
	client := &stubMarketplace{}
	rec := httptest.NewRecorder()
	MarketplaceSearch(client, logger.Nop())(rec, httptest.NewRequest(http.MethodGet, "/api/v1/marketplace/search?q=kente&min_price=10", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if client.limit != 20 || client.keywords != "kente" {
		t.Fatalf("unexpected search call %q %d", client.keywords, client.limit)
	}
	if client.prices.Min == nil || !client.prices.Min.Equal(decimal.NewFromInt(10)) || client.prices.Max != nil {
		t.Fatalf("unexpected price range %+v", client.prices)
	}
	if !strings.Contains(rec.Body.String(), `"results":[]`) {
		t.Fatalf("expected empty results array, got %s", rec.Body.String())
	}
}

func TestMarketplaceSearchRequiresKeywords(t *testing.T) {
	rec := httptest.NewRecorder()
	MarketplaceSearch(&stubMarketplace{}, logger.Nop())(rec, httptest.NewRequest(http.MethodGet, "/api/v1/marketplace/search", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestMarketplaceDetailMissingIsNotFound(t *testing.T) {
	req := withURLParams(httptest.NewRequest(http.MethodGet, "/api/v1/marketplace/products/123", nil), "listingId", "123")
	rec := httptest.NewRecorder()
	MarketplaceDetail(&stubMarketplace{}, logger.Nop())(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestClientIPPrefersForwardedFor(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	if got := clientIP(req); got != "10.0.0.1" {
		t.Fatalf("expected remote addr host, got %q", got)
	}
	req.Header.Set("X-Forwarded-For", " 203.0.113.9 , 10.0.0.2")
	if got := clientIP(req); got != "203.0.113.9" {
		t.Fatalf("expected first forwarded ip, got %q", got)
	}
}
