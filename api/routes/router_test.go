package routes

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/shopfront-backend/internal/app"
	"github.com/angelmondragon/shopfront-backend/internal/cart"
	"github.com/angelmondragon/shopfront-backend/internal/users"
	pkgAuth "github.com/angelmondragon/shopfront-backend/pkg/auth"
	"github.com/angelmondragon/shopfront-backend/pkg/auth/session"
	"github.com/angelmondragon/shopfront-backend/pkg/config"
	"github.com/angelmondragon/shopfront-backend/pkg/enums"
	"github.com/angelmondragon/shopfront-backend/pkg/logger"
	"github.com/angelmondragon/shopfront-backend/pkg/metrics"
	"github.com/angelmondragon/shopfront-backend/pkg/pagination"
)

type stubPinger struct {
	err error
}

func (s stubPinger) Ping(context.Context) error {
	return s.err
}

type stubSessionManager struct {
	active bool
}

func (s stubSessionManager) HasSession(context.Context, string) (bool, error) {
	return s.active, nil
}

type stubUsers struct {
	users.Service
	listed int
}

func (s *stubUsers) List(context.Context, users.ListParams) (*pagination.Page[users.UserDTO], error) {
	s.listed++
	return &pagination.Page[users.UserDTO]{Items: []users.UserDTO{}}, nil
}

type stubCart struct {
	cart.Service
	owner cart.Owner
}

func (s *stubCart) Get(_ context.Context, owner cart.Owner) (*cart.Summary, error) {
	s.owner = owner
	return &cart.Summary{SessionToken: owner.SessionToken, Items: []cart.ItemDTO{}, Subtotal: "0.00"}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:                 "secret",
			Issuer:                 "issuer",
			ExpirationMinutes:      60,
			RefreshTokenTTLMinutes: 120,
		},
	}
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
}

func newTestRouter(cfg *config.Config, deps Deps) http.Handler {
	if deps.DB == nil {
		deps.DB = stubPinger{}
	}
	if deps.Sessions == nil {
		deps.Sessions = stubSessionManager{active: true}
	}
	return NewRouter(cfg, testLogger(), deps)
}

func TestHealthLive(t *testing.T) {
	router := newTestRouter(testConfig(), Deps{})
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if got := resp.Header().Get("X-Shopfront-Env"); got != "test" {
		t.Fatalf("expected env header test got %q", got)
	}
	if resp.Header().Get("X-Request-ID") == "" {
		t.Fatalf("expected request id header")
	}
}

func TestHealthReadyReportsFailingDependency(t *testing.T) {
	router := newTestRouter(testConfig(), Deps{DB: stubPinger{err: errors.New("db down")}})
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", resp.Code)
	}
}

func TestProfileRequiresToken(t *testing.T) {
	router := newTestRouter(testConfig(), Deps{})
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestRevokedSessionIsRejected(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg, Deps{Sessions: stubSessionManager{active: false}})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleCustomer))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for revoked session got %d", resp.Code)
	}
}

func TestAdminRoutesRequireStaff(t *testing.T) {
	cfg := testConfig()
	userSvc := &stubUsers{}
	router := newTestRouter(cfg, Deps{Services: &app.Services{Users: userSvc}})

	customer := httptest.NewRequest(http.MethodGet, "/api/v1/admin/users", nil)
	customer.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleCustomer))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, customer)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for customer got %d", resp.Code)
	}
	if userSvc.listed != 0 {
		t.Fatalf("service must not run for forbidden caller")
	}

	staff := httptest.NewRequest(http.MethodGet, "/api/v1/admin/users", nil)
	staff.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleStaff))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, staff)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for staff got %d", resp.Code)
	}
	if userSvc.listed != 1 {
		t.Fatalf("expected one list call got %d", userSvc.listed)
	}
}

func TestAnonymousCartGetsSessionToken(t *testing.T) {
	cartSvc := &stubCart{}
	router := newTestRouter(testConfig(), Deps{Services: &app.Services{Cart: cartSvc}})

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	token := resp.Header().Get(cart.SessionHeader)
	if token == "" {
		t.Fatalf("expected issued cart session header")
	}
	if cartSvc.owner.SessionToken != token || cartSvc.owner.UserID != nil {
		t.Fatalf("cart owner not derived from session: %+v", cartSvc.owner)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set(cart.SessionHeader, "existing-token")
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if cartSvc.owner.SessionToken != "existing-token" {
		t.Fatalf("expected existing token reused, got %q", cartSvc.owner.SessionToken)
	}
}

func TestSignedInCartUsesUser(t *testing.T) {
	cfg := testConfig()
	cartSvc := &stubCart{}
	router := newTestRouter(cfg, Deps{Services: &app.Services{Cart: cartSvc}})
	userID := uuid.New()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set("Authorization", "Bearer "+buildTokenWithUserID(t, cfg, enums.UserRoleCustomer, userID))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if cartSvc.owner.UserID == nil || *cartSvc.owner.UserID != userID {
		t.Fatalf("expected user owner, got %+v", cartSvc.owner)
	}
	if resp.Header().Get(cart.SessionHeader) != "" {
		t.Fatalf("signed-in callers must not be issued a cart session")
	}
}

func TestMissingServiceReturns500(t *testing.T) {
	router := newTestRouter(testConfig(), Deps{})
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/products", nil))
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", resp.Code)
	}
	var body struct {
		Success bool   `json:"success"`
		Code    string `json:"code"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Success || body.Code != "INTERNAL_ERROR" {
		t.Fatalf("unexpected error envelope %+v", body)
	}
}

func TestMetricsEndpointExposesHTTPCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	router := newTestRouter(testConfig(), Deps{
		Metrics:  metrics.NewShopMetrics(reg),
		Gatherer: reg,
	})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health/live", nil))

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "shopfront_http_requests_total") {
		t.Fatalf("expected http counter in exposition")
	}
}

func buildToken(t *testing.T, cfg *config.Config, role enums.UserRole) string {
	t.Helper()
	return buildTokenWithUserID(t, cfg, role, uuid.New())
}

func buildTokenWithUserID(t *testing.T, cfg *config.Config, role enums.UserRole, userID uuid.UUID) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: userID,
		Role:   role,
		JTI:    session.NewAccessID(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}
