package marketplace

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/shopfront-backend/pkg/config"
	"github.com/angelmondragon/shopfront-backend/pkg/metrics"
)

func TestSignSortsParamsAndWrapsSecret(t *testing.T) {
	params := url.Values{}
	params.Set("method", "m.x")
	params.Set("app_key", "k")
	params.Set("b", "2")
	params.Set("a", "1")

	const want = "2F5762BCBB4D2DB4D381E028D6E33F4729391393A8E2CBC19A9217B630DB662C"
	if got := Sign("sec", params); got != want {
		t.Fatalf("unexpected signature %s", got)
	}

	params.Set("sign", "ignored")
	if got := Sign("sec", params); got != want {
		t.Fatalf("sign param must not feed the signature, got %s", got)
	}
}

func testConfig(baseURL string) config.MarketplaceConfig {
	return config.MarketplaceConfig{
		BaseURL:    baseURL,
		AppKey:     "app-key",
		AppSecret:  "app-secret",
		TrackingID: "shopfront",
		Timeout:    2 * time.Second,
		CacheTTL:   time.Minute,
	}
}

func fixedClock() time.Time {
	return time.UnixMilli(1717200000000)
}

func TestSearchSendsSignedFormAndParsesCents(t *testing.T) {
	var form url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/api" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		form = r.PostForm
		_, _ = w.Write([]byte(`{"aliexpress_affiliate_product_query_response":{"products":{"product":[
			{"product_id":1005001,"product_title":"Lamp","target_sale_price":"1999","target_original_price":"2599",
			 "store_name":"Bright","orders":42,"shipping_cost":"0","shipping_method":"standard"}
		]}}}`))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL+"/rest"), withClock(fixedClock))
	lo := decimal.RequireFromString("5.50")
	hi := decimal.NewFromInt(30)
	listings := client.Search(context.Background(), "desk lamp", PriceRange{Min: &lo, Max: &hi}, 0)

	if len(listings) != 1 {
		t.Fatalf("expected one listing, got %d", len(listings))
	}
	got := listings[0]
	if got.ID != "1005001" || got.Title != "Lamp" || got.Orders != 42 {
		t.Fatalf("unexpected listing %+v", got)
	}
	if !got.Price.Equal(decimal.RequireFromString("19.99")) {
		t.Fatalf("expected price 19.99, got %s", got.Price)
	}
	if got.OriginalPrice == nil || !got.OriginalPrice.Equal(decimal.RequireFromString("25.99")) {
		t.Fatalf("unexpected original price %v", got.OriginalPrice)
	}
	if got.Shipping == nil || got.Shipping.Method != "standard" {
		t.Fatalf("unexpected shipping %+v", got.Shipping)
	}

	checks := map[string]string{
		"method":         methodSearch,
		"app_key":        "app-key",
		"format":         "json",
		"sign_method":    "sha256",
		"v":              "2.0",
		"timestamp":      "1717200000000",
		"min_sale_price": "550",
		"max_sale_price": "3000",
		"page_size":      "20",
		"tracking_id":    "shopfront",
	}
	for key, want := range checks {
		if form.Get(key) != want {
			t.Fatalf("expected %s=%q, got %q", key, want, form.Get(key))
		}
	}
	if form.Get("sign") != Sign("app-secret", form) {
		t.Fatalf("signature mismatch")
	}
}

func TestFailuresDegradeQuietly(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer server.Close()

	reg := prometheus.NewRegistry()
	client := NewClient(testConfig(server.URL), WithMetrics(metrics.NewShopMetrics(reg)))
	ctx := context.Background()

	if got := client.Search(ctx, "lamp", PriceRange{}, 5); got == nil || len(got) != 0 {
		t.Fatalf("expected empty slice, got %v", got)
	}
	if got := client.Detail(ctx, "1"); got != nil {
		t.Fatalf("expected nil detail, got %+v", got)
	}
	if got := client.AffiliateLink(ctx, "https://shop.example/item/1"); got != "https://shop.example/item/1" {
		t.Fatalf("expected input url fallback, got %q", got)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if len(families) == 0 {
		t.Fatal("expected marketplace metrics to be recorded")
	}
}

func TestAPIErrorResponseFallsBack(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error_response":{"code":15,"msg":"Invalid signature"}}`))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))
	if got := client.AffiliateLink(context.Background(), "https://shop.example/x"); got != "https://shop.example/x" {
		t.Fatalf("expected fallback url, got %q", got)
	}
}

func TestAffiliateLinkReturnsPromotionLink(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"aliexpress_affiliate_link_generate_response":{"promotion_links":{"promotion_link":[
			{"source_value":"https://shop.example/x","promotion_link":"https://s.click.example/abc"}]}}}`))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))
	if got := client.AffiliateLink(context.Background(), "https://shop.example/x"); got != "https://s.click.example/abc" {
		t.Fatalf("unexpected link %q", got)
	}
}

func TestDisabledClientSkipsNetwork(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.AppSecret = ""
	client := NewClient(cfg)
	if client.Enabled() {
		t.Fatal("expected client without secret to be disabled")
	}
	if got := client.Search(context.Background(), "lamp", PriceRange{}, 5); len(got) != 0 {
		t.Fatalf("expected no listings, got %v", got)
	}
	if called {
		t.Fatal("disabled client must not call the API")
	}
}

type memoryCache struct {
	mu     sync.Mutex
	values map[string]string
}

func (m *memoryCache) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	if !ok {
		return "", errors.New("miss")
	}
	return v, nil
}

func (m *memoryCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch v := value.(type) {
	case []byte:
		m.values[key] = string(v)
	case string:
		m.values[key] = v
	}
	return nil
}

func (m *memoryCache) MarketplaceKey(kind, id string) string {
	return "marketplace:" + kind + ":" + id
}

func TestDetailReadsThroughCache(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		_, _ = w.Write([]byte(`{"aliexpress_affiliate_product_detail_get_response":{"products":{"product":[
			{"product_id":"77","product_title":"Kettle","target_sale_price":"4500",
			 "product_image_urls":"https://img/1.jpg, https://img/2.jpg",
			 "product_attributes":[{"name":"Volume","value":"1.7L"}]}]}}}`))
	}))
	defer server.Close()

	store := &memoryCache{values: map[string]string{}}
	client := NewClient(testConfig(server.URL), WithCache(store))

	first := client.Detail(context.Background(), "77")
	if first == nil || first.Title != "Kettle" || len(first.Images) != 2 || first.Specs["Volume"] != "1.7L" {
		t.Fatalf("unexpected detail %+v", first)
	}
	second := client.Detail(context.Background(), "77")
	if second == nil || !second.Price.Equal(decimal.NewFromInt(45)) {
		t.Fatalf("unexpected cached detail %+v", second)
	}
	if calls != 1 {
		t.Fatalf("expected one upstream call, got %d", calls)
	}
}
