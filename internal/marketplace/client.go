// Package marketplace talks to the external affiliate marketplace API.
// Every lookup degrades quietly: failures are logged and callers get an
// empty result instead of an error.
package marketplace

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/angelmondragon/shopfront-backend/pkg/config"
	"github.com/angelmondragon/shopfront-backend/pkg/logger"
	"github.com/angelmondragon/shopfront-backend/pkg/metrics"
)

const (
	methodSearch = "aliexpress.affiliate.product.query"
	methodDetail = "aliexpress.affiliate.product.detail.get"
	methodLink   = "aliexpress.affiliate.link.generate"

	defaultSearchLimit       = 20
	maxSearchLimit           = 50
	maxResponseBytes   int64 = 2 << 20
	errorBodyReadLimit int64 = 1024
)

var errNotConfigured = errors.New("marketplace credentials not configured")

type cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	MarketplaceKey(kind, id string) string
}

// Client signs and sends marketplace API calls.
type Client struct {
	httpClient *http.Client
	baseURL    string
	appKey     string
	appSecret  string
	trackingID string
	limiter    *rate.Limiter
	cache      cache
	cacheTTL   time.Duration
	logg       *logger.Logger
	metrics    *metrics.ShopMetrics
	now        func() time.Time
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the configured API base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if trimmed := strings.TrimSpace(baseURL); trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// WithCache enables the read-through cache for detail lookups.
func WithCache(store cache) Option {
	return func(c *Client) {
		c.cache = store
	}
}

func WithLogger(logg *logger.Logger) Option {
	return func(c *Client) {
		if logg != nil {
			c.logg = logg
		}
	}
}

func WithMetrics(m *metrics.ShopMetrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

func withClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

// NewClient builds a client from config. Missing credentials are not an
// error; the client then answers every call with an empty result.
func NewClient(cfg config.MarketplaceConfig, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	limit := rate.Limit(cfg.RatePerSec)
	if cfg.RatePerSec <= 0 {
		limit = rate.Inf
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	c := &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimSpace(cfg.BaseURL),
		appKey:     strings.TrimSpace(cfg.AppKey),
		appSecret:  strings.TrimSpace(cfg.AppSecret),
		trackingID: strings.TrimSpace(cfg.TrackingID),
		limiter:    rate.NewLimiter(limit, burst),
		cacheTTL:   cfg.CacheTTL,
		logg:       logger.Nop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Enabled reports whether the client has credentials to call the API.
func (c *Client) Enabled() bool {
	return c != nil && c.appKey != "" && c.appSecret != ""
}

// Search returns listings matching keywords. Prices are sent in cents.
func (c *Client) Search(ctx context.Context, keywords string, prices PriceRange, limit int) []Listing {
	keywords = strings.TrimSpace(keywords)
	if keywords == "" {
		return []Listing{}
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	params := url.Values{}
	params.Set("keywords", keywords)
	params.Set("page_size", strconv.Itoa(limit))
	if prices.Min != nil {
		params.Set("min_sale_price", prices.Min.Shift(2).Truncate(0).String())
	}
	if prices.Max != nil {
		params.Set("max_sale_price", prices.Max.Shift(2).Truncate(0).String())
	}
	c.setTracking(params)

	var env productsEnvelope
	if err := c.call(ctx, methodSearch, params, &env); err != nil {
		c.logFailure(ctx, methodSearch, err)
		return []Listing{}
	}
	out := make([]Listing, 0, len(env.Products.Product))
	for _, p := range env.Products.Product {
		out = append(out, p.toListing(false))
	}
	return out
}

// Detail returns one listing or nil when the lookup fails or finds nothing.
func (c *Client) Detail(ctx context.Context, id string) *Listing {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil
	}

	key := ""
	if c.cache != nil && c.cacheTTL > 0 {
		key = c.cache.MarketplaceKey("detail", id)
		if raw, err := c.cache.Get(ctx, key); err == nil && raw != "" {
			var cached Listing
			if err := json.Unmarshal([]byte(raw), &cached); err == nil {
				c.metrics.ObserveMarketplace(methodDetail, "cache_hit", 0)
				return &cached
			}
		}
	}

	params := url.Values{}
	params.Set("product_ids", id)
	c.setTracking(params)

	var env productsEnvelope
	if err := c.call(ctx, methodDetail, params, &env); err != nil {
		c.logFailure(ctx, methodDetail, err)
		return nil
	}
	if len(env.Products.Product) == 0 {
		return nil
	}
	listing := env.Products.Product[0].toListing(true)

	if key != "" {
		if payload, err := json.Marshal(listing); err == nil {
			if err := c.cache.Set(ctx, key, payload, c.cacheTTL); err != nil {
				c.logFailure(ctx, "cache.set", err)
			}
		}
	}
	return &listing
}

// AffiliateLink converts a product url into a tracked promotion link,
// falling back to the input url.
func (c *Client) AffiliateLink(ctx context.Context, productURL string) string {
	productURL = strings.TrimSpace(productURL)
	if productURL == "" {
		return productURL
	}

	params := url.Values{}
	params.Set("source_values", productURL)
	params.Set("promotion_link_type", "0")
	c.setTracking(params)

	var env linksEnvelope
	if err := c.call(ctx, methodLink, params, &env); err != nil {
		c.logFailure(ctx, methodLink, err)
		return productURL
	}
	for _, link := range env.PromotionLinks.PromotionLink {
		if link.PromotionLink != "" {
			return link.PromotionLink
		}
	}
	return productURL
}

func (c *Client) setTracking(params url.Values) {
	if c.trackingID != "" {
		params.Set("tracking_id", c.trackingID)
	}
}

// call signs params, posts them and decodes the method's response body into out.
func (c *Client) call(ctx context.Context, method string, params url.Values, out any) (err error) {
	start := c.now()
	outcome := "ok"
	defer func() {
		if err != nil && outcome == "ok" {
			outcome = "error"
		}
		c.metrics.ObserveMarketplace(method, outcome, c.now().Sub(start))
	}()

	if !c.Enabled() {
		outcome = "disabled"
		return errNotConfigured
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	params.Set("method", method)
	params.Set("app_key", c.appKey)
	params.Set("format", "json")
	params.Set("sign_method", "sha256")
	params.Set("timestamp", strconv.FormatInt(c.now().UnixMilli(), 10))
	params.Set("v", "2.0")
	params.Set("sign", Sign(c.appSecret, params))

	endpoint := strings.TrimRight(c.baseURL, "/") + "/api"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(params.Encode()))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded;charset=utf-8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyReadLimit))
		return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if int64(len(body)) > maxResponseBytes {
		return fmt.Errorf("response exceeds %d bytes", maxResponseBytes)
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if raw, ok := envelope["error_response"]; ok {
		var apiErr struct {
			Code flexString `json:"code"`
			Msg  string     `json:"msg"`
		}
		_ = json.Unmarshal(raw, &apiErr)
		return fmt.Errorf("api error %s: %s", apiErr.Code, apiErr.Msg)
	}
	raw, ok := envelope[responseKey(method)]
	if !ok {
		return fmt.Errorf("response missing %s", responseKey(method))
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s: %w", method, err)
	}
	return nil
}

func (c *Client) logFailure(ctx context.Context, method string, err error) {
	if errors.Is(err, errNotConfigured) {
		return
	}
	ctx = c.logg.WithFields(ctx, map[string]any{"method": method, "error": err.Error()})
	c.logg.Warn(ctx, "marketplace.call_failed")
}

func responseKey(method string) string {
	return strings.ReplaceAll(method, ".", "_") + "_response"
}
