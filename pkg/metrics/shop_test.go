package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestShopMetricsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewShopMetrics(reg)

	m.IncOrderPlaced()
	m.IncOrderPlaced()
	m.AddStatusChanges("status", "shipped", 3)
	m.AddStatusChanges("status", "shipped", 0)
	m.IncOutboxPublished("order_placed")
	m.IncOutboxFailed("order_placed")
	m.ObserveMarketplace("product_search", "error", 20*time.Millisecond)
	m.ObserveHTTP("GET", "/api/v1/products", 200, 5*time.Millisecond)
	m.ObserveHTTP("GET", "", 404, time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	placed := findMetricFamily(mfs, "shopfront_orders_placed_total")
	if placed == nil || placed.GetMetric()[0].GetCounter().GetValue() != 2 {
		t.Fatalf("expected two placed orders, got %v", placed)
	}
	if got, err := fetchCounterValue(mfs, "shopfront_orders_status_changes_total", "status", "shipped"); err != nil || got != 3 {
		t.Fatalf("expected 3 shipped transitions, got %f (%v)", got, err)
	}
	if got, err := fetchCounterValue(mfs, "shopfront_outbox_published_total", "event_type", "order_placed"); err != nil || got != 1 {
		t.Fatalf("expected 1 published event, got %f (%v)", got, err)
	}
	if got, err := fetchCounterValue(mfs, "shopfront_marketplace_requests_total", "outcome", "error"); err != nil || got != 1 {
		t.Fatalf("expected 1 marketplace error, got %f (%v)", got, err)
	}
	if got, err := fetchCounterValue(mfs, "shopfront_http_requests_total", "route", "unmatched"); err != nil || got != 1 {
		t.Fatalf("expected 1 unmatched request, got %f (%v)", got, err)
	}
}
