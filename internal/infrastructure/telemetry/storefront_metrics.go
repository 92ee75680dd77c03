package telemetry

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	outcomeOK    = "ok"
	outcomeError = "error"
)

// StorefrontMetrics holds the instruments recorded by the catalog, pricing
// and HTTP layers. A nil *StorefrontMetrics records nothing.
type StorefrontMetrics struct {
	searchTotal       *Counter
	searchDuration    *Histogram
	searchResults     *Histogram
	priceTotal        *Counter
	priceDuration     *Histogram
	discountsApplied  *Counter
	currencyCache     *Counter
	httpRequests      *Counter
	httpDuration      *Histogram
	moneyAllocations  *Counter
	currencyExchanges *Counter
}

// NewStorefrontMetrics creates all instruments on meter.
func NewStorefrontMetrics(meter metric.Meter) (*StorefrontMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}

	m := &StorefrontMetrics{}
	var err error
	counters := []struct {
		dst               **Counter
		name, desc, units string
	}{
		{&m.searchTotal, "store_catalog_search_total", "Catalog searches executed", "{search}"},
		{&m.priceTotal, "store_price_calculation_total", "Product price calculations", "{calculation}"},
		{&m.discountsApplied, "store_discount_applied_total", "Discounts applied during price calculation", "{discount}"},
		{&m.currencyCache, "store_currency_cache_total", "Currency cache lookups by result", "{lookup}"},
		{&m.httpRequests, "store_http_requests_total", "HTTP requests served", "{request}"},
		{&m.moneyAllocations, "store_money_allocation_total", "Money allocations performed", "{allocation}"},
		{&m.currencyExchanges, "store_currency_exchange_total", "Currency conversions performed", "{exchange}"},
	}
	for _, c := range counters {
		if *c.dst, err = NewCounter(meter, c.name, c.desc, c.units); err != nil {
			return nil, err
		}
	}

	histograms := []struct {
		dst  **Histogram
		opts HistogramOpts
	}{
		{&m.searchDuration, HistogramOpts{Name: "store_catalog_search_duration_seconds", Description: "Catalog search latency", Unit: "s", Boundaries: DBDurationBuckets}},
		{&m.searchResults, HistogramOpts{Name: "store_catalog_search_results", Description: "Total hits per catalog search", Unit: "{product}", Boundaries: []float64{0, 1, 10, 50, 100, 500, 1000, 10000}}},
		{&m.priceDuration, HistogramOpts{Name: "store_price_calculation_duration_seconds", Description: "Price calculation latency", Unit: "s", Boundaries: SmallDurationBuckets}},
		{&m.httpDuration, HistogramOpts{Name: "store_http_request_duration_seconds", Description: "HTTP request latency", Unit: "s", Boundaries: HTTPDurationBuckets}},
	}
	for _, h := range histograms {
		if *h.dst, err = NewHistogram(meter, h.opts); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func outcome(err error) string {
	if err != nil {
		return outcomeError
	}
	return outcomeOK
}

// RecordSearch records one catalog search.
func (m *StorefrontMetrics) RecordSearch(ctx context.Context, d time.Duration, totalHits int64, err error) {
	if m == nil {
		return
	}
	o := AttrOutcome.String(outcome(err))
	m.searchTotal.Inc(ctx, o)
	m.searchDuration.RecordDuration(ctx, d, o)
	if err == nil {
		m.searchResults.Record(ctx, float64(totalHits))
	}
}

// RecordPriceCalculation records one pipeline run for the target currency.
func (m *StorefrontMetrics) RecordPriceCalculation(ctx context.Context, currency string, d time.Duration, err error) {
	if m == nil {
		return
	}
	attrs := []attribute.KeyValue{AttrCurrency.String(currency), AttrOutcome.String(outcome(err))}
	m.priceTotal.Inc(ctx, attrs...)
	m.priceDuration.RecordDuration(ctx, d, attrs...)
}

// RecordDiscountsApplied adds n applied discounts.
func (m *StorefrontMetrics) RecordDiscountsApplied(ctx context.Context, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.discountsApplied.Add(ctx, int64(n))
}

// RecordCurrencyCache records a cache hit or miss on the named backend.
func (m *StorefrontMetrics) RecordCurrencyCache(ctx context.Context, backend string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.currencyCache.Inc(ctx, AttrCache.String(backend), AttrOutcome.String(result))
}

// RecordAllocation records one money allocation.
func (m *StorefrontMetrics) RecordAllocation(ctx context.Context, currency string, err error) {
	if m == nil {
		return
	}
	m.moneyAllocations.Inc(ctx, AttrCurrency.String(currency), AttrOutcome.String(outcome(err)))
}

// RecordExchange records one currency conversion into target.
func (m *StorefrontMetrics) RecordExchange(ctx context.Context, target string, err error) {
	if m == nil {
		return
	}
	m.currencyExchanges.Inc(ctx, AttrCurrency.String(target), AttrOutcome.String(outcome(err)))
}

// RecordHTTPRequest records one served request.
func (m *StorefrontMetrics) RecordHTTPRequest(ctx context.Context, method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	attrs := []attribute.KeyValue{
		AttrHTTPMethod.String(method),
		AttrHTTPRoute.String(route),
		AttrHTTPStatusCode.String(strconv.Itoa(status)),
	}
	m.httpRequests.Inc(ctx, attrs...)
	m.httpDuration.RecordDuration(ctx, d, attrs...)
}

// RegisterDBPoolMetrics exposes sql.DB pool statistics as observable gauges.
func RegisterDBPoolMetrics(meter metric.Meter, db *sql.DB) (metric.Registration, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	conns, err := meter.Int64ObservableGauge("db_pool_connections",
		metric.WithDescription("Connections in the pool by state"),
		metric.WithUnit("{connection}"))
	if err != nil {
		return nil, fmt.Errorf("failed to create gauge db_pool_connections: %w", err)
	}
	maxConns, err := meter.Int64ObservableGauge("db_pool_connections_max",
		metric.WithDescription("Maximum open connections"),
		metric.WithUnit("{connection}"))
	if err != nil {
		return nil, fmt.Errorf("failed to create gauge db_pool_connections_max: %w", err)
	}

	return meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		stats := db.Stats()
		o.ObserveInt64(conns, int64(stats.InUse), metric.WithAttributes(AttrPoolState.String("in_use")))
		o.ObserveInt64(conns, int64(stats.Idle), metric.WithAttributes(AttrPoolState.String("idle")))
		o.ObserveInt64(maxConns, int64(stats.MaxOpenConnections))
		return nil
	}, conns, maxConns)
}
