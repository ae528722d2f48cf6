package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

func TestObserveQueryRecordsOutcomeAndHops(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewRouterCollector(reg)
	if err != nil {
		t.Fatalf("NewRouterCollector: %v", err)
	}

	collector.ObserveQuery("ok", 4, 2*time.Millisecond)
	collector.ObserveQuery("no_route", 0, time.Millisecond)
	collector.ObserveQuery("no_route", 0, time.Millisecond)

	if got := testutil.ToFloat64(collector.Queries.WithLabelValues("ok")); got != 1 {
		t.Fatalf("route_queries_total{outcome=ok} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(collector.Queries.WithLabelValues("no_route")); got != 2 {
		t.Fatalf("route_queries_total{outcome=no_route} = %v, want 2", got)
	}
	if count := histogramSampleCount(t, reg, "route_query_duration_seconds"); count != 3 {
		t.Fatalf("route_query_duration_seconds sample_count = %d, want 3", count)
	}
	if count := histogramSampleCount(t, reg, "route_hops"); count != 1 {
		t.Fatalf("route_hops sample_count = %d, want 1", count)
	}
}

func TestNewRouterCollectorReusesRegistered(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewRouterCollector(reg)
	if err != nil {
		t.Fatalf("NewRouterCollector: %v", err)
	}
	second, err := NewRouterCollector(reg)
	if err != nil {
		t.Fatalf("second NewRouterCollector: %v", err)
	}

	first.ObserveQuery("ok", 1, time.Millisecond)
	if got := testutil.ToFloat64(second.Queries.WithLabelValues("ok")); got != 1 {
		t.Fatalf("second collector sees %v queries, want 1", got)
	}
}

func TestMetricsHandlerExposesConstellationGauges(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewRouterCollector(reg)
	if err != nil {
		t.Fatalf("NewRouterCollector: %v", err)
	}
	collector.SetConstellation(20, 37)
	collector.ObserveQuery("ok", 3, time.Millisecond)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	collector.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("/metrics status = %d, want 200", rr.Code)
	}
	body := rr.Body.String()
	for _, want := range []string{
		"route_queries_total",
		"route_query_duration_seconds",
		"route_hops",
		"constellation_satellites 20",
		"constellation_links 37",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in /metrics output:\n%s", want, body)
		}
	}
}

func TestNilCollectorIsSafe(t *testing.T) {
	var c *RouterCollector
	c.ObserveQuery("ok", 1, time.Millisecond)
	c.SetConstellation(1, 1)
}

func histogramSampleCount(t *testing.T, gatherer prometheus.Gatherer, name string) uint64 {
	t.Helper()

	metrics, err := gatherer.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	for _, mf := range metrics {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.Metric {
			if h := histogramOf(m); h != nil {
				return h.GetSampleCount()
			}
		}
	}
	return 0
}

func histogramOf(m *dto.Metric) *dto.Histogram {
	if m == nil {
		return nil
	}
	return m.GetHistogram()
}
