package observability

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterCollector bundles the Prometheus metrics for route queries and the
// loaded constellation.
type RouterCollector struct {
	gatherer prometheus.Gatherer

	Queries       *prometheus.CounterVec
	QueryDuration prometheus.Histogram
	RouteHops     prometheus.Histogram

	Satellites prometheus.Gauge
	Links      prometheus.Gauge
}

// NewRouterCollector registers the router metrics against reg, defaulting
// to the global Prometheus registry when nil. Registering twice against
// the same registry reuses the existing collectors.
func NewRouterCollector(reg prometheus.Registerer) (*RouterCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	queries, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "route_queries_total",
		Help: "Total number of route queries, labeled by outcome.",
	}, []string{"outcome"}), "route_queries_total")
	if err != nil {
		return nil, err
	}

	duration, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "route_query_duration_seconds",
		Help:    "Route query latency in seconds.",
		Buckets: []float64{0.00001, 0.0001, 0.001, 0.01, 0.1, 1},
	}), "route_query_duration_seconds")
	if err != nil {
		return nil, err
	}

	hops, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "route_hops",
		Help:    "Inter-satellite hops on successful routes.",
		Buckets: prometheus.LinearBuckets(0, 1, 16),
	}), "route_hops")
	if err != nil {
		return nil, err
	}

	satellites, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "constellation_satellites",
		Help: "Number of satellites in the current constellation snapshot.",
	}), "constellation_satellites")
	if err != nil {
		return nil, err
	}
	links, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "constellation_links",
		Help: "Number of line-of-sight links in the current connectivity graph.",
	}), "constellation_links")
	if err != nil {
		return nil, err
	}

	return &RouterCollector{
		gatherer:      gatherer,
		Queries:       queries,
		QueryDuration: duration,
		RouteHops:     hops,
		Satellites:    satellites,
		Links:         links,
	}, nil
}

// ObserveQuery records one route query. hops is only recorded for the
// "ok" outcome.
func (c *RouterCollector) ObserveQuery(outcome string, hops int, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.Queries.WithLabelValues(outcome).Inc()
	c.QueryDuration.Observe(elapsed.Seconds())
	if outcome == "ok" {
		c.RouteHops.Observe(float64(hops))
	}
}

// SetConstellation updates the snapshot gauges.
func (c *RouterCollector) SetConstellation(satellites, links int) {
	if c == nil {
		return
	}
	c.Satellites.Set(float64(satellites))
	c.Links.Set(float64(links))
}

// Handler exposes a ready-to-use /metrics handler.
func (c *RouterCollector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogram(reg prometheus.Registerer, h prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(h); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return h, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
