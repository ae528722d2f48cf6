// Command satroute answers relay-route queries for a static satellite
// constellation described by a scenario file.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/signalsfoundry/constellation-router/core"
	"github.com/signalsfoundry/constellation-router/internal/config"
	"github.com/signalsfoundry/constellation-router/internal/logging"
	"github.com/signalsfoundry/constellation-router/internal/observability"
	"github.com/signalsfoundry/constellation-router/internal/scenario"
	"github.com/signalsfoundry/constellation-router/kb"
	"github.com/signalsfoundry/constellation-router/model"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

const (
	exitOK       = 0
	exitNoRoute  = 1
	exitUsage    = 2
	noRouteLabel = "NO ROUTE"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

// result is one answered route request.
type result struct {
	Index     int                `json:"index"`
	QueryID   string             `json:"query_id"`
	Request   model.RouteRequest `json:"request"`
	Outcome   string             `json:"outcome"`
	Route     []string           `json:"route,omitempty"`
	Hops      int                `json:"hops"`
	Error     string             `json:"error,omitempty"`
	ElapsedNs int64              `json:"elapsed_ns"`

	err error
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("satroute", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "path to a config file (yaml, toml or json); defaults to $SATROUTE_CONFIG")
	asJSON := fs.Bool("json", false, "print results as JSON")
	endpoints := fs.Bool("endpoints", false, "wrap routes in src/dst labels")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: satroute [-config file] [-json] [-endpoints] <scenario>")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return exitUsage
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "satroute: %v\n", err)
		return exitUsage
	}
	cfg.Log.Output = stderr
	log := logging.New(cfg.Log)
	includeEndpoints := cfg.IncludeEndpoints || *endpoints

	shutdownTracing, err := observability.InitTracing(ctx, cfg.Tracing, log)
	if err != nil {
		log.Error(ctx, "failed to initialise tracing", logging.Err(err))
		return exitUsage
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdownTracing, log)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector, err := observability.NewRouterCollector(reg)
	if err != nil {
		log.Error(ctx, "failed to initialise metrics collector", logging.Err(err))
		return exitUsage
	}

	var storeOpts []kb.Option
	storeOpts = append(storeOpts, kb.WithLogger(log))
	if cfg.BroadPhase {
		storeOpts = append(storeOpts, kb.WithBuildOptions(core.WithPairFilter(core.AboveSurface)))
	}
	store := kb.NewStore(storeOpts...)
	unsubscribe := store.Subscribe(func(ev kb.Event) {
		collector.SetConstellation(ev.Satellites, ev.Links)
	})
	defer unsubscribe()

	path := fs.Arg(0)
	sc, err := scenario.Load(path)
	if err != nil {
		log.Error(ctx, "failed to load scenario", logging.String("path", path), logging.Err(err))
		return exitUsage
	}
	log.Info(ctx, "scenario loaded",
		logging.String("path", path),
		logging.String("seed", sc.Seed),
		logging.Int("satellites", len(sc.Satellites)),
		logging.Int("routes", len(sc.Routes)),
	)

	if _, err := store.Load(ctx, sc.Satellites); err != nil {
		log.Error(ctx, "failed to load constellation", logging.Err(err))
		return exitUsage
	}

	results, err := routeAll(ctx, store, sc.Routes, cfg.Parallelism, includeEndpoints, collector, log)
	if err != nil {
		log.Error(ctx, "routing interrupted", logging.Err(err))
		return exitUsage
	}

	if *asJSON {
		err = writeJSON(stdout, results)
	} else {
		err = writeText(stdout, results)
	}
	if err != nil {
		log.Error(ctx, "failed to write results", logging.Err(err))
		return exitUsage
	}

	if cfg.MetricsAddr != "" {
		srv := serveMetrics(cfg.MetricsAddr, collector, log)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}

	return exitCode(results)
}

// routeAll answers every request with at most parallelism queries in
// flight. Results keep request order.
func routeAll(ctx context.Context, store *kb.Store, reqs []model.RouteRequest, parallelism int, includeEndpoints bool, collector *observability.RouterCollector, log logging.Logger) ([]result, error) {
	results := make([]result, len(reqs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)

	for i, req := range reqs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = routeOne(gctx, store, i, req, includeEndpoints, collector, log)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func routeOne(ctx context.Context, store *kb.Store, index int, req model.RouteRequest, includeEndpoints bool, collector *observability.RouterCollector, base logging.Logger) result {
	ctx, log := logging.WithQueryLogger(ctx, base)
	ctx, span := observability.StartSpan(ctx, "satroute.route",
		attribute.Int("route.index", index),
		attribute.Float64("route.src_lat", req.SrcLat),
		attribute.Float64("route.src_lon", req.SrcLon),
		attribute.Float64("route.dst_lat", req.DstLat),
		attribute.Float64("route.dst_lon", req.DstLon),
	)

	start := time.Now()
	route, err := store.Route(ctx, req)
	elapsed := time.Since(start)

	res := result{
		Index:     index,
		QueryID:   logging.QueryIDFromContext(ctx),
		Request:   req,
		Outcome:   core.Outcome(err),
		ElapsedNs: elapsed.Nanoseconds(),
		err:       err,
	}
	if err != nil {
		res.Error = err.Error()
	} else {
		res.Route = route.Labels(includeEndpoints)
		res.Hops = route.Hops()
		span.SetAttributes(attribute.Int("route.hops", res.Hops))
	}
	span.SetAttributes(attribute.String("route.outcome", res.Outcome))
	collector.ObserveQuery(res.Outcome, res.Hops, elapsed)

	if core.IsBusinessFailure(err) {
		// Expected outcome; don't mark the span as failed.
		observability.EndSpan(span, nil)
	} else {
		observability.EndSpan(span, err)
	}
	log.Info(ctx, "route query answered",
		logging.Int("index", index),
		logging.String("outcome", res.Outcome),
		logging.Int("hops", res.Hops),
	)
	return res
}

func writeText(w io.Writer, results []result) error {
	for _, res := range results {
		var line string
		if res.err != nil {
			line = fmt.Sprintf("%s: %s", noRouteLabel, reason(res.err))
		} else {
			line = strings.Join(res.Route, ",")
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func writeJSON(w io.Writer, results []result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}

// reason renders a routing error for the text output.
func reason(err error) string {
	switch {
	case errors.Is(err, core.ErrNoVisibleSatellite):
		if strings.HasPrefix(err.Error(), "destination") {
			return "no satellite visible from destination"
		}
		return "no satellite visible from source"
	case errors.Is(err, core.ErrNoRouteFound):
		return "no line-of-sight path between entry and exit satellites"
	default:
		return err.Error()
	}
}

func exitCode(results []result) int {
	code := exitOK
	for _, res := range results {
		switch {
		case res.err == nil:
		case core.IsBusinessFailure(res.err):
			if code == exitOK {
				code = exitNoRoute
			}
		default:
			code = exitUsage
		}
	}
	return code
}

func serveMetrics(addr string, collector *observability.RouterCollector, log logging.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn(context.Background(), "metrics server exited", logging.Err(err))
		}
	}()

	log.Info(context.Background(), "serving Prometheus metrics until interrupted", logging.String("addr", addr))
	return srv
}
