// Package kb holds the current constellation snapshot that route queries
// run against.
package kb

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/signalsfoundry/constellation-router/core"
	"github.com/signalsfoundry/constellation-router/internal/logging"
	"github.com/signalsfoundry/constellation-router/model"
)

// ErrNoSnapshot is returned when routing before any constellation is loaded.
var ErrNoSnapshot = errors.New("no constellation loaded")

// EventType indicates what kind of change happened in the store.
type EventType int

const (
	EventSnapshotReplaced EventType = iota
)

// Event is emitted to subscribers after a new snapshot is published.
type Event struct {
	Type       EventType
	Version    uint64
	Satellites int
	Links      int
}

// Snapshot is an immutable constellation together with its fully built
// connectivity graph.
type Snapshot struct {
	Version uint64
	Router  *core.Router
}

// Constellation returns the snapshot's satellites.
func (s *Snapshot) Constellation() *core.Constellation { return s.Router.Constellation() }

// Graph returns the snapshot's connectivity graph.
func (s *Snapshot) Graph() *core.ConnectivityGraph { return s.Router.Graph() }

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store's logger.
func WithLogger(l logging.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// WithBuildOptions passes graph build options to every snapshot build.
func WithBuildOptions(opts ...core.BuildOption) Option {
	return func(s *Store) { s.buildOpts = append(s.buildOpts, opts...) }
}

// Store is a thread-safe holder of the current Snapshot. Loading builds a
// new snapshot completely before it is published, so readers only ever
// see finished graphs.
type Store struct {
	mu sync.RWMutex

	current   *Snapshot
	version   uint64
	buildOpts []core.BuildOption
	log       logging.Logger

	subs map[int]func(Event)
	next int
}

// NewStore constructs an empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		log:  logging.Noop(),
		subs: make(map[int]func(Event)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load validates the records, builds a new snapshot and publishes it.
// On error the previous snapshot stays in place.
func (s *Store) Load(ctx context.Context, records []model.SatelliteRecord) (*Snapshot, error) {
	c, err := core.ConstellationFromRecords(records)
	if err != nil {
		s.log.Warn(ctx, "rejected constellation", logging.Int("records", len(records)), logging.Err(err))
		return nil, fmt.Errorf("load constellation: %w", err)
	}
	router := core.NewRouter(c, s.buildOpts...)

	s.mu.Lock()
	s.version++
	snap := &Snapshot{Version: s.version, Router: router}
	s.current = snap
	subs := make([]func(Event), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	event := Event{
		Type:       EventSnapshotReplaced,
		Version:    snap.Version,
		Satellites: c.Len(),
		Links:      router.Graph().EdgeCount(),
	}
	s.log.Info(ctx, "constellation loaded",
		logging.Any("version", snap.Version),
		logging.Int("satellites", event.Satellites),
		logging.Int("links", event.Links),
	)

	// Notify subscribers outside the lock to avoid deadlocks.
	for _, fn := range subs {
		fn(event)
	}
	return snap, nil
}

// Snapshot returns the current snapshot, or nil before the first Load.
func (s *Store) Snapshot() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Route answers a query against the current snapshot.
func (s *Store) Route(ctx context.Context, req model.RouteRequest) (*core.Route, error) {
	snap := s.Snapshot()
	if snap == nil {
		return nil, ErrNoSnapshot
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	log := logging.FromContext(ctx)
	route, err := snap.Router.Route(req)
	if err != nil {
		log.Debug(ctx, "route query failed",
			logging.Any("version", snap.Version),
			logging.String("outcome", core.Outcome(err)),
			logging.Err(err),
		)
		return nil, err
	}
	log.Debug(ctx, "route query resolved",
		logging.Any("version", snap.Version),
		logging.Strings("satellites", route.Satellites),
	)
	return route, nil
}

// Subscribe registers a callback for store events. It returns an
// unsubscribe function.
func (s *Store) Subscribe(fn func(Event)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.next
	s.next++
	s.subs[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}
