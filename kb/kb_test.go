package kb

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/signalsfoundry/constellation-router/core"
	"github.com/signalsfoundry/constellation-router/model"
)

func diamondRecords() []model.SatelliteRecord {
	return []model.SatelliteRecord{
		{ID: "alpha", Latitude: 0, Longitude: 0, AltitudeKm: 1000},
		{ID: "bravo", Latitude: 20, Longitude: 45, AltitudeKm: 1000},
		{ID: "charlie", Latitude: -20, Longitude: 45, AltitudeKm: 1000},
		{ID: "delta", Latitude: 0, Longitude: 90, AltitudeKm: 1000},
	}
}

func TestLoadPublishesSnapshot(t *testing.T) {
	store := NewStore(WithBuildOptions(core.WithPairFilter(core.AboveSurface)))
	if store.Snapshot() != nil {
		t.Fatalf("expected no snapshot before Load")
	}

	snap, err := store.Load(context.Background(), diamondRecords())
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if snap.Version != 1 {
		t.Fatalf("Version = %d, want 1", snap.Version)
	}
	if store.Snapshot() != snap {
		t.Fatalf("Snapshot() did not return the loaded snapshot")
	}
	if snap.Constellation().Len() != 4 || snap.Graph().EdgeCount() != 5 {
		t.Fatalf("snapshot has %d satellites / %d links, want 4 / 5",
			snap.Constellation().Len(), snap.Graph().EdgeCount())
	}
}

func TestLoadRejectsInvalidRecordsAndKeepsPrevious(t *testing.T) {
	store := NewStore()
	first, err := store.Load(context.Background(), diamondRecords())
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	dup := append(diamondRecords(), model.SatelliteRecord{ID: "alpha", AltitudeKm: 500})
	if _, err := store.Load(context.Background(), dup); !errors.Is(err, core.ErrDuplicateNode) {
		t.Fatalf("duplicate Load err = %v, want ErrDuplicateNode", err)
	}
	bad := []model.SatelliteRecord{{ID: "x", Latitude: 120}}
	if _, err := store.Load(context.Background(), bad); !errors.Is(err, model.ErrInvalidRecord) {
		t.Fatalf("invalid Load err = %v, want ErrInvalidRecord", err)
	}
	if store.Snapshot() != first {
		t.Fatalf("failed Load replaced the snapshot")
	}
}

func TestRoute(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	if _, err := store.Route(ctx, model.RouteRequest{}); !errors.Is(err, ErrNoSnapshot) {
		t.Fatalf("Route before Load err = %v, want ErrNoSnapshot", err)
	}
	if _, err := store.Load(ctx, diamondRecords()); err != nil {
		t.Fatalf("Load error: %v", err)
	}

	route, err := store.Route(ctx, model.RouteRequest{SrcLat: 0, SrcLon: 0, DstLat: 0, DstLon: 90})
	if err != nil {
		t.Fatalf("Route error: %v", err)
	}
	if got := route.Satellites; len(got) != 3 || got[0] != "alpha" || got[1] != "bravo" || got[2] != "delta" {
		t.Fatalf("Satellites = %v, want [alpha bravo delta]", got)
	}

	if _, err := store.Route(ctx, model.RouteRequest{SrcLat: 95}); !errors.Is(err, model.ErrInvalidRequest) {
		t.Fatalf("invalid request err = %v, want ErrInvalidRequest", err)
	}
}

func TestSubscribeAndUnsubscribe(t *testing.T) {
	store := NewStore()

	var got []Event
	unsubscribe := store.Subscribe(func(e Event) { got = append(got, e) })

	if _, err := store.Load(context.Background(), diamondRecords()); err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d events, want 1", len(got))
	}
	if got[0].Type != EventSnapshotReplaced || got[0].Satellites != 4 || got[0].Links != 5 || got[0].Version != 1 {
		t.Fatalf("unexpected event %+v", got[0])
	}

	unsubscribe()
	if _, err := store.Load(context.Background(), diamondRecords()); err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d events after unsubscribe, want 1", len(got))
	}
}

func TestConcurrentLoadAndRoute(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	if _, err := store.Load(ctx, diamondRecords()); err != nil {
		t.Fatalf("Load error: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			if _, err := store.Route(ctx, model.RouteRequest{SrcLat: 0, SrcLon: 0, DstLat: 0, DstLon: 90}); err != nil {
				t.Errorf("Route error: %v", err)
			}
		}()
		go func() {
			defer wg.Done()
			if _, err := store.Load(ctx, diamondRecords()); err != nil {
				t.Errorf("Load error: %v", err)
			}
		}()
	}
	wg.Wait()

	if v := store.Snapshot().Version; v != 11 {
		t.Fatalf("Version = %d, want 11", v)
	}
}
