package model

import (
	"errors"
	"math"
	"testing"
)

func TestSatelliteRecordValidate(t *testing.T) {
	cases := []struct {
		name    string
		rec     SatelliteRecord
		wantErr bool
	}{
		{"valid", SatelliteRecord{ID: "SAT0", Latitude: 12.5, Longitude: -170, AltitudeKm: 550}, false},
		{"empty id", SatelliteRecord{Latitude: 0, Longitude: 0, AltitudeKm: 550}, true},
		{"latitude too high", SatelliteRecord{ID: "SAT1", Latitude: 90.5, AltitudeKm: 550}, true},
		{"longitude too low", SatelliteRecord{ID: "SAT2", Longitude: -180.1, AltitudeKm: 550}, true},
		{"negative altitude", SatelliteRecord{ID: "SAT3", AltitudeKm: -1}, true},
		{"nan altitude", SatelliteRecord{ID: "SAT4", AltitudeKm: math.NaN()}, true},
	}
	for _, tc := range cases {
		err := tc.rec.Validate()
		if tc.wantErr {
			if !errors.Is(err, ErrInvalidRecord) {
				t.Errorf("%s: Validate() = %v, want ErrInvalidRecord", tc.name, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s: Validate() unexpected error: %v", tc.name, err)
		}
	}
}

func TestRouteRequestValidate(t *testing.T) {
	ok := RouteRequest{SrcLat: 82.26, SrcLon: 3.79, DstLat: -68.05, DstLon: -94.72}
	if err := ok.Validate(); err != nil {
		t.Fatalf("Validate() unexpected error: %v", err)
	}

	bad := RouteRequest{SrcLat: 10, SrcLon: 10, DstLat: -91, DstLon: 0}
	if err := bad.Validate(); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("Validate() = %v, want ErrInvalidRequest", err)
	}
}
