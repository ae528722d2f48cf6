package model

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInvalidRecord is returned when a satellite record fails validation.
	ErrInvalidRecord = errors.New("invalid satellite record")
	// ErrInvalidRequest is returned when a route request fails validation.
	ErrInvalidRequest = errors.New("invalid route request")
)

// SatelliteRecord is a single satellite as produced by an input parser.
// Latitude and longitude are in degrees; altitude is kilometres above the
// Earth's mean surface.
type SatelliteRecord struct {
	ID         string  `json:"id" toml:"id"`
	Latitude   float64 `json:"latitude" toml:"latitude"`
	Longitude  float64 `json:"longitude" toml:"longitude"`
	AltitudeKm float64 `json:"altitude_km" toml:"altitude_km"`
}

// Validate checks the identifier and coordinate ranges.
func (r SatelliteRecord) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidRecord)
	}
	if err := checkCoordinate(r.Latitude, r.Longitude); err != nil {
		return fmt.Errorf("%w: %q: %v", ErrInvalidRecord, r.ID, err)
	}
	if math.IsNaN(r.AltitudeKm) || math.IsInf(r.AltitudeKm, 0) || r.AltitudeKm < 0 {
		return fmt.Errorf("%w: %q: altitude %v must be a non-negative number", ErrInvalidRecord, r.ID, r.AltitudeKm)
	}
	return nil
}

// RouteRequest asks for a relay path between two ground points.
type RouteRequest struct {
	SrcLat float64 `json:"src_lat" toml:"src_lat"`
	SrcLon float64 `json:"src_lon" toml:"src_lon"`
	DstLat float64 `json:"dst_lat" toml:"dst_lat"`
	DstLon float64 `json:"dst_lon" toml:"dst_lon"`
}

// Validate checks both endpoints' coordinate ranges.
func (r RouteRequest) Validate() error {
	if err := checkCoordinate(r.SrcLat, r.SrcLon); err != nil {
		return fmt.Errorf("%w: source: %v", ErrInvalidRequest, err)
	}
	if err := checkCoordinate(r.DstLat, r.DstLon); err != nil {
		return fmt.Errorf("%w: destination: %v", ErrInvalidRequest, err)
	}
	return nil
}

func checkCoordinate(lat, lon float64) error {
	if math.IsNaN(lat) || lat < -90 || lat > 90 {
		return fmt.Errorf("latitude %v out of range [-90, 90]", lat)
	}
	if math.IsNaN(lon) || lon < -180 || lon > 180 {
		return fmt.Errorf("longitude %v out of range [-180, 180]", lon)
	}
	return nil
}
