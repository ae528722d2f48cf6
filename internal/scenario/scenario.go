// Package scenario reads constellation scenarios: the satellites to load
// and the route requests to answer against them.
//
// The line format is
//
//	#SEED: 0.4213
//	SAT0,-12.5,33.1,612.0
//	ROUTE,10.2,-40.1,-3.7,120.9
//
// Other lines starting with '#' are comments. JSON and TOML files carry the
// same content as objects, and may also list two-line element sets that
// are propagated to a single epoch and appended to the satellites.
package scenario

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/signalsfoundry/constellation-router/core"
	"github.com/signalsfoundry/constellation-router/model"
)

var (
	ErrMalformedLine = errors.New("malformed scenario line")
	ErrMissingRoute  = errors.New("scenario has no route request")
	ErrMissingEpoch  = errors.New("scenario lists TLEs without an epoch")
)

const (
	seedPrefix  = "#SEED:"
	routePrefix = "ROUTE"
)

// Scenario is one parsed input file.
type Scenario struct {
	Seed       string                  `json:"seed,omitempty" toml:"seed"`
	Satellites []model.SatelliteRecord `json:"satellites" toml:"satellites"`
	Routes     []model.RouteRequest    `json:"routes" toml:"routes"`

	// Epoch is the instant every TLE is propagated to.
	Epoch time.Time `json:"epoch,omitzero" toml:"epoch"`
	TLEs  []TLE     `json:"tles,omitempty" toml:"tles"`
}

// TLE is a satellite given by its two-line element set.
type TLE struct {
	ID    string `json:"id" toml:"id"`
	Line1 string `json:"line1" toml:"line1"`
	Line2 string `json:"line2" toml:"line2"`
}

// resolveTLEs turns every TLE into a satellite record at Epoch.
func (s *Scenario) resolveTLEs() error {
	if len(s.TLEs) == 0 {
		return nil
	}
	if s.Epoch.IsZero() {
		return ErrMissingEpoch
	}
	for _, tle := range s.TLEs {
		rec, err := core.SnapshotFromTLE(tle.ID, tle.Line1, tle.Line2, s.Epoch)
		if err != nil {
			return err
		}
		s.Satellites = append(s.Satellites, rec)
	}
	s.TLEs = nil
	return nil
}

// Validate checks every record and request and that at least one route
// is requested.
func (s *Scenario) Validate() error {
	for _, rec := range s.Satellites {
		if err := rec.Validate(); err != nil {
			return err
		}
	}
	if len(s.Routes) == 0 {
		return ErrMissingRoute
	}
	for i, req := range s.Routes {
		if err := req.Validate(); err != nil {
			return fmt.Errorf("route %d: %w", i, err)
		}
	}
	return nil
}

// Parse reads the line format from r.
func Parse(r io.Reader) (*Scenario, error) {
	sc := &Scenario{}
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case strings.HasPrefix(line, seedPrefix):
			sc.Seed = strings.TrimSpace(strings.TrimPrefix(line, seedPrefix))
			continue
		case strings.HasPrefix(line, "#"):
			continue
		}

		fields := strings.Split(line, ",")
		for i := range fields {
			fields[i] = strings.TrimSpace(fields[i])
		}

		if fields[0] == routePrefix {
			req, err := parseRoute(fields[1:])
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedLine, lineNo, err)
			}
			if err := req.Validate(); err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			sc.Routes = append(sc.Routes, req)
			continue
		}

		rec, err := parseSatellite(fields)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedLine, lineNo, err)
		}
		if err := rec.Validate(); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		sc.Satellites = append(sc.Satellites, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	if len(sc.Routes) == 0 {
		return nil, ErrMissingRoute
	}
	return sc, nil
}

func parseSatellite(fields []string) (model.SatelliteRecord, error) {
	if len(fields) != 4 {
		return model.SatelliteRecord{}, fmt.Errorf("satellite needs id,lat,lon,alt; got %d fields", len(fields))
	}
	vals, err := parseFloats(fields[1:])
	if err != nil {
		return model.SatelliteRecord{}, err
	}
	return model.SatelliteRecord{
		ID:         fields[0],
		Latitude:   vals[0],
		Longitude:  vals[1],
		AltitudeKm: vals[2],
	}, nil
}

func parseRoute(fields []string) (model.RouteRequest, error) {
	if len(fields) != 4 {
		return model.RouteRequest{}, fmt.Errorf("route needs lat1,lon1,lat2,lon2; got %d fields", len(fields))
	}
	vals, err := parseFloats(fields)
	if err != nil {
		return model.RouteRequest{}, err
	}
	return model.RouteRequest{SrcLat: vals[0], SrcLon: vals[1], DstLat: vals[2], DstLon: vals[3]}, nil
}

func parseFloats(fields []string) ([]float64, error) {
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("field %q is not a number", f)
		}
		out[i] = v
	}
	return out, nil
}

// ParseJSON decodes a scenario object from r.
func ParseJSON(r io.Reader) (*Scenario, error) {
	var sc Scenario
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&sc); err != nil {
		return nil, fmt.Errorf("decode scenario json: %w", err)
	}
	if err := sc.resolveTLEs(); err != nil {
		return nil, err
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// ParseTOML decodes a scenario document from r.
func ParseTOML(r io.Reader) (*Scenario, error) {
	var sc Scenario
	md, err := toml.NewDecoder(r).Decode(&sc)
	if err != nil {
		return nil, fmt.Errorf("decode scenario toml: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("decode scenario toml: unknown key %s", undecoded[0])
	}
	if err := sc.resolveTLEs(); err != nil {
		return nil, err
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// Load opens path and picks the decoder by extension: .json, .toml, and
// the line format for anything else.
func Load(path string) (*Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return ParseJSON(f)
	case ".toml":
		return ParseTOML(f)
	default:
		return Parse(f)
	}
}
