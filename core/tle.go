package core

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"

	"github.com/signalsfoundry/constellation-router/model"
)

// ErrInvalidTLE is returned for malformed two-line element sets.
var ErrInvalidTLE = errors.New("invalid TLE")

const tleLineLength = 69

// SnapshotFromTLE propagates a two-line element set with SGP4 to a single
// instant and returns the satellite's position there as a record. The
// position is a fixed snapshot; nothing is stepped over time.
//
// The ECEF position is inverted onto the same sphere ToCartesian uses, so
// NodeFromRecord reproduces it exactly.
func SnapshotFromTLE(id, line1, line2 string, at time.Time) (model.SatelliteRecord, error) {
	line1 = strings.TrimRight(line1, " \r\n")
	line2 = strings.TrimRight(line2, " \r\n")
	if err := checkTLE(line1, line2); err != nil {
		return model.SatelliteRecord{}, fmt.Errorf("%w: %q: %v", ErrInvalidTLE, id, err)
	}

	sat := satellite.TLEToSat(line1, line2, satellite.GravityWGS72)

	at = at.UTC()
	year, month, day := at.Date()
	hour, min, sec := at.Clock()
	posECI, _ := satellite.Propagate(sat, year, int(month), day, hour, min, sec)
	gmst := satellite.ThetaG_JD(satellite.JDay(year, int(month), day, hour, min, sec))
	ecef := satellite.ECIToECEF(posECI, gmst)

	r := math.Sqrt(ecef.X*ecef.X + ecef.Y*ecef.Y + ecef.Z*ecef.Z)
	if math.IsNaN(r) || r <= EarthRadiusKm {
		return model.SatelliteRecord{}, fmt.Errorf("%w: %q: propagation produced radius %v km", ErrInvalidTLE, id, r)
	}

	return model.SatelliteRecord{
		ID:         id,
		Latitude:   math.Asin(ecef.Z/r) * 180.0 / math.Pi,
		Longitude:  math.Atan2(ecef.Y, ecef.X) * 180.0 / math.Pi,
		AltitudeKm: r - EarthRadiusKm,
	}, nil
}

// checkTLE does the structural checks needed before handing the lines to
// the SGP4 parser, which does not report errors itself.
func checkTLE(line1, line2 string) error {
	if len(line1) < tleLineLength || len(line2) < tleLineLength {
		return fmt.Errorf("lines must be %d characters", tleLineLength)
	}
	if !strings.HasPrefix(line1, "1 ") || !strings.HasPrefix(line2, "2 ") {
		return errors.New("line numbers must be 1 and 2")
	}
	if strings.TrimSpace(line1[2:7]) != strings.TrimSpace(line2[2:7]) {
		return fmt.Errorf("catalog numbers differ: %q vs %q", line1[2:7], line2[2:7])
	}
	return nil
}
