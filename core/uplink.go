package core

import "fmt"

// ResolveUplink picks the entry/exit satellite for a ground point: among
// satellites at or above the local horizon (elevation >= 0°) it returns the
// one closest to the ground point. Distance ties go to the smaller ID.
//
// ground must lie on the Earth's surface; anything else is a caller bug and
// yields ErrInvalidGroundPoint.
func ResolveUplink(ground Node, satellites []Node) (string, error) {
	if !ground.OnSurface() {
		return "", fmt.Errorf("%w: %q at radius %.6f km", ErrInvalidGroundPoint, ground.id, ground.position.Norm())
	}

	best := ""
	bestDist := 0.0
	for _, sat := range satellites {
		if ElevationDegrees(ground, sat) < 0 {
			continue
		}
		d := ground.DistanceTo(sat)
		if best == "" || d < bestDist || (d == bestDist && sat.id < best) {
			best = sat.id
			bestDist = d
		}
	}
	if best == "" {
		return "", fmt.Errorf("%w: ground point %q (%.4f, %.4f)", ErrNoVisibleSatellite, ground.id, ground.latitude, ground.longitude)
	}
	return best, nil
}
