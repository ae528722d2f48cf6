package core

import "math"

// IsVisible reports whether a and b have line of sight: the perpendicular
// distance from the Earth's centre to the line through both nodes must be
// strictly greater than EarthRadiusKm. Grazing the surface counts as blocked.
// Coincident nodes always see each other.
func IsVisible(a, b Node) bool {
	// Evaluate in a fixed operand order so the result is exactly symmetric.
	if nodeLess(b, a) {
		a, b = b, a
	}

	d := a.DistanceTo(b)
	if d == 0 {
		return true
	}

	// Law of cosines in the triangle (centre, a, b): foot is the distance
	// from a to the foot of the perpendicular dropped from the centre.
	foot := (d*d + a.radius*a.radius - b.radius*b.radius) / (2 * d)
	p2 := a.radius*a.radius - foot*foot
	if p2 < 0 {
		p2 = 0
	}
	return math.Sqrt(p2) > EarthRadiusKm
}

// ElevationDegrees returns the elevation of sat above the local horizontal
// plane at ground, in degrees. 0° is the geometric horizon, 90° overhead.
// ground is assumed to lie on the Earth's surface.
func ElevationDegrees(ground, sat Node) float64 {
	d := ground.DistanceTo(sat)
	if d == 0 {
		return 90
	}

	sinEl := (sat.radius*sat.radius - d*d - EarthRadiusKm*EarthRadiusKm) / (2 * d * EarthRadiusKm)
	if sinEl > 1 {
		sinEl = 1
	} else if sinEl < -1 {
		sinEl = -1
	}
	return math.Asin(sinEl) * 180.0 / math.Pi
}

func nodeLess(a, b Node) bool {
	switch {
	case a.radius != b.radius:
		return a.radius < b.radius
	case a.position.X != b.position.X:
		return a.position.X < b.position.X
	case a.position.Y != b.position.Y:
		return a.position.Y < b.position.Y
	default:
		return a.position.Z < b.position.Z
	}
}
