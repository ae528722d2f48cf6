package core

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// EarthRadiusKm is the mean Earth radius used for every position,
// visibility and elevation calculation (kilometres). Visibility decisions
// near the tangency boundary depend on this exact value.
const EarthRadiusKm = 6371.0

// Vec3 is an Earth-centred Cartesian vector in kilometres.
type Vec3 struct {
	X, Y, Z float64
}

func (v Vec3) r3() r3.Vec { return r3.Vec{X: v.X, Y: v.Y, Z: v.Z} }

// DistanceTo returns the straight-line distance between two points.
func (v Vec3) DistanceTo(other Vec3) float64 {
	return r3.Norm(r3.Sub(v.r3(), other.r3()))
}

// Norm returns the Euclidean norm of the vector.
func (v Vec3) Norm() float64 {
	return r3.Norm(v.r3())
}

// ToCartesian maps geographic coordinates (degrees, kilometres above the
// mean surface) onto a sphere of radius EarthRadiusKm+altKm centred on the
// origin. Latitude and longitude are not range checked.
func ToCartesian(latDeg, lonDeg, altKm float64) Vec3 {
	lat := latDeg * math.Pi / 180.0
	lon := lonDeg * math.Pi / 180.0
	r := EarthRadiusKm + altKm

	return Vec3{
		X: r * math.Cos(lat) * math.Cos(lon),
		Y: r * math.Cos(lat) * math.Sin(lon),
		Z: r * math.Sin(lat),
	}
}
