package orbits

import (
	"math"
)

// VisViva returns the speed at radius r on an orbit of semi-major axis a (which may be infinite).
func VisViva(r, a, μ float64) float64 {
	if math.IsInf(a, 0) {
		return EscapeSpeed(r, μ)
	}
	return math.Sqrt(μ * (2/r - 1/a))
}

// CircularSpeed returns the speed of a circular orbit of radius r.
func CircularSpeed(r, μ float64) float64 {
	return math.Sqrt(μ / r)
}

// EscapeSpeed returns the speed on a parabolic trajectory at radius r.
func EscapeSpeed(r, μ float64) float64 {
	return math.Sqrt(2 * μ / r)
}

// HyperbolicExcessSpeed returns v∞ of a hyperbola of semi-major axis a < 0.
func HyperbolicExcessSpeed(a, μ float64) float64 {
	return math.Sqrt(-μ / a)
}

// TurningAngle returns the angle between the asymptotes of a hyperbola of eccentricity e.
func TurningAngle(e float64) float64 {
	return 2 * math.Asin(1/e)
}

// InclinationFromLaunch returns the inclination reached by a launch from latitude lat
// at azimuth az, both in radians.
func InclinationFromLaunch(lat, az float64) float64 {
	return math.Acos(math.Sin(az) * math.Cos(lat))
}

// TimeOfFlight returns the time in seconds to travel from ν1 to ν2 (radians) along a conic of
// eccentricity e and semi-parameter p. Motion is always forward: on closed orbits, ν2 < ν1
// means the next crossing of ν2.
// The returned value is NaN if ν2 cannot be reached on an open orbit.
func TimeOfFlight(e, p, ν1, ν2, μ float64) float64 {
	switch {
	case e < 1:
		a := p / (1 - e*e)
		n := math.Sqrt(μ / math.Pow(a, 3))
		ΔM := normalizeAngle(MeanFromTrue(ν2, e) - MeanFromTrue(ν1, e))
		return ΔM / n
	default:
		ν1, ν2 = wrapAngle(ν1), wrapAngle(ν2)
		if e > 1 {
			νInf := math.Acos(-1 / e)
			if math.Abs(ν1) >= νInf || math.Abs(ν2) >= νInf || ν2 < ν1 {
				return math.NaN()
			}
			a := p / (1 - e*e)
			n := math.Sqrt(μ / -math.Pow(a, 3))
			return (MeanFromTrue(ν2, e) - MeanFromTrue(ν1, e)) / n
		}
		if math.Abs(ν1) >= math.Pi || math.Abs(ν2) >= math.Pi || ν2 < ν1 {
			return math.NaN()
		}
		n := 2 * math.Sqrt(μ/math.Pow(p, 3))
		return (MeanFromTrue(ν2, e) - MeanFromTrue(ν1, e)) / n
	}
}
