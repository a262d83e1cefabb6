package orbits

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"
)

const (
	deg2rad = math.Pi / 180
	// zeroε is the threshold under which a vector norm is considered null.
	zeroε = 1e-12
)

// Norm returns the norm of a given vector which is supposed to be 3x1.
func Norm(v []float64) float64 {
	return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}

// Unit returns the unit vector of a given vector, or a null vector if a is null.
func Unit(a []float64) (b []float64) {
	n := Norm(a)
	b = make([]float64, len(a))
	if scalar.EqualWithinAbs(n, 0, zeroε) {
		return
	}
	floats.ScaleTo(b, 1/n, a)
	return
}

// Sign returns the sign of a given number (zero is positive).
func Sign(v float64) float64 {
	if scalar.EqualWithinAbs(v, 0, zeroε) {
		return 1
	}
	return v / math.Abs(v)
}

// Dot performs the inner product.
func Dot(a, b []float64) float64 {
	return floats.Dot(a, b)
}

// Cross performs the cross product.
func Cross(a, b []float64) []float64 {
	return []float64{a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0]}
}

// add returns a+b in a new slice.
func add(a, b []float64) []float64 {
	dst := make([]float64, len(a))
	floats.AddTo(dst, a, b)
	return dst
}

// sub returns a-b in a new slice.
func sub(a, b []float64) []float64 {
	dst := make([]float64, len(a))
	floats.SubTo(dst, a, b)
	return dst
}

// scale returns f*a in a new slice.
func scale(f float64, a []float64) []float64 {
	dst := make([]float64, len(a))
	floats.ScaleTo(dst, f, a)
	return dst
}

// finite returns whether all the provided values are finite.
func finite(vals ...float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// angleAbout returns the angle in [0, 2π) from a to b, measured positively about axis.
// Both a and b are expected to be orthogonal to axis.
func angleAbout(a, b, axis []float64) float64 {
	return normalizeAngle(math.Atan2(Dot(Cross(a, b), axis), Dot(a, b)))
}

// normalizeAngle returns the angle in [0, 2π).
func normalizeAngle(θ float64) float64 {
	θ = math.Mod(θ, 2*math.Pi)
	if θ < 0 {
		θ += 2 * math.Pi
	}
	return θ
}

// wrapAngle returns the angle in (-π, π].
func wrapAngle(θ float64) float64 {
	θ = normalizeAngle(θ)
	if θ > math.Pi {
		θ -= 2 * math.Pi
	}
	return θ
}

// Spherical2Cartesian returns the provided spherical coordinates vector [r, θ, φ] in Cartesian,
// where θ is the colatitude and φ the azimuth.
func Spherical2Cartesian(a []float64) (b []float64) {
	b = make([]float64, 3)
	sθ, cθ := math.Sincos(a[1])
	sφ, cφ := math.Sincos(a[2])
	b[0] = a[0] * sθ * cφ
	b[1] = a[0] * sθ * sφ
	b[2] = a[0] * cθ
	return
}

// Cartesian2Spherical returns the provided Cartesian coordinates vector in spherical.
func Cartesian2Spherical(a []float64) (b []float64) {
	b = make([]float64, 3)
	if Norm(a) == 0 {
		return
	}
	b[0] = Norm(a)
	b[1] = math.Acos(a[2] / b[0])
	b[2] = math.Atan2(a[1], a[0])
	return
}

// Deg2rad converts degrees to radians, and enforced only positive numbers.
func Deg2rad(a float64) float64 {
	return normalizeAngle(a * deg2rad)
}

// Rad2deg converts radians to degrees, and enforced only positive numbers.
func Rad2deg(a float64) float64 {
	return normalizeAngle(a) / deg2rad
}
