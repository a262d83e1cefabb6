package orbits

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

const (
	// EarthRotationRate is the average Earth rotation rate in radians per second.
	EarthRotationRate = 7.2921158553e-5
)

// R3R1R3 performs a 3-1-3 Euler parameter rotation, i.e. returns R3(θ3)*R1(θ2)*R3(θ1).
// From Schaub and Junkins.
func R3R1R3(θ1, θ2, θ3 float64) *mat.Dense {
	sθ1, cθ1 := math.Sincos(θ1)
	sθ2, cθ2 := math.Sincos(θ2)
	sθ3, cθ3 := math.Sincos(θ3)
	return mat.NewDense(3, 3, []float64{cθ3*cθ1 - sθ3*cθ2*sθ1, cθ3*sθ1 + sθ3*cθ2*cθ1, sθ3 * sθ2,
		-sθ3*cθ1 - cθ3*cθ2*sθ1, -sθ3*sθ1 + cθ3*cθ2*cθ1, cθ3 * sθ2,
		sθ2 * sθ1, -sθ2 * cθ1, cθ2})
}

// R1 rotation about the 1st axis.
func R1(x float64) *mat.Dense {
	s, c := math.Sincos(x)
	return mat.NewDense(3, 3, []float64{1, 0, 0, 0, c, s, 0, -s, c})
}

// R2 rotation about the 2nd axis.
func R2(x float64) *mat.Dense {
	s, c := math.Sincos(x)
	return mat.NewDense(3, 3, []float64{c, 0, -s, 0, 1, 0, s, 0, c})
}

// R3 rotation about the 3rd axis.
func R3(x float64) *mat.Dense {
	s, c := math.Sincos(x)
	return mat.NewDense(3, 3, []float64{c, s, 0, -s, c, 0, 0, 0, 1})
}

// MxV33 multiplies a matrix with a vector. Note that there is no dimension check!
func MxV33(m mat.Matrix, v []float64) []float64 {
	var rVec mat.VecDense
	rVec.MulVec(m, mat.NewVecDense(len(v), v))
	return []float64{rVec.AtVec(0), rVec.AtVec(1), rVec.AtVec(2)}
}

// PQW2ECI converts a perifocal vector to the inertial frame via the 3-1-3 sequence (Ω, i, ω).
func PQW2ECI(i, ω, Ω float64, v []float64) []float64 {
	return MxV33(R3R1R3(-ω, -i, -Ω), v)
}

// ECI2PQW converts an inertial vector to the perifocal frame.
func ECI2PQW(i, ω, Ω float64, v []float64) []float64 {
	return MxV33(R3R1R3(Ω, i, ω), v)
}

// ECI2SEZ converts an inertial vector to the topocentric South-East-Zenith frame of a site at
// geodetic latitude lat, whose local sidereal time is lst (both in radians).
func ECI2SEZ(lat, lst float64, v []float64) []float64 {
	var dcm mat.Dense
	dcm.Mul(R2(math.Pi/2-lat), R3(lst))
	return MxV33(&dcm, v)
}

// SEZ2ECI converts a topocentric South-East-Zenith vector to the inertial frame.
func SEZ2ECI(lat, lst float64, v []float64) []float64 {
	var dcm mat.Dense
	dcm.Mul(R2(math.Pi/2-lat), R3(lst))
	return MxV33(dcm.T(), v)
}

// ECI2ECEF converts the provided ECI vector to ECEF for the sidereal angle θ given in radians.
func ECI2ECEF(R []float64, θ float64) []float64 {
	return MxV33(R3(θ), R)
}

// ECEF2ECI converts the provided ECEF vector to ECI for the sidereal angle θ given in radians.
func ECEF2ECI(R []float64, θ float64) []float64 {
	return ECI2ECEF(R, -θ)
}
