package orbits

import (
	"math"
	"time"

	"github.com/pkg/errors"
	"github.com/soniakeys/meeus/v3/julian"
	"github.com/soniakeys/meeus/v3/moonposition"
	"github.com/soniakeys/meeus/v3/nutation"
	"github.com/soniakeys/meeus/v3/solar"
)

// Perturbation returns a perturbing acceleration in km/s^2, in the inertial frame of the state.
// It must be a pure function of the state (whose epoch is s.DT) and of the central body.
type Perturbation interface {
	Accel(s StateVector, body CelestialObject) []float64
}

// PerturbationFunc adapts an arbitrary function to a Perturbation.
type PerturbationFunc func(s StateVector, body CelestialObject) []float64

// Accel implements the Perturbation interface.
func (f PerturbationFunc) Accel(s StateVector, body CelestialObject) []float64 {
	return f(s, body)
}

// Perturbations sums all of its perturbations.
type Perturbations []Perturbation

// Accel implements the Perturbation interface.
func (p Perturbations) Accel(s StateVector, body CelestialObject) []float64 {
	pert := make([]float64, 3)
	for _, src := range p {
		if src == nil {
			continue
		}
		acc := src.Accel(s, body)
		for i := 0; i < 3; i++ {
			pert[i] += acc[i]
		}
	}
	return pert
}

// isNull returns whether this perturbation is absent, in which case the Keplerian path applies.
func isNull(p Perturbation) bool {
	if p == nil {
		return true
	}
	if perts, ok := p.(Perturbations); ok {
		for _, src := range perts {
			if !isNull(src) {
				return false
			}
		}
		return true
	}
	return false
}

// Oblateness is the zonal harmonics perturbation, up to Jn (only J2 and J3 are supported).
type Oblateness struct {
	Jn uint8
}

// Accel implements the Perturbation interface.
func (o Oblateness) Accel(s StateVector, body CelestialObject) []float64 {
	pert := make([]float64, 3)
	if o.Jn < 2 {
		return pert
	}
	x, y, z := s.R[0], s.R[1], s.R[2]
	r := s.RNorm()
	z2 := z * z
	r2 := r * r
	r5 := math.Pow(r, 5)
	r7 := r5 * r2
	accJ2 := 1.5 * body.J(2) * body.Radius * body.Radius * body.μ
	pert[0] = accJ2 * (5*x*z2/r7 - x/r5)
	pert[1] = accJ2 * (5*y*z2/r7 - y/r5)
	pert[2] = accJ2 * (5*z*z2/r7 - 3*z/r5)
	if o.Jn >= 3 {
		r9 := r7 * r2
		accJ3 := body.J(3) * math.Pow(body.Radius, 3) * body.μ
		pert[0] += 2.5 * accJ3 * (7*x*z*z2/r9 - 3*x*z/r7)
		pert[1] += 2.5 * accJ3 * (7*y*z*z2/r9 - 3*y*z/r7)
		pert[2] += 0.5 * accJ3 * (35*z2*z2/r9 - 30*z2/r7 + 3/r5)
	}
	return pert
}

// Drag is the cannonball atmospheric drag, with an atmosphere co-rotating with the central body.
type Drag struct {
	Cd         float64
	AreaToMass float64 // m^2/kg
}

// Accel implements the Perturbation interface.
func (d Drag) Accel(s StateVector, body CelestialObject) []float64 {
	pert := make([]float64, 3)
	if body.Atmosphere == nil || d.Cd == 0 || d.AreaToMass == 0 {
		return pert
	}
	ρ := body.Atmosphere.Density(s.RNorm() - body.Radius) // kg/m^3
	if ρ == 0 {
		return pert
	}
	vRel := sub(s.V, Cross([]float64{0, 0, body.RotationRate}, s.R))
	vRelNorm := Norm(vRel)
	// kg/m^3 * m^2/kg = 1/m, hence the 1e3 to get km/s^2.
	f := -0.5 * d.Cd * d.AreaToMass * ρ * 1e3 * vRelNorm
	for i := 0; i < 3; i++ {
		pert[i] = f * vRel[i]
	}
	return pert
}

// Ephemeris returns the position in km of a perturbing body relative to the central body, in the
// inertial frame of the central body.
type Ephemeris interface {
	Position(dt time.Time) []float64
}

// EphemerisFunc adapts a function to an Ephemeris.
type EphemerisFunc func(dt time.Time) []float64

// Position implements the Ephemeris interface.
func (f EphemerisFunc) Position(dt time.Time) []float64 {
	return f(dt)
}

// MeeusMoon is the geocentric equatorial position of the Moon, from Meeus chapter 47.
var MeeusMoon = EphemerisFunc(func(dt time.Time) []float64 {
	jde := julian.TimeToJD(dt)
	λ, β, Δ := moonposition.Position(jde)
	ε := nutation.MeanObliquity(jde)
	sε, cε := ε.Sin(), ε.Cos()
	xEcl := Δ * β.Cos() * λ.Cos()
	yEcl := Δ * β.Cos() * λ.Sin()
	zEcl := Δ * β.Sin()
	return []float64{xEcl, yEcl*cε - zEcl*sε, yEcl*sε + zEcl*cε}
})

// MeeusSun is the geocentric equatorial position of the Sun, at one astronomical unit.
var MeeusSun = EphemerisFunc(func(dt time.Time) []float64 {
	α, δ := solar.ApparentEquatorial(julian.TimeToJD(dt))
	return []float64{AU * δ.Cos() * α.Cos(), AU * δ.Cos() * α.Sin(), AU * δ.Sin()}
})

// KeplerEphemeris returns a two-body ephemeris of a perturbing body from its state about the central body.
// A position which cannot be computed is NaN, which fails the propagation.
func KeplerEphemeris(s StateVector, μ float64) Ephemeris {
	ref := s.Copy()
	return EphemerisFunc(func(dt time.Time) []float64 {
		R, _, err := KeplerUniversal(ref.R, ref.V, dt.Sub(ref.DT).Seconds(), μ)
		if err != nil {
			return []float64{math.NaN(), math.NaN(), math.NaN()}
		}
		return R
	})
}

// ThirdBody is the point mass perturbation of another body.
type ThirdBody struct {
	Perturber CelestialObject
	Ephemeris Ephemeris
}

// NewThirdBody returns the third body perturbation of the Moon or the Sun about the Earth,
// using the Meeus ephemerides.
func NewThirdBody(perturber CelestialObject) (ThirdBody, error) {
	switch perturber.Name {
	case Moon.Name:
		return ThirdBody{perturber, MeeusMoon}, nil
	case Sun.Name:
		return ThirdBody{perturber, MeeusSun}, nil
	default:
		return ThirdBody{}, errors.Errorf("no analytical ephemeris for %s, use a KeplerEphemeris", perturber.Name)
	}
}

// Accel implements the Perturbation interface.
func (t ThirdBody) Accel(s StateVector, body CelestialObject) []float64 {
	r3 := t.Ephemeris.Position(s.DT)
	rel := sub(r3, s.R)
	relNorm3 := math.Pow(Norm(rel), 3)
	r3Norm3 := math.Pow(Norm(r3), 3)
	pert := make([]float64, 3)
	for i := 0; i < 3; i++ {
		pert[i] = t.Perturber.μ * (rel[i]/relNorm3 - r3[i]/r3Norm3)
	}
	return pert
}
