package orbits

import (
	"fmt"
	"math"
	"time"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats/scalar"
)

const (
	// eccentricityε is the eccentricity under which an orbit is circular.
	eccentricityε = 1e-9
	// planeε is the sine of the inclination under which an orbit is equatorial.
	planeε = 1e-9
	// parabolicε is the distance to e=1 under which an orbit is parabolic.
	parabolicε = 1e-9
	// Tolerances used to compare orbits.
	eccentricityTol = 5e-5                         // 0.00005
	angleTol        = (5e-3 / 360) * (2 * math.Pi) // 0.005 degrees
	distanceTol     = 2e1                          // 20 km
)

// Orbit defines an orbit via its classical orbital elements, all angles in radians.
//
// Degenerate orbits use substitute angles, so that the six elements always map back to a
// single state:
//   - circular orbits report ω = 0 and ν is the argument of latitude u;
//   - equatorial orbits report Ω = 0 and ω is the longitude of periapsis ϖ;
//   - circular equatorial orbits report Ω = ω = 0 and ν is the true longitude λ.
//
// An Orbit is a snapshot: under perturbations the StateVector stays the source of truth.
type Orbit struct {
	a, e, i, Ω, ω, ν float64
	p                float64 // Semi-parameter, always defined.
	Origin           CelestialObject
	Epoch            time.Time
}

// NewOrbitFromOE creates an orbit from the classical elements (km and radians).
// Use NewOrbitFromSemiParameter for parabolic orbits, whose semi-major axis is infinite.
func NewOrbitFromOE(a, e, i, Ω, ω, ν float64, c CelestialObject, epoch time.Time) Orbit {
	return Orbit{a: a, e: e, i: i, Ω: normalizeAngle(Ω), ω: normalizeAngle(ω), ν: normalizeAngle(ν), p: a * (1 - e*e), Origin: c, Epoch: epoch}
}

// NewOrbitFromSemiParameter creates an orbit from its semi-parameter p instead of its semi-major axis.
func NewOrbitFromSemiParameter(p, e, i, Ω, ω, ν float64, c CelestialObject, epoch time.Time) Orbit {
	a := math.Inf(1)
	if math.Abs(e-1) > parabolicε {
		a = p / (1 - e*e)
	}
	return Orbit{a: a, e: e, i: i, Ω: normalizeAngle(Ω), ω: normalizeAngle(ω), ν: normalizeAngle(ν), p: p, Origin: c, Epoch: epoch}
}

// NewOrbitFromMeanAnomaly creates an orbit from its mean anomaly by solving Kepler's equation.
func NewOrbitFromMeanAnomaly(a, e, i, Ω, ω, M float64, c CelestialObject, epoch time.Time) (Orbit, error) {
	ν, err := TrueFromMean(M, e)
	if err != nil {
		return Orbit{}, err
	}
	return NewOrbitFromOE(a, e, i, Ω, ω, ν, c, epoch), nil
}

// ElementsFromState computes the orbital elements of a state about the provided body.
// From Vallado, RV2COE, with well conditioned atan2 forms of the quadrant checks.
func ElementsFromState(s StateVector, c CelestialObject) (Orbit, error) {
	if err := s.Check(); err != nil {
		return Orbit{}, err
	}
	r := s.RNorm()
	v := s.VNorm()
	hVec := s.H()
	h := Norm(hVec)
	if r < zeroε || h <= zeroε*r*v {
		return Orbit{}, errors.Wrapf(ErrDegenerateGeometry, "rectilinear orbit |h|=%e", h)
	}
	μ := c.μ
	hHat := scale(1/h, hVec)
	rHat := scale(1/r, s.R)
	nVec := Cross([]float64{0, 0, 1}, hVec)
	eVec := sub(scale(1/μ, Cross(s.V, hVec)), rHat)
	e := Norm(eVec)
	ξ := v*v/2 - μ/r
	p := h * h / μ
	a := math.Inf(1)
	if math.Abs(e-1) > parabolicε {
		a = -μ / (2 * ξ)
	}
	i := math.Atan2(math.Hypot(hVec[0], hVec[1]), hVec[2])

	var Ω, ω, ν float64
	nHat := []float64{1, 0, 0}
	if Norm(nVec)/h > planeε {
		nHat = Unit(nVec)
		Ω = normalizeAngle(math.Atan2(nVec[1], nVec[0]))
	}
	pHat := nHat
	if e > eccentricityε {
		pHat = scale(1/e, eVec)
		ω = angleAbout(nHat, pHat, hHat)
	}
	ν = angleAbout(pHat, rHat, hHat)
	return Orbit{a: a, e: e, i: i, Ω: Ω, ω: ω, ν: ν, p: p, Origin: c, Epoch: s.DT}, nil
}

// StateFromElements computes the inertial state of an orbit about the provided body.
func StateFromElements(o Orbit, c CelestialObject) (StateVector, error) {
	if !finite(o.e, o.i, o.Ω, o.ω, o.ν, o.p) || o.e < 0 || o.p <= 0 {
		return StateVector{}, errors.Wrapf(ErrDegenerateGeometry, "invalid elements %s", o)
	}
	sν, cν := math.Sincos(o.ν)
	den := 1 + o.e*cν
	if den <= zeroε {
		return StateVector{}, errors.Wrapf(ErrDegenerateGeometry, "true anomaly %f is beyond the asymptotes", Rad2deg(o.ν))
	}
	r := o.p / den
	sp := math.Sqrt(c.μ / o.p)
	R := PQW2ECI(o.i, o.ω, o.Ω, []float64{r * cν, r * sν, 0})
	V := PQW2ECI(o.i, o.ω, o.Ω, []float64{-sp * sν, sp * (o.e + cν), 0})
	return StateVector{R: R, V: V, DT: o.Epoch, Frame: ECI}, nil
}

// Elements returns the classical elements a, e, i, Ω, ω, ν.
func (o Orbit) Elements() (a, e, i, Ω, ω, ν float64) {
	return o.a, o.e, o.i, o.Ω, o.ω, o.ν
}

// SemiMajorAxis returns a, which is infinite for parabolic orbits.
func (o Orbit) SemiMajorAxis() float64 { return o.a }

// Eccentricity returns e.
func (o Orbit) Eccentricity() float64 { return o.e }

// Inclination returns i.
func (o Orbit) Inclination() float64 { return o.i }

// RAAN returns Ω.
func (o Orbit) RAAN() float64 { return o.Ω }

// ArgPeriapsis returns ω.
func (o Orbit) ArgPeriapsis() float64 { return o.ω }

// TrueAnomaly returns ν.
func (o Orbit) TrueAnomaly() float64 { return o.ν }

// SemiParameter returns p.
func (o Orbit) SemiParameter() float64 { return o.p }

// IsCircular returns whether ω is substituted.
func (o Orbit) IsCircular() bool {
	return o.e <= eccentricityε
}

// IsEquatorial returns whether Ω is substituted.
func (o Orbit) IsEquatorial() bool {
	return math.Abs(math.Sin(o.i)) <= planeε
}

// Degenerate returns a description of the angle substitution in use, or an empty string.
func (o Orbit) Degenerate() string {
	switch {
	case o.IsCircular() && o.IsEquatorial():
		return "circular equatorial: ν is the true longitude"
	case o.IsCircular():
		return "circular: ν is the argument of latitude"
	case o.IsEquatorial():
		return "equatorial: ω is the longitude of periapsis"
	default:
		return ""
	}
}

// Energyξ returns the specific mechanical energy ξ.
func (o Orbit) Energyξ() float64 {
	if math.IsInf(o.a, 0) {
		return 0
	}
	return -o.Origin.μ / (2 * o.a)
}

// Tildeω returns the longitude of periapsis.
func (o Orbit) Tildeω() float64 {
	return normalizeAngle(o.ω + o.Ω)
}

// TrueLongλ returns the true longitude.
func (o Orbit) TrueLongλ() float64 {
	return normalizeAngle(o.ω + o.ν + o.Ω)
}

// ArgLatitudeU returns the argument of latitude.
func (o Orbit) ArgLatitudeU() float64 {
	return normalizeAngle(o.ν + o.ω)
}

// HNorm returns the norm of the specific angular momentum.
func (o Orbit) HNorm() float64 {
	return math.Sqrt(o.Origin.μ * o.p)
}

// RNorm returns the norm of the radius vector.
func (o Orbit) RNorm() float64 {
	return o.p / (1 + o.e*math.Cos(o.ν))
}

// Apoapsis returns the apoapsis radius, which is infinite for open orbits.
func (o Orbit) Apoapsis() float64 {
	if o.e >= 1 {
		return math.Inf(1)
	}
	return o.a * (1 + o.e)
}

// Periapsis returns the periapsis radius.
func (o Orbit) Periapsis() float64 {
	return o.p / (1 + o.e)
}

// Period returns the period of the orbit, or zero for open orbits.
func (o Orbit) Period() time.Duration {
	if o.e >= 1 {
		return 0
	}
	return time.Duration(2*math.Pi*math.Sqrt(math.Pow(o.a, 3)/o.Origin.μ)) * time.Second
}

// MeanMotion returns the mean motion n in rad/s. For parabolic orbits this is the Barker
// rate 2*sqrt(μ/p^3) and for hyperbolas sqrt(μ/-a^3).
func (o Orbit) MeanMotion() float64 {
	switch {
	case math.IsInf(o.a, 0):
		return 2 * math.Sqrt(o.Origin.μ/math.Pow(o.p, 3))
	case o.a < 0:
		return math.Sqrt(o.Origin.μ / -math.Pow(o.a, 3))
	default:
		return math.Sqrt(o.Origin.μ / math.Pow(o.a, 3))
	}
}

// MeanAnomaly returns the mean anomaly.
func (o Orbit) MeanAnomaly() float64 {
	return MeanFromTrue(o.ν, o.e)
}

// EccentricAnomaly returns the eccentric anomaly, or the hyperbolic anomaly for open orbits.
func (o Orbit) EccentricAnomaly() float64 {
	if o.e > 1 {
		return HyperbolicFromTrue(o.ν, o.e)
	}
	return EccentricFromTrue(o.ν, o.e)
}

// Conic returns the name of the conic section of this orbit.
func (o Orbit) Conic() string {
	switch {
	case o.IsCircular():
		return "circle"
	case math.IsInf(o.a, 0):
		return "parabola"
	case o.e < 1:
		return "ellipse"
	default:
		return "hyperbola"
	}
}

// String implements the stringer interface (hence the value receiver)
func (o Orbit) String() string {
	if o.IsCircular() {
		if !o.IsEquatorial() {
			return fmt.Sprintf("a=%.1f e=%.4f i=%.3f Ω=%.3f u=%.3f", o.a, o.e, Rad2deg(o.i), Rad2deg(o.Ω), Rad2deg(o.ArgLatitudeU()))
		}
		return fmt.Sprintf("a=%.1f e=%.4f i=%.3f λ=%.3f", o.a, o.e, Rad2deg(o.i), Rad2deg(o.TrueLongλ()))
	}
	return fmt.Sprintf("a=%.1f e=%.4f i=%.3f Ω=%.3f ω=%.3f ν=%.3f", o.a, o.e, Rad2deg(o.i), Rad2deg(o.Ω), Rad2deg(o.ω), Rad2deg(o.ν))
}

// Equals returns whether two orbits are identical with free true anomaly.
// Use StrictlyEquals to also check true anomaly.
func (o Orbit) Equals(o1 Orbit) (bool, error) {
	if !o.Origin.Equals(o1.Origin) {
		return false, errors.New("different origin")
	}
	if !scalar.EqualWithinAbs(o.p, o1.p, distanceTol) {
		return false, errors.New("semi parameter invalid")
	}
	if !scalar.EqualWithinAbs(o.e, o1.e, eccentricityTol) {
		return false, errors.New("eccentricity invalid")
	}
	if !scalar.EqualWithinAbs(o.i, o1.i, angleTol) {
		return false, errors.New("inclination invalid")
	}
	if o.e >= eccentricityTol {
		if !o.IsEquatorial() {
			if !anglesWithin(o.Ω, o1.Ω, angleTol) {
				return false, errors.New("RAAN invalid")
			}
			if !anglesWithin(o.ω, o1.ω, angleTol) {
				return false, errors.New("argument of periapsis invalid")
			}
		} else if !anglesWithin(o.Tildeω(), o1.Tildeω(), angleTol) {
			return false, errors.New("longitude of periapsis invalid")
		}
	} else if !o.IsEquatorial() && !anglesWithin(o.Ω, o1.Ω, angleTol) {
		return false, errors.New("RAAN invalid")
	}
	return true, nil
}

// StrictlyEquals returns whether two orbits are identical, including the position on the orbit.
func (o Orbit) StrictlyEquals(o1 Orbit) (bool, error) {
	if !anglesWithin(o.TrueLongλ(), o1.TrueLongλ(), angleTol) {
		return false, errors.New("true longitude invalid")
	}
	return o.Equals(o1)
}

// anglesWithin returns whether both angles are within tol of each other, modulo 2π.
func anglesWithin(a, b, tol float64) bool {
	return math.Abs(wrapAngle(a-b)) < tol
}

// Radii2ae returns the semi major axis and the eccentricity from the radii.
func Radii2ae(rA, rP float64) (a, e float64) {
	if rA < rP {
		panic("periapsis cannot be greater than apoapsis")
	}
	a = (rP + rA) / 2
	e = (rA - rP) / (rA + rP)
	return
}
