package orbits

import (
	"fmt"
	"math"
	"time"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/mat"
)

const (
	// radiusRelε is the relative difference under which two radii are the same.
	radiusRelε = 1e-9
	// Angle under which two orbital planes are the same.
	planeChangeε = 1e-12
)

// ManeuverKind defines the kind of maneuver.
type ManeuverKind uint8

const (
	// ManeuverHohmann is a two burn transfer between circular orbits.
	ManeuverHohmann ManeuverKind = iota + 1
	// ManeuverBiElliptic is a three burn transfer via an intermediate apoapsis.
	ManeuverBiElliptic
	// ManeuverGeneral is a transfer between arbitrary orbits.
	ManeuverGeneral
	// ManeuverPlaneChange is a single burn rotation of the orbital plane.
	ManeuverPlaneChange
)

func (k ManeuverKind) String() string {
	switch k {
	case ManeuverHohmann:
		return "Hohmann"
	case ManeuverBiElliptic:
		return "bi-elliptic"
	case ManeuverGeneral:
		return "general"
	case ManeuverPlaneChange:
		return "plane change"
	default:
		panic(fmt.Errorf("unknown maneuver kind %d", k))
	}
}

// Impulse is an impulsive burn.
type Impulse struct {
	DT        time.Time
	ΔV        []float64     // Inertial delta-v vector, km/s
	Magnitude float64       // Signed: negative magnitudes are retrograde burns
	BurnAngle float64       // Angle from the pre-burn velocity to ΔV (rad), positive towards the central body
	Duration  time.Duration // Always zero, impulsive burns only
}

func (i Impulse) String() string {
	return fmt.Sprintf("%s Δv=%.6f km/s (%.3f deg)", i.DT.Format(time.RFC3339), i.Magnitude, i.BurnAngle/deg2rad)
}

// Maneuver is a planned sequence of impulses, along with the state and elements right after the last one.
type Maneuver struct {
	Kind          ManeuverKind
	Start         time.Time
	Impulses      []Impulse
	TransferTimes []time.Duration
	Final         StateVector
	Elements      Orbit
}

// TotalΔv returns the sum of the magnitudes of all the impulses.
func (m Maneuver) TotalΔv() (Δv float64) {
	for _, imp := range m.Impulses {
		Δv += math.Abs(imp.Magnitude)
	}
	return
}

// End returns the epoch of the last impulse.
func (m Maneuver) End() time.Time {
	if len(m.Impulses) == 0 {
		return m.Start
	}
	return m.Impulses[len(m.Impulses)-1].DT
}

func (m Maneuver) String() string {
	return fmt.Sprintf("%s maneuver from %s: %d burns, Δv=%.6f km/s", m.Kind, m.Start.Format(time.RFC3339), len(m.Impulses), m.TotalΔv())
}

// Hohmann computes an Hohmann transfer. It returns the departure and arrival velocities, and the time of flight.
// To get final computations:
// ΔvInit = vDepature - vI
// ΔvFinal = vF - vArrival
func Hohmann(rI, vI, rF, vF float64, body CelestialObject) (vDeparture, vArrival float64, tof time.Duration) {
	aTransfer := 0.5 * (rI + rF)
	vDeparture = VisViva(rI, aTransfer, body.μ)
	vArrival = VisViva(rF, aTransfer, body.μ)
	tof = seconds(math.Pi * math.Sqrt(math.Pow(aTransfer, 3)/body.μ))
	return
}

// HohmannΔv returns the signed delta-v of both burns between circular orbits of radii r1 and r2.
// Both are negative when r1 > r2.
func HohmannΔv(r1, r2, μ float64) (Δv1, Δv2 float64, tof time.Duration) {
	aT := (r1 + r2) / 2
	Δv1 = VisViva(r1, aT, μ) - CircularSpeed(r1, μ)
	Δv2 = CircularSpeed(r2, μ) - VisViva(r2, aT, μ)
	tof = seconds(math.Pi * math.Sqrt(math.Pow(aT, 3)/μ))
	return
}

// BiEllipticΔv returns the signed delta-v of the three burns and both transfer times of a bi-elliptic
// transfer from r1 to r2 via the intermediate apoapsis rB.
func BiEllipticΔv(r1, rB, r2, μ float64) (Δv1, Δv2, Δv3 float64, tof1, tof2 time.Duration) {
	a1 := (r1 + rB) / 2
	a2 := (rB + r2) / 2
	Δv1 = VisViva(r1, a1, μ) - CircularSpeed(r1, μ)
	Δv2 = VisViva(rB, a2, μ) - VisViva(rB, a1, μ)
	Δv3 = CircularSpeed(r2, μ) - VisViva(r2, a2, μ)
	tof1 = seconds(math.Pi * math.Sqrt(math.Pow(a1, 3)/μ))
	tof2 = seconds(math.Pi * math.Sqrt(math.Pow(a2, 3)/μ))
	return
}

// PlaneChangeAngle returns the angle between two orbital planes from the spherical triangle
// formed by the inclinations and the RAAN difference.
func PlaneChangeAngle(i1, i2, ΔΩ float64) float64 {
	return math.Acos(clamp(math.Cos(i1)*math.Cos(i2) + math.Sin(i1)*math.Sin(i2)*math.Cos(ΔΩ)))
}

// PlaneChangeΔv returns the delta-v to rotate a velocity v by θ without changing its magnitude.
func PlaneChangeΔv(v, θ float64) float64 {
	return 2 * v * math.Sin(θ/2)
}

// NewHohmann plans a Hohmann transfer from the current orbit, circularized at its radius at start,
// to the circular orbit of radius rF.
func NewHohmann(s StateVector, body CelestialObject, start time.Time, rF float64) (Maneuver, error) {
	m := Maneuver{Kind: ManeuverHohmann, Start: start}
	if !finite(rF) || rF <= 0 {
		return m, errors.Wrapf(ErrInvalidGeometry, "target radius must be positive (got %f)", rF)
	}
	cur, err := departure(s, body, start)
	if err != nil {
		return m, err
	}
	r1 := cur.RNorm()
	if rF < body.Radius {
		return m, errors.Wrapf(ErrInfeasibleManeuver, "target radius %f km is below the surface of %s", rF, body.Name)
	}
	if scalar.EqualWithinRel(r1, rF, radiusRelε) {
		return m.finish(cur, body)
	}
	Δv1, Δv2, tof := HohmannΔv(r1, rF, body.μ)
	hHat := Unit(cur.H())
	aT := (r1 + rF) / 2
	burn1 := tangentialBurn(cur, hHat, VisViva(r1, aT, body.μ), Sign(Δv1))
	arrival, err := PropagateKepler(burn1.apply(cur), body, start.Add(tof))
	if err != nil {
		return m, err
	}
	burn2 := tangentialBurn(arrival, hHat, CircularSpeed(rF, body.μ), Sign(Δv2))
	m.Impulses = []Impulse{burn1, burn2}
	m.TransferTimes = []time.Duration{tof}
	return m.finish(burn2.apply(arrival), body)
}

// NewBiElliptic plans a bi-elliptic transfer from the current radius at start to the circular orbit of
// radius rF, via the intermediate apoapsis rB.
func NewBiElliptic(s StateVector, body CelestialObject, start time.Time, rF, rB float64) (Maneuver, error) {
	m := Maneuver{Kind: ManeuverBiElliptic, Start: start}
	if !finite(rF, rB) || rF <= 0 {
		return m, errors.Wrapf(ErrInvalidGeometry, "target radius must be positive (got %f)", rF)
	}
	cur, err := departure(s, body, start)
	if err != nil {
		return m, err
	}
	r1 := cur.RNorm()
	if rB < math.Max(r1, rF) {
		return m, errors.Wrapf(ErrInvalidGeometry, "intermediate radius %f km must be at least max(%f, %f)", rB, r1, rF)
	}
	if rF < body.Radius {
		return m, errors.Wrapf(ErrInfeasibleManeuver, "target radius %f km is below the surface of %s", rF, body.Name)
	}
	if scalar.EqualWithinRel(r1, rF, radiusRelε) && scalar.EqualWithinRel(rB, rF, radiusRelε) {
		return m.finish(cur, body)
	}
	Δv1, Δv2, Δv3, tof1, tof2 := BiEllipticΔv(r1, rB, rF, body.μ)
	hHat := Unit(cur.H())
	a1 := (r1 + rB) / 2
	a2 := (rB + rF) / 2
	burn1 := tangentialBurn(cur, hHat, VisViva(r1, a1, body.μ), Sign(Δv1))
	apo, err := PropagateKepler(burn1.apply(cur), body, start.Add(tof1))
	if err != nil {
		return m, err
	}
	burn2 := tangentialBurn(apo, hHat, VisViva(rB, a2, body.μ), Sign(Δv2))
	arrival, err := PropagateKepler(burn2.apply(apo), body, apo.DT.Add(tof2))
	if err != nil {
		return m, err
	}
	burn3 := tangentialBurn(arrival, hHat, CircularSpeed(rF, body.μ), Sign(Δv3))
	m.Impulses = []Impulse{burn1, burn2, burn3}
	m.TransferTimes = []time.Duration{tof1, tof2}
	return m.finish(burn3.apply(arrival), body)
}

// NewCoplanarTransfer plans a two burn transfer from the current radius at start to the circular orbit of
// radius rF along a transfer ellipse of semi-major axis (r1+rF)/2 and eccentricity eT. The Hohmann transfer
// is the case of the smallest valid eccentricity.
func NewCoplanarTransfer(s StateVector, body CelestialObject, start time.Time, rF, eT float64) (Maneuver, error) {
	m := Maneuver{Kind: ManeuverGeneral, Start: start}
	if !finite(rF, eT) || rF <= 0 || eT < 0 || eT >= 1 {
		return m, errors.Wrapf(ErrInvalidGeometry, "invalid target radius %f or transfer eccentricity %f", rF, eT)
	}
	cur, err := departure(s, body, start)
	if err != nil {
		return m, err
	}
	r1 := cur.RNorm()
	if scalar.EqualWithinRel(r1, rF, radiusRelε) {
		return m.finish(cur, body)
	}
	μ := body.μ
	a := (r1 + rF) / 2
	p := a * (1 - eT*eT)
	rP := p / (1 + eT)
	if rP > math.Min(r1, rF)*(1+radiusRelε) || a*(1+eT) < math.Max(r1, rF)*(1-radiusRelε) {
		return m, errors.Wrapf(ErrInvalidGeometry, "transfer ellipse (e=%f) does not reach both %f and %f", eT, r1, rF)
	}
	if rP < body.Radius {
		return m, errors.Wrapf(ErrInfeasibleManeuver, "transfer periapsis %f km is below the surface of %s", rP, body.Name)
	}
	// Outbound transfers fly from periapsis towards apoapsis and inbound ones the other way.
	ν1 := math.Acos(clamp((p/r1 - 1) / eT))
	ν2 := math.Acos(clamp((p/rF - 1) / eT))
	if r1 > rF {
		ν1, ν2 = 2*math.Pi-ν1, 2*math.Pi-ν2
	}
	tof := seconds(TimeOfFlight(eT, p, ν1, ν2, μ))
	hHat := Unit(cur.H())
	vDep := transferVelocity(cur.R, hHat, eT, p, ν1, μ)
	burn1 := newImpulse(cur, sub(vDep, cur.V), hHat)
	arrival, err := PropagateKepler(burn1.apply(cur), body, start.Add(tof))
	if err != nil {
		return m, err
	}
	vArr := scale(CircularSpeed(rF, μ), Unit(Cross(hHat, arrival.R)))
	burn2 := newImpulse(arrival, sub(vArr, arrival.V), hHat)
	m.Impulses = []Impulse{burn1, burn2}
	m.TransferTimes = []time.Duration{tof}
	return m.finish(burn2.apply(arrival), body)
}

// NewGeneralTransfer plans a two burn transfer from the current orbit at start to the target orbit, which is
// reached after the caller supplied time of flight. The transfer arc is the zero revolution Lambert solution,
// flown in the same sense as the initial orbit.
func NewGeneralTransfer(s StateVector, body CelestialObject, start time.Time, target Orbit, tof time.Duration) (Maneuver, error) {
	m := Maneuver{Kind: ManeuverGeneral, Start: start}
	if tof <= 0 {
		return m, errors.Wrapf(ErrInvalidGeometry, "time of flight must be positive (got %s)", tof)
	}
	cur, err := departure(s, body, start)
	if err != nil {
		return m, err
	}
	tgt, err := StateFromElements(target, body)
	if err != nil {
		return m, err
	}
	arrivalDT := start.Add(tof)
	if tgt, err = PropagateKepler(tgt, body, arrivalDT); err != nil {
		return m, err
	}
	hHat := Unit(cur.H())
	ttype := TType1
	if Dot(Cross(cur.R, tgt.R), hHat) < 0 {
		ttype = TType2
	}
	Vi, Vf, _, err := Lambert(mat.NewVecDense(3, cur.R), mat.NewVecDense(3, tgt.R), tof, ttype, body)
	if err != nil {
		return m, err
	}
	vDep := []float64{Vi.AtVec(0), Vi.AtVec(1), Vi.AtVec(2)}
	vArr := []float64{Vf.AtVec(0), Vf.AtVec(1), Vf.AtVec(2)}
	transfer := NewStateVector(cur.R, vDep, start)
	if err := checkArc(transfer, tgt.R, body); err != nil {
		return m, err
	}
	burn1 := newImpulse(cur, sub(vDep, cur.V), hHat)
	arrival := NewStateVector(tgt.R, vArr, arrivalDT)
	burn2 := newImpulse(arrival, sub(tgt.V, vArr), Unit(arrival.H()))
	if scalar.EqualWithinAbs(burn1.Magnitude, 0, 1e-12) && scalar.EqualWithinAbs(burn2.Magnitude, 0, 1e-12) {
		return m.finish(tgt, body)
	}
	m.Impulses = []Impulse{burn1, burn2}
	m.TransferTimes = []time.Duration{tof}
	return m.finish(burn2.apply(arrival), body)
}

// NewInclinationChange plans a pure inclination change of Δi radians at the first node crossing, keeping
// the RAAN of the current orbit.
func NewInclinationChange(s StateVector, body CelestialObject, start time.Time, Δi float64) (Maneuver, error) {
	cur, err := departure(s, body, start)
	if err != nil {
		return Maneuver{Kind: ManeuverPlaneChange, Start: start}, err
	}
	o, err := ElementsFromState(cur, body)
	if err != nil {
		return Maneuver{Kind: ManeuverPlaneChange, Start: start}, err
	}
	return NewPlaneChange(cur, body, start, o.i+Δi, o.Ω)
}

// NewPlaneChange plans a single burn which rotates the orbital plane to the inclination i2 and RAAN Ω2 (radians).
// The burn happens on the line of nodes of both planes, at the first node reached after start, and only rotates the
// transverse component of the velocity: the delta-v is 2*v*sin(θ/2) with v the transverse speed and θ the angle
// between both planes.
func NewPlaneChange(s StateVector, body CelestialObject, start time.Time, i2, Ω2 float64) (Maneuver, error) {
	m := Maneuver{Kind: ManeuverPlaneChange, Start: start}
	// Round off of the target inclination.
	if i2 < 0 && i2 > -planeε {
		i2 = 0
	} else if i2 > math.Pi && i2 < math.Pi+planeε {
		i2 = math.Pi
	}
	if !finite(i2, Ω2) || i2 < 0 || i2 > math.Pi {
		return m, errors.Wrapf(ErrInvalidGeometry, "target inclination must be within [0, π] (got %f)", i2)
	}
	cur, err := departure(s, body, start)
	if err != nil {
		return m, err
	}
	o, err := ElementsFromState(cur, body)
	if err != nil {
		return m, err
	}
	h1 := Unit(cur.H())
	sΩ, cΩ := math.Sincos(Ω2)
	si, ci := math.Sincos(i2)
	h2 := []float64{sΩ * si, -cΩ * si, ci}
	if θ := math.Atan2(Norm(Cross(h1, h2)), Dot(h1, h2)); θ < planeChangeε {
		return m.finish(cur, body)
	}
	rHat := Unit(cur.R)
	nodes := [][]float64{rHat}
	if line := Cross(h1, h2); Norm(line) > planeChangeε {
		line = Unit(line)
		nodes = [][]float64{line, scale(-1, line)}
	}
	// Pick the first reachable node.
	tof := math.NaN()
	for _, node := range nodes {
		ν2 := o.ν + angleAbout(rHat, node, h1)
		if scalar.EqualWithinAbs(floats.Distance(rHat, node, 2), 0, 1e-12) {
			ν2 = o.ν
		}
		t := TimeOfFlight(o.e, o.p, o.ν, ν2, body.μ)
		if !math.IsNaN(t) && (math.IsNaN(tof) || t < tof) {
			tof = t
		}
	}
	if math.IsNaN(tof) {
		return m, errors.Wrapf(ErrInfeasibleManeuver, "the %s trajectory never crosses the line of nodes", o.Conic())
	}
	burnDT := start.Add(seconds(tof))
	atNode, err := PropagateKepler(cur, body, burnDT)
	if err != nil {
		return m, err
	}
	rbHat := Unit(atNode.R)
	vr := Dot(atNode.V, rbHat)
	vh := Norm(sub(atNode.V, scale(vr, rbHat)))
	vNew := add(scale(vr, rbHat), scale(vh, Unit(Cross(h2, rbHat))))
	burn := newImpulse(atNode, sub(vNew, atNode.V), h1)
	m.Impulses = []Impulse{burn}
	return m.finish(burn.apply(atNode), body)
}

// departure returns the state at the start of the maneuver, ensuring the orbit is bound.
func departure(s StateVector, body CelestialObject, start time.Time) (StateVector, error) {
	cur, err := PropagateKepler(s, body, start)
	if err != nil {
		return StateVector{}, err
	}
	if cur.Energyξ(body.μ) >= 0 {
		return StateVector{}, errors.Wrapf(ErrInfeasibleManeuver, "departure orbit is not bound (ξ=%f)", cur.Energyξ(body.μ))
	}
	return cur, nil
}

// checkArc fails if the transfer arc from s to the target position goes through the body.
func checkArc(s StateVector, target []float64, body CelestialObject) error {
	o, err := ElementsFromState(s, body)
	if err != nil {
		return err
	}
	if o.Periapsis() >= body.Radius {
		return nil
	}
	hHat := Unit(s.H())
	ν2 := o.ν + angleAbout(Unit(s.R), Unit(target), hHat)
	if normalizeAngle(-o.ν) <= normalizeAngle(ν2-o.ν) {
		return errors.Wrapf(ErrInfeasibleManeuver, "transfer periapsis %f km is below the surface of %s", o.Periapsis(), body.Name)
	}
	return nil
}

// tangentialBurn returns the impulse which sets the velocity to the provided speed, perpendicular to the radius.
func tangentialBurn(s StateVector, hHat []float64, speed, sign float64) Impulse {
	vNew := scale(speed, Unit(Cross(hHat, s.R)))
	imp := newImpulse(s, sub(vNew, s.V), hHat)
	imp.Magnitude *= sign
	return imp
}

// transferVelocity returns the inertial velocity at true anomaly ν of a coplanar conic whose position is R.
func transferVelocity(R, hHat []float64, e, p, ν, μ float64) []float64 {
	sp := math.Sqrt(μ / p)
	sν, cν := math.Sincos(ν)
	rHat := Unit(R)
	return add(scale(sp*e*sν, rHat), scale(sp*(1+e*cν), Unit(Cross(hHat, rHat))))
}

// newImpulse returns an impulse whose magnitude is unsigned.
func newImpulse(s StateVector, ΔV, hHat []float64) Impulse {
	return Impulse{DT: s.DT, ΔV: ΔV, Magnitude: Norm(ΔV), BurnAngle: burnAngle(s.V, ΔV, hHat)}
}

// apply returns the state after this impulse.
func (i Impulse) apply(s StateVector) StateVector {
	return NewStateVector(s.R, add(s.V, i.ΔV), s.DT)
}

// burnAngle returns the angle from v to Δv, positive about hHat.
func burnAngle(v, Δv, hHat []float64) float64 {
	n := Norm(v) * Norm(Δv)
	if n < zeroε {
		return 0
	}
	θ := math.Acos(clamp(Dot(v, Δv) / n))
	if Dot(Cross(v, Δv), hHat) < 0 {
		θ = -θ
	}
	return θ
}

// finish stores the post maneuver state and elements. A maneuver without impulses is a no-op.
func (m Maneuver) finish(final StateVector, body CelestialObject) (Maneuver, error) {
	m.Final = final
	o, err := ElementsFromState(final, body)
	if err != nil {
		return m, err
	}
	m.Elements = o
	if len(m.Impulses) == 0 {
		return m, errors.Wrapf(ErrZeroDeltaV, "%s maneuver", m.Kind)
	}
	return m, nil
}

// clamp restricts a cosine to [-1, 1].
func clamp(c float64) float64 {
	return math.Max(-1, math.Min(1, c))
}

// seconds converts floating point seconds to a duration without truncating to the second.
func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
