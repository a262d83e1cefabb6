package orbits

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/soniakeys/meeus/v3/julian"
	"github.com/soniakeys/meeus/v3/sidereal"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"
)

var (
	// J2000 is the epoch at which the prime meridian of non Earth bodies is aligned with the inertial X axis.
	J2000 = time.Date(2000, 1, 1, 11, 58, 55, 816e6, time.UTC)

	σρ    = math.Pow(5e-3, 2) // 5 m, but all measurements in km.
	σρDot = math.Pow(5e-6, 2) // 5 mm/s, but all measurements in km/s.

	DSS34Canberra  = mustStation("DSS34Canberra", 0.691750, 0, -35.398333, 148.981944, σρ, σρDot)
	DSS65Madrid    = mustStation("DSS65Madrid", 0.834939, 0, 40.427222, 4.250556, σρ, σρDot)
	DSS13Goldstone = mustStation("DSS13Goldstone", 1.07114904, 0, 35.247164, 243.205, σρ, σρDot)
)

// Station defines a ground station on the reference ellipsoid of its body.
type Station struct {
	Name                       string
	LatΦ, Longθ                float64 // Geodetic latitude and East longitude, stored in radians!
	Altitude                   float64 // km above the ellipsoid
	ElevationMask              float64 // Lowest visible elevation, radians
	Body                       CelestialObject
	RangeNoise, RangeRateNoise *distmv.Normal // nil for perfect measurements
}

// NewStation returns a new Earth station. Angles in degrees, noises are the variances in km^2 and km^2/s^2.
func NewStation(name string, altitude, elevationMask, latΦ, longθ, σρ, σρDot float64) (Station, error) {
	return NewBodyStation(name, altitude, elevationMask, latΦ, longθ, σρ, σρDot, Earth)
}

// NewBodyStation is the same as NewStation for an arbitrary body. A zero variance disables that noise.
func NewBodyStation(name string, altitude, elevationMask, latΦ, longθ, σρ, σρDot float64, body CelestialObject) (Station, error) {
	if !finite(altitude, elevationMask, latΦ, longθ, σρ, σρDot) || math.Abs(latΦ) > 90 {
		return Station{}, errors.Errorf("invalid station %s: lat=%f long=%f", name, latΦ, longθ)
	}
	st := Station{Name: name, LatΦ: latΦ * deg2rad, Longθ: longθ * deg2rad, Altitude: altitude, ElevationMask: elevationMask * deg2rad, Body: body}
	var err error
	if st.RangeNoise, err = newNoise(σρ); err != nil {
		return Station{}, err
	}
	if st.RangeRateNoise, err = newNoise(σρDot); err != nil {
		return Station{}, err
	}
	return st, nil
}

func newNoise(variance float64) (*distmv.Normal, error) {
	if variance == 0 {
		return nil, nil
	}
	noise, ok := distmv.NewNormal([]float64{0}, mat.NewSymDense(1, []float64{variance}), nil)
	if !ok {
		return nil, errors.Errorf("invalid noise variance %f", variance)
	}
	return noise, nil
}

func mustStation(name string, altitude, elevation, latΦ, longθ, σρ, σρDot float64) Station {
	st, err := NewStation(name, altitude, elevation, latΦ, longθ, σρ, σρDot)
	if err != nil {
		panic(err)
	}
	return st
}

// BuiltinStationFromName returns one of the deep space network stations.
func BuiltinStationFromName(name string) (Station, error) {
	switch strings.ToLower(name) {
	case "dss13":
		return DSS13Goldstone, nil
	case "dss34":
		return DSS34Canberra, nil
	case "dss65":
		return DSS65Madrid, nil
	default:
		return Station{}, errors.Errorf("unknown station `%s`", name)
	}
}

// LST returns the local sidereal time of the station in radians.
// For Earth it is the mean sidereal time at Greenwich plus the longitude; other bodies rotate
// uniformly from their prime meridian at J2000.
func (s Station) LST(dt time.Time) float64 {
	if s.Body.Name == Earth.Name {
		gmst := sidereal.Mean(julian.TimeToJD(dt.UTC())).Angle().Rad()
		return normalizeAngle(gmst + s.Longθ)
	}
	return normalizeAngle(s.Body.RotationRate*dt.Sub(J2000).Seconds() + s.Longθ)
}

// PositionECI returns the inertial position of the station.
func (s Station) PositionECI(dt time.Time) []float64 {
	e2 := s.Body.Eccentricity2()
	sΦ, cΦ := math.Sincos(s.LatΦ)
	N := s.Body.Radius / math.Sqrt(1-e2*sΦ*sΦ)
	x := (N + s.Altitude) * cΦ
	z := (N*(1-e2) + s.Altitude) * sΦ
	sθ, cθ := math.Sincos(s.LST(dt))
	return []float64{x * cθ, x * sθ, z}
}

// VelocityECI returns the inertial velocity of the station, which rotates with its body.
func (s Station) VelocityECI(dt time.Time) []float64 {
	return Cross(s.ω(), s.PositionECI(dt))
}

func (s Station) ω() []float64 {
	return []float64{0, 0, s.Body.RotationRate}
}

// RadarFromState returns the exact topocentric measurement of the provided state, including all three rates.
func (s Station) RadarFromState(state StateVector) (RadarMeasurement, error) {
	if err := state.Check(); err != nil {
		return RadarMeasurement{}, err
	}
	lst := s.LST(state.DT)
	ρECI := sub(state.R, s.PositionECI(state.DT))
	ρ := Norm(ρECI)
	if ρ < zeroε {
		return RadarMeasurement{}, errors.Wrap(ErrDegenerateGeometry, "state is at the station")
	}
	ρSEZ := ECI2SEZ(s.LatΦ, lst, ρECI)
	ρDotSEZ := ECI2SEZ(s.LatΦ, lst, sub(state.V, Cross(s.ω(), state.R)))
	S, E, Z := ρSEZ[0], ρSEZ[1], ρSEZ[2]
	Sd, Ed, Zd := ρDotSEZ[0], ρDotSEZ[1], ρDotSEZ[2]
	m := RadarMeasurement{
		Range:     ρ,
		Azimuth:   normalizeAngle(math.Atan2(E, -S)),
		Elevation: math.Asin(clamp(Z / ρ)),
		RangeRate: Dot(ρSEZ, ρDotSEZ) / ρ,
		DT:        state.DT,
		Station:   s,
	}
	horiz2 := S*S + E*E
	if horiz2 < zeroε*ρ*ρ {
		// Overhead: the azimuth is undefined.
		m.AzimuthRate, m.ElevationRate = math.NaN(), math.NaN()
		return m, nil
	}
	m.AzimuthRate = (-S*Ed + E*Sd) / horiz2
	m.ElevationRate = (Zd*ρ - Z*m.RangeRate) / (ρ * math.Sqrt(horiz2))
	return m, nil
}

// Measure returns the noisy measurement of the state, and whether it is above the elevation mask.
func (s Station) Measure(state StateVector) (RadarMeasurement, bool, error) {
	m, err := s.RadarFromState(state)
	if err != nil {
		return m, false, err
	}
	if s.RangeNoise != nil {
		m.Range += s.RangeNoise.Rand(nil)[0]
	}
	if s.RangeRateNoise != nil {
		m.RangeRate += s.RangeRateNoise.Rand(nil)[0]
	}
	return m, m.Elevation >= s.ElevationMask, nil
}

func (s Station) String() string {
	return fmt.Sprintf("%s (%f,%f); alt = %f km; mask = %f deg", s.Name, s.LatΦ/deg2rad, s.Longθ/deg2rad, s.Altitude, s.ElevationMask/deg2rad)
}
