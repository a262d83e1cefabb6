package orbits

import (
	"fmt"
	"math"
	"time"

	"github.com/pkg/errors"
)

const (
	// SpeedOfLight in km/s.
	SpeedOfLight = 299792.458
	// gibbsε is the largest |û1 · ĉ23| for which three positions are coplanar.
	gibbsε = 1e-3
)

// RadarMeasurement is a topocentric measurement from a station: the range (km), the azimuth measured from North
// towards East and the elevation (radians), along with their rates. A rate which was not measured is NaN.
type RadarMeasurement struct {
	Range, Azimuth, Elevation              float64
	RangeRate, AzimuthRate, ElevationRate float64
	DT                                     time.Time
	Station                                Station
}

// NewRadarMeasurement returns a measurement without any rate.
func NewRadarMeasurement(st Station, dt time.Time, ρ, az, el float64) RadarMeasurement {
	return RadarMeasurement{ρ, az, el, math.NaN(), math.NaN(), math.NaN(), dt, st}
}

func (m RadarMeasurement) String() string {
	return fmt.Sprintf("%s@%s ρ=%f km az=%f el=%f ρDot=%f km/s", m.Station.Name, m.DT.Format(time.RFC3339), m.Range, m.Azimuth/deg2rad, m.Elevation/deg2rad, m.RangeRate)
}

// missing returns the names of the fields which are needed for a full state but absent.
func (m RadarMeasurement) missing(rates bool) []string {
	var fields []string
	check := func(name string, v float64) {
		if !finite(v) {
			fields = append(fields, name)
		}
	}
	check("range", m.Range)
	check("azimuth", m.Azimuth)
	check("elevation", m.Elevation)
	if rates {
		check("range rate", m.RangeRate)
		check("azimuth rate", m.AzimuthRate)
		check("elevation rate", m.ElevationRate)
	}
	return fields
}

// topocentric returns the position and velocity in the SEZ frame of the station.
func (m RadarMeasurement) topocentric() (ρSEZ, ρDotSEZ []float64) {
	ρ, ρd := m.Range, m.RangeRate
	sAz, cAz := math.Sincos(m.Azimuth)
	sEl, cEl := math.Sincos(m.Elevation)
	azd, eld := m.AzimuthRate, m.ElevationRate
	ρSEZ = []float64{-ρ * cEl * cAz, ρ * cEl * sAz, ρ * sEl}
	ρDotSEZ = []float64{
		-ρd*cEl*cAz + ρ*sEl*eld*cAz + ρ*cEl*sAz*azd,
		ρd*cEl*sAz - ρ*sEl*eld*sAz + ρ*cEl*cAz*azd,
		ρd*sEl + ρ*cEl*eld,
	}
	return
}

// position returns the inertial position of the measured object.
func (m RadarMeasurement) position() []float64 {
	ρSEZ, _ := m.topocentric()
	return add(m.Station.PositionECI(m.DT), SEZ2ECI(m.Station.LatΦ, m.Station.LST(m.DT), ρSEZ))
}

// StateFromRadar returns the inertial state of the object measured by the radar. All six measured values are
// required: the missing ones are listed in the returned FieldError.
func StateFromRadar(m RadarMeasurement) (StateVector, error) {
	if fields := m.missing(true); len(fields) > 0 {
		return StateVector{}, &FieldError{Fields: fields, Err: ErrInsufficientData}
	}
	if m.Range <= 0 {
		return StateVector{}, errors.Wrapf(ErrDegenerateGeometry, "range must be positive (got %f)", m.Range)
	}
	st := m.Station
	lst := st.LST(m.DT)
	_, ρDotSEZ := m.topocentric()
	R := m.position()
	V := add(SEZ2ECI(st.LatΦ, lst, ρDotSEZ), Cross(st.ω(), R))
	return NewStateVector(R, V, m.DT), nil
}

// DopplerMeasurement is a radar measurement whose range rate may instead come from the Doppler shift of a carrier.
// A Doppler range rate alone does not determine a state: range, azimuth, elevation and both angle rates
// are also required.
type DopplerMeasurement struct {
	RadarMeasurement
	Frequency float64 // Transmitted carrier frequency, Hz
	Shift     float64 // Received minus transmitted frequency, Hz
	TwoWay    bool    // Whether the carrier went to the object and back
}

// NewDopplerMeasurement returns a Doppler measurement without any angle rates.
func NewDopplerMeasurement(st Station, dt time.Time, ρ, az, el, frequency, shift float64, twoWay bool) DopplerMeasurement {
	return DopplerMeasurement{NewRadarMeasurement(st, dt, ρ, az, el), frequency, shift, twoWay}
}

// DopplerRangeRate returns the range rate of a frequency shift, which is negative when the object closes in.
func DopplerRangeRate(frequency, shift float64, twoWay bool) float64 {
	ρDot := -SpeedOfLight * shift / frequency
	if twoWay {
		ρDot /= 2
	}
	return ρDot
}

// StateFromDoppler returns the inertial state of the object observed by the Doppler radar.
func StateFromDoppler(m DopplerMeasurement) (StateVector, error) {
	radar := m.RadarMeasurement
	if !finite(radar.RangeRate) && finite(m.Shift) && m.Frequency > 0 {
		radar.RangeRate = DopplerRangeRate(m.Frequency, m.Shift, m.TwoWay)
	}
	if fields := radar.missing(true); len(fields) > 0 {
		for i, f := range fields {
			if f == "range rate" {
				fields[i] = "range rate or doppler shift"
			}
		}
		return StateVector{}, &FieldError{Fields: fields, Err: ErrInsufficientData}
	}
	return StateFromRadar(radar)
}

// StateFromGibbs returns the state at the second of three position fixes of the same object, using Gibbs'
// method. Only the range, azimuth and elevation of each fix are used.
func StateFromGibbs(m1, m2, m3 RadarMeasurement) (StateVector, error) {
	for i, m := range []RadarMeasurement{m1, m2, m3} {
		if fields := m.missing(false); len(fields) > 0 {
			for j := range fields {
				fields[j] = fmt.Sprintf("%s #%d", fields[j], i+1)
			}
			return StateVector{}, &FieldError{Fields: fields, Err: ErrInsufficientData}
		}
	}
	μ := m2.Station.Body.μ
	R1, R2, R3 := m1.position(), m2.position(), m3.position()
	r1, r2, r3 := Norm(R1), Norm(R2), Norm(R3)
	C12, C23, C31 := Cross(R1, R2), Cross(R2, R3), Cross(R3, R1)
	if Norm(C23) < zeroε || math.Abs(Dot(Unit(R1), Unit(C23))) > gibbsε {
		return StateVector{}, errors.Wrap(ErrDegenerateGeometry, "position fixes are not coplanar")
	}
	N := add(add(scale(r1, C23), scale(r2, C31)), scale(r3, C12))
	D := add(add(C12, C23), C31)
	S := add(add(scale(r2-r3, R1), scale(r3-r1, R2)), scale(r1-r2, R3))
	nN, nD := Norm(N), Norm(D)
	if nN*nD < zeroε || Dot(N, D) <= 0 {
		return StateVector{}, errors.Wrap(ErrDegenerateGeometry, "position fixes do not define a conic")
	}
	V2 := scale(math.Sqrt(μ/(nN*nD)), add(scale(1/r2, Cross(D, R2)), S))
	return NewStateVector(R2, V2, m2.DT), nil
}
