package orbits

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
)

// InputKind identifies which payload of an Input is set.
type InputKind uint8

const (
	// StateInput is a Cartesian state vector.
	StateInput InputKind = iota + 1
	// ElementsInput is a set of classical orbital elements.
	ElementsInput
	// RadarInput is a topocentric radar measurement with all three rates.
	RadarInput
	// DopplerInput is a Doppler radar measurement.
	DopplerInput
	// GibbsInput is three radar position fixes.
	GibbsInput
	// TLEInput is a two line element set, evaluated at its DT.
	TLEInput
)

func (k InputKind) String() string {
	switch k {
	case StateInput:
		return "state"
	case ElementsInput:
		return "elements"
	case RadarInput:
		return "radar"
	case DopplerInput:
		return "doppler"
	case GibbsInput:
		return "gibbs"
	case TLEInput:
		return "tle"
	default:
		panic(fmt.Errorf("unknown input kind %d", k))
	}
}

// TLE is a two line element set to evaluate at DT.
type TLE struct {
	Line1, Line2 string
	DT           time.Time
}

// Input is one of the ways a new body may be defined. Only the payload matching Kind is read.
type Input struct {
	Kind     InputKind
	State    *StateVector
	Elements *Orbit
	Radar    *RadarMeasurement
	Doppler  *DopplerMeasurement
	Fixes    []RadarMeasurement
	TLE      *TLE
}

// Resolve returns the canonical state vector of this input about the provided body.
func (in Input) Resolve(body CelestialObject) (StateVector, error) {
	missing := func() error {
		return &FieldError{Fields: []string{in.Kind.String()}, Err: ErrInsufficientData}
	}
	switch in.Kind {
	case StateInput:
		if in.State == nil {
			return StateVector{}, missing()
		}
		if err := in.State.Check(); err != nil {
			return StateVector{}, err
		}
		return in.State.Copy(), nil
	case ElementsInput:
		if in.Elements == nil {
			return StateVector{}, missing()
		}
		return StateFromElements(*in.Elements, body)
	case RadarInput:
		if in.Radar == nil {
			return StateVector{}, missing()
		}
		return StateFromRadar(*in.Radar)
	case DopplerInput:
		if in.Doppler == nil {
			return StateVector{}, missing()
		}
		return StateFromDoppler(*in.Doppler)
	case GibbsInput:
		if len(in.Fixes) < 3 {
			return StateVector{}, &FieldError{Fields: []string{fmt.Sprintf("%d more position fixes", 3-len(in.Fixes))}, Err: ErrInsufficientData}
		}
		return StateFromGibbs(in.Fixes[0], in.Fixes[1], in.Fixes[2])
	case TLEInput:
		if in.TLE == nil {
			return StateVector{}, missing()
		}
		if body.Name != Earth.Name {
			return StateVector{}, errors.Wrapf(ErrInvalidGeometry, "two line elements are Earth centered, not %s centered", body.Name)
		}
		return StateFromTLE(in.TLE.Line1, in.TLE.Line2, in.TLE.DT)
	default:
		return StateVector{}, errors.Wrapf(ErrInsufficientData, "unknown input kind %d", in.Kind)
	}
}
