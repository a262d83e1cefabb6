package orbits

import (
	"fmt"
	"math"
	"time"

	"github.com/pkg/errors"
)

// Frame identifies the reference frame of a state vector.
type Frame uint8

const (
	// ECI is the geocentric (or body-centric) equatorial inertial frame.
	ECI Frame = iota + 1
)

func (f Frame) String() string {
	switch f {
	case ECI:
		return "ECI"
	default:
		panic(fmt.Errorf("unknown frame %d", f))
	}
}

// StateVector is the canonical state of an orbiting body: a position (km) and a velocity (km/s)
// at the same epoch, in the same inertial frame.
type StateVector struct {
	R, V  []float64
	DT    time.Time
	Frame Frame
}

// NewStateVector returns a new ECI state vector. R and V are copied.
func NewStateVector(R, V []float64, dt time.Time) StateVector {
	return StateVector{R: append([]float64(nil), R...), V: append([]float64(nil), V...), DT: dt, Frame: ECI}
}

// Copy returns a deep copy of this state.
func (s StateVector) Copy() StateVector {
	return StateVector{R: append([]float64(nil), s.R...), V: append([]float64(nil), s.V...), DT: s.DT, Frame: s.Frame}
}

// Check returns an error if the state vector cannot be the input of a computation.
func (s StateVector) Check() error {
	if len(s.R) != 3 || len(s.V) != 3 {
		return errors.Wrapf(ErrDegenerateGeometry, "state vectors must be 3x1 (got %d and %d)", len(s.R), len(s.V))
	}
	if !finite(s.R...) || !finite(s.V...) {
		return errors.Wrapf(ErrDegenerateGeometry, "non finite state R=%v V=%v", s.R, s.V)
	}
	return nil
}

// RNorm returns the norm of the radius vector.
func (s StateVector) RNorm() float64 {
	return Norm(s.R)
}

// VNorm returns the norm of the velocity vector.
func (s StateVector) VNorm() float64 {
	return Norm(s.V)
}

// H returns the specific angular momentum vector.
func (s StateVector) H() []float64 {
	return Cross(s.R, s.V)
}

// HNorm returns the norm of the specific angular momentum vector.
func (s StateVector) HNorm() float64 {
	return Norm(s.H())
}

// Energyξ returns the specific mechanical energy ξ about a body of gravitational parameter μ.
func (s StateVector) Energyξ(μ float64) float64 {
	return math.Pow(s.VNorm(), 2)/2 - μ/s.RNorm()
}

// Elements returns the classical orbital elements of this state about the provided body.
// Under perturbations, these are osculating elements and only a snapshot.
func (s StateVector) Elements(body CelestialObject) (Orbit, error) {
	return ElementsFromState(s, body)
}

// Equals returns whether both states are equal within the provided relative tolerance.
func (s StateVector) Equals(o StateVector, rel float64) bool {
	if !s.DT.Equal(o.DT) {
		return false
	}
	rScale := math.Max(s.RNorm(), o.RNorm())
	vScale := math.Max(s.VNorm(), o.VNorm())
	for i := 0; i < 3; i++ {
		if math.Abs(s.R[i]-o.R[i]) > rel*rScale || math.Abs(s.V[i]-o.V[i]) > rel*vScale {
			return false
		}
	}
	return true
}

func (s StateVector) String() string {
	return fmt.Sprintf("%s R=[%.6f %.6f %.6f] V=[%.9f %.9f %.9f]", s.DT.Format(time.RFC3339Nano), s.R[0], s.R[1], s.R[2], s.V[0], s.V[1], s.V[2])
}
