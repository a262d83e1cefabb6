package orbits

import (
	"fmt"
	"math"
	"time"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const (
	// bPlaneMaxIter caps the Newton iterations of B-plane targeting.
	bPlaneMaxIter = 50
	// bPlanePert is the velocity perturbation (km/s) of the finite difference Jacobian.
	bPlanePert = 1e-6
)

// BPlane is the B-plane of a hyperbolic approach of the central body. The T axis is in the equatorial plane of
// the body and R completes the frame, such that B = BR R + BT T.
type BPlane struct {
	State  StateVector
	Body   CelestialObject
	BR, BT float64       // km
	TOF    time.Duration // From State to periapsis
}

// NewBPlane returns the B-plane of the provided state, which must be on a hyperbola.
func NewBPlane(s StateVector, body CelestialObject) (BPlane, error) {
	o, err := ElementsFromState(s, body)
	if err != nil {
		return BPlane{}, err
	}
	e := o.e
	if e <= 1+parabolicε {
		return BPlane{}, errors.Wrapf(ErrInvalidGeometry, "a B-plane requires a hyperbolic approach (e=%f)", e)
	}
	μ := body.μ
	hHat := Unit(s.H())
	eVec := sub(scale(1/μ, Cross(s.V, s.H())), Unit(s.R))
	heHat := Unit(Cross(hHat, eVec))
	// Incoming asymptote
	sβ, cβ := math.Sincos(math.Acos(1 / e))
	sHat := add(scale(cβ/e, eVec), scale(sβ, heHat))
	t := Cross(sHat, []float64{0, 0, 1})
	if Norm(t) < planeε {
		return BPlane{}, errors.Wrap(ErrDegenerateGeometry, "asymptote is along the rotation axis")
	}
	tHat := Unit(t)
	rHat := Unit(Cross(sHat, tHat))
	// |B| is the semi-minor axis.
	b := -o.a * math.Sqrt(e*e-1)
	bVec := scale(b, Cross(sHat, hHat))
	n := math.Sqrt(μ / -math.Pow(o.a, 3))
	return BPlane{
		State: s.Copy(),
		Body:  body,
		BR:    Dot(bVec, rHat),
		BT:    Dot(bVec, tHat),
		TOF:   seconds(-MeanFromTrue(o.ν, e) / n),
	}, nil
}

// B returns the magnitude of the B vector.
func (b BPlane) B() float64 {
	return math.Hypot(b.BR, b.BT)
}

// Target returns the impulse at State.DT which moves the B-plane to the goals, within tol km, along with the
// B-plane reached. The velocity correction is the minimum norm Newton step of the finite difference Jacobian.
func (b BPlane) Target(goalBR, goalBT, tol float64) (Impulse, BPlane, error) {
	if !finite(goalBR, goalBT, tol) || tol <= 0 {
		return Impulse{}, BPlane{}, errors.Wrapf(ErrInvalidGeometry, "invalid goals BR=%f BT=%f tol=%f", goalBR, goalBT, tol)
	}
	cur := b
	V := append([]float64(nil), b.State.V...)
	for iter := 0; iter < bPlaneMaxIter; iter++ {
		ΔB := mat.NewVecDense(2, []float64{goalBR - cur.BR, goalBT - cur.BT})
		if math.Abs(ΔB.AtVec(0)) < tol && math.Abs(ΔB.AtVec(1)) < tol {
			ΔV := sub(V, b.State.V)
			if floats.Norm(ΔV, 2) < zeroε {
				return Impulse{}, cur, errors.Wrap(ErrZeroDeltaV, "B-plane already on target")
			}
			return newImpulse(b.State, ΔV, Unit(b.State.H())), cur, nil
		}
		jacob := mat.NewDense(2, 3, nil)
		for i := 0; i < 3; i++ {
			vTmp := append([]float64(nil), V...)
			vTmp[i] += bPlanePert
			attempt, err := NewBPlane(NewStateVector(b.State.R, vTmp, b.State.DT), b.Body)
			if err != nil {
				return Impulse{}, BPlane{}, err
			}
			jacob.Set(0, i, (attempt.BR-cur.BR)/bPlanePert)
			jacob.Set(1, i, (attempt.BT-cur.BT)/bPlanePert)
		}
		var jjt mat.Dense
		jjt.Mul(jacob, jacob.T())
		var y mat.VecDense
		if err := y.SolveVec(&jjt, ΔB); err != nil {
			return Impulse{}, BPlane{}, errors.Wrapf(ErrConvergence, "singular B-plane Jacobian: %s", err)
		}
		var Δv mat.VecDense
		Δv.MulVec(jacob.T(), &y)
		for i := range V {
			V[i] += Δv.AtVec(i)
		}
		var err error
		if cur, err = NewBPlane(NewStateVector(b.State.R, V, b.State.DT), b.Body); err != nil {
			return Impulse{}, BPlane{}, err
		}
	}
	return Impulse{}, BPlane{}, errors.Wrapf(ErrConvergence, "B-plane targeting after %d iterations", bPlaneMaxIter)
}

func (b BPlane) String() string {
	return fmt.Sprintf("BR=%.8f BT=%.8f TOF=%s", b.BR, b.BT, b.TOF)
}
