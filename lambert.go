package orbits

import (
	"fmt"
	"math"
	"time"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/mat"
)

// TransferType defines the type of Lambert transfer
type TransferType uint8

const (
	// TTypeAuto lets the Lambert solver determine the type from the sense of the prograde (+Z) motion.
	TTypeAuto TransferType = iota + 1
	// TType1 is transfer of type 1 (zero revolution, short way)
	TType1
	// TType2 is transfer of type 2 (zero revolution, long way)
	TType2
	lambertε   = 1e-4 // General epsilon
	lambertTε  = 1e-9 // Relative time epsilon
	lambertMax = 10000
)

// Longway returns whether or not this is the long way.
func (t TransferType) Longway() bool {
	switch t {
	case TType1:
		return false
	case TType2:
		return true
	default:
		panic(fmt.Errorf("cannot determine whether long or short way for %s", t))
	}
}

func (t TransferType) String() string {
	switch t {
	case TTypeAuto:
		return "auto"
	case TType1:
		return "type-1"
	case TType2:
		return "type-2"
	default:
		panic("unknown transfer type")
	}
}

// Lambert solves the Lambert boundary problem with universal variables:
// given the initial and final radii, a time of flight and a central body, it returns the needed initial and final
// velocities along with ψ, the square of the difference in eccentric anomaly. From Vallado, algorithm 58.
func Lambert(Ri, Rf *mat.VecDense, Δt0 time.Duration, ttype TransferType, body CelestialObject) (Vi, Vf *mat.VecDense, ψ float64, err error) {
	if Ri.Len() != 3 || Rf.Len() != 3 {
		err = errors.Wrap(ErrInvalidGeometry, "initial and final radii must be 3x1 vectors")
		return
	}
	Δt0Sec := Δt0.Seconds()
	if Δt0Sec <= 0 {
		err = errors.Wrapf(ErrInvalidGeometry, "time of flight must be positive (got %s)", Δt0)
		return
	}
	rI := mat.Norm(Ri, 2)
	rF := mat.Norm(Rf, 2)
	cosΔν := mat.Dot(Ri, Rf) / (rI * rF)
	dm := 1.0
	switch ttype {
	case TType2:
		dm = -1.0
	case TTypeAuto:
		// Prograde motion about +Z.
		if Ri.AtVec(0)*Rf.AtVec(1)-Ri.AtVec(1)*Rf.AtVec(0) < 0 {
			dm = -1.0
		}
	}
	A := dm * math.Sqrt(rI*rF*(1+cosΔν))
	if scalar.EqualWithinAbs(A, 0, lambertε) {
		err = errors.Wrap(ErrInfeasibleManeuver, "cannot compute trajectory: Δν ~= 0 or π, the transfer plane is undefined")
		return
	}
	sμ := math.Sqrt(body.μ)
	ψup := 4 * math.Pi * math.Pi
	ψlow := -4 * math.Pi
	c2, c3 := stumpff(ψ)
	var Δt, y float64
	for iteration := 0; ; iteration++ {
		if iteration > lambertMax {
			err = errors.Wrapf(ErrConvergence, "Lambert did not converge after %d iterations", lambertMax)
			return
		}
		y = rI + rF + A*(ψ*c3-1)/math.Sqrt(c2)
		if A > 0 && y < 0 {
			// ψ is too low for this geometry.
			ψlow = ψ
			ψ = (ψup + ψlow) / 2
			c2, c3 = stumpff(ψ)
			continue
		}
		χ := math.Sqrt(y / c2)
		Δt = (math.Pow(χ, 3)*c3 + A*math.Sqrt(y)) / sμ
		if math.Abs(Δt-Δt0Sec) <= lambertTε*math.Max(1, Δt0Sec) {
			break
		}
		if Δt <= Δt0Sec {
			ψlow = ψ
		} else {
			ψup = ψ
		}
		ψ = (ψup + ψlow) / 2
		c2, c3 = stumpff(ψ)
	}
	f := 1 - y/rI
	gDot := 1 - y/rF
	g := A * math.Sqrt(y/body.μ)
	// Compute velocities
	Vi = mat.NewVecDense(3, nil)
	Vf = mat.NewVecDense(3, nil)
	Vi.AddScaledVec(Rf, -f, Ri)
	Vi.ScaleVec(1/g, Vi)
	Vf.ScaleVec(gDot, Rf)
	Vf.AddScaledVec(Vf, -1, Ri)
	Vf.ScaleVec(1/g, Vf)
	return
}
