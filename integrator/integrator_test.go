package integrator

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"
)

// Balbasi1D is the cooling of a metal ball, from Chapra: dθ/dt = -2.2067e-12 (θ^4 - 81e8).
type Balbasi1D struct {
	state []float64
	tEnd  float64
}

func (b *Balbasi1D) GetState() []float64 {
	return b.state
}

func (b *Balbasi1D) SetState(t float64, s []float64) {
	b.state = s
}

func (b *Balbasi1D) Stop(t float64) bool {
	return t >= b.tEnd
}

func (b *Balbasi1D) Func(t float64, s []float64) []float64 {
	return []float64{(-2.2067 * 1e-12) * (math.Pow(s[0], 4) - 81*1e8)}
}

// expGrowth is dy/dt = y.
type expGrowth struct {
	state []float64
	calls int
	tEnd  float64
}

func (e *expGrowth) GetState() []float64             { return e.state }
func (e *expGrowth) SetState(t float64, s []float64) { e.state = s }
func (e *expGrowth) Stop(t float64) bool             { return math.Abs(t) >= math.Abs(e.tEnd)-1e-12 }
func (e *expGrowth) Func(t float64, s []float64) []float64 {
	e.calls++
	return []float64{s[0]}
}

func TestRK4In1D(t *testing.T) {
	b := &Balbasi1D{state: []float64{1200}, tEnd: 480}
	if err := RK4(b, 480, 30); err != nil {
		t.Fatal(err)
	}
	if !scalar.EqualWithinAbs(b.state[0], 647.57, 0.5) {
		t.Fatalf("θ(480)=%f", b.state[0])
	}
}

func TestRK4Convergence(t *testing.T) {
	prevErr := math.Inf(1)
	for _, h := range []float64{0.2, 0.1, 0.05, 0.025} {
		e := &expGrowth{state: []float64{1}, tEnd: 1}
		if err := RK4(e, 1, h); err != nil {
			t.Fatal(err)
		}
		err := math.Abs(e.state[0] - math.E)
		if err >= prevErr {
			t.Fatalf("error did not decrease with h=%f: %e >= %e", h, err, prevErr)
		}
		prevErr = err
	}
	if prevErr > 1e-7 {
		t.Fatalf("RK4 error too large: %e", prevErr)
	}
}

func TestRK4Backward(t *testing.T) {
	e := &expGrowth{state: []float64{math.E}, tEnd: -1}
	// The sign of the step is irrelevant, the span sets the direction.
	if err := RK4(e, -1, 0.01); err != nil {
		t.Fatal(err)
	}
	if !scalar.EqualWithinAbs(e.state[0], 1, 1e-9) {
		t.Fatalf("backward integration gave %f", e.state[0])
	}
}

func TestRK4Errors(t *testing.T) {
	if err := RK4(&expGrowth{}, 1, 0); err == nil {
		t.Fatal("zero step should fail")
	}
	if err := RK4(nil, 1, 1); err == nil {
		t.Fatal("nil integrable should fail")
	}
}

func TestDormandPrince(t *testing.T) {
	e := &expGrowth{state: []float64{1}}
	if err := DormandPrince(e, 2, Tolerances{MaxStep: 1, AbsTol: 1e-12, RelTol: 1e-10}); err != nil {
		t.Fatal(err)
	}
	if !scalar.EqualWithinRel(e.state[0], math.Exp(2), 1e-7) {
		t.Fatalf("y(2)=%.12f exp=%.12f", e.state[0], math.Exp(2))
	}
	// Loose tolerances require fewer evaluations.
	e2 := &expGrowth{state: []float64{1}}
	if err := DormandPrince(e2, 2, Tolerances{MaxStep: 1, AbsTol: 1e-6, RelTol: 1e-6}); err != nil {
		t.Fatal(err)
	}
	if e2.calls >= e.calls {
		t.Fatalf("loose tolerance used %d calls vs %d", e2.calls, e.calls)
	}
}

func TestDormandPrinceBackward(t *testing.T) {
	b := &Balbasi1D{state: []float64{1200}}
	tol := Tolerances{MaxStep: 30, AbsTol: 1e-9, RelTol: 1e-10}
	if err := DormandPrince(b, 480, tol); err != nil {
		t.Fatal(err)
	}
	forward := b.state[0]
	if !scalar.EqualWithinAbs(forward, 647.57, 0.5) {
		t.Fatalf("θ(480)=%f", forward)
	}
	if err := DormandPrince(b, -480, tol); err != nil {
		t.Fatal(err)
	}
	if !scalar.EqualWithinAbs(b.state[0], 1200, 1e-3) {
		t.Fatalf("back and forth: %f (forward %f)", b.state[0], forward)
	}
}

func TestDormandPrinceErrors(t *testing.T) {
	if err := DormandPrince(&expGrowth{state: []float64{1}}, 1, Tolerances{}); err == nil {
		t.Fatal("zero max step should fail")
	}
	if err := DormandPrince(nil, 1, Tolerances{MaxStep: 1}); err == nil {
		t.Fatal("nil integrable should fail")
	}
}
