package orbits

import (
	"math"
	"testing"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats/scalar"
)

func approach() StateVector {
	return NewStateVector([]float64{546507.344255845, -527978.380486028, 531109.066836708}, []float64{-4.9220589268733, 5.36316523097915, -5.22166308425181}, epoch)
}

func TestBPlane(t *testing.T) {
	b, err := NewBPlane(approach(), Earth)
	if err != nil {
		t.Fatal(err)
	}
	if !scalar.EqualWithinAbs(b.BR, 10606.21042874, 1e-5) || !scalar.EqualWithinAbs(b.BT, 45892.32379544, 1e-5) {
		t.Fatalf("invalid B-plane %s", b)
	}
	o, err := approach().Elements(Earth)
	if err != nil {
		t.Fatal(err)
	}
	if !scalar.EqualWithinRel(b.B(), -o.SemiMajorAxis()*math.Sqrt(math.Pow(o.Eccentricity(), 2)-1), 1e-12) {
		t.Fatalf("|B|=%f is not the semi-minor axis", b.B())
	}
	if b.TOF <= 0 {
		t.Fatalf("approach should reach periapsis in the future, got %s", b.TOF)
	}
	// The periapsis is reached after TOF.
	peri, err := PropagateKepler(approach(), Earth, epoch.Add(b.TOF))
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(Dot(peri.R, peri.V)) > 1e-6*peri.RNorm()*peri.VNorm() {
		t.Fatalf("not at periapsis after %s: %s", b.TOF, peri)
	}
}

func TestBPlaneTarget(t *testing.T) {
	b, err := NewBPlane(approach(), Earth)
	if err != nil {
		t.Fatal(err)
	}
	goalBR, goalBT := 5022.26511510685, 13135.7982982557
	imp, reached, err := b.Target(goalBR, goalBT, 1e-5)
	if err != nil {
		t.Fatal(err)
	}
	if !scalar.EqualWithinAbs(reached.BR, goalBR, 1e-5) || !scalar.EqualWithinAbs(reached.BT, goalBT, 1e-5) {
		t.Fatalf("goals not reached: %s", reached)
	}
	if !scalar.EqualWithinAbs(imp.Magnitude, 0.319098, 1e-5) || !imp.DT.Equal(epoch) {
		t.Fatalf("invalid correction %s", imp)
	}
	after, err := NewBPlane(imp.apply(approach()), Earth)
	if err != nil {
		t.Fatal(err)
	}
	if !scalar.EqualWithinAbs(after.BR, goalBR, 1e-5) || !scalar.EqualWithinAbs(after.BT, goalBT, 1e-5) {
		t.Fatalf("impulse does not reach the goals: %s", after)
	}
	if _, _, err := b.Target(b.BR, b.BT, 1e-3); !errors.Is(err, ErrZeroDeltaV) {
		t.Fatalf("expected a null correction, got %v", err)
	}
	if _, _, err := b.Target(goalBR, math.NaN(), 1e-3); !errors.Is(err, ErrInvalidGeometry) {
		t.Fatalf("expected invalid goals, got %v", err)
	}
}

func TestBPlaneErrors(t *testing.T) {
	if _, err := NewBPlane(leo(t, 7000, 0), Earth); !errors.Is(err, ErrInvalidGeometry) {
		t.Fatalf("circular orbit has no B-plane, got %v", err)
	}
	rect := NewStateVector([]float64{7000, 0, 0}, []float64{20, 0, 0}, epoch)
	if _, err := NewBPlane(rect, Earth); !errors.Is(err, ErrDegenerateGeometry) {
		t.Fatalf("rectilinear trajectory has no B-plane, got %v", err)
	}
}
