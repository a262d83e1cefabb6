package orbits

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

func TestLambertVallado(t *testing.T) {
	// From Vallado, example 7-5
	Ri := mat.NewVecDense(3, []float64{15945.34, 0, 0})
	Rf := mat.NewVecDense(3, []float64{12214.83899, 10249.46731, 0})
	ViExp := mat.NewVecDense(3, []float64{2.058913, 2.915965, 0})
	VfExp := mat.NewVecDense(3, []float64{-3.451565, 0.910315, 0})
	for _, dm := range []TransferType{TType1, TTypeAuto} {
		Vi, Vf, ψ, err := Lambert(Ri, Rf, 76.0*time.Minute, dm, Earth)
		if err != nil {
			t.Fatalf("%s: %s", dm, err)
		}
		if !mat.EqualApprox(Vi, ViExp, 1e-6) {
			t.Logf("ψ=%f", ψ)
			t.Logf("\nGot %+v\nExp %+v\n", mat.Formatted(Vi), mat.Formatted(ViExp))
			t.Fatalf("%s: incorrect Vi computed", dm)
		}
		if !mat.EqualApprox(Vf, VfExp, 1e-6) {
			t.Logf("\nGot %+v\nExp %+v\n", mat.Formatted(Vf), mat.Formatted(VfExp))
			t.Fatalf("%s: incorrect Vf computed", dm)
		}
	}
	// The long way
	Vi, Vf, _, err := Lambert(Ri, Rf, 76.0*time.Minute, TType2, Earth)
	if err != nil {
		t.Fatal(err)
	}
	R, V, err := KeplerUniversal(Ri.RawVector().Data, Vi.RawVector().Data, 76*60, Earth.GM())
	if err != nil {
		t.Fatal(err)
	}
	if !vectorsEqual(R[:2], Rf.RawVector().Data[:2]) || !vectorsEqual(V[:2], Vf.RawVector().Data[:2]) {
		t.Fatalf("long way transfer does not reach the target: R=%v V=%v", R, V)
	}
	if !TType2.Longway() || TType1.Longway() {
		t.Fatal("invalid transfer types")
	}
	assertPanic(t, func() {
		TTypeAuto.Longway()
	})
}

func TestLambertErrors(t *testing.T) {
	Ri := mat.NewVecDense(3, []float64{7000, 0, 0})
	if _, _, _, err := Lambert(Ri, mat.NewVecDense(3, []float64{-8000, 0, 0}), time.Hour, TType1, Earth); !errors.Is(err, ErrInfeasibleManeuver) {
		t.Fatalf("opposite positions: expected an infeasible maneuver, got %v", err)
	}
	if _, _, _, err := Lambert(Ri, mat.NewVecDense(3, []float64{0, 8000, 0}), -time.Hour, TType1, Earth); !errors.Is(err, ErrInvalidGeometry) {
		t.Fatalf("negative time of flight: expected an invalid geometry, got %v", err)
	}
	if _, _, _, err := Lambert(Ri, mat.NewVecDense(2, []float64{0, 8000}), time.Hour, TType1, Earth); !errors.Is(err, ErrInvalidGeometry) {
		t.Fatalf("2D vector: expected an invalid geometry, got %v", err)
	}
}
