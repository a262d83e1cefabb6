package orbits

import (
	"math"
	"testing"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"
)

func TestPertArbitrary(t *testing.T) {
	s := NewStateVector([]float64{6524.834, 6862.875, 6448.296}, []float64{4.901327, 5.533756, -1.976341}, epoch)
	pertForce := []float64{1, 2, 3}
	arb := PerturbationFunc(func(s StateVector, body CelestialObject) []float64 {
		return pertForce
	})
	perts := Perturbations{arb, nil, arb}
	if !floats.Equal([]float64{2, 4, 6}, perts.Accel(s, Earth)) {
		t.Fatalf("arbitrary pertubations fail: %v", perts.Accel(s, Earth))
	}
	if !isNull(nil) || !isNull(Perturbations{}) || !isNull(Perturbations{nil, Perturbations{}}) {
		t.Fatal("empty perturbations must be null")
	}
	if isNull(perts) || isNull(Oblateness{2}) {
		t.Fatal("non empty perturbations are not null")
	}
}

func TestOblateness(t *testing.T) {
	r := 7000.0
	s := NewStateVector([]float64{r, 0, 0}, []float64{0, 7.5, 0}, epoch)
	if !floats.Equal((Oblateness{1}).Accel(s, Earth), []float64{0, 0, 0}) {
		t.Fatal("J1 is not a perturbation")
	}
	// In the equatorial plane, J2 pulls towards the body.
	exp := -1.5 * Earth.J2 * Earth.Radius * Earth.Radius * Earth.GM() / math.Pow(r, 4)
	acc := (Oblateness{2}).Accel(s, Earth)
	if !scalar.EqualWithinRel(acc[0], exp, 1e-12) || acc[1] != 0 || acc[2] != 0 {
		t.Fatalf("invalid J2 acceleration %v (expected %e)", acc, exp)
	}
	// J3 is antisymmetric about the equator.
	north := NewStateVector([]float64{5000, 0, 4000}, []float64{0, 7.5, 0}, epoch)
	south := NewStateVector([]float64{5000, 0, -4000}, []float64{0, 7.5, 0}, epoch)
	accN := sub((Oblateness{3}).Accel(north, Earth), (Oblateness{2}).Accel(north, Earth))
	accS := sub((Oblateness{3}).Accel(south, Earth), (Oblateness{2}).Accel(south, Earth))
	if !scalar.EqualWithinRel(accN[2], accS[2], 1e-12) || !scalar.EqualWithinRel(accN[0], -accS[0], 1e-12) {
		t.Fatalf("invalid J3 symmetry: %v %v", accN, accS)
	}
}

func TestOblatenessRAANDrift(t *testing.T) {
	i := 28.5 * deg2rad
	s := leo(t, 7000, i)
	o, _ := ElementsFromState(s, Earth)
	period := 2 * math.Pi * math.Sqrt(math.Pow(7000, 3)/Earth.GM())
	Δt := 15 * period
	final, err := Propagate(s, Earth, Oblateness{2}, epoch.Add(seconds(Δt)), StepSize)
	if err != nil {
		t.Fatal(err)
	}
	oF, err := ElementsFromState(final, Earth)
	if err != nil {
		t.Fatal(err)
	}
	// Secular rate from Vallado, eq. 9-41.
	expΩDot := -1.5 * o.MeanMotion() * Earth.J2 * math.Pow(Earth.Radius/o.p, 2) * math.Cos(i)
	ΔΩ := wrapAngle(oF.Ω - o.Ω)
	if !scalar.EqualWithinRel(ΔΩ, expΩDot*Δt, 2e-2) {
		t.Fatalf("RAAN drifted by %f deg instead of %f deg", ΔΩ/deg2rad, expΩDot*Δt/deg2rad)
	}
	if !scalar.EqualWithinAbs(oF.i, i, 1e-3) {
		t.Fatalf("inclination changed: %f", oF.i/deg2rad)
	}
}

func TestDragDecay(t *testing.T) {
	r := Earth.Radius + 200
	s := leo(t, r, 0.5)
	period := 2 * math.Pi * math.Sqrt(math.Pow(r, 3)/Earth.GM())
	final, err := Propagate(s, Earth, Drag{Cd: 2.2, AreaToMass: 0.01}, epoch.Add(seconds(period)), StepSize)
	if err != nil {
		t.Fatal(err)
	}
	o, _ := ElementsFromState(final, Earth)
	// About 2π Cd A/m ρ a² per revolution.
	if Δa := o.a - r; Δa > -0.5 || Δa < -5 {
		t.Fatalf("semi-major axis changed by %f km in one revolution", Δa)
	}
	if (Drag{}).Accel(s, Earth)[0] != 0 {
		t.Fatal("null drag")
	}
	if !floats.Equal((Drag{Cd: 2.2, AreaToMass: 0.01}).Accel(s, Mars), []float64{0, 0, 0}) {
		t.Fatal("no drag without atmosphere")
	}
}

func TestThirdBody(t *testing.T) {
	for _, dt := range []time.Time{
		time.Date(2015, 1, 1, 10, 0, 0, 0, time.UTC),
		time.Date(2017, 6, 12, 0, 0, 0, 0, time.UTC),
		time.Date(2020, 11, 30, 18, 30, 0, 0, time.UTC),
	} {
		moon := MeeusMoon.Position(dt)
		if r := Norm(moon); r < 356000 || r > 407000 {
			t.Fatalf("Moon is %f km away on %s", r, dt)
		}
		if r := Norm(MeeusSun.Position(dt)); !scalar.EqualWithinRel(r, AU, 1e-12) {
			t.Fatalf("Sun is %f km away on %s", r, dt)
		}
		// The Moon stays within about 29 degrees of the equator.
		if δ := math.Asin(moon[2]/Norm(moon)) / deg2rad; math.Abs(δ) > 29 {
			t.Fatalf("Moon declination is %f deg on %s", δ, dt)
		}
	}
	s := leo(t, 7000, 0.5)
	for _, body := range []CelestialObject{Moon, Sun} {
		pert, err := NewThirdBody(body)
		if err != nil {
			t.Fatal(err)
		}
		if acc := Norm(pert.Accel(s, Earth)); acc < 1e-10 || acc > 1e-8 {
			t.Fatalf("%s acceleration is %e km/s^2", body, acc)
		}
	}
	if _, err := NewThirdBody(Mars); err == nil {
		t.Fatal("no ephemeris for Mars")
	}
	// A Kepler ephemeris is the reference state at its epoch.
	// The reference is circular under the same μ as the ephemeris.
	μ := Earth.GM() + Moon.GM()
	circ := leo(t, 384400, 5*deg2rad)
	ref := NewStateVector(circ.R, scale(math.Sqrt(μ/Earth.GM()), circ.V), epoch)
	eph := KeplerEphemeris(ref, μ)
	if !floats.Equal(eph.Position(epoch), ref.R) {
		t.Fatal("invalid Kepler ephemeris")
	}
	if r := Norm(eph.Position(epoch.Add(48 * time.Hour))); !scalar.EqualWithinRel(r, 384400, 1e-9) {
		t.Fatalf("circular Kepler ephemeris is at %f km", r)
	}
}
