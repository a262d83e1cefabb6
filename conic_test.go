package orbits

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"
)

func TestVisViva(t *testing.T) {
	μ := Earth.GM()
	if !scalar.EqualWithinRel(VisViva(7000, 7000, μ), CircularSpeed(7000, μ), 1e-15) {
		t.Fatal("vis viva of a circular orbit is not the circular speed")
	}
	if !scalar.EqualWithinRel(VisViva(7000, math.Inf(1), μ), EscapeSpeed(7000, μ), 1e-15) {
		t.Fatal("vis viva of a parabola is not the escape speed")
	}
	if !scalar.EqualWithinRel(EscapeSpeed(7000, μ), math.Sqrt2*CircularSpeed(7000, μ), 1e-15) {
		t.Fatal("escape speed is not sqrt(2) times the circular speed")
	}
	// v² = v∞² + vesc²
	a := -20000.0
	if !scalar.EqualWithinRel(math.Pow(VisViva(7000, a, μ), 2), math.Pow(HyperbolicExcessSpeed(a, μ), 2)+math.Pow(EscapeSpeed(7000, μ), 2), 1e-12) {
		t.Fatal("invalid hyperbolic excess speed")
	}
	if !scalar.EqualWithinAbs(TurningAngle(math.Sqrt2), math.Pi/2, 1e-12) {
		t.Fatalf("turning angle = %f", TurningAngle(math.Sqrt2))
	}
}

func TestInclinationFromLaunch(t *testing.T) {
	lat := 28.5 * deg2rad
	if !scalar.EqualWithinAbs(InclinationFromLaunch(lat, math.Pi/2), lat, 1e-12) {
		t.Fatal("an Eastward launch should have an inclination equal to the latitude")
	}
	if !scalar.EqualWithinAbs(InclinationFromLaunch(lat, 0), math.Pi/2, 1e-12) {
		t.Fatal("a Northward launch should be polar")
	}
}

func TestTimeOfFlight(t *testing.T) {
	μ := Earth.GM()
	o := NewOrbitFromOE(10000, 0.3, 0, 0, 0, 0, Earth, epoch)
	period := 2 * math.Pi * math.Sqrt(math.Pow(10000, 3)/μ)
	if tof := TimeOfFlight(o.e, o.p, 0, math.Pi, μ); !scalar.EqualWithinRel(tof, period/2, 1e-12) {
		t.Fatalf("periapsis to apoapsis took %f s instead of %f s", tof, period/2)
	}
	// The next crossing of ν2
	if tof := TimeOfFlight(o.e, o.p, 2, 1, μ); tof < period/2 || tof > period {
		t.Fatalf("invalid time of flight %f", tof)
	}
	if tof := TimeOfFlight(o.e, o.p, 1, 1, μ); tof != 0 {
		t.Fatalf("invalid time of flight %f", tof)
	}
	// Open orbits
	p := 14000.0
	if tof := TimeOfFlight(1, p, -1, 1, μ); !(tof > 0) {
		t.Fatalf("invalid parabolic time of flight %f", tof)
	}
	if tof := TimeOfFlight(1, p, 1, -1, μ); !math.IsNaN(tof) {
		t.Fatal("parabolic trajectories cannot fly backwards")
	}
	if tof := TimeOfFlight(1.5, p, 0, 1, μ); !(tof > 0) {
		t.Fatalf("invalid hyperbolic time of flight %f", tof)
	}
	if tof := TimeOfFlight(1.5, p, 0, 2.5, μ); !math.IsNaN(tof) {
		t.Fatal("the hyperbola never reaches beyond its asymptote")
	}
	if tof := TimeOfFlight(1.5, p, 1, 0, μ); !math.IsNaN(tof) {
		t.Fatal("hyperbolic trajectories cannot fly backwards")
	}
}
