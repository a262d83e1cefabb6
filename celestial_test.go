package orbits

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"
)

func TestCelestialObject(t *testing.T) {
	for _, object := range []CelestialObject{Sun, Mercury, Venus, Earth, Moon, Mars, Jupiter} {
		var i uint8
		for i = 1; i < 6; i++ {
			if i == 2 && object.J(i) != object.J2 {
				t.Fatalf("J2 not returned for %s", object)
			} else if i == 3 && object.J(i) != object.J3 {
				t.Fatalf("J3 not returned for %s", object)
			} else if (i < 2 || i > 3) && object.J(i) != 0 {
				t.Fatalf("J(%d) = %f != 0 for %s", i, object.J(i), object)
			}
		}
		found, err := CelestialObjectFromString(object.Name)
		if err != nil {
			t.Fatal(err)
		}
		if !found.Equals(object) {
			t.Fatalf("%s != %s", found, object)
		}
		if object.GM() <= 0 || object.Radius <= 0 || object.PolarRadius() > object.Radius {
			t.Fatalf("invalid definition of %s", object)
		}
	}
	if _, err := CelestialObjectFromString("Vulcan"); err == nil {
		t.Fatal("Vulcan is not a body")
	}
	if Earth.Equals(Mars) {
		t.Fatal("Earth == Mars")
	}
	if !scalar.EqualWithinAbs(Earth.Eccentricity2(), 0.00669437999, 1e-10) {
		t.Fatalf("invalid Earth ellipsoid e²=%f", Earth.Eccentricity2())
	}
	if !scalar.EqualWithinAbs(Earth.PolarRadius(), 6356.7516, 1e-3) {
		t.Fatalf("invalid Earth polar radius %f", Earth.PolarRadius())
	}
}

func TestNewCelestialObject(t *testing.T) {
	vesta, err := NewCelestialObject("Vesta", 262.7, 17.8, 3.27e-4)
	if err != nil {
		t.Fatal(err)
	}
	if vesta.GM() != 17.8 || vesta.J(2) != 0 || vesta.Atmosphere != nil || !math.IsInf(vesta.SOI, 1) {
		t.Fatalf("invalid custom body %+v", vesta)
	}
	for _, bad := range [][3]float64{{-1, 1, 0}, {1, 0, 0}, {1, math.NaN(), 0}, {1, 1, math.Inf(1)}} {
		if _, err := NewCelestialObject("Fake", bad[0], bad[1], bad[2]); err == nil {
			t.Fatalf("expected an error for %v", bad)
		}
	}
}

func TestAtmosphere(t *testing.T) {
	atm := Earth.Atmosphere
	if atm.Density(0) != 1.225 || atm.Density(-10) != 1.225 {
		t.Fatal("invalid surface density")
	}
	if !scalar.EqualWithinRel(atm.Density(400), 3.725e-12, 1e-12) {
		t.Fatalf("invalid density at 400 km: %e", atm.Density(400))
	}
	prev := math.Inf(1)
	for h := 0.0; h < 1500; h += 5 {
		ρ := atm.Density(h)
		if ρ <= 0 || ρ > prev {
			t.Fatalf("density must be positive and decreasing: ρ(%f)=%e", h, ρ)
		}
		prev = ρ
	}
	single := NewExponentialAtmosphere(1, 10)
	if !scalar.EqualWithinRel(single.Density(10), math.Exp(-1), 1e-15) {
		t.Fatalf("invalid exponential density %f", single.Density(10))
	}
	if (ExponentialAtmosphere{}).Density(10) != 0 {
		t.Fatal("an empty atmosphere has no density")
	}
}
