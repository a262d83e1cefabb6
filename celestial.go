package orbits

import (
	"math"
	"strings"

	"github.com/pkg/errors"
)

const (
	// AU is one astronomical unit in kilometers.
	AU = 1.49597870700e8
)

// CelestialObject defines a central body. It is immutable once defined and is passed by value
// to every computation, so that several central bodies may coexist.
type CelestialObject struct {
	Name         string
	Radius       float64 // Equatorial radius, km
	Flattening   float64 // Ellipsoid flattening, zero for a sphere
	a            float64 // Heliocentric semi-major axis, km
	μ            float64 // km^3/s^2
	RotationRate float64 // rad/s, about the inertial Z axis
	SOI          float64 // With respect to the Sun
	J2           float64
	J3           float64
	Atmosphere   Atmosphere // May be nil
}

// GM returns μ (which is unexported because it's a lowercase letter)
func (c CelestialObject) GM() float64 {
	return c.μ
}

// J returns the perturbing J_n factor for the provided n.
// Currently only J2 and J3 are supported.
func (c CelestialObject) J(n uint8) float64 {
	switch n {
	case 2:
		return c.J2
	case 3:
		return c.J3
	default:
		return 0.0
	}
}

// PolarRadius returns the polar radius of the reference ellipsoid.
func (c CelestialObject) PolarRadius() float64 {
	return c.Radius * (1 - c.Flattening)
}

// Eccentricity2 returns the square of the eccentricity of the reference ellipsoid.
func (c CelestialObject) Eccentricity2() float64 {
	return c.Flattening * (2 - c.Flattening)
}

// String implements the Stringer interface.
func (c CelestialObject) String() string {
	return c.Name + " body"
}

// Equals returns whether the provided celestial object is the same.
func (c CelestialObject) Equals(b CelestialObject) bool {
	return c.Name == b.Name && c.Radius == b.Radius && c.a == b.a && c.μ == b.μ && c.SOI == b.SOI && c.J2 == b.J2
}

// NewCelestialObject returns a custom spherical central body without oblateness nor atmosphere.
func NewCelestialObject(name string, radius, μ, rotationRate float64) (CelestialObject, error) {
	if !finite(radius, μ, rotationRate) || radius <= 0 || μ <= 0 {
		return CelestialObject{}, errors.Errorf("invalid central body %s: radius=%f μ=%f", name, radius, μ)
	}
	return CelestialObject{Name: name, Radius: radius, μ: μ, RotationRate: rotationRate, SOI: math.Inf(1)}, nil
}

// CelestialObjectFromString returns the object from its name
func CelestialObjectFromString(name string) (CelestialObject, error) {
	switch strings.ToLower(name) {
	case "sun":
		return Sun, nil
	case "mercury":
		return Mercury, nil
	case "venus":
		return Venus, nil
	case "earth":
		return Earth, nil
	case "moon":
		return Moon, nil
	case "mars":
		return Mars, nil
	case "jupiter":
		return Jupiter, nil
	default:
		return CelestialObject{}, errors.Errorf("undefined central body '%s'", name)
	}
}

/* Definitions */

// Sun is our closest star.
var Sun = CelestialObject{"Sun", 695700, 0, -1, 1.32712440017987e11, 2.865e-6, -1, 0, 0, nil}

// Mercury is hot.
var Mercury = CelestialObject{"Mercury", 2439.7, 0, 57909083, 2.2032e4, 1.2400e-6, 112408, 50.3e-6, 0, nil}

// Venus is poisonous.
var Venus = CelestialObject{"Venus", 6051.8, 0, 108208601, 3.24858599e5, -2.9924e-7, 0.616e6, 0.000027, 0, nil}

// Earth is home.
var Earth = CelestialObject{"Earth", 6378.1363, 1 / 298.257223563, 149598023, 3.98600433e5, EarthRotationRate, 924645.0, 1082.6269e-6, -2.5324e-6, earthAtmosphere}

// Moon orbits the Earth, and its SOI is with respect to the Earth.
var Moon = CelestialObject{"Moon", 1737.4, 0.0012, 384399, 4.9028e3, 2.6617e-6, 66100, 202.7e-6, 0, nil}

// Mars is the vacation place.
var Mars = CelestialObject{"Mars", 3396.19, 0.00589, 227939282.5616, 4.28283100e4, 7.088218e-5, 576000, 1964e-6, 36e-6, nil}

// Jupiter is big.
var Jupiter = CelestialObject{"Jupiter", 71492.0, 0.06487, 778298361, 1.266865361e8, 1.75853e-4, 48.2e6, 0.01475, 0, nil}
