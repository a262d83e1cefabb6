package orbits

import (
	"math"
	"sort"
)

// Atmosphere returns the density in kg/m^3 at a given altitude in km above the body's surface.
type Atmosphere interface {
	Density(altitude float64) float64
}

// atmosphereLayer is a single band of an exponential atmosphere model.
type atmosphereLayer struct {
	h0, ρ0, H float64 // base altitude (km), base density (kg/m^3), scale height (km)
}

// ExponentialAtmosphere is a piecewise exponential density model.
// Layers must be sorted by increasing base altitude.
type ExponentialAtmosphere struct {
	layers []atmosphereLayer
}

// NewExponentialAtmosphere returns a single-layer atmosphere of surface density ρ0 and scale height H.
func NewExponentialAtmosphere(ρ0, H float64) ExponentialAtmosphere {
	return ExponentialAtmosphere{[]atmosphereLayer{{0, ρ0, H}}}
}

// Density implements the Atmosphere interface.
func (a ExponentialAtmosphere) Density(altitude float64) float64 {
	if len(a.layers) == 0 {
		return 0
	}
	if altitude < a.layers[0].h0 {
		return a.layers[0].ρ0
	}
	idx := sort.Search(len(a.layers), func(i int) bool { return a.layers[i].h0 > altitude }) - 1
	layer := a.layers[idx]
	return layer.ρ0 * math.Exp(-(altitude-layer.h0)/layer.H)
}

// Vallado, 4th edition, table 8-4.
var earthAtmosphere = ExponentialAtmosphere{[]atmosphereLayer{
	{0, 1.225, 7.249},
	{25, 3.899e-2, 6.349},
	{30, 1.774e-2, 6.682},
	{40, 3.972e-3, 7.554},
	{50, 1.057e-3, 8.382},
	{60, 3.206e-4, 7.714},
	{70, 8.770e-5, 6.549},
	{80, 1.905e-5, 5.799},
	{90, 3.396e-6, 5.382},
	{100, 5.297e-7, 5.877},
	{110, 9.661e-8, 7.263},
	{120, 2.438e-8, 9.473},
	{130, 8.484e-9, 12.636},
	{140, 3.845e-9, 16.149},
	{150, 2.070e-9, 22.523},
	{180, 5.464e-10, 29.740},
	{200, 2.789e-10, 37.105},
	{250, 7.248e-11, 45.546},
	{300, 2.418e-11, 53.628},
	{350, 9.518e-12, 53.298},
	{400, 3.725e-12, 58.515},
	{450, 1.585e-12, 60.828},
	{500, 6.967e-13, 63.822},
	{600, 1.454e-13, 71.835},
	{700, 3.614e-14, 88.667},
	{800, 1.170e-14, 124.64},
	{900, 5.245e-15, 181.05},
	{1000, 3.019e-15, 268.00},
}}
