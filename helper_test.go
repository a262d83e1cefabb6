package orbits

import (
	"fmt"
	"math"
	"testing"
	"time"

	"gonum.org/v1/gonum/floats/scalar"
)

var epoch = time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC)

func assertPanic(t *testing.T, f func()) {
	defer func() {
		if r := recover(); r == nil {
			t.Errorf("code did not panic")
		}
	}()
	f()
}

func vectorsEqual(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := len(a) - 1; i >= 0; i-- {
		// Components which should vanish carry round off, hence the absolute floor.
		if !scalar.EqualWithinAbsOrRel(a[i], b[i], 1e-8, 1e-3) {
			return false
		}
	}
	return true
}

// anglesEqual returns whether two angles in Radians are equal.
func anglesEqual(a, b float64) (bool, error) {
	diff := math.Abs(wrapAngle(a - b))
	if diff < angleTol {
		return true, nil
	}
	return false, fmt.Errorf("difference of %3.10f degrees", diff/deg2rad)
}

// leo returns a circular low Earth orbit state at epoch.
func leo(t *testing.T, r, i float64) StateVector {
	s, err := StateFromElements(NewOrbitFromOE(r, 0, i, 0, 0, 0, Earth, epoch), Earth)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestVectorsEqual(t *testing.T) {
	if !vectorsEqual([]float64{3.6e-12, -25324.39, 46355.99}, []float64{0, -25324.39, 46355.99}) {
		t.Fatal("round off on a null component should be equal")
	}
	if vectorsEqual([]float64{1e-3, 1, 1}, []float64{0, 1, 1}) || vectorsEqual([]float64{1, 1}, []float64{1, 1, 1}) {
		t.Fatal("different vectors are equal")
	}
}
