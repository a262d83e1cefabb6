package orbits

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"
)

func TestInterpolatedState(t *testing.T) {
	s := InterpolatedState{JD: 2451545, Position: []float64{1, 2, 3}, Velocity: []float64{4, 5, -6}}
	if txt := s.ToText(); txt != "2451545.000000 1.000000 2.000000 3.000000 4.000000 5.000000 -6.000000" {
		t.Fatalf("invalid text `%s`", txt)
	}
	for _, bad := range []string{"1 2 3\n", "a b c d e f g\n"} {
		if _, err := ParseInterpolatedStates(bad); err == nil {
			t.Fatalf("`%s` should not parse", bad)
		}
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestExporter(t *testing.T) {
	var xyzv, elements bytes.Buffer
	exp := NewExporter(&xyzv, &elements)
	s := leo(t, 7000, Deg2rad(28.5))
	later, err := PropagateKepler(s, Earth, epoch.Add(time.Minute))
	if err != nil {
		t.Fatal(err)
	}
	rectilinear := NewStateVector([]float64{7000, 0, 0}, []float64{1, 0, 0}, epoch)
	exp.Record("sat", s, Earth)
	exp.Record("sat", later, Earth)
	exp.Record("rock", rectilinear, Earth)
	if err := exp.Close(); err != nil {
		t.Fatal(err)
	}

	states, err := ParseInterpolatedStates(xyzv.String())
	if err != nil {
		t.Fatal(err)
	}
	if len(states) != 3 {
		t.Fatalf("expected 3 states, got %d", len(states))
	}
	if !scalar.EqualWithinAbs(states[0].JD, 2458119.5, 1e-6) || !scalar.EqualWithinAbs(states[1].JD-states[0].JD, 1./1440, 1e-6) {
		t.Fatalf("invalid dates %f %f", states[0].JD, states[1].JD)
	}
	for i, exp := range []StateVector{s, later} {
		if !floats.EqualApprox(states[i].Position, exp.R, 1e-6) || !floats.EqualApprox(states[i].Velocity, exp.V, 1e-6) {
			t.Fatalf("state %d: %+v != %s", i, states[i], exp)
		}
	}

	r := csv.NewReader(strings.NewReader(elements.String()))
	r.Comment = '#'
	rows, err := r.ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 4 {
		t.Fatalf("expected a header and 3 rows, got %d", len(rows))
	}
	if strings.Join(rows[0], ",") != "body,time,jd,x,y,z,vx,vy,vz,a,e,i,Omega,omega,nu" {
		t.Fatalf("invalid header %v", rows[0])
	}
	if rows[1][0] != "sat" || rows[1][1] != "2018-01-01T00:00:00Z" || rows[1][9] != "7000.000000" || rows[1][11] != "28.500000" {
		t.Fatalf("invalid row %v", rows[1])
	}
	if rows[3][0] != "rock" || rows[3][3] != "7000.000000" || rows[3][9] != "" || rows[3][14] != "" {
		t.Fatalf("rectilinear state should not have elements: %v", rows[3])
	}
}

func TestExporterPartial(t *testing.T) {
	var xyzv bytes.Buffer
	exp := NewExporter(&xyzv, nil)
	exp.Record("sat", leo(t, 7000, 0), Earth)
	if err := exp.Close(); err != nil {
		t.Fatal(err)
	}
	if states, err := ParseInterpolatedStates(xyzv.String()); err != nil || len(states) != 1 {
		t.Fatalf("expected a single state: %v", err)
	}

	// Write errors are reported on Close, and never block the producer.
	failing := NewExporter(failingWriter{}, failingWriter{})
	for k := 0; k < 2000; k++ {
		failing.Record("sat", leo(t, 7000+float64(k), 0), Earth)
	}
	if err := failing.Close(); err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Fatalf("expected the write error, got %v", err)
	}
}
