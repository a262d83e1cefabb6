package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/astrolab/orbits"
)

func TestNewExportersFailure(t *testing.T) {
	dir := t.TempDir()
	s := orbits.NewStateVector([]float64{7000, 0, 0}, []float64{0, 7.5, 0}, time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC))
	var bodies []*orbits.Body
	// The second body would be exported to a directory which does not exist.
	for _, name := range []string{"first", filepath.Join("missing", "second")} {
		b, err := orbits.NewBody(name, orbits.Earth, s, 100, 1, 2.2)
		if err != nil {
			t.Fatal(err)
		}
		bodies = append(bodies, b)
	}
	sc := &scenario{exportDir: dir, asCSV: true, cosmo: true}
	if _, err := newExporters(sc, bodies); err == nil {
		t.Fatal("expected a creation error")
	}
	// The exporter of the first body was closed, which flushed its header.
	data, err := os.ReadFile(filepath.Join(dir, "orbital-elements-first.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "body,time,jd") {
		t.Fatalf("first exporter was not closed:\n%s", data)
	}

	sc.exportDir = filepath.Join(dir, "none")
	if _, err := newExporters(sc, bodies[:1]); err == nil {
		t.Fatal("expected a creation error for the first file")
	}
}
