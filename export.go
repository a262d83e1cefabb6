package orbits

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/soniakeys/meeus/v3/julian"
)

// InterpolatedState is one record of a Cosmographia interpolated states (xyzv) file.
type InterpolatedState struct {
	JD       float64
	Position []float64
	Velocity []float64
}

// ToText converts to text for written output.
func (i InterpolatedState) ToText() string {
	return fmt.Sprintf("%f %f %f %f %f %f %f", i.JD, i.Position[0], i.Position[1], i.Position[2], i.Velocity[0], i.Velocity[1], i.Velocity[2])
}

// ParseInterpolatedStates reads the records of an xyzv file. Comments start with '#'.
func ParseInterpolatedStates(s string) ([]InterpolatedState, error) {
	var states []InterpolatedState
	r := csv.NewReader(strings.NewReader(s))
	r.Comma = ' '
	r.Comment = '#'
	r.FieldsPerRecord = 7
	for {
		record, err := r.Read()
		if err == io.EOF {
			return states, nil
		}
		if err != nil {
			return nil, err
		}
		vals := make([]float64, 7)
		for i, field := range record {
			if vals[i], err = strconv.ParseFloat(field, 64); err != nil {
				return nil, errors.Wrapf(err, "record %d", len(states))
			}
		}
		states = append(states, InterpolatedState{JD: vals[0], Position: vals[1:4], Velocity: vals[4:7]})
	}
}

// Record is a point of the trajectory of a body.
type Record struct {
	Body    string
	State   StateVector
	Central CelestialObject
}

// Exporter streams trajectories to a Cosmographia interpolated states writer and to an orbital elements CSV writer.
// Either writer may be nil. Records are written in the order they are received.
type Exporter struct {
	records chan Record
	wg      sync.WaitGroup
	err     error
}

// NewExporter starts streaming the records until Close is called.
func NewExporter(xyzv, elements io.Writer) *Exporter {
	e := &Exporter{records: make(chan Record, 1000)} // a 1k entry buffer
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		e.err = stream(xyzv, elements, e.records)
	}()
	return e
}

// Record queues a state of a body.
func (e *Exporter) Record(name string, s StateVector, central CelestialObject) {
	e.records <- Record{Body: name, State: s.Copy(), Central: central}
}

// Close waits for all the records to be written and returns the first write error.
func (e *Exporter) Close() error {
	close(e.records)
	e.wg.Wait()
	return e.err
}

func stream(xyzv, elements io.Writer, records <-chan Record) error {
	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	var w *csv.Writer
	if elements != nil {
		_, err := fmt.Fprintf(elements, "# Creation date (UTC): %s\n# Records are a, e, i, Ω, ω, ν. All angles are in degrees.\n", time.Now().UTC())
		keep(err)
		w = csv.NewWriter(elements)
		keep(w.Write([]string{"body", "time", "jd", "x", "y", "z", "vx", "vy", "vz", "a", "e", "i", "Omega", "omega", "nu"}))
	}
	if xyzv != nil {
		_, err := fmt.Fprintf(xyzv, "# Records are <jd> <x> <y> <z> <vel x> <vel y> <vel z>\n#   Time is a Julian date\n#   Position in km\n#   Velocity in km/sec\n")
		keep(err)
	}
	for rec := range records {
		if firstErr != nil {
			continue // Drain so that producers never block.
		}
		jd := julian.TimeToJD(rec.State.DT)
		if xyzv != nil {
			_, err := fmt.Fprintln(xyzv, InterpolatedState{jd, rec.State.R, rec.State.V}.ToText())
			keep(err)
		}
		if w != nil {
			row := []string{rec.Body, rec.State.DT.UTC().Format(time.RFC3339), ftoa(jd)}
			for _, v := range append(append([]float64(nil), rec.State.R...), rec.State.V...) {
				row = append(row, ftoa(v))
			}
			if o, err := ElementsFromState(rec.State, rec.Central); err == nil {
				row = append(row, ftoa(o.a), ftoa(o.e), ftoa(Rad2deg(o.i)), ftoa(Rad2deg(o.Ω)), ftoa(Rad2deg(o.ω)), ftoa(Rad2deg(o.ν)))
			} else {
				row = append(row, "", "", "", "", "", "")
			}
			keep(w.Write(row))
		}
	}
	if w != nil {
		w.Flush()
		keep(w.Error())
	}
	return firstErr
}

func ftoa(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
