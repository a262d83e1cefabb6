package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	kitlog "github.com/go-kit/log"
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/astrolab/orbits"
)

// This code reads the scenario file, plans its maneuvers and ticks all of its bodies.

const (
	defaultScenario = "~~unset~~"
	dateFormat      = "2006-01-02 15:04:05"
)

var (
	scenarioName string
	verbose      bool
)

func init() {
	// Read flags
	flag.StringVar(&scenarioName, "scenario", defaultScenario, "simulation scenario TOML file")
	flag.BoolVar(&verbose, "verbose", false, "log every tick")
}

func main() {
	flag.Parse()
	// Load scenario
	if scenarioName == defaultScenario {
		log.Fatal("no scenario provided")
	}
	confPath := os.Getenv("ORBITS_CONFIG")
	if confPath == "" {
		confPath = "."
	}
	v := viper.New()
	v.AddConfigPath(confPath)
	v.SetConfigName(strings.TrimSuffix(scenarioName, ".toml"))
	if err := v.ReadInConfig(); err != nil {
		log.Fatalf("%s/%s.toml: Error %s", confPath, scenarioName, err)
	}
	sc, err := readScenario(v)
	if err != nil {
		log.Fatalf("invalid scenario: %s", err)
	}
	logger := kitlog.NewLogfmtLogger(kitlog.NewSyncWriter(os.Stdout))
	if _, err := run(sc, logger); err != nil {
		log.Fatalf("simulation failed: %s", err)
	}
}

// run executes the scenario and returns the bodies at the end of the simulation.
func run(sc *scenario, logger kitlog.Logger) ([]*orbits.Body, error) {
	bodies := make([]*orbits.Body, 0, len(sc.bodies))
	byName := make(map[string]*orbits.Body)
	for _, bc := range sc.bodies {
		b, err := newBody(sc, bc, logger)
		if err != nil {
			return nil, errors.Wrapf(err, "body %s", bc.name)
		}
		bodies = append(bodies, b)
		byName[b.Name] = b
	}

	// Each maneuver is planned from the state after the previous maneuver of the same body.
	planned := make(map[string]orbits.StateVector)
	for _, b := range bodies {
		planned[b.Name] = b.State
	}
	for _, mc := range sc.maneuvers {
		b := byName[mc.body]
		m, err := plan(planned[b.Name], b.Central, mc)
		if errors.Is(err, orbits.ErrZeroDeltaV) {
			logger.Log("level", "notice", "subsys", "astro", "body", b.Name, "maneuver", mc.kind, "status", "skipped", "reason", err)
			continue
		}
		if err != nil {
			return nil, errors.Wrapf(err, "%s maneuver of %s", mc.kind, b.Name)
		}
		if err := b.Schedule(m); err != nil {
			return nil, err
		}
		planned[b.Name] = m.Final
	}

	exporters, err := newExporters(sc, bodies)
	if err != nil {
		return nil, err
	}
	record := func() {
		for i, b := range bodies {
			if exporters[i] != nil {
				exporters[i].Record(b.Name, b.State, b.Central)
			}
		}
	}
	record()
	tick := time.Duration(float64(sc.step) * sc.rate)
	ticks := int(math.Ceil(float64(sc.duration) / float64(tick)))
	for k := 0; k < ticks; k++ {
		for i, err := range orbits.TickAll(bodies, sc.step, sc.rate) {
			if err != nil {
				closeExporters(exporters)
				return nil, errors.Wrapf(err, "tick %d of %s", k, bodies[i].Name)
			}
		}
		record()
		if verbose {
			for _, b := range bodies {
				logger.Log("level", "debug", "subsys", "astro", "body", b.Name, "date", b.State.DT.Format(dateFormat), "r(km)", b.State.RNorm())
			}
		}
	}
	if err := closeExporters(exporters); err != nil {
		return nil, err
	}
	for _, b := range bodies {
		o, err := b.Elements()
		if err != nil {
			logger.Log("level", "warning", "subsys", "astro", "body", b.Name, "state", b.State, "err", err)
			continue
		}
		logger.Log("level", "info", "subsys", "astro", "body", b.Name, "date", b.State.DT.Format(dateFormat), "state", b.State, "orbit", o)
	}
	return bodies, nil
}

// newBody resolves the input of the body and brings it to the start of the simulation.
func newBody(sc *scenario, bc bodyConf, logger kitlog.Logger) (*orbits.Body, error) {
	s, err := bc.input.Resolve(sc.central)
	if err != nil {
		return nil, err
	}
	b, err := orbits.NewBody(bc.name, sc.central, s, bc.mass, bc.area, bc.cd)
	if err != nil {
		return nil, err
	}
	b.SetLogger(logger)
	b.Method = sc.method
	if sc.jN > 0 {
		b.Perturbations = append(b.Perturbations, orbits.Oblateness{Jn: sc.jN})
	}
	if sc.drag {
		b.Perturbations = append(b.Perturbations, b.Drag())
	}
	for _, enabled := range []struct {
		on   bool
		body orbits.CelestialObject
	}{{sc.moon, orbits.Moon}, {sc.sun, orbits.Sun}} {
		if !enabled.on {
			continue
		}
		pert, err := orbits.NewThirdBody(enabled.body)
		if err != nil {
			return nil, err
		}
		b.Perturbations = append(b.Perturbations, pert)
	}
	if !s.DT.Equal(sc.start) {
		p := orbits.NewPropagator(sc.central, b.Perturbations)
		p.Method = sc.method
		if b.State, err = p.Propagate(s, sc.start, sc.step); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// plan computes the maneuver from the provided state.
func plan(s orbits.StateVector, central orbits.CelestialObject, mc maneuverConf) (orbits.Maneuver, error) {
	switch mc.kind {
	case "hohmann":
		return orbits.NewHohmann(s, central, mc.date, mc.radius)
	case "bielliptic":
		return orbits.NewBiElliptic(s, central, mc.date, mc.radius, mc.intermediate)
	case "coplanar":
		return orbits.NewCoplanarTransfer(s, central, mc.date, mc.radius, mc.ecc)
	case "general":
		return orbits.NewGeneralTransfer(s, central, mc.date, mc.target, mc.tof)
	case "planechange":
		return orbits.NewPlaneChange(s, central, mc.date, mc.inclination, mc.raan)
	case "inclination":
		return orbits.NewInclinationChange(s, central, mc.date, mc.delta)
	default:
		return orbits.Maneuver{}, errors.Errorf("unknown maneuver kind `%s`", mc.kind)
	}
}

type exporter struct {
	*orbits.Exporter
	files []io.Closer
}

func newExporters(sc *scenario, bodies []*orbits.Body) ([]*exporter, error) {
	exporters := make([]*exporter, len(bodies))
	if !sc.asCSV && !sc.cosmo {
		return exporters, nil
	}
	dir := sc.exportDir
	if dir == "" {
		dir = "."
	}
	for i, b := range bodies {
		exp := &exporter{}
		// Registered first so that a failure closes the files already opened.
		exporters[i] = exp
		var xyzv, elements io.Writer
		if sc.cosmo {
			f, err := os.Create(filepath.Join(dir, fmt.Sprintf("prop-%s.xyzv", b.Name)))
			if err != nil {
				closeExporters(exporters)
				return nil, err
			}
			xyzv = f
			exp.files = append(exp.files, f)
		}
		if sc.asCSV {
			f, err := os.Create(filepath.Join(dir, fmt.Sprintf("orbital-elements-%s.csv", b.Name)))
			if err != nil {
				closeExporters(exporters)
				return nil, err
			}
			elements = f
			exp.files = append(exp.files, f)
		}
		exp.Exporter = orbits.NewExporter(xyzv, elements)
	}
	return exporters, nil
}

func closeExporters(exporters []*exporter) (err error) {
	for _, exp := range exporters {
		if exp == nil {
			continue
		}
		if exp.Exporter != nil {
			if cerr := exp.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}
		for _, f := range exp.files {
			if cerr := f.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}
	}
	return
}
