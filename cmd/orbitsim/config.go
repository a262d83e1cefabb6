package main

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/soniakeys/meeus/v3/julian"
	"github.com/spf13/viper"

	"github.com/astrolab/orbits"
)

const d2r = math.Pi / 180

// scenario is a fully parsed scenario file.
type scenario struct {
	start     time.Time
	duration  time.Duration
	step      time.Duration
	rate      float64
	method    orbits.Method
	central   orbits.CelestialObject
	jN        uint8
	drag      bool
	moon, sun bool
	bodies    []bodyConf
	maneuvers []maneuverConf
	exportDir string
	asCSV     bool
	cosmo     bool
}

type bodyConf struct {
	name           string
	mass, area, cd float64
	input          orbits.Input
}

type maneuverConf struct {
	body                     string
	kind                     string
	date                     time.Time
	radius, intermediate     float64 // km
	ecc                      float64
	inclination, raan, delta float64 // radians
	tof                      time.Duration
	target                   orbits.Orbit
}

// readScenario parses the scenario held by v.
func readScenario(v *viper.Viper) (*scenario, error) {
	sc := &scenario{}
	var err error
	if sc.start, err = confReadJDEorTime(v, "simulation.start"); err != nil {
		return nil, err
	}
	sc.duration = v.GetDuration("simulation.duration")
	sc.step = v.GetDuration("simulation.step")
	if sc.step == 0 {
		sc.step = orbits.StepSize
	}
	sc.rate = 1
	if v.IsSet("simulation.rate") {
		sc.rate = v.GetFloat64("simulation.rate")
	}
	if sc.duration <= 0 || sc.rate <= 0 {
		return nil, errors.Errorf("simulation duration (%s) and rate (%f) must be positive", sc.duration, sc.rate)
	}
	if sc.method, err = orbits.MethodFromString(v.GetString("simulation.method")); err != nil {
		return nil, err
	}
	centralName := v.GetString("central.body")
	if centralName == "" {
		centralName = "Earth"
	}
	if sc.central, err = orbits.CelestialObjectFromString(centralName); err != nil {
		return nil, err
	}

	// Read perturbations
	if v.GetBool("perturbations.J3") {
		sc.jN = 3
	} else if v.GetBool("perturbations.J2") {
		sc.jN = 2
	}
	sc.drag = v.GetBool("perturbations.drag")
	sc.moon = v.GetBool("perturbations.moon")
	sc.sun = v.GetBool("perturbations.sun")
	if (sc.moon || sc.sun) && !sc.central.Equals(orbits.Earth) {
		return nil, errors.Errorf("moon and sun perturbations are only available about the Earth")
	}

	for bodyNo := 0; v.IsSet(fmt.Sprintf("bodies.%d", bodyNo)); bodyNo++ {
		bc, err := readBody(v, fmt.Sprintf("bodies.%d", bodyNo), sc.start, sc.central)
		if err != nil {
			return nil, err
		}
		sc.bodies = append(sc.bodies, bc)
	}
	if len(sc.bodies) == 0 {
		return nil, errors.Errorf("no bodies defined")
	}

	for mnvrNo := 0; v.IsSet(fmt.Sprintf("maneuvers.%d", mnvrNo)); mnvrNo++ {
		mc, err := readManeuver(v, fmt.Sprintf("maneuvers.%d", mnvrNo), sc)
		if err != nil {
			return nil, err
		}
		sc.maneuvers = append(sc.maneuvers, mc)
	}

	sc.exportDir = v.GetString("export.directory")
	sc.asCSV = v.GetBool("export.csv")
	sc.cosmo = v.GetBool("export.cosmo")
	return sc, nil
}

func readBody(v *viper.Viper, key string, start time.Time, central orbits.CelestialObject) (bodyConf, error) {
	bc := bodyConf{
		name: v.GetString(key + ".name"),
		mass: v.GetFloat64(key + ".mass"),
		area: v.GetFloat64(key + ".area"),
		cd:   v.GetFloat64(key + ".cd"),
	}
	if bc.name == "" {
		return bc, errors.Errorf("%s: missing name", key)
	}
	epoch := start
	if v.IsSet(key + ".date") {
		var err error
		if epoch, err = confReadJDEorTime(v, key+".date"); err != nil {
			return bc, err
		}
	}
	input := strings.ToLower(v.GetString(key + ".input"))
	switch input {
	case "elements", "":
		o := orbits.NewOrbitFromOE(v.GetFloat64(key+".sma"), v.GetFloat64(key+".ecc"), v.GetFloat64(key+".inc")*d2r,
			v.GetFloat64(key+".RAAN")*d2r, v.GetFloat64(key+".argPeri")*d2r, v.GetFloat64(key+".tAnomaly")*d2r, central, epoch)
		bc.input = orbits.Input{Kind: orbits.ElementsInput, Elements: &o}
	case "state":
		s := orbits.NewStateVector(
			[]float64{v.GetFloat64(key + ".x"), v.GetFloat64(key + ".y"), v.GetFloat64(key + ".z")},
			[]float64{v.GetFloat64(key + ".vx"), v.GetFloat64(key + ".vy"), v.GetFloat64(key + ".vz")}, epoch)
		bc.input = orbits.Input{Kind: orbits.StateInput, State: &s}
	case "radar", "doppler":
		st, err := orbits.BuiltinStationFromName(v.GetString(key + ".station"))
		if err != nil {
			return bc, errors.Wrap(err, key)
		}
		m := orbits.NewRadarMeasurement(st, epoch, v.GetFloat64(key+".range"), v.GetFloat64(key+".azimuth")*d2r, v.GetFloat64(key+".elevation")*d2r)
		if v.IsSet(key + ".rangeRate") {
			m.RangeRate = v.GetFloat64(key + ".rangeRate")
		}
		if v.IsSet(key + ".azimuthRate") {
			m.AzimuthRate = v.GetFloat64(key+".azimuthRate") * d2r
		}
		if v.IsSet(key + ".elevationRate") {
			m.ElevationRate = v.GetFloat64(key+".elevationRate") * d2r
		}
		if input == "radar" {
			bc.input = orbits.Input{Kind: orbits.RadarInput, Radar: &m}
		} else {
			d := orbits.DopplerMeasurement{RadarMeasurement: m, Frequency: v.GetFloat64(key + ".frequency"), Shift: v.GetFloat64(key + ".shift"), TwoWay: v.GetBool(key + ".twoWay")}
			if !v.IsSet(key + ".shift") {
				d.Shift = math.NaN()
			}
			bc.input = orbits.Input{Kind: orbits.DopplerInput, Doppler: &d}
		}
	case "gibbs":
		fixes, err := loadFixes(v.GetString(key + ".measurements"))
		if err != nil {
			return bc, errors.Wrap(err, key)
		}
		bc.input = orbits.Input{Kind: orbits.GibbsInput, Fixes: fixes}
	case "tle":
		bc.input = orbits.Input{Kind: orbits.TLEInput, TLE: &orbits.TLE{Line1: v.GetString(key + ".line1"), Line2: v.GetString(key + ".line2"), DT: epoch}}
	default:
		return bc, errors.Errorf("%s: unknown input `%s`", key, input)
	}
	return bc, nil
}

func readManeuver(v *viper.Viper, key string, sc *scenario) (maneuverConf, error) {
	mc := maneuverConf{
		body:         v.GetString(key + ".body"),
		kind:         strings.ToLower(v.GetString(key + ".kind")),
		radius:       v.GetFloat64(key + ".radius"),
		intermediate: v.GetFloat64(key + ".intermediate"),
		ecc:          v.GetFloat64(key + ".ecc"),
		inclination:  v.GetFloat64(key+".inclination") * d2r,
		raan:         v.GetFloat64(key+".raan") * d2r,
		delta:        v.GetFloat64(key+".delta") * d2r,
		tof:          v.GetDuration(key + ".tof"),
	}
	var err error
	if mc.date, err = confReadJDEorTime(v, key+".date"); err != nil {
		return mc, err
	}
	if mc.date.Before(sc.start) || mc.date.After(sc.start.Add(sc.duration)) {
		return mc, errors.Errorf("%s: maneuver on %s is out of the simulation", key, mc.date)
	}
	switch mc.kind {
	case "hohmann", "bielliptic", "coplanar", "planechange", "inclination":
	case "general":
		mc.target = orbits.NewOrbitFromOE(v.GetFloat64(key+".target.sma"), v.GetFloat64(key+".target.ecc"), v.GetFloat64(key+".target.inc")*d2r,
			v.GetFloat64(key+".target.RAAN")*d2r, v.GetFloat64(key+".target.argPeri")*d2r, v.GetFloat64(key+".target.tAnomaly")*d2r, sc.central, mc.date)
	default:
		return mc, errors.Errorf("%s: unknown maneuver kind `%s`", key, mc.kind)
	}
	for _, bc := range sc.bodies {
		if bc.name == mc.body {
			return mc, nil
		}
	}
	return mc, errors.Errorf("%s: unknown body `%s`", key, mc.body)
}

// confReadJDEorTime reads a date either as a Julian date or as a time.
func confReadJDEorTime(v *viper.Viper, key string) (time.Time, error) {
	if !v.IsSet(key) {
		return time.Time{}, errors.Errorf("missing %s", key)
	}
	if jde := v.GetFloat64(key); jde != 0 {
		return julian.JDToTime(jde), nil
	}
	dt := v.GetTime(key)
	if dt.IsZero() {
		return dt, errors.Errorf("%s: could not read `%v` as a date", key, v.Get(key))
	}
	return dt.UTC(), nil
}
