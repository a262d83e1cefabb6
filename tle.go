package orbits

import (
	"strconv"
	"strings"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"
	"github.com/pkg/errors"
)

// tleLineLen is the length of each line of a two line element set.
const tleLineLen = 69

// StateFromTLE returns the Earth centered state of a two line element set at the provided epoch, using SGP4.
// The TEME frame of SGP4 is treated as ECI.
func StateFromTLE(line1, line2 string, dt time.Time) (StateVector, error) {
	line1 = strings.TrimSpace(line1)
	line2 = strings.TrimSpace(line2)
	// The SGP4 library exits the process on malformed lines, so they are checked beforehand.
	if fields := checkTLE(line1, line2); len(fields) > 0 {
		return StateVector{}, &FieldError{Fields: fields, Err: ErrInsufficientData}
	}
	sat := satellite.TLEToSat(line1, line2, satellite.GravityWGS84)
	if sat.Error != 0 {
		return StateVector{}, errors.Wrapf(ErrDegenerateGeometry, "SGP4 initialization failed: code=%d %s", sat.Error, sat.ErrorStr)
	}
	utc := dt.UTC()
	pos, vel := satellite.Propagate(sat, utc.Year(), int(utc.Month()), utc.Day(), utc.Hour(), utc.Minute(), utc.Second())
	R := []float64{pos.X, pos.Y, pos.Z}
	V := []float64{vel.X, vel.Y, vel.Z}
	if !finite(R...) || !finite(V...) || Norm(R) < zeroε {
		return StateVector{}, errors.Wrapf(ErrSingularTrajectory, "SGP4 propagation failed at %s", utc.Format(time.RFC3339))
	}
	return NewStateVector(R, V, utc.Truncate(time.Second)), nil
}

// tleField is a numeric field of a TLE line, extracted the way the SGP4 library parses it.
type tleField struct {
	name    string
	integer bool
	extract func(line string) string
}

func compactTLE(s string) string {
	return strings.Replace(s, " ", "", 2)
}

var (
	tleLine1Fields = []tleField{
		{"catalog number", true, func(l string) string { return strings.TrimSpace(l[2:7]) }},
		{"epoch year", true, func(l string) string { return l[18:20] }},
		{"epoch day", false, func(l string) string { return l[20:32] }},
		{"mean motion derivative", false, func(l string) string { return compactTLE(l[33:43]) }},
		{"mean motion second derivative", false, func(l string) string { return compactTLE(l[44:45] + "." + l[45:50] + "e" + l[50:52]) }},
		{"bstar", false, func(l string) string { return compactTLE(l[53:54] + "." + l[54:59] + "e" + l[59:61]) }},
	}
	tleLine2Fields = []tleField{
		{"inclination", false, func(l string) string { return compactTLE(l[8:16]) }},
		{"right ascension", false, func(l string) string { return compactTLE(l[17:25]) }},
		{"eccentricity", false, func(l string) string { return "." + l[26:33] }},
		{"argument of perigee", false, func(l string) string { return compactTLE(l[34:42]) }},
		{"mean anomaly", false, func(l string) string { return compactTLE(l[43:51]) }},
		{"mean motion", false, func(l string) string { return compactTLE(l[52:63]) }},
	}
)

// checkTLE returns the names of the invalid parts of both lines.
func checkTLE(line1, line2 string) (fields []string) {
	for i, tle := range []struct {
		line   string
		num    byte
		fields []tleField
	}{{line1, '1', tleLine1Fields}, {line2, '2', tleLine2Fields}} {
		prefix := "line " + strconv.Itoa(i+1)
		if len(tle.line) != tleLineLen || tle.line[0] != tle.num {
			fields = append(fields, prefix)
			continue
		}
		for _, f := range tle.fields {
			var err error
			if f.integer {
				_, err = strconv.ParseInt(f.extract(tle.line), 10, 0)
			} else {
				_, err = strconv.ParseFloat(f.extract(tle.line), 64)
			}
			if err != nil {
				fields = append(fields, prefix+" "+f.name)
			}
		}
		if tleChecksum(tle.line) != tle.line[tleLineLen-1] {
			fields = append(fields, prefix+" checksum")
		}
	}
	return fields
}

// tleChecksum returns the modulo 10 checksum digit of a line: digits count for their value and minus signs for one.
func tleChecksum(line string) byte {
	sum := 0
	for _, c := range line[:tleLineLen-1] {
		switch {
		case c >= '0' && c <= '9':
			sum += int(c - '0')
		case c == '-':
			sum++
		}
	}
	return byte('0' + sum%10)
}
