package main

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/astrolab/orbits"
)

// loadFixes reads the radar position fixes of a measurement file.
func loadFixes(filename string) ([]orbits.RadarMeasurement, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return parseFixes(file)
}

// parseFixes reads lines of `station,date,range,azimuth,elevation` with the date in RFC3339, the range in km and
// both angles in degrees. Lines starting with # are comments and the first line is the header.
func parseFixes(r io.Reader) ([]orbits.RadarMeasurement, error) {
	scanner := bufio.NewScanner(r)
	scanner.Split(bufio.ScanLines)
	var fixes []orbits.RadarMeasurement
	header := true
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		// Remove double quotes
		line = strings.Replace(line, "\"", "", -1)
		if len(line) == 0 || line[0:1] == "#" {
			continue
		}
		if header { // Skip header line
			header = false
			continue
		}
		entries := strings.Split(line, ",")
		if len(entries) < 5 {
			return nil, errors.Errorf("line %d: expected 5 entries, got %d", lineNo, len(entries))
		}
		st, err := orbits.BuiltinStationFromName(strings.TrimSpace(entries[0]))
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", lineNo)
		}
		dt, err := time.Parse(time.RFC3339, strings.TrimSpace(entries[1]))
		if err != nil {
			return nil, errors.Wrapf(err, "line %d: malformatted date `%s`", lineNo, entries[1])
		}
		var vals [3]float64
		for i := range vals {
			if vals[i], err = strconv.ParseFloat(strings.TrimSpace(entries[i+2]), 64); err != nil {
				return nil, errors.Wrapf(err, "line %d: malformatted value `%s`", lineNo, entries[i+2])
			}
		}
		fixes = append(fixes, orbits.NewRadarMeasurement(st, dt, vals[0], vals[1]*d2r, vals[2]*d2r))
	}
	return fixes, scanner.Err()
}
