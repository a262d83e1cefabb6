package orbits

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Error sentinels. Every error returned by this package wraps exactly one of them,
// so callers should test with errors.Is.
var (
	// ErrDegenerateGeometry is returned when the orbital plane is undefined (rectilinear motion) or inputs are not finite.
	ErrDegenerateGeometry = errors.New("degenerate geometry")
	// ErrConvergence is returned when an iterative solver exceeds its iteration cap.
	ErrConvergence = errors.New("solver did not converge")
	// ErrSingularTrajectory is returned when a propagation passes through (or too close to) the center of the central body.
	ErrSingularTrajectory = errors.New("singular trajectory")
	// ErrZeroDeltaV is informational: the requested maneuver is a no-op.
	ErrZeroDeltaV = errors.New("maneuver requires no delta-v")
	// ErrInvalidGeometry is returned when maneuver or input parameters are inconsistent.
	ErrInvalidGeometry = errors.New("invalid maneuver geometry")
	// ErrInfeasibleManeuver is returned when the maneuver cannot be performed from the current orbit.
	ErrInfeasibleManeuver = errors.New("infeasible maneuver")
	// ErrInsufficientData is returned when an orbit determination is under-determined.
	ErrInsufficientData = errors.New("insufficient measurement data")
)

// FieldError lists the measurement fields which were missing or invalid.
type FieldError struct {
	Fields []string
	Err    error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: missing %s", e.Err, strings.Join(e.Fields, ", "))
}

// Unwrap returns the underlying sentinel.
func (e *FieldError) Unwrap() error {
	return e.Err
}

// IsFatal returns whether the error must abort the operation which returned it.
// Only ErrZeroDeltaV is informational.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, ErrZeroDeltaV)
}
