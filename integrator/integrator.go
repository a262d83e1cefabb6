// Package integrator drives the ode solvers over an Integrable, forward or backward in time.
package integrator

import (
	"math"

	"github.com/ChristopherRabotin/ode"
	"github.com/pkg/errors"
	"github.com/ready-steady/ode/dopri"
)

// Integrable defines something which can be integrated, i.e. has a state vector.
// WARNING: Implementation must manage its own state based on the independent variable.
type Integrable = ode.Integrable

// Tolerances configures the adaptive integration.
type Tolerances struct {
	MaxStep float64 // Absolute value of the largest step.
	AbsTol  float64
	RelTol  float64
}

// RK4 integrates inte from 0 toward span with fixed steps of |step|, until inte asks to stop.
// A negative span integrates backward.
func RK4(inte Integrable, span, step float64) error {
	if step == 0 || math.IsNaN(step) {
		return errors.New("step size may not be zero")
	}
	if inte == nil {
		return errors.New("integrable may not be nil")
	}
	if span < 0 {
		inte = backward{inte}
	}
	_, _, err := ode.NewRK4(0, math.Abs(step), inte).Solve()
	return err
}

// DormandPrince integrates inte from 0 to span with the adaptive Runge-Kutta 5(4) and sets the final state.
// A negative span integrates backward.
func DormandPrince(inte Integrable, span float64, tol Tolerances) error {
	if tol.MaxStep <= 0 {
		return errors.New("maximum step must be positive")
	}
	if inte == nil {
		return errors.New("integrable may not be nil")
	}
	if span < 0 {
		inte = backward{inte}
	}
	cfg := dopri.DefaultConfig()
	cfg.MaxStep = tol.MaxStep
	if tol.AbsTol > 0 {
		cfg.AbsError = tol.AbsTol
	}
	if tol.RelTol > 0 {
		cfg.RelError = tol.RelTol
	}
	solver, err := dopri.New(cfg)
	if err != nil {
		return errors.Wrap(err, "invalid adaptive configuration")
	}
	y0 := append([]float64(nil), inte.GetState()...)
	derivative := func(t float64, s, f []float64) {
		copy(f, inte.Func(t, s))
	}
	end := math.Abs(span)
	values, _, err := solver.Compute(derivative, y0, []float64{0, end})
	if err != nil {
		return errors.Wrapf(err, "adaptive integration to %f", end)
	}
	// The last len(y0) values are the state at the end.
	inte.SetState(end, values[len(values)-len(y0):])
	return nil
}

// backward presents inte with the independent variable reversed, so the solvers only step forward.
type backward struct {
	inte Integrable
}

func (b backward) GetState() []float64 {
	return b.inte.GetState()
}

func (b backward) SetState(t float64, s []float64) {
	b.inte.SetState(-t, s)
}

func (b backward) Stop(t float64) bool {
	return b.inte.Stop(-t)
}

func (b backward) Func(t float64, s []float64) []float64 {
	f := b.inte.Func(-t, s)
	for i := range f {
		f[i] = -f[i]
	}
	return f
}
