package orbits

import (
	"fmt"
	"math"
	"time"

	kitlog "github.com/go-kit/log"
	"github.com/pkg/errors"

	"github.com/astrolab/orbits/integrator"
)

const (
	// StepSize is the default step size of propagation.
	StepSize = 10 * time.Second
	// singularRadius is the fraction of the body radius under which the trajectory is singular.
	singularRadius = 1e-3
)

// Method is the numerical integration method of Cowell's propagation.
type Method uint8

const (
	// RK4 is the fixed step fourth order Runge Kutta, with steps no larger than the maximum step.
	RK4 Method = iota + 1
	// DormandPrince is the adaptive Runge Kutta 5(4), with steps no larger than the maximum step.
	DormandPrince
)

func (m Method) String() string {
	switch m {
	case RK4:
		return "RK4"
	case DormandPrince:
		return "DormandPrince"
	default:
		panic(fmt.Errorf("unknown method %d", m))
	}
}

// MethodFromString returns the method from its (case sensitive) name.
func MethodFromString(name string) (Method, error) {
	switch name {
	case "", "RK4", "rk4":
		return RK4, nil
	case "DormandPrince", "dopri", "rk45":
		return DormandPrince, nil
	default:
		return 0, errors.Errorf("unknown integration method '%s'", name)
	}
}

// Propagator advances state vectors about a central body. A Propagator holds no state about the
// propagated vehicle, hence it can be shared between bodies.
type Propagator struct {
	Body         CelestialObject
	Perturbation Perturbation // nil for two body motion
	Method       Method
	RelTol       float64 // Only used by DormandPrince
	AbsTol       float64 // Only used by DormandPrince
	Logger       kitlog.Logger
}

// NewPropagator returns a RK4 propagator about the provided body.
func NewPropagator(body CelestialObject, pert Perturbation) Propagator {
	return Propagator{Body: body, Perturbation: pert, Method: RK4, RelTol: 1e-10, AbsTol: 1e-9, Logger: kitlog.NewNopLogger()}
}

// Propagate propagates the state from its epoch s.DT to the requested epoch, with integration steps no
// larger than maxStep. Without perturbation, the Keplerian solution is returned.
func Propagate(s StateVector, body CelestialObject, pert Perturbation, to time.Time, maxStep time.Duration) (StateVector, error) {
	return NewPropagator(body, pert).Propagate(s, to, maxStep)
}

// PropagateKepler propagates the state under two body motion only, solving Kepler's problem for the elapsed time.
func PropagateKepler(s StateVector, body CelestialObject, to time.Time) (StateVector, error) {
	if err := checkPropagation(s); err != nil {
		return StateVector{}, err
	}
	R, V, err := KeplerUniversal(s.R, s.V, to.Sub(s.DT).Seconds(), body.μ)
	if err != nil {
		return StateVector{}, err
	}
	return StateVector{R: R, V: V, DT: to, Frame: s.Frame}, nil
}

// PropagateCowell numerically integrates the state under two body and the (possibly nil) perturbation.
func PropagateCowell(s StateVector, body CelestialObject, pert Perturbation, to time.Time, maxStep time.Duration) (StateVector, error) {
	return NewPropagator(body, pert).Cowell(s, to, maxStep)
}

// Propagate propagates the state from s.DT to the requested epoch.
func (p Propagator) Propagate(s StateVector, to time.Time, maxStep time.Duration) (StateVector, error) {
	if isNull(p.Perturbation) {
		return PropagateKepler(s, p.Body, to)
	}
	return p.Cowell(s, to, maxStep)
}

// Cowell integrates the equations of motion in Cartesian coordinates.
func (p Propagator) Cowell(s StateVector, to time.Time, maxStep time.Duration) (StateVector, error) {
	if err := checkPropagation(s); err != nil {
		return StateVector{}, err
	}
	if maxStep <= 0 {
		return StateVector{}, errors.Errorf("maximum step must be positive (got %s)", maxStep)
	}
	Δt := to.Sub(s.DT).Seconds()
	if Δt == 0 {
		return s.Copy(), nil
	}
	logger := p.Logger
	if logger == nil {
		logger = kitlog.NewNopLogger()
	}
	c := &cowell{
		state:  append(append([]float64(nil), s.R...), s.V...),
		start:  s.DT,
		end:    Δt,
		body:   p.Body,
		pert:   p.Perturbation,
		frame:  s.Frame,
		logger: logger,
	}
	switch p.Method {
	case DormandPrince:
		tol := integrator.Tolerances{MaxStep: maxStep.Seconds(), AbsTol: p.AbsTol, RelTol: p.RelTol}
		if err := integrator.DormandPrince(c, Δt, tol); err != nil && c.err == nil {
			c.err = errors.Wrapf(ErrSingularTrajectory, "adaptive integration failed: %s", err)
		}
	default:
		steps := math.Ceil(math.Abs(Δt) / maxStep.Seconds())
		c.steps = uint64(steps)
		if err := integrator.RK4(c, Δt, math.Abs(Δt)/steps); err != nil && c.err == nil {
			c.err = errors.Wrapf(ErrSingularTrajectory, "fixed step integration failed: %s", err)
		}
	}
	if c.err != nil {
		return StateVector{}, c.err
	}
	if !finite(c.state...) {
		return StateVector{}, errors.Wrapf(ErrSingularTrajectory, "non finite state after propagation")
	}
	return NewStateVector(c.state[:3], c.state[3:], to), nil
}

// checkPropagation rejects states which cannot be propagated.
func checkPropagation(s StateVector) error {
	if err := s.Check(); err != nil {
		return errors.Wrap(ErrSingularTrajectory, err.Error())
	}
	r := s.RNorm()
	if r < zeroε || s.HNorm() <= 1e-10*r*s.VNorm() {
		return errors.Wrapf(ErrSingularTrajectory, "rectilinear trajectory R=%v V=%v", s.R, s.V)
	}
	return nil
}

// cowell implements integrator.Integrable for the equations of motion.
type cowell struct {
	state    []float64
	start    time.Time
	end      float64 // seconds from start
	steps    uint64  // fixed step only
	iter     uint64
	body     CelestialObject
	pert     Perturbation
	frame    Frame
	collided bool
	err      error
	logger   kitlog.Logger
}

// GetState implements the Integrable interface.
func (c *cowell) GetState() []float64 {
	return c.state
}

// SetState implements the Integrable interface.
func (c *cowell) SetState(t float64, s []float64) {
	c.iter++
	c.state = s
	r := Norm(s[:3])
	if !c.collided && r < c.body.Radius {
		c.collided = true
		c.logger.Log("level", "warning", "subsys", "astro", "status", "collided", "body", c.body.Name, "r(km)", r, "date", c.epoch(t))
	}
}

// Stop implements the Integrable interface.
func (c *cowell) Stop(t float64) bool {
	if c.err != nil {
		return true
	}
	if c.steps > 0 {
		return c.iter >= c.steps
	}
	return math.Abs(t) >= math.Abs(c.end)
}

// Func implements the Integrable interface.
func (c *cowell) Func(t float64, s []float64) []float64 {
	f := make([]float64, 6)
	R := s[:3:3]
	r := Norm(R)
	if r < singularRadius*c.body.Radius || !finite(s...) {
		if c.err == nil {
			c.err = errors.Wrapf(ErrSingularTrajectory, "r=%f km at %s", r, c.epoch(t))
		}
		return f
	}
	twoBody := -c.body.μ / (r * r * r)
	var pert []float64
	if c.pert != nil {
		pert = c.pert.Accel(StateVector{R: R, V: s[3:6:6], DT: c.epoch(t), Frame: c.frame}, c.body)
	}
	for i := 0; i < 3; i++ {
		f[i] = s[i+3]
		f[i+3] = twoBody * s[i]
		if pert != nil {
			f[i+3] += pert[i]
		}
	}
	return f
}

func (c *cowell) epoch(t float64) time.Time {
	return c.start.Add(time.Duration(t * float64(time.Second)))
}
