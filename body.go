package orbits

import (
	"fmt"
	"sort"
	"sync"
	"time"

	kitlog "github.com/go-kit/log"
	"github.com/pkg/errors"
)

// Body is a vehicle orbiting a central body. Its StateVector is the only source of truth, and is only replaced
// once a whole tick succeeded.
type Body struct {
	Name          string
	Mass          float64 // kg
	Area          float64 // m^2
	Cd            float64
	State         StateVector
	Central       CelestialObject
	Perturbations Perturbations
	Method        Method
	pending       []Impulse
	logger        kitlog.Logger
}

// NewBody returns a body in two body motion about the central body, propagated with RK4.
func NewBody(name string, central CelestialObject, s StateVector, mass, area, cd float64) (*Body, error) {
	if err := s.Check(); err != nil {
		return nil, err
	}
	if mass < 0 || area < 0 || cd < 0 {
		return nil, errors.Errorf("invalid body %s: mass=%f area=%f Cd=%f", name, mass, area, cd)
	}
	return &Body{Name: name, Mass: mass, Area: area, Cd: cd, State: s.Copy(), Central: central, Method: RK4, logger: kitlog.NewNopLogger()}, nil
}

// SetLogger sets the logger of this body, which is silent by default.
func (b *Body) SetLogger(logger kitlog.Logger) {
	b.logger = kitlog.With(logger, "body", b.Name)
}

// Drag returns the drag perturbation of this body. It is null for a body without mass or area.
func (b *Body) Drag() Drag {
	if b.Mass == 0 {
		return Drag{}
	}
	return Drag{Cd: b.Cd, AreaToMass: b.Area / b.Mass}
}

// Elements returns the osculating elements of the current state.
func (b *Body) Elements() (Orbit, error) {
	return ElementsFromState(b.State, b.Central)
}

// Pending returns the impulses which have not been applied yet.
func (b *Body) Pending() []Impulse {
	return append([]Impulse(nil), b.pending...)
}

// Schedule queues all the impulses of the maneuver. They are applied during the forward tick which spans their epoch.
func (b *Body) Schedule(m Maneuver) error {
	for _, imp := range m.Impulses {
		if imp.DT.Before(b.State.DT) {
			return errors.Wrapf(ErrInvalidGeometry, "impulse at %s is before the current epoch %s", imp.DT, b.State.DT)
		}
		if len(imp.ΔV) != 3 || !finite(imp.ΔV...) {
			return errors.Wrapf(ErrInvalidGeometry, "invalid impulse %v", imp.ΔV)
		}
	}
	b.pending = append(b.pending, m.Impulses...)
	sort.SliceStable(b.pending, func(i, j int) bool { return b.pending[i].DT.Before(b.pending[j].DT) })
	b.logger.Log("level", "info", "subsys", "prop", "scheduled", m.Kind, "burns", len(m.Impulses), "Δv(km/s)", m.TotalΔv())
	return nil
}

// Tick advances the body by step*rate, with integration steps no larger than step. The state is left untouched
// if the propagation fails.
func (b *Body) Tick(step time.Duration, rate float64) error {
	if step <= 0 {
		return errors.Errorf("step must be positive (got %s)", step)
	}
	to := b.State.DT.Add(time.Duration(float64(step) * rate))
	p := NewPropagator(b.Central, b.Perturbations)
	p.Method = b.Method
	p.Logger = kitlog.With(b.logger, "subsys", "astro")
	state := b.State
	applied := 0
	if to.After(state.DT) {
		for _, imp := range b.pending {
			if !imp.DT.Before(to) {
				break
			}
			var err error
			if state, err = p.Propagate(state, imp.DT, step); err != nil {
				return err
			}
			state = imp.apply(state)
			applied++
		}
	}
	final, err := p.Propagate(state, to, step)
	if err != nil {
		return err
	}
	for _, imp := range b.pending[:applied] {
		b.logger.Log("level", "notice", "subsys", "prop", "burn", imp)
	}
	b.pending = b.pending[applied:]
	b.State = final
	return nil
}

// TickAll ticks every body on its own goroutine and returns the error of each body.
func TickAll(bodies []*Body, step time.Duration, rate float64) []error {
	errs := make([]error, len(bodies))
	var wg sync.WaitGroup
	for i, b := range bodies {
		wg.Add(1)
		go func(i int, b *Body) {
			defer wg.Done()
			errs[i] = b.Tick(step, rate)
		}(i, b)
	}
	wg.Wait()
	return errs
}

func (b *Body) String() string {
	return fmt.Sprintf("%s (%.1f kg) about %s: %s", b.Name, b.Mass, b.Central.Name, b.State)
}
