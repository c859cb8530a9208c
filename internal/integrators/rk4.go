package integrators

import (
	"math"

	"github.com/san-kum/stagesim/internal/dynamo"
)

// RK4 is the classical fixed-step Runge-Kutta solver. Between two requested
// times it takes Substeps equal steps, more if MaxDt demands it.
type RK4 struct {
	cfg   dynamo.Config
	stats Stats
}

func NewRK4(cfg dynamo.Config) *RK4 {
	return &RK4{cfg: cfg}
}

func (r *RK4) Name() string { return "rk4" }

func (r *RK4) Stats() Stats { return r.stats }

func (r *RK4) Solve(sys dynamo.System, t0, t1 float64, x0 dynamo.State, ts []float64) ([]dynamo.State, error) {
	r.stats = Stats{}
	if err := r.cfg.Validate(); err != nil {
		return nil, err
	}
	if err := dynamo.CheckTimes(t0, t1, ts); err != nil {
		return nil, err
	}
	if len(x0) != sys.StateDim() {
		return nil, dynamo.ErrDimensionMismatch
	}

	substeps := r.cfg.Substeps
	if substeps < 1 {
		substeps = 1
	}

	out := make([]dynamo.State, 0, len(ts))
	x := x0.Clone()
	t := t0
	for _, target := range ts {
		span := target - t
		if span > 0 {
			n := substeps
			if r.cfg.MaxDt > 0 {
				n = max(n, int(math.Ceil(span/r.cfg.MaxDt)))
			}
			if r.stats.Steps+n > r.cfg.MaxSteps {
				return nil, &dynamo.SimulationError{Step: r.stats.Steps, Time: t, State: x.Clone(), Wrapped: dynamo.ErrTooManySteps}
			}
			dt := span / float64(n)
			for i := 0; i < n; i++ {
				next, err := r.Step(sys, x, t+float64(i)*dt, dt)
				if err != nil {
					return nil, &dynamo.SimulationError{Step: r.stats.Steps, Time: t + float64(i)*dt, State: x.Clone(), Wrapped: err}
				}
				x = next
				r.stats.Steps++
			}
			t = target
		}
		out = append(out, x.Clone())
	}

	return out, nil
}

// Step advances x by one RK4 step of size dt.
func (r *RK4) Step(dyn dynamo.System, x dynamo.State, t, dt float64) (dynamo.State, error) {
	k1, err := dyn.Derive(x, t)
	if err != nil {
		return nil, err
	}
	k2, err := dyn.Derive(x.AddScaled(dt/2, k1), t+dt/2)
	if err != nil {
		return nil, err
	}
	k3, err := dyn.Derive(x.AddScaled(dt/2, k2), t+dt/2)
	if err != nil {
		return nil, err
	}
	k4, err := dyn.Derive(x.AddScaled(dt, k3), t+dt)
	if err != nil {
		return nil, err
	}
	r.stats.Evaluations += 4

	slope := k1.AddScaled(2, k2).AddScaled(2, k3).AddScaled(1, k4)
	return x.AddScaled(dt/6, slope), nil
}
