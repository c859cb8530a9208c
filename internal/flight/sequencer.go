package flight

import (
	"context"
	"fmt"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/san-kum/stagesim/internal/dynamo"
	"github.com/san-kum/stagesim/internal/integrators"
	"github.com/san-kum/stagesim/internal/logging"
	"github.com/san-kum/stagesim/internal/physics"
)

const DefaultSamples = 100

// Sequencer flies a vehicle phase by phase, threading each phase's final
// state into the next one.
type Sequencer struct {
	constants physics.Constants
	vehicle   Vehicle
	solver    dynamo.Solver
	samples   int
	logger    log.Logger
}

type Option func(*Sequencer)

func WithSolver(s dynamo.Solver) Option {
	return func(q *Sequencer) { q.solver = s }
}

// WithSamples sets the number of evaluation points per phase.
func WithSamples(n int) Option {
	return func(q *Sequencer) { q.samples = n }
}

func WithLogger(l log.Logger) Option {
	return func(q *Sequencer) { q.logger = logging.OrNop(l) }
}

func New(c physics.Constants, v Vehicle, opts ...Option) *Sequencer {
	q := &Sequencer{
		constants: c,
		vehicle:   v,
		solver:    integrators.NewRK45(),
		samples:   DefaultSamples,
		logger:    log.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

func (q *Sequencer) Constants() physics.Constants { return q.constants }

// Schedule validates the run and returns its phases without integrating.
func (q *Sequencer) Schedule() ([]PhaseSpec, error) {
	if err := q.constants.Validate(); err != nil {
		return nil, err
	}
	if q.samples < 2 {
		return nil, dynamo.Configf("need at least 2 samples per phase, got %d", q.samples)
	}
	if q.solver == nil {
		return nil, dynamo.Configf("no solver configured")
	}
	return q.vehicle.Schedule()
}

// Fly integrates every phase in order. Any failure aborts the run; no
// partial results are returned.
func (q *Sequencer) Fly(ctx context.Context) ([]PhaseResult, error) {
	specs, err := q.Schedule()
	if err != nil {
		return nil, err
	}

	results := make([]PhaseResult, 0, len(specs))
	for i := range specs {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %v", dynamo.ErrContextCanceled, err)
		}

		spec := specs[i]
		if i > 0 {
			spec.Initial, err = handoff(results[i-1].Final(), spec)
			if err != nil {
				return nil, err
			}
		}

		level.Debug(q.logger).Log("msg", "phase start", "phase", spec.Name, "kind", spec.Kind,
			"t0", spec.Start, "t1", spec.End, "mass", spec.Initial.Mass)

		res, err := RunPhase(q.solver, q.constants, spec, q.samples)
		if err != nil {
			level.Error(q.logger).Log("msg", "phase failed", "phase", spec.Name, "err", err)
			return nil, err
		}

		final := res.Final()
		level.Debug(q.logger).Log("msg", "phase end", "phase", spec.Name,
			"height", final.Height, "velocity", final.Velocity, "mass", final.Mass)
		results = append(results, res)
	}

	last := results[len(results)-1]
	level.Info(q.logger).Log("msg", "flight complete", "phases", len(results),
		"solver", q.solver.Name(), "t_end", last.Spec.End, "final_height", last.Final().Height)
	return results, nil
}

// handoff carries height and velocity over unchanged and removes the
// jettisoned structure from the mass.
func handoff(prev physics.State, next PhaseSpec) (physics.State, error) {
	s := prev
	s.Mass -= next.Jettison
	if s.Mass <= 0 {
		return physics.State{}, dynamo.Configf("%s: separation mass %g kg leaves %g kg at handoff", next.Name, next.Jettison, s.Mass)
	}
	return s, nil
}
