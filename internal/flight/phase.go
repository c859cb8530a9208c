package flight

import (
	"errors"

	"github.com/san-kum/stagesim/internal/dynamo"
	"github.com/san-kum/stagesim/internal/physics"
	"gonum.org/v1/gonum/floats"
)

// PhaseSpec describes one flight phase. Jettison is the mass dropped from the
// predecessor's final state before this phase starts.
type PhaseSpec struct {
	Index    int
	Name     string
	Kind     physics.Kind
	Start    float64
	End      float64
	Jettison float64
	Initial  physics.State
}

func (p PhaseSpec) Duration() float64 { return p.End - p.Start }

// PhaseResult holds the sampled states of one phase over [Start, End].
type PhaseResult struct {
	Spec   PhaseSpec
	Times  []float64
	States []physics.State
}

func (r PhaseResult) Final() physics.State {
	return r.States[len(r.States)-1]
}

// SampleTimes returns n evenly spaced times over [start, end], endpoints
// included. A zero-length span yields a single time.
func SampleTimes(start, end float64, n int) ([]float64, error) {
	if end < start {
		return nil, dynamo.Configf("phase ends (%g) before it starts (%g)", end, start)
	}
	if end == start {
		return []float64{start}, nil
	}
	if n < 2 {
		return nil, dynamo.Configf("need at least 2 samples per phase, got %d", n)
	}
	ts := floats.Span(make([]float64, n), start, end)
	ts[n-1] = end
	return ts, nil
}

// RunPhase integrates a single phase from spec.Initial.
func RunPhase(solver dynamo.Solver, c physics.Constants, spec PhaseSpec, samples int) (PhaseResult, error) {
	ts, err := SampleTimes(spec.Start, spec.End, samples)
	if err != nil {
		return PhaseResult{}, err
	}

	if spec.Duration() == 0 {
		return PhaseResult{Spec: spec, Times: ts, States: []physics.State{spec.Initial}}, nil
	}

	xs, err := solver.Solve(physics.NewModel(c, spec.Kind), spec.Start, spec.End, spec.Initial.Vector(), ts)
	if err != nil {
		var simErr *dynamo.SimulationError
		if errors.As(err, &simErr) && simErr.Phase == "" {
			simErr.Phase = spec.Name
		}
		return PhaseResult{}, err
	}

	states := make([]physics.State, len(xs))
	for i, x := range xs {
		states[i] = physics.FromVector(x)
	}
	return PhaseResult{Spec: spec, Times: ts, States: states}, nil
}
