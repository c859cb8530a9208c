package integrators

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/stagesim/internal/dynamo"
)

type harmonicOscillator struct{}

func (h *harmonicOscillator) StateDim() int { return 2 }

func (h *harmonicOscillator) Derive(x dynamo.State, t float64) (dynamo.State, error) {
	return dynamo.State{x[1], -x[0]}, nil
}

func (h *harmonicOscillator) Energy(x dynamo.State) float64 {
	return 0.5 * (x[0]*x[0] + x[1]*x[1])
}

type decay struct{ calls int }

func (d *decay) StateDim() int { return 1 }

func (d *decay) Derive(x dynamo.State, t float64) (dynamo.State, error) {
	d.calls++
	return dynamo.State{-x[0]}, nil
}

// blowup follows x' = x^2, which is singular at t = 1/x0.
type blowup struct{}

func (b *blowup) StateDim() int { return 1 }

func (b *blowup) Derive(x dynamo.State, t float64) (dynamo.State, error) {
	return dynamo.State{x[0] * x[0]}, nil
}

var errNegative = errors.New("negative value")

// guarded rejects states with a negative first component.
type guarded struct{}

func (g *guarded) StateDim() int { return 1 }

func (g *guarded) Derive(x dynamo.State, t float64) (dynamo.State, error) {
	if x[0] < 0 {
		return nil, errNegative
	}
	return dynamo.State{-1}, nil
}

func linspace(a, b float64, n int) []float64 {
	ts := make([]float64, n)
	for i := range ts {
		ts[i] = a + (b-a)*float64(i)/float64(n-1)
	}
	ts[n-1] = b
	return ts
}

func TestRK45_Decay(t *testing.T) {
	integrator := NewRK45()
	ts := linspace(0, 5, 51)

	xs, err := integrator.Solve(&decay{}, 0, 5, dynamo.State{1}, ts)
	if err != nil {
		t.Fatalf("Solve returned error: %v", err)
	}
	if len(xs) != len(ts) {
		t.Fatalf("expected %d samples, got %d", len(ts), len(xs))
	}

	for i, x := range xs {
		want := math.Exp(-ts[i])
		if math.Abs(x[0]-want) > 1e-7 {
			t.Errorf("t=%.2f: got %.10f, want %.10f", ts[i], x[0], want)
		}
	}
}

func TestRK45_EnergyConservation(t *testing.T) {
	integrator := NewRK45()
	dyn := &harmonicOscillator{}
	x0 := dynamo.State{1.0, 0.0}
	ts := linspace(0, 20, 200)

	xs, err := integrator.Solve(dyn, 0, 20, x0, ts)
	if err != nil {
		t.Fatalf("Solve returned error: %v", err)
	}

	for i, x := range xs {
		if !x.IsValid() {
			t.Fatalf("sample %d invalid: %v", i, x)
		}
		if math.Abs(x[0]-math.Cos(ts[i])) > 1e-6 {
			t.Errorf("t=%.3f: x=%.8f, want %.8f", ts[i], x[0], math.Cos(ts[i]))
		}
	}

	drift := math.Abs(dyn.Energy(xs[len(xs)-1])-dyn.Energy(x0)) / dyn.Energy(x0)
	if drift > 1e-6 {
		t.Errorf("RK45 energy drift too high: %e", drift)
	}
}

func TestRK45_DenseOutputIndependentOfGrid(t *testing.T) {
	coarse, err := NewRK45().Solve(&harmonicOscillator{}, 0, 3, dynamo.State{1, 0}, []float64{3})
	if err != nil {
		t.Fatal(err)
	}
	fine, err := NewRK45().Solve(&harmonicOscillator{}, 0, 3, dynamo.State{1, 0}, linspace(0, 3, 1000))
	if err != nil {
		t.Fatal(err)
	}

	got, want := fine[len(fine)-1], coarse[0]
	if math.Abs(got[0]-want[0]) > 1e-12 || math.Abs(got[1]-want[1]) > 1e-12 {
		t.Errorf("final state depends on sample grid: %v vs %v", got, want)
	}
}

func TestRK45_FirstSampleIsInitialState(t *testing.T) {
	x0 := dynamo.State{0.3, -0.7}
	xs, err := NewRK45().Solve(&harmonicOscillator{}, 2, 4, x0, []float64{2, 3, 4})
	if err != nil {
		t.Fatal(err)
	}
	if xs[0][0] != x0[0] || xs[0][1] != x0[1] {
		t.Errorf("first sample %v, want %v", xs[0], x0)
	}

	xs[0][0] = 42
	if x0[0] == 42 {
		t.Error("Solve aliased the initial state")
	}
}

func TestRK45_ZeroSpan(t *testing.T) {
	d := &decay{}
	x0 := dynamo.State{2.5}

	xs, err := NewRK45().Solve(d, 1, 1, x0, []float64{1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(xs) != 1 || xs[0][0] != 2.5 {
		t.Errorf("expected single sample equal to x0, got %v", xs)
	}
	if d.calls != 0 {
		t.Errorf("zero span should not evaluate the system, got %d calls", d.calls)
	}
}

func TestRK45_InvalidRequests(t *testing.T) {
	tests := []struct {
		name   string
		t0, t1 float64
		x0     dynamo.State
		ts     []float64
		want   error
	}{
		{"reversed span", 1, 0, dynamo.State{1}, nil, dynamo.ErrConfiguration},
		{"unsorted", 0, 1, dynamo.State{1}, []float64{0.5, 0.1}, dynamo.ErrConfiguration},
		{"outside", 0, 1, dynamo.State{1}, []float64{2}, dynamo.ErrConfiguration},
		{"dimension", 0, 1, dynamo.State{1, 2}, []float64{1}, dynamo.ErrInvalidState},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRK45().Solve(&decay{}, tt.t0, tt.t1, tt.x0, tt.ts)
			if !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestRK45_Singularity(t *testing.T) {
	_, err := NewRK45().Solve(&blowup{}, 0, 2, dynamo.State{1}, []float64{2})
	if !errors.Is(err, dynamo.ErrIntegration) {
		t.Fatalf("expected ErrIntegration, got %v", err)
	}

	var simErr *dynamo.SimulationError
	if !errors.As(err, &simErr) {
		t.Fatalf("expected SimulationError, got %T", err)
	}
	// x' = x^2 from x(0) = 1 blows up at t = 1. The numerical pole sits
	// within the tolerance-driven drift of the exact one.
	if math.Abs(simErr.Time-1) > 1e-6 {
		t.Errorf("aborted at t=%.12f, want within 1e-6 of the pole", simErr.Time)
	}
	if len(simErr.State) != 1 || math.Abs(simErr.State[0]) < 1e6 {
		t.Errorf("aborted with state %v, want |x| > 1e6 near the pole", simErr.State)
	}
}

func TestRK45_DerivativeErrorPropagates(t *testing.T) {
	_, err := NewRK45().Solve(&guarded{}, 0, 5, dynamo.State{1}, []float64{5})
	if !errors.Is(err, errNegative) {
		t.Fatalf("expected derivative error, got %v", err)
	}
}

func TestRK45_StepBudget(t *testing.T) {
	cfg := dynamo.DefaultConfig()
	cfg.MaxSteps = 3
	_, err := NewDormandPrince(cfg).Solve(&harmonicOscillator{}, 0, 100, dynamo.State{1, 0}, []float64{100})
	if !errors.Is(err, dynamo.ErrTooManySteps) {
		t.Errorf("expected ErrTooManySteps, got %v", err)
	}
}

func TestRK45_Stats(t *testing.T) {
	integrator := NewRK45()
	if _, err := integrator.Solve(&decay{}, 0, 1, dynamo.State{1}, []float64{1}); err != nil {
		t.Fatal(err)
	}
	st := integrator.Stats()
	if st.Steps == 0 || st.Evaluations < 6*st.Steps {
		t.Errorf("unexpected stats: %+v", st)
	}
}

func TestRK45_VsRK4_Accuracy(t *testing.T) {
	cfg := dynamo.DefaultConfig()
	cfg.Substeps = 10
	ts := linspace(0, 10, 101)

	x4, err := NewRK4(cfg).Solve(&harmonicOscillator{}, 0, 10, dynamo.State{1, 0}, ts)
	if err != nil {
		t.Fatal(err)
	}
	x45, err := NewRK45().Solve(&harmonicOscillator{}, 0, 10, dynamo.State{1, 0}, ts)
	if err != nil {
		t.Fatal(err)
	}

	for i := range ts {
		if d := math.Abs(x4[i][0] - x45[i][0]); d > 1e-6 {
			t.Errorf("t=%.1f: rk4 and rk45 differ by %e", ts[i], d)
		}
	}
}

func TestRegistry(t *testing.T) {
	for _, name := range List() {
		s, err := New(name, dynamo.DefaultConfig())
		if err != nil {
			t.Fatalf("New(%q): %v", name, err)
		}
		if s.Name() == "" {
			t.Errorf("solver %q has no name", name)
		}
	}

	if _, err := New("euler", dynamo.DefaultConfig()); !errors.Is(err, dynamo.ErrConfiguration) {
		t.Errorf("expected ErrConfiguration for unknown solver, got %v", err)
	}
}
