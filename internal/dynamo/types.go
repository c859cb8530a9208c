package dynamo

import (
	"math"
)

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// AddScaled returns s + k*d as a new state. d must be as long as s.
func (s State) AddScaled(k float64, d State) State {
	out := make(State, len(s))
	for i := range s {
		out[i] = s[i] + k*d[i]
	}
	return out
}

// System is an autonomous or time-dependent ODE right-hand side.
// Derive must not modify x.
type System interface {
	Derive(x State, t float64) (State, error)
	StateDim() int
}

// Solver integrates a System over [t0, t1] from x0 and returns the state at
// each requested time in ts. ts must be sorted and lie inside [t0, t1].
type Solver interface {
	Name() string
	Solve(sys System, t0, t1 float64, x0 State, ts []float64) ([]State, error)
}

type Config struct {
	Tolerance    float64
	AbsTolerance float64
	InitialDt    float64
	MinDt        float64
	MaxDt        float64
	MaxSteps     int
	Substeps     int
}

func DefaultConfig() Config {
	return Config{
		Tolerance:    1e-8,
		AbsTolerance: 1e-10,
		MinDt:        1e-12,
		MaxSteps:     100000,
		Substeps:     20,
	}
}

// Validate reports settings no solver can work with.
func (c Config) Validate() error {
	if c.Tolerance <= 0 {
		return Configf("tolerance must be positive, got %g", c.Tolerance)
	}
	if c.AbsTolerance < 0 {
		return Configf("absolute tolerance must be non-negative, got %g", c.AbsTolerance)
	}
	if c.InitialDt < 0 || c.MinDt < 0 || c.MaxDt < 0 {
		return Configf("step limits must be non-negative")
	}
	if c.MaxDt > 0 && c.MinDt > c.MaxDt {
		return Configf("min dt %g exceeds max dt %g", c.MinDt, c.MaxDt)
	}
	if c.MaxSteps <= 0 {
		return Configf("max steps must be positive, got %d", c.MaxSteps)
	}
	if c.Substeps < 0 {
		return Configf("substeps must be non-negative, got %d", c.Substeps)
	}
	return nil
}

// CheckTimes verifies ts is sorted and inside [t0, t1].
func CheckTimes(t0, t1 float64, ts []float64) error {
	if math.IsNaN(t0) || math.IsNaN(t1) || t1 < t0 {
		return Configf("invalid span [%g, %g]", t0, t1)
	}
	prev := t0
	for i, t := range ts {
		if math.IsNaN(t) || t < prev || t > t1 {
			return Configf("sample time %d (%g) outside span [%g, %g] or unsorted", i, t, t0, t1)
		}
		prev = t
	}
	return nil
}
