// Package trajectory joins per-phase flight results into one time series and
// cross-checks the modelled acceleration against the sampled velocity.
package trajectory

import (
	"fmt"

	"github.com/san-kum/stagesim/internal/dynamo"
	"github.com/san-kum/stagesim/internal/flight"
	"github.com/san-kum/stagesim/internal/physics"
	"gonum.org/v1/gonum/floats"
)

// Segment locates one phase inside the concatenated series; samples
// [First, Last] belong to it.
type Segment struct {
	Name  string  `json:"name"`
	Kind  string  `json:"kind"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	First int     `json:"first"`
	Last  int     `json:"last"`
}

// Trajectory is the read-only result of a run. All series are parallel.
// Acceleration is the model acceleration and Gradient the numerical
// derivative of Velocity, both in units of g.
type Trajectory struct {
	Time         []float64
	Height       []float64
	Velocity     []float64
	Mass         []float64
	Acceleration []float64
	Gradient     []float64
	Phase        []int
	Segments     []Segment
	Constants    physics.Constants
}

// Sample is a single row of a Trajectory.
type Sample struct {
	Time         float64
	Phase        int
	State        physics.State
	Acceleration float64
	Gradient     float64
}

// Build concatenates the phase results in order.
func Build(c physics.Constants, results []flight.PhaseResult) (*Trajectory, error) {
	if len(results) == 0 {
		return nil, dynamo.Configf("no phases to aggregate")
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}

	n := 0
	for _, r := range results {
		n += len(r.States)
	}
	tr := &Trajectory{
		Time:         make([]float64, 0, n),
		Height:       make([]float64, 0, n),
		Velocity:     make([]float64, 0, n),
		Mass:         make([]float64, 0, n),
		Acceleration: make([]float64, 0, n),
		Gradient:     make([]float64, 0, n),
		Phase:        make([]int, 0, n),
		Segments:     make([]Segment, 0, len(results)),
		Constants:    c,
	}

	for idx, r := range results {
		if len(r.Times) != len(r.States) || len(r.States) == 0 {
			return nil, dynamo.Configf("phase %s: %d times for %d states", r.Spec.Name, len(r.Times), len(r.States))
		}
		if k := len(tr.Time); k > 0 && r.Times[0] < tr.Time[k-1] {
			return nil, dynamo.Configf("phase %s starts at %g before previous phase ended at %g", r.Spec.Name, r.Times[0], tr.Time[k-1])
		}

		first := len(tr.Time)
		velocity := make([]float64, len(r.States))
		for i, s := range r.States {
			a, err := physics.AccelerationG(c, r.Spec.Kind, s.Mass, s.Velocity)
			if err != nil {
				return nil, fmt.Errorf("phase %s sample %d: %w", r.Spec.Name, i, err)
			}
			velocity[i] = s.Velocity
			tr.Time = append(tr.Time, r.Times[i])
			tr.Height = append(tr.Height, s.Height)
			tr.Velocity = append(tr.Velocity, s.Velocity)
			tr.Mass = append(tr.Mass, s.Mass)
			tr.Acceleration = append(tr.Acceleration, a)
			tr.Phase = append(tr.Phase, idx)
		}

		// Adjacent phases share their boundary time, so the derivative is
		// taken per phase rather than across the seam.
		grad, err := Gradient(velocity, r.Times)
		if err != nil {
			return nil, fmt.Errorf("phase %s: %w", r.Spec.Name, err)
		}
		floats.Scale(1/c.Gravity, grad)
		tr.Gradient = append(tr.Gradient, grad...)

		tr.Segments = append(tr.Segments, Segment{
			Name:  r.Spec.Name,
			Kind:  r.Spec.Kind.String(),
			Start: r.Spec.Start,
			End:   r.Spec.End,
			First: first,
			Last:  len(tr.Time) - 1,
		})
	}

	return tr, nil
}

func (t *Trajectory) Len() int { return len(t.Time) }

func (t *Trajectory) Sample(i int) Sample {
	return Sample{
		Time:         t.Time[i],
		Phase:        t.Phase[i],
		State:        physics.State{Height: t.Height[i], Velocity: t.Velocity[i], Mass: t.Mass[i]},
		Acceleration: t.Acceleration[i],
		Gradient:     t.Gradient[i],
	}
}

// MaxHeight returns the highest sampled height and when it occurs.
func (t *Trajectory) MaxHeight() (height, at float64) {
	i := floats.MaxIdx(t.Height)
	return t.Height[i], t.Time[i]
}

// MaxVelocity returns the highest sampled velocity and when it occurs.
func (t *Trajectory) MaxVelocity() (velocity, at float64) {
	i := floats.MaxIdx(t.Velocity)
	return t.Velocity[i], t.Time[i]
}

// Segment returns the phase a sample belongs to.
func (t *Trajectory) Segment(i int) Segment {
	return t.Segments[t.Phase[i]]
}
