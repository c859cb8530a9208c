package metrics

import (
	"github.com/san-kum/stagesim/internal/trajectory"
)

// Burnout is the state at the end of a burn phase.
type Burnout struct {
	Phase    string  `json:"phase"`
	Time     float64 `json:"time"`
	Height   float64 `json:"height"`
	Velocity float64 `json:"velocity"`
	Mass     float64 `json:"mass"`
}

type Summary struct {
	MaxHeight       float64   `json:"max_height"`
	ApogeeTime      float64   `json:"apogee_time"`
	MaxVelocity     float64   `json:"max_velocity"`
	MaxVelocityTime float64   `json:"max_velocity_time"`
	MaxQ            float64   `json:"max_q"`
	MaxQTime        float64   `json:"max_q_time"`
	MaxAccelG       float64   `json:"max_accel_g"`
	MaxAccelTime    float64   `json:"max_accel_time"`
	FinalHeight     float64   `json:"final_height"`
	FinalVelocity   float64   `json:"final_velocity"`
	FinalMass       float64   `json:"final_mass"`
	FlightTime      float64   `json:"flight_time"`
	Burnouts        []Burnout `json:"burnouts"`
}

// Summarize runs the standard metrics over every sample of t.
func Summarize(t *trajectory.Trajectory) Summary {
	apogee := NewApogee()
	vmax := NewMaxVelocity()
	q := NewDynamicPressure(t.Constants.AirDensity)
	accel := NewMaxAcceleration()
	observers := []Metric{apogee, vmax, q, accel}

	for i := 0; i < t.Len(); i++ {
		s := t.Sample(i)
		for _, m := range observers {
			m.Observe(s)
		}
	}

	var sum Summary
	if t.Len() == 0 {
		return sum
	}

	last := t.Sample(t.Len() - 1)
	sum = Summary{
		MaxHeight:       apogee.Value(),
		ApogeeTime:      apogee.At(),
		MaxVelocity:     vmax.Value(),
		MaxVelocityTime: vmax.At(),
		MaxQ:            q.Value(),
		MaxQTime:        q.At(),
		MaxAccelG:       accel.Value(),
		MaxAccelTime:    accel.At(),
		FinalHeight:     last.State.Height,
		FinalVelocity:   last.State.Velocity,
		FinalMass:       last.State.Mass,
		FlightTime:      last.Time - t.Time[0],
	}

	for _, seg := range t.Segments {
		if seg.Kind != "burn" {
			continue
		}
		s := t.Sample(seg.Last)
		sum.Burnouts = append(sum.Burnouts, Burnout{
			Phase:    seg.Name,
			Time:     s.Time,
			Height:   s.State.Height,
			Velocity: s.State.Velocity,
			Mass:     s.State.Mass,
		})
	}
	return sum
}
