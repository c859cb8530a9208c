// Package metrics derives flight figures of merit from a trajectory.
package metrics

import (
	"math"

	"github.com/san-kum/stagesim/internal/trajectory"
)

// Metric observes trajectory samples one at a time.
type Metric interface {
	Name() string
	Observe(s trajectory.Sample)
	Value() float64
	Reset()
}

// Peak tracks the largest value of f over the observed samples and when
// it occurred.
type Peak struct {
	name  string
	f     func(trajectory.Sample) float64
	value float64
	at    float64
	seen  bool
}

func NewPeak(name string, f func(trajectory.Sample) float64) *Peak {
	return &Peak{name: name, f: f}
}

func (p *Peak) Name() string { return p.name }

func (p *Peak) Observe(s trajectory.Sample) {
	v := p.f(s)
	if math.IsNaN(v) {
		return
	}
	if !p.seen || v > p.value {
		p.value, p.at, p.seen = v, s.Time, true
	}
}

func (p *Peak) Value() float64 { return p.value }

// At is the time of the peak.
func (p *Peak) At() float64 { return p.at }

func (p *Peak) Reset() {
	p.value, p.at, p.seen = 0, 0, false
}

// NewDynamicPressure tracks max q = rho v^2 / 2 in Pa.
func NewDynamicPressure(airDensity float64) *Peak {
	return NewPeak("max_q", func(s trajectory.Sample) float64 {
		return 0.5 * airDensity * s.State.Velocity * s.State.Velocity
	})
}

// NewMaxAcceleration tracks the largest modelled acceleration in g.
func NewMaxAcceleration() *Peak {
	return NewPeak("max_accel_g", func(s trajectory.Sample) float64 { return s.Acceleration })
}

func NewApogee() *Peak {
	return NewPeak("apogee", func(s trajectory.Sample) float64 { return s.State.Height })
}

func NewMaxVelocity() *Peak {
	return NewPeak("max_velocity", func(s trajectory.Sample) float64 { return s.State.Velocity })
}
