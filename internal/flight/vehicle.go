package flight

import (
	"fmt"
	"math"

	"github.com/san-kum/stagesim/internal/dynamo"
	"github.com/san-kum/stagesim/internal/physics"
)

// Stage is one propulsive stage. Its burn lasts PropellantMass/MassFlowRate
// seconds and is followed by a coast of CoastDuration seconds.
// SeparationMass is the structure discarded when the next stage ignites.
type Stage struct {
	MassFlowRate    float64 `yaml:"mass_flow_rate" json:"mass_flow_rate"`
	ExhaustVelocity float64 `yaml:"exhaust_velocity" json:"exhaust_velocity"`
	PropellantMass  float64 `yaml:"propellant_mass" json:"propellant_mass"`
	CoastDuration   float64 `yaml:"coast_duration" json:"coast_duration"`
	SeparationMass  float64 `yaml:"separation_mass" json:"separation_mass"`
}

// BurnDuration derives the burn time from propellant mass and flow rate.
func (s Stage) BurnDuration() float64 {
	return s.PropellantMass / s.MassFlowRate
}

func (s Stage) Burn() physics.Burn {
	return physics.Burn{MassFlowRate: s.MassFlowRate, ExhaustVelocity: s.ExhaustVelocity}
}

type Vehicle struct {
	InitialMass float64 `yaml:"initial_mass" json:"initial_mass"`
	Stages      []Stage `yaml:"stages" json:"stages"`
}

// DefaultVehicle is the two-stage reference vehicle.
func DefaultVehicle() Vehicle {
	return Vehicle{
		InitialMass: 4.4,
		Stages: []Stage{
			{MassFlowRate: 0.2225, ExhaustVelocity: 2175, PropellantMass: 0.2472, CoastDuration: 0.5, SeparationMass: 1.995},
			{MassFlowRate: 0.1915, ExhaustVelocity: 1947.8, PropellantMass: 0.337, CoastDuration: 17},
		},
	}
}

// Validate checks the vehicle before any integration: every rate, mass and
// duration must be positive and the mass available at each ignition must
// exceed both the structure dropped there and the propellant burned.
func (v Vehicle) Validate() error {
	if len(v.Stages) == 0 {
		return dynamo.Configf("vehicle has no stages")
	}
	if !(v.InitialMass > 0) || math.IsInf(v.InitialMass, 0) {
		return dynamo.Configf("initial mass must be positive, got %g", v.InitialMass)
	}

	mass := v.InitialMass
	for i, s := range v.Stages {
		n := i + 1
		if err := s.validate(n); err != nil {
			return err
		}
		if i == len(v.Stages)-1 && s.SeparationMass != 0 {
			return dynamo.Configf("stage %d: last stage has no separation, got separation mass %g", n, s.SeparationMass)
		}
		if i > 0 {
			drop := v.Stages[i-1].SeparationMass
			if drop >= mass {
				return dynamo.Configf("stage %d: separation mass %g kg >= available mass %g kg", i, drop, mass)
			}
			mass -= drop
		}
		if s.PropellantMass >= mass {
			return dynamo.Configf("stage %d: propellant mass %g kg >= vehicle mass %g kg at ignition", n, s.PropellantMass, mass)
		}
		mass -= s.PropellantMass
	}
	return nil
}

func (s Stage) validate(n int) error {
	fields := []struct {
		name  string
		value float64
	}{
		{"mass flow rate", s.MassFlowRate},
		{"exhaust velocity", s.ExhaustVelocity},
		{"propellant mass", s.PropellantMass},
		{"coast duration", s.CoastDuration},
	}
	for _, f := range fields {
		if !(f.value > 0) || math.IsInf(f.value, 0) {
			return dynamo.Configf("stage %d: %s must be positive, got %g", n, f.name, f.value)
		}
	}
	if s.SeparationMass < 0 || math.IsNaN(s.SeparationMass) {
		return dynamo.Configf("stage %d: separation mass must be non-negative, got %g", n, s.SeparationMass)
	}
	return nil
}

// Schedule returns the ordered phases: a burn then a coast per stage, with
// cumulative time spans starting at zero. Only the first phase carries an
// initial state; the others are filled in at handoff.
func (v Vehicle) Schedule() ([]PhaseSpec, error) {
	if err := v.Validate(); err != nil {
		return nil, err
	}

	specs := make([]PhaseSpec, 0, 2*len(v.Stages))
	t := 0.0
	for i, s := range v.Stages {
		n := i + 1
		burn := PhaseSpec{
			Index: len(specs),
			Name:  fmt.Sprintf("burn-%d", n),
			Kind:  s.Burn(),
			Start: t,
			End:   t + s.BurnDuration(),
		}
		if i > 0 {
			burn.Jettison = v.Stages[i-1].SeparationMass
		}
		specs = append(specs, burn)
		t = burn.End

		specs = append(specs, PhaseSpec{
			Index: len(specs),
			Name:  fmt.Sprintf("coast-%d", n),
			Kind:  physics.Coast{},
			Start: t,
			End:   t + s.CoastDuration,
		})
		t += s.CoastDuration
	}

	specs[0].Initial = physics.State{Mass: v.InitialMass}
	return specs, nil
}
