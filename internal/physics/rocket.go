package physics

import (
	"fmt"

	"github.com/san-kum/stagesim/internal/dynamo"
)

const (
	DefaultGravity    = 9.81
	DefaultAirDensity = 1.22
	DefaultDragCoeff  = 0.75
	DefaultRefArea    = 2.552e-3
)

// Constants are the physical constants shared by every flight phase.
type Constants struct {
	Gravity    float64 `yaml:"gravity" json:"gravity"`
	AirDensity float64 `yaml:"air_density" json:"air_density"`
	DragCoeff  float64 `yaml:"drag_coeff" json:"drag_coeff"`
	RefArea    float64 `yaml:"ref_area" json:"ref_area"`
}

// DefaultConstants returns sea-level constants for the reference vehicle.
func DefaultConstants() Constants {
	return Constants{
		Gravity:    DefaultGravity,
		AirDensity: DefaultAirDensity,
		DragCoeff:  DefaultDragCoeff,
		RefArea:    DefaultRefArea,
	}
}

// Validate rejects non-positive gravity and negative aerodynamic constants.
func (c Constants) Validate() error {
	if c.Gravity <= 0 {
		return dynamo.Configf("gravity must be positive, got %g", c.Gravity)
	}
	if c.AirDensity < 0 || c.DragCoeff < 0 || c.RefArea < 0 {
		return dynamo.Configf("aerodynamic constants must be non-negative")
	}
	return nil
}

// GetParams returns the constants keyed by their config names.
func (c Constants) GetParams() map[string]float64 {
	return map[string]float64{
		"gravity":     c.Gravity,
		"air_density": c.AirDensity,
		"drag_coeff":  c.DragCoeff,
		"ref_area":    c.RefArea,
	}
}

// SetParam sets one constant by its config name.
func (c *Constants) SetParam(name string, value float64) error {
	switch name {
	case "gravity":
		c.Gravity = value
	case "air_density":
		c.AirDensity = value
	case "drag_coeff":
		c.DragCoeff = value
	case "ref_area":
		c.RefArea = value
	default:
		return fmt.Errorf("%w: unknown param: %s", dynamo.ErrConfiguration, name)
	}
	return nil
}

// dragFactor is the factor k in the drag deceleration k*v^2/m.
func (c Constants) dragFactor() float64 {
	return 0.5 * c.AirDensity * c.DragCoeff * c.RefArea
}

// Kind is the propulsion mode of a flight phase: Burn or Coast.
type Kind interface {
	kind()
	String() string
}

// Burn is a powered phase ejecting propellant at MassFlowRate (kg/s) with
// ExhaustVelocity (m/s).
type Burn struct {
	MassFlowRate    float64
	ExhaustVelocity float64
}

// Coast is an unpowered phase.
type Coast struct{}

func (Burn) kind()  {}
func (Coast) kind() {}

func (Burn) String() string  { return "burn" }
func (Coast) String() string { return "coast" }

// Thrust returns the thrust force in newtons.
func (b Burn) Thrust() float64 {
	return b.MassFlowRate * b.ExhaustVelocity
}

// State is the vertical flight state of the vehicle.
type State struct {
	Height   float64 `json:"height"`
	Velocity float64 `json:"velocity"`
	Mass     float64 `json:"mass"`
}

// Vector packs the state as [height, velocity, mass].
func (s State) Vector() dynamo.State {
	return dynamo.State{s.Height, s.Velocity, s.Mass}
}

// FromVector is the inverse of Vector.
func FromVector(x dynamo.State) State {
	return State{Height: x[0], Velocity: x[1], Mass: x[2]}
}

// Model is the equation of motion of one flight phase. It implements
// dynamo.System over the vector [height, velocity, mass].
type Model struct {
	Constants Constants
	Kind      Kind
}

// NewModel returns the equation of motion for a phase of kind k.
func NewModel(c Constants, k Kind) *Model {
	return &Model{Constants: c, Kind: k}
}

// StateDim is 3: height, velocity and mass.
func (m *Model) StateDim() int { return 3 }

// Derive returns (dh/dt, dv/dt, dm/dt). Time is ignored; each phase is
// autonomous.
func (m *Model) Derive(x dynamo.State, t float64) (dynamo.State, error) {
	if len(x) != 3 {
		return nil, dynamo.ErrDimensionMismatch
	}
	v, mass := x[1], x[2]
	if !x.IsValid() {
		return nil, fmt.Errorf("%w: non-finite state %v", dynamo.ErrInvalidState, x)
	}
	if mass <= 0 {
		return nil, fmt.Errorf("%w: mass %g kg", dynamo.ErrInvalidState, mass)
	}

	dv := -m.Constants.Gravity - m.Constants.dragFactor()*v*v/mass
	dm := 0.0

	switch k := m.Kind.(type) {
	case Burn:
		dv += k.Thrust() / mass
		dm = -k.MassFlowRate
	case Coast:
	default:
		return nil, fmt.Errorf("%w: unknown phase kind %T", dynamo.ErrConfiguration, m.Kind)
	}

	return dynamo.State{v, dv, dm}, nil
}
