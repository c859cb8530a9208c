package physics

import (
	"fmt"

	"github.com/san-kum/stagesim/internal/dynamo"
)

// Acceleration returns the instantaneous acceleration (m/s^2) of a vehicle of
// the given mass and velocity in a phase of kind k. It evaluates thrust and
// drag directly from the constants and never calls Model.Derive, so it can
// be used to check the integrated velocity curve.
func Acceleration(c Constants, k Kind, mass, velocity float64) (float64, error) {
	if mass <= 0 {
		return 0, fmt.Errorf("%w: mass %g kg", dynamo.ErrInvalidState, mass)
	}

	drag := 0.5 * c.AirDensity * velocity * velocity * c.DragCoeff * c.RefArea / mass
	a := -c.Gravity - drag

	switch k := k.(type) {
	case Burn:
		a += k.MassFlowRate * k.ExhaustVelocity / mass
	case Coast:
	default:
		return 0, fmt.Errorf("%w: unknown phase kind %T", dynamo.ErrConfiguration, k)
	}
	return a, nil
}

// AccelerationG is Acceleration expressed in multiples of c.Gravity.
func AccelerationG(c Constants, k Kind, mass, velocity float64) (float64, error) {
	a, err := Acceleration(c, k, mass, velocity)
	if err != nil {
		return 0, err
	}
	return a / c.Gravity, nil
}
