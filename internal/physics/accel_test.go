package physics

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/stagesim/internal/dynamo"
)

func TestAccelerationMatchesModel(t *testing.T) {
	c := DefaultConstants()
	kinds := []Kind{
		stage1,
		Burn{MassFlowRate: 0.1915, ExhaustVelocity: 1947.8},
		Coast{},
	}
	states := []State{
		{Velocity: 0, Mass: 4.4},
		{Velocity: 120, Mass: 4.15},
		{Velocity: -35, Mass: 1.82},
	}

	for _, k := range kinds {
		for _, s := range states {
			dx, err := NewModel(c, k).Derive(s.Vector(), 0)
			if err != nil {
				t.Fatal(err)
			}
			a, err := Acceleration(c, k, s.Mass, s.Velocity)
			if err != nil {
				t.Fatal(err)
			}
			if math.Abs(a-dx[1]) > 1e-12*math.Max(1, math.Abs(a)) {
				t.Errorf("%s %+v: Acceleration=%f, Derive=%f", k, s, a, dx[1])
			}
		}
	}
}

func TestAccelerationG(t *testing.T) {
	c := DefaultConstants()

	g, err := AccelerationG(c, Coast{}, 1, 0)
	if err != nil {
		t.Fatal(err)
	}
	if g != -1 {
		t.Errorf("coast at rest should be -1 g, got %f", g)
	}

	liftoff, err := AccelerationG(c, stage1, 4.4, 0)
	if err != nil {
		t.Fatal(err)
	}
	want := (0.2225*2175/4.4 - c.Gravity) / c.Gravity
	if math.Abs(liftoff-want) > 1e-12 {
		t.Errorf("liftoff = %f g, want %f g", liftoff, want)
	}
}

func TestAccelerationInvalidMass(t *testing.T) {
	if _, err := Acceleration(DefaultConstants(), Coast{}, 0, 1); !errors.Is(err, dynamo.ErrInvalidState) {
		t.Errorf("expected ErrInvalidState, got %v", err)
	}
	if _, err := AccelerationG(DefaultConstants(), stage1, -1, 1); !errors.Is(err, dynamo.ErrInvalidState) {
		t.Errorf("expected ErrInvalidState, got %v", err)
	}
}
