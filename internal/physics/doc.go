// Package physics provides the vertical-flight rocket model.
//
// [Model] implements [dynamo.System] for a single flight phase, selected by
// the [Kind] variant:
//
//   - [Burn]: thrust from mass flow and exhaust velocity, mass decreasing
//   - [Coast]: gravity and drag only, mass constant
//
// [Acceleration] recomputes the same acceleration from (mass, velocity)
// samples and is used to cross-check integrated trajectories.
//
//	model := physics.NewModel(physics.DefaultConstants(), physics.Burn{MassFlowRate: 0.2225, ExhaustVelocity: 2175})
//	dx, err := model.Derive(physics.State{Mass: 4.4}.Vector(), 0)
package physics
