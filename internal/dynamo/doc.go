// Package dynamo provides the numerical primitives shared by the flight core.
//
// The package defines the fundamental interfaces and types used to integrate
// ordinary differential equations (ODEs) phase by phase:
//
//   - [State]: vector representing system state
//   - [System]: interface for ODE systems (dX/dt = f(X, t))
//   - [Solver]: integrator producing samples at requested times
//   - [Config]: step-size and tolerance settings for a [Solver]
//
// # Example
//
//	model := physics.NewModel(physics.DefaultConstants(), physics.Coast{})
//	solver := integrators.NewDormandPrince(dynamo.DefaultConfig())
//	xs, err := solver.Solve(model, 0, 10, x0, ts)
//
// # Errors
//
// Every failure wraps one of [ErrConfiguration], [ErrInvalidState] or
// [ErrIntegration]; use errors.Is to classify them.
package dynamo
