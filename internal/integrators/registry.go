package integrators

import (
	"fmt"
	"sort"

	"github.com/san-kum/stagesim/internal/dynamo"
)

var solvers = map[string]func(dynamo.Config) dynamo.Solver{
	"rk45":  func(cfg dynamo.Config) dynamo.Solver { return NewDormandPrince(cfg) },
	"dopri": func(cfg dynamo.Config) dynamo.Solver { return NewDormandPrince(cfg) },
	"rk4":   func(cfg dynamo.Config) dynamo.Solver { return NewRK4(cfg) },
}

// New returns the solver registered under name.
func New(name string, cfg dynamo.Config) (dynamo.Solver, error) {
	fn, ok := solvers[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown integrator: %s (available: %v)", dynamo.ErrConfiguration, name, List())
	}
	return fn(cfg), nil
}

func List() []string {
	names := make([]string, 0, len(solvers))
	for name := range solvers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
