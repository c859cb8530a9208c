package experiment

import (
	"context"
	"sync"
)

// RunAll runs every experiment concurrently and returns the results in
// input order. The first error in input order is returned.
func RunAll(ctx context.Context, exps []*Experiment) ([]*Result, error) {
	results := make([]*Result, len(exps))
	errs := make([]error, len(exps))

	var wg sync.WaitGroup
	for i, e := range exps {
		wg.Add(1)
		go func(idx int, e *Experiment) {
			defer wg.Done()
			results[idx], errs[idx] = e.Run(ctx)
		}(i, e)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}

// Solvers builds one experiment per solver name on copies of base.
func Solvers(base *Experiment, names []string) []*Experiment {
	exps := make([]*Experiment, len(names))
	for i, name := range names {
		cfg := base.cfg.Clone()
		cfg.Solver.Name = name
		exps[i] = New(name, cfg, base.logger)
	}
	return exps
}
