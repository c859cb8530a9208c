// Package experiment runs a configured flight end to end: schedule,
// integration, aggregation and metrics.
package experiment

import (
	"context"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/san-kum/stagesim/internal/config"
	"github.com/san-kum/stagesim/internal/flight"
	"github.com/san-kum/stagesim/internal/logging"
	"github.com/san-kum/stagesim/internal/metrics"
	"github.com/san-kum/stagesim/internal/trajectory"
)

type Result struct {
	Label      string
	Solver     string
	Config     *config.Config
	Phases     []flight.PhaseResult
	Trajectory *trajectory.Trajectory
	Summary    metrics.Summary
	CrossCheck trajectory.Report
	Elapsed    time.Duration
}

type Experiment struct {
	label  string
	cfg    *config.Config
	logger log.Logger
}

// New copies cfg; later changes to it do not affect the experiment.
func New(label string, cfg *config.Config, logger log.Logger) *Experiment {
	return &Experiment{label: label, cfg: cfg.Clone(), logger: logging.OrNop(logger)}
}

func (e *Experiment) Config() *config.Config { return e.cfg }

func (e *Experiment) Run(ctx context.Context) (*Result, error) {
	seq, err := e.cfg.NewSequencer(log.With(e.logger, "run", e.label))
	if err != nil {
		return nil, err
	}

	start := time.Now()
	phases, err := seq.Fly(ctx)
	if err != nil {
		return nil, err
	}

	tr, err := trajectory.Build(e.cfg.Physics, phases)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Label:      e.label,
		Solver:     e.cfg.Solver.Name,
		Config:     e.cfg,
		Phases:     phases,
		Trajectory: tr,
		Summary:    metrics.Summarize(tr),
		CrossCheck: trajectory.CrossCheck(tr, false),
		Elapsed:    time.Since(start),
	}

	level.Debug(e.logger).Log("msg", "experiment done", "run", e.label, "samples", tr.Len(),
		"max_height", res.Summary.MaxHeight, "max_rel_dev", res.CrossCheck.Overall.MaxRel, "elapsed", res.Elapsed)
	return res, nil
}
