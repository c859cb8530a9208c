// Package config loads and saves run configurations.
package config

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/go-kit/log"
	"github.com/san-kum/stagesim/internal/dynamo"
	"github.com/san-kum/stagesim/internal/flight"
	"github.com/san-kum/stagesim/internal/integrators"
	"github.com/san-kum/stagesim/internal/physics"
	"gopkg.in/yaml.v3"
)

const DefaultSolver = "rk45"

type Config struct {
	Physics physics.Constants `yaml:"physics" json:"physics"`
	Vehicle flight.Vehicle    `yaml:"vehicle" json:"vehicle"`
	Samples int               `yaml:"samples" json:"samples"`
	Solver  SolverConfig      `yaml:"solver" json:"solver"`
}

type SolverConfig struct {
	Name         string  `yaml:"name" json:"name"`
	Tolerance    float64 `yaml:"rtol" json:"rtol"`
	AbsTolerance float64 `yaml:"atol" json:"atol"`
	MaxDt        float64 `yaml:"max_dt,omitempty" json:"max_dt,omitempty"`
	MaxSteps     int     `yaml:"max_steps" json:"max_steps"`
	Substeps     int     `yaml:"substeps" json:"substeps"`
}

func DefaultConfig() *Config {
	sc := dynamo.DefaultConfig()
	return &Config{
		Physics: physics.DefaultConstants(),
		Vehicle: flight.DefaultVehicle(),
		Samples: flight.DefaultSamples,
		Solver: SolverConfig{
			Name:         DefaultSolver,
			Tolerance:    sc.Tolerance,
			AbsTolerance: sc.AbsTolerance,
			MaxSteps:     sc.MaxSteps,
			Substeps:     sc.Substeps,
		},
	}
}

// Load reads a YAML file over the defaults. A file that sets vehicle.stages
// replaces the default stages entirely.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", dynamo.ErrConfiguration, path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Clone returns a copy that shares no stage slice with c.
func (c *Config) Clone() *Config {
	out := *c
	out.Vehicle.Stages = append([]flight.Stage(nil), c.Vehicle.Stages...)
	return &out
}

func (c *Config) Validate() error {
	if err := c.Physics.Validate(); err != nil {
		return err
	}
	if err := c.Vehicle.Validate(); err != nil {
		return err
	}
	if c.Samples < 2 {
		return dynamo.Configf("need at least 2 samples per phase, got %d", c.Samples)
	}
	if err := c.Solver.Dynamo().Validate(); err != nil {
		return err
	}
	if !slices.Contains(integrators.List(), c.Solver.Name) {
		return dynamo.Configf("unknown solver %q (available: %s)", c.Solver.Name, strings.Join(integrators.List(), ", "))
	}
	return nil
}

// Dynamo converts the solver section into integrator settings.
func (s SolverConfig) Dynamo() dynamo.Config {
	cfg := dynamo.DefaultConfig()
	cfg.Tolerance = s.Tolerance
	cfg.AbsTolerance = s.AbsTolerance
	cfg.MaxDt = s.MaxDt
	cfg.MaxSteps = s.MaxSteps
	cfg.Substeps = s.Substeps
	return cfg
}

func (c *Config) NewSolver() (dynamo.Solver, error) {
	return integrators.New(c.Solver.Name, c.Solver.Dynamo())
}

// NewSequencer validates c and wires a sequencer for it.
func (c *Config) NewSequencer(logger log.Logger) (*flight.Sequencer, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	solver, err := c.NewSolver()
	if err != nil {
		return nil, err
	}
	return flight.New(c.Physics, c.Vehicle,
		flight.WithSolver(solver),
		flight.WithSamples(c.Samples),
		flight.WithLogger(logger),
	), nil
}
