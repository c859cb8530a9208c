package config

import (
	"sort"

	"github.com/san-kum/stagesim/internal/flight"
)

type preset struct {
	description string
	build       func(*Config)
}

var presets = map[string]preset{
	"reference": {
		description: "two-stage reference vehicle",
		build:       func(*Config) {},
	},
	"single-stage": {
		description: "first stage only, no separation",
		build: func(c *Config) {
			s := flight.DefaultVehicle().Stages[0]
			s.SeparationMass = 0
			s.CoastDuration = 12
			c.Vehicle.Stages = []flight.Stage{s}
		},
	},
	"heavy": {
		description: "reference stages on a 5 kg airframe",
		build: func(c *Config) {
			c.Vehicle.InitialMass = 5.0
		},
	},
	"vacuum": {
		description: "reference vehicle without drag",
		build: func(c *Config) {
			c.Physics.AirDensity = 0
		},
	},
	"fixed-step": {
		description: "reference vehicle on classical RK4",
		build: func(c *Config) {
			c.Solver.Name = "rk4"
			c.Solver.Substeps = 50
		},
	},
}

// GetPreset returns a fresh copy of the named preset, or nil.
func GetPreset(name string) *Config {
	p, ok := presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	p.build(cfg)
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func Describe(name string) string {
	return presets[name].description
}
